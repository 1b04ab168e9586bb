package auth

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	domain "github.com/example/tidytasks/domain/user"
	"github.com/example/tidytasks/internal/validator"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthPort defines the interface for authentication operations.
// This is the port that other modules use to access auth functionality.
type AuthPort interface {
	Register(ctx context.Context, username, email, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*domain.Token, error)
	ValidateToken(ctx context.Context, token string) (*domain.Claims, error)
	GetUser(ctx context.Context, userID uint) (*domain.User, error)
}

// AuthAdapter implements AuthPort using the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

var _ AuthPort = (*AuthAdapter)(nil)

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	if container == nil {
		panic("auth adapter requires non-nil ServiceContainer")
	}
	return &AuthAdapter{
		container: container,
	}
}

// Register creates a user through the register service.
func (a *AuthAdapter) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	req := RegisterRequest{Username: username, Email: email, Password: password}
	var resp RegisterResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"register",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, mapServiceError(err)
	}

	return &domain.User{
		ID:        resp.ID,
		Username:  resp.Username,
		Email:     resp.Email,
		CreatedAt: resp.CreatedAt,
	}, nil
}

// Login exchanges credentials for an access token.
func (a *AuthAdapter) Login(ctx context.Context, username, password string) (*domain.Token, error) {
	req := LoginRequest{Username: username, Password: password}
	var resp LoginResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"login",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, mapServiceError(err)
	}

	return &domain.Token{
		AccessToken: resp.AccessToken,
		TokenType:   resp.TokenType,
		ExpiresIn:   resp.ExpiresIn,
	}, nil
}

// ValidateToken validates an access token and returns claims.
func (a *AuthAdapter) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	req := ValidateTokenRequest{Token: token}
	var resp ValidateTokenResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"validate-token",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, mapServiceError(err)
	}

	if !resp.Valid {
		if mapped := mapServiceError(errors.New(resp.Error)); mapped == ErrExpiredToken || mapped == ErrUserNotFound {
			return nil, mapped
		}
		return nil, ErrInvalidToken
	}

	return &domain.Claims{
		UserID:   resp.UserID,
		Username: resp.Username,
		Email:    resp.Email,
	}, nil
}

// GetUser retrieves a user by ID.
func (a *AuthAdapter) GetUser(ctx context.Context, userID uint) (*domain.User, error) {
	req := GetUserRequest{UserID: userID}
	var resp GetUserResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"get-user",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, mapServiceError(err)
	}

	return &domain.User{
		ID:        resp.ID,
		Username:  resp.Username,
		Email:     resp.Email,
		CreatedAt: resp.CreatedAt,
	}, nil
}

// mapServiceError restores auth sentinels from errors that crossed the bus
// as plain text.
func mapServiceError(err error) error {
	if err == nil {
		return nil
	}

	errMsg := strings.ToLower(err.Error())

	if verr, ok := validator.Parse(err.Error()); ok {
		return verr
	}
	if strings.Contains(errMsg, ErrUserExists.Error()) {
		return ErrUserExists
	}
	if strings.Contains(errMsg, ErrInvalidCredentials.Error()) {
		return ErrInvalidCredentials
	}
	if strings.Contains(errMsg, ErrUserNotFound.Error()) {
		return ErrUserNotFound
	}
	if strings.Contains(errMsg, ErrExpiredToken.Error()) {
		return ErrExpiredToken
	}
	if strings.Contains(errMsg, ErrInvalidToken.Error()) {
		return ErrInvalidToken
	}

	return err
}
