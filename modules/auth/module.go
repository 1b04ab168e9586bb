package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/tidytasks/internal/database"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuthModule provides authentication services.
type AuthModule struct {
	db      *gorm.DB
	jwt     *JWTManager
	hasher  *PasswordHasher
	service *AuthService
	log     *zap.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*AuthModule)(nil)
var _ mono.ServiceProviderModule = (*AuthModule)(nil)
var _ mono.HealthCheckableModule = (*AuthModule)(nil)

// NewModule creates a new AuthModule over an already migrated database.
func NewModule(db *gorm.DB, jwtConfig JWTConfig, hasher *PasswordHasher, log *zap.Logger) *AuthModule {
	if hasher == nil {
		hasher = NewPasswordHasher()
	}
	log = log.Named("auth")
	jwtManager := NewJWTManager(jwtConfig)
	return &AuthModule{
		db:      db,
		jwt:     jwtManager,
		hasher:  hasher,
		service: NewAuthService(NewUserRepository(db), hasher, jwtManager, log),
		log:     log,
	}
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// Service exposes the in-process AuthPort implementation.
func (m *AuthModule) Service() *AuthService {
	return m.service
}

// Start initializes the auth module.
func (m *AuthModule) Start(_ context.Context) error {
	if m.db == nil {
		return fmt.Errorf("database not initialized")
	}
	m.log.Info("module started")
	return nil
}

// Stop shuts down the module. The database is owned by main.
func (m *AuthModule) Stop(_ context.Context) error {
	m.log.Info("module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *AuthModule) Health(ctx context.Context) mono.HealthStatus {
	if err := database.Ping(ctx, m.db); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: err.Error(),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"token_ttl_seconds": m.jwt.AccessTokenDuration(),
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "register", json.Unmarshal, json.Marshal, m.handleRegister,
	); err != nil {
		return fmt.Errorf("failed to register register service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "login", json.Unmarshal, json.Marshal, m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register login service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "validate-token", json.Unmarshal, json.Marshal, m.handleValidateToken,
	); err != nil {
		return fmt.Errorf("failed to register validate-token service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-user", json.Unmarshal, json.Marshal, m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register get-user service: %w", err)
	}

	m.log.Info("registered services", zap.Strings("services", []string{"register", "login", "validate-token", "get-user"}))
	return nil
}

func (m *AuthModule) handleRegister(ctx context.Context, req RegisterRequest, _ *mono.Msg) (RegisterResponse, error) {
	user, err := m.service.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		return RegisterResponse{}, err
	}

	return RegisterResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}, nil
}

func (m *AuthModule) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (LoginResponse, error) {
	token, err := m.service.Login(ctx, req.Username, req.Password)
	if err != nil {
		return LoginResponse{}, err
	}

	return LoginResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresIn:   token.ExpiresIn,
	}, nil
}

// handleValidateToken reports validation failures in the response body so
// callers can tell a bad token from a transport failure.
func (m *AuthModule) handleValidateToken(ctx context.Context, req ValidateTokenRequest, _ *mono.Msg) (ValidateTokenResponse, error) {
	claims, err := m.service.ValidateToken(ctx, req.Token)
	if err != nil {
		if !errors.Is(err, ErrInvalidToken) && !errors.Is(err, ErrExpiredToken) && !errors.Is(err, ErrUserNotFound) {
			return ValidateTokenResponse{}, err
		}
		return ValidateTokenResponse{
			Valid: false,
			Error: err.Error(),
		}, nil
	}

	return ValidateTokenResponse{
		Valid:    true,
		UserID:   claims.UserID,
		Username: claims.Username,
		Email:    claims.Email,
	}, nil
}

func (m *AuthModule) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (GetUserResponse, error) {
	user, err := m.service.GetUser(ctx, req.UserID)
	if err != nil {
		return GetUserResponse{}, err
	}

	return GetUserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}, nil
}
