package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	domain "github.com/example/tidytasks/domain/user"
	"github.com/example/tidytasks/internal/validator"
	"go.uber.org/zap"
)

// ErrInvalidCredentials is returned when login credentials are invalid.
var ErrInvalidCredentials = errors.New("invalid username or password")

// PasswordMaxBytes is the bcrypt input limit.
const PasswordMaxBytes = 72

type registration struct {
	Username string `json:"username" validate:"min=3,max=150"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=8,max=72"`
}

// AuthService handles registration, login and token checks.
type AuthService struct {
	repo   *UserRepository
	hasher *PasswordHasher
	jwt    *JWTManager
	log    *zap.Logger
}

var _ AuthPort = (*AuthService)(nil)

// NewAuthService creates a new AuthService.
func NewAuthService(repo *UserRepository, hasher *PasswordHasher, jwt *JWTManager, log *zap.Logger) *AuthService {
	return &AuthService{
		repo:   repo,
		hasher: hasher,
		jwt:    jwt,
		log:    log,
	}
}

// Register creates a new user account.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if err := validator.Struct(registration{Username: username, Email: email, Password: password}); err != nil {
		return nil, err
	}
	if len(password) > PasswordMaxBytes {
		return nil, validator.FieldError("password", fmt.Sprintf("must be at most %d bytes", PasswordMaxBytes))
	}

	exists, err := s.repo.Exists(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("user registered", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Login authenticates a user and issues an access token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Token, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	s.upgradeHash(ctx, user, password)

	return s.IssueToken(user)
}

// upgradeHash re-hashes the password of a user whose stored hash uses a
// different bcrypt cost. Failures are logged; the login still succeeds.
func (s *AuthService) upgradeHash(ctx context.Context, user *domain.User, password string) {
	if !s.hasher.NeedsRehash(user.PasswordHash) {
		return
	}
	hash, err := s.hasher.Hash(password)
	if err == nil {
		err = s.repo.UpdatePasswordHash(ctx, user.ID, hash)
	}
	if err != nil {
		s.log.Warn("failed to upgrade password hash", zap.Uint("user_id", user.ID), zap.Error(err))
		return
	}
	user.PasswordHash = hash
	s.log.Info("password hash upgraded", zap.Uint("user_id", user.ID))
}

// IssueToken signs an access token for user.
func (s *AuthService) IssueToken(user *domain.User) (*domain.Token, error) {
	accessToken, err := s.jwt.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &domain.Token{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   s.jwt.AccessTokenDuration(),
	}, nil
}

// ValidateToken verifies the token and resolves its subject to a live user.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &domain.Claims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	}, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID uint) (*domain.User, error) {
	return s.repo.FindByID(ctx, userID)
}
