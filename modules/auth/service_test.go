package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/tidytasks/internal/config"
	"github.com/example/tidytasks/internal/database"
	"github.com/example/tidytasks/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func setupTestService(t *testing.T) *AuthService {
	t.Helper()
	db := setupTestDB(t)
	return NewAuthService(
		NewUserRepository(db),
		NewPasswordHasherWithCost(bcrypt.MinCost),
		NewJWTManager(testJWTConfig()),
		zap.NewNop(),
	)
}

func TestAuthService_Register(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "  alice ", "alice@example.com", "password123")
	require.NoError(t, err)

	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice", user.Username, "username is trimmed")
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.True(t, strings.HasPrefix(user.PasswordHash, "$2"), "bcrypt hash stored")
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		email    string
		password string
		field    string
	}{
		{"short username", "al", "al@example.com", "password123", "username"},
		{"bad email", "alice", "not-an-email", "password123", "email"},
		{"short password", "alice", "alice@example.com", "short", "password"},
		{"long password", "alice", "alice@example.com", strings.Repeat("a", 73), "password"},
		{"multibyte password over bcrypt limit", "alice", "alice@example.com", strings.Repeat("é", 40), "password"},
		{"blank email", "alice", "", "password123", "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.username, tt.email, tt.password)
			require.ErrorIs(t, err, validator.ErrValidation)

			var verr *validator.Error
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestAuthService_LoginUpgradesHashCost(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	old := NewAuthService(repo, NewPasswordHasherWithCost(bcrypt.MinCost), NewJWTManager(testJWTConfig()), zap.NewNop())
	user, err := old.Register(ctx, "alice", "alice@example.com", "password123")
	require.NoError(t, err)

	upgraded := NewPasswordHasherWithCost(bcrypt.MinCost + 1)
	svc := NewAuthService(repo, upgraded, NewJWTManager(testJWTConfig()), zap.NewNop())
	_, err = svc.Login(ctx, "alice", "password123")
	require.NoError(t, err)

	stored, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(stored.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost+1, cost)
	assert.False(t, upgraded.NeedsRehash(stored.PasswordHash))

	_, err = svc.Login(ctx, "alice", "password123")
	assert.NoError(t, err, "login still works with the new hash")
}

func TestAuthService_RegisterDuplicate(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@example.com", "password123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "other@example.com", "password123")
	assert.ErrorIs(t, err, ErrUserExists, "same username")

	_, err = svc.Register(ctx, "alice2", "alice@example.com", "password123")
	assert.ErrorIs(t, err, ErrUserExists, "same email")
}

func TestAuthService_Login(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "alice@example.com", "password123")
	require.NoError(t, err)

	token, err := svc.Login(ctx, "alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, "bearer", token.TokenType)
	assert.Equal(t, int64((30 * time.Minute).Seconds()), token.ExpiresIn)

	claims, err := svc.ValidateToken(ctx, token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestAuthService_LoginInvalidCredentials(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@example.com", "password123")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_ValidateTokenForDeletedUser(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuthService(
		NewUserRepository(db),
		NewPasswordHasherWithCost(bcrypt.MinCost),
		NewJWTManager(testJWTConfig()),
		zap.NewNop(),
	)
	ctx := context.Background()

	user, err := svc.Register(ctx, "ghost", "ghost@example.com", "password123")
	require.NoError(t, err)
	token, err := svc.IssueToken(user)
	require.NoError(t, err)

	require.NoError(t, db.Exec("DELETE FROM users WHERE id = ?", user.ID).Error)

	_, err = svc.ValidateToken(ctx, token.AccessToken)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthService_GetUser(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "alice@example.com", "password123")
	require.NoError(t, err)

	got, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)

	_, err = svc.GetUser(ctx, user.ID+100)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"exists", errors.New("service error: " + ErrUserExists.Error()), ErrUserExists},
		{"credentials", errors.New(ErrInvalidCredentials.Error()), ErrInvalidCredentials},
		{"user not found", errors.New("request failed: user not found"), ErrUserNotFound},
		{"expired", errors.New(ErrExpiredToken.Error()), ErrExpiredToken},
		{"invalid token", errors.New(ErrInvalidToken.Error()), ErrInvalidToken},
		{"validation", validator.FieldError("email", "must be a valid email address"), validator.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapServiceError(tt.err)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}
