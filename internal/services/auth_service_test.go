package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/moizayub1255/Tezaabi-Tottay/internal/apperror"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/models"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/repositories"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/services"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/session"
)

const testJWTSecret = "test_jwt_secret"

func newAuthService(repo repositories.UserRepository, pub services.EventPublisher) (*services.AuthService, *session.MemoryStore) {
	store := session.NewMemoryStore()
	return services.NewAuthService(repo, store, pub, testJWTSecret, time.Hour), store
}

func TestAuthService_RegisterUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	pub := &recordingPublisher{}
	authService, _ := newAuthService(mockRepo, pub)
	ctx := context.Background()

	mockRepo.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Username == "testuser" &&
			u.Email == "test@example.com" &&
			u.SubscriptionPlan == models.PlanFree &&
			services.CheckPassword(u.Password, "password123")
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.User).ID = "user-123"
	}).Return(nil).Once()

	user, err := authService.RegisterUser(ctx, "testuser", " Test@Example.com ", "password123")
	require.NoError(t, err)
	assert.Equal(t, "user-123", user.ID)
	assert.NotEqual(t, "password123", user.Password)
	assert.Equal(t, []string{string(models.EventUserRegistered)}, pub.routingKeys())
	mockRepo.AssertExpectations(t)
}

func TestAuthService_RegisterUserValidation(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService, _ := newAuthService(mockRepo, nil)
	ctx := context.Background()

	cases := []struct {
		name, username, email, password, message string
	}{
		{"missing username", "", "a@example.com", "secret1", "All fields are required"},
		{"missing password", "neo", "a@example.com", "", "All fields are required"},
		{"bad email", "neo", "not-an-email", "secret1", "Invalid email"},
		{"short password", "neo", "a@example.com", "12345", "Password must be at least 6 characters"},
		{"password over bcrypt limit", "neo", "a@example.com", strings.Repeat("p", 73), "Password must be at most 72 bytes"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := authService.RegisterUser(ctx, tc.username, tc.email, tc.password)
			assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
			assert.Equal(t, tc.message, apperror.MessageOf(err))
		})
	}
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_RegisterUserDuplicate(t *testing.T) {
	repo := repositories.NewMockUserRepository()
	authService, _ := newAuthService(repo, nil)
	ctx := context.Background()

	_, err := authService.RegisterUser(ctx, "neo", "neo@example.com", "secret1")
	require.NoError(t, err)

	_, err = authService.RegisterUser(ctx, "neo", "other@example.com", "secret1")
	assert.ErrorIs(t, err, apperror.ErrUsernameTaken)
	_, err = authService.RegisterUser(ctx, "other", "NEO@example.com", "secret1")
	assert.ErrorIs(t, err, apperror.ErrEmailTaken)
}

func TestAuthService_LoginUser(t *testing.T) {
	repo := repositories.NewMockUserRepository()
	authService, _ := newAuthService(repo, nil)
	ctx := context.Background()

	registered, err := authService.RegisterUser(ctx, "testuser", "test@example.com", "password123")
	require.NoError(t, err)

	t.Run("by email", func(t *testing.T) {
		user, token, err := authService.LoginUser(ctx, "TEST@example.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
		assert.NotEmpty(t, token)
	})

	t.Run("by username", func(t *testing.T) {
		user, token, err := authService.LoginUser(ctx, "testuser", "password123")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)

		sess, err := authService.ValidateToken(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, registered.ID, sess.UserID)
		assert.Equal(t, "testuser", sess.Username)
		assert.NotEmpty(t, sess.TokenID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := authService.LoginUser(ctx, "testuser", "wrongpassword")
		assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, _, err := authService.LoginUser(ctx, "nonexistent", "password123")
		assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
	})
}

func TestAuthService_ValidateToken(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService, _ := newAuthService(mockRepo, nil)
	ctx := context.Background()

	sign := func(secret string, exp time.Duration) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, services.Claims{
			UserID:   "user-123",
			Username: "testuser",
			StandardClaims: jwt.StandardClaims{
				Id:        "token-1",
				ExpiresAt: jwt.TimeFunc().Add(exp).Unix(),
			},
		})
		s, err := token.SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}

	sess, err := authService.ValidateToken(ctx, sign(testJWTSecret, time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "user-123", sess.UserID)
	assert.Equal(t, "token-1", sess.TokenID)

	_, err = authService.ValidateToken(ctx, "invalid.token.string")
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	_, err = authService.ValidateToken(ctx, sign("another_secret", time.Hour))
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	_, err = authService.ValidateToken(ctx, sign(testJWTSecret, -time.Hour))
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestAuthService_RevokeToken(t *testing.T) {
	authService, store := newAuthService(new(MockUserRepository), nil)
	ctx := context.Background()

	token, err := authService.IssueToken(&models.User{ID: "user-1", Username: "neo"})
	require.NoError(t, err)
	sess, err := authService.ValidateToken(ctx, token)
	require.NoError(t, err)

	require.NoError(t, authService.RevokeToken(ctx, sess))
	revoked, err := store.IsRevoked(ctx, sess.TokenID)
	require.NoError(t, err)
	assert.True(t, revoked)

	_, err = authService.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	// a fresh login is unaffected
	other, err := authService.IssueToken(&models.User{ID: "user-1", Username: "neo"})
	require.NoError(t, err)
	_, err = authService.ValidateToken(ctx, other)
	assert.NoError(t, err)

	assert.NoError(t, authService.RevokeToken(ctx, nil))
}
