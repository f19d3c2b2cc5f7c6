package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"

	"github.com/moizayub1255/Tezaabi-Tottay/internal/apperror"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/models"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/repositories"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/session"
)

// ErrInvalidToken is returned for malformed, expired or revoked session tokens.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload of a session token.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.StandardClaims
}

// Session is the identity carried by a validated token.
type Session struct {
	UserID    string
	Username  string
	TokenID   string
	ExpiresAt time.Time
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo  repositories.UserRepository
	sessions  session.Store
	publisher EventPublisher
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewAuthService creates a new AuthService. publisher may be nil.
func NewAuthService(userRepo repositories.UserRepository, sessions session.Store, publisher EventPublisher, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		sessions:  sessions,
		publisher: publisher,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		now:       models.Now,
	}
}

// TokenTTL is how long an issued token, and the cookie carrying it, stays valid.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}

// RegisterUser creates an account with a free plan and default settings.
func (s *AuthService) RegisterUser(ctx context.Context, username, email, password string) (*models.User, error) {
	if blank(username) || blank(email) || password == "" {
		return nil, apperror.Validation("All fields are required")
	}
	if !validEmail(strings.TrimSpace(email)) {
		return nil, apperror.Validation("Invalid email")
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.Validation("Password must be at least 6 characters")
	}
	if len(password) > MaxPasswordLength {
		return nil, apperror.Validation("Password must be at most 72 bytes")
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return nil, apperror.Internal("failed to register user", err)
	}
	user := models.NewUser(username, email, hashed, s.now())
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	publishEvent(s.publisher, models.AccountEvent{
		Type:       models.EventUserRegistered,
		UserID:     user.ID,
		OccurredAt: user.CreatedAt,
		Data:       map[string]any{"username": user.Username},
	})
	return user, nil
}

// LoginUser authenticates by email or username and returns the user with a new token.
func (s *AuthService) LoginUser(ctx context.Context, identifier, password string) (*models.User, string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, "", apperror.Validation("All fields are required")
	}

	var (
		user *models.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = s.userRepo.GetByEmail(ctx, models.NormalizeEmail(identifier))
	} else {
		user, err = s.userRepo.GetByUsername(ctx, identifier)
	}
	if errors.Is(err, apperror.ErrUserNotFound) {
		// same answer as a wrong password, so accounts cannot be probed
		return nil, "", apperror.ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if !CheckPassword(user.Password, password) {
		return nil, "", apperror.ErrInvalidCredentials
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// IssueToken signs a session token for user.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.tokenTTL).Unix(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", apperror.Internal("failed to generate token", err)
	}
	return token, nil
}

// ValidateToken parses a token and rejects it when it has been revoked.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*Session, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" || claims.Id == "" {
		return nil, ErrInvalidToken
	}

	revoked, err := s.sessions.IsRevoked(ctx, claims.Id)
	if err != nil {
		return nil, apperror.Internal("failed to check session", err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: revoked", ErrInvalidToken)
	}

	return &Session{
		UserID:    claims.UserID,
		Username:  claims.Username,
		TokenID:   claims.Id,
		ExpiresAt: time.Unix(claims.ExpiresAt, 0).UTC(),
	}, nil
}

// RevokeToken refuses the session's token from now until it would have expired.
func (s *AuthService) RevokeToken(ctx context.Context, sess *Session) error {
	if sess == nil || sess.TokenID == "" {
		return nil
	}
	ttl := sess.ExpiresAt.Sub(time.Now())
	if ttl <= 0 {
		return nil
	}
	if err := s.sessions.Revoke(ctx, sess.TokenID, ttl); err != nil {
		return apperror.Internal("failed to revoke session", err)
	}
	return nil
}

// CurrentUser loads the account a session belongs to.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}
