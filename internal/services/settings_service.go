package services

import (
	"context"
	"errors"
	"strings"

	"github.com/moizayub1255/Tezaabi-Tottay/internal/apperror"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/models"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/repositories"
)

// NotificationUpdate sets each flag whose key was present in the request.
type NotificationUpdate struct {
	EmailNotifications *bool `json:"emailNotifications"`
	NewReleases        *bool `json:"newReleases"`
	Promotions         *bool `json:"promotions"`
}

// SettingsService handles notification flags, the subscription plan, email
// changes and account deletion.
type SettingsService struct {
	repo      repositories.UserRepository
	publisher EventPublisher
}

// NewSettingsService creates a new SettingsService. publisher may be nil.
func NewSettingsService(repo repositories.UserRepository, publisher EventPublisher) *SettingsService {
	return &SettingsService{repo: repo, publisher: publisher}
}

func (s *SettingsService) NotificationSettings(ctx context.Context, userID string) (models.NotificationSettings, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return models.NotificationSettings{}, err
	}
	return user.NotificationSettings, nil
}

// UpdateNotificationSettings applies the present flags; false is a value like any other.
func (s *SettingsService) UpdateNotificationSettings(ctx context.Context, userID string, in NotificationUpdate) (models.NotificationSettings, error) {
	user, err := s.repo.Update(ctx, userID, models.UserUpdate{
		EmailNotifications: in.EmailNotifications,
		NewReleases:        in.NewReleases,
		Promotions:         in.Promotions,
	})
	if err != nil {
		return models.NotificationSettings{}, err
	}
	return user.NotificationSettings, nil
}

func (s *SettingsService) SubscriptionPlan(ctx context.Context, userID string) (models.SubscriptionPlan, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.SubscriptionPlan, nil
}

// UpdateSubscriptionPlan switches plans. Unknown plans never reach the store.
func (s *SettingsService) UpdateSubscriptionPlan(ctx context.Context, userID, plan string) (models.SubscriptionPlan, error) {
	if plan == "" {
		return "", apperror.Validation("Plan is required")
	}
	p := models.SubscriptionPlan(plan)
	if !p.Valid() {
		return "", apperror.Validation("Invalid subscription plan")
	}

	user, err := s.repo.Update(ctx, userID, models.UserUpdate{SubscriptionPlan: &p})
	if err != nil {
		return "", err
	}
	publishEvent(s.publisher, models.AccountEvent{
		Type:       models.EventSubscriptionChanged,
		UserID:     userID,
		OccurredAt: user.UpdatedAt,
		Data:       map[string]any{"plan": string(user.SubscriptionPlan)},
	})
	return user.SubscriptionPlan, nil
}

// ChangeEmail swaps the account's email after reverifying the password.
// Tokens already issued stay valid; callers should refresh any cached identity.
func (s *SettingsService) ChangeEmail(ctx context.Context, userID, newEmail, password string) (*models.User, error) {
	if strings.TrimSpace(newEmail) == "" || password == "" {
		return nil, apperror.Validation("New email and password are required")
	}
	if !validEmail(strings.TrimSpace(newEmail)) {
		return nil, apperror.Validation("Invalid email format")
	}
	email := models.NormalizeEmail(newEmail)

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !CheckPassword(user.Password, password) {
		return nil, apperror.InvalidCredentials("Invalid password")
	}

	owner, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil && owner.ID != userID:
		return nil, apperror.ErrEmailTaken
	case err != nil && !errors.Is(err, apperror.ErrUserNotFound):
		return nil, err
	}

	// the unique index still decides if another account claims the address meanwhile
	updated, err := s.repo.Update(ctx, userID, models.UserUpdate{Email: &email})
	if err != nil {
		return nil, err
	}
	publishEvent(s.publisher, models.AccountEvent{
		Type:       models.EventEmailChanged,
		UserID:     userID,
		OccurredAt: updated.UpdatedAt,
		Data:       map[string]any{"email": updated.Email},
	})
	return updated, nil
}

// DeleteAccount permanently removes the account after reverifying the password.
// The caller must revoke the session.
func (s *SettingsService) DeleteAccount(ctx context.Context, userID, password string) error {
	if password == "" {
		return apperror.Validation("Password is required")
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !CheckPassword(user.Password, password) {
		return apperror.InvalidCredentials("Invalid password")
	}
	if err := s.repo.Delete(ctx, userID); err != nil {
		return err
	}

	publishEvent(s.publisher, models.AccountEvent{
		Type:       models.EventAccountDeleted,
		UserID:     userID,
		OccurredAt: models.Now(),
	})
	return nil
}
