package services

import (
	"context"

	"github.com/moizayub1255/Tezaabi-Tottay/internal/apperror"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/models"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/repositories"
)

// ProfileUpdate carries the profile fields of an update request. A nil or
// empty field leaves the stored value unchanged.
type ProfileUpdate struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Bio       *string `json:"bio"`
	Phone     *string `json:"phone"`
	Country   *string `json:"country"`
	Image     *string `json:"image"`
}

// ProfileService handles the user's own profile and password.
type ProfileService struct {
	repo repositories.UserRepository
}

// NewProfileService creates a new ProfileService.
func NewProfileService(repo repositories.UserRepository) *ProfileService {
	return &ProfileService{repo: repo}
}

// GetProfile retrieves the user record.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	return s.repo.GetByID(ctx, userID)
}

// UpdateProfile applies the present, non-empty fields of in.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (*models.User, error) {
	update := models.UserUpdate{
		FirstName: nonEmpty(in.FirstName),
		LastName:  nonEmpty(in.LastName),
		Bio:       nonEmpty(in.Bio),
		Phone:     nonEmpty(in.Phone),
		Country:   nonEmpty(in.Country),
		Image:     nonEmpty(in.Image),
	}
	return s.repo.Update(ctx, userID, update)
}

// ChangePassword replaces the password after verifying the current one.
func (s *ProfileService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return apperror.Validation("Old password and new password are required")
	}
	if len(newPassword) < MinPasswordLength {
		return apperror.Validation("New password must be at least 6 characters")
	}
	if len(newPassword) > MaxPasswordLength {
		return apperror.Validation("New password must be at most 72 bytes")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !CheckPassword(user.Password, oldPassword) {
		return apperror.InvalidCredentials("Old password is incorrect")
	}

	hashed, err := HashPassword(newPassword)
	if err != nil {
		return apperror.Internal("failed to change password", err)
	}
	_, err = s.repo.Update(ctx, userID, models.UserUpdate{Password: &hashed})
	return err
}

func nonEmpty(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}
