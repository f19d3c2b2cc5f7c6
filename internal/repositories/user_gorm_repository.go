package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/moizayub1255/Tezaabi-Tottay/internal/apperror"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/models"
)

// GORMUserRepository is a GORM implementation of UserRepository.
//
// Watchlist entries live in their own table with a unique (user_id, content_id)
// index, so "insert if absent" is a single INSERT ... ON CONFLICT DO NOTHING.
// Mutations lock the user row to advance updated_at monotonically.
type GORMUserRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
// db must be opened with TranslateError enabled, see OpenGORM.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db:  db,
		now: models.Now,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return r.duplicateError(ctx, user)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.Watchlist = nonNilWatchlist(user.Watchlist)
	return nil
}

func (r *GORMUserRepository) duplicateError(ctx context.Context, user *models.User) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", user.Username).Count(&count).Error; err == nil && count > 0 {
		return apperror.ErrUsernameTaken
	}
	return apperror.ErrEmailTaken
}

// GetByID retrieves a user with its watchlist.
func (r *GORMUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByUsername retrieves a user by their username from the database.
func (r *GORMUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username = ?", username)
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *GORMUserRepository) first(ctx context.Context, query string, arg string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Watchlist", orderByInsertion).
		First(&user, query, arg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user (%s %s): %w", query, arg, err)
	}
	user.Watchlist = nonNilWatchlist(user.Watchlist)
	return &user, nil
}

// Update applies the non-nil fields of update and advances updated_at in one transaction.
func (r *GORMUserRepository) Update(ctx context.Context, id string, update models.UserUpdate) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := lockUser(tx, id)
		if err != nil {
			return err
		}

		columns := map[string]any{"updated_at": models.NextUpdatedAt(current.UpdatedAt, r.now())}
		for _, a := range update.Assignments() {
			columns[a.Column] = a.Value
		}
		err = tx.Model(&models.User{}).Where("id = ?", id).Updates(columns).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.ErrEmailTaken
		}
		if err != nil {
			return fmt.Errorf("failed to update user %s: %w", id, err)
		}
		return tx.Preload("Watchlist", orderByInsertion).First(&user, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	user.Watchlist = nonNilWatchlist(user.Watchlist)
	return &user, nil
}

// Delete removes the user and its watchlist entries.
func (r *GORMUserRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.WatchlistEntry{}).Error; err != nil {
			return fmt.Errorf("failed to delete watchlist of user %s: %w", id, err)
		}
		res := tx.Delete(&models.User{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete user %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperror.ErrUserNotFound
		}
		return nil
	})
}

// GetWatchlist returns the user's entries in insertion order.
func (r *GORMUserRepository) GetWatchlist(ctx context.Context, userID string) ([]models.WatchlistEntry, error) {
	var list []models.WatchlistEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperror.ErrUserNotFound
		}
		var err error
		list, err = findWatchlist(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// AddToWatchlist inserts entry unless the (user, content id) pair exists.
func (r *GORMUserRepository) AddToWatchlist(ctx context.Context, userID string, entry models.WatchlistEntry) ([]models.WatchlistEntry, error) {
	var list []models.WatchlistEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := lockUser(tx, userID)
		if err != nil {
			return err
		}

		entry.ID = 0
		entry.UserID = userID
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry)
		if res.Error != nil {
			return fmt.Errorf("failed to insert watchlist entry: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperror.ErrAlreadyInWatchlist
		}

		if err := touch(tx, userID, models.NextUpdatedAt(current.UpdatedAt, r.now())); err != nil {
			return err
		}
		list, err = findWatchlist(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// RemoveFromWatchlist deletes the entry for contentID if there is one.
func (r *GORMUserRepository) RemoveFromWatchlist(ctx context.Context, userID string, contentID models.ContentID) ([]models.WatchlistEntry, error) {
	var list []models.WatchlistEntry
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := lockUser(tx, userID)
		if err != nil {
			return err
		}
		if err := tx.Where("user_id = ? AND content_id = ?", userID, contentID).Delete(&models.WatchlistEntry{}).Error; err != nil {
			return fmt.Errorf("failed to delete watchlist entry: %w", err)
		}
		if err := touch(tx, userID, models.NextUpdatedAt(current.UpdatedAt, r.now())); err != nil {
			return err
		}
		list, err = findWatchlist(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// lockUser reads the row with SELECT ... FOR UPDATE where the dialect supports it.
func lockUser(tx *gorm.DB, id string) (*models.User, error) {
	var user models.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "updated_at").
		First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock user %s: %w", id, err)
	}
	return &user, nil
}

func touch(tx *gorm.DB, id string, updatedAt time.Time) error {
	if err := tx.Model(&models.User{}).Where("id = ?", id).Update("updated_at", updatedAt).Error; err != nil {
		return fmt.Errorf("failed to touch user %s: %w", id, err)
	}
	return nil
}

func findWatchlist(tx *gorm.DB, userID string) ([]models.WatchlistEntry, error) {
	var list []models.WatchlistEntry
	if err := orderByInsertion(tx.Where("user_id = ?", userID)).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to load watchlist of user %s: %w", userID, err)
	}
	return nonNilWatchlist(list), nil
}

func orderByInsertion(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}
