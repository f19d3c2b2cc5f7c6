package repositories

import (
	"context"

	"github.com/moizayub1255/Tezaabi-Tottay/internal/models"
)

// UserRepository defines the interface for user record access.
//
// Every mutating method touches exactly one user record and is a single atomic
// store operation that also advances the record's UpdatedAt. Lookups that find
// nothing return apperror.ErrUserNotFound.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Update applies the non-nil fields of update. A taken email yields apperror.ErrEmailTaken.
	Update(ctx context.Context, id string, update models.UserUpdate) (*models.User, error)
	// Delete removes the record and its watchlist permanently.
	Delete(ctx context.Context, id string) error

	GetWatchlist(ctx context.Context, userID string) ([]models.WatchlistEntry, error)
	// AddToWatchlist inserts entry unless an entry with the same ContentID exists,
	// in which case it returns apperror.ErrAlreadyInWatchlist and changes nothing.
	AddToWatchlist(ctx context.Context, userID string, entry models.WatchlistEntry) ([]models.WatchlistEntry, error)
	// RemoveFromWatchlist removes the entry for contentID if present.
	RemoveFromWatchlist(ctx context.Context, userID string, contentID models.ContentID) ([]models.WatchlistEntry, error)
}

func nonNilWatchlist(list []models.WatchlistEntry) []models.WatchlistEntry {
	if list == nil {
		return []models.WatchlistEntry{}
	}
	return list
}
