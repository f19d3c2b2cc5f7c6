package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/moizayub1255/Tezaabi-Tottay/internal/apperror"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/models"
)

// MockUserRepository is an in-memory implementation of UserRepository.
// The mutex makes every method one atomic operation.
type MockUserRepository struct {
	users map[string]*models.User
	mu    sync.RWMutex
	now   func() time.Time
}

// NewMockUserRepository creates a new instance of MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*models.User),
		now:   models.Now,
	}
}

// Create adds a new user.
func (r *MockUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username {
			return apperror.ErrUsernameTaken
		}
		if u.Email == user.Email {
			return apperror.ErrEmailTaken
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if _, ok := r.users[user.ID]; ok {
		return fmt.Errorf("user with ID %s already exists", user.ID)
	}
	user.Watchlist = nonNilWatchlist(user.Watchlist)
	r.users[user.ID] = cloneUser(user)
	return nil
}

// GetByID returns a user by its ID.
func (r *MockUserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, apperror.ErrUserNotFound
	}
	return cloneUser(user), nil
}

// GetByUsername returns a user by username.
func (r *MockUserRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Username == username })
}

// GetByEmail returns a user by email.
func (r *MockUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == email })
}

func (r *MockUserRepository) find(match func(*models.User) bool) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, apperror.ErrUserNotFound
}

// Update applies a partial update.
func (r *MockUserRepository) Update(_ context.Context, id string, update models.UserUpdate) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, apperror.ErrUserNotFound
	}
	if update.Email != nil {
		for otherID, u := range r.users {
			if otherID != id && u.Email == *update.Email {
				return nil, apperror.ErrEmailTaken
			}
		}
	}
	update.Apply(user)
	user.UpdatedAt = models.NextUpdatedAt(user.UpdatedAt, r.now())
	return cloneUser(user), nil
}

// Delete removes a user.
func (r *MockUserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return apperror.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

// GetWatchlist returns the watchlist in insertion order.
func (r *MockUserRepository) GetWatchlist(_ context.Context, userID string) ([]models.WatchlistEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[userID]
	if !ok {
		return nil, apperror.ErrUserNotFound
	}
	return cloneWatchlist(user.Watchlist), nil
}

// AddToWatchlist appends entry if its content id is not present.
func (r *MockUserRepository) AddToWatchlist(_ context.Context, userID string, entry models.WatchlistEntry) ([]models.WatchlistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return nil, apperror.ErrUserNotFound
	}
	if models.ContainsContent(user.Watchlist, entry.ContentID) {
		return nil, apperror.ErrAlreadyInWatchlist
	}
	entry.ID = 0
	entry.UserID = ""
	user.Watchlist = append(user.Watchlist, entry)
	user.UpdatedAt = models.NextUpdatedAt(user.UpdatedAt, r.now())
	return cloneWatchlist(user.Watchlist), nil
}

// RemoveFromWatchlist drops any entry for contentID.
func (r *MockUserRepository) RemoveFromWatchlist(_ context.Context, userID string, contentID models.ContentID) ([]models.WatchlistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return nil, apperror.ErrUserNotFound
	}
	kept := make([]models.WatchlistEntry, 0, len(user.Watchlist))
	for _, e := range user.Watchlist {
		if e.ContentID != contentID {
			kept = append(kept, e)
		}
	}
	user.Watchlist = kept
	user.UpdatedAt = models.NextUpdatedAt(user.UpdatedAt, r.now())
	return cloneWatchlist(user.Watchlist), nil
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Watchlist = cloneWatchlist(u.Watchlist)
	return &c
}

func cloneWatchlist(list []models.WatchlistEntry) []models.WatchlistEntry {
	out := make([]models.WatchlistEntry, len(list))
	copy(out, list)
	return out
}
