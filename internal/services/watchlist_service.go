package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/moizayub1255/Tezaabi-Tottay/internal/apperror"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/metrics"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/models"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/repositories"
)

// WatchlistService maintains each user's watchlist as a set keyed by content id.
// Uniqueness is enforced by the store's atomic conditional insert, never by a
// read here followed by a write.
type WatchlistService struct {
	repo      repositories.UserRepository
	publisher EventPublisher
	now       func() time.Time
}

// NewWatchlistService creates a new WatchlistService. publisher may be nil.
func NewWatchlistService(repo repositories.UserRepository, publisher EventPublisher) *WatchlistService {
	return &WatchlistService{
		repo:      repo,
		publisher: publisher,
		now:       models.Now,
	}
}

// List returns the watchlist in insertion order.
func (s *WatchlistService) List(ctx context.Context, userID string) ([]models.WatchlistEntry, error) {
	return s.repo.GetWatchlist(ctx, userID)
}

// Add stores entry with a server-assigned addedAt and returns the updated watchlist.
// It fails with apperror.ErrAlreadyInWatchlist when the content id is present.
func (s *WatchlistService) Add(ctx context.Context, userID string, entry models.WatchlistEntry) ([]models.WatchlistEntry, error) {
	entry.Title = strings.TrimSpace(entry.Title)
	entry.PosterPath = strings.TrimSpace(entry.PosterPath)
	if missing := entry.Missing(); len(missing) > 0 {
		metrics.RecordWatchlistMutation("add", "invalid")
		return nil, apperror.Validation("All fields are required: missing " + strings.Join(missing, ", "))
	}
	if !entry.ContentType.Valid() {
		metrics.RecordWatchlistMutation("add", "invalid")
		return nil, apperror.Validation("Content type must be movie or tv")
	}
	entry.AddedAt = s.now()

	list, err := s.repo.AddToWatchlist(ctx, userID, entry)
	switch {
	case errors.Is(err, apperror.ErrAlreadyInWatchlist):
		metrics.RecordWatchlistMutation("add", "duplicate")
		return nil, err
	case err != nil:
		metrics.RecordWatchlistMutation("add", "error")
		return nil, err
	}
	metrics.RecordWatchlistMutation("add", "added")

	publishEvent(s.publisher, models.AccountEvent{
		Type:       models.EventWatchlistAdded,
		UserID:     userID,
		OccurredAt: entry.AddedAt,
		Data: map[string]any{
			"contentId":   entry.ContentID.String(),
			"contentType": string(entry.ContentType),
		},
	})
	return list, nil
}

// Remove drops the entry for contentID. Removing an absent entry succeeds.
func (s *WatchlistService) Remove(ctx context.Context, userID string, contentID models.ContentID) ([]models.WatchlistEntry, error) {
	if contentID == "" {
		metrics.RecordWatchlistMutation("remove", "invalid")
		return nil, apperror.Validation("Content ID is required")
	}

	list, err := s.repo.RemoveFromWatchlist(ctx, userID, contentID)
	if err != nil {
		metrics.RecordWatchlistMutation("remove", "error")
		return nil, err
	}
	metrics.RecordWatchlistMutation("remove", "removed")

	publishEvent(s.publisher, models.AccountEvent{
		Type:       models.EventWatchlistRemoved,
		UserID:     userID,
		OccurredAt: s.now(),
		Data:       map[string]any{"contentId": contentID.String()},
	})
	return list, nil
}
