package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/moizayub1255/Tezaabi-Tottay/internal/logging"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/models"
)

// alreadyInWatchlist is the server message of a duplicate add.
const alreadyInWatchlist = "Already in watchlist"

// Watchlist returns a copy of the local watchlist.
func (c *Client) Watchlist() []models.WatchlistEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.watchlist)
}

// LoadWatchlist replaces the local watchlist with the server's.
func (c *Client) LoadWatchlist(ctx context.Context) error {
	out, err := c.do(ctx, http.MethodGet, "/profile/watchlist", nil)
	if err != nil {
		logging.Debug().Err(err).Msg("error loading watchlist")
		return err
	}
	c.replaceWatchlist(out.Watchlist)
	return nil
}

type addRequest struct {
	ContentID   models.ContentID   `json:"contentId"`
	Title       string             `json:"title"`
	PosterPath  string             `json:"posterPath"`
	ContentType models.ContentType `json:"contentType"`
}

// AddToWatchlist shows entry locally at once, then asks the server. On success
// the server's watchlist replaces the local one. A duplicate is reported as
// false with an info notification and no error, after the local watchlist is
// reloaded from the server; any other failure rolls the local entry back.
func (c *Client) AddToWatchlist(ctx context.Context, entry models.WatchlistEntry) (bool, error) {
	c.mu.Lock()
	inserted := !containsContent(c.watchlist, entry.ContentID)
	if inserted {
		c.watchlist = append(c.watchlist, entry)
	}
	c.mu.Unlock()

	out, err := c.do(ctx, http.MethodPost, "/profile/watchlist/add", addRequest{
		ContentID:   entry.ContentID,
		Title:       entry.Title,
		PosterPath:  entry.PosterPath,
		ContentType: entry.ContentType,
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && strings.Contains(apiErr.Message, alreadyInWatchlist) {
			if loadErr := c.LoadWatchlist(ctx); loadErr != nil && inserted {
				c.mu.Lock()
				c.watchlist = removeContent(c.watchlist, entry.ContentID)
				c.mu.Unlock()
			}
			c.notifications.add(Notification{
				Type:    NotificationInfo,
				Title:   "Already in Watchlist",
				Message: fmt.Sprintf("%q is already in your watchlist.", entry.Title),
			})
			return false, nil
		}

		if inserted {
			c.mu.Lock()
			c.watchlist = removeContent(c.watchlist, entry.ContentID)
			c.mu.Unlock()
		}
		c.notifications.add(Notification{
			Type:    NotificationError,
			Title:   "Failed to Add",
			Message: messageOr(err, "Failed to add to watchlist"),
		})
		return false, err
	}

	c.replaceWatchlist(out.Watchlist)
	c.notifications.add(Notification{
		Type:    NotificationSuccess,
		Title:   "Added to Watchlist",
		Message: fmt.Sprintf("%q has been added to your watchlist.", entry.Title),
	})
	return true, nil
}

// RemoveFromWatchlist drops the entry locally at once, then asks the server.
// On failure the entry is restored at its old position.
func (c *Client) RemoveFromWatchlist(ctx context.Context, contentID models.ContentID) (bool, error) {
	c.mu.Lock()
	index := slices.IndexFunc(c.watchlist, func(e models.WatchlistEntry) bool { return e.ContentID == contentID })
	var removed models.WatchlistEntry
	if index >= 0 {
		removed = c.watchlist[index]
		c.watchlist = slices.Delete(slices.Clone(c.watchlist), index, index+1)
	}
	c.mu.Unlock()

	out, err := c.do(ctx, http.MethodPost, "/profile/watchlist/remove", map[string]models.ContentID{"contentId": contentID})
	if err != nil {
		if index >= 0 {
			c.mu.Lock()
			if !containsContent(c.watchlist, contentID) {
				at := min(index, len(c.watchlist))
				c.watchlist = slices.Insert(c.watchlist, at, removed)
			}
			c.mu.Unlock()
		}
		c.notifications.add(Notification{
			Type:    NotificationError,
			Title:   "Failed to Remove",
			Message: messageOr(err, "Failed to remove from watchlist"),
		})
		return false, err
	}

	c.replaceWatchlist(out.Watchlist)
	c.notifications.add(Notification{
		Type:    NotificationInfo,
		Title:   "Removed from Watchlist",
		Message: "This item has been removed from your watchlist.",
	})
	return true, nil
}

// IsInWatchlist reports whether the local watchlist holds contentID.
func (c *Client) IsInWatchlist(contentID models.ContentID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return containsContent(c.watchlist, contentID)
}

// ClearWatchlist empties the local watchlist only.
func (c *Client) ClearWatchlist() {
	c.mu.Lock()
	c.watchlist = nil
	c.mu.Unlock()
}

func (c *Client) replaceWatchlist(list []models.WatchlistEntry) {
	if list == nil {
		list = []models.WatchlistEntry{}
	}
	c.mu.Lock()
	c.watchlist = list
	c.mu.Unlock()
}

func containsContent(list []models.WatchlistEntry, id models.ContentID) bool {
	return slices.ContainsFunc(list, func(e models.WatchlistEntry) bool { return e.ContentID == id })
}

func removeContent(list []models.WatchlistEntry, id models.ContentID) []models.WatchlistEntry {
	return slices.DeleteFunc(slices.Clone(list), func(e models.WatchlistEntry) bool { return e.ContentID == id })
}
