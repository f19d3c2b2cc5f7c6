package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// ContentType is the kind of catalog item.
type ContentType string

const (
	ContentMovie ContentType = "movie"
	ContentTV    ContentType = "tv"
)

func (t ContentType) Valid() bool {
	return t == ContentMovie || t == ContentTV
}

// ContentID is the external catalog identifier. The catalog uses numeric ids,
// so it decodes from either a JSON string or a JSON number.
type ContentID string

func (c *ContentID) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*c = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = ContentID(strings.TrimSpace(s))
		return nil
	}
	id, err := canonicalNumericID(raw)
	if err != nil {
		return err
	}
	*c = ContentID(id)
	return nil
}

// canonicalNumericID renders a JSON number as a base-10 integer, so 42, 42.0
// and 4.2e1 name the same content.
func canonicalNumericID(raw string) (string, error) {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return strconv.FormatInt(n, 10), nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", fmt.Errorf("content id must be a string or a number, got %s", raw)
	}
	if f != math.Trunc(f) || math.Abs(f) >= 1<<63 {
		return "", fmt.Errorf("content id must be an integer, got %s", raw)
	}
	return strconv.FormatInt(int64(f), 10), nil
}

func (c ContentID) String() string {
	return string(c)
}

// WatchlistEntry is one saved catalog item. A user's watchlist holds at most
// one entry per ContentID.
type WatchlistEntry struct {
	ID          uint        `json:"-" gorm:"primaryKey;autoIncrement" bson:"-"`
	UserID      string      `json:"-" gorm:"type:varchar(36);not null;uniqueIndex:idx_watchlist_user_content,priority:1" bson:"-"`
	ContentID   ContentID   `json:"contentId" gorm:"type:varchar(64);not null;uniqueIndex:idx_watchlist_user_content,priority:2" bson:"contentId"`
	Title       string      `json:"title" gorm:"not null" bson:"title"`
	PosterPath  string      `json:"posterPath" gorm:"not null" bson:"posterPath"`
	ContentType ContentType `json:"contentType" gorm:"type:varchar(8);not null" bson:"contentType"`
	AddedAt     time.Time   `json:"addedAt" gorm:"not null" bson:"addedAt"`
}

// Missing returns the names of the required fields that are empty.
func (e WatchlistEntry) Missing() []string {
	var missing []string
	if e.ContentID == "" {
		missing = append(missing, "contentId")
	}
	if strings.TrimSpace(e.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(e.PosterPath) == "" {
		missing = append(missing, "posterPath")
	}
	if e.ContentType == "" {
		missing = append(missing, "contentType")
	}
	return missing
}

// ContainsContent reports whether list has an entry for id.
func ContainsContent(list []WatchlistEntry, id ContentID) bool {
	for _, e := range list {
		if e.ContentID == id {
			return true
		}
	}
	return false
}
