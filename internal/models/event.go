package models

import "time"

// AccountEventType is the routing key of an account event.
type AccountEventType string

const (
	EventUserRegistered      AccountEventType = "account.registered"
	EventSubscriptionChanged AccountEventType = "account.subscription_changed"
	EventEmailChanged        AccountEventType = "account.email_changed"
	EventAccountDeleted      AccountEventType = "account.deleted"
	EventWatchlistAdded      AccountEventType = "account.watchlist_added"
	EventWatchlistRemoved    AccountEventType = "account.watchlist_removed"
)

// AccountEvent is published after a successful account mutation.
type AccountEvent struct {
	Type       AccountEventType `json:"type"`
	UserID     string           `json:"userId"`
	OccurredAt time.Time        `json:"occurredAt"`
	Data       map[string]any   `json:"data,omitempty"`
}
