package models

import (
	"strings"
	"time"
)

// SubscriptionPlan is the plan a user is subscribed to.
type SubscriptionPlan string

const (
	PlanFree     SubscriptionPlan = "free"
	PlanBasic    SubscriptionPlan = "basic"
	PlanStandard SubscriptionPlan = "standard"
	PlanPremium  SubscriptionPlan = "premium"
)

// SubscriptionPlans lists every accepted plan.
var SubscriptionPlans = []SubscriptionPlan{PlanFree, PlanBasic, PlanStandard, PlanPremium}

// Valid reports whether p is one of SubscriptionPlans.
func (p SubscriptionPlan) Valid() bool {
	for _, plan := range SubscriptionPlans {
		if p == plan {
			return true
		}
	}
	return false
}

// NotificationSettings holds the user's notification flags.
type NotificationSettings struct {
	EmailNotifications bool `json:"emailNotifications" gorm:"not null" bson:"emailNotifications"`
	NewReleases        bool `json:"newReleases" gorm:"not null" bson:"newReleases"`
	Promotions         bool `json:"promotions" gorm:"not null" bson:"promotions"`
}

// DefaultNotificationSettings returns the flags a new account starts with.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		EmailNotifications: true,
		NewReleases:        true,
		Promotions:         false,
	}
}

// User represents one account of the catalog.
type User struct {
	ID                   string               `json:"_id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	Username             string               `json:"username" gorm:"uniqueIndex;type:varchar(100);not null" bson:"username"`
	Email                string               `json:"email" gorm:"uniqueIndex;type:varchar(255);not null" bson:"email"`
	Password             string               `json:"-" gorm:"type:varchar(255);not null" bson:"password"` // bcrypt hash
	Image                string               `json:"image" bson:"image"`
	FirstName            string               `json:"firstName" bson:"firstName"`
	LastName             string               `json:"lastName" bson:"lastName"`
	Bio                  string               `json:"bio" bson:"bio"`
	Phone                string               `json:"phone" bson:"phone"`
	Country              string               `json:"country" bson:"country"`
	SubscriptionPlan     SubscriptionPlan     `json:"subscriptionPlan" gorm:"type:varchar(16);not null" bson:"subscriptionPlan"`
	NotificationSettings NotificationSettings `json:"notificationSettings" gorm:"embedded;embeddedPrefix:notify_" bson:"notificationSettings"`
	Watchlist            []WatchlistEntry     `json:"watchlist" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" bson:"watchlist"`
	CreatedAt            time.Time            `json:"createdAt" gorm:"not null;autoCreateTime:false" bson:"createdAt"`
	UpdatedAt            time.Time            `json:"updatedAt" gorm:"not null;autoUpdateTime:false" bson:"updatedAt"`
}

// NewUser builds a record with the defaults of a fresh signup.
func NewUser(username, email, passwordHash string, now time.Time) *User {
	return &User{
		Username:             strings.TrimSpace(username),
		Email:                NormalizeEmail(email),
		Password:             passwordHash,
		SubscriptionPlan:     PlanFree,
		NotificationSettings: DefaultNotificationSettings(),
		Watchlist:            []WatchlistEntry{},
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// NormalizeEmail lower-cases and trims an address so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Profile is the public projection of a User returned by the profile endpoints.
type Profile struct {
	ID               string           `json:"_id"`
	Username         string           `json:"username"`
	Email            string           `json:"email"`
	FirstName        string           `json:"firstName"`
	LastName         string           `json:"lastName"`
	Bio              string           `json:"bio"`
	Phone            string           `json:"phone"`
	Country          string           `json:"country"`
	Image            string           `json:"image"`
	SubscriptionPlan SubscriptionPlan `json:"subscriptionPlan"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Bio:              u.Bio,
		Phone:            u.Phone,
		Country:          u.Country,
		Image:            u.Image,
		SubscriptionPlan: u.SubscriptionPlan,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

// Now returns the current UTC time at the millisecond precision every store keeps.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// NextUpdatedAt returns the updatedAt value for a mutation at now of a record last
// updated at prev. The result is always strictly after prev.
func NextUpdatedAt(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Millisecond)
}
