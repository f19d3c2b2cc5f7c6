package models

// UserUpdate is a set of optional assignments applied to one user record in a
// single store operation. Nil fields are left untouched.
type UserUpdate struct {
	FirstName *string
	LastName  *string
	Bio       *string
	Phone     *string
	Country   *string
	Image     *string

	Email            *string
	Password         *string // bcrypt hash
	SubscriptionPlan *SubscriptionPlan

	EmailNotifications *bool
	NewReleases        *bool
	Promotions         *bool
}

// Assignment is one field of a UserUpdate, named for both the relational
// column and the document field.
type Assignment struct {
	Column string
	Field  string
	Value  any
}

// Assignments lists the non-nil fields of u.
func (u UserUpdate) Assignments() []Assignment {
	var out []Assignment
	addString := func(column, field string, v *string) {
		if v != nil {
			out = append(out, Assignment{Column: column, Field: field, Value: *v})
		}
	}
	addBool := func(column, field string, v *bool) {
		if v != nil {
			out = append(out, Assignment{Column: column, Field: field, Value: *v})
		}
	}

	addString("first_name", "firstName", u.FirstName)
	addString("last_name", "lastName", u.LastName)
	addString("bio", "bio", u.Bio)
	addString("phone", "phone", u.Phone)
	addString("country", "country", u.Country)
	addString("image", "image", u.Image)
	addString("email", "email", u.Email)
	addString("password", "password", u.Password)
	if u.SubscriptionPlan != nil {
		out = append(out, Assignment{Column: "subscription_plan", Field: "subscriptionPlan", Value: string(*u.SubscriptionPlan)})
	}
	addBool("notify_email_notifications", "notificationSettings.emailNotifications", u.EmailNotifications)
	addBool("notify_new_releases", "notificationSettings.newReleases", u.NewReleases)
	addBool("notify_promotions", "notificationSettings.promotions", u.Promotions)
	return out
}

// IsEmpty reports whether u assigns nothing.
func (u UserUpdate) IsEmpty() bool {
	return len(u.Assignments()) == 0
}

// Apply copies the non-nil fields of u onto user.
func (u UserUpdate) Apply(user *User) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&user.FirstName, u.FirstName)
	set(&user.LastName, u.LastName)
	set(&user.Bio, u.Bio)
	set(&user.Phone, u.Phone)
	set(&user.Country, u.Country)
	set(&user.Image, u.Image)
	set(&user.Email, u.Email)
	set(&user.Password, u.Password)
	if u.SubscriptionPlan != nil {
		user.SubscriptionPlan = *u.SubscriptionPlan
	}
	if u.EmailNotifications != nil {
		user.NotificationSettings.EmailNotifications = *u.EmailNotifications
	}
	if u.NewReleases != nil {
		user.NotificationSettings.NewReleases = *u.NewReleases
	}
	if u.Promotions != nil {
		user.NotificationSettings.Promotions = *u.Promotions
	}
}
