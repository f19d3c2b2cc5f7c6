package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/moizayub1255/Tezaabi-Tottay/internal/logging"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/middleware"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/services"
)

// SettingsHandler handles account settings of the signed-in user.
type SettingsHandler struct {
	settings    *services.SettingsService
	authService *services.AuthService
	validate    *validator.Validate
}

// NewSettingsHandler creates a new SettingsHandler. authService revokes the
// session of a deleted account.
func NewSettingsHandler(settings *services.SettingsService, authService *services.AuthService) *SettingsHandler {
	return &SettingsHandler{
		settings:    settings,
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the settings routes. router must already require a session.
func (h *SettingsHandler) RegisterRoutes(router fiber.Router) {
	settingsRoutes := router.Group("/settings")
	settingsRoutes.Get("/notifications", h.HandleGetNotifications)
	settingsRoutes.Put("/notifications", h.HandleUpdateNotifications)
	settingsRoutes.Get("/subscription", h.HandleGetSubscription)
	settingsRoutes.Put("/subscription", h.HandleUpdateSubscription)
	settingsRoutes.Put("/change-email", h.HandleChangeEmail)
	settingsRoutes.Delete("/delete-account", h.HandleDeleteAccount)
}

func (h *SettingsHandler) HandleGetNotifications(c *fiber.Ctx) error {
	settings, err := h.settings.NotificationSettings(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":              true,
		"notificationSettings": settings,
	})
}

// HandleUpdateNotifications sets exactly the flags present in the body.
func (h *SettingsHandler) HandleUpdateNotifications(c *fiber.Ctx) error {
	var req services.NotificationUpdate
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	settings, err := h.settings.UpdateNotificationSettings(c.UserContext(), middleware.UserID(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":              true,
		"message":              "Notification settings updated",
		"notificationSettings": settings,
	})
}

func (h *SettingsHandler) HandleGetSubscription(c *fiber.Ctx) error {
	plan, err := h.settings.SubscriptionPlan(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":          true,
		"subscriptionPlan": plan,
	})
}

// UpdateSubscriptionRequest represents the request body for a plan change.
type UpdateSubscriptionRequest struct {
	Plan string `json:"plan" validate:"required,oneof=free basic standard premium"`
}

func (h *SettingsHandler) HandleUpdateSubscription(c *fiber.Ctx) error {
	var req UpdateSubscriptionRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	plan, err := h.settings.UpdateSubscriptionPlan(c.UserContext(), middleware.UserID(c), req.Plan)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":          true,
		"message":          "Subscription updated to " + string(plan),
		"subscriptionPlan": plan,
	})
}

// ChangeEmailRequest represents the request body for an email change.
type ChangeEmailRequest struct {
	NewEmail string `json:"newEmail" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *SettingsHandler) HandleChangeEmail(c *fiber.Ctx) error {
	var req ChangeEmailRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	user, err := h.settings.ChangeEmail(c.UserContext(), middleware.UserID(c), req.NewEmail, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Email changed successfully",
		"email":   user.Email,
	})
}

// DeleteAccountRequest represents the request body for account deletion.
type DeleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}

// HandleDeleteAccount removes the account, revokes the session and clears the cookie.
func (h *SettingsHandler) HandleDeleteAccount(c *fiber.Ctx) error {
	var req DeleteAccountRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	if err := h.settings.DeleteAccount(c.UserContext(), middleware.UserID(c), req.Password); err != nil {
		return writeError(c, err)
	}
	if err := h.authService.RevokeToken(c.UserContext(), middleware.SessionFrom(c)); err != nil {
		// the account is gone; a surviving token can no longer load it
		logging.Warn().Err(err).Str("user_id", middleware.UserID(c)).Msg("failed to revoke session of deleted account")
	}

	clearSessionCookie(c)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Account deleted successfully",
	})
}
