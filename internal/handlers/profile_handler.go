package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/moizayub1255/Tezaabi-Tottay/internal/middleware"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/models"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/services"
)

// ProfileHandler handles the profile and watchlist routes of the signed-in user.
type ProfileHandler struct {
	profiles  *services.ProfileService
	watchlist *services.WatchlistService
	validate  *validator.Validate
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profiles *services.ProfileService, watchlist *services.WatchlistService) *ProfileHandler {
	return &ProfileHandler{
		profiles:  profiles,
		watchlist: watchlist,
		validate:  validator.New(),
	}
}

// RegisterRoutes registers the profile routes. router must already require a session.
func (h *ProfileHandler) RegisterRoutes(router fiber.Router) {
	profileRoutes := router.Group("/profile")
	profileRoutes.Get("/", h.HandleGetProfile)
	profileRoutes.Put("/update", h.HandleUpdateProfile)
	profileRoutes.Put("/change-password", h.HandleChangePassword)
	profileRoutes.Get("/watchlist", h.HandleGetWatchlist)
	profileRoutes.Post("/watchlist/add", h.HandleAddToWatchlist)
	profileRoutes.Post("/watchlist/remove", h.HandleRemoveFromWatchlist)
}

func (h *ProfileHandler) HandleGetProfile(c *fiber.Ctx) error {
	user, err := h.profiles.GetProfile(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"user":    user.Profile(),
	})
}

// HandleUpdateProfile applies the fields present and non-empty in the body.
func (h *ProfileHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var req services.ProfileUpdate
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	user, err := h.profiles.UpdateProfile(c.UserContext(), middleware.UserID(c), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Profile updated successfully",
		"user":    user.Profile(),
	})
}

// ChangePasswordRequest represents the request body for a password change.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

func (h *ProfileHandler) HandleChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	if err := h.profiles.ChangePassword(c.UserContext(), middleware.UserID(c), req.OldPassword, req.NewPassword); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Password changed successfully",
	})
}

func (h *ProfileHandler) HandleGetWatchlist(c *fiber.Ctx) error {
	list, err := h.watchlist.List(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"watchlist": list,
	})
}

// AddToWatchlistRequest represents the request body for adding a watchlist entry.
// contentId may be sent as a string or a number.
type AddToWatchlistRequest struct {
	ContentID   models.ContentID `json:"contentId" validate:"required"`
	Title       string           `json:"title" validate:"required"`
	PosterPath  string           `json:"posterPath" validate:"required"`
	ContentType string           `json:"contentType" validate:"required,oneof=movie tv"`
}

func (h *ProfileHandler) HandleAddToWatchlist(c *fiber.Ctx) error {
	var req AddToWatchlistRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	list, err := h.watchlist.Add(c.UserContext(), middleware.UserID(c), models.WatchlistEntry{
		ContentID:   req.ContentID,
		Title:       req.Title,
		PosterPath:  req.PosterPath,
		ContentType: models.ContentType(req.ContentType),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "Added to watchlist",
		"watchlist": list,
	})
}

// RemoveFromWatchlistRequest represents the request body for removing a watchlist entry.
type RemoveFromWatchlistRequest struct {
	ContentID models.ContentID `json:"contentId"`
}

// HandleRemoveFromWatchlist succeeds whether or not the entry was present.
func (h *ProfileHandler) HandleRemoveFromWatchlist(c *fiber.Ctx) error {
	var req RemoveFromWatchlistRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	list, err := h.watchlist.Remove(c.UserContext(), middleware.UserID(c), req.ContentID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"message":   "Removed from watchlist",
		"watchlist": list,
	})
}
