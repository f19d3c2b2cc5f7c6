package handlers

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/moizayub1255/Tezaabi-Tottay/internal/logging"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/middleware"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/services"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService   *services.AuthService
	validate      *validator.Validate
	secureCookies bool
}

// NewAuthHandler creates a new AuthHandler. secureCookies marks the session
// cookie Secure and should be set in production.
func NewAuthHandler(authService *services.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		validate:      validator.New(),
		secureCookies: secureCookies,
	}
}

// RegisterRoutes registers the authentication routes. authCheck runs behind protect.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, protect fiber.Handler) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/signup", h.HandleSignup)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/logout", h.HandleLogout)
	authRoutes.Get("/authCheck", protect, h.HandleAuthCheck)
}

// SignupRequest represents the request body for signup.
type SignupRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// HandleSignup creates an account and starts a session.
func (h *AuthHandler) HandleSignup(c *fiber.Ctx) error {
	var req SignupRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	user, err := h.authService.RegisterUser(c.UserContext(), req.Username, req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	token, err := h.authService.IssueToken(user)
	if err != nil {
		return writeError(c, err)
	}

	h.setSessionCookie(c, token)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}

// LoginRequest represents the request body for login. Either email or username identifies the account.
type LoginRequest struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Username string `json:"username" validate:"required_without=Email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin authenticates the user and sets the session cookie.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	identifier := req.Email
	if identifier == "" {
		identifier = req.Username
	}
	user, token, err := h.authService.LoginUser(c.UserContext(), identifier, req.Password)
	if err != nil {
		logging.Debug().Err(err).Str("identifier", identifier).Msg("login failed")
		return writeError(c, err)
	}

	h.setSessionCookie(c, token)
	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}

// HandleLogout revokes the presented token, if any, and clears the cookie.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	if token := middleware.TokenFromRequest(c); token != "" {
		if sess, err := h.authService.ValidateToken(c.UserContext(), token); err == nil {
			if err := h.authService.RevokeToken(c.UserContext(), sess); err != nil {
				return writeError(c, err)
			}
		}
	}

	clearSessionCookie(c)
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Logged out successfully",
	})
}

// HandleAuthCheck returns the user behind the current session.
func (h *AuthHandler) HandleAuthCheck(c *fiber.Ctx) error {
	user, err := h.authService.CurrentUser(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}

func (h *AuthHandler) setSessionCookie(c *fiber.Ctx, token string) {
	ttl := h.authService.TokenTTL()
	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
		Secure:   h.secureCookies,
	})
}

// clearSessionCookie expires the session cookie on the same path it was set on.
func clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}
