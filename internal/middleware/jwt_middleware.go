package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/moizayub1255/Tezaabi-Tottay/internal/logging"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/services"
)

// CookieName is the HTTP-only cookie carrying the session token.
const CookieName = "jwt-auth"

const sessionKey = "session"

// TokenFromRequest returns the session token from the cookie, or from a
// "Bearer <token>" Authorization header when there is no cookie.
func TokenFromRequest(c *fiber.Ctx) string {
	if token := c.Cookies(CookieName); token != "" {
		return token
	}
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// ProtectRoute is a Fiber middleware that rejects requests without a valid,
// unrevoked session token.
func ProtectRoute(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := TokenFromRequest(c)
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Unauthorized - No Token Provided",
			})
		}

		sess, err := authService.ValidateToken(c.UserContext(), tokenString)
		if err != nil {
			if !errors.Is(err, services.ErrInvalidToken) {
				logging.Error().Err(err).Msg("session check failed")
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"success": false,
					"message": "Internal server error",
				})
			}
			logging.Debug().Err(err).Msg("JWT validation failed")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Unauthorized - Invalid Token",
			})
		}

		c.Locals(sessionKey, sess)
		c.Locals("user_id", sess.UserID)
		c.Locals("username", sess.Username)
		return c.Next()
	}
}

// SessionFrom returns the session stored by ProtectRoute, or nil.
func SessionFrom(c *fiber.Ctx) *services.Session {
	sess, _ := c.Locals(sessionKey).(*services.Session)
	return sess
}

// UserID returns the authenticated user's id, or "" outside ProtectRoute.
func UserID(c *fiber.Ctx) string {
	if sess := SessionFrom(c); sess != nil {
		return sess.UserID
	}
	return ""
}
