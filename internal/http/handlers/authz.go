package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "makhana/internal/log"
	"makhana/internal/session"
)

// RequireUser rejects requests without a logged in user and exposes the user
// id to the access log.
func RequireUser(sm *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, ok := sm.UserFrom(c)
		if !ok {
			applog.Security(c, "access.denied.user", nil)
			return fail(c, fiber.StatusUnauthorized, "Authentication required")
		}
		c.Locals("user_id", u.ID)
		c.Locals("user", u)
		return c.Next()
	}
}

func RequireAdmin(sm *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, ok := sm.AdminFrom(c)
		if !ok {
			applog.Security(c, "access.denied.admin", nil)
			return fail(c, fiber.StatusUnauthorized, "Admin authentication required")
		}
		c.Locals("admin", a)
		return c.Next()
	}
}

func currentUser(c *fiber.Ctx) (session.User, bool) {
	u, ok := c.Locals("user").(session.User)
	return u, ok
}
