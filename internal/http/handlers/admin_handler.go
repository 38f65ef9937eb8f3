package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"makhana/internal/domain"
	applog "makhana/internal/log"
	"makhana/internal/services"
	"makhana/internal/session"
)

type AdminHandler struct {
	Auth     *services.AuthService
	Sessions *session.Manager
}

type adminLoginInput struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// POST /api/admin/login
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var in adminLoginInput
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	a, err := h.Auth.AdminLogin(c.UserContext(), in.Email, in.Password)
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return fail(c, fiber.StatusBadRequest, services.Message(err, ""))
	case errors.Is(err, services.ErrBadAdminCreds):
		applog.Security(c, "admin.login.fail", map[string]any{"email": in.Email})
		return fail(c, fiber.StatusUnauthorized, "Invalid credentials")
	case err != nil:
		applog.Error(c, "admin.login.error", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Database error")
	}
	sa := session.Admin{ID: a.ID, Name: a.Name, Email: a.Email}
	if err := h.Sessions.LoginAdmin(c, sa); err != nil {
		applog.Error(c, "admin.session.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not start session")
	}
	applog.Audit(c, "admin.login.success", map[string]any{"email": a.Email})
	return ok(c, "Login successful", sa)
}

// GET /api/admin/check-auth
func (h *AdminHandler) CheckAuth(c *fiber.Ctx) error {
	a, found := h.Sessions.AdminFrom(c)
	if !found {
		return fail(c, fiber.StatusUnauthorized, "Not authenticated")
	}
	return ok(c, "Authenticated", a)
}

// POST /api/admin/logout
func (h *AdminHandler) Logout(c *fiber.Ctx) error {
	if err := h.Sessions.LogoutAdmin(c); err != nil {
		applog.Error(c, "admin.logout.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Logout failed")
	}
	applog.Audit(c, "admin.logout", nil)
	return ok(c, "Logged out successfully", nil)
}
