package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"makhana/internal/domain"
	applog "makhana/internal/log"
	"makhana/internal/services"
	"makhana/internal/session"
)

// AuthHandler serves /api/auth. Business failures answer 200 with status 0,
// which is what the storefront checks.
type AuthHandler struct {
	Auth     *services.AuthService
	Sessions *session.Manager
}

func sessionUser(u *domain.User) session.User {
	return session.User{ID: u.ID, Username: u.Username, Email: u.Email, FullName: u.FullName}
}

// POST /api/auth/signup
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var in services.SignupInput
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	u, err := h.Auth.Signup(c.UserContext(), in)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrDuplicate) {
			applog.Info(c, "auth.signup.reject", map[string]any{"username": in.Username, "reason": services.Message(err, "")})
			return fail(c, fiber.StatusOK, services.Message(err, ""))
		}
		applog.Error(c, "auth.signup.fail", err, nil)
		return fail(c, fiber.StatusOK, "Database error occurred")
	}
	su := sessionUser(u)
	if err := h.Sessions.LoginUser(c, su); err != nil {
		applog.Error(c, "auth.session.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not start session")
	}
	c.Locals("user_id", u.ID)
	applog.Audit(c, "auth.signup.success", map[string]any{"username": u.Username})
	return ok(c, "Account created successfully!", fiber.Map{"user": su, "logged_in": true})
}

type loginInput struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// POST /api/auth/login; username may be the username or the email.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in loginInput
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	u, err := h.Auth.Login(c.UserContext(), in.Username, in.Password)
	switch {
	case errors.Is(err, services.ErrBadCreds):
		applog.Security(c, "auth.login.fail", map[string]any{"login": in.Username})
		return fail(c, fiber.StatusOK, "Invalid username/email or password")
	case errors.Is(err, domain.ErrInvalidInput):
		return fail(c, fiber.StatusOK, services.Message(err, ""))
	case err != nil:
		applog.Error(c, "auth.login.error", err, nil)
		return fail(c, fiber.StatusOK, "Database error occurred")
	}
	su := sessionUser(u)
	if err := h.Sessions.LoginUser(c, su); err != nil {
		applog.Error(c, "auth.session.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Could not start session")
	}
	c.Locals("user_id", u.ID)
	applog.Audit(c, "auth.login.success", map[string]any{"username": u.Username})
	return ok(c, "Login successful!", fiber.Map{"user": su, "logged_in": true})
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.Sessions.LogoutUser(c); err != nil {
		applog.Error(c, "auth.logout.fail", err, nil)
		return fail(c, fiber.StatusOK, "Logout failed")
	}
	applog.Audit(c, "auth.logout", nil)
	return ok(c, "Logged out successfully", fiber.Map{"logged_in": false})
}

// GET /api/auth/check_session
func (h *AuthHandler) CheckSession(c *fiber.Ctx) error {
	if u, found := h.Sessions.UserFrom(c); found {
		return ok(c, "Active session", fiber.Map{"isAuthenticated": true, "user": u})
	}
	if a, found := h.Sessions.AdminFrom(c); found {
		return ok(c, "Active session", fiber.Map{"isAuthenticated": true, "isAdmin": true, "admin": a})
	}
	return c.JSON(envelope{Status: 0, Message: "No active session", Data: fiber.Map{"isAuthenticated": false}})
}

// GET /api/auth/seeProfileData?user_id=
// A user sees their own profile; an admin may look up anyone.
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	u, isUser := h.Sessions.UserFrom(c)
	_, isAdmin := h.Sessions.AdminFrom(c)
	if !isUser && !isAdmin {
		return fail(c, fiber.StatusUnauthorized, "Authentication required")
	}

	var id int64
	if raw := c.Query("user_id"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			return fail(c, fiber.StatusOK, "User ID required")
		}
		id = n
	} else if isUser {
		id = u.ID
	} else {
		return fail(c, fiber.StatusOK, "User ID required")
	}
	if !isAdmin && id != u.ID {
		applog.Security(c, "profile.access.denied", map[string]any{"user_id": u.ID, "requested": id})
		return fail(c, fiber.StatusForbidden, "Access denied")
	}

	profile, err := h.Auth.Profile(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fail(c, fiber.StatusOK, "User not found")
		}
		applog.Error(c, "profile.load.fail", err, nil)
		return fail(c, fiber.StatusOK, "Database error occurred")
	}
	return ok(c, "User data retrieved successfully", profile)
}

// PUT /api/auth/update_profile
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	su, found := h.Sessions.UserFrom(c)
	if !found {
		return fail(c, fiber.StatusOK, "Not authenticated")
	}
	c.Locals("user_id", su.ID)

	var in services.ProfileInput
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	u, err := h.Auth.UpdateProfile(c.UserContext(), su.ID, in)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrDuplicate) {
			return fail(c, fiber.StatusOK, services.Message(err, ""))
		}
		applog.Error(c, "profile.update.fail", err, nil)
		return fail(c, fiber.StatusOK, "Database error occurred")
	}
	if err := h.Sessions.UpdateUser(c, u.Email, u.FullName); err != nil {
		applog.Error(c, "auth.session.fail", err, nil)
	}
	applog.Audit(c, "profile.update", nil)
	return ok(c, "Profile updated successfully", fiber.Map{"user": u})
}
