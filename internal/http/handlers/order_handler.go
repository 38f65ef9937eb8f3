package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"makhana/internal/domain"
	applog "makhana/internal/log"
	"makhana/internal/services"
	"makhana/internal/session"
)

type OrderHandler struct {
	Orders   *services.OrderService
	Sessions *session.Manager
}

// GET /api/orders. Admins see every order or filter by ?user_id=; users see
// only their own.
func (h *OrderHandler) List(c *fiber.Ctx) error {
	var userID int64
	if _, isAdmin := h.Sessions.AdminFrom(c); isAdmin {
		userID = int64(c.QueryInt("user_id", 0))
	} else {
		u, found := h.Sessions.UserFrom(c)
		if !found {
			return fail(c, fiber.StatusUnauthorized, "Authentication required")
		}
		c.Locals("user_id", u.ID)
		if q := int64(c.QueryInt("user_id", 0)); q != 0 && q != u.ID {
			applog.Security(c, "orders.list.denied", map[string]any{"requested": q})
			return fail(c, fiber.StatusForbidden, "Access denied")
		}
		userID = u.ID
	}
	orders, err := h.Orders.List(c.UserContext(), userID)
	if err != nil {
		return failErr(c, fiber.StatusInternalServerError, "orders.list.fail", err, "Database order retrieval failed")
	}
	return ok(c, "Orders retrieved successfully", orders)
}

// POST /api/orders (user). Business failures answer 200 with status 0.
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	u, _ := currentUser(c)
	var in services.PlaceOrderInput
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	switch {
	case in.UserID == 0:
		in.UserID = u.ID
	case in.UserID != u.ID:
		applog.Security(c, "orders.place.denied", map[string]any{"requested": in.UserID})
		return fail(c, fiber.StatusForbidden, "Access denied")
	}

	o, serverTotal, err := h.Orders.Place(c.UserContext(), in)
	if err != nil {
		if errors.Is(err, services.ErrInternal) {
			applog.Error(c, "orders.place.fail", err, nil)
		} else {
			applog.Info(c, "orders.place.reject", map[string]any{"reason": err.Error()})
		}
		return fail(c, fiber.StatusOK, services.Message(err, "Order creation failed"))
	}
	fields := map[string]any{"order_id": o.ID, "items": len(o.Items), "total": o.TotalAmount.String()}
	if !serverTotal.Equal(o.TotalAmount) {
		fields["server_total"] = serverTotal.String()
	}
	applog.Audit(c, "orders.place", fields)
	return ok(c, "Order created successfully", fiber.Map{"order_id": o.ID})
}

// PUT /api/orders (admin)
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	var in services.StatusInput
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.Orders.UpdateStatus(c.UserContext(), in); err != nil {
		if !errors.Is(err, domain.ErrInvalidInput) && !errors.Is(err, domain.ErrNotFound) {
			applog.Error(c, "orders.status.fail", err, nil)
		}
		return fail(c, fiber.StatusOK, services.Message(err, "Order update failed"))
	}
	applog.Audit(c, "orders.status", map[string]any{"order_id": in.OrderID, "status": in.Status})
	return ok(c, "Order status updated successfully", nil)
}
