package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"makhana/internal/domain"
	applog "makhana/internal/log"
	"makhana/internal/services"
)

type PaymentHandler struct {
	Payments *services.PaymentService
}

// POST /api/payments/create (user session)
func (h *PaymentHandler) Create(c *fiber.Ctx) error {
	var in services.CreatePaymentInput
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusOK, "Invalid amount")
	}
	u, _ := currentUser(c)
	in.UserID = u.ID
	out, err := h.Payments.Create(c.UserContext(), in)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrAmountMismatch):
			applog.Security(c, "payments.create.denied", map[string]any{"order_id": in.OrderID, "amount": in.Amount, "reason": err.Error()})
		case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrNotFound):
			applog.Info(c, "payments.create.reject", map[string]any{"reason": err.Error()})
		default:
			applog.Error(c, "payments.create.fail", err, nil)
		}
		return fail(c, fiber.StatusOK, services.Message(err, "Payment order creation failed"))
	}
	applog.Audit(c, "payments.create", map[string]any{"gateway_order": out.Order["id"], "amount": in.Amount})
	return ok(c, "Payment order created", out)
}

// POST /api/payments/verify
func (h *PaymentHandler) Verify(c *fiber.Ctx) error {
	var in services.VerifyInput
	if err := c.BodyParser(&in); err != nil {
		return fail(c, fiber.StatusOK, "Missing payment verification data")
	}
	if err := h.Payments.Verify(c.UserContext(), in); err != nil {
		switch {
		case errors.Is(err, services.ErrBadSignature):
			applog.Security(c, "payments.verify.bad_signature", map[string]any{"gateway_order": in.OrderID})
		case errors.Is(err, domain.ErrAmountMismatch):
			applog.Security(c, "payments.verify.amount_mismatch", map[string]any{"gateway_order": in.OrderID, "reason": err.Error()})
		case errors.Is(err, domain.ErrInvalidInput):
			applog.Info(c, "payments.verify.reject", map[string]any{"reason": err.Error()})
		default:
			applog.Error(c, "payments.verify.fail", err, nil)
		}
		return fail(c, fiber.StatusOK, services.Message(err, "Payment verification failed"))
	}
	applog.Audit(c, "payments.verify", map[string]any{"gateway_order": in.OrderID, "payment": in.PaymentID})
	return ok(c, "Payment verified successfully", nil)
}
