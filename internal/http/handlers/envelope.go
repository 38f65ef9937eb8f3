package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"makhana/internal/domain"
	applog "makhana/internal/log"
	"makhana/internal/services"
)

// envelope is the body of every API response.
type envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func ok(c *fiber.Ctx, msg string, data any) error {
	return c.JSON(envelope{Status: 1, Message: msg, Data: data})
}

func fail(c *fiber.Ctx, code int, msg string) error {
	return c.Status(code).JSON(envelope{Status: 0, Message: msg})
}

// statusFor maps a service error to an HTTP status. Handlers that report
// business failures with 200 skip it.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrDuplicate), errors.Is(err, domain.ErrInsufficientStock):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrBadSignature), errors.Is(err, domain.ErrAmountMismatch):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// failErr logs err and replies with its client-safe message. Internal errors
// never echo their cause.
func failErr(c *fiber.Ctx, code int, action string, err error, fallback string) error {
	if code >= fiber.StatusInternalServerError || errors.Is(err, services.ErrInternal) {
		applog.Error(c, action, err, nil)
	} else {
		applog.Info(c, action, map[string]any{"reason": err.Error()})
	}
	return fail(c, code, services.Message(err, fallback))
}

// ErrorHandler turns errors escaping handlers into JSON envelopes.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Something went wrong. Please try again."
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		if code < fiber.StatusInternalServerError {
			msg = fe.Message
		}
	}
	if code >= fiber.StatusInternalServerError {
		applog.Error(c, "server.error", err, nil)
	}
	return fail(c, code, msg)
}

// NotFound answers unmatched routes.
func NotFound(c *fiber.Ctx) error {
	return fail(c, fiber.StatusNotFound, "Route not found")
}
