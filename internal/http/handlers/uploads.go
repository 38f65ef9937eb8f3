package handlers

import (
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "makhana/internal/log"
)

// Uploads serves locally stored product images from dir, refusing anything
// that could climb out of it.
func Uploads(dir string) fiber.Handler {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			applog.Security(c, "uploads.traversal.block", map[string]any{"path": path})
			return fail(c, fiber.StatusNotFound, "File not found")
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			applog.Security(c, "uploads.traversal.block", map[string]any{"path": path})
			return fail(c, fiber.StatusNotFound, "File not found")
		}
		if err := c.SendFile(filepath.Join(dir, clean), true); err != nil {
			return fail(c, fiber.StatusNotFound, "File not found")
		}
		return nil
	}
}
