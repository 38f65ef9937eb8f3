package handlers

import (
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	applog "makhana/internal/log"
	"makhana/internal/services"
)

type ProductHandler struct {
	Catalog *services.CatalogService
	// MaxImageBytes bounds how much of an uploaded file is read.
	MaxImageBytes int64
}

// GET /api/products
func (h *ProductHandler) List(c *fiber.Ctx) error {
	products, err := h.Catalog.List(c.UserContext())
	if err != nil {
		applog.Error(c, "products.list.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Database product retrieval failed")
	}
	return ok(c, "Products retrieved successfully", products)
}

type findInput struct {
	ProductIDs []int64 `json:"productIds"`
}

// POST /api/products/find
func (h *ProductHandler) Find(c *fiber.Ctx) error {
	var in findInput
	if err := c.BodyParser(&in); err != nil || in.ProductIDs == nil {
		return fail(c, fiber.StatusBadRequest, "Product IDs array is required")
	}
	products, err := h.Catalog.Find(c.UserContext(), in.ProductIDs)
	if err != nil {
		applog.Error(c, "products.find.fail", err, nil)
		return fail(c, fiber.StatusInternalServerError, "Product lookup failed")
	}
	return ok(c, "Products retrieved successfully", products)
}

// POST /api/products (admin)
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	form, err := h.readForm(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	p, err := h.Catalog.Create(c.UserContext(), form)
	if err != nil {
		return failErr(c, statusFor(err), "products.create.fail", err, "Product insertion failed")
	}
	applog.Audit(c, "products.create", map[string]any{"product_id": p.ID, "name": p.Name})
	return ok(c, "Product added successfully", p)
}

// PUT /api/products (admin); only the provided fields change.
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	form, err := h.readForm(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.Catalog.Update(c.UserContext(), form); err != nil {
		return failErr(c, statusFor(err), "products.update.fail", err, "Product update failed")
	}
	applog.Audit(c, "products.update", map[string]any{"product_id": form.ID, "image": len(form.Image) > 0})
	return ok(c, "Product updated successfully", nil)
}

// DELETE /api/products (admin); id comes from the body or the query string.
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	fields, err := bodyFields(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	id := fields("id")
	if id == "" {
		id = c.Query("id")
	}
	if err := h.Catalog.Delete(c.UserContext(), id); err != nil {
		return failErr(c, statusFor(err), "products.delete.fail", err, "Product deletion failed")
	}
	applog.Audit(c, "products.delete", map[string]any{"product_id": id})
	return ok(c, "Product deleted successfully", nil)
}

func (h *ProductHandler) readForm(c *fiber.Ctx) (services.ProductForm, error) {
	fields, err := bodyFields(c)
	if err != nil {
		return services.ProductForm{}, err
	}
	form := services.ProductForm{
		ID:            fields("id"),
		Name:          fields("name"),
		Description:   fields("description"),
		Price:         fields("price"),
		DiscountPrice: fields("discount_price"),
		StockQuantity: fields("stock_quantity"),
		Category:      fields("category"),
	}
	fh, err := c.FormFile("image")
	if err != nil {
		// no file part
		return form, nil
	}
	f, err := fh.Open()
	if err != nil {
		return form, err
	}
	defer f.Close()
	limit := h.MaxImageBytes
	if limit <= 0 {
		limit = fh.Size
	}
	// one byte past the limit lets the size check fire
	form.Image, err = io.ReadAll(io.LimitReader(f, limit+1))
	return form, err
}

// bodyFields returns a lookup over the request body, which may be JSON,
// multipart or urlencoded.
func bodyFields(c *fiber.Ctx) (func(string) string, error) {
	ct := strings.ToLower(string(c.Request().Header.ContentType()))
	if !strings.HasPrefix(ct, fiber.MIMEApplicationJSON) {
		return func(k string) string { return strings.TrimSpace(c.FormValue(k)) }, nil
	}
	m := map[string]any{}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&m); err != nil {
			return nil, err
		}
	}
	return func(k string) string {
		switch v := m[k].(type) {
		case string:
			return strings.TrimSpace(v)
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(v)
		default:
			return ""
		}
	}, nil
}
