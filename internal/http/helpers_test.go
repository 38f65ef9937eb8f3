package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"makhana/internal/config"
	"makhana/internal/domain"
	"makhana/internal/http/handlers"
	"makhana/internal/media"
	"makhana/internal/repos"
	"makhana/internal/services"
	"makhana/internal/session"
)

const (
	adminEmail = "owner@makhana.in"
	adminPass  = "admin123"
	gwSecret   = "test_secret"
)

type fakeGateway struct{}

func (fakeGateway) KeyID() string  { return "rzp_test_key" }
func (fakeGateway) Secret() string { return gwSecret }

func (fakeGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string) (map[string]any, error) {
	return map[string]any{"id": "order_Http1", "amount": amount, "currency": currency, "receipt": receipt}, nil
}

type testEnv struct {
	app      *fiber.App
	db       *sqlx.DB
	mediaDir string
}

func newEnv(t *testing.T, tweak ...func(*handlers.Deps)) *testEnv {
	t.Helper()
	db, err := repos.OpenDB(repos.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	auth := services.NewAuthService(repos.NewUserRepo(db), repos.NewAdminRepo(db))
	if _, err := auth.EnsureAdmin(context.Background(), "Owner", adminEmail, adminPass); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	cfg := config.Defaults()
	cfg.MediaDir = t.TempDir()
	cfg.CookieSecure = false
	sm := session.New(session.Options{Storage: repos.NewSessionStorage(db), TTL: cfg.SessionTTL})
	deps := handlers.NewDeps(db, cfg, sm, media.NewLocalStore(cfg.MediaDir), fakeGateway{})
	deps.LoginMax = 0
	for _, f := range tweak {
		f(deps)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
	})
	handlers.Register(app, deps)
	app.Use(handlers.NotFound)
	return &testEnv{app: app, db: db, mediaDir: cfg.MediaDir}
}

func (e *testEnv) seedProduct(t *testing.T, name string, price int64, stock int) int64 {
	t.Helper()
	id, err := repos.NewProductRepo(e.db).Create(context.Background(), &domain.Product{
		Name: name, Price: decimal.NewFromInt(price), StockQuantity: stock, Category: domain.DefaultCategory,
	})
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return id
}

func (e *testEnv) stock(t *testing.T, productID int64) int {
	t.Helper()
	var n int
	if err := e.db.Get(&n, `SELECT stock_quantity FROM products WHERE id = ?`, productID); err != nil {
		t.Fatalf("read stock: %v", err)
	}
	return n
}

type apiResp struct {
	Code    int             `json:"-"`
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// client carries the session cookie between requests like a browser would.
type client struct {
	t   *testing.T
	env *testEnv
	sid string
}

func (e *testEnv) client(t *testing.T) *client { return &client{t: t, env: e} }

func (c *client) raw(method, path, contentType string, body io.Reader) apiResp {
	c.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.sid != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: c.sid})
	}
	resp, err := c.env.app.Test(req, -1)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	for _, ck := range resp.Cookies() {
		if ck.Name == session.CookieName {
			c.sid = ck.Value
		}
	}
	out := apiResp{Code: resp.StatusCode}
	b, _ := io.ReadAll(resp.Body)
	// static files come back as is
	if len(b) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), fiber.MIMEApplicationJSON) {
		if err := json.Unmarshal(b, &out); err != nil {
			c.t.Fatalf("%s %s: body is not an envelope: %s", method, path, b)
		}
	}
	return out
}

func (c *client) json(method, path string, body any) apiResp {
	c.t.Helper()
	if body == nil {
		return c.raw(method, path, "", nil)
	}
	if s, ok := body.(string); ok {
		return c.raw(method, path, fiber.MIMEApplicationJSON, bytes.NewBufferString(s))
	}
	b, err := json.Marshal(body)
	if err != nil {
		c.t.Fatalf("marshal: %v", err)
	}
	return c.raw(method, path, fiber.MIMEApplicationJSON, bytes.NewReader(b))
}

func (c *client) signup(username string) {
	c.t.Helper()
	r := c.json("POST", "/api/auth/signup", map[string]any{
		"username": username, "email": username + "@example.com",
		"password": "secret1", "confirmPassword": "secret1", "fullName": "Test " + username,
	})
	if r.Status != 1 {
		c.t.Fatalf("signup %s: %s", username, r.Message)
	}
}

func (c *client) adminLogin() {
	c.t.Helper()
	r := c.json("POST", "/api/admin/login", map[string]any{"email": adminEmail, "password": adminPass})
	if r.Status != 1 {
		c.t.Fatalf("admin login: %d %s", r.Code, r.Message)
	}
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func mustDecode(t *testing.T, data json.RawMessage, v any) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
}
