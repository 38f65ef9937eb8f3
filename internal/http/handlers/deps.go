package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/jmoiron/sqlx"

	"makhana/internal/config"
	applog "makhana/internal/log"
	"makhana/internal/media"
	"makhana/internal/payments"
	"makhana/internal/repos"
	"makhana/internal/services"
	"makhana/internal/session"
)

type Deps struct {
	Sessions *session.Manager
	Auth     *AuthHandler
	Admin    *AdminHandler
	Products *ProductHandler
	Orders   *OrderHandler
	Payments *PaymentHandler

	MediaDir string
	// LoginMax caps login attempts per IP per LoginWindow; 0 disables it.
	LoginMax    int
	LoginWindow time.Duration
}

func NewDeps(db *sqlx.DB, cfg config.Config, sm *session.Manager, images media.Store, gw payments.Gateway) *Deps {
	userRepo := repos.NewUserRepo(db)
	adminRepo := repos.NewAdminRepo(db)
	prodRepo := repos.NewProductRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	payRepo := repos.NewPaymentRepo(db)

	authSvc := services.NewAuthService(userRepo, adminRepo)
	catalogSvc := services.NewCatalogService(prodRepo, images, cfg.MaxUploadBytes)
	orderSvc := services.NewOrderService(orderRepo)
	paySvc := services.NewPaymentService(gw, payRepo, orderRepo)

	return &Deps{
		Sessions:    sm,
		Auth:        &AuthHandler{Auth: authSvc, Sessions: sm},
		Admin:       &AdminHandler{Auth: authSvc, Sessions: sm},
		Products:    &ProductHandler{Catalog: catalogSvc, MaxImageBytes: int64(cfg.MaxUploadBytes)},
		Orders:      &OrderHandler{Orders: orderSvc, Sessions: sm},
		Payments:    &PaymentHandler{Payments: paySvc},
		MediaDir:    cfg.MediaDir,
		LoginMax:    10,
		LoginWindow: 10 * time.Minute,
	}
}

// Register mounts every API route on app.
func Register(app *fiber.App, d *Deps) {
	loginGuard := func(c *fiber.Ctx) error { return c.Next() }
	if d.LoginMax > 0 {
		loginGuard = limiter.New(limiter.Config{
			Max:        d.LoginMax,
			Expiration: d.LoginWindow,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP() + "|login"
			},
			LimitReached: func(c *fiber.Ctx) error {
				applog.Security(c, "rate.login.hit", nil)
				return fail(c, fiber.StatusTooManyRequests, "Too many attempts. Please try again later.")
			},
		})
	}
	user := RequireUser(d.Sessions)
	admin := RequireAdmin(d.Sessions)

	app.Get("/uploads/*", Uploads(d.MediaDir))
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/signup", loginGuard, d.Auth.Signup)
	auth.Post("/login", loginGuard, d.Auth.Login)
	auth.Post("/logout", d.Auth.Logout)
	auth.Get("/check_session", d.Auth.CheckSession)
	auth.Get("/seeProfileData", d.Auth.Profile)
	auth.Put("/update_profile", d.Auth.UpdateProfile)

	adm := api.Group("/admin")
	adm.Post("/login", loginGuard, d.Admin.Login)
	adm.Get("/check-auth", d.Admin.CheckAuth)
	adm.Post("/logout", d.Admin.Logout)

	products := api.Group("/products")
	products.Get("/", d.Products.List)
	products.Post("/find", d.Products.Find)
	products.Post("/", admin, d.Products.Create)
	products.Put("/", admin, d.Products.Update)
	products.Delete("/", admin, d.Products.Delete)

	orders := api.Group("/orders")
	orders.Get("/", d.Orders.List)
	orders.Post("/", user, d.Orders.Place)
	orders.Put("/", admin, d.Orders.UpdateStatus)

	pay := api.Group("/payments")
	pay.Post("/create", user, d.Payments.Create)
	pay.Post("/verify", d.Payments.Verify)
}
