package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"makhana/internal/config"
	"makhana/internal/http/handlers"
	applog "makhana/internal/log"
	"makhana/internal/media"
	"makhana/internal/payments"
	"makhana/internal/repos"
	"makhana/internal/services"
	"makhana/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	cfg, done := loadConfig()
	defer done()
	log := applog.Logger()

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		auth := services.NewAuthService(repos.NewUserRepo(db), repos.NewAdminRepo(db))
		if _, err := auth.EnsureAdmin(context.Background(), cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.WithError(err).Warn("admin.bootstrap.fail")
		}
	}

	storage, sweep, err := sessionStorage(cfg, db)
	if err != nil {
		return err
	}
	defer storage.Close()
	sm := session.New(session.Options{Storage: storage, TTL: cfg.SessionTTL, Secure: cfg.CookieSecure})

	images, err := imageStore(cfg)
	if err != nil {
		return err
	}
	gw := payments.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	if cfg.RazorpayKeyID == "" || cfg.RazorpayKeySecret == "" {
		log.Warn("payments.gateway.unconfigured")
	}

	app := fiber.New(fiber.Config{
		AppName:      "makhana",
		ErrorHandler: handlers.ErrorHandler,
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
		BodyLimit:    cfg.MaxUploadBytes + 1<<20,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: `{"ts":"${time}","req_id":"${locals:requestid}","status":${status},"latency":"${latency}","method":"${method}","path":"${path}","ip":"${ip}"}` + "\n",
		Output: applog.Writer(),
	}))
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowCredentials: true,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Content-Type,Authorization",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/uploads/") || c.Path() == "/healthz"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests. Please slow down.")
		},
	}))

	handlers.Register(app, handlers.NewDeps(db, cfg, sm, images, gw))
	app.Use(handlers.NotFound)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if sweep != nil {
		go sweepSessions(ctx, sweep, time.Hour)
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Port).Info("server.start")
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("server.shutdown")
	return app.ShutdownWithTimeout(10 * time.Second)
}

// sessionStorage picks the session backend. sweep is nil when the backend
// expires keys on its own.
func sessionStorage(cfg config.Config, db *sqlx.DB) (fiber.Storage, func() (int64, error), error) {
	switch cfg.SessionStore {
	case "redis":
		rs, err := session.NewRedisStorage(cfg.RedisAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("redis session store %s: %w", cfg.RedisAddr, err)
		}
		return rs, nil, nil
	case "", "db":
		ss := repos.NewSessionStorage(db)
		return ss, ss.Sweep, nil
	default:
		return nil, nil, fmt.Errorf("unknown session store %q", cfg.SessionStore)
	}
}

func imageStore(cfg config.Config) (media.Store, error) {
	switch cfg.ImageStore {
	case "cloudinary":
		return media.NewCloudinaryStore(cfg.CloudinaryURL)
	case "", "local":
		return media.NewLocalStore(cfg.MediaDir), nil
	default:
		return nil, fmt.Errorf("unknown image store %q", cfg.ImageStore)
	}
}

func sweepSessions(ctx context.Context, sweep func() (int64, error), every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := sweep()
			if err != nil {
				applog.Logger().WithError(err).Warn("session.sweep.fail")
				continue
			}
			if n > 0 {
				applog.Logger().WithField("removed", n).Info("session.sweep")
			}
		}
	}
}
