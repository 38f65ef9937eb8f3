package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port     string `yaml:"port"`
	DBDriver string `yaml:"db_driver"` // sqlite | pgx
	DBDSN    string `yaml:"db_dsn"`
	MediaDir string `yaml:"media_dir"`
	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`

	AllowedOrigins []string      `yaml:"allowed_origins"`
	CookieSecure   bool          `yaml:"cookie_secure"`
	SessionStore   string        `yaml:"session_store"` // db | redis
	SessionTTL     time.Duration `yaml:"session_ttl"`
	RedisAddr      string        `yaml:"redis_addr"`

	ImageStore     string `yaml:"image_store"` // local | cloudinary
	CloudinaryURL  string `yaml:"cloudinary_url"`
	MaxUploadBytes int    `yaml:"max_upload_bytes"`

	RazorpayKeyID     string `yaml:"razorpay_key_id"`
	RazorpayKeySecret string `yaml:"razorpay_key_secret"`

	// Bootstrap admin, created on start when all three are set.
	AdminName     string `yaml:"admin_name"`
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
}

func Defaults() Config {
	return Config{
		Port:           "3000",
		DBDriver:       "sqlite",
		DBDSN:          "makhana.db",
		MediaDir:       "./uploads",
		LogFile:        "./makhana.log",
		LogLevel:       "info",
		AllowedOrigins: []string{"https://makhana-frontend.vercel.app"},
		CookieSecure:   true,
		SessionStore:   "db",
		SessionTTL:     24 * time.Hour,
		RedisAddr:      "localhost:6379",
		ImageStore:     "local",
		MaxUploadBytes: 5 << 20,
	}
}

// Load layers CONFIG_FILE (if set) and then environment variables over Defaults.
func Load() Config {
	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			logrus.Warnf("[config] could not read %s: %v", path, err)
		}
	}
	cfg.applyEnv()

	logrus.Infof("[config] PORT=%s DB_DRIVER=%s MEDIA_DIR=%s IMAGE_STORE=%s SESSION_STORE=%s LOG_FILE=%s",
		cfg.Port, cfg.DBDriver, cfg.MediaDir, cfg.ImageStore, cfg.SessionStore, cfg.LogFile)
	return cfg
}

func (c *Config) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, c)
}

func (c *Config) applyEnv() {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	str("PORT", &c.Port)
	str("DB_DRIVER", &c.DBDriver)
	str("DB_DSN", &c.DBDSN)
	str("MEDIA_DIR", &c.MediaDir)
	str("LOG_FILE", &c.LogFile)
	str("LOG_LEVEL", &c.LogLevel)
	str("SESSION_STORE", &c.SessionStore)
	str("REDIS_ADDR", &c.RedisAddr)
	str("IMAGE_STORE", &c.ImageStore)
	str("CLOUDINARY_URL", &c.CloudinaryURL)
	str("RAZORPAY_KEY_ID", &c.RazorpayKeyID)
	str("RAZORPAY_KEY_SECRET", &c.RazorpayKeySecret)
	str("ADMIN_NAME", &c.AdminName)
	str("ADMIN_EMAIL", &c.AdminEmail)
	str("ADMIN_PASSWORD", &c.AdminPassword)

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.AllowedOrigins = origins
	}
	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.CookieSecure = b
		}
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.SessionTTL = d
		}
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxUploadBytes = n
		}
	}
}
