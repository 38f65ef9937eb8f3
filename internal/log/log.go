package log

import (
	"io"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

var logger = newLogger(os.Stdout)

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
		FieldMap:        logrus.FieldMap{logrus.FieldKeyTime: "ts", logrus.FieldKeyMsg: "action"},
	})
	return l
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup sets the level and tees output to file when given. The returned closer
// releases the file.
func Setup(level, file string) (io.Closer, error) {
	if lvl, err := logrus.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	}
	if file == "" {
		return nopCloser{}, nil
	}
	f, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nopCloser{}, err
	}
	logger.SetOutput(io.MultiWriter(os.Stdout, f))
	return f, nil
}

// SetOutput redirects all entries, mostly for tests.
func SetOutput(w io.Writer) { logger.SetOutput(w) }

// Writer feeds fiber's access logger into the same sink.
func Writer() io.Writer { return logger.Writer() }

func Logger() *logrus.Logger { return logger }

func entry(c *fiber.Ctx, fields map[string]any) *logrus.Entry {
	e := logrus.NewEntry(logger)
	if len(fields) > 0 {
		e = e.WithField("fields", fields)
	}
	if c == nil {
		return e
	}
	e = e.WithFields(logrus.Fields{
		"ip":     c.IP(),
		"method": c.Method(),
		"path":   c.Path(),
		"status": c.Response().StatusCode(),
	})
	if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
		e = e.WithField("req_id", rid)
	}
	if uid, ok := c.Locals("user_id").(int64); ok && uid != 0 {
		e = e.WithField("user_id", uid)
	}
	return e
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	entry(c, fields).Info(action)
}

func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	entry(c, fields).WithField("audit", true).Info(action)
}

func Security(c *fiber.Ctx, action string, fields map[string]any) {
	entry(c, fields).Warn(action)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	e := entry(c, fields)
	if err != nil {
		e = e.WithField("err", err.Error())
	}
	e.Error(action)
}
