// Package session wraps fiber's session store with the keys this service
// keeps per visitor: the logged in user and the logged in admin.
package session

import (
	"time"

	"github.com/gofiber/fiber/v2"
	fsession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/fiber/v2/utils"
)

const (
	CookieName = "makhana.sid"

	keyUserID     = "user_id"
	keyUsername   = "username"
	keyEmail      = "email"
	keyFullName   = "full_name"
	keyAdminID    = "admin_id"
	keyAdminName  = "admin_name"
	keyAdminEmail = "admin_email"
)

type Options struct {
	Storage fiber.Storage
	TTL     time.Duration
	Secure  bool
}

// Manager hands out sessions for requests. Cross-site cookies need
// SameSite=None, which browsers only accept on secure cookies.
type Manager struct {
	store *fsession.Store
}

func New(opts Options) *Manager {
	sameSite := "Lax"
	if opts.Secure {
		sameSite = "None"
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	return &Manager{store: fsession.New(fsession.Config{
		Storage:        opts.Storage,
		Expiration:     opts.TTL,
		KeyLookup:      "cookie:" + CookieName,
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   opts.Secure,
		CookieSameSite: sameSite,
		KeyGenerator:   utils.UUIDv4,
	})}
}

// User is the logged in shopper as held in the session.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type Admin struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (m *Manager) get(c *fiber.Ctx) (*fsession.Session, error) {
	return m.store.Get(c)
}

// LoginUser rotates the session id and stores the user in it.
func (m *Manager) LoginUser(c *fiber.Ctx, u User) error {
	sess, err := m.get(c)
	if err != nil {
		return err
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(keyUserID, u.ID)
	sess.Set(keyUsername, u.Username)
	sess.Set(keyEmail, u.Email)
	sess.Set(keyFullName, u.FullName)
	return sess.Save()
}

func (m *Manager) LoginAdmin(c *fiber.Ctx, a Admin) error {
	sess, err := m.get(c)
	if err != nil {
		return err
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(keyAdminID, a.ID)
	sess.Set(keyAdminName, a.Name)
	sess.Set(keyAdminEmail, a.Email)
	return sess.Save()
}

// UserFrom returns the session user, refreshing the session expiry.
func (m *Manager) UserFrom(c *fiber.Ctx) (User, bool) {
	sess, err := m.get(c)
	if err != nil || sess.Fresh() {
		return User{}, false
	}
	id, _ := sess.Get(keyUserID).(int64)
	if id == 0 {
		return User{}, false
	}
	u := User{ID: id}
	u.Username, _ = sess.Get(keyUsername).(string)
	u.Email, _ = sess.Get(keyEmail).(string)
	u.FullName, _ = sess.Get(keyFullName).(string)
	_ = sess.Save()
	return u, true
}

func (m *Manager) AdminFrom(c *fiber.Ctx) (Admin, bool) {
	sess, err := m.get(c)
	if err != nil || sess.Fresh() {
		return Admin{}, false
	}
	id, _ := sess.Get(keyAdminID).(int64)
	if id == 0 {
		return Admin{}, false
	}
	a := Admin{ID: id}
	a.Name, _ = sess.Get(keyAdminName).(string)
	a.Email, _ = sess.Get(keyAdminEmail).(string)
	_ = sess.Save()
	return a, true
}

// LogoutUser drops the user keys; an admin logged in on the same browser stays.
func (m *Manager) LogoutUser(c *fiber.Ctx) error {
	return m.drop(c, keyUserID, keyUsername, keyEmail, keyFullName)
}

// UpdateUser rewrites the cached profile fields after a profile edit.
func (m *Manager) UpdateUser(c *fiber.Ctx, email, fullName string) error {
	sess, err := m.get(c)
	if err != nil || sess.Fresh() {
		return err
	}
	sess.Set(keyEmail, email)
	sess.Set(keyFullName, fullName)
	return sess.Save()
}

func (m *Manager) LogoutAdmin(c *fiber.Ctx) error {
	return m.drop(c, keyAdminID, keyAdminName, keyAdminEmail)
}

func (m *Manager) drop(c *fiber.Ctx, keys ...string) error {
	sess, err := m.get(c)
	if err != nil {
		return err
	}
	if sess.Fresh() {
		return nil
	}
	for _, k := range keys {
		sess.Delete(k)
	}
	if len(sess.Keys()) == 0 {
		return sess.Destroy()
	}
	return sess.Save()
}
