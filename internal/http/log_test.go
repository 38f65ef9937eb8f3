package handlers_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	applog "makhana/internal/log"
)

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	Audit  bool           `json:"audit"`
	UserID int64          `json:"user_id"`
	Fields map[string]any `json:"fields"`
}

type lockedWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.buf.Write(p)
}

// captureLogs points the application logger at a buffer while fn runs.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	w := &lockedWriter{}
	old := applog.Logger().Out
	applog.SetOutput(w)
	defer applog.SetOutput(old)

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(w.buf.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findEntry(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}

func TestAuthEventsAreLogged(t *testing.T) {
	env := newEnv(t)
	env.client(t).signup("tara")

	entries := captureLogs(t, func() {
		c := env.client(t)
		c.json("POST", "/api/auth/login", map[string]any{"username": "tara", "password": "wrong-one"})
		c.json("POST", "/api/auth/login", map[string]any{"username": "tara", "password": "secret1"})
		env.client(t).json("POST", "/api/products", map[string]any{"name": "x"})
	})

	fail, ok := findEntry(entries, "auth.login.fail")
	if !ok || fail.Level != "warning" || fail.Fields["login"] != "tara" {
		t.Fatalf("login failure not logged as a security event: %+v", entries)
	}
	success, ok := findEntry(entries, "auth.login.success")
	if !ok || !success.Audit || success.UserID == 0 {
		t.Fatalf("login success not audited with user id: %+v", success)
	}
	if _, ok := findEntry(entries, "access.denied.admin"); !ok {
		t.Fatalf("admin guard rejection not logged: %+v", entries)
	}
	for _, e := range entries {
		if strings.Contains(e.Action, "secret1") {
			t.Fatal("password leaked into logs")
		}
		for _, v := range e.Fields {
			if s, _ := v.(string); s == "secret1" || s == "wrong-one" {
				t.Fatal("password leaked into log fields")
			}
		}
	}
}

func TestOrderAuditCarriesTotals(t *testing.T) {
	env := newEnv(t)
	p := env.seedProduct(t, "Classic", 99, 5)
	c := env.client(t)
	c.signup("om")

	entries := captureLogs(t, func() {
		// client total disagrees with the items on purpose
		c.json("POST", "/api/orders", map[string]any{
			"total_amount": 150, "items": []map[string]any{{"product_id": p, "quantity": 1, "price": 99}},
		})
	})
	e, ok := findEntry(entries, "orders.place")
	if !ok {
		t.Fatalf("order not audited: %+v", entries)
	}
	if e.Fields["total"] != "150" || e.Fields["server_total"] != "99" {
		t.Fatalf("audit fields: %+v", e.Fields)
	}
	if _, ok := findEntry(entries, "order.total.mismatch"); !ok {
		t.Fatalf("total mismatch not flagged: %+v", entries)
	}
}
