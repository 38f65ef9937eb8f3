package repos

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// SessionStorage persists fiber sessions in the sessions table. It satisfies
// fiber.Storage.
type SessionStorage struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewSessionStorage(db *sqlx.DB) *SessionStorage {
	return &SessionStorage{db: db, now: time.Now}
}

// Get returns nil, nil for unknown or expired ids, as fiber expects.
func (s *SessionStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	var row struct {
		Data      []byte `db:"data"`
		ExpiresAt int64  `db:"expires_at"`
	}
	err := s.db.Get(&row, s.db.Rebind(`SELECT data, expires_at FROM sessions WHERE id = ?`), key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if row.ExpiresAt != 0 && row.ExpiresAt <= s.now().Unix() {
		return nil, nil
	}
	return row.Data, nil
}

func (s *SessionStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	var expiresAt int64
	if exp > 0 {
		expiresAt = s.now().Add(exp).Unix()
	}
	_, err := s.db.Exec(s.db.Rebind(`
		INSERT INTO sessions (id, data, expires_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at`),
		key, val, expiresAt)
	return err
}

func (s *SessionStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	_, err := s.db.Exec(s.db.Rebind(`DELETE FROM sessions WHERE id = ?`), key)
	return err
}

func (s *SessionStorage) Reset() error {
	_, err := s.db.Exec(`DELETE FROM sessions`)
	return err
}

// Close is a no-op; the pool belongs to the caller.
func (s *SessionStorage) Close() error { return nil }

// Sweep drops expired rows and reports how many went.
func (s *SessionStorage) Sweep() (int64, error) {
	res, err := s.db.Exec(s.db.Rebind(`DELETE FROM sessions WHERE expires_at <> 0 AND expires_at <= ?`), s.now().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
