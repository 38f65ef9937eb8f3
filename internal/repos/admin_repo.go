package repos

import (
	"context"
	"database/sql"
	"errors"

	"makhana/internal/domain"

	"github.com/jmoiron/sqlx"
)

type AdminRepo struct{ db *sqlx.DB }

func NewAdminRepo(db *sqlx.DB) *AdminRepo { return &AdminRepo{db: db} }

func (r *AdminRepo) ByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	var a domain.Admin
	err := r.db.GetContext(ctx, &a, r.db.Rebind(`SELECT id, name, email, password_hash FROM admins WHERE email = ?`), email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Upsert creates the admin or refreshes name and password for an existing email.
func (r *AdminRepo) Upsert(ctx context.Context, name, email, hash string) (int64, error) {
	var id int64
	err := r.db.QueryRowxContext(ctx, r.db.Rebind(`
		INSERT INTO admins (name, email, password_hash) VALUES (?, ?, ?)
		ON CONFLICT (email) DO UPDATE SET name = excluded.name, password_hash = excluded.password_hash
		RETURNING id`), name, email, hash).Scan(&id)
	return id, err
}
