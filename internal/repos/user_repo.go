package repos

import (
	"context"
	"database/sql"
	"errors"

	"makhana/internal/domain"

	"github.com/jmoiron/sqlx"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `id, username, email, password_hash, full_name, phone, address, created_at`

// Create inserts a user and returns its id; a taken username or email yields domain.ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) (int64, error) {
	var id int64
	err := r.DB.QueryRowxContext(ctx, r.DB.Rebind(`
		INSERT INTO users (username, email, password_hash, full_name, phone, address, created_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		RETURNING id`),
		u.Username, u.Email, u.Hash, u.FullName, u.Phone, u.Address).Scan(&id)
	if isUniqueViolation(err) {
		return 0, domain.ErrDuplicate
	}
	return id, err
}

// ByLogin matches either the username or the email.
func (r *UserRepo) ByLogin(ctx context.Context, login string) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, r.DB.Rebind(`SELECT `+userCols+` FROM users WHERE username = ? OR email = ? ORDER BY id LIMIT 1`), login, login)
	return userOrNotFound(&u, err)
}

func (r *UserRepo) ByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := r.DB.GetContext(ctx, &u, r.DB.Rebind(`SELECT `+userCols+` FROM users WHERE id = ?`), id)
	return userOrNotFound(&u, err)
}

// Exists reports whether the username or the email is already registered.
func (r *UserRepo) Exists(ctx context.Context, username, email string) (bool, error) {
	var n int
	err := r.DB.GetContext(ctx, &n, r.DB.Rebind(`SELECT COUNT(*) FROM users WHERE username = ? OR email = ?`), username, email)
	return n > 0, err
}

// EmailTaken reports whether another user already owns email.
func (r *UserRepo) EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	var n int
	err := r.DB.GetContext(ctx, &n, r.DB.Rebind(`SELECT COUNT(*) FROM users WHERE email = ? AND id <> ?`), email, exceptID)
	return n > 0, err
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id int64, fullName, phone, address, email string) error {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
		UPDATE users SET full_name = ?, phone = ?, address = ?, email = ? WHERE id = ?`),
		fullName, phone, address, email, id)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func userOrNotFound(u *domain.User, err error) (*domain.User, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
