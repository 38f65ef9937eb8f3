package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"makhana/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type PaymentRepo struct{ db *sqlx.DB }

func NewPaymentRepo(db *sqlx.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// Record stores a freshly created gateway order.
func (r *PaymentRepo) Record(ctx context.Context, p *domain.Payment) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO payments (order_id, amount, currency, status, local_order_id, created_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (order_id) DO UPDATE SET amount = excluded.amount, currency = excluded.currency,
			status = excluded.status, local_order_id = excluded.local_order_id`),
		p.OrderID, p.Amount, p.Currency, domain.PaymentCreated, p.LocalOrderID)
	return err
}

func (r *PaymentRepo) Get(ctx context.Context, gatewayOrderID string) (domain.Payment, error) {
	var p domain.Payment
	err := r.db.GetContext(ctx, &p, r.db.Rebind(`
		SELECT order_id, payment_id, signature, amount, currency, status, local_order_id, created_at
		FROM payments WHERE order_id = ?`), gatewayOrderID)
	if errors.Is(err, sql.ErrNoRows) {
		return p, domain.ErrNotFound
	}
	return p, err
}

// MarkVerified records a verified payment. When the payment was linked to a
// local order at creation, that order moves to confirmed in the same
// transaction, provided the recorded amount equals the order total.
func (r *PaymentRepo) MarkVerified(ctx context.Context, gatewayOrderID, paymentID, signature string) error {
	tx, err := beginTx(ctx, r.db)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO payments (order_id, payment_id, signature, status, created_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (order_id) DO UPDATE SET payment_id = excluded.payment_id,
			signature = excluded.signature, status = excluded.status`),
		gatewayOrderID, paymentID, signature, domain.PaymentSuccess); err != nil {
		return fmt.Errorf("record payment: %w", err)
	}

	var link struct {
		LocalOrderID sql.NullInt64   `db:"local_order_id"`
		Amount       decimal.Decimal `db:"amount"`
	}
	if err := tx.GetContext(ctx, &link, tx.Rebind(`SELECT local_order_id, amount FROM payments WHERE order_id = ?`), gatewayOrderID); err != nil {
		return fmt.Errorf("read payment link: %w", err)
	}
	if !link.LocalOrderID.Valid {
		return tx.Commit()
	}

	var total decimal.Decimal
	if err := tx.GetContext(ctx, &total, tx.Rebind(`SELECT total_amount FROM orders WHERE id = ?`), link.LocalOrderID.Int64); err != nil {
		return fmt.Errorf("read order %d: %w", link.LocalOrderID.Int64, err)
	}
	if !total.Equal(link.Amount) {
		return fmt.Errorf("order %d: paid %s, total %s: %w", link.LocalOrderID.Int64, link.Amount, total, domain.ErrAmountMismatch)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE orders SET status = ? WHERE id = ? AND status = ?`),
		domain.StatusConfirmed, link.LocalOrderID.Int64, domain.StatusPending); err != nil {
		return fmt.Errorf("confirm order %d: %w", link.LocalOrderID.Int64, err)
	}
	return tx.Commit()
}
