package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"makhana/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

// Create writes the order header, its items and the stock decrements in one
// transaction. Nothing persists unless every statement succeeds; a product that
// is missing or short on stock fails the whole order.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) (int64, error) {
	tx, err := beginTx(ctx, r.db)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var orderID int64
	if err := tx.QueryRowxContext(ctx, tx.Rebind(`
		INSERT INTO orders (user_id, total_amount, shipping_address, status, created_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		RETURNING id`),
		o.UserID, o.TotalAmount, o.ShippingAddress, domain.StatusPending).Scan(&orderID); err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}

	for _, it := range o.Items {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO order_items (order_id, product_id, quantity, price) VALUES (?, ?, ?, ?)`),
			orderID, it.ProductID, it.Quantity, it.Price); err != nil {
			return 0, fmt.Errorf("insert item for product %d: %w", it.ProductID, err)
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`
			UPDATE products SET stock_quantity = stock_quantity - ?
			WHERE id = ? AND stock_quantity >= ?`),
			it.Quantity, it.ProductID, it.Quantity)
		if err != nil {
			return 0, fmt.Errorf("decrement stock for product %d: %w", it.ProductID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return 0, fmt.Errorf("product %d: %w", it.ProductID, domain.ErrInsufficientStock)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit order: %w", err)
	}
	o.ID = orderID
	o.Status = domain.StatusPending
	return orderID, nil
}

// List returns orders newest first with their items attached. userID 0 lists
// every user's orders.
func (r *OrderRepo) List(ctx context.Context, userID int64) ([]domain.Order, error) {
	orders := []domain.Order{}
	query := `SELECT id, user_id, total_amount, shipping_address, status, created_at FROM orders`
	var args []any
	if userID != 0 {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if err := r.db.SelectContext(ctx, &orders, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := lo.Map(orders, func(o domain.Order, _ int) int64 { return o.ID })
	q, qargs, err := sqlx.In(`
		SELECT oi.order_id, oi.product_id, COALESCE(p.name, '') AS product_name, oi.quantity, oi.price
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id IN (?)
		ORDER BY oi.order_id, oi.product_id`, ids)
	if err != nil {
		return nil, err
	}
	var items []domain.OrderItem
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(q), qargs...); err != nil {
		return nil, err
	}
	byOrder := lo.GroupBy(items, func(it domain.OrderItem) int64 { return it.OrderID })
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []domain.OrderItem{}
		}
	}
	return orders, nil
}

// Get loads the order header without its items.
func (r *OrderRepo) Get(ctx context.Context, id int64) (domain.Order, error) {
	var o domain.Order
	err := r.db.GetContext(ctx, &o, r.db.Rebind(`
		SELECT id, user_id, total_amount, shipping_address, status, created_at FROM orders WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return o, domain.ErrNotFound
	}
	return o, err
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE orders SET status = ? WHERE id = ?`), status, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
