package services

import (
	"context"
	"errors"
	"strings"

	"makhana/internal/domain"
	applog "makhana/internal/log"
	"makhana/internal/repos"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type OrderService struct {
	Orders *repos.OrderRepo
}

func NewOrderService(orders *repos.OrderRepo) *OrderService {
	return &OrderService{Orders: orders}
}

type PlaceOrderInput struct {
	UserID          int64           `json:"user_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ShippingAddress string          `json:"shipping_address"`
	Items           []OrderLine     `json:"items"`
}

// OrderLine is one cart line; clients send the product as either product_id or id.
type OrderLine struct {
	ProductID int64           `json:"product_id"`
	ID        int64           `json:"id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

func (l OrderLine) productID() int64 {
	if l.ProductID != 0 {
		return l.ProductID
	}
	return l.ID
}

// Place validates the cart and stores the order with its stock decrements.
// The stored total is the client's; the recomputed one is returned so callers
// can report a mismatch.
func (s *OrderService) Place(ctx context.Context, in PlaceOrderInput) (*domain.Order, decimal.Decimal, error) {
	if in.UserID <= 0 || !in.TotalAmount.IsPositive() || len(in.Items) == 0 {
		return nil, decimal.Zero, invalid("Missing required fields: user_id, total_amount, or items")
	}

	items := make([]domain.OrderItem, 0, len(in.Items))
	for _, l := range in.Items {
		qty := l.Quantity
		if qty == 0 {
			qty = 1
		}
		if l.productID() <= 0 || qty < 0 || !l.Price.IsPositive() {
			return nil, decimal.Zero, invalid("Order creation failed: Invalid item data")
		}
		items = append(items, domain.OrderItem{ProductID: l.productID(), Quantity: qty, Price: l.Price})
	}

	serverTotal := lo.Reduce(items, func(acc decimal.Decimal, it domain.OrderItem, _ int) decimal.Decimal {
		return acc.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}, decimal.Zero)

	o := &domain.Order{
		UserID:          in.UserID,
		TotalAmount:     in.TotalAmount,
		ShippingAddress: strings.TrimSpace(in.ShippingAddress),
		Items:           items,
	}
	if _, err := s.Orders.Create(ctx, o); err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			return nil, decimal.Zero, &Problem{Msg: "Order creation failed: " + err.Error(), Kind: domain.ErrInsufficientStock, Err: err}
		}
		return nil, decimal.Zero, wrapProblem(ErrInternal, "Order creation failed", err)
	}
	if !serverTotal.Equal(in.TotalAmount) {
		applog.Logger().WithFields(map[string]any{
			"order_id":     o.ID,
			"client_total": in.TotalAmount.String(),
			"server_total": serverTotal.String(),
		}).Warn("order.total.mismatch")
	}
	return o, serverTotal, nil
}

// List returns one user's orders, or every order when userID is 0.
func (s *OrderService) List(ctx context.Context, userID int64) ([]domain.Order, error) {
	orders, err := s.Orders.List(ctx, userID)
	if err != nil {
		return nil, wrapProblem(ErrInternal, "Database order retrieval failed", err)
	}
	return orders, nil
}

type StatusInput struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
}

func (s *OrderService) UpdateStatus(ctx context.Context, in StatusInput) error {
	if in.OrderID <= 0 || strings.TrimSpace(in.Status) == "" {
		return invalid("Missing order_id or status")
	}
	status := domain.OrderStatus(strings.TrimSpace(in.Status))
	if !status.Valid() {
		return invalid("Invalid status")
	}
	err := s.Orders.UpdateStatus(ctx, in.OrderID, status)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return notFound("Order not found")
	case err != nil:
		return wrapProblem(ErrInternal, "Order update failed", err)
	}
	return nil
}
