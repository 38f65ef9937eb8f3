package services_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"makhana/internal/domain"
	"makhana/internal/repos"
	"makhana/internal/services"
)

func seed(t *testing.T, db *sqlx.DB, stock int) (userID, productID int64) {
	t.Helper()
	ctx := context.Background()
	userID, err := repos.NewUserRepo(db).Create(ctx, &domain.User{Username: "kiran", Email: "kiran@example.com", Hash: "x"})
	require.NoError(t, err)
	productID, err = repos.NewProductRepo(db).Create(ctx, &domain.Product{
		Name: "Peri Peri Makhana", Price: decimal.RequireFromString("149"), StockQuantity: stock, Category: domain.DefaultCategory,
	})
	require.NoError(t, err)
	return userID, productID
}

func TestPlaceOrder(t *testing.T) {
	db := memdb(t)
	svc := services.NewOrderService(repos.NewOrderRepo(db))
	userID, productID := seed(t, db, 10)

	o, serverTotal, err := svc.Place(context.Background(), services.PlaceOrderInput{
		UserID:          userID,
		TotalAmount:     decimal.RequireFromString("298"),
		ShippingAddress: "4 Lake View, Patna",
		Items: []services.OrderLine{
			// quantity omitted defaults to 1, id accepted in place of product_id
			{ID: productID, Price: decimal.RequireFromString("149")},
			{ProductID: productID, Quantity: 1, Price: decimal.RequireFromString("149")},
		},
	})
	require.NoError(t, err)
	assert.NotZero(t, o.ID)
	assert.Equal(t, domain.StatusPending, o.Status)
	assert.True(t, serverTotal.Equal(decimal.RequireFromString("298")))

	orders, err := svc.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Len(t, orders[0].Items, 2)
	assert.Equal(t, "Peri Peri Makhana", orders[0].Items[0].ProductName)

	var left int
	require.NoError(t, db.Get(&left, `SELECT stock_quantity FROM products WHERE id = ?`, productID))
	assert.Equal(t, 8, left)
}

func TestPlaceOrderRejects(t *testing.T) {
	db := memdb(t)
	svc := services.NewOrderService(repos.NewOrderRepo(db))
	userID, productID := seed(t, db, 1)
	ctx := context.Background()

	_, _, err := svc.Place(ctx, services.PlaceOrderInput{UserID: userID, TotalAmount: decimal.NewFromInt(10)})
	assert.Equal(t, "Missing required fields: user_id, total_amount, or items", services.Message(err, ""))

	_, _, err = svc.Place(ctx, services.PlaceOrderInput{
		UserID: userID, TotalAmount: decimal.NewFromInt(10),
		Items: []services.OrderLine{{ProductID: productID, Quantity: 1}},
	})
	assert.Equal(t, "Order creation failed: Invalid item data", services.Message(err, ""))

	_, _, err = svc.Place(ctx, services.PlaceOrderInput{
		UserID: userID, TotalAmount: decimal.NewFromInt(447),
		Items: []services.OrderLine{{ProductID: productID, Quantity: 3, Price: decimal.NewFromInt(149)}},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var orders int
	require.NoError(t, db.Get(&orders, `SELECT COUNT(*) FROM orders`))
	assert.Zero(t, orders)
}

func TestUpdateOrderStatus(t *testing.T) {
	db := memdb(t)
	svc := services.NewOrderService(repos.NewOrderRepo(db))
	userID, productID := seed(t, db, 5)
	ctx := context.Background()

	o, _, err := svc.Place(ctx, services.PlaceOrderInput{
		UserID: userID, TotalAmount: decimal.NewFromInt(149),
		Items: []services.OrderLine{{ProductID: productID, Quantity: 1, Price: decimal.NewFromInt(149)}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Missing order_id or status", services.Message(svc.UpdateStatus(ctx, services.StatusInput{OrderID: o.ID}), ""))
	assert.Equal(t, "Invalid status", services.Message(svc.UpdateStatus(ctx, services.StatusInput{OrderID: o.ID, Status: "lost"}), ""))
	assert.ErrorIs(t, svc.UpdateStatus(ctx, services.StatusInput{OrderID: 999, Status: "shipped"}), domain.ErrNotFound)
	require.NoError(t, svc.UpdateStatus(ctx, services.StatusInput{OrderID: o.ID, Status: "shipped"}))

	all, err := svc.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, domain.StatusShipped, all[0].Status)
}
