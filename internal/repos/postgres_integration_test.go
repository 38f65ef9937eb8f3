//go:build integration
// +build integration

package repos_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"makhana/internal/domain"
	"makhana/internal/repos"
)

// pgdb starts a throwaway PostgreSQL and opens it through the pgx driver.
func pgdb(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	pg, err := postgres.Run(ctx,
		"postgres:alpine",
		postgres.WithDatabase("makhana"),
		postgres.WithUsername("makhana"),
		postgres.WithPassword("makhana"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pg.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	db, err := repos.OpenDB(repos.DriverPostgres, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPostgresOrderTransaction(t *testing.T) {
	db := pgdb(t)
	ctx := context.Background()

	userID, err := repos.NewUserRepo(db).Create(ctx, &domain.User{Username: "pg", Email: "pg@example.com", Hash: "x"})
	require.NoError(t, err)
	_, err = repos.NewUserRepo(db).Create(ctx, &domain.User{Username: "pg", Email: "other@example.com", Hash: "x"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	prods := repos.NewProductRepo(db)
	a, err := prods.Create(ctx, &domain.Product{Name: "Classic", Price: decimal.RequireFromString("99.50"), StockQuantity: 5, Category: domain.DefaultCategory})
	require.NoError(t, err)
	b, err := prods.Create(ctx, &domain.Product{Name: "Mint", Price: decimal.RequireFromString("120"), StockQuantity: 1, Category: domain.DefaultCategory})
	require.NoError(t, err)

	orders := repos.NewOrderRepo(db)
	_, err = orders.Create(ctx, &domain.Order{
		UserID: userID, TotalAmount: decimal.RequireFromString("439"),
		Items: []domain.OrderItem{
			{ProductID: a, Quantity: 2, Price: decimal.RequireFromString("99.50")},
			{ProductID: b, Quantity: 2, Price: decimal.RequireFromString("120")},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
	got, err := prods.Get(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, 5, got.StockQuantity)

	id, err := orders.Create(ctx, &domain.Order{
		UserID: userID, TotalAmount: decimal.RequireFromString("199"),
		Items:  []domain.OrderItem{{ProductID: a, Quantity: 2, Price: decimal.RequireFromString("99.50")}},
	})
	require.NoError(t, err)
	got, err = prods.Get(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, 3, got.StockQuantity)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("99.5")))

	list, err := orders.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, "Classic", list[0].Items[0].ProductName)
	assert.NotEmpty(t, list[0].CreatedAt)
}

func TestPostgresSessionsAndPayments(t *testing.T) {
	db := pgdb(t)
	ctx := context.Background()

	store := repos.NewSessionStorage(db)
	require.NoError(t, store.Set("sid-1", []byte("payload"), time.Hour))
	val, err := store.Get("sid-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), val)

	pays := repos.NewPaymentRepo(db)
	require.NoError(t, pays.Record(ctx, &domain.Payment{OrderID: "order_PG", Amount: decimal.RequireFromString("149"), Currency: "INR"}))
	require.NoError(t, pays.MarkVerified(ctx, "order_PG", "pay_PG", "sig"))
	p, err := pays.Get(ctx, "order_PG")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentSuccess, p.Status)
	assert.True(t, p.Amount.Equal(decimal.NewFromInt(149)))
}
