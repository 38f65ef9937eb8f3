package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestPlaceOrderDecrementsStock(t *testing.T) {
	env := newEnv(t)
	salted := env.seedProduct(t, "Classic Salted", 99, 10)
	mint := env.seedProduct(t, "Pudina", 120, 4)

	c := env.client(t)
	if r := c.json("POST", "/api/orders", map[string]any{"total_amount": 99}); r.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous order should be 401, got %d", r.Code)
	}
	c.signup("dev")

	r := c.json("POST", "/api/orders", map[string]any{
		"total_amount":     438,
		"shipping_address": "Boring Road, Patna",
		"items": []map[string]any{
			{"product_id": salted, "quantity": 2, "price": 99},
			{"id": mint, "quantity": 2, "price": 120},
		},
	})
	if r.Status != 1 {
		t.Fatalf("place order: %+v", r)
	}
	var placed struct {
		OrderID int64 `json:"order_id"`
	}
	if err := json.Unmarshal(r.Data, &placed); err != nil || placed.OrderID == 0 {
		t.Fatalf("order id missing: %s", r.Data)
	}
	if got := env.stock(t, salted); got != 8 {
		t.Fatalf("salted stock = %d, want 8", got)
	}
	if got := env.stock(t, mint); got != 2 {
		t.Fatalf("mint stock = %d, want 2", got)
	}

	r = c.json("GET", "/api/orders", nil)
	var orders []struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
		Items  []struct {
			ProductName string `json:"product_name"`
		} `json:"items"`
	}
	if err := json.Unmarshal(r.Data, &orders); err != nil {
		t.Fatalf("orders: %v %s", err, r.Data)
	}
	if len(orders) != 1 || orders[0].Status != "pending" || len(orders[0].Items) != 2 {
		t.Fatalf("unexpected orders: %s", r.Data)
	}
}

func TestPlaceOrderIsAllOrNothing(t *testing.T) {
	env := newEnv(t)
	plenty := env.seedProduct(t, "Peri Peri", 149, 10)
	scarce := env.seedProduct(t, "Cheese", 149, 1)

	c := env.client(t)
	c.signup("isha")
	r := c.json("POST", "/api/orders", map[string]any{
		"total_amount": 745,
		"items": []map[string]any{
			{"product_id": plenty, "quantity": 3, "price": 149},
			{"product_id": scarce, "quantity": 2, "price": 149},
		},
	})
	if r.Code != http.StatusOK || r.Status != 0 {
		t.Fatalf("oversold order should fail with status 0: %+v", r)
	}
	if got := env.stock(t, plenty); got != 10 {
		t.Fatalf("first item's decrement was not rolled back: stock %d", got)
	}
	var n int
	if err := env.db.Get(&n, `SELECT COUNT(*) FROM orders`); err != nil || n != 0 {
		t.Fatalf("orders persisted after rollback: %d %v", n, err)
	}
	if err := env.db.Get(&n, `SELECT COUNT(*) FROM order_items`); err != nil || n != 0 {
		t.Fatalf("order items persisted after rollback: %d %v", n, err)
	}

	r = c.json("POST", "/api/orders", map[string]any{"total_amount": 10, "items": []map[string]any{}})
	if r.Message != "Missing required fields: user_id, total_amount, or items" {
		t.Fatalf("empty cart: %+v", r)
	}
}

func TestOrderOwnership(t *testing.T) {
	env := newEnv(t)
	p := env.seedProduct(t, "Classic", 99, 10)
	a := env.client(t)
	a.signup("alok")
	b := env.client(t)
	b.signup("bina")

	r := b.json("POST", "/api/orders", map[string]any{
		"user_id": 1, "total_amount": 99,
		"items": []map[string]any{{"product_id": p, "quantity": 1, "price": 99}},
	})
	if r.Code != http.StatusForbidden {
		t.Fatalf("ordering for another user should be forbidden, got %d", r.Code)
	}
	if r = b.json("GET", "/api/orders?user_id=1", nil); r.Code != http.StatusForbidden {
		t.Fatalf("listing another user's orders should be forbidden, got %d", r.Code)
	}
	if r = a.json("POST", "/api/orders", map[string]any{
		"total_amount": 99, "items": []map[string]any{{"product_id": p, "price": 99}},
	}); r.Status != 1 {
		t.Fatalf("own order: %+v", r)
	}

	admin := env.client(t)
	admin.adminLogin()
	r = admin.json("GET", "/api/orders", nil)
	var all []json.RawMessage
	if err := json.Unmarshal(r.Data, &all); err != nil || len(all) != 1 {
		t.Fatalf("admin listing: %s", r.Data)
	}
}
