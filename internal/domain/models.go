package domain

import "github.com/shopspring/decimal"

func init() {
	// Prices travel as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

const DefaultCategory = "makhana"

type Product struct {
	ID            int64               `db:"id" json:"id"`
	Name          string              `db:"name" json:"name"`
	Description   string              `db:"description" json:"description"`
	Price         decimal.Decimal     `db:"price" json:"price"`
	DiscountPrice decimal.NullDecimal `db:"discount_price" json:"discount_price"`
	StockQuantity int                 `db:"stock_quantity" json:"stock_quantity"`
	Category      string              `db:"category" json:"category"`
	Image         string              `db:"image" json:"image"`
	ImagePublicID string              `db:"image_public_id" json:"-"`
	CreatedAt     string              `db:"created_at" json:"created_at"`
}

type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

var OrderStatuses = []OrderStatus{
	StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type Order struct {
	ID              int64           `db:"id" json:"id"`
	UserID          int64           `db:"user_id" json:"user_id"`
	TotalAmount     decimal.Decimal `db:"total_amount" json:"total_amount"`
	ShippingAddress string          `db:"shipping_address" json:"shipping_address"`
	Status          OrderStatus     `db:"status" json:"status"`
	CreatedAt       string          `db:"created_at" json:"created_at"`
	Items           []OrderItem     `db:"-" json:"items"`
}

type OrderItem struct {
	OrderID     int64           `db:"order_id" json:"-"`
	ProductID   int64           `db:"product_id" json:"product_id"`
	ProductName string          `db:"product_name" json:"product_name"`
	Quantity    int             `db:"quantity" json:"quantity"`
	Price       decimal.Decimal `db:"price" json:"price"`
}

type PaymentStatus string

const (
	PaymentCreated PaymentStatus = "created"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

// Payment tracks one gateway order; OrderID is the gateway's id, LocalOrderID
// links it back to orders.id when the client supplied one.
type Payment struct {
	OrderID      string          `db:"order_id" json:"order_id"`
	PaymentID    string          `db:"payment_id" json:"payment_id"`
	Signature    string          `db:"signature" json:"-"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	Currency     string          `db:"currency" json:"currency"`
	Status       PaymentStatus   `db:"status" json:"status"`
	LocalOrderID *int64          `db:"local_order_id" json:"local_order_id,omitempty"`
	CreatedAt    string          `db:"created_at" json:"created_at"`
}
