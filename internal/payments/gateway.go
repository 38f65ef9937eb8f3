package payments

import (
	"context"
	"errors"

	razorpay "github.com/razorpay/razorpay-go"
)

var ErrNotConfigured = errors.New("payment gateway credentials not configured")

// Gateway creates orders on the payment provider. Amount is in the currency's
// smallest unit (paise for INR).
type Gateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (map[string]any, error)
	KeyID() string
	Secret() string
}

type RazorpayGateway struct {
	keyID  string
	secret string
	client *razorpay.Client
}

func NewRazorpayGateway(keyID, secret string) *RazorpayGateway {
	g := &RazorpayGateway{keyID: keyID, secret: secret}
	if keyID != "" && secret != "" {
		g.client = razorpay.NewClient(keyID, secret)
	}
	return g
}

func (g *RazorpayGateway) KeyID() string  { return g.keyID }
func (g *RazorpayGateway) Secret() string { return g.secret }

func (g *RazorpayGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (map[string]any, error) {
	if g.client == nil {
		return nil, ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.client.Order.Create(map[string]interface{}{
		"amount":          amount,
		"currency":        currency,
		"receipt":         receipt,
		"payment_capture": 1,
	}, nil)
}
