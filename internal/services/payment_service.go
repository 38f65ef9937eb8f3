package services

import (
	"context"
	"errors"
	"strings"

	"makhana/internal/domain"
	"makhana/internal/payments"
	"makhana/internal/repos"
	"makhana/internal/validate"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const DefaultCurrency = "INR"

var ErrBadSignature = errors.New("signature mismatch")

type PaymentService struct {
	Gateway  payments.Gateway
	Payments *repos.PaymentRepo
	Orders   *repos.OrderRepo
}

func NewPaymentService(gw payments.Gateway, pays *repos.PaymentRepo, orders *repos.OrderRepo) *PaymentService {
	return &PaymentService{Gateway: gw, Payments: pays, Orders: orders}
}

// CreatePaymentInput.Amount is in the smallest currency unit. OrderID optionally
// links the gateway order to a pending order owned by UserID.
type CreatePaymentInput struct {
	UserID   int64  `json:"-"`
	Amount   int64  `json:"amount" validate:"gt=0"`
	Currency string `json:"currency" validate:"omitempty,len=3,alpha"`
	OrderID  *int64 `json:"order_id" validate:"omitempty,gt=0"`
}

type GatewayOrder struct {
	Order map[string]any `json:"order"`
	KeyID string         `json:"key_id"`
}

func (s *PaymentService) Create(ctx context.Context, in CreatePaymentInput) (*GatewayOrder, error) {
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if in.Currency == "" {
		in.Currency = DefaultCurrency
	}
	if err := validate.Struct(in); err != nil {
		if in.Amount <= 0 {
			return nil, wrapProblem(domain.ErrInvalidInput, "Invalid amount", err)
		}
		return nil, wrapProblem(domain.ErrInvalidInput, "Invalid payment request", err)
	}
	if s.Gateway == nil || s.Gateway.KeyID() == "" || s.Gateway.Secret() == "" {
		return nil, wrapProblem(ErrInternal, "Razorpay credentials not configured", payments.ErrNotConfigured)
	}
	if in.OrderID != nil {
		if err := s.checkLink(ctx, in); err != nil {
			return nil, err
		}
	}

	order, err := s.Gateway.CreateOrder(ctx, in.Amount, in.Currency, "order_"+uuid.NewString())
	if err != nil {
		return nil, wrapProblem(ErrInternal, "Payment order creation failed", err)
	}
	gatewayID, _ := order["id"].(string)
	if gatewayID == "" {
		return nil, wrapProblem(ErrInternal, "Payment order creation failed", errors.New("gateway returned no order id"))
	}
	err = s.Payments.Record(ctx, &domain.Payment{
		OrderID:      gatewayID,
		Amount:       decimal.New(in.Amount, -2),
		Currency:     in.Currency,
		LocalOrderID: in.OrderID,
	})
	if err != nil {
		return nil, wrapProblem(ErrInternal, "Payment order creation failed", err)
	}
	return &GatewayOrder{Order: order, KeyID: s.Gateway.KeyID()}, nil
}

// checkLink allows only the caller's own pending order, for its exact total.
func (s *PaymentService) checkLink(ctx context.Context, in CreatePaymentInput) error {
	o, err := s.Orders.Get(ctx, *in.OrderID)
	if errors.Is(err, domain.ErrNotFound) {
		return notFound("Order not found")
	}
	if err != nil {
		return wrapProblem(ErrInternal, "Payment order creation failed", err)
	}
	if o.UserID != in.UserID {
		return &Problem{Msg: "Order does not belong to you", Kind: domain.ErrForbidden}
	}
	if o.Status != domain.StatusPending {
		return invalid("Order is not awaiting payment")
	}
	if !decimal.New(in.Amount, -2).Equal(o.TotalAmount) {
		return &Problem{Msg: "Amount does not match order total", Kind: domain.ErrAmountMismatch}
	}
	return nil
}

// VerifyInput carries only the gateway's ids; the local order link is the one
// stored when the payment was created.
type VerifyInput struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
}

// Verify checks the gateway's callback signature and records the payment as
// successful. A linked local order moves to confirmed in the same transaction.
func (s *PaymentService) Verify(ctx context.Context, in VerifyInput) error {
	in.OrderID = strings.TrimSpace(in.OrderID)
	in.PaymentID = strings.TrimSpace(in.PaymentID)
	in.Signature = strings.TrimSpace(in.Signature)
	if err := validate.Struct(in); err != nil {
		return wrapProblem(domain.ErrInvalidInput, "Missing payment verification data", err)
	}
	if s.Gateway == nil || s.Gateway.Secret() == "" {
		return wrapProblem(ErrInternal, "Razorpay credentials not configured", payments.ErrNotConfigured)
	}
	if !payments.Verify(s.Gateway.Secret(), in.OrderID, in.PaymentID, in.Signature) {
		return &Problem{Msg: "Payment signature verification failed", Kind: ErrBadSignature}
	}
	err := s.Payments.MarkVerified(ctx, in.OrderID, in.PaymentID, in.Signature)
	switch {
	case errors.Is(err, domain.ErrAmountMismatch):
		return &Problem{Msg: "Payment amount does not match order total", Kind: domain.ErrAmountMismatch, Err: err}
	case err != nil:
		return wrapProblem(ErrInternal, "Payment recording failed", err)
	}
	return nil
}
