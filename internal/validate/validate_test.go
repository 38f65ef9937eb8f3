package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"makhana/internal/validate"
)

func TestEmail(t *testing.T) {
	for _, good := range []string{"a@b.co", "  ravi.k+shop@example.in "} {
		_, ok := validate.Email(good)
		assert.True(t, ok, good)
	}
	for _, bad := range []string{"", "plain", "a@", "@b.com", "a b@c.com"} {
		_, ok := validate.Email(bad)
		assert.False(t, ok, bad)
	}
}

func TestPassword(t *testing.T) {
	assert.False(t, validate.Password("12345"))
	assert.True(t, validate.Password("123456"))
	assert.False(t, validate.Password("ééé"))
	assert.False(t, validate.Password("密码密"))
	assert.True(t, validate.Password("éééééé"))
}

func TestIDMoneyQty(t *testing.T) {
	id, ok := validate.ID("42")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
	_, ok = validate.ID("-1")
	assert.False(t, ok)
	_, ok = validate.ID("x")
	assert.False(t, ok)

	m, ok := validate.Money("199.50")
	assert.True(t, ok)
	assert.Equal(t, "199.5", m.String())
	_, ok = validate.Money("-3")
	assert.False(t, ok)

	q, ok := validate.Qty("0")
	assert.True(t, ok)
	assert.Equal(t, 0, q)
	_, ok = validate.Qty("2.5")
	assert.False(t, ok)
}

type payload struct {
	Amount   int64  `validate:"gt=0"`
	Currency string `validate:"required,oneof=INR USD"`
	Email    string `validate:"required,email"`
}

func TestStructCollectsEveryFailure(t *testing.T) {
	err := validate.Struct(payload{Amount: 0, Currency: "EUR", Email: "nope"})
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "amount must be greater than 0")
	assert.Contains(t, msg, "currency must be one of INR USD")
	assert.Contains(t, msg, "email must be a valid email")

	assert.NoError(t, validate.Struct(payload{Amount: 100, Currency: "INR", Email: "a@b.co"}))
}
