package widget

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Bounds on what the amount field may hold. Decimal exponents go up to ±2^31,
// and every String or JSON encoding expands them to full digits.
const (
	maxAmountInput  = 64
	maxAmountDigits = 30
	maxAmountScale  = 18
)

// ParseAmount validates the raw amount field. Empty, non-numeric or
// out-of-range input is ErrInvalidAmount; a negative number is ErrNegativeAmount.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxAmountInput {
		return decimal.Zero, ErrInvalidAmount
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	exp := amount.Exponent()
	if exp < -maxAmountScale || exp > maxAmountDigits {
		return decimal.Zero, ErrInvalidAmount
	}
	// Digits left of the point: coefficient digits shifted by the exponent.
	if amount.NumDigits()+int(exp) > maxAmountDigits {
		return decimal.Zero, ErrInvalidAmount
	}
	if amount.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	return amount, nil
}
