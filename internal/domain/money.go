// Package domain contains the pure value objects shared by the valuation
// engine: Money, exchange rates, conversion records, and quotes. Nothing in
// this package depends on infrastructure.
package domain

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Money is an immutable (amount, currency) pair. Arithmetic across differing
// currencies fails with ErrCurrencyMismatch - values must be converted before
// they can be combined. All operations return new values.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// NormalizeCurrency uppercases and validates a 3-letter currency code.
func NormalizeCurrency(currency string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if !currencyPattern.MatchString(code) {
		return "", fmt.Errorf("%w: malformed currency code %q", ErrInvalidMoney, currency)
	}
	return code, nil
}

// NewMoney creates a Money value with a validated currency code.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	code, err := NormalizeCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	return Money{Amount: amount, Currency: code}, nil
}

// NewMoneyFromFloat creates a Money value from a float64 amount.
// NaN and infinite amounts are rejected with ErrInvalidMoney.
func NewMoneyFromFloat(amount float64, currency string) (Money, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Money{}, fmt.Errorf("%w: amount must be finite, got %v", ErrInvalidMoney, amount)
	}
	return NewMoney(decimal.NewFromFloat(amount), currency)
}

// Zero returns the zero amount for a currency. The code is normalized but not
// validated; use NewMoney for currency codes that come from external input.
func Zero(currency string) Money {
	return Money{Amount: decimal.Zero, Currency: strings.ToUpper(strings.TrimSpace(currency))}
}

func (m Money) guard(o Money) error {
	if m.Currency != o.Currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, o.Currency)
	}
	return nil
}

// Add returns m + o. Both values must share a currency.
func (m Money) Add(o Money) (Money, error) {
	if err := m.guard(o); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Add(o.Amount), Currency: m.Currency}, nil
}

// Sub returns m - o. Both values must share a currency.
func (m Money) Sub(o Money) (Money, error) {
	if err := m.guard(o); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount.Sub(o.Amount), Currency: m.Currency}, nil
}

// Compare returns -1, 0 or 1 ordering m against o.
// Both values must share a currency.
func (m Money) Compare(o Money) (int, error) {
	if err := m.guard(o); err != nil {
		return 0, err
	}
	return m.Amount.Cmp(o.Amount), nil
}

// Equals reports whether two values of the same currency are numerically
// equal. Differing currencies are an error, not inequality.
func (m Money) Equals(o Money) (bool, error) {
	cmp, err := m.Compare(o)
	if err != nil {
		return false, err
	}
	return cmp == 0, nil
}

// Mul scales the amount by a decimal factor.
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{Amount: m.Amount.Mul(factor), Currency: m.Currency}
}

// Negate flips the sign of the amount.
func (m Money) Negate() Money {
	return Money{Amount: m.Amount.Neg(), Currency: m.Currency}
}

// Abs returns the absolute value of the amount.
func (m Money) Abs() Money {
	return Money{Amount: m.Amount.Abs(), Currency: m.Currency}
}

// Round rounds the amount half away from zero to the given decimal places.
func (m Money) Round(places int32) Money {
	return Money{Amount: m.Amount.Round(places), Currency: m.Currency}
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.Amount.IsNegative()
}

func (m Money) String() string {
	return m.Amount.String() + " " + m.Currency
}
