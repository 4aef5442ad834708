package domain

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCurrency(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "uppercase passthrough", input: "EUR", want: "EUR"},
		{name: "lowercase normalized", input: "usd", want: "USD"},
		{name: "whitespace trimmed", input: "  gbp ", want: "GBP"},
		{name: "empty rejected", input: "", wantErr: true},
		{name: "too short rejected", input: "EU", wantErr: true},
		{name: "too long rejected", input: "EURO", wantErr: true},
		{name: "digits rejected", input: "E1R", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeCurrency(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidMoney)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewMoney(t *testing.T) {
	m, err := NewMoney(decimal.NewFromFloat(10.5), "eur")
	require.NoError(t, err)
	assert.Equal(t, "EUR", m.Currency)
	assert.True(t, m.Amount.Equal(decimal.NewFromFloat(10.5)))

	_, err = NewMoney(decimal.NewFromInt(1), "??")
	assert.ErrorIs(t, err, ErrInvalidMoney)
}

func TestNewMoneyFromFloat_RejectsNonFinite(t *testing.T) {
	_, err := NewMoneyFromFloat(math.NaN(), "USD")
	assert.ErrorIs(t, err, ErrInvalidMoney)

	_, err = NewMoneyFromFloat(math.Inf(1), "USD")
	assert.ErrorIs(t, err, ErrInvalidMoney)

	m, err := NewMoneyFromFloat(-12.25, "USD")
	require.NoError(t, err)
	assert.True(t, m.IsNegative())
}

func TestMoneyArithmetic_SameCurrency(t *testing.T) {
	a, err := NewMoneyFromFloat(10.10, "EUR")
	require.NoError(t, err)
	b, err := NewMoneyFromFloat(0.20, "EUR")
	require.NoError(t, err)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "10.3", sum.Amount.String())

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, "9.9", diff.Amount.String())

	cmp, err := a.Compare(b)
	require.NoError(t, err)
	assert.Equal(t, 1, cmp)

	eq, err := a.Equals(a)
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestMoneyArithmetic_CurrencyMismatch(t *testing.T) {
	eur, err := NewMoneyFromFloat(10, "EUR")
	require.NoError(t, err)
	usd, err := NewMoneyFromFloat(10, "USD")
	require.NoError(t, err)

	_, err = eur.Add(usd)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = eur.Sub(usd)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = eur.Compare(usd)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = eur.Equals(usd)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestMoneyUnaryOps(t *testing.T) {
	m, err := NewMoneyFromFloat(-3.456, "CHF")
	require.NoError(t, err)

	assert.True(t, m.IsNegative())
	assert.False(t, m.IsZero())
	assert.True(t, m.Abs().Amount.IsPositive())
	assert.True(t, m.Negate().Amount.IsPositive())
	assert.Equal(t, "-3.46", m.Round(2).Amount.String())

	doubled := m.Mul(decimal.NewFromInt(2))
	assert.Equal(t, "-6.912", doubled.Amount.String())
	assert.Equal(t, "CHF", doubled.Currency)

	z := Zero("JPY")
	assert.True(t, z.IsZero())
	assert.Equal(t, "JPY", z.Currency)
}

func TestUnconverted(t *testing.T) {
	m, err := NewMoneyFromFloat(50, "GBP")
	require.NoError(t, err)

	cm := Unconverted(m)
	assert.False(t, cm.WasConverted)
	assert.Equal(t, "GBP", cm.Currency)
	assert.Equal(t, "GBP", cm.OriginalCurrency)
	assert.Equal(t, 1.0, cm.ExchangeRate)
	assert.True(t, cm.Amount.Equal(m.Amount))
	assert.True(t, cm.OriginalAmount.Equal(m.Amount))
}
