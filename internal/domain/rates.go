package domain

import "github.com/shopspring/decimal"

// RateSource identifies where an exchange rate came from.
type RateSource string

const (
	// RateSourcePrimary marks rates from the live rate API (or cached copies
	// of them, and the implicit 1:1 rate for same-currency lookups).
	RateSourcePrimary RateSource = "primary"
	// RateSourceFallback marks rates from the static fallback table. These
	// are degraded approximations, not authoritative quotes.
	RateSourceFallback RateSource = "fallback"
)

// ExchangeRate is an immutable base/target rate sample.
type ExchangeRate struct {
	Base   string     `json:"base"`
	Target string     `json:"target"`
	Rate   float64    `json:"rate"`
	Date   string     `json:"date"` // ISO date (2006-01-02)
	Source RateSource `json:"source"`
}

// ConvertedMoney is a Money value plus the full provenance of the conversion
// that produced it. When WasConverted is false the value passed through
// untouched: Amount equals OriginalAmount, Currency equals OriginalCurrency
// and ExchangeRate is 1. UI layers rely on these field names.
type ConvertedMoney struct {
	Money
	OriginalAmount   decimal.Decimal `json:"original_amount"`
	OriginalCurrency string          `json:"original_currency"`
	ExchangeRate     float64         `json:"exchange_rate"`
	RateDate         string          `json:"rate_date,omitempty"`
	RateSource       RateSource      `json:"rate_source,omitempty"`
	WasConverted     bool            `json:"was_converted"`
}

// Unconverted wraps a Money value in a pass-through conversion record.
func Unconverted(m Money) ConvertedMoney {
	return ConvertedMoney{
		Money:            m,
		OriginalAmount:   m.Amount,
		OriginalCurrency: m.Currency,
		ExchangeRate:     1,
		WasConverted:     false,
	}
}

// Quote is the shape supplied by the external quote collaborator for a
// symbol. The engine consumes this shape and is agnostic to its transport.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	PreviousClose float64 `json:"previous_close"`
	DayChange     float64 `json:"day_change"`
	Currency      string  `json:"currency"`
}
