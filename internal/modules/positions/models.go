// Package positions tracks holdings and folds their ordered buy/sell history
// into cost-basis metrics.
package positions

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind is the side of a transaction.
type TransactionKind string

const (
	TransactionBuy  TransactionKind = "buy"
	TransactionSell TransactionKind = "sell"
)

// Transaction is one buy or sell in a position's history. History is
// append-only: transactions are never mutated or deleted except by the hard
// delete of the whole position.
type Transaction struct {
	ID         string          `json:"id"`
	PositionID string          `json:"position_id"`
	Kind       TransactionKind `json:"kind"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Fees       decimal.Decimal `json:"fees"`
	Taxes      decimal.Decimal `json:"taxes"`
	ExecutedAt time.Time       `json:"executed_at"`
}

// Position is a tracked holding in one symbol. It is created on the first
// buy, becomes inactive when its quantity reaches zero (history retained),
// and is reactivated by a later buy.
type Position struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Currency  string    `json:"currency"` // native currency of the holding
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Metrics are the derived figures for a position, recomputed in full from
// the transaction history plus one live price sample - never patched
// incrementally.
type Metrics struct {
	Quantity             decimal.Decimal `json:"quantity"`
	AveragePrice         decimal.Decimal `json:"average_price"`
	TotalInvested        decimal.Decimal `json:"total_invested"`
	CurrentValue         decimal.Decimal `json:"current_value"`
	TotalGainLoss        decimal.Decimal `json:"total_gain_loss"`
	TotalGainLossPercent decimal.Decimal `json:"total_gain_loss_percent"`
	DayGainLoss          decimal.Decimal `json:"day_gain_loss"`
	Currency             string          `json:"currency"`
	ComputedAt           time.Time       `json:"computed_at"`
}
