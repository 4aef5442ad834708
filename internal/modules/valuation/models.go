// Package valuation aggregates per-position metrics into one portfolio-level
// summary in a chosen display currency.
package valuation

import (
	"time"

	"github.com/akistler/finboard/internal/domain"
)

// PositionValuation is one position's contribution to the summary, with every
// monetary figure expressed in the display currency (or left in the native
// currency when conversion degraded, flagged by Degraded).
type PositionValuation struct {
	PositionID    string                `json:"position_id"`
	Symbol        string                `json:"symbol"`
	Currency      string                `json:"currency"`
	Invested      domain.ConvertedMoney `json:"invested"`
	CurrentValue  domain.ConvertedMoney `json:"current_value"`
	TotalGainLoss domain.ConvertedMoney `json:"total_gain_loss"`
	DayGainLoss   domain.ConvertedMoney `json:"day_gain_loss"`
	GainPercent   float64               `json:"gain_percent"`
	Degraded      bool                  `json:"degraded"`
}

// PerformerRef points at the best or worst position by total gain percent.
type PerformerRef struct {
	PositionID  string  `json:"position_id"`
	Symbol      string  `json:"symbol"`
	GainPercent float64 `json:"gain_percent"`
}

// Summary is the whole portfolio valued in one display currency.
type Summary struct {
	DisplayCurrency    string              `json:"display_currency"`
	TotalInvested      domain.Money        `json:"total_invested"`
	CurrentValue       domain.Money        `json:"current_value"`
	TotalGainLoss      domain.Money        `json:"total_gain_loss"`
	DayGainLoss        domain.Money        `json:"day_gain_loss"`
	PreviousDayValue   domain.Money        `json:"previous_day_value"`
	DayGainLossPercent float64             `json:"day_gain_loss_percent"`
	PositionCount      int                 `json:"position_count"`
	DegradedCount      int                 `json:"degraded_count"`
	BestPerformer      *PerformerRef       `json:"best_performer,omitempty"`
	WorstPerformer     *PerformerRef       `json:"worst_performer,omitempty"`
	Positions          []PositionValuation `json:"positions"`
	ComputedAt         time.Time           `json:"computed_at"`
}
