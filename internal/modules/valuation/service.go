package valuation

import (
	"time"

	"github.com/akistler/finboard/internal/domain"
	"github.com/akistler/finboard/internal/modules/positions"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PositionSource is the position surface the aggregator reads from.
type PositionSource interface {
	List(activeOnly bool) ([]positions.Position, error)
	Metrics(positionID string) (*positions.Metrics, error)
}

// Converter is the currency conversion surface the aggregator depends on.
type Converter interface {
	ConvertBatch(values []domain.Money, target string) ([]domain.ConvertedMoney, []error)
}

// Service builds portfolio summaries.
type Service struct {
	source    PositionSource
	converter Converter
	log       zerolog.Logger
}

// NewService creates a valuation service.
func NewService(source PositionSource, converter Converter, log zerolog.Logger) *Service {
	return &Service{
		source:    source,
		converter: converter,
		log:       log.With().Str("service", "valuation").Logger(),
	}
}

// moniesPerPosition is the number of monetary figures flattened into the
// batch per position: invested, current value, total gain/loss, day gain/loss.
const moniesPerPosition = 4

// Summarize values every active position in the display currency.
//
// Positions without stored metrics are skipped with a warning rather than
// failing the summary. All monetary figures across all positions are
// flattened into a single ConvertBatch call, so the conversion layer is
// consulted once regardless of position count; entries the converter could
// not resolve stay in their native currency and mark the position degraded.
func (s *Service) Summarize(displayCurrency string) (*Summary, error) {
	display, err := domain.NormalizeCurrency(displayCurrency)
	if err != nil {
		return nil, err
	}

	active, err := s.source.List(true)
	if err != nil {
		return nil, err
	}

	type entry struct {
		pos     positions.Position
		metrics positions.Metrics
	}
	var entries []entry
	for _, pos := range active {
		m, err := s.source.Metrics(pos.ID)
		if err != nil {
			return nil, err
		}
		if m == nil {
			s.log.Warn().
				Str("symbol", pos.Symbol).
				Msg("Position has no computed metrics yet, skipping in summary")
			continue
		}
		entries = append(entries, entry{pos: pos, metrics: *m})
	}

	batch := make([]domain.Money, 0, len(entries)*moniesPerPosition)
	for _, e := range entries {
		currency := e.metrics.Currency
		if currency == "" {
			currency = e.pos.Currency
		}
		batch = append(batch,
			domain.Money{Amount: e.metrics.TotalInvested, Currency: currency},
			domain.Money{Amount: e.metrics.CurrentValue, Currency: currency},
			domain.Money{Amount: e.metrics.TotalGainLoss, Currency: currency},
			domain.Money{Amount: e.metrics.DayGainLoss, Currency: currency},
		)
	}
	converted, errs := s.converter.ConvertBatch(batch, display)

	summary := &Summary{
		DisplayCurrency: display,
		TotalInvested:   domain.Zero(display),
		CurrentValue:    domain.Zero(display),
		TotalGainLoss:   domain.Zero(display),
		DayGainLoss:     domain.Zero(display),
		PositionCount:   len(entries),
		Positions:       make([]PositionValuation, 0, len(entries)),
		ComputedAt:      time.Now(),
	}

	for i, e := range entries {
		offset := i * moniesPerPosition
		invested := converted[offset]
		currentValue := converted[offset+1]
		totalGainLoss := converted[offset+2]
		dayGainLoss := converted[offset+3]

		degraded := false
		for j := 0; j < moniesPerPosition; j++ {
			if errs[offset+j] != nil {
				degraded = true
				break
			}
		}
		if degraded {
			summary.DegradedCount++
		}

		gainPercent, _ := e.metrics.TotalGainLossPercent.Float64()
		pv := PositionValuation{
			PositionID:    e.pos.ID,
			Symbol:        e.pos.Symbol,
			Currency:      e.pos.Currency,
			Invested:      invested,
			CurrentValue:  currentValue,
			TotalGainLoss: totalGainLoss,
			DayGainLoss:   dayGainLoss,
			GainPercent:   gainPercent,
			Degraded:      degraded,
		}
		summary.Positions = append(summary.Positions, pv)

		// Degraded amounts contribute their native-currency figures as-is;
		// the totals are a display approximation, not bookkeeping.
		summary.TotalInvested.Amount = summary.TotalInvested.Amount.Add(invested.Amount)
		summary.CurrentValue.Amount = summary.CurrentValue.Amount.Add(currentValue.Amount)
		summary.TotalGainLoss.Amount = summary.TotalGainLoss.Amount.Add(totalGainLoss.Amount)
		summary.DayGainLoss.Amount = summary.DayGainLoss.Amount.Add(dayGainLoss.Amount)

		if summary.BestPerformer == nil || gainPercent > summary.BestPerformer.GainPercent {
			summary.BestPerformer = &PerformerRef{
				PositionID:  e.pos.ID,
				Symbol:      e.pos.Symbol,
				GainPercent: gainPercent,
			}
		}
		if summary.WorstPerformer == nil || gainPercent < summary.WorstPerformer.GainPercent {
			summary.WorstPerformer = &PerformerRef{
				PositionID:  e.pos.ID,
				Symbol:      e.pos.Symbol,
				GainPercent: gainPercent,
			}
		}
	}

	summary.PreviousDayValue = domain.Money{
		Amount:   summary.CurrentValue.Amount.Sub(summary.DayGainLoss.Amount),
		Currency: display,
	}
	if summary.PreviousDayValue.Amount.IsPositive() {
		pct, _ := summary.DayGainLoss.Amount.
			Div(summary.PreviousDayValue.Amount).
			Mul(decimal.NewFromInt(100)).
			Float64()
		summary.DayGainLossPercent = pct
	}

	return summary, nil
}
