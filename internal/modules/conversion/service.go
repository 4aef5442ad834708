// Package conversion converts Money values into a display currency.
//
// The service owns the engine's fail-soft boundary: rate unavailability never
// escapes it as an error. A value whose currency cannot be resolved comes
// back unconverted (original amount, original currency, rate 1) with a logged
// warning, so one unreachable pair cannot abort an aggregation over many
// holdings.
package conversion

import (
	"fmt"

	"github.com/akistler/finboard/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RateProvider is the rate lookup surface the service depends on.
type RateProvider interface {
	Latest(base, target string) (domain.ExchangeRate, error)
	Historical(base, target, date string) (domain.ExchangeRate, error)
}

// Service converts single or batched Money values into a target currency.
type Service struct {
	rates RateProvider
	log   zerolog.Logger
}

// NewService creates a conversion service.
func NewService(rates RateProvider, log zerolog.Logger) *Service {
	return &Service{
		rates: rates,
		log:   log.With().Str("service", "conversion").Logger(),
	}
}

// ConvertedTotal is the result of summing a batch with conversion. Its
// Converted flag is a derived aggregate condition (ConversionCount > 0), not
// a per-value conversion record - do not confuse it with ConvertedMoney,
// which describes exactly one conversion.
type ConvertedTotal struct {
	Total           domain.Money `json:"total"`
	ConversionCount int          `json:"conversion_count"`
	Converted       bool         `json:"converted"`
	DegradedCount   int          `json:"degraded_count"`
}

// Convert converts one Money value into the target currency using the latest
// rate. Same-currency values pass through untouched with no provider call.
func (s *Service) Convert(m domain.Money, target string) domain.ConvertedMoney {
	return s.convert(m, target, "")
}

// ConvertAt converts one Money value using the rate for a past ISO date.
func (s *Service) ConvertAt(m domain.Money, target, date string) domain.ConvertedMoney {
	return s.convert(m, target, date)
}

func (s *Service) convert(m domain.Money, target, date string) domain.ConvertedMoney {
	normalizedTarget, err := domain.NormalizeCurrency(target)
	if err != nil {
		s.log.Warn().
			Err(err).
			Str("target", target).
			Msg("Invalid target currency, returning value unconverted")
		return domain.Unconverted(m)
	}

	if m.Currency == normalizedTarget {
		cm := domain.Unconverted(m)
		cm.RateSource = domain.RateSourcePrimary
		return cm
	}

	var er domain.ExchangeRate
	if date != "" {
		er, err = s.rates.Historical(m.Currency, normalizedTarget, date)
	} else {
		er, err = s.rates.Latest(m.Currency, normalizedTarget)
	}
	if err != nil {
		s.log.Warn().
			Err(err).
			Str("from", m.Currency).
			Str("to", normalizedTarget).
			Msg("No exchange rate available, returning value unconverted")
		return domain.Unconverted(m)
	}

	return domain.ConvertedMoney{
		Money: domain.Money{
			Amount:   m.Amount.Mul(decimal.NewFromFloat(er.Rate)),
			Currency: normalizedTarget,
		},
		OriginalAmount:   m.Amount,
		OriginalCurrency: m.Currency,
		ExchangeRate:     er.Rate,
		RateDate:         er.Date,
		RateSource:       er.Source,
		WasConverted:     true,
	}
}

// ConvertBatch converts a batch of Money values into the target currency.
//
// Source currencies are deduplicated so the provider is consulted at most
// once per distinct currency. The output always has the same length and
// order as the input; entries whose currency lacked a resolvable rate are
// included unconverted, with the cause recorded at the matching index of the
// returned error slice (nil where conversion succeeded or was unnecessary).
func (s *Service) ConvertBatch(values []domain.Money, target string) ([]domain.ConvertedMoney, []error) {
	out := make([]domain.ConvertedMoney, len(values))
	errs := make([]error, len(values))

	normalizedTarget, err := domain.NormalizeCurrency(target)
	if err != nil {
		for i, m := range values {
			out[i] = domain.Unconverted(m)
			errs[i] = err
		}
		return out, errs
	}

	// One provider lookup per distinct source currency.
	rateByCurrency := make(map[string]domain.ExchangeRate)
	errByCurrency := make(map[string]error)
	for _, m := range values {
		if m.Currency == normalizedTarget {
			continue
		}
		if _, done := rateByCurrency[m.Currency]; done {
			continue
		}
		if _, failed := errByCurrency[m.Currency]; failed {
			continue
		}
		er, err := s.rates.Latest(m.Currency, normalizedTarget)
		if err != nil {
			s.log.Warn().
				Err(err).
				Str("from", m.Currency).
				Str("to", normalizedTarget).
				Msg("No exchange rate for batch currency, entries degrade to unconverted")
			errByCurrency[m.Currency] = err
			continue
		}
		rateByCurrency[m.Currency] = er
	}

	for i, m := range values {
		if m.Currency == normalizedTarget {
			cm := domain.Unconverted(m)
			cm.RateSource = domain.RateSourcePrimary
			out[i] = cm
			continue
		}
		if er, ok := rateByCurrency[m.Currency]; ok {
			out[i] = domain.ConvertedMoney{
				Money: domain.Money{
					Amount:   m.Amount.Mul(decimal.NewFromFloat(er.Rate)),
					Currency: normalizedTarget,
				},
				OriginalAmount:   m.Amount,
				OriginalCurrency: m.Currency,
				ExchangeRate:     er.Rate,
				RateDate:         er.Date,
				RateSource:       er.Source,
				WasConverted:     true,
			}
			continue
		}
		out[i] = domain.Unconverted(m)
		errs[i] = fmt.Errorf("%w: %s/%s", domain.ErrRateUnavailable, m.Currency, normalizedTarget)
	}

	return out, errs
}

// SumWithConversion converts the full batch and sums the resulting amounts.
//
// Degraded entries contribute their original-currency amount as-is - the
// total is a display-time approximation, not bookkeeping. ConversionCount
// reports how many entries were actually converted; the Converted flag is
// derived from it.
func (s *Service) SumWithConversion(values []domain.Money, target string) ConvertedTotal {
	converted, errs := s.ConvertBatch(values, target)

	total := decimal.Zero
	conversionCount := 0
	degraded := 0
	for i, cm := range converted {
		total = total.Add(cm.Amount)
		if cm.WasConverted {
			conversionCount++
		}
		if errs[i] != nil {
			degraded++
		}
	}

	return ConvertedTotal{
		Total:           domain.Money{Amount: total, Currency: domain.Zero(target).Currency},
		ConversionCount: conversionCount,
		Converted:       conversionCount > 0,
		DegradedCount:   degraded,
	}
}
