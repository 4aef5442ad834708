package domain

import "errors"

// Error taxonomy for the valuation engine.
//
// ErrInvalidMoney and ErrCurrencyMismatch are surfaced immediately to the
// caller. ErrRateUnavailable is recoverable and is absorbed at the conversion
// service boundary into a degraded result; it must never escape that layer.
var (
	// ErrInvalidMoney indicates a non-finite amount or malformed currency
	// code at Money construction.
	ErrInvalidMoney = errors.New("invalid money")

	// ErrCurrencyMismatch indicates arithmetic across differing currencies.
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// ErrRateUnavailable indicates that neither the live rate source nor the
	// static fallback table can resolve a currency pair.
	ErrRateUnavailable = errors.New("exchange rate unavailable")
)
