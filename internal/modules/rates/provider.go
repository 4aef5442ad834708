// Package rates provides the exchange rate provider: cache-first lookups
// against the live rate API with degrade-to-fallback semantics.
package rates

import (
	"fmt"
	"time"

	"github.com/akistler/finboard/internal/clients/frankfurter"
	"github.com/akistler/finboard/internal/domain"
	"github.com/rs/zerolog"
)

const (
	// TTLLatest - latest rates move intraday.
	TTLLatest = time.Hour
	// TTLHistorical - rates for a past date never change.
	TTLHistorical = 24 * time.Hour
)

// Fetcher is the rate API surface the provider depends on.
type Fetcher interface {
	Latest(base string, symbols []string) (*frankfurter.Result, error)
	Historical(date, base string, symbols []string) (*frankfurter.Result, error)
}

// Provider resolves exchange rates with a TTL cache in front of the live API
// and a static fallback table behind it. Repeated lookups for the same pair
// within the TTL window return the identical cached rate and trigger no
// external calls.
type Provider struct {
	fetcher Fetcher
	cache   Cache
	log     zerolog.Logger
}

// NewProvider creates a rate provider.
func NewProvider(fetcher Fetcher, cache Cache, log zerolog.Logger) *Provider {
	return &Provider{
		fetcher: fetcher,
		cache:   cache,
		log:     log.With().Str("service", "rates").Logger(),
	}
}

func latestKey(base, target string) string {
	return base + ":" + target
}

func historicalKey(base, target, date string) string {
	return base + ":" + target + ":" + date
}

func today() string {
	return time.Now().Format("2006-01-02")
}

// Latest returns the current rate for one pair.
//
// Same currency short-circuits to rate 1 with no cache lookup and no network
// call. A fresh cache hit is returned as-is. Otherwise one pair is fetched
// and cached for an hour; on any fetch failure or a missing target in the
// response the static fallback table is consulted (tagged fallback, not
// cached under the primary TTL). With no fallback either, the pair resolves
// to ErrRateUnavailable.
func (p *Provider) Latest(base, target string) (domain.ExchangeRate, error) {
	base, target, err := normalizePair(base, target)
	if err != nil {
		return domain.ExchangeRate{}, err
	}

	if base == target {
		return domain.ExchangeRate{
			Base:   base,
			Target: target,
			Rate:   1,
			Date:   today(),
			Source: domain.RateSourcePrimary,
		}, nil
	}

	key := latestKey(base, target)
	if cached, ok := p.cache.Get(key); ok {
		return cached, nil
	}

	result, err := p.fetcher.Latest(base, []string{target})
	if err == nil {
		if rate, ok := result.Rates[target]; ok && rate > 0 {
			er := domain.ExchangeRate{
				Base:   base,
				Target: target,
				Rate:   rate,
				Date:   result.Date,
				Source: domain.RateSourcePrimary,
			}
			p.cache.Set(key, er, TTLLatest)
			return er, nil
		}
		err = fmt.Errorf("rate for %s missing from response", target)
	}

	p.log.Warn().
		Err(err).
		Str("base", base).
		Str("target", target).
		Msg("Live rate fetch failed, trying fallback table")

	return p.fallbackRate(base, target)
}

// Historical returns the rate for one pair on a past ISO date. Cached for 24
// hours since rates for a past date never change. On fetch failure this path
// degrades to the latest rate rather than the static fallback table, trading
// date accuracy for recency.
func (p *Provider) Historical(base, target, date string) (domain.ExchangeRate, error) {
	base, target, err := normalizePair(base, target)
	if err != nil {
		return domain.ExchangeRate{}, err
	}

	if base == target {
		return domain.ExchangeRate{
			Base:   base,
			Target: target,
			Rate:   1,
			Date:   date,
			Source: domain.RateSourcePrimary,
		}, nil
	}

	key := historicalKey(base, target, date)
	if cached, ok := p.cache.Get(key); ok {
		return cached, nil
	}

	result, err := p.fetcher.Historical(date, base, []string{target})
	if err == nil {
		if rate, ok := result.Rates[target]; ok && rate > 0 {
			er := domain.ExchangeRate{
				Base:   base,
				Target: target,
				Rate:   rate,
				Date:   result.Date,
				Source: domain.RateSourcePrimary,
			}
			p.cache.Set(key, er, TTLHistorical)
			return er, nil
		}
		err = fmt.Errorf("rate for %s missing from response", target)
	}

	p.log.Warn().
		Err(err).
		Str("base", base).
		Str("target", target).
		Str("date", date).
		Msg("Historical rate fetch failed, degrading to latest rate")

	return p.Latest(base, target)
}

// LatestBatch resolves current rates for one base against many targets with
// at most ONE external request per invocation, regardless of target count.
// Fresh cache entries are reused; the remaining targets go out in a single
// batched fetch whose results are cached individually. Targets absent from
// the response are resolved through the fallback table; pairs with no
// fallback either are omitted from the result map.
func (p *Provider) LatestBatch(base string, targets []string) map[string]domain.ExchangeRate {
	resolved := make(map[string]domain.ExchangeRate, len(targets))

	normalizedBase, err := domain.NormalizeCurrency(base)
	if err != nil {
		p.log.Warn().Err(err).Str("base", base).Msg("Invalid base currency in batch lookup")
		return resolved
	}
	base = normalizedBase

	var uncached []string
	seen := make(map[string]bool, len(targets))
	for _, raw := range targets {
		target, err := domain.NormalizeCurrency(raw)
		if err != nil {
			p.log.Warn().Err(err).Str("target", raw).Msg("Skipping invalid target currency in batch lookup")
			continue
		}
		if seen[target] {
			continue
		}
		seen[target] = true

		if target == base {
			resolved[target] = domain.ExchangeRate{
				Base:   base,
				Target: target,
				Rate:   1,
				Date:   today(),
				Source: domain.RateSourcePrimary,
			}
			continue
		}

		if cached, ok := p.cache.Get(latestKey(base, target)); ok {
			resolved[target] = cached
			continue
		}
		uncached = append(uncached, target)
	}

	if len(uncached) > 0 {
		result, err := p.fetcher.Latest(base, uncached)
		if err != nil {
			p.log.Warn().
				Err(err).
				Str("base", base).
				Strs("targets", uncached).
				Msg("Batched rate fetch failed, resolving via fallback table")
		} else {
			for _, target := range uncached {
				rate, ok := result.Rates[target]
				if !ok || rate <= 0 {
					continue
				}
				er := domain.ExchangeRate{
					Base:   base,
					Target: target,
					Rate:   rate,
					Date:   result.Date,
					Source: domain.RateSourcePrimary,
				}
				p.cache.Set(latestKey(base, target), er, TTLLatest)
				resolved[target] = er
			}
		}

		// Whatever the batched call could not supply falls through to the
		// static table, one target at a time.
		for _, target := range uncached {
			if _, ok := resolved[target]; ok {
				continue
			}
			er, err := p.fallbackRate(base, target)
			if err != nil {
				p.log.Warn().
					Str("base", base).
					Str("target", target).
					Msg("No rate available for batch target")
				continue
			}
			resolved[target] = er
		}
	}

	return resolved
}

// fallbackRate resolves a pair from the static table. Fallback rates are
// degraded, not authoritative, so they are never cached under the primary
// TTL policy.
func (p *Provider) fallbackRate(base, target string) (domain.ExchangeRate, error) {
	rate, ok := lookupFallback(base, target)
	if !ok {
		return domain.ExchangeRate{}, fmt.Errorf("%w: %s/%s", domain.ErrRateUnavailable, base, target)
	}

	p.log.Warn().
		Str("base", base).
		Str("target", target).
		Float64("rate", rate).
		Msg("Using static fallback rate")

	return domain.ExchangeRate{
		Base:   base,
		Target: target,
		Rate:   rate,
		Date:   today(),
		Source: domain.RateSourceFallback,
	}, nil
}

func normalizePair(base, target string) (string, string, error) {
	normalizedBase, err := domain.NormalizeCurrency(base)
	if err != nil {
		return "", "", err
	}
	normalizedTarget, err := domain.NormalizeCurrency(target)
	if err != nil {
		return "", "", err
	}
	return normalizedBase, normalizedTarget, nil
}
