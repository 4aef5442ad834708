package jobs

import (
	"fmt"

	"github.com/akistler/finboard/internal/modules/rates"
	"github.com/rs/zerolog"
)

// RateSyncJob warms the rate cache for the configured currency set so that
// user-facing lookups hit warm entries instead of paying for live fetches.
type RateSyncJob struct {
	provider   *rates.Provider
	base       string
	currencies []string
	log        zerolog.Logger
}

// NewRateSyncJob creates a rate sync job. base is the display currency; the
// cache is warmed for base against every other configured currency.
func NewRateSyncJob(provider *rates.Provider, base string, currencies []string, log zerolog.Logger) *RateSyncJob {
	return &RateSyncJob{
		provider:   provider,
		base:       base,
		currencies: currencies,
		log:        log.With().Str("job", "rate_sync").Logger(),
	}
}

// Name returns the job name.
func (j *RateSyncJob) Name() string {
	return "rate_sync"
}

// Run warms the cache with one batched lookup. Partial resolution is success;
// the job errors only when nothing resolves at all.
func (j *RateSyncJob) Run() error {
	var targets []string
	for _, c := range j.currencies {
		if c != j.base {
			targets = append(targets, c)
		}
	}
	if len(targets) == 0 {
		return nil
	}

	resolved := j.provider.LatestBatch(j.base, targets)
	if len(resolved) == 0 {
		return fmt.Errorf("no rates resolved for %s against %v", j.base, targets)
	}

	j.log.Info().
		Str("base", j.base).
		Int("requested", len(targets)).
		Int("resolved", len(resolved)).
		Msg("Rate cache warmed")
	return nil
}
