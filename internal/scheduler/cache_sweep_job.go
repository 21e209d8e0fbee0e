package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/Ne14k/portfolio-risk-analyzer-sub001/internal/events"
	"github.com/Ne14k/portfolio-risk-analyzer-sub001/internal/modules/forecast"
)

// CacheSweepJob evicts expired forecast cache entries.
type CacheSweepJob struct {
	cache *forecast.Cache
	bus   *events.Bus
	log   zerolog.Logger
}

// NewCacheSweepJob creates the sweep job.
func NewCacheSweepJob(cache *forecast.Cache, bus *events.Bus, log zerolog.Logger) *CacheSweepJob {
	return &CacheSweepJob{
		cache: cache,
		bus:   bus,
		log:   log.With().Str("job", "cache_sweep").Logger(),
	}
}

// Name returns the job name.
func (j *CacheSweepJob) Name() string { return "cache_sweep" }

// Run sweeps the cache and reports how many entries were evicted.
func (j *CacheSweepJob) Run() error {
	removed := j.cache.Sweep()
	if removed == 0 {
		return nil
	}

	j.log.Debug().Int("removed", removed).Msg("cache sweep complete")
	if j.bus != nil {
		j.bus.Emit(events.CacheSwept, "scheduler", events.MaintenanceData{
			Job:       j.Name(),
			Removed:   removed,
			Timestamp: time.Now().UTC(),
		})
	}
	return nil
}
