package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/Ne14k/portfolio-risk-analyzer-sub001/internal/events"
	"github.com/Ne14k/portfolio-risk-analyzer-sub001/internal/modules/forecast"
)

// SnapshotPruneJob deletes persisted forecast snapshots older than the
// configured maximum age.
type SnapshotPruneJob struct {
	repo   *forecast.Repository
	maxAge time.Duration
	bus    *events.Bus
	log    zerolog.Logger
}

// NewSnapshotPruneJob creates the prune job.
func NewSnapshotPruneJob(repo *forecast.Repository, maxAge time.Duration, bus *events.Bus, log zerolog.Logger) *SnapshotPruneJob {
	return &SnapshotPruneJob{
		repo:   repo,
		maxAge: maxAge,
		bus:    bus,
		log:    log.With().Str("job", "snapshot_prune").Logger(),
	}
}

// Name returns the job name.
func (j *SnapshotPruneJob) Name() string { return "snapshot_prune" }

// Run removes expired snapshots and reports how many were deleted.
func (j *SnapshotPruneJob) Run() error {
	removed, err := j.repo.Prune(j.maxAge)
	if err != nil {
		return err
	}
	if removed == 0 {
		return nil
	}

	if j.bus != nil {
		j.bus.Emit(events.SnapshotsPruned, "scheduler", events.MaintenanceData{
			Job:       j.Name(),
			Removed:   removed,
			Timestamp: time.Now().UTC(),
		})
	}
	return nil
}
