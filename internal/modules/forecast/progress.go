package forecast

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Ne14k/portfolio-risk-analyzer-sub001/internal/events"
)

// Phase is one step of a forecast request's lifecycle.
type Phase string

const (
	PhaseIdle              Phase = "idle"
	PhasePreparing         Phase = "preparing"
	PhaseFetchingData      Phase = "fetching_data"
	PhaseRunningSimulation Phase = "running_simulation"
	PhaseProcessingResults Phase = "processing_results"
	PhaseComplete          Phase = "complete"
	PhaseError             Phase = "error"
)

// DefaultCompleteRevert is how long a tracker lingers in the complete phase
// before reverting to idle. Zero disables the auto-revert.
const DefaultCompleteRevert = 2 * time.Second

// ErrInvalidTransition is returned when a phase change is requested that the
// lifecycle does not allow.
var ErrInvalidTransition = errors.New("invalid progress transition")

// phaseOrder drives forward transitions. Error is reachable from any
// non-terminal phase; complete and error revert to idle.
var phaseOrder = map[Phase]Phase{
	PhaseIdle:              PhasePreparing,
	PhasePreparing:         PhaseFetchingData,
	PhaseFetchingData:      PhaseRunningSimulation,
	PhaseRunningSimulation: PhaseProcessingResults,
	PhaseProcessingResults: PhaseComplete,
}

// ProgressState is a snapshot of the tracker.
type ProgressState struct {
	RequestID string    `json:"request_id,omitempty"`
	Phase     Phase     `json:"phase"`
	Message   string    `json:"message,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProgressTracker models the multi-phase lifecycle of a forecast request. It
// does not schedule any work itself; the orchestrating service drives it and
// observers follow it through the event bus.
type ProgressTracker struct {
	mu          sync.Mutex
	phase       Phase
	requestID   string
	message     string
	updatedAt   time.Time
	revertAfter time.Duration
	revertTimer *time.Timer

	bus *events.Bus
	log zerolog.Logger
}

// NewProgressTracker creates an idle tracker. revertAfter controls the
// complete-to-idle delay; pass 0 to keep complete until the next request.
func NewProgressTracker(log zerolog.Logger, bus *events.Bus, revertAfter time.Duration) *ProgressTracker {
	return &ProgressTracker{
		phase:       PhaseIdle,
		revertAfter: revertAfter,
		bus:         bus,
		log:         log.With().Str("component", "progress").Logger(),
	}
}

// Begin starts tracking a new request and returns its id. Allowed from idle
// and from the terminal phases, which it implicitly resets.
func (t *ProgressTracker) Begin() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.phase {
	case PhaseIdle, PhaseComplete, PhaseError:
	default:
		return "", fmt.Errorf("%w: begin while %s", ErrInvalidTransition, t.phase)
	}

	t.stopRevertLocked()
	t.requestID = uuid.NewString()
	t.setPhaseLocked(PhasePreparing, "preparing forecast request")
	return t.requestID, nil
}

// Advance moves the tracker to the next lifecycle phase. Only the immediate
// successor of the current phase is accepted.
func (t *ProgressTracker) Advance(next Phase, message string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if phaseOrder[t.phase] != next || next == "" {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.phase, next)
	}

	t.setPhaseLocked(next, message)
	if next == PhaseComplete {
		t.scheduleRevertLocked()
	}
	return nil
}

// Fail moves any non-terminal phase to error.
func (t *ProgressTracker) Fail(message string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.phase == PhaseComplete || t.phase == PhaseError {
		return fmt.Errorf("%w: fail while %s", ErrInvalidTransition, t.phase)
	}

	t.setPhaseLocked(PhaseError, message)
	return nil
}

// Reset returns the tracker to idle from a terminal phase.
func (t *ProgressTracker) Reset() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.phase != PhaseComplete && t.phase != PhaseError {
		return fmt.Errorf("%w: reset while %s", ErrInvalidTransition, t.phase)
	}

	t.stopRevertLocked()
	t.requestID = ""
	t.setPhaseLocked(PhaseIdle, "")
	return nil
}

// State returns a snapshot of the tracker.
func (t *ProgressTracker) State() ProgressState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return ProgressState{
		RequestID: t.requestID,
		Phase:     t.phase,
		Message:   t.message,
		UpdatedAt: t.updatedAt,
	}
}

// Phase returns the current phase.
func (t *ProgressTracker) Phase() Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase
}

func (t *ProgressTracker) setPhaseLocked(phase Phase, message string) {
	t.phase = phase
	t.message = message
	t.updatedAt = time.Now().UTC()

	t.log.Debug().
		Str("request_id", t.requestID).
		Str("phase", string(phase)).
		Msg("progress transition")

	if t.bus != nil {
		t.bus.Emit(events.ForecastProgress, "forecast", events.ForecastProgressData{
			RequestID: t.requestID,
			Phase:     string(phase),
			Message:   message,
			Timestamp: t.updatedAt,
		})
	}
}

func (t *ProgressTracker) scheduleRevertLocked() {
	if t.revertAfter <= 0 {
		return
	}
	t.stopRevertLocked()
	t.revertTimer = time.AfterFunc(t.revertAfter, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.phase != PhaseComplete {
			return
		}
		t.requestID = ""
		t.setPhaseLocked(PhaseIdle, "")
	})
}

func (t *ProgressTracker) stopRevertLocked() {
	if t.revertTimer != nil {
		t.revertTimer.Stop()
		t.revertTimer = nil
	}
}
