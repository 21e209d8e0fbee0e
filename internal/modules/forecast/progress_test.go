package forecast

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ne14k/portfolio-risk-analyzer-sub001/internal/events"
)

func advanceAll(t *testing.T, tracker *ProgressTracker) {
	t.Helper()
	require.NoError(t, tracker.Advance(PhaseFetchingData, "loading holdings"))
	require.NoError(t, tracker.Advance(PhaseRunningSimulation, "calling engine"))
	require.NoError(t, tracker.Advance(PhaseProcessingResults, "interpreting results"))
	require.NoError(t, tracker.Advance(PhaseComplete, "done"))
}

func TestProgressLifecycle(t *testing.T) {
	tracker := NewProgressTracker(zerolog.Nop(), nil, 0)

	assert.Equal(t, PhaseIdle, tracker.Phase())

	id, err := tracker.Begin()
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, PhasePreparing, tracker.Phase())

	advanceAll(t, tracker)
	assert.Equal(t, PhaseComplete, tracker.Phase())

	state := tracker.State()
	assert.Equal(t, id, state.RequestID)
	assert.Equal(t, "done", state.Message)
}

func TestProgressRejectsInvalidTransitions(t *testing.T) {
	tracker := NewProgressTracker(zerolog.Nop(), nil, 0)

	// Cannot skip ahead or advance out of order.
	require.ErrorIs(t, tracker.Advance(PhaseFetchingData, ""), ErrInvalidTransition)
	require.ErrorIs(t, tracker.Advance(PhaseComplete, ""), ErrInvalidTransition)

	_, err := tracker.Begin()
	require.NoError(t, err)
	require.ErrorIs(t, tracker.Advance(PhaseRunningSimulation, ""), ErrInvalidTransition)
	require.ErrorIs(t, tracker.Advance(PhasePreparing, ""), ErrInvalidTransition)

	// Begin mid-flight is not allowed.
	_, err = tracker.Begin()
	require.ErrorIs(t, err, ErrInvalidTransition)

	// Reset only applies to terminal phases.
	require.ErrorIs(t, tracker.Reset(), ErrInvalidTransition)
}

func TestProgressErrorFromAnyNonTerminal(t *testing.T) {
	stops := []int{0, 1, 2, 3}
	for _, stop := range stops {
		tracker := NewProgressTracker(zerolog.Nop(), nil, 0)
		_, err := tracker.Begin()
		require.NoError(t, err)

		steps := []Phase{PhaseFetchingData, PhaseRunningSimulation, PhaseProcessingResults}
		for i := 0; i < stop && i < len(steps); i++ {
			require.NoError(t, tracker.Advance(steps[i], ""))
		}

		require.NoError(t, tracker.Fail("engine unreachable"))
		assert.Equal(t, PhaseError, tracker.Phase())

		// Terminal: fail again is rejected, reset recovers.
		require.ErrorIs(t, tracker.Fail("again"), ErrInvalidTransition)
		require.NoError(t, tracker.Reset())
		assert.Equal(t, PhaseIdle, tracker.Phase())
	}
}

func TestProgressCompleteAutoReverts(t *testing.T) {
	tracker := NewProgressTracker(zerolog.Nop(), nil, 20*time.Millisecond)
	_, err := tracker.Begin()
	require.NoError(t, err)
	advanceAll(t, tracker)

	assert.Equal(t, PhaseComplete, tracker.Phase())
	assert.Eventually(t, func() bool {
		return tracker.Phase() == PhaseIdle
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, tracker.State().RequestID)
}

func TestProgressRevertDisabled(t *testing.T) {
	tracker := NewProgressTracker(zerolog.Nop(), nil, 0)
	_, err := tracker.Begin()
	require.NoError(t, err)
	advanceAll(t, tracker)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, PhaseComplete, tracker.Phase())

	// A new request implicitly resets the terminal phase.
	_, err = tracker.Begin()
	require.NoError(t, err)
	assert.Equal(t, PhasePreparing, tracker.Phase())
}

func TestProgressEmitsEvents(t *testing.T) {
	bus := events.NewBus()
	var phases []string
	bus.Subscribe(events.ForecastProgress, func(e *events.Event) {
		data := e.Data.(events.ForecastProgressData)
		phases = append(phases, data.Phase)
	})

	tracker := NewProgressTracker(zerolog.Nop(), bus, 0)
	_, err := tracker.Begin()
	require.NoError(t, err)
	advanceAll(t, tracker)

	assert.Equal(t, []string{
		string(PhasePreparing),
		string(PhaseFetchingData),
		string(PhaseRunningSimulation),
		string(PhaseProcessingResults),
		string(PhaseComplete),
	}, phases)
}
