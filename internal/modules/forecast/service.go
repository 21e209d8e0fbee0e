package forecast

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Ne14k/portfolio-risk-analyzer-sub001/internal/clients/engine"
	"github.com/Ne14k/portfolio-risk-analyzer-sub001/internal/events"
	"github.com/Ne14k/portfolio-risk-analyzer-sub001/internal/modules/holdings"
)

// EngineCaller issues the simulation request to the external engine. The HTTP
// client satisfies this; tests substitute a mock.
type EngineCaller interface {
	GenerateForecast(ctx context.Context, req engine.ForecastRequest) (*engine.ForecastResponse, error)
}

// InsightDeriver maps risk statistics to qualitative insight strings.
type InsightDeriver interface {
	Derive(stats RiskStatistics, initialValue float64) []string
}

// Service orchestrates a forecast request: normalize holdings, consult the
// cache, call the engine, interpret or fall back, derive insights, then cache
// and persist the result. Once a request passes normalization it always
// produces a result; engine trouble degrades to the synthetic generator
// instead of surfacing an error.
type Service struct {
	caller      EngineCaller
	interpreter *Interpreter
	fallback    *FallbackGenerator
	insights    InsightDeriver
	cache       *Cache
	repo        *Repository
	tracker     *ProgressTracker
	bus         *events.Bus
	log         zerolog.Logger
}

// NewService wires the forecast pipeline. repo and bus may be nil; caching,
// progress tracking and the engine pipeline still function without them.
func NewService(
	caller EngineCaller,
	interpreter *Interpreter,
	fallback *FallbackGenerator,
	insights InsightDeriver,
	cache *Cache,
	repo *Repository,
	tracker *ProgressTracker,
	bus *events.Bus,
	log zerolog.Logger,
) *Service {
	return &Service{
		caller:      caller,
		interpreter: interpreter,
		fallback:    fallback,
		insights:    insights,
		cache:       cache,
		repo:        repo,
		tracker:     tracker,
		bus:         bus,
		log:         log.With().Str("service", "forecast").Logger(),
	}
}

// GenerateForecast runs the full pipeline for a portfolio. The only errors it
// returns are ErrEmptyPortfolio and ErrInvalidHorizon; everything downstream
// of an accepted request resolves to a result, possibly a degraded synthetic
// one flagged in its metadata.
func (s *Service) GenerateForecast(ctx context.Context, list []holdings.Holding, horizon Horizon, simulations int) (*ForecastResult, error) {
	if !horizon.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHorizon, horizon)
	}

	normalized, err := holdings.Normalize(list)
	if err != nil {
		s.emitFailed(err)
		return nil, err
	}
	simulations = ClampSimulations(simulations)

	key := Key(normalized, horizon, simulations)
	if cached, ok := s.cache.Get(key); ok {
		s.log.Debug().Str("key", key).Msg("cache hit")
		s.emitCompleted(cached, true)
		return cached, nil
	}

	requestID, err := s.tracker.Begin()
	if err != nil {
		// A concurrent request holds the tracker; proceed untracked rather
		// than reject, at the cost of duplicate upstream calls.
		s.log.Warn().Err(err).Msg("progress tracker busy, running untracked")
		requestID = ""
	}

	result := s.run(ctx, requestID, normalized, horizon, simulations)
	result.RequestID = requestID
	result.Insights = s.insights.Derive(result.Statistics, result.InitialValue)

	s.cache.Put(key, result)
	if s.repo != nil {
		if err := s.repo.Save(result, key); err != nil {
			s.log.Error().Err(err).Msg("failed to persist forecast snapshot")
		}
	}

	if requestID != "" {
		s.advance(PhaseComplete, "forecast complete")
	}
	s.emitCompleted(result, false)
	return result, nil
}

// run executes the engine call and interpretation, falling back to the
// synthetic generator on any failure.
func (s *Service) run(ctx context.Context, requestID string, normalized []holdings.Holding, horizon Horizon, simulations int) *ForecastResult {
	tracked := requestID != ""
	if tracked {
		s.advance(PhaseFetchingData, "preparing holdings payload")
	}

	req := engine.ForecastRequest{
		Holdings:       toPayload(normalized),
		TimeHorizon:    string(horizon),
		NumSimulations: simulations,
	}

	if tracked {
		s.advance(PhaseRunningSimulation, "running simulation")
	}

	resp, err := s.caller.GenerateForecast(ctx, req)
	if err != nil {
		s.log.Warn().Err(err).Msg("engine call failed, using fallback")
		if tracked {
			s.advance(PhaseProcessingResults, "engine unavailable, generating synthetic forecast")
		}
		return s.fallback.Generate(normalized, horizon, simulations)
	}

	if tracked {
		s.advance(PhaseProcessingResults, "interpreting results")
	}

	result, err := s.interpreter.Interpret(resp, horizon)
	if err != nil {
		s.log.Warn().Err(err).Msg("engine response rejected, using fallback")
		return s.fallback.Generate(normalized, horizon, simulations)
	}
	return result
}

func (s *Service) advance(phase Phase, message string) {
	if err := s.tracker.Advance(phase, message); err != nil {
		s.log.Warn().Err(err).Str("phase", string(phase)).Msg("progress transition rejected")
	}
}

func (s *Service) emitCompleted(result *ForecastResult, cacheHit bool) {
	if s.bus == nil {
		return
	}
	s.bus.Emit(events.ForecastCompleted, "forecast", events.ForecastCompletedData{
		RequestID:    result.RequestID,
		Engine:       result.Metadata.Engine,
		InitialValue: result.InitialValue,
		CacheHit:     cacheHit,
		Warnings:     len(result.Metadata.Warnings),
		Timestamp:    result.Metadata.GeneratedAt,
	})
}

func (s *Service) emitFailed(err error) {
	if s.tracker != nil && s.tracker.Phase() != PhaseIdle {
		if ferr := s.tracker.Fail(err.Error()); ferr != nil {
			s.log.Debug().Err(ferr).Msg("tracker fail rejected")
		}
	}
	if s.bus != nil {
		s.bus.Emit(events.ForecastFailed, "forecast", map[string]string{"error": err.Error()})
	}
}

// History lists persisted snapshots.
func (s *Service) History(limit int) ([]SnapshotSummary, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.List(limit)
}

// Snapshot loads one persisted result by request id.
func (s *Service) Snapshot(requestID string) (*ForecastResult, error) {
	if s.repo == nil {
		return nil, ErrSnapshotNotFound
	}
	return s.repo.Get(requestID)
}

// Progress reports the coordinator's current state.
func (s *Service) Progress() ProgressState {
	return s.tracker.State()
}

func toPayload(list []holdings.Holding) []engine.HoldingPayload {
	payload := make([]engine.HoldingPayload, len(list))
	for i, h := range list {
		payload[i] = engine.HoldingPayload{
			Ticker:       h.Ticker,
			Name:         h.Name,
			Quantity:     h.Quantity,
			CurrentPrice: h.CurrentPrice,
			MarketValue:  h.MarketValue,
		}
	}
	return payload
}
