// Package forecast implements the portfolio forecast interpretation layer:
// request construction, response validation, caching, fallback generation and
// orchestration of the professional forecast engine.
package forecast

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Horizon is the forecast duration. Each horizon maps to a fixed calendar day
// count; the percentile series covers day 0 through that day count inclusive.
type Horizon string

const (
	Horizon1Month  Horizon = "1_month"
	Horizon3Months Horizon = "3_months"
	Horizon1Year   Horizon = "1_year"
)

// Days returns the calendar day count for the horizon (0 for invalid values).
func (h Horizon) Days() int {
	switch h {
	case Horizon1Month:
		return 30
	case Horizon3Months:
		return 90
	case Horizon1Year:
		return 365
	}
	return 0
}

// Valid reports whether the horizon is one of the supported values.
func (h Horizon) Valid() bool {
	return h.Days() > 0
}

// Simulation count bounds. Interactive callers default to 5000 paths; batch
// callers may request up to 10000.
const (
	MinSimulations     = 1000
	DefaultSimulations = 5000
	MaxSimulations     = 10000
)

// ClampSimulations normalizes a requested simulation count into the supported
// range, applying the default when unset.
func ClampSimulations(n int) int {
	if n == 0 {
		return DefaultSimulations
	}
	if n < MinSimulations {
		return MinSimulations
	}
	if n > MaxSimulations {
		return MaxSimulations
	}
	return n
}

// ErrMalformedResponse indicates the engine's payload violated the statistical
// contract (ordering, lengths, probability ranges). It is never retried; the
// caller falls back to the synthetic generator.
var ErrMalformedResponse = errors.New("malformed engine response")

// ErrInvalidHorizon is returned for a time horizon outside the supported set.
var ErrInvalidHorizon = errors.New("invalid time horizon")

// Engine identifiers recorded in result metadata.
const (
	EngineProfessional = "professional_monte_carlo"
	EngineFallback     = "fallback_mock"
)

// PercentileSeries holds five parallel daily series of portfolio value, one
// per percentile band. All slices have equal length (horizon days + 1) and at
// every index p5 <= p25 <= p50 <= p75 <= p95.
type PercentileSeries struct {
	Dates        []string  `json:"dates" msgpack:"dates"`
	Percentile5  []float64 `json:"percentile_5" msgpack:"p5"`
	Percentile25 []float64 `json:"percentile_25" msgpack:"p25"`
	Percentile50 []float64 `json:"percentile_50" msgpack:"p50"`
	Percentile75 []float64 `json:"percentile_75" msgpack:"p75"`
	Percentile95 []float64 `json:"percentile_95" msgpack:"p95"`
}

// Len returns the number of day entries in the series.
func (s *PercentileSeries) Len() int {
	return len(s.Percentile50)
}

// Validate enforces the structural invariants of the series: equal band
// lengths, expected length, ascending percentile ordering at every index and
// day-0 bands equal to the initial portfolio value.
func (s *PercentileSeries) Validate(expectedLen int, initialValue float64) error {
	n := s.Len()
	if n == 0 {
		return fmt.Errorf("%w: empty percentile series", ErrMalformedResponse)
	}
	if expectedLen > 0 && n != expectedLen {
		return fmt.Errorf("%w: percentile series has %d entries, want %d", ErrMalformedResponse, n, expectedLen)
	}
	if len(s.Percentile5) != n || len(s.Percentile25) != n ||
		len(s.Percentile75) != n || len(s.Percentile95) != n {
		return fmt.Errorf("%w: percentile bands have unequal lengths", ErrMalformedResponse)
	}

	for i := 0; i < n; i++ {
		if s.Percentile5[i] > s.Percentile25[i] ||
			s.Percentile25[i] > s.Percentile50[i] ||
			s.Percentile50[i] > s.Percentile75[i] ||
			s.Percentile75[i] > s.Percentile95[i] {
			return fmt.Errorf("%w: percentile ordering violated at day %d", ErrMalformedResponse, i)
		}
	}

	if initialValue > 0 {
		for _, band := range [][]float64{
			s.Percentile5, s.Percentile25, s.Percentile50, s.Percentile75, s.Percentile95,
		} {
			if relativeDiff(band[0], initialValue) > 1e-6 {
				return fmt.Errorf("%w: day-0 value %f does not match initial value %f",
					ErrMalformedResponse, band[0], initialValue)
			}
		}
	}

	return nil
}

func relativeDiff(a, b float64) float64 {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	if b == 0 {
		return diff
	}
	if b < 0 {
		return diff / -b
	}
	return diff / b
}

// RiskStatistics is the canonical scalar summary of the simulated outcome
// distribution. Returns are decimals; VaR and expected shortfall are value
// thresholds (the expected shortfall is always <= the matching VaR).
type RiskStatistics struct {
	MeanFinalValue   float64 `json:"mean_final_value" msgpack:"mfv"`
	MedianFinalValue float64 `json:"median_final_value" msgpack:"mdfv"`
	StdFinalValue    float64 `json:"std_final_value" msgpack:"sfv"`

	MeanReturn       float64 `json:"mean_return" msgpack:"mr"`
	MedianReturn     float64 `json:"median_return" msgpack:"mdr"`
	StdReturn        float64 `json:"std_return" msgpack:"sr"`
	MinReturn        float64 `json:"min_return" msgpack:"minr"`
	MaxReturn        float64 `json:"max_return" msgpack:"maxr"`
	AnnualizedReturn float64 `json:"annualized_return" msgpack:"ar"`

	SharpeRatio  float64 `json:"sharpe_ratio" msgpack:"sharpe"`
	SortinoRatio float64 `json:"sortino_ratio" msgpack:"sortino"`
	CalmarRatio  float64 `json:"calmar_ratio" msgpack:"calmar"`

	VaR95               float64 `json:"value_at_risk_95" msgpack:"var95"`
	VaR99               float64 `json:"value_at_risk_99" msgpack:"var99"`
	ExpectedShortfall95 float64 `json:"expected_shortfall_95" msgpack:"es95"`
	ExpectedShortfall99 float64 `json:"expected_shortfall_99" msgpack:"es99"`

	ProbabilityPositive  float64 `json:"probability_positive" msgpack:"pp"`
	ProbabilityLoss5Pct  float64 `json:"probability_loss_5_percent" msgpack:"pl5"`
	ProbabilityLoss10Pct float64 `json:"probability_loss_10_percent" msgpack:"pl10"`
	ProbabilityGain10Pct float64 `json:"probability_gain_10_percent" msgpack:"pg10"`
	ProbabilityGain20Pct float64 `json:"probability_gain_20_percent" msgpack:"pg20"`

	Skewness          float64 `json:"skewness" msgpack:"skew"`
	Kurtosis          float64 `json:"kurtosis" msgpack:"kurt"`
	MaximumDrawdown   float64 `json:"maximum_drawdown" msgpack:"mdd"`
	DownsideDeviation float64 `json:"downside_deviation" msgpack:"ddev"`
}

// DataQuality describes how much usable historical data backed the forecast.
// QualityByAsset is opaque per-asset detail passed through from the engine.
type DataQuality struct {
	OverallQualityScore float64                    `json:"overall_quality_score" msgpack:"score"`
	DataCoverage        float64                    `json:"data_coverage" msgpack:"coverage"`
	AssetsWithData      int                        `json:"assets_with_data" msgpack:"with_data"`
	TotalAssets         int                        `json:"total_assets" msgpack:"total"`
	QualityByAsset      map[string]json.RawMessage `json:"quality_by_asset,omitempty" msgpack:"by_asset,omitempty"`
}

// ResultMetadata identifies the engine run behind a result and carries any
// degradation warnings (fallback use, thin data, tolerated VaR anomalies).
type ResultMetadata struct {
	Engine      string    `json:"engine" msgpack:"engine"`
	Version     string    `json:"version" msgpack:"version"`
	GeneratedAt time.Time `json:"generated_at" msgpack:"generated_at"`
	Warnings    []string  `json:"warnings" msgpack:"warnings"`
}

// ForecastResult is the canonical, self-contained output of a forecast
// request. It is created once per completed request and never mutated; the
// cache and the snapshot store hold it verbatim.
type ForecastResult struct {
	RequestID    string           `json:"request_id" msgpack:"request_id"`
	InitialValue float64          `json:"initial_value" msgpack:"initial_value"`
	Horizon      Horizon          `json:"time_horizon" msgpack:"horizon"`
	HorizonDays  int              `json:"time_horizon_days" msgpack:"horizon_days"`
	Simulations  int              `json:"num_simulations" msgpack:"simulations"`
	Percentiles  PercentileSeries `json:"percentiles" msgpack:"percentiles"`
	Statistics   RiskStatistics   `json:"statistics" msgpack:"statistics"`
	DataQuality  DataQuality      `json:"data_quality" msgpack:"data_quality"`
	Insights     []string         `json:"insights" msgpack:"insights"`
	Metadata     ResultMetadata   `json:"metadata" msgpack:"metadata"`
}
