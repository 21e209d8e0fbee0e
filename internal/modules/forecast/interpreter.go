package forecast

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ne14k/portfolio-risk-analyzer-sub001/internal/clients/engine"
	"github.com/Ne14k/portfolio-risk-analyzer-sub001/pkg/formulas"
)

// Interpreter validates the engine's raw statistical summary and maps it into
// the canonical model. It fails closed: any shape or invariant violation
// yields ErrMalformedResponse and the caller switches to the fallback path.
type Interpreter struct {
	log zerolog.Logger
}

// NewInterpreter creates a new statistics interpreter.
func NewInterpreter(log zerolog.Logger) *Interpreter {
	return &Interpreter{
		log: log.With().Str("component", "interpreter").Logger(),
	}
}

// Interpret converts an engine response into a canonical ForecastResult.
// RequestID and Insights are left for the orchestrating service to fill in.
func (in *Interpreter) Interpret(resp *engine.ForecastResponse, horizon Horizon) (*ForecastResult, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: nil response", ErrMalformedResponse)
	}
	if resp.Status != "success" {
		return nil, fmt.Errorf("%w: engine status %q", ErrMalformedResponse, resp.Status)
	}

	data := resp.ForecastData
	if data.InitialValue <= 0 {
		return nil, fmt.Errorf("%w: non-positive initial value %f", ErrMalformedResponse, data.InitialValue)
	}

	series := toPercentileSeries(data.PercentileData)
	if err := series.Validate(horizon.Days()+1, data.InitialValue); err != nil {
		return nil, err
	}

	raw := data.Statistics
	if err := validateProbabilities(raw); err != nil {
		return nil, err
	}

	warnings := append([]string{}, resp.Metadata.Warnings...)

	// VaR thresholds should sit at or below the initial value and VaR-99
	// should be the more extreme of the two. Thin historical data can
	// legitimately produce edge cases here, so these are warnings, not
	// rejections.
	if raw.VaR99 > raw.VaR95 {
		in.log.Warn().
			Float64("var_95", raw.VaR95).
			Float64("var_99", raw.VaR99).
			Msg("VaR-99 above VaR-95, tolerating")
		warnings = append(warnings, "VaR-99 exceeds VaR-95; tail estimates may be unreliable")
	}
	if raw.VaR95 > data.InitialValue && raw.ProbabilityPositive < 1.0 {
		in.log.Warn().
			Float64("var_95", raw.VaR95).
			Float64("initial_value", data.InitialValue).
			Msg("VaR-95 above initial value, tolerating")
		warnings = append(warnings, "VaR-95 exceeds the initial portfolio value")
	}

	stats := toRiskStatistics(raw)

	// The annualized return is derived from the expected final value, never
	// from the engine's per-path mean-return field. Mixing the two produces
	// compounding mismatches between path-mean and expectation-based returns.
	totalReturn := stats.MeanFinalValue/data.InitialValue - 1
	stats.AnnualizedReturn = formulas.AnnualizedReturn(totalReturn, horizon.Days())

	generatedAt := parseEngineTime(resp.Metadata.GeneratedAt)

	return &ForecastResult{
		InitialValue: data.InitialValue,
		Horizon:      horizon,
		HorizonDays:  horizon.Days(),
		Simulations:  data.NumSimulations,
		Percentiles:  series,
		Statistics:   stats,
		DataQuality: DataQuality{
			OverallQualityScore: data.DataQuality.OverallQualityScore,
			DataCoverage:        data.DataQuality.DataCoverage,
			AssetsWithData:      data.DataQuality.AssetsWithData,
			TotalAssets:         data.DataQuality.TotalAssets,
			QualityByAsset:      data.DataQuality.QualityByAsset,
		},
		Metadata: ResultMetadata{
			Engine:      resp.Metadata.Engine,
			Version:     resp.Metadata.Version,
			GeneratedAt: generatedAt,
			Warnings:    warnings,
		},
	}, nil
}

func toPercentileSeries(points []engine.PercentilePoint) PercentileSeries {
	n := len(points)
	series := PercentileSeries{
		Dates:        make([]string, n),
		Percentile5:  make([]float64, n),
		Percentile25: make([]float64, n),
		Percentile50: make([]float64, n),
		Percentile75: make([]float64, n),
		Percentile95: make([]float64, n),
	}
	for i, p := range points {
		series.Dates[i] = p.Date
		series.Percentile5[i] = p.Percentile5
		series.Percentile25[i] = p.Percentile25
		series.Percentile50[i] = p.Percentile50
		series.Percentile75[i] = p.Percentile75
		series.Percentile95[i] = p.Percentile95
	}
	return series
}

func validateProbabilities(raw engine.Statistics) error {
	probabilities := map[string]float64{
		"probability_positive":        raw.ProbabilityPositive,
		"probability_loss_5_percent":  raw.ProbabilityLoss5Pct,
		"probability_loss_10_percent": raw.ProbabilityLoss10Pct,
		"probability_gain_10_percent": raw.ProbabilityGain10Pct,
		"probability_gain_20_percent": raw.ProbabilityGain20Pct,
	}
	for name, p := range probabilities {
		if p < 0 || p > 1 {
			return fmt.Errorf("%w: %s %f outside [0,1]", ErrMalformedResponse, name, p)
		}
	}
	return nil
}

func toRiskStatistics(raw engine.Statistics) RiskStatistics {
	return RiskStatistics{
		MeanFinalValue:   raw.MeanFinalValue,
		MedianFinalValue: raw.MedianFinalValue,
		StdFinalValue:    raw.StdFinalValue,

		MeanReturn:   raw.MeanReturn,
		MedianReturn: raw.MedianReturn,
		StdReturn:    raw.StdReturn,
		MinReturn:    raw.MinReturn,
		MaxReturn:    raw.MaxReturn,

		SharpeRatio:  raw.SharpeRatio,
		SortinoRatio: raw.SortinoRatio,
		CalmarRatio:  raw.CalmarRatio,

		VaR95:               raw.VaR95,
		VaR99:               raw.VaR99,
		ExpectedShortfall95: raw.ExpectedShortfall95,
		ExpectedShortfall99: raw.ExpectedShortfall99,

		ProbabilityPositive:  raw.ProbabilityPositive,
		ProbabilityLoss5Pct:  raw.ProbabilityLoss5Pct,
		ProbabilityLoss10Pct: raw.ProbabilityLoss10Pct,
		ProbabilityGain10Pct: raw.ProbabilityGain10Pct,
		ProbabilityGain20Pct: raw.ProbabilityGain20Pct,

		Skewness:          raw.Skewness,
		Kurtosis:          raw.Kurtosis,
		MaximumDrawdown:   raw.MaximumDrawdown,
		DownsideDeviation: raw.DownsideDeviation,
	}
}

// parseEngineTime parses the engine's generated_at timestamp. The engine emits
// ISO-8601 without a zone suffix; unparseable values fall back to now.
func parseEngineTime(raw string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}
