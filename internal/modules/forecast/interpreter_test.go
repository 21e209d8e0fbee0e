package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ne14k/portfolio-risk-analyzer-sub001/internal/clients/engine"
)

func validEngineResponse(t *testing.T, horizon Horizon, initial float64) *engine.ForecastResponse {
	t.Helper()

	days := horizon.Days()
	points := make([]engine.PercentilePoint, days+1)
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	for d := 0; d <= days; d++ {
		spread := initial * 0.002 * float64(d)
		drift := initial * 0.0005 * float64(d)
		points[d] = engine.PercentilePoint{
			Date:         start.AddDate(0, 0, d).Format("2006-01-02"),
			Day:          d,
			Percentile5:  initial + drift - 2*spread,
			Percentile25: initial + drift - spread,
			Percentile50: initial + drift,
			Percentile75: initial + drift + spread,
			Percentile95: initial + drift + 2*spread,
		}
	}

	return &engine.ForecastResponse{
		Status: "success",
		ForecastData: engine.ForecastData{
			InitialValue:    initial,
			TimeHorizon:     string(horizon),
			TimeHorizonDays: days,
			NumSimulations:  5000,
			PercentileData:  points,
			Statistics: engine.Statistics{
				MeanFinalValue:       initial * 1.05,
				MedianFinalValue:     initial * 1.045,
				StdFinalValue:        initial * 0.12,
				MeanReturn:           0.05,
				MedianReturn:         0.045,
				StdReturn:            0.12,
				MinReturn:            -0.3,
				MaxReturn:            0.6,
				SharpeRatio:          0.9,
				SortinoRatio:         1.2,
				CalmarRatio:          0.4,
				VaR95:                initial * 0.85,
				VaR99:                initial * 0.78,
				ExpectedShortfall95:  initial * 0.80,
				ExpectedShortfall99:  initial * 0.72,
				ProbabilityPositive:  0.68,
				ProbabilityLoss5Pct:  0.18,
				ProbabilityLoss10Pct: 0.09,
				ProbabilityGain10Pct: 0.35,
				ProbabilityGain20Pct: 0.12,
				Skewness:             0.1,
				Kurtosis:             0.4,
				MaximumDrawdown:      -0.18,
				DownsideDeviation:    0.08,
			},
			DataQuality: engine.DataQuality{
				OverallQualityScore: 0.92,
				DataCoverage:        0.97,
				AssetsWithData:      3,
				TotalAssets:         3,
			},
		},
		Metadata: engine.Metadata{
			Engine:      "professional_monte_carlo",
			Version:     "2.0",
			GeneratedAt: "2026-09-01T12:00:00",
		},
	}
}

func TestInterpretMapsEngineResponse(t *testing.T) {
	in := NewInterpreter(zerolog.Nop())
	resp := validEngineResponse(t, Horizon3Months, 10000)

	result, err := in.Interpret(resp, Horizon3Months)
	require.NoError(t, err)

	assert.Equal(t, 10000.0, result.InitialValue)
	assert.Equal(t, Horizon3Months, result.Horizon)
	assert.Equal(t, 90, result.HorizonDays)
	assert.Equal(t, 5000, result.Simulations)
	assert.Equal(t, 91, result.Percentiles.Len())
	assert.Equal(t, "professional_monte_carlo", result.Metadata.Engine)
	assert.Equal(t, 2026, result.Metadata.GeneratedAt.Year())

	assert.Equal(t, 10500.0, result.Statistics.MeanFinalValue)
	assert.Equal(t, 0.68, result.Statistics.ProbabilityPositive)
	assert.Equal(t, 0.92, result.DataQuality.OverallQualityScore)
	assert.Empty(t, result.Metadata.Warnings)
}

func TestInterpretAnnualizedReturn(t *testing.T) {
	in := NewInterpreter(zerolog.Nop())
	resp := validEngineResponse(t, Horizon3Months, 10000)

	result, err := in.Interpret(resp, Horizon3Months)
	require.NoError(t, err)

	// 5% over 90 days compounded to a year.
	want := math.Pow(1.05, 365.0/90.0) - 1
	assert.InDelta(t, want, result.Statistics.AnnualizedReturn, 1e-9)
}

func TestInterpretRejectsMalformed(t *testing.T) {
	in := NewInterpreter(zerolog.Nop())

	cases := map[string]func(*engine.ForecastResponse){
		"error status": func(r *engine.ForecastResponse) {
			r.Status = "error"
		},
		"non-positive initial value": func(r *engine.ForecastResponse) {
			r.ForecastData.InitialValue = 0
		},
		"empty percentile data": func(r *engine.ForecastResponse) {
			r.ForecastData.PercentileData = nil
		},
		"wrong series length": func(r *engine.ForecastResponse) {
			r.ForecastData.PercentileData = r.ForecastData.PercentileData[:30]
		},
		"ordering violation": func(r *engine.ForecastResponse) {
			r.ForecastData.PercentileData[45].Percentile5 = r.ForecastData.PercentileData[45].Percentile95 + 1
		},
		"day-0 mismatch": func(r *engine.ForecastResponse) {
			r.ForecastData.PercentileData[0].Percentile50 += 5
			r.ForecastData.PercentileData[0].Percentile75 += 5
			r.ForecastData.PercentileData[0].Percentile95 += 5
		},
		"probability above one": func(r *engine.ForecastResponse) {
			r.ForecastData.Statistics.ProbabilityGain10Pct = 1.3
		},
		"negative probability": func(r *engine.ForecastResponse) {
			r.ForecastData.Statistics.ProbabilityLoss5Pct = -0.01
		},
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			resp := validEngineResponse(t, Horizon3Months, 10000)
			mutate(resp)

			_, err := in.Interpret(resp, Horizon3Months)
			require.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestInterpretNilResponse(t *testing.T) {
	in := NewInterpreter(zerolog.Nop())
	_, err := in.Interpret(nil, Horizon1Month)
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestInterpretVaRAnomalyWarnsOnly(t *testing.T) {
	in := NewInterpreter(zerolog.Nop())
	resp := validEngineResponse(t, Horizon1Month, 10000)
	resp.ForecastData.Statistics.VaR99 = resp.ForecastData.Statistics.VaR95 + 100

	result, err := in.Interpret(resp, Horizon1Month)
	require.NoError(t, err)
	require.Len(t, result.Metadata.Warnings, 1)
	assert.Contains(t, result.Metadata.Warnings[0], "VaR-99")
}

func TestInterpretKeepsEngineWarnings(t *testing.T) {
	in := NewInterpreter(zerolog.Nop())
	resp := validEngineResponse(t, Horizon1Month, 10000)
	resp.Metadata.Warnings = []string{"2 assets had less than 1 year of history"}

	result, err := in.Interpret(resp, Horizon1Month)
	require.NoError(t, err)
	assert.Equal(t, []string{"2 assets had less than 1 year of history"}, result.Metadata.Warnings)
}
