package forecast

import (
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/Ne14k/portfolio-risk-analyzer-sub001/internal/modules/holdings"
	"github.com/Ne14k/portfolio-risk-analyzer-sub001/pkg/formulas"
)

// Daily random-walk parameters for the synthetic generator. The exact values
// are not meaningful; only the structural invariants of the output are.
const (
	fallbackDailyDrift = 0.0003
	fallbackDailyVol   = 0.012
)

// FallbackVersion is recorded in the metadata of synthetic results.
const FallbackVersion = "1.0"

// FallbackGenerator produces a synthetic forecast when the engine is
// unreachable or returns a malformed payload. The shape of the output is
// deterministic; the values are driven by the injected random source so tests
// can seed it.
type FallbackGenerator struct {
	log zerolog.Logger
	rng *rand.Rand
	now func() time.Time
}

// NewFallbackGenerator creates a generator backed by the given random source.
// A nil source gets a time-seeded one.
func NewFallbackGenerator(log zerolog.Logger, rng *rand.Rand) *FallbackGenerator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &FallbackGenerator{
		log: log.With().Str("component", "fallback").Logger(),
		rng: rng,
		now: time.Now,
	}
}

// Generate builds a complete synthetic ForecastResult for the portfolio. It
// never fails: every holding gets a daily multiplicative random walk, the
// walks are aggregated into a median path, and the percentile bands are fanned
// out around that path with widths growing as sqrt of elapsed time.
func (g *FallbackGenerator) Generate(list []holdings.Holding, horizon Horizon, simulations int) *ForecastResult {
	days := horizon.Days()
	initial := holdings.TotalValue(list)
	base := g.aggregateWalk(list, days)

	g.log.Warn().
		Float64("initial_value", initial).
		Str("horizon", string(horizon)).
		Int("holdings", len(list)).
		Msg("generating synthetic fallback forecast")

	// Daily volatility scaled to the horizon; the same figure drives both
	// the band widths and the synthetic return distribution.
	vol := fallbackDailyVol * math.Sqrt(float64(days))

	series := g.buildSeries(base, vol, days)
	stats := g.buildStatistics(base, initial, vol, days)

	return &ForecastResult{
		InitialValue: initial,
		Horizon:      horizon,
		HorizonDays:  days,
		Simulations:  ClampSimulations(simulations),
		Percentiles:  series,
		Statistics:   stats,
		DataQuality: DataQuality{
			OverallQualityScore: 0,
			DataCoverage:        0,
			AssetsWithData:      0,
			TotalAssets:         len(list),
		},
		Metadata: ResultMetadata{
			Engine:      EngineFallback,
			Version:     FallbackVersion,
			GeneratedAt: g.now().UTC(),
			Warnings: []string{
				"forecast engine unavailable; this is a synthetic estimate, not a simulation of historical data",
			},
		},
	}
}

// aggregateWalk runs one multiplicative random walk per holding and sums the
// per-day values into a single portfolio path. Index 0 is the current value.
func (g *FallbackGenerator) aggregateWalk(list []holdings.Holding, days int) []float64 {
	base := make([]float64, days+1)
	for _, h := range list {
		value := h.MarketValue
		base[0] += value
		for d := 1; d <= days; d++ {
			value *= 1 + fallbackDailyDrift + fallbackDailyVol*g.rng.NormFloat64()
			if value < 0 {
				value = 0
			}
			base[d] += value
		}
	}
	return base
}

// Percentile band biases, in units of the horizon volatility. These are the
// standard normal quantiles for the five bands; strictly increasing, so the
// band ordering holds by construction, and zero width at day 0 keeps every
// band pinned to the initial value.
var fallbackBiases = [5]float64{-1.645, -0.674, 0, 0.674, 1.645}

func (g *FallbackGenerator) buildSeries(base []float64, vol float64, days int) PercentileSeries {
	n := days + 1
	series := PercentileSeries{
		Dates:        make([]string, n),
		Percentile5:  make([]float64, n),
		Percentile25: make([]float64, n),
		Percentile50: make([]float64, n),
		Percentile75: make([]float64, n),
		Percentile95: make([]float64, n),
	}

	start := g.now().UTC()
	for d := 0; d < n; d++ {
		series.Dates[d] = start.AddDate(0, 0, d).Format("2006-01-02")
		spread := vol * math.Sqrt(float64(d)/float64(days))
		series.Percentile5[d] = base[d] * (1 + fallbackBiases[0]*spread)
		series.Percentile25[d] = base[d] * (1 + fallbackBiases[1]*spread)
		series.Percentile50[d] = base[d]
		series.Percentile75[d] = base[d] * (1 + fallbackBiases[3]*spread)
		series.Percentile95[d] = base[d] * (1 + fallbackBiases[4]*spread)
	}
	return series
}

// buildStatistics synthesizes a RiskStatistics block consistent with the
// generated median path: the expected final value equals the path's final
// value and the probability figures come from a normal return distribution
// with the same mean and volatility as the bands.
func (g *FallbackGenerator) buildStatistics(base []float64, initial, vol float64, days int) RiskStatistics {
	final := base[len(base)-1]

	meanReturn := 0.0
	if initial > 0 {
		meanReturn = final/initial - 1
	}

	dist := distuv.Normal{Mu: meanReturn, Sigma: vol}
	unit := distuv.UnitNormal

	// Value thresholds from the return quantiles. Synthetic means can drift
	// high enough to push the 5% quantile positive; the thresholds are
	// clamped at the initial value so the tail figures stay coherent.
	var95 := initial * (1 + dist.Quantile(0.05))
	var99 := initial * (1 + dist.Quantile(0.01))
	es95 := initial * (1 + meanReturn - vol*unit.Prob(unit.Quantile(0.05))/0.05)
	es99 := initial * (1 + meanReturn - vol*unit.Prob(unit.Quantile(0.01))/0.01)
	if var95 > initial {
		var95 = initial
	}
	if var99 > var95 {
		var99 = var95
	}
	if es95 > var95 {
		es95 = var95
	}
	if es99 > var99 {
		es99 = var99
	}

	maxDrawdown := formulas.MaxDrawdown(base)

	annualized := formulas.AnnualizedReturn(meanReturn, days)
	annualVol := fallbackDailyVol * math.Sqrt(365)
	sharpe := annualized / annualVol
	calmar := 0.0
	if maxDrawdown < 0 {
		calmar = annualized / -maxDrawdown
	}

	return RiskStatistics{
		MeanFinalValue:   final,
		MedianFinalValue: final,
		StdFinalValue:    initial * vol,

		MeanReturn:       meanReturn,
		MedianReturn:     meanReturn,
		StdReturn:        vol,
		MinReturn:        meanReturn - 3*vol,
		MaxReturn:        meanReturn + 3*vol,
		AnnualizedReturn: annualized,

		SharpeRatio:  sharpe,
		SortinoRatio: sharpe * 1.3,
		CalmarRatio:  calmar,

		VaR95:               var95,
		VaR99:               var99,
		ExpectedShortfall95: es95,
		ExpectedShortfall99: es99,

		ProbabilityPositive:  1 - dist.CDF(0),
		ProbabilityLoss5Pct:  dist.CDF(-0.05),
		ProbabilityLoss10Pct: dist.CDF(-0.10),
		ProbabilityGain10Pct: 1 - dist.CDF(0.10),
		ProbabilityGain20Pct: 1 - dist.CDF(0.20),

		Skewness:          0.1 + 0.05*g.rng.NormFloat64(),
		Kurtosis:          0.5 + 0.1*g.rng.NormFloat64(),
		MaximumDrawdown:   maxDrawdown,
		DownsideDeviation: vol * 0.6,
	}
}
