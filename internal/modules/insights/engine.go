// Package insights derives qualitative, human-readable observations from the
// scalar risk statistics of a forecast. Derivation is a pure function of the
// statistics: insights are recomputed on every result and never stored on
// their own.
package insights

import (
	"fmt"

	"github.com/Ne14k/portfolio-risk-analyzer-sub001/internal/modules/forecast"
)

// MaxInsights caps the derived list. Rules are evaluated in a fixed priority
// order, so the cap drops the lowest-priority observations first.
const MaxInsights = 8

// Rule thresholds. Volatility refers to the standard deviation of total
// return over the horizon; mean return is a decimal.
const (
	highGainProbability = 0.70
	lowGainProbability  = 0.40
	loss10Threshold     = 0.20
	gain20Threshold     = 0.25
	highVolatility      = 0.30
	lowVolatility       = 0.10
	goodSharpe          = 1.0
	poorSharpe          = 0.5
	goodMeanReturnPct   = 5.0
	badMeanReturnPct    = -2.0
	tailLossPctLimit    = 10.0
	skewThreshold       = 0.5
)

// Engine derives insight strings from risk statistics.
type Engine struct{}

// NewEngine creates an insight engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Derive maps the statistics to an ordered list of insight strings. It is
// deterministic, never fails, and may return an empty list when no threshold
// is crossed.
func (e *Engine) Derive(stats forecast.RiskStatistics, initialValue float64) []string {
	out := make([]string, 0, MaxInsights)

	add := func(s string) {
		if len(out) < MaxInsights {
			out = append(out, s)
		}
	}

	if stats.ProbabilityPositive > highGainProbability {
		add(fmt.Sprintf("High probability of positive returns: %.1f%% chance of gains",
			stats.ProbabilityPositive*100))
	} else if stats.ProbabilityPositive < lowGainProbability {
		add(fmt.Sprintf("Elevated risk of losses: only %.1f%% chance of positive returns",
			stats.ProbabilityPositive*100))
	}

	if stats.ProbabilityLoss10Pct > loss10Threshold {
		add(fmt.Sprintf("Significant downside risk: %.1f%% chance of losing more than 10%%",
			stats.ProbabilityLoss10Pct*100))
	}

	if stats.ProbabilityGain20Pct > gain20Threshold {
		add(fmt.Sprintf("Strong upside potential: %.1f%% chance of gaining more than 20%%",
			stats.ProbabilityGain20Pct*100))
	}

	if stats.StdReturn > highVolatility {
		add("High volatility expected: outcomes may vary widely around the average")
	} else if stats.StdReturn < lowVolatility {
		add("Low volatility expected: outcomes should stay close to the average")
	}

	if stats.SharpeRatio > goodSharpe {
		add(fmt.Sprintf("Excellent risk-adjusted returns with a Sharpe ratio of %.2f",
			stats.SharpeRatio))
	} else if stats.SharpeRatio < poorSharpe {
		add(fmt.Sprintf("Poor risk-adjusted returns with a Sharpe ratio of %.2f",
			stats.SharpeRatio))
	}

	meanReturnPct := stats.MeanReturn * 100
	if meanReturnPct > goodMeanReturnPct {
		add(fmt.Sprintf("Positive expected outcome: average return of %.1f%% over the forecast period",
			meanReturnPct))
	} else if meanReturnPct < badMeanReturnPct {
		add(fmt.Sprintf("Negative expected outcome: average return of %.1f%% over the forecast period",
			meanReturnPct))
	}

	if initialValue > 0 {
		tailLossPct := (initialValue - stats.VaR95) / initialValue * 100
		if tailLossPct > tailLossPctLimit {
			add(fmt.Sprintf("High tail risk: worst-case scenarios could lose more than %.1f%% of portfolio value",
				tailLossPct))
		}
	}

	if stats.Skewness > skewThreshold {
		add("Return distribution favors upside surprises (positive skew)")
	} else if stats.Skewness < -skewThreshold {
		add("Return distribution is prone to downside surprises (negative skew)")
	}

	return out
}
