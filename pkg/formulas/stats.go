// Package formulas provides shared statistical calculations used by the
// forecast fallback generator and internal consistency checks.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Variance calculates the variance of a slice of float64 values
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}

// Skewness calculates the sample skewness (third standardized moment)
func Skewness(data []float64) float64 {
	if len(data) < 3 {
		return 0
	}
	return stat.Skew(data, nil)
}

// ExcessKurtosis calculates the excess kurtosis (fourth standardized moment - 3)
func ExcessKurtosis(data []float64) float64 {
	if len(data) < 4 {
		return 0
	}
	return stat.ExKurtosis(data, nil)
}

// CalculateReturns converts a price/value series to simple periodic returns
// Returns[i] = (Value[i] - Value[i-1]) / Value[i-1]
func CalculateReturns(values []float64) []float64 {
	if len(values) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] != 0 {
			returns[i-1] = (values[i] - values[i-1]) / values[i-1]
		}
	}

	return returns
}

// AnnualizedReturn compounds a total return over horizonDays calendar days
// to an annual rate.
//
// Formula: (1 + totalReturn)^(365/horizonDays) - 1
func AnnualizedReturn(totalReturn float64, horizonDays int) float64 {
	if horizonDays <= 0 {
		return 0
	}
	if totalReturn <= -1 {
		return -1
	}
	return math.Pow(1+totalReturn, 365.0/float64(horizonDays)) - 1
}

// DownsideDeviation calculates the standard deviation of returns below zero.
// Returns 0 when no observations fall below zero.
func DownsideDeviation(returns []float64) float64 {
	downside := make([]float64, 0, len(returns))
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) < 2 {
		return 0
	}
	// Population-style deviation around zero, matching the engine's convention
	var sumSq float64
	for _, r := range downside {
		sumSq += r * r
	}
	return math.Sqrt(sumSq / float64(len(downside)))
}
