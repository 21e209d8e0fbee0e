// Package export renders completed forecast results as JSON, CSV or a plain
// text report. It is a pure formatting layer; results are self-contained, so
// no other module is consulted.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Ne14k/portfolio-risk-analyzer-sub001/internal/modules/forecast"
)

// Format selects an output rendering.
type Format string

const (
	FormatJSON   Format = "json"
	FormatCSV    Format = "csv"
	FormatReport Format = "report"
)

// Valid reports whether the format is supported.
func (f Format) Valid() bool {
	switch f {
	case FormatJSON, FormatCSV, FormatReport:
		return true
	}
	return false
}

// ContentType returns the HTTP content type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatReport:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Render serializes the result in the requested format.
func Render(f Format, result *forecast.ForecastResult) ([]byte, error) {
	switch f {
	case FormatJSON:
		return JSON(result)
	case FormatCSV:
		return CSV(result)
	case FormatReport:
		return Report(result), nil
	}
	return nil, fmt.Errorf("unsupported export format %q", f)
}

// JSON renders the full result as indented JSON.
func JSON(result *forecast.ForecastResult) ([]byte, error) {
	return json.MarshalIndent(result, "", "  ")
}

// CSV renders the percentile series as one row per day.
func CSV(result *forecast.ForecastResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{
		"date", "day", "percentile_5", "percentile_25", "percentile_50", "percentile_75", "percentile_95",
	}); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}

	p := result.Percentiles
	for d := 0; d < p.Len(); d++ {
		row := []string{
			p.Dates[d],
			strconv.Itoa(d),
			formatValue(p.Percentile5[d]),
			formatValue(p.Percentile25[d]),
			formatValue(p.Percentile50[d]),
			formatValue(p.Percentile75[d]),
			formatValue(p.Percentile95[d]),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Report renders a human-readable text summary of the result.
func Report(result *forecast.ForecastResult) []byte {
	var buf bytes.Buffer
	stats := result.Statistics

	fmt.Fprintf(&buf, "Portfolio Forecast Report\n")
	fmt.Fprintf(&buf, "=========================\n\n")
	fmt.Fprintf(&buf, "Generated:        %s\n", result.Metadata.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&buf, "Engine:           %s (v%s)\n", result.Metadata.Engine, result.Metadata.Version)
	fmt.Fprintf(&buf, "Request:          %s\n", result.RequestID)
	fmt.Fprintf(&buf, "Horizon:          %s (%d days)\n", result.Horizon, result.HorizonDays)
	fmt.Fprintf(&buf, "Simulations:      %d\n", result.Simulations)
	fmt.Fprintf(&buf, "Initial value:    %.2f\n\n", result.InitialValue)

	fmt.Fprintf(&buf, "Projected Outcomes\n")
	fmt.Fprintf(&buf, "------------------\n")
	fmt.Fprintf(&buf, "Expected final value:  %.2f\n", stats.MeanFinalValue)
	fmt.Fprintf(&buf, "Median final value:    %.2f\n", stats.MedianFinalValue)
	fmt.Fprintf(&buf, "Expected return:       %.2f%%\n", stats.MeanReturn*100)
	fmt.Fprintf(&buf, "Annualized return:     %.2f%%\n", stats.AnnualizedReturn*100)
	fmt.Fprintf(&buf, "Return volatility:     %.2f%%\n", stats.StdReturn*100)
	fmt.Fprintf(&buf, "Chance of gains:       %.1f%%\n\n", stats.ProbabilityPositive*100)

	fmt.Fprintf(&buf, "Risk Measures\n")
	fmt.Fprintf(&buf, "-------------\n")
	fmt.Fprintf(&buf, "Value at risk (95%%):   %.2f\n", stats.VaR95)
	fmt.Fprintf(&buf, "Value at risk (99%%):   %.2f\n", stats.VaR99)
	fmt.Fprintf(&buf, "Expected shortfall:    %.2f\n", stats.ExpectedShortfall95)
	fmt.Fprintf(&buf, "Sharpe ratio:          %.2f\n", stats.SharpeRatio)
	fmt.Fprintf(&buf, "Sortino ratio:         %.2f\n", stats.SortinoRatio)
	fmt.Fprintf(&buf, "Maximum drawdown:      %.2f%%\n", stats.MaximumDrawdown*100)

	if len(result.Insights) > 0 {
		fmt.Fprintf(&buf, "\nInsights\n")
		fmt.Fprintf(&buf, "--------\n")
		for _, insight := range result.Insights {
			fmt.Fprintf(&buf, "- %s\n", insight)
		}
	}

	if len(result.Metadata.Warnings) > 0 {
		fmt.Fprintf(&buf, "\nWarnings\n")
		fmt.Fprintf(&buf, "--------\n")
		for _, warning := range result.Metadata.Warnings {
			fmt.Fprintf(&buf, "- %s\n", warning)
		}
	}

	return buf.Bytes()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
