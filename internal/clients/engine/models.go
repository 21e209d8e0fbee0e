package engine

import "encoding/json"

// ForecastRequest is the request payload for the professional forecast endpoint.
type ForecastRequest struct {
	Holdings       []HoldingPayload `json:"holdings"`
	TimeHorizon    string           `json:"time_horizon"`
	NumSimulations int              `json:"num_simulations"`
}

// HoldingPayload is the minimal holding representation the engine requires.
type HoldingPayload struct {
	Ticker       string  `json:"ticker"`
	Name         string  `json:"name"`
	Quantity     float64 `json:"quantity"`
	CurrentPrice float64 `json:"current_price"`
	MarketValue  float64 `json:"market_value"`
}

// ForecastResponse is the engine's raw response envelope. Field names follow
// the engine's wire format; interpretation into the canonical model happens
// in the forecast module, not here.
type ForecastResponse struct {
	Status       string       `json:"status"`
	ForecastData ForecastData `json:"forecast_data"`
	Metadata     Metadata     `json:"metadata"`
}

// ForecastData holds the distributional summary of the simulation run.
type ForecastData struct {
	InitialValue    float64           `json:"initial_value"`
	TimeHorizon     string            `json:"time_horizon"`
	TimeHorizonDays int               `json:"time_horizon_days"`
	NumSimulations  int               `json:"num_simulations"`
	PercentileData  []PercentilePoint `json:"percentile_data"`
	Statistics      Statistics        `json:"statistics"`
	DataQuality     DataQuality       `json:"data_quality"`
}

// PercentilePoint is one day of the percentile time series.
type PercentilePoint struct {
	Date         string  `json:"date"`
	Day          int     `json:"day"`
	Percentile5  float64 `json:"percentile_5"`
	Percentile25 float64 `json:"percentile_25"`
	Percentile50 float64 `json:"percentile_50"`
	Percentile75 float64 `json:"percentile_75"`
	Percentile95 float64 `json:"percentile_95"`
}

// Statistics is the engine's scalar summary of the outcome distribution.
// Returns are decimals (0.05 = 5%); VaR and expected shortfall are value
// thresholds in the reporting currency, not loss amounts.
type Statistics struct {
	MeanFinalValue   float64 `json:"mean_final_value"`
	MedianFinalValue float64 `json:"median_final_value"`
	StdFinalValue    float64 `json:"std_final_value"`
	MeanReturn       float64 `json:"mean_return"`
	MedianReturn     float64 `json:"median_return"`
	StdReturn        float64 `json:"std_return"`
	MinReturn        float64 `json:"min_return"`
	MaxReturn        float64 `json:"max_return"`

	SharpeRatio  float64 `json:"sharpe_ratio"`
	SortinoRatio float64 `json:"sortino_ratio"`
	CalmarRatio  float64 `json:"calmar_ratio"`

	VaR95                 float64 `json:"var_95"`
	VaR99                 float64 `json:"var_99"`
	ExpectedShortfall95   float64 `json:"expected_shortfall_95"`
	ExpectedShortfall99   float64 `json:"expected_shortfall_99"`
	ProbabilityPositive   float64 `json:"probability_positive"`
	ProbabilityLoss5Pct   float64 `json:"probability_loss_5_percent"`
	ProbabilityLoss10Pct  float64 `json:"probability_loss_10_percent"`
	ProbabilityGain10Pct  float64 `json:"probability_gain_10_percent"`
	ProbabilityGain20Pct  float64 `json:"probability_gain_20_percent"`
	Skewness              float64 `json:"skewness"`
	Kurtosis              float64 `json:"kurtosis"`
	MaximumDrawdown       float64 `json:"maximum_drawdown"`
	DownsideDeviation     float64 `json:"downside_deviation"`
}

// DataQuality describes how much usable history backed the simulation.
// QualityByAsset is an opaque pass-through of per-ticker detail.
type DataQuality struct {
	OverallQualityScore float64                    `json:"overall_quality_score"`
	DataCoverage        float64                    `json:"data_coverage"`
	AssetsWithData      int                        `json:"assets_with_data"`
	TotalAssets         int                        `json:"total_assets"`
	QualityByAsset      map[string]json.RawMessage `json:"quality_by_asset,omitempty"`
}

// Metadata identifies the engine run that produced a response.
type Metadata struct {
	Engine             string   `json:"engine"`
	Version            string   `json:"version"`
	GeneratedAt        string   `json:"generated_at"`
	DataQualityWarning bool     `json:"data_quality_warning,omitempty"`
	Warnings           []string `json:"warnings"`
}
