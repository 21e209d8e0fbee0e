package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(url string) *Client {
	c := NewClient(url, 2*time.Second, zerolog.Nop())
	c.backoff = func(int) time.Duration { return time.Millisecond }
	return c
}

func testRequest() ForecastRequest {
	return ForecastRequest{
		Holdings: []HoldingPayload{
			{Ticker: "AAPL", Name: "Apple", Quantity: 10, CurrentPrice: 150, MarketValue: 1500},
		},
		TimeHorizon:    "3_months",
		NumSimulations: 5000,
	}
}

func TestGenerateForecastSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/professional-forecast", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "success",
			"forecast_data": {
				"initial_value": 1500,
				"time_horizon": "3_months",
				"time_horizon_days": 90,
				"num_simulations": 5000,
				"percentile_data": [
					{"date": "2026-01-02", "day": 0, "percentile_5": 1500, "percentile_25": 1500, "percentile_50": 1500, "percentile_75": 1500, "percentile_95": 1500}
				],
				"statistics": {"mean_final_value": 1550, "probability_positive": 0.62},
				"data_quality": {"overall_quality_score": 0.95, "data_coverage": 1.0, "assets_with_data": 1, "total_assets": 1}
			},
			"metadata": {"engine": "professional_monte_carlo", "version": "2.0", "generated_at": "2026-01-02T10:00:00", "warnings": []}
		}`))
	}))
	defer server.Close()

	resp, err := testClient(server.URL).GenerateForecast(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 1500.0, resp.ForecastData.InitialValue)
	assert.Equal(t, 5000, resp.ForecastData.NumSimulations)
	assert.Equal(t, 0.62, resp.ForecastData.Statistics.ProbabilityPositive)
	assert.Equal(t, "professional_monte_carlo", resp.Metadata.Engine)
}

func TestGenerateForecastRetriesOn5xx(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "simulation pool exhausted", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status": "success", "forecast_data": {}, "metadata": {"engine": "professional_monte_carlo"}}`))
	}))
	defer server.Close()

	resp, err := testClient(server.URL).GenerateForecast(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, "success", resp.Status)
}

func TestGenerateForecastExhaustsRetries(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := testClient(server.URL).GenerateForecast(context.Background(), testRequest())
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, IsTransient(err))
}

func TestGenerateForecastDoesNotRetry4xx(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "holdings are required", http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := testClient(server.URL).GenerateForecast(context.Background(), testRequest())
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.False(t, IsTransient(err))
}

func TestGenerateForecastDoesNotRetryMalformedBody(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"status": `))
	}))
	defer server.Close()

	_, err := testClient(server.URL).GenerateForecast(context.Background(), testRequest())
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.False(t, IsTransient(err))
}

func TestGenerateForecastNetworkFailureIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	_, err := testClient(server.URL).GenerateForecast(context.Background(), testRequest())
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestGenerateForecastContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, 2*time.Second, zerolog.Nop())
	client.backoff = func(int) time.Duration { return time.Minute }

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := client.GenerateForecast(ctx, testRequest())
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second, "cancellation should abort the backoff sleep")
}
