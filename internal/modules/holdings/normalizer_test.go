package holdings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmptyPortfolio(t *testing.T) {
	_, err := Normalize(nil)
	assert.ErrorIs(t, err, ErrEmptyPortfolio)

	_, err = Normalize([]Holding{})
	assert.ErrorIs(t, err, ErrEmptyPortfolio)
}

func TestNormalizeCanonicalizesTickers(t *testing.T) {
	normalized, err := Normalize([]Holding{
		{Ticker: " aapl ", Name: " Apple Inc. ", Quantity: 10, CurrentPrice: 150},
	})
	require.NoError(t, err)
	require.Len(t, normalized, 1)

	assert.Equal(t, "AAPL", normalized[0].Ticker)
	assert.Equal(t, "Apple Inc.", normalized[0].Name)
	assert.Equal(t, 1500.0, normalized[0].MarketValue)
}

func TestNormalizeRecomputesMarketValue(t *testing.T) {
	// A stale market value in the input is replaced by quantity * price
	normalized, err := Normalize([]Holding{
		{Ticker: "MSFT", Quantity: 2, CurrentPrice: 300, MarketValue: 999},
	})
	require.NoError(t, err)
	assert.Equal(t, 600.0, normalized[0].MarketValue)
}

func TestNormalizeRejectsInvalidHoldings(t *testing.T) {
	_, err := Normalize([]Holding{{Ticker: "   ", Quantity: 1, CurrentPrice: 1}})
	assert.Error(t, err)

	_, err = Normalize([]Holding{{Ticker: "AAPL", Quantity: -1, CurrentPrice: 1}})
	assert.Error(t, err)

	_, err = Normalize([]Holding{{Ticker: "AAPL", Quantity: 1, CurrentPrice: -5}})
	assert.Error(t, err)
}

func TestNormalizeDoesNotModifyInput(t *testing.T) {
	input := []Holding{{Ticker: "aapl", Quantity: 1, CurrentPrice: 100}}
	_, err := Normalize(input)
	require.NoError(t, err)
	assert.Equal(t, "aapl", input[0].Ticker)
}

func TestNormalizeRoundTrip(t *testing.T) {
	// Normalizing already-normalized holdings yields the same tuples
	input := []Holding{
		{Ticker: "VTI", Name: "Vanguard Total", Quantity: 5, CurrentPrice: 220},
		{Ticker: "BND", Name: "Vanguard Bond", Quantity: 12, CurrentPrice: 71.5},
	}
	first, err := Normalize(input)
	require.NoError(t, err)

	second, err := Normalize(first)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTotalValue(t *testing.T) {
	list := []Holding{
		{Ticker: "A", MarketValue: 100},
		{Ticker: "B", MarketValue: 250.5},
	}
	assert.Equal(t, 350.5, TotalValue(list))
	assert.Equal(t, 0.0, TotalValue(nil))
}
