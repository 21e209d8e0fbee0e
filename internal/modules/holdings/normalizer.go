package holdings

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyPortfolio is returned when a forecast is requested for a portfolio
// with no holdings. It is surfaced to the caller before any network activity.
var ErrEmptyPortfolio = errors.New("portfolio has no holdings")

// Normalize converts raw holdings into the canonical request form: tickers
// upper-cased and trimmed, market values recomputed from quantity and price.
// The input slice is not modified.
func Normalize(list []Holding) ([]Holding, error) {
	if len(list) == 0 {
		return nil, ErrEmptyPortfolio
	}

	normalized := make([]Holding, 0, len(list))
	for i, h := range list {
		ticker := strings.ToUpper(strings.TrimSpace(h.Ticker))
		if ticker == "" {
			return nil, fmt.Errorf("holding %d has an empty ticker", i)
		}
		if h.Quantity < 0 {
			return nil, fmt.Errorf("holding %s has negative quantity %f", ticker, h.Quantity)
		}
		if h.CurrentPrice < 0 {
			return nil, fmt.Errorf("holding %s has negative price %f", ticker, h.CurrentPrice)
		}

		normalized = append(normalized, Holding{
			Ticker:       ticker,
			Name:         strings.TrimSpace(h.Name),
			Quantity:     h.Quantity,
			CurrentPrice: h.CurrentPrice,
			MarketValue:  h.Quantity * h.CurrentPrice,
		})
	}

	return normalized, nil
}
