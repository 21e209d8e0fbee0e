// Package holdings provides the portfolio holding model and request
// normalization. A normalized holdings list is the immutable input of every
// forecast request.
package holdings

// Holding represents a single position in the portfolio, priced in the
// reporting currency. MarketValue is always Quantity * CurrentPrice.
type Holding struct {
	Ticker       string  `json:"ticker"`
	Name         string  `json:"name"`
	Quantity     float64 `json:"quantity"`
	CurrentPrice float64 `json:"current_price"`
	MarketValue  float64 `json:"market_value"`
}

// TotalValue returns the combined market value of a holdings list.
func TotalValue(list []Holding) float64 {
	total := 0.0
	for _, h := range list {
		total += h.MarketValue
	}
	return total
}
