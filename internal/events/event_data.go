package events

import "time"

// ForecastProgressData carries phase transition information for a forecast request
type ForecastProgressData struct {
	RequestID string    `json:"request_id"`
	Phase     string    `json:"phase"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ForecastCompletedData summarizes a completed forecast for stream consumers
type ForecastCompletedData struct {
	RequestID    string    `json:"request_id"`
	Engine       string    `json:"engine"`
	InitialValue float64   `json:"initial_value"`
	CacheHit     bool      `json:"cache_hit"`
	Warnings     int       `json:"warnings"`
	Timestamp    time.Time `json:"timestamp"`
}

// MaintenanceData reports the outcome of a scheduled maintenance job
type MaintenanceData struct {
	Job       string    `json:"job"`
	Removed   int       `json:"removed"`
	Timestamp time.Time `json:"timestamp"`
}
