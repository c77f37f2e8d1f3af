package domain

import "time"

type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

type HealthResponse struct {
	Status    HealthStatus `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	RelayID   string       `json:"relay_id"`
	Message   string       `json:"message,omitempty"`
}

// RelayStats are the counters a relay exposes on /status.
type RelayStats struct {
	Received  int64     `json:"received"`
	Written   int64     `json:"written"`
	Failed    int64     `json:"failed"`
	LastWrite time.Time `json:"last_write,omitempty"`
}
