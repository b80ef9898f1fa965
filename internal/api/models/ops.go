package models

import "github.com/airalert/airalert/internal/resilience"

// Health is the liveness response.
type Health struct {
	Status    HealthStatus `json:"status"`
	Timestamp Timestamp    `json:"timestamp"`
}

// SystemStatus reports build information and dependency health.
type SystemStatus struct {
	Status       HealthStatus                  `json:"status"`
	Timestamp    Timestamp                     `json:"timestamp"`
	Version      string                        `json:"version"`
	BuildTime    string                        `json:"buildTime"`
	Dependencies []resilience.DependencyHealth `json:"dependencies"`
	Worker       map[string]interface{}        `json:"worker,omitempty"`
}
