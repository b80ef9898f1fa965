// Package pollution generates synthetic air-quality readings per region and
// keeps a cached current reading plus a bounded history for each region.
package pollution

import (
	"errors"
	"time"
)

// Predefined errors.
var (
	ErrRegionRequired = errors.New("region is required")
	ErrNoReading      = errors.New("no reading available for region")
)

// Status is the categorical air-quality band derived from the AQI.
type Status string

// Status values, ordered from best to worst.
const (
	StatusGood               Status = "good"
	StatusModerate           Status = "moderate"
	StatusUnhealthySensitive Status = "unhealthy_sensitive"
	StatusUnhealthy          Status = "unhealthy"
	StatusVeryUnhealthy      Status = "very_unhealthy"
	StatusHazardous          Status = "hazardous"
)

// Reading is a single synthetic air-quality observation for a region.
// Gas and particulate concentrations are in µg/m³ except CO (mg/m³).
type Reading struct {
	Region      string    `json:"region,omitempty"`
	AQI         int       `json:"aqi"`
	PM25        float64   `json:"pm25"`
	PM10        float64   `json:"pm10"`
	CO          float64   `json:"co"`
	NO2         float64   `json:"no2"`
	O3          float64   `json:"o3"`
	SO2         float64   `json:"so2"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Visibility  float64   `json:"visibility"`
	LastUpdated time.Time `json:"last_updated"`
	Status      Status    `json:"status"`
}

// Age returns how old the reading is at now.
func (r Reading) Age(now time.Time) time.Duration {
	return now.Sub(r.LastUpdated)
}

// StatusFor maps an AQI value to its status band.
func StatusFor(aqi int) Status {
	switch {
	case aqi <= 50:
		return StatusGood
	case aqi <= 100:
		return StatusModerate
	case aqi <= 150:
		return StatusUnhealthySensitive
	case aqi <= 200:
		return StatusUnhealthy
	case aqi <= 300:
		return StatusVeryUnhealthy
	default:
		return StatusHazardous
	}
}

// Category returns the human-readable band name for an AQI value.
func Category(aqi int) string {
	switch StatusFor(aqi) {
	case StatusGood:
		return "Good"
	case StatusModerate:
		return "Moderate"
	case StatusUnhealthySensitive:
		return "Unhealthy for Sensitive Groups"
	case StatusUnhealthy:
		return "Unhealthy"
	case StatusVeryUnhealthy:
		return "Very Unhealthy"
	default:
		return "Hazardous"
	}
}
