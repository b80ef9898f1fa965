// Package alert decides when a pollution reading warrants an alert for a
// user and records the alerts it raises.
package alert

import (
	"time"

	"github.com/airalert/airalert/internal/notification"
)

// Alerting constants.
const (
	// AQIGate is the AQI at or below which no alert is raised, whatever
	// the individual pollutants read.
	AQIGate = 100

	// Cooldown is the minimum spacing between two alerts for one user.
	Cooldown = 10 * time.Minute
)

// Pollutant identifies a measured pollutant.
type Pollutant string

// Pollutants, in the order they appear in alert messages.
const (
	PM25 Pollutant = "pm25"
	PM10 Pollutant = "pm10"
	NO2  Pollutant = "no2"
	SO2  Pollutant = "so2"
	O3   Pollutant = "o3"
	CO   Pollutant = "co"
)

// Thresholds are the per-pollutant exceedance limits. A value strictly
// greater than its limit is exceeded.
type Thresholds struct {
	PM25 float64 `json:"pm25"`
	PM10 float64 `json:"pm10"`
	NO2  float64 `json:"no2"`
	SO2  float64 `json:"so2"`
	O3   float64 `json:"o3"`
	CO   float64 `json:"co"`
}

// DefaultThresholds returns the WHO-based limits: µg/m³ except CO in mg/m³.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PM25: 15,
		PM10: 45,
		NO2:  25,
		SO2:  40,
		O3:   100,
		CO:   4,
	}
}

// Exceedance describes one pollutant above its threshold.
type Exceedance struct {
	Pollutant    Pollutant `json:"pollutant"`
	Name         string    `json:"name"`
	Value        float64   `json:"value"`
	Threshold    float64   `json:"threshold"`
	Unit         string    `json:"unit"`
	HealthEffect string    `json:"healthEffect"`
	Action       string    `json:"action"`
}

// Decision is the outcome of an alert evaluation.
type Decision string

// Decisions.
const (
	DecisionAlert            Decision = "alert"
	DecisionWithinLimits     Decision = "within_limits"
	DecisionAQIAcceptable    Decision = "aqi_acceptable"
	DecisionThrottled        Decision = "throttled"
	DecisionDisabled         Decision = "notifications_disabled"
	DecisionSuppressedByFlag Decision = "suppressed_by_flag"
)

// Result is what Evaluate and Service.Check return.
type Result struct {
	Decision     Decision                   `json:"decision"`
	AQI          int                        `json:"aqi"`
	Exceeded     []Exceedance               `json:"exceeded"`
	Notification *notification.Notification `json:"notification,omitempty"`
}

// Alerted reports whether an alert notification was produced.
func (r Result) Alerted() bool {
	return r.Decision == DecisionAlert
}

type pollutantInfo struct {
	pollutant    Pollutant
	name         string
	unit         string
	healthEffect string
	action       string
}

var pollutantTable = []pollutantInfo{
	{PM25, "PM2.5", "µg/m³", "Dangerous fine particles detected, avoid outdoor activity.", "Wear N95 mask outdoors"},
	{PM10, "PM10", "µg/m³", "High dust level, wear a mask.", "Limit outdoor exercise"},
	{NO2, "NO₂", "µg/m³", "Elevated nitrogen oxides, risky for asthma patients.", "Avoid busy roads"},
	{SO2, "SO₂", "µg/m³", "High sulfur emissions, may cause respiratory irritation.", "Stay away from industrial areas"},
	{O3, "O₃", "µg/m³", "Ozone level high, reduce outdoor activity.", "Exercise indoors during midday"},
	{CO, "CO", "mg/m³", "Carbon monoxide detected at high level, risk of headache and dizziness.", "Ensure proper ventilation"},
}
