// Package facility ranks candidate zones for new healthcare facilities.
package facility

import (
	"errors"
	"time"
)

// Predefined errors.
var (
	ErrProRequired      = errors.New("facility planning requires a pro planner account")
	ErrPlanningDisabled = errors.New("facility planning is disabled")
)

// HealthRisk is the demographic health-risk band of a zone.
type HealthRisk string

// HealthRisk values.
const (
	RiskLow      HealthRisk = "Low"
	RiskModerate HealthRisk = "Moderate"
	RiskHigh     HealthRisk = "High"
)

// Coordinates locates a zone centroid.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Demographics describes the population a facility would serve.
type Demographics struct {
	Population int        `json:"population"`
	AverageAge int        `json:"averageAge"`
	HealthRisk HealthRisk `json:"healthRisk"`
}

// Environmental holds the environmental indicators of a zone.
type Environmental struct {
	AvgAQI       int `json:"avgAQI"`
	NoiseLevel   int `json:"noiseLevel"`
	GreenSpace   int `json:"greenSpace"`
	WaterQuality int `json:"waterQuality"`
}

// Infrastructure scores the supporting services of a zone (0-100).
type Infrastructure struct {
	PublicTransport   int `json:"publicTransport"`
	RoadAccess        int `json:"roadAccess"`
	Utilities         int `json:"utilities"`
	EmergencyServices int `json:"emergencyServices"`
}

// Zone is a ranked candidate location.
type Zone struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	Score              int            `json:"score"`
	Rank               int            `json:"rank"`
	Coordinates        Coordinates    `json:"coordinates"`
	AirQualityScore    int            `json:"airQualityScore"`
	AccessibilityScore int            `json:"accessibilityScore"`
	PopulationScore    int            `json:"populationScore"`
	EnvironmentalScore int            `json:"environmentalScore"`
	ExpansionPotential int            `json:"expansionPotential"`
	ExistingFacilities int            `json:"existingFacilities"`
	Demographics       Demographics   `json:"demographics"`
	Environmental      Environmental  `json:"environmental"`
	Infrastructure     Infrastructure `json:"infrastructure"`
	Recommendations    []string       `json:"recommendations"`
	Concerns           []string       `json:"concerns"`
}

// Report is the result of a recommendation run for one region.
type Report struct {
	Region      string    `json:"region"`
	AQI         int       `json:"aqi"`
	Category    string    `json:"category"`
	GeneratedAt time.Time `json:"generatedAt"`
	Zones       []Zone    `json:"zones"`
}

// baseZones are the surveyed zones under clean-air conditions.
func baseZones() []Zone {
	return []Zone{
		{
			ID:                 "zone-1",
			Name:               "Greenfield District",
			Score:              92,
			Coordinates:        Coordinates{Lat: 40.7589, Lng: -73.9851},
			AirQualityScore:    95,
			AccessibilityScore: 88,
			PopulationScore:    85,
			EnvironmentalScore: 94,
			ExpansionPotential: 92,
			ExistingFacilities: 2,
			Demographics:       Demographics{Population: 45000, AverageAge: 38, HealthRisk: RiskLow},
			Environmental:      Environmental{AvgAQI: 28, NoiseLevel: 42, GreenSpace: 78, WaterQuality: 92},
			Infrastructure:     Infrastructure{PublicTransport: 85, RoadAccess: 90, Utilities: 95, EmergencyServices: 88},
			Recommendations: []string{
				"Optimal air quality with AQI consistently below 30",
				"High accessibility via multiple transport routes",
				"Growing population with healthcare needs",
				"Excellent infrastructure readiness",
			},
			Concerns: []string{
				"Limited parking space may require planning",
				"Consider noise mitigation near main roads",
			},
		},
		{
			ID:                 "zone-2",
			Name:               "Riverside Commons",
			Score:              87,
			Coordinates:        Coordinates{Lat: 40.7505, Lng: -73.9934},
			AirQualityScore:    82,
			AccessibilityScore: 92,
			PopulationScore:    90,
			EnvironmentalScore: 85,
			ExpansionPotential: 78,
			ExistingFacilities: 4,
			Demographics:       Demographics{Population: 62000, AverageAge: 42, HealthRisk: RiskModerate},
			Environmental:      Environmental{AvgAQI: 38, NoiseLevel: 48, GreenSpace: 65, WaterQuality: 88},
			Infrastructure:     Infrastructure{PublicTransport: 95, RoadAccess: 85, Utilities: 90, EmergencyServices: 92},
			Recommendations: []string{
				"High population density justifies new facility",
				"Excellent public transport connectivity",
				"Aging population with increased healthcare needs",
				"Strong emergency services network",
			},
			Concerns: []string{
				"Moderate air quality requires monitoring",
				"Higher competition from existing facilities",
				"Limited expansion potential",
			},
		},
		{
			ID:                 "zone-3",
			Name:               "Innovation Quarter",
			Score:              81,
			Coordinates:        Coordinates{Lat: 40.7282, Lng: -73.9942},
			AirQualityScore:    78,
			AccessibilityScore: 80,
			PopulationScore:    75,
			EnvironmentalScore: 82,
			ExpansionPotential: 95,
			ExistingFacilities: 1,
			Demographics:       Demographics{Population: 35000, AverageAge: 32, HealthRisk: RiskLow},
			Environmental:      Environmental{AvgAQI: 42, NoiseLevel: 52, GreenSpace: 58, WaterQuality: 85},
			Infrastructure:     Infrastructure{PublicTransport: 75, RoadAccess: 82, Utilities: 88, EmergencyServices: 78},
			Recommendations: []string{
				"Rapidly growing tech district needs healthcare",
				"Excellent expansion potential for specialized care",
				"Young professional population",
				"Modern infrastructure and utilities",
			},
			Concerns: []string{
				"Air quality affected by construction activities",
				"Limited public transport options",
				"Higher real estate costs",
			},
		},
	}
}
