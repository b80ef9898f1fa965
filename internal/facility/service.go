package facility

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/airalert/airalert/internal/featureflags"
	"github.com/airalert/airalert/internal/pollution"
	"github.com/airalert/airalert/internal/user"
)

// ReadingSource provides the current reading of a region.
type ReadingSource interface {
	Current(ctx context.Context, region string) (*pollution.Reading, error)
}

// ServiceConfig holds configuration for the facility service.
type ServiceConfig struct {
	Readings ReadingSource
	Flags    *featureflags.Service
	Logger   zerolog.Logger

	// Now returns the current time. Default: time.Now
	Now func() time.Time
}

// Service produces facility placement reports.
type Service struct {
	readings ReadingSource
	flags    *featureflags.Service
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService creates a new facility service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		readings: cfg.Readings,
		flags:    cfg.Flags,
		logger:   cfg.Logger,
		now:      now,
	}
}

type adjustment struct {
	aqiFactor float64
	penalty   float64
}

var adjustments = map[pollution.Status]adjustment{
	pollution.StatusGood:               {aqiFactor: 1.0, penalty: 0},
	pollution.StatusModerate:           {aqiFactor: 1.2, penalty: 4},
	pollution.StatusUnhealthySensitive: {aqiFactor: 1.5, penalty: 8},
	pollution.StatusUnhealthy:          {aqiFactor: 1.9, penalty: 14},
	pollution.StatusVeryUnhealthy:      {aqiFactor: 2.4, penalty: 22},
	pollution.StatusHazardous:          {aqiFactor: 3.0, penalty: 30},
}

// Recommend ranks the candidate zones for u. region overrides the user's
// own region when set. Only Pro planners may request a report.
func (s *Service) Recommend(ctx context.Context, u *user.User, region string) (*Report, error) {
	if u == nil || !u.IsPro || u.UserType != user.TypePlanner {
		return nil, ErrProRequired
	}
	if !s.flags.IsFacilityPlanningEnabled(ctx) {
		return nil, ErrPlanningDisabled
	}
	if region == "" {
		region = u.Region
	}

	reading, err := s.readings.Current(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("loading reading: %w", err)
	}

	report := &Report{
		Region:      region,
		AQI:         reading.AQI,
		Category:    pollution.Category(reading.AQI),
		GeneratedAt: s.now().UTC(),
		Zones:       Rank(baseZones(), reading.AQI),
	}

	s.logger.Debug().
		Str("user_id", u.ID).
		Str("region", region).
		Int("aqi", reading.AQI).
		Msg("facility report generated")

	return report, nil
}

// Rank scales zones to the regional AQI and orders them by descending
// score. Zones with less green space lose more of their air-quality score
// as regional pollution rises.
func Rank(zones []Zone, regionalAQI int) []Zone {
	status := pollution.StatusFor(regionalAQI)
	adj := adjustments[status]

	out := make([]Zone, len(zones))
	for i, z := range zones {
		z.Recommendations = append([]string(nil), z.Recommendations...)
		z.Concerns = append([]string(nil), z.Concerns...)

		exposure := adj.penalty * float64(100-z.Environmental.GreenSpace) / 50
		z.Environmental.AvgAQI = int(math.Round(float64(z.Environmental.AvgAQI) * adj.aqiFactor))
		z.AirQualityScore = clampScore(z.AirQualityScore - int(math.Round(exposure)))
		z.Score = clampScore(z.Score - int(math.Round(exposure/2)))

		if status != pollution.StatusGood && status != pollution.StatusModerate {
			z.Concerns = append(z.Concerns, fmt.Sprintf(
				"Regional AQI is currently %d (%s); schedule site surveys for cleaner days",
				regionalAQI, pollution.Category(regionalAQI)))
		}
		out[i] = z
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
