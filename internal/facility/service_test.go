package facility_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airalert/airalert/internal/facility"
	"github.com/airalert/airalert/internal/featureflags"
	"github.com/airalert/airalert/internal/pollution"
	"github.com/airalert/airalert/internal/user"
)

type fixedReadings struct {
	aqi int
	err error
}

func (f fixedReadings) Current(_ context.Context, region string) (*pollution.Reading, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &pollution.Reading{Region: region, AQI: f.aqi, Status: pollution.StatusFor(f.aqi)}, nil
}

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newService(readings facility.ReadingSource, flags *featureflags.Service) *facility.Service {
	return facility.NewService(facility.ServiceConfig{
		Readings: readings,
		Flags:    flags,
		Logger:   zerolog.New(io.Discard),
		Now:      func() time.Time { return testNow },
	})
}

func proPlanner() *user.User {
	return &user.User{ID: "u1", Region: "Europe", UserType: user.TypePlanner, IsPro: true}
}

func TestService_Recommend_CleanAir(t *testing.T) {
	svc := newService(fixedReadings{aqi: 30}, nil)

	report, err := svc.Recommend(context.Background(), proPlanner(), "")
	require.NoError(t, err)
	assert.Equal(t, "Europe", report.Region)
	assert.Equal(t, 30, report.AQI)
	assert.Equal(t, "Good", report.Category)
	assert.Equal(t, testNow, report.GeneratedAt)

	require.Len(t, report.Zones, 3)
	names := []string{report.Zones[0].Name, report.Zones[1].Name, report.Zones[2].Name}
	assert.Equal(t, []string{"Greenfield District", "Riverside Commons", "Innovation Quarter"}, names)
	assert.Equal(t, []int{92, 87, 81}, []int{report.Zones[0].Score, report.Zones[1].Score, report.Zones[2].Score})
	for i, z := range report.Zones {
		assert.Equal(t, i+1, z.Rank)
	}
	assert.Equal(t, 28, report.Zones[0].Environmental.AvgAQI)
	assert.Len(t, report.Zones[0].Concerns, 2)
}

func TestService_Recommend_RegionOverride(t *testing.T) {
	svc := newService(fixedReadings{aqi: 30}, nil)

	report, err := svc.Recommend(context.Background(), proPlanner(), "Asia")
	require.NoError(t, err)
	assert.Equal(t, "Asia", report.Region)
}

func TestService_Recommend_Access(t *testing.T) {
	tests := []struct {
		name string
		user *user.User
	}{
		{"nil user", nil},
		{"free planner", &user.User{ID: "u", UserType: user.TypePlanner}},
		{"pro patient", &user.User{ID: "u", UserType: user.TypePatient, IsPro: true}},
	}

	svc := newService(fixedReadings{aqi: 30}, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Recommend(context.Background(), tt.user, "Europe")
			assert.ErrorIs(t, err, facility.ErrProRequired)
		})
	}
}

func TestService_Recommend_DisabledByFlag(t *testing.T) {
	ctx := context.Background()
	flags := featureflags.NewService(featureflags.ServiceConfig{
		Repository: featureflags.NewInMemoryRepository(),
		Logger:     zerolog.New(io.Discard),
	})
	require.NoError(t, flags.SetFlag(ctx, &featureflags.Flag{Key: featureflags.FlagEnableFacilityPlanning, Value: false}))

	_, err := newService(fixedReadings{aqi: 30}, flags).Recommend(ctx, proPlanner(), "")
	assert.ErrorIs(t, err, facility.ErrPlanningDisabled)
}

func TestService_Recommend_ReadingError(t *testing.T) {
	svc := newService(fixedReadings{err: errors.New("store down")}, nil)

	_, err := svc.Recommend(context.Background(), proPlanner(), "")
	assert.ErrorContains(t, err, "store down")
}

func TestRank_ScalesWithRegionalAQI(t *testing.T) {
	clean, err := newService(fixedReadings{aqi: 30}, nil).Recommend(context.Background(), proPlanner(), "")
	require.NoError(t, err)
	polluted, err := newService(fixedReadings{aqi: 180}, nil).Recommend(context.Background(), proPlanner(), "")
	require.NoError(t, err)

	assert.Equal(t, "Unhealthy", polluted.Category)
	for i := range clean.Zones {
		c, p := clean.Zones[i], polluted.Zones[i]
		assert.Equal(t, c.ID, p.ID)
		assert.Less(t, p.Score, c.Score)
		assert.Less(t, p.AirQualityScore, c.AirQualityScore)
		assert.Greater(t, p.Environmental.AvgAQI, c.Environmental.AvgAQI)
		assert.Len(t, p.Concerns, len(c.Concerns)+1)
	}
}

func TestRank_ScoresStayInRange(t *testing.T) {
	zones := []facility.Zone{
		{ID: "a", Score: 5, AirQualityScore: 5, Environmental: facility.Environmental{GreenSpace: 0}},
		{ID: "b", Score: 50, AirQualityScore: 50, Environmental: facility.Environmental{GreenSpace: 100}},
	}

	ranked := facility.Rank(zones, 400)
	require.Len(t, ranked, 2)
	assert.Equal(t, "b", ranked[0].ID)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, 50, ranked[0].AirQualityScore)
	assert.Equal(t, 0, ranked[1].AirQualityScore)
	assert.Equal(t, 0, ranked[1].Score)
	assert.Empty(t, zones[0].Concerns)
}
