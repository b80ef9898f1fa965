package worker_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airalert/airalert/internal/alert"
	"github.com/airalert/airalert/internal/featureflags"
	"github.com/airalert/airalert/internal/kvstore"
	"github.com/airalert/airalert/internal/notification"
	"github.com/airalert/airalert/internal/pollution"
	"github.com/airalert/airalert/internal/user"
	"github.com/airalert/airalert/internal/worker"
)

type stubReadings struct {
	mu       sync.Mutex
	aqi      map[string]int
	failing  map[string]bool
	calls    map[string]int
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (s *stubReadings) Current(ctx context.Context, region string) (*pollution.Reading, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[region]++
	if s.failing[region] {
		return nil, errors.New("generator unavailable")
	}
	aqi := s.aqi[region]
	return &pollution.Reading{Region: region, AQI: aqi, PM25: 60, Status: pollution.StatusFor(aqi), LastUpdated: time.Now()}, nil
}

func TestDefaultRefreshConfig(t *testing.T) {
	cfg := worker.DefaultRefreshConfig()

	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.True(t, cfg.SweepAlerts)
	assert.Equal(t, pollution.Regions(), cfg.Regions)
}

func TestRefreshJob_Run_AllRegions(t *testing.T) {
	readings := &stubReadings{delay: 20 * time.Millisecond}
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:   worker.RefreshConfig{Concurrency: 2},
		Logger:   zerolog.New(io.Discard),
		Readings: readings,
	})

	result := job.Run(context.Background())

	regions := pollution.Regions()
	assert.Equal(t, len(regions), result.TotalRegions)
	assert.Equal(t, len(regions), result.Successful)
	assert.Zero(t, result.Failed)
	assert.Zero(t, result.UsersChecked)
	assert.LessOrEqual(t, readings.peak.Load(), int32(2))
	for _, r := range regions {
		assert.Equal(t, 1, readings.calls[r], r)
	}
}

func TestRefreshJob_Run_Failures(t *testing.T) {
	readings := &stubReadings{failing: map[string]bool{"Asia": true}}
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:   worker.RefreshConfig{Regions: []string{"Asia", "Europe"}},
		Logger:   zerolog.New(io.Discard),
		Readings: readings,
	})

	result := job.Run(context.Background())
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Asia", result.Errors[0].Region)
	assert.Equal(t, "refresh", result.Errors[0].Stage)

	metrics := job.GetMetrics()
	assert.Equal(t, int64(1), metrics.TotalRuns)
	assert.Equal(t, int64(1), metrics.FailedRefreshes)

	snapshot := job.MetricsSnapshot()
	assert.Equal(t, int64(1), snapshot["successful_refreshes"])
}

func TestRefreshJob_Run_Timeout(t *testing.T) {
	readings := &stubReadings{delay: time.Second}
	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:   worker.RefreshConfig{Regions: []string{"Europe"}, Timeout: 10 * time.Millisecond},
		Logger:   zerolog.New(io.Discard),
		Readings: readings,
	})

	result := job.Run(context.Background())
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Error, "deadline")
}

type sweepFixture struct {
	job           *worker.RefreshJob
	notifications *notification.Service
	flags         *featureflags.Service
}

func newSweepFixture(t *testing.T, aqi map[string]int) *sweepFixture {
	t.Helper()
	ctx := context.Background()
	logger := zerolog.New(io.Discard)
	store := kvstore.NewMemoryStore()

	users := user.NewInMemoryRepository()
	for _, u := range []*user.User{
		{ID: "eu-1", Email: "a@example.com", Region: "Europe"},
		{ID: "eu-2", Email: "b@example.com", Region: "Europe"},
		{ID: "as-1", Email: "c@example.com", Region: "Asia"},
	} {
		require.NoError(t, users.Create(ctx, u))
	}

	notifications := notification.NewService(notification.ServiceConfig{Store: store, Logger: logger})
	flags := featureflags.NewService(featureflags.ServiceConfig{
		Repository: featureflags.NewInMemoryRepository(),
		Logger:     logger,
	})
	alerts := alert.NewService(alert.ServiceConfig{
		Store:         store,
		Notifications: notifications,
		Flags:         flags,
		Logger:        logger,
	})

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:   worker.RefreshConfig{Regions: []string{"Europe", "Asia"}, SweepAlerts: true},
		Logger:   logger,
		Readings: &stubReadings{aqi: aqi},
		Users:    users,
		Alerts:   alerts,
		Flags:    flags,
	})
	return &sweepFixture{job: job, notifications: notifications, flags: flags}
}

func TestRefreshJob_Sweep(t *testing.T) {
	f := newSweepFixture(t, map[string]int{"Europe": 150, "Asia": 40})
	ctx := context.Background()

	result := f.job.Run(ctx)
	assert.Equal(t, 3, result.UsersChecked)
	assert.Equal(t, 2, result.AlertsRaised)
	assert.Empty(t, result.Errors)

	list, err := f.notifications.List(ctx, "eu-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, notification.TypeAlert, list[0].Type)

	list, err = f.notifications.List(ctx, "as-1")
	require.NoError(t, err)
	assert.Empty(t, list)

	// cooldown holds on the next sweep
	again := f.job.Run(ctx)
	assert.Equal(t, 3, again.UsersChecked)
	assert.Zero(t, again.AlertsRaised)
}

func TestRefreshJob_Sweep_DisabledByFlag(t *testing.T) {
	f := newSweepFixture(t, map[string]int{"Europe": 150, "Asia": 150})
	ctx := context.Background()
	require.NoError(t, f.flags.SetFlag(ctx, &featureflags.Flag{Key: featureflags.FlagDisableWorkerSweep, Value: true}))

	result := f.job.Run(ctx)
	assert.True(t, result.SweepSkipped)
	assert.Equal(t, 2, result.Successful)
	assert.Zero(t, result.UsersChecked)
	assert.Equal(t, int64(1), f.job.GetMetrics().SweepsSkipped)
}

func TestRefreshJob_RunRegion(t *testing.T) {
	f := newSweepFixture(t, map[string]int{"Europe": 150, "Asia": 150})

	result := f.job.RunRegion(context.Background(), "Asia")
	assert.Equal(t, 1, result.TotalRegions)
	assert.Equal(t, 1, result.UsersChecked)
	assert.Equal(t, 1, result.AlertsRaised)
}
