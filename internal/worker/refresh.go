package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/airalert/airalert/internal/alert"
	"github.com/airalert/airalert/internal/featureflags"
	"github.com/airalert/airalert/internal/pollution"
	"github.com/airalert/airalert/internal/user"
)

// ReadingSource returns the current reading of a region.
type ReadingSource interface {
	Current(ctx context.Context, region string) (*pollution.Reading, error)
}

// UserLister lists the users registered in a region.
type UserLister interface {
	ListByRegion(ctx context.Context, region string) ([]*user.User, error)
}

// AlertChecker evaluates a reading for one user.
type AlertChecker interface {
	Check(ctx context.Context, userID string, reading pollution.Reading) (alert.Result, error)
}

// RefreshJob refreshes the reading of every region and sweeps alerts for
// the region's users.
type RefreshJob struct {
	config RefreshConfig
	logger zerolog.Logger

	readings ReadingSource
	users    UserLister
	alerts   AlertChecker
	flags    *featureflags.Service

	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	TotalRuns           int64
	SuccessfulRefreshes int64
	FailedRefreshes     int64
	UsersChecked        int64
	AlertsRaised        int64
	SweepsSkipped       int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config   RefreshConfig
	Logger   zerolog.Logger
	Readings ReadingSource

	// Users and Alerts are optional; without them no sweep runs.
	Users  UserLister
	Alerts AlertChecker
	Flags  *featureflags.Service
}

// NewRefreshJob creates a new refresh job processor.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	return &RefreshJob{
		config:   cfg.Config.withDefaults(),
		logger:   cfg.Logger,
		readings: cfg.Readings,
		users:    cfg.Users,
		alerts:   cfg.Alerts,
		flags:    cfg.Flags,
		metrics:  &RefreshMetrics{},
	}
}

// RefreshResult contains the result of a refresh run.
type RefreshResult struct {
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
	TotalRegions int
	Successful   int
	Failed       int
	UsersChecked int
	AlertsRaised int
	SweepSkipped bool
	Errors       []RefreshError
}

// RefreshError records a failure for one region.
type RefreshError struct {
	Region string
	Stage  string
	UserID string
	Error  string
}

// Run refreshes all configured regions.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	return j.run(ctx, j.config.Regions, j.config.Concurrency)
}

// RunRegion refreshes a single region.
func (j *RefreshJob) RunRegion(ctx context.Context, region string) *RefreshResult {
	return j.run(ctx, []string{region}, 1)
}

func (j *RefreshJob) run(ctx context.Context, regions []string, concurrency int) *RefreshResult {
	startTime := time.Now()
	sweep := j.config.SweepAlerts && j.users != nil && j.alerts != nil
	skipped := sweep && j.flags.IsWorkerSweepDisabled(ctx)
	if skipped {
		sweep = false
	}

	result := &RefreshResult{
		StartTime:    startTime,
		TotalRegions: len(regions),
		SweepSkipped: skipped,
	}

	j.logger.Info().
		Int("regions", len(regions)).
		Int("concurrency", concurrency).
		Bool("sweep", sweep).
		Msg("starting pollution refresh job")

	regionsChan := make(chan string, len(regions))
	resultsChan := make(chan regionResult, len(regions))

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for region := range regionsChan {
				if ctx.Err() != nil {
					resultsChan <- regionResult{errors: []RefreshError{{Region: region, Stage: "refresh", Error: ctx.Err().Error()}}}
					continue
				}
				resultsChan <- j.refreshRegion(ctx, region, sweep)
			}
		}()
	}

	for _, r := range regions {
		regionsChan <- r
	}
	close(regionsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for rr := range resultsChan {
		if rr.success {
			result.Successful++
		} else {
			result.Failed++
		}
		result.UsersChecked += rr.usersChecked
		result.AlertsRaised += rr.alertsRaised
		result.Errors = append(result.Errors, rr.errors...)
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("users_checked", result.UsersChecked).
		Int("alerts_raised", result.AlertsRaised).
		Msg("pollution refresh job completed")

	return result
}

type regionResult struct {
	success      bool
	usersChecked int
	alertsRaised int
	errors       []RefreshError
}

func (j *RefreshJob) refreshRegion(ctx context.Context, region string, sweep bool) regionResult {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	reading, err := j.readings.Current(ctx, region)
	if err != nil {
		return regionResult{errors: []RefreshError{{Region: region, Stage: "refresh", Error: err.Error()}}}
	}

	result := regionResult{success: true}
	if !sweep {
		return result
	}

	users, err := j.users.ListByRegion(ctx, region)
	if err != nil {
		result.errors = append(result.errors, RefreshError{Region: region, Stage: "list_users", Error: err.Error()})
		return result
	}

	// Sweep failures do not fail the region: the reading is already fresh.
	for _, u := range users {
		if ctx.Err() != nil {
			result.errors = append(result.errors, RefreshError{Region: region, Stage: "alert", Error: ctx.Err().Error()})
			break
		}
		res, err := j.alerts.Check(ctx, u.ID, *reading)
		result.usersChecked++
		if err != nil {
			result.errors = append(result.errors, RefreshError{Region: region, Stage: "alert", UserID: u.ID, Error: err.Error()})
			continue
		}
		if res.Alerted() {
			result.alertsRaised++
		}
	}

	j.logger.Debug().
		Str("region", region).
		Int("aqi", reading.AQI).
		Int("users", len(users)).
		Int("alerts", result.alertsRaised).
		Msg("region refreshed")

	return result
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.SuccessfulRefreshes += int64(result.Successful)
	j.metrics.FailedRefreshes += int64(result.Failed)
	j.metrics.UsersChecked += int64(result.UsersChecked)
	j.metrics.AlertsRaised += int64(result.AlertsRaised)
	if result.SweepSkipped {
		j.metrics.SweepsSkipped++
	}
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRuns:           j.metrics.TotalRuns,
		SuccessfulRefreshes: j.metrics.SuccessfulRefreshes,
		FailedRefreshes:     j.metrics.FailedRefreshes,
		UsersChecked:        j.metrics.UsersChecked,
		AlertsRaised:        j.metrics.AlertsRaised,
		SweepsSkipped:       j.metrics.SweepsSkipped,
		LastRunAt:           j.metrics.LastRunAt,
		LastRunDuration:     j.metrics.LastRunDuration,
		TotalDuration:       j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":           m.TotalRuns,
		"successful_refreshes": m.SuccessfulRefreshes,
		"failed_refreshes":     m.FailedRefreshes,
		"users_checked":        m.UsersChecked,
		"alerts_raised":        m.AlertsRaised,
		"sweeps_skipped":       m.SweepsSkipped,
		"last_run_at":          m.LastRunAt,
		"last_run_duration":    m.LastRunDuration.String(),
		"total_duration":       m.TotalDuration.String(),
	}
}
