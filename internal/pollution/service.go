package pollution

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/airalert/airalert/internal/kvstore"
	"github.com/airalert/airalert/internal/telemetry"
)

// Cache and history limits.
const (
	DefaultCacheTTL   = 10 * time.Minute
	DefaultHistoryCap = 100
)

// ServiceConfig holds configuration for the pollution service.
type ServiceConfig struct {
	Store     kvstore.Store
	Generator *Generator
	Logger    zerolog.Logger
	Metrics   *telemetry.DomainMetrics

	// CacheTTL is how long a generated reading is served before a new one
	// is generated. Default: 10 minutes.
	CacheTTL time.Duration

	// HistoryCap bounds the per-region history. Default: 100.
	HistoryCap int

	// Now returns the current time. Default: time.Now
	Now func() time.Time
}

// Service serves cached readings and maintains per-region history.
type Service struct {
	store      kvstore.Store
	generator  *Generator
	logger     zerolog.Logger
	metrics    *telemetry.DomainMetrics
	cacheTTL   time.Duration
	historyCap int
	now        func() time.Time

	mu sync.Mutex
}

// NewService creates a new pollution service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = DefaultCacheTTL
	}
	historyCap := cfg.HistoryCap
	if historyCap == 0 {
		historyCap = DefaultHistoryCap
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	gen := cfg.Generator
	if gen == nil {
		gen = NewGenerator(GeneratorConfig{Now: now})
	}

	return &Service{
		store:      cfg.Store,
		generator:  gen,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		cacheTTL:   cacheTTL,
		historyCap: historyCap,
		now:        now,
	}
}

func currentKey(region string) string { return "pollution:" + region }
func historyKey(region string) string { return "pollution:" + region + ":history" }

// Current returns the region's reading, generating a new one when the cached
// reading is missing or at least CacheTTL old. A newly generated reading is
// stored as current and prepended to the region's history.
func (s *Service) Current(ctx context.Context, region string) (*Reading, error) {
	region = strings.TrimSpace(region)
	if region == "" {
		return nil, ErrRegionRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cached, err := s.load(ctx, region)
	if err != nil {
		return nil, err
	}
	if cached != nil && cached.Age(s.now()) < s.cacheTTL {
		s.metrics.RecordCacheHit(ctx, "pollution")
		return cached, nil
	}
	s.metrics.RecordCacheMiss(ctx, "pollution")

	reading := s.generator.Generate(region)

	if err := s.store.Set(ctx, currentKey(region), reading, 0); err != nil {
		return nil, fmt.Errorf("storing current reading: %w", err)
	}
	if err := s.appendHistory(ctx, region, reading); err != nil {
		return nil, err
	}

	s.metrics.RecordReadingGenerated(ctx, region, string(reading.Status))
	s.logger.Debug().
		Str("region", region).
		Int("aqi", reading.AQI).
		Str("status", string(reading.Status)).
		Msg("generated pollution reading")

	return &reading, nil
}

// Latest returns the cached reading for region without generating one.
func (s *Service) Latest(ctx context.Context, region string) (*Reading, error) {
	if region == "" {
		return nil, ErrRegionRequired
	}
	reading, err := s.load(ctx, region)
	if err != nil {
		return nil, err
	}
	if reading == nil {
		return nil, ErrNoReading
	}
	return reading, nil
}

// History returns up to limit readings for region, newest first.
// A non-positive limit returns the full history.
func (s *Service) History(ctx context.Context, region string, limit int) ([]Reading, error) {
	if region == "" {
		return nil, ErrRegionRequired
	}

	var history []Reading
	if err := s.store.Get(ctx, historyKey(region), &history); err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return []Reading{}, nil
		}
		return nil, fmt.Errorf("loading history: %w", err)
	}
	if limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}

func (s *Service) load(ctx context.Context, region string) (*Reading, error) {
	var reading Reading
	if err := s.store.Get(ctx, currentKey(region), &reading); err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading cached reading: %w", err)
	}
	return &reading, nil
}

func (s *Service) appendHistory(ctx context.Context, region string, reading Reading) error {
	var history []Reading
	if err := s.store.Get(ctx, historyKey(region), &history); err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		return fmt.Errorf("loading history: %w", err)
	}

	history = append([]Reading{reading}, history...)
	if len(history) > s.historyCap {
		history = history[:s.historyCap]
	}

	if err := s.store.Set(ctx, historyKey(region), history, 0); err != nil {
		return fmt.Errorf("storing history: %w", err)
	}
	return nil
}
