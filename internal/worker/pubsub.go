package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// Job types carried in Pub/Sub messages.
const (
	JobPollutionRefresh = "pollution_refresh"
	JobHealthCheck      = "health_check"
)

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	jobs             *JobRunner
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	RefreshJob       *RefreshJob
	Logger           zerolog.Logger
}

// JobMessage is the payload of a worker job message.
type JobMessage struct {
	JobType string `json:"job_type"`

	// Region limits a pollution refresh to one region.
	Region string `json:"region,omitempty"`
}

// JobRunner executes decoded job messages. It is separate from the
// Pub/Sub plumbing so jobs can be triggered without a subscription.
type JobRunner struct {
	refresh *RefreshJob
	logger  zerolog.Logger
}

// NewJobRunner creates a runner for the given refresh job.
func NewJobRunner(refresh *RefreshJob, logger zerolog.Logger) *JobRunner {
	return &JobRunner{refresh: refresh, logger: logger}
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		jobs:             NewJobRunner(cfg.RefreshJob, cfg.Logger),
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages. It blocks until ctx is done.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		logger := h.logger.With().
			Str("message_id", msg.ID).
			Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
			Logger()

		if h.jobs.Handle(logger.WithContext(ctx), msg.Data) {
			msg.Ack()
		} else {
			msg.Nack()
		}
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

// Handle runs the job in data and reports whether the message should be
// acknowledged. Unparseable messages are redelivered; unknown job types are
// acknowledged and dropped.
func (r *JobRunner) Handle(ctx context.Context, data []byte) bool {
	startTime := time.Now()
	logger := zerolog.Ctx(ctx)
	if logger.GetLevel() == zerolog.Disabled {
		logger = &r.logger
	}

	var msg JobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		return false
	}

	var err error
	switch msg.JobType {
	case JobPollutionRefresh:
		err = r.pollutionRefresh(ctx, msg)
	case JobHealthCheck:
		err = r.healthCheck(ctx)
	default:
		logger.Warn().Str("job_type", msg.JobType).Msg("unknown job type")
		return true
	}

	if err != nil {
		logger.Error().Err(err).Str("job_type", msg.JobType).Msg("job failed")
		return false
	}

	logger.Info().
		Str("job_type", msg.JobType).
		Dur("duration", time.Since(startTime)).
		Msg("job completed successfully")
	return true
}

func (r *JobRunner) pollutionRefresh(ctx context.Context, msg JobMessage) error {
	var result *RefreshResult
	if msg.Region != "" {
		result = r.refresh.RunRegion(ctx, msg.Region)
	} else {
		result = r.refresh.Run(ctx)
	}

	// More failures than successes is reported so the message is retried.
	if result.Failed > result.Successful {
		return fmt.Errorf("too many refresh failures: %d/%d", result.Failed, result.TotalRegions)
	}
	return nil
}

func (r *JobRunner) healthCheck(ctx context.Context) error {
	region := r.refresh.config.Regions[0]

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := r.refresh.readings.Current(ctx, region); err != nil {
		return fmt.Errorf("health check failed for %s: %w", region, err)
	}

	r.logger.Debug().Str("region", region).Msg("health check passed")
	return nil
}
