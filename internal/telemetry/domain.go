package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const domainMeterName = "github.com/airalert/airalert/internal/telemetry"

// DomainMetrics holds counters for pollution readings, cache usage, alert
// decisions and chatbot traffic. A nil *DomainMetrics is valid and records nothing.
type DomainMetrics struct {
	readingsGenerated metric.Int64Counter
	cacheHits         metric.Int64Counter
	cacheMisses       metric.Int64Counter
	alertDecisions    metric.Int64Counter
	chatMessages      metric.Int64Counter
}

// NewDomainMetrics creates the domain instruments on the global meter provider.
func NewDomainMetrics() (*DomainMetrics, error) {
	meter := otel.Meter(domainMeterName)

	readingsGenerated, err := meter.Int64Counter(
		"airalert.pollution.readings_generated",
		metric.WithDescription("Number of pollution readings generated"),
		metric.WithUnit("{reading}"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"airalert.cache.hit",
		metric.WithDescription("Number of cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"airalert.cache.miss",
		metric.WithDescription("Number of cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, err
	}

	alertDecisions, err := meter.Int64Counter(
		"airalert.alert.decisions",
		metric.WithDescription("Alert evaluator outcomes"),
		metric.WithUnit("{decision}"),
	)
	if err != nil {
		return nil, err
	}

	chatMessages, err := meter.Int64Counter(
		"airalert.chat.messages",
		metric.WithDescription("Chatbot messages by outcome"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	return &DomainMetrics{
		readingsGenerated: readingsGenerated,
		cacheHits:         cacheHits,
		cacheMisses:       cacheMisses,
		alertDecisions:    alertDecisions,
		chatMessages:      chatMessages,
	}, nil
}

// RecordReadingGenerated records a newly generated reading.
func (m *DomainMetrics) RecordReadingGenerated(ctx context.Context, region, status string) {
	if m == nil {
		return
	}
	m.readingsGenerated.Add(ctx, 1, metric.WithAttributes(
		attribute.String("region", region),
		attribute.String("status", status),
	))
}

// RecordCacheHit records a cache hit.
func (m *DomainMetrics) RecordCacheHit(ctx context.Context, cache string) {
	if m == nil {
		return
	}
	m.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("cache", cache)))
}

// RecordCacheMiss records a cache miss.
func (m *DomainMetrics) RecordCacheMiss(ctx context.Context, cache string) {
	if m == nil {
		return
	}
	m.cacheMisses.Add(ctx, 1, metric.WithAttributes(attribute.String("cache", cache)))
}

// RecordAlertDecision records the outcome of an alert evaluation.
func (m *DomainMetrics) RecordAlertDecision(ctx context.Context, decision string) {
	if m == nil {
		return
	}
	m.alertDecisions.Add(ctx, 1, metric.WithAttributes(attribute.String("decision", decision)))
}

// RecordChatMessage records a chatbot message outcome.
func (m *DomainMetrics) RecordChatMessage(ctx context.Context, userType, outcome string) {
	if m == nil {
		return
	}
	m.chatMessages.Add(ctx, 1, metric.WithAttributes(
		attribute.String("user_type", userType),
		attribute.String("outcome", outcome),
	))
}
