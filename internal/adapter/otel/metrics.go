package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "ilmihal"

// Outcome labels for content lookups.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// Metrics holds all ilmihal metric instruments. A nil *Metrics records nothing.
type Metrics struct {
	contentLookups  metric.Int64Counter
	resolveDuration metric.Float64Histogram
	cacheHits       metric.Int64Counter
	chatQuestions   metric.Int64Counter
	quotaRejections metric.Int64Counter
	rateLimited     metric.Int64Counter
	importedRows    metric.Int64Counter
	messagesCreated metric.Int64Counter
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	if m.contentLookups, err = meter.Int64Counter("ilmihal.content.lookups",
		metric.WithDescription("Content requests by outcome")); err != nil {
		return nil, err
	}
	if m.resolveDuration, err = meter.Float64Histogram("ilmihal.content.resolve_seconds",
		metric.WithDescription("Time to fetch and assemble content"), metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.cacheHits, err = meter.Int64Counter("ilmihal.content.cache",
		metric.WithDescription("Row cache lookups by result")); err != nil {
		return nil, err
	}
	if m.chatQuestions, err = meter.Int64Counter("ilmihal.chat.questions",
		metric.WithDescription("Chat questions answered")); err != nil {
		return nil, err
	}
	if m.quotaRejections, err = meter.Int64Counter("ilmihal.chat.quota_rejections",
		metric.WithDescription("Chat questions rejected by the free limit")); err != nil {
		return nil, err
	}
	if m.rateLimited, err = meter.Int64Counter("ilmihal.http.rate_limited",
		metric.WithDescription("Requests rejected by the rate limiter")); err != nil {
		return nil, err
	}
	if m.importedRows, err = meter.Int64Counter("ilmihal.import.rows",
		metric.WithDescription("Content rows created by PDF import")); err != nil {
		return nil, err
	}
	if m.messagesCreated, err = meter.Int64Counter("ilmihal.messages.created",
		metric.WithDescription("Contact messages stored")); err != nil {
		return nil, err
	}

	return m, nil
}

// ContentLookup records one content request.
func (m *Metrics) ContentLookup(ctx context.Context, route, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("route", route), attribute.String("outcome", outcome))
	m.contentLookups.Add(ctx, 1, attrs)
	m.resolveDuration.Record(ctx, d.Seconds(), attrs)
}

// CacheLookup records a row cache hit or miss.
func (m *Metrics) CacheLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// ChatQuestion records an answered question.
func (m *Metrics) ChatQuestion(ctx context.Context) {
	if m == nil {
		return
	}
	m.chatQuestions.Add(ctx, 1)
}

// QuotaRejected records a question refused by the free limit.
func (m *Metrics) QuotaRejected(ctx context.Context) {
	if m == nil {
		return
	}
	m.quotaRejections.Add(ctx, 1)
}

// RateLimited records a request refused by the rate limiter.
func (m *Metrics) RateLimited(_ string) {
	if m == nil {
		return
	}
	m.rateLimited.Add(context.Background(), 1)
}

// RowsImported records rows created by one import.
func (m *Metrics) RowsImported(ctx context.Context, n int) {
	if m == nil {
		return
	}
	m.importedRows.Add(ctx, int64(n))
}

// MessageCreated records a stored contact message.
func (m *Metrics) MessageCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.messagesCreated.Add(ctx, 1)
}
