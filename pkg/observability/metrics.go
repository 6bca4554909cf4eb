package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/prperemyshlev/reply-assistant"

// PrometheusHandler returns a Gin handler for Prometheus metrics
func PrometheusHandler(handler http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if handler != nil {
			handler.ServeHTTP(c.Writer, c.Request)
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "metrics handler not initialized",
			})
		}
	}
}

// ReplyMetrics counts the business events of the reply workflow
type ReplyMetrics struct {
	drafts           metric.Int64Counter
	publishes        metric.Int64Counter
	callbacks        metric.Int64Counter
	externalFailures metric.Int64Counter
}

// NewReplyMetrics registers the reply counters on the given provider.
// A nil provider falls back to the global one.
func NewReplyMetrics(provider metric.MeterProvider) (*ReplyMetrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(meterName)

	drafts, err := meter.Int64Counter("reply_drafts_generated",
		metric.WithDescription("Reply drafts generated, by intent, strategy and status"))
	if err != nil {
		return nil, fmt.Errorf("failed to create drafts counter: %w", err)
	}

	publishes, err := meter.Int64Counter("reply_publishes",
		metric.WithDescription("Reply publish attempts, by result"))
	if err != nil {
		return nil, fmt.Errorf("failed to create publishes counter: %w", err)
	}

	callbacks, err := meter.Int64Counter("instagram_oauth_callbacks",
		metric.WithDescription("Instagram OAuth callbacks, by result"))
	if err != nil {
		return nil, fmt.Errorf("failed to create callbacks counter: %w", err)
	}

	externalFailures, err := meter.Int64Counter("external_call_failures",
		metric.WithDescription("Failed calls to Instagram and LLM providers"))
	if err != nil {
		return nil, fmt.Errorf("failed to create external failures counter: %w", err)
	}

	return &ReplyMetrics{
		drafts:           drafts,
		publishes:        publishes,
		callbacks:        callbacks,
		externalFailures: externalFailures,
	}, nil
}

// DraftGenerated records one persisted draft
func (m *ReplyMetrics) DraftGenerated(ctx context.Context, intent, strategy, status string) {
	if m == nil {
		return
	}
	m.drafts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("intent", intent),
		attribute.String("strategy", strategy),
		attribute.String("status", status),
	))
}

// Published records one publish attempt
func (m *ReplyMetrics) Published(ctx context.Context, success bool) {
	if m == nil {
		return
	}
	m.publishes.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result(success))))
}

// Callback records one OAuth callback outcome such as "linked" or "invalid_state"
func (m *ReplyMetrics) Callback(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.callbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("result", outcome)))
}

// ExternalFailure records a failed call to provider
func (m *ReplyMetrics) ExternalFailure(ctx context.Context, provider, operation string) {
	if m == nil {
		return
	}
	m.externalFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("operation", operation),
	))
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
