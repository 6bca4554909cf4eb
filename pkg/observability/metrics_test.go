package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				totals[m.Name] += dp.Value
			}
		}
	}
	return totals
}

func TestReplyMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewReplyMetrics(provider)
	require.NoError(t, err)

	ctx := context.Background()
	m.DraftGenerated(ctx, "lead", "template", "draft")
	m.DraftGenerated(ctx, "risk", "prompt", "hold")
	m.Published(ctx, true)
	m.Published(ctx, false)
	m.Callback(ctx, "linked")
	m.ExternalFailure(ctx, "instagram", "publish")

	totals := collect(t, reader)
	assert.Equal(t, int64(2), totals["reply_drafts_generated"])
	assert.Equal(t, int64(2), totals["reply_publishes"])
	assert.Equal(t, int64(1), totals["instagram_oauth_callbacks"])
	assert.Equal(t, int64(1), totals["external_call_failures"])
}

func TestReplyMetrics_NilIsNoop(t *testing.T) {
	var m *ReplyMetrics
	assert.NotPanics(t, func() {
		m.DraftGenerated(context.Background(), "qa", "template", "draft")
		m.Published(context.Background(), true)
		m.Callback(context.Background(), "linked")
		m.ExternalFailure(context.Background(), "openai", "generate")
	})
}
