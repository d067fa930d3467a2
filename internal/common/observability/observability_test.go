package observability

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestObservability_RecordsIntoRegistry(t *testing.T) {
	reg := promclient.NewRegistry()
	o := NewWithRegisterer("muse-test", reg)
	defer o.Shutdown(context.Background())

	ctx := context.Background()
	o.RecordJobProcessed(ctx, "generate-outfit", "completed")
	o.RecordJobDuration(ctx, "generate-outfit", 120*time.Millisecond, "completed")
	o.RecordAICall(ctx, "outfit", 2*time.Second, "ok")

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	joined := strings.Join(names, ",")
	assert.Contains(t, joined, "jobs.processed_total")
	assert.Contains(t, joined, "stylist.calls_total")
}

func TestObservability_StartSpan(t *testing.T) {
	o := NewWithRegisterer("muse-test", promclient.NewRegistry())
	defer o.Shutdown(context.Background())

	ctx, span := o.StartSpan(context.Background(), "genai.generate", attribute.String("kind", "outfit"))
	require.NotNil(t, ctx)
	assert.True(t, span.SpanContext().IsValid())
	EndSpan(span, fmt.Errorf("boom"))
}

func TestObservability_NilSafe(t *testing.T) {
	var o *Observability
	assert.NotPanics(t, func() {
		_, span := o.StartSpan(context.Background(), "noop")
		EndSpan(span, nil)
		o.RecordAICall(context.Background(), "chat", time.Second, "ok")
		o.RecordJobProcessed(context.Background(), "x", "ok")
		o.Shutdown(context.Background())
	})
}
