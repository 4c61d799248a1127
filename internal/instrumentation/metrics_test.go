package instrumentation

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	return m, reader
}

func collectSum(t *testing.T, reader *sdkmetric.ManualReader, name string) (int64, []attribute.Set) {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	var total int64
	var sets []attribute.Set
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %s is %T, want Sum[int64]", name, m.Data)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
				sets = append(sets, dp.Attributes)
			}
		}
	}
	return total, sets
}

func TestMetrics_RecordGoogleAPIOperation(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordGoogleAPIOperation(ctx, ServiceGmail, "messages.list", StatusSuccess, 200*time.Millisecond)
	m.RecordGoogleAPIOperation(ctx, ServiceGmail, "messages.list", StatusSuccess, 100*time.Millisecond)
	m.RecordGoogleAPIOperation(ctx, ServiceGmail, "messages.batchModify", StatusError, 50*time.Millisecond)

	total, sets := collectSum(t, reader, "google_api_operations_total")
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(sets) != 2 {
		t.Errorf("expected 2 distinct attribute sets, got %d", len(sets))
	}
}

func TestMetrics_RecordOAuth(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordOAuthAuth(ctx, OAuthMethodCached, OAuthResultSuccess)
	m.RecordOAuthAuth(ctx, OAuthMethodInteractive, OAuthResultFailure)
	m.RecordOAuthTokenRefresh(ctx, OAuthResultSuccess)

	if total, _ := collectSum(t, reader, "oauth_auth_total"); total != 2 {
		t.Errorf("oauth_auth_total = %d, want 2", total)
	}
	if total, _ := collectSum(t, reader, "oauth_token_refresh_total"); total != 1 {
		t.Errorf("oauth_token_refresh_total = %d, want 1", total)
	}
}

func TestMetrics_RecordPipelineRun(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordPipelineRun(ctx, StatusSuccess, 5, 5)
	m.RecordPipelineRun(ctx, StatusError, 3, 0)

	if total, _ := collectSum(t, reader, "triage_runs_total"); total != 2 {
		t.Errorf("triage_runs_total = %d, want 2", total)
	}
	if total, _ := collectSum(t, reader, "messages_found_total"); total != 8 {
		t.Errorf("messages_found_total = %d, want 8", total)
	}
	if total, _ := collectSum(t, reader, "messages_labeled_total"); total != 5 {
		t.Errorf("messages_labeled_total = %d, want 5", total)
	}
}

func TestMetrics_RecordToolInvocation(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordToolInvocation(context.Background(), "gmail_search_rejections", StatusSuccess, time.Second)

	if total, _ := collectSum(t, reader, "mcp_tool_invocations_total"); total != 1 {
		t.Errorf("mcp_tool_invocations_total = %d, want 1", total)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	ctx := context.Background()
	for _, m := range []*Metrics{nil, {}} {
		// Should not panic
		m.RecordGoogleAPIOperation(ctx, ServiceGmail, "labels.list", StatusSuccess, time.Millisecond)
		m.RecordOAuthAuth(ctx, OAuthMethodRefresh, OAuthResultSuccess)
		m.RecordOAuthTokenRefresh(ctx, OAuthResultExpired)
		m.RecordPipelineRun(ctx, StatusSuccess, 1, 1)
		m.RecordToolInvocation(ctx, "tool", StatusSuccess, time.Millisecond)
	}
}
