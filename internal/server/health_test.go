package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/rejectlabel/internal/config"
	"github.com/teemow/rejectlabel/internal/triage"
)

func newTestServerContext(t *testing.T) *ServerContext {
	t.Helper()
	sc, err := NewServerContext(context.Background(), Options{
		Pipeline: triage.NewPipeline(triage.PipelineConfig{}),
		Rules:    config.Default(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestHealthChecker_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(h *HealthChecker, sc *ServerContext)
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name:       "ready",
			setup:      func(*HealthChecker, *ServerContext) {},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"ready": "ok", "shutdown": "ok"},
		},
		{
			name:       "not ready",
			setup:      func(h *HealthChecker, _ *ServerContext) { h.SetReady(false) },
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"ready": "not ready", "shutdown": "ok"},
		},
		{
			name:       "shutting down",
			setup:      func(_ *HealthChecker, sc *ServerContext) { _ = sc.Shutdown() },
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"ready": "ok", "shutdown": "shutting down"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newTestServerContext(t)
			h := NewHealthChecker(sc)
			tt.setup(h, sc)

			rec := httptest.NewRecorder()
			h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var resp HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantChecks, resp.Checks)
		})
	}
}

func TestHealthChecker_Liveness(t *testing.T) {
	h := NewHealthChecker(nil)
	h.SetReady(false)

	rec := httptest.NewRecorder()
	h.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestHealthChecker_DetailedReportsLastRun(t *testing.T) {
	sc := newTestServerContext(t)
	sc.RecordRun(triage.Report{RunID: "r1", Found: 3, Labeled: 2, State: triage.StateFailed})
	sc.RecordRun(triage.Report{RunID: "r2", Found: 4, Labeled: 4, State: triage.StateDone})

	rec := httptest.NewRecorder()
	NewHealthChecker(sc).DetailedHealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/detailed", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DetailedHealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Runs)
	require.NotNil(t, resp.LastRun)
	assert.Equal(t, "r2", resp.LastRun.RunID)
	assert.Equal(t, 4, resp.LastRun.Labeled)
}
