package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/backoffice/internal/domain"
)

type staticStats struct {
	stats domain.OutboxStats
	err   error
}

func (s staticStats) Stats(context.Context) (domain.OutboxStats, error) { return s.stats, s.err }

func healthy(context.Context) error { return nil }

func TestHealthHandler(t *testing.T) {
	handler := NewHandler("v1.0.0")
	handler.RegisterChecker("storage", NewFuncChecker("storage", healthy))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var response Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Equal(t, StatusHealthy, response.Status)
	require.Equal(t, "v1.0.0", response.Version)
	require.Len(t, response.Checks, 1)
}

func TestHealthHandler_Unhealthy(t *testing.T) {
	handler := NewHandler("v1.0.0")
	handler.RegisterChecker("storage", NewFuncChecker("storage", func(context.Context) error {
		return errors.New("connection refused")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var response Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Equal(t, StatusUnhealthy, response.Status)
	require.Equal(t, "connection refused", response.Checks["storage"].Message)
}

func TestLivenessHandler(t *testing.T) {
	w := httptest.NewRecorder()
	LivenessHandler(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", w.Body.String())
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name    string
		checker Checker
		code    int
		body    string
	}{
		{
			name:    "ready",
			checker: NewFuncChecker("storage", healthy),
			code:    http.StatusOK,
			body:    "ready",
		},
		{
			name:    "degraded stays ready",
			checker: NewOutboxBacklogChecker(staticStats{stats: domain.OutboxStats{PendingCount: 5}}, 1),
			code:    http.StatusOK,
			body:    "ready",
		},
		{
			name: "not ready",
			checker: NewFuncChecker("storage", func(context.Context) error {
				return errors.New("not ready")
			}),
			code: http.StatusServiceUnavailable,
			body: "not ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler("v1.0.0")
			handler.RegisterChecker("component", tt.checker)

			w := httptest.NewRecorder()
			handler.ReadinessHandler(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			require.Equal(t, tt.code, w.Code)
			require.Equal(t, tt.body, w.Body.String())
		})
	}
}

func TestOutboxBacklogChecker(t *testing.T) {
	ctx := context.Background()

	check := NewOutboxBacklogChecker(staticStats{stats: domain.OutboxStats{PendingCount: 10}}, 100).Check(ctx)
	require.Equal(t, StatusHealthy, check.Status)

	check = NewOutboxBacklogChecker(staticStats{stats: domain.OutboxStats{PendingCount: 101}}, 100).Check(ctx)
	require.Equal(t, StatusDegraded, check.Status)
	require.Equal(t, "pending=101 exceeds 100", check.Message)

	check = NewOutboxBacklogChecker(staticStats{stats: domain.OutboxStats{PendingCount: 5000}}, 0).Check(ctx)
	require.Equal(t, StatusHealthy, check.Status)

	check = NewOutboxBacklogChecker(staticStats{err: errors.New("boom")}, 100).Check(ctx)
	require.Equal(t, StatusUnhealthy, check.Status)
}

func TestEvaluate_DegradedOverall(t *testing.T) {
	handler := NewHandler("dev")
	handler.RegisterChecker("storage", NewFuncChecker("storage", healthy))
	handler.RegisterChecker("outbox", NewOutboxBacklogChecker(staticStats{stats: domain.OutboxStats{PendingCount: 2}}, 1))

	require.Equal(t, StatusDegraded, handler.Evaluate(context.Background()).Status)
}
