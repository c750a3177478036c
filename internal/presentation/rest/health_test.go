package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentqx/crewrisk/internal/infrastructure/memory"
	"github.com/talentqx/crewrisk/internal/presentation/rest"
)

func newMux(checks map[string]rest.Checker, metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	rest.NewHealthHandler("crewrisk", checks, metrics, slog.New(slog.NewTextHandler(io.Discard, nil))).RegisterRoutes(mux)
	return mux
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newMux(nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp rest.HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "crewrisk", resp.Service)
}

func TestReadyz(t *testing.T) {
	t.Run("ready when every check passes", func(t *testing.T) {
		mux := newMux(map[string]rest.Checker{"store": memory.NewStore()}, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp rest.ReadinessResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "ready", resp.Status)
		assert.Equal(t, "ok", resp.Checks["store"])
	})

	t.Run("unavailable when a check fails", func(t *testing.T) {
		mux := newMux(map[string]rest.Checker{
			"store": memory.NewStore(),
			"kafka": rest.CheckerFunc(func(context.Context) error { return errors.New("no brokers reachable") }),
		}, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var resp rest.ReadinessResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "not_ready", resp.Status)
		assert.Equal(t, "ok", resp.Checks["store"])
		assert.Equal(t, "no brokers reachable", resp.Checks["kafka"])
	})
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "crewrisk_evaluations_total 3\n")
	})

	rec := httptest.NewRecorder()
	newMux(nil, metrics).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "crewrisk_evaluations_total")

	rec = httptest.NewRecorder()
	newMux(nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
