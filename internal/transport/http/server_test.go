package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiaot623/serenai/internal/config"
	"github.com/xiaot623/serenai/internal/hub"
	"github.com/xiaot623/serenai/internal/metrics"
	"github.com/xiaot623/serenai/internal/policy"
	"github.com/xiaot623/serenai/internal/service"
	"github.com/xiaot623/serenai/internal/testhelpers"
	"github.com/xiaot623/serenai/internal/ws"
)

func newPublic(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	store := testhelpers.NewTestSQLiteStore(t)
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)
	svc := service.New(store, engine, zap.NewNop())
	h := hub.NewHub(zap.NewNop(), nil)
	return NewPublicServer(cfg, svc, h, ws.NewServer(cfg, h, svc, zap.NewNop(), nil))
}

func get(handler http.Handler, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestPublicServerRateLimitsAPI(t *testing.T) {
	cfg := &config.Config{ClientURL: "http://localhost:3000", APIRateLimit: 2, APIRateWindow: time.Hour}
	srv := newPublic(t, cfg)

	assert.Equal(t, http.StatusOK, get(srv, "/v1/circles", nil).Code)
	assert.Equal(t, http.StatusOK, get(srv, "/v1/circles", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(srv, "/v1/circles", nil).Code)

	// health is outside the limited group
	assert.Equal(t, http.StatusOK, get(srv, "/health", nil).Code)
}

func TestPublicServerCORS(t *testing.T) {
	cfg := &config.Config{ClientURL: "http://localhost:3000"}
	srv := newPublic(t, cfg)

	rec := get(srv, "/health", map[string]string{"Origin": "http://localhost:3000"})
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = get(srv, "/health", map[string]string{"Origin": "http://evil.example"})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestPublicServerRequiresTokenWhenSecretUnset(t *testing.T) {
	srv := newPublic(t, &config.Config{ClientURL: "*"})

	rec := get(srv, "/v1/moods/history", map[string]string{
		"Authorization": "Bearer " + testhelpers.SignToken(t, "anything", "u1"),
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInternalServer(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	h := hub.NewHub(zap.NewNop(), m)
	srv := NewInternalServer(h, reg)

	rec := get(srv, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"connections":0`)
	assert.Contains(t, rec.Body.String(), `"circles":0`)

	m.Liked()
	rec = get(srv, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "serenai_circle_likes_total 1"))
}
