package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stress-backend/internal/predictions"
	"stress-backend/internal/services/health"
	"stress-backend/internal/shared/auth"
	"stress-backend/internal/shared/config"
	"stress-backend/internal/shared/server/middleware"
	"stress-backend/internal/stress"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	signer, err := auth.NewSigner("test-secret", time.Hour, "dev")
	require.NoError(t, err)
	engine, err := stress.NewEngine(stress.ProviderFunc(func(context.Context, stress.FeatureVector) (float64, error) {
		return 5, nil
	}), stress.Options{})
	require.NoError(t, err)

	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	return NewRouter(RouterDeps{
		Config:            config.Config{PredictRate: 1, PredictBurst: 2},
		Verifier:          signer,
		Health:            health.NewService(nil, "model:test"),
		PredictionHandler: predictions.NewHandler(&predictions.Service{Engine: engine, Repo: predictions.NewMemoryRepo()}),
		Limiter:           middleware.NewRateLimiter(func() time.Time { return now }),
	})
}

func serve(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestRouterPublicRoutes(t *testing.T) {
	r := newTestRouter(t)

	resp := serve(r, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"scoreProvider":"model:test"`)
	assert.NotEmpty(t, resp.Header().Get("X-Request-Id"))

	resp = serve(r, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "predictions_total")
}

func TestRouterRateLimitsPredict(t *testing.T) {
	r := newTestRouter(t)
	guest := map[string]string{"X-Guest-Id": "router-test"}

	for i := 0; i < 2; i++ {
		resp := serve(r, http.MethodPost, "/api/v1/predict", `{}`, guest)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	}
	resp := serve(r, http.MethodPost, "/api/v1/predict", `{}`, guest)
	require.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "1", resp.Header().Get("Retry-After"))

	other := serve(r, http.MethodPost, "/api/v1/predict", `{}`, map[string]string{"X-Guest-Id": "someone-else"})
	assert.Equal(t, http.StatusOK, other.Code)
}

func TestRouterRequiresIdentity(t *testing.T) {
	r := newTestRouter(t)

	resp := serve(r, http.MethodPost, "/api/v1/predict", `{}`, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAddr(t *testing.T) {
	assert.Equal(t, ":8080", Addr(""))
	assert.Equal(t, ":9000", Addr("9000"))
	assert.Equal(t, ":9000", Addr(":9000"))
}
