package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingStub struct{ err error }

func (p pingStub) PingContext(context.Context) error { return p.err }

func serve(t *testing.T, svc *Service) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc.RegisterRoutes(r.Group("/api/v1"))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	return resp
}

func TestHealthMemoryFallback(t *testing.T) {
	resp := serve(t, NewService(nil, ""))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"ok":true,"database":"memory","scoreProvider":"none"}`, resp.Body.String())
}

func TestHealthDatabaseOK(t *testing.T) {
	resp := serve(t, NewService(pingStub{}, "model:2024.1"))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"ok":true,"database":"ok","scoreProvider":"model:2024.1"}`, resp.Body.String())
}

func TestHealthDatabaseDown(t *testing.T) {
	resp := serve(t, NewService(pingStub{err: errors.New("refused")}, "remote"))
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Contains(t, resp.Body.String(), `"database":"unreachable"`)
	assert.NotContains(t, resp.Body.String(), "refused")
}
