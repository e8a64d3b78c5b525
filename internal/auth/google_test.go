package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"stress-backend/internal/users"
)

type fakeSessions struct {
	got users.User
}

func (f *fakeSessions) UpsertFromAuth(_ context.Context, user users.User) (users.Session, error) {
	f.got = user
	return users.Session{User: user, Token: "signed-token"}, nil
}

func newGoogleRouter(svc *GoogleService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestGoogleStartNotConfigured(t *testing.T) {
	router := newGoogleRouter(NewGoogleService("", "", "", "", nil))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Contains(t, resp.Body.String(), "auth_not_configured")
}

func TestGoogleCallbackRejectsUnknownState(t *testing.T) {
	router := newGoogleRouter(NewGoogleService("id", "secret", "http://localhost/cb", "http://ui", &fakeSessions{}))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state=nope&code=abc", nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback", nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGoogleFlowUpsertsUserAndRedirectsWithToken(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/token":
			_, _ = w.Write([]byte(`{"access_token":"access","token_type":"Bearer","expires_in":3600}`))
		case "/userinfo":
			if r.Header.Get("Authorization") != "Bearer access" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(`{"id":"123","email":"Nour@Example.com","name":"Nour Ali","given_name":"Nour","family_name":"Ali"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer provider.Close()

	sessions := &fakeSessions{}
	svc := NewGoogleService("id", "secret", "http://localhost/cb", "http://ui.local/auth/done", sessions)
	svc.oauthConfig.Endpoint = oauth2.Endpoint{AuthURL: provider.URL + "/auth", TokenURL: provider.URL + "/token"}
	svc.userInfoURL = provider.URL + "/userinfo"
	router := newGoogleRouter(svc)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	require.Equal(t, http.StatusFound, resp.Code)
	loc, err := url.Parse(resp.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?code=abc&state="+state, nil))
	require.Equal(t, http.StatusFound, resp.Code, resp.Body.String())

	redirect, err := url.Parse(resp.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "ui.local", redirect.Host)
	assert.Equal(t, "signed-token", redirect.Query().Get("token"))

	assert.Equal(t, "google:123", sessions.got.ID)
	assert.Equal(t, "Nour", sessions.got.FirstName)
	assert.Equal(t, users.ProviderGoogle, sessions.got.Provider)

	// state is single use
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?code=abc&state="+state, nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAppendToken(t *testing.T) {
	got, err := appendToken("http://ui.local/done?x=1", "tok")
	require.NoError(t, err)
	assert.Equal(t, "http://ui.local/done?token=tok&x=1", got)

	_, err = appendToken("", "tok")
	assert.Error(t, err)
}
