package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wgnst/config"
	"wgnst/internal/auth"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Logging.Level = "error"
	cfg.Auth.JWTSecret = "test-secret-test-secret-test-secret"
	cfg.Download.PublicBaseURL = "https://vpn.example.com"
	cfg.Download.DefaultLimit = 1
	cfg.Download.DefaultTTL = time.Hour
	cfg.Download.RatePerMinute = 30
	cfg.QR.Mode = "off"
	return cfg
}

func newApp(t *testing.T) *App {
	t.Helper()
	a := &App{}
	require.NoError(t, a.Initialize(testConfig()))
	return a
}

func serve(a *App, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

func TestApp_HealthAndAuth(t *testing.T) {
	a := newApp(t)

	w := serve(a, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(a, httptest.NewRequest(http.MethodGet, "/api/clients", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	tok, err := auth.IssueJWT(a.cfg.Auth.JWTSecret, "owner", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w = serve(a, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestApp_DownloadIsPublic(t *testing.T) {
	a := newApp(t)
	for _, path := range []string{"/download/nope", "/api/download/nope"} {
		w := serve(a, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Contains(t, w.Body.String(), "file not found")
	}
}

func TestApp_RunRequiresInit(t *testing.T) {
	assert.Error(t, (&App{}).Run())
}
