package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wgnst/internal/db"
)

func serve(t *testing.T, deps Deps, path string) *httptest.ResponseRecorder {
	t.Helper()
	r := mux.NewRouter()
	RegisterRoutes(r, deps)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestLiveness(t *testing.T) {
	w := serve(t, Deps{}, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok\n", w.Body.String())
}

func TestReadiness_Memory(t *testing.T) {
	w := serve(t, Deps{}, "/readyz")
	require.Equal(t, http.StatusOK, w.Code)
	var st status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, status{Status: "ok", Storage: "memory", Limiter: "memory"}, st)
}

func TestReadiness_SQLite(t *testing.T) {
	d, err := db.Open("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	w := serve(t, Deps{DB: d}, "/readyz")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"storage":"database"`)
}

func TestReadiness_RedisDown(t *testing.T) {
	rc := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer rc.Close()
	w := serve(t, Deps{Redis: rc}, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis unreachable")
}
