package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/invcache"
	promhooks "github.com/unkn0wn-root/invcache/hooks/prom"
	"github.com/unkn0wn-root/invcache/internal/testkit"
	"github.com/unkn0wn-root/invcache/internal/users"
)

type env struct {
	p      *testkit.MemProvider
	router *gin.Engine
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := prometheus.NewRegistry()
	hooks, err := promhooks.New("invcache", reg)
	require.NoError(t, err)

	p := testkit.NewMemProvider()
	store, err := invcache.NewStore(invcache.Options{Provider: p, Hooks: hooks, RetryDelay: time.Millisecond})
	require.NoError(t, err)
	repo := users.NewMemoryRepository(invcache.NewInvalidator(store))
	svc, err := users.NewCachedService(repo, store, users.ServiceOptions{})
	require.NoError(t, err)

	return &env{p: p, router: NewRouter(Config{
		Users:    svc,
		Admin:    invcache.NewAdmin(store),
		Gatherer: reg,
	})}
}

func (e *env) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestUserLifecycle(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/api/users", `{"name":"ann","email":"ann@example.com"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created users.Payload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, uint64(1), created.ID)
	assert.True(t, created.Enabled)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))

	w = e.do(t, http.MethodGet, "/api/users", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, e.p.Has("user_list"))

	w = e.do(t, http.MethodGet, "/api/users/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, e.p.Has("user_1"))

	w = e.do(t, http.MethodPatch, "/api/users/1", `{"name":"anna"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, e.p.Has("user_1"))
	assert.False(t, e.p.Has("user_list"))

	w = e.do(t, http.MethodGet, "/api/users/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"anna"`)

	w = e.do(t, http.MethodDelete, "/api/users/1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = e.do(t, http.MethodGet, "/api/users/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBadRequests(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/api/users/abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPost, "/api/users", `{"name":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPost, "/api/users", `{`).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodPut, "/api/users/9", `{"name":"x"}`).Code)
}

func TestCacheEndpoints(t *testing.T) {
	e := newEnv(t)
	e.do(t, http.MethodPost, "/api/users", `{"name":"ann","email":"ann@example.com"}`)
	e.do(t, http.MethodGet, "/api/users", "")
	e.do(t, http.MethodGet, "/api/users/1", "")

	w := e.do(t, http.MethodGet, "/api/cache/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, float64(2), stats["total_keys"])
	assert.Contains(t, stats, "hit_rate")

	w = e.do(t, http.MethodPost, "/api/cache/clear", "")
	require.Equal(t, http.StatusOK, w.Code)
	var clr ClearResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &clr))
	assert.Equal(t, ClearResponse{Status: "success", Message: "Cleared 2 cache entries"}, clr)

	w = e.do(t, http.MethodPost, "/api/cache/clear", "")
	assert.Contains(t, w.Body.String(), "Cleared 0 cache entries")
}

func TestStatsFailureStill200(t *testing.T) {
	e := newEnv(t)
	e.p.SetDown(true)
	w := e.do(t, http.MethodGet, "/api/cache/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"error":`+mustQuote(t, stringField(t, w.Body.Bytes(), "error"))+`,"total_keys":0,"keys":[]}`, w.Body.String())
}

func TestReadsServedWhileCacheDown(t *testing.T) {
	e := newEnv(t)
	e.do(t, http.MethodPost, "/api/users", `{"name":"ann","email":"ann@example.com"}`)
	e.p.SetDown(true)
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/api/users/1", "").Code)
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/api/users", "").Code)
}

func TestMetricsAndHealth(t *testing.T) {
	e := newEnv(t)
	e.do(t, http.MethodPost, "/api/users", `{"name":"ann","email":"ann@example.com"}`)
	e.do(t, http.MethodGet, "/api/users/1", "")
	e.do(t, http.MethodGet, "/api/users/1", "")

	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/healthz", "").Code)
	w := e.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `invcache_cache_requests_total{prefix="user",result="hit"} 1`)
}

func stringField(t *testing.T, b []byte, key string) string {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	s, _ := m[key].(string)
	require.NotEmpty(t, s)
	return s
}

func mustQuote(t *testing.T, s string) string {
	t.Helper()
	b, err := json.Marshal(s)
	require.NoError(t, err)
	return string(b)
}
