package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"todoevents/internal/config"
	"todoevents/internal/dto"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestApp(t *testing.T, env map[string]string) *App {
	t.Helper()
	t.Setenv("STORE_DRIVER", config.DriverMemory)
	t.Setenv("RABBITMQ_ENABLED", "false")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("APP_ENV", "dev")
	t.Setenv("VERSION", "1.2.3")
	for k, v := range env {
		t.Setenv(k, v)
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := New(context.Background(), cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestApp_ServiceEndpoints(t *testing.T) {
	a := newTestApp(t, nil)

	w := do(t, a.Router(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"env":"dev"}`, w.Body.String())

	w = do(t, a.Router(), http.MethodGet, "/version", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"version":"1.2.3"}`, w.Body.String())

	w = do(t, a.Router(), http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"store":"memory"`)

	w = do(t, a.Router(), http.MethodGet, "/swagger", nil)
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestApp_TodoLifecycle(t *testing.T) {
	a := newTestApp(t, nil)
	h := a.Router()

	w := do(t, h, http.MethodPost, "/api/v1/todos", map[string]any{"title": "Buy milk", "description": "2%"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created dto.TodoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.Completed)

	w = do(t, h, http.MethodPatch, "/api/v1/todos/"+created.ID, map[string]any{"completed": true})
	require.Equal(t, http.StatusOK, w.Code)
	var updated dto.TodoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.True(t, updated.Completed)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	w = do(t, h, http.MethodGet, "/api/v1/todos", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list dto.ListTodosResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, updated, list.Items[0])

	w = do(t, h, http.MethodDelete, "/api/v1/todos/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/api/v1/todos/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApp_RedisListCache(t *testing.T) {
	mr := miniredis.RunT(t)
	a := newTestApp(t, map[string]string{"REDIS_ADDR": mr.Addr()})
	h := a.Router()

	w := do(t, h, http.MethodPost, "/api/v1/todos", map[string]any{"title": "a", "description": "b"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.False(t, mr.Exists("todos"))

	w = do(t, h, http.MethodGet, "/api/v1/todos", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mr.Exists("todos"))

	w = do(t, h, http.MethodPost, "/api/v1/todos", map[string]any{"title": "c", "description": "d"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.False(t, mr.Exists("todos"), "write must invalidate the cached list")
}

func TestApp_UnreachableRedisIsNotFatal(t *testing.T) {
	a := newTestApp(t, map[string]string{"REDIS_ADDR": "127.0.0.1:1"})

	w := do(t, a.Router(), http.MethodPost, "/api/v1/todos", map[string]any{"title": "a", "description": "b"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = do(t, a.Router(), http.MethodGet, "/api/v1/todos", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCorsConfig(t *testing.T) {
	assert.True(t, corsConfig("*").AllowAllOrigins)
	assert.True(t, corsConfig("").AllowAllOrigins)

	c := corsConfig("http://a.test, http://b.test")
	assert.False(t, c.AllowAllOrigins)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, c.AllowOrigins)
}
