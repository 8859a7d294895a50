package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/l3aro/flowstruct/internal/config"
	"github.com/l3aro/flowstruct/pkg/cache"
	"github.com/l3aro/flowstruct/pkg/flow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pythonSnippet = "def greet(name):\n    if name:\n        return name"

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	for _, m := range mutate {
		m(cfg)
	}
	return New(cfg, nil, "test")
}

func body(t *testing.T, code, language string) *strings.Reader {
	t.Helper()
	data, err := json.Marshal(CodeRequest{Code: code, Language: language})
	require.NoError(t, err)
	return strings.NewReader(string(data))
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t)

	t.Run("returns health payload", func(t *testing.T) {
		w := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var resp HealthResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, ServiceName, resp.Service)
		assert.Equal(t, "test", resp.Version)
		assert.NotEmpty(t, resp.Timestamp)
		assert.NotEmpty(t, resp.Details["go_version"])
	})

	t.Run("rejects POST", func(t *testing.T) {
		w := serve(s, httptest.NewRequest(http.MethodPost, "/health", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestDetectHandler(t *testing.T) {
	s := newTestServer(t)

	w := serve(s, httptest.NewRequest(http.MethodPost, "/api/detect", body(t, pythonSnippet, "")))
	require.Equal(t, http.StatusOK, w.Code)

	var resp DetectResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, flow.Python, resp.Language)
	require.Len(t, resp.Scores, 5)
	assert.Equal(t, flow.Python, resp.Scores[0].Language)
	assert.Positive(t, resp.Scores[0].Votes)
}

func TestParseHandler(t *testing.T) {
	t.Run("parses and reports stats", func(t *testing.T) {
		s := newTestServer(t)
		w := serve(s, httptest.NewRequest(http.MethodPost, "/api/parse", body(t, pythonSnippet, "")))
		require.Equal(t, http.StatusOK, w.Code)

		var resp ParseResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, flow.Python, resp.Language)
		require.Len(t, resp.Nodes, 3)
		assert.Len(t, resp.Connections, 2)
		assert.Equal(t, "def greet(name):", resp.Nodes[0].Content)
		assert.Equal(t, 3, resp.Stats.TotalLines)
		assert.Equal(t, 1, resp.Stats.FunctionLines)
		assert.Equal(t, 1, resp.Stats.ConditionalLines)
		assert.False(t, resp.Cached)
	})

	t.Run("second request is served from cache", func(t *testing.T) {
		s := newTestServer(t)
		serve(s, httptest.NewRequest(http.MethodPost, "/api/parse", body(t, pythonSnippet, "")))
		w := serve(s, httptest.NewRequest(http.MethodPost, "/api/parse", body(t, pythonSnippet, "")))

		var resp ParseResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.True(t, resp.Cached)
		assert.Equal(t, int64(1), s.Cache().Stats().HitCount)
	})

	t.Run("forced language", func(t *testing.T) {
		s := newTestServer(t)
		w := serve(s, httptest.NewRequest(http.MethodPost, "/api/parse", body(t, "import os\nx = 1", "js")))
		require.Equal(t, http.StatusOK, w.Code)

		var resp ParseResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, flow.JavaScript, resp.Language)
		require.Len(t, resp.Nodes, 1)
		assert.Equal(t, "x = 1", resp.Nodes[0].Content)
	})

	t.Run("pretty output is indented", func(t *testing.T) {
		s := newTestServer(t)
		w := serve(s, httptest.NewRequest(http.MethodPost, "/api/parse?pretty=true", body(t, "x = 1", "")))
		assert.Contains(t, w.Body.String(), "\n  \"nodes\"")
	})

	t.Run("rejects unknown language", func(t *testing.T) {
		s := newTestServer(t)
		w := serve(s, httptest.NewRequest(http.MethodPost, "/api/parse", body(t, "x", "cobol")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects GET", func(t *testing.T) {
		s := newTestServer(t)
		w := serve(s, httptest.NewRequest(http.MethodGet, "/api/parse", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})

	t.Run("rejects invalid JSON", func(t *testing.T) {
		s := newTestServer(t)
		w := serve(s, httptest.NewRequest(http.MethodPost, "/api/parse", strings.NewReader("{not json")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects oversized body", func(t *testing.T) {
		s := newTestServer(t, func(c *config.Config) { c.MaxInputBytes = 32 })
		big := strings.Repeat("x = 1\n", 100)
		w := serve(s, httptest.NewRequest(http.MethodPost, "/api/parse", body(t, big, "")))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), ErrInputTooLarge.Error())
	})
}

func TestRenderHandler(t *testing.T) {
	s := newTestServer(t)

	t.Run("defaults to svg", func(t *testing.T) {
		w := serve(s, httptest.NewRequest(http.MethodPost, "/api/render", body(t, pythonSnippet, "")))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
		assert.True(t, strings.HasPrefix(w.Body.String(), "<svg"))
		assert.Equal(t, 3, strings.Count(w.Body.String(), `class="flow-node`))
	})

	t.Run("applies zoom", func(t *testing.T) {
		w := serve(s, httptest.NewRequest(http.MethodPost, "/api/render?zoom=2", body(t, pythonSnippet, "")))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `width="1300" height="900"`)
	})

	t.Run("mermaid", func(t *testing.T) {
		w := serve(s, httptest.NewRequest(http.MethodPost, "/api/render?format=mermaid", body(t, pythonSnippet, "")))
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, strings.HasPrefix(w.Body.String(), "graph TD"))
	})

	t.Run("rejects unknown format", func(t *testing.T) {
		w := serve(s, httptest.NewRequest(http.MethodPost, "/api/render?format=png", body(t, "x", "")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects bad zoom", func(t *testing.T) {
		w := serve(s, httptest.NewRequest(http.MethodPost, "/api/render?zoom=big", body(t, "x", "")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.CORSAllowedOrigin = "https://flow.example" })

	t.Run("preflight returns no content", func(t *testing.T) {
		w := serve(s, httptest.NewRequest(http.MethodOptions, "/api/parse", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://flow.example", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("headers on regular responses", func(t *testing.T) {
		w := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, "https://flow.example", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
	})
}

func TestServe_PersistsCacheOnShutdown(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "state", "cache.msgpack")
	s := newTestServer(t, func(c *config.Config) { c.CachePath = cachePath })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Post("http://"+ln.Addr().String()+"/api/parse", "application/json", body(t, pythonSnippet, ""))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("server did not shut down")
	}

	_, err = os.Stat(cachePath)
	require.NoError(t, err)

	restored := cache.New(cache.Options{MaxSize: 10})
	require.NoError(t, cache.LoadFromFile(restored, cachePath))
	result, ok := restored.Get(cache.Key("", pythonSnippet))
	require.True(t, ok)
	assert.Len(t, result.Nodes, 3)
}

func TestServe_IgnoresCorruptCache(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "cache.msgpack")
	require.NoError(t, os.WriteFile(cachePath, []byte("garbage"), 0644))
	s := newTestServer(t, func(c *config.Config) { c.CachePath = cachePath })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, s.Serve(ctx, ln))
	assert.Equal(t, 0, s.Cache().Len())
}
