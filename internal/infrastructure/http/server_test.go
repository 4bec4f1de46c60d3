package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rezkam/boardly/internal/application/board"
	"github.com/rezkam/boardly/internal/infrastructure/http/handler"
	"github.com/rezkam/boardly/internal/infrastructure/persistence/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, cfg ServerConfig) *httptest.Server {
	t.Helper()
	svc := board.NewService(memory.NewStore(), board.Config{})
	api := NewAPIServer(handler.NewRouter(svc), cfg)
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestServer_HealthAndVersionedRoutes(t *testing.T) {
	srv := newTestServer(t, ServerConfig{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/v1/boards", "application/json", strings.NewReader(`{"title":"Roadmap"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body map[string]handler.BoardDTO
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Roadmap", body["board"].Title)

	resp, err = http.Get(srv.URL + "/boards")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_EnforcesMaxBody(t *testing.T) {
	srv := newTestServer(t, ServerConfig{MaxBodyBytes: 32})

	resp, err := http.Post(srv.URL+"/v1/boards", "application/json",
		strings.NewReader(`{"title":"`+strings.Repeat("x", 64)+`"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestMaxHeaderBytes_EnforcesLimit(t *testing.T) {
	// net/http adds roughly 4KB of slack on top of MaxHeaderBytes.
	const maxHeaderBytes = 4 * 1024

	server := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	server.Config.MaxHeaderBytes = maxHeaderBytes
	server.Start()
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL+"/", nil)
	require.NoError(t, err)
	req.Header.Set("X-Test", strings.Repeat("A", 20*1024))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		// A dropped connection is also a rejection.
		return
	}
	defer resp.Body.Close()
	assert.Equal(t, http.StatusRequestHeaderFieldsTooLarge, resp.StatusCode)
}

func TestServerConfig_ApplyDefaults(t *testing.T) {
	t.Run("applies all defaults for zero config", func(t *testing.T) {
		cfg := ServerConfig{}
		cfg.applyDefaults()

		assert.Equal(t, DefaultPort, cfg.Port)
		assert.Equal(t, DefaultReadTimeout, cfg.ReadTimeout)
		assert.Equal(t, DefaultWriteTimeout, cfg.WriteTimeout)
		assert.Equal(t, DefaultIdleTimeout, cfg.IdleTimeout)
		assert.Equal(t, DefaultReadHeaderTimeout, cfg.ReadHeaderTimeout)
		assert.Equal(t, DefaultMaxHeaderBytes, cfg.MaxHeaderBytes)
		assert.Equal(t, int64(DefaultMaxBodyBytes), cfg.MaxBodyBytes)
	})

	t.Run("preserves non-zero values", func(t *testing.T) {
		cfg := ServerConfig{Port: "9000", MaxHeaderBytes: 2048, MaxBodyBytes: 4096}
		cfg.applyDefaults()

		assert.Equal(t, "9000", cfg.Port)
		assert.Equal(t, 2048, cfg.MaxHeaderBytes)
		assert.Equal(t, int64(4096), cfg.MaxBodyBytes)
		assert.Equal(t, DefaultReadTimeout, cfg.ReadTimeout)
	})
}
