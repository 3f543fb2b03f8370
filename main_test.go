package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sp3dr4/finch/internal/cache"
	"github.com/sp3dr4/finch/internal/domain"
	"github.com/sp3dr4/finch/internal/infrastructure/memory"
)

func newDemoTestServer(t *testing.T) (*httptest.Server, *memory.Issuer) {
	t.Helper()

	issuer := memory.NewIssuer(demoExpirySeconds)
	c := cache.New(issuer, cache.Config{
		Debounce:      5 * time.Millisecond,
		DefaultExpiry: demoExpirySeconds * time.Second,
	}, nil, nil, nil)

	srv := httptest.NewServer(newDemoRouter(c))
	t.Cleanup(func() {
		srv.Close()
		_ = c.Close()
	})
	return srv, issuer
}

func TestDemoHealthEndpoint(t *testing.T) {
	srv, _ := newDemoTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDemoGetURL(t *testing.T) {
	srv, _ := newDemoTestServer(t)

	t.Run("seeds from fallback on first access", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/urls/case1/1?fallback=https://cdn.example/seed")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			URL     string `json:"url"`
			Version uint64 `json:"version"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "https://cdn.example/seed", body.URL)
		assert.Equal(t, uint64(1), body.Version)
	})

	t.Run("rejects unknown slot without fallback", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/urls/case9/0")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects non-integer index", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/urls/case1/abc")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestDemoRefresh(t *testing.T) {
	srv, issuer := newDemoTestServer(t)

	t.Run("issues a fresh url", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/refresh", "application/json",
			strings.NewReader(`{"resourceId":"case1","index":1}`))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			URL string `json:"url"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Contains(t, body.URL, "cdn.finch.invalid/case1/1")
	})

	t.Run("maps exhausted retries to 502", func(t *testing.T) {
		issuer.FailNext(domain.Key{ResourceID: "case2", Index: 0}, 10)

		resp, err := http.Post(srv.URL+"/refresh", "application/json",
			strings.NewReader(`{"resourceId":"case2","index":0}`))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/refresh", "application/json",
			strings.NewReader(`{"resourceId":`))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestDemoVersionEndpoint(t *testing.T) {
	srv, _ := newDemoTestServer(t)

	resp, err := http.Get(srv.URL + "/version")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]uint64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, uint64(0), body["version"])
}
