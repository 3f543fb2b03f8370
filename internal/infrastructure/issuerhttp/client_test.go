package issuerhttp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sp3dr4/finch/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_Reissue(t *testing.T) {
	var gotPath string
	var gotBody reissueRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"expirySeconds": 240,
			"data": [
				{"resourceId": "case1", "index": 1, "success": true, "url": "https://signed.example/a"},
				{"resourceId": "case1", "index": 2, "success": false, "error": "slot revoked"}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "cases", time.Second, discardLogger())
	keys := []domain.Key{
		{ResourceID: "case1", Index: 1},
		{ResourceID: "case1", Index: 2},
	}

	res, err := client.Reissue(context.Background(), keys)
	require.NoError(t, err)

	assert.Equal(t, "/cases/refresh-urls", gotPath)
	require.Len(t, gotBody.Requests, 2)
	assert.Equal(t, reissueKey{ResourceID: "case1", Index: 1}, gotBody.Requests[0])
	assert.Equal(t, reissueKey{ResourceID: "case1", Index: 2}, gotBody.Requests[1])

	assert.Equal(t, 240, res.ExpirySeconds)
	require.Len(t, res.Items, 2)
	assert.Equal(t, domain.Reissued{
		Key:     domain.Key{ResourceID: "case1", Index: 1},
		Success: true,
		URL:     "https://signed.example/a",
	}, res.Items[0])
	assert.Equal(t, domain.Reissued{
		Key:   domain.Key{ResourceID: "case1", Index: 2},
		Error: "slot revoked",
	}, res.Items[1])
}

func TestClient_Reissue_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "cases", time.Second, discardLogger())
	_, err := client.Reissue(context.Background(), []domain.Key{{ResourceID: "case1", Index: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestClient_Reissue_EnvelopeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": false, "data": []}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "cases", time.Second, discardLogger())
	_, err := client.Reissue(context.Background(), []domain.Key{{ResourceID: "case1", Index: 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected batch")
}

func TestClient_Reissue_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"success": true, "data": []}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "cases", time.Second, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Reissue(ctx, []domain.Key{{ResourceID: "case1", Index: 1}})
	require.Error(t, err)
}

func TestNewClient_DefaultTimeout(t *testing.T) {
	client := NewClient("http://issuer.invalid", "cases", 0, discardLogger())
	assert.Equal(t, 10*time.Second, client.httpClient.Timeout)
}
