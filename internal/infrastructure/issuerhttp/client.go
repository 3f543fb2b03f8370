// Package issuerhttp talks to the remote URL issuing service over its
// batch reissue endpoint.
package issuerhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sp3dr4/finch/internal/domain"
)

// Client implements domain.Issuer against
// POST {base}/{resource}/refresh-urls.
type Client struct {
	httpClient *http.Client
	baseURL    string
	resource   string
	logger     *slog.Logger
}

func NewClient(baseURL, resource string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		resource:   resource,
		logger:     logger,
	}
}

type reissueKey struct {
	ResourceID string `json:"resourceId"`
	Index      int    `json:"index"`
}

type reissueRequest struct {
	Requests []reissueKey `json:"requests"`
}

type reissueItem struct {
	ResourceID string `json:"resourceId"`
	Index      int    `json:"index"`
	Success    bool   `json:"success"`
	URL        string `json:"url,omitempty"`
	Error      string `json:"error,omitempty"`
}

type reissueEnvelope struct {
	Success       bool          `json:"success"`
	ExpirySeconds int           `json:"expirySeconds,omitempty"`
	Data          []reissueItem `json:"data"`
}

// Reissue posts the batch and parses the envelope. A non-2xx status or
// an envelope-level success:false is a whole-batch failure; per-key
// outcomes are returned for the caller to match by key.
func (c *Client) Reissue(ctx context.Context, keys []domain.Key) (*domain.ReissueResult, error) {
	payload := reissueRequest{Requests: make([]reissueKey, 0, len(keys))}
	for _, k := range keys {
		payload.Requests = append(payload.Requests, reissueKey{ResourceID: k.ResourceID, Index: k.Index})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reissue request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/refresh-urls", c.baseURL, c.resource)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build reissue request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Reissue request failed", "url", url, "keys", len(keys), "error", err)
		return nil, fmt.Errorf("reissue request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("Reissue request rejected", "url", url, "status", resp.StatusCode)
		return nil, fmt.Errorf("reissue request failed: status %d", resp.StatusCode)
	}

	var env reissueEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode reissue response: %w", err)
	}
	if !env.Success {
		return nil, fmt.Errorf("issuer rejected batch of %d keys", len(keys))
	}

	result := &domain.ReissueResult{ExpirySeconds: env.ExpirySeconds}
	for _, it := range env.Data {
		result.Items = append(result.Items, domain.Reissued{
			Key:     domain.Key{ResourceID: it.ResourceID, Index: it.Index},
			Success: it.Success,
			URL:     it.URL,
			Error:   it.Error,
		})
	}
	return result, nil
}
