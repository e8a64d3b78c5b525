// Package remote scores feature vectors against an external inference endpoint.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"stress-backend/internal/stress"
)

const defaultTimeout = 10 * time.Second

// maxErrorBody caps how much of a failed response is echoed into the error.
const maxErrorBody = 512

// maxResponseBody caps how much of any response is read.
const maxResponseBody = 1 << 20

// Client implements stress.Provider over HTTP.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient constructs a client for the given prediction URL.
func NewClient(url string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("SCORE_SERVICE_URL is required for remote scoring")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		url: strings.TrimSpace(url),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type predictRequest struct {
	Instances [][]any `json:"instances"`
}

type predictResponse struct {
	Predictions []float64 `json:"predictions"`
	Error       string    `json:"error,omitempty"`
}

// Score implements stress.Provider.
func (c *Client) Score(ctx context.Context, features stress.FeatureVector) (float64, error) {
	payload, err := json.Marshal(predictRequest{Instances: [][]any{features.Values()}})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return 0, fmt.Errorf("score service timeout: %w", err)
		}
		return 0, fmt.Errorf("score service request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody+1))
	if err != nil {
		return 0, fmt.Errorf("score service read: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("score service status %d: %s", resp.StatusCode, errorSnippet(body))
	}
	if len(body) > maxResponseBody {
		return 0, fmt.Errorf("score service response exceeds %d bytes", maxResponseBody)
	}

	var parsed predictResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("score service response parse: %w", err)
	}
	if parsed.Error != "" {
		return 0, fmt.Errorf("score service error: %s", parsed.Error)
	}
	if len(parsed.Predictions) == 0 {
		return 0, fmt.Errorf("score service response missing predictions")
	}
	return parsed.Predictions[0], nil
}

// errorSnippet trims body to maxErrorBody bytes without splitting a rune.
func errorSnippet(body []byte) string {
	snippet := strings.TrimSpace(string(body))
	if len(snippet) <= maxErrorBody {
		return snippet
	}
	cut := maxErrorBody
	for cut > 0 && !utf8.RuneStart(snippet[cut]) {
		cut--
	}
	return snippet[:cut]
}

var _ stress.Provider = (*Client)(nil)
