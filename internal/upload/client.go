// Package upload sends locally decoded sessions to a RepSight server.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/claude/repsight/internal/ingest"
	"github.com/claude/repsight/internal/models"
)

const maxAttempts = 3

// Client sends sessions to the RepSight server's JSON ingest endpoint.
// It satisfies ingest.SessionWriter, so the importer can write through it.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	backoff    time.Duration
}

var _ ingest.SessionWriter = (*Client)(nil)

// NewClient creates a new HTTP client for the RepSight server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		backoff: time.Second,
	}
}

// InsertSessions POSTs sessions to the ingest endpoint and returns the
// server's insert counts. The server decides which user they belong to, so
// userID is ignored. Retries up to 3 times with exponential backoff.
func (c *Client) InsertSessions(ctx context.Context, sessions []models.Session, _ int) (int, int64, error) {
	data, err := json.Marshal(map[string]any{"sessions": sessions})
	if err != nil {
		return 0, 0, fmt.Errorf("marshaling sessions: %w", err)
	}

	var lastErr error
	for attempt := range maxAttempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return 0, 0, ctx.Err()
			case <-time.After(c.backoff << uint(attempt-1)):
			}
		}

		result, retry, err := c.post(ctx, data)
		if err == nil {
			return result.SessionsInserted, result.SetsInserted, nil
		}
		lastErr = err
		if !retry {
			break
		}
	}

	return 0, 0, fmt.Errorf("after %d attempts: %w", maxAttempts, lastErr)
}

// post sends one request. retry reports whether the failure may be transient.
func (c *Client) post(ctx context.Context, data []byte) (*ingest.Result, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/api/v1/ingest/", bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("ingest failed (status %d): %s", resp.StatusCode, bytes.TrimSpace(body))
		return nil, resp.StatusCode >= 500, err
	}

	var result ingest.Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, false, fmt.Errorf("decoding ingest result: %w", err)
	}
	return &result, false, nil
}
