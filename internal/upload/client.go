package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/claude/ironrank/internal/ingest"
)

// maxAttempts bounds retries of one upload. Only transport errors and 5xx
// responses are retried.
const maxAttempts = 3

// errPermanent marks responses that retrying cannot fix.
var errPermanent = errors.New("permanent failure")

// Client sends exports to the IronRank server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	backoff    time.Duration
}

// NewClient creates a new HTTP client for the IronRank server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: serverURL,
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		backoff: time.Second,
	}
}

// SendAlpha POSTs one Alpha Progression CSV export to the import endpoint
// and returns the server's import result. Retries with exponential backoff.
func (c *Client) SendAlpha(ctx context.Context, data []byte) (*ingest.Result, error) {
	var lastErr error
	for attempt := range maxAttempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff << (attempt - 1)):
			}
		}

		result, err := c.post(ctx, "/api/v1/import/alpha", data)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, errPermanent) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("after %d attempts: %w", maxAttempts, lastErr)
}

func (c *Client) post(ctx context.Context, path string, data []byte) (*ingest.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", errPermanent, err)
	}
	req.Header.Set("Content-Type", "text/csv")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("import failed (status %d): %s", resp.StatusCode, body)
	default:
		return nil, fmt.Errorf("%w: import rejected (status %d): %s", errPermanent, resp.StatusCode, body)
	}

	var result ingest.Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: decoding result: %v", errPermanent, err)
	}
	return &result, nil
}
