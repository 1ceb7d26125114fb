package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nhle/daybook/internal/model"
)

// Client is a thin HTTP client for the daybook sync server. It handles
// optional Bearer token authentication, JSON marshaling, and automatic
// retry with exponential backoff on HTTP 429.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries int
}

// NewClient creates a new sync client. The baseURL should be the root
// URL of the sync server (e.g., http://localhost:8100). The token may
// be empty when the server runs without authentication.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: 3,
	}
}

// CompletionResult is the server's answer to a completion confirmation.
// The server recomputes the streak from its own record of the habit and
// its value is authoritative.
type CompletionResult struct {
	Streak    int  `json:"streak"`
	Completed bool `json:"completed"`
}

// ConfirmCompletion reports that a habit was completed on the given
// date and returns the server-computed streak.
func (c *Client) ConfirmCompletion(
	ctx context.Context,
	habitID string,
	dateKey string,
) (CompletionResult, error) {
	body := map[string]string{
		"id":   habitID,
		"date": dateKey,
	}
	var result CompletionResult
	if err := c.do(ctx, http.MethodPost, "/habits/complete", body, &result); err != nil {
		return CompletionResult{}, err
	}
	return result, nil
}

// FetchHabits returns every habit the server knows about.
func (c *Client) FetchHabits(ctx context.Context) ([]model.Habit, error) {
	var habits []model.Habit
	if err := c.do(ctx, http.MethodGet, "/habits", nil, &habits); err != nil {
		return nil, err
	}
	return habits, nil
}

// PushHabits uploads the full habit set, replacing the server's copy.
func (c *Client) PushHabits(ctx context.Context, habits []model.Habit) error {
	return c.do(ctx, http.MethodPost, "/habits/bulk", habits, nil)
}

// PushJournalEntries uploads journal entries in bulk.
func (c *Client) PushJournalEntries(
	ctx context.Context,
	entries []model.JournalEntry,
) error {
	return c.do(ctx, http.MethodPost, "/journal-entries/bulk", entries, nil)
}

// PushGratitudeEntries uploads gratitude entries in bulk.
func (c *Client) PushGratitudeEntries(
	ctx context.Context,
	entries []model.GratitudeEntry,
) error {
	return c.do(ctx, http.MethodPost, "/gratitude-entries/bulk", entries, nil)
}

// PushHighlightEntries uploads highlight entries in bulk.
func (c *Client) PushHighlightEntries(
	ctx context.Context,
	entries []model.HighlightEntry,
) error {
	return c.do(ctx, http.MethodPost, "/highlight-entries/bulk", entries, nil)
}

// Health checks that the server is reachable and responding.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// ErrorResponse is the error body returned by the sync server.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// do is the core HTTP method that builds the request, handles auth,
// rate limiting with exponential backoff, and JSON (de)serialization.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	result interface{},
) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		// Rebuild the body reader on retries since it was consumed.
		if attempt > 0 && body != nil {
			data, _ := json.Marshal(body)
			bodyReader = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(
			ctx, method, url, bodyReader,
		)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("executing request %s %s: %w", method, path, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			waitDuration := retryAfterDuration(resp, attempt)
			lastErr = fmt.Errorf(
				"rate limited (429) on %s %s", method, path,
			)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitDuration):
				continue
			}
		}

		if resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf(
				"authentication failed (401): check your "+
					"sync token for %s", c.baseURL,
			)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			var apiErr ErrorResponse
			if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Detail != "" {
				return fmt.Errorf(
					"sync server error (%d) on %s %s: %s",
					resp.StatusCode, method, path, apiErr.Detail,
				)
			}
			return fmt.Errorf(
				"unexpected status %d on %s %s: %s",
				resp.StatusCode, method, path, string(respBody),
			)
		}

		// No content to parse (e.g. 204).
		if result == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf(
				"unmarshaling response from %s %s: %w",
				method, path, err,
			)
		}

		return nil
	}

	return fmt.Errorf(
		"max retries (%d) exceeded: %w", c.maxRetries, lastErr,
	)
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	// Exponential backoff: 1s, 2s, 4s, ...
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
