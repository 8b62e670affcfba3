package nhlapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const dateLayout = "2006-01-02"

// Client is the NHL Stats API client
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter chan struct{} // Rate limiting semaphore
	maxRetries  int
	retryDelay  time.Duration
}

// NewClient creates a new NHL Stats API client
func NewClient(baseURL string, timeout time.Duration) *Client {
	// Max 4 concurrent requests; the API is unauthenticated and shared
	rateLimiter := make(chan struct{}, 4)
	for i := 0; i < 4; i++ {
		rateLimiter <- struct{}{}
	}

	return &Client{
		baseURL:     baseURL,
		rateLimiter: rateLimiter,
		maxRetries:  3,
		retryDelay:  1 * time.Second,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// get performs a GET request to the NHL API with retry logic and rate
// limiting. Terminal failures come back as *Error so callers can classify
// them.
func (c *Client) get(ctx context.Context, op, path string, params map[string]string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, path)

	// Rate limiting: acquire semaphore for the whole call
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.rateLimiter:
		defer func() { c.rateLimiter <- struct{}{} }()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := c.retryDelay * time.Duration(1<<uint(attempt-1))
			log.Info().
				Str("url", url).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying API request after backoff")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "nhl-highlights/1.0")

		if len(params) > 0 {
			q := req.URL.Query()
			for key, value := range params {
				q.Add(key, value)
			}
			req.URL.RawQuery = q.Encode()
		}

		log.Debug().
			Str("url", url).
			Str("method", req.Method).
			Int("attempt", attempt+1).
			Msg("Making API request")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = &Error{Op: op, Err: err}
			// Retry on network errors
			if attempt < c.maxRetries {
				continue
			}
			return nil, lastErr
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = &Error{Op: op, Err: err}
			if attempt < c.maxRetries {
				continue
			}
			return nil, lastErr
		}

		switch resp.StatusCode {
		case http.StatusOK:
			log.Debug().
				Str("url", url).
				Int("status", resp.StatusCode).
				Int("size", len(body)).
				Msg("API request successful")
			return body, nil

		case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			// Retryable errors
			lastErr = &Error{Op: op, StatusCode: resp.StatusCode}
			if attempt < c.maxRetries {
				log.Warn().
					Str("url", url).
					Int("status", resp.StatusCode).
					Int("attempt", attempt+1).
					Msg("Received retryable error, will retry")
				continue
			}
			return nil, lastErr

		default:
			// Other errors - don't retry
			return nil, &Error{Op: op, StatusCode: resp.StatusCode}
		}
	}

	return nil, lastErr
}

// FetchSchedule fetches the schedule for an inclusive date range in a single
// call. A one-day range uses the endpoint's date form.
func (c *Client) FetchSchedule(ctx context.Context, start, end time.Time) (*Schedule, error) {
	startDay := start.Format(dateLayout)
	endDay := end.Format(dateLayout)

	params := map[string]string{"startDate": startDay, "endDate": endDay}
	if startDay == endDay {
		params = map[string]string{"date": startDay}
	}

	body, err := c.get(ctx, "schedule", "schedule", params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedule: %w", err)
	}

	var schedule Schedule
	if err := json.Unmarshal(body, &schedule); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schedule: %w", err)
	}

	return &schedule, nil
}

// FetchGameContent fetches media metadata for a single game.
func (c *Client) FetchGameContent(ctx context.Context, gameID int64) (*Content, error) {
	path := fmt.Sprintf("game/%d/content", gameID)

	body, err := c.get(ctx, "game content", path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch game content: %w", err)
	}

	var content Content
	if err := json.Unmarshal(body, &content); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game content: %w", err)
	}

	return &content, nil
}
