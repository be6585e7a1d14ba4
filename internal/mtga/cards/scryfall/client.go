// Package scryfall downloads card bulk data from the Scryfall API.
package scryfall

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.scryfall.com"
	rateLimitDelay = 100 * time.Millisecond // 10 req/sec
	requestTimeout = 30 * time.Second
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	maxBackoff     = 16 * time.Second
)

// Client is a rate-limited Scryfall API client.
type Client struct {
	httpClient     *http.Client
	downloadClient *http.Client
	rateLimiter    *rate.Limiter
	userAgent      string
	baseURL        string
	backoff        time.Duration
	logger         *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API host.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient replaces the HTTP client used for API requests and downloads.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
		c.downloadClient = hc
	}
}

// WithBackoff sets the initial retry delay.
func WithBackoff(d time.Duration) Option {
	return func(c *Client) { c.backoff = d }
}

// WithLogger sets the logger used for retry and download messages.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a new Scryfall API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		// Bulk files are hundreds of megabytes; the caller's context bounds the download.
		downloadClient: &http.Client{},
		rateLimiter:    rate.NewLimiter(rate.Every(rateLimitDelay), 1),
		userAgent:      "MTGDeckBuilder/1.0",
		baseURL:        defaultBaseURL,
		backoff:        initialBackoff,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetBulkData retrieves bulk data download information.
func (c *Client) GetBulkData(ctx context.Context) (*BulkDataList, error) {
	url := c.baseURL + "/bulk-data"

	var bulkData BulkDataList
	if err := c.doRequest(ctx, url, &bulkData); err != nil {
		return nil, fmt.Errorf("failed to get bulk data: %w", err)
	}

	return &bulkData, nil
}

// FindBulkData returns the bulk data entry of the given type.
func (c *Client) FindBulkData(ctx context.Context, bulkType string) (*BulkData, error) {
	list, err := c.GetBulkData(ctx)
	if err != nil {
		return nil, err
	}

	for i := range list.Data {
		if list.Data[i].Type == bulkType {
			return &list.Data[i], nil
		}
	}
	return nil, &NotFoundError{URL: c.baseURL + "/bulk-data#" + bulkType}
}

// DownloadBulkFile downloads the bulk file of the given type to destPath.
// The file is written to a temporary sibling and renamed into place, so a file
// watcher on destPath only ever sees a complete file.
func (c *Client) DownloadBulkFile(ctx context.Context, bulkType, destPath string) (*BulkData, error) {
	bulk, err := c.FindBulkData(ctx, bulkType)
	if err != nil {
		return nil, err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, bulk.DownloadURI, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.downloadClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download bulk file: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bulk download failed with status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".bulk-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	written, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write bulk file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return nil, fmt.Errorf("failed to move bulk file into place: %w", err)
	}

	c.logger.Info("downloaded bulk file", "type", bulkType, "bytes", written, "updated_at", bulk.UpdatedAt, "path", destPath)
	return bulk, nil
}

// doRequest performs an HTTP request with rate limiting and retry logic.
func (c *Client) doRequest(ctx context.Context, url string, result any) error {
	var lastErr error
	backoff := c.backoff

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Debug("retrying scryfall request", "url", url, "attempt", attempt, "error", lastErr)
		}

		retry, err := c.attempt(ctx, url, result)
		if err == nil {
			return nil
		}
		lastErr = err
		if retry.after < 0 || attempt == maxRetries {
			return err
		}

		wait := backoff
		if retry.after > 0 {
			wait = retry.after
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		backoff = min(backoff*2, maxBackoff)
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// retryHint tells doRequest whether and how long to wait before retrying.
// A negative after means the error is final.
type retryHint struct {
	after time.Duration
}

var noRetry = retryHint{after: -1}

func (c *Client) attempt(ctx context.Context, url string, result any) (retryHint, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return noRetry, fmt.Errorf("rate limiter error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return noRetry, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return noRetry, ctx.Err()
		}
		return retryHint{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return noRetry, fmt.Errorf("failed to parse JSON response: %w", err)
		}
		return retryHint{}, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		hint := retryHint{}
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			hint.after = time.Duration(secs) * time.Second
		}
		return hint, fmt.Errorf("rate limited (HTTP 429)")

	case resp.StatusCode == http.StatusNotFound:
		return noRetry, &NotFoundError{URL: url}

	case resp.StatusCode >= 500:
		return retryHint{}, fmt.Errorf("server error (HTTP %d)", resp.StatusCode)

	default:
		body, _ := io.ReadAll(resp.Body)

		var apiErr APIError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Details != "" {
			return noRetry, &apiErr
		}

		return noRetry, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}
}
