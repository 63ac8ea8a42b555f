package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stayfinder/models"
	"stayfinder/utils"
)

// ErrNotFound is returned for a 404 from the upstream.
var ErrNotFound = errors.New("not found")

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 32 << 20

// StatusError is a non-2xx upstream response other than 404.
type StatusError struct {
	Method string
	URL    string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Code)
}

// Temporary reports whether retrying may help.
func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}

// Client talks to a json-server style listings endpoint.
type Client struct {
	baseURL string
	http    *http.Client
	retry   *utils.RetryConfig
	logger  *utils.Logger
}

// NewClient creates a client for baseURL, e.g. "http://localhost:3001".
func NewClient(baseURL string, timeout time.Duration, maxRetries int, logger *utils.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		retry: &utils.RetryConfig{
			MaxAttempts: maxRetries,
			BaseDelay:   500 * time.Millisecond,
			Logger:      logger,
		},
		logger: logger,
	}
}

// Fetch implements services.ListingSource.
func (c *Client) Fetch(ctx context.Context) ([]*models.RawListing, error) {
	var result DecodeResult
	err := c.retry.Do(ctx, "fetch listings", func() error {
		body, err := c.do(ctx, http.MethodGet, c.baseURL+"/listings", nil)
		if err != nil {
			return err
		}
		result, err = DecodeListings(body)
		if err != nil {
			return utils.Permanent(err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}

	if result.Skipped > 0 {
		c.logger.Warn("[source] Skipped %d undecodable listings", result.Skipped)
	}
	c.logger.Debug("[source] Fetched %d listings from %s", len(result.Listings), c.baseURL)
	return result.Listings, nil
}

// Get fetches a single listing by id.
func (c *Client) Get(ctx context.Context, id models.ListingID) (*models.RawListing, error) {
	endpoint := c.baseURL + "/listings/" + url.PathEscape(id.String())

	var raw models.RawListing
	err := c.retry.Do(ctx, "get listing "+id.String(), func() error {
		body, err := c.do(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &raw); err != nil {
			return utils.Permanent(fmt.Errorf("%w: %v", ErrInvalidFormat, err))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	return &raw, nil
}

// Publish implements services.ListingPublisher. It is not retried so that a
// slow upstream cannot end up with duplicates.
func (c *Client) Publish(ctx context.Context, raw *models.RawListing) error {
	payload, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("source: encode listing: %w", err)
	}
	if _, err := c.do(ctx, http.MethodPost, c.baseURL+"/listings", payload); err != nil {
		return fmt.Errorf("source: publish: %w", err)
	}
	return nil
}

// do performs one request. Errors that retrying cannot fix are wrapped with
// utils.Permanent.
func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, utils.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, utils.Permanent(err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, utils.Permanent(ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		statusErr := &StatusError{Method: method, URL: endpoint, Code: resp.StatusCode}
		if statusErr.Temporary() {
			return nil, statusErr
		}
		return nil, utils.Permanent(statusErr)
	}
	return data, nil
}
