// Package client fetches form definitions and submission payloads from the
// backing HTTP API and keeps per-submission session state.
package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

var (
	// ErrFormNotFound reports a 404 for a form definition.
	ErrFormNotFound = errors.New("client: form not found")
	// ErrSubmissionNotFound reports a 404 for a submission payload.
	ErrSubmissionNotFound = errors.New("client: submission not found")
)

// Client talks to the form API. Authentication is an explicit bearer token
// supplied by the caller; the client never reads credentials from the
// environment.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// Option configures the client.
type Option func(*Client)

// WithToken sets the bearer token attached to every request.
func WithToken(token string) Option {
	return func(c *Client) {
		if token != "" {
			c.http.SetAuthToken(token)
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRetries configures transient-failure retries with backoff.
func WithRetries(count int, wait time.Duration) Option {
	return func(c *Client) {
		c.http.SetRetryCount(count)
		if wait > 0 {
			c.http.SetRetryWaitTime(wait)
		}
	}
}

// WithTimeout bounds each request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.SetTimeout(timeout)
		}
	}
}

// New constructs a Client for the API at baseURL.
func New(baseURL string, options ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("client: base URL is required")
	}

	c := &Client{
		http:   resty.New().SetBaseURL(baseURL).SetHeader("Accept", "application/json"),
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// FetchForm retrieves the raw form record, schema envelope included.
func (c *Client) FetchForm(ctx context.Context, formID string) (map[string]any, error) {
	if formID == "" {
		return nil, errors.New("client: form id is required")
	}

	var payload map[string]any
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&payload).
		SetPathParam("formID", formID).
		Get("/api/v1/form/{formID}")
	if err != nil {
		return nil, fmt.Errorf("client: fetch form %q: %w", formID, err)
	}

	if resp.StatusCode() == 404 {
		return nil, fmt.Errorf("client: form %q: %w", formID, ErrFormNotFound)
	}
	if resp.IsError() {
		c.logger.Warn("form fetch failed",
			zap.String("form_id", formID),
			zap.Int("status", resp.StatusCode()))
		return nil, fmt.Errorf("client: fetch form %q: status %d", formID, resp.StatusCode())
	}

	return payload, nil
}

// FetchSubmission retrieves the raw submission record for a form.
func (c *Client) FetchSubmission(ctx context.Context, formID, submissionID string) (map[string]any, error) {
	if formID == "" || submissionID == "" {
		return nil, errors.New("client: form id and submission id are required")
	}

	var payload map[string]any
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&payload).
		SetPathParam("formID", formID).
		SetPathParam("submissionID", submissionID).
		Get("/api/v1/form/{formID}/data/{submissionID}")
	if err != nil {
		return nil, fmt.Errorf("client: fetch submission %q/%q: %w", formID, submissionID, err)
	}

	if resp.StatusCode() == 404 {
		return nil, fmt.Errorf("client: submission %q/%q: %w", formID, submissionID, ErrSubmissionNotFound)
	}
	if resp.IsError() {
		c.logger.Warn("submission fetch failed",
			zap.String("form_id", formID),
			zap.String("submission_id", submissionID),
			zap.Int("status", resp.StatusCode()))
		return nil, fmt.Errorf("client: fetch submission %q/%q: status %d", formID, submissionID, resp.StatusCode())
	}

	return payload, nil
}
