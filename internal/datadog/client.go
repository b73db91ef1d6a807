// Package datadog implements the authenticated HTTP client for the
// monitoring API: payload delivery, key validation, and failure
// classification.
package datadog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"buildreport/internal/telemetry"
)

// API endpoint subpaths under the configured base URL.
const (
	pathSeries   = "v1/series"
	pathEvents   = "v1/events"
	pathCheckRun = "v1/check_run"
	pathValidate = "v1/validate"
)

const defaultTimeout = 10 * time.Second

// maxResponseBytes bounds one API response body read.
const maxResponseBytes = 1 << 20

// Client issues authenticated calls against the monitoring API. One call
// issues at most one HTTP request; there is no retry and no shared mutable
// state, so a Client is safe for concurrent use.
// Params: base URL, credential source, transport settings, logger.
// Returns: API client instance.
type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOptions describes optional client behavior.
// Params: Timeout per-request deadline; Transport overrides the round tripper.
// Returns: client runtime options.
type ClientOptions struct {
	Timeout   time.Duration
	Transport http.RoundTripper
}

// NewClient creates a monitoring API client.
// Params: baseURL API root (e.g. "https://app.datadoghq.com/api/"); creds key
// source; logger call diagnostics; options optional overrides.
// Returns: configured client.
func NewClient(baseURL string, creds Credentials, logger *slog.Logger, options ClientOptions) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := &http.Client{Timeout: timeout}
	if options.Transport != nil {
		httpClient.Transport = options.Transport
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + "/",
		creds:      creds,
		httpClient: httpClient,
		logger:     logger,
	}
}

// responseEnvelope is the expected POST response body.
type responseEnvelope struct {
	Status *string `json:"status"`
}

// SendMetric posts one metric payload to v1/series.
// Params: ctx call lifecycle; payload metric body.
// Returns: nil on an "ok" envelope, classified error otherwise.
func (c *Client) SendMetric(ctx context.Context, payload *telemetry.MetricPayload) error {
	return c.post(ctx, pathSeries, payload)
}

// SendEvent posts one event payload to v1/events.
// Params: ctx call lifecycle; payload event body.
// Returns: nil on an "ok" envelope, classified error otherwise.
func (c *Client) SendEvent(ctx context.Context, payload *telemetry.EventPayload) error {
	return c.post(ctx, pathEvents, payload)
}

// SendServiceCheck posts one service check payload to v1/check_run.
// Params: ctx call lifecycle; payload check body.
// Returns: nil on an "ok" envelope, classified error otherwise.
func (c *Client) SendServiceCheck(ctx context.Context, payload *telemetry.ServiceCheckPayload) error {
	return c.post(ctx, pathCheckRun, payload)
}

// post serializes and delivers one payload, classifying the outcome.
// The API key travels as a query parameter, never a header. The call
// succeeds iff the response status code is 2xx and the body carries
// status == "ok"; HTTP 403 classifies as authentication failure regardless
// of body content.
// Params: ctx call lifecycle; path endpoint subpath; payload JSON body.
// Returns: nil or an error wrapping exactly one failure class.
func (c *Client) post(ctx context.Context, path string, payload any) error {
	key, err := c.creds.APIKey()
	if err != nil {
		return fmt.Errorf("resolve credential for POST %s: %w", path, err)
	}

	endpoint, err := c.endpoint(path, key)
	if err != nil {
		return fmt.Errorf("build endpoint for POST %s: %w", path, err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request for POST %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: POST %s: %s", ErrTransport, path, redactKey(err.Error(), key))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: POST %s: read response: %s", ErrTransport, path, redactKey(err.Error(), key))
	}

	if resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: POST %s returned HTTP 403, the API key may be invalid", ErrAuthentication, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: POST %s: unexpected status %s", ErrTransport, path, resp.Status)
	}

	var envelope responseEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("%w: POST %s: decode envelope: %s", ErrMalformedResponse, path, err)
	}
	if envelope.Status == nil {
		return fmt.Errorf("%w: POST %s: response is missing the status field", ErrMalformedResponse, path)
	}
	if *envelope.Status != "ok" {
		return fmt.Errorf("%w: POST %s: status %q", ErrAPIRejection, path, *envelope.Status)
	}

	c.logger.Debug("api call sent", slog.String("path", path))
	return nil
}

// endpoint joins the base URL with a subpath and attaches the api_key query
// parameter.
// Params: path endpoint subpath; key API key.
// Returns: absolute URL string or parse error.
func (c *Client) endpoint(path, key string) (string, error) {
	parsed, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	query := parsed.Query()
	query.Set("api_key", key)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// redactKey removes the API key from text destined for errors or logs.
// Params: text message possibly embedding the key; key secret to remove.
// Returns: text with every key occurrence masked.
func redactKey(text, key string) string {
	if key == "" {
		return text
	}
	return strings.ReplaceAll(text, key, "***")
}
