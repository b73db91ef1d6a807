package datadog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// KeyValidation classifies one API key validation attempt.
type KeyValidation int

// Validation outcomes. KeyCheckFailed means the key's validity could not be
// determined; the accompanying error carries the cause.
const (
	KeyValid KeyValidation = iota
	KeyInvalid
	KeyCheckFailed
)

// String renders the validation outcome for CLI output.
// Params: none.
// Returns: human-readable outcome name.
func (v KeyValidation) String() string {
	switch v {
	case KeyValid:
		return "valid"
	case KeyInvalid:
		return "invalid"
	default:
		return "check failed"
	}
}

// validateEnvelope is the expected v1/validate response body.
type validateEnvelope struct {
	Valid *bool `json:"valid"`
}

// ValidateKey checks one candidate API key against the validation endpoint.
// Only the configuration surface calls this; the reporting path never does.
// Params: ctx call lifecycle; candidate key under test.
// Returns: KeyValid/KeyInvalid from the response, or KeyCheckFailed with the
// classified cause when the check itself fails (403 included).
func (c *Client) ValidateKey(ctx context.Context, candidate string) (KeyValidation, error) {
	endpoint, err := c.endpoint(pathValidate, candidate)
	if err != nil {
		return KeyCheckFailed, fmt.Errorf("build endpoint for GET %s: %w", pathValidate, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return KeyCheckFailed, fmt.Errorf("build request for GET %s: %w", pathValidate, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return KeyCheckFailed, fmt.Errorf("%w: GET %s: %s", ErrTransport, pathValidate, redactKey(err.Error(), candidate))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return KeyCheckFailed, fmt.Errorf("%w: GET %s: read response: %s", ErrTransport, pathValidate, redactKey(err.Error(), candidate))
	}

	if resp.StatusCode == http.StatusForbidden {
		return KeyCheckFailed, fmt.Errorf("%w: GET %s returned HTTP 403", ErrAuthentication, pathValidate)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return KeyCheckFailed, fmt.Errorf("%w: GET %s: unexpected status %s", ErrTransport, pathValidate, resp.Status)
	}

	var envelope validateEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return KeyCheckFailed, fmt.Errorf("%w: GET %s: decode envelope: %s", ErrMalformedResponse, pathValidate, err)
	}
	if envelope.Valid == nil {
		return KeyCheckFailed, fmt.Errorf("%w: GET %s: response is missing the valid field", ErrMalformedResponse, pathValidate)
	}

	if *envelope.Valid {
		return KeyValid, nil
	}
	return KeyInvalid, nil
}
