package datadog

import "errors"

// Failure classes for one API call. Exactly one of these wraps every
// non-nil error returned by the client, so callers classify with errors.Is.
var (
	// ErrAuthentication reports an HTTP 403: the API key was rejected.
	ErrAuthentication = errors.New("authentication rejected")

	// ErrAPIRejection reports a well-formed response whose status is not "ok".
	ErrAPIRejection = errors.New("api rejected the call")

	// ErrTransport reports any other network or IO failure. Connection
	// refused, timeout, DNS and TLS failures all collapse into this class.
	ErrTransport = errors.New("transport failure")

	// ErrMalformedResponse reports a response body that is not valid JSON or
	// is missing the expected envelope field.
	ErrMalformedResponse = errors.New("malformed api response")
)
