package datadog_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"buildreport/internal/datadog"
	"buildreport/internal/telemetry"
)

const testKey = "secret-key-0123"

// testLogger returns a discard logger for client construction.
// Params: none.
// Returns: slog logger writing nowhere.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// capturedRequest records the fields asserted by transport tests.
type capturedRequest struct {
	method      string
	path        string
	apiKey      string
	contentType string
	authHeader  string
	body        string
}

// newCapturingServer runs an httptest server answering with a fixed response.
// Params: t test handle; status HTTP code; response body bytes; capture sink.
// Returns: running server, closed via t.Cleanup.
func newCapturingServer(t *testing.T, status int, response string, capture *capturedRequest) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if capture != nil {
			capture.method = r.Method
			capture.path = r.URL.Path
			capture.apiKey = r.URL.Query().Get("api_key")
			capture.contentType = r.Header.Get("Content-Type")
			capture.authHeader = r.Header.Get("Authorization")
			capture.body = string(body)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)
	return server
}

// metricFixture builds a minimal metric payload for client tests.
// Params: none.
// Returns: payload with one sample.
func metricFixture() *telemetry.MetricPayload {
	host := "h1"
	return &telemetry.MetricPayload{
		Series: []telemetry.MetricSeries{
			{
				Metric: "build.job.duration",
				Points: []telemetry.Point{{1700000000, 2.5}},
				Type:   "gauge",
				Host:   &host,
				Tags:   []string{"job_name:build-x"},
			},
		},
	}
}

func TestSendMetric_OkEnvelope(t *testing.T) {
	var capture capturedRequest
	server := newCapturingServer(t, http.StatusOK, `{"status":"ok"}`, &capture)

	client := datadog.NewClient(server.URL+"/api/", datadog.StaticKey(testKey), testLogger(), datadog.ClientOptions{})
	if err := client.SendMetric(context.Background(), metricFixture()); err != nil {
		t.Fatalf("send metric: %v", err)
	}

	if capture.method != http.MethodPost {
		t.Fatalf("unexpected method: %q", capture.method)
	}
	if capture.path != "/api/v1/series" {
		t.Fatalf("unexpected path: %q", capture.path)
	}
	if capture.apiKey != testKey {
		t.Fatalf("expected api_key query parameter, got %q", capture.apiKey)
	}
	if capture.authHeader != "" {
		t.Fatalf("key must not travel in a header, got %q", capture.authHeader)
	}
	if capture.contentType != "application/json" {
		t.Fatalf("unexpected content type: %q", capture.contentType)
	}
	if !strings.Contains(capture.body, `"metric":"build.job.duration"`) {
		t.Fatalf("unexpected body: %s", capture.body)
	}
}

func TestSend_RoutesByPayloadKind(t *testing.T) {
	var capture capturedRequest
	server := newCapturingServer(t, http.StatusOK, `{"status":"ok"}`, &capture)
	client := datadog.NewClient(server.URL+"/api/", datadog.StaticKey(testKey), testLogger(), datadog.ClientOptions{})

	if err := client.SendEvent(context.Background(), &telemetry.EventPayload{Title: "t"}); err != nil {
		t.Fatalf("send event: %v", err)
	}
	if capture.path != "/api/v1/events" {
		t.Fatalf("unexpected event path: %q", capture.path)
	}

	host := "h1"
	if err := client.SendServiceCheck(context.Background(), &telemetry.ServiceCheckPayload{Check: "c", HostName: &host}); err != nil {
		t.Fatalf("send service check: %v", err)
	}
	if capture.path != "/api/v1/check_run" {
		t.Fatalf("unexpected check path: %q", capture.path)
	}
}

func TestPost_FailureClassification(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		response string
		want     error
	}{
		{"status error", http.StatusOK, `{"status":"error"}`, datadog.ErrAPIRejection},
		{"missing status", http.StatusOK, `{}`, datadog.ErrMalformedResponse},
		{"not json", http.StatusOK, `<html>oops</html>`, datadog.ErrMalformedResponse},
		{"forbidden wins over ok body", http.StatusForbidden, `{"status":"ok"}`, datadog.ErrAuthentication},
		{"forbidden with empty body", http.StatusForbidden, ``, datadog.ErrAuthentication},
		{"server error", http.StatusInternalServerError, `boom`, datadog.ErrTransport},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := newCapturingServer(t, tc.status, tc.response, nil)
			client := datadog.NewClient(server.URL+"/api/", datadog.StaticKey(testKey), testLogger(), datadog.ClientOptions{})

			err := client.SendMetric(context.Background(), metricFixture())
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got: %v", tc.want, err)
			}
		})
	}
}

func TestPost_NetworkFailureIsTransportAndRedacted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	client := datadog.NewClient(server.URL+"/api/", datadog.StaticKey(testKey), testLogger(), datadog.ClientOptions{
		Timeout: time.Second,
	})

	err := client.SendMetric(context.Background(), metricFixture())
	if !errors.Is(err, datadog.ErrTransport) {
		t.Fatalf("expected ErrTransport, got: %v", err)
	}
	if strings.Contains(err.Error(), testKey) {
		t.Fatalf("error text leaks the api key: %v", err)
	}
}

func TestPost_ExactlyOneRequestPerCall(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client := datadog.NewClient(server.URL+"/api/", datadog.StaticKey(testKey), testLogger(), datadog.ClientOptions{})
	if err := client.SendMetric(context.Background(), metricFixture()); err == nil {
		t.Fatalf("expected error")
	}

	if got := requests.Load(); got != 1 {
		t.Fatalf("expected exactly one request, got %d", got)
	}
}

func TestPost_CredentialReadFailure(t *testing.T) {
	server := newCapturingServer(t, http.StatusOK, `{"status":"ok"}`, nil)
	client := datadog.NewClient(server.URL+"/api/", datadog.KeyFile("/nonexistent/api-key"), testLogger(), datadog.ClientOptions{})

	if err := client.SendMetric(context.Background(), metricFixture()); err == nil {
		t.Fatalf("expected credential read error")
	}
}
