// Package telemetry defines the wire payloads sent to the monitoring API.
package telemetry

// Status is the service-check state reported to the monitoring API.
type Status int

// Service-check states as defined by the check_run endpoint.
const (
	StatusOK       Status = 0
	StatusWarning  Status = 1
	StatusCritical Status = 2
	StatusUnknown  Status = 3
)

// Point is one [unix_timestamp, value] metric sample.
type Point [2]float64

// MetricSeries is one gauge series inside a metric payload.
// Params: metric identity, samples, host attribution, and tags.
// Returns: series wire shape for v1/series.
type MetricSeries struct {
	Metric string   `json:"metric"`
	Points []Point  `json:"points"`
	Type   string   `json:"type"`
	Host   *string  `json:"host"`
	Tags   []string `json:"tags"`
}

// MetricPayload is the v1/series request body.
type MetricPayload struct {
	Series []MetricSeries `json:"series"`
}

// EventPayload is the v1/events request body.
type EventPayload struct {
	Title     string   `json:"title"`
	Text      string   `json:"text"`
	Priority  string   `json:"priority"`
	Tags      []string `json:"tags"`
	AlertType string   `json:"alert_type"`
}

// ServiceCheckPayload is the v1/check_run request body.
type ServiceCheckPayload struct {
	Check     string   `json:"check"`
	HostName  *string  `json:"host_name"`
	Timestamp int64    `json:"timestamp"`
	Status    Status   `json:"status"`
	Tags      []string `json:"tags"`
}
