package telemetry

import (
	"fmt"
	"time"

	"buildreport/internal/build"
)

// MetricField selects a numeric metadata field for a gauge payload.
type MetricField string

// FieldDuration reads the build wall-clock duration in seconds.
const FieldDuration MetricField = "duration"

// Builder assembles wire payloads from normalized build metadata.
// Params: clock used for send-time timestamps.
// Returns: builder instance.
type Builder struct {
	now func() time.Time
}

// BuilderOptions describes optional builder behavior.
// Params: Now overrides the wall clock used for sample timestamps.
// Returns: builder runtime options.
type BuilderOptions struct {
	Now func() time.Time
}

// NewBuilder creates a payload builder.
// Params: options optional overrides.
// Returns: configured builder.
func NewBuilder(options BuilderOptions) *Builder {
	now := options.Now
	if now == nil {
		now = time.Now
	}
	return &Builder{now: now}
}

// Metric builds a single-point gauge payload for one metadata field.
// The sample carries the send time, not the build end time: the point marks
// when the value was reported.
// Params: name metric identifier; meta build record; field numeric field
// selector; tags canonical tag set.
// Returns: metric payload or error for an unknown field.
func (b *Builder) Metric(name string, meta *build.Metadata, field MetricField, tags []string) (*MetricPayload, error) {
	value, err := numericField(meta, field)
	if err != nil {
		return nil, err
	}

	return &MetricPayload{
		Series: []MetricSeries{
			{
				Metric: name,
				Points: []Point{{float64(b.now().Unix()), value}},
				Type:   "gauge",
				Host:   meta.Hostname,
				Tags:   tags,
			},
		},
	}, nil
}

// Event builds the build-result event payload.
// Params: meta build record with a known hostname; tags canonical tag set.
// Returns: event payload or error when the hostname is absent (an absent
// hostname is a precondition violation; an empty-string hostname is not).
func (b *Builder) Event(meta *build.Metadata, tags []string) (*EventPayload, error) {
	if meta.Hostname == nil {
		return nil, fmt.Errorf("event payload requires a hostname for job %q", meta.JobName)
	}

	verb := "failed"
	if meta.Succeeded() {
		verb = "succeeded"
	}

	return &EventPayload{
		Title:     fmt.Sprintf("%s %s on %s", meta.JobName, verb, *meta.Hostname),
		Text:      "",
		Priority:  "normal",
		Tags:      tags,
		AlertType: "info",
	}, nil
}

// ServiceCheck builds the build-status service check payload.
// Status is OK only for a SUCCESS result; every other result maps to
// CRITICAL. WARNING and UNKNOWN exist on the wire but are never emitted.
// Params: name check identifier; meta build record; tags canonical tag set.
// Returns: service check payload.
func (b *Builder) ServiceCheck(name string, meta *build.Metadata, tags []string) *ServiceCheckPayload {
	status := StatusCritical
	if meta.Succeeded() {
		status = StatusOK
	}

	return &ServiceCheckPayload{
		Check:     name,
		HostName:  meta.Hostname,
		Timestamp: b.now().Unix(),
		Status:    status,
		Tags:      tags,
	}
}

// numericField reads one numeric metadata field by selector.
// Params: meta build record; field selector.
// Returns: field value or error for unknown selectors.
func numericField(meta *build.Metadata, field MetricField) (float64, error) {
	switch field {
	case FieldDuration:
		return meta.Duration, nil
	default:
		return 0, fmt.Errorf("unknown metric field %q", field)
	}
}
