// Package reporter drives the per-build telemetry sequence: extract, tag,
// assemble, and deliver the metric, event, and service check.
package reporter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"buildreport/internal/build"
	"buildreport/internal/telemetry"
)

// Payload kind labels used in logs, errors, and counters.
const (
	kindMetric       = "metric"
	kindEvent        = "event"
	kindServiceCheck = "service_check"
)

// Sender delivers assembled payloads to the monitoring API.
// Params: context and one payload per call.
// Returns: classified delivery error or nil.
type Sender interface {
	SendMetric(ctx context.Context, payload *telemetry.MetricPayload) error
	SendEvent(ctx context.Context, payload *telemetry.EventPayload) error
	SendServiceCheck(ctx context.Context, payload *telemetry.ServiceCheckPayload) error
}

// Reporter converts one completed build into three independent API calls.
// A failed call never prevents the sibling calls and never alters the build
// outcome it reports on; telemetry is best effort.
// Params: extractor, builder, sender, naming, and diagnostics.
// Returns: reporter instance, safe for concurrent use.
type Reporter struct {
	extractor    *build.Extractor
	builder      *telemetry.Builder
	sender       Sender
	logger       *slog.Logger
	metricName   string
	checkName    string
	hostOverride string
	counters     *Counters
}

// Options describes reporter construction inputs.
// Params: telemetry names, optional host override, collaborators, counters.
// Returns: reporter options.
type Options struct {
	MetricName   string
	CheckName    string
	HostOverride string
	Extractor    *build.Extractor
	Builder      *telemetry.Builder
	Counters     *Counters
}

// New creates a reporter.
// Params: sender API delivery; logger diagnostics; options collaborators.
// Returns: configured reporter.
func New(sender Sender, logger *slog.Logger, options Options) *Reporter {
	extractor := options.Extractor
	if extractor == nil {
		extractor = build.NewExtractor(logger, build.ExtractorOptions{})
	}
	builder := options.Builder
	if builder == nil {
		builder = telemetry.NewBuilder(telemetry.BuilderOptions{})
	}

	return &Reporter{
		extractor:    extractor,
		builder:      builder,
		sender:       sender,
		logger:       logger,
		metricName:   options.MetricName,
		checkName:    options.CheckName,
		hostOverride: options.HostOverride,
		counters:     options.Counters,
	}
}

// ReportCompleted reports one completed build as metric + event + service
// check. The three calls share only read-only state and run concurrently;
// each failure is logged with its payload kind and classification and folded
// into the returned aggregate, which the caller must treat as informational.
// Params: ctx bounds all three calls; b completed build facts.
// Returns: nil when every call succeeded, aggregate error otherwise.
func (r *Reporter) ReportCompleted(ctx context.Context, b build.Build) error {
	meta, err := r.extractor.Extract(ctx, b)
	if err != nil {
		r.logger.Error("build metadata extraction failed", slog.String("error", err.Error()))
		return fmt.Errorf("extract build metadata: %w", err)
	}

	if r.hostOverride != "" {
		hostname := r.hostOverride
		meta.Hostname = &hostname
	}

	tags := meta.Tags()

	calls := []struct {
		kind string
		send func(context.Context) error
	}{
		{kindMetric, func(ctx context.Context) error {
			payload, buildErr := r.builder.Metric(r.metricName, meta, telemetry.FieldDuration, tags)
			if buildErr != nil {
				return buildErr
			}
			return r.sender.SendMetric(ctx, payload)
		}},
		{kindEvent, func(ctx context.Context) error {
			payload, buildErr := r.builder.Event(meta, tags)
			if buildErr != nil {
				return buildErr
			}
			return r.sender.SendEvent(ctx, payload)
		}},
		{kindServiceCheck, func(ctx context.Context) error {
			return r.sender.SendServiceCheck(ctx, r.builder.ServiceCheck(r.checkName, meta, tags))
		}},
	}

	results := make([]error, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, kind string, send func(context.Context) error) {
			defer wg.Done()

			callErr := send(ctx)
			r.counters.observe(kind, callErr != nil)
			if callErr != nil {
				r.logger.Error(
					"telemetry call failed",
					slog.String("kind", kind),
					slog.String("job", meta.JobName),
					slog.Int("build", meta.Number),
					slog.String("error", callErr.Error()),
				)
				results[i] = fmt.Errorf("%s: %w", kind, callErr)
				return
			}

			r.logger.Info(
				"telemetry call sent",
				slog.String("kind", kind),
				slog.String("job", meta.JobName),
				slog.Int("build", meta.Number),
			)
		}(i, call.kind, call.send)
	}
	wg.Wait()

	return errors.Join(results...)
}
