package build

import (
	"context"
	"fmt"
	"log/slog"
	"math"
)

// Extractor turns raw build facts into normalized metadata records.
// Params: hostname fallback probe and logger for degradations.
// Returns: extractor instance.
type Extractor struct {
	hostnameProbe func(ctx context.Context) (string, error)
	logger        *slog.Logger
}

// ExtractorOptions describes optional extractor behavior.
// Params: HostnameProbe overrides the host probe used when HOSTNAME is absent.
// Returns: extractor runtime options.
type ExtractorOptions struct {
	HostnameProbe func(ctx context.Context) (string, error)
}

// NewExtractor creates a metadata extractor.
// Params: logger for probe degradations; options optional overrides.
// Returns: configured extractor.
func NewExtractor(logger *slog.Logger, options ExtractorOptions) *Extractor {
	probe := options.HostnameProbe
	if probe == nil {
		probe = probeHostname
	}
	return &Extractor{
		hostnameProbe: probe,
		logger:        logger,
	}
}

// Extract reads one completed build into a normalized metadata record.
// Millisecond timings convert to seconds: start truncates, duration keeps the
// fraction, end = start + floor(duration). Branch prefers GIT_BRANCH over
// CVS_BRANCH. A failed environment read aborts extraction.
// Params: ctx bounds the hostname probe; b completed build facts.
// Returns: metadata record or ErrEnvironmentUnavailable-wrapped error.
func (e *Extractor) Extract(ctx context.Context, b Build) (*Metadata, error) {
	env, err := b.Environment()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEnvironmentUnavailable, err)
	}

	startTime := b.StartTimeMillis() / 1000
	duration := float64(b.DurationMillis()) / 1000.0

	meta := &Metadata{
		StartTime: startTime,
		Duration:  duration,
		EndTime:   startTime + int64(math.Floor(duration)),
		Result:    b.Result(),
		Number:    b.Number(),
		JobName:   b.JobName(),
	}

	if hostname, ok := env.Get(EnvHostname); ok {
		meta.Hostname = &hostname
	} else if probed, probeErr := e.hostnameProbe(ctx); probeErr == nil {
		meta.Hostname = &probed
	} else {
		e.logger.Debug(
			"hostname unavailable",
			slog.String("job", meta.JobName),
			slog.String("error", probeErr.Error()),
		)
	}

	if node, ok := env.Get(EnvNodeName); ok {
		meta.Node = &node
	}

	if branch, ok := env.Get(EnvGitBranch); ok {
		meta.Branch = &branch
	} else if branch, ok := env.Get(EnvCvsBranch); ok {
		meta.Branch = &branch
	}

	return meta, nil
}
