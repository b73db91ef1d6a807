// Package build normalizes raw facts about one completed build execution.
package build

import (
	"errors"
	"strconv"
)

// Environment variable names read from the build environment.
const (
	EnvHostname  = "HOSTNAME"
	EnvNodeName  = "NODE_NAME"
	EnvGitBranch = "GIT_BRANCH"
	EnvCvsBranch = "CVS_BRANCH"
)

// ResultSuccess is the only result value with dedicated semantics; every other
// result string is treated uniformly as a non-success.
const ResultSuccess = "SUCCESS"

// ErrEnvironmentUnavailable reports that the build environment could not be read.
// The report for that build is aborted rather than assembled from missing fields.
var ErrEnvironmentUnavailable = errors.New("build environment unavailable")

// Build exposes one completed build execution as supplied by the orchestrator.
// Params: timing in milliseconds, outcome, identity, and environment access.
// Returns: raw build facts for extraction.
type Build interface {
	StartTimeMillis() int64
	DurationMillis() int64
	Result() string
	Number() int
	JobName() string
	Environment() (Environment, error)
}

// Environment exposes build environment variables.
// Params: variable name.
// Returns: value and presence flag.
type Environment interface {
	Get(key string) (string, bool)
}

// Metadata is the normalized snapshot of one build, immutable after extraction.
// Params: timing in seconds, outcome, identity, and optional environment facts.
// Returns: normalized build record.
type Metadata struct {
	StartTime int64
	Duration  float64
	EndTime   int64
	Result    string
	Number    int
	JobName   string
	Hostname  *string
	Node      *string
	Branch    *string
}

// Succeeded reports whether the build result is the success value.
// Params: none.
// Returns: true iff result equals "SUCCESS".
func (m *Metadata) Succeeded() bool {
	return m.Result == ResultSuccess
}

// Tags derives the canonical ordered tag set for this build.
// Always job_name, result, build_number; branch appended only when present.
// Values are emitted verbatim: a job name containing ':' yields an ambiguous
// tag, which is an accepted limitation of the tag format.
// Params: none.
// Returns: ordered "key:value" tag strings.
func (m *Metadata) Tags() []string {
	tags := []string{
		"job_name:" + m.JobName,
		"result:" + m.Result,
		"build_number:" + strconv.Itoa(m.Number),
	}
	if m.Branch != nil {
		tags = append(tags, "branch:"+*m.Branch)
	}
	return tags
}
