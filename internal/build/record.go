package build

import "os"

// MapEnvironment adapts a plain map into an Environment.
// Params: key/value pairs as captured from the orchestrator.
// Returns: environment view over the map.
type MapEnvironment map[string]string

// Get looks one variable up in the map.
// Params: key variable name.
// Returns: value and presence flag.
func (m MapEnvironment) Get(key string) (string, bool) {
	value, ok := m[key]
	return value, ok
}

// ProcessEnvironment reads the reporter's own process environment.
type ProcessEnvironment struct{}

// Get looks one variable up in the process environment.
// Params: key variable name.
// Returns: value and presence flag.
func (ProcessEnvironment) Get(key string) (string, bool) {
	return os.LookupEnv(key)
}

// Record is a self-contained Build used by the CLI and the intake endpoint.
// Params: build facts plus a captured environment (or a capture error).
// Returns: Build implementation backed by plain values.
type Record struct {
	StartMillis   int64
	ElapsedMillis int64
	BuildResult   string
	BuildNumber   int
	Job           string
	Env           Environment
	EnvErr        error
}

// StartTimeMillis returns the build start in milliseconds since epoch.
func (r *Record) StartTimeMillis() int64 { return r.StartMillis }

// DurationMillis returns the build wall-clock duration in milliseconds.
func (r *Record) DurationMillis() int64 { return r.ElapsedMillis }

// Result returns the orchestrator's result string.
func (r *Record) Result() string { return r.BuildResult }

// Number returns the build number.
func (r *Record) Number() int { return r.BuildNumber }

// JobName returns the job display name.
func (r *Record) JobName() string { return r.Job }

// Environment returns the captured environment or the capture error.
func (r *Record) Environment() (Environment, error) {
	if r.EnvErr != nil {
		return nil, r.EnvErr
	}
	if r.Env == nil {
		return MapEnvironment(nil), nil
	}
	return r.Env, nil
}
