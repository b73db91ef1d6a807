package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	defaultLogLevel      = "info"
	defaultLogFormat     = "line"
	defaultAPIURL        = "https://app.datadoghq.com/api/"
	defaultAPITimeout    = 10 * time.Second
	defaultMetricName    = "build.job.duration"
	defaultCheckName     = "build.job.status"
	defaultIntakeListen  = "127.0.0.1:8126"
	defaultIntakePath    = "/v1/build"
	defaultIntakeMaxBody = 1 << 20
)

// Duration wraps time.Duration for TOML parsing.
// Params: text duration string (e.g. "5s", "1m").
// Returns: parse error on invalid duration.
type Duration struct {
	time.Duration
}

// UnmarshalText parses TOML duration values.
// Params: text is raw duration bytes from TOML.
// Returns: error when value is not a valid Go duration.
func (d *Duration) UnmarshalText(text []byte) error {
	value := strings.TrimSpace(string(text))
	if value == "" {
		d.Duration = 0
		return nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value, err)
	}

	d.Duration = parsed
	return nil
}

// Config represents the root reporter configuration.
// Params: TOML document sections.
// Returns: validated runtime configuration.
type Config struct {
	API       APIConfig       `toml:"api"`
	Proxy     ProxyConfig     `toml:"proxy"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Intake    IntakeConfig    `toml:"intake"`
	Log       LogConfig       `toml:"log"`
}

// APIConfig contains monitoring API endpoint and credential settings.
// Params: base URL, inline key or key file path, and per-request timeout.
// Returns: API client settings.
type APIConfig struct {
	URL     string   `toml:"url"`
	Key     string   `toml:"key"`
	KeyFile string   `toml:"key_file"`
	Timeout Duration `toml:"timeout"`
}

// ProxyConfig contains optional outbound HTTP proxy settings.
// Params: proxy URL; empty disables proxying.
// Returns: proxy settings for the transport.
type ProxyConfig struct {
	URL string `toml:"url"`
}

// TelemetryConfig contains telemetry naming and host override settings.
// Params: metric/check identifiers and optional host tag override.
// Returns: telemetry naming settings.
type TelemetryConfig struct {
	Metric string `toml:"metric"`
	Check  string `toml:"check"`
	Host   string `toml:"host"`
}

// IntakeConfig defines the optional build-completion intake endpoint.
// Params: enabled flag, listen address, request path, body limit, pprof toggle.
// Returns: intake server settings.
type IntakeConfig struct {
	Enabled      bool   `toml:"enabled"`
	Listen       string `toml:"listen"`
	Path         string `toml:"path"`
	MaxBodyBytes int64  `toml:"max_body_bytes"`
	Pprof        bool   `toml:"pprof"`
}

// LogConfig contains console/file logging configuration.
// Params: console and file sink options.
// Returns: logger sink settings.
type LogConfig struct {
	Console LogSinkConfig `toml:"console"`
	File    LogSinkConfig `toml:"file"`
}

// LogSinkConfig defines one logging sink.
// Params: sink options from TOML.
// Returns: sink setup.
type LogSinkConfig struct {
	Enabled bool   `toml:"enabled"`
	Level   string `toml:"level"`
	Format  string `toml:"format"`
	Path    string `toml:"path"`
}

// Load reads, expands, validates, and returns config from path.
// Params: path to TOML config file or directory with *.toml files.
// Returns: validated config pointer or error.
func Load(path string) (*Config, error) {
	raw, err := readConfigSource(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(raw))

	var cfg Config
	if err := toml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("decode TOML %q: %w", path, err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// readConfigSource reads one TOML file or concatenates *.toml files from directory.
// Params: path to config file or directory.
// Returns: raw TOML bytes or error.
func readConfigSource(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat config %q: %w", path, err)
	}

	if !info.IsDir() {
		raw, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, fmt.Errorf("read config %q: %w", path, readErr)
		}
		return raw, nil
	}

	return readConfigDir(path)
}

// readConfigDir concatenates config snippets from one directory.
// Params: path to directory that contains *.toml files.
// Returns: concatenated TOML content or error.
func readConfigDir(path string) ([]byte, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read config dir %q: %w", path, err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".toml") {
			files = append(files, entry.Name())
		}
	}

	sort.Strings(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("read config dir %q: no *.toml files", path)
	}

	var builder strings.Builder
	for _, name := range files {
		filePath := filepath.Join(path, name)
		raw, readErr := os.ReadFile(filePath)
		if readErr != nil {
			return nil, fmt.Errorf("read config %q: %w", filePath, readErr)
		}
		builder.Write(raw)
		if len(raw) == 0 || raw[len(raw)-1] != '\n' {
			builder.WriteByte('\n')
		}
		builder.WriteByte('\n')
	}

	return []byte(builder.String()), nil
}

// applyDefaults fills defaults for optional configuration fields.
// Params: receiver config pointer.
// Returns: none.
func (c *Config) applyDefaults() {
	c.Log.Console.Level = lowerOrDefault(c.Log.Console.Level, defaultLogLevel)
	c.Log.Console.Format = lowerOrDefault(c.Log.Console.Format, defaultLogFormat)
	c.Log.File.Level = lowerOrDefault(c.Log.File.Level, defaultLogLevel)
	c.Log.File.Format = lowerOrDefault(c.Log.File.Format, "json")

	if !c.Log.Console.Enabled && !c.Log.File.Enabled {
		c.Log.Console.Enabled = true
	}

	if strings.TrimSpace(c.API.URL) == "" {
		c.API.URL = defaultAPIURL
	}
	if c.API.Timeout.Duration <= 0 {
		c.API.Timeout.Duration = defaultAPITimeout
	}

	if strings.TrimSpace(c.Telemetry.Metric) == "" {
		c.Telemetry.Metric = defaultMetricName
	}
	if strings.TrimSpace(c.Telemetry.Check) == "" {
		c.Telemetry.Check = defaultCheckName
	}

	if c.Intake.Enabled {
		if strings.TrimSpace(c.Intake.Listen) == "" {
			c.Intake.Listen = defaultIntakeListen
		}
		if strings.TrimSpace(c.Intake.Path) == "" {
			c.Intake.Path = defaultIntakePath
		}
		if c.Intake.MaxBodyBytes <= 0 {
			c.Intake.MaxBodyBytes = defaultIntakeMaxBody
		}
	}
}

// validate checks config consistency and required fields.
// Params: receiver config pointer.
// Returns: validation error for invalid or incomplete config.
func (c *Config) validate() error {
	if err := validateAPIConfig("api", c.API); err != nil {
		return err
	}
	if err := validateProxyConfig("proxy", c.Proxy); err != nil {
		return err
	}
	if err := validateIntakeConfig("intake", c.Intake); err != nil {
		return err
	}

	if err := validateSink("log.console", c.Log.Console, false); err != nil {
		return err
	}
	if err := validateSink("log.file", c.Log.File, true); err != nil {
		return err
	}

	return nil
}

// validateAPIConfig checks API endpoint and credential settings.
// Params: path config field prefix for messages; cfg API section.
// Returns: validation error or nil.
func validateAPIConfig(path string, cfg APIConfig) error {
	parsed, err := url.Parse(cfg.URL)
	if err != nil {
		return fmt.Errorf("%s.url is invalid: %w", path, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s.url must use http or https, got %q", path, cfg.URL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s.url is missing a host", path)
	}

	if strings.TrimSpace(cfg.Key) == "" && strings.TrimSpace(cfg.KeyFile) == "" {
		return fmt.Errorf("%s.key or %s.key_file is required", path, path)
	}
	if cfg.Timeout.Duration <= 0 {
		return fmt.Errorf("%s.timeout must be > 0", path)
	}

	return nil
}

// validateProxyConfig checks optional proxy settings.
// Params: path config field prefix for messages; cfg proxy section.
// Returns: validation error or nil.
func validateProxyConfig(path string, cfg ProxyConfig) error {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil
	}

	parsed, err := url.Parse(cfg.URL)
	if err != nil {
		return fmt.Errorf("%s.url is invalid: %w", path, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s.url must use http or https, got %q", path, cfg.URL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s.url is missing a host", path)
	}

	return nil
}

// validateIntakeConfig checks intake listener settings when enabled.
// Params: path config field prefix for messages; cfg intake section.
// Returns: validation error or nil.
func validateIntakeConfig(path string, cfg IntakeConfig) error {
	if !cfg.Enabled {
		return nil
	}

	if _, _, err := net.SplitHostPort(cfg.Listen); err != nil {
		return fmt.Errorf("%s.listen must be host:port: %w", path, err)
	}
	if !strings.HasPrefix(cfg.Path, "/") {
		return fmt.Errorf("%s.path must start with '/', got %q", path, cfg.Path)
	}

	return nil
}

// validateSink checks one logging sink configuration.
// Params: path config field prefix; cfg sink section; requirePath demands file path.
// Returns: validation error or nil.
func validateSink(path string, cfg LogSinkConfig, requirePath bool) error {
	switch cfg.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%s.level must be one of debug|info|warn|error, got %q", path, cfg.Level)
	}

	switch cfg.Format {
	case "line", "json":
	default:
		return fmt.Errorf("%s.format must be line or json, got %q", path, cfg.Format)
	}

	if requirePath && cfg.Enabled && strings.TrimSpace(cfg.Path) == "" {
		return fmt.Errorf("%s.path is required when the file sink is enabled", path)
	}

	return nil
}

// lowerOrDefault lowercases a value or substitutes a default for blanks.
// Params: value raw setting; fallback default value.
// Returns: normalized setting.
func lowerOrDefault(value, fallback string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return fallback
	}
	return normalized
}
