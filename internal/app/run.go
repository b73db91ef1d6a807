package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"buildreport/internal/config"
	"buildreport/internal/datadog"
	"buildreport/internal/intake"
	"buildreport/internal/logging"
	"buildreport/internal/reporter"
)

// Runtime defines runtime inputs required to start the daemon.
// Params: ConfigPath points to the TOML configuration file or directory.
// Returns: Runtime value used by Run.
type Runtime struct {
	ConfigPath string
}

type serverRunner interface {
	Run(context.Context) error
}

type runDeps struct {
	loadConfig func(string) (*config.Config, error)
	newLogger  func(config.LogConfig) (*slog.Logger, func(), error)
	newServer  func(*config.Config, *slog.Logger) (serverRunner, error)
}

// Run loads configuration and serves the intake endpoint until ctx ends.
// Params: ctx controls lifecycle; rt provides runtime inputs.
// Returns: error on startup or serve failure, nil on graceful stop.
func Run(ctx context.Context, rt Runtime) error {
	return runWithDeps(ctx, rt, defaultRunDeps())
}

// runWithDeps executes the daemon lifecycle using injectable dependencies.
// Params: ctx controls lifecycle; rt runtime inputs; deps startup dependencies.
// Returns: runtime error or nil on graceful stop.
func runWithDeps(ctx context.Context, rt Runtime, deps runDeps) error {
	if strings.TrimSpace(rt.ConfigPath) == "" {
		return fmt.Errorf("config path is required")
	}

	cfg, err := deps.loadConfig(rt.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.Intake.Enabled {
		return fmt.Errorf("intake is disabled in configuration; enable [intake] to serve")
	}

	logger, closeLogger, err := deps.newLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer closeLogger()

	server, err := deps.newServer(cfg, logger)
	if err != nil {
		logger.Error("intake startup failed", slog.String("error", err.Error()))
		return fmt.Errorf("build intake server: %w", err)
	}

	logStartup(logger, cfg)

	runErr := server.Run(ctx)
	if ctx.Err() != nil {
		logger.Info("reporter stopped", slog.String("reason", ctx.Err().Error()))
		return nil
	}
	if runErr != nil {
		logger.Error("intake server stopped unexpectedly", slog.String("error", runErr.Error()))
		return fmt.Errorf("run intake: %w", runErr)
	}
	logger.Error("intake server stopped unexpectedly", slog.String("error", "server exited without context cancellation"))
	return fmt.Errorf("run intake: server exited without context cancellation")
}

// defaultRunDeps provides production runtime dependencies.
// Params: none.
// Returns: dependency set used by Run.
func defaultRunDeps() runDeps {
	return runDeps{
		loadConfig: config.Load,
		newLogger:  logging.New,
		newServer: func(cfg *config.Config, logger *slog.Logger) (serverRunner, error) {
			return buildServer(cfg, logger)
		},
	}
}

// NewClient builds the API client from config, including the proxy-aware
// transport and configured request timeout.
// Params: cfg validated config; logger diagnostics.
// Returns: configured API client.
func NewClient(cfg *config.Config, logger *slog.Logger) *datadog.Client {
	return datadog.NewClient(cfg.API.URL, datadog.CredentialsFromConfig(cfg.API), logger, datadog.ClientOptions{
		Timeout:   cfg.API.Timeout.Duration,
		Transport: datadog.NewTransport(cfg.Proxy.URL, logger),
	})
}

// NewReporter wires a reporter over the given client using configured
// telemetry names.
// Params: cfg validated config; client API client; logger diagnostics;
// counters optional delivery counters.
// Returns: configured reporter.
func NewReporter(cfg *config.Config, client *datadog.Client, logger *slog.Logger, counters *reporter.Counters) *reporter.Reporter {
	return reporter.New(client, logger, reporter.Options{
		MetricName:   cfg.Telemetry.Metric,
		CheckName:    cfg.Telemetry.Check,
		HostOverride: cfg.Telemetry.Host,
		Counters:     counters,
	})
}

// buildServer wires the API client, reporter, and intake server from config.
// Params: cfg validated config; logger initialized diagnostics.
// Returns: runnable intake server or startup error.
func buildServer(cfg *config.Config, logger *slog.Logger) (*intake.Server, error) {
	registry := prometheus.NewRegistry()
	rep := NewReporter(cfg, NewClient(cfg, logger), logger, reporter.NewCounters(registry))
	return intake.NewServer(cfg.Intake, rep, registry, logger)
}

// logStartup emits initial startup metadata.
// Params: logger is initialized slog logger; cfg is validated runtime config.
// Returns: none.
func logStartup(logger *slog.Logger, cfg *config.Config) {
	logger.Info(
		"reporter started",
		slog.String("api_url", cfg.API.URL),
		slog.String("listen", cfg.Intake.Listen),
		slog.String("path", cfg.Intake.Path),
		slog.Bool("proxy", cfg.Proxy.URL != ""),
	)
}
