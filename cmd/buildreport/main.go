// Package main provides the buildreport command line entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"buildreport/internal/app"
	"buildreport/internal/build"
	"buildreport/internal/config"
	"buildreport/internal/datadog"
	"buildreport/internal/logging"
)

const (
	exitCodeFailure     = 1
	exitCodeCheckFailed = 2
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "buildreport",
	Short:         "Report completed CI builds to the Datadog API",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `buildreport turns completed CI builds into Datadog telemetry: a duration
gauge, a completion event, and a status service check per build.

It runs either as a long-lived intake daemon receiving build-completion
notifications over HTTP (serve), or as a one-shot reporter invoked from a
build step with the build facts on the command line (report).`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP intake daemon",
	Long: `Serves the configured intake endpoint and reports every accepted
build-completion notification. Stops on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Run(cmd.Context(), app.Runtime{ConfigPath: configPath})
	},
}

var reportFlags struct {
	job        string
	result     string
	number     int
	startMs    int64
	durationMs int64
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report one completed build and exit",
	Long: `Reports a single completed build using facts passed on the command line.
HOSTNAME, NODE_NAME, and GIT_BRANCH/CVS_BRANCH are read from the process
environment, matching what a build step exports.

When --start-ms is omitted it is derived from the current time minus the
build duration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger, closeLogger, err := logging.New(cfg.Log)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer closeLogger()

		startMs := reportFlags.startMs
		if startMs == 0 {
			startMs = time.Now().UnixMilli() - reportFlags.durationMs
		}
		record := &build.Record{
			StartMillis:   startMs,
			ElapsedMillis: reportFlags.durationMs,
			BuildResult:   reportFlags.result,
			BuildNumber:   reportFlags.number,
			Job:           reportFlags.job,
			Env:           build.ProcessEnvironment{},
		}

		rep := app.NewReporter(cfg, app.NewClient(cfg, logger), logger, nil)
		return rep.ReportCompleted(cmd.Context(), record)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configured API key against the validation endpoint",
	Long: `Asks the API whether the configured key is valid.

Exit codes: 0 valid, 1 invalid, 2 check failed (network, proxy, or an
unexpected response).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger, closeLogger, err := logging.New(cfg.Log)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		key, err := datadog.CredentialsFromConfig(cfg.API).APIKey()
		if err != nil {
			closeLogger()
			return fmt.Errorf("read credential: %w", err)
		}

		outcome, err := app.NewClient(cfg, logger).ValidateKey(cmd.Context(), key)
		closeLogger()

		switch outcome {
		case datadog.KeyValid:
			fmt.Println("API key is valid")
			return nil
		case datadog.KeyInvalid:
			fmt.Println("API key is invalid")
			os.Exit(exitCodeFailure)
		default:
			fmt.Fprintf(os.Stderr, "validation check failed: %v\n", err)
			os.Exit(exitCodeCheckFailed)
		}
		return nil
	},
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s commit=%s date=%s", version, commit, date)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "reporter.toml", "path to TOML config file or directory")

	reportCmd.Flags().StringVar(&reportFlags.job, "job", "", "job display name")
	reportCmd.Flags().StringVar(&reportFlags.result, "result", "", "build result, e.g. SUCCESS or FAILURE")
	reportCmd.Flags().IntVar(&reportFlags.number, "number", 0, "build number")
	reportCmd.Flags().Int64Var(&reportFlags.startMs, "start-ms", 0, "build start in milliseconds since epoch")
	reportCmd.Flags().Int64Var(&reportFlags.durationMs, "duration-ms", 0, "build duration in milliseconds")
	_ = reportCmd.MarkFlagRequired("job")
	_ = reportCmd.MarkFlagRequired("result")

	rootCmd.AddCommand(serveCmd, reportCmd, validateCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCodeFailure)
	}
}
