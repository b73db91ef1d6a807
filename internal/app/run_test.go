package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"buildreport/internal/config"
)

type fakeServer struct {
	runErr     error
	waitForCtx bool
}

func (f *fakeServer) Run(ctx context.Context) error {
	if f.waitForCtx {
		<-ctx.Done()
	}
	return f.runErr
}

func testDeps(cfg *config.Config, server serverRunner) runDeps {
	return runDeps{
		loadConfig: func(string) (*config.Config, error) { return cfg, nil },
		newLogger: func(config.LogConfig) (*slog.Logger, func(), error) {
			return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
		},
		newServer: func(*config.Config, *slog.Logger) (serverRunner, error) { return server, nil },
	}
}

func enabledConfig() *config.Config {
	return &config.Config{
		API: config.APIConfig{URL: "https://app.datadoghq.com/api/", Key: "k"},
		Intake: config.IntakeConfig{
			Enabled: true,
			Listen:  "127.0.0.1:0",
			Path:    "/v1/build",
		},
	}
}

func TestRun_RequiresConfigPath(t *testing.T) {
	err := runWithDeps(context.Background(), Runtime{ConfigPath: "  "}, testDeps(enabledConfig(), &fakeServer{}))
	if err == nil || !strings.Contains(err.Error(), "config path") {
		t.Fatalf("error = %v, want config path requirement", err)
	}
}

func TestRun_PropagatesLoadFailure(t *testing.T) {
	deps := testDeps(nil, &fakeServer{})
	deps.loadConfig = func(string) (*config.Config, error) {
		return nil, fmt.Errorf("missing api key")
	}

	err := runWithDeps(context.Background(), Runtime{ConfigPath: "reporter.toml"}, deps)
	if err == nil || !strings.Contains(err.Error(), "load config") {
		t.Fatalf("error = %v, want load config failure", err)
	}
}

func TestRun_RejectsDisabledIntake(t *testing.T) {
	cfg := enabledConfig()
	cfg.Intake.Enabled = false

	err := runWithDeps(context.Background(), Runtime{ConfigPath: "reporter.toml"}, testDeps(cfg, &fakeServer{}))
	if err == nil || !strings.Contains(err.Error(), "intake is disabled") {
		t.Fatalf("error = %v, want disabled intake rejection", err)
	}
}

func TestRun_StopsGracefullyOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	server := &fakeServer{waitForCtx: true}

	done := make(chan error, 1)
	go func() {
		done <- runWithDeps(ctx, Runtime{ConfigPath: "reporter.toml"}, testDeps(enabledConfig(), server))
	}()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v, want nil after cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestRun_ReportsUnexpectedServerExit(t *testing.T) {
	cases := []struct {
		name   string
		server *fakeServer
	}{
		{"serve error", &fakeServer{runErr: fmt.Errorf("listener closed")}},
		{"silent exit", &fakeServer{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := runWithDeps(context.Background(), Runtime{ConfigPath: "reporter.toml"}, testDeps(enabledConfig(), tc.server))
			if err == nil || !strings.Contains(err.Error(), "run intake") {
				t.Fatalf("error = %v, want run intake failure", err)
			}
		})
	}
}
