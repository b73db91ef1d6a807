// Package intake runs the HTTP endpoint that receives build-completion
// notifications and hands them to the reporter.
package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	pprofhttp "net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"buildreport/internal/build"
	"buildreport/internal/config"
)

const (
	shutdownTimeout = 5 * time.Second
	readHeaderTO    = 5 * time.Second
)

// Reporter runs the telemetry sequence for one completed build.
// Params: context and completed build facts.
// Returns: aggregate delivery error or nil.
type Reporter interface {
	ReportCompleted(ctx context.Context, b build.Build) error
}

// Server accepts build-completion notifications over HTTP and exposes
// prometheus and optional pprof endpoints on the same listener.
// Params: listen address, notification path, and diagnostics.
// Returns: runnable server instance.
type Server struct {
	listen string
	ln     net.Listener
	server *http.Server
	logger *slog.Logger
}

// NewServer creates an intake server and binds its listen address.
// Params: cfg intake settings; rep telemetry reporter; gatherer registry for
// /metrics; logger diagnostics.
// Returns: server instance or bind error.
func NewServer(cfg config.IntakeConfig, rep Reporter, gatherer prometheus.Gatherer, logger *slog.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return nil, fmt.Errorf("listen %q: %w", cfg.Listen, err)
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, newBuildHandler(rep, cfg.MaxBodyBytes, logger))
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	if cfg.Pprof {
		mux.HandleFunc("/debug/pprof/", pprofhttp.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprofhttp.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprofhttp.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprofhttp.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprofhttp.Trace)
	}

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTO,
	}

	return &Server{
		listen: cfg.Listen,
		ln:     ln,
		server: server,
		logger: logger,
	}, nil
}

// Addr reports the bound listener address, useful with a ":0" listen config.
// Params: none.
// Returns: host:port the server accepts connections on.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Run starts serving and shuts down on context cancellation.
// Params: ctx lifecycle context.
// Returns: nil on graceful stop; error on early serve failures.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(s.ln)
	}()

	s.logger.Info("intake server started", slog.String("addr", s.Addr()))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
		err := <-errCh
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case err := <-errCh:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		s.logger.Error("intake server stopped unexpectedly", slog.String("listen", s.listen), slog.String("error", err.Error()))
		return err
	}
}
