package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"buildreport/internal/config"
)

const (
	ansiReset  = "\x1b[0m"
	ansiBlue   = "\x1b[34m"
	ansiGreen  = "\x1b[32m"
	ansiCyan   = "\x1b[36m"
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
	ansiGray   = "\x1b[90m"
)

// levelColors maps logfmt level markers to base line colors.
var levelColors = map[string]string{
	"level=DEBUG": ansiGray,
	"level=INFO":  ansiBlue,
	"level=WARN":  ansiYellow,
	"level=ERROR": ansiRed,
}

// tokenPattern matches colorable tokens: quoted strings, IPv4 addresses, numbers.
var tokenPattern = regexp.MustCompile(`"[^"]*"|\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b|\b\d+(?:\.\d+)?\b`)

// ipPattern matches IPv4 addresses for token classification.
var ipPattern = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)

// colorLineWriter decorates logfmt lines with ANSI colors before writing.
// Params: dst receives the decorated bytes.
// Returns: writer implementation for console sinks.
type colorLineWriter struct {
	dst io.Writer
}

// Write colors one logfmt line by level and token kind.
// Params: p raw line bytes, optionally newline-terminated.
// Returns: length of the input and destination write error.
func (w *colorLineWriter) Write(p []byte) (int, error) {
	line := string(p)
	newline := ""
	if strings.HasSuffix(line, "\n") {
		line = strings.TrimSuffix(line, "\n")
		newline = "\n"
	}

	base := ""
	for marker, color := range levelColors {
		if strings.Contains(line, marker) {
			base = color
			break
		}
	}
	if base == "" {
		if _, err := w.dst.Write(p); err != nil {
			return 0, err
		}
		return len(p), nil
	}

	colored := tokenPattern.ReplaceAllStringFunc(line, func(token string) string {
		switch {
		case strings.HasPrefix(token, `"`):
			return ansiGreen + token + ansiReset + base
		case ipPattern.MatchString(token):
			return ansiCyan + token + ansiReset + base
		default:
			return ansiYellow + token + ansiReset + base
		}
	})

	if _, err := io.WriteString(w.dst, base+colored+ansiReset+newline); err != nil {
		return 0, err
	}
	return len(p), nil
}

// multiHandler fans one record out to all configured sink handlers.
type multiHandler struct {
	handlers []slog.Handler
}

// Enabled reports whether any sink accepts the level.
// Params: ctx request context; level record level.
// Returns: true when at least one sink is enabled for level.
func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle forwards the record to every sink that accepts its level.
// Params: ctx request context; record log record.
// Returns: first sink error when present.
func (h *multiHandler) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, record.Level) {
			continue
		}
		if err := handler.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// WithAttrs returns a fan-out handler with attrs applied to every sink.
// Params: attrs record attributes.
// Returns: derived handler.
func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: next}
}

// WithGroup returns a fan-out handler with the group applied to every sink.
// Params: name group name.
// Returns: derived handler.
func (h *multiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		next[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: next}
}

// New builds the process logger from sink configuration.
// Params: cfg console/file sink settings.
// Returns: logger, close function for file resources, or setup error.
func New(cfg config.LogConfig) (*slog.Logger, func(), error) {
	var handlers []slog.Handler
	closeFn := func() {}

	if cfg.Console.Enabled {
		handler, err := newSinkHandler(os.Stdout, cfg.Console, true)
		if err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, handler)
	}

	if cfg.File.Enabled {
		file, err := os.OpenFile(cfg.File.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file %q: %w", cfg.File.Path, err)
		}

		handler, err := newSinkHandler(file, cfg.File, false)
		if err != nil {
			_ = file.Close()
			return nil, nil, err
		}
		handlers = append(handlers, handler)
		closeFn = func() {
			_ = file.Close()
		}
	}

	if len(handlers) == 0 {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), closeFn, nil
	}
	if len(handlers) == 1 {
		return slog.New(handlers[0]), closeFn, nil
	}
	return slog.New(&multiHandler{handlers: handlers}), closeFn, nil
}

// newSinkHandler builds one slog handler for a sink destination.
// Params: dst output writer; cfg sink settings; colorize wraps line output in ANSI colors.
// Returns: handler or setup error.
func newSinkHandler(dst io.Writer, cfg config.LogSinkConfig, colorize bool) (slog.Handler, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	switch cfg.Format {
	case "json":
		return slog.NewJSONHandler(dst, opts), nil
	case "line":
		if colorize {
			dst = &colorLineWriter{dst: dst}
		}
		return slog.NewTextHandler(dst, opts), nil
	default:
		return nil, fmt.Errorf("unsupported log format %q", cfg.Format)
	}
}

// parseLevel converts a config level string into a slog level.
// Params: value config level setting.
// Returns: slog level or error for unknown levels.
func parseLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unsupported log level %q", value)
	}
}
