// Package cli implements the stackaudit command-line interface.
//
// This package provides commands for auditing dependency manifests in local
// directories or GitHub repositories, serving the audit engine over HTTP,
// and managing the HTTP response cache. The CLI is built using cobra and
// supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - audit: Parse manifests, resolve transitives, and report vulnerabilities
//   - serve: Run the audit engine as an HTTP service
//   - cache: Manage the HTTP response cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with
// elapsed duration. Safe for sequential use by a single goroutine.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Audited 42 dependencies (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// progressHooks forwards audit pipeline wave events to the CLI logger, so
// long resolve and enrich stages show movement instead of going quiet.
type progressHooks struct {
	logger *log.Logger
}

func (h progressHooks) OnStageStart(_ context.Context, stage string, total int) {
	h.logger.Debug("stage started", "stage", stage, "total", total)
}

func (h progressHooks) OnStageProgress(_ context.Context, stage string, processed, total int) {
	h.logger.Info("progress", "stage", stage, "done", fmt.Sprintf("%d/%d", processed, total))
}

func (h progressHooks) OnStageComplete(_ context.Context, stage string, elapsed time.Duration, err error) {
	if err != nil {
		h.logger.Warn("stage failed", "stage", stage, "elapsed", elapsed.Round(time.Millisecond), "err", err)
		return
	}
	h.logger.Debug("stage finished", "stage", stage, "elapsed", elapsed.Round(time.Millisecond))
}

// ctxKey is the type for context keys used in this package.
type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, falling back to
// log.Default() so commands always have a valid logger.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
