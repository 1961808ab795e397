// Package cli implements the unformer command-line interface.
//
// The commands follow the pipeline stages: graph builds the presentation
// graph of a model, layout positions it, render writes SVG, DOT or JSON, and
// explore browses a model interactively. serve exposes the same pipeline over
// HTTP. models, inspect and cache are supporting tools.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Logs go to
// stderr through a shared charmbracelet/log logger; human-readable results go
// to stdout.
//
// # Example
//
//	c := cli.New(os.Stderr, cli.LogInfo)
//	if err := c.RootCommand().ExecuteContext(ctx); err != nil {
//	    os.Exit(1)
//	}
package cli

import (
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

// progress times a step and logs its completion at debug level.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "loaded tree (1.234s)".
func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))
	p.logger.Debug(msg, keyvals...)
}
