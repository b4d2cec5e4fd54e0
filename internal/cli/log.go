// Package cli implements the orthoroute command-line interface.
//
// # Commands
//
//   - route: route a scene file and write the layout and drawings
//   - render: draw a previously routed layout
//   - inspect: browse a routed layout in the terminal
//   - serve: run the HTTP API
//   - cache: manage the local layout cache
//   - version: print build information
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The CLI
// owns one logger and hands it to the pipeline runner and the server.
//
// # Configuration
//
// Defaults come from $XDG_CONFIG_HOME/orthoroute/config.toml, or the file
// named by --config. Flags override file values.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger with timestamp formatting, e.g. "14:32:01.45".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs the completion of an operation with its elapsed time.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created,
// e.g. "Routed 12 connections (4ms)".
func (p *progress) done(msg string, keyvals ...any) {
	p.logger.Info(msg, append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))...)
}
