// Package cli implements the boxdeck command-line interface.
//
// This package provides commands for rendering deck files, dumping their
// layout, managing the artifact cache, and serving renders over HTTP. The
// CLI is built using cobra and supports verbose logging via the
// charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - render: Generate PDF, SVG, PNG or JSON output from a deck file
//   - layout: Print the resolved box rectangles and anchors as JSON
//   - cache: Manage the artifact cache
//   - serve: Run the HTTP render service
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which adds
// per-slide timings from the layout stage.
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

// newLogger returns the CLI logger writing to w. Timestamps with
// centiseconds ("14:32:01.45") are only shown at debug level, where they
// line up the per-slide timings of the layout stage.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: level <= log.DebugLevel,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times one command and logs its outcome as a structured line:
//
//	INFO rendered formats=pdf,svg pages=12 took=1.234s
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with keyvals and the elapsed time rounded to milliseconds.
func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "took", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, keyvals...)
}
