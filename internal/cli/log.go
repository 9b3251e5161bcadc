package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/cellar/pkg/pipeline"
)

// newLogger returns the command logger. Lines carry the app prefix and a
// "15:04:05.00" timestamp.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
		Prefix:          appName,
	})
}

// progress times a pipeline run and logs a one-line summary of it.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func (c *CLI) track() *progress {
	return &progress{logger: c.Logger, start: time.Now()}
}

// done logs "<verb> <n> formula(e) (<elapsed>)" for the results with status
// want. Nothing is logged when no result matches.
func (p *progress) done(verb string, results []pipeline.Result, want pipeline.Status) int {
	n := countStatus(results, want)
	if n > 0 {
		p.logger.Infof("%s %d %s (%s)", verb, n, plural(n, "formula", "formulae"),
			time.Since(p.start).Round(time.Millisecond))
	}
	return n
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
