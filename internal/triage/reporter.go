package triage

import (
	"fmt"
	"io"
)

// Reporter receives the human-readable progress lines of a run.
type Reporter interface {
	Reportf(format string, args ...any)
}

type writerReporter struct {
	w io.Writer
}

// NewReporter writes one progress line per call to w.
func NewReporter(w io.Writer) Reporter {
	return writerReporter{w: w}
}

func (r writerReporter) Reportf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.w, format+"\n", args...)
}

type discardReporter struct{}

func (discardReporter) Reportf(string, ...any) {}

// DiscardReporter drops all progress lines.
var DiscardReporter Reporter = discardReporter{}
