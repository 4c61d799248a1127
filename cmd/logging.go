package cmd

import (
	"io"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/teemow/rejectlabel/internal/logging"
)

type logFlags struct {
	debug  bool
	format string
}

func (f *logFlags) register(fs *pflag.FlagSet) {
	fs.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.format, "log-format", logging.FormatText, "Log format: text or json")
}

// logger writes structured logs to w, which is never stdout for serve.
func (f *logFlags) logger(w io.Writer, quietLevel slog.Level) *slog.Logger {
	level := quietLevel
	if f.debug {
		level = slog.LevelDebug
	}
	return logging.New(w, level, f.format)
}

func newLogAdapter(logger *slog.Logger) logging.Logger {
	return logging.NewSlogAdapter(logger)
}
