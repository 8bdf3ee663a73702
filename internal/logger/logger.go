// Package logger configures the process-wide slog logger.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// New builds a logger for env, installs it as the slog default and returns
// it. Production gets JSON lines; everything else gets the text handler.
func New(service, env string) *slog.Logger {
	return newWithWriter(os.Stdout, service, env)
}

func newWithWriter(w io.Writer, service, env string) *slog.Logger {
	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     slog.LevelInfo,
			AddSource: true,
		})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	l := slog.New(handler).With("service", service, "environment", env)
	slog.SetDefault(l)
	return l
}

// Silence installs a default logger that drops everything below error
// level and writes the rest to w. Tests use it to keep output readable.
func Silence(w io.Writer) {
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelError})))
}
