package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. JSON in production, text
// when LOG_FORMAT=text for local runs.
func New(component string) *slog.Logger {
	var handler slog.Handler
	if os.Getenv("LOG_FORMAT") == "text" {
		handler = slog.NewTextHandler(os.Stdout, nil)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	}
	return slog.New(handler).With("component", component)
}
