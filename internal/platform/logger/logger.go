package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. Text output to stdout; handlers and
// services attach request_id and domain attributes per call.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
