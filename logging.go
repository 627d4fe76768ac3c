package roadway

import (
	"log/slog"
	"os"
)

// defaultLogger is used when no logger is injected via WithLogger.
func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
