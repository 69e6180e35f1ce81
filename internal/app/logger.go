package app

import (
	"fmt"
	"log/slog"
	"os"
)

func createLogger(level string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	case "info":
		fallthrough
	default:
		l = slog.LevelInfo
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
	logger.Info(fmt.Sprintf("logger initialized (%s)", l.String()))
	return logger
}
