// Package logging initializes the application-wide structured logger.
package logging

import (
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// Logger is the application-wide structured logger instance.
var Logger *slog.Logger

// InitLogger initializes the global logger with the specified level and format.
// level: "debug", "info", "warn", "error" (defaults to "info")
// format: "json" or "text" (defaults to "text")
func InitLogger(level, format string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

// WithSchool returns a logger with a school_id field.
func WithSchool(schoolID int64) *slog.Logger {
	return slog.Default().With("school_id", schoolID)
}

// WithUser returns a logger with a user_id field.
func WithUser(userID uuid.UUID) *slog.Logger {
	return slog.Default().With("user_id", userID.String())
}

// WithConnection returns a logger with a connection_id field.
func WithConnection(connID uuid.UUID) *slog.Logger {
	return slog.Default().With("connection_id", connID.String())
}
