package logger

import (
	"log/slog"
	"os"

	"patent-ip-platform/internal/config"
)

var Logger *slog.Logger

// InitLogger sets up JSON logging to stdout, tagged with the service name.
// Debug mode lowers the level and records source positions.
func InitLogger(cfg *config.Config) {
	level := slog.LevelInfo
	if cfg.GinMode == "debug" {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	})
	Logger = slog.New(handler).With("service", "patent-ip-platform")
	slog.SetDefault(Logger)

	Logger.Info("structured logging initialized", "level", level.String())
}

// The helpers tolerate a nil Logger so library code can log before
// InitLogger runs (tests, short-lived tools).
func Info(msg string, args ...any) {
	if Logger != nil {
		Logger.Info(msg, args...)
	}
}

func Error(msg string, args ...any) {
	if Logger != nil {
		Logger.Error(msg, args...)
	}
}

func Debug(msg string, args ...any) {
	if Logger != nil {
		Logger.Debug(msg, args...)
	}
}

func Warn(msg string, args ...any) {
	if Logger != nil {
		Logger.Warn(msg, args...)
	}
}
