package logger_test

import (
	"log/slog"

	"github.com/soundprediction/docsim/pkg/logger"
)

func ExampleNewDefaultLogger() {
	// Create a logger with default settings
	log := logger.NewDefaultLogger(slog.LevelDebug)

	// Log different levels
	log.Debug("This is a debug message")
	log.Info("This is an info message")
	log.Info("Persisting model checkpoint") // Will be green in terminal
	log.Warn("This is a warning message")   // Will be yellow in terminal
	log.Error("This is an error message")   // Will be red in terminal
}

func ExampleNewLogger() {
	// Create a logger with custom configuration
	log := logger.NewLogger(logger.Options{Level: slog.LevelInfo, Format: "json"})

	// Log with attributes
	log.Info("Loaded corpus", "documents", 1200, "path", "docs.jsonl")
	log.Info("Checkpoint persisted", "epoch", 3, "threshold", 0.42)                  // Green
	log.Warn("Calibration degenerate, keeping previous threshold", "epoch", 4)       // Yellow
	log.Error("Embedding provider failed", "op", "infer_vector", "error", "timeout") // Red
}
