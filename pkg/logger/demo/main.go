package main

import (
	"log/slog"

	"github.com/soundprediction/docsim/pkg/logger"
)

func main() {
	// Create a colored logger
	log := logger.NewDefaultLogger(slog.LevelDebug)

	log.Info("============================================")
	log.Info("      docsim Colored Logger Demo")
	log.Info("============================================")
	log.Info("")

	log.Debug("Debug message - standard color")
	log.Info("Info message - standard color")
	log.Info("Persisting model checkpoint - green!")
	log.Info("Checkpoint persisted - also green!")
	log.Warn("Warning message - yellow!")
	log.Error("Error message - red!")

	log.Info("")
	log.Info("A training epoch as it appears on the terminal:")
	log.Info("Epoch trained", "epoch", 1, "documents", 1200)
	log.Info("Threshold calibrated", "threshold", 0.42, "score", 0.87)
	log.Info("Checkpoint persisted", "path", "model.json", "epoch", 1)
	log.Warn("Calibration degenerate, keeping previous threshold", "metrics", "true_negative_rate")

	log.Info("")
	log.Info("Demo complete!")
}
