// Package telemetry persists run diagnostics: error logs and per-epoch
// training history, to Parquet files or a SQLite database.
package telemetry

import (
	"context"

	"github.com/soundprediction/docsim/pkg/types"
)

// WithRun tags ctx with a run ID and the command that started it.
func WithRun(ctx context.Context, runID, command string) context.Context {
	ctx = context.WithValue(ctx, types.ContextKeyRunID, runID)
	return context.WithValue(ctx, types.ContextKeyCommand, command)
}

// WithEpoch tags ctx with the current training epoch.
func WithEpoch(ctx context.Context, epoch int) context.Context {
	return context.WithValue(ctx, types.ContextKeyEpoch, epoch)
}

// RunID returns the run ID set by WithRun, or "" when there is none.
func RunID(ctx context.Context) string {
	runID, _, _ := contextFields(ctx)
	return runID
}

func contextFields(ctx context.Context) (runID, command string, epoch int) {
	if v, ok := ctx.Value(types.ContextKeyRunID).(string); ok {
		runID = v
	}
	if v, ok := ctx.Value(types.ContextKeyCommand).(string); ok {
		command = v
	}
	if v, ok := ctx.Value(types.ContextKeyEpoch).(int); ok {
		epoch = v
	}
	return runID, command, epoch
}
