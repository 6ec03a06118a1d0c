package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/soundprediction/docsim/pkg/evaluate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParquetHandlerPersistsErrorsOnly(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	h, err := NewParquetHandler(slog.NewTextHandler(&out, nil), dir)
	require.NoError(t, err)
	logger := slog.New(h).With("component", "test")

	ctx := WithEpoch(WithRun(context.Background(), "run-1", "train"), 3)
	logger.InfoContext(ctx, "epoch finished")
	logger.ErrorContext(ctx, "provider failed", "op", "train")

	require.NoError(t, h.Close())

	assert.Contains(t, out.String(), "epoch finished")
	assert.Contains(t, out.String(), "provider failed")

	logs, err := ReadLogs(dir)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "provider failed", logs[0].Message)
	assert.Equal(t, "run-1", logs[0].RunID)
	assert.Equal(t, "train", logs[0].Command)
	assert.Equal(t, 3, logs[0].Epoch)
	assert.Contains(t, logs[0].Attributes, `"op":"train"`)
}

func TestParquetHandlerCloseWithoutRecords(t *testing.T) {
	h, err := NewParquetHandler(slog.NewTextHandler(&bytes.Buffer{}, nil), t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, h.Close())
}

func TestParquetHistory(t *testing.T) {
	dir := t.TempDir()
	h, err := NewParquetHistory(dir)
	require.NoError(t, err)

	report, err := evaluate.Evaluate([]float64{0.9, 0.2, 0.8, 0.1}, []bool{true, false, false, false}, 0.5)
	require.NoError(t, err)

	ctx := WithRun(context.Background(), "run-7", "train")
	require.NoError(t, h.RecordEpoch(ctx, NewEpochRecord("", "dbow", 1, report)))

	degenerate := NewEpochRecord("run-7", "dbow", 2, nil)
	degenerate.Degenerate = true
	degenerate.DegenerateMetrics = "true_negative_rate"
	require.NoError(t, h.RecordEpoch(ctx, degenerate))
	require.NoError(t, h.Close())

	rows, err := ReadHistory(dir)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, 1, first.Epoch)
	assert.Equal(t, "run-7", first.RunID)
	assert.Equal(t, 0.5, first.Threshold)
	assert.Equal(t, 1, first.TP)
	assert.Equal(t, 1, first.FP)
	assert.Equal(t, 2, first.TN)
	assert.Equal(t, 0, first.FN)
	assert.InDelta(t, 2.0/3.0, first.Score, 1e-9)

	second := rows[1]
	assert.True(t, second.Degenerate)
	assert.Equal(t, -1.0, second.Score)
}

func TestSQLHandler(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "telemetry.db"))
	require.NoError(t, err)
	defer db.Close()

	h, err := NewSQLHandler(slog.NewTextHandler(&bytes.Buffer{}, nil), db)
	require.NoError(t, err)
	logger := slog.New(h)

	ctx := WithRun(context.Background(), "run-sql", "evaluate")
	logger.WarnContext(ctx, "not persisted")
	logger.ErrorContext(ctx, "persisted", "pairs", 4)
	logger.With("k", "v").ErrorContext(context.Background(), "other run")

	n, err := h.CountErrors(context.Background(), "run-sql")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = h.CountErrors(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRunIDFromContext(t *testing.T) {
	assert.Empty(t, RunID(context.Background()))
	ctx := WithEpoch(WithRun(context.Background(), "run-7", "train"), 3)
	assert.Equal(t, "run-7", RunID(ctx))
}
