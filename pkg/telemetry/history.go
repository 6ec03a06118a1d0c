package telemetry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"github.com/soundprediction/docsim/pkg/evaluate"
)

// EpochRecord is one row of training history
type EpochRecord struct {
	ID        string    `parquet:"id"`
	RunID     string    `parquet:"run_id"`
	Timestamp time.Time `parquet:"timestamp"`
	Epoch     int       `parquet:"epoch"`
	Provider  string    `parquet:"provider"`
	Threshold float64   `parquet:"threshold"`

	// Score is min(TPR, TNR) at Threshold; -1 when undefined.
	Score float64 `parquet:"score"`

	// Degenerate is set when calibration failed and the previous threshold
	// was kept.
	Degenerate        bool   `parquet:"degenerate"`
	DegenerateMetrics string `parquet:"degenerate_metrics"`

	TP int `parquet:"tp"`
	FP int `parquet:"fp"`
	TN int `parquet:"tn"`
	FN int `parquet:"fn"`

	Accuracy         float64 `parquet:"accuracy"`
	TruePositiveRate float64 `parquet:"true_positive_rate"`
	TrueNegativeRate float64 `parquet:"true_negative_rate"`
}

// NewEpochRecord builds a history row from an epoch's evaluation report.
// Undefined rates are stored as -1.
func NewEpochRecord(runID, provider string, epoch int, r *evaluate.Report) EpochRecord {
	rec := EpochRecord{
		ID:        uuid.New().String(),
		RunID:     runID,
		Timestamp: time.Now().UTC(),
		Epoch:     epoch,
		Provider:  provider,
		Score:     -1,
	}
	if r == nil {
		return rec
	}

	rec.Threshold = r.Threshold
	rec.TP, rec.FP, rec.TN, rec.FN = r.Matrix.TP, r.Matrix.FP, r.Matrix.TN, r.Matrix.FN
	rec.Accuracy = rateValue(r.Accuracy)
	rec.TruePositiveRate = rateValue(r.TruePositiveRate)
	rec.TrueNegativeRate = rateValue(r.TrueNegativeRate)
	if score, err := r.BalancedScore(); err == nil {
		rec.Score = score
	}
	return rec
}

func rateValue(r evaluate.Rate) float64 {
	if !r.Defined {
		return -1
	}
	return r.Value
}

// ParquetHistory buffers epoch records and writes them to Parquet files
type ParquetHistory struct {
	outputDir string
	mu        sync.Mutex
	buffer    []EpochRecord
	batchSize int
}

// NewParquetHistory creates a history writer for outputDir
func NewParquetHistory(outputDir string) (*ParquetHistory, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	return &ParquetHistory{
		outputDir: outputDir,
		buffer:    make([]EpochRecord, 0, 100),
		batchSize: 100,
	}, nil
}

// RecordEpoch adds a record to the history
func (h *ParquetHistory) RecordEpoch(ctx context.Context, rec EpochRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.RunID == "" {
		rec.RunID = RunID(ctx)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.buffer = append(h.buffer, rec)
	if len(h.buffer) >= h.batchSize {
		return h.flush()
	}
	return nil
}

// Flush writes buffered records
func (h *ParquetHistory) Flush() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.flush()
}

// Close flushes buffered records
func (h *ParquetHistory) Close() error {
	return h.Flush()
}

// flush writes the current buffer to a new Parquet file
// Caller must hold the lock
func (h *ParquetHistory) flush() error {
	if len(h.buffer) == 0 {
		return nil
	}

	filename := fmt.Sprintf("epoch_history_%s_%d.parquet", time.Now().Format("20060102_150405"), time.Now().UnixNano())
	if err := parquet.WriteFile(filepath.Join(h.outputDir, filename), h.buffer); err != nil {
		return fmt.Errorf("failed to write epoch history: %w", err)
	}

	h.buffer = h.buffer[:0]
	return nil
}

// ReadHistory loads every history file in dir, ordered by time then epoch
func ReadHistory(dir string) ([]EpochRecord, error) {
	rows, err := readAll[EpochRecord](dir, "epoch_history_*.parquet")
	if err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Timestamp.Equal(rows[j].Timestamp) {
			return rows[i].Timestamp.Before(rows[j].Timestamp)
		}
		return rows[i].Epoch < rows[j].Epoch
	})
	return rows, nil
}
