package training

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/soundprediction/docsim/pkg/calibrate"
	"github.com/soundprediction/docsim/pkg/checkpoint"
	"github.com/soundprediction/docsim/pkg/embedder"
	"github.com/soundprediction/docsim/pkg/evaluate"
	"github.com/soundprediction/docsim/pkg/telemetry"
	"github.com/soundprediction/docsim/pkg/types"
	"github.com/soundprediction/docsim/pkg/utils"
)

// ErrNotPrepared is returned by Run when Prepare has not succeeded.
var ErrNotPrepared = errors.New("trainer not prepared")

// DegeneratePolicy decides what an epoch does when calibration is
// impossible because the labels lack a class.
type DegeneratePolicy string

const (
	// KeepPrevious keeps the last calibrated threshold, logs a warning and
	// still checkpoints the epoch.
	KeepPrevious DegeneratePolicy = "keep"

	// Abort stops the run without writing the epoch.
	Abort DegeneratePolicy = "abort"
)

// ParseDegeneratePolicy converts a configuration value to a DegeneratePolicy.
func ParseDegeneratePolicy(s string) (DegeneratePolicy, error) {
	switch DegeneratePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", KeepPrevious:
		return KeepPrevious, nil
	case Abort:
		return Abort, nil
	default:
		return "", types.NewInputError("unknown degenerate policy %q (want keep or abort)", s)
	}
}

// EpochRecorder receives one history record per completed epoch.
type EpochRecorder interface {
	RecordEpoch(ctx context.Context, rec telemetry.EpochRecord) error
}

// Options configures a Trainer.
type Options struct {
	Iterations       int
	DegeneratePolicy DegeneratePolicy
	CalibrationSteps int
	Logger           *slog.Logger

	// History is optional.
	History EpochRecorder

	// Reporter, if set, is called with each epoch's evaluation. The report
	// is nil when the epoch was degenerate and no threshold exists yet.
	Reporter func(epoch int, r *evaluate.Report)
}

// Result summarizes a finished run.
type Result struct {
	RunID      string
	Epochs     int
	Threshold  *float64
	LastReport *evaluate.Report
}

// Trainer owns the provider and its checkpoint for the duration of a run.
type Trainer struct {
	provider embedder.Provider
	store    *checkpoint.Store
	opts     Options
	logger   *slog.Logger

	model *checkpoint.Model
	runID string
}

// New creates a Trainer. Iterations below 1 are treated as 1.
func New(provider embedder.Provider, store *checkpoint.Store, opts Options) *Trainer {
	if opts.Iterations < 1 {
		opts.Iterations = 1
	}
	if opts.DegeneratePolicy == "" {
		opts.DegeneratePolicy = KeepPrevious
	}
	if opts.CalibrationSteps < 1 {
		opts.CalibrationSteps = calibrate.DefaultSteps
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Trainer{
		provider: provider,
		store:    store,
		opts:     opts,
		logger:   logger,
	}
}

// Model returns the model being trained, or nil before Prepare.
func (t *Trainer) Model() *checkpoint.Model {
	return t.model
}

// RunID identifies this run in logs, history and the checkpoint.
func (t *Trainer) RunID() string {
	return t.runID
}

// Prepare loads an existing checkpoint and extends its vocabulary with docs,
// or builds a fresh vocabulary when no checkpoint exists.
func (t *Trainer) Prepare(ctx context.Context, docs []types.DocumentRecord) error {
	model, err := t.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}

	incremental := model != nil
	if incremental {
		t.logger.InfoContext(ctx, "training an existing model",
			"path", t.store.Path(), "epochs_trained", model.EpochsTrained)
		if err := model.Restore(t.provider); err != nil {
			return types.NewProviderError("load", err)
		}
	} else {
		t.logger.InfoContext(ctx, "training a new model", "path", t.store.Path(), "provider", t.provider.Name())
		model = checkpoint.NewModel(t.provider.Name())
	}

	if err := t.provider.BuildVocabulary(ctx, docs, incremental); err != nil {
		return types.NewProviderError("build_vocabulary", err)
	}

	t.runID = telemetry.RunID(ctx)
	if t.runID == "" {
		t.runID = uuid.New().String()
	}
	model.RunID = t.runID
	t.model = model
	return nil
}

// Run trains for the configured number of epochs. The context is checked
// between epochs; an epoch that fails leaves the previous checkpoint intact.
func (t *Trainer) Run(ctx context.Context, trainDocs []types.DocumentRecord, pairs []types.LabeledPair, lookup Lookup) (*Result, error) {
	if t.model == nil {
		return nil, ErrNotPrepared
	}
	if len(pairs) == 0 {
		return nil, types.NewInputError("no labeled pairs to calibrate on")
	}

	result := &Result{RunID: t.runID}
	for i := 1; i <= t.opts.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		epoch := t.model.EpochsTrained + 1
		report, err := t.guardedEpoch(telemetry.WithEpoch(ctx, epoch), epoch, trainDocs, pairs, lookup)
		if err != nil {
			return result, fmt.Errorf("epoch %d: %w", epoch, err)
		}

		result.Epochs++
		result.Threshold = t.model.Threshold
		result.LastReport = report
	}

	return result, nil
}

// guardedEpoch runs one epoch and reports a provider panic as a
// ProviderError, before anything is persisted.
func (t *Trainer) guardedEpoch(ctx context.Context, epoch int, trainDocs []types.DocumentRecord, pairs []types.LabeledPair, lookup Lookup) (report *evaluate.Report, err error) {
	defer utils.RecoverWithCallback(func(perr error) {
		report, err = nil, types.NewProviderError("train", perr)
	})
	return t.runEpoch(ctx, epoch, trainDocs, pairs, lookup)
}

func (t *Trainer) runEpoch(ctx context.Context, epoch int, trainDocs []types.DocumentRecord, pairs []types.LabeledPair, lookup Lookup) (*evaluate.Report, error) {
	if err := t.provider.Train(ctx, trainDocs, 1); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, types.NewProviderError("train", err)
	}

	predictions, labels, err := ScorePairs(ctx, t.provider, pairs, lookup)
	if err != nil {
		return nil, err
	}

	var degenerateMetrics string
	cal, err := calibrate.Calibrate(predictions, labels, calibrate.WithSteps(t.opts.CalibrationSteps))
	var degenerate *types.DegenerateMetricError
	switch {
	case errors.As(err, &degenerate):
		if t.opts.DegeneratePolicy == Abort {
			return nil, err
		}
		degenerateMetrics = strings.Join(degenerate.Metrics, ",")
		t.logger.WarnContext(ctx, "calibration degenerate, keeping previous threshold",
			"epoch", epoch, "metrics", degenerateMetrics, "threshold", thresholdAttr(t.model.Threshold))
	case err != nil:
		return nil, err
	default:
		t.model.SetThreshold(cal.Threshold)
	}

	var report *evaluate.Report
	if t.model.Calibrated() {
		report, err = evaluate.Evaluate(predictions, labels, *t.model.Threshold)
		if err != nil {
			return nil, err
		}
	}
	t.emit(ctx, epoch, report)

	t.model.EpochsTrained = epoch
	if err := t.model.Capture(t.provider); err != nil {
		return nil, types.NewProviderError("save", err)
	}
	if err := t.store.Save(ctx, t.model); err != nil {
		return nil, err
	}
	t.logger.InfoContext(ctx, "checkpoint persisted", "path", t.store.Path(), "epoch", epoch)

	if t.opts.History != nil {
		rec := telemetry.NewEpochRecord(t.runID, t.provider.Name(), epoch, report)
		rec.Degenerate = degenerateMetrics != ""
		rec.DegenerateMetrics = degenerateMetrics
		if report == nil {
			rec.Threshold = -1
		}
		if err := t.opts.History.RecordEpoch(ctx, rec); err != nil {
			t.logger.WarnContext(ctx, "failed to record epoch history", "epoch", epoch, "error", err)
		}
	}

	return report, nil
}

func (t *Trainer) emit(ctx context.Context, epoch int, report *evaluate.Report) {
	if report != nil {
		m := report.Matrix
		t.logger.InfoContext(ctx, "epoch evaluated",
			"epoch", epoch,
			"threshold", report.Threshold,
			"tp", m.TP, "fn", m.FN, "tn", m.TN, "fp", m.FP,
			"accuracy", report.Accuracy.Percent())
	}
	if t.opts.Reporter != nil {
		t.opts.Reporter(epoch, report)
	}
}

func thresholdAttr(th *float64) any {
	if th == nil {
		return "none"
	}
	return *th
}
