package docsim

import (
	"fmt"
	"io"

	"github.com/soundprediction/docsim/pkg/checkpoint"
	"github.com/soundprediction/docsim/pkg/embedder"
	"github.com/soundprediction/docsim/pkg/evaluate"
	"github.com/soundprediction/docsim/pkg/idset"
	"github.com/soundprediction/docsim/pkg/split"
	"github.com/soundprediction/docsim/pkg/telemetry"
	"github.com/soundprediction/docsim/pkg/training"
	"github.com/spf13/cobra"
)

var trainCmd = &cobra.Command{
	Use:   "train DOCUMENTS TRAIN_IDS LABELED MODEL",
	Short: "Train the embedding model and calibrate its similarity threshold",
	Long: `Train runs the given number of epochs over the documents in TRAIN_IDS.

After every epoch the labeled pairs are embedded and scored, the threshold
maximizing min(true positive rate, true negative rate) is chosen, the
evaluation report is printed, and MODEL is checkpointed. An existing MODEL is
resumed: its vocabulary is extended with the training documents.`,
	Args: cobra.ExactArgs(4),
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().Int("iterations", 1, "number of training epochs")
	trainCmd.Flags().String("provider", "", "embedding provider (dbow, openai)")
	trainCmd.Flags().String("on-degenerate", "", "when calibration is impossible: keep the previous threshold or abort (keep, abort)")
	trainCmd.Flags().String("history", "", "directory for per-epoch Parquet history")
}

func runTrain(cmd *cobra.Command, args []string) error {
	documents, trainIDsPath, labeled, modelPath := args[0], args[1], args[2], args[3]

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	overrideTrainConfig(cmd, s)

	policy, err := training.ParseDegeneratePolicy(s.cfg.Training.OnDegenerate)
	if err != nil {
		return s.fail(err)
	}

	c, pairs, err := s.loadInputs(documents, labeled)
	if err != nil {
		return s.fail(err)
	}

	ids, err := idset.Read(trainIDsPath)
	if err != nil {
		return s.fail(err)
	}
	if err := split.CheckHeldOut(ids, pairs.Pairs); err != nil {
		return s.fail(fmt.Errorf("%s: %w", trainIDsPath, err))
	}
	trainDocs, err := c.Subset(ids)
	if err != nil {
		return s.fail(fmt.Errorf("%s: %w", trainIDsPath, err))
	}

	provider, err := embedder.New(s.cfg.Embedding, s.cfg.CircuitBreaker, s.logger)
	if err != nil {
		return s.fail(err)
	}

	store, err := checkpoint.NewStore(modelPath)
	if err != nil {
		return s.fail(err)
	}

	opts := training.Options{
		Iterations:       s.cfg.Training.Iterations,
		DegeneratePolicy: policy,
		CalibrationSteps: s.cfg.Training.CalibrationSteps,
		Logger:           s.logger,
		Reporter:         s.epochReporter(cmd.OutOrStdout()),
	}

	if s.cfg.Training.HistoryPath != "" {
		history, err := telemetry.NewParquetHistory(s.cfg.Training.HistoryPath)
		if err != nil {
			return s.fail(err)
		}
		defer history.Close()
		opts.History = history
	}

	trainer := training.New(provider, store, opts)
	if err := trainer.Prepare(s.ctx, trainDocs); err != nil {
		return s.fail(err)
	}

	result, err := trainer.Run(s.ctx, trainDocs, pairs.Pairs, c)
	if err != nil {
		return s.fail(err)
	}

	s.logger.InfoContext(s.ctx, "training complete", "epochs", result.Epochs, "model", store.Path())
	return nil
}

func overrideTrainConfig(cmd *cobra.Command, s *session) {
	if cmd.Flags().Changed("iterations") {
		s.cfg.Training.Iterations, _ = cmd.Flags().GetInt("iterations")
	}
	if cmd.Flags().Changed("provider") {
		s.cfg.Embedding.Provider, _ = cmd.Flags().GetString("provider")
	}
	if cmd.Flags().Changed("on-degenerate") {
		s.cfg.Training.OnDegenerate, _ = cmd.Flags().GetString("on-degenerate")
	}
	if cmd.Flags().Changed("history") {
		s.cfg.Training.HistoryPath, _ = cmd.Flags().GetString("history")
	}
}

// epochReporter prints each epoch's report to out. A failed write is logged
// and does not stop training.
func (s *session) epochReporter(out io.Writer) func(int, *evaluate.Report) {
	return func(epoch int, r *evaluate.Report) {
		var err error
		if r == nil {
			_, err = fmt.Fprintln(out, "threshold: none (labels lack a class)")
		} else {
			err = r.WriteText(out)
		}
		if err != nil {
			s.logger.ErrorContext(s.ctx, "failed to write epoch report", "epoch", epoch, "error", err.Error())
		}
	}
}
