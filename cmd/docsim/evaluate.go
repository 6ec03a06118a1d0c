package docsim

import (
	"github.com/soundprediction/docsim/pkg/checkpoint"
	"github.com/soundprediction/docsim/pkg/embedder"
	"github.com/soundprediction/docsim/pkg/training"
	"github.com/spf13/cobra"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate DOCUMENTS LABELED MODEL",
	Short: "Score labeled pairs with a trained model and its stored threshold",
	Long: `Evaluate loads MODEL, embeds every document referenced by the labeled
pairs, classifies each pair with the threshold chosen during training, and
prints the confusion matrix with its derived rates.`,
	Args: cobra.ExactArgs(3),
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().String("format", "text", "report format (text, yaml)")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	documents, labeled, modelPath := args[0], args[1], args[2]

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	format, _ := cmd.Flags().GetString("format")

	c, pairs, err := s.loadInputs(documents, labeled)
	if err != nil {
		return s.fail(err)
	}

	store, err := checkpoint.NewStore(modelPath)
	if err != nil {
		return s.fail(err)
	}

	// The checkpoint decides the provider kind
	model, err := store.Load(s.ctx)
	if err != nil {
		return s.fail(err)
	}
	if model != nil {
		s.cfg.Embedding.Provider = model.Provider
	}

	provider, err := embedder.New(s.cfg.Embedding, s.cfg.CircuitBreaker, s.logger)
	if err != nil {
		return s.fail(err)
	}

	report, err := training.EvaluateCheckpoint(s.ctx, provider, store, pairs.Pairs, c)
	if err != nil {
		return s.fail(err)
	}
	if derr := report.Err(); derr != nil {
		s.logger.WarnContext(s.ctx, "some metrics are undefined", "error", derr.Error())
	}

	return report.Write(cmd.OutOrStdout(), format)
}
