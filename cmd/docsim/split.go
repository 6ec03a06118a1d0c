package docsim

import (
	"fmt"

	"github.com/soundprediction/docsim/pkg/idset"
	"github.com/soundprediction/docsim/pkg/split"
	"github.com/spf13/cobra"
)

var splitCmd = &cobra.Command{
	Use:   "split DOCUMENTS LABELED TRAIN_SET TEST_SET",
	Short: "Split the corpus into leak-free train and test identifier sets",
	Long: `Split partitions every document ID into a train set and a test set.

Every ID referenced by a labeled pair goes to the test set, so no ground-truth
document is seen during training. The remaining IDs are shuffled and divided
by the train ratio. Passing --seed makes the split reproducible.`,
	Args: cobra.ExactArgs(4),
	RunE: runSplit,
}

var (
	splitSeed       int64
	splitTrainRatio float64
)

func init() {
	rootCmd.AddCommand(splitCmd)

	splitCmd.Flags().Int64Var(&splitSeed, "seed", 0, "random seed for a reproducible split")
	splitCmd.Flags().Float64Var(&splitTrainRatio, "train-ratio", split.DefaultTrainRatio, "fraction of unlabeled documents assigned to train")
}

func runSplit(cmd *cobra.Command, args []string) error {
	documents, labeled, trainPath, testPath := args[0], args[1], args[2], args[3]

	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	opts := split.Options{TrainRatio: s.cfg.Split.TrainRatio}
	if cmd.Flags().Changed("train-ratio") {
		opts.TrainRatio = splitTrainRatio
	}
	if cmd.Flags().Changed("seed") {
		seed := splitSeed
		opts.Seed = &seed
	}

	s.logger.InfoContext(s.ctx, "splitting corpus",
		"documents", documents, "labeled", labeled, "train_set", trainPath, "test_set", testPath,
		"train_ratio", opts.TrainRatio, "seeded", opts.Seed != nil)

	c, pairs, err := s.loadInputs(documents, labeled)
	if err != nil {
		return s.fail(err)
	}

	set, err := split.Split(c.IDs(), pairs.Pairs, opts)
	if err != nil {
		return s.fail(err)
	}

	if err := idset.WriteSplit(trainPath, testPath, set); err != nil {
		return s.fail(err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "train: %d ids -> %s\n", len(set.Train), trainPath)
	fmt.Fprintf(out, "test: %d ids -> %s\n", len(set.Test), testPath)
	return nil
}
