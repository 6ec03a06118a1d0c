package training

import (
	"context"
	"fmt"

	"github.com/soundprediction/docsim/pkg/checkpoint"
	"github.com/soundprediction/docsim/pkg/embedder"
	"github.com/soundprediction/docsim/pkg/evaluate"
	"github.com/soundprediction/docsim/pkg/types"
)

// EvaluateCheckpoint restores the model stored in store into p and scores
// pairs with its calibrated threshold.
func EvaluateCheckpoint(ctx context.Context, p embedder.Provider, store *checkpoint.Store, pairs []types.LabeledPair, lookup Lookup) (*evaluate.Report, error) {
	model, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if model == nil {
		return nil, fmt.Errorf("no model at %s", store.Path())
	}

	threshold, err := model.ThresholdValue()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", store.Path(), err)
	}
	if err := model.Restore(p); err != nil {
		return nil, types.NewProviderError("load", err)
	}

	predictions, labels, err := ScorePairs(ctx, p, pairs, lookup)
	if err != nil {
		return nil, err
	}
	return evaluate.Evaluate(predictions, labels, threshold)
}
