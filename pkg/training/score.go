package training

import (
	"context"
	"errors"

	"github.com/soundprediction/docsim/pkg/embedder"
	"github.com/soundprediction/docsim/pkg/types"
	"github.com/soundprediction/docsim/pkg/utils"
)

// Lookup resolves document IDs to documents.
type Lookup interface {
	Get(id types.Identifier) (types.DocumentRecord, bool)
}

// ScorePairs embeds every document referenced by pairs once and returns the
// cosine similarity of each pair together with its label. A pair involving
// a zero vector scores 0.
func ScorePairs(ctx context.Context, p embedder.Provider, pairs []types.LabeledPair, lookup Lookup) ([]float64, []bool, error) {
	index := make(map[types.Identifier]int)
	var tokens [][]string
	for _, pair := range pairs {
		for _, id := range [2]types.Identifier{pair.A, pair.B} {
			if _, ok := index[id]; ok {
				continue
			}
			doc, ok := lookup.Get(id)
			if !ok {
				return nil, nil, types.NewInputError("labeled pair references unknown id %q", id)
			}
			index[id] = len(tokens)
			tokens = append(tokens, doc.Tokens)
		}
	}

	vecs, err := embedder.InferAll(ctx, p, tokens)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, nil, types.NewProviderError("infer_vector", err)
	}

	predictions := make([]float64, len(pairs))
	for i, pair := range pairs {
		dist, err := utils.CosineDistance(vecs[index[pair.A]], vecs[index[pair.B]])
		switch {
		case errors.Is(err, utils.ErrZeroMagnitude):
			predictions[i] = 0
		case err != nil:
			return nil, nil, types.NewProviderError("infer_vector", err)
		default:
			predictions[i] = 1 - dist
		}
	}

	return predictions, types.Labels(pairs), nil
}
