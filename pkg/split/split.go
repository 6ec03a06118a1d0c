// Package split partitions a corpus's document identifiers into train and
// test sets without leaking labeled documents into training.
//
// Every identifier referenced by a labeled pair is forced into the test set.
// The remaining identifiers are shuffled and divided at a fixed ratio:
//
//	seed := int64(42)
//	set, err := split.Split(allIDs, pairs, split.Options{Seed: &seed})
package split

import (
	"math/rand"
	"time"

	"github.com/soundprediction/docsim/pkg/types"
)

// DefaultTrainRatio is the share of unlabeled documents assigned to training.
const DefaultTrainRatio = 0.8

// Options configures Split.
type Options struct {
	// TrainRatio is the fraction of the unlabeled pool assigned to training.
	// Zero means DefaultTrainRatio.
	TrainRatio float64

	// Seed makes the shuffle reproducible. Nil seeds from the clock.
	Seed *int64
}

// Split partitions allIDs into train and test identifiers. Labeled IDs always
// land in Test and never in Train. It returns an InputError when a labeled
// pair references an identifier missing from allIDs.
func Split(allIDs []types.Identifier, pairs []types.LabeledPair, opts Options) (*types.IdentifierSet, error) {
	ratio := opts.TrainRatio
	if ratio == 0 {
		ratio = DefaultTrainRatio
	}
	if ratio <= 0 || ratio >= 1 {
		return nil, types.NewInputError("train ratio must be in (0, 1), got %v", ratio)
	}

	universe := make(map[types.Identifier]struct{}, len(allIDs))
	for _, id := range allIDs {
		universe[id] = struct{}{}
	}

	labeled := types.LabeledIDs(pairs)
	for i, p := range pairs {
		for _, id := range []types.Identifier{p.A, p.B} {
			if _, ok := universe[id]; !ok {
				return nil, types.NewInputError("labeled pair %d references unknown id %q", i, id)
			}
		}
	}

	pool := make([]types.Identifier, 0, len(universe))
	for id := range universe {
		if _, ok := labeled[id]; !ok {
			pool = append(pool, id)
		}
	}
	// Map iteration order is random; sort so the seed alone decides the shuffle.
	types.SortIdentifiers(pool)

	seed := time.Now().UnixNano()
	if opts.Seed != nil {
		seed = *opts.Seed
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	trainCount := int(float64(len(pool)) * ratio)

	train := make([]types.Identifier, trainCount)
	copy(train, pool[:trainCount])

	test := make([]types.Identifier, 0, len(pool)-trainCount+len(labeled))
	test = append(test, pool[trainCount:]...)
	labeledSorted := make([]types.Identifier, 0, len(labeled))
	for id := range labeled {
		labeledSorted = append(labeledSorted, id)
	}
	test = append(test, types.SortIdentifiers(labeledSorted)...)

	return &types.IdentifierSet{Train: train, Test: test}, nil
}

// CheckHeldOut returns an InputError naming the first training identifier
// that a labeled pair references, so a train set produced elsewhere cannot
// leak ground-truth documents into training.
func CheckHeldOut(train []types.Identifier, pairs []types.LabeledPair) error {
	labeled := types.LabeledIDs(pairs)
	for _, id := range train {
		if _, ok := labeled[id]; ok {
			return types.NewInputError("training set contains labeled document %q", id)
		}
	}
	return nil
}
