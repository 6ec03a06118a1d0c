package split

import (
	"fmt"
	"testing"

	"github.com/soundprediction/docsim/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func corpusIDs(n int) []types.Identifier {
	ids := make([]types.Identifier, n)
	for i := range ids {
		ids[i] = types.Identifier(fmt.Sprintf("doc-%03d", i))
	}
	return ids
}

func labeledPairs() []types.LabeledPair {
	return []types.LabeledPair{
		{A: "doc-000", B: "doc-001", Similar: true},
		{A: "doc-002", B: "doc-003", Similar: false},
		{A: "doc-001", B: "doc-004", Similar: false},
	}
}

func toSet(ids []types.Identifier) map[types.Identifier]struct{} {
	set := make(map[types.Identifier]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func TestSplitCompleteness(t *testing.T) {
	seed := int64(7)
	all := corpusIDs(50)

	set, err := Split(all, labeledPairs(), Options{Seed: &seed})
	require.NoError(t, err)

	train := toSet(set.Train)
	test := toSet(set.Test)

	assert.Len(t, train, len(set.Train), "train must not contain duplicates")
	assert.Len(t, test, len(set.Test), "test must not contain duplicates")

	for id := range train {
		_, inTest := test[id]
		assert.False(t, inTest, "id %s is in both train and test", id)
	}
	assert.Equal(t, len(all), len(train)+len(test))
	for _, id := range all {
		_, inTrain := train[id]
		_, inTest := test[id]
		assert.True(t, inTrain || inTest, "id %s missing from split", id)
	}
}

func TestSplitNoLeakage(t *testing.T) {
	seed := int64(1)
	set, err := Split(corpusIDs(30), labeledPairs(), Options{Seed: &seed})
	require.NoError(t, err)

	train := toSet(set.Train)
	test := toSet(set.Test)
	for _, p := range labeledPairs() {
		assert.NotContains(t, train, p.A)
		assert.NotContains(t, train, p.B)
		assert.Contains(t, test, p.A)
		assert.Contains(t, test, p.B)
	}
}

func TestSplitRatio(t *testing.T) {
	seed := int64(3)
	// 105 docs, 5 labeled: pool of 100 splits 80/20.
	set, err := Split(corpusIDs(105), labeledPairs(), Options{Seed: &seed})
	require.NoError(t, err)
	assert.Len(t, set.Train, 80)
	assert.Len(t, set.Test, 25)

	set, err = Split(corpusIDs(105), labeledPairs(), Options{Seed: &seed, TrainRatio: 0.5})
	require.NoError(t, err)
	assert.Len(t, set.Train, 50)
	assert.Len(t, set.Test, 55)
}

func TestSplitDeterminism(t *testing.T) {
	seed := int64(42)
	all := corpusIDs(200)

	first, err := Split(all, labeledPairs(), Options{Seed: &seed})
	require.NoError(t, err)

	// Reversed input order must not change a seeded split.
	reversed := make([]types.Identifier, len(all))
	for i, id := range all {
		reversed[len(all)-1-i] = id
	}

	for i := 0; i < 5; i++ {
		again, err := Split(reversed, labeledPairs(), Options{Seed: &seed})
		require.NoError(t, err)
		assert.Equal(t, first.Train, again.Train)
		assert.Equal(t, first.Test, again.Test)
	}

	other := int64(43)
	different, err := Split(all, labeledPairs(), Options{Seed: &other})
	require.NoError(t, err)
	assert.NotEqual(t, first.Train, different.Train)
}

func TestSplitUnseededStillPartitions(t *testing.T) {
	set, err := Split(corpusIDs(20), labeledPairs(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 20, len(set.Train)+len(set.Test))
}

func TestSplitErrors(t *testing.T) {
	tests := []struct {
		name  string
		all   []types.Identifier
		pairs []types.LabeledPair
		opts  Options
	}{
		{
			name:  "labeled id missing from corpus",
			all:   corpusIDs(3),
			pairs: []types.LabeledPair{{A: "doc-000", B: "doc-999"}},
		},
		{
			name: "ratio too large",
			all:  corpusIDs(3),
			opts: Options{TrainRatio: 1},
		},
		{
			name: "negative ratio",
			all:  corpusIDs(3),
			opts: Options{TrainRatio: -0.2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split(tt.all, tt.pairs, tt.opts)
			require.Error(t, err)
			assert.ErrorIs(t, err, &types.InputError{})
		})
	}
}

func TestSplitAllLabeled(t *testing.T) {
	all := []types.Identifier{"doc-000", "doc-001", "doc-002", "doc-003", "doc-004"}
	set, err := Split(all, labeledPairs(), Options{})
	require.NoError(t, err)
	assert.Empty(t, set.Train)
	assert.ElementsMatch(t, all, set.Test)
}

func TestCheckHeldOut(t *testing.T) {
	pairs := labeledPairs()

	seed := int64(9)
	set, err := Split(corpusIDs(20), pairs, Options{Seed: &seed})
	require.NoError(t, err)
	assert.NoError(t, CheckHeldOut(set.Train, pairs))

	leaky := append([]types.Identifier{"doc-010"}, "doc-004")
	err = CheckHeldOut(leaky, pairs)
	require.Error(t, err)
	assert.ErrorIs(t, err, &types.InputError{})
	assert.Contains(t, err.Error(), "doc-004")
}
