package idset

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/soundprediction/docsim/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sets", "train.parquet")
	ids := []types.Identifier{"doc-3", "doc-1", "doc-2"}

	require.NoError(t, Write(path, ids))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, ids, got)
}

func TestWriteReadEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.parquet")
	require.NoError(t, Write(path, nil))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadRejectsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dup.parquet")
	require.NoError(t, parquet.WriteFile(path, []Row{{ID: "a"}, {ID: "b"}, {ID: "a"}}))

	_, err := Read(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrDuplicateID))
	assert.True(t, errors.Is(err, &types.InputError{}))
}

func TestReadRejectsEmptyID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank.parquet")
	require.NoError(t, parquet.WriteFile(path, []Row{{ID: "a"}, {ID: ""}}))

	_, err := Read(path)
	assert.ErrorIs(t, err, types.ErrEmptyID)
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.parquet"))
	assert.Error(t, err)
}

func TestWriteSplit(t *testing.T) {
	dir := t.TempDir()
	set := &types.IdentifierSet{
		Train: []types.Identifier{"a", "b"},
		Test:  []types.Identifier{"c"},
	}
	trainPath := filepath.Join(dir, "train.parquet")
	testPath := filepath.Join(dir, "test.parquet")
	require.NoError(t, WriteSplit(trainPath, testPath, set))

	train, err := Read(trainPath)
	require.NoError(t, err)
	test, err := Read(testPath)
	require.NoError(t, err)
	assert.Equal(t, set.Train, train)
	assert.Equal(t, set.Test, test)
}
