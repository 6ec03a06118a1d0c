// Package idset stores identifier sets, such as the train and test halves of
// a split, as single-column Parquet files.
package idset

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/soundprediction/docsim/pkg/types"
)

// Row is the Parquet schema of an identifier set file.
type Row struct {
	ID string `parquet:"id"`
}

// Write stores ids at path in the order given, creating the parent directory
// if needed.
func Write(path string, ids []types.Identifier) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
	}

	rows := make([]Row, len(ids))
	for i, id := range ids {
		rows[i] = Row{ID: string(id)}
	}

	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("failed to write identifier set %s: %w", path, err)
	}
	return nil
}

// Read loads an identifier set. Empty or repeated identifiers are rejected.
func Read(path string) ([]types.Identifier, error) {
	rows, err := parquet.ReadFile[Row](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read identifier set %s: %w", path, err)
	}

	ids := make([]types.Identifier, 0, len(rows))
	seen := make(map[types.Identifier]struct{}, len(rows))
	for i, r := range rows {
		id := types.Identifier(r.ID)
		if id == "" {
			return nil, &types.InputError{Message: fmt.Sprintf("%s row %d", path, i), Err: types.ErrEmptyID}
		}
		if _, dup := seen[id]; dup {
			return nil, &types.InputError{Message: fmt.Sprintf("%s: %q", path, id), Err: types.ErrDuplicateID}
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// WriteSplit stores both halves of a split.
func WriteSplit(trainPath, testPath string, set *types.IdentifierSet) error {
	if err := Write(trainPath, set.Train); err != nil {
		return err
	}
	return Write(testPath, set.Test)
}
