package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SchemaVersion is the envelope version written by Save.
const SchemaVersion = 1

var (
	// ErrInvalidPath is returned when a checkpoint path is empty or names a directory
	ErrInvalidPath = errors.New("invalid checkpoint path")

	// ErrUnsupportedSchema is returned when a checkpoint was written by an
	// incompatible version
	ErrUnsupportedSchema = errors.New("unsupported checkpoint schema version")

	// ErrNotCalibrated is returned when a model is used for scoring before any
	// epoch has chosen a threshold
	ErrNotCalibrated = errors.New("model has no calibrated threshold")
)

// Model is the persisted form of a trained model: the provider's learned
// state plus the decision threshold chosen for it.
type Model struct {
	SchemaVersion int    `json:"schema_version"`
	Provider      string `json:"provider"`

	// Threshold is nil until the first successful calibration.
	Threshold *float64 `json:"threshold"`

	EpochsTrained int       `json:"epochs_trained"`
	RunID         string    `json:"run_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// State is the provider's own JSON encoding.
	State json.RawMessage `json:"state"`
}

// Store reads and writes a single model checkpoint file
type Store struct {
	path string
}

// NewStore creates a store for the checkpoint at path, creating its parent
// directory if needed
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidPath, path)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
		}
	}

	return &Store{path: filepath.Clean(path)}, nil
}

// Path returns the checkpoint file path
func (s *Store) Path() string {
	return s.path
}

// Save persists the model to disk. The file is written to a temporary path
// and renamed, so readers see either the previous or the new checkpoint.
func (s *Store) Save(ctx context.Context, model *Model) error {
	now := time.Now().UTC()
	model.SchemaVersion = SchemaVersion
	if model.CreatedAt.IsZero() {
		model.CreatedAt = now
	}
	model.UpdatedAt = now

	data, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write checkpoint file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename checkpoint file: %w", err)
	}

	return nil
}

// Load retrieves the model from disk. It returns nil, nil when no checkpoint
// exists.
func (s *Store) Load(ctx context.Context) (*Model, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No checkpoint exists
		}
		return nil, fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	var model Model
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}

	if model.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("%w: %d (supported: %d)", ErrUnsupportedSchema, model.SchemaVersion, SchemaVersion)
	}

	return &model, nil
}

// Exists checks if a checkpoint file is present
func (s *Store) Exists(ctx context.Context) (bool, error) {
	_, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check checkpoint existence: %w", err)
	}
	return true, nil
}
