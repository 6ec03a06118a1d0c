package checkpoint

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/soundprediction/docsim/pkg/config"
	"github.com/soundprediction/docsim/pkg/embedder"
	"github.com/soundprediction/docsim/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	tmpDir := t.TempDir()
	ctx := context.Background()

	t.Run("Create store in missing directory", func(t *testing.T) {
		path := filepath.Join(tmpDir, "nested", "model.json")
		store, err := NewStore(path)
		require.NoError(t, err)
		assert.Equal(t, path, store.Path())

		info, err := os.Stat(filepath.Dir(path))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("Reject invalid paths", func(t *testing.T) {
		_, err := NewStore("")
		assert.ErrorIs(t, err, ErrInvalidPath)

		_, err = NewStore(tmpDir)
		assert.ErrorIs(t, err, ErrInvalidPath)
	})

	t.Run("Load non-existent checkpoint", func(t *testing.T) {
		store, err := NewStore(filepath.Join(tmpDir, "missing.json"))
		require.NoError(t, err)

		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Nil(t, loaded)

		exists, err := store.Exists(ctx)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("Save and load checkpoint", func(t *testing.T) {
		store, err := NewStore(filepath.Join(tmpDir, "model.json"))
		require.NoError(t, err)

		model := NewModel("dbow")
		model.RunID = "run-1"
		model.SetThreshold(1.0 / 3.0)
		model.EpochsTrained = 4
		model.State = json.RawMessage(`{"words":["a"]}`)

		require.NoError(t, store.Save(ctx, model))
		assert.False(t, model.CreatedAt.IsZero())

		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, loaded)

		assert.Equal(t, SchemaVersion, loaded.SchemaVersion)
		assert.Equal(t, "dbow", loaded.Provider)
		assert.Equal(t, "run-1", loaded.RunID)
		assert.Equal(t, 4, loaded.EpochsTrained)
		assert.JSONEq(t, `{"words":["a"]}`, string(loaded.State))

		th, err := loaded.ThresholdValue()
		require.NoError(t, err)
		assert.Equal(t, 1.0/3.0, th, "threshold must round-trip exactly")

		_, err = os.Stat(store.Path() + ".tmp")
		assert.True(t, os.IsNotExist(err), "temporary file must not survive a save")
	})

	t.Run("Save and load is idempotent", func(t *testing.T) {
		store, err := NewStore(filepath.Join(tmpDir, "idempotent.json"))
		require.NoError(t, err)

		model := NewModel("dbow")
		model.SetThreshold(0.37)
		model.State = json.RawMessage(`{"k":1}`)
		require.NoError(t, store.Save(ctx, model))

		first, err := store.Load(ctx)
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, first))
		second, err := store.Load(ctx)
		require.NoError(t, err)

		assert.Equal(t, *first.Threshold, *second.Threshold)
		assert.Equal(t, first.Provider, second.Provider)
		assert.Equal(t, first.RunID, second.RunID)
		assert.Equal(t, first.EpochsTrained, second.EpochsTrained)
		assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
		assert.JSONEq(t, string(first.State), string(second.State))
	})

	t.Run("Uncalibrated model keeps nil threshold", func(t *testing.T) {
		store, err := NewStore(filepath.Join(tmpDir, "uncalibrated.json"))
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, NewModel("openai")))

		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		assert.False(t, loaded.Calibrated())
		_, err = loaded.ThresholdValue()
		assert.ErrorIs(t, err, ErrNotCalibrated)
	})

	t.Run("Unsupported schema version", func(t *testing.T) {
		path := filepath.Join(tmpDir, "future.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"schema_version": 99, "provider": "dbow"}`), 0644))

		store, err := NewStore(path)
		require.NoError(t, err)
		_, err = store.Load(ctx)
		assert.ErrorIs(t, err, ErrUnsupportedSchema)
	})

	t.Run("Corrupt checkpoint", func(t *testing.T) {
		path := filepath.Join(tmpDir, "corrupt.json")
		require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0644))

		store, err := NewStore(path)
		require.NoError(t, err)
		_, err = store.Load(ctx)
		assert.Error(t, err)
	})
}

func TestCaptureAndRestore(t *testing.T) {
	ctx := context.Background()
	cfg := config.DBOWConfig{VectorSize: 8, InferEpochs: 5, Workers: 1, Seed: 3}

	p := embedder.NewDBOWProvider(cfg)
	docs := []types.DocumentRecord{
		{ID: "a", Tokens: []string{"red", "green"}},
		{ID: "b", Tokens: []string{"blue", "green"}},
	}
	require.NoError(t, p.BuildVocabulary(ctx, docs, false))
	require.NoError(t, p.Train(ctx, docs, 2))

	model := NewModel(p.Name())
	require.NoError(t, model.Capture(p))

	store, err := NewStore(filepath.Join(t.TempDir(), "model.json"))
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, model))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)

	restored := embedder.NewDBOWProvider(cfg)
	require.NoError(t, loaded.Restore(restored))
	assert.Equal(t, p.VocabularySize(), restored.VocabularySize())

	want, err := p.InferVector(ctx, []string{"red"})
	require.NoError(t, err)
	got, err := restored.InferVector(ctx, []string{"red"})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRestoreRejectsOtherProvider(t *testing.T) {
	model := NewModel(embedder.ProviderOpenAI)
	model.State = json.RawMessage(`{"model":"m"}`)

	err := model.Restore(embedder.NewDBOWProvider(config.DBOWConfig{}))
	assert.Error(t, err)
}
