package embedder

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/soundprediction/docsim/pkg/config"
	"github.com/soundprediction/docsim/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProvider is a mock embedding provider for testing
type mockProvider struct {
	callCount     int
	failUntilCall int
	errorToReturn error
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) BuildVocabulary(ctx context.Context, docs []types.DocumentRecord, incremental bool) error {
	return nil
}

func (m *mockProvider) Train(ctx context.Context, docs []types.DocumentRecord, epochs int) error {
	return nil
}

func (m *mockProvider) InferVector(ctx context.Context, tokens []string) ([]float32, error) {
	m.callCount++
	if m.callCount <= m.failUntilCall {
		return nil, m.errorToReturn
	}
	return []float32{float32(len(tokens))}, nil
}

func (m *mockProvider) Save(w io.Writer) error { return nil }
func (m *mockProvider) Load(r io.Reader) error { return nil }

func breakerConfig() config.CircuitBreakerConfig {
	return config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         60,
		Timeout:          60,
		ReadyToTripRatio: 0.6,
	}
}

func TestCircuitBreakerPassesThrough(t *testing.T) {
	mock := &mockProvider{}
	cb := NewCircuitBreakerProvider(mock, breakerConfig(), nil)

	vec, err := cb.InferVector(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []float32{2}, vec)

	vecs, err := cb.InferVectors(context.Background(), [][]string{{"a"}, {"a", "b", "c"}})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {3}}, vecs)
	assert.Equal(t, "mock", cb.Name())
}

func TestCircuitBreakerTripsAfterFailures(t *testing.T) {
	boom := errors.New("503 service unavailable")
	mock := &mockProvider{failUntilCall: 100, errorToReturn: boom}
	cb := NewCircuitBreakerProvider(mock, breakerConfig(), nil)

	for i := 0; i < 3; i++ {
		_, err := cb.InferVector(context.Background(), []string{"a"})
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := cb.InferVector(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, mock.callCount, "open breaker must not reach the provider")
}
