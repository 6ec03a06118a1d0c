package embedder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/soundprediction/docsim/pkg/config"
	"github.com/soundprediction/docsim/pkg/types"
)

// Provider names accepted by New.
const (
	ProviderDBOW   = "dbow"
	ProviderOpenAI = "openai"
)

// Common provider errors
var (
	// ErrNoVocabulary indicates an incremental vocabulary update or training
	// was requested before any vocabulary was built
	ErrNoVocabulary = errors.New("no vocabulary has been built")

	// ErrUnknownProvider indicates an unsupported provider name
	ErrUnknownProvider = errors.New("unknown embedding provider")

	// ErrEndpointMismatch indicates a remote checkpoint restored against
	// another endpoint than the one it was made with
	ErrEndpointMismatch = errors.New("embedding endpoint mismatch")
)

// Provider is the embedding capability the training pipeline depends on.
// Train blocks until the requested epochs complete; implementations may
// parallelize internally.
type Provider interface {
	// Name identifies the provider kind, as stored in checkpoints.
	Name() string

	// BuildVocabulary scans docs. With incremental set the existing
	// vocabulary is extended instead of replaced.
	BuildVocabulary(ctx context.Context, docs []types.DocumentRecord, incremental bool) error

	// Train runs the given number of epochs over docs.
	Train(ctx context.Context, docs []types.DocumentRecord, epochs int) error

	// InferVector returns the embedding of an unseen token sequence.
	InferVector(ctx context.Context, tokens []string) ([]float32, error)

	// Save writes the provider's learned state.
	Save(w io.Writer) error

	// Load replaces the provider's state with one written by Save.
	Load(r io.Reader) error
}

// BatchInferer is implemented by providers that embed many token sequences at once.
// When InferVectors returns nil error, result[i] corresponds to tokens[i].
type BatchInferer interface {
	InferVectors(ctx context.Context, tokens [][]string) ([][]float32, error)
}

// InferAll embeds every token sequence, using BatchInferer when p supports it.
func InferAll(ctx context.Context, p Provider, tokens [][]string) ([][]float32, error) {
	if b, ok := p.(BatchInferer); ok {
		vecs, err := b.InferVectors(ctx, tokens)
		if err != nil {
			return nil, err
		}
		if len(vecs) != len(tokens) {
			return nil, fmt.Errorf("provider returned %d vectors for %d documents", len(vecs), len(tokens))
		}
		return vecs, nil
	}

	vecs := make([][]float32, len(tokens))
	for i, t := range tokens {
		v, err := p.InferVector(ctx, t)
		if err != nil {
			return nil, err
		}
		vecs[i] = v
	}
	return vecs, nil
}

// New creates the provider named by cfg.Provider. Remote providers are
// wrapped in a circuit breaker when cb.Enabled is set.
func New(cfg config.EmbeddingConfig, cb config.CircuitBreakerConfig, logger *slog.Logger) (Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Provider {
	case "", ProviderDBOW:
		return NewDBOWProvider(cfg.DBOW), nil
	case ProviderOpenAI:
		p, err := NewOpenAIProvider(OpenAIConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			BatchSize:  cfg.BatchSize,

			RequestsPerSecond: cfg.RequestsPerSecond,
		})
		if err != nil {
			return nil, err
		}
		if cb.Enabled {
			return NewCircuitBreakerProvider(p, cb, logger), nil
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}
