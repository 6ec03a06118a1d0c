package embedder

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"github.com/soundprediction/docsim/pkg/config"
	"github.com/soundprediction/docsim/pkg/types"
)

// CircuitBreakerProvider wraps a remote Provider so repeated inference
// failures stop hitting the service until the breaker's timeout elapses.
type CircuitBreakerProvider struct {
	provider Provider
	cb       *gobreaker.CircuitBreaker
	logger   *slog.Logger
}

// NewCircuitBreakerProvider creates a new circuit breaker provider
func NewCircuitBreakerProvider(provider Provider, cfg config.CircuitBreakerConfig, logger *slog.Logger) *CircuitBreakerProvider {
	if logger == nil {
		logger = slog.Default()
	}

	st := gobreaker.Settings{
		Name:        provider.Name(),
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.Interval) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= cfg.ReadyToTripRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				logger.Warn("circuit breaker tripped, too many embedding failures",
					"provider", name, "from", from.String(), "to", to.String())
				return
			}
			logger.Info("circuit breaker state changed",
				"provider", name, "from", from.String(), "to", to.String())
		},
	}

	return &CircuitBreakerProvider{
		provider: provider,
		cb:       gobreaker.NewCircuitBreaker(st),
		logger:   logger,
	}
}

// State reports the breaker state.
func (c *CircuitBreakerProvider) State() gobreaker.State {
	return c.cb.State()
}

// Name implements Provider
func (c *CircuitBreakerProvider) Name() string {
	return c.provider.Name()
}

// BuildVocabulary implements Provider
func (c *CircuitBreakerProvider) BuildVocabulary(ctx context.Context, docs []types.DocumentRecord, incremental bool) error {
	return c.provider.BuildVocabulary(ctx, docs, incremental)
}

// Train implements Provider
func (c *CircuitBreakerProvider) Train(ctx context.Context, docs []types.DocumentRecord, epochs int) error {
	return c.provider.Train(ctx, docs, epochs)
}

// InferVector implements Provider
func (c *CircuitBreakerProvider) InferVector(ctx context.Context, tokens []string) ([]float32, error) {
	resp, err := c.cb.Execute(func() (interface{}, error) {
		return c.provider.InferVector(ctx, tokens)
	})
	if err != nil {
		return nil, err
	}
	return resp.([]float32), nil
}

// InferVectors implements BatchInferer
func (c *CircuitBreakerProvider) InferVectors(ctx context.Context, tokens [][]string) ([][]float32, error) {
	resp, err := c.cb.Execute(func() (interface{}, error) {
		return InferAll(ctx, c.provider, tokens)
	})
	if err != nil {
		return nil, err
	}
	return resp.([][]float32), nil
}

// Save implements Provider
func (c *CircuitBreakerProvider) Save(w io.Writer) error {
	return c.provider.Save(w)
}

// Load implements Provider
func (c *CircuitBreakerProvider) Load(r io.Reader) error {
	return c.provider.Load(r)
}
