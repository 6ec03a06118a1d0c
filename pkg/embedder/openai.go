package embedder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/soundprediction/docsim/pkg/types"
	"golang.org/x/time/rate"
)

// DefaultOpenAIModel is used when OpenAIConfig.Model is empty.
const DefaultOpenAIModel = string(openai.SmallEmbedding3)

// OpenAIConfig configures the remote embedding provider.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	BatchSize  int

	// RequestsPerSecond caps the request rate; zero means unlimited.
	RequestsPerSecond float64
}

// OpenAIProvider embeds documents with a frozen remote model served over the
// OpenAI embeddings API or a compatible service. It has nothing to learn, so
// vocabulary building and training are no-ops.
type OpenAIProvider struct {
	client  *openai.Client
	config  OpenAIConfig
	limiter *rate.Limiter
}

type openAIState struct {
	Model      string `json:"model"`
	BaseURL    string `json:"base_url,omitempty"`
	Dimensions int    `json:"dimensions,omitempty"`
}

// NewOpenAIProvider creates a remote provider. A custom BaseURL is validated
// and gets "/v1" appended unless it already ends in an API path.
func NewOpenAIProvider(config OpenAIConfig) (*OpenAIProvider, error) {
	var client *openai.Client

	if config.BaseURL != "" {
		if err := validateBaseURL(config.BaseURL); err != nil {
			return nil, fmt.Errorf("invalid base URL: %w", err)
		}

		// Some compatible services don't require authentication
		apiKey := config.APIKey
		if apiKey == "" {
			apiKey = "dummy-key"
		}

		clientConfig := openai.DefaultConfig(apiKey)
		clientConfig.BaseURL = config.BaseURL
		if !hasAPIPath(config.BaseURL) {
			clientConfig.BaseURL = strings.TrimSuffix(config.BaseURL, "/") + "/v1"
		}
		client = openai.NewClientWithConfig(clientConfig)
	} else {
		if config.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key (set OPENAI_API_KEY)")
		}
		client = openai.NewClient(config.APIKey)
	}

	if config.Model == "" {
		config.Model = DefaultOpenAIModel
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}

	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}

	return &OpenAIProvider{
		client:  client,
		config:  config,
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string {
	return ProviderOpenAI
}

// Model returns the remote model name.
func (p *OpenAIProvider) Model() string {
	return p.config.Model
}

// BuildVocabulary implements Provider. The remote model has a fixed vocabulary.
func (p *OpenAIProvider) BuildVocabulary(ctx context.Context, docs []types.DocumentRecord, incremental bool) error {
	return ctx.Err()
}

// Train implements Provider. The remote model is frozen.
func (p *OpenAIProvider) Train(ctx context.Context, docs []types.DocumentRecord, epochs int) error {
	return ctx.Err()
}

// InferVector implements Provider.
func (p *OpenAIProvider) InferVector(ctx context.Context, tokens []string) ([]float32, error) {
	vecs, err := p.embed(ctx, []string{joinTokens(tokens)})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// InferVectors implements BatchInferer, sending BatchSize documents per request.
func (p *OpenAIProvider) InferVectors(ctx context.Context, tokens [][]string) ([][]float32, error) {
	vecs := make([][]float32, 0, len(tokens))
	for start := 0; start < len(tokens); start += p.config.BatchSize {
		end := start + p.config.BatchSize
		if end > len(tokens) {
			end = len(tokens)
		}

		inputs := make([]string, 0, end-start)
		for _, t := range tokens[start:end] {
			inputs = append(inputs, joinTokens(t))
		}

		batch, err := p.embed(ctx, inputs)
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		vecs = append(vecs, batch...)
	}
	return vecs, nil
}

func (p *OpenAIProvider) embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req := openai.EmbeddingRequest{
		Input:      inputs,
		Model:      openai.EmbeddingModel(p.config.Model),
		Dimensions: p.config.Dimensions,
	}

	resp, err := p.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai embeddings request failed: %w", err)
	}
	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(resp.Data), len(inputs))
	}

	vecs := make([][]float32, len(inputs))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(inputs) {
			return nil, fmt.Errorf("openai returned embedding with out-of-range index %d", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}
	for i, v := range vecs {
		if len(v) == 0 {
			return nil, fmt.Errorf("openai returned no embedding for input %d", i)
		}
	}
	return vecs, nil
}

// Save implements Provider. Credentials are never written.
func (p *OpenAIProvider) Save(w io.Writer) error {
	state := openAIState{
		Model:      p.config.Model,
		BaseURL:    p.config.BaseURL,
		Dimensions: p.config.Dimensions,
	}
	if err := json.NewEncoder(w).Encode(&state); err != nil {
		return fmt.Errorf("failed to encode openai state: %w", err)
	}
	return nil
}

// Load implements Provider. The saved model and dimensions replace the
// configured ones so later runs embed in the same space. A checkpoint made
// against a different endpoint is rejected.
func (p *OpenAIProvider) Load(r io.Reader) error {
	var state openAIState
	if err := json.NewDecoder(r).Decode(&state); err != nil {
		return fmt.Errorf("failed to decode openai state: %w", err)
	}
	if state.Model == "" {
		return fmt.Errorf("corrupt openai state: empty model")
	}
	if normalizeEndpoint(state.BaseURL) != normalizeEndpoint(p.config.BaseURL) {
		return fmt.Errorf("%w: checkpoint used %q, configured %q",
			ErrEndpointMismatch, state.BaseURL, p.config.BaseURL)
	}
	p.config.Model = state.Model
	p.config.Dimensions = state.Dimensions
	return nil
}

// normalizeEndpoint maps equivalent base URLs to one form; "" is the
// default OpenAI endpoint.
func normalizeEndpoint(baseURL string) string {
	u := strings.TrimSuffix(baseURL, "/")
	return strings.TrimSuffix(u, "/v1")
}

func joinTokens(tokens []string) string {
	if len(tokens) == 0 {
		// The API rejects empty input
		return " "
	}
	return strings.Join(tokens, " ")
}

// validateBaseURL validates that the base URL is properly formatted
func validateBaseURL(baseURL string) error {
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid baseURL format: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("baseURL must use http:// or https:// scheme")
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("baseURL must include a host")
	}
	return nil
}

// hasAPIPath checks if the base URL already includes an API path
func hasAPIPath(baseURL string) bool {
	for _, path := range []string{"/v1", "/api", "/v1/", "/api/"} {
		if strings.HasSuffix(baseURL, path) {
			return true
		}
	}
	return false
}
