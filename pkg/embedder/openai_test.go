package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embeddingRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions"`
}

// newEmbeddingServer serves embeddings whose first component is the number of
// words in each input, returned in reverse order to exercise index mapping.
func newEmbeddingServer(t *testing.T, requests *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(requests, 1)
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}

		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		data := make([]map[string]any, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			words := float32(len(strings.Fields(req.Input[i])))
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float32{words, 1},
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
}

func TestOpenAIProviderInferVector(t *testing.T) {
	var requests int32
	srv := newEmbeddingServer(t, &requests)
	defer srv.Close()

	p, err := NewOpenAIProvider(OpenAIConfig{BaseURL: srv.URL, Model: "test-embed"})
	require.NoError(t, err)

	vec, err := p.InferVector(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 1}, vec)
	assert.Equal(t, ProviderOpenAI, p.Name())
}

func TestOpenAIProviderBatches(t *testing.T) {
	var requests int32
	srv := newEmbeddingServer(t, &requests)
	defer srv.Close()

	p, err := NewOpenAIProvider(OpenAIConfig{BaseURL: srv.URL, BatchSize: 2})
	require.NoError(t, err)

	tokens := [][]string{{"a"}, {"a", "b"}, {"a", "b", "c"}, {}, {"x", "y"}}
	vecs, err := InferAll(context.Background(), p, tokens)
	require.NoError(t, err)
	require.Len(t, vecs, len(tokens))

	for i, want := range []float32{1, 2, 3, 0, 2} {
		assert.Equal(t, want, vecs[i][0], "document %d", i)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&requests))
}

func TestOpenAIProviderTrainingIsNoop(t *testing.T) {
	var requests int32
	srv := newEmbeddingServer(t, &requests)
	defer srv.Close()

	p, err := NewOpenAIProvider(OpenAIConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	assert.NoError(t, p.BuildVocabulary(context.Background(), topicCorpus(), true))
	assert.NoError(t, p.Train(context.Background(), topicCorpus(), 3))
	assert.Equal(t, int32(0), atomic.LoadInt32(&requests))
}

func TestOpenAIProviderServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom","type":"server_error"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(OpenAIConfig{BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	_, err = p.InferVector(context.Background(), []string{"a"})
	assert.Error(t, err)
}

func TestOpenAIProviderSaveOmitsCredentials(t *testing.T) {
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "sk-secret", BaseURL: "http://localhost:1234", Model: "m", Dimensions: 64})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, p.Save(&buf))
	assert.NotContains(t, buf.String(), "sk-secret")

	other, err := NewOpenAIProvider(OpenAIConfig{BaseURL: "http://localhost:1234"})
	require.NoError(t, err)
	require.NoError(t, other.Load(&buf))
	assert.Equal(t, "m", other.Model())
}

func TestOpenAIProviderLoadChecksEndpoint(t *testing.T) {
	p, err := NewOpenAIProvider(OpenAIConfig{BaseURL: "http://localhost:1234", Model: "m"})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, p.Save(&buf))
	saved := buf.Bytes()

	tests := []struct {
		name    string
		baseURL string
		apiKey  string
		wantErr bool
	}{
		{"same endpoint", "http://localhost:1234", "", false},
		{"same endpoint with api path", "http://localhost:1234/v1/", "", false},
		{"other host", "http://localhost:9999", "", true},
		{"default endpoint", "", "sk-test", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other, err := NewOpenAIProvider(OpenAIConfig{APIKey: tt.apiKey, BaseURL: tt.baseURL})
			require.NoError(t, err)
			err = other.Load(bytes.NewReader(saved))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrEndpointMismatch)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewOpenAIProviderValidation(t *testing.T) {
	_, err := NewOpenAIProvider(OpenAIConfig{BaseURL: "ftp://example.com"})
	assert.Error(t, err)

	_, err = NewOpenAIProvider(OpenAIConfig{})
	assert.Error(t, err, "missing API key without a base URL")

	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultOpenAIModel, p.Model())
}

func TestHasAPIPath(t *testing.T) {
	assert.True(t, hasAPIPath("http://host/v1"))
	assert.True(t, hasAPIPath("http://host/api/"))
	assert.False(t, hasAPIPath("http://host"))
}
