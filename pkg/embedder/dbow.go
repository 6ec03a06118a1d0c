package embedder

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/soundprediction/docsim/pkg/config"
	"github.com/soundprediction/docsim/pkg/types"
	"github.com/soundprediction/docsim/pkg/utils"
)

// DBOWProvider is a paragraph vector model trained with the distributed
// bag-of-words objective and negative sampling. Each tag of a document owns a
// vector trained to predict the document's words; unseen documents are
// embedded by fitting a fresh vector against the frozen word weights.
//
// Training is sequential and seeded, so identical inputs give identical
// models. Batch inference fans out across Workers goroutines.
type DBOWProvider struct {
	cfg config.DBOWConfig

	words  []string
	vocab  map[string]int
	counts []int64

	tags     []types.Identifier
	tagIndex map[types.Identifier]int

	docVecs [][]float32
	outVecs [][]float32

	// cumulative unigram^0.75 distribution for negative sampling
	cum []float64

	corpusCount   int
	epochsTrained int
}

// dbowState is the persisted form of a DBOWProvider.
type dbowState struct {
	Config        config.DBOWConfig  `json:"config"`
	Words         []string           `json:"words"`
	Counts        []int64            `json:"counts"`
	Tags          []types.Identifier `json:"tags"`
	DocVecs       [][]float32        `json:"doc_vectors"`
	OutVecs       [][]float32        `json:"out_vectors"`
	CorpusCount   int                `json:"corpus_count"`
	EpochsTrained int                `json:"epochs_trained"`
}

// NewDBOWProvider creates an untrained model. Zero-valued settings fall back
// to config.DefaultDBOWConfig.
func NewDBOWProvider(cfg config.DBOWConfig) *DBOWProvider {
	def := config.DefaultDBOWConfig()
	if cfg.VectorSize <= 0 {
		cfg.VectorSize = def.VectorSize
	}
	if cfg.Negative <= 0 {
		cfg.Negative = def.Negative
	}
	if cfg.Alpha <= 0 {
		cfg.Alpha = def.Alpha
	}
	if cfg.MinAlpha <= 0 || cfg.MinAlpha > cfg.Alpha {
		cfg.MinAlpha = math.Min(def.MinAlpha, cfg.Alpha)
	}
	if cfg.MinCount <= 0 {
		cfg.MinCount = def.MinCount
	}
	if cfg.InferEpochs <= 0 {
		cfg.InferEpochs = def.InferEpochs
	}
	if cfg.Workers <= 0 {
		cfg.Workers = utils.WorkerCount()
	}

	p := &DBOWProvider{cfg: cfg}
	p.reset()
	return p
}

// Name implements Provider.
func (p *DBOWProvider) Name() string {
	return ProviderDBOW
}

func (p *DBOWProvider) reset() {
	p.words = nil
	p.vocab = make(map[string]int)
	p.counts = nil
	p.tags = nil
	p.tagIndex = make(map[types.Identifier]int)
	p.docVecs = nil
	p.outVecs = nil
	p.cum = nil
	p.corpusCount = 0
	p.epochsTrained = 0
}

// VocabularySize returns the number of known words.
func (p *DBOWProvider) VocabularySize() int {
	return len(p.words)
}

// TagCount returns the number of trained document tags.
func (p *DBOWProvider) TagCount() int {
	return len(p.tags)
}

// EpochsTrained returns the total number of epochs run on this model.
func (p *DBOWProvider) EpochsTrained() int {
	return p.epochsTrained
}

// DocVector returns a copy of the trained vector for tag.
func (p *DBOWProvider) DocVector(tag types.Identifier) ([]float32, bool) {
	i, ok := p.tagIndex[tag]
	if !ok {
		return nil, false
	}
	v := make([]float32, len(p.docVecs[i]))
	copy(v, p.docVecs[i])
	return v, true
}

// BuildVocabulary implements Provider. An incremental build requires an
// existing vocabulary; new words below MinCount are ignored.
func (p *DBOWProvider) BuildVocabulary(ctx context.Context, docs []types.DocumentRecord, incremental bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if incremental && len(p.words) == 0 {
		return fmt.Errorf("incremental update: %w", ErrNoVocabulary)
	}
	if !incremental {
		p.reset()
	}

	var order []string
	pending := make(map[string]int64)
	for _, doc := range docs {
		for _, tok := range doc.Tokens {
			if i, ok := p.vocab[tok]; ok {
				p.counts[i]++
				continue
			}
			if _, seen := pending[tok]; !seen {
				order = append(order, tok)
			}
			pending[tok]++
		}

		for _, tag := range doc.AllTags() {
			if _, ok := p.tagIndex[tag]; ok {
				continue
			}
			p.tagIndex[tag] = len(p.tags)
			p.tags = append(p.tags, tag)
			p.docVecs = append(p.docVecs, p.seededVector(string(tag)))
		}
	}

	for _, w := range order {
		if pending[w] < int64(p.cfg.MinCount) {
			continue
		}
		p.vocab[w] = len(p.words)
		p.words = append(p.words, w)
		p.counts = append(p.counts, pending[w])
		p.outVecs = append(p.outVecs, make([]float32, p.cfg.VectorSize))
	}

	if len(p.words) == 0 {
		return fmt.Errorf("vocabulary build over %d documents: %w", len(docs), ErrNoVocabulary)
	}

	p.rebuildSamplingTable()
	p.corpusCount = len(docs)
	return nil
}

// Train implements Provider. The learning rate decays linearly from Alpha to
// MinAlpha over the epochs of a single call.
func (p *DBOWProvider) Train(ctx context.Context, docs []types.DocumentRecord, epochs int) error {
	if len(p.words) == 0 {
		return fmt.Errorf("train: %w", ErrNoVocabulary)
	}
	if epochs < 1 {
		return fmt.Errorf("train: epochs must be positive, got %d", epochs)
	}

	rng := rand.New(rand.NewSource(p.cfg.Seed + int64(p.epochsTrained)))
	neu1e := make([]float32, p.cfg.VectorSize)
	total := float64(len(docs) * epochs)
	processed := 0

	for e := 0; e < epochs; e++ {
		for _, doc := range docs {
			if err := ctx.Err(); err != nil {
				return err
			}

			alpha := p.cfg.Alpha
			if total > 0 {
				alpha -= (p.cfg.Alpha - p.cfg.MinAlpha) * float64(processed) / total
			}
			processed++

			wordIdx := p.lookup(doc.Tokens)
			for _, tag := range doc.AllTags() {
				ti, ok := p.tagIndex[tag]
				if !ok {
					return fmt.Errorf("train: tag %q was not in the vocabulary build", tag)
				}
				for _, w := range wordIdx {
					p.trainPair(p.docVecs[ti], w, alpha, true, rng, neu1e)
				}
			}
		}
	}

	p.epochsTrained += epochs
	return nil
}

// InferVector implements Provider. The result is deterministic for a given
// model and token sequence.
func (p *DBOWProvider) InferVector(ctx context.Context, tokens []string) ([]float32, error) {
	if len(p.words) == 0 {
		return nil, fmt.Errorf("infer: %w", ErrNoVocabulary)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := strings.Join(tokens, " ")
	rng := rand.New(rand.NewSource(int64(hashKey(key)) ^ p.cfg.Seed))
	vec := p.seededVector(key)
	neu1e := make([]float32, p.cfg.VectorSize)
	wordIdx := p.lookup(tokens)

	for e := 0; e < p.cfg.InferEpochs; e++ {
		alpha := p.cfg.Alpha - (p.cfg.Alpha-p.cfg.MinAlpha)*float64(e)/float64(p.cfg.InferEpochs)
		for _, w := range wordIdx {
			p.trainPair(vec, w, alpha, false, rng, neu1e)
		}
	}
	return vec, nil
}

// InferVectors implements BatchInferer. Inference only reads the model, so
// documents are embedded concurrently.
func (p *DBOWProvider) InferVectors(ctx context.Context, tokens [][]string) ([][]float32, error) {
	vecs := make([][]float32, len(tokens))
	fns := make([]func() error, len(tokens))
	for i := range tokens {
		fns[i] = func() error {
			v, err := p.InferVector(ctx, tokens[i])
			if err != nil {
				return err
			}
			vecs[i] = v
			return nil
		}
	}

	if err := utils.SemaphoreGather(ctx, p.cfg.Workers, fns...); err != nil {
		return nil, err
	}
	return vecs, nil
}

// Save implements Provider.
func (p *DBOWProvider) Save(w io.Writer) error {
	state := dbowState{
		Config:        p.cfg,
		Words:         p.words,
		Counts:        p.counts,
		Tags:          p.tags,
		DocVecs:       p.docVecs,
		OutVecs:       p.outVecs,
		CorpusCount:   p.corpusCount,
		EpochsTrained: p.epochsTrained,
	}
	if err := json.NewEncoder(w).Encode(&state); err != nil {
		return fmt.Errorf("failed to encode dbow state: %w", err)
	}
	return nil
}

// Load implements Provider. Worker count is kept from the receiver; every
// other setting comes from the saved state.
func (p *DBOWProvider) Load(r io.Reader) error {
	var state dbowState
	if err := json.NewDecoder(r).Decode(&state); err != nil {
		return fmt.Errorf("failed to decode dbow state: %w", err)
	}

	if len(state.Words) != len(state.Counts) || len(state.Words) != len(state.OutVecs) {
		return fmt.Errorf("corrupt dbow state: %d words, %d counts, %d output vectors",
			len(state.Words), len(state.Counts), len(state.OutVecs))
	}
	if len(state.Tags) != len(state.DocVecs) {
		return fmt.Errorf("corrupt dbow state: %d tags, %d document vectors", len(state.Tags), len(state.DocVecs))
	}
	for _, vecs := range [][][]float32{state.DocVecs, state.OutVecs} {
		for _, v := range vecs {
			if len(v) != state.Config.VectorSize {
				return fmt.Errorf("corrupt dbow state: vector of size %d, want %d", len(v), state.Config.VectorSize)
			}
		}
	}

	workers := p.cfg.Workers
	p.reset()
	p.cfg = state.Config
	p.cfg.Workers = workers

	p.words = state.Words
	p.counts = state.Counts
	p.outVecs = state.OutVecs
	for i, w := range p.words {
		p.vocab[w] = i
	}
	p.tags = state.Tags
	p.docVecs = state.DocVecs
	for i, t := range p.tags {
		p.tagIndex[t] = i
	}
	p.corpusCount = state.CorpusCount
	p.epochsTrained = state.EpochsTrained
	if len(p.words) > 0 {
		p.rebuildSamplingTable()
	}
	return nil
}

// trainPair runs one negative-sampling step predicting word from vec. Output
// weights are only updated when learnOut is set.
func (p *DBOWProvider) trainPair(vec []float32, word int, alpha float64, learnOut bool, rng *rand.Rand, neu1e []float32) {
	for i := range neu1e {
		neu1e[i] = 0
	}

	for k := 0; k <= p.cfg.Negative; k++ {
		target, label := word, 1.0
		if k > 0 {
			target = p.sample(rng)
			if target == word {
				continue
			}
			label = 0
		}

		out := p.outVecs[target]
		g := float32((label - utils.Sigmoid(utils.DotProduct(vec, out))) * alpha)
		for i := range neu1e {
			neu1e[i] += g * out[i]
			if learnOut {
				out[i] += g * vec[i]
			}
		}
	}

	for i := range vec {
		vec[i] += neu1e[i]
	}
}

func (p *DBOWProvider) sample(rng *rand.Rand) int {
	r := rng.Float64() * p.cum[len(p.cum)-1]
	i := sort.SearchFloat64s(p.cum, r)
	if i >= len(p.cum) {
		i = len(p.cum) - 1
	}
	return i
}

func (p *DBOWProvider) rebuildSamplingTable() {
	p.cum = make([]float64, len(p.counts))
	var sum float64
	for i, c := range p.counts {
		sum += math.Pow(float64(c), 0.75)
		p.cum[i] = sum
	}
}

func (p *DBOWProvider) lookup(tokens []string) []int {
	idx := make([]int, 0, len(tokens))
	for _, t := range tokens {
		if i, ok := p.vocab[t]; ok {
			idx = append(idx, i)
		}
	}
	return idx
}

// seededVector returns the small random starting vector for key.
func (p *DBOWProvider) seededVector(key string) []float32 {
	rng := rand.New(rand.NewSource(int64(hashKey(key)) + p.cfg.Seed))
	v := make([]float32, p.cfg.VectorSize)
	for i := range v {
		v[i] = (rng.Float32() - 0.5) / float32(p.cfg.VectorSize)
	}
	return v
}

func hashKey(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
