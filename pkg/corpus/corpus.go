package corpus

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/soundprediction/docsim/pkg/types"
)

// maxLineSize bounds a single JSON Lines record.
const maxLineSize = 64 * 1024 * 1024

// Corpus is an ordered, ID-indexed document collection.
type Corpus struct {
	docs  []types.DocumentRecord
	index map[types.Identifier]int
}

type rawDocument struct {
	ID   types.Identifier   `json:"id"`
	Text json.RawMessage    `json:"text"`
	Tags []types.Identifier `json:"tags"`
	Tag  []types.Identifier `json:"tag"`
}

// New builds a corpus from records, rejecting invalid and duplicate IDs.
func New(docs []types.DocumentRecord) (*Corpus, error) {
	c := &Corpus{
		docs:  make([]types.DocumentRecord, 0, len(docs)),
		index: make(map[types.Identifier]int, len(docs)),
	}
	for i, d := range docs {
		if err := c.add(d); err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
	}
	return c, nil
}

func (c *Corpus) add(d types.DocumentRecord) error {
	if err := d.Validate(); err != nil {
		return &types.InputError{Message: "document", Err: err}
	}
	if _, dup := c.index[d.ID]; dup {
		return &types.InputError{Message: fmt.Sprintf("document %q", d.ID), Err: types.ErrDuplicateID}
	}
	c.index[d.ID] = len(c.docs)
	c.docs = append(c.docs, d)
	return nil
}

// LoadDocuments reads a JSON Lines corpus file.
func LoadDocuments(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	defer f.Close()

	c, err := ReadDocuments(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ReadDocuments parses JSON Lines documents from r. Blank lines are skipped.
func ReadDocuments(r io.Reader) (*Corpus, error) {
	c := &Corpus{index: make(map[types.Identifier]int)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}

		doc, err := parseDocument(data)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if err := c.add(doc); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}

	if len(c.docs) == 0 {
		return nil, &types.InputError{Message: "corpus", Err: types.ErrEmptyDocuments}
	}
	return c, nil
}

func parseDocument(data []byte) (types.DocumentRecord, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return types.DocumentRecord{}, types.NewInputError("malformed document: %v", err)
	}

	tokens, err := parseText(raw.Text)
	if err != nil {
		return types.DocumentRecord{}, types.NewInputError("document %q: %v", raw.ID, err)
	}

	tags := raw.Tags
	if len(tags) == 0 {
		tags = raw.Tag
	}

	return types.DocumentRecord{ID: raw.ID, Tokens: tokens, Tags: tags}, nil
}

func parseText(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return Tokenize(text), nil
	}

	var tokens []string
	if err := json.Unmarshal(raw, &tokens); err != nil {
		return nil, fmt.Errorf("text must be a string or an array of strings")
	}
	return tokens, nil
}

// Tokenize lowercases text and splits it on every rune that is not a letter
// or a digit.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Len returns the number of documents.
func (c *Corpus) Len() int {
	return len(c.docs)
}

// Documents returns every document in file order.
func (c *Corpus) Documents() []types.DocumentRecord {
	return c.docs
}

// Get returns the document with the given ID.
func (c *Corpus) Get(id types.Identifier) (types.DocumentRecord, bool) {
	i, ok := c.index[id]
	if !ok {
		return types.DocumentRecord{}, false
	}
	return c.docs[i], true
}

// IDs returns every document ID in file order.
func (c *Corpus) IDs() []types.Identifier {
	ids := make([]types.Identifier, len(c.docs))
	for i, d := range c.docs {
		ids[i] = d.ID
	}
	return ids
}

// IDSet returns the document ID universe.
func (c *Corpus) IDSet() map[types.Identifier]struct{} {
	set := make(map[types.Identifier]struct{}, len(c.docs))
	for _, d := range c.docs {
		set[d.ID] = struct{}{}
	}
	return set
}

// Subset returns the documents for ids, in the order given. An ID missing
// from the corpus is an InputError.
func (c *Corpus) Subset(ids []types.Identifier) ([]types.DocumentRecord, error) {
	docs := make([]types.DocumentRecord, 0, len(ids))
	var missing []types.Identifier
	for _, id := range ids {
		d, ok := c.Get(id)
		if !ok {
			missing = append(missing, id)
			continue
		}
		docs = append(docs, d)
	}

	if len(missing) > 0 {
		return nil, types.NewInputError("%d identifiers not in corpus (first: %q)", len(missing), missing[0])
	}
	return docs, nil
}
