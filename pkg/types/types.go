package types

import (
	"errors"
	"sort"
)

// Validation errors
var (
	ErrEmptyID        = errors.New("id cannot be empty")
	ErrDuplicateID    = errors.New("duplicate id")
	ErrEmptyDocuments = errors.New("no documents")
)

// Identifier is an opaque unique key for a single document.
type Identifier string

// DocumentRecord is one document of the corpus. Records are produced by the
// corpus loader and never mutated afterwards.
type DocumentRecord struct {
	ID     Identifier   `json:"id" mapstructure:"id"`
	Tokens []string     `json:"tokens" mapstructure:"tokens"`
	Tags   []Identifier `json:"tags,omitempty" mapstructure:"tags"`
}

// Validate checks if the DocumentRecord has all required fields set.
func (d *DocumentRecord) Validate() error {
	if d.ID == "" {
		return ErrEmptyID
	}
	return nil
}

// AllTags returns the document's own ID followed by its extra tags, the tag
// list the embedding provider trains a document vector under.
func (d *DocumentRecord) AllTags() []Identifier {
	tags := make([]Identifier, 0, len(d.Tags)+1)
	tags = append(tags, d.ID)
	for _, t := range d.Tags {
		if t != d.ID {
			tags = append(tags, t)
		}
	}
	return tags
}

// LabeledPair is one ground-truth observation: whether documents A and B are
// the same (similar) or different.
type LabeledPair struct {
	A       Identifier `json:"a" mapstructure:"a"`
	B       Identifier `json:"b" mapstructure:"b"`
	Similar bool       `json:"similar" mapstructure:"similar"`
}

// Validate checks if the LabeledPair has all required fields set.
func (p *LabeledPair) Validate() error {
	if p.A == "" || p.B == "" {
		return ErrEmptyID
	}
	return nil
}

// Labels extracts the ground-truth labels of pairs in order.
func Labels(pairs []LabeledPair) []bool {
	labels := make([]bool, len(pairs))
	for i, p := range pairs {
		labels[i] = p.Similar
	}
	return labels
}

// LabeledIDs returns the set of identifiers referenced by any pair.
func LabeledIDs(pairs []LabeledPair) map[Identifier]struct{} {
	ids := make(map[Identifier]struct{}, len(pairs)*2)
	for _, p := range pairs {
		ids[p.A] = struct{}{}
		ids[p.B] = struct{}{}
	}
	return ids
}

// IdentifierSet is the output of a train/test split.
type IdentifierSet struct {
	Train []Identifier `json:"train"`
	Test  []Identifier `json:"test"`
}

// SortIdentifiers sorts ids in place and returns them.
func SortIdentifiers(ids []Identifier) []Identifier {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// contextKey is used for request-scoped values carried by context.Context.
type contextKey string

// Context keys read by telemetry.
const (
	ContextKeyRunID   contextKey = "run_id"
	ContextKeyEpoch   contextKey = "epoch"
	ContextKeyCommand contextKey = "command"
)
