package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/soundprediction/docsim/pkg/types"
)

// PairPolicy decides what happens to a labeled pair that references an
// identifier missing from the corpus.
type PairPolicy string

const (
	// RejectUnknown fails the whole load with an InputError.
	RejectUnknown PairPolicy = "reject"

	// SkipUnknown drops the pair and counts it.
	SkipUnknown PairPolicy = "skip"
)

// ParsePairPolicy converts a configuration value to a PairPolicy.
func ParsePairPolicy(s string) (PairPolicy, error) {
	switch PairPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", RejectUnknown:
		return RejectUnknown, nil
	case SkipUnknown:
		return SkipUnknown, nil
	default:
		return "", types.NewInputError("unknown pair policy %q (want reject or skip)", s)
	}
}

// PairSet is the outcome of loading labeled pairs.
type PairSet struct {
	Pairs []types.LabeledPair

	// Skipped counts pairs dropped under SkipUnknown.
	Skipped int
}

// LoadLabeledPairs reads labeled pairs from a CSV file and checks every
// referenced ID against validIDs.
func LoadLabeledPairs(path string, validIDs map[types.Identifier]struct{}, policy PairPolicy) (*PairSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open labeled pairs: %w", err)
	}
	defer f.Close()

	set, err := ReadLabeledPairs(f, validIDs, policy)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// ReadLabeledPairs parses idA,idB,label rows from r. A first row is a header
// when its label is not a recognized label and neither ID names a document.
func ReadLabeledPairs(r io.Reader, validIDs map[types.Identifier]struct{}, policy PairPolicy) (*PairSet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	set := &PairSet{}
	row := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, types.NewInputError("malformed labeled pairs: %v", err)
		}
		row++

		pair := types.LabeledPair{
			A: types.Identifier(strings.TrimSpace(record[0])),
			B: types.Identifier(strings.TrimSpace(record[1])),
		}

		similar, err := ParseLabel(record[2])
		if err != nil {
			if row == 1 && isHeader(pair, validIDs) {
				continue
			}
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		pair.Similar = similar
		if err := pair.Validate(); err != nil {
			return nil, &types.InputError{Message: fmt.Sprintf("row %d", row), Err: err}
		}

		if unknown := firstUnknown(pair, validIDs); unknown != "" {
			if policy == SkipUnknown {
				set.Skipped++
				continue
			}
			return nil, types.NewInputError("row %d references unknown id %q", row, unknown)
		}

		set.Pairs = append(set.Pairs, pair)
	}

	return set, nil
}

func isHeader(p types.LabeledPair, validIDs map[types.Identifier]struct{}) bool {
	_, knownA := validIDs[p.A]
	_, knownB := validIDs[p.B]
	return !knownA && !knownB
}

func firstUnknown(p types.LabeledPair, validIDs map[types.Identifier]struct{}) types.Identifier {
	if _, ok := validIDs[p.A]; !ok {
		return p.A
	}
	if _, ok := validIDs[p.B]; !ok {
		return p.B
	}
	return ""
}

// ParseLabel converts a label column to a similarity flag.
func ParseLabel(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "similar":
		return true, nil
	case "false", "0", "no", "different":
		return false, nil
	default:
		return false, types.NewInputError("unrecognized label %q", s)
	}
}
