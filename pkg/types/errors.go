package types

import (
	"fmt"
	"strings"
)

// InputError reports malformed or inconsistent inputs, such as a labeled pair
// that references an identifier missing from the corpus.
type InputError struct {
	Message string
	Err     error
}

func (e *InputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid input: %s: %v", e.Message, e.Err)
	}
	return "invalid input: " + e.Message
}

// Unwrap returns the underlying error.
func (e *InputError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support for InputError.
// This allows errors.Is(err, &InputError{}) to work with wrapped errors.
func (e *InputError) Is(target error) bool {
	_, ok := target.(*InputError)
	return ok
}

// NewInputError creates a new input error with a formatted message.
func NewInputError(format string, args ...any) *InputError {
	return &InputError{Message: fmt.Sprintf(format, args...)}
}

// DegenerateMetricError reports that one or more confusion-matrix rates are
// undefined because a class is absent from the evaluated labels.
type DegenerateMetricError struct {
	Metrics []string
}

func (e *DegenerateMetricError) Error() string {
	return fmt.Sprintf("degenerate metric: %s undefined (class absent from labels)", strings.Join(e.Metrics, ", "))
}

// Is implements errors.Is support for DegenerateMetricError.
func (e *DegenerateMetricError) Is(target error) bool {
	_, ok := target.(*DegenerateMetricError)
	return ok
}

// NewDegenerateMetricError creates a new degenerate metric error.
func NewDegenerateMetricError(metrics ...string) *DegenerateMetricError {
	return &DegenerateMetricError{Metrics: metrics}
}

// ProviderError wraps a failure of the embedding provider. It is always fatal
// for a training run.
type ProviderError struct {
	// Op is the provider capability that failed (e.g., "build_vocabulary")
	Op string

	// Err is the underlying error
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("embedding provider %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support for ProviderError.
func (e *ProviderError) Is(target error) bool {
	_, ok := target.(*ProviderError)
	return ok
}

// NewProviderError creates a new ProviderError.
func NewProviderError(op string, err error) *ProviderError {
	return &ProviderError{Op: op, Err: err}
}
