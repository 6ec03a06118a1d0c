// Package types defines the core data types shared by the docsim packages.
//
// This package contains the fundamental types used throughout docsim:
//   - DocumentRecord: A tokenized corpus document with its tags
//   - LabeledPair: A ground-truth "same"/"different" judgement over two documents
//   - IdentifierSet: The train/test partition produced by the splitter
//
// # Errors
//
// Three error types classify every failure in the training pipeline:
//   - InputError: malformed or inconsistent inputs; aborts the operation
//   - DegenerateMetricError: a rate is undefined because a class is empty
//   - ProviderError: the embedding provider failed; fatal for a training run
//
// All three support errors.Is with a zero value of the type:
//
//	if errors.Is(err, &types.DegenerateMetricError{}) {
//	    // keep the previous threshold
//	}
package types
