// Package utils provides utility functions for the docsim library.
//
// This package contains:
//   - Vector helpers used when scoring document pairs (vector.go)
//   - A bounded concurrent executor for batch inference (concurrent.go)
//   - Panic recovery that turns worker panics into errors (recovery.go)
package utils
