// Package embedder provides document embedding providers for the training
// pipeline.
//
// This package defines the Provider capability interface and two
// implementations:
//   - DBOWProvider: a native, trainable distributed bag-of-words paragraph
//     vector model
//   - OpenAIProvider: a frozen remote model served by any OpenAI-compatible
//     embeddings endpoint
//
// # Usage
//
//	provider, err := embedder.New(cfg.Embedding, cfg.CircuitBreaker, logger)
//	if err := provider.BuildVocabulary(ctx, docs, false); err != nil {
//	    return err
//	}
//	if err := provider.Train(ctx, docs, 1); err != nil {
//	    return err
//	}
//	vec, err := provider.InferVector(ctx, doc.Tokens)
//
// # Batch Inference
//
// Providers that can embed many documents more efficiently than one at a
// time also implement BatchInferer; InferAll uses it when available.
//
// # Persistence
//
// Save and Load move the provider's learned state through an io.Writer or
// io.Reader. The checkpoint package wraps that state in a versioned envelope
// together with the calibrated threshold.
package embedder
