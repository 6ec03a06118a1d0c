// Package training runs the epoch loop that trains an embedding provider,
// recalibrates the similarity threshold after every epoch, and checkpoints
// the result.
//
// Each epoch trains the provider once over the training documents, embeds
// every document referenced by the labeled pairs, scores each pair by cosine
// similarity, calibrates a new threshold, evaluates it, and persists the
// model atomically. A run interrupted between epochs resumes from the last
// checkpoint with at most one epoch of lost work.
//
// # Usage
//
//	store, _ := checkpoint.NewStore("model.json")
//	trainer := training.New(provider, store, training.Options{Iterations: 5})
//	if err := trainer.Prepare(ctx, trainDocs); err != nil {
//	    return err
//	}
//	result, err := trainer.Run(ctx, trainDocs, pairs, corpus)
package training
