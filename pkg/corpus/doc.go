// Package corpus loads the document collection and the labeled pair set
// from disk.
//
// Documents are JSON Lines records:
//
//	{"id": "doc-1", "text": "Free text to tokenize", "tags": ["news"]}
//
// "text" may also be a pre-tokenized array of strings, which is used as is.
// Labeled pairs are CSV rows of idA,idB,label with an optional header.
package corpus
