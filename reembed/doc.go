// Package reembed regenerates the embeddings of every FAQ entry and document
// in a knowledge store, typically after switching embedding models.
//
// Items are processed in batches with retry and exponential backoff. Vectors
// are normalized before storage so similarity search can use a dot product.
// An item edited or deleted after it was read keeps its newer state; the
// run counts it as stale instead of writing an outdated vector.
package reembed
