// Package ingestion loads knowledge items into the knowledge store.
//
// The Pipeline upserts FAQ entries and documents, then embeds them
// asynchronously on a worker pool so the embedding strategy can find them.
// Embedding errors are logged but do not fail the import. A Watcher reloads
// a knowledge file whenever it changes on disk.
package ingestion
