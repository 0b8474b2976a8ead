package ingestion

import "errors"

var (
	// ErrRepositoryRequired is returned when a knowledge repository is not provided.
	ErrRepositoryRequired = errors.New("knowledge repository required")

	// ErrIngesterRequired is returned when a watcher has nothing to ingest into.
	ErrIngesterRequired = errors.New("ingester required")

	// ErrInvalidKnowledgeFile is returned when a knowledge file cannot be parsed
	// or contains an invalid item.
	ErrInvalidKnowledgeFile = errors.New("invalid knowledge file")
)
