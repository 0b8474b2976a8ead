package reembed

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrEmbedderRequired is returned when no embedder is configured.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrRetriesExhausted wraps the last error of an operation that kept
	// failing transiently.
	ErrRetriesExhausted = errors.New("retries exhausted")
)
