// Package compose turns ranked matches into response text. Primary asks an
// answer-generation model for a grounded answer; Fallback lightly reformats
// or extracts the top-ranked item and never depends on a backing service.
package compose

import (
	"context"
	"errors"
	"fmt"

	"github.com/poiesic/resolvit/core"
)

// Composer names reported in outcomes and responses.
const (
	NamePrimary  = "primary"
	NameFallback = "fallback"
)

var (
	// ErrComposerUnavailable is returned when the backing service fails.
	ErrComposerUnavailable = errors.New("composer unavailable")

	// ErrComposerTimeout is returned when the backing service misses its deadline.
	ErrComposerTimeout = errors.New("composer timeout")

	// ErrNoMatches is returned when Compose is called without matches.
	ErrNoMatches = errors.New("no matches supplied")

	// ErrGeneratorRequired is returned when Primary has no answer generator.
	ErrGeneratorRequired = errors.New("answer generator required")
)

// Composer produces a ComposerOutcome from a query and ranked matches.
type Composer interface {
	Name() string
	Compose(ctx context.Context, query core.Query, matches []core.MatchResult) (*core.ComposerOutcome, error)
}

// classify maps a backing-service failure onto the composer error taxonomy.
func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrComposerTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrComposerUnavailable, err)
}

// itemTitle returns the FAQ question or document title.
func itemTitle(item core.KnowledgeItem) string {
	switch v := item.(type) {
	case *core.FAQEntry:
		return v.Question
	case *core.Document:
		return v.Title
	default:
		return ""
	}
}
