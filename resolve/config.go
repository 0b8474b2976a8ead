package resolve

import (
	"errors"
	"time"
)

// Fixed response texts. They are never produced by a composer.
const (
	DefaultNoAnswerMessage    = "I'm sorry, I couldn't find enough information to answer that question. Please contact HR for help."
	DefaultUnavailableMessage = "The help service is temporarily unavailable. Please try again later."
)

// Config holds the thresholds and stage timeouts of a Resolver.
type Config struct {
	// FAQConfidenceFloor is the score an FAQ match needs to skip document lookup.
	// Default: 0.6
	FAQConfidenceFloor float32

	// AcceptanceThreshold is the confidence the primary composer must reach
	// before its answer is used instead of the fallback's.
	// Default: 0.5
	AcceptanceThreshold float32

	// MaxMatches bounds the matches handed to a composer.
	// Default: 3
	MaxMatches int

	// LookupTimeout bounds FAQ, keyword and embedding lookups.
	LookupTimeout time.Duration
	// SemanticTimeout bounds the model-backed document lookup.
	SemanticTimeout time.Duration
	// PrimaryTimeout bounds the primary composer.
	PrimaryTimeout time.Duration
	// FallbackTimeout bounds the fallback composer.
	FallbackTimeout time.Duration

	NoAnswerMessage    string
	UnavailableMessage string
}

// DefaultConfig returns the default thresholds and timeouts.
func DefaultConfig() Config {
	return Config{
		FAQConfidenceFloor:  0.6,
		AcceptanceThreshold: 0.5,
		MaxMatches:          3,
		LookupTimeout:       5 * time.Second,
		SemanticTimeout:     20 * time.Second,
		PrimaryTimeout:      30 * time.Second,
		FallbackTimeout:     10 * time.Second,
		NoAnswerMessage:     DefaultNoAnswerMessage,
		UnavailableMessage:  DefaultUnavailableMessage,
	}
}

// Validate checks thresholds lie in [0,1] and limits are positive.
func (c Config) Validate() error {
	if c.FAQConfidenceFloor < 0 || c.FAQConfidenceFloor > 1 {
		return errors.New("resolve config: FAQConfidenceFloor must be within [0,1]")
	}
	if c.AcceptanceThreshold < 0 || c.AcceptanceThreshold > 1 {
		return errors.New("resolve config: AcceptanceThreshold must be within [0,1]")
	}
	if c.MaxMatches < 1 {
		return errors.New("resolve config: MaxMatches must be positive")
	}
	if c.LookupTimeout <= 0 || c.SemanticTimeout <= 0 || c.PrimaryTimeout <= 0 || c.FallbackTimeout <= 0 {
		return errors.New("resolve config: stage timeouts must be positive")
	}
	if c.NoAnswerMessage == "" || c.UnavailableMessage == "" {
		return errors.New("resolve config: response messages must not be empty")
	}
	return nil
}
