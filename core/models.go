package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for knowledge items and conversation turns.
// Knowledge items use content-based hashing; turns use database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Identical content produces identical IDs, which makes re-imports idempotent.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// FAQKey returns the canonical content used to derive an FAQ entry ID.
func FAQKey(question string) string {
	return "faq:" + normalizeKey(question)
}

// DocumentKey returns the canonical content used to derive a document ID.
func DocumentKey(title string) string {
	return "doc:" + normalizeKey(title)
}

func normalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// ItemKind identifies the variant of a KnowledgeItem.
type ItemKind int

const (
	// ItemKindFAQ is a curated question/answer pair.
	ItemKindFAQ ItemKind = iota + 1
	// ItemKindDocument is a free-text document.
	ItemKindDocument
)

// String returns the wire name of the kind.
func (k ItemKind) String() string {
	switch k {
	case ItemKindFAQ:
		return "faq"
	case ItemKindDocument:
		return "document"
	default:
		return "unknown"
	}
}

// KnowledgeItem is the closed set of items held by the knowledge store.
// Only *FAQEntry and *Document implement it.
type KnowledgeItem interface {
	ItemID() ID
	Kind() ItemKind
	ItemCategory() string
	// Text returns the answer-bearing text of the item.
	Text() string
	isKnowledgeItem()
}

// FAQEntry is a curated question/answer pair with a category tag.
type FAQEntry struct {
	Id         ID
	Question   string
	Answer     string
	Category   string
	Vector     []float32 // Embedding of question and answer (populated by ingestion)
	InsertedAt time.Time
	UpdatedAt  time.Time
}

func (f *FAQEntry) ItemID() ID           { return f.Id }
func (f *FAQEntry) Kind() ItemKind       { return ItemKindFAQ }
func (f *FAQEntry) ItemCategory() string { return f.Category }
func (f *FAQEntry) Text() string         { return f.Answer }
func (f *FAQEntry) isKnowledgeItem()     {}

// EmbeddingText returns the text embedded for this entry.
func (f *FAQEntry) EmbeddingText() string {
	return f.Question + "\n" + f.Answer
}

// Document is a free-text knowledge item without a fixed question form.
type Document struct {
	Id         ID
	Title      string
	Body       string
	Category   string
	Vector     []float32 // Embedding of title and body (populated by ingestion)
	InsertedAt time.Time
	UpdatedAt  time.Time
}

func (d *Document) ItemID() ID           { return d.Id }
func (d *Document) Kind() ItemKind       { return ItemKindDocument }
func (d *Document) ItemCategory() string { return d.Category }
func (d *Document) Text() string         { return d.Body }
func (d *Document) isKnowledgeItem()     {}

// EmbeddingText returns the text embedded for this document.
func (d *Document) EmbeddingText() string {
	return d.Title + "\n" + d.Body
}

// Strategy identifies the retrieval strategy that produced a match.
// Lower values have higher priority.
type Strategy int

const (
	StrategyFAQ Strategy = iota + 1
	StrategyAISearch
	StrategyKeyword
	StrategyEmbedding
)

// DocumentStrategies lists the document sub-strategies in the order they are attempted.
var DocumentStrategies = []Strategy{StrategyAISearch, StrategyKeyword, StrategyEmbedding}

// Terminal labels reported when no strategy produced the answer.
const (
	StrategyLabelExhausted   = "exhausted"
	StrategyLabelUnavailable = "unavailable"
)

// String returns the wire name of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyFAQ:
		return "faq_search"
	case StrategyAISearch:
		return "ai_search"
	case StrategyKeyword:
		return "keyword_search"
	case StrategyEmbedding:
		return "embedding_search"
	default:
		return "unknown"
	}
}

// ParseStrategy maps a wire name back to a Strategy.
func ParseStrategy(name string) (Strategy, bool) {
	for _, s := range []Strategy{StrategyFAQ, StrategyAISearch, StrategyKeyword, StrategyEmbedding} {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}

// MatchResult is a knowledge item scored against a query by one strategy.
type MatchResult struct {
	Item     KnowledgeItem
	Score    float32 // Similarity in [0,1]
	Strategy Strategy
}

// HistoryTurn is a prior exchange passed to composers as conversation context.
type HistoryTurn struct {
	Query    string
	Response string
}

// Query is a question issued by a user within a conversation.
type Query struct {
	Text           string
	UserID         string
	ConversationID string
	History        []HistoryTurn
}

// ComposerOutcome is the result of turning matches into response text.
type ComposerOutcome struct {
	Success    bool
	Text       string
	Confidence float32
	Cited      []MatchResult
	Composer   string
}

// Citation references a knowledge item used in a response.
type Citation struct {
	Kind   ItemKind
	ItemID ID
}

// ConversationTurn is an append-only record of a resolved query.
type ConversationTurn struct {
	Id             ID
	ConversationID string
	UserID         string
	Query          string
	Response       string
	Citations      []Citation
	Strategy       string
	Composer       string
	Confidence     float32
	Success        bool
	Timestamp      time.Time
}

// KnowledgeStats are read-only corpus statistics used as health metrics.
type KnowledgeStats struct {
	FAQCount          int
	DocumentCount     int
	EmbeddedFAQs      int
	EmbeddedDocuments int
	Categories        []string
}
