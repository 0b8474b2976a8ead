package resolve

import (
	"strings"
	"unicode/utf8"

	"github.com/poiesic/resolvit/core"
)

// excerptRunes bounds the document excerpt included in a reference.
const excerptRunes = 200

// Response is the well-formed result of every resolution.
type Response struct {
	Success             bool        `json:"success"`
	Text                string      `json:"response"`
	Confidence          float32     `json:"confidence_score"`
	ReferencedDocuments []Reference `json:"referenced_documents"`
	ReferencedFAQs      []Reference `json:"referenced_faqs"`
	Strategy            string      `json:"search_strategy_used"`
	Composer            string      `json:"composer,omitempty"`
	ConversationID      string      `json:"conversation_id,omitempty"`
	TurnID              core.ID     `json:"turn_id,omitempty"`
}

// Reference describes a cited knowledge item.
type Reference struct {
	ID       core.ID `json:"id"`
	Type     string  `json:"type"`
	Question string  `json:"question,omitempty"`
	Answer   string  `json:"answer,omitempty"`
	Title    string  `json:"title,omitempty"`
	Excerpt  string  `json:"excerpt,omitempty"`
	Category string  `json:"category,omitempty"`
	Score    float32 `json:"score"`
}

// Citations returns the cited items in response order, FAQs first.
func (r *Response) Citations() []core.Citation {
	out := make([]core.Citation, 0, len(r.ReferencedFAQs)+len(r.ReferencedDocuments))
	for _, ref := range r.ReferencedFAQs {
		out = append(out, core.Citation{Kind: core.ItemKindFAQ, ItemID: ref.ID})
	}
	for _, ref := range r.ReferencedDocuments {
		out = append(out, core.Citation{Kind: core.ItemKindDocument, ItemID: ref.ID})
	}
	return out
}

func newResponse(conversationID string) *Response {
	return &Response{
		ReferencedDocuments: []Reference{},
		ReferencedFAQs:      []Reference{},
		ConversationID:      conversationID,
	}
}

func (r *Response) cite(m core.MatchResult) {
	switch item := m.Item.(type) {
	case *core.FAQEntry:
		r.ReferencedFAQs = append(r.ReferencedFAQs, Reference{
			ID:       item.Id,
			Type:     core.ItemKindFAQ.String(),
			Question: item.Question,
			Answer:   item.Answer,
			Category: item.Category,
			Score:    m.Score,
		})
	case *core.Document:
		r.ReferencedDocuments = append(r.ReferencedDocuments, Reference{
			ID:       item.Id,
			Type:     core.ItemKindDocument.String(),
			Title:    item.Title,
			Excerpt:  excerpt(item.Body),
			Category: item.Category,
			Score:    m.Score,
		})
	}
}

func excerpt(body string) string {
	body = strings.Join(strings.Fields(body), " ")
	if utf8.RuneCountInString(body) <= excerptRunes {
		return body
	}
	return strings.TrimSpace(string([]rune(body)[:excerptRunes])) + "..."
}
