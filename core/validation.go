// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"strings"
	"time"
)

// ValidateFAQEntry validates an FAQEntry according to domain rules.
//
// Validation rules:
//   - Question must not be blank
//   - Answer must not be blank
//
// NOT validated (populated by ingestion):
//   - Vector (can be empty until the embedding pool runs)
//   - ID (derived from the question when 0)
func ValidateFAQEntry(entry *FAQEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidFAQEntry)
	}

	if strings.TrimSpace(entry.Question) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidFAQEntry, ErrEmptyQuestion)
	}

	if strings.TrimSpace(entry.Answer) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidFAQEntry, ErrEmptyAnswer)
	}

	return nil
}

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Title must not be blank
//   - Body must not be blank
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if strings.TrimSpace(doc.Title) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyTitle)
	}

	if strings.TrimSpace(doc.Body) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyBody)
	}

	return nil
}

// ValidateTurn validates a ConversationTurn before it is appended to a log.
func ValidateTurn(turn *ConversationTurn) error {
	if turn == nil {
		return fmt.Errorf("%w: turn is nil", ErrInvalidTurn)
	}

	if strings.TrimSpace(turn.ConversationID) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTurn, ErrEmptyConversationID)
	}

	if strings.TrimSpace(turn.Query) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTurn, ErrEmptyQuery)
	}

	if !IsValidTimestamp(turn.Timestamp) {
		return fmt.Errorf("%w: %w", ErrInvalidTurn, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateQuery checks that a query carries text and a conversation identity.
func ValidateQuery(q Query) error {
	if strings.TrimSpace(q.Text) == "" {
		return ErrEmptyQuery
	}
	if strings.TrimSpace(q.ConversationID) == "" {
		return ErrEmptyConversationID
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
