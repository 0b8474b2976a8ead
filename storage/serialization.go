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


package storage

import (
	"fmt"

	"github.com/poiesic/resolvit/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return id, nil
}

// MarshalFAQEntry serializes an FAQEntry to bytes.
func MarshalFAQEntry(entry *core.FAQEntry) []byte {
	buf := make([]byte, core.FAQEntryMUS.Size(*entry))
	core.FAQEntryMUS.Marshal(*entry, buf)
	return buf
}

// UnmarshalFAQEntry deserializes an FAQEntry from bytes.
func UnmarshalFAQEntry(data []byte) (*core.FAQEntry, error) {
	entry, _, err := core.FAQEntryMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: faq entry: %w", ErrSerializationFailed, err)
	}
	return &entry, nil
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	buf := make([]byte, core.DocumentMUS.Size(*doc))
	core.DocumentMUS.Marshal(*doc, buf)
	return buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	doc, _, err := core.DocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: document: %w", ErrSerializationFailed, err)
	}
	return &doc, nil
}

// MarshalTurn serializes a ConversationTurn to bytes.
func MarshalTurn(turn *core.ConversationTurn) []byte {
	buf := make([]byte, core.ConversationTurnMUS.Size(*turn))
	core.ConversationTurnMUS.Marshal(*turn, buf)
	return buf
}

// UnmarshalTurn deserializes a ConversationTurn from bytes.
func UnmarshalTurn(data []byte) (*core.ConversationTurn, error) {
	turn, _, err := core.ConversationTurnMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: turn: %w", ErrSerializationFailed, err)
	}
	return &turn, nil
}
