package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/resolvit/core"
)

// Key prefixes for different data types
const (
	faqRecordPrefix = "faq"
	docRecordPrefix = "doc"
	turnPrefix      = "turn"
	turnIDSeq       = "turnseq"
)

// makeFAQKey generates a key for an FAQ entry by ID.
func makeFAQKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", faqRecordPrefix, id))
}

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", docRecordPrefix, id))
}

// makePartialTurnKey generates the prefix shared by all turns of a conversation.
// Format: prefix:conversationID\x00
// The NUL terminator keeps "c1" from matching turns of "c10".
func makePartialTurnKey(conversationID string) []byte {
	prefix := turnPrefix + ":"
	buf := make([]byte, len(prefix)+len(conversationID)+1)
	offset := copy(buf, prefix)
	offset += copy(buf[offset:], conversationID)
	buf[offset] = 0
	return buf
}

// makeTurnKey generates a composite key for a turn.
// Format: prefix:conversationID\x00turnID
func makeTurnKey(conversationID string, id core.ID) []byte {
	partial := makePartialTurnKey(conversationID)
	buf := make([]byte, len(partial)+8)
	offset := copy(buf, partial)
	// Write in BigEndian order so lexicographic sort matches append order
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}
