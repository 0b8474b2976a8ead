package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/resolvit/core"
	"github.com/poiesic/resolvit/storage"
)

// ConversationRepository implements storage.ConversationRepository for BadgerDB.
type ConversationRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ConversationRepository = (*ConversationRepository)(nil)

// NewConversationRepository creates a new ConversationRepository.
func NewConversationRepository(backend *Backend) (*ConversationRepository, error) {
	idSeq, err := backend.GetSequence(turnIDSeq)
	if err != nil {
		return nil, err
	}

	return &ConversationRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ConversationRepository) Close() error {
	if r.backend.IsClosed() {
		return nil
	}
	return r.idSeq.Release()
}

// AppendTurn stores a new turn. IDs come from a database sequence so they
// increase with append order within a process.
func (r *ConversationRepository) AppendTurn(ctx context.Context, turn *core.ConversationTurn) (*core.ConversationTurn, error) {
	if turn != nil && turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}
	if err := core.ValidateTurn(turn); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		nextID, err := r.idSeq.Next()
		if err != nil {
			return err
		}
		// BadgerDB sequences can return 0 on first call, so we skip it
		if nextID == 0 {
			nextID, err = r.idSeq.Next()
			if err != nil {
				return err
			}
		}
		turn.Id = core.ID(nextID)

		key := makeTurnKey(turn.ConversationID, turn.Id)
		if err := tx.Set(key, storage.MarshalTurn(turn)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return turn, nil
}

// GetTurns returns every turn of a conversation in append order.
func (r *ConversationRepository) GetTurns(ctx context.Context, conversationID string) ([]*core.ConversationTurn, error) {
	return r.GetRecentTurns(ctx, conversationID, 0)
}

// GetRecentTurns returns up to limit of the latest turns, oldest first.
// A limit of 0 returns every turn.
func (r *ConversationRepository) GetRecentTurns(ctx context.Context, conversationID string, limit int) ([]*core.ConversationTurn, error) {
	if conversationID == "" || limit < 0 {
		return nil, fmt.Errorf("%w: conversation %q limit %d", storage.ErrInvalidQuery, conversationID, limit)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var results []*core.ConversationTurn
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialTurnKey(conversationID)

		// Walk backwards from the end of the conversation's key range so the
		// newest turns are read first.
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		seekKey := append(append([]byte{}, prefix...), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
		for iter.Seek(seekKey); iter.Valid(); iter.Next() {
			if limit > 0 && len(results) >= limit {
				break
			}
			var turn *core.ConversationTurn
			err := iter.Item().Value(func(val []byte) error {
				var err error
				turn, err = storage.UnmarshalTurn(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, turn)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Oldest first
	for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
		results[i], results[j] = results[j], results[i]
	}
	return results, nil
}
