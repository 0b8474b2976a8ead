// Package sqlite stores the conversation log in SQLite through GORM.
// It uses the CGO-free glebarez driver so the binary stays statically linked.
package sqlite

import (
	"context"
	"fmt"
	"slices"
	"time"

	driver "github.com/glebarez/sqlite"
	"github.com/poiesic/resolvit/core"
	"github.com/poiesic/resolvit/storage"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// turnRow is the table layout of a conversation turn.
type turnRow struct {
	ID             uint64 `gorm:"primaryKey;autoIncrement"`
	ConversationID string `gorm:"index;not null"`
	UserID         string
	Query          string `gorm:"not null"`
	Response       string
	Citations      []citationRow `gorm:"serializer:json"`
	Strategy       string
	Composer       string
	Confidence     float32
	Success        bool
	Timestamp      time.Time `gorm:"index"`
}

func (turnRow) TableName() string { return "conversation_turns" }

type citationRow struct {
	Kind   string `json:"kind"`
	ItemID uint64 `json:"item_id"`
}

// ConversationRepository implements storage.ConversationRepository on SQLite.
type ConversationRepository struct {
	db *gorm.DB
}

var _ storage.ConversationRepository = (*ConversationRepository)(nil)

// OpenConversationRepository opens (or creates) the SQLite database at path and
// migrates the turn table. Use ":memory:" for an ephemeral database.
func OpenConversationRepository(path string) (storage.ConversationRepository, error) {
	db, err := gorm.Open(driver.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.AutoMigrate(&turnRow{}); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	// SQLite serializes writers; a single connection avoids "database is locked"
	// and keeps ":memory:" databases shared across calls.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	return &ConversationRepository{db: db}, nil
}

// Close closes the underlying database handle.
func (r *ConversationRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AppendTurn inserts a turn; SQLite assigns the ID.
func (r *ConversationRepository) AppendTurn(ctx context.Context, turn *core.ConversationTurn) (*core.ConversationTurn, error) {
	if turn != nil && turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}
	if err := core.ValidateTurn(turn); err != nil {
		return nil, err
	}

	row := toRow(turn)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	turn.Id = core.ID(row.ID)
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

	q := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID).Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []turnRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	slices.Reverse(rows)
	out := make([]*core.ConversationTurn, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out, nil
}

func toRow(turn *core.ConversationTurn) turnRow {
	citations := make([]citationRow, 0, len(turn.Citations))
	for _, c := range turn.Citations {
		citations = append(citations, citationRow{Kind: c.Kind.String(), ItemID: uint64(c.ItemID)})
	}
	return turnRow{
		ConversationID: turn.ConversationID,
		UserID:         turn.UserID,
		Query:          turn.Query,
		Response:       turn.Response,
		Citations:      citations,
		Strategy:       turn.Strategy,
		Composer:       turn.Composer,
		Confidence:     turn.Confidence,
		Success:        turn.Success,
		Timestamp:      turn.Timestamp.UTC(),
	}
}

func fromRow(row turnRow) *core.ConversationTurn {
	var citations []core.Citation
	for _, c := range row.Citations {
		kind := core.ItemKindDocument
		if c.Kind == core.ItemKindFAQ.String() {
			kind = core.ItemKindFAQ
		}
		citations = append(citations, core.Citation{Kind: kind, ItemID: core.ID(c.ItemID)})
	}
	return &core.ConversationTurn{
		Id:             core.ID(row.ID),
		ConversationID: row.ConversationID,
		UserID:         row.UserID,
		Query:          row.Query,
		Response:       row.Response,
		Citations:      citations,
		Strategy:       row.Strategy,
		Composer:       row.Composer,
		Confidence:     row.Confidence,
		Success:        row.Success,
		Timestamp:      row.Timestamp.UTC(),
	}
}
