package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lazypower/mindgraph/internal/review"
)

// Card is the persisted review schedule of one node.
type Card struct {
	NodeID string `json:"node_id"`
	review.Card
	DueAt      time.Time `json:"due_at"`
	ReviewedAt time.Time `json:"reviewed_at"`
}

// GetCard returns the review card of a node, or nil if it was never reviewed.
func (db *DB) GetCard(ctx context.Context, nodeID string) (*Card, error) {
	row := db.QueryRowContext(ctx, `
		SELECT node_id, interval, ease_factor, repetitions, due_at, reviewed_at
		FROM review_cards WHERE node_id = ?
	`, nodeID)
	c, err := scanCard(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get card: %w", err)
	}
	return c, nil
}

// SaveCard inserts or replaces a review card.
func (db *DB) SaveCard(ctx context.Context, c *Card) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO review_cards (node_id, interval, ease_factor, repetitions, due_at, reviewed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(node_id) DO UPDATE SET
			interval = excluded.interval,
			ease_factor = excluded.ease_factor,
			repetitions = excluded.repetitions,
			due_at = excluded.due_at,
			reviewed_at = excluded.reviewed_at
	`, c.NodeID, c.Interval, c.EaseFactor, c.Repetitions, millis(c.DueAt), millis(c.ReviewedAt))
	if err != nil {
		return fmt.Errorf("save card: %w", err)
	}
	return nil
}

// DueCards returns cards whose due date is at or before now, oldest first.
func (db *DB) DueCards(ctx context.Context, now time.Time) ([]Card, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT node_id, interval, ease_factor, repetitions, due_at, reviewed_at
		FROM review_cards
		WHERE due_at IS NOT NULL AND due_at <= ?
		ORDER BY due_at, node_id
	`, now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query due cards: %w", err)
	}
	defer rows.Close()

	var cards []Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, *c)
	}
	return cards, rows.Err()
}

func scanCard(s scanner) (*Card, error) {
	var c Card
	var due, reviewed sql.NullInt64
	if err := s.Scan(&c.NodeID, &c.Interval, &c.EaseFactor, &c.Repetitions, &due, &reviewed); err != nil {
		return nil, err
	}
	if due.Valid {
		c.DueAt = time.UnixMilli(due.Int64)
	}
	if reviewed.Valid {
		c.ReviewedAt = time.UnixMilli(reviewed.Int64)
	}
	return &c, nil
}
