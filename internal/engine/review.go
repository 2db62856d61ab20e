package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lazypower/mindgraph/internal/graph"
	"github.com/lazypower/mindgraph/internal/review"
	"github.com/lazypower/mindgraph/internal/store"
)

// Review grades a node's recall with an SM-2 quality of 0..5 and stores the
// new schedule. A node reviewed for the first time starts from a fresh card.
func (e *Engine) Review(ctx context.Context, nodeID string, quality int) (store.Card, error) {
	if _, err := e.Node(nodeID); err != nil {
		return store.Card{}, err
	}

	prev, err := e.db.GetCard(ctx, nodeID)
	if err != nil {
		return store.Card{}, err
	}
	card := store.Card{NodeID: nodeID, Card: review.NewCard()}
	if prev != nil {
		card = *prev
	}

	now := e.now()
	res, err := review.Schedule(quality, card.Card, now)
	if err != nil {
		return store.Card{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	card.Card = res.Card
	card.DueAt = res.NextDue
	card.ReviewedAt = now
	if err := e.db.SaveCard(ctx, &card); err != nil {
		return store.Card{}, err
	}

	outcome := "fail"
	if quality >= review.PassQuality {
		outcome = "pass"
	}
	e.metrics.Reviews.WithLabelValues(outcome).Inc()
	e.log.Info("review recorded",
		zap.String("node", nodeID),
		zap.Int("quality", quality),
		zap.Int("interval", card.Interval),
		zap.Time("due", card.DueAt))
	return card, nil
}

// DueReview pairs a node with its review card.
type DueReview struct {
	Node graph.Node `json:"node"`
	Card store.Card `json:"card"`
}

// DueReviews lists nodes whose review is due at now, most overdue first.
// Cards of nodes missing from the session are skipped.
func (e *Engine) DueReviews(ctx context.Context, now time.Time) ([]DueReview, error) {
	cards, err := e.db.DueCards(ctx, now)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	due := make([]DueReview, 0, len(cards))
	for _, c := range cards {
		n, err := e.nodeLocked(c.NodeID)
		if err != nil {
			continue
		}
		due = append(due, DueReview{Node: n, Card: c})
	}
	return due, nil
}
