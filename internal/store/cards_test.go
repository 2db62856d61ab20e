package store

import (
	"context"
	"testing"
	"time"

	"github.com/lazypower/mindgraph/internal/graph"
	"github.com/lazypower/mindgraph/internal/review"
)

func TestSaveAndGetCard(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.CreateNode(ctx, &graph.Node{ID: "a", Title: "A"}); err != nil {
		t.Fatalf("CreateNode: %v", err)
	}

	c, err := db.GetCard(ctx, "a")
	if err != nil {
		t.Fatalf("GetCard: %v", err)
	}
	if c != nil {
		t.Fatal("expected nil card before first review")
	}

	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	card := &Card{
		NodeID:     "a",
		Card:       review.Card{Interval: 6, EaseFactor: 2.36, Repetitions: 2},
		DueAt:      due,
		ReviewedAt: due.Add(-6 * 24 * time.Hour),
	}
	if err := db.SaveCard(ctx, card); err != nil {
		t.Fatalf("SaveCard: %v", err)
	}

	card.Interval = 15
	if err := db.SaveCard(ctx, card); err != nil {
		t.Fatalf("SaveCard update: %v", err)
	}

	got, err := db.GetCard(ctx, "a")
	if err != nil {
		t.Fatalf("GetCard: %v", err)
	}
	if got.Interval != 15 || got.EaseFactor != 2.36 || got.Repetitions != 2 {
		t.Errorf("card = %+v", got)
	}
	if !got.DueAt.Equal(due) {
		t.Errorf("DueAt = %v, want %v", got.DueAt, due)
	}
}

func TestSaveCardRequiresNode(t *testing.T) {
	db := testDB(t)

	if err := db.SaveCard(context.Background(), &Card{NodeID: "ghost"}); err == nil {
		t.Error("expected foreign key error for unknown node")
	}
}

func TestDueCards(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	now := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)

	schedule := map[string]time.Time{
		"late":   now.Add(-48 * time.Hour),
		"today":  now.Add(-time.Hour),
		"future": now.Add(24 * time.Hour),
	}
	for id, due := range schedule {
		if err := db.CreateNode(ctx, &graph.Node{ID: id, Title: id}); err != nil {
			t.Fatalf("CreateNode: %v", err)
		}
		if err := db.SaveCard(ctx, &Card{NodeID: id, Card: review.NewCard(), DueAt: due}); err != nil {
			t.Fatalf("SaveCard: %v", err)
		}
	}

	cards, err := db.DueCards(ctx, now)
	if err != nil {
		t.Fatalf("DueCards: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("len = %d, want 2", len(cards))
	}
	if cards[0].NodeID != "late" || cards[1].NodeID != "today" {
		t.Errorf("order = %s, %s; want late, today", cards[0].NodeID, cards[1].NodeID)
	}
}
