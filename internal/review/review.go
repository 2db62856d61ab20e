// Package review implements SM-2 spaced-repetition scheduling for graph
// nodes. It is independent of the layout engine.
package review

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	DefaultEase = 2.5
	MinEase     = 1.3
	MaxQuality  = 5
	// PassQuality is the lowest grade that counts as a successful recall.
	PassQuality = 3
)

// ErrInvalidQuality is returned for grades outside 0..5.
var ErrInvalidQuality = errors.New("quality must be between 0 and 5")

// Card is the scheduling state of one reviewable item.
type Card struct {
	Interval    int     `json:"interval"` // days
	EaseFactor  float64 `json:"ease_factor"`
	Repetitions int     `json:"repetitions"`
}

// NewCard returns the state of an item that has never been reviewed.
func NewCard() Card {
	return Card{EaseFactor: DefaultEase}
}

// Result is the outcome of grading a card.
type Result struct {
	Card    Card      `json:"card"`
	NextDue time.Time `json:"next_due"`
}

// Schedule grades prev with quality and returns the updated card and the
// next due date, measured from the start of now's local day.
func Schedule(quality int, prev Card, now time.Time) (Result, error) {
	if quality < 0 || quality > MaxQuality {
		return Result{}, fmt.Errorf("schedule review: %w", ErrInvalidQuality)
	}
	if prev.EaseFactor <= 0 {
		prev.EaseFactor = DefaultEase
	}

	next := Card{EaseFactor: prev.EaseFactor}
	if quality >= PassQuality {
		next.Repetitions = prev.Repetitions + 1
		switch next.Repetitions {
		case 1:
			next.Interval = 1
		case 2:
			next.Interval = 6
		default:
			next.Interval = int(math.Round(float64(prev.Interval) * prev.EaseFactor))
		}
		miss := float64(MaxQuality - quality)
		next.EaseFactor += 0.1 - miss*(0.08+miss*0.02)
	} else {
		next.Repetitions = 0
		next.Interval = 1
	}
	if next.EaseFactor < MinEase {
		next.EaseFactor = MinEase
	}

	return Result{Card: next, NextDue: DueDate(next.Interval, now)}, nil
}

// StartOfDay truncates t to local midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DueDate is the start of now's day plus interval days.
func DueDate(interval int, now time.Time) time.Time {
	return StartOfDay(now).AddDate(0, 0, interval)
}

// IsDue reports whether an item scheduled for due should be reviewed at now.
// A zero due time means the item was never scheduled.
func IsDue(due, now time.Time) bool {
	return !due.IsZero() && !due.After(now)
}
