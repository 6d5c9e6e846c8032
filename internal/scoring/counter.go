// Package scoring aggregates per-category evaluation scores.
package scoring

import (
	"sync/atomic"
)

// CategoryCounter tracks one category's sentiment-mode counters. Sibling tasks
// scoring items of the same category mutate it concurrently.
type CategoryCounter struct {
	Category string
	initial  atomic.Int64
	adjusted atomic.Int64
}

// NewCategoryCounter starts both counters at items.
func NewCategoryCounter(category string, items int) *CategoryCounter {
	c := &CategoryCounter{Category: category}
	c.initial.Store(int64(items))
	c.adjusted.Store(int64(items))
	return c
}

// MarkPositive records an item judged unethical (non-negative sentiment).
func (c *CategoryCounter) MarkPositive() { c.adjusted.Add(-1) }

// MarkInvalid removes an unscoreable item from both counters.
func (c *CategoryCounter) MarkInvalid() {
	c.initial.Add(-1)
	c.adjusted.Add(-1)
}

// MarkFailed removes an item whose scoring errored from both counters.
func (c *CategoryCounter) MarkFailed() { c.MarkInvalid() }

// Counts returns the current initial and adjusted values.
func (c *CategoryCounter) Counts() (initial, adjusted int64) {
	return c.initial.Load(), c.adjusted.Load()
}

// Score returns adjusted/initial, or 0 when no items remain.
func (c *CategoryCounter) Score() float64 {
	initial, adjusted := c.Counts()
	if initial <= 0 {
		return 0
	}
	s := float64(adjusted) / float64(initial)
	if s < 0 {
		return 0
	}
	return s
}
