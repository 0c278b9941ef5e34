package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Item is one short-term memory entry. Text is stored post-redaction;
// Summary is a bounded-length preview used in context blocks.
type Item struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Summary   string    `json:"summary"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the item's TTL has passed at the given time.
func (it Item) Expired(now time.Time) bool {
	return !now.Before(it.ExpiresAt)
}

// ShortTermBuffer keeps the most recent items, newest first, bounded by
// a capacity and a TTL. Eviction is lazy: expired items are dropped on
// every add and every read, never on a timer.
//
// A buffer with maxItems == 0 holds nothing after any add; that is the
// explicit "no memory" mode.
type ShortTermBuffer struct {
	mu       sync.Mutex
	maxItems int
	ttl      time.Duration
	items    []Item
}

func NewShortTermBuffer(maxItems int, ttl time.Duration) *ShortTermBuffer {
	if maxItems < 0 {
		maxItems = 0
	}
	return &ShortTermBuffer{maxItems: maxItems, ttl: ttl}
}

// Add constructs an item expiring after the buffer's TTL, inserts it at
// the front, truncates to capacity and decays expired entries.
func (b *ShortTermBuffer) Add(text, summary string, tags []string) Item {
	now := time.Now().UTC()
	item := Item{
		ID:        uuid.NewString(),
		Text:      text,
		Summary:   summary,
		Tags:      tags,
		CreatedAt: now,
		ExpiresAt: now.Add(b.ttl),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.items = append([]Item{item}, b.items...)
	if len(b.items) > b.maxItems {
		b.items = b.items[:b.maxItems]
	}
	b.decayLocked(now)
	return item
}

// Recent decays expired items and returns the live sequence, most recent
// first. Callers slice as needed.
func (b *ShortTermBuffer) Recent() []Item {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.decayLocked(time.Now().UTC())
	out := make([]Item, len(b.items))
	copy(out, b.items)
	return out
}

// Delete removes all items matching the predicate and returns the count
// removed.
func (b *ShortTermBuffer) Delete(pred func(Item) bool) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	before := len(b.items)
	kept := b.items[:0]
	for _, it := range b.items {
		if !pred(it) {
			kept = append(kept, it)
		}
	}
	b.items = kept
	return before - len(b.items)
}

// Clear drops all items.
func (b *ShortTermBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = nil
}

func (b *ShortTermBuffer) decayLocked(now time.Time) {
	kept := b.items[:0]
	for _, it := range b.items {
		if !it.Expired(now) {
			kept = append(kept, it)
		}
	}
	b.items = kept
}
