package memory

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestShortTermBufferCapacityAndOrder(t *testing.T) {
	b := NewShortTermBuffer(2, 240*time.Minute)

	b.Add("a", "a", nil)
	b.Add("b", "b", nil)
	b.Add("c", "c", nil)

	items := b.Recent()
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[0].Text != "c" || items[1].Text != "b" {
		t.Fatalf("order = [%q %q], want [c b]", items[0].Text, items[1].Text)
	}
}

func TestShortTermBufferNeverExceedsCapacity(t *testing.T) {
	b := NewShortTermBuffer(5, time.Hour)
	for i := 0; i < 20; i++ {
		b.Add(strings.Repeat("x", i+1), "s", nil)
		if got := len(b.Recent()); got > 5 {
			t.Fatalf("len = %d after add #%d, want <= 5", got, i+1)
		}
	}
}

func TestShortTermBufferTTL(t *testing.T) {
	// A non-positive TTL makes every item expired on insertion; decay
	// must drop it no matter where it sits in the sequence.
	b := NewShortTermBuffer(10, -time.Minute)
	b.Add("stale", "stale", nil)

	if items := b.Recent(); len(items) != 0 {
		t.Fatalf("expired item returned: %v", items)
	}
}

func TestShortTermBufferMixedExpiry(t *testing.T) {
	b := NewShortTermBuffer(10, time.Hour)
	b.Add("live", "live", nil)

	// Backdate an expired item directly into the sequence.
	b.mu.Lock()
	b.items = append(b.items, Item{
		Text:      "stale",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	})
	b.mu.Unlock()

	items := b.Recent()
	if len(items) != 1 || items[0].Text != "live" {
		t.Fatalf("Recent() = %v, want only the live item", items)
	}
}

func TestShortTermBufferZeroCapacity(t *testing.T) {
	b := NewShortTermBuffer(0, time.Hour)
	b.Add("anything", "anything", nil)

	if items := b.Recent(); len(items) != 0 {
		t.Fatalf("zero-capacity buffer retained items: %v", items)
	}
}

func TestShortTermBufferDelete(t *testing.T) {
	b := NewShortTermBuffer(10, time.Hour)
	b.Add("keep me", "keep", nil)
	b.Add("drop me", "drop", nil)
	b.Add("drop me too", "drop", nil)

	n := b.Delete(func(it Item) bool {
		return strings.Contains(it.Text, "drop")
	})
	if n != 2 {
		t.Fatalf("deleted = %d, want 2", n)
	}

	items := b.Recent()
	if len(items) != 1 || items[0].Text != "keep me" {
		t.Fatalf("Recent() = %v", items)
	}
}

func TestShortTermBufferClear(t *testing.T) {
	b := NewShortTermBuffer(10, time.Hour)
	b.Add("a", "a", nil)
	b.Clear()

	if items := b.Recent(); len(items) != 0 {
		t.Fatalf("Recent() after Clear = %v", items)
	}
}

func TestSessionAppendOrder(t *testing.T) {
	s := NewSession()
	s.Append("user", "hello")
	s.Append("assistant", "hi there")

	msgs := s.Messages()
	if len(msgs) != 2 {
		t.Fatalf("len = %d, want 2", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Fatalf("roles = [%q %q]", msgs[0].Role, msgs[1].Role)
	}
	if msgs[0].ID == "" || msgs[0].ID == msgs[1].ID {
		t.Fatalf("message ids not unique: %q %q", msgs[0].ID, msgs[1].ID)
	}

	s.Clear()
	if len(s.Messages()) != 0 {
		t.Fatalf("Messages() after Clear is not empty")
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("x", 2000)

	got := Truncate(long, 800)
	if len(got) != 800 {
		t.Fatalf("len = %d, want exactly 800", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("truncated string does not end with marker: %q", got[len(got)-8:])
	}

	if got := Truncate("short", 800); got != "short" {
		t.Fatalf("Truncate left short input changed: %q", got)
	}
}

func TestTruncateMultibyte(t *testing.T) {
	// A cut landing inside a multi-byte rune must back up to the rune
	// boundary instead of emitting invalid UTF-8.
	for maxLen := 10; maxLen <= 16; maxLen++ {
		got := Truncate(strings.Repeat("日", 20), maxLen)
		if len(got) > maxLen {
			t.Fatalf("maxLen %d: len = %d", maxLen, len(got))
		}
		if !utf8.ValidString(got) {
			t.Fatalf("maxLen %d: invalid UTF-8: %q", maxLen, got)
		}
		if !strings.HasSuffix(got, "...") {
			t.Fatalf("maxLen %d: missing marker: %q", maxLen, got)
		}
	}
}

func TestStableID(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	a := StableID("u1", "I like hiking", ts)
	b := StableID("u1", "I like hiking", ts)
	c := StableID("u2", "I like hiking", ts)

	if a != b {
		t.Fatalf("same inputs produced different ids: %q %q", a, b)
	}
	if a == c {
		t.Fatalf("different users produced the same id")
	}
	if len(a) != 24 {
		t.Fatalf("id length = %d, want 24", len(a))
	}
}
