package cached_test

import (
	"context"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/digitalselfhq/selfmem/memory"
	"github.com/digitalselfhq/selfmem/memory/embedder/cached"
	"github.com/digitalselfhq/selfmem/memory/embedder/mock"
)

// countingEmbedder counts how many texts reach the inner embedder.
type countingEmbedder struct {
	inner memory.Embedder
	calls atomic.Int64
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls.Add(1)
	return c.inner.Embed(ctx, text)
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls.Add(int64(len(texts)))
	return c.inner.EmbedBatch(ctx, texts)
}

func (c *countingEmbedder) Dimensions() int { return c.inner.Dimensions() }

func TestEmbedServesRepeatsFromCache(t *testing.T) {
	ctx := context.Background()
	counting := &countingEmbedder{inner: mock.New(0)}
	e, err := cached.New(counting, 16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	first, err := e.Embed(ctx, "I like hiking")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	e.Wait()

	second, err := e.Embed(ctx, "I like hiking")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if got := counting.calls.Load(); got != 1 {
		t.Fatalf("inner calls = %d, want 1", got)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("cached vector differs from original")
	}
}

func TestEmbedBatchOnlyEmbedsMisses(t *testing.T) {
	ctx := context.Background()
	inner := mock.New(0)
	counting := &countingEmbedder{inner: inner}
	e, err := cached.New(counting, 16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	if _, err := e.Embed(ctx, "warm"); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	e.Wait()
	counting.calls.Store(0)

	texts := []string{"warm", "cold one", "cold two"}
	got, err := e.EmbedBatch(ctx, texts)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}

	if calls := counting.calls.Load(); calls != 2 {
		t.Fatalf("inner calls = %d, want 2 (only the misses)", calls)
	}
	if len(got) != len(texts) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(texts))
	}
	// Output order must follow input order regardless of hit/miss split.
	for i, text := range texts {
		want, err := inner.Embed(ctx, text)
		if err != nil {
			t.Fatalf("Embed: %v", err)
		}
		if !reflect.DeepEqual(got[i], want) {
			t.Fatalf("got[%d] is not the vector for %q", i, text)
		}
	}
}

func TestDimensionsDelegates(t *testing.T) {
	inner := mock.New(32)
	e, err := cached.New(inner, 16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	if got := e.Dimensions(); got != 32 {
		t.Fatalf("Dimensions = %d, want 32", got)
	}
}
