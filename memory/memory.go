package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"
	"unicode/utf8"
)

// Embedder converts text to fixed-length embedding vectors.
// Implementations: openai.Embedder (production), cached.Embedder
// (read-through cache), mock.Embedder (testing).
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts several texts at once. Vectors are returned in
	// input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}

// IndexedDocument is one entry at the vector-index boundary. Metadata
// values are restricted to scalars by the backing index, so list-shaped
// fields are flattened to delimited strings before they cross this
// boundary.
type IndexedDocument struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  map[string]string
}

// IndexResult is an IndexedDocument returned from a similarity query.
// Distance is the index's native ranking score; lower means closer.
type IndexResult struct {
	IndexedDocument
	Distance float32
}

// VectorIndex is the external similarity-storage contract. Every
// operation is scoped to a single user so concurrent use for different
// users needs no coordination.
type VectorIndex interface {
	// Add stores documents with their embeddings and metadata.
	Add(ctx context.Context, userID string, docs []IndexedDocument) error

	// Get fetches all of a user's documents matching the metadata filter.
	// A nil filter matches everything.
	Get(ctx context.Context, userID string, where map[string]string) ([]IndexedDocument, error)

	// Query runs a nearest-neighbor search restricted by the metadata
	// filter, returning up to topK results in the index's native order.
	Query(ctx context.Context, userID string, embedding []float32, topK int, where map[string]string) ([]IndexResult, error)

	// Delete removes documents by id.
	Delete(ctx context.Context, userID string, ids ...string) error

	// DeleteAll removes every document for the user and reports how many
	// were removed.
	DeleteAll(ctx context.Context, userID string) (int, error)

	// Close releases backend resources.
	Close() error
}

// StableID derives a deterministic, collision-resistant id from the
// owning user, the stored text and the creation time.
func StableID(userID, text string, ts time.Time) string {
	sum := sha256.Sum256([]byte(userID + ":" + text + ":" + ts.Format(time.RFC3339Nano)))
	return hex.EncodeToString(sum[:])[:24]
}

// EmbedWithRetry calls the embedder with a per-attempt timeout and a
// single retry. Embedding and index calls are the only operations that
// cross a process boundary; callers degrade to an empty result set when
// both attempts fail rather than aborting the turn.
func EmbedWithRetry(ctx context.Context, e Embedder, text string, timeout time.Duration) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		vec, err := e.Embed(attemptCtx, text)
		cancel()
		if err == nil {
			return vec, nil
		}
		lastErr = err
		log.Printf("[MEMORY] Embed attempt %d failed: %v", attempt+1, err)
	}
	return nil, fmt.Errorf("embed after retry: %w", lastErr)
}

// Truncate cuts s to at most maxLen bytes, replacing the tail with "..."
// when a cut happens. The cut is not word-boundary aware, but it backs up
// to the nearest rune boundary so the result is always valid UTF-8. For
// all-ASCII oversized input the result is exactly maxLen bytes.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return "..."[:max(maxLen, 0)]
	}
	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
