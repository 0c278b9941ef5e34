// Package chromem implements the memory.VectorIndex contract on top of
// chromem-go, a pure Go embedded vector database.
package chromem

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/digitalselfhq/selfmem/memory"
)

// Index stores each user's documents in a dedicated chromem collection
// for namespace isolation.
type Index struct {
	db         *chromem.DB
	dimensions int

	mu          sync.RWMutex
	collections map[string]*chromem.Collection
}

// New creates an in-memory index. dimensions must match the embedder
// producing the vectors.
func New(dimensions int) (*Index, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}
	return &Index{
		db:          chromem.NewDB(),
		dimensions:  dimensions,
		collections: make(map[string]*chromem.Collection),
	}, nil
}

// NewPersistent creates an index persisted under dir.
func NewPersistent(dir string, dimensions int) (*Index, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open persistent index: %w", err)
	}
	idx := &Index{
		db:          db,
		dimensions:  dimensions,
		collections: make(map[string]*chromem.Collection),
	}
	// Re-attach collections that survived a previous run.
	for name, col := range db.ListCollections() {
		idx.collections[userIDFromCollection(name)] = col
	}
	return idx, nil
}

func collectionName(userID string) string {
	if userID == "" {
		return "global"
	}
	return "user_" + userID
}

func userIDFromCollection(name string) string {
	if name == "global" {
		return ""
	}
	return strings.TrimPrefix(name, "user_")
}

func (i *Index) getOrCreateCollection(userID string) (*chromem.Collection, error) {
	i.mu.RLock()
	col, exists := i.collections[userID]
	i.mu.RUnlock()
	if exists {
		return col, nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if col, exists := i.collections[userID]; exists {
		return col, nil
	}

	col, err := i.db.GetOrCreateCollection(collectionName(userID), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	i.collections[userID] = col
	return col, nil
}

// Add stores documents with caller-provided embeddings.
func (i *Index) Add(ctx context.Context, userID string, docs []memory.IndexedDocument) error {
	col, err := i.getOrCreateCollection(userID)
	if err != nil {
		return err
	}

	for _, doc := range docs {
		if len(doc.Embedding) != i.dimensions {
			return fmt.Errorf("embedding has %d dimensions, index expects %d", len(doc.Embedding), i.dimensions)
		}
		err := col.AddDocument(ctx, chromem.Document{
			ID:        doc.ID,
			Content:   doc.Content,
			Embedding: doc.Embedding,
			Metadata:  doc.Metadata,
		})
		if err != nil {
			return fmt.Errorf("add document: %w", err)
		}
	}
	return nil
}

// Get fetches all of the user's documents matching the metadata filter.
// chromem has no enumeration API, so a fixed probe vector with the full
// collection size as result count walks every document.
func (i *Index) Get(ctx context.Context, userID string, where map[string]string) ([]memory.IndexedDocument, error) {
	results, err := i.queryAll(ctx, userID, i.probeVector(), 0, where)
	if err != nil {
		return nil, err
	}

	docs := make([]memory.IndexedDocument, 0, len(results))
	for _, res := range results {
		docs = append(docs, res.IndexedDocument)
	}
	return docs, nil
}

// Query runs a nearest-neighbor search restricted by the metadata filter.
// chromem returns cosine similarity (higher = closer); it is converted to
// a distance where lower = closer.
func (i *Index) Query(ctx context.Context, userID string, embedding []float32, topK int, where map[string]string) ([]memory.IndexResult, error) {
	if topK <= 0 {
		return nil, nil
	}
	return i.queryAll(ctx, userID, embedding, topK, where)
}

// queryAll queries the user's collection. limit <= 0 means "as many as
// the collection holds". chromem rejects result counts larger than the
// number of matching documents, so the count is walked down until the
// query succeeds.
func (i *Index) queryAll(ctx context.Context, userID string, embedding []float32, limit int, where map[string]string) ([]memory.IndexResult, error) {
	i.mu.RLock()
	col, exists := i.collections[userID]
	i.mu.RUnlock()
	if !exists {
		return nil, nil
	}

	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if limit <= 0 || limit > count {
		limit = count
	}

	var results []chromem.Result
	for n := limit; n >= 1; n-- {
		var err error
		results, err = col.QueryEmbedding(ctx, embedding, n, where, nil)
		if err == nil {
			break
		}
		if isInsufficientDocsError(err) {
			if n == 1 {
				return nil, nil
			}
			continue
		}
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	out := make([]memory.IndexResult, 0, len(results))
	for _, res := range results {
		out = append(out, memory.IndexResult{
			IndexedDocument: memory.IndexedDocument{
				ID:        res.ID,
				Content:   res.Content,
				Embedding: res.Embedding,
				Metadata:  res.Metadata,
			},
			Distance: 1 - res.Similarity,
		})
	}
	return out, nil
}

// Delete removes documents by id.
func (i *Index) Delete(ctx context.Context, userID string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	i.mu.RLock()
	col, exists := i.collections[userID]
	i.mu.RUnlock()
	if !exists {
		return nil
	}

	if err := col.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("chromem delete: %w", err)
	}
	return nil
}

// DeleteAll drops the user's collection and reports how many documents
// it held.
func (i *Index) DeleteAll(ctx context.Context, userID string) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	col, exists := i.collections[userID]
	if !exists {
		return 0, nil
	}

	count := col.Count()
	if err := i.db.DeleteCollection(collectionName(userID)); err != nil {
		return 0, fmt.Errorf("chromem delete collection: %w", err)
	}
	delete(i.collections, userID)
	log.Printf("[CHROMEM] Dropped collection for user=%s (%d documents)", userID, count)
	return count, nil
}

// Close releases resources. chromem keeps its working set in memory;
// persistent mode writes through on every mutation, so there is nothing
// to flush.
func (i *Index) Close() error {
	return nil
}

// probeVector is a fixed unit vector used to enumerate documents when no
// real query embedding is involved.
func (i *Index) probeVector() []float32 {
	probe := make([]float32, i.dimensions)
	probe[0] = 1
	return probe
}

// isInsufficientDocsError reports whether the error is chromem rejecting
// a result count larger than the matching document count.
func isInsufficientDocsError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "nResults must be") || strings.Contains(msg, "number of documents")
}
