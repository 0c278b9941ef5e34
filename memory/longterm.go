package memory

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
)

// Metadata keys stored with every long-term record. Values must be
// scalar strings at the index boundary.
const (
	metaUserID         = "user_id"
	metaTimestamp      = "ts"
	metaMemoryType     = "memory_type"
	metaSensitive      = "is_sensitive"
	metaExpiresAt      = "expires_at"
	metaTags           = "tags"
	metaEmbeddingModel = "embedding_model"
)

// tagSeparator joins tag lists into the scalar metadata value.
const tagSeparator = ", "

// Record is one long-term memory in domain form. Text is stored raw;
// the caller guarantees sensitive text never reaches Add in normal flow,
// and IsSensitive is kept as defensive metadata on top of that.
type Record struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Text        string    `json:"text"`
	Embedding   []float32 `json:"-"`
	Tags        []string  `json:"tags"`
	IsSensitive bool      `json:"is_sensitive"`
	Distance    float32   `json:"distance"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the record's retention window has passed.
func (r Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// AddParams describes one record to persist.
type AddParams struct {
	UserID        string
	Text          string
	Embedding     []float32
	Tags          []string
	IsSensitive   bool
	RetentionDays int
}

// LongTermStore is persistent semantic memory on top of a VectorIndex.
// It enforces retention expiry and sensitivity exclusion at read time;
// it enforces no write-time policy, since the decision not to persist
// sensitive text belongs to the turn flow.
type LongTermStore struct {
	index          VectorIndex
	embeddingModel string
}

// NewLongTermStore wraps the given index. embeddingModel is recorded in
// metadata for compatibility checking; it is not validated on query.
func NewLongTermStore(index VectorIndex, embeddingModel string) *LongTermStore {
	return &LongTermStore{index: index, embeddingModel: embeddingModel}
}

// Add persists one record and returns its id. The id is a stable hash of
// user, text and creation time.
func (s *LongTermStore) Add(ctx context.Context, p AddParams) (string, error) {
	now := time.Now().UTC()
	id := StableID(p.UserID, p.Text, now)

	tags := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	doc := IndexedDocument{
		ID:        id,
		Content:   p.Text,
		Embedding: p.Embedding,
		Metadata: map[string]string{
			metaUserID:         p.UserID,
			metaTimestamp:      now.Format(time.RFC3339Nano),
			metaMemoryType:     "long_term",
			metaSensitive:      strconv.FormatBool(p.IsSensitive),
			metaExpiresAt:      now.AddDate(0, 0, p.RetentionDays).Format(time.RFC3339Nano),
			metaTags:           strings.Join(tags, tagSeparator),
			metaEmbeddingModel: s.embeddingModel,
		},
	}

	if err := s.index.Add(ctx, p.UserID, []IndexedDocument{doc}); err != nil {
		return "", fmt.Errorf("add long-term record: %w", err)
	}
	return id, nil
}

// PurgeExpired deletes every record of the user whose retention window
// has passed and returns the count deleted. It is invoked lazily at the
// start of every query; there is no background sweeper.
func (s *LongTermStore) PurgeExpired(ctx context.Context, userID string) (int, error) {
	docs, err := s.index.Get(ctx, userID, nil)
	if err != nil {
		return 0, fmt.Errorf("purge fetch: %w", err)
	}

	now := time.Now().UTC()
	var expired []string
	for _, doc := range docs {
		if rec := s.recordFromDocument(doc, 0); rec.Expired(now) {
			expired = append(expired, doc.ID)
		}
	}
	if len(expired) == 0 {
		return 0, nil
	}

	if err := s.index.Delete(ctx, userID, expired...); err != nil {
		return 0, fmt.Errorf("purge delete: %w", err)
	}
	log.Printf("[MEMORY] Purged %d expired long-term records for user=%s", len(expired), userID)
	return len(expired), nil
}

// DeleteByKeyword removes all of the user's records whose text contains
// the keyword (case-insensitive) and returns the count deleted.
func (s *LongTermStore) DeleteByKeyword(ctx context.Context, userID, keyword string) (int, error) {
	docs, err := s.index.Get(ctx, userID, nil)
	if err != nil {
		return 0, fmt.Errorf("keyword fetch: %w", err)
	}

	low := strings.ToLower(keyword)
	var matched []string
	for _, doc := range docs {
		if strings.Contains(strings.ToLower(doc.Content), low) {
			matched = append(matched, doc.ID)
		}
	}
	if len(matched) == 0 {
		return 0, nil
	}

	if err := s.index.Delete(ctx, userID, matched...); err != nil {
		return 0, fmt.Errorf("keyword delete: %w", err)
	}
	return len(matched), nil
}

// WipeUser deletes every record for the user and returns the count.
func (s *LongTermStore) WipeUser(ctx context.Context, userID string) (int, error) {
	n, err := s.index.DeleteAll(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("wipe user: %w", err)
	}
	return n, nil
}

// Query purges expired records, then runs a nearest-neighbor search for
// the user. With excludeSensitive set, records whose is_sensitive
// metadata is true are filtered by the index; surviving-but-expired
// results are dropped defensively either way. Results keep the index's
// native ascending-distance order; tie order is index-defined.
func (s *LongTermStore) Query(ctx context.Context, userID string, queryEmbedding []float32, topK int, excludeSensitive bool) ([]Record, error) {
	if _, err := s.PurgeExpired(ctx, userID); err != nil {
		// Degrade to querying with stale records still present; the
		// defensive expiry filter below keeps them out of results.
		log.Printf("[MEMORY] PurgeExpired failed for user=%s: %v", userID, err)
	}

	where := map[string]string{metaUserID: userID}
	if excludeSensitive {
		where[metaSensitive] = "false"
	}

	results, err := s.index.Query(ctx, userID, queryEmbedding, topK, where)
	if err != nil {
		return nil, fmt.Errorf("query long-term store: %w", err)
	}

	now := time.Now().UTC()
	records := make([]Record, 0, len(results))
	for _, res := range results {
		rec := s.recordFromDocument(res.IndexedDocument, res.Distance)
		if rec.Expired(now) {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// List returns every live record for the user in the index's order.
func (s *LongTermStore) List(ctx context.Context, userID string) ([]Record, error) {
	docs, err := s.index.Get(ctx, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("list long-term store: %w", err)
	}

	now := time.Now().UTC()
	records := make([]Record, 0, len(docs))
	for _, doc := range docs {
		rec := s.recordFromDocument(doc, 0)
		if rec.Expired(now) {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// recordFromDocument converts an index document back to domain form.
// Malformed metadata is parsed defensively: bad timestamps become zero
// values and a zero expiry counts as expired, so broken records are
// filtered rather than surfaced.
func (s *LongTermStore) recordFromDocument(doc IndexedDocument, distance float32) Record {
	createdAt, _ := time.Parse(time.RFC3339Nano, doc.Metadata[metaTimestamp])
	expiresAt, _ := time.Parse(time.RFC3339Nano, doc.Metadata[metaExpiresAt])
	sensitive, _ := strconv.ParseBool(doc.Metadata[metaSensitive])

	var tags []string
	for _, t := range strings.Split(doc.Metadata[metaTags], ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}

	return Record{
		ID:          doc.ID,
		UserID:      doc.Metadata[metaUserID],
		Text:        doc.Content,
		Embedding:   doc.Embedding,
		Tags:        tags,
		IsSensitive: sensitive,
		Distance:    distance,
		CreatedAt:   createdAt,
		ExpiresAt:   expiresAt,
	}
}
