// Package retrieval assembles the per-turn context package: a bounded
// concatenation of profile, short-term and long-term blocks plus a
// structured log explaining what was retrieved and why.
package retrieval

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/digitalselfhq/selfmem/memory"
	"github.com/digitalselfhq/selfmem/profile"
)

// Character budgets per context block. Each block is truncated
// independently with a hard byte cut.
const (
	MaxProfileChars   = 800
	MaxShortTermChars = 800
	MaxLongTermChars  = 1200
)

// maxShortTermShown bounds how many short-term items render into the
// context block; the full live list still travels in the package.
const maxShortTermShown = 8

// hitPreviewChars bounds each long-term hit's text preview.
const hitPreviewChars = 220

// Section headers for the assembled context text.
const (
	profileHeader   = "=== DIGITAL SELF ==="
	shortTermHeader = "=== SHORT-TERM MEMORY ==="
	longTermHeader  = "=== LONG-TERM MEMORY ==="
)

// Budgets is the limit table recorded in every retrieval log.
type Budgets struct {
	Profile   int `json:"profile"`
	ShortTerm int `json:"short_term"`
	LongTerm  int `json:"long_term"`
}

// HitExplanation justifies one long-term hit for the audit trail.
type HitExplanation struct {
	ID        string    `json:"id"`
	Distance  float32   `json:"distance"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"ts"`
}

// Log is the explainability artifact surfaced to the caller. Nothing in
// the turn flow consumes it.
type Log struct {
	RetrievedCount int              `json:"ltm_retrieved_count"`
	IDs            []string         `json:"ltm_ids"`
	Distances      []float32        `json:"ltm_top_distances"`
	Explanations   []HitExplanation `json:"ltm_explanations"`
	ShortTermCount int              `json:"stm_count"`
	Limits         Budgets          `json:"limits"`

	// Notes carries degraded-mode markers, e.g. when the embedding
	// service or the long-term store was unreachable this turn.
	Notes []string `json:"notes,omitempty"`
}

// Package is the per-turn bundle of assembled context and its audit log.
type Package struct {
	ContextText    string
	Log            Log
	QueryEmbedding []float32
	Hits           []memory.Record
	ShortTermItems []memory.Item
}

// BuildParams describes one assembly request.
type BuildParams struct {
	Query     string
	Profile   *profile.Profile
	Session   *memory.Session
	ShortTerm *memory.ShortTermBuffer

	// LongTerm may be nil when long-term memory is disabled.
	LongTerm *memory.LongTermStore

	TopK int

	// ExcludeIDs drops hits by id, so a memory written earlier in the
	// same turn is not retrieved as if it were prior knowledge.
	ExcludeIDs []string
}

// Assembler builds context packages. The embedder is the only external
// dependency; its calls are bounded by the configured timeout with a
// single retry before degrading.
type Assembler struct {
	embedder memory.Embedder
	timeout  time.Duration
}

func NewAssembler(embedder memory.Embedder, timeout time.Duration) *Assembler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Assembler{embedder: embedder, timeout: timeout}
}

// Build computes the query embedding once, gathers the short- and
// long-term views and renders the bounded context text. External
// failures degrade to an empty long-term block with a marker in the log;
// they never abort the turn, so Build always returns a usable package.
func (a *Assembler) Build(ctx context.Context, p BuildParams) *Package {
	pkg := &Package{
		Log: Log{
			Limits: Budgets{
				Profile:   MaxProfileChars,
				ShortTerm: MaxShortTermChars,
				LongTerm:  MaxLongTermChars,
			},
		},
	}

	queryEmbedding, err := memory.EmbedWithRetry(ctx, a.embedder, p.Query, a.timeout)
	if err != nil {
		pkg.Log.Notes = append(pkg.Log.Notes, "query embedding unavailable; long-term block empty")
	}
	pkg.QueryEmbedding = queryEmbedding

	if p.ShortTerm != nil {
		pkg.ShortTermItems = p.ShortTerm.Recent()
	}
	pkg.Log.ShortTermCount = len(pkg.ShortTermItems)

	switch {
	case p.LongTerm == nil:
		pkg.Log.Notes = append(pkg.Log.Notes, "long-term memory disabled")
	case queryEmbedding != nil:
		hits, err := p.LongTerm.Query(ctx, p.Profile.UserID, queryEmbedding, p.TopK, true)
		if err != nil {
			log.Printf("[RETRIEVAL] Long-term query failed for user=%s: %v", p.Profile.UserID, err)
			pkg.Log.Notes = append(pkg.Log.Notes, "long-term store unreachable; block empty")
		}
		pkg.Hits = excludeByID(hits, p.ExcludeIDs)
	}

	for _, hit := range pkg.Hits {
		pkg.Log.RetrievedCount++
		pkg.Log.IDs = append(pkg.Log.IDs, hit.ID)
		pkg.Log.Distances = append(pkg.Log.Distances, hit.Distance)
		pkg.Log.Explanations = append(pkg.Log.Explanations, HitExplanation{
			ID:        hit.ID,
			Distance:  hit.Distance,
			Reason:    fmt.Sprintf("Selected by semantic similarity to query. tags=%v", hit.Tags),
			CreatedAt: hit.CreatedAt,
		})
	}

	profileBlock := memory.Truncate(formatProfile(p.Profile), MaxProfileChars)
	shortTermBlock := memory.Truncate(formatShortTerm(pkg.ShortTermItems), MaxShortTermChars)
	longTermBlock := memory.Truncate(formatLongTerm(pkg.Hits), MaxLongTermChars)

	pkg.ContextText = strings.Join([]string{
		profileHeader,
		profileBlock,
		"",
		shortTermHeader,
		shortTermBlock,
		"",
		longTermHeader,
		longTermBlock,
	}, "\n") + "\n"

	return pkg
}

func excludeByID(hits []memory.Record, excludeIDs []string) []memory.Record {
	if len(excludeIDs) == 0 {
		return hits
	}
	exclude := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		if id != "" {
			exclude[id] = true
		}
	}

	kept := hits[:0]
	for _, hit := range hits {
		if !exclude[hit.ID] {
			kept = append(kept, hit)
		}
	}
	return kept
}

func formatProfile(p *profile.Profile) string {
	return fmt.Sprintf(
		"STABLE: tone=%s interests=%v dislikes=%v timezone=%s style=%s\nDYNAMIC: topics=%v goals=%v updated=%s",
		p.Stable.Tone,
		p.Stable.Interests,
		p.Stable.Dislikes,
		p.Stable.Timezone,
		p.Stable.CommunicationStyle,
		p.Dynamic.RecentTopics,
		p.Dynamic.CurrentGoals,
		p.Dynamic.LastUpdated.Format(time.RFC3339),
	)
}

func formatShortTerm(items []memory.Item) string {
	var lines []string
	for i, it := range items {
		if i >= maxShortTermShown {
			break
		}
		lines = append(lines, fmt.Sprintf("- %s (tags=%v)", it.Summary, it.Tags))
	}
	return strings.Join(lines, "\n")
}

func formatLongTerm(hits []memory.Record) string {
	var lines []string
	for _, hit := range hits {
		lines = append(lines, fmt.Sprintf(
			"- %s (dist=%.4f, ts=%s, tags=%v)",
			memory.Truncate(hit.Text, hitPreviewChars),
			hit.Distance,
			hit.CreatedAt.Format(time.RFC3339),
			hit.Tags,
		))
	}
	return strings.Join(lines, "\n")
}
