// Package agent runs the per-turn pipeline: classify, update the
// profile, write the memory tiers, assemble context, personalize and
// generate a reply.
package agent

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/digitalselfhq/selfmem/memory"
	"github.com/digitalselfhq/selfmem/personalization"
	"github.com/digitalselfhq/selfmem/profile"
	"github.com/digitalselfhq/selfmem/retrieval"
)

// longTermTriggers are the phrases that promote a turn into long-term
// memory. Matching is case-insensitive substring search.
var longTermTriggers = []string{
	"remember that",
	"remember this",
	"i prefer",
	"i like",
	"i hate",
	"my goal is",
	"i am working on",
	"i'm working on",
}

// Agent owns one user's profile and memory tiers for the lifetime of a
// process. It is not safe for concurrent turns on the same instance.
type Agent struct {
	profile     *profile.Profile
	profilePath string

	session   *memory.Session
	shortTerm *memory.ShortTermBuffer
	longTerm  *memory.LongTermStore // nil when long-term memory is disabled

	embedder  memory.Embedder
	assembler *retrieval.Assembler
	generator Generator

	topK    int
	timeout time.Duration
}

// Option configures the agent.
type Option func(*Agent)

// WithLongTerm enables the long-term tier.
func WithLongTerm(store *memory.LongTermStore) Option {
	return func(a *Agent) {
		a.longTerm = store
	}
}

// WithTopK sets how many long-term hits each retrieval requests.
func WithTopK(k int) Option {
	return func(a *Agent) {
		a.topK = k
	}
}

// WithRequestTimeout bounds each external call attempt.
func WithRequestTimeout(d time.Duration) Option {
	return func(a *Agent) {
		a.timeout = d
	}
}

// New builds an agent for an already-loaded profile. The profile is
// rewritten to profilePath after every turn.
func New(p *profile.Profile, profilePath string, shortTerm *memory.ShortTermBuffer, embedder memory.Embedder, generator Generator, opts ...Option) *Agent {
	a := &Agent{
		profile:     p,
		profilePath: profilePath,
		session:     memory.NewSession(),
		shortTerm:   shortTerm,
		embedder:    embedder,
		generator:   generator,
		topK:        5,
		timeout:     10 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.assembler = retrieval.NewAssembler(embedder, a.timeout)
	return a
}

// Profile returns the live profile.
func (a *Agent) Profile() *profile.Profile {
	return a.profile
}

// TurnResult is everything a caller can observe about one turn.
type TurnResult struct {
	Reply            string
	StoredLongTermID string
	Sensitive        bool
	RetrievalLog     retrieval.Log
	Personalization  personalization.Personalization
}

// HandleTurn runs the full pipeline for one user message.
//
// Ordering matters: the sensitivity decision uses the raw text, the
// profile updates run before redaction, the short-term tier stores the
// redacted text, and the long-term write (if any) happens before
// retrieval so its id can be excluded from the same turn's hits.
func (a *Agent) HandleTurn(ctx context.Context, userText string) (*TurnResult, error) {
	a.session.Append("user", userText)

	sensitive := a.profile.Sensitive(userText)

	a.profile.UpdateDynamic(userText)
	a.profile.UpdateStable(userText)

	safeText := a.profile.RedactIfNeeded(userText)
	a.shortTerm.Add(safeText, memory.Truncate(safeText, 180), firstTopic(a.profile))

	var storedID string
	if a.longTerm != nil && !sensitive && shouldStoreLongTerm(userText) {
		embedding, err := memory.EmbedWithRetry(ctx, a.embedder, userText, a.timeout)
		if err != nil {
			log.Printf("[AGENT] Long-term write skipped for user=%s: %v", a.profile.UserID, err)
		} else {
			storedID, err = a.longTerm.Add(ctx, memory.AddParams{
				UserID:        a.profile.UserID,
				Text:          userText,
				Embedding:     embedding,
				Tags:          firstTopic(a.profile),
				RetentionDays: a.profile.Privacy.RetentionDays.LongTerm,
			})
			if err != nil {
				log.Printf("[AGENT] Long-term write failed for user=%s: %v", a.profile.UserID, err)
				storedID = ""
			}
		}
	}

	var excludeIDs []string
	if storedID != "" {
		excludeIDs = []string{storedID}
	}
	pkg := a.assembler.Build(ctx, retrieval.BuildParams{
		Query:      userText,
		Profile:    a.profile,
		Session:    a.session,
		ShortTerm:  a.shortTerm,
		LongTerm:   a.longTerm,
		TopK:       a.topK,
		ExcludeIDs: excludeIDs,
	})

	pers := personalization.Derive(a.profile, userText, pkg.ShortTermItems)
	systemPrompt := personalization.BuildSystemPrompt(pers)

	reply, err := a.generator.Generate(ctx, systemPrompt, pkg.ContextText, userText)
	if err != nil {
		return nil, err
	}

	a.session.Append("assistant", reply)

	if err := profile.Save(a.profilePath, a.profile); err != nil {
		log.Printf("[AGENT] Profile save failed for user=%s: %v", a.profile.UserID, err)
	}

	return &TurnResult{
		Reply:            reply,
		StoredLongTermID: storedID,
		Sensitive:        sensitive,
		RetrievalLog:     pkg.Log,
		Personalization:  pers,
	}, nil
}

// ForgetLast removes the most recent short-term item. It reports whether
// anything was removed.
func (a *Agent) ForgetLast() bool {
	recent := a.shortTerm.Recent()
	if len(recent) == 0 {
		return false
	}
	id := recent[0].ID
	return a.shortTerm.Delete(func(it memory.Item) bool { return it.ID == id }) > 0
}

// ForgetAll clears the short-term buffer and wipes the user's long-term
// memories, returning how many long-term records were removed.
func (a *Agent) ForgetAll(ctx context.Context) (int, error) {
	a.shortTerm.Clear()
	if a.longTerm == nil {
		return 0, nil
	}
	return a.longTerm.WipeUser(ctx, a.profile.UserID)
}

// ForgetKeyword removes matching items from both tiers and returns the
// per-tier counts.
func (a *Agent) ForgetKeyword(ctx context.Context, keyword string) (stmDeleted, ltmDeleted int, err error) {
	needle := strings.ToLower(keyword)
	stmDeleted = a.shortTerm.Delete(func(it memory.Item) bool {
		return strings.Contains(strings.ToLower(it.Text+" "+it.Summary), needle)
	})
	if a.longTerm != nil {
		ltmDeleted, err = a.longTerm.DeleteByKeyword(ctx, a.profile.UserID, keyword)
	}
	return stmDeleted, ltmDeleted, err
}

// ShowShortTerm returns the live short-term items, most recent first.
func (a *Agent) ShowShortTerm() []memory.Item {
	return a.shortTerm.Recent()
}

// ShowLongTerm lists the user's unexpired long-term records. It returns
// nil when the long-term tier is disabled.
func (a *Agent) ShowLongTerm(ctx context.Context) ([]memory.Record, error) {
	if a.longTerm == nil {
		return nil, nil
	}
	return a.longTerm.List(ctx, a.profile.UserID)
}

// LongTermEnabled reports whether the long-term tier is wired.
func (a *Agent) LongTermEnabled() bool {
	return a.longTerm != nil
}

func shouldStoreLongTerm(userText string) bool {
	t := strings.ToLower(userText)
	for _, trigger := range longTermTriggers {
		if strings.Contains(t, trigger) {
			return true
		}
	}
	return false
}

func firstTopic(p *profile.Profile) []string {
	if len(p.Dynamic.RecentTopics) == 0 {
		return nil
	}
	return p.Dynamic.RecentTopics[:1]
}
