// Package profile holds the digital self: one durable, evolving record of
// a user's stable traits, dynamic signals and privacy configuration.
//
// The profile is mutated by small heuristic extraction passes (see
// heuristics.go) and persisted as a JSON document per user (see store.go).
package profile

import (
	"time"

	"github.com/digitalselfhq/selfmem/policy"
)

// Tone values for StableTraits.Tone.
const (
	ToneNeutral  = "neutral"
	ToneConcise  = "concise"
	ToneDetailed = "detailed"
)

// DefaultEmbeddingModel is recorded alongside stored vectors so a reader
// can detect model drift. It is not validated at query time.
const DefaultEmbeddingModel = "text-embedding-3-small"

// RetentionDays configures how long each memory tier keeps data.
type RetentionDays struct {
	ShortTerm int `json:"short_term"`
	LongTerm  int `json:"long_term"`
}

// PrivacyConfig controls what is flagged as sensitive and how long
// memories are retained.
type PrivacyConfig struct {
	SensitiveKeywords []string      `json:"sensitive_keywords"`
	DoNotStore        []string      `json:"do_not_store"`
	RetentionDays     RetentionDays `json:"retention_days"`
}

// StableTraits are slow-moving preferences. They only grow; nothing here
// shrinks except through an explicit privacy wipe.
type StableTraits struct {
	Tone               string   `json:"tone"`
	Interests          []string `json:"interests"`
	Dislikes           []string `json:"dislikes"`
	Timezone           string   `json:"timezone"`
	CommunicationStyle string   `json:"communication_style"`
}

// DynamicSignals are refreshed every turn.
type DynamicSignals struct {
	RecentTopics []string  `json:"recent_topics"`
	CurrentGoals []string  `json:"current_goals"`
	LastUpdated  time.Time `json:"last_updated"`
}

// EmbeddingInfo identifies the embedding model the profile's memories
// were vectorized with.
type EmbeddingInfo struct {
	Model string `json:"model"`
}

// Profile is the digital self record for a single user.
type Profile struct {
	UserID    string         `json:"user_id"`
	Stable    StableTraits   `json:"stable"`
	Dynamic   DynamicSignals `json:"dynamic"`
	Embedding EmbeddingInfo  `json:"embedding"`
	Privacy   PrivacyConfig  `json:"privacy"`
}

// New returns a profile with default traits and privacy settings.
func New(userID string) *Profile {
	return &Profile{
		UserID: userID,
		Stable: StableTraits{
			Tone:               ToneNeutral,
			Timezone:           "Europe/London",
			CommunicationStyle: "clear",
		},
		Dynamic: DynamicSignals{
			LastUpdated: time.Now().UTC(),
		},
		Embedding: EmbeddingInfo{
			Model: DefaultEmbeddingModel,
		},
		Privacy: PrivacyConfig{
			SensitiveKeywords: []string{"password", "bank", "card", "ni number"},
			DoNotStore:        []string{"password", "bank", "card", "medical"},
			RetentionDays: RetentionDays{
				ShortTerm: 1,
				LongTerm:  30,
			},
		},
	}
}

// Sensitive reports whether text should be treated as sensitive for this
// user, combining the built-in patterns with the user's keyword list.
func (p *Profile) Sensitive(text string) bool {
	return policy.Classify(text, p.Privacy.SensitiveKeywords)
}

// RedactIfNeeded masks pattern matches when the text is sensitive and
// returns it unchanged otherwise.
func (p *Profile) RedactIfNeeded(text string) string {
	if p.Sensitive(text) {
		return policy.Redact(text)
	}
	return text
}
