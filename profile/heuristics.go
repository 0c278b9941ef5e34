package profile

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// maxRecentTopics caps Dynamic.RecentTopics.
const maxRecentTopics = 10

// topicRule maps a set of trigger keywords to a topic label. Rules are
// evaluated in order; the first rule with any keyword hit wins.
type topicRule struct {
	label    string
	keywords []string
}

var topicRules = []topicRule{
	{"memory", []string{"memory", "remember", "recall", "store this"}},
	{"privacy", []string{"privacy", "password", "sensitive", "data retention", "delete this"}},
	{"devops", []string{"devops", "kubernetes", "terraform", "docker", "ci/cd"}},
	{"language", []string{"python", "golang", "typescript"}},
}

// fallbackTopic is used when no rule matches.
const fallbackTopic = "general"

// Tone signal phrases. Concise signals are checked before detailed ones;
// the first matching set wins and overwrites the stored tone.
var (
	conciseSignals = []string{
		"be concise",
		"keep it short",
		"concise answers",
		"prefer concise",
		"i prefer concise",
		"i prefer concise answers",
		"no fluff",
		"avoid fluff",
	}
	detailedSignals = []string{
		"be detailed",
		"step by step",
		"walk me through",
		"in detail",
	}
)

// TopicLabel classifies text into a topic label using the ordered rule
// table above.
func TopicLabel(text string) string {
	low := strings.ToLower(text)
	for _, rule := range topicRules {
		for _, kw := range rule.keywords {
			if strings.Contains(low, kw) {
				return rule.label
			}
		}
	}
	return fallbackTopic
}

// UpdateDynamic refreshes LastUpdated and pushes the topic label derived
// from text to the front of RecentTopics. Safe to re-apply: pushing the
// same label twice leaves a single occurrence at the front.
func (p *Profile) UpdateDynamic(text string) {
	p.Dynamic.LastUpdated = time.Now().UTC()
	p.PushTopic(TopicLabel(text))
}

// PushTopic inserts a normalized topic label at the front of
// RecentTopics, removing any prior occurrence and truncating to the cap.
func (p *Profile) PushTopic(label string) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return
	}

	topics := make([]string, 0, len(p.Dynamic.RecentTopics)+1)
	topics = append(topics, label)
	for _, t := range p.Dynamic.RecentTopics {
		if t != label {
			topics = append(topics, t)
		}
	}
	if len(topics) > maxRecentTopics {
		topics = topics[:maxRecentTopics]
	}
	p.Dynamic.RecentTopics = topics
}

// UpdateStable scans text for tone signals and explicit likes/dislikes.
// Tone: last writer wins across turns. Interests and dislikes: first
// occurrence per turn only, appended when not already present
// (case-insensitive).
func (p *Profile) UpdateStable(text string) {
	low := strings.ToLower(text)

	if containsAny(low, conciseSignals) {
		p.Stable.Tone = ToneConcise
	} else if containsAny(low, detailedSignals) {
		p.Stable.Tone = ToneDetailed
	}

	if interest, ok := extractAfter(text, "i like "); ok {
		p.Stable.Interests = appendUnique(p.Stable.Interests, interest)
	}

	for _, marker := range []string{"i hate ", "i don't like "} {
		if dislike, ok := extractAfter(text, marker); ok {
			p.Stable.Dislikes = appendUnique(p.Stable.Dislikes, dislike)
			break
		}
	}
}

func containsAny(low string, phrases []string) bool {
	for _, s := range phrases {
		if strings.Contains(low, s) {
			return true
		}
	}
	return false
}

// extractAfter returns the original-case text following the first
// case-insensitive occurrence of marker, cut at the next sentence
// terminator and trimmed.
func extractAfter(text, marker string) (string, bool) {
	end := indexFoldEnd(text, marker)
	if end < 0 {
		return "", false
	}
	rest := text[end:]
	if j := strings.IndexAny(rest, ".!?"); j >= 0 {
		rest = rest[:j]
	}
	rest = strings.TrimSpace(rest)
	return rest, rest != ""
}

// indexFoldEnd finds the first case-insensitive occurrence of substr in
// s and returns the byte offset just past it, or -1. Matching walks both
// strings rune by rune, so the returned offset is always a valid rune
// boundary in s even when case mapping changes byte lengths.
func indexFoldEnd(s, substr string) int {
	for i := 0; i < len(s); {
		j, k := i, 0
		for k < len(substr) && j < len(s) {
			r1, size1 := utf8.DecodeRuneInString(s[j:])
			r2, size2 := utf8.DecodeRuneInString(substr[k:])
			if unicode.ToLower(r1) != unicode.ToLower(r2) {
				break
			}
			j += size1
			k += size2
		}
		if k == len(substr) {
			return j
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return -1
}

func appendUnique(list []string, entry string) []string {
	for _, existing := range list {
		if strings.EqualFold(existing, entry) {
			return list
		}
	}
	return append(list, entry)
}
