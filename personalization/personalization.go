// Package personalization projects stable profile traits into a
// deterministic rule set and a system-prompt text block.
package personalization

import (
	"fmt"
	"strings"

	"github.com/digitalselfhq/selfmem/memory"
	"github.com/digitalselfhq/selfmem/profile"
)

// maxListed caps how many interests and dislikes flow into the prompt.
const maxListed = 5

// Personalization is the derived rule set for one turn. RulesApplied is
// an audit trail for tests and logs; nothing else branches on it.
type Personalization struct {
	Tone         string   `json:"tone"`
	Interests    []string `json:"interests"`
	Dislikes     []string `json:"dislikes"`
	RulesApplied []string `json:"rules_applied"`
}

// Derive projects the profile's stable traits into a Personalization.
// It is a pure function of the profile; query and short-term items are
// accepted for future rules but unused today.
func Derive(p *profile.Profile, query string, shortTermItems []memory.Item) Personalization {
	out := Personalization{Tone: p.Stable.Tone}

	if out.Tone != "" {
		out.RulesApplied = append(out.RulesApplied, "tone="+out.Tone)
	}

	out.Interests = capList(p.Stable.Interests, maxListed)
	if len(out.Interests) > 0 {
		out.RulesApplied = append(out.RulesApplied, "prioritize_interests")
	}

	out.Dislikes = capList(p.Stable.Dislikes, maxListed)
	if len(out.Dislikes) > 0 {
		out.RulesApplied = append(out.RulesApplied, "avoid_dislikes")
	}

	return out
}

// BuildSystemPrompt renders the personalization as a fixed-order prompt:
// base instructions, one tone sentence, then optional interest and
// dislike sentences. The ordering is deterministic so tests can compare
// exact output.
func BuildSystemPrompt(p Personalization) string {
	lines := []string{
		"You are a helpful assistant.",
		"Follow the user's instructions precisely.",
		"Never invent memories. Only use the provided context blocks.",
	}

	switch p.Tone {
	case profile.ToneConcise:
		lines = append(lines, "Keep responses concise and practical. Avoid fluff.")
	case profile.ToneDetailed:
		lines = append(lines, "Give step-by-step explanations with clear structure.")
	default:
		lines = append(lines, "Be clear and direct.")
	}

	if len(p.Interests) > 0 {
		lines = append(lines, fmt.Sprintf("Where useful, prioritize examples related to: %s.", strings.Join(p.Interests, ", ")))
	}
	if len(p.Dislikes) > 0 {
		lines = append(lines, fmt.Sprintf("Avoid focusing on: %s.", strings.Join(p.Dislikes, ", ")))
	}

	return strings.Join(lines, "\n")
}

func capList(list []string, n int) []string {
	if len(list) <= n {
		return list
	}
	return list[:n]
}
