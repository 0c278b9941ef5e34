package personalization

import (
	"reflect"
	"strings"
	"testing"

	"github.com/digitalselfhq/selfmem/profile"
)

func TestDerive(t *testing.T) {
	p := profile.New("u1")
	p.Stable.Tone = profile.ToneConcise
	p.Stable.Interests = []string{"a", "b", "c", "d", "e", "f", "g"}
	p.Stable.Dislikes = []string{"x"}

	got := Derive(p, "anything", nil)

	if got.Tone != profile.ToneConcise {
		t.Fatalf("Tone = %q", got.Tone)
	}
	if len(got.Interests) != 5 {
		t.Fatalf("Interests = %v, want capped at 5", got.Interests)
	}
	want := []string{"tone=concise", "prioritize_interests", "avoid_dislikes"}
	if !reflect.DeepEqual(got.RulesApplied, want) {
		t.Fatalf("RulesApplied = %v, want %v", got.RulesApplied, want)
	}
}

func TestDeriveEmptyLists(t *testing.T) {
	p := profile.New("u1")
	got := Derive(p, "anything", nil)

	if len(got.Interests) != 0 || len(got.Dislikes) != 0 {
		t.Fatalf("lists = %v / %v, want empty", got.Interests, got.Dislikes)
	}
	want := []string{"tone=neutral"}
	if !reflect.DeepEqual(got.RulesApplied, want) {
		t.Fatalf("RulesApplied = %v, want %v", got.RulesApplied, want)
	}
}

func TestBuildSystemPromptDeterministic(t *testing.T) {
	p := Personalization{
		Tone:      profile.ToneConcise,
		Interests: []string{"hiking", "jazz"},
		Dislikes:  []string{"small talk"},
	}

	want := strings.Join([]string{
		"You are a helpful assistant.",
		"Follow the user's instructions precisely.",
		"Never invent memories. Only use the provided context blocks.",
		"Keep responses concise and practical. Avoid fluff.",
		"Where useful, prioritize examples related to: hiking, jazz.",
		"Avoid focusing on: small talk.",
	}, "\n")

	if got := BuildSystemPrompt(p); got != want {
		t.Fatalf("prompt mismatch:\n got: %q\nwant: %q", got, want)
	}
	// Same input, same output.
	if again := BuildSystemPrompt(p); again != BuildSystemPrompt(p) {
		t.Fatalf("prompt not deterministic: %q", again)
	}
}

func TestBuildSystemPromptToneSentences(t *testing.T) {
	tests := []struct {
		tone string
		want string
	}{
		{profile.ToneConcise, "Keep responses concise and practical. Avoid fluff."},
		{profile.ToneDetailed, "Give step-by-step explanations with clear structure."},
		{profile.ToneNeutral, "Be clear and direct."},
		{"", "Be clear and direct."},
	}

	for _, tt := range tests {
		got := BuildSystemPrompt(Personalization{Tone: tt.tone})
		if !strings.Contains(got, tt.want) {
			t.Errorf("tone %q: prompt missing %q", tt.tone, tt.want)
		}
		// Tone sentences are mutually exclusive.
		count := 0
		for _, sentence := range []string{
			"Keep responses concise and practical. Avoid fluff.",
			"Give step-by-step explanations with clear structure.",
			"Be clear and direct.",
		} {
			if strings.Contains(got, sentence) {
				count++
			}
		}
		if count != 1 {
			t.Errorf("tone %q: %d tone sentences present, want exactly 1", tt.tone, count)
		}
	}
}
