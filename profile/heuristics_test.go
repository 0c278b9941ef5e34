package profile

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTopicLabel(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"can you remember this for me", "memory"},
		{"what is your data retention policy", "privacy"},
		{"help me debug a kubernetes deployment", "devops"},
		{"show me some golang patterns", "language"},
		{"what's the weather like", "general"},
		// "remember" outranks "password" because the memory rule is
		// evaluated first.
		{"remember my password hint", "memory"},
	}

	for _, tt := range tests {
		if got := TopicLabel(tt.text); got != tt.want {
			t.Errorf("TopicLabel(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestPushTopicDedup(t *testing.T) {
	p := New("u1")

	p.PushTopic("devops")
	p.PushTopic("general")
	p.PushTopic("devops")

	want := []string{"devops", "general"}
	if !reflect.DeepEqual(p.Dynamic.RecentTopics, want) {
		t.Fatalf("RecentTopics = %v, want %v", p.Dynamic.RecentTopics, want)
	}

	count := 0
	for _, topic := range p.Dynamic.RecentTopics {
		if topic == "devops" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("devops occurs %d times, want 1", count)
	}
}

func TestPushTopicCap(t *testing.T) {
	p := New("u1")
	labels := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	for _, l := range labels {
		p.PushTopic(l)
	}

	if len(p.Dynamic.RecentTopics) != maxRecentTopics {
		t.Fatalf("len = %d, want %d", len(p.Dynamic.RecentTopics), maxRecentTopics)
	}
	if p.Dynamic.RecentTopics[0] != "l" {
		t.Fatalf("front = %q, want most recent label", p.Dynamic.RecentTopics[0])
	}
}

func TestUpdateStableTone(t *testing.T) {
	p := New("u1")
	if p.Stable.Tone != ToneNeutral {
		t.Fatalf("default tone = %q, want %q", p.Stable.Tone, ToneNeutral)
	}

	p.UpdateStable("please be concise from now on")
	if p.Stable.Tone != ToneConcise {
		t.Fatalf("tone = %q, want %q", p.Stable.Tone, ToneConcise)
	}

	p.UpdateStable("actually, walk me through it")
	if p.Stable.Tone != ToneDetailed {
		t.Fatalf("tone = %q, want %q (last writer wins)", p.Stable.Tone, ToneDetailed)
	}
}

func TestUpdateStableToneConciseWinsOverDetailed(t *testing.T) {
	p := New("u1")
	// Both signal sets present; concise is checked first.
	p.UpdateStable("be concise but also walk me through it")
	if p.Stable.Tone != ToneConcise {
		t.Fatalf("tone = %q, want %q", p.Stable.Tone, ToneConcise)
	}
}

func TestUpdateStableInterests(t *testing.T) {
	p := New("u1")

	p.UpdateStable("I like hiking in the Lake District. I like cheese.")
	want := []string{"hiking in the Lake District"}
	if !reflect.DeepEqual(p.Stable.Interests, want) {
		t.Fatalf("Interests = %v, want first occurrence only %v", p.Stable.Interests, want)
	}

	// Duplicate, different case: not appended again.
	p.UpdateStable("i like HIKING in the lake district.")
	if len(p.Stable.Interests) != 1 {
		t.Fatalf("Interests = %v, want no duplicate", p.Stable.Interests)
	}
}

func TestUpdateStableInterestsMultibyteText(t *testing.T) {
	// Case mapping can change byte lengths (Ⱥ is 2 bytes, its lowercase
	// ⱥ is 3; İ lowers to a shorter form), so extraction must never mix
	// offsets between the lowered and original text.
	tests := []struct {
		text string
		want string
	}{
		{strings.Repeat("Ⱥ", 20) + "I like cheese.", "cheese"},
		{strings.Repeat("İ", 6) + "I like cheese.", "cheese"},
		{"İ think I like jazz.", "jazz"},
	}

	for _, tt := range tests {
		p := New("u1")
		p.UpdateStable(tt.text)
		if len(p.Stable.Interests) != 1 || p.Stable.Interests[0] != tt.want {
			t.Errorf("UpdateStable(%q): Interests = %v, want [%q]", tt.text, p.Stable.Interests, tt.want)
		}
		if !utf8.ValidString(strings.Join(p.Stable.Interests, "")) {
			t.Errorf("UpdateStable(%q): extracted invalid UTF-8", tt.text)
		}
	}
}

func TestUpdateStableDislikes(t *testing.T) {
	p := New("u1")

	p.UpdateStable("I hate waiting in queues. So slow!")
	if len(p.Stable.Dislikes) != 1 || p.Stable.Dislikes[0] != "waiting in queues" {
		t.Fatalf("Dislikes = %v", p.Stable.Dislikes)
	}

	p.UpdateStable("I don't like cold coffee.")
	if len(p.Stable.Dislikes) != 2 {
		t.Fatalf("Dislikes = %v, want second entry appended", p.Stable.Dislikes)
	}
}

func TestUpdateDynamicRefreshesTimestamp(t *testing.T) {
	p := New("u1")
	before := p.Dynamic.LastUpdated

	p.UpdateDynamic("tell me about docker networking")

	if p.Dynamic.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated went backwards")
	}
	if p.Dynamic.RecentTopics[0] != "devops" {
		t.Fatalf("RecentTopics[0] = %q, want devops", p.Dynamic.RecentTopics[0])
	}
}
