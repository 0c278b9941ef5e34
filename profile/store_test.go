package profile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOrCreateFirstRun(t *testing.T) {
	dir := t.TempDir()
	path := Path(dir, "u1")

	p, err := LoadOrCreate(path, "u1")
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if p.UserID != "u1" {
		t.Fatalf("UserID = %q", p.UserID)
	}
	if p.Stable.Tone != ToneNeutral {
		t.Fatalf("Tone = %q, want default", p.Stable.Tone)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("defaults were not persisted: %v", err)
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "digital_self_u2.json")

	p := New("u2")
	p.Stable.Tone = ToneConcise
	p.Stable.Interests = append(p.Stable.Interests, "sailing")
	p.PushTopic("devops")

	if err := Save(path, p); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := LoadOrCreate(path, "u2")
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if got.Stable.Tone != ToneConcise {
		t.Fatalf("Tone = %q, want %q", got.Stable.Tone, ToneConcise)
	}
	if len(got.Stable.Interests) != 1 || got.Stable.Interests[0] != "sailing" {
		t.Fatalf("Interests = %v", got.Stable.Interests)
	}
	if len(got.Dynamic.RecentTopics) != 1 || got.Dynamic.RecentTopics[0] != "devops" {
		t.Fatalf("RecentTopics = %v", got.Dynamic.RecentTopics)
	}
}
