package policy

import (
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		keywords []string
		want     bool
	}{
		{"plain text", "I like hiking in Scotland", nil, false},
		{"email", "reach me at sam@example.com", nil, true},
		{"password phrase", "my password is hunter2", nil, true},
		{"password colon", "password:hunter2", nil, true},
		{"card number", "pay with 4242 4242 4242 4242 please", nil, true},
		{"phone number", "+44 7700 900123", nil, true},
		{"keyword hit", "my bank statement arrived", []string{"bank"}, true},
		{"keyword case-insensitive", "My BANK called", []string{"bank"}, true},
		{"keyword miss", "my bark is worse than my bite", []string{"bank"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.text, tt.keywords); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestRedactEmail(t *testing.T) {
	out := Redact("contact alice@example.org today")

	if strings.Contains(out, "alice@example.org") {
		t.Fatalf("email survived redaction: %q", out)
	}
	if n := strings.Count(out, EmailPlaceholder); n != 1 {
		t.Fatalf("placeholder count = %d, want 1 (%q)", n, out)
	}
	if emailPattern.MatchString(out) {
		t.Fatalf("output still matches email pattern: %q", out)
	}
}

func TestRedactAllPatterns(t *testing.T) {
	in := "Email me at sam@example.com or +1 (555) 123-9876 and use 4242 4242 4242 4242."
	out := Redact(in)

	for _, marker := range []string{EmailPlaceholder, PhonePlaceholder, CardPlaceholder} {
		if !strings.Contains(out, marker) {
			t.Fatalf("output missing marker %q: %q", marker, out)
		}
	}
}

func TestRedactLeavesKeywordsAlone(t *testing.T) {
	in := "tell me about my bank"
	if out := Redact(in); out != in {
		t.Fatalf("Redact(%q) = %q, want input unchanged", in, out)
	}
}
