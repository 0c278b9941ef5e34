// Package policy classifies and redacts privacy-sensitive text.
//
// Classification is pattern-based: email addresses, password-disclosure
// phrases, card-like digit runs, phone-like digit runs, and configured
// keywords. Redaction masks the pattern matches with fixed placeholder
// tokens; keyword hits are flagged but never rewritten.
package policy

import (
	"regexp"
	"strings"
)

var (
	emailPattern    = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	passwordPattern = regexp.MustCompile(`(?i)\b(my password is|password:|passcode:)`)
	cardPattern     = regexp.MustCompile(`\b(?:\d[ -]*?){13,16}\b`)
	// The phone pattern trades precision for recall: a number-heavy span
	// that is not a phone number can still match. Over-redacting such
	// spans is the accepted cost.
	phonePattern = regexp.MustCompile(`\b(?:\+?\d{1,3}[\s-]?)?(?:\(?\d{2,4}\)?[\s-]?)?\d{3,4}[\s-]?\d{3,4}\b`)
)

// Placeholder tokens substituted for pattern matches.
const (
	EmailPlaceholder = "[REDACTED_EMAIL]"
	CardPlaceholder  = "[REDACTED_CARD]"
	PhonePlaceholder = "[REDACTED_PHONE]"
)

// Classify reports whether text contains sensitive content: an email
// address, a password-disclosure phrase, a card-like or phone-like digit
// run, or any of the extra keywords (case-insensitive substring match).
func Classify(text string, extraKeywords []string) bool {
	if emailPattern.MatchString(text) {
		return true
	}
	if passwordPattern.MatchString(text) {
		return true
	}
	if cardPattern.MatchString(text) {
		return true
	}
	if phonePattern.MatchString(text) {
		return true
	}
	low := strings.ToLower(text)
	for _, kw := range extraKeywords {
		if kw == "" {
			continue
		}
		if strings.Contains(low, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// Redact masks email, card and phone matches with placeholder tokens.
// Card redaction runs before phone redaction so card numbers are not
// partially consumed by the phone pattern.
func Redact(text string) string {
	out := emailPattern.ReplaceAllString(text, EmailPlaceholder)
	out = cardPattern.ReplaceAllString(out, CardPlaceholder)
	out = phonePattern.ReplaceAllString(out, PhonePlaceholder)
	return out
}
