// Package policy masks personal data in text that leaves the device.
// Federated learnings carry spoken utterances verbatim inside usage
// patterns and corrections, so anything identifying the speaker is
// replaced with a marker before upload.
package policy

import "regexp"

type redaction struct {
	re     *regexp.Regexp
	marker string
}

// Cards run before phones so a 16-digit number is not half-eaten as a
// phone number. Keys cover spoken "set api key" commands that can end up
// recorded as corrections.
var redactions = []redaction{
	{regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`), "[REDACTED_EMAIL]"},
	{regexp.MustCompile(`\b(?:\d[ -]*?){13,19}\b`), "[REDACTED_CARD]"},
	{regexp.MustCompile(`\+?[0-9][0-9\-() ]{7,}[0-9]`), "[REDACTED_PHONE]"},
	{regexp.MustCompile(`\b(?:sk|gsk)-[A-Za-z0-9_\-]{8,}\b`), "[REDACTED_KEY]"},
	{regexp.MustCompile(`(?i)\b(my name is|call me)\s+[a-z]+`), "${1} [REDACTED_NAME]"},
}

// RedactPII masks personal data patterns, reporting whether anything
// was replaced.
func RedactPII(input string) (redacted string, changed bool) {
	out := input
	for _, r := range redactions {
		next := r.re.ReplaceAllString(out, r.marker)
		changed = changed || next != out
		out = next
	}
	return out, changed
}
