package policy

import (
	"strings"
	"testing"
)

func TestRedactPII(t *testing.T) {
	input := "Email me at sam@example.com or +1 (555) 123-9876 and use 4242 4242 4242 4242."
	out, changed := RedactPII(input)
	if !changed {
		t.Fatalf("changed = false, want true")
	}
	for _, marker := range []string{"[REDACTED_EMAIL]", "[REDACTED_PHONE]", "[REDACTED_CARD]"} {
		if !strings.Contains(out, marker) {
			t.Fatalf("output missing marker %q: %q", marker, out)
		}
	}
}

func TestRedactSpokenKeyAndName(t *testing.T) {
	out, changed := RedactPII("my name is Sam and my key is sk-abc123def456")
	if !changed {
		t.Fatal("changed = false, want true")
	}
	if strings.Contains(out, "Sam") || strings.Contains(out, "sk-abc123def456") {
		t.Fatalf("output leaked personal data: %q", out)
	}
	if !strings.Contains(out, "[REDACTED_NAME]") || !strings.Contains(out, "[REDACTED_KEY]") {
		t.Fatalf("output missing markers: %q", out)
	}
}

func TestRedactCleanTextUnchanged(t *testing.T) {
	in := "what is the weather in turin"
	out, changed := RedactPII(in)
	if changed || out != in {
		t.Fatalf("RedactPII(%q) = %q, %v", in, out, changed)
	}
}
