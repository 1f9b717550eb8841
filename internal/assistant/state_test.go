package assistant

import (
	"testing"
	"time"
)

func TestGateRequiresWakeWord(t *testing.T) {
	s := NewState("assistant", 10*time.Second)
	if _, ok := s.Gate("what is the time"); ok {
		t.Fatal("Gate() accepted an utterance without the wake word")
	}
}

func TestGateStripsWakeWord(t *testing.T) {
	s := NewState("assistant", 10*time.Second)
	cmd, ok := s.Gate("Assistant what is the time")
	if !ok {
		t.Fatal("Gate() rejected a wake-word utterance")
	}
	if cmd != "what is the time" {
		t.Fatalf("Gate() = %q", cmd)
	}
}

func TestGateWakeWordAlone(t *testing.T) {
	s := NewState("assistant", 10*time.Second)
	cmd, ok := s.Gate("assistant")
	if !ok || cmd != "" {
		t.Fatalf("Gate() = %q, %v, want empty accepted command", cmd, ok)
	}
}

func TestConversationModeSkipsWakeWord(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s := NewState("assistant", 10*time.Second)
	s.SetClock(func() time.Time { return now })

	s.SetConversationMode(true)
	cmd, ok := s.Gate("what is the time")
	if !ok || cmd != "what is the time" {
		t.Fatalf("Gate() = %q, %v", cmd, ok)
	}
}

func TestConversationModeExpires(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s := NewState("assistant", 10*time.Second)
	s.SetClock(func() time.Time { return now })

	s.SetConversationMode(true)
	now = now.Add(11 * time.Second)
	if _, ok := s.Gate("what is the time"); ok {
		t.Fatal("Gate() accepted a command after the window expired")
	}
	if s.ConversationMode() {
		t.Fatal("conversation mode should have auto-disabled")
	}
}

func TestConversationModeRefreshedByCommands(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s := NewState("assistant", 10*time.Second)
	s.SetClock(func() time.Time { return now })

	s.SetConversationMode(true)
	for i := 0; i < 3; i++ {
		now = now.Add(8 * time.Second)
		if _, ok := s.Gate("next step"); !ok {
			t.Fatalf("Gate() rejected command %d inside the window", i)
		}
	}
}

func TestSetWakeWord(t *testing.T) {
	s := NewState("assistant", 10*time.Second)
	if !s.SetWakeWord("Kestrel") {
		t.Fatal("SetWakeWord() rejected a valid word")
	}
	if s.WakeWord() != "kestrel" {
		t.Fatalf("WakeWord() = %q", s.WakeWord())
	}
	if _, ok := s.Gate("kestrel hello"); !ok {
		t.Fatal("Gate() should accept the new wake word")
	}
	if _, ok := s.Gate("assistant hello"); ok {
		t.Fatal("Gate() should reject the old wake word")
	}
	if s.SetWakeWord("  ") {
		t.Fatal("SetWakeWord() accepted a blank word")
	}
}

func TestDueForSuggestion(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s := NewState("assistant", 10*time.Second)
	s.SetClock(func() time.Time { return now })

	s.DueForSuggestion(30 * time.Minute) // resync to the fake clock
	if s.DueForSuggestion(30 * time.Minute) {
		t.Fatal("DueForSuggestion() fired before the interval elapsed")
	}
	now = now.Add(31 * time.Minute)
	if !s.DueForSuggestion(30 * time.Minute) {
		t.Fatal("DueForSuggestion() should fire after the interval")
	}
	if s.DueForSuggestion(30 * time.Minute) {
		t.Fatal("DueForSuggestion() should mark the suggestion time")
	}
}
