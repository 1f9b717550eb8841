// Package assistant holds the conversational state machine and the session
// orchestrator that turns recognized utterances into spoken replies.
package assistant

import (
	"strings"
	"sync"
	"time"
)

// State gates utterances on the wake word and tracks conversation mode.
// Conversation mode lets follow-up commands skip the wake word until the
// inactivity window elapses.
type State struct {
	mu               sync.Mutex
	wakeWord         string
	window           time.Duration
	conversationMode bool
	lastCommand      time.Time
	lastSuggestion   time.Time
	now              func() time.Time
}

func NewState(wakeWord string, window time.Duration) *State {
	return &State{
		wakeWord:       strings.ToLower(strings.TrimSpace(wakeWord)),
		window:         window,
		lastSuggestion: time.Now(),
		now:            time.Now,
	}
}

// SetClock overrides the time source. Intended for tests.
func (s *State) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// Gate decides whether an utterance is a command. It returns the normalized
// command with the wake word stripped, or ok=false when the utterance should
// be ignored. Every accepted utterance refreshes the inactivity window.
func (s *State) Gate(utterance string) (command string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.conversationMode && now.Sub(s.lastCommand) > s.window {
		s.conversationMode = false
	}

	text := strings.ToLower(strings.TrimSpace(utterance))
	if text == "" {
		return "", false
	}

	if strings.Contains(text, s.wakeWord) {
		s.lastCommand = now
		cmd := strings.ReplaceAll(text, s.wakeWord, "")
		return strings.Join(strings.Fields(cmd), " "), true
	}
	if s.conversationMode {
		s.lastCommand = now
		return text, true
	}
	return "", false
}

// SetConversationMode toggles wake-word-free follow-ups. Turning it on
// starts a fresh inactivity window.
func (s *State) SetConversationMode(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversationMode = on
	if on {
		s.lastCommand = s.now()
	}
}

func (s *State) ConversationMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conversationMode && s.now().Sub(s.lastCommand) > s.window {
		s.conversationMode = false
	}
	return s.conversationMode
}

// WakeWord returns the configured wake word.
func (s *State) WakeWord() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wakeWord
}

// SetWakeWord changes the wake word at runtime.
func (s *State) SetWakeWord(word string) bool {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return false
	}
	s.mu.Lock()
	s.wakeWord = word
	s.mu.Unlock()
	return true
}

// DueForSuggestion reports whether the proactive-suggestion interval has
// elapsed, and marks the suggestion time when it has.
func (s *State) DueForSuggestion(interval time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if now.Sub(s.lastSuggestion) < interval {
		return false
	}
	s.lastSuggestion = now
	return true
}
