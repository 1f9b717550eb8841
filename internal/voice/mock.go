package voice

import (
	"context"
	"sync"
	"time"
)

// MockRecognizer lets tests and text clients inject utterances directly.
type MockRecognizer struct {
	mu     sync.Mutex
	events chan Utterance
	closed bool
}

func NewMockRecognizer() *MockRecognizer {
	return &MockRecognizer{events: make(chan Utterance, 64)}
}

// Emit pushes an utterance as if the speech engine produced it.
func (r *MockRecognizer) Emit(text string, final bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.events <- Utterance{Text: text, Final: final, Confidence: 0.9, TSMs: time.Now().UnixMilli()}
}

func (r *MockRecognizer) Utterances() <-chan Utterance { return r.events }

func (r *MockRecognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	close(r.events)
	return nil
}

// MockSpeaker records what would have been spoken.
type MockSpeaker struct {
	mu     sync.Mutex
	spoken []string
}

func NewMockSpeaker() *MockSpeaker { return &MockSpeaker{} }

func (s *MockSpeaker) Speak(_ context.Context, text string, _ bool) error {
	s.mu.Lock()
	s.spoken = append(s.spoken, SanitizeSpeech(text))
	s.mu.Unlock()
	return nil
}

// Spoken returns a copy of everything spoken so far.
func (s *MockSpeaker) Spoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.spoken))
	copy(out, s.spoken)
	return out
}

func (s *MockSpeaker) Close() error { return nil }
