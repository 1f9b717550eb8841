package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a simple in-process store for local/dev use and tests.
type InMemoryStore struct {
	mu          sync.RWMutex
	notes       []Note
	exchanges   []Exchange
	preferences map[string]string
	now         func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		preferences: make(map[string]string),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the timestamp source. Intended for tests.
func (s *InMemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *InMemoryStore) SaveNote(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, Note{
		ID:        uuid.NewString(),
		Text:      text,
		CreatedAt: s.now(),
	})
	if len(s.notes) > MaxNotes {
		s.notes = s.notes[len(s.notes)-MaxNotes:]
	}
	return nil
}

func (s *InMemoryStore) RecentNotes(_ context.Context, limit int) ([]Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.notes) == 0 {
		return nil, nil
	}
	if limit <= 0 || limit > len(s.notes) {
		limit = len(s.notes)
	}
	out := make([]Note, limit)
	copy(out, s.notes[len(s.notes)-limit:])
	return out, nil
}

func (s *InMemoryStore) SearchNotes(_ context.Context, query string) ([]Note, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Note
	for _, n := range s.notes {
		if strings.Contains(strings.ToLower(n.Text), q) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *InMemoryStore) SaveExchange(_ context.Context, userInput, response string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exchanges = append(s.exchanges, Exchange{
		ID:        uuid.NewString(),
		UserInput: userInput,
		Response:  response,
		CreatedAt: s.now(),
	})
	if len(s.exchanges) > MaxExchanges {
		s.exchanges = s.exchanges[len(s.exchanges)-MaxExchanges:]
	}
	return nil
}

func (s *InMemoryStore) RecentExchanges(_ context.Context, limit int) ([]Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.exchanges) == 0 {
		return nil, nil
	}
	if limit <= 0 || limit > len(s.exchanges) {
		limit = len(s.exchanges)
	}
	out := make([]Exchange, limit)
	copy(out, s.exchanges[len(s.exchanges)-limit:])
	return out, nil
}

func (s *InMemoryStore) SetPreference(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preferences[key] = value
	return nil
}

func (s *InMemoryStore) Preference(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.preferences[key]
	return v, ok, nil
}

func (s *InMemoryStore) Counts(_ context.Context) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes), len(s.exchanges), nil
}

func (s *InMemoryStore) ClearOlderThan(_ context.Context, cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.notes[:0]
	for _, n := range s.notes {
		if !n.CreatedAt.Before(cutoff) {
			kept = append(kept, n)
		}
	}
	s.notes = kept

	keptEx := s.exchanges[:0]
	for _, ex := range s.exchanges {
		if !ex.CreatedAt.Before(cutoff) {
			keptEx = append(keptEx, ex)
		}
	}
	s.exchanges = keptEx
	return nil
}

func (s *InMemoryStore) Close() error { return nil }
