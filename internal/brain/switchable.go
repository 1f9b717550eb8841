package brain

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Switchable delegates to one of several named adapters and lets the user
// change providers at runtime.
type Switchable struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
	current  string
}

// NewSwitchable builds a switchable brain starting on the named provider.
func NewSwitchable(current string, adapters map[string]Adapter) (*Switchable, error) {
	if len(adapters) == 0 {
		return nil, fmt.Errorf("brain: no adapters")
	}
	if _, ok := adapters[current]; !ok {
		return nil, fmt.Errorf("brain: unknown provider %q", current)
	}
	return &Switchable{adapters: adapters, current: current}, nil
}

// Use switches to the named provider. It reports false when the provider is
// not configured, leaving the current one active.
func (s *Switchable) Use(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.adapters[name]; !ok {
		return false
	}
	s.current = name
	return true
}

// Adapter returns the named adapter when it is configured.
func (s *Switchable) Adapter(name string) (Adapter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.adapters[strings.ToLower(strings.TrimSpace(name))]
	return a, ok
}

// Current returns the active provider name.
func (s *Switchable) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Providers lists the configured provider names in a stable order.
func (s *Switchable) Providers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.adapters))
	for name := range s.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Switchable) Reply(ctx context.Context, req Request) (Response, error) {
	s.mu.RLock()
	adapter := s.adapters[s.current]
	s.mu.RUnlock()
	return adapter.Reply(ctx, req)
}

func (s *Switchable) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return "switchable:" + s.current
}
