package voice

import (
	"context"
	"sync/atomic"
)

// FailoverSpeaker prefers the primary speaker and switches to the fallback
// when the primary fails. Once the fallback succeeds it stays active until
// it fails in turn; then the primary is retried.
type FailoverSpeaker struct {
	primary        Speaker
	fallback       Speaker
	fallbackActive atomic.Bool
	onFallback     func(err error)
}

func NewFailoverSpeaker(primary, fallback Speaker) *FailoverSpeaker {
	return &FailoverSpeaker{primary: primary, fallback: fallback}
}

// SetFallbackHook observes primary failures that triggered a switch.
func (s *FailoverSpeaker) SetFallbackHook(hook func(err error)) {
	s.onFallback = hook
}

func (s *FailoverSpeaker) Speak(ctx context.Context, text string, flush bool) error {
	if s.fallbackActive.Load() {
		if err := s.fallback.Speak(ctx, text, flush); err == nil {
			return nil
		}
		s.fallbackActive.Store(false)
		return s.primary.Speak(ctx, text, flush)
	}

	err := s.primary.Speak(ctx, text, flush)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}
	if s.onFallback != nil {
		s.onFallback(err)
	}
	if fbErr := s.fallback.Speak(ctx, text, flush); fbErr != nil {
		return err
	}
	s.fallbackActive.Store(true)
	return nil
}

func (s *FailoverSpeaker) Close() error {
	perr := s.primary.Close()
	ferr := s.fallback.Close()
	if perr != nil {
		return perr
	}
	return ferr
}
