// Package voice defines the speech-engine boundary. Recognition and
// synthesis run in external engines; the assistant only consumes final
// utterances and hands back reply text.
package voice

import "context"

// Utterance is one recognition result. Only final hypotheses are dispatched
// as commands.
type Utterance struct {
	Text       string
	Final      bool
	Confidence float64
	TSMs       int64
}

// Recognizer produces utterances on its own goroutine until closed.
type Recognizer interface {
	Utterances() <-chan Utterance
	Close() error
}

// Speaker voices assistant replies. flush interrupts the current speech;
// the orchestrator always flushes.
type Speaker interface {
	Speak(ctx context.Context, text string, flush bool) error
	Close() error
}
