package voice

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// CommandSpeaker voices replies through an external synthesis command such
// as espeak or macOS say. The reply text is passed as the final argument.
type CommandSpeaker struct {
	path string
	args []string
	run  func(ctx context.Context, name string, args ...string) error

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewCommandSpeaker parses a command line like "espeak -s 150". An empty
// command is rejected so callers fall back to another speaker explicitly.
func NewCommandSpeaker(command string) (*CommandSpeaker, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, errors.New("empty speech command")
	}
	return &CommandSpeaker{
		path: fields[0],
		args: fields[1:],
		run: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
	}, nil
}

// SetExec overrides command execution. Intended for tests.
func (s *CommandSpeaker) SetExec(run func(ctx context.Context, name string, args ...string) error) {
	s.run = run
}

func (s *CommandSpeaker) Speak(ctx context.Context, text string, flush bool) error {
	s.mu.Lock()
	if flush && s.cancel != nil {
		s.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	args := append(append([]string{}, s.args...), SanitizeSpeech(text))
	return s.run(runCtx, s.path, args...)
}

func (s *CommandSpeaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// LogSpeaker writes replies to the log. It is the terminal fallback when no
// synthesis engine is configured; clients still receive replies over the
// websocket stream.
type LogSpeaker struct {
	log zerolog.Logger
}

func NewLogSpeaker(log zerolog.Logger) *LogSpeaker {
	return &LogSpeaker{log: log}
}

func (s *LogSpeaker) Speak(_ context.Context, text string, flush bool) error {
	s.log.Info().Bool("flush", flush).Str("text", SanitizeSpeech(text)).Msg("speak")
	return nil
}

func (s *LogSpeaker) Close() error { return nil }
