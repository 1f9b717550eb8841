package voice

import (
	"bufio"
	"io"
	"strings"
	"sync"
	"time"
)

// LineRecognizer adapts a line-oriented text stream into final utterances.
// It serves consoles and external speech engines that pipe one transcript
// per line.
type LineRecognizer struct {
	events chan Utterance
	done   chan struct{}
	once   sync.Once
}

func NewLineRecognizer(src io.Reader) *LineRecognizer {
	r := &LineRecognizer{
		events: make(chan Utterance, 8),
		done:   make(chan struct{}),
	}
	go r.scan(src)
	return r
}

func (r *LineRecognizer) scan(src io.Reader) {
	defer close(r.events)
	sc := bufio.NewScanner(src)
	for sc.Scan() {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		select {
		case r.events <- Utterance{Text: text, Final: true, Confidence: 1, TSMs: time.Now().UnixMilli()}:
		case <-r.done:
			return
		}
	}
}

func (r *LineRecognizer) Utterances() <-chan Utterance { return r.events }

// Close stops forwarding. The scan goroutine exits on the next line or when
// the source reaches EOF.
func (r *LineRecognizer) Close() error {
	r.once.Do(func() { close(r.done) })
	return nil
}
