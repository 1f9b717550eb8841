// Package intent routes normalized command text to handlers by first match
// over an ordered rule list. Rule order is the priority contract: a broad
// rule placed early will shadow narrower rules after it, and reordering
// changes behavior.
package intent

import (
	"context"
	"fmt"
	"strings"
)

// FallbackName labels commands no rule matched.
const FallbackName = "chat"

// Request is one command to dispatch.
type Request struct {
	Command string
	Context string
	Emotion string
}

// Response carries the text spoken back to the user.
type Response struct {
	Speech string
}

type Handler func(ctx context.Context, req Request) (Response, error)

type Rule struct {
	Name   string
	Match  func(command string) bool
	Handle Handler
}

// Contains matches when the command contains any of the substrings.
func Contains(subs ...string) func(string) bool {
	return func(command string) bool {
		for _, s := range subs {
			if strings.Contains(command, s) {
				return true
			}
		}
		return false
	}
}

// ContainsAll matches when the command contains every substring.
func ContainsAll(subs ...string) func(string) bool {
	return func(command string) bool {
		for _, s := range subs {
			if !strings.Contains(command, s) {
				return false
			}
		}
		return true
	}
}

// Classifier evaluates rules in registration order.
type Classifier struct {
	rules    []Rule
	fallback Handler
}

func NewClassifier(rules []Rule, fallback Handler) *Classifier {
	return &Classifier{rules: rules, fallback: fallback}
}

// Classify returns the first rule whose predicate matches.
func (c *Classifier) Classify(command string) (Rule, bool) {
	for _, r := range c.rules {
		if r.Match(command) {
			return r, true
		}
	}
	return Rule{}, false
}

// Rules returns the rule names in evaluation order.
func (c *Classifier) Rules() []string {
	names := make([]string, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.Name
	}
	return names
}

// Dispatch runs the matching handler, or the fallback when nothing matches.
// The response is always safe to speak: a handler error or panic becomes a
// spoken failure phrase, with the fault returned alongside for logging.
func (c *Classifier) Dispatch(ctx context.Context, req Request) (resp Response, name string, err error) {
	handle := c.fallback
	name = FallbackName
	if rule, matched := c.Classify(req.Command); matched {
		handle, name = rule.Handle, rule.Name
	}
	if handle == nil {
		return Response{Speech: "Sorry, I can't help with that yet."}, name, fmt.Errorf("no handler for %q", name)
	}

	defer func() {
		if r := recover(); r != nil {
			resp = Response{Speech: "Sorry, something went wrong with that."}
			err = fmt.Errorf("handler %s panicked: %v", name, r)
		}
	}()
	resp, err = handle(ctx, req)
	if err != nil {
		return Response{Speech: spokenError(name)}, name, fmt.Errorf("handler %s: %w", name, err)
	}
	if resp.Speech == "" {
		resp.Speech = "Done."
	}
	return resp, name, nil
}

func spokenError(name string) string {
	return fmt.Sprintf("Sorry, I couldn't complete %s.", strings.ReplaceAll(name, "_", " "))
}
