package intent

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func echoHandler(name string) Handler {
	return func(ctx context.Context, req Request) (Response, error) {
		return Response{Speech: name}, nil
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	c := NewClassifier([]Rule{
		{Name: "news", Match: Contains("news"), Handle: echoHandler("news")},
		{Name: "news_search", Match: ContainsAll("news", "search"), Handle: echoHandler("news_search")},
	}, nil)

	rule, ok := c.Classify("search the news for rain")
	if !ok {
		t.Fatal("Classify() found no match")
	}
	if rule.Name != "news" {
		t.Fatalf("Classify() = %q, want the earlier rule", rule.Name)
	}
}

func TestDispatchFallback(t *testing.T) {
	fallbackCalled := false
	c := NewClassifier([]Rule{
		{Name: "time", Match: Contains("time"), Handle: echoHandler("time")},
	}, func(ctx context.Context, req Request) (Response, error) {
		fallbackCalled = true
		return Response{Speech: "chat: " + req.Command}, nil
	})

	resp, name, err := c.Dispatch(context.Background(), Request{Command: "tell me a story"})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if !fallbackCalled || name != FallbackName {
		t.Fatalf("Dispatch() name = %q, fallback called = %v", name, fallbackCalled)
	}
	if resp.Speech != "chat: tell me a story" {
		t.Fatalf("Speech = %q", resp.Speech)
	}
}

func TestDispatchHandlerError(t *testing.T) {
	c := NewClassifier([]Rule{
		{Name: "read_notes", Match: Contains("notes"), Handle: func(ctx context.Context, req Request) (Response, error) {
			return Response{}, errors.New("store down")
		}},
	}, nil)

	resp, name, err := c.Dispatch(context.Background(), Request{Command: "read my notes"})
	if err == nil {
		t.Fatal("Dispatch() expected handler error")
	}
	if name != "read_notes" {
		t.Fatalf("name = %q", name)
	}
	if !strings.Contains(resp.Speech, "read notes") {
		t.Fatalf("Speech = %q, want spoken failure phrase", resp.Speech)
	}
}

func TestDispatchHandlerPanic(t *testing.T) {
	c := NewClassifier([]Rule{
		{Name: "boom", Match: Contains("boom"), Handle: func(ctx context.Context, req Request) (Response, error) {
			panic("kaboom")
		}},
	}, nil)

	resp, _, err := c.Dispatch(context.Background(), Request{Command: "boom"})
	if err == nil {
		t.Fatal("Dispatch() expected error from panic")
	}
	if resp.Speech == "" {
		t.Fatal("Dispatch() must still produce speech after a panic")
	}
}

func TestDispatchEmptySpeech(t *testing.T) {
	c := NewClassifier([]Rule{
		{Name: "quiet", Match: Contains("quiet"), Handle: func(ctx context.Context, req Request) (Response, error) {
			return Response{}, nil
		}},
	}, nil)

	resp, _, err := c.Dispatch(context.Background(), Request{Command: "be quiet"})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if resp.Speech != "Done." {
		t.Fatalf("Speech = %q, want Done.", resp.Speech)
	}
}

func TestContainsAll(t *testing.T) {
	m := ContainsAll("whatsapp", "send")
	if !m("send a whatsapp to ana") {
		t.Fatal("ContainsAll should match")
	}
	if m("open whatsapp") {
		t.Fatal("ContainsAll should require every substring")
	}
}
