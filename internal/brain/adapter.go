package brain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Request is the normalized prompt sent to the language model.
type Request struct {
	Input string `json:"input"`
	// Context holds recent conversation turns rendered as User/Assistant lines.
	Context string `json:"context,omitempty"`
}

// Response is the model's final reply text.
type Response struct {
	Text string `json:"text"`
}

// Adapter bridges the assistant runtime with a language model backend.
type Adapter interface {
	Reply(ctx context.Context, req Request) (Response, error)
	Name() string
}

// Config controls adapter construction.
type Config struct {
	Mode        string
	HTTPURL     string
	APIKey      string
	Model       string
	GroqAPIKey  string
	OllamaURL   string
	OllamaModel string
	Timeout     time.Duration
}

func NewAdapter(cfg Config) (Adapter, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		return newAutoAdapter(cfg), nil
	case "openai":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, errors.New("brain API key is required for openai mode")
		}
		return NewOpenAIAdapter(cfg.HTTPURL, cfg.APIKey, cfg.Model, cfg.Timeout), nil
	case "groq":
		if strings.TrimSpace(cfg.GroqAPIKey) == "" {
			return nil, errors.New("groq API key is required for groq mode")
		}
		return NewGroqAdapter(cfg.GroqAPIKey, cfg.Model, cfg.Timeout), nil
	case "ollama":
		if strings.TrimSpace(cfg.OllamaURL) == "" {
			return nil, errors.New("ollama URL is required for ollama mode")
		}
		return NewOllamaAdapter(cfg.OllamaURL, cfg.OllamaModel, cfg.Timeout), nil
	case "mock":
		return NewMockAdapter(), nil
	default:
		return nil, fmt.Errorf("unsupported brain mode %q", cfg.Mode)
	}
}

// newAutoAdapter prefers the hosted API when a key is present and keeps the
// local Ollama daemon as a fallback, so losing connectivity degrades instead
// of failing the whole turn.
func newAutoAdapter(cfg Config) Adapter {
	var secondary Adapter = NewMockAdapter()
	if strings.TrimSpace(cfg.OllamaURL) != "" {
		secondary = NewFallbackAdapter(NewOllamaAdapter(cfg.OllamaURL, cfg.OllamaModel, cfg.Timeout), NewMockAdapter())
	}

	if strings.TrimSpace(cfg.APIKey) != "" {
		return NewFallbackAdapter(NewOpenAIAdapter(cfg.HTTPURL, cfg.APIKey, cfg.Model, cfg.Timeout), secondary)
	}
	if strings.TrimSpace(cfg.GroqAPIKey) != "" {
		return NewFallbackAdapter(NewGroqAdapter(cfg.GroqAPIKey, cfg.Model, cfg.Timeout), secondary)
	}
	return secondary
}
