package brain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	defaultOpenAIURL = "https://api.openai.com/v1/chat/completions"
	groqURL          = "https://api.groq.com/openai/v1/chat/completions"
	defaultGroqModel = "llama-3.1-70b-versatile"
)

// OpenAIAdapter forwards requests to an OpenAI-compatible chat completions
// endpoint. The API key can be replaced at runtime.
type OpenAIAdapter struct {
	name   string
	url    string
	model  string
	client *http.Client

	mu     sync.RWMutex
	apiKey string
}

func NewOpenAIAdapter(url, apiKey, model string, timeout time.Duration) *OpenAIAdapter {
	if strings.TrimSpace(url) == "" {
		url = defaultOpenAIURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIAdapter{
		name:   "openai",
		url:    strings.TrimSpace(url),
		apiKey: strings.TrimSpace(apiKey),
		model:  model,
		client: &http.Client{Timeout: timeout},
	}
}

// NewGroqAdapter targets Groq's OpenAI-compatible chat endpoint.
func NewGroqAdapter(apiKey, model string, timeout time.Duration) *OpenAIAdapter {
	if strings.TrimSpace(model) == "" {
		model = defaultGroqModel
	}
	a := NewOpenAIAdapter(groqURL, apiKey, model, timeout)
	a.name = "groq"
	return a
}

func (a *OpenAIAdapter) Name() string { return a.name }

// SetAPIKey replaces the key used for subsequent requests.
func (a *OpenAIAdapter) SetAPIKey(key string) {
	a.mu.Lock()
	a.apiKey = strings.TrimSpace(key)
	a.mu.Unlock()
}

func (a *OpenAIAdapter) HasKey() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.apiKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (a *OpenAIAdapter) Reply(ctx context.Context, req Request) (Response, error) {
	a.mu.RLock()
	key := a.apiKey
	a.mu.RUnlock()
	if key == "" {
		return Response{}, fmt.Errorf("%s: no API key configured", a.name)
	}

	system := "You are a helpful voice assistant. Keep replies short enough to speak aloud."
	if strings.TrimSpace(req.Context) != "" {
		system += "\n\nRecent conversation:\n" + req.Context
	}

	payload, err := json.Marshal(chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: req.Input},
		},
	})
	if err != nil {
		return Response{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+key)

	// One attempt per turn. A failed call surfaces as a spoken apology and
	// the user simply repeats the command.
	res, err := a.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return Response{}, fmt.Errorf("%s http status %d: %s", a.name, res.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return Response{}, fmt.Errorf("%s api error: %s", a.name, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return Response{}, fmt.Errorf("%s response had no choices", a.name)
	}

	return Response{Text: strings.TrimSpace(parsed.Choices[0].Message.Content)}, nil
}
