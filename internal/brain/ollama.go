package brain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OllamaAdapter talks to a local Ollama daemon via its generate API.
type OllamaAdapter struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewOllamaAdapter(baseURL, model string, timeout time.Duration) *OllamaAdapter {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if strings.TrimSpace(model) == "" {
		model = "llama2"
	}
	return &OllamaAdapter{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (a *OllamaAdapter) Name() string { return "ollama" }

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

func (a *OllamaAdapter) Reply(ctx context.Context, req Request) (Response, error) {
	prompt := req.Input
	if strings.TrimSpace(req.Context) != "" {
		prompt = "Recent conversation:\n" + req.Context + "\n\nUser: " + req.Input
	}

	payload, err := json.Marshal(ollamaRequest{
		Model:  a.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return Response{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	// One attempt per turn, matching the hosted adapters.
	res, err := a.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return Response{}, fmt.Errorf("ollama http status %d: %s", res.StatusCode, string(body))
	}

	var parsed ollamaResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != "" {
		return Response{}, fmt.Errorf("ollama api error: %s", parsed.Error)
	}

	return Response{Text: strings.TrimSpace(parsed.Response)}, nil
}
