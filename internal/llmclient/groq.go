package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultGroqURL = "https://api.groq.com/openai/v1/chat/completions"

// Groq calls an OpenAI-compatible chat completions endpoint.
// See: https://console.groq.com/docs/api-reference
type Groq struct {
	http    *http.Client
	apiKey  string
	baseURL string
}

func NewGroq(cfg Config) *Groq {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultGroqURL
	}
	return &Groq{http: httpClient(cfg), apiKey: cfg.APIKey, baseURL: base}
}

type groqChatReq struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Primary sends a system message followed by the user message.
func (g *Groq) Primary() Invoker {
	return invokerFunc(func(ctx context.Context, model, system, user string) (any, error) {
		return g.chat(ctx, model, []groqMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		})
	})
}

// Alternate sends a single user message carrying the inline prompt.
func (g *Groq) Alternate() Invoker {
	return invokerFunc(func(ctx context.Context, model, system, user string) (any, error) {
		return g.chat(ctx, model, []groqMessage{{Role: "user", Content: InlinePrompt(system, user)}})
	})
}

func (g *Groq) chat(ctx context.Context, model string, msgs []groqMessage) (any, error) {
	b, err := json.Marshal(groqChatReq{Model: model, Messages: msgs})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("groq: unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("groq: decode response: %w", err)
	}
	return out, nil
}
