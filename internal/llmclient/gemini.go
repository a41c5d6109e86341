package llmclient

import (
	"context"
	"errors"

	genai "google.golang.org/genai"
)

// Gemini wraps the official genai client.
type Gemini struct {
	cli *genai.Client
}

func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient(cfg),
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	cli, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &Gemini{cli: cli}, nil
}

// Primary sends the directive as a system instruction and the user block as content.
func (g *Gemini) Primary() Invoker {
	return invokerFunc(func(ctx context.Context, model, system, user string) (any, error) {
		cfg := &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: system}}},
		}
		return g.generate(ctx, model, user, cfg)
	})
}

// Alternate sends one inline prompt and no config.
func (g *Gemini) Alternate() Invoker {
	return invokerFunc(func(ctx context.Context, model, system, user string) (any, error) {
		return g.generate(ctx, model, InlinePrompt(system, user), nil)
	})
}

func (g *Gemini) generate(ctx context.Context, model, text string, cfg *genai.GenerateContentConfig) (any, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, model,
		[]*genai.Content{{Role: genai.RoleUser, Parts: []*genai.Part{{Text: text}}}},
		cfg,
	)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("gemini: empty response")
	}
	return resp, nil
}
