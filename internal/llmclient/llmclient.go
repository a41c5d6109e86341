// Package llmclient adapts generation providers to the two calling
// conventions the annotation service invokes.
package llmclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNotConfigured is returned by New when the selected provider has no API key.
var ErrNotConfigured = errors.New("llmclient: provider not configured")

// Invoker is one calling convention of a provider. The returned value is the
// provider's raw response, left for the caller to normalize.
type Invoker interface {
	Invoke(ctx context.Context, model, system, user string) (any, error)
}

// Middleware decorates an Invoker with cross-cutting behavior.
type Middleware func(Invoker) Invoker

// Wrap applies middlewares in left-to-right order: Wrap(inner, A, B) => A(B(inner)).
func Wrap(inner Invoker, mws ...Middleware) Invoker {
	if inner == nil {
		return nil
	}
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// Pair holds the primary convention and the compatibility fallback.
type Pair struct {
	Primary   Invoker
	Alternate Invoker
}

// Logged returns a copy of p whose conventions log through logger.
func (p Pair) Logged(logger *zap.Logger) Pair {
	return Pair{
		Primary:   Wrap(p.Primary, WithLogging(logger, "primary")),
		Alternate: Wrap(p.Alternate, WithLogging(logger, "alternate")),
	}
}

const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
)

type Config struct {
	Provider string
	APIKey   string
	// BaseURL overrides the provider endpoint. For Groq it is the full chat
	// completions URL; for Gemini it is the API host.
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// New builds the invoker pair for cfg.Provider.
func New(ctx context.Context, cfg Config) (Pair, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Pair{}, ErrNotConfigured
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderGemini:
		g, err := NewGemini(ctx, cfg)
		if err != nil {
			return Pair{}, err
		}
		return Pair{Primary: g.Primary(), Alternate: g.Alternate()}, nil
	case ProviderGroq:
		g := NewGroq(cfg)
		return Pair{Primary: g.Primary(), Alternate: g.Alternate()}, nil
	default:
		return Pair{}, fmt.Errorf("llmclient: unknown provider %q", cfg.Provider)
	}
}

// InlinePrompt joins the system directive and user block into one prompt for
// conventions that cannot carry a separate system instruction.
func InlinePrompt(system, user string) string {
	return strings.TrimRight(system, "\n") + "\n\n" + user
}

func httpClient(cfg Config) *http.Client {
	if cfg.HTTPClient != nil {
		return cfg.HTTPClient
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

type invokerFunc func(ctx context.Context, model, system, user string) (any, error)

func (f invokerFunc) Invoke(ctx context.Context, model, system, user string) (any, error) {
	return f(ctx, model, system, user)
}
