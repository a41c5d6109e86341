package llmclient

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_NoKeyIsNotConfigured(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: ProviderGroq})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "mystery", APIKey: "k"})
	if err == nil || errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected unknown provider error, got %v", err)
	}
}

func TestNew_GroqPair(t *testing.T) {
	p, err := New(context.Background(), Config{Provider: "GROQ", APIKey: "k"})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if p.Primary == nil || p.Alternate == nil {
		t.Fatalf("both conventions should be set: %+v", p)
	}
}

type stubInvoker struct {
	calls []string
	err   error
}

func (s *stubInvoker) Invoke(_ context.Context, model, _, _ string) (any, error) {
	s.calls = append(s.calls, model)
	return "raw", s.err
}

func TestWrap_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next Invoker) Invoker {
			return invokerFunc(func(ctx context.Context, model, system, user string) (any, error) {
				order = append(order, name)
				return next.Invoke(ctx, model, system, user)
			})
		}
	}
	inner := &stubInvoker{}
	if _, err := Wrap(inner, mark("A"), mark("B")).Invoke(context.Background(), "m", "", ""); err != nil {
		t.Fatalf("Invoke error: %v", err)
	}
	if len(order) != 2 || order[0] != "A" || order[1] != "B" || len(inner.calls) != 1 {
		t.Fatalf("order=%v calls=%v", order, inner.calls)
	}
	if Wrap(nil, mark("A")) != nil {
		t.Fatalf("wrapping nil must stay nil")
	}
}

func TestLogged_LogsErrorsPerConvention(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	boom := errors.New("boom")
	p := Pair{Primary: &stubInvoker{err: boom}, Alternate: &stubInvoker{}}.Logged(zap.New(core))

	if _, err := p.Primary.Invoke(context.Background(), "m", "s", "u"); !errors.Is(err, boom) {
		t.Fatalf("error should pass through: %v", err)
	}
	if _, err := p.Alternate.Invoke(context.Background(), "m", "s", "u"); err != nil {
		t.Fatalf("alternate error: %v", err)
	}
	warn := logs.FilterMessage("generation error").All()
	if len(warn) != 1 || warn[0].ContextMap()["convention"] != "primary" {
		t.Fatalf("expected one primary warning, got %+v", warn)
	}
	if n := logs.FilterMessage("generation response").Len(); n != 1 {
		t.Fatalf("expected one success log, got %d", n)
	}
}
