package annotate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Invoker is one calling convention of the generation capability.
type Invoker interface {
	Invoke(ctx context.Context, model, system, user string) (any, error)
}

// InvokerFunc adapts a function to Invoker.
type InvokerFunc func(ctx context.Context, model, system, user string) (any, error)

func (f InvokerFunc) Invoke(ctx context.Context, model, system, user string) (any, error) {
	return f(ctx, model, system, user)
}

const (
	DefaultModel = "gemini-2.0-flash"

	rawSampleLimit = 1000
)

// Service turns source code into a validated Record. It keeps no state
// between calls.
type Service struct {
	primary   Invoker
	alternate Invoker
	model     string
	maxCode   int
	logger    *zap.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithModel(model string) Option {
	return func(s *Service) {
		if m := strings.TrimSpace(model); m != "" {
			s.model = m
		}
	}
}

func WithMaxCodeLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxCode = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService wires the primary and alternate calling conventions. A nil
// primary yields a service that reports KindServiceUnavailable; a nil
// alternate disables the compatibility retry.
func NewService(primary, alternate Invoker, opts ...Option) *Service {
	s := &Service{
		primary:   primary,
		alternate: alternate,
		model:     DefaultModel,
		maxCode:   DefaultMaxCodeLength,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Available reports whether a generation capability is configured.
func (s *Service) Available() bool { return s != nil && s.primary != nil }

func (s *Service) Model() string { return s.model }

// Annotate runs the full pipeline: invoke, extract, sanitize, validate.
func (s *Service) Annotate(ctx context.Context, req Request) (Record, error) {
	if strings.TrimSpace(req.Code) == "" {
		return Record{}, &Error{Kind: KindMissingInput, Detail: "code is empty"}
	}
	if !s.Available() {
		return Record{}, &Error{Kind: KindServiceUnavailable, Detail: "generation capability is not configured"}
	}

	code := clampCode(req.Code, s.maxCode)
	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = DefaultLanguage
	}
	verbosity, known := ParseVerbosity(string(req.Verbosity))
	if !known {
		s.logger.Debug("unknown verbosity, using concise", zap.String("verbosity", string(req.Verbosity)))
	}

	log := s.logger.With(zap.String("model", s.model), zap.Int("code_len", utf8.RuneCountInString(code)))
	log.Info("calling generation capability", zap.String("language", language), zap.String("verbosity", string(verbosity)))

	raw, err := s.invoke(ctx, SystemInstruction(verbosity), UserContent(language, verbosity, code))
	if err != nil {
		log.Error("generation call failed", zap.Error(err))
		return Record{}, &Error{Kind: KindInvocationFailed, Detail: "generation call failed", Err: err}
	}

	text, shape, ok := ExtractWithShape(raw)
	if !ok {
		log.Error("could not extract text from generation response", zap.String("raw", rawPreview(raw)))
		ae := &Error{Kind: KindExtractionFailed, Detail: "no text found in generation response"}
		if str, isStr := raw.(string); isStr {
			ae.Sample = truncateRunes(str, rawSampleLimit)
		}
		return Record{}, ae
	}
	log.Debug("extracted generation text", zap.String("shape", shape), zap.Int("text_len", len(text)))

	cleaned := Sanitize(text)
	rec, err := Validate(cleaned)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) && pe.Kind == MalformedPayload {
			log.Error("failed to parse cleaned output", zap.String("cleaned", pe.Snippet))
		} else {
			log.Error("parsed payload rejected", zap.Error(err))
		}
		return Record{}, &Error{Kind: KindInvalidPayload, Detail: "payload rejected", Parse: pe, Err: err}
	}

	rec.OriginalCode = code
	rec.Verbosity = verbosity
	rec.Language = language
	rec.Model = s.model
	rec.CreatedAt = s.now().UTC()
	return rec, nil
}

// invoke tries the primary convention and, only when the call itself fails,
// the alternate one exactly once.
func (s *Service) invoke(ctx context.Context, system, user string) (any, error) {
	raw, err := s.primary.Invoke(ctx, s.model, system, user)
	if err == nil {
		return raw, nil
	}
	if s.alternate == nil || ctx.Err() != nil {
		return nil, err
	}
	s.logger.Warn("primary calling convention failed, trying alternate", zap.Error(err))
	raw, altErr := s.alternate.Invoke(ctx, s.model, system, user)
	if altErr == nil {
		return raw, nil
	}
	return nil, fmt.Errorf("primary: %w; alternate: %v", err, altErr)
}

func clampCode(code string, max int) string {
	if max <= 0 {
		return code
	}
	return truncateRunes(code, max)
}

func rawPreview(raw any) string {
	if s, ok := raw.(string); ok {
		return truncateRunes(s, rawSampleLimit)
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Sprintf("%T (not serializable: %v)", raw, err)
	}
	return truncateRunes(string(b), snippetLimit)
}
