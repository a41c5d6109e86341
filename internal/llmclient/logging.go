package llmclient

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// WithLogging logs request size, latency and errors for every invocation.
func WithLogging(logger *zap.Logger, convention string) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next Invoker) Invoker {
		return &logging{next: next, log: logger.With(zap.String("convention", convention))}
	}
}

type logging struct {
	next Invoker
	log  *zap.Logger
}

func (l *logging) Invoke(ctx context.Context, model, system, user string) (any, error) {
	start := time.Now()
	l.log.Debug("generation request", zap.String("model", model), zap.Int("bytes", len(system)+len(user)))
	raw, err := l.next.Invoke(ctx, model, system, user)
	if err != nil {
		l.log.Warn("generation error", zap.String("model", model), zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return raw, err
	}
	l.log.Debug("generation response", zap.String("model", model), zap.Duration("elapsed", time.Since(start)))
	return raw, nil
}
