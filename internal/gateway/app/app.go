package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"codenote/internal/annotate"
	"codenote/internal/gateway/config"
	"codenote/internal/gateway/handler"
	"codenote/internal/gateway/handler/rpc"
	"codenote/internal/gateway/server"
	annotationsvc "codenote/internal/gateway/service/annotation"
	"codenote/internal/gateway/service/githubpublish"
	"codenote/internal/github"
	"codenote/internal/llmclient"
	"codenote/internal/publish"
)

type App struct {
	server *server.Server
	closer func() error
}

// New wires the gateway from cfg. A missing model API key is not fatal: the
// annotate endpoints answer 503 until one is configured.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	annotator, err := NewAnnotator(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	stores, err := initStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	gh := github.NewClient(cfg.GitHub.APIURL, cfg.GitHub.Timeout)
	publisher := publish.New(gh,
		publish.WithOwnerResolver(gh),
		publish.WithDefaultBranch(cfg.GitHub.DefaultBranch),
		publish.WithLogger(logger.With(zap.String("component", "publish"))),
	)

	annotationSvc := annotationsvc.New(annotator, stores.annotations, logger)
	publishSvc := githubpublish.New(publisher, stores.annotations)

	mux := server.NewMux(server.Handlers{
		Annotation:    handler.NewAnnotationHandler(annotationSvc, logger),
		Publish:       handler.NewPublishHandler(publishSvc, logger).WithMaxMessageBytes(cfg.HTTP.MaxBodyBytes),
		AnnotationRPC: rpc.NewAnnotationHandler(annotationSvc),
		PublishRPC:    rpc.NewPublishHandler(publishSvc),
	}, server.Limits{
		MaxBodyBytes:       cfg.HTTP.MaxBodyBytes,
		RateLimitPerMinute: cfg.HTTP.RateLimitPerMinute,
	}, logger)

	return &App{
		server: server.New(cfg.Port, mux, logger),
		closer: stores.close,
	}, nil
}

// NewAnnotator builds the annotation service for the configured provider.
func NewAnnotator(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*annotate.Service, error) {
	opts := []annotate.Option{
		annotate.WithModel(cfg.LLM.Model()),
		annotate.WithMaxCodeLength(cfg.LLM.MaxCodeLength),
		annotate.WithLogger(logger.With(zap.String("component", "annotate"))),
	}
	baseURL := ""
	if cfg.LLM.Provider == llmclient.ProviderGroq {
		baseURL = cfg.LLM.GroqBaseURL
	}
	pair, err := llmclient.New(ctx, llmclient.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey(),
		BaseURL:  baseURL,
	})
	if errors.Is(err, llmclient.ErrNotConfigured) {
		logger.Warn("no API key for provider; annotation disabled", zap.String("provider", cfg.LLM.Provider))
		return annotate.NewService(nil, nil, opts...), nil
	}
	if err != nil {
		return nil, fmt.Errorf("init %s client: %w", cfg.LLM.Provider, err)
	}
	pair = pair.Logged(logger.With(zap.String("component", "llm"), zap.String("provider", cfg.LLM.Provider)))
	return annotate.NewService(pair.Primary, pair.Alternate, opts...), nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	if a.closer != nil {
		if cerr := a.closer(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
