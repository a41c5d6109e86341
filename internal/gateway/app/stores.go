package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	annotationcache "codenote/internal/cache/annotation"
	"codenote/internal/gateway/config"
	annotationrepo "codenote/internal/gateway/repository/annotation"
)

type gatewayStores struct {
	annotations annotationrepo.Store
	close       func() error
}

func initStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*gatewayStores, error) {
	origin, closeFn, err := openAnnotationOrigin(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if closeFn == nil {
		closeFn = func() error { return nil }
	}
	if cfg.Annotation.Store == "memory" {
		return &gatewayStores{annotations: origin, close: closeFn}, nil
	}
	return &gatewayStores{
		annotations: annotationcache.NewCachedStore(origin, annotationcache.DefaultCacheConfig()),
		close:       closeFn,
	}, nil
}

// OpenAnnotationStore opens the configured origin store without a cache.
func OpenAnnotationStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (annotationrepo.Store, func() error, error) {
	return openAnnotationOrigin(ctx, cfg, logger)
}

func openAnnotationOrigin(ctx context.Context, cfg *config.Config, logger *zap.Logger) (annotationrepo.Store, func() error, error) {
	switch cfg.Annotation.Store {
	case "postgres":
		s, err := annotationrepo.OpenSQL(ctx, annotationrepo.DialectPostgres, cfg.Annotation.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open annotation store: %w", err)
		}
		logger.Info("annotation store: postgres")
		return s, s.Close, nil
	case "sqlite":
		s, err := annotationrepo.OpenSQL(ctx, annotationrepo.DialectSQLite, cfg.Annotation.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open annotation store: %w", err)
		}
		logger.Info("annotation store: sqlite", zap.String("path", cfg.Annotation.SQLitePath))
		return s, s.Close, nil
	case "s3":
		if !cfg.Artifact.CanUseS3() {
			return nil, nil, fmt.Errorf("ANNOTATION_STORE=s3 requires ARTIFACT_S3_* endpoint, credentials and bucket")
		}
		s, err := annotationrepo.NewS3Store(annotationrepo.S3Config{
			Endpoint:  cfg.Artifact.Endpoint,
			Region:    cfg.Artifact.Region,
			AccessKey: cfg.Artifact.AccessKey,
			SecretKey: cfg.Artifact.SecretKey,
			Bucket:    cfg.Artifact.Bucket,
			UseSSL:    cfg.Artifact.UseSSL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize annotation s3 store: %w", err)
		}
		logger.Info("annotation store: s3", zap.String("bucket", cfg.Artifact.Bucket), zap.String("endpoint", cfg.Artifact.Endpoint))
		return s, nil, nil
	default:
		logger.Info("annotation store: in-memory")
		return annotationrepo.NewMemoryStore(), nil, nil
	}
}
