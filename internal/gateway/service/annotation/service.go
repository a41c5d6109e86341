package annotation

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"codenote/internal/annotate"
	annotationrepo "codenote/internal/gateway/repository/annotation"
)

// Annotator produces validated records. *annotate.Service satisfies it.
type Annotator interface {
	Annotate(ctx context.Context, req annotate.Request) (annotate.Record, error)
}

// Service annotates code and keeps each result under a fresh ID.
type Service struct {
	annotator Annotator
	store     annotationrepo.Store
	logger    *zap.Logger
	newID     func() string
}

func New(annotator Annotator, store annotationrepo.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		annotator: annotator,
		store:     store,
		logger:    logger.With(zap.String("component", "annotation")),
		newID:     uuid.NewString,
	}
}

// Create runs the annotation pipeline and stores the result. A storage
// failure is logged and the record is returned without an ID.
func (s *Service) Create(ctx context.Context, req annotate.Request) (annotate.Record, error) {
	rec, err := s.annotator.Annotate(ctx, req)
	if err != nil {
		return annotate.Record{}, err
	}
	if s.store == nil {
		return rec, nil
	}
	rec.ID = s.newID()
	if err := s.store.Put(ctx, rec); err != nil {
		s.logger.Warn("failed to store annotation", zap.String("id", rec.ID), zap.Error(err))
		rec.ID = ""
	}
	return rec, nil
}

// Get returns a stored record, or annotationrepo.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (annotate.Record, error) {
	if s.store == nil || strings.TrimSpace(id) == "" {
		return annotate.Record{}, annotationrepo.ErrNotFound
	}
	return s.store.Get(ctx, id)
}
