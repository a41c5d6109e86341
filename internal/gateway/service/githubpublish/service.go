// Package githubpublish resolves what to publish and hands it to the
// publisher.
package githubpublish

import (
	"context"
	"errors"
	"fmt"
	"strings"

	annotationrepo "codenote/internal/gateway/repository/annotation"
	"codenote/internal/publish"
)

var ErrAnnotationNotFound = errors.New("annotation not found")

// Publisher is satisfied by *publish.Publisher.
type Publisher interface {
	PublishObserved(ctx context.Context, req publish.Request, observe publish.Observer) (publish.Result, error)
}

// Input is a publish request as it arrives at the boundary. Content wins over
// AnnotationID when both are set.
type Input struct {
	Owner        string `json:"owner,omitempty"`
	Repo         string `json:"repo"`
	Path         string `json:"path"`
	Branch       string `json:"branch,omitempty"`
	Content      string `json:"content,omitempty"`
	AnnotationID string `json:"annotation_id,omitempty"`
	Message      string `json:"message,omitempty"`
}

type Service struct {
	publisher   Publisher
	annotations annotationrepo.Store
}

func New(publisher Publisher, annotations annotationrepo.Store) *Service {
	return &Service{publisher: publisher, annotations: annotations}
}

func (s *Service) Publish(ctx context.Context, in Input, token string, observe publish.Observer) (publish.Result, error) {
	content, err := s.resolveContent(ctx, in)
	if err != nil {
		return publish.Result{}, err
	}
	return s.publisher.PublishObserved(ctx, publish.Request{
		Owner:   in.Owner,
		Repo:    in.Repo,
		Path:    in.Path,
		Branch:  in.Branch,
		Content: []byte(content),
		Token:   token,
		Message: in.Message,
	}, observe)
}

func (s *Service) resolveContent(ctx context.Context, in Input) (string, error) {
	if in.Content != "" {
		return in.Content, nil
	}
	id := strings.TrimSpace(in.AnnotationID)
	if id == "" {
		return "", fmt.Errorf("%w: content or annotation_id is required", publish.ErrInvalidRequest)
	}
	if s.annotations == nil {
		return "", fmt.Errorf("%w: %s", ErrAnnotationNotFound, id)
	}
	rec, err := s.annotations.Get(ctx, id)
	if errors.Is(err, annotationrepo.ErrNotFound) {
		return "", fmt.Errorf("%w: %s", ErrAnnotationNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("load annotation %s: %w", id, err)
	}
	return rec.AnnotatedCode, nil
}
