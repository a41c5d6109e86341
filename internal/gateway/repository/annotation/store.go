// Package annotation persists accepted annotation records by ID.
package annotation

import (
	"context"
	"errors"
	"strings"

	"codenote/internal/annotate"
)

// Store keeps annotation records so a later publish can reference one by ID.
type Store interface {
	Put(ctx context.Context, rec annotate.Record) error
	Get(ctx context.Context, id string) (annotate.Record, error)
}

var ErrNotFound = errors.New("annotation not found")

var errIDRequired = errors.New("annotation id is required")

func normalizeID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errIDRequired
	}
	return id, nil
}
