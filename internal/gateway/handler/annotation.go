package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"codenote/internal/annotate"
	annotationrepo "codenote/internal/gateway/repository/annotation"
)

// AnnotationService is satisfied by the gateway annotation service.
type AnnotationService interface {
	Create(ctx context.Context, req annotate.Request) (annotate.Record, error)
	Get(ctx context.Context, id string) (annotate.Record, error)
}

type AnnotationHandler struct {
	svc    AnnotationService
	logger *zap.Logger
}

func NewAnnotationHandler(svc AnnotationService, logger *zap.Logger) *AnnotationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnotationHandler{svc: svc, logger: logger}
}

type enhanceRequest struct {
	Code      string `json:"code"`
	Language  string `json:"language"`
	Verbosity string `json:"verbosity"`
}

// HandleEnhance serves POST /api/ai/enhance-code.
func (h *AnnotationHandler) HandleEnhance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var in enhanceRequest
	if status, err := decodeBody(r, &in); err != nil {
		writeJSON(w, status, map[string]any{"error": "invalid json body"})
		return
	}
	rec, err := h.svc.Create(r.Context(), annotate.Request{
		Code:      in.Code,
		Language:  in.Language,
		Verbosity: annotate.Verbosity(in.Verbosity),
	})
	if err != nil {
		status, body := annotateFailure(err)
		h.logger.Warn("enhance-code failed", zap.Int("status", status), zap.Error(err))
		writeJSON(w, status, body)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": rec})
}

// HandleGet serves GET /api/ai/annotations/{id}.
func (h *AnnotationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	rec, err := h.svc.Get(r.Context(), id)
	switch {
	case errors.Is(err, annotationrepo.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "annotation not found"})
	case err != nil:
		h.logger.Error("annotation lookup failed", zap.String("id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Server error"})
	default:
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": rec})
	}
}
