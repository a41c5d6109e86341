package rpc

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"

	"codenote/internal/annotate"
	annotationrepo "codenote/internal/gateway/repository/annotation"
)

const (
	AnnotateProcedure      = "/codenote.v1.AnnotationService/Annotate"
	GetAnnotationProcedure = "/codenote.v1.AnnotationService/GetAnnotation"
)

type AnnotationService interface {
	Create(ctx context.Context, req annotate.Request) (annotate.Record, error)
	Get(ctx context.Context, id string) (annotate.Record, error)
}

type AnnotateRequest struct {
	Code      string `json:"code"`
	Language  string `json:"language,omitempty"`
	Verbosity string `json:"verbosity,omitempty"`
}

type AnnotateResponse struct {
	Annotation annotate.Record `json:"annotation"`
}

type GetAnnotationRequest struct {
	ID string `json:"id"`
}

// AnnotationHandler serves the annotation Connect procedures.
type AnnotationHandler struct {
	svc AnnotationService
}

func NewAnnotationHandler(svc AnnotationService) *AnnotationHandler {
	return &AnnotationHandler{svc: svc}
}

func (h *AnnotationHandler) Annotate(ctx context.Context, req *connect.Request[AnnotateRequest]) (*connect.Response[AnnotateResponse], error) {
	rec, err := h.svc.Create(ctx, annotate.Request{
		Code:      req.Msg.Code,
		Language:  req.Msg.Language,
		Verbosity: annotate.Verbosity(req.Msg.Verbosity),
	})
	if err != nil {
		return nil, annotateConnectError(err)
	}
	return connect.NewResponse(&AnnotateResponse{Annotation: rec}), nil
}

func (h *AnnotationHandler) GetAnnotation(ctx context.Context, req *connect.Request[GetAnnotationRequest]) (*connect.Response[AnnotateResponse], error) {
	rec, err := h.svc.Get(ctx, req.Msg.ID)
	if errors.Is(err, annotationrepo.ErrNotFound) {
		return nil, connect.NewError(connect.CodeNotFound, err)
	}
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&AnnotateResponse{Annotation: rec}), nil
}

// Register mounts the procedures on mux.
func (h *AnnotationHandler) Register(mux *http.ServeMux, opts ...connect.HandlerOption) {
	mux.Handle(AnnotateProcedure, connect.NewUnaryHandler(AnnotateProcedure, h.Annotate, handlerOptions(opts...)...))
	mux.Handle(GetAnnotationProcedure, connect.NewUnaryHandler(GetAnnotationProcedure, h.GetAnnotation, handlerOptions(opts...)...))
}

func annotateConnectError(err error) error {
	var ae *annotate.Error
	if !errors.As(err, &ae) {
		return connect.NewError(connect.CodeInternal, err)
	}
	var ce *connect.Error
	switch ae.Kind {
	case annotate.KindMissingInput:
		ce = connect.NewError(connect.CodeInvalidArgument, errors.New("code is required"))
	case annotate.KindServiceUnavailable:
		ce = connect.NewError(connect.CodeFailedPrecondition, err)
	case annotate.KindInvocationFailed:
		ce = connect.NewError(connect.CodeUnavailable, err)
	case annotate.KindInvalidPayload:
		ce = connect.NewError(connect.CodeDataLoss, err)
	default:
		ce = connect.NewError(connect.CodeInternal, err)
	}
	ce.Meta().Set("X-Codenote-Error-Kind", string(ae.Kind))
	return ce
}
