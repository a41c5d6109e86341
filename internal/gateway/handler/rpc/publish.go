package rpc

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"codenote/internal/gateway/service/githubpublish"
	"codenote/internal/publish"
)

const PublishProcedure = "/codenote.v1.PublishService/Publish"

type PublishService interface {
	Publish(ctx context.Context, in githubpublish.Input, token string, observe publish.Observer) (publish.Result, error)
}

type PublishResponse struct {
	Outcome publish.Outcome `json:"outcome"`
	Owner   string          `json:"owner,omitempty"`
	Path    string          `json:"path,omitempty"`
	Branch  string          `json:"branch,omitempty"`
	SHA     string          `json:"sha,omitempty"`
}

type PublishHandler struct {
	svc PublishService
}

func NewPublishHandler(svc PublishService) *PublishHandler {
	return &PublishHandler{svc: svc}
}

// Publish reads the token from the Authorization header.
func (h *PublishHandler) Publish(ctx context.Context, req *connect.Request[githubpublish.Input]) (*connect.Response[PublishResponse], error) {
	res, err := h.svc.Publish(ctx, *req.Msg, tokenFromHeader(req.Header()), nil)
	if err != nil {
		return nil, publishConnectError(res, err)
	}
	return connect.NewResponse(&PublishResponse{
		Outcome: res.Outcome,
		Owner:   res.Owner,
		Path:    res.Path,
		Branch:  res.Branch,
		SHA:     res.SHA,
	}), nil
}

func (h *PublishHandler) Register(mux *http.ServeMux, opts ...connect.HandlerOption) {
	mux.Handle(PublishProcedure, connect.NewUnaryHandler(PublishProcedure, h.Publish, handlerOptions(opts...)...))
}

func publishConnectError(res publish.Result, err error) error {
	var code connect.Code
	switch {
	case errors.Is(err, publish.ErrInvalidRequest):
		code = connect.CodeInvalidArgument
	case errors.Is(err, githubpublish.ErrAnnotationNotFound):
		code = connect.CodeNotFound
	case res.Outcome == publish.OutcomeConflict:
		code = connect.CodeAborted
	case res.Outcome == publish.OutcomeRemoteReadFailed, res.Outcome == publish.OutcomeRemoteWriteFailed:
		code = connect.CodeUnavailable
	default:
		code = connect.CodeInternal
	}
	ce := connect.NewError(code, err)
	if res.Outcome != "" {
		ce.Meta().Set("X-Codenote-Outcome", string(res.Outcome))
	}
	return ce
}

func tokenFromHeader(h http.Header) string {
	raw := strings.TrimSpace(h.Get("Authorization"))
	if i := strings.IndexByte(raw, ' '); i > 0 {
		switch strings.ToLower(raw[:i]) {
		case "bearer", "token":
			return strings.TrimSpace(raw[i+1:])
		}
	}
	return ""
}
