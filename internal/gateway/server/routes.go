package server

import (
	"net/http"

	"go.uber.org/zap"

	"codenote/internal/gateway/handler"
	"codenote/internal/gateway/handler/rpc"
	"codenote/internal/gateway/middleware"
)

type Handlers struct {
	Annotation    *handler.AnnotationHandler
	Publish       *handler.PublishHandler
	AnnotationRPC *rpc.AnnotationHandler
	PublishRPC    *rpc.PublishHandler
}

type Limits struct {
	MaxBodyBytes       int64
	RateLimitPerMinute int
}

func NewMux(h Handlers, limits Limits, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	limited := middleware.RateLimit(middleware.NewLimiter(limits.RateLimitPerMinute))

	// Generation calls are rate limited per client; reads and publish are not.
	mux.Handle("POST /api/ai/enhance-code", limited(http.HandlerFunc(h.Annotation.HandleEnhance)))
	mux.HandleFunc("GET /api/ai/annotations/{id}", h.Annotation.HandleGet)
	mux.HandleFunc("POST /api/github/publish", h.Publish.HandlePublish)
	mux.HandleFunc("GET /api/github/publish/ws", h.Publish.HandlePublishWS)
	mux.HandleFunc("GET /healthz", handler.HandleHealth)

	// RPC Handlers
	rpcMux := http.NewServeMux()
	h.AnnotationRPC.Register(rpcMux)
	h.PublishRPC.Register(rpcMux)
	mux.Handle(rpc.AnnotateProcedure, limited(rpcMux))
	mux.Handle(rpc.GetAnnotationProcedure, rpcMux)
	mux.Handle(rpc.PublishProcedure, rpcMux)

	return middleware.Chain(mux,
		middleware.AccessLog(logger),
		middleware.CORS,
		middleware.MaxBody(limits.MaxBodyBytes),
	)
}
