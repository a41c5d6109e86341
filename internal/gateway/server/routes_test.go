package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"codenote/internal/annotate"
	"codenote/internal/gateway/handler"
	"codenote/internal/gateway/handler/rpc"
	annotationrepo "codenote/internal/gateway/repository/annotation"
	annotationsvc "codenote/internal/gateway/service/annotation"
	"codenote/internal/gateway/service/githubpublish"
	"codenote/internal/publish"
)

type noopStore struct{}

func (noopStore) GetFile(context.Context, string, string, string, string, string) (publish.RemoteFile, error) {
	return publish.RemoteFile{}, publish.ErrNotFound
}

func (noopStore) PutFile(context.Context, publish.PutRequest) (publish.PutResult, error) {
	return publish.PutResult{SHA: "new"}, nil
}

func testMux(t *testing.T, limits Limits) http.Handler {
	t.Helper()
	invoker := annotate.InvokerFunc(func(context.Context, string, string, string) (any, error) {
		return `{"commented_code":"x=1 # set x"}`, nil
	})
	store := annotationrepo.NewMemoryStore()
	ann := annotationsvc.New(annotate.NewService(invoker, nil), store, nil)
	pub := githubpublish.New(publish.New(noopStore{}), store)
	return NewMux(Handlers{
		Annotation:    handler.NewAnnotationHandler(ann, nil),
		Publish:       handler.NewPublishHandler(pub, nil),
		AnnotationRPC: rpc.NewAnnotationHandler(ann),
		PublishRPC:    rpc.NewPublishHandler(pub),
	}, limits, zap.NewNop())
}

func post(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer t")
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMux_RateLimitsGenerationOnly(t *testing.T) {
	h := testMux(t, Limits{MaxBodyBytes: 1 << 20, RateLimitPerMinute: 2})

	require.Equal(t, http.StatusOK, post(h, "/api/ai/enhance-code", `{"code":"x=1"}`).Code)
	require.Equal(t, http.StatusOK, post(h, "/api/ai/enhance-code", `{"code":"x=1"}`).Code)
	require.Equal(t, http.StatusTooManyRequests, post(h, "/api/ai/enhance-code", `{"code":"x=1"}`).Code)
	require.Equal(t, http.StatusTooManyRequests, post(h, rpc.AnnotateProcedure, `{"code":"x=1"}`).Code)

	rec := post(h, "/api/github/publish", `{"owner":"o","repo":"r","path":"p","content":"c"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestMux_BodyLimit(t *testing.T) {
	h := testMux(t, Limits{MaxBodyBytes: 16, RateLimitPerMinute: 100})
	rec := post(h, "/api/ai/enhance-code", `{"code":"`+strings.Repeat("x", 64)+`"}`)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestMux_PublishByAnnotationID(t *testing.T) {
	h := testMux(t, Limits{MaxBodyBytes: 1 << 20, RateLimitPerMinute: 100})
	rec := post(h, "/api/ai/enhance-code", `{"code":"x=1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	id := extractID(t, rec.Body.String())

	rec = post(h, "/api/github/publish", `{"owner":"o","repo":"r","path":"p","annotation_id":"`+id+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), `"outcome":"created"`)

	rec = post(h, "/api/github/publish", `{"owner":"o","repo":"r","path":"p","annotation_id":"missing"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMux_HealthAndCORS(t *testing.T) {
	h := testMux(t, Limits{MaxBodyBytes: 1 << 20, RateLimitPerMinute: 1})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://github.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "https://github.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func extractID(t *testing.T, body string) string {
	t.Helper()
	const key = `"id":"`
	i := strings.Index(body, key)
	require.GreaterOrEqual(t, i, 0, body)
	rest := body[i+len(key):]
	return rest[:strings.IndexByte(rest, '"')]
}
