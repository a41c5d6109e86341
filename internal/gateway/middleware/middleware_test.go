package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORS_PreflightAndOrigin(t *testing.T) {
	h := CORS(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/api/ai/enhance-code", nil)
	req.Header.Set("Origin", "chrome-extension://abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "chrome-extension://abc", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMaxBody(t *testing.T) {
	var readErr error
	h := MaxBody(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 32))))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 32)))
	req.ContentLength = -1
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var maxErr *http.MaxBytesError
	require.ErrorAs(t, readErr, &maxErr)

	readErr = nil
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small")))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, readErr)
}

func TestLimiter_TokenBucket(t *testing.T) {
	l := NewLimiter(2)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	ok, _ := l.Allow("a")
	require.True(t, ok)
	ok, _ = l.Allow("a")
	require.True(t, ok)
	ok, wait := l.Allow("a")
	require.False(t, ok)
	require.Equal(t, 30*time.Second, wait)

	ok, _ = l.Allow("b")
	require.True(t, ok, "clients are limited independently")

	now = now.Add(30 * time.Second)
	ok, _ = l.Allow("a")
	require.True(t, ok, "one token refills after 30s at 2/min")
	ok, _ = l.Allow("a")
	require.False(t, ok)
}

func TestRateLimit_Rejects(t *testing.T) {
	h := RateLimit(NewLimiter(1))(okHandler)

	req := httptest.NewRequest(http.MethodPost, "/api/ai/enhance-code", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, RateLimitMessage, body["error"])

	require.Nil(t, NewLimiter(0))
	rec = httptest.NewRecorder()
	RateLimit(nil)(okHandler).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAccessLogAndChain(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	teapot := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	h := Chain(teapot, AccessLog(zap.New(core)), mark("first"), mark("second"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, []string{"first", "second"}, order)
	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 1)
	require.EqualValues(t, http.StatusTeapot, entries[0].ContextMap()["status"])
}
