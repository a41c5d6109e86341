package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const RateLimitMessage = "Too many requests, try again shortly"

// maxTrackedClients bounds the per-client bucket table.
const maxTrackedClients = 4096

// bucket is a token bucket refilled lazily on each take.
type bucket struct {
	tokens float64
	last   time.Time
}

// Limiter allows up to perMinute requests per client IP with a burst of the
// same size.
type Limiter struct {
	mu       sync.Mutex
	capacity float64
	clients  *lru.Cache[string, *bucket]
	now      func() time.Time
}

func NewLimiter(perMinute int) *Limiter {
	if perMinute <= 0 {
		return nil
	}
	clients, _ := lru.New[string, *bucket](maxTrackedClients)
	return &Limiter{
		capacity: float64(perMinute),
		clients:  clients,
		now:      time.Now,
	}
}

// Allow takes one token for key. When it refuses, it also returns how long
// until the next token is available.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	if l == nil {
		return true, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.clients.Get(key)
	if !ok {
		b = &bucket{tokens: l.capacity, last: now}
		l.clients.Add(key, b)
	}
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens = math.Min(l.capacity, b.tokens+elapsed*l.capacity/60)
		b.last = now
	}
	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	wait := time.Duration((1 - b.tokens) * 60 / l.capacity * float64(time.Second))
	return false, wait
}

// RateLimit rejects requests over the limiter's budget with 429.
func RateLimit(l *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := l.Allow(ClientIP(r))
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				writeError(w, http.StatusTooManyRequests, RateLimitMessage)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP is the host part of the peer address.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
