// Package ratelimit throttles write endpoints per authenticated actor.
package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	dErrors "grameengo/pkg/domain-errors"
	"grameengo/pkg/platform/httputil"
	"grameengo/pkg/platform/middleware/metadata"
	request "grameengo/pkg/platform/middleware/request"
	"grameengo/pkg/requestcontext"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per key (actor ID, or client IP when
// unauthenticated).
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	rate    rate.Limit
	burst   int
	idleTTL time.Duration
	logger  *slog.Logger
}

// New allows perMinute requests per key with the given burst.
func New(perMinute, burst int, logger *slog.Logger) *Limiter {
	return &Limiter{
		entries: make(map[string]*entry),
		rate:    rate.Limit(float64(perMinute) / 60.0),
		burst:   burst,
		idleTTL: 10 * time.Minute,
		logger:  logger,
	}
}

func (l *Limiter) get(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

// Handler rejects requests beyond the configured rate with 429.
func (l *Limiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := metadata.ClientIPFromRequest(r)
		if requestcontext.HasActor(ctx) {
			key = requestcontext.UserID(ctx).String()
		}

		now := time.Now()
		limiter := l.get(key, now)
		if !limiter.AllowN(now, 1) {
			l.logger.WarnContext(ctx, "rate limit exceeded",
				"key", key,
				"path", r.URL.Path,
				"request_id", request.GetRequestID(ctx),
			)
			res := limiter.ReserveN(now, 1)
			retry := res.DelayFrom(now)
			res.CancelAt(now)
			w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
			httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Sweep drops limiters idle longer than the idle TTL.
func (l *Limiter) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, e := range l.entries {
		if now.Sub(e.lastSeen) > l.idleTTL {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}
