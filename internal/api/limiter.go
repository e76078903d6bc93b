package api

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"resort/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// keyLimiter keeps one token bucket per API key. A zero rate disables it.
type keyLimiter struct {
	limiters sync.Map
	rps      float64
	burst    int
}

func newKeyLimiter(rps float64, burst int) *keyLimiter {
	if burst <= 0 {
		burst = 5
	}
	return &keyLimiter{rps: rps, burst: burst}
}

func (l *keyLimiter) Allow(key string) bool {
	if l == nil || l.rps <= 0 {
		return true
	}
	return l.get(key).Allow()
}

func (l *keyLimiter) get(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		if lim, ok := v.(*rate.Limiter); ok {
			return lim
		}
	}

	lim := rate.NewLimiter(rate.Limit(l.rps), l.burst)
	actual, loaded := l.limiters.LoadOrStore(key, lim)
	if loaded {
		if actualLim, ok := actual.(*rate.Limiter); ok {
			return actualLim
		}
	}
	return lim
}

// writeLimit caps how many stock-reserving requests one user may send per
// window. Limiter errors fail open.
func writeLimit(limiter domain.RateLimiter, limit int, window time.Duration, logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			p := principalFrom(r.Context())
			allowed, err := limiter.Allow(r.Context(), "write:"+strconv.FormatInt(p.UserID, 10), limit, window)
			if err != nil {
				logger.Warn().Err(err).Int64("user_id", p.UserID).Msg("write limiter unavailable")
				allowed = true
			}
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				writeError(w, http.StatusTooManyRequests, "too many write requests, try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
