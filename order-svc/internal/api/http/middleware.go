package httpapi

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"
)

// RateCounter is the external counter store behind the fixed-window limiter.
// Counters live outside process memory so the limit holds across restarts
// and replicas.
type RateCounter interface {
	IncrementCaller(ctx context.Context, caller string, window time.Duration) (int64, error)
}

type RateLimiter struct {
	Counter RateCounter
	Limit   int64
	Window  time.Duration
}

func NewRateLimiter(counter RateCounter, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{Counter: counter, Limit: limit, Window: window}
}

// Wrap applies the per-caller limit to a handler. Callers are identified by
// the X-Website-Domain header when present, otherwise by remote host. A
// counter-store failure lets the request through; throttling is protective,
// not load-bearing.
func (l *RateLimiter) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := r.Header.Get("X-Website-Domain")
		if caller == "" {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			caller = host
		}

		count, err := l.Counter.IncrementCaller(r.Context(), caller, l.Window)
		if err != nil {
			log.Printf("[order-svc] warning: rate counter failed for %s: %v", caller, err)
			next(w, r)
			return
		}
		if count > l.Limit {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}
