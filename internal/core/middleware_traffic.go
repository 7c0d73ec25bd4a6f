package core

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"raceweather/internal/types"
)

// limiterIdleTTL is how long an idle client bucket is kept before eviction.
const limiterIdleTTL = 10 * time.Minute

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientRateLimiter keeps one token bucket per client IP.
type ClientRateLimiter struct {
	rps   rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*clientBucket
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewClientRateLimiter creates a limiter allowing rps requests per second per
// client with the given burst, and starts a janitor that evicts idle buckets.
func NewClientRateLimiter(rps float64, burst int) *ClientRateLimiter {
	l := &ClientRateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		buckets: make(map[string]*clientBucket),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go l.janitor()
	return l
}

// Allow consumes a token for key. It returns whether the request may proceed
// and, when it may not, how long until a token is available.
func (l *ClientRateLimiter) Allow(key string) (bool, time.Duration) {
	now := l.now()

	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	r := b.limiter.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	if delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Stop terminates the eviction goroutine.
func (l *ClientRateLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *ClientRateLimiter) janitor() {
	ticker := time.NewTicker(limiterIdleTTL)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.evictIdle()
		}
	}
}

func (l *ClientRateLimiter) evictIdle() {
	cutoff := l.now().Add(-limiterIdleTTL)
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, k)
		}
	}
}

// RateLimit enforces the per-client token bucket.
//
// If no limiter is configured the middleware passes through. Every response
// carries X-RateLimit-Limit with the bucket size. When rate limited, the
// middleware also sets:
//   - Retry-After: Whole seconds until a token is available.
func (s *Server) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		ip := extractClientIP(r)
		allowed, wait := s.limiter.Allow(ip)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(s.limiter.burst))

		if !allowed {
			retryAfter := int(math.Ceil(wait.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			s.Logger.Warn("rate limit exceeded",
				slog.String("client_ip", ip),
				slog.String("path", r.URL.Path),
			)
			Error(w, r, types.NewAppErrorWithDetails(
				types.ErrCodeRateLimit,
				"rate limit exceeded",
				nil,
				map[string]any{"retry_after_seconds": retryAfter},
			))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// extractClientIP extracts the client's IP address from the request.
// It first checks the X-Forwarded-For header (using the first entry, which
// is the original client IP when behind a proxy/load balancer). If that
// header is not present, it falls back to RemoteAddr.
//
// The returned IP is always stripped of the port number if present.
func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.SplitN(xff, ",", 2)
		ip := strings.TrimSpace(parts[0])
		if ip != "" {
			return ip
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr may not have a port (e.g., in tests).
		return r.RemoteAddr
	}
	return ip
}
