package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ipLimiter throttles relay submissions per source IP. The relayer pays
// gas for anyone who asks, so the endpoint needs abuse protection even
// though the contract's cooldown bounds per-author throughput.
type ipLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	disabled bool
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// visitorTTL is how long an idle IP's limiter is kept before pruning.
const visitorTTL = 10 * time.Minute

func newIPLimiter(perMinute int) *ipLimiter {
	if perMinute <= 0 {
		return &ipLimiter{disabled: true}
	}
	return &ipLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    perMinute,
	}
}

// allow reports whether a request from the given remote address may
// proceed, pruning idle entries as it goes.
func (l *ipLimiter) allow(remoteAddr string) bool {
	if l.disabled {
		return true
	}

	ip, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		ip = remoteAddr
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for addr, v := range l.visitors {
		if now.Sub(v.lastSeen) > visitorTTL {
			delete(l.visitors, addr)
		}
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.Allow()
}

// requireWithinRate enforces the limiter, responding 429 when exceeded.
func (s *Server) requireWithinRate(w http.ResponseWriter, r *http.Request) bool {
	if s.limiter.allow(r.RemoteAddr) {
		return true
	}
	s.logger.Warnw("Relay rate limit exceeded", "remote", r.RemoteAddr)
	writeError(w, http.StatusTooManyRequests, "Too many requests")
	return false
}
