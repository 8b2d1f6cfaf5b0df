package security

import (
	"net/http"
	"sync"
	"time"
)

// RateLimiter is a fixed-window per-IP request limiter for the auth
// endpoints. Windows are tracked in memory; stale entries are pruned as a
// side effect of new requests.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*windowCount
	limit   int
	window  time.Duration
}

type windowCount struct {
	count   int
	started time.Time
}

// NewRateLimiter allows limit requests per window for each client IP
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*windowCount),
		limit:   limit,
		window:  window,
	}
}

// Allow reports whether a request from ip fits in the current window
func (rl *RateLimiter) Allow(ip string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.prune(now)

	w, ok := rl.clients[ip]
	if !ok || now.Sub(w.started) >= rl.window {
		rl.clients[ip] = &windowCount{count: 1, started: now}
		return true
	}
	if w.count >= rl.limit {
		return false
	}
	w.count++
	return true
}

// prune drops windows that ended more than one window ago. Called with the
// lock held.
func (rl *RateLimiter) prune(now time.Time) {
	if len(rl.clients) < 1024 {
		return
	}
	for ip, w := range rl.clients {
		if now.Sub(w.started) >= 2*rl.window {
			delete(rl.clients, ip)
		}
	}
}

// ClientIP extracts the client address, honoring common proxy headers
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
