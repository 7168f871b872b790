// Package ratelimit bounds how often a single client may call an endpoint.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// IPLimiter tracks request counts per IP within a sliding window.
type IPLimiter struct {
	mu      sync.Mutex
	entries map[string][]time.Time
	max     int
	window  time.Duration
	now     func() time.Time
}

// NewIPLimiter creates an IPLimiter allowing max requests per window.
// A non-positive max disables limiting.
func NewIPLimiter(max int, window time.Duration) *IPLimiter {
	return &IPLimiter{
		entries: make(map[string][]time.Time),
		max:     max,
		window:  window,
		now:     time.Now,
	}
}

// Allow returns true if the IP has not exceeded the rate limit.
// If allowed, the request is recorded.
func (l *IPLimiter) Allow(ip string) bool {
	if l.max <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	valid := l.prune(ip, now)
	if len(valid) >= l.max {
		return false
	}
	l.entries[ip] = append(valid, now)
	return true
}

// Sweep forgets IPs with no requests inside the window.
func (l *IPLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for ip := range l.entries {
		l.prune(ip, now)
	}
}

// prune drops timestamps older than the window. l.mu must be held.
func (l *IPLimiter) prune(ip string, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	timestamps := l.entries[ip]
	valid := timestamps[:0]
	for _, t := range timestamps {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		delete(l.entries, ip)
		return nil
	}
	l.entries[ip] = valid
	return valid
}

// Middleware rejects requests over the limit with 429.
func (l *IPLimiter) Middleware() gin.HandlerFunc {
	retry := strconv.Itoa(int(l.window.Seconds()))
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.Header("Retry-After", retry)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": "Too many requests, please slow down",
				"data":    nil,
			})
			return
		}
		c.Next()
	}
}
