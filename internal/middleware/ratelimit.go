package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// RateLimiter throttles form submissions per client IP
// with one token bucket per address.
type RateLimiter struct {
	mu          sync.Mutex
	limiters    map[string]*client
	every       rate.Limit
	burst       int
	window      time.Duration
	trustedNets []*net.IPNet
	stopCleanup chan struct{}
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows burst requests per window per IP, refilling evenly
// across the window. trustedProxies are CIDRs (or bare IPs) whose
// X-Forwarded-For headers are believed.
func NewRateLimiter(burst int, window time.Duration, trustedProxies ...string) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	if window <= 0 {
		window = time.Minute
	}

	var nets []*net.IPNet
	for _, cidr := range trustedProxies {
		if !strings.Contains(cidr, "/") {
			if strings.Contains(cidr, ":") {
				cidr += "/128"
			} else {
				cidr += "/32"
			}
		}
		_, n, err := net.ParseCIDR(cidr)
		if err != nil {
			log.Warnf("middleware: ignoring malformed trusted proxy %q", cidr)
			continue
		}
		nets = append(nets, n)
	}

	rl := &RateLimiter{
		limiters:    make(map[string]*client),
		every:       rate.Every(window / time.Duration(burst)),
		burst:       burst,
		window:      window,
		trustedNets: nets,
		stopCleanup: make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Stop ends the background cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopCleanup)
}

// Limit rejects requests over the limit with 429.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := rl.extractIP(r)
		if !rl.allow(ip) {
			log.WithFields(log.Fields{"ip": ip, "path": r.URL.Path}).Warn("middleware: rate limit exceeded")
			w.Header().Set("Retry-After", strconv.Itoa(int((rl.window/time.Duration(rl.burst)).Seconds())+1))
			http.Error(w, "Demasiados intentos. Probá de nuevo en unos minutos.", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	c, ok := rl.limiters[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rl.every, rl.burst)}
		rl.limiters[ip] = c
	}
	c.lastSeen = time.Now()
	rl.mu.Unlock()

	return c.limiter.Allow()
}

// cleanup forgets clients not seen for two windows. A forgotten client has
// a full bucket again anyway.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stopCleanup:
			return
		case <-ticker.C:
			rl.sweep(time.Now())
		}
	}
}

func (rl *RateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, c := range rl.limiters {
		if now.Sub(c.lastSeen) > rl.window*2 {
			delete(rl.limiters, ip)
		}
	}
}

func (rl *RateLimiter) isTrustedProxy(ipStr string) bool {
	ip := net.ParseIP(strings.TrimSpace(ipStr))
	if ip == nil {
		return false
	}
	for _, n := range rl.trustedNets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// extractIP returns the client address. Forwarding headers are only read
// when RemoteAddr is a trusted proxy; the rightmost untrusted
// X-Forwarded-For hop wins.
func (rl *RateLimiter) extractIP(r *http.Request) string {
	remoteIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		remoteIP = r.RemoteAddr
	}
	if len(rl.trustedNets) == 0 || !rl.isTrustedProxy(remoteIP) {
		return remoteIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		for i := len(parts) - 1; i >= 0; i-- {
			candidate := strings.TrimSpace(parts[i])
			if candidate != "" && !rl.isTrustedProxy(candidate) {
				return candidate
			}
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return remoteIP
}
