package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const maxTrackedClients = 10000

// Limiter applies a per-client token bucket keyed by IP address. Client IPs
// are taken from X-Forwarded-For only when the request arrives from a
// trusted proxy; otherwise the socket address is used.
type Limiter struct {
	mu             sync.Mutex
	clients        map[string]*client
	rate           rate.Limit
	burst          int
	idleTimeout    time.Duration
	trustedProxies []*net.IPNet
}

type client struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// New creates a per-IP limiter allowing r requests per second with the given
// burst. Entries idle longer than idleTimeout are dropped by a background
// sweep. trustedProxies holds CIDRs or single IPs; an empty list trusts all
// proxies.
func New(r rate.Limit, burst int, idleTimeout time.Duration, trustedProxies []string) *Limiter {
	l := &Limiter{
		clients:        make(map[string]*client),
		rate:           r,
		burst:          burst,
		idleTimeout:    idleTimeout,
		trustedProxies: parseProxyList(trustedProxies),
	}
	go l.sweep()
	return l
}

func parseProxyList(entries []string) []*net.IPNet {
	var nets []*net.IPNet
	for _, entry := range entries {
		if _, ipnet, err := net.ParseCIDR(entry); err == nil {
			nets = append(nets, ipnet)
			continue
		}
		ip := net.ParseIP(entry)
		if ip == nil {
			continue
		}
		bits := 128
		if ip.To4() != nil {
			bits = 32
		}
		mask := net.CIDRMask(bits, bits)
		nets = append(nets, &net.IPNet{IP: ip.Mask(mask), Mask: mask})
	}
	return nets
}

// Middleware rejects requests exceeding the per-client rate with 429.
func (l *Limiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.allow(l.clientIP(r)) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (l *Limiter) allow(ip string) bool {
	l.mu.Lock()
	c, ok := l.clients[ip]
	if !ok {
		if len(l.clients) >= maxTrackedClients {
			l.evictOldestLocked()
		}
		c = &client{bucket: rate.NewLimiter(l.rate, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = time.Now()
	l.mu.Unlock()

	return c.bucket.Allow()
}

func (l *Limiter) evictOldestLocked() {
	var oldest string
	var oldestSeen time.Time
	for ip, c := range l.clients {
		if oldest == "" || c.lastSeen.Before(oldestSeen) {
			oldest = ip
			oldestSeen = c.lastSeen
		}
	}
	if oldest != "" {
		delete(l.clients, oldest)
	}
}

func (l *Limiter) sweep() {
	ticker := time.NewTicker(l.idleTimeout)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-2 * l.idleTimeout)
		l.mu.Lock()
		for ip, c := range l.clients {
			if c.lastSeen.Before(cutoff) {
				delete(l.clients, ip)
			}
		}
		l.mu.Unlock()
	}
}

func (l *Limiter) clientIP(r *http.Request) string {
	remote := parseAddr(r.RemoteAddr)

	if len(l.trustedProxies) > 0 {
		trusted := false
		for _, ipnet := range l.trustedProxies {
			if ipnet.Contains(remote) {
				trusted = true
				break
			}
		}
		if !trusted {
			return remote.String()
		}
	}

	// X-Forwarded-For is "client, proxy1, proxy2"; the leftmost entry is the
	// original client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if ip := net.ParseIP(first); ip != nil {
			return ip.String()
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(xri); ip != nil {
			return ip.String()
		}
	}
	return remote.String()
}

func parseAddr(addr string) net.IP {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return net.ParseIP(host)
	}
	return net.ParseIP(addr)
}
