// Package server middleware for authentication, rate limiting, and CORS.
package server

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// authConfig holds admin authentication settings loaded from environment.
type authConfig struct {
	username string
	password string
	token    string
	enabled  bool
}

func loadAuthConfig() *authConfig {
	cfg := &authConfig{
		username: os.Getenv("ADMIN_USERNAME"),
		password: os.Getenv("ADMIN_PASSWORD"),
		token:    os.Getenv("ADMIN_TOKEN"),
	}
	cfg.enabled = (cfg.username != "" && cfg.password != "") || cfg.token != ""
	if !cfg.enabled {
		slog.Warn("admin auth not configured, admin endpoints are unprotected; set ADMIN_TOKEN or ADMIN_USERNAME+ADMIN_PASSWORD")
	}
	return cfg
}

// adminAuth protects admin endpoints with token or basic auth. Comparisons are
// constant-time.
func adminAuth(next http.Handler, cfg *authConfig) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !cfg.enabled {
			next.ServeHTTP(w, r)
			return
		}
		if cfg.token != "" {
			if t := r.Header.Get("X-Admin-Token"); t != "" && subtle.ConstantTimeCompare([]byte(t), []byte(cfg.token)) == 1 {
				next.ServeHTTP(w, r)
				return
			}
		}
		if cfg.username != "" && cfg.password != "" {
			if u, p, ok := r.BasicAuth(); ok {
				uOK := subtle.ConstantTimeCompare([]byte(u), []byte(cfg.username)) == 1
				pOK := subtle.ConstantTimeCompare([]byte(p), []byte(cfg.password)) == 1
				if uOK && pOK {
					next.ServeHTTP(w, r)
					return
				}
			}
		}
		w.Header().Set("WWW-Authenticate", `Basic realm="gmeetings admin"`)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		slog.Warn("admin auth failed", slog.String("path", r.URL.Path), slog.String("remote_addr", r.RemoteAddr))
	})
}

// rateLimiterConfig bounds how often one IP may hit protected endpoints.
type rateLimiterConfig struct {
	enabled       bool
	requestsPerIP int
	window        time.Duration
}

func loadRateLimiterConfig() *rateLimiterConfig {
	cfg := &rateLimiterConfig{
		enabled:       os.Getenv("RATE_LIMIT_ENABLED") != "0",
		requestsPerIP: 10,
		window:        time.Minute,
	}
	if v := os.Getenv("RATE_LIMIT_REQUESTS_PER_IP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.requestsPerIP = n
		}
	}
	if v := os.Getenv("RATE_LIMIT_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.window = time.Duration(n) * time.Second
		}
	}
	return cfg
}

// ipRateLimiter is a sliding-window per-IP limiter kept in memory.
type ipRateLimiter struct {
	mu       sync.Mutex
	visitors map[string][]time.Time
	cfg      *rateLimiterConfig
}

func newIPRateLimiter(ctx context.Context, cfg *rateLimiterConfig) *ipRateLimiter {
	rl := &ipRateLimiter{visitors: make(map[string][]time.Time), cfg: cfg}
	go rl.cleanupLoop(ctx)
	return rl
}

func (rl *ipRateLimiter) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.mu.Lock()
			cutoff := time.Now().Add(-2 * rl.cfg.window)
			for ip, reqs := range rl.visitors {
				if len(reqs) == 0 || reqs[len(reqs)-1].Before(cutoff) {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *ipRateLimiter) allow(ip string) bool {
	if !rl.cfg.enabled {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := time.Now()
	cutoff := now.Add(-rl.cfg.window)
	kept := rl.visitors[ip][:0]
	for _, t := range rl.visitors[ip] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= rl.cfg.requestsPerIP {
		rl.visitors[ip] = kept
		return false
	}
	rl.visitors[ip] = append(kept, now)
	return true
}

// rateLimitMiddleware rejects over-limit requests with 429.
func rateLimitMiddleware(next http.Handler, rl *ipRateLimiter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.allow(ip) {
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Too Many Requests - rate limit exceeded", http.StatusTooManyRequests)
			slog.Warn("rate limit exceeded", slog.String("ip", ip), slog.String("path", r.URL.Path))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	ip := r.RemoteAddr
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.Index(fwd, ","); i >= 0 {
			ip = strings.TrimSpace(fwd[:i])
		} else {
			ip = strings.TrimSpace(fwd)
		}
	}
	if i := strings.LastIndex(ip, ":"); i >= 0 {
		ip = ip[:i]
	}
	return ip
}

// corsConfig holds CORS behavior: permissive in dev, explicit origins in prod.
type corsConfig struct {
	allowedOrigins []string
	permissive     bool
}

func loadCORSConfig() *corsConfig {
	mode := strings.ToLower(os.Getenv("ENV"))
	cfg := &corsConfig{permissive: mode == "" || mode == "dev" || mode == "development"}
	if v := os.Getenv("CORS_PERMISSIVE"); v != "" {
		cfg.permissive = v == "1" || v == "true"
	}
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.allowedOrigins = append(cfg.allowedOrigins, o)
			}
		}
	}
	if !cfg.permissive && len(cfg.allowedOrigins) == 0 {
		slog.Warn("CORS restricted mode enabled but no CORS_ALLOWED_ORIGINS configured - all CORS requests will be blocked")
	}
	return cfg
}

func withCORSConfig(next http.Handler, cfg *corsConfig) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowed := cfg.permissive
		if !allowed && origin != "" {
			for _, o := range cfg.allowedOrigins {
				if origin == o {
					allowed = true
					break
				}
			}
		}
		if allowed {
			value := "*"
			if !cfg.permissive {
				value = origin
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			w.Header().Set("Access-Control-Allow-Origin", value)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Admin-Token, X-Correlation-ID")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
