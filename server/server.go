// Package server exposes the HTTP API: health, status, the stream-status
// proxy, and the event lifecycle commands used by the directory frontend. It
// includes permissive CORS for development and injects correlation IDs into
// request contexts for consistent logging.
package server

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leafsk/gmeetings/config"
	"github.com/leafsk/gmeetings/monitor"
	"github.com/leafsk/gmeetings/telemetry"
)

// getEventCommandPattern matches the lifecycle command endpoints that get
// rate limiting: /events/{id}/override and /events/{id}/force-end.
var getEventCommandPattern = sync.OnceValue(func() *regexp.Regexp {
	return regexp.MustCompile(`^/events/[^/]+/(override|force-end)$`)
})

// NewMux returns the HTTP handler with all routes. The provided context
// bounds the rate limiter cleanup goroutine and background monitor runs.
func NewMux(ctx context.Context, db *sql.DB, cfg *config.Config, mon *monitor.Monitor) http.Handler {
	authCfg := loadAuthConfig()
	rl := newIPRateLimiter(ctx, loadRateLimiterConfig())
	corsCfg := loadCORSConfig()

	handlers := NewHandlers(ctx, db, cfg, mon)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", handlers.HandleHealthz)
	mux.HandleFunc("/readyz", handlers.HandleReadyz)
	mux.HandleFunc("/status", handlers.HandleStatus)

	mux.HandleFunc("/stream-status", handlers.HandleStreamStatus)
	mux.HandleFunc("/thumbnail", handlers.HandleThumbnail)
	mux.HandleFunc("/events/", handlers.HandleEventsDispatcher)

	mux.HandleFunc("/admin/monitor", handlers.HandleAdminMonitor)
	mux.HandleFunc("/admin/monitor/run", handlers.HandleAdminMonitorRun)

	// Admin endpoints get auth plus rate limiting; the lifecycle commands get
	// rate limiting only (they carry their own organizer check).
	selectiveHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/admin/") {
			adminAuth(rateLimitMiddleware(mux, rl), authCfg).ServeHTTP(w, r)
			return
		}
		if getEventCommandPattern().MatchString(r.URL.Path) {
			rateLimitMiddleware(mux, rl).ServeHTTP(w, r)
			return
		}
		mux.ServeHTTP(w, r)
	})

	// Correlation ID injection plus a server span per request.
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		corr := r.Header.Get("X-Correlation-ID")
		if corr == "" {
			corr = uuid.New().String()
		}
		ctx := telemetry.WithCorrelation(r.Context(), corr)
		w.Header().Set("X-Correlation-ID", corr)

		ctx, span := telemetry.StartSpan(ctx, "http-server", r.Method+" "+r.URL.Path,
			telemetry.HTTPMethodAttr(r.Method),
			telemetry.HTTPRouteAttr(r.URL.Path),
		)
		defer span.End()

		telemetry.LoggerWithCorr(ctx).Debug("request start", slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.String("component", "http"))

		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		selectiveHandler.ServeHTTP(rec, r.WithContext(ctx))
		telemetry.SetSpanHTTPStatus(span, rec.statusCode)
	})
	return withCORSConfig(handler, corsCfg)
}

// statusRecorder wraps ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

// Start runs the HTTP server and shuts down gracefully on context cancellation.
func Start(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", slog.Any("err", err))
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("http server error", slog.Any("err", err))
		return err
	}
	return nil
}
