// Package web provides the HTTP server and handlers for the invoice
// import and reminder API.
package web

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/NeilMisra99/payprompt-ai-sub001/internal/config"
	"github.com/NeilMisra99/payprompt-ai-sub001/internal/importer"
	"github.com/NeilMisra99/payprompt-ai-sub001/internal/logging"
	"github.com/NeilMisra99/payprompt-ai-sub001/internal/reminder"
	"github.com/NeilMisra99/payprompt-ai-sub001/internal/store"
	"github.com/NeilMisra99/payprompt-ai-sub001/internal/web/middleware"
)

// ReminderStreamer generates reminder text for an invoice, forwarding
// chunks to emit as they arrive. Satisfied by *reminder.Generator.
type ReminderStreamer interface {
	Stream(ctx context.Context, req reminder.Request, emit func(chunk string) error) error
}

// Server is the HTTP server for the import and reminder API.
type Server struct {
	cfg      *config.Config
	store    store.Store
	reminder ReminderStreamer
	opts     importer.Options
	router   *chi.Mux
	server   *http.Server
	limiter  *rateLimiter
}

// NewServer assembles the router from validated configuration. The
// reminder streamer may be nil when Bedrock is disabled; the reminder
// route then answers 503.
func NewServer(cfg *config.Config, st store.Store, rem ReminderStreamer) (*Server, error) {
	opts := importer.Options{
		Epsilon: cfg.Import.EpsilonDecimal(),
	}
	status, ok := importer.ParseStatus(cfg.Import.DefaultStatus)
	if !ok {
		return nil, fmt.Errorf("invalid default invoice status %q", cfg.Import.DefaultStatus)
	}
	opts.DefaultStatus = status

	tenants, err := cfg.Security.KeyTenants()
	if err != nil {
		return nil, fmt.Errorf("parse API keys: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		store:    st,
		reminder: rem,
		opts:     opts,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes(tenants)
	return s, nil
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(securityHeaders)

	if len(s.cfg.Security.AllowedOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.Security.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-API-Key"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	if s.cfg.Rate.Enabled {
		s.limiter = newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(s.limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes(tenants map[string]uuid.UUID) {
	s.router.Get("/healthz", s.handleHealthz)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.cfg.Security.RequireAPIKey, tenants))

		// Import pipeline
		r.Post("/import/preview", s.handleImportPreview)
		r.Post("/import", s.handleImport)
		r.Get("/import/status", s.handleImportStatus)

		// AI reminder generation
		r.Post("/invoices/{invoiceNumber}/reminder", s.handleReminder)
	})
}

// handleHealthz answers liveness probes. No auth, no dependencies.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout, // zero: disabled for SSE
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	logging.FromContext(context.Background()).Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and the rate limiter's cleanup
// goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// rateLimiter implements a simple token bucket rate limiter per IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // requests per window
	window   time.Duration // time window
	done     chan struct{}
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// newRateLimiter creates a rate limiter with the specified rate per window.
func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
		done:     make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// cleanup removes stale visitor entries every minute until stop is
// called.
func (rl *rateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
		}
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// stop terminates the cleanup goroutine. Safe to call once.
func (rl *rateLimiter) stop() {
	close(rl.done)
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{
			tokens:    rl.rate - 1,
			lastReset: time.Now(),
		}
		return true
	}

	if time.Since(v.lastReset) > rl.window {
		v.tokens = rl.rate - 1
		v.lastReset = time.Now()
		return true
	}

	if v.tokens <= 0 {
		return false
	}

	v.tokens--
	return true
}

// middleware returns an HTTP middleware that rate limits by IP.
// TrustedRealIP has already rewritten RemoteAddr for trusted proxies.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(r.RemoteAddr) {
			w.Header().Set("Retry-After", "60")
			respondError(w, r, http.StatusTooManyRequests, codeRateLimited, "rate limit exceeded", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
