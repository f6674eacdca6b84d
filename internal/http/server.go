package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"diamonds/internal/dashboard"
	"diamonds/internal/insight"
	"diamonds/internal/log"
	"diamonds/internal/store"
)

const requestIDHeader = "X-Request-ID"

// ReadyFunc reports whether a backing dependency can serve requests.
type ReadyFunc func(ctx context.Context) error

type Server struct {
	http.Server
	store       *store.Store
	dashboard   *dashboard.Service
	insight     *insight.Service
	logger      *log.Logger
	rateLimiter *rateLimiter
	metrics     *securityMetrics
	readyChecks map[string]ReadyFunc
	now         func() time.Time
	started     time.Time

	shutdownOnce sync.Once
}

type Option func(*Server)

// WithReadyCheck registers a dependency probed by /readyz.
func WithReadyCheck(name string, fn ReadyFunc) Option {
	return func(s *Server) { s.readyChecks[name] = fn }
}

// WithRateLimit overrides the number of mutating requests allowed per client
// per minute.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) { s.rateLimiter.limit = perMinute }
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, st *store.Store, dash *dashboard.Service, ins *insight.Service, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		store:       st,
		dashboard:   dash,
		insight:     ins,
		logger:      logger.WithComponent(log.ComponentHTTP),
		rateLimiter: newRateLimiter(),
		metrics:     &securityMetrics{},
		readyChecks: make(map[string]ReadyFunc),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.started = s.now()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/sales", s.handleListSales)
	mux.HandleFunc("POST /api/sales", s.handleCreateSale)
	mux.HandleFunc("PUT /api/sales/{id}", s.handleUpdateSale)
	mux.HandleFunc("DELETE /api/sales/{id}", s.handleDeleteSale)

	mux.HandleFunc("GET /api/commissions", s.handleListCommissions)
	mux.HandleFunc("POST /api/commissions", s.handleCreateCommission)
	mux.HandleFunc("PUT /api/commissions/{id}", s.handleUpdateCommission)
	mux.HandleFunc("DELETE /api/commissions/{id}", s.handleDeleteCommission)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/reconciliation", s.handleReconciliation)
	mux.HandleFunc("GET /api/chart", s.handleChart)

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handleUpdateSettings)
	mux.HandleFunc("PATCH /api/settings/split", s.handleAdjustSplit)

	mux.HandleFunc("POST /api/insight", s.handleInsight)

	var h http.Handler = mux
	h = log.RequestIDMiddleware(func(r *http.Request) string { return r.Header.Get(requestIDHeader) })(h)
	h = log.Middleware(s.logger)(h)
	s.Handler = s.withSecurityHeaders(h)

	return s
}

// Shutdown stops the rate limiter cleanup and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request logging to responses
func (s *Server) withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = generateRequestID()
			r.Header.Set(requestIDHeader, requestID)
		}
		w.Header().Set(requestIDHeader, requestID)

		if detectSuspiciousRequest(r, s.metrics) {
			s.logger.WarnContext(r.Context(), "Suspicious request",
				log.FieldRequestID, requestID,
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
		}

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP, s.metrics) {
			s.logger.WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		s.logger.With(log.FieldRequestID, requestID, log.FieldClientIP, clientIP).
			LogHTTPEnd(r.Context(), r, rw.statusCode, time.Since(start).Milliseconds())
	})
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
