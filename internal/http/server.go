package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/BurairCodes/Expense-tracker/internal/ledger"
	"github.com/BurairCodes/Expense-tracker/internal/log"
	"github.com/BurairCodes/Expense-tracker/internal/metrics"
	"github.com/BurairCodes/Expense-tracker/internal/middleware/ratelimit"
	"github.com/BurairCodes/Expense-tracker/internal/middleware/security"
	"github.com/BurairCodes/Expense-tracker/internal/middleware/trace"
)

// Config holds the HTTP server settings.
type Config struct {
	Addr           string
	RateLimitRPS   float64
	RateLimitBurst int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

type Server struct {
	http.Server
	ledger   *ledger.Service
	logger   *log.Logger
	metrics  *metrics.Metrics
	limiter  *ratelimit.Limiter
	detector *security.Detector
	now      func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
// m may be nil.
func NewServer(cfg Config, svc *ledger.Service, logger *log.Logger, m *metrics.Metrics) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}

	s := &Server{
		ledger:   svc,
		logger:   logger.WithComponent(log.ComponentHTTP),
		metrics:  m,
		detector: security.NewDetector(),
		now:      time.Now,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
		}),
	}
	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(trace.NewMiddleware(s.detector.ExtractClientIP, s.logger, s.metrics).Middleware)
	// chi's recoverer guards the middleware below; recoverJSON answers
	// handler panics with a JSON body.
	r.Use(middleware.Recoverer)
	r.Use(s.recoverJSON)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware(s.logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusNotFound, ErrorResponse{Error: "route not found", Category: CategoryNotFound})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed", Category: CategoryValidation})
	})

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited))

		r.Get("/summary", s.handleDashboard)

		r.Route("/{collection}", func(r chi.Router) {
			r.Get("/", s.handleList)
			r.Post("/", s.handleCreate)
			r.Get("/stats/summary", s.handleSummary)
			r.Get("/stats/chart", s.handleChart)
			r.Get("/{id}", s.handleGet)
			r.Put("/{id}", s.handleUpdate)
			r.Delete("/{id}", s.handleDelete)
			r.Post("/{id}/deactivate", s.handleSetActive(false))
			r.Post("/{id}/activate", s.handleSetActive(true))
		})
	})

	return r
}

// recoverJSON turns a handler panic into a 500 with the standard error body.
func (s *Server) recoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Handler panic",
				log.FieldError, fmt.Sprint(rec),
				log.FieldErrorType, log.ErrorTypeInternal,
				log.FieldPath, r.URL.Path,
				"stack", string(debug.Stack()))
			WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Category: CategoryServer})
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.metrics.RateLimited()
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	WriteJSON(w, http.StatusTooManyRequests, ErrorResponse{
		Error:    "rate limit exceeded, please try again later",
		Category: CategoryRateLimited,
	})
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// ListenAndServe is http.Server.ListenAndServe with ErrServerClosed
// treated as a clean stop.
func (s *Server) ListenAndServe() error {
	err := s.Server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.ledger.Ping(ctx); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
		WriteJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "store unavailable", Category: CategoryServer})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
