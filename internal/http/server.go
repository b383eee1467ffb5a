// Package http serves the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bilancio/internal/cache"
	"bilancio/internal/log"
	"bilancio/internal/services"
)

// Options tune the server. Zero values select defaults.
type Options struct {
	// RateLimit is the number of requests per minute allowed per client.
	// Negative disables limiting.
	RateLimit int
	// Clock supplies the current month when a request names none.
	Clock func() time.Time
}

const defaultRateLimit = 120

type Server struct {
	http.Server
	svc     *services.LedgerService
	logger  *log.Logger
	limiter *rateLimiter
	sweeper *cache.Manager
	metrics *securityMetrics
	clock   func() time.Time
}

func NewServer(addr string, svc *services.LedgerService, logger *log.Logger, opts Options) *Server {
	logger = logger.WithComponent(log.ComponentHTTP)
	s := &Server{
		svc:     svc,
		logger:  logger,
		metrics: &securityMetrics{},
		clock:   opts.Clock,
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = defaultRateLimit
	}
	if opts.RateLimit > 0 {
		s.limiter = newRateLimiter(opts.RateLimit, time.Minute)
		s.sweeper = cache.NewManager(logger)
		s.sweeper.Register(s.limiter)
		s.sweeper.StartCleanup(5 * time.Minute)
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(log.Middleware(s.logger))
	r.Use(log.AccessLog)
	r.Use(s.withSecurity)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handleHealth)
		r.Get("/vocabulary", s.handleVocabulary)
		r.Get("/months", s.handleMonths)
		r.Get("/view", s.handleView)
		r.Get("/security", s.handleSecurityStats)

		r.Route("/records", func(r chi.Router) {
			r.Post("/", s.handleCreateRecord)
			r.Get("/{id}", s.handleGetRecord)
			r.Put("/{id}", s.handleUpdateRecord)
			r.Delete("/{id}", s.handleDeleteRecord)
		})

		r.Get("/export.csv", s.handleExportCSV)
		r.Get("/export.xlsx", s.handleExportXLSX)
		r.Post("/import", s.handleImport)

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", s.handleListExpenses)
			r.Post("/", s.handleCreateExpense)
			r.Put("/{id}", s.handleUpdateExpense)
			r.Delete("/{id}", s.handleDeleteExpense)
		})
	})
	return r
}

func (s *Server) handleSecurityStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.metrics.snapshot())
}

// Shutdown stops the rate limiter sweep and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.sweeper != nil {
		s.sweeper.Stop()
	}
	return s.Server.Shutdown(ctx)
}
