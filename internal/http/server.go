package http

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"casa/internal/core"
	"casa/internal/log"
	"casa/internal/middleware/ratelimit"
	"casa/internal/middleware/security"
	"casa/internal/middleware/trace"
)

// Ledger is the storage the handlers read from and append to.
type Ledger interface {
	Append(ctx context.Context, rec core.Record) error
	List(ctx context.Context) ([]core.Record, error)
	Balance(ctx context.Context) (core.Balance, error)
	GetNotepad(ctx context.Context) (string, error)
	Ping(ctx context.Context) error
}

// Options tunes the server. Zero values fall back to defaults.
type Options struct {
	Logger             *log.Logger
	RateLimitPerMinute int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	// Now returns the current time; the form's default date is taken from it.
	Now func() time.Time
}

type Server struct {
	http.Server
	templates   *template.Template
	ledger      Ledger
	logger      *log.Logger
	events      *log.StructuredLogger
	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware
	now         func() time.Time
	started     time.Time
}

// NewServer wires routes and middleware around ledger. Templates are parsed
// up front so a broken template fails at startup, not on the first request.
func NewServer(addr string, ledger Ledger, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 10 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		templates: tmpl,
		ledger:    ledger,
		logger:    logger,
		events:    log.NewStructuredLogger(logger),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
		}),
		tracer:  trace.NewMiddleware(logger, security.ExtractClientIP),
		now:     opts.Now,
		started: opts.Now(),
	}

	s.Addr = addr
	s.Handler = s.routes()
	s.ReadHeaderTimeout = 5 * time.Second
	s.ReadTimeout = opts.ReadTimeout
	s.WriteTimeout = opts.WriteTimeout
	s.IdleTimeout = 60 * time.Second

	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(log.Middleware(s.logger))
	r.Use(s.tracer.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)

	r.Get("/", s.handleIndex)
	r.With(s.rateLimiter.Middleware(security.ExtractClientIP, s.onRateLimit)).Post("/add", s.handleAdd)
	r.Get("/manifest.json", handleManifest)
	r.With(security.StaticAssetMiddleware(86400)).Get("/icon.png", handleIcon)
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	return r
}

// Shutdown stops the rate limiter and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.Stop()
	if err := s.Server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
