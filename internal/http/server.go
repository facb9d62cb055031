// Package http serves email previews, ad-hoc renders, report-driven emails
// and the outbox enqueue endpoint.
package http

import (
	"context"
	"html/template"
	"net/http"
	"sync"
	"time"

	"finalyze/internal/cache"
	"finalyze/internal/email"
	"finalyze/internal/log"
	"finalyze/internal/middleware/compress"
	"finalyze/internal/middleware/ratelimit"
	"finalyze/internal/middleware/security"
	"finalyze/internal/middleware/trace"
	"finalyze/internal/services"
	appweb "finalyze/web"
)

const (
	cacheCleanupInterval = 10 * time.Minute
	previewMaxAge        = 300
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options wires the server to its collaborators. Nil services disable the
// endpoints that need them.
type Options struct {
	Logger            *log.Logger
	Reports           *services.ReportService
	Outbox            *services.OutboxService
	Store             Pinger
	CacheSize         int
	CacheTTL          time.Duration
	RequestsPerMinute int
}

type Server struct {
	http.Server
	logger    *log.Logger
	templates *template.Template
	reports   *services.ReportService
	outbox    *services.OutboxService
	store     Pinger

	renderCache  *cache.LRUCache[email.Message]
	cacheManager *cache.Manager

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	startedAt    time.Time
	now          func() time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}

	s := &Server{
		logger:           logger.WithComponent(log.ComponentHTTP),
		reports:          opts.Reports,
		outbox:           opts.Outbox,
		store:            opts.Store,
		renderCache:      cache.NewLRUCache[email.Message](opts.CacheSize, opts.CacheTTL),
		cacheManager:     cache.NewManager(logger.Logger.With(log.FieldComponent, log.ComponentCache)),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RequestsPerMinute}),
		securityDetector: security.NewDetector(),
		startedAt:        time.Now(),
		now:              time.Now,
	}
	s.traceMiddleware = trace.NewMiddleware(logger, s.securityDetector.ExtractClientIP)

	s.cacheManager.Register(s.renderCache)
	s.cacheManager.StartCleanup(cacheCleanupInterval)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	previews := security.CacheControlMiddleware(previewMaxAge)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.Handle("GET /preview", previews(http.HandlerFunc(s.handlePreviewIndex)))
	mux.Handle("GET /preview/{type}", previews(http.HandlerFunc(s.handlePreview)))
	mux.HandleFunc("POST /render", s.handleRender)
	mux.HandleFunc("GET /reports/monthly", s.handleMonthlyReport)
	mux.HandleFunc("GET /reports/budget-alert", s.handleBudgetAlert)
	mux.HandleFunc("POST /outbox", s.handleEnqueue)
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/preview", http.StatusFound)
	})

	limited := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.onRateLimited, http.MethodPost)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	compressed := compress.Middleware(compress.DefaultConfig())

	s.Server = http.Server{
		Addr: addr,
		Handler: s.traceMiddleware.Middleware(
			s.securityDetector.Middleware(
				headers.Middleware(
					compressed(
						limited(mux),
					),
				),
			),
		),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
	return s
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later").Write(w)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
