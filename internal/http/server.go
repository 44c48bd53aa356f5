package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"sync"
	"time"

	"financas/internal/backend"
	"financas/internal/cache"
	"financas/internal/core"
	"financas/internal/format"
	"financas/internal/log"
	"financas/internal/middleware/ratelimit"
	"financas/internal/middleware/security"
	"financas/internal/middleware/trace"
	"financas/internal/services"
	appweb "financas/web"
)

const (
	viewCacheSize    = 64
	staticMaxAge     = 3600
	readinessTimeout = 2 * time.Second
)

// Config holds the server settings that come from application configuration.
type Config struct {
	Addr               string
	RateLimitPerMinute int
	ViewCacheTTL       time.Duration
	TrustedProxies     []string
}

type Server struct {
	http.Server

	ledger    *services.Ledger
	formatter *format.Formatter
	templates *template.Template
	logger    *log.Logger
	now       func() time.Time

	// Derived views keyed by ledger revision and filter.
	views *cache.LRUCache[core.View]

	tracer   *trace.Middleware
	limiter  *ratelimit.Limiter
	detector *security.Detector
	pinger   backend.Pinger

	shutdownOnce sync.Once
	stopLimiter  context.CancelFunc
}

// Option configures optional server collaborators.
type Option func(*Server)

// WithPinger makes /readyz report the data source's health.
func WithPinger(p backend.Pinger) Option {
	return func(s *Server) { s.pinger = p }
}

// WithCacheManager registers the view cache for background cleanup.
func WithCacheManager(m *cache.Manager) Option {
	return func(s *Server) { m.Register(s.views) }
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(cfg Config, ledger *services.Ledger, formatter *format.Formatter, logger *log.Logger, opts ...Option) (*Server, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if formatter == nil {
		formatter = format.Default()
	}
	if cfg.ViewCacheTTL <= 0 {
		cfg.ViewCacheTTL = 5 * time.Minute
	}

	s := &Server{
		ledger:    ledger,
		formatter: formatter,
		logger:    logger.WithComponent(log.ComponentHTTP),
		now:       time.Now,
		views:     cache.NewLRUCache[core.View](viewCacheSize, cfg.ViewCacheTTL),
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		detector:  security.NewDetector(),
	}
	for _, cidr := range cfg.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			return nil, fmt.Errorf("trusted proxy: %w", err)
		}
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)
	for _, opt := range opts {
		opt(s)
	}

	t, err := template.New("").Funcs(s.funcMap()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s.templates = t

	mux := http.NewServeMux()

	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	mux.Handle("/static/", security.StaticAssetMiddleware(staticMaxAge)(
		http.StripPrefix("/static/", http.FileServer(http.FS(static)))))

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/api/state", s.handleState)

	// UI partials
	mux.HandleFunc("/ui/dashboard", s.partial("dashboard"))
	mux.HandleFunc("/ui/transactions", s.partial("transactions"))
	mux.HandleFunc("/ui/filters", s.partial("filters"))
	mux.HandleFunc("/ui/modal", s.partial("modal"))
	mux.HandleFunc("/ui/confirm", s.partial("confirm"))
	mux.HandleFunc("/ui/tab", s.handleTab)

	mux.HandleFunc("/filter", s.handleFilter)

	mux.HandleFunc("/transactions/new", s.handleNew)
	mux.HandleFunc("/transactions/edit", s.handleEdit)
	mux.HandleFunc("/transactions/draft", s.handleDraft)
	mux.HandleFunc("/transactions/submit", s.handleSubmit)
	mux.HandleFunc("/transactions/close", s.handleClose)
	mux.HandleFunc("/transactions/delete/request", s.handleDeleteRequest)
	mux.HandleFunc("/transactions/delete/confirm", s.handleDeleteConfirm)
	mux.HandleFunc("/transactions/delete/cancel", s.handleDeleteCancel)

	mux.HandleFunc("/categories", s.handleAddCategory)
	mux.HandleFunc("/categories/form", s.handleCategoryForm)
	mux.HandleFunc("/categories/remove", s.handleRemoveCategory)

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit)(h)
	h = s.detector.Middleware(logger)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
	return s, nil
}

// Start runs background maintenance tied to ctx. It does not block.
func (s *Server) Start(ctx context.Context) {
	ctx, s.stopLimiter = context.WithCancel(ctx)
	go s.limiter.Run(ctx)
}

// Shutdown stops background maintenance and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.stopLimiter != nil {
			s.stopLimiter()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Muitas requisições. Tente novamente em instantes.").Write(w)
}

func viewKey(revision uint64, f core.Filter) string {
	return strconv.FormatUint(revision, 10) + "|" + f.Key()
}

// view returns the derived view for the current revision. A cached entry is
// only ever stored under the revision it was derived from.
func (s *Server) view() core.View {
	if v, ok := s.views.Get(viewKey(s.ledger.Revision(), s.ledger.Filter())); ok {
		return v
	}
	v, rev := s.ledger.View()
	s.views.Set(viewKey(rev, v.Filter), v)
	return v
}
