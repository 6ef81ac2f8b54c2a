package live

import (
	"context"
	"encoding/json"
	"errors"
	"html"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/vango-dev/cellui/pkg/middleware"
	"github.com/vango-dev/cellui/pkg/reactive"
)

// Server serves an App over HTTP: the server-rendered page at "/", one
// live session per WebSocket at "/ws", health at "/healthz" and, when
// configured, Prometheus metrics.
type Server struct {
	app      App
	config   *Config
	router   chi.Router
	upgrader websocket.Upgrader
	logger   *slog.Logger

	metrics  *middleware.Metrics
	gatherer prometheus.Gatherer
	traced   bool
	tracing  []middleware.OTelOption

	mu         sync.Mutex
	sessions   map[string]*Session
	wg         sync.WaitGroup
	base       context.Context
	cancel     context.CancelFunc
	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger. Session loggers derive from it.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics installs m on every session runtime and serves g at the
// configured metrics path.
func WithMetrics(m *middleware.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// WithTracing gives every session its own tracing observer built from opts.
func WithTracing(opts ...middleware.OTelOption) Option {
	return func(s *Server) {
		s.traced = true
		s.tracing = opts
	}
}

// New creates a server for app. A nil config uses DefaultConfig.
func New(app App, config *Config, opts ...Option) *Server {
	config = config.withDefaults()
	base, cancel := context.WithCancel(context.Background())
	s := &Server{
		app:      app,
		config:   config,
		logger:   slog.Default().With("component", "live"),
		sessions: make(map[string]*Session),
		base:     base,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     config.checkOrigin,
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Get("/", s.handlePage)
	r.Get("/ws", s.HandleWebSocket)
	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil && config.MetricsPath != "" {
		r.Method(http.MethodGet, config.MetricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Config returns the effective configuration.
func (s *Server) Config() *Config { return s.config }

// Sessions returns the number of open sessions.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

const pageShell = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%TITLE%</title>
</head>
<body data-cellui-ws="/ws">%BODY%</body>
</html>
`

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.config.RenderTimeout)
	defer cancel()

	body, err := Render(ctx, s.app, s.config.MountID,
		reactive.WithMode(reactive.Release),
		reactive.WithLogger(s.logger),
	)
	if err != nil {
		if body == "" {
			s.logger.Error("page render failed", "error", err)
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}
		s.logger.Warn("page rendered partially", "error", err)
	}

	page := strings.Replace(pageShell, "%TITLE%", html.EscapeString(s.config.Title), 1)
	page = strings.Replace(page, "%BODY%", body, 1)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"sessions": s.Sessions(),
	})
}

// HandleWebSocket upgrades the request and serves a session until it ends.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	s.wg.Add(1)
	defer s.wg.Done()

	session := newSession(s.base, conn, s)
	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()
	session.logger.Info("session started", "remote", r.RemoteAddr)

	if err := session.serve(s.app); err != nil {
		session.logger.Debug("session ended with errors", "error", err)
	}

	s.mu.Lock()
	delete(s.sessions, session.ID)
	s.mu.Unlock()
}

// Run listens on the configured address until ctx is done, then shuts the
// server down.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:    s.config.Addr,
		Handler: s,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", s.config.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown closes every session and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.cancel()
	s.mu.Lock()
	open := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		open = append(open, session)
	}
	s.mu.Unlock()

	var err error
	for _, session := range open {
		err = multierr.Append(err, session.Close())
	}

	if s.httpServer != nil {
		if serr := s.httpServer.Shutdown(ctx); serr != nil {
			s.logger.Error("shutdown error", "error", serr)
			err = multierr.Append(err, serr)
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		err = multierr.Append(err, ctx.Err())
	}

	s.logger.Info("server shutdown complete")
	return err
}
