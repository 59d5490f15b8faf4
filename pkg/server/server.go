package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hoka-shop/storefront/pkg/middleware"
	"github.com/hoka-shop/storefront/pkg/toast"
)

// Server is the storefront HTTP/WebSocket server.
type Server struct {
	config   *Config
	router   chi.Router
	hub      *Hub
	visitors *visitors
	metrics  *middleware.Metrics

	httpServer *http.Server
	stop       chan struct{}

	logger *slog.Logger
}

// New creates a Server with the given configuration.
// A nil config uses DefaultConfig().
func New(config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	config.applyDefaults()

	logger := config.Logger.With("component", "server")
	s := &Server{
		config: config,
		hub:    NewHub(config.CheckOrigin, logger),
		stop:   make(chan struct{}),
		logger: logger,
	}

	if config.Registry != nil {
		s.metrics = middleware.NewMetrics(
			middleware.WithNamespace(config.MetricsNamespace),
			middleware.WithRegistry(config.Registry),
		)
		s.hub.onConnect = s.metrics.RecordWSConnect
		s.hub.onDisconnect = s.metrics.RecordWSDisconnect
	}

	s.visitors = newVisitors(func(id string) *toast.Store {
		return toast.NewStore(
			toast.WithDuration(config.ToastDuration),
			toast.WithEmitter(s.hub.Emitter(id)),
			toast.WithLogger(logger.With("session", id)),
		)
	})
	s.visitors.connected = s.hub.Connected

	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	if s.config.Tracing {
		r.Use(middleware.OpenTelemetry(
			middleware.WithTracerName("github.com/hoka-shop/storefront/pkg/server"),
			middleware.WithAttributeExtractor(sessionAttributes),
		))
	}
	if s.metrics != nil {
		r.Use(s.metrics.Handler)
	}
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	if s.config.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.config.Registry, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(s.withSession)

		r.Route("/api", func(r chi.Router) {
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", s.handleCartGet)
				r.Delete("/", s.handleCartReset)
				r.Post("/items", s.handleCartAdd)
				r.Delete("/items/{id}", s.handleCartRemove)
				r.Post("/items/{id}/increase", s.handleCartIncrease)
				r.Post("/items/{id}/decrease", s.handleCartDecrease)
			})
			r.Get("/darkmode", s.handleDarkModeGet)
			r.Post("/darkmode/toggle", s.handleDarkModeToggle)
			r.Get("/toasts", s.handleToastList)
			r.Post("/toasts", s.handleToastAdd)
			r.Delete("/toasts/{id}", s.handleToastRemove)
		})

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// sessionAttributes tags spans with the visitor session when the request
// carries a well-formed one.
func sessionAttributes(r *http.Request) []attribute.KeyValue {
	if id := requestSession(r); id != "" {
		return []attribute.KeyValue{attribute.String("storefront.session", id)}
	}
	return nil
}

// logRequests logs every request at debug level, and server errors at error level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		level := slog.LevelDebug
		if ww.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Config returns the server configuration.
func (s *Server) Config() *Config {
	return s.config
}

// Logger returns the server logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// Run listens on the configured address and serves until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}

	go s.cleanupLoop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String())
		errCh <- s.httpServer.Serve(ln)
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

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	select {
	case <-s.stop:
	default:
		close(s.stop)
	}

	s.hub.Close()
	s.visitors.closeAll()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// cleanupLoop drops idle sessions until the server stops.
func (s *Server) cleanupLoop() {
	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.visitors.sweep(s.config.SessionIdleTimeout); n > 0 {
				s.logger.Debug("idle sessions dropped", "count", n)
			}
		case <-s.stop:
			return
		}
	}
}
