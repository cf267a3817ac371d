package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/ppiankov/ipintel/internal/history"
	"github.com/ppiankov/ipintel/internal/model"
	"github.com/ppiankov/ipintel/internal/pipeline"
	"github.com/ppiankov/ipintel/internal/provider"
)

const shutdownTimeout = 30 * time.Second

// Checker performs a complete lookup for one IP
type Checker interface {
	CheckIP(ctx context.Context, ip string) (*pipeline.Result, error)
}

// Server exposes lookups and search history over HTTP
type Server struct {
	cfg     *model.Config
	checker Checker
	history *history.Store // nil disables the history routes
	logger  *slog.Logger
	started time.Time
	router  chi.Router
}

// New creates a server. hist may be nil.
func New(cfg *model.Config, checker Checker, hist *history.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		cfg:     cfg,
		checker: checker,
		history: hist,
		logger:  logger,
		started: time.Now(),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	if s.cfg.Server.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(requestLogger(s.logger))
	r.Use(chimw.Recoverer)

	// Frontend runs on a different origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.With(s.intelRateLimit()).Get("/intel", s.handleIntel)

		if s.history != nil {
			r.Get("/history", s.handleHistoryList)
			r.Delete("/history", s.handleHistoryClear)
		}
	})

	return r
}

// intelRateLimit limits lookups per client IP, since every lookup spends provider quota.
// The client IP is the socket peer unless proxy headers are trusted.
func (s *Server) intelRateLimit() func(http.Handler) http.Handler {
	limit := s.cfg.RateLimiting.RequestsPerWindow
	window := s.cfg.RateLimiting.Window
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if window <= 0 {
		window = time.Minute
	}

	retryAfter := fmt.Sprintf("%d seconds", int(window.Seconds()))

	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusTooManyRequests, model.ErrorResponse{
				Error:      labelRateLimit,
				Message:    "Too many requests. Please try again in a minute.",
				StatusCode: http.StatusTooManyRequests,
				RetryAfter: retryAfter,
			})
		}),
	)
}

type healthResponse struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Uptime:    time.Since(s.started).Seconds(),
	})
}

// handleIntel serves GET /api/intel?ip=<address>
func (s *Server) handleIntel(w http.ResponseWriter, r *http.Request) {
	ip := r.URL.Query().Get("ip")

	result, err := s.checker.CheckIP(r.Context(), ip)
	if err != nil {
		status, label, message := errorStatus(err)

		if provider.KindOf(err) == provider.KindAuthFailed {
			s.logger.Error("provider rejected credentials", "error", err)
		} else if status >= 500 {
			s.logger.Error("lookup failed", "ip", ip, "kind", provider.KindOf(err), "error", err)
		}

		writeError(w, status, label, message)
		return
	}

	writeJSON(w, http.StatusOK, result.Record)
}

func (s *Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	items, err := s.history.List()
	if err != nil {
		s.logger.Error("failed to read history", "error", err)
		writeError(w, http.StatusInternalServerError, labelError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleHistoryClear(w http.ResponseWriter, r *http.Request) {
	if err := s.history.Clear(); err != nil {
		s.logger.Error("failed to clear history", "error", err)
		writeError(w, http.StatusInternalServerError, labelError, "Internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Server.Host, strconv.Itoa(s.cfg.Server.Port))

	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("Server stopped")
	return nil
}
