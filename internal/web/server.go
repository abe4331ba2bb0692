// Package web exposes visitor sessions over HTTP and WebSocket so a browser
// front end can drive the same controller as the terminal UI.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/csheth/bioengine/internal/core"
	"github.com/csheth/bioengine/internal/nav"
)

const (
	maxIntentBytes  = 16 << 10
	shutdownTimeout = 5 * time.Second
)

// Options configures a Server.
type Options struct {
	Addr        string
	MaxSessions int
	// Runtime is the template for every session. Hooks are replaced by the
	// server's metrics hooks.
	Runtime core.Options
	Logger  *zap.Logger
}

// Server owns the session registry and the HTTP handler in front of it.
type Server struct {
	addr     string
	registry *Registry
	metrics  *Metrics
	handler  http.Handler
	log      *zap.Logger
}

func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	metrics := NewMetrics()
	runtimeOpts := opts.Runtime
	runtimeOpts.Hooks = metrics.Hooks()
	if runtimeOpts.Logger == nil {
		runtimeOpts.Logger = opts.Logger
	}
	s := &Server{
		addr:     opts.Addr,
		registry: NewRegistry(opts.MaxSessions, runtimeOpts, metrics),
		metrics:  metrics,
		log:      opts.Logger.Named("web"),
	}
	s.handler = s.routes()
	return s
}

// Handler returns the root router.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) Registry() *Registry { return s.registry }

// Run serves until ctx is cancelled, then drains in-flight requests and
// closes every session.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.registry.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.registry.Close()
	s.log.Info("server stopped")
	return err
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.registry.Len()})
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api/sessions", func(api chi.Router) {
		api.Post("/", s.handleCreate)
		api.Route("/{sessionID}", func(sr chi.Router) {
			sr.Get("/", s.handleGet)
			sr.Delete("/", s.handleDelete)
			sr.Post("/intents", s.handleIntent)
		})
	})
	r.Get("/ws/{sessionID}", s.handleWebSocket)
	return r
}

type sessionResponse struct {
	ID       string        `json:"id"`
	Snapshot core.Snapshot `json:"snapshot"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	id, rt, err := s.registry.Create()
	if err != nil {
		respondErr(w, err)
		return
	}
	snap, err := rt.Snapshot(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, sessionResponse{ID: id, Snapshot: snap})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rt, err := s.registry.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondErr(w, err)
		return
	}
	snap, err := rt.Snapshot(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Remove(chi.URLParam(r, "sessionID")); err != nil {
		respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleIntent(w http.ResponseWriter, r *http.Request) {
	rt, err := s.registry.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondErr(w, err)
		return
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxIntentBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_intent", "invalid request body")
		return
	}
	intent, err := core.DecodeIntent(raw)
	if err != nil {
		respondErr(w, err)
		return
	}
	snap, err := rt.Dispatch(r.Context(), intent)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// errorCode maps domain errors onto the stable codes clients switch on.
func errorCode(err error) string {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, nav.ErrLoginRequired):
		return "login_required"
	case errors.Is(err, core.ErrUnknownIntent),
		errors.Is(err, nav.ErrUnknownPage),
		errors.As(err, &syntaxErr),
		errors.As(err, &typeErr):
		return "bad_intent"
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, core.ErrClosed):
		return "session_not_found"
	case errors.Is(err, ErrTooManySessions):
		return "too_many_sessions"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "internal"
	}
}

func statusFor(code string) int {
	switch code {
	case "login_required":
		return http.StatusConflict
	case "bad_intent":
		return http.StatusBadRequest
	case "session_not_found":
		return http.StatusNotFound
	case "too_many_sessions":
		return http.StatusServiceUnavailable
	case "cancelled":
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondErr(w http.ResponseWriter, err error) {
	code := errorCode(err)
	respondError(w, statusFor(code), code, err.Error())
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: code, Message: message})
}

// requestLogger is middleware.Logger with zap as the sink.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Debug("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("elapsed", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
