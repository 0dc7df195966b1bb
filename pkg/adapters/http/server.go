package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aretw0/stash/internal/logging"
	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/finder"
	"github.com/aretw0/stash/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxValueSize caps PUT /kv/{key} bodies.
const maxValueSize = 1 << 20

// Server exposes the key/value view and registered finders over HTTP.
// Every request runs in its own session.
type Server struct {
	factory session.Factory
	finders *finder.Registry
	metrics http.Handler
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler replaces the default Prometheus handler served at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewHandler creates the HTTP handler. finders may be nil.
func NewHandler(factory session.Factory, finders *finder.Registry, opts ...Option) http.Handler {
	s := &Server{
		factory: factory,
		finders: finders,
		metrics: promhttp.Handler(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.finders == nil {
		s.finders = finder.NewRegistry()
	}

	r := chi.NewRouter()
	r.Get("/kv", s.withSession(s.Keys))
	r.Get("/kv/_size", s.withSession(s.Size))
	r.Get("/kv/{key}", s.withSession(s.Get))
	r.Put("/kv/{key}", s.withSession(s.Put))
	r.Delete("/kv/{key}", s.withSession(s.Remove))
	r.Get("/entities/{entity}/{method}", s.withSession(s.Find))
	r.Handle("/metrics", s.metrics)
	return r
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *session.Session)

// withSession opens a session for the request and disconnects it afterwards.
func (s *Server) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess, err := s.factory.Connect(ctx)
		if err != nil {
			http.Error(w, "Backend unavailable", http.StatusServiceUnavailable)
			s.logger.Error("Session connect failed", "error", err, "path", r.URL.Path)
			return
		}
		defer func() {
			if err := sess.Disconnect(ctx); err != nil {
				s.logger.Warn("Session disconnect failed", "error", err)
			}
		}()
		next(w, r, sess)
	}
}

// Keys handles GET /kv.
func (s *Server) Keys(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	kv, err := sess.KeyValue()
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"keys": kv.Keys(r.Context())})
}

// Size handles GET /kv/_size.
func (s *Server) Size(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	kv, err := sess.KeyValue()
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"size": kv.Size(r.Context())})
}

// Get handles GET /kv/{key}.
func (s *Server) Get(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	kv, err := sess.KeyValue()
	if err != nil {
		s.fail(w, err)
		return
	}
	key := chi.URLParam(r, "key")
	value, ok := kv.Get(r.Context(), key)
	if !ok {
		http.Error(w, fmt.Sprintf("Key %q not found", key), http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"key": key, "value": value})
}

// Put handles PUT /kv/{key}. The body is the raw value.
func (s *Server) Put(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxValueSize))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Put: Invalid request body", "error", err)
		return
	}
	kv, err := sess.KeyValue()
	if err != nil {
		s.fail(w, err)
		return
	}
	key := chi.URLParam(r, "key")
	previous, replaced := kv.Put(r.Context(), key, string(body))
	if !replaced {
		s.writeJSON(w, http.StatusCreated, map[string]any{"key": key})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"key": key, "previous": previous})
}

// Remove handles DELETE /kv/{key}.
func (s *Server) Remove(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	kv, err := sess.KeyValue()
	if err != nil {
		s.fail(w, err)
		return
	}
	key := chi.URLParam(r, "key")
	if !kv.Remove(r.Context(), key) {
		http.Error(w, fmt.Sprintf("Key %q not found", key), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Find handles GET /entities/{entity}/{method}?arg=... with one arg per finder property.
func (s *Server) Find(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	entity, method := chi.URLParam(r, "entity"), chi.URLParam(r, "method")
	values := r.URL.Query()["arg"]
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}

	result, err := s.finders.Invoke(r.Context(), sess, entity, method, args...)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", "error", err)
	}
	http.Error(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownFinder),
		errors.Is(err, domain.ErrNotPersistent),
		errors.Is(err, domain.ErrEntityNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrFinderArguments):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnsupportedOperation):
		return http.StatusNotImplemented
	case errors.Is(err, domain.ErrSessionClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "error", err)
	}
}
