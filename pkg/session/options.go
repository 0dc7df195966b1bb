package session

import (
	"log/slog"

	"github.com/aretw0/stash/pkg/observability"
)

// Option configures a Session.
type Option func(*Session)

// WithLogger configures a logger for swallowed errors and lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithMetrics records session activity.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(s *Session) {
		s.metrics = metrics
	}
}
