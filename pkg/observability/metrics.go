package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the session metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "stash").
	Namespace string

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the session metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// Metrics holds the counters recorded by sessions.
type Metrics struct {
	sessions     *prometheus.CounterVec
	locks        *prometheus.CounterVec
	transactions *prometheus.CounterVec
	fallbacks    *prometheus.CounterVec
	operations   *prometheus.CounterVec
}

// NewMetrics creates and registers the session metrics.
func NewMetrics(opts ...MetricsOption) *Metrics {
	cfg := MetricsConfig{
		Namespace: "stash",
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	factory := promauto.With(cfg.Registry)
	return &Metrics{
		sessions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "sessions_total",
			Help:      "Sessions opened and closed.",
		}, []string{"event"}),
		locks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "locks_total",
			Help:      "Pessimistic lock outcomes by entity.",
		}, []string{"entity", "result"}),
		transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "transactions_total",
			Help:      "Transactions by outcome.",
		}, []string{"outcome"}),
		fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "keyvalue_fallbacks_total",
			Help:      "Backend errors swallowed by the key/value view.",
		}, []string{"op"}),
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "persister_operations_total",
			Help:      "Entity operations dispatched to persisters.",
		}, []string{"entity", "op", "result"}),
	}
}

// SessionOpened records a new session.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues("opened").Inc()
}

// SessionClosed records a disconnect.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues("closed").Inc()
}

// Lock records a lock outcome: "acquired", "failed" or "released".
func (m *Metrics) Lock(entity, result string) {
	if m == nil {
		return
	}
	m.locks.WithLabelValues(entity, result).Inc()
}

// Transaction records a transaction outcome: "begun", "refused", "committed" or "rolled_back".
func (m *Metrics) Transaction(outcome string) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(outcome).Inc()
}

// Fallback records a backend error swallowed by the key/value view.
func (m *Metrics) Fallback(op string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(op).Inc()
}

// Operation records a persister call and whether it failed.
func (m *Metrics) Operation(entity, op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(entity, op, result).Inc()
}
