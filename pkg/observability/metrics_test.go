package observability_test

import (
	"errors"
	"testing"

	"github.com/aretw0/stash/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(observability.WithRegistry(reg), observability.WithNamespace("test"))

	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	m.Lock("Book", "acquired")
	m.Transaction("committed")
	m.Fallback("size")
	m.Operation("Book", "persist", nil)
	m.Operation("Book", "persist", errors.New("boom"))

	count, err := testutil.GatherAndCount(reg)
	assert.NoError(t, err)
	// opened, closed, acquired, committed, size, ok, error
	assert.Equal(t, 7, count)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *observability.Metrics
	assert.NotPanics(t, func() {
		m.SessionOpened()
		m.SessionClosed()
		m.Lock("Book", "failed")
		m.Transaction("refused")
		m.Fallback("get")
		m.Operation("Book", "retrieve", nil)
	})
}
