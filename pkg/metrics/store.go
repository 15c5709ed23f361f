package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics records client-state store activity.
type StoreMetrics struct {
	mutations       *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
	corruptReads    *prometheus.CounterVec
	reconciliations *prometheus.CounterVec
	suppressed      prometheus.Counter
}

// NewStoreMetrics registers the store metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_mutations_total",
		Help: "Mutations applied to client-state stores.",
	}, []string{"store", "op"})
	persistFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_persist_failures_total",
		Help: "Storage writes that failed and were swallowed.",
	}, []string{"store", "op"})
	corruptReads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_corrupt_reads_total",
		Help: "Persisted values that could not be decoded and were treated as empty.",
	}, []string{"key"})
	reconciliations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_reconciliations_total",
		Help: "Cart ownership reconciliations by outcome.",
	}, []string{"outcome"})
	suppressed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_suppressed_total",
		Help: "Cart notifications suppressed by debounce or an open cart panel.",
	})
	reg.MustRegister(mutations, persistFailures, corruptReads, reconciliations, suppressed)
	return &StoreMetrics{
		mutations:       mutations,
		persistFailures: persistFailures,
		corruptReads:    corruptReads,
		reconciliations: reconciliations,
		suppressed:      suppressed,
	}
}

// IncMutation counts a mutation applied by the named store.
func (m *StoreMetrics) IncMutation(store, op string) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(store), normalizeLabel(op)).Inc()
}

// IncPersistFailure counts a swallowed storage write failure.
func (m *StoreMetrics) IncPersistFailure(store, op string) {
	if m == nil || m.persistFailures == nil {
		return
	}
	m.persistFailures.WithLabelValues(normalizeLabel(store), normalizeLabel(op)).Inc()
}

// IncCorruptRead counts a persisted value that failed to decode.
func (m *StoreMetrics) IncCorruptRead(key string) {
	if m == nil || m.corruptReads == nil {
		return
	}
	m.corruptReads.WithLabelValues(normalizeLabel(key)).Inc()
}

// IncReconciliation counts a cart reconciliation outcome.
func (m *StoreMetrics) IncReconciliation(outcome string) {
	if m == nil || m.reconciliations == nil {
		return
	}
	m.reconciliations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncSuppressedNotification counts a debounced notification.
func (m *StoreMetrics) IncSuppressedNotification() {
	if m == nil || m.suppressed == nil {
		return
	}
	m.suppressed.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
