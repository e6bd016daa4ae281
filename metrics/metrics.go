package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ImportMetrics provides observability for bulk imports.
type ImportMetrics struct {
	// Preview/confirm calls by kind (single, double, teams) and outcome
	Operations *prometheus.CounterVec

	// Rows processed in previews by kind and result (accepted, rejected)
	Rows *prometheus.CounterVec

	// Records written on confirm by kind
	Created *prometheus.CounterVec

	Duration *prometheus.HistogramVec
}

// New registers the import metrics in reg.
func New(reg prometheus.Registerer) *ImportMetrics {
	factory := promauto.With(reg)
	return &ImportMetrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "registration_import_operations_total",
			Help: "Import operations by kind, phase and outcome",
		}, []string{"kind", "phase", "outcome"}),

		Rows: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "registration_import_rows_total",
			Help: "Rows validated during preview by kind and result",
		}, []string{"kind", "result"}),

		Created: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "registration_import_created_total",
			Help: "Records persisted by confirmed imports",
		}, []string{"kind"}),

		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "registration_import_duration_seconds",
			Help:    "Duration of import phases",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind", "phase"}),
	}
}

func (m *ImportMetrics) IncOperation(kind, phase, outcome string) {
	if m != nil {
		m.Operations.WithLabelValues(kind, phase, outcome).Inc()
	}
}

// ObserveRows records row outcomes of one preview.
func (m *ImportMetrics) ObserveRows(kind string, accepted, rejected int) {
	if m != nil {
		m.Rows.WithLabelValues(kind, "accepted").Add(float64(accepted))
		m.Rows.WithLabelValues(kind, "rejected").Add(float64(rejected))
	}
}

func (m *ImportMetrics) AddCreated(kind string, n int) {
	if m != nil {
		m.Created.WithLabelValues(kind).Add(float64(n))
	}
}

func (m *ImportMetrics) ObserveDuration(kind, phase string, d time.Duration) {
	if m != nil {
		m.Duration.WithLabelValues(kind, phase).Observe(d.Seconds())
	}
}
