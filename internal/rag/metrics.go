package rag

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline counters exposed on /metrics.
type Metrics struct {
	IngestsTotal   *prometheus.CounterVec
	QueriesTotal   *prometheus.CounterVec
	SessionsReaped prometheus.Counter
}

// NewMetrics registers the pipeline metrics with reg. sessionCount feeds the
// active-session gauge.
func NewMetrics(reg prometheus.Registerer, sessionCount func() float64) *Metrics {
	factory := promauto.With(reg)
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "docchat_active_sessions",
		Help: "Number of live sessions held in memory.",
	}, sessionCount)
	return &Metrics{
		IngestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docchat_ingests_total",
			Help: "Document ingestions by result.",
		}, []string{"result"}),
		QueriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docchat_queries_total",
			Help: "Session queries by result.",
		}, []string{"result"}),
		SessionsReaped: factory.NewCounter(prometheus.CounterOpts{
			Name: "docchat_sessions_reaped_total",
			Help: "Sessions evicted by the reaper.",
		}),
	}
}

func (m *Metrics) ingest(result string) {
	if m != nil {
		m.IngestsTotal.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) query(result string) {
	if m != nil {
		m.QueriesTotal.WithLabelValues(result).Inc()
	}
}
