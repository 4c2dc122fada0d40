package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	CalculationsTotal       *prometheus.CounterVec
	NonConformitiesDetected prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		CalculationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "agrocert_compliance_calculations_total",
			Help: "Total compliance calculations by resulting overall status",
		}, []string{"status"}),
		NonConformitiesDetected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "agrocert_compliance_nonconformities_detected_total",
			Help: "Total non-conformities created by the compliance engine",
		}),
	}
}

func (m *Metrics) IncCalculations(status string) {
	m.CalculationsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) IncNonConformitiesDetected() {
	m.NonConformitiesDetected.Inc()
}
