package dispatch

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	Dispatched     *prometheus.CounterVec
	Dropped        *prometheus.CounterVec
	ConsumerErrors prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		Dispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upi_payment_results_dispatched_total",
				Help: "Payment results delivered to a registered consumer",
			},
			[]string{"source"},
		),
		Dropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upi_payment_results_dropped_total",
				Help: "Payment results dropped by the dispatcher",
			},
			[]string{"reason"},
		),
		ConsumerErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "upi_payment_consumer_errors_total",
				Help: "Consumers that returned an error or panicked",
			},
		),
	}
}

func (m *Metrics) MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(m.Dispatched, m.Dropped, m.ConsumerErrors)
}
