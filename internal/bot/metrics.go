package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics структура для метрик Prometheus
type Metrics struct {
	CommandsProcessed    *prometheus.CounterVec
	ErrorsTotal          prometheus.Counter
	UpdateProcessingTime prometheus.Histogram
}

// NewMetrics registers the bot metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CommandsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guesthouse_bot_commands_total",
			Help: "Staff bot commands by command and outcome",
		}, []string{"command", "outcome"}),

		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "guesthouse_bot_errors_total",
			Help: "Panics recovered in the update handler",
		}),

		UpdateProcessingTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "guesthouse_bot_update_processing_time_seconds",
			Help:    "Time spent processing updates",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
