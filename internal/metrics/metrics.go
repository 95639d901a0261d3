package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "guesthouse"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Bookings created, by insert mode.",
		},
		[]string{"mode"},
	)

	bookingConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_conflicts_total",
			Help:      "Booking attempts rejected because the room was taken.",
		},
	)

	paymentsRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_recorded_total",
			Help:      "Payments recorded by method and initial status.",
		},
		[]string{"method", "status"},
	)

	storeFallback = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_fallback_total",
			Help:      "Store operations served by the in-memory fallback.",
		},
		[]string{"operation"},
	)

	storeLive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_live",
			Help:      "1 while the live store serves requests, 0 in fallback mode.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			bookingsCreated,
			bookingConflicts,
			paymentsRecorded,
			storeFallback,
			storeLive,
		)
		storeLive.Set(1)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncBookingCreated(mode string) {
	bookingsCreated.WithLabelValues(mode).Inc()
}

func IncBookingConflict() {
	bookingConflicts.Inc()
}

func IncPaymentRecorded(method, status string) {
	paymentsRecorded.WithLabelValues(method, status).Inc()
}

func IncStoreFallback(operation string) {
	storeFallback.WithLabelValues(operation).Inc()
}

// SetStoreLive flips the store mode gauge.
func SetStoreLive(live bool) {
	if live {
		storeLive.Set(1)
		return
	}
	storeLive.Set(0)
}
