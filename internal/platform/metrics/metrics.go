package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds process-wide HTTP metrics. Domain modules register their own
// metrics in their local metrics packages.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec
	SellersCreated  prometheus.Counter
}

// New creates and registers all platform metrics.
func New() *Metrics {
	return &Metrics{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "udyam_http_request_duration_seconds",
			Help:    "HTTP request duration by method and path",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "path"}),

		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "udyam_http_requests_total",
			Help: "Total HTTP requests by method, path, and status",
		}, []string{"method", "path", "status"}),

		SellersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "udyam_sellers_created_total",
			Help: "Total number of sellers created in the system",
		}),
	}
}

// ObserveRequest records one completed request.
func (m *Metrics) ObserveRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
	m.RequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

// IncrementSellersCreated increments the sellers created counter by 1.
func (m *Metrics) IncrementSellersCreated() {
	if m != nil {
		m.SellersCreated.Inc()
	}
}
