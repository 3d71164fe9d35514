package metrics

import (
	"math/big"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/feral-file/chain-estates/internal/domain"
)

const namespace = "chain_estates"

// Metrics holds all Prometheus metrics for the ledger. A nil *Metrics records nothing.
type Metrics struct {
	// Ledger operations by operation and outcome (ok or the error kind)
	Operations *prometheus.CounterVec

	// Ledger operation latency by operation
	OperationLatency *prometheus.HistogramVec

	// Completed sales and the value they moved
	Sales       prometheus.Counter
	SalesVolume prometheus.Counter

	// Events handed to the broker by the relay, and how far the relay trails the log head
	RelayPublished prometheus.Counter
	RelayLag       prometheus.Gauge

	// HTTP requests by method, route and status
	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec
}

// New creates a new Metrics instance with all metrics registered on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_operations_total",
			Help:      "Total ledger operations by operation and outcome",
		}, []string{"operation", "outcome"}),

		OperationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ledger_operation_duration_seconds",
			Help:      "Duration of ledger operations including the store transaction",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),

		Sales: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_total",
			Help:      "Total completed property sales",
		}),

		SalesVolume: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_volume_ether_total",
			Help:      "Total value moved by property sales, in ether",
		}),

		RelayPublished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_published_events_total",
			Help:      "Total ledger events published to the message broker",
		}),

		RelayLag: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "relay_lag_events",
			Help:      "Number of committed events not yet published",
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),

		HTTPLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests by method and route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// ObserveOperation records the outcome and latency of a ledger operation
func (m *Metrics) ObserveOperation(operation string, err error, d time.Duration) {
	if m == nil {
		return
	}

	outcome := "ok"
	if err != nil {
		outcome = string(domain.KindOf(err))
	}
	m.Operations.WithLabelValues(operation, outcome).Inc()
	m.OperationLatency.WithLabelValues(operation).Observe(d.Seconds())
}

// ObserveSale records a completed sale
func (m *Metrics) ObserveSale(price *big.Int) {
	if m == nil || price == nil {
		return
	}

	ether, _ := new(big.Float).Quo(new(big.Float).SetInt(price), big.NewFloat(1e18)).Float64()
	m.Sales.Inc()
	m.SalesVolume.Add(ether)
}

// ObserveRelay records published events and the remaining lag
func (m *Metrics) ObserveRelay(published int, lag uint64) {
	if m == nil {
		return
	}

	m.RelayPublished.Add(float64(published))
	m.RelayLag.Set(float64(lag))
}

// ObserveHTTPRequest records a served HTTP request
func (m *Metrics) ObserveHTTPRequest(method, route string, status string, d time.Duration) {
	if m == nil {
		return
	}

	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPLatency.WithLabelValues(method, route).Observe(d.Seconds())
}
