package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Transition results recorded by PurchaseRequestTransitions.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	// PurchaseRequestTransitions counts workflow actions by action and result.
	PurchaseRequestTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockflow_purchase_request_transitions_total",
		Help: "Total number of purchase request workflow actions by action and result",
	}, []string{"action", "result"})

	// StockReceivedUnits counts units added to inventory through receipts.
	StockReceivedUnits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockflow_stock_received_units_total",
		Help: "Total number of stock units added by received purchase requests",
	})

	// ItemsProvisioned counts inventory items created by receipts of new items.
	ItemsProvisioned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockflow_inventory_items_provisioned_total",
		Help: "Total number of inventory items created by received purchase requests",
	})

	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockflow_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockflow_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// EventSubscribers is the gauge of open realtime event feeds.
	EventSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stockflow_event_subscribers",
		Help: "Number of open realtime event feed connections",
	})
)

// RecordTransition increments the transition counter for action.
func RecordTransition(action string, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	PurchaseRequestTransitions.WithLabelValues(action, result).Inc()
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
