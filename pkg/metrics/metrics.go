package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all ledger service metrics
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Kafka metrics
	KafkaEventsPublished *prometheus.CounterVec
	KafkaEventsConsumed  *prometheus.CounterVec
	KafkaPublishDuration *prometheus.HistogramVec

	// MongoDB metrics

	// Ledger business metrics
	MovementsApplied    *prometheus.CounterVec
	OutMovementsClamped *prometheus.CounterVec
	BatchItemsProcessed *prometheus.CounterVec
	LockTimeouts        *prometheus.CounterVec

	// Alert metrics
	AlertsRaised          *prometheus.CounterVec
	AlertsSuppressed      *prometheus.CounterVec
	AlertsCleared         *prometheus.CounterVec
	AlertDispatchFailures *prometheus.CounterVec

	// Reporting metrics
	ReportsGenerated *prometheus.CounterVec
	ReportDuration   *prometheus.HistogramVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
	Subsystem   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "stockpilot",
		Subsystem:   serviceName,
	}
}

// New creates a new Metrics instance
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()

	// Register standard Go metrics
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,
	}

	// HTTP metrics
	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"service", "method", "path"},
	)

	m.HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "http_requests_in_flight",
			Help:        "Number of HTTP requests currently being processed",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	// Kafka metrics
	m.KafkaEventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "kafka_events_published_total",
			Help:      "Total number of Kafka events published",
		},
		[]string{"service", "topic", "event_type", "status"},
	)

	m.KafkaEventsConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "kafka_events_consumed_total",
			Help:      "Total number of Kafka events consumed",
		},
		[]string{"service", "topic", "event_type", "status"},
	)

	m.KafkaPublishDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "kafka_publish_duration_seconds",
			Help:      "Kafka publish duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"service", "topic"},
	)

	// Ledger business metrics
	m.MovementsApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "movements_applied_total",
			Help:      "Total number of stock movements applied",
		},
		[]string{"service", "movement_type", "reference_type"},
	)

	m.OutMovementsClamped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "out_movements_clamped_total",
			Help:      "Total number of OUT movements clamped to available stock",
		},
		[]string{"service"},
	)

	m.BatchItemsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "batch_items_processed_total",
			Help:      "Total number of batch mutation items processed",
		},
		[]string{"service", "status"},
	)

	m.LockTimeouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "lock_timeouts_total",
			Help:      "Total number of product lock acquisition timeouts",
		},
		[]string{"service"},
	)

	// Alert metrics
	m.AlertsRaised = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "alerts_raised_total",
			Help:      "Total number of stock alerts raised",
		},
		[]string{"service", "alert_type", "severity"},
	)

	m.AlertsSuppressed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "alerts_suppressed_total",
			Help:      "Total number of stock alerts suppressed by cooldown",
		},
		[]string{"service", "alert_type"},
	)

	m.AlertsCleared = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "alerts_cleared_total",
			Help:      "Total number of stock alerts cleared",
		},
		[]string{"service", "alert_type"},
	)

	m.AlertDispatchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "alert_dispatch_failures_total",
			Help:      "Total number of alert dispatch failures",
		},
		[]string{"service", "alert_type"},
	)

	// Reporting metrics
	m.ReportsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "reports_generated_total",
			Help:      "Total number of inventory reports generated",
		},
		[]string{"service", "status"},
	)

	m.ReportDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "report_duration_seconds",
			Help:      "Inventory report generation duration in seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"service"},
	)

	// Circuit breaker metrics
	m.CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"service", "name"},
	)

	m.CircuitBreakerTrips = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "circuit_breaker_trips_total",
			Help:      "Total number of circuit breaker trips",
		},
		[]string{"service", "name"},
	)

	// Register all metrics
	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.KafkaEventsPublished,
		m.KafkaEventsConsumed,
		m.KafkaPublishDuration,
		m.MovementsApplied,
		m.OutMovementsClamped,
		m.BatchItemsProcessed,
		m.LockTimeouts,
		m.AlertsRaised,
		m.AlertsSuppressed,
		m.AlertsCleared,
		m.AlertDispatchFailures,
		m.ReportsGenerated,
		m.ReportDuration,
		m.CircuitBreakerState,
		m.CircuitBreakerTrips,
	)

	return m
}

// Handler returns an HTTP handler for metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	statusStr := strconv.Itoa(status)
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(duration.Seconds())
}

// RecordKafkaPublish records a Kafka publish event
func (m *Metrics) RecordKafkaPublish(topic, eventType string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	m.KafkaEventsPublished.WithLabelValues(m.serviceName, topic, eventType, status).Inc()
	m.KafkaPublishDuration.WithLabelValues(m.serviceName, topic).Observe(duration.Seconds())
}

// RecordKafkaConsume records a Kafka consume event
func (m *Metrics) RecordKafkaConsume(topic, eventType string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.KafkaEventsConsumed.WithLabelValues(m.serviceName, topic, eventType, status).Inc()
}

// RecordMovementApplied records an applied stock movement
func (m *Metrics) RecordMovementApplied(movementType, referenceType string) {
	m.MovementsApplied.WithLabelValues(m.serviceName, movementType, referenceType).Inc()
}

// RecordOutMovementClamped records an OUT movement clamped to available stock
func (m *Metrics) RecordOutMovementClamped() {
	m.OutMovementsClamped.WithLabelValues(m.serviceName).Inc()
}

// RecordBatchItem records a processed batch mutation item
func (m *Metrics) RecordBatchItem(success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.BatchItemsProcessed.WithLabelValues(m.serviceName, status).Inc()
}

// RecordLockTimeout records a product lock acquisition timeout
func (m *Metrics) RecordLockTimeout() {
	m.LockTimeouts.WithLabelValues(m.serviceName).Inc()
}

// RecordAlertRaised records a raised stock alert
func (m *Metrics) RecordAlertRaised(alertType, severity string) {
	m.AlertsRaised.WithLabelValues(m.serviceName, alertType, severity).Inc()
}

// RecordAlertSuppressed records an alert suppressed by cooldown
func (m *Metrics) RecordAlertSuppressed(alertType string) {
	m.AlertsSuppressed.WithLabelValues(m.serviceName, alertType).Inc()
}

// RecordAlertCleared records a cleared stock alert
func (m *Metrics) RecordAlertCleared(alertType string) {
	m.AlertsCleared.WithLabelValues(m.serviceName, alertType).Inc()
}

// RecordAlertDispatchFailure records an alert dispatch failure
func (m *Metrics) RecordAlertDispatchFailure(alertType string) {
	m.AlertDispatchFailures.WithLabelValues(m.serviceName, alertType).Inc()
}

// RecordReportGenerated records an inventory report generation
func (m *Metrics) RecordReportGenerated(success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	m.ReportsGenerated.WithLabelValues(m.serviceName, status).Inc()
	m.ReportDuration.WithLabelValues(m.serviceName).Observe(duration.Seconds())
}

// SetCircuitBreakerState sets the circuit breaker state
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.CircuitBreakerState.WithLabelValues(m.serviceName, name).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(name string) {
	m.CircuitBreakerTrips.WithLabelValues(m.serviceName, name).Inc()
}

// IncrementHTTPRequestsInFlight increments in-flight requests
func (m *Metrics) IncrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight decrements in-flight requests
func (m *Metrics) DecrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}
