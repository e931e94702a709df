package kafka

import (
	"context"
	"log/slog"

	"github.com/stockpilot/ledger-service/pkg/cloudevents"
	"github.com/stockpilot/ledger-service/pkg/logging"
	"github.com/stockpilot/ledger-service/pkg/metrics"
	"github.com/stockpilot/ledger-service/pkg/resilience"
)

// CircuitBreakerProducer wraps InstrumentedProducer with circuit breaker protection
type CircuitBreakerProducer struct {
	producer       *InstrumentedProducer
	circuitBreaker *resilience.CircuitBreaker
	logger         *logging.Logger
}

// NewCircuitBreakerProducer creates a new circuit breaker protected Kafka producer
func NewCircuitBreakerProducer(producer *InstrumentedProducer, m *metrics.Metrics, logger *logging.Logger) *CircuitBreakerProducer {
	config := resilience.DefaultCircuitBreakerConfig("kafka-producer")
	config.MaxRequests = 5
	config.OnStateChange = func(name string, state int) {
		if m == nil {
			return
		}
		m.SetCircuitBreakerState(name, state)
		if state == resilience.StateOpen {
			m.RecordCircuitBreakerTrip(name)
		}
	}

	var slogLogger *slog.Logger
	if logger != nil && logger.Logger != nil {
		slogLogger = logger.Logger
	} else {
		slogLogger = slog.Default()
	}

	cb := resilience.NewCircuitBreaker(config, slogLogger)

	return &CircuitBreakerProducer{
		producer:       producer,
		circuitBreaker: cb,
		logger:         logger,
	}
}

// PublishEvent publishes a CloudEvent with circuit breaker protection
func (p *CircuitBreakerProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.LedgerCloudEvent) error {
	_, err := p.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return nil, p.producer.PublishEvent(ctx, topic, event)
	})
	return err
}

// Close closes the underlying producer
func (p *CircuitBreakerProducer) Close() error {
	return p.producer.Close()
}

// NewProductionProducer creates a fully configured Kafka producer with instrumentation and circuit breaker
func NewProductionProducer(config *Config, m *metrics.Metrics, logger *logging.Logger) *CircuitBreakerProducer {
	baseProducer := NewProducer(config)
	instrumentedProducer := NewInstrumentedProducer(baseProducer, m, logger)
	return NewCircuitBreakerProducer(instrumentedProducer, m, logger)
}

// NewProductionConsumer creates a fully configured Kafka consumer with instrumentation
func NewProductionConsumer(config *Config, m *metrics.Metrics, logger *logging.Logger) *InstrumentedConsumer {
	baseConsumer := NewConsumer(config, logger.Logger)
	return NewInstrumentedConsumer(baseConsumer, m, logger)
}
