package kafka

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/stockpilot/ledger-service/pkg/cloudevents"
	"github.com/stockpilot/ledger-service/pkg/logging"
	"github.com/stockpilot/ledger-service/pkg/metrics"
	"github.com/stockpilot/ledger-service/pkg/tracing"
)

// addLedgerCloudEventAttributes adds ledger extension attributes to a span
func addLedgerCloudEventAttributes(span trace.Span, event *cloudevents.LedgerCloudEvent) {
	if event.CorrelationID != "" {
		span.SetAttributes(attribute.String("ledger.correlation_id", event.CorrelationID))
	}
	if event.ProductID != "" {
		span.SetAttributes(attribute.String("ledger.product_id", event.ProductID))
	}
}

// InstrumentedProducer wraps a Producer with metrics and tracing
type InstrumentedProducer struct {
	producer *Producer
	metrics  *metrics.Metrics
	logger   *logging.Logger
	tracer   trace.Tracer
}

// NewInstrumentedProducer creates a new instrumented producer
func NewInstrumentedProducer(producer *Producer, m *metrics.Metrics, logger *logging.Logger) *InstrumentedProducer {
	return &InstrumentedProducer{
		producer: producer,
		metrics:  m,
		logger:   logger,
		tracer:   otel.Tracer("kafka-producer"),
	}
}

// PublishEvent publishes a CloudEvent with metrics and tracing
func (p *InstrumentedProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.LedgerCloudEvent) error {
	start := time.Now()

	// Start tracing span
	ctx, span := p.tracer.Start(ctx, "kafka.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystemKey.String("kafka"),
			semconv.MessagingDestinationNameKey.String(topic),
			semconv.MessagingOperationKey.String("publish"),
			attribute.String("messaging.kafka.event_type", event.Type),
			attribute.String("messaging.message_id", event.ID),
		),
	)
	defer span.End()

	// Add ledger CloudEvents extension attributes
	addLedgerCloudEventAttributes(span, event)

	// Inject trace context into event headers (via correlation ID for now)
	carrier := tracing.MapCarrier{}
	tracing.InjectTraceContext(ctx, carrier)
	if _, ok := carrier["traceparent"]; ok {
		// Store trace context in event for propagation
		if event.CorrelationID == "" {
			event.CorrelationID = event.ID
		}
	}

	// Publish the event
	err := p.producer.PublishEvent(ctx, topic, event)
	duration := time.Since(start)

	// Record metrics
	success := err == nil
	if p.metrics != nil {
		p.metrics.RecordKafkaPublish(topic, event.Type, success, duration)
	}

	// Log the operation
	if p.logger != nil {
		p.logger.KafkaPublish(ctx, topic, event.Type, success, duration)
	}

	// Update span status
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
		span.SetAttributes(attribute.Int64("messaging.duration_ms", duration.Milliseconds()))
	}

	return err
}

// Close closes the underlying producer
func (p *InstrumentedProducer) Close() error {
	return p.producer.Close()
}

// InstrumentedConsumer wraps a Consumer with metrics and tracing
type InstrumentedConsumer struct {
	consumer *Consumer
	metrics  *metrics.Metrics
	logger   *logging.Logger
	tracer   trace.Tracer
}

// NewInstrumentedConsumer creates a new instrumented consumer
func NewInstrumentedConsumer(consumer *Consumer, m *metrics.Metrics, logger *logging.Logger) *InstrumentedConsumer {
	return &InstrumentedConsumer{
		consumer: consumer,
		metrics:  m,
		logger:   logger,
		tracer:   otel.Tracer("kafka-consumer"),
	}
}

// Subscribe subscribes to a topic with instrumented handler
func (c *InstrumentedConsumer) Subscribe(topic string, eventType string, handler EventHandler) {
	wrappedHandler := c.instrumentHandler(topic, eventType, handler)
	c.consumer.Subscribe(topic, eventType, wrappedHandler)
}

// instrumentHandler wraps an event handler with metrics and tracing
func (c *InstrumentedConsumer) instrumentHandler(topic, eventType string, handler EventHandler) EventHandler {
	return func(ctx context.Context, event *cloudevents.LedgerCloudEvent) error {
		start := time.Now()

		// Extract trace context from event if available
		if event.CorrelationID != "" {
			carrier := tracing.MapCarrier{
				"correlationId": event.CorrelationID,
			}
			ctx = tracing.ExtractTraceContext(ctx, carrier)
		}

		// Start tracing span
		ctx, span := c.tracer.Start(ctx, "kafka.consume",
			trace.WithSpanKind(trace.SpanKindConsumer),
			trace.WithAttributes(
				semconv.MessagingSystemKey.String("kafka"),
				semconv.MessagingDestinationNameKey.String(topic),
				semconv.MessagingOperationKey.String("receive"),
				attribute.String("messaging.kafka.event_type", event.Type),
				attribute.String("messaging.message_id", event.ID),
				attribute.String("messaging.kafka.consumer_group", c.consumer.config.ConsumerGroup),
			),
		)
		defer span.End()

		// Add ledger CloudEvents extension attributes
		addLedgerCloudEventAttributes(span, event)

		// Handle the event
		err := handler(ctx, event)
		duration := time.Since(start)

		// Record metrics
		success := err == nil
		if c.metrics != nil {
			c.metrics.RecordKafkaConsume(topic, event.Type, success)
		}

		// Log the operation
		if c.logger != nil {
			c.logger.KafkaConsume(ctx, topic, event.Type, 0, 0) // partition/offset not available here
		}

		// Update span status
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
			span.SetAttributes(attribute.Int64("messaging.processing_duration_ms", duration.Milliseconds()))
		}

		return err
	}
}

// Start starts the instrumented consumer
func (c *InstrumentedConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

// Close closes the underlying consumer
func (c *InstrumentedConsumer) Close() error {
	return c.consumer.Close()
}
