package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventFactory creates CloudEvents for inventory ledger domain events
type EventFactory struct {
	source string
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source}
}

// CreateEvent creates a new LedgerCloudEvent with the given parameters
func (f *EventFactory) CreateEvent(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
) *LedgerCloudEvent {
	event := &LedgerCloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            data,
		Extensions:      make(map[string]interface{}),
	}

	return event
}

// CreateEventWithCorrelation creates an event with correlation tracking
func (f *EventFactory) CreateEventWithCorrelation(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
	correlationID string,
	productID string,
) *LedgerCloudEvent {
	event := f.CreateEvent(ctx, eventType, subject, data)
	event.CorrelationID = correlationID
	event.ProductID = productID
	return event
}

// CreateStockChangedEvent creates a StockChanged event
func (f *EventFactory) CreateStockChangedEvent(
	ctx context.Context,
	data StockChangedData,
) *LedgerCloudEvent {
	event := f.CreateEvent(ctx, StockChanged, "product/"+data.ProductID, data)
	event.ProductID = data.ProductID
	return event
}

// CreateThresholdChangedEvent creates a ThresholdChanged event
func (f *EventFactory) CreateThresholdChangedEvent(
	ctx context.Context,
	data ThresholdChangedData,
) *LedgerCloudEvent {
	event := f.CreateEvent(ctx, ThresholdChanged, "product/"+data.ProductID, data)
	event.ProductID = data.ProductID
	return event
}

// CreateProductCreatedEvent creates a ProductCreated event
func (f *EventFactory) CreateProductCreatedEvent(
	ctx context.Context,
	data ProductCreatedData,
) *LedgerCloudEvent {
	event := f.CreateEvent(ctx, ProductCreated, "product/"+data.ProductID, data)
	event.ProductID = data.ProductID
	return event
}

// CreateAlertRaisedEvent creates an AlertRaised event
func (f *EventFactory) CreateAlertRaisedEvent(
	ctx context.Context,
	data AlertRaisedData,
) *LedgerCloudEvent {
	event := f.CreateEvent(ctx, AlertRaised, "alert/"+data.AlertID, data)
	event.ProductID = data.ProductID
	return event
}

// CreateAlertClearedEvent creates an AlertCleared event
func (f *EventFactory) CreateAlertClearedEvent(
	ctx context.Context,
	data AlertClearedData,
) *LedgerCloudEvent {
	event := f.CreateEvent(ctx, AlertCleared, "product/"+data.ProductID, data)
	event.ProductID = data.ProductID
	return event
}
