package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/stockpilot/ledger-service/internal/domain"
	"github.com/stockpilot/ledger-service/pkg/cloudevents"
	"github.com/stockpilot/ledger-service/pkg/kafka"
	"github.com/stockpilot/ledger-service/pkg/logging"
)

// EventProducer is the publishing surface the notifier needs from kafka
type EventProducer interface {
	PublishEvent(ctx context.Context, topic string, event *cloudevents.LedgerCloudEvent) error
}

// KafkaPublisher delivers ledger events and alert notifications to Kafka
// as CloudEvents. Stock events go to the events topic, alerts to the
// alerts topic.
type KafkaPublisher struct {
	producer     EventProducer
	eventFactory *cloudevents.EventFactory
	logger       *logging.Logger
}

// NewKafkaPublisher creates a Kafka-backed publisher
func NewKafkaPublisher(producer EventProducer, eventFactory *cloudevents.EventFactory, logger *logging.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer:     producer,
		eventFactory: eventFactory,
		logger:       logger,
	}
}

// PublishProductCreated emits a product created event
func (p *KafkaPublisher) PublishProductCreated(ctx context.Context, event domain.ProductCreatedEvent) error {
	ce := p.eventFactory.CreateProductCreatedEvent(ctx, cloudevents.ProductCreatedData{
		ProductID:         event.ProductID,
		VendorID:          event.VendorID,
		ProductName:       event.ProductName,
		Category:          event.Category,
		InitialStock:      event.InitialStock,
		LowStockThreshold: event.LowStockThreshold,
	})
	return p.producer.PublishEvent(ctx, kafka.Topics.InventoryEvents, ce)
}

// PublishStockChanged emits a stock changed event
func (p *KafkaPublisher) PublishStockChanged(ctx context.Context, event domain.StockChangedEvent) error {
	ce := p.eventFactory.CreateStockChangedEvent(ctx, cloudevents.StockChangedData{
		ProductID:     event.ProductID,
		MovementType:  string(event.MovementType),
		VariantID:     event.VariantID,
		Quantity:      event.Quantity,
		PreviousStock: event.PreviousStock,
		NewStock:      event.NewStock,
		ReferenceType: string(event.ReferenceType),
		ReferenceID:   event.ReferenceID,
		Reason:        event.Reason,
		PerformedBy:   event.PerformedBy,
		OccurredAt:    event.Timestamp,
	})
	return p.producer.PublishEvent(ctx, kafka.Topics.InventoryEvents, ce)
}

// PublishThresholdChanged emits a threshold changed event
func (p *KafkaPublisher) PublishThresholdChanged(ctx context.Context, event domain.ThresholdChangedEvent) error {
	ce := p.eventFactory.CreateThresholdChangedEvent(ctx, cloudevents.ThresholdChangedData{
		ProductID:         event.ProductID,
		PreviousThreshold: event.PreviousThreshold,
		NewThreshold:      event.NewThreshold,
		ReorderPoint:      event.ReorderPoint,
		UpdatedBy:         event.UpdatedBy,
	})
	return p.producer.PublishEvent(ctx, kafka.Topics.InventoryEvents, ce)
}

// PublishAlertRaised emits an alert notification on the alerts topic
func (p *KafkaPublisher) PublishAlertRaised(ctx context.Context, alert *domain.Alert, contact domain.VendorContact) error {
	ce := p.eventFactory.CreateAlertRaisedEvent(ctx, cloudevents.AlertRaisedData{
		AlertID:       alert.ID.Hex(),
		ProductID:     alert.ProductID,
		VendorID:      alert.VendorID,
		ProductName:   alert.ProductName,
		AlertType:     string(alert.AlertType),
		Severity:      string(alert.Severity),
		CurrentStock:  alert.CurrentStock,
		Threshold:     alert.Threshold,
		ReorderPoint:  alert.ReorderPoint,
		VendorContact: formatContact(contact),
	})
	return p.producer.PublishEvent(ctx, kafka.Topics.InventoryAlerts, ce)
}

// PublishAlertCleared emits an alert cleared notification
func (p *KafkaPublisher) PublishAlertCleared(ctx context.Context, productID, vendorID string, alertType domain.AlertType, currentStock, threshold int) error {
	ce := p.eventFactory.CreateAlertClearedEvent(ctx, cloudevents.AlertClearedData{
		ProductID:    productID,
		VendorID:     vendorID,
		AlertType:    string(alertType),
		CurrentStock: currentStock,
		Threshold:    threshold,
	})
	return p.producer.PublishEvent(ctx, kafka.Topics.InventoryAlerts, ce)
}

func formatContact(contact domain.VendorContact) string {
	parts := make([]string, 0, 3)
	if contact.Name != "" {
		parts = append(parts, contact.Name)
	}
	if contact.Email != "" {
		parts = append(parts, fmt.Sprintf("<%s>", contact.Email))
	}
	if contact.Phone != "" {
		parts = append(parts, contact.Phone)
	}
	return strings.Join(parts, " ")
}
