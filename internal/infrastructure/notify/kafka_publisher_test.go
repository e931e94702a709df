package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockpilot/ledger-service/internal/domain"
	"github.com/stockpilot/ledger-service/pkg/cloudevents"
	"github.com/stockpilot/ledger-service/pkg/kafka"
	"github.com/stockpilot/ledger-service/pkg/logging"
)

type capturedEvent struct {
	Topic string
	Event *cloudevents.LedgerCloudEvent
}

type fakeProducer struct {
	published  []capturedEvent
	publishErr error
}

func (f *fakeProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.LedgerCloudEvent) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, capturedEvent{Topic: topic, Event: event})
	return nil
}

func newPublisherFixture() (*KafkaPublisher, *fakeProducer) {
	producer := &fakeProducer{}
	publisher := NewKafkaPublisher(
		producer,
		cloudevents.NewEventFactory(cloudevents.SourceLedger),
		logging.New(logging.DefaultConfig("test")),
	)
	return publisher, producer
}

func TestPublishStockChangedGoesToEventsTopic(t *testing.T) {
	publisher, producer := newPublisherFixture()

	err := publisher.PublishStockChanged(context.Background(), domain.StockChangedEvent{
		ProductID:     "prod-001",
		MovementType:  domain.MovementOut,
		Quantity:      5,
		PreviousStock: 20,
		NewStock:      15,
		Reason:        "order",
		PerformedBy:   "user-1",
		Timestamp:     time.Now().UTC(),
	})
	require.NoError(t, err)

	require.Len(t, producer.published, 1)
	assert.Equal(t, kafka.Topics.InventoryEvents, producer.published[0].Topic)
	assert.Equal(t, cloudevents.StockChanged, producer.published[0].Event.Type)
	assert.Equal(t, "prod-001", producer.published[0].Event.ProductID)

	data, ok := producer.published[0].Event.Data.(cloudevents.StockChangedData)
	require.True(t, ok)
	assert.Equal(t, "OUT", data.MovementType)
	assert.Equal(t, 15, data.NewStock)
}

func TestPublishAlertRaisedGoesToAlertsTopic(t *testing.T) {
	publisher, producer := newPublisherFixture()

	alert := &domain.Alert{
		ProductID:    "prod-001",
		VendorID:     "vendor-1",
		ProductName:  "Widget",
		AlertType:    domain.AlertLowStock,
		Severity:     domain.SeverityHigh,
		CurrentStock: 5,
		Threshold:    10,
		ReorderPoint: 15,
	}
	contact := domain.VendorContact{Name: "Acme", Email: "ops@acme.test", Phone: "+1555"}

	err := publisher.PublishAlertRaised(context.Background(), alert, contact)
	require.NoError(t, err)

	require.Len(t, producer.published, 1)
	assert.Equal(t, kafka.Topics.InventoryAlerts, producer.published[0].Topic)

	data, ok := producer.published[0].Event.Data.(cloudevents.AlertRaisedData)
	require.True(t, ok)
	assert.Equal(t, "LOW_STOCK", data.AlertType)
	assert.Equal(t, "HIGH", data.Severity)
	assert.Equal(t, "Acme <ops@acme.test> +1555", data.VendorContact)
}

func TestPublishAlertClearedGoesToAlertsTopic(t *testing.T) {
	publisher, producer := newPublisherFixture()

	err := publisher.PublishAlertCleared(context.Background(), "prod-001", "vendor-1", domain.AlertOutOfStock, 30, 10)
	require.NoError(t, err)

	require.Len(t, producer.published, 1)
	assert.Equal(t, kafka.Topics.InventoryAlerts, producer.published[0].Topic)
	assert.Equal(t, cloudevents.AlertCleared, producer.published[0].Event.Type)

	data, ok := producer.published[0].Event.Data.(cloudevents.AlertClearedData)
	require.True(t, ok)
	assert.Equal(t, "prod-001", data.ProductID)
	assert.Equal(t, "vendor-1", data.VendorID)
	assert.Equal(t, "OUT_OF_STOCK", data.AlertType)
	assert.Equal(t, 30, data.CurrentStock)
}

func TestPublishPropagatesProducerError(t *testing.T) {
	publisher, producer := newPublisherFixture()
	producer.publishErr = assert.AnError

	err := publisher.PublishProductCreated(context.Background(), domain.ProductCreatedEvent{ProductID: "prod-001"})
	assert.Error(t, err)
}
