package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockpilot/ledger-service/internal/domain"
	"github.com/stockpilot/ledger-service/pkg/logging"
	"github.com/stockpilot/ledger-service/pkg/metrics"
)

type dispatcherFixture struct {
	dispatcher *AlertDispatcher
	alerts     *fakeAlertRepo
	publisher  *fakeAlertPublisher
	clock      time.Time
}

func newDispatcherFixture(t *testing.T, cooldown time.Duration) *dispatcherFixture {
	t.Helper()

	alerts := newFakeAlertRepo()
	publisher := &fakeAlertPublisher{}
	dispatcher := NewAlertDispatcher(
		alerts,
		publisher,
		metrics.New(metrics.DefaultConfig("test")),
		logging.New(logging.DefaultConfig("test")),
		cooldown,
	)

	f := &dispatcherFixture{
		dispatcher: dispatcher,
		alerts:     alerts,
		publisher:  publisher,
		clock:      time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC),
	}
	dispatcher.now = func() time.Time { return f.clock }
	return f
}

func lowStockRecord(t *testing.T, stock int) *domain.StockRecord {
	t.Helper()
	record, err := domain.NewStockRecord("prod-001", "vendor-1", "Widget", "tools", 500, stock, nil, 10)
	require.NoError(t, err)
	record.PullEvents()
	return record
}

func TestReclassifyRaisesAndPersists(t *testing.T) {
	f := newDispatcherFixture(t, time.Hour)

	f.dispatcher.Reclassify(context.Background(), lowStockRecord(t, 5))

	alert, err := f.alerts.FindByProductAndType(context.Background(), "prod-001", domain.AlertLowStock)
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.True(t, alert.Active)
	assert.Equal(t, domain.SeverityHigh, alert.Severity)
	assert.Equal(t, 5, alert.CurrentStock)
	assert.Equal(t, 1, f.publisher.raisedCount())
}

func TestReclassifySuppressesWithinCooldown(t *testing.T) {
	f := newDispatcherFixture(t, time.Hour)
	record := lowStockRecord(t, 6)

	f.dispatcher.Reclassify(context.Background(), record)
	assert.Equal(t, 1, f.publisher.raisedCount())

	// same condition ten minutes later stays silent
	f.clock = f.clock.Add(10 * time.Minute)
	f.dispatcher.Reclassify(context.Background(), record)
	assert.Equal(t, 1, f.publisher.raisedCount())

	// after the cooldown elapses the alert is sent again
	f.clock = f.clock.Add(time.Hour)
	f.dispatcher.Reclassify(context.Background(), record)
	assert.Equal(t, 2, f.publisher.raisedCount())
}

func TestReclassifySeverityEscalationBypassesCooldown(t *testing.T) {
	f := newDispatcherFixture(t, time.Hour)

	f.dispatcher.Reclassify(context.Background(), lowStockRecord(t, 6))
	assert.Equal(t, 1, f.publisher.raisedCount())
	assert.Equal(t, domain.SeverityMedium, f.publisher.raised[0].Alert.Severity)

	f.clock = f.clock.Add(5 * time.Minute)
	f.dispatcher.Reclassify(context.Background(), lowStockRecord(t, 4))

	require.Equal(t, 2, f.publisher.raisedCount())
	assert.Equal(t, domain.SeverityHigh, f.publisher.raised[1].Alert.Severity)
}

func TestReclassifyTypeChangeDeactivatesPrevious(t *testing.T) {
	f := newDispatcherFixture(t, time.Hour)

	f.dispatcher.Reclassify(context.Background(), lowStockRecord(t, 5))
	f.clock = f.clock.Add(time.Minute)
	f.dispatcher.Reclassify(context.Background(), lowStockRecord(t, 0))

	lowStock, err := f.alerts.FindByProductAndType(context.Background(), "prod-001", domain.AlertLowStock)
	require.NoError(t, err)
	require.NotNil(t, lowStock)
	assert.False(t, lowStock.Active)

	outOfStock, err := f.alerts.FindByProductAndType(context.Background(), "prod-001", domain.AlertOutOfStock)
	require.NoError(t, err)
	require.NotNil(t, outOfStock)
	assert.True(t, outOfStock.Active)
	assert.Equal(t, 2, f.publisher.raisedCount())
}

func TestReclassifyClearsOnHealthyStock(t *testing.T) {
	f := newDispatcherFixture(t, time.Hour)

	f.dispatcher.Reclassify(context.Background(), lowStockRecord(t, 5))
	f.clock = f.clock.Add(time.Minute)
	f.dispatcher.Reclassify(context.Background(), lowStockRecord(t, 100))

	alert, err := f.alerts.FindByProductAndType(context.Background(), "prod-001", domain.AlertLowStock)
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.False(t, alert.Active)

	require.Len(t, f.publisher.cleared, 1)
	assert.Equal(t, domain.AlertLowStock, f.publisher.cleared[0].AlertType)
	assert.Equal(t, 100, f.publisher.cleared[0].Stock)
}

func TestReclassifyHealthyWithNoActiveAlertStaysQuiet(t *testing.T) {
	f := newDispatcherFixture(t, time.Hour)

	f.dispatcher.Reclassify(context.Background(), lowStockRecord(t, 100))

	assert.Equal(t, 0, f.publisher.raisedCount())
	assert.Empty(t, f.publisher.cleared)
}

func TestReclassifyReRaiseAfterClearDispatches(t *testing.T) {
	f := newDispatcherFixture(t, time.Hour)

	f.dispatcher.Reclassify(context.Background(), lowStockRecord(t, 5))
	f.clock = f.clock.Add(time.Minute)
	f.dispatcher.Reclassify(context.Background(), lowStockRecord(t, 100))
	f.clock = f.clock.Add(time.Minute)
	f.dispatcher.Reclassify(context.Background(), lowStockRecord(t, 5))

	// the condition recurring after a clear is a fresh alert, not a duplicate
	assert.Equal(t, 2, f.publisher.raisedCount())
}

func TestReclassifyPassesVendorContact(t *testing.T) {
	f := newDispatcherFixture(t, time.Hour)

	record := lowStockRecord(t, 5)
	record.VendorContact = domain.VendorContact{Name: "Acme", Email: "ops@acme.test"}

	f.dispatcher.Reclassify(context.Background(), record)

	require.Equal(t, 1, f.publisher.raisedCount())
	assert.Equal(t, "ops@acme.test", f.publisher.raised[0].Contact.Email)
}
