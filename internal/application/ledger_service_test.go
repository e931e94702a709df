package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockpilot/ledger-service/internal/domain"
	"github.com/stockpilot/ledger-service/pkg/errors"
	"github.com/stockpilot/ledger-service/pkg/logging"
	"github.com/stockpilot/ledger-service/pkg/metrics"
)

type serviceFixture struct {
	service        *LedgerService
	records        *fakeStockRepo
	movements      *fakeMovementRepo
	alerts         *fakeAlertRepo
	alertPublisher *fakeAlertPublisher
	eventPublisher *fakeEventPublisher
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	logger := logging.New(logging.DefaultConfig("test"))
	m := metrics.New(metrics.DefaultConfig("test"))

	records := newFakeStockRepo()
	movements := &fakeMovementRepo{}
	alerts := newFakeAlertRepo()
	alertPublisher := &fakeAlertPublisher{}
	eventPublisher := &fakeEventPublisher{}

	dispatcher := NewAlertDispatcher(alerts, alertPublisher, m, logger, time.Hour)
	service := NewLedgerService(
		records,
		movements,
		&fakeLedger{records: records, movements: movements},
		dispatcher,
		eventPublisher,
		m,
		logger,
		time.Second,
		10,
	)

	return &serviceFixture{
		service:        service,
		records:        records,
		movements:      movements,
		alerts:         alerts,
		alertPublisher: alertPublisher,
		eventPublisher: eventPublisher,
	}
}

func (f *serviceFixture) createProduct(t *testing.T, productID string, stock int, threshold *int) *StockRecordDTO {
	t.Helper()
	dto, err := f.service.CreateProduct(context.Background(), CreateProductCommand{
		ProductID:    productID,
		VendorID:     "vendor-1",
		ProductName:  "Product " + productID,
		Category:     "tools",
		UnitPrice:    500,
		InitialStock: stock,
		Threshold:    threshold,
		PerformedBy:  "test",
	})
	require.NoError(t, err)
	return dto
}

func intPtr(v int) *int { return &v }

func TestCreateProductAppliesDefaultThreshold(t *testing.T) {
	f := newServiceFixture(t)

	dto := f.createProduct(t, "prod-001", 50, nil)

	assert.Equal(t, 10, dto.LowStockThreshold)
	assert.Equal(t, 15, dto.ReorderPoint)
	assert.Equal(t, 50, dto.TotalStock)
	assert.Len(t, f.eventPublisher.events, 1)
}

func TestCreateProductRejectsDuplicate(t *testing.T) {
	f := newServiceFixture(t)
	f.createProduct(t, "prod-001", 50, nil)

	_, err := f.service.CreateProduct(context.Background(), CreateProductCommand{
		ProductID:   "prod-001",
		VendorID:    "vendor-1",
		ProductName: "Duplicate",
		PerformedBy: "test",
	})

	require.Error(t, err)
	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.CodeConflict, appErr.Code)
}

func TestApplyMutationOutRaisesHighLowStockAlert(t *testing.T) {
	f := newServiceFixture(t)
	f.createProduct(t, "prod-001", 20, intPtr(10))

	result, err := f.service.ApplyMutation(context.Background(), ApplyMutationCommand{
		ProductID:    "prod-001",
		MovementType: "OUT",
		Quantity:     15,
		Reason:       "order fulfillment",
		PerformedBy:  "user-1",
	})
	require.NoError(t, err)

	assert.Equal(t, 5, result.Record.TotalStock)
	assert.False(t, result.Clamped)
	assert.Equal(t, 15, result.Movement.Quantity)

	// 5 <= ceil(10/2) classifies as HIGH low stock
	alert, err := f.alerts.FindByProductAndType(context.Background(), "prod-001", domain.AlertLowStock)
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.True(t, alert.Active)
	assert.Equal(t, domain.SeverityHigh, alert.Severity)
	assert.Equal(t, 1, f.alertPublisher.raisedCount())
}

func TestApplyMutationOutClampsAndRaisesOutOfStock(t *testing.T) {
	f := newServiceFixture(t)
	f.createProduct(t, "prod-001", 5, intPtr(10))

	result, err := f.service.ApplyMutation(context.Background(), ApplyMutationCommand{
		ProductID:    "prod-001",
		MovementType: "OUT",
		Quantity:     20,
		Reason:       "oversold order",
		PerformedBy:  "user-1",
	})
	require.NoError(t, err)

	assert.True(t, result.Clamped)
	assert.Equal(t, 0, result.Record.TotalStock)
	// the movement logs what was actually removed
	assert.Equal(t, 5, result.Movement.Quantity)

	alert, err := f.alerts.FindByProductAndType(context.Background(), "prod-001", domain.AlertOutOfStock)
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.Equal(t, domain.SeverityCritical, alert.Severity)
}

func TestApplyMutationReorderPointBoundary(t *testing.T) {
	f := newServiceFixture(t)
	f.createProduct(t, "prod-001", 14, intPtr(10))

	alert, err := f.alerts.FindByProductAndType(context.Background(), "prod-001", domain.AlertReorderPoint)
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.True(t, alert.Active)
	assert.Equal(t, domain.SeverityLow, alert.Severity)

	// 14 + 1 = 15 is still at the reorder point, boundary is inclusive
	result, err := f.service.ApplyMutation(context.Background(), ApplyMutationCommand{
		ProductID:    "prod-001",
		MovementType: "IN",
		Quantity:     1,
		Reason:       "restock",
		PerformedBy:  "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 15, result.Record.TotalStock)

	alert, err = f.alerts.FindByProductAndType(context.Background(), "prod-001", domain.AlertReorderPoint)
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.True(t, alert.Active)
}

func TestApplyMutationClearsAlertOnRecovery(t *testing.T) {
	f := newServiceFixture(t)
	f.createProduct(t, "prod-001", 5, intPtr(10))

	_, err := f.service.ApplyMutation(context.Background(), ApplyMutationCommand{
		ProductID:    "prod-001",
		MovementType: "IN",
		Quantity:     100,
		Reason:       "restock",
		PerformedBy:  "user-1",
	})
	require.NoError(t, err)

	alert, err := f.alerts.FindByProductAndType(context.Background(), "prod-001", domain.AlertLowStock)
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.False(t, alert.Active)
	assert.Len(t, f.alertPublisher.cleared, 1)
}

func TestApplyMutationUnknownProduct(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.ApplyMutation(context.Background(), ApplyMutationCommand{
		ProductID:    "missing",
		MovementType: "IN",
		Quantity:     1,
		Reason:       "restock",
		PerformedBy:  "user-1",
	})

	require.Error(t, err)
	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.CodeNotFound, appErr.Code)
}

func TestApplyMutationDispatchFailureDoesNotFailMutation(t *testing.T) {
	f := newServiceFixture(t)
	f.createProduct(t, "prod-001", 20, intPtr(10))
	f.alertPublisher.publishErr = assert.AnError

	result, err := f.service.ApplyMutation(context.Background(), ApplyMutationCommand{
		ProductID:    "prod-001",
		MovementType: "OUT",
		Quantity:     18,
		Reason:       "order",
		PerformedBy:  "user-1",
	})

	// the balance and movement were persisted despite the failed dispatch
	require.NoError(t, err)
	assert.Equal(t, 2, result.Record.TotalStock)
	count, err := f.movements.CountByProductID(context.Background(), "prod-001")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestApplyMutationBatchItemsAreIndependent(t *testing.T) {
	f := newServiceFixture(t)
	f.createProduct(t, "prod-001", 20, intPtr(10))
	f.createProduct(t, "prod-002", 10, intPtr(5))

	result := f.service.ApplyMutationBatch(context.Background(), BatchMutationCommand{
		Items: []ApplyMutationCommand{
			{ProductID: "prod-001", MovementType: "OUT", Quantity: 5, Reason: "order", PerformedBy: "u"},
			{ProductID: "missing", MovementType: "OUT", Quantity: 5, Reason: "order", PerformedBy: "u"},
			{ProductID: "prod-002", MovementType: "IN", Quantity: 3, Reason: "restock", PerformedBy: "u"},
		},
	})

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)

	assert.True(t, result.Items[0].Success)
	assert.False(t, result.Items[1].Success)
	assert.NotEmpty(t, result.Items[1].Error)
	assert.True(t, result.Items[2].Success)

	// the failed middle item did not roll back its neighbors
	dto, err := f.service.GetInventory(context.Background(), GetInventoryQuery{ProductID: "prod-001"})
	require.NoError(t, err)
	assert.Equal(t, 15, dto.TotalStock)
	dto, err = f.service.GetInventory(context.Background(), GetInventoryQuery{ProductID: "prod-002"})
	require.NoError(t, err)
	assert.Equal(t, 13, dto.TotalStock)
}

func TestApplyMutationBusyWhenLockHeld(t *testing.T) {
	f := newServiceFixture(t)
	f.createProduct(t, "prod-001", 20, intPtr(10))

	release, err := f.service.locks.Acquire(context.Background(), "prod-001")
	require.NoError(t, err)
	defer release()

	_, err = f.service.ApplyMutation(context.Background(), ApplyMutationCommand{
		ProductID:    "prod-001",
		MovementType: "IN",
		Quantity:     1,
		Reason:       "restock",
		PerformedBy:  "u",
	})

	require.Error(t, err)
	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.CodeBusy, appErr.Code)
}

func TestSetThresholdReclassifiesImmediately(t *testing.T) {
	f := newServiceFixture(t)
	f.createProduct(t, "prod-001", 20, intPtr(10))

	// healthy at threshold 10, no active alert
	alerts, _, err := f.alerts.FindActive(context.Background(), "", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, alerts)

	dto, err := f.service.SetThreshold(context.Background(), SetThresholdCommand{
		ProductID:   "prod-001",
		Threshold:   25,
		PerformedBy: "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, 25, dto.LowStockThreshold)
	assert.Equal(t, 38, dto.ReorderPoint)

	// 20 <= 25 now classifies as low stock without any movement
	alert, err := f.alerts.FindByProductAndType(context.Background(), "prod-001", domain.AlertLowStock)
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.True(t, alert.Active)
	assert.Equal(t, domain.SeverityMedium, alert.Severity)
}

func TestGetMovementHistoryMostRecentFirst(t *testing.T) {
	f := newServiceFixture(t)
	f.createProduct(t, "prod-001", 0, intPtr(10))

	for _, qty := range []int{5, 7, 2} {
		_, err := f.service.ApplyMutation(context.Background(), ApplyMutationCommand{
			ProductID:    "prod-001",
			MovementType: "IN",
			Quantity:     qty,
			Reason:       "restock",
			PerformedBy:  "u",
		})
		require.NoError(t, err)
	}

	movements, total, err := f.service.GetMovementHistory(context.Background(), MovementHistoryQuery{ProductID: "prod-001"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, movements, 3)
	assert.Equal(t, 2, movements[0].Quantity)
	assert.Equal(t, 5, movements[2].Quantity)
}

func TestListInventoryScopedByVendor(t *testing.T) {
	f := newServiceFixture(t)
	f.createProduct(t, "prod-001", 20, nil)

	_, err := f.service.CreateProduct(context.Background(), CreateProductCommand{
		ProductID:    "prod-other",
		VendorID:     "vendor-2",
		ProductName:  "Other",
		InitialStock: 5,
		PerformedBy:  "test",
	})
	require.NoError(t, err)

	dtos, total, err := f.service.ListInventory(context.Background(), ListInventoryQuery{VendorID: "vendor-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, dtos, 1)
	assert.Equal(t, "prod-001", dtos[0].ProductID)
}
