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

func newReportFixture(t *testing.T, orders *fakeOrderLineReader) (*ReportService, *fakeStockRepo) {
	t.Helper()

	records := newFakeStockRepo()
	service := NewReportService(
		records,
		orders,
		metrics.New(metrics.DefaultConfig("test")),
		logging.New(logging.DefaultConfig("test")),
	)
	return service, records
}

func seedRecord(t *testing.T, repo *fakeStockRepo, productID, category string, unitPrice int64, stock, threshold int, age time.Duration) {
	t.Helper()
	record, err := domain.NewStockRecord(productID, "vendor-1", "Product "+productID, category, unitPrice, stock, nil, threshold)
	require.NoError(t, err)
	record.CreatedAt = time.Now().UTC().Add(-age)
	require.NoError(t, repo.Save(context.Background(), record))
}

func TestGenerateReport(t *testing.T) {
	orders := &fakeOrderLineReader{sold: map[string]int{
		"prod-seller": 120,
		"prod-low":    8,
	}}
	service, records := newReportFixture(t, orders)

	seedRecord(t, records, "prod-seller", "tools", 1000, 80, 10, 48*time.Hour)
	seedRecord(t, records, "prod-low", "tools", 500, 3, 10, 30*24*time.Hour)
	seedRecord(t, records, "prod-empty", "", 200, 0, 10, 90*24*time.Hour)

	report, err := service.GenerateReport(context.Background(), InventoryReportQuery{VendorID: "vendor-1"})
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalProducts)
	assert.Equal(t, int64(80*1000+3*500), report.TotalValue)
	assert.Equal(t, 1, report.LowStockCount)
	assert.Equal(t, 1, report.OutOfStockCount)

	require.Len(t, report.TopSellers, 2)
	assert.Equal(t, "prod-seller", report.TopSellers[0].ProductID)

	// only stocked products rank as slow movers, prod-empty is excluded
	require.Len(t, report.SlowMovers, 2)
	assert.Equal(t, "prod-low", report.SlowMovers[0].ProductID)
	assert.Equal(t, 30, report.SlowMovers[0].DaysInStock)

	var categories []string
	for _, stat := range report.CategoryBreakdown {
		categories = append(categories, stat.Category)
	}
	assert.Contains(t, categories, "Uncategorized")
	assert.Contains(t, categories, "tools")
}

func TestGenerateReportEmptyLedger(t *testing.T) {
	service, _ := newReportFixture(t, &fakeOrderLineReader{})

	report, err := service.GenerateReport(context.Background(), InventoryReportQuery{})
	require.NoError(t, err)

	assert.Equal(t, 0, report.TotalProducts)
	assert.Empty(t, report.TopSellers)
	assert.Empty(t, report.SlowMovers)
}

func TestGenerateReportOrderReaderFailure(t *testing.T) {
	service, records := newReportFixture(t, &fakeOrderLineReader{readErr: assert.AnError})
	seedRecord(t, records, "prod-001", "tools", 100, 10, 5, time.Hour)

	_, err := service.GenerateReport(context.Background(), InventoryReportQuery{})
	require.Error(t, err)
}
