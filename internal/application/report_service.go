package application

import (
	"context"
	"fmt"
	"time"

	"github.com/stockpilot/ledger-service/internal/domain"
	"github.com/stockpilot/ledger-service/pkg/logging"
	"github.com/stockpilot/ledger-service/pkg/metrics"
)

const reportPageSize = 500

// ReportService builds point-in-time inventory reports. Reads work on
// repository snapshots and never take product locks, so reporting cannot
// block concurrent mutations.
type ReportService struct {
	records domain.StockRepository
	orders  domain.OrderLineReader
	metrics *metrics.Metrics
	logger  *logging.Logger
	now     func() time.Time
}

// NewReportService creates a report service
func NewReportService(
	records domain.StockRepository,
	orders domain.OrderLineReader,
	m *metrics.Metrics,
	logger *logging.Logger,
) *ReportService {
	return &ReportService{
		records: records,
		orders:  orders,
		metrics: m,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// GenerateReport aggregates current stock and confirmed sales into a report
func (s *ReportService) GenerateReport(ctx context.Context, query InventoryReportQuery) (*domain.InventoryReport, error) {
	start := time.Now()

	records, err := s.loadAllRecords(ctx, query.VendorID)
	if err != nil {
		s.metrics.RecordReportGenerated(false, time.Since(start))
		s.logger.Error("Failed to load stock records for report", "vendorId", query.VendorID, "error", err)
		return nil, fmt.Errorf("failed to load stock records: %w", err)
	}

	sold, err := s.orders.SoldQuantities(ctx, query.VendorID)
	if err != nil {
		s.metrics.RecordReportGenerated(false, time.Since(start))
		s.logger.Error("Failed to load sold quantities for report", "vendorId", query.VendorID, "error", err)
		return nil, fmt.Errorf("failed to load sold quantities: %w", err)
	}

	report := domain.BuildInventoryReport(records, sold, s.now())

	s.metrics.RecordReportGenerated(true, time.Since(start))
	s.logger.Info("Generated inventory report",
		"vendorId", query.VendorID,
		"totalProducts", report.TotalProducts,
		"lowStock", report.LowStockCount,
		"outOfStock", report.OutOfStockCount,
		"durationMs", time.Since(start).Milliseconds(),
	)
	return report, nil
}

func (s *ReportService) loadAllRecords(ctx context.Context, vendorID string) ([]*domain.StockRecord, error) {
	var all []*domain.StockRecord
	offset := 0
	for {
		var (
			page []*domain.StockRecord
			err  error
		)
		if vendorID != "" {
			page, _, err = s.records.FindByVendorID(ctx, vendorID, reportPageSize, offset)
		} else {
			page, _, err = s.records.FindAll(ctx, reportPageSize, offset)
		}
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < reportPageSize {
			return all, nil
		}
		offset += reportPageSize
	}
}
