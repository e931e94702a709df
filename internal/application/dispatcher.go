package application

import (
	"context"
	"time"

	"github.com/stockpilot/ledger-service/internal/domain"
	"github.com/stockpilot/ledger-service/pkg/logging"
	"github.com/stockpilot/ledger-service/pkg/metrics"
)

// DefaultAlertCooldown suppresses repeat notifications for the same
// (product, alert type) pair within this window.
const DefaultAlertCooldown = time.Hour

// AlertPublisher delivers alert notifications to the event stream
type AlertPublisher interface {
	PublishAlertRaised(ctx context.Context, alert *domain.Alert, contact domain.VendorContact) error
	PublishAlertCleared(ctx context.Context, productID, vendorID string, alertType domain.AlertType, currentStock, threshold int) error
}

// AlertDispatcher classifies stock snapshots and dispatches notifications.
// Dispatch is best effort: classification state is persisted first and
// publish failures are logged without failing the triggering mutation.
type AlertDispatcher struct {
	alerts    domain.AlertRepository
	publisher AlertPublisher
	metrics   *metrics.Metrics
	logger    *logging.Logger
	cooldown  time.Duration
	now       func() time.Time
}

// NewAlertDispatcher creates an alert dispatcher
func NewAlertDispatcher(
	alerts domain.AlertRepository,
	publisher AlertPublisher,
	m *metrics.Metrics,
	logger *logging.Logger,
	cooldown time.Duration,
) *AlertDispatcher {
	if cooldown <= 0 {
		cooldown = DefaultAlertCooldown
	}
	return &AlertDispatcher{
		alerts:    alerts,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		cooldown:  cooldown,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Reclassify evaluates the record's current stock condition, persists the
// resulting alert state and dispatches a notification when one is due.
// Errors are logged and swallowed so callers never fail on alerting.
func (d *AlertDispatcher) Reclassify(ctx context.Context, record *domain.StockRecord) {
	snapshot := record.Snapshot()
	classification, active := domain.Classify(snapshot)

	if !active {
		d.clear(ctx, record, snapshot)
		return
	}

	now := d.now()

	existing, err := d.alerts.FindByProductAndType(ctx, record.ProductID, classification.AlertType)
	if err != nil {
		d.logger.WithProduct(record.ProductID).Error("Failed to load alert state", "alertType", classification.AlertType, "error", err)
		return
	}

	// a type change deactivates the previously active alert
	if err := d.alerts.DeactivateByProduct(ctx, record.ProductID); err != nil {
		d.logger.WithProduct(record.ProductID).Error("Failed to deactivate previous alerts", "error", err)
		return
	}

	alert := existing
	if alert == nil {
		alert = &domain.Alert{
			ProductID: record.ProductID,
			AlertType: classification.AlertType,
			CreatedAt: now,
		}
	}

	send := alert.ShouldDispatch(now, d.cooldown) ||
		!alert.Active ||
		alert.Severity != classification.Severity

	alert.VendorID = record.VendorID
	alert.ProductName = record.ProductName
	alert.Severity = classification.Severity
	alert.CurrentStock = snapshot.TotalStock
	alert.Threshold = snapshot.Threshold
	alert.ReorderPoint = snapshot.ReorderPoint
	alert.Active = true
	alert.UpdatedAt = now
	if send {
		alert.LastSentAt = now
	}

	if err := d.alerts.Upsert(ctx, alert); err != nil {
		d.logger.WithProduct(record.ProductID).Error("Failed to persist alert state", "alertType", alert.AlertType, "error", err)
		return
	}

	if !send {
		d.metrics.RecordAlertSuppressed(string(alert.AlertType))
		d.logger.WithProduct(record.ProductID).Debug("Alert suppressed by cooldown",
			"alertType", alert.AlertType,
			"lastSentAt", alert.LastSentAt,
		)
		return
	}

	d.metrics.RecordAlertRaised(string(alert.AlertType), string(alert.Severity))
	d.logger.WithProduct(record.ProductID).Warn("Stock alert raised",
		"alertType", alert.AlertType,
		"severity", alert.Severity,
		"currentStock", alert.CurrentStock,
		"threshold", alert.Threshold,
	)

	if err := d.publisher.PublishAlertRaised(ctx, alert, record.VendorContact); err != nil {
		d.metrics.RecordAlertDispatchFailure(string(alert.AlertType))
		d.logger.WithProduct(record.ProductID).Error("Failed to dispatch alert notification",
			"alertType", alert.AlertType,
			"error", err,
		)
	}
}

func (d *AlertDispatcher) clear(ctx context.Context, record *domain.StockRecord, snapshot domain.Snapshot) {
	existing, _, err := d.activeForProduct(ctx, record.ProductID)
	if err != nil {
		d.logger.WithProduct(record.ProductID).Error("Failed to load alert state", "error", err)
		return
	}
	if existing == nil {
		return
	}

	if err := d.alerts.DeactivateByProduct(ctx, record.ProductID); err != nil {
		d.logger.WithProduct(record.ProductID).Error("Failed to clear alert state", "error", err)
		return
	}

	d.metrics.RecordAlertCleared(string(existing.AlertType))
	d.logger.WithProduct(record.ProductID).Info("Stock alert cleared",
		"alertType", existing.AlertType,
		"currentStock", snapshot.TotalStock,
	)

	if err := d.publisher.PublishAlertCleared(ctx, record.ProductID, record.VendorID, existing.AlertType, snapshot.TotalStock, snapshot.Threshold); err != nil {
		d.metrics.RecordAlertDispatchFailure(string(existing.AlertType))
		d.logger.WithProduct(record.ProductID).Error("Failed to dispatch alert cleared notification", "error", err)
	}
}

func (d *AlertDispatcher) activeForProduct(ctx context.Context, productID string) (*domain.Alert, bool, error) {
	for _, alertType := range []domain.AlertType{domain.AlertOutOfStock, domain.AlertLowStock, domain.AlertReorderPoint} {
		alert, err := d.alerts.FindByProductAndType(ctx, productID, alertType)
		if err != nil {
			return nil, false, err
		}
		if alert != nil && alert.Active {
			return alert, true, nil
		}
	}
	return nil, false, nil
}
