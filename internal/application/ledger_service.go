package application

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/stockpilot/ledger-service/internal/domain"
	"github.com/stockpilot/ledger-service/pkg/errors"
	"github.com/stockpilot/ledger-service/pkg/logging"
	"github.com/stockpilot/ledger-service/pkg/metrics"
)

// DefaultLockTimeout bounds how long a mutation waits for a product lock
const DefaultLockTimeout = 5 * time.Second

// EventPublisher delivers ledger domain events to the event stream
type EventPublisher interface {
	PublishProductCreated(ctx context.Context, event domain.ProductCreatedEvent) error
	PublishStockChanged(ctx context.Context, event domain.StockChangedEvent) error
	PublishThresholdChanged(ctx context.Context, event domain.ThresholdChangedEvent) error
}

// LedgerService handles stock record and movement use cases. Mutations on
// the same product are serialized by a keyed lock; the balance update and
// movement append are persisted atomically before alert classification runs.
type LedgerService struct {
	records          domain.StockRepository
	movements        domain.MovementRepository
	ledger           domain.TransactionalLedger
	dispatcher       *AlertDispatcher
	publisher        EventPublisher
	metrics          *metrics.Metrics
	logger           *logging.Logger
	locks            *keyedLock
	lockTimeout      time.Duration
	defaultThreshold int
}

// NewLedgerService creates a ledger service
func NewLedgerService(
	records domain.StockRepository,
	movements domain.MovementRepository,
	ledger domain.TransactionalLedger,
	dispatcher *AlertDispatcher,
	publisher EventPublisher,
	m *metrics.Metrics,
	logger *logging.Logger,
	lockTimeout time.Duration,
	defaultThreshold int,
) *LedgerService {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	if defaultThreshold < 0 {
		defaultThreshold = 0
	}
	return &LedgerService{
		records:          records,
		movements:        movements,
		ledger:           ledger,
		dispatcher:       dispatcher,
		publisher:        publisher,
		metrics:          m,
		logger:           logger,
		locks:            newKeyedLock(),
		lockTimeout:      lockTimeout,
		defaultThreshold: defaultThreshold,
	}
}

// CreateProduct registers a stock record for a product
func (s *LedgerService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (*StockRecordDTO, error) {
	existing, err := s.records.FindByProductID(ctx, cmd.ProductID)
	if err != nil {
		s.logger.Error("Failed to check existing record", "productId", cmd.ProductID, "error", err)
		return nil, fmt.Errorf("failed to check existing record: %w", err)
	}
	if existing != nil {
		return nil, errors.ErrConflict(fmt.Sprintf("product %s already has a stock record", cmd.ProductID))
	}

	threshold := s.defaultThreshold
	if cmd.Threshold != nil {
		threshold = *cmd.Threshold
	}

	variants := make([]domain.VariantStock, 0, len(cmd.Variants))
	for _, v := range cmd.Variants {
		variants = append(variants, domain.VariantStock{VariantID: v.VariantID, Name: v.Name, Quantity: v.Quantity})
	}

	record, err := domain.NewStockRecord(cmd.ProductID, cmd.VendorID, cmd.ProductName, cmd.Category, cmd.UnitPrice, cmd.InitialStock, variants, threshold)
	if err != nil {
		return nil, errors.MapDomainError(err)
	}
	record.VendorContact = domain.VendorContact{Name: cmd.VendorName, Email: cmd.VendorEmail, Phone: cmd.VendorPhone}

	events := record.PullEvents()

	if err := s.records.Save(ctx, record); err != nil {
		// two concurrent creates race past the existence check; the unique
		// index decides
		if stderrors.Is(err, domain.ErrRecordExists) {
			return nil, errors.MapDomainError(err)
		}
		s.logger.Error("Failed to save stock record", "productId", cmd.ProductID, "error", err)
		return nil, fmt.Errorf("failed to save stock record: %w", err)
	}

	s.publishEvents(ctx, events)
	s.dispatcher.Reclassify(ctx, record)

	s.logger.WithProduct(cmd.ProductID).Info("Created stock record",
		"vendorId", cmd.VendorID,
		"initialStock", record.TotalStock(),
		"threshold", threshold,
	)
	return ToStockRecordDTO(record), nil
}

// ApplyMutation applies one stock movement to a product. The product lock
// bounds waiting by the configured timeout and surfaces contention as a
// busy error rather than queueing indefinitely.
func (s *LedgerService) ApplyMutation(ctx context.Context, cmd ApplyMutationCommand) (*MutationResultDTO, error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	release, err := s.locks.Acquire(lockCtx, cmd.ProductID)
	if err != nil {
		s.metrics.RecordLockTimeout()
		s.logger.WithProduct(cmd.ProductID).Warn("Mutation rejected, product lock busy")
		return nil, errors.ErrBusy(fmt.Sprintf("product %s", cmd.ProductID))
	}
	defer release()

	return s.applyLocked(ctx, cmd)
}

func (s *LedgerService) applyLocked(ctx context.Context, cmd ApplyMutationCommand) (*MutationResultDTO, error) {
	record, err := s.records.FindByProductID(ctx, cmd.ProductID)
	if err != nil {
		s.logger.Error("Failed to load stock record", "productId", cmd.ProductID, "error", err)
		return nil, fmt.Errorf("failed to load stock record: %w", err)
	}
	if record == nil {
		return nil, errors.ErrNotFound(fmt.Sprintf("stock record for product %s", cmd.ProductID))
	}

	movement, err := record.ApplyMutation(domain.MutationRequest{
		MovementType:  domain.MovementType(cmd.MovementType),
		Quantity:      cmd.Quantity,
		VariantID:     cmd.VariantID,
		Reason:        cmd.Reason,
		ReferenceID:   cmd.ReferenceID,
		ReferenceType: domain.ReferenceType(cmd.ReferenceType),
		PerformedBy:   cmd.PerformedBy,
		Extra:         cmd.Extra,
	})
	if err != nil {
		return nil, errors.MapDomainError(err)
	}

	events := record.PullEvents()

	if err := s.ledger.SaveWithMovement(ctx, record, movement); err != nil {
		s.logger.Error("Failed to persist mutation", "productId", cmd.ProductID, "error", err)
		return nil, fmt.Errorf("failed to persist mutation: %w", err)
	}

	clamped := false
	for _, e := range events {
		if changed, ok := e.(domain.StockChangedEvent); ok && changed.Clamped {
			clamped = true
		}
	}

	s.metrics.RecordMovementApplied(cmd.MovementType, cmd.ReferenceType)
	if clamped {
		s.metrics.RecordOutMovementClamped()
	}

	s.publishEvents(ctx, events)
	s.dispatcher.Reclassify(ctx, record)

	s.logger.Audit(ctx, "stock.mutation", "stock_record", cmd.ProductID, cmd.PerformedBy, map[string]any{
		"movementType":  cmd.MovementType,
		"quantity":      movement.Quantity,
		"previousStock": movement.PreviousStock,
		"newStock":      movement.NewStock,
		"clamped":       clamped,
	})

	return &MutationResultDTO{
		Record:   ToStockRecordDTO(record),
		Movement: ToMovementDTO(movement),
		Clamped:  clamped,
	}, nil
}

// ApplyMutationBatch applies each item independently. One failing item
// never rolls back or blocks the others; per-item outcomes are reported.
func (s *LedgerService) ApplyMutationBatch(ctx context.Context, cmd BatchMutationCommand) *BatchResultDTO {
	result := &BatchResultDTO{
		Total: len(cmd.Items),
		Items: make([]BatchItemResultDTO, 0, len(cmd.Items)),
	}

	for _, item := range cmd.Items {
		itemResult, err := s.ApplyMutation(ctx, item)
		if err != nil {
			result.Failed++
			s.metrics.RecordBatchItem(false)
			result.Items = append(result.Items, BatchItemResultDTO{
				ProductID: item.ProductID,
				Success:   false,
				Error:     err.Error(),
			})
			continue
		}
		result.Succeeded++
		s.metrics.RecordBatchItem(true)
		result.Items = append(result.Items, BatchItemResultDTO{
			ProductID: item.ProductID,
			Success:   true,
			Result:    itemResult,
		})
	}

	s.logger.Info("Applied mutation batch",
		"total", result.Total,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)
	return result
}

// SetThreshold updates the low stock threshold and reclassifies immediately
func (s *LedgerService) SetThreshold(ctx context.Context, cmd SetThresholdCommand) (*StockRecordDTO, error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	release, err := s.locks.Acquire(lockCtx, cmd.ProductID)
	if err != nil {
		s.metrics.RecordLockTimeout()
		return nil, errors.ErrBusy(fmt.Sprintf("product %s", cmd.ProductID))
	}
	defer release()

	record, err := s.records.FindByProductID(ctx, cmd.ProductID)
	if err != nil {
		s.logger.Error("Failed to load stock record", "productId", cmd.ProductID, "error", err)
		return nil, fmt.Errorf("failed to load stock record: %w", err)
	}
	if record == nil {
		return nil, errors.ErrNotFound(fmt.Sprintf("stock record for product %s", cmd.ProductID))
	}

	if err := record.SetLowStockThreshold(cmd.Threshold, cmd.PerformedBy); err != nil {
		return nil, errors.MapDomainError(err)
	}

	events := record.PullEvents()

	if err := s.records.Update(ctx, record); err != nil {
		s.logger.Error("Failed to update stock record", "productId", cmd.ProductID, "error", err)
		return nil, fmt.Errorf("failed to update stock record: %w", err)
	}

	s.publishEvents(ctx, events)
	s.dispatcher.Reclassify(ctx, record)

	s.logger.WithProduct(cmd.ProductID).Info("Updated low stock threshold",
		"threshold", cmd.Threshold,
		"reorderPoint", record.ReorderPoint,
		"updatedBy", cmd.PerformedBy,
	)
	return ToStockRecordDTO(record), nil
}

// GetInventory returns one product's stock record
func (s *LedgerService) GetInventory(ctx context.Context, query GetInventoryQuery) (*StockRecordDTO, error) {
	record, err := s.records.FindByProductID(ctx, query.ProductID)
	if err != nil {
		s.logger.Error("Failed to load stock record", "productId", query.ProductID, "error", err)
		return nil, fmt.Errorf("failed to load stock record: %w", err)
	}
	if record == nil {
		return nil, errors.ErrNotFound(fmt.Sprintf("stock record for product %s", query.ProductID))
	}
	return ToStockRecordDTO(record), nil
}

// ListInventory lists stock records, optionally scoped to a vendor
func (s *LedgerService) ListInventory(ctx context.Context, query ListInventoryQuery) ([]*StockRecordDTO, int64, error) {
	var (
		records []*domain.StockRecord
		total   int64
		err     error
	)
	if query.VendorID != "" {
		records, total, err = s.records.FindByVendorID(ctx, query.VendorID, query.Limit, query.Offset)
	} else {
		records, total, err = s.records.FindAll(ctx, query.Limit, query.Offset)
	}
	if err != nil {
		s.logger.Error("Failed to list stock records", "vendorId", query.VendorID, "error", err)
		return nil, 0, fmt.Errorf("failed to list stock records: %w", err)
	}

	dtos := make([]*StockRecordDTO, 0, len(records))
	for _, r := range records {
		dtos = append(dtos, ToStockRecordDTO(r))
	}
	return dtos, total, nil
}

// GetMovementHistory returns a product's movement log, most recent first
func (s *LedgerService) GetMovementHistory(ctx context.Context, query MovementHistoryQuery) ([]*MovementDTO, int64, error) {
	record, err := s.records.FindByProductID(ctx, query.ProductID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load stock record: %w", err)
	}
	if record == nil {
		return nil, 0, errors.ErrNotFound(fmt.Sprintf("stock record for product %s", query.ProductID))
	}

	filter := domain.MovementFilter{
		MovementType:  domain.MovementType(query.MovementType),
		ReferenceType: domain.ReferenceType(query.ReferenceType),
	}
	if query.From != "" {
		from, err := time.Parse(time.RFC3339, query.From)
		if err != nil {
			return nil, 0, errors.ErrValidation("from must be an RFC3339 timestamp")
		}
		filter.From = from
	}
	if query.To != "" {
		to, err := time.Parse(time.RFC3339, query.To)
		if err != nil {
			return nil, 0, errors.ErrValidation("to must be an RFC3339 timestamp")
		}
		filter.To = to
	}

	movements, total, err := s.movements.FindByProductID(ctx, query.ProductID, filter, query.Limit, query.Offset)
	if err != nil {
		s.logger.Error("Failed to load movement history", "productId", query.ProductID, "error", err)
		return nil, 0, fmt.Errorf("failed to load movement history: %w", err)
	}
	return ToMovementDTOs(movements), total, nil
}

// ListAlerts returns currently active alerts, optionally scoped to a vendor
func (s *LedgerService) ListAlerts(ctx context.Context, query ListAlertsQuery) ([]*AlertDTO, int64, error) {
	alerts, total, err := s.dispatcher.alerts.FindActive(ctx, query.VendorID, query.Limit, query.Offset)
	if err != nil {
		s.logger.Error("Failed to list alerts", "vendorId", query.VendorID, "error", err)
		return nil, 0, fmt.Errorf("failed to list alerts: %w", err)
	}
	return ToAlertDTOs(alerts), total, nil
}

func (s *LedgerService) publishEvents(ctx context.Context, events []domain.DomainEvent) {
	if s.publisher == nil {
		return
	}
	for _, event := range events {
		var err error
		switch e := event.(type) {
		case domain.ProductCreatedEvent:
			err = s.publisher.PublishProductCreated(ctx, e)
		case domain.StockChangedEvent:
			err = s.publisher.PublishStockChanged(ctx, e)
		case domain.ThresholdChangedEvent:
			err = s.publisher.PublishThresholdChanged(ctx, e)
		}
		if err != nil {
			s.logger.Error("Failed to publish domain event",
				"eventType", event.EventType(),
				"productId", event.AggregateID(),
				"error", err,
			)
		}
	}
}
