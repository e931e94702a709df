package application

import (
	"context"
	"sort"
	"sync"

	"github.com/stockpilot/ledger-service/internal/domain"
)

type fakeStockRepo struct {
	mu      sync.Mutex
	records map[string]*domain.StockRecord
	saveErr error
	findErr error
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{records: make(map[string]*domain.StockRecord)}
}

func (f *fakeStockRepo) Save(ctx context.Context, record *domain.StockRecord) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *record
	f.records[record.ProductID] = &copied
	return nil
}

func (f *fakeStockRepo) Update(ctx context.Context, record *domain.StockRecord) error {
	return f.Save(ctx, record)
}

func (f *fakeStockRepo) FindByProductID(ctx context.Context, productID string) (*domain.StockRecord, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[productID]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (f *fakeStockRepo) list() []*domain.StockRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.StockRecord, 0, len(f.records))
	for _, r := range f.records {
		copied := *r
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func (f *fakeStockRepo) FindByVendorID(ctx context.Context, vendorID string, limit, offset int) ([]*domain.StockRecord, int64, error) {
	if f.findErr != nil {
		return nil, 0, f.findErr
	}
	var out []*domain.StockRecord
	for _, r := range f.list() {
		if r.VendorID == vendorID {
			out = append(out, r)
		}
	}
	return paginate(out, limit, offset), int64(len(out)), nil
}

func (f *fakeStockRepo) FindAll(ctx context.Context, limit, offset int) ([]*domain.StockRecord, int64, error) {
	if f.findErr != nil {
		return nil, 0, f.findErr
	}
	all := f.list()
	return paginate(all, limit, offset), int64(len(all)), nil
}

func paginate(records []*domain.StockRecord, limit, offset int) []*domain.StockRecord {
	if offset >= len(records) {
		return nil
	}
	records = records[offset:]
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return records
}

type fakeMovementRepo struct {
	mu        sync.Mutex
	movements []*domain.Movement
	appendErr error
}

func (f *fakeMovementRepo) Append(ctx context.Context, movement *domain.Movement) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.movements = append(f.movements, movement)
	return nil
}

func (f *fakeMovementRepo) FindByProductID(ctx context.Context, productID string, filter domain.MovementFilter, limit, offset int) ([]*domain.Movement, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Movement
	// most recent first
	for i := len(f.movements) - 1; i >= 0; i-- {
		m := f.movements[i]
		if m.ProductID != productID {
			continue
		}
		if filter.MovementType != "" && m.MovementType != filter.MovementType {
			continue
		}
		out = append(out, m)
	}
	total := int64(len(out))
	if offset < len(out) {
		out = out[offset:]
	} else {
		out = nil
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (f *fakeMovementRepo) CountByProductID(ctx context.Context, productID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, m := range f.movements {
		if m.ProductID == productID {
			n++
		}
	}
	return n, nil
}

// fakeLedger persists the record and appends the movement like the
// transactional repository, without a real transaction.
type fakeLedger struct {
	records   *fakeStockRepo
	movements *fakeMovementRepo
	saveErr   error
}

func (f *fakeLedger) SaveWithMovement(ctx context.Context, record *domain.StockRecord, movement *domain.Movement) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if err := f.records.Save(ctx, record); err != nil {
		return err
	}
	return f.movements.Append(ctx, movement)
}

type fakeAlertRepo struct {
	mu      sync.Mutex
	alerts  map[string]*domain.Alert // key productID|alertType
	findErr error
}

func newFakeAlertRepo() *fakeAlertRepo {
	return &fakeAlertRepo{alerts: make(map[string]*domain.Alert)}
}

func alertKey(productID string, alertType domain.AlertType) string {
	return productID + "|" + string(alertType)
}

func (f *fakeAlertRepo) Upsert(ctx context.Context, alert *domain.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *alert
	f.alerts[alertKey(alert.ProductID, alert.AlertType)] = &copied
	return nil
}

func (f *fakeAlertRepo) FindActive(ctx context.Context, vendorID string, limit, offset int) ([]*domain.Alert, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Alert
	for _, a := range f.alerts {
		if !a.Active {
			continue
		}
		if vendorID != "" && a.VendorID != vendorID {
			continue
		}
		copied := *a
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, int64(len(out)), nil
}

func (f *fakeAlertRepo) FindByProductAndType(ctx context.Context, productID string, alertType domain.AlertType) (*domain.Alert, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	alert, ok := f.alerts[alertKey(productID, alertType)]
	if !ok {
		return nil, nil
	}
	copied := *alert
	return &copied, nil
}

func (f *fakeAlertRepo) DeactivateByProduct(ctx context.Context, productID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.alerts {
		if a.ProductID == productID {
			a.Active = false
		}
	}
	return nil
}

type raisedAlert struct {
	Alert   domain.Alert
	Contact domain.VendorContact
}

type clearedAlert struct {
	ProductID string
	AlertType domain.AlertType
	Stock     int
}

type fakeAlertPublisher struct {
	mu         sync.Mutex
	raised     []raisedAlert
	cleared    []clearedAlert
	publishErr error
}

func (f *fakeAlertPublisher) PublishAlertRaised(ctx context.Context, alert *domain.Alert, contact domain.VendorContact) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.raised = append(f.raised, raisedAlert{Alert: *alert, Contact: contact})
	return nil
}

func (f *fakeAlertPublisher) PublishAlertCleared(ctx context.Context, productID, vendorID string, alertType domain.AlertType, currentStock, threshold int) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, clearedAlert{ProductID: productID, AlertType: alertType, Stock: currentStock})
	return nil
}

func (f *fakeAlertPublisher) raisedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.raised)
}

type fakeEventPublisher struct {
	mu     sync.Mutex
	events []domain.DomainEvent
}

func (f *fakeEventPublisher) PublishProductCreated(ctx context.Context, event domain.ProductCreatedEvent) error {
	return f.record(event)
}

func (f *fakeEventPublisher) PublishStockChanged(ctx context.Context, event domain.StockChangedEvent) error {
	return f.record(event)
}

func (f *fakeEventPublisher) PublishThresholdChanged(ctx context.Context, event domain.ThresholdChangedEvent) error {
	return f.record(event)
}

func (f *fakeEventPublisher) record(event domain.DomainEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

type fakeOrderLineReader struct {
	sold    map[string]int
	readErr error
}

func (f *fakeOrderLineReader) SoldQuantities(ctx context.Context, vendorID string) (map[string]int, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.sold, nil
}
