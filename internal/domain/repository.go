package domain

import (
	"context"
	"time"
)

// MovementFilter narrows a movement history query
type MovementFilter struct {
	MovementType  MovementType
	ReferenceType ReferenceType
	From          time.Time
	To            time.Time
}

// StockRepository persists stock record aggregates
type StockRepository interface {
	Save(ctx context.Context, record *StockRecord) error
	Update(ctx context.Context, record *StockRecord) error
	FindByProductID(ctx context.Context, productID string) (*StockRecord, error)
	FindByVendorID(ctx context.Context, vendorID string, limit, offset int) ([]*StockRecord, int64, error)
	FindAll(ctx context.Context, limit, offset int) ([]*StockRecord, int64, error)
}

// MovementRepository appends and reads the immutable movement log
type MovementRepository interface {
	Append(ctx context.Context, movement *Movement) error
	FindByProductID(ctx context.Context, productID string, filter MovementFilter, limit, offset int) ([]*Movement, int64, error)
	CountByProductID(ctx context.Context, productID string) (int64, error)
}

// TransactionalLedger persists a balance update and its movement atomically
type TransactionalLedger interface {
	SaveWithMovement(ctx context.Context, record *StockRecord, movement *Movement) error
}

// AlertRepository persists per-product alert state
type AlertRepository interface {
	Upsert(ctx context.Context, alert *Alert) error
	FindActive(ctx context.Context, vendorID string, limit, offset int) ([]*Alert, int64, error)
	FindByProductAndType(ctx context.Context, productID string, alertType AlertType) (*Alert, error)
	DeactivateByProduct(ctx context.Context, productID string) error
}

// OrderLine is a read model row used by sales aggregation
type OrderLine struct {
	OrderID   string    `bson:"orderId"`
	ProductID string    `bson:"productId"`
	Quantity  int       `bson:"quantity"`
	Status    string    `bson:"status"`
	CreatedAt time.Time `bson:"createdAt"`
}

// OrderLineReader exposes confirmed sales data for reporting
type OrderLineReader interface {
	SoldQuantities(ctx context.Context, vendorID string) (map[string]int, error)
}
