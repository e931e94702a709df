package domain

import "time"

// DomainEvent is raised by an aggregate and published after persistence
type DomainEvent interface {
	EventType() string
	AggregateID() string
	OccurredAt() time.Time
}

// ProductCreatedEvent is raised when a stock record is first created
type ProductCreatedEvent struct {
	ProductID         string
	VendorID          string
	ProductName       string
	Category          string
	InitialStock      int
	LowStockThreshold int
	Timestamp         time.Time
}

func (e ProductCreatedEvent) EventType() string     { return "product.created" }
func (e ProductCreatedEvent) AggregateID() string   { return e.ProductID }
func (e ProductCreatedEvent) OccurredAt() time.Time { return e.Timestamp }

// StockChangedEvent is raised whenever a movement is applied
type StockChangedEvent struct {
	ProductID     string
	VariantID     string
	MovementType  MovementType
	Quantity      int
	PreviousStock int
	NewStock      int
	Reason        string
	ReferenceID   string
	ReferenceType ReferenceType
	PerformedBy   string
	Clamped       bool
	Timestamp     time.Time
}

func (e StockChangedEvent) EventType() string     { return "stock.changed" }
func (e StockChangedEvent) AggregateID() string   { return e.ProductID }
func (e StockChangedEvent) OccurredAt() time.Time { return e.Timestamp }

// ThresholdChangedEvent is raised when the low stock threshold is updated
type ThresholdChangedEvent struct {
	ProductID         string
	PreviousThreshold int
	NewThreshold      int
	ReorderPoint      int
	UpdatedBy         string
	Timestamp         time.Time
}

func (e ThresholdChangedEvent) EventType() string     { return "threshold.changed" }
func (e ThresholdChangedEvent) AggregateID() string   { return e.ProductID }
func (e ThresholdChangedEvent) OccurredAt() time.Time { return e.Timestamp }
