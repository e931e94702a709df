package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VariantStock is a named stock bucket inside a record. Variant order is
// preserved as given at creation time.
type VariantStock struct {
	VariantID string `bson:"variantId"`
	Name      string `bson:"name,omitempty"`
	Quantity  int    `bson:"quantity"`
}

// VendorContact holds notification details for the owning vendor
type VendorContact struct {
	Name  string `bson:"name,omitempty"`
	Email string `bson:"email,omitempty"`
	Phone string `bson:"phone,omitempty"`
}

// StockRecord is the per-product stock balance aggregate. Total stock is
// always derived from the base quantity plus all variant quantities and is
// never stored independently.
type StockRecord struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	ProductID         string             `bson:"productId"`
	VendorID          string             `bson:"vendorId"`
	ProductName       string             `bson:"productName"`
	Category          string             `bson:"category,omitempty"`
	UnitPrice         int64              `bson:"unitPrice"` // minor currency units
	VendorContact     VendorContact      `bson:"vendorContact,omitempty"`
	BaseQuantity      int                `bson:"baseQuantity"`
	Variants          []VariantStock     `bson:"variants,omitempty"`
	LowStockThreshold int                `bson:"lowStockThreshold"`
	ReorderPoint      int                `bson:"reorderPoint"`
	CreatedAt         time.Time          `bson:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt"`

	DomainEvents []DomainEvent `bson:"-"`
}

// ReorderPointFor derives the reorder point from a threshold: ceil(1.5 * t)
func ReorderPointFor(threshold int) int {
	return (3*threshold + 1) / 2
}

// NewStockRecord creates a stock record with validated inputs. A negative
// threshold is rejected; callers apply the configured default before calling
// when no threshold was given.
func NewStockRecord(productID, vendorID, productName, category string, unitPrice int64, initialStock int, variants []VariantStock, threshold int) (*StockRecord, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, ErrInvalidProductID
	}
	if initialStock < 0 {
		return nil, ErrInvalidQuantity
	}
	if threshold < 0 {
		return nil, ErrInvalidThreshold
	}
	if unitPrice < 0 {
		return nil, ErrInvalidUnitPrice
	}

	seen := make(map[string]struct{}, len(variants))
	for _, v := range variants {
		if strings.TrimSpace(v.VariantID) == "" {
			return nil, ErrVariantNotFound
		}
		if v.Quantity < 0 {
			return nil, ErrInvalidQuantity
		}
		if _, ok := seen[v.VariantID]; ok {
			return nil, ErrDuplicateVariant
		}
		seen[v.VariantID] = struct{}{}
	}

	now := time.Now().UTC()
	record := &StockRecord{
		ProductID:         productID,
		VendorID:          vendorID,
		ProductName:       productName,
		Category:          category,
		UnitPrice:         unitPrice,
		BaseQuantity:      initialStock,
		Variants:          variants,
		LowStockThreshold: threshold,
		ReorderPoint:      ReorderPointFor(threshold),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	record.addDomainEvent(ProductCreatedEvent{
		ProductID:         productID,
		VendorID:          vendorID,
		ProductName:       productName,
		Category:          category,
		InitialStock:      record.TotalStock(),
		LowStockThreshold: threshold,
		Timestamp:         now,
	})

	return record, nil
}

// TotalStock returns the base quantity plus all variant quantities
func (r *StockRecord) TotalStock() int {
	total := r.BaseQuantity
	for _, v := range r.Variants {
		total += v.Quantity
	}
	return total
}

// Snapshot returns the classification inputs for this record
func (r *StockRecord) Snapshot() Snapshot {
	return Snapshot{
		ProductID:    r.ProductID,
		TotalStock:   r.TotalStock(),
		Threshold:    r.LowStockThreshold,
		ReorderPoint: r.ReorderPoint,
	}
}

// MutationRequest describes one requested stock change
type MutationRequest struct {
	MovementType  MovementType
	Quantity      int
	VariantID     string
	Reason        string
	ReferenceID   string
	ReferenceType ReferenceType
	PerformedBy   string
	Extra         map[string]string
}

func (req MutationRequest) validate() error {
	if !req.MovementType.IsValid() {
		return ErrInvalidMovementType
	}
	if req.Quantity < 0 {
		return ErrInvalidQuantity
	}
	if strings.TrimSpace(req.Reason) == "" {
		return ErrMissingReason
	}
	if strings.TrimSpace(req.PerformedBy) == "" {
		return ErrMissingActor
	}
	if req.ReferenceType != "" && !req.ReferenceType.IsValid() {
		return ErrInvalidReferenceType
	}
	return nil
}

// ApplyMutation applies a single movement to the record and returns the
// immutable movement entry describing what actually happened.
//
// IN and RETURN add the quantity. OUT removes up to the quantity and clamps
// the bucket at zero; the movement records the quantity actually removed.
// ADJUSTMENT sets the bucket to the given absolute quantity. When the request
// names a variant the change applies to that variant's bucket, otherwise to
// the base quantity. Previous and new stock on the movement are always the
// record's total stock.
func (r *StockRecord) ApplyMutation(req MutationRequest) (*Movement, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	bucket := &r.BaseQuantity
	if req.VariantID != "" {
		found := false
		for i := range r.Variants {
			if r.Variants[i].VariantID == req.VariantID {
				bucket = &r.Variants[i].Quantity
				found = true
				break
			}
		}
		if !found {
			return nil, ErrVariantNotFound
		}
	}

	previousTotal := r.TotalStock()
	previousBucket := *bucket
	clamped := false

	switch req.MovementType {
	case MovementIn, MovementReturn:
		*bucket = previousBucket + req.Quantity
	case MovementOut:
		if req.Quantity > previousBucket {
			*bucket = 0
			clamped = true
		} else {
			*bucket = previousBucket - req.Quantity
		}
	case MovementAdjustment:
		*bucket = req.Quantity
	}

	newTotal := r.TotalStock()

	applied := *bucket - previousBucket
	if applied < 0 {
		applied = -applied
	}

	now := time.Now().UTC()
	r.UpdatedAt = now

	movement := &Movement{
		ProductID:     r.ProductID,
		VariantID:     req.VariantID,
		MovementType:  req.MovementType,
		Quantity:      applied,
		PreviousStock: previousTotal,
		NewStock:      newTotal,
		Reason:        req.Reason,
		ReferenceID:   req.ReferenceID,
		ReferenceType: req.ReferenceType,
		PerformedBy:   req.PerformedBy,
		Extra:         req.Extra,
		Timestamp:     now,
	}

	r.addDomainEvent(StockChangedEvent{
		ProductID:     r.ProductID,
		VariantID:     req.VariantID,
		MovementType:  req.MovementType,
		Quantity:      applied,
		PreviousStock: previousTotal,
		NewStock:      newTotal,
		Reason:        req.Reason,
		ReferenceID:   req.ReferenceID,
		ReferenceType: req.ReferenceType,
		PerformedBy:   req.PerformedBy,
		Clamped:       clamped,
		Timestamp:     now,
	})

	return movement, nil
}

// SetLowStockThreshold updates the threshold and recomputes the reorder
// point. The caller reclassifies alert state immediately afterwards.
func (r *StockRecord) SetLowStockThreshold(threshold int, updatedBy string) error {
	if threshold < 0 {
		return ErrInvalidThreshold
	}

	previous := r.LowStockThreshold
	now := time.Now().UTC()
	r.LowStockThreshold = threshold
	r.ReorderPoint = ReorderPointFor(threshold)
	r.UpdatedAt = now

	r.addDomainEvent(ThresholdChangedEvent{
		ProductID:         r.ProductID,
		PreviousThreshold: previous,
		NewThreshold:      threshold,
		ReorderPoint:      r.ReorderPoint,
		UpdatedBy:         updatedBy,
		Timestamp:         now,
	})

	return nil
}

func (r *StockRecord) addDomainEvent(event DomainEvent) {
	r.DomainEvents = append(r.DomainEvents, event)
}

// PullEvents returns and clears the accumulated domain events
func (r *StockRecord) PullEvents() []DomainEvent {
	events := r.DomainEvents
	r.DomainEvents = nil
	return events
}
