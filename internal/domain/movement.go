package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MovementType classifies how a mutation changes stock
type MovementType string

const (
	MovementIn         MovementType = "IN"
	MovementOut        MovementType = "OUT"
	MovementAdjustment MovementType = "ADJUSTMENT"
	MovementReturn     MovementType = "RETURN"
)

// IsValid checks if the movement type is valid
func (t MovementType) IsValid() bool {
	switch t {
	case MovementIn, MovementOut, MovementAdjustment, MovementReturn:
		return true
	}
	return false
}

// ReferenceType classifies what a movement references
type ReferenceType string

const (
	ReferenceOrder      ReferenceType = "ORDER"
	ReferenceReturn     ReferenceType = "RETURN"
	ReferenceAdjustment ReferenceType = "ADJUSTMENT"
	ReferencePurchase   ReferenceType = "PURCHASE"
)

// IsValid checks if the reference type is valid
func (t ReferenceType) IsValid() bool {
	switch t {
	case ReferenceOrder, ReferenceReturn, ReferenceAdjustment, ReferencePurchase:
		return true
	}
	return false
}

// Movement is an immutable audit record of a single stock change.
// It is created once by the ledger and never mutated or deleted.
type Movement struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	ProductID     string             `bson:"productId"`
	VariantID     string             `bson:"variantId,omitempty"`
	MovementType  MovementType       `bson:"movementType"`
	Quantity      int                `bson:"quantity"` // magnitude of the applied change
	PreviousStock int                `bson:"previousStock"`
	NewStock      int                `bson:"newStock"`
	Reason        string             `bson:"reason"`
	ReferenceID   string             `bson:"referenceId,omitempty"`
	ReferenceType ReferenceType      `bson:"referenceType,omitempty"`
	PerformedBy   string             `bson:"performedBy"`
	Extra         map[string]string  `bson:"extra,omitempty"`
	Timestamp     time.Time          `bson:"timestamp"`
}

// SignedDelta returns the signed change this movement applied to total stock.
// Replaying all movements for a product in order from zero reproduces the
// current balance.
func (m *Movement) SignedDelta() int {
	return m.NewStock - m.PreviousStock
}
