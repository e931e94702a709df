package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AlertType identifies which stock condition fired
type AlertType string

const (
	AlertLowStock     AlertType = "LOW_STOCK"
	AlertOutOfStock   AlertType = "OUT_OF_STOCK"
	AlertReorderPoint AlertType = "REORDER_POINT"
)

// Severity ranks how urgent an alert is
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// Snapshot carries the classification inputs for one product
type Snapshot struct {
	ProductID    string
	TotalStock   int
	Threshold    int
	ReorderPoint int
}

// Classification is the outcome of classifying a snapshot
type Classification struct {
	AlertType AlertType
	Severity  Severity
}

// Classify evaluates the stock condition rules in strict priority order and
// returns the classification, or ok=false when stock is healthy and any
// active alert should be cleared.
//
// A zero total always classifies as out of stock. With a zero threshold that
// is the only rule that can fire: the low stock and reorder point rules are
// skipped so that products opting out of threshold alerting stay quiet while
// stocked.
func Classify(s Snapshot) (Classification, bool) {
	if s.TotalStock == 0 {
		return Classification{AlertType: AlertOutOfStock, Severity: SeverityCritical}, true
	}
	if s.Threshold == 0 {
		return Classification{}, false
	}
	if s.TotalStock <= s.Threshold {
		severity := SeverityMedium
		if s.TotalStock <= (s.Threshold+1)/2 {
			severity = SeverityHigh
		}
		return Classification{AlertType: AlertLowStock, Severity: severity}, true
	}
	if s.TotalStock <= s.ReorderPoint {
		return Classification{AlertType: AlertReorderPoint, Severity: SeverityLow}, true
	}
	return Classification{}, false
}

// Alert is the persisted alert state for one (product, type) pair. It tracks
// whether the condition is currently active and when a notification was last
// dispatched, which drives the cooldown window.
type Alert struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	ProductID    string             `bson:"productId"`
	VendorID     string             `bson:"vendorId"`
	ProductName  string             `bson:"productName"`
	AlertType    AlertType          `bson:"alertType"`
	Severity     Severity           `bson:"severity"`
	CurrentStock int                `bson:"currentStock"`
	Threshold    int                `bson:"threshold"`
	ReorderPoint int                `bson:"reorderPoint"`
	Active       bool               `bson:"active"`
	LastSentAt   time.Time          `bson:"lastSentAt,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

// ShouldDispatch reports whether a notification for this alert may be sent
// at the given time. A send is suppressed while the same alert is active and
// the cooldown window since the last send has not elapsed.
func (a *Alert) ShouldDispatch(now time.Time, cooldown time.Duration) bool {
	if a.LastSentAt.IsZero() {
		return true
	}
	return now.Sub(a.LastSentAt) >= cooldown
}
