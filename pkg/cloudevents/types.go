package cloudevents

import (
	"time"
)

// EventType constants for inventory ledger domain events
const (
	// Stock events
	StockChanged     = "stockpilot.inventory.stock-changed"
	ThresholdChanged = "stockpilot.inventory.threshold-changed"
	ProductCreated   = "stockpilot.inventory.product-created"

	// Alert events
	AlertRaised  = "stockpilot.inventory.alert-raised"
	AlertCleared = "stockpilot.inventory.alert-cleared"
)

// Source constants for event sources
const (
	SourceLedger   = "/stockpilot/ledger-service"
	SourceNotifier = "/stockpilot/notifier"
)

// LedgerCloudEvent represents a CloudEvents v1.0 compliant event
type LedgerCloudEvent struct {
	SpecVersion     string                 `json:"specversion"`
	Type            string                 `json:"type"`
	Source          string                 `json:"source"`
	Subject         string                 `json:"subject,omitempty"`
	ID              string                 `json:"id"`
	Time            time.Time              `json:"time"`
	DataContentType string                 `json:"datacontenttype"`
	Data            interface{}            `json:"data"`
	Extensions      map[string]interface{} `json:"-"`

	// Ledger-specific extensions
	CorrelationID string `json:"ledgercorrelationid,omitempty"`
	ProductID     string `json:"ledgerproductid,omitempty"`
}

// StockChangedData represents the data payload for StockChanged event
type StockChangedData struct {
	ProductID     string    `json:"productId"`
	MovementID    string    `json:"movementId"`
	MovementType  string    `json:"movementType"`
	VariantID     string    `json:"variantId,omitempty"`
	Quantity      int       `json:"quantity"`
	PreviousStock int       `json:"previousStock"`
	NewStock      int       `json:"newStock"`
	ReferenceType string    `json:"referenceType"`
	ReferenceID   string    `json:"referenceId,omitempty"`
	Reason        string    `json:"reason"`
	PerformedBy   string    `json:"performedBy"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// ThresholdChangedData represents the data payload for ThresholdChanged event
type ThresholdChangedData struct {
	ProductID         string `json:"productId"`
	PreviousThreshold int    `json:"previousThreshold"`
	NewThreshold      int    `json:"newThreshold"`
	ReorderPoint      int    `json:"reorderPoint"`
	UpdatedBy         string `json:"updatedBy"`
}

// ProductCreatedData represents the data payload for ProductCreated event
type ProductCreatedData struct {
	ProductID         string `json:"productId"`
	VendorID          string `json:"vendorId"`
	ProductName       string `json:"productName"`
	Category          string `json:"category,omitempty"`
	InitialStock      int    `json:"initialStock"`
	LowStockThreshold int    `json:"lowStockThreshold"`
}

// AlertRaisedData represents the data payload for AlertRaised event
type AlertRaisedData struct {
	AlertID       string `json:"alertId"`
	ProductID     string `json:"productId"`
	VendorID      string `json:"vendorId"`
	ProductName   string `json:"productName"`
	AlertType     string `json:"alertType"`
	Severity      string `json:"severity"`
	CurrentStock  int    `json:"currentStock"`
	Threshold     int    `json:"threshold"`
	ReorderPoint  int    `json:"reorderPoint"`
	VendorContact string `json:"vendorContact,omitempty"`
}

// AlertClearedData represents the data payload for AlertCleared event
type AlertClearedData struct {
	ProductID    string `json:"productId"`
	VendorID     string `json:"vendorId"`
	AlertType    string `json:"alertType"`
	CurrentStock int    `json:"currentStock"`
	Threshold    int    `json:"threshold"`
}
