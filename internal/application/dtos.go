package application

import "time"

// StockRecordDTO represents a stock record in responses
type StockRecordDTO struct {
	ProductID         string            `json:"productId"`
	VendorID          string            `json:"vendorId"`
	ProductName       string            `json:"productName"`
	Category          string            `json:"category,omitempty"`
	UnitPrice         int64             `json:"unitPrice"`
	BaseQuantity      int               `json:"baseQuantity"`
	Variants          []VariantDTO      `json:"variants,omitempty"`
	TotalStock        int               `json:"totalStock"`
	LowStockThreshold int               `json:"lowStockThreshold"`
	ReorderPoint      int               `json:"reorderPoint"`
	IsLowStock        bool              `json:"isLowStock"`
	IsOutOfStock      bool              `json:"isOutOfStock"`
	NeedsReorder      bool              `json:"needsReorder"`
	VendorContact     *VendorContactDTO `json:"vendorContact,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// VariantDTO represents one variant stock bucket
type VariantDTO struct {
	VariantID string `json:"variantId"`
	Name      string `json:"name,omitempty"`
	Quantity  int    `json:"quantity"`
}

// VendorContactDTO carries vendor notification details
type VendorContactDTO struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// MovementDTO represents one immutable movement log entry
type MovementDTO struct {
	MovementID    string            `json:"movementId"`
	ProductID     string            `json:"productId"`
	VariantID     string            `json:"variantId,omitempty"`
	MovementType  string            `json:"movementType"`
	Quantity      int               `json:"quantity"`
	PreviousStock int               `json:"previousStock"`
	NewStock      int               `json:"newStock"`
	Reason        string            `json:"reason"`
	ReferenceID   string            `json:"referenceId,omitempty"`
	ReferenceType string            `json:"referenceType,omitempty"`
	PerformedBy   string            `json:"performedBy"`
	Extra         map[string]string `json:"extra,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
}

// MutationResultDTO is the outcome of one applied mutation
type MutationResultDTO struct {
	Record   *StockRecordDTO `json:"record"`
	Movement *MovementDTO    `json:"movement"`
	Clamped  bool            `json:"clamped"`
}

// BatchItemResultDTO is the outcome of one item in a batch
type BatchItemResultDTO struct {
	ProductID string             `json:"productId"`
	Success   bool               `json:"success"`
	Error     string             `json:"error,omitempty"`
	Result    *MutationResultDTO `json:"result,omitempty"`
}

// BatchResultDTO summarizes a batch mutation
type BatchResultDTO struct {
	Total     int                  `json:"total"`
	Succeeded int                  `json:"succeeded"`
	Failed    int                  `json:"failed"`
	Items     []BatchItemResultDTO `json:"items"`
}

// AlertDTO represents an active alert in responses
type AlertDTO struct {
	AlertID      string    `json:"alertId"`
	ProductID    string    `json:"productId"`
	VendorID     string    `json:"vendorId"`
	ProductName  string    `json:"productName"`
	AlertType    string    `json:"alertType"`
	Severity     string    `json:"severity"`
	CurrentStock int       `json:"currentStock"`
	Threshold    int       `json:"threshold"`
	ReorderPoint int       `json:"reorderPoint"`
	LastSentAt   time.Time `json:"lastSentAt,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
