package application

// CreateProductCommand represents the command to register a product's stock record
type CreateProductCommand struct {
	ProductID    string
	VendorID     string
	ProductName  string
	Category     string
	UnitPrice    int64
	InitialStock int
	Variants     []VariantInput
	// Threshold is optional; nil applies the configured default
	Threshold     *int
	VendorName    string
	VendorEmail   string
	VendorPhone   string
	PerformedBy   string
}

// VariantInput names one variant bucket at creation time
type VariantInput struct {
	VariantID string
	Name      string
	Quantity  int
}

// ApplyMutationCommand represents the command to apply one stock movement
type ApplyMutationCommand struct {
	ProductID     string
	MovementType  string
	Quantity      int
	VariantID     string
	Reason        string
	ReferenceID   string
	ReferenceType string
	PerformedBy   string
	Extra         map[string]string
}

// BatchMutationCommand applies several mutations, each item independently
type BatchMutationCommand struct {
	Items []ApplyMutationCommand
}

// SetThresholdCommand updates a product's low stock threshold
type SetThresholdCommand struct {
	ProductID   string
	Threshold   int
	PerformedBy string
}

// GetInventoryQuery fetches one product's stock record
type GetInventoryQuery struct {
	ProductID string
}

// ListInventoryQuery lists stock records with pagination
type ListInventoryQuery struct {
	VendorID string
	Limit    int
	Offset   int
}

// MovementHistoryQuery lists a product's movement log, most recent first
type MovementHistoryQuery struct {
	ProductID     string
	MovementType  string
	ReferenceType string
	From          string
	To            string
	Limit         int
	Offset        int
}

// ListAlertsQuery lists active alerts
type ListAlertsQuery struct {
	VendorID string
	Limit    int
	Offset   int
}

// InventoryReportQuery generates the aggregated inventory report
type InventoryReportQuery struct {
	VendorID string
}
