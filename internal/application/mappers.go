package application

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/stockpilot/ledger-service/internal/domain"
)

// ToStockRecordDTO converts a domain stock record to its DTO
func ToStockRecordDTO(record *domain.StockRecord) *StockRecordDTO {
	if record == nil {
		return nil
	}

	variants := make([]VariantDTO, 0, len(record.Variants))
	for _, v := range record.Variants {
		variants = append(variants, VariantDTO{
			VariantID: v.VariantID,
			Name:      v.Name,
			Quantity:  v.Quantity,
		})
	}

	dto := &StockRecordDTO{
		ProductID:         record.ProductID,
		VendorID:          record.VendorID,
		ProductName:       record.ProductName,
		Category:          record.Category,
		UnitPrice:         record.UnitPrice,
		BaseQuantity:      record.BaseQuantity,
		Variants:          variants,
		TotalStock:        record.TotalStock(),
		LowStockThreshold: record.LowStockThreshold,
		ReorderPoint:      record.ReorderPoint,
		CreatedAt:         record.CreatedAt,
		UpdatedAt:         record.UpdatedAt,
	}

	if c, ok := domain.Classify(record.Snapshot()); ok {
		switch c.AlertType {
		case domain.AlertOutOfStock:
			dto.IsOutOfStock = true
		case domain.AlertLowStock:
			dto.IsLowStock = true
		case domain.AlertReorderPoint:
			dto.NeedsReorder = true
		}
	}

	if record.VendorContact != (domain.VendorContact{}) {
		dto.VendorContact = &VendorContactDTO{
			Name:  record.VendorContact.Name,
			Email: record.VendorContact.Email,
			Phone: record.VendorContact.Phone,
		}
	}

	return dto
}

// ToMovementDTO converts a domain movement to its DTO
func ToMovementDTO(movement *domain.Movement) *MovementDTO {
	if movement == nil {
		return nil
	}

	id := ""
	if movement.ID != primitive.NilObjectID {
		id = movement.ID.Hex()
	}

	return &MovementDTO{
		MovementID:    id,
		ProductID:     movement.ProductID,
		VariantID:     movement.VariantID,
		MovementType:  string(movement.MovementType),
		Quantity:      movement.Quantity,
		PreviousStock: movement.PreviousStock,
		NewStock:      movement.NewStock,
		Reason:        movement.Reason,
		ReferenceID:   movement.ReferenceID,
		ReferenceType: string(movement.ReferenceType),
		PerformedBy:   movement.PerformedBy,
		Extra:         movement.Extra,
		Timestamp:     movement.Timestamp,
	}
}

// ToMovementDTOs converts a slice of movements
func ToMovementDTOs(movements []*domain.Movement) []*MovementDTO {
	dtos := make([]*MovementDTO, 0, len(movements))
	for _, m := range movements {
		dtos = append(dtos, ToMovementDTO(m))
	}
	return dtos
}

// ToAlertDTO converts a domain alert to its DTO
func ToAlertDTO(alert *domain.Alert) *AlertDTO {
	if alert == nil {
		return nil
	}

	id := ""
	if alert.ID != primitive.NilObjectID {
		id = alert.ID.Hex()
	}

	return &AlertDTO{
		AlertID:      id,
		ProductID:    alert.ProductID,
		VendorID:     alert.VendorID,
		ProductName:  alert.ProductName,
		AlertType:    string(alert.AlertType),
		Severity:     string(alert.Severity),
		CurrentStock: alert.CurrentStock,
		Threshold:    alert.Threshold,
		ReorderPoint: alert.ReorderPoint,
		LastSentAt:   alert.LastSentAt,
		CreatedAt:    alert.CreatedAt,
		UpdatedAt:    alert.UpdatedAt,
	}
}

// ToAlertDTOs converts a slice of alerts
func ToAlertDTOs(alerts []*domain.Alert) []*AlertDTO {
	dtos := make([]*AlertDTO, 0, len(alerts))
	for _, a := range alerts {
		dtos = append(dtos, ToAlertDTO(a))
	}
	return dtos
}
