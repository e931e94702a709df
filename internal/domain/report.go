package domain

import (
	"sort"
	"time"
)

const topProductLimit = 10

// TopSeller ranks a product by confirmed sold quantity
type TopSeller struct {
	ProductID    string `json:"productId"`
	ProductName  string `json:"productName"`
	SoldQuantity int    `json:"soldQuantity"`
	CurrentStock int    `json:"currentStock"`
}

// SlowMover ranks a stocked product by how long it has sat in inventory
type SlowMover struct {
	ProductID    string `json:"productId"`
	ProductName  string `json:"productName"`
	CurrentStock int    `json:"currentStock"`
	DaysInStock  int    `json:"daysInStock"`
}

// CategoryStat summarizes one category bucket
type CategoryStat struct {
	Category     string `json:"category"`
	ProductCount int    `json:"productCount"`
	TotalStock   int    `json:"totalStock"`
	TotalValue   int64  `json:"totalValue"`
}

// InventoryReport is a point-in-time aggregation over a vendor's stock
type InventoryReport struct {
	GeneratedAt       time.Time      `json:"generatedAt"`
	TotalProducts     int            `json:"totalProducts"`
	TotalValue        int64          `json:"totalValue"` // minor currency units
	LowStockCount     int            `json:"lowStockCount"`
	OutOfStockCount   int            `json:"outOfStockCount"`
	ReorderCount      int            `json:"reorderCount"`
	TopSellers        []TopSeller    `json:"topSellers"`
	SlowMovers        []SlowMover    `json:"slowMovers"`
	CategoryBreakdown []CategoryStat `json:"categoryBreakdown"`
}

// BuildInventoryReport aggregates stock records and confirmed sales into a
// report. Products without a category land in the Uncategorized bucket.
// Counts reuse the classifier so report figures and alerting always agree.
func BuildInventoryReport(records []*StockRecord, sold map[string]int, now time.Time) *InventoryReport {
	report := &InventoryReport{
		GeneratedAt: now,
		TopSellers:  []TopSeller{},
		SlowMovers:  []SlowMover{},
	}

	categories := make(map[string]*CategoryStat)

	for _, r := range records {
		total := r.TotalStock()
		value := int64(total) * r.UnitPrice

		report.TotalProducts++
		report.TotalValue += value

		if c, ok := Classify(r.Snapshot()); ok {
			switch c.AlertType {
			case AlertOutOfStock:
				report.OutOfStockCount++
			case AlertLowStock:
				report.LowStockCount++
			case AlertReorderPoint:
				report.ReorderCount++
			}
		}

		category := r.Category
		if category == "" {
			category = "Uncategorized"
		}
		stat, ok := categories[category]
		if !ok {
			stat = &CategoryStat{Category: category}
			categories[category] = stat
		}
		stat.ProductCount++
		stat.TotalStock += total
		stat.TotalValue += value

		if qty := sold[r.ProductID]; qty > 0 {
			report.TopSellers = append(report.TopSellers, TopSeller{
				ProductID:    r.ProductID,
				ProductName:  r.ProductName,
				SoldQuantity: qty,
				CurrentStock: total,
			})
		}

		if total > 0 {
			days := int(now.Sub(r.CreatedAt).Hours() / 24)
			report.SlowMovers = append(report.SlowMovers, SlowMover{
				ProductID:    r.ProductID,
				ProductName:  r.ProductName,
				CurrentStock: total,
				DaysInStock:  days,
			})
		}
	}

	// Stable sorts keep ties in record order so rankings are deterministic
	sort.SliceStable(report.TopSellers, func(i, j int) bool {
		return report.TopSellers[i].SoldQuantity > report.TopSellers[j].SoldQuantity
	})
	if len(report.TopSellers) > topProductLimit {
		report.TopSellers = report.TopSellers[:topProductLimit]
	}

	sort.SliceStable(report.SlowMovers, func(i, j int) bool {
		return report.SlowMovers[i].DaysInStock > report.SlowMovers[j].DaysInStock
	})
	if len(report.SlowMovers) > topProductLimit {
		report.SlowMovers = report.SlowMovers[:topProductLimit]
	}

	report.CategoryBreakdown = make([]CategoryStat, 0, len(categories))
	for _, stat := range categories {
		report.CategoryBreakdown = append(report.CategoryBreakdown, *stat)
	}
	sort.Slice(report.CategoryBreakdown, func(i, j int) bool {
		return report.CategoryBreakdown[i].Category < report.CategoryBreakdown[j].Category
	})

	return report
}
