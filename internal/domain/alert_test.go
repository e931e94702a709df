package domain

import (
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		stock     int
		threshold int
		wantType  AlertType
		wantSev   Severity
		wantOK    bool
	}{
		{
			name:      "zero stock is out of stock",
			stock:     0,
			threshold: 10,
			wantType:  AlertOutOfStock,
			wantSev:   SeverityCritical,
			wantOK:    true,
		},
		{
			name:      "zero stock with zero threshold still fires",
			stock:     0,
			threshold: 0,
			wantType:  AlertOutOfStock,
			wantSev:   SeverityCritical,
			wantOK:    true,
		},
		{
			name:      "zero threshold disables low stock rules",
			stock:     1,
			threshold: 0,
			wantOK:    false,
		},
		{
			name:      "at half threshold is high severity",
			stock:     5,
			threshold: 10,
			wantType:  AlertLowStock,
			wantSev:   SeverityHigh,
			wantOK:    true,
		},
		{
			name:      "just above half threshold is medium",
			stock:     6,
			threshold: 10,
			wantType:  AlertLowStock,
			wantSev:   SeverityMedium,
			wantOK:    true,
		},
		{
			name:      "at threshold is medium low stock",
			stock:     10,
			threshold: 10,
			wantType:  AlertLowStock,
			wantSev:   SeverityMedium,
			wantOK:    true,
		},
		{
			name:      "odd threshold rounds half up",
			stock:     4,
			threshold: 7,
			wantType:  AlertLowStock,
			wantSev:   SeverityHigh,
			wantOK:    true,
		},
		{
			name:      "between threshold and reorder point",
			stock:     14,
			threshold: 10,
			wantType:  AlertReorderPoint,
			wantSev:   SeverityLow,
			wantOK:    true,
		},
		{
			name:      "at reorder point boundary still fires",
			stock:     15,
			threshold: 10,
			wantType:  AlertReorderPoint,
			wantSev:   SeverityLow,
			wantOK:    true,
		},
		{
			name:      "above reorder point is healthy",
			stock:     16,
			threshold: 10,
			wantOK:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(Snapshot{
				ProductID:    "prod-001",
				TotalStock:   tt.stock,
				Threshold:    tt.threshold,
				ReorderPoint: ReorderPointFor(tt.threshold),
			})

			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if !ok {
				return
			}
			if got.AlertType != tt.wantType {
				t.Errorf("expected alert type %s, got %s", tt.wantType, got.AlertType)
			}
			if got.Severity != tt.wantSev {
				t.Errorf("expected severity %s, got %s", tt.wantSev, got.Severity)
			}
		})
	}
}

func TestClassifyIsPure(t *testing.T) {
	snapshot := Snapshot{ProductID: "prod-001", TotalStock: 5, Threshold: 10, ReorderPoint: 15}

	first, ok1 := Classify(snapshot)
	second, ok2 := Classify(snapshot)

	if ok1 != ok2 || first != second {
		t.Errorf("classification not stable: %v/%v vs %v/%v", first, ok1, second, ok2)
	}
}

func TestAlertShouldDispatch(t *testing.T) {
	now := time.Now().UTC()
	cooldown := time.Hour

	tests := []struct {
		name       string
		lastSentAt time.Time
		want       bool
	}{
		{name: "never sent", want: true},
		{name: "sent half the cooldown ago", lastSentAt: now.Add(-30 * time.Minute), want: false},
		{name: "sent exactly one cooldown ago", lastSentAt: now.Add(-time.Hour), want: true},
		{name: "sent long ago", lastSentAt: now.Add(-3 * time.Hour), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alert := &Alert{ProductID: "prod-001", AlertType: AlertLowStock, LastSentAt: tt.lastSentAt}
			if got := alert.ShouldDispatch(now, cooldown); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
