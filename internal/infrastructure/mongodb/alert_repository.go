package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stockpilot/ledger-service/internal/domain"
	mongokit "github.com/stockpilot/ledger-service/pkg/mongodb"
)

const alertsCollection = "alerts"

// AlertRepository persists per-product alert state
type AlertRepository struct {
	collection *mongo.Collection
}

// NewAlertRepository creates an alert repository and ensures its indexes
func NewAlertRepository(db *mongo.Database) *AlertRepository {
	repo := &AlertRepository{collection: db.Collection(alertsCollection)}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *AlertRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "productId", Value: 1}, {Key: "alertType", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "vendorId", Value: 1}, {Key: "active", Value: 1}}},
		{Keys: bson.D{{Key: "active", Value: 1}, {Key: "severity", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Upsert writes alert state keyed by (productId, alertType)
func (r *AlertRepository) Upsert(ctx context.Context, alert *domain.Alert) error {
	alert.UpdatedAt = mongokit.Now()
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = alert.UpdatedAt
	}

	filter := bson.M{"productId": alert.ProductID, "alertType": alert.AlertType}
	update := bson.M{
		"$set": bson.M{
			"vendorId":     alert.VendorID,
			"productName":  alert.ProductName,
			"severity":     alert.Severity,
			"currentStock": alert.CurrentStock,
			"threshold":    alert.Threshold,
			"reorderPoint": alert.ReorderPoint,
			"active":       alert.Active,
			"lastSentAt":   alert.LastSentAt,
			"updatedAt":    alert.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"productId": alert.ProductID,
			"alertType": alert.AlertType,
			"createdAt": alert.CreatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert alert: %w", err)
	}
	if oid, ok := result.UpsertedID.(primitive.ObjectID); ok {
		alert.ID = oid
	}
	return nil
}

// FindActive lists active alerts, optionally scoped to a vendor
func (r *AlertRepository) FindActive(ctx context.Context, vendorID string, limit, offset int) ([]*domain.Alert, int64, error) {
	filter := bson.M{"active": true}
	if vendorID != "" {
		filter["vendorId"] = vendorID
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count alerts: %w", err)
	}

	opts := options.Find().SetSort(mongokit.SortDescending("updatedAt"))
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer cursor.Close(ctx)

	var alerts []*domain.Alert
	if err := cursor.All(ctx, &alerts); err != nil {
		return nil, 0, fmt.Errorf("failed to decode alerts: %w", err)
	}
	return alerts, total, nil
}

// FindByProductAndType returns alert state for one dedup identity, or nil
func (r *AlertRepository) FindByProductAndType(ctx context.Context, productID string, alertType domain.AlertType) (*domain.Alert, error) {
	var alert domain.Alert
	err := r.collection.FindOne(ctx, bson.M{"productId": productID, "alertType": alertType}).Decode(&alert)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find alert: %w", err)
	}
	return &alert, nil
}

// DeactivateByProduct clears the active flag on all of a product's alerts
func (r *AlertRepository) DeactivateByProduct(ctx context.Context, productID string) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"productId": productID, "active": true},
		mongokit.BuildUpdateWithTimestamp(bson.M{"active": false}),
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate alerts: %w", err)
	}
	return nil
}
