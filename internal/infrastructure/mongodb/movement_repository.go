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

const movementsCollection = "movements"

// MovementRepository appends to and reads the immutable movement log.
// Documents are only ever inserted; there is no update or delete path.
type MovementRepository struct {
	collection *mongo.Collection
}

// NewMovementRepository creates a movement repository and ensures its indexes
func NewMovementRepository(db *mongo.Database) *MovementRepository {
	repo := &MovementRepository{collection: db.Collection(movementsCollection)}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *MovementRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "productId", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "referenceType", Value: 1}}},
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Append inserts a movement entry
func (r *MovementRepository) Append(ctx context.Context, movement *domain.Movement) error {
	result, err := r.collection.InsertOne(ctx, movement)
	if err != nil {
		return fmt.Errorf("failed to append movement: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		movement.ID = oid
	}
	return nil
}

// FindByProductID lists a product's movements, most recent first
func (r *MovementRepository) FindByProductID(ctx context.Context, productID string, filter domain.MovementFilter, limit, offset int) ([]*domain.Movement, int64, error) {
	query := bson.M{"productId": productID}
	if filter.MovementType != "" {
		query["movementType"] = filter.MovementType
	}
	if filter.ReferenceType != "" {
		query["referenceType"] = filter.ReferenceType
	}
	timeRange := bson.M{}
	if !filter.From.IsZero() {
		timeRange["$gte"] = filter.From
	}
	if !filter.To.IsZero() {
		timeRange["$lte"] = filter.To
	}
	if len(timeRange) > 0 {
		query["timestamp"] = timeRange
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count movements: %w", err)
	}

	opts := options.Find().SetSort(mongokit.SortMultiple(
		mongokit.SortField{Field: "timestamp", Descending: true},
		mongokit.SortField{Field: "_id", Descending: true},
	))
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list movements: %w", err)
	}
	defer cursor.Close(ctx)

	var movements []*domain.Movement
	if err := cursor.All(ctx, &movements); err != nil {
		return nil, 0, fmt.Errorf("failed to decode movements: %w", err)
	}
	return movements, total, nil
}

// CountByProductID returns how many movements a product has logged
func (r *MovementRepository) CountByProductID(ctx context.Context, productID string) (int64, error) {
	total, err := r.collection.CountDocuments(ctx, bson.M{"productId": productID})
	if err != nil {
		return 0, fmt.Errorf("failed to count movements: %w", err)
	}
	return total, nil
}

// ReplayBalance sums signed deltas over a product's movement log in order.
// Used by the replay tool to verify the stored balance.
func (r *MovementRepository) ReplayBalance(ctx context.Context, productID string) (int, error) {
	opts := options.Find().SetSort(mongokit.SortMultiple(
		mongokit.SortField{Field: "timestamp"},
		mongokit.SortField{Field: "_id"},
	))
	cursor, err := r.collection.Find(ctx, bson.M{"productId": productID}, opts)
	if err != nil {
		return 0, fmt.Errorf("failed to read movement log: %w", err)
	}
	defer cursor.Close(ctx)

	balance := 0
	for cursor.Next(ctx) {
		var movement domain.Movement
		if err := cursor.Decode(&movement); err != nil {
			return 0, fmt.Errorf("failed to decode movement: %w", err)
		}
		balance += movement.SignedDelta()
	}
	if err := cursor.Err(); err != nil {
		return 0, fmt.Errorf("movement log cursor failed: %w", err)
	}
	return balance, nil
}
