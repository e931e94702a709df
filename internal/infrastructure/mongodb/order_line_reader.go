package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const orderLinesCollection = "order_lines"

// sale statuses that count toward sold quantities
var confirmedStatuses = []string{"CONFIRMED", "FULFILLED"}

// OrderLineReader aggregates confirmed order lines for sales reporting
type OrderLineReader struct {
	collection *mongo.Collection
}

// NewOrderLineReader creates an order line reader
func NewOrderLineReader(db *mongo.Database) *OrderLineReader {
	return &OrderLineReader{collection: db.Collection(orderLinesCollection)}
}

// SoldQuantities sums confirmed sold quantities per product. Pending and
// cancelled order lines never count.
func (r *OrderLineReader) SoldQuantities(ctx context.Context, vendorID string) (map[string]int, error) {
	match := bson.M{"status": bson.M{"$in": confirmedStatuses}}
	if vendorID != "" {
		match["vendorId"] = vendorID
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$productId",
			"total": bson.M{"$sum": "$quantity"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate order lines: %w", err)
	}
	defer cursor.Close(ctx)

	sold := make(map[string]int)
	for cursor.Next(ctx) {
		var row struct {
			ProductID string `bson:"_id"`
			Total     int    `bson:"total"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode order line aggregation: %w", err)
		}
		sold[row.ProductID] = row.Total
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("order line cursor failed: %w", err)
	}
	return sold, nil
}
