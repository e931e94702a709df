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

// TransactionalLedger writes the balance update and the movement entry in a
// single MongoDB transaction so the log never disagrees with the balance.
type TransactionalLedger struct {
	db        *mongo.Database
	records   *mongo.Collection
	movements *mongo.Collection
}

// NewTransactionalLedger creates a transactional ledger writer
func NewTransactionalLedger(db *mongo.Database) *TransactionalLedger {
	return &TransactionalLedger{
		db:        db,
		records:   db.Collection(stockRecordsCollection),
		movements: db.Collection(movementsCollection),
	}
}

// SaveWithMovement persists the record and appends the movement atomically
func (l *TransactionalLedger) SaveWithMovement(ctx context.Context, record *domain.StockRecord, movement *domain.Movement) error {
	session, err := l.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	record.UpdatedAt = mongokit.Now()

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		filter := bson.M{"productId": record.ProductID}
		update := bson.M{"$set": record}
		opts := options.Update().SetUpsert(true)

		if _, err := l.records.UpdateOne(sessCtx, filter, update, opts); err != nil {
			return nil, fmt.Errorf("failed to save stock record: %w", err)
		}

		result, err := l.movements.InsertOne(sessCtx, movement)
		if err != nil {
			return nil, fmt.Errorf("failed to append movement: %w", err)
		}
		if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
			movement.ID = oid
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("ledger transaction failed: %w", err)
	}
	return nil
}
