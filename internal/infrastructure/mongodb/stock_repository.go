package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stockpilot/ledger-service/internal/domain"
	mongokit "github.com/stockpilot/ledger-service/pkg/mongodb"
)

const stockRecordsCollection = "stock_records"

// StockRepository persists stock record aggregates in MongoDB
type StockRepository struct {
	collection *mongo.Collection
	db         *mongo.Database
}

// NewStockRepository creates a stock repository and ensures its indexes
func NewStockRepository(db *mongo.Database) *StockRepository {
	repo := &StockRepository{
		collection: db.Collection(stockRecordsCollection),
		db:         db,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *StockRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "productId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "vendorId", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Save inserts a new stock record
func (r *StockRepository) Save(ctx context.Context, record *domain.StockRecord) error {
	record.UpdatedAt = mongokit.Now()

	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrRecordExists
		}
		return fmt.Errorf("failed to insert stock record: %w", err)
	}
	return nil
}

// Update replaces an existing stock record by product id
func (r *StockRepository) Update(ctx context.Context, record *domain.StockRecord) error {
	record.UpdatedAt = mongokit.Now()

	filter := bson.M{"productId": record.ProductID}
	update := bson.M{"$set": record}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update stock record: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

// FindByProductID returns the record for a product, or nil when absent
func (r *StockRepository) FindByProductID(ctx context.Context, productID string) (*domain.StockRecord, error) {
	var record domain.StockRecord
	err := r.collection.FindOne(ctx, bson.M{"productId": productID}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find stock record: %w", err)
	}
	return &record, nil
}

// FindByVendorID lists a vendor's records with pagination
func (r *StockRepository) FindByVendorID(ctx context.Context, vendorID string, limit, offset int) ([]*domain.StockRecord, int64, error) {
	return r.find(ctx, bson.M{"vendorId": vendorID}, limit, offset)
}

// FindAll lists all records with pagination
func (r *StockRepository) FindAll(ctx context.Context, limit, offset int) ([]*domain.StockRecord, int64, error) {
	return r.find(ctx, bson.M{}, limit, offset)
}

func (r *StockRepository) find(ctx context.Context, filter bson.M, limit, offset int) ([]*domain.StockRecord, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count stock records: %w", err)
	}

	opts := options.Find().SetSort(mongokit.SortAscending("productId"))
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list stock records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*domain.StockRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, 0, fmt.Errorf("failed to decode stock records: %w", err)
	}
	return records, total, nil
}
