package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stockpilot/ledger-service/internal/domain"
	mongoRepo "github.com/stockpilot/ledger-service/internal/infrastructure/mongodb"
	mongokit "github.com/stockpilot/ledger-service/pkg/mongodb"
)

// Ledger consistency tool. Replays each product's movement log from zero
// and compares the replayed balance against the stored stock record.

var (
	mongoURI  = flag.String("mongo-uri", "mongodb://localhost:27017", "MongoDB connection URI")
	dbName    = flag.String("db", "stockpilot", "Database name")
	vendorID  = flag.String("vendor", "", "Restrict the check to one vendor")
	productID = flag.String("product", "", "Restrict the check to one product")
	repair    = flag.Bool("repair", false, "Rewrite stored base quantity to the replayed balance on mismatch")
	batchSize = flag.Int("batch-size", 200, "Number of stock records fetched per page")
)

func main() {
	flag.Parse()

	log.Printf("Starting ledger replay check...")
	log.Printf("MongoDB URI: %s", *mongoURI)
	log.Printf("Database: %s", *dbName)
	log.Printf("Repair: %v", *repair)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(*mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())

	if err := client.Ping(ctx, nil); err != nil {
		log.Fatalf("Failed to ping MongoDB: %v", err)
	}
	log.Println("Connected to MongoDB successfully")

	db := client.Database(*dbName)

	if err := replayLedger(context.Background(), db); err != nil {
		log.Fatalf("Replay check failed: %v", err)
	}
}

func replayLedger(ctx context.Context, db *mongo.Database) error {
	stocks := mongoRepo.NewStockRepository(db)
	movements := mongoRepo.NewMovementRepository(db)

	var (
		checked    int
		consistent int
		mismatched int
		repaired   int
	)

	fmt.Println("\n=== Ledger Replay ===")

	offset := 0
	for {
		var err error
		var page []replayTarget

		switch {
		case *productID != "":
			record, findErr := stocks.FindByProductID(ctx, *productID)
			if findErr != nil {
				return findErr
			}
			if record == nil {
				return fmt.Errorf("product %s has no stock record", *productID)
			}
			page = []replayTarget{{productID: record.ProductID, storedTotal: record.TotalStock()}}
		default:
			page, err = loadPage(ctx, stocks, *vendorID, *batchSize, offset)
			if err != nil {
				return err
			}
		}

		if len(page) == 0 {
			break
		}

		for _, target := range page {
			checked++

			balance, err := movements.ReplayBalance(ctx, target.productID)
			if err != nil {
				return fmt.Errorf("failed to replay %s: %w", target.productID, err)
			}

			if balance == target.storedTotal {
				consistent++
				continue
			}

			mismatched++
			fmt.Printf("MISMATCH  %-30s  stored=%-6d  replayed=%-6d  drift=%d\n",
				target.productID, target.storedTotal, balance, target.storedTotal-balance)

			if *repair {
				if err := repairRecord(ctx, db, target.productID, balance); err != nil {
					log.Printf("WARNING: Failed to repair %s: %v", target.productID, err)
					continue
				}
				repaired++
			}
		}

		if *productID != "" {
			break
		}
		offset += len(page)
	}

	fmt.Println("\n=== Replay Summary ===")
	fmt.Printf("Records Checked:  %d\n", checked)
	fmt.Printf("Consistent:       %d\n", consistent)
	fmt.Printf("Mismatched:       %d\n", mismatched)
	if *repair {
		fmt.Printf("Repaired:         %d\n", repaired)
	} else if mismatched > 0 {
		fmt.Println("\nRun with -repair to rewrite stored balances to the replayed values")
	}

	if mismatched > repaired {
		return fmt.Errorf("%d records remain inconsistent", mismatched-repaired)
	}
	return nil
}

type replayTarget struct {
	productID   string
	storedTotal int
}

func loadPage(ctx context.Context, stocks *mongoRepo.StockRepository, vendorID string, limit, offset int) ([]replayTarget, error) {
	var (
		records []*domain.StockRecord
		err     error
	)
	if vendorID != "" {
		records, _, err = stocks.FindByVendorID(ctx, vendorID, limit, offset)
	} else {
		records, _, err = stocks.FindAll(ctx, limit, offset)
	}
	if err != nil {
		return nil, err
	}

	targets := make([]replayTarget, 0, len(records))
	for _, record := range records {
		targets = append(targets, replayTarget{productID: record.ProductID, storedTotal: record.TotalStock()})
	}
	return targets, nil
}

// repairRecord folds the replayed drift into the base bucket so the stored
// total matches the movement log again. Variant buckets stay untouched.
func repairRecord(ctx context.Context, db *mongo.Database, productID string, replayedTotal int) error {
	collection := db.Collection("stock_records")

	var doc struct {
		BaseQuantity int `bson:"baseQuantity"`
		Variants     []struct {
			Quantity int `bson:"quantity"`
		} `bson:"variants"`
	}
	if err := collection.FindOne(ctx, bson.M{"productId": productID}).Decode(&doc); err != nil {
		return err
	}

	variantTotal := 0
	for _, v := range doc.Variants {
		variantTotal += v.Quantity
	}

	newBase := replayedTotal - variantTotal
	if newBase < 0 {
		return fmt.Errorf("replayed balance %d is below the variant total %d", replayedTotal, variantTotal)
	}

	_, err := collection.UpdateOne(ctx,
		bson.M{"productId": productID},
		mongokit.BuildUpdateWithTimestamp(bson.M{"baseQuantity": newBase}),
	)
	return err
}
