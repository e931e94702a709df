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
)

// Movement log monitoring tool. The movement collection is append-only,
// so per-product counts grow without bound. This tool surfaces the
// products with the largest logs and the overall growth distribution.

var (
	mongoURI  = flag.String("mongo-uri", "mongodb://localhost:27017", "MongoDB connection URI")
	dbName    = flag.String("db", "stockpilot", "Database name")
	threshold = flag.Int("threshold", 10000, "Alert threshold for per-product movement count")
	limit     = flag.Int("limit", 50, "Maximum number of results to display")
	window    = flag.Duration("window", 24*time.Hour, "Recent window for write-rate stats")
)

func main() {
	flag.Parse()

	log.Printf("Starting movement log monitoring...")
	log.Printf("MongoDB URI: %s", *mongoURI)
	log.Printf("Database: %s", *dbName)
	log.Printf("Alert Threshold: %d movements per product", *threshold)

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

	if err := analyzeMovements(context.Background(), db); err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}
}

type productLogInfo struct {
	ProductID string    `bson:"_id"`
	Count     int       `bson:"count"`
	Oldest    time.Time `bson:"oldest"`
	Newest    time.Time `bson:"newest"`
}

func analyzeMovements(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection("movements")

	totalCount, err := collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to count movements: %w", err)
	}

	since := time.Now().UTC().Add(-*window)
	recentCount, err := collection.CountDocuments(ctx, bson.M{"timestamp": bson.M{"$gte": since}})
	if err != nil {
		return fmt.Errorf("failed to count recent movements: %w", err)
	}

	fmt.Printf("\n=== Collection: movements ===\n")
	fmt.Printf("Total Movements: %d\n", totalCount)
	fmt.Printf("Last %s: %d (%.1f/hour)\n\n", *window, recentCount, float64(recentCount)/window.Hours())

	pipeline := []bson.M{
		{
			"$group": bson.M{
				"_id":    "$productId",
				"count":  bson.M{"$sum": 1},
				"oldest": bson.M{"$min": "$timestamp"},
				"newest": bson.M{"$max": "$timestamp"},
			},
		},
		{
			"$match": bson.M{
				"count": bson.M{"$gte": *threshold},
			},
		},
		{
			"$sort": bson.M{"count": -1},
		},
		{
			"$limit": int64(*limit),
		},
	}

	cursor, err := collection.Aggregate(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("failed to run aggregation: %w", err)
	}
	defer cursor.Close(ctx)

	var largeLogs []productLogInfo
	if err := cursor.All(ctx, &largeLogs); err != nil {
		return fmt.Errorf("failed to decode results: %w", err)
	}

	if len(largeLogs) == 0 {
		fmt.Println("✅ No product exceeds the movement threshold")
	} else {
		fmt.Printf("⚠️  Found %d products exceeding %d movements:\n\n", len(largeLogs), *threshold)
		fmt.Println("Product                              Movements   First Entry           Last Entry")
		fmt.Println("-----------------------------------  ----------  --------------------  --------------------")
		for _, info := range largeLogs {
			fmt.Printf("%-35s  %10d  %-20s  %-20s\n",
				info.ProductID,
				info.Count,
				info.Oldest.Format("2006-01-02 15:04:05"),
				info.Newest.Format("2006-01-02 15:04:05"),
			)
		}
	}

	fmt.Println("\n=== Log Size Distribution ===")
	if err := analyzeLogDistribution(ctx, collection); err != nil {
		log.Printf("WARNING: Failed to analyze distribution: %v", err)
	}

	fmt.Println("\n=== Active Alerts ===")
	if err := summarizeAlerts(ctx, db.Collection("alerts")); err != nil {
		log.Printf("WARNING: Failed to summarize alerts: %v", err)
	}

	return nil
}

func analyzeLogDistribution(ctx context.Context, collection *mongo.Collection) error {
	pipeline := []bson.M{
		{
			"$group": bson.M{
				"_id":   "$productId",
				"count": bson.M{"$sum": 1},
			},
		},
		{
			"$bucket": bson.M{
				"groupBy":    "$count",
				"boundaries": []int{0, 100, 1000, 10000, 100000},
				"default":    "100k+",
				"output": bson.M{
					"products": bson.M{"$sum": 1},
				},
			},
		},
	}

	cursor, err := collection.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	type bucketResult struct {
		ID       interface{} `bson:"_id"`
		Products int         `bson:"products"`
	}

	var results []bucketResult
	if err := cursor.All(ctx, &results); err != nil {
		return err
	}

	for _, result := range results {
		var label string
		switch result.ID {
		case int32(0), 0:
			label = "0-100 movements"
		case int32(100), 100:
			label = "100-1k movements"
		case int32(1000), 1000:
			label = "1k-10k movements"
		case int32(10000), 10000:
			label = "10k-100k movements"
		default:
			label = fmt.Sprintf("%v", result.ID)
		}
		fmt.Printf("  %s: %d products\n", label, result.Products)
	}

	return nil
}

func summarizeAlerts(ctx context.Context, collection *mongo.Collection) error {
	pipeline := []bson.M{
		{
			"$match": bson.M{"active": true},
		},
		{
			"$group": bson.M{
				"_id":   bson.M{"type": "$alertType", "severity": "$severity"},
				"count": bson.M{"$sum": 1},
			},
		},
		{
			"$sort": bson.M{"count": -1},
		},
	}

	cursor, err := collection.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	type alertGroup struct {
		ID struct {
			Type     string `bson:"type"`
			Severity string `bson:"severity"`
		} `bson:"_id"`
		Count int `bson:"count"`
	}

	var groups []alertGroup
	if err := cursor.All(ctx, &groups); err != nil {
		return err
	}

	if len(groups) == 0 {
		fmt.Println("  No active alerts")
		return nil
	}

	for _, group := range groups {
		marker := "🟡"
		if group.ID.Severity == "CRITICAL" {
			marker = "🔴"
		} else if group.ID.Severity == "HIGH" {
			marker = "🟠"
		}
		fmt.Printf("  %s %-15s %-10s %d\n", marker, group.ID.Type, group.ID.Severity, group.Count)
	}

	return nil
}
