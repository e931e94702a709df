package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Now returns the current time in UTC
func Now() time.Time {
	return time.Now().UTC()
}

// BuildUpdateWithTimestamp builds a BSON update document with automatic updatedAt
func BuildUpdateWithTimestamp(set bson.M) bson.M {
	set["updatedAt"] = Now()
	return bson.M{"$set": set}
}

// SortAscending creates an ascending sort option
func SortAscending(field string) bson.D {
	return bson.D{{Key: field, Value: 1}}
}

// SortDescending creates a descending sort option
func SortDescending(field string) bson.D {
	return bson.D{{Key: field, Value: -1}}
}

// SortField represents a field to sort by
type SortField struct {
	Field      string
	Descending bool
}

// SortMultiple creates a multi-field sort option
func SortMultiple(fields ...SortField) bson.D {
	sort := bson.D{}
	for _, f := range fields {
		if f.Descending {
			sort = append(sort, bson.E{Key: f.Field, Value: -1})
		} else {
			sort = append(sort, bson.E{Key: f.Field, Value: 1})
		}
	}
	return sort
}
