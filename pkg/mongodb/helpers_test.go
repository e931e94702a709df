package mongodb

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

func TestSortBuilders(t *testing.T) {
	asc := SortAscending("productId")
	if len(asc) != 1 || asc[0].Key != "productId" || asc[0].Value != 1 {
		t.Errorf("SortAscending = %v, want productId ascending", asc)
	}

	desc := SortDescending("updatedAt")
	if len(desc) != 1 || desc[0].Key != "updatedAt" || desc[0].Value != -1 {
		t.Errorf("SortDescending = %v, want updatedAt descending", desc)
	}

	multi := SortMultiple(
		SortField{Field: "timestamp", Descending: true},
		SortField{Field: "_id", Descending: true},
	)
	if len(multi) != 2 {
		t.Fatalf("SortMultiple returned %d fields, want 2", len(multi))
	}
	if multi[0].Key != "timestamp" || multi[0].Value != -1 {
		t.Errorf("first sort field = %v, want timestamp descending", multi[0])
	}
	if multi[1].Key != "_id" || multi[1].Value != -1 {
		t.Errorf("second sort field = %v, want _id descending", multi[1])
	}
}

func TestBuildUpdateWithTimestamp(t *testing.T) {
	before := time.Now().UTC()
	update := BuildUpdateWithTimestamp(bson.M{"active": false})

	set, ok := update["$set"].(bson.M)
	if !ok {
		t.Fatalf("update %v has no $set document", update)
	}
	if set["active"] != false {
		t.Errorf("active = %v, want false", set["active"])
	}

	updatedAt, ok := set["updatedAt"].(time.Time)
	if !ok {
		t.Fatalf("updatedAt %v is not a time.Time", set["updatedAt"])
	}
	if updatedAt.Before(before) || time.Since(updatedAt) > time.Minute {
		t.Errorf("updatedAt = %v, want a current UTC timestamp", updatedAt)
	}
	if updatedAt.Location() != time.UTC {
		t.Errorf("updatedAt location = %v, want UTC", updatedAt.Location())
	}
}
