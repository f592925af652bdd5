package indexes_test

import (
	"testing"

	"github.com/freethub/freethub/internal/app/system/indexes"
	"github.com/freethub/freethub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestEnsureAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("first EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesUserIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	cur, err := db.Collection("users").Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	uniqueByName := make(map[string]bool)
	for cur.Next(ctx) {
		var idx struct {
			Name   string `bson:"name"`
			Unique bool   `bson:"unique"`
			Key    bson.M `bson:"key"`
		}
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		names[idx.Name] = true
		uniqueByName[idx.Name] = idx.Unique
	}

	for _, want := range []string{
		"uniq_users_username_ci",
		"idx_users_liked_freets",
		"idx_users_disliked_freets",
	} {
		if !names[want] {
			t.Errorf("expected index %q to exist on users collection", want)
		}
	}
	if !uniqueByName["uniq_users_username_ci"] {
		t.Error("uniq_users_username_ci should be a unique index")
	}
}
