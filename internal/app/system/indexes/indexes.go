// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureFreets(ctx, db); err != nil {
		problems = append(problems, "freets: "+err.Error())
	}
	if err := ensureGroups(ctx, db); err != nil {
		problems = append(problems, "groups: "+err.Error())
	}
	if err := ensureMessages(ctx, db); err != nil {
		problems = append(problems, "messages: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, specs []mongo.IndexModel) error {
	_, err := coll.Indexes().CreateMany(ctx, specs)
	if err == nil {
		return nil
	}
	// DocDB-compatible stores report IndexOptionsConflict when an index with
	// the same keys already exists under another name. The index is there;
	// treat it as ensured.
	if strings.Contains(err.Error(), "IndexOptionsConflict") {
		return nil
	}
	return err
}

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		{
			// Case-insensitive unique usernames; username_ci holds the folded form.
			Keys:    bson.D{{Key: "username_ci", Value: 1}},
			Options: options.Index().SetName("uniq_users_username_ci").SetUnique(true),
		},
		{
			// Ledger containment checks from the freet side (reconciliation).
			Keys:    bson.D{{Key: "liked_freets", Value: 1}},
			Options: options.Index().SetName("idx_users_liked_freets"),
		},
		{
			Keys:    bson.D{{Key: "disliked_freets", Value: 1}},
			Options: options.Index().SetName("idx_users_disliked_freets"),
		},
	})
}

func ensureFreets(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("freets"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "author_id", Value: 1}, {Key: "date_modified", Value: -1}},
			Options: options.Index().SetName("idx_freets_author_datemodified"),
		},
		{
			// Feed is newest-modified first.
			Keys:    bson.D{{Key: "date_modified", Value: -1}},
			Options: options.Index().SetName("idx_freets_datemodified"),
		},
	})
}

func ensureGroups(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("groups"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "creator_id", Value: 1}},
			Options: options.Index().SetName("idx_groups_creator"),
		},
		{
			// Roster containment (which groups is this user in).
			Keys:    bson.D{{Key: "all_users", Value: 1}},
			Options: options.Index().SetName("idx_groups_all_users"),
		},
	})
}

func ensureMessages(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("messages"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "group_id", Value: 1}, {Key: "date_sent", Value: 1}},
			Options: options.Index().SetName("idx_messages_group_datesent"),
		},
		{
			Keys:    bson.D{{Key: "sender_id", Value: 1}},
			Options: options.Index().SetName("idx_messages_sender"),
		},
	})
}
