package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/freethub/freethub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// TestPassword is the plaintext behind every fixture user's credential.
const TestPassword = "correct-horse"

// testPasswordHash is bcrypt(TestPassword) at cost 10, precomputed so
// fixture creation does not pay the hash cost per user.
const testPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Fixtures inserts ready-made documents for store and handler tests.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user with zeroed counters and an empty ledger.
// The credential is TestPassword.
func (f *Fixtures) CreateUser(ctx context.Context, name, username string) models.User {
	f.t.Helper()

	user := models.User{
		ID:             primitive.NewObjectID(),
		Name:           name,
		Username:       username,
		UsernameCI:     text.Fold(username),
		Password:       testPasswordHash,
		Groups:         []primitive.ObjectID{},
		LikedFreets:    []primitive.ObjectID{},
		DislikedFreets: []primitive.ObjectID{},
		DateJoined:     time.Now().UTC(),
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateFreet inserts a freet with zero votes.
func (f *Fixtures) CreateFreet(ctx context.Context, authorID primitive.ObjectID, content string) models.Freet {
	f.t.Helper()

	now := time.Now().UTC()
	freet := models.Freet{
		ID:           primitive.NewObjectID(),
		AuthorID:     authorID,
		Content:      content,
		DateCreated:  now,
		DateModified: now,
	}
	if _, err := f.db.Collection("freets").InsertOne(ctx, freet); err != nil {
		f.t.Fatalf("failed to create test freet: %v", err)
	}
	return freet
}

// CreateGroup inserts a group whose roster is exactly the creator. The
// group reference is not mirrored onto the creator's user document;
// tests that need the back-reference go through the membership manager.
func (f *Fixtures) CreateGroup(ctx context.Context, name string, creatorID primitive.ObjectID) models.Group {
	f.t.Helper()

	group := models.Group{
		ID:          primitive.NewObjectID(),
		Name:        name,
		CreatorID:   creatorID,
		AllUsers:    []primitive.ObjectID{creatorID},
		AllMessages: []primitive.ObjectID{},
		DateCreated: time.Now().UTC(),
	}
	if _, err := f.db.Collection("groups").InsertOne(ctx, group); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	return group
}

// CreateMessage inserts a message and appends it to the group's sequence.
func (f *Fixtures) CreateMessage(ctx context.Context, senderID, groupID primitive.ObjectID, content string) models.Message {
	f.t.Helper()

	msg := models.Message{
		ID:       primitive.NewObjectID(),
		SenderID: senderID,
		GroupID:  groupID,
		Content:  content,
		DateSent: time.Now().UTC(),
	}
	if _, err := f.db.Collection("messages").InsertOne(ctx, msg); err != nil {
		f.t.Fatalf("failed to create test message: %v", err)
	}
	if _, err := f.db.Collection("groups").UpdateByID(ctx, groupID,
		bson.M{"$push": bson.M{"all_messages": msg.ID}}); err != nil {
		f.t.Fatalf("failed to append test message to group: %v", err)
	}
	return msg
}
