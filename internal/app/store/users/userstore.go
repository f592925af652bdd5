// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/freethub/freethub/internal/app/system/normalize"
	"github.com/freethub/freethub/internal/app/system/reputation"
	"github.com/freethub/freethub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateUsername = errors.New("a user with this username already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// Create inserts a new user with zeroed counters and an empty ledger.
// password must already be a bcrypt hash.
func (s *Store) Create(ctx context.Context, name, username, passwordHash string) (models.User, error) {
	username = normalize.Username(username)
	u := models.User{
		ID:             primitive.NewObjectID(),
		Name:           normalize.Name(name),
		Username:       username,
		UsernameCI:     text.Fold(username),
		Password:       passwordHash,
		Groups:         []primitive.ObjectID{},
		LikedFreets:    []primitive.ObjectID{},
		DislikedFreets: []primitive.ObjectID{},
		DateJoined:     time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateUsername
		}
		return models.User{}, err
	}
	return u, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// GetMany resolves a set of user ids, keyed by id. Ids that no longer
// resolve are simply absent from the result.
func (s *Store) GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	out := make(map[primitive.ObjectID]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, cur.Err()
}

// GetByUsername looks a user up case-insensitively.
func (s *Store) GetByUsername(ctx context.Context, username string) (models.User, error) {
	var u models.User
	filter := bson.M{"username_ci": text.Fold(normalize.Username(username))}
	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// UpdateUsername changes the display username and its folded key.
func (s *Store) UpdateUsername(ctx context.Context, id primitive.ObjectID, username string) error {
	username = normalize.Username(username)
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"username":    username,
		"username_ci": text.Fold(username),
	}})
	if wafflemongo.IsDup(err) {
		return ErrDuplicateUsername
	}
	return err
}

// UpdatePassword replaces the stored bcrypt hash.
func (s *Store) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"password": passwordHash}})
	return err
}

// Delete removes a user. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// IncTotalFreets adjusts the freet counter by delta. Decrements are guarded
// server side so the counter never goes below zero.
func (s *Store) IncTotalFreets(ctx context.Context, id primitive.ObjectID, delta int64) error {
	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["total_freets"] = bson.M{"$gt": int64(0)}
	}
	_, err := s.c.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"total_freets": delta}})
	return err
}

// ApplyReceivedVote adjusts a freet author's received-vote counter for the
// given polarity by step (+1 or -1), moving reputation_score in the same
// atomic update so the stored score never drifts from the counters.
func (s *Store) ApplyReceivedVote(ctx context.Context, authorID primitive.ObjectID, p models.Polarity, step int64) error {
	counter := "total_upvotes"
	if p == models.Downvote {
		counter = "total_downvotes"
	}
	filter := bson.M{"_id": authorID}
	if step < 0 {
		filter[counter] = bson.M{"$gt": int64(0)}
	}
	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{
		counter:            step,
		"reputation_score": reputation.Delta(p, step),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Author gone (deleted mid-vote) or counter already at zero.
		return mongo.ErrNoDocuments
	}
	return nil
}

// AddGroupRef records a group on the user's back-reference list.
// Idempotent: re-adding is a no-op.
func (s *Store) AddGroupRef(ctx context.Context, userID, groupID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, userID, bson.M{"$addToSet": bson.M{"groups": groupID}})
	return err
}

// RemoveGroupRef removes a group from the user's back-reference list.
func (s *Store) RemoveGroupRef(ctx context.Context, userID, groupID primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, userID, bson.M{"$pull": bson.M{"groups": groupID}})
	return err
}
