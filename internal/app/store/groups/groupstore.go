// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"time"

	"github.com/freethub/freethub/internal/app/system/normalize"
	"github.com/freethub/freethub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups")}
}

// Create inserts a group whose roster is exactly the creator and whose
// message sequence is empty.
func (s *Store) Create(ctx context.Context, creatorID primitive.ObjectID, name string) (models.Group, error) {
	g := models.Group{
		ID:          primitive.NewObjectID(),
		Name:        normalize.Name(name),
		CreatorID:   creatorID,
		AllUsers:    []primitive.ObjectID{creatorID},
		AllMessages: []primitive.ObjectID{},
		DateCreated: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

func (s *Store) ListAll(ctx context.Context) ([]models.Group, error) {
	return s.list(ctx, bson.M{})
}

// ListByMember returns the groups whose roster contains userID.
func (s *Store) ListByMember(ctx context.Context, userID primitive.ObjectID) ([]models.Group, error) {
	return s.list(ctx, bson.M{"all_users": userID})
}

func (s *Store) ListByCreator(ctx context.Context, creatorID primitive.ObjectID) ([]models.Group, error) {
	return s.list(ctx, bson.M{"creator_id": creatorID})
}

func (s *Store) list(ctx context.Context, filter bson.M) ([]models.Group, error) {
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	groups := []models.Group{}
	if err := cur.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// AddMember appends userID to the roster if absent. Returns whether the
// roster changed; re-adding a member is a no-op, not an error.
func (s *Store) AddMember(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateByID(ctx, groupID, bson.M{"$addToSet": bson.M{"all_users": userID}})
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, mongo.ErrNoDocuments
	}
	return res.ModifiedCount == 1, nil
}

// RemoveMember pulls userID from the roster. Removing an absent user is a
// no-op. The creator guard lives in the membership manager, which loads
// the group before mutating it.
func (s *Store) RemoveMember(ctx context.Context, groupID, userID primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateByID(ctx, groupID, bson.M{"$pull": bson.M{"all_users": userID}})
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, mongo.ErrNoDocuments
	}
	return res.ModifiedCount == 1, nil
}

// AppendMessage pushes messageID onto the end of the group's message
// sequence, preserving send order.
func (s *Store) AppendMessage(ctx context.Context, groupID, messageID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, groupID, bson.M{"$push": bson.M{"all_messages": messageID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a group by ID. Returns the number of documents deleted.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
