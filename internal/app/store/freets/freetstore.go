// internal/app/store/freets/freetstore.go
package freetstore

import (
	"context"
	"time"

	"github.com/freethub/freethub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("freets")}
}

// Create inserts a freet with zeroed tallies. Content must already be
// validated and sanitized by the caller.
func (s *Store) Create(ctx context.Context, authorID primitive.ObjectID, content string) (models.Freet, error) {
	now := time.Now().UTC()
	f := models.Freet{
		ID:           primitive.NewObjectID(),
		AuthorID:     authorID,
		Content:      content,
		DateCreated:  now,
		DateModified: now,
	}
	if _, err := s.c.InsertOne(ctx, f); err != nil {
		return models.Freet{}, err
	}
	return f, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Freet, error) {
	var f models.Freet
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&f); err != nil {
		return models.Freet{}, err
	}
	return f, nil
}

// ListAll returns every freet, most recently modified first.
func (s *Store) ListAll(ctx context.Context) ([]models.Freet, error) {
	return s.list(ctx, bson.M{})
}

// ListByAuthor returns the author's freets, most recently modified first.
func (s *Store) ListByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]models.Freet, error) {
	return s.list(ctx, bson.M{"author_id": authorID})
}

func (s *Store) list(ctx context.Context, filter bson.M) ([]models.Freet, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date_modified", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	freets := []models.Freet{}
	if err := cur.All(ctx, &freets); err != nil {
		return nil, err
	}
	return freets, nil
}

// UpdateContent replaces the freet's content and bumps date_modified,
// returning the updated document. Votes are untouched.
func (s *Store) UpdateContent(ctx context.Context, id primitive.ObjectID, content string) (models.Freet, error) {
	update := bson.M{"$set": bson.M{
		"content":       content,
		"date_modified": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var f models.Freet
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&f); err != nil {
		return models.Freet{}, err
	}
	return f, nil
}

// ApplyVote adjusts the tally for polarity p by step (+1 or -1) as a
// server-side $inc, so concurrent votes from different users cannot lose
// updates. Decrements are filtered on the tally being positive; the
// tallies can never go negative. Returns mongo.ErrNoDocuments when the
// freet is missing or the guard rejects the decrement.
func (s *Store) ApplyVote(ctx context.Context, id primitive.ObjectID, p models.Polarity, step int64) error {
	tally := "upvotes"
	if p == models.Downvote {
		tally = "downvotes"
	}
	filter := bson.M{"_id": id}
	if step < 0 {
		filter[tally] = bson.M{"$gt": int64(0)}
	}
	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{tally: step}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a freet by ID. Returns the number of documents deleted.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByAuthor removes all of an author's freets (used when the account
// is deleted). Returns the number of documents deleted.
func (s *Store) DeleteByAuthor(ctx context.Context, authorID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"author_id": authorID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
