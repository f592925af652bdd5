// internal/app/store/users/ledger.go
package userstore

// The vote ledger lives on the user document: liked_freets and
// disliked_freets hold the freets the user currently upvotes/downvotes.
// Because both arrays are on one document, a single filtered UpdateOne is
// an atomic check-and-set. That update is the sole serialization point for
// a (user, freet) pair: it enforces mutual exclusion of polarity and
// suppresses duplicate votes in the same step, which is what makes the
// multi-collection vote sequence safe to retry.

import (
	"context"
	"errors"

	"github.com/freethub/freethub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrAlreadyVoted means the user already holds this exact polarity for
	// the freet.
	ErrAlreadyVoted = errors.New("user has already cast this vote")

	// ErrOppositeVote means the user holds the opposite polarity; the
	// caller must clear it before recording this one.
	ErrOppositeVote = errors.New("user holds the opposite vote for this freet")

	// ErrNoSuchVote means there is no ledger entry to clear.
	ErrNoSuchVote = errors.New("user has no such vote to retract")
)

func ledgerField(p models.Polarity) string {
	if p == models.Downvote {
		return "disliked_freets"
	}
	return "liked_freets"
}

// HasVoted reports whether the user's ledger references freetID under the
// given polarity.
func (s *Store) HasVoted(ctx context.Context, userID, freetID primitive.ObjectID, p models.Polarity) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": userID, ledgerField(p): freetID})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RecordVote adds freetID to the user's ledger under polarity p. The update
// only matches when the freet is absent from both ledger arrays, so a
// concurrent duplicate or a held opposite vote cannot slip through.
//
// Returns ErrAlreadyVoted if the same polarity is already held,
// ErrOppositeVote if the other polarity is held, and mongo.ErrNoDocuments
// if the user does not exist.
func (s *Store) RecordVote(ctx context.Context, userID, freetID primitive.ObjectID, p models.Polarity) error {
	filter := bson.M{
		"_id":             userID,
		"liked_freets":    bson.M{"$ne": freetID},
		"disliked_freets": bson.M{"$ne": freetID},
	}
	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$addToSet": bson.M{ledgerField(p): freetID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}

	// The guarded update matched nothing: find out why.
	same, err := s.HasVoted(ctx, userID, freetID, p)
	if err != nil {
		return err
	}
	if same {
		return ErrAlreadyVoted
	}
	opposite, err := s.HasVoted(ctx, userID, freetID, p.Opposite())
	if err != nil {
		return err
	}
	if opposite {
		return ErrOppositeVote
	}
	return mongo.ErrNoDocuments
}

// ClearVote removes freetID from the user's ledger under polarity p.
// Returns ErrNoSuchVote if the entry is absent and mongo.ErrNoDocuments if
// the user does not exist.
func (s *Store) ClearVote(ctx context.Context, userID, freetID primitive.ObjectID, p models.Polarity) error {
	filter := bson.M{"_id": userID, ledgerField(p): freetID}
	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$pull": bson.M{ledgerField(p): freetID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}

	n, err := s.c.CountDocuments(ctx, bson.M{"_id": userID})
	if err != nil {
		return err
	}
	if n == 0 {
		return mongo.ErrNoDocuments
	}
	return ErrNoSuchVote
}
