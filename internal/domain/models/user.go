// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account holder. Besides identity it carries the denormalized
// counters the rest of the system keeps consistent:
//
//   - TotalUpvotes / TotalDownvotes count the votes the user's freets have
//     received across all time.
//   - ReputationScore is always TotalUpvotes - TotalDownvotes. It is
//     maintained incrementally alongside every counter mutation, never
//     recomputed lazily.
//   - LikedFreets / DislikedFreets are the user's vote ledger: which freets
//     this user currently upvotes or downvotes. A freet id appears in at
//     most one of the two arrays.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Username   string             `bson:"username" json:"username"`
	UsernameCI string             `bson:"username_ci" json:"username_ci"` // lowercase, diacritics-stripped
	Password   string             `bson:"password" json:"-"`              // bcrypt hash

	Followers   int64 `bson:"followers" json:"followers"`
	Following   int64 `bson:"following" json:"following"`
	TotalFreets int64 `bson:"total_freets" json:"total_freets"`

	TotalUpvotes    int64 `bson:"total_upvotes" json:"total_upvotes"`
	TotalDownvotes  int64 `bson:"total_downvotes" json:"total_downvotes"`
	ReputationScore int64 `bson:"reputation_score" json:"reputation_score"`

	Groups         []primitive.ObjectID `bson:"groups" json:"groups"`
	LikedFreets    []primitive.ObjectID `bson:"liked_freets" json:"liked_freets"`
	DislikedFreets []primitive.ObjectID `bson:"disliked_freets" json:"disliked_freets"`

	DateJoined time.Time `bson:"date_joined" json:"date_joined"`
}
