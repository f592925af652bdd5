// internal/domain/models/freet.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Freet is a short post (1-140 printable characters).
//
// Upvotes and Downvotes are tallies of current votes: each equals the number
// of users whose ledger references this freet under that polarity. They are
// mutated only through server-side $inc updates and never go negative.
type Freet struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AuthorID primitive.ObjectID `bson:"author_id" json:"author_id"`
	Content  string             `bson:"content" json:"content"`

	Upvotes   int64 `bson:"upvotes" json:"upvotes"`
	Downvotes int64 `bson:"downvotes" json:"downvotes"`

	DateCreated  time.Time `bson:"date_created" json:"date_created"`
	DateModified time.Time `bson:"date_modified" json:"date_modified"`
}
