// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group is a chat room. AllUsers is the roster (the creator is always a
// member and can never be removed); AllMessages is the chronological
// sequence of message references, appended to as messages are posted.
type Group struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	CreatorID primitive.ObjectID `bson:"creator_id" json:"creator_id"`

	AllUsers    []primitive.ObjectID `bson:"all_users" json:"all_users"`
	AllMessages []primitive.ObjectID `bson:"all_messages" json:"all_messages"`

	DateCreated time.Time `bson:"date_created" json:"date_created"`
}

// HasMember reports whether userID is on the roster.
func (g Group) HasMember(userID primitive.ObjectID) bool {
	for _, id := range g.AllUsers {
		if id == userID {
			return true
		}
	}
	return false
}
