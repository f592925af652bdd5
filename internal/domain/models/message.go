// internal/domain/models/message.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message belongs to exactly one group and is immutable once created. It is
// referenced from exactly one position in that group's AllMessages sequence.
type Message struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SenderID primitive.ObjectID `bson:"sender_id" json:"sender_id"`
	GroupID  primitive.ObjectID `bson:"group_id" json:"group_id"`
	Content  string             `bson:"content" json:"content"`

	DateSent time.Time `bson:"date_sent" json:"date_sent"`
}
