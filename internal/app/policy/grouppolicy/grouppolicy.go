// internal/app/policy/grouppolicy.go
package grouppolicy

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/freethub/freethub/internal/domain/models"
)

// CanManage reports whether actorID may add or remove members of g, or
// delete g. Only the creator manages a group.
func CanManage(g models.Group, actorID primitive.ObjectID) bool {
	return g.CreatorID == actorID
}

// CanPost reports whether actorID may post a message to g. Any roster
// member can post.
func CanPost(g models.Group, actorID primitive.ObjectID) bool {
	return g.HasMember(actorID)
}
