// internal/app/membership/manager.go
//
// Package membership owns group rosters and the back-references a
// roster change touches: the group's all_users array and each member's
// groups array live on different documents, so every mutation here is
// a short multi-document sequence run under a transaction when the
// deployment supports one. The roster write goes first and is the
// authoritative state; a dangling back-reference is recoverable by
// retrying the same call.
package membership

import (
	"context"
	"errors"
	"fmt"

	"github.com/freethub/freethub/internal/app/store/groups"
	"github.com/freethub/freethub/internal/app/store/messages"
	"github.com/freethub/freethub/internal/app/store/users"
	"github.com/freethub/freethub/internal/app/system/htmlsanitize"
	"github.com/freethub/freethub/internal/app/system/inputval"
	"github.com/freethub/freethub/internal/app/system/txn"
	"github.com/freethub/freethub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrGroupNotFound  = errors.New("group not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrCreatorRemoval = errors.New("group creator cannot be removed")
	ErrNotMember      = errors.New("user is not a member of this group")
)

type Manager struct {
	client   *mongo.Client
	groups   *groupstore.Store
	users    *userstore.Store
	messages *messagestore.Store
	log      *zap.Logger
}

func NewManager(client *mongo.Client, gs *groupstore.Store, us *userstore.Store, ms *messagestore.Store, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{client: client, groups: gs, users: us, messages: ms, log: log}
}

// CreateGroup makes a group whose roster is exactly the creator and
// records the group reference on the creator's user document.
func (m *Manager) CreateGroup(ctx context.Context, creatorID primitive.ObjectID, name string) (models.Group, error) {
	clean := htmlsanitize.Plain(name)
	if err := inputval.Content(clean); err != nil {
		return models.Group{}, err
	}
	if _, err := m.users.GetByID(ctx, creatorID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Group{}, ErrUserNotFound
		}
		return models.Group{}, err
	}

	var g models.Group
	err := txn.WithTransaction(ctx, m.client, func(ctx context.Context) error {
		var err error
		g, err = m.groups.Create(ctx, creatorID, clean)
		if err != nil {
			return err
		}
		if err := m.users.AddGroupRef(ctx, creatorID, g.ID); err != nil {
			return m.partialWrite(ctx, "createGroup", creatorID, g.ID, err)
		}
		return nil
	})
	if err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// AddMember puts userID on the group's roster. Adding a user who is
// already a member is a no-op.
func (m *Manager) AddMember(ctx context.Context, groupID, userID primitive.ObjectID) (models.Group, error) {
	if _, err := m.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Group{}, ErrUserNotFound
		}
		return models.Group{}, err
	}

	err := txn.WithTransaction(ctx, m.client, func(ctx context.Context) error {
		changed, err := m.groups.AddMember(ctx, groupID, userID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return ErrGroupNotFound
			}
			return err
		}
		if !changed {
			return nil
		}
		if err := m.users.AddGroupRef(ctx, userID, groupID); err != nil {
			return m.partialWrite(ctx, "addMember", userID, groupID, err)
		}
		return nil
	})
	if err != nil {
		return models.Group{}, err
	}
	return m.getGroup(ctx, groupID)
}

// RemoveMember takes userID off the roster. The creator can never be
// removed; removing a non-member is a no-op.
func (m *Manager) RemoveMember(ctx context.Context, groupID, userID primitive.ObjectID) (models.Group, error) {
	g, err := m.getGroup(ctx, groupID)
	if err != nil {
		return models.Group{}, err
	}
	if g.CreatorID == userID {
		return models.Group{}, ErrCreatorRemoval
	}

	err = txn.WithTransaction(ctx, m.client, func(ctx context.Context) error {
		changed, err := m.groups.RemoveMember(ctx, groupID, userID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return ErrGroupNotFound
			}
			return err
		}
		if !changed {
			return nil
		}
		if err := m.users.RemoveGroupRef(ctx, userID, groupID); err != nil {
			return m.partialWrite(ctx, "removeMember", userID, groupID, err)
		}
		return nil
	})
	if err != nil {
		return models.Group{}, err
	}
	return m.getGroup(ctx, groupID)
}

// PostMessage creates a message from a roster member and appends it to
// the group's chronological message sequence.
func (m *Manager) PostMessage(ctx context.Context, senderID, groupID primitive.ObjectID, content string) (models.Message, error) {
	clean := htmlsanitize.Plain(content)
	if err := inputval.Content(clean); err != nil {
		return models.Message{}, err
	}
	g, err := m.getGroup(ctx, groupID)
	if err != nil {
		return models.Message{}, err
	}
	if !g.HasMember(senderID) {
		return models.Message{}, ErrNotMember
	}

	var msg models.Message
	err = txn.WithTransaction(ctx, m.client, func(ctx context.Context) error {
		var err error
		msg, err = m.messages.Create(ctx, senderID, groupID, clean)
		if err != nil {
			return err
		}
		if err := m.groups.AppendMessage(ctx, groupID, msg.ID); err != nil {
			return m.partialWrite(ctx, "postMessage", senderID, groupID, err)
		}
		return nil
	})
	if err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// DeleteGroup removes the group, its messages, and the group reference
// from every roster member.
func (m *Manager) DeleteGroup(ctx context.Context, groupID primitive.ObjectID) error {
	g, err := m.getGroup(ctx, groupID)
	if err != nil {
		return err
	}
	return txn.WithTransaction(ctx, m.client, func(ctx context.Context) error {
		if _, err := m.groups.Delete(ctx, groupID); err != nil {
			return err
		}
		if _, err := m.messages.DeleteByGroup(ctx, groupID); err != nil {
			return m.partialWrite(ctx, "deleteGroup", g.CreatorID, groupID, err)
		}
		for _, memberID := range g.AllUsers {
			if err := m.users.RemoveGroupRef(ctx, memberID, groupID); err != nil {
				return m.partialWrite(ctx, "deleteGroup", memberID, groupID, err)
			}
		}
		return nil
	})
}

func (m *Manager) getGroup(ctx context.Context, groupID primitive.ObjectID) (models.Group, error) {
	g, err := m.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Group{}, ErrGroupNotFound
		}
		return models.Group{}, err
	}
	return g, nil
}

func (m *Manager) partialWrite(ctx context.Context, op string, userID, groupID primitive.ObjectID, err error) error {
	corr := uuid.NewString()
	m.log.Error("group back-reference update failed after roster write",
		zap.String("op", op),
		zap.String("correlation_id", corr),
		zap.String("user_id", userID.Hex()),
		zap.String("group_id", groupID.Hex()),
		zap.Error(err))
	return fmt.Errorf("%s (correlation %s): %w", op, corr, err)
}
