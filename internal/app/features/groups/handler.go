// internal/app/features/groups/handler.go
package groups

import (
	"context"
	"errors"
	"net/http"

	"github.com/freethub/freethub/internal/app/features/shared"
	"github.com/freethub/freethub/internal/app/membership"
	"github.com/freethub/freethub/internal/app/policy/grouppolicy"
	"github.com/freethub/freethub/internal/app/store/groups"
	"github.com/freethub/freethub/internal/app/store/messages"
	"github.com/freethub/freethub/internal/app/store/users"
	"github.com/freethub/freethub/internal/app/system/auth"
	"github.com/freethub/freethub/internal/app/system/timeouts"
	"github.com/freethub/freethub/internal/app/views"
	"github.com/freethub/freethub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Groups     *groupstore.Store
	Users      *userstore.Store
	Messages   *messagestore.Store
	Membership *membership.Manager
	Log        *zap.Logger
}

func NewHandler(gs *groupstore.Store, us *userstore.Store, ms *messagestore.Store, mm *membership.Manager, log *zap.Logger) *Handler {
	return &Handler{Groups: gs, Users: us, Messages: ms, Membership: mm, Log: log}
}

type createRequest struct {
	Name string `json:"name"`
}

type memberRequest struct {
	Username string `json:"username"`
}

// groupSummary is the list shape: roster and messages stay as counts.
type groupSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	CreatorID    string `json:"creator_id"`
	MemberCount  int    `json:"member_count"`
	MessageCount int    `json:"message_count"`
	DateCreated  string `json:"date_created"`
}

func summarize(g models.Group) groupSummary {
	return groupSummary{
		ID:           g.ID.Hex(),
		Name:         g.Name,
		CreatorID:    g.CreatorID.Hex(),
		MemberCount:  len(g.AllUsers),
		MessageCount: len(g.AllMessages),
		DateCreated:  views.Moment(g.DateCreated),
	}
}

// ServeList returns all groups; ?member=me narrows to the signed-in
// user's groups.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		list []models.Group
		err  error
	)
	if r.URL.Query().Get("member") == "me" {
		su, ok := auth.CurrentUser(r)
		if !ok {
			shared.Error(w, http.StatusUnauthorized, "you must be signed in")
			return
		}
		list, err = h.Groups.ListByMember(ctx, su.ObjectID())
	} else {
		list, err = h.Groups.ListAll(ctx)
	}
	if err != nil {
		h.Log.Error("list groups failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not list groups")
		return
	}

	out := make([]groupSummary, 0, len(list))
	for _, g := range list {
		out = append(out, summarize(g))
	}
	shared.JSON(w, http.StatusOK, out)
}

// ServeGroup returns one group with its roster and message history
// resolved. Only roster members can read a group.
func (h *Handler) ServeGroup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	su, _ := auth.CurrentUser(r)
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	g, err := h.Groups.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			shared.Error(w, http.StatusNotFound, "group not found")
			return
		}
		h.Log.Error("load group failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not load group")
		return
	}
	if !grouppolicy.CanPost(g, su.ObjectID()) {
		shared.Error(w, http.StatusForbidden, "you are not a member of this group")
		return
	}

	members, err := h.Users.GetMany(ctx, g.AllUsers)
	if err != nil {
		h.Log.Error("resolve roster failed", zap.Error(err), zap.String("group_id", id.Hex()))
		shared.Error(w, http.StatusInternalServerError, "could not load group")
		return
	}
	msgs, err := h.Messages.GetMany(ctx, g.AllMessages)
	if err != nil {
		h.Log.Error("resolve messages failed", zap.Error(err), zap.String("group_id", id.Hex()))
		shared.Error(w, http.StatusInternalServerError, "could not load group")
		return
	}
	// Senders who have left the group still need resolving for display.
	senderIDs := []primitive.ObjectID{}
	for _, m := range msgs {
		if _, ok := members[m.SenderID]; !ok {
			senderIDs = append(senderIDs, m.SenderID)
		}
	}
	if len(senderIDs) > 0 {
		extra, err := h.Users.GetMany(ctx, senderIDs)
		if err != nil {
			h.Log.Error("resolve senders failed", zap.Error(err), zap.String("group_id", id.Hex()))
			shared.Error(w, http.StatusInternalServerError, "could not load group")
			return
		}
		for uid, u := range extra {
			members[uid] = u
		}
	}

	shared.JSON(w, http.StatusOK, views.Group(g, members, msgs))
}

// HandleCreate makes a group with the signed-in user as creator.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	su, _ := auth.CurrentUser(r)

	var req createRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	g, err := h.Membership.CreateGroup(ctx, su.ObjectID(), req.Name)
	if err != nil {
		switch {
		case errors.Is(err, membership.ErrUserNotFound):
			shared.Error(w, http.StatusUnauthorized, "you must be signed in")
		case shared.IsValidationError(err):
			shared.Error(w, http.StatusBadRequest, err.Error())
		default:
			h.Log.Error("create group failed", zap.Error(err))
			shared.Error(w, http.StatusInternalServerError, "could not create group")
		}
		return
	}
	shared.JSON(w, http.StatusCreated, summarize(g))
}

// HandleAddMember puts a user, named by username, on the roster.
// Creator only.
func (h *Handler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	su, _ := auth.CurrentUser(r)
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req memberRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	g, err := h.Groups.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			shared.Error(w, http.StatusNotFound, "group not found")
			return
		}
		h.Log.Error("load group failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not update group")
		return
	}
	if !grouppolicy.CanManage(g, su.ObjectID()) {
		shared.Error(w, http.StatusForbidden, "only the creator can manage members")
		return
	}

	member, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			shared.Error(w, http.StatusNotFound, "user not found")
			return
		}
		h.Log.Error("lookup member failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not update group")
		return
	}

	g, err = h.Membership.AddMember(ctx, id, member.ID)
	if err != nil {
		h.Log.Error("add member failed", zap.Error(err), zap.String("group_id", id.Hex()))
		shared.Error(w, http.StatusInternalServerError, "could not update group")
		return
	}
	shared.JSON(w, http.StatusOK, summarize(g))
}

// HandleRemoveMember takes a user off the roster. Creator only; the
// creator themselves can never be removed.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	su, _ := auth.CurrentUser(r)
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	memberID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	g, err := h.Groups.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			shared.Error(w, http.StatusNotFound, "group not found")
			return
		}
		h.Log.Error("load group failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not update group")
		return
	}
	if !grouppolicy.CanManage(g, su.ObjectID()) {
		shared.Error(w, http.StatusForbidden, "only the creator can manage members")
		return
	}

	g, err = h.Membership.RemoveMember(ctx, id, memberID)
	if err != nil {
		if errors.Is(err, membership.ErrCreatorRemoval) {
			shared.Error(w, http.StatusForbidden, "the creator cannot leave their own group")
			return
		}
		h.Log.Error("remove member failed", zap.Error(err), zap.String("group_id", id.Hex()))
		shared.Error(w, http.StatusInternalServerError, "could not update group")
		return
	}
	shared.JSON(w, http.StatusOK, summarize(g))
}

// HandleDelete removes a group and its messages. Creator only.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	su, _ := auth.CurrentUser(r)
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	g, err := h.Groups.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			shared.Error(w, http.StatusNotFound, "group not found")
			return
		}
		h.Log.Error("load group failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not delete group")
		return
	}
	if !grouppolicy.CanManage(g, su.ObjectID()) {
		shared.Error(w, http.StatusForbidden, "only the creator can delete a group")
		return
	}

	if err := h.Membership.DeleteGroup(ctx, id); err != nil {
		h.Log.Error("delete group failed", zap.Error(err), zap.String("group_id", id.Hex()))
		shared.Error(w, http.StatusInternalServerError, "could not delete group")
		return
	}
	shared.JSON(w, http.StatusOK, map[string]string{"status": "group deleted"})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid group id")
		return primitive.NilObjectID, false
	}
	return id, true
}
