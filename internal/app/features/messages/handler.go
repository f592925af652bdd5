// internal/app/features/messages/handler.go
package messages

import (
	"context"
	"errors"
	"net/http"

	"github.com/freethub/freethub/internal/app/features/shared"
	"github.com/freethub/freethub/internal/app/membership"
	"github.com/freethub/freethub/internal/app/store/users"
	"github.com/freethub/freethub/internal/app/system/auth"
	"github.com/freethub/freethub/internal/app/system/timeouts"
	"github.com/freethub/freethub/internal/app/views"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Handler struct {
	Users      *userstore.Store
	Membership *membership.Manager
	Log        *zap.Logger
}

func NewHandler(us *userstore.Store, mm *membership.Manager, log *zap.Logger) *Handler {
	return &Handler{Users: us, Membership: mm, Log: log}
}

type postRequest struct {
	GroupID string `json:"group_id"`
	Content string `json:"content"`
}

// HandlePost sends a message to a group the signed-in user belongs to.
func (h *Handler) HandlePost(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	su, _ := auth.CurrentUser(r)
	senderID := su.ObjectID()

	var req postRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	groupID, err := primitive.ObjectIDFromHex(req.GroupID)
	if err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid group id")
		return
	}

	msg, err := h.Membership.PostMessage(ctx, senderID, groupID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, membership.ErrGroupNotFound):
			shared.Error(w, http.StatusNotFound, "group not found")
		case errors.Is(err, membership.ErrNotMember):
			shared.Error(w, http.StatusForbidden, "you are not a member of this group")
		case shared.IsValidationError(err):
			shared.Error(w, http.StatusBadRequest, err.Error())
		default:
			h.Log.Error("post message failed", zap.Error(err), zap.String("group_id", req.GroupID))
			shared.Error(w, http.StatusInternalServerError, "could not post message")
		}
		return
	}

	sender, gerr := h.Users.GetByID(ctx, senderID)
	if gerr != nil {
		shared.JSON(w, http.StatusCreated, views.Message(msg, nil))
		return
	}
	shared.JSON(w, http.StatusCreated, views.Message(msg, &sender))
}
