// internal/app/features/users/handler.go
package users

import (
	"context"
	"errors"
	"net/http"

	"github.com/freethub/freethub/internal/app/features/shared"
	"github.com/freethub/freethub/internal/app/membership"
	"github.com/freethub/freethub/internal/app/store/freets"
	"github.com/freethub/freethub/internal/app/store/groups"
	"github.com/freethub/freethub/internal/app/store/users"
	"github.com/freethub/freethub/internal/app/system/auth"
	"github.com/freethub/freethub/internal/app/system/htmlsanitize"
	"github.com/freethub/freethub/internal/app/system/inputval"
	"github.com/freethub/freethub/internal/app/system/normalize"
	"github.com/freethub/freethub/internal/app/system/timeouts"
	"github.com/freethub/freethub/internal/app/views"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	Users      *userstore.Store
	Freets     *freetstore.Store
	Groups     *groupstore.Store
	Membership *membership.Manager
	SessionMgr *auth.SessionManager
	Log        *zap.Logger
}

func NewHandler(us *userstore.Store, fs *freetstore.Store, gs *groupstore.Store, mm *membership.Manager, sm *auth.SessionManager, log *zap.Logger) *Handler {
	return &Handler{Users: us, Freets: fs, Groups: gs, Membership: mm, SessionMgr: sm, Log: log}
}

type registerRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type updateRequest struct {
	Username *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
}

// HandleRegister creates an account and signs the new user in.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var req registerRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := normalize.Name(htmlsanitize.Plain(req.Name))
	username := normalize.Username(req.Username)
	if name == "" {
		shared.Error(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := inputval.Username(username); err != nil {
		shared.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := inputval.Password(req.Password); err != nil {
		shared.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Log.Error("bcrypt hash failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not create account")
		return
	}

	u, err := h.Users.Create(ctx, name, username, string(hash))
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateUsername) {
			shared.Error(w, http.StatusConflict, "username is already taken")
			return
		}
		h.Log.Error("create user failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not create account")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex(), u.Name, u.Username); err != nil {
		h.Log.Error("sign-in after register failed", zap.Error(err), zap.String("user_id", u.ID.Hex()))
	}
	shared.JSON(w, http.StatusCreated, views.User(u))
}

// ServeUser returns one user, looked up by path id or by ?username=.
func (h *Handler) ServeUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var err error

	if idParam := chi.URLParam(r, "id"); idParam != "" {
		id, perr := primitive.ObjectIDFromHex(idParam)
		if perr != nil {
			shared.Error(w, http.StatusBadRequest, "invalid user id")
			return
		}
		user, gerr := h.Users.GetByID(ctx, id)
		err = gerr
		if err == nil {
			shared.JSON(w, http.StatusOK, views.User(user))
			return
		}
	} else if username := r.URL.Query().Get("username"); username != "" {
		user, gerr := h.Users.GetByUsername(ctx, username)
		err = gerr
		if err == nil {
			shared.JSON(w, http.StatusOK, views.User(user))
			return
		}
	} else {
		shared.Error(w, http.StatusBadRequest, "user id or username is required")
		return
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		shared.Error(w, http.StatusNotFound, "user not found")
		return
	}
	h.Log.Error("lookup user failed", zap.Error(err))
	shared.Error(w, http.StatusInternalServerError, "could not look up user")
}

// HandleUpdate changes the signed-in user's username and/or password.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	su, ok := auth.CurrentUser(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "you must be signed in")
		return
	}
	userID := su.ObjectID()

	var req updateRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == nil && req.Password == nil {
		shared.Error(w, http.StatusBadRequest, "nothing to update")
		return
	}

	if req.Username != nil {
		username := normalize.Username(*req.Username)
		if err := inputval.Username(username); err != nil {
			shared.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := h.Users.UpdateUsername(ctx, userID, username); err != nil {
			switch {
			case errors.Is(err, userstore.ErrDuplicateUsername):
				shared.Error(w, http.StatusConflict, "username is already taken")
			case errors.Is(err, mongo.ErrNoDocuments):
				shared.Error(w, http.StatusNotFound, "user not found")
			default:
				h.Log.Error("update username failed", zap.Error(err))
				shared.Error(w, http.StatusInternalServerError, "could not update account")
			}
			return
		}
	}

	if req.Password != nil {
		if err := inputval.Password(*req.Password); err != nil {
			shared.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			h.Log.Error("bcrypt hash failed", zap.Error(err))
			shared.Error(w, http.StatusInternalServerError, "could not update account")
			return
		}
		if err := h.Users.UpdatePassword(ctx, userID, string(hash)); err != nil {
			h.Log.Error("update password failed", zap.Error(err))
			shared.Error(w, http.StatusInternalServerError, "could not update account")
			return
		}
	}

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		h.Log.Error("reload user failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not update account")
		return
	}
	shared.JSON(w, http.StatusOK, views.User(u))
}

// HandleDelete removes the signed-in user's account: their freets, the
// groups they created (with messages), their roster entries elsewhere,
// and finally the user document. The session is ended either way.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	su, ok := auth.CurrentUser(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "you must be signed in")
		return
	}
	userID := su.ObjectID()

	created, err := h.Groups.ListByCreator(ctx, userID)
	if err != nil {
		h.Log.Error("list created groups failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not delete account")
		return
	}
	for _, g := range created {
		if err := h.Membership.DeleteGroup(ctx, g.ID); err != nil {
			h.Log.Error("delete created group failed", zap.Error(err), zap.String("group_id", g.ID.Hex()))
			shared.Error(w, http.StatusInternalServerError, "could not delete account")
			return
		}
	}

	joined, err := h.Groups.ListByMember(ctx, userID)
	if err != nil {
		h.Log.Error("list joined groups failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not delete account")
		return
	}
	for _, g := range joined {
		if _, err := h.Membership.RemoveMember(ctx, g.ID, userID); err != nil {
			h.Log.Error("leave group failed", zap.Error(err), zap.String("group_id", g.ID.Hex()))
			shared.Error(w, http.StatusInternalServerError, "could not delete account")
			return
		}
	}

	if _, err := h.Freets.DeleteByAuthor(ctx, userID); err != nil {
		h.Log.Error("delete freets failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not delete account")
		return
	}
	if _, err := h.Users.Delete(ctx, userID); err != nil {
		h.Log.Error("delete user failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not delete account")
		return
	}

	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Warn("sign-out after delete failed", zap.Error(err))
	}
	shared.JSON(w, http.StatusOK, map[string]string{"status": "account deleted"})
}
