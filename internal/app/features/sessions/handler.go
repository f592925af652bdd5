// internal/app/features/sessions/handler.go
package sessions

import (
	"context"
	"errors"
	"net/http"

	"github.com/freethub/freethub/internal/app/features/shared"
	"github.com/freethub/freethub/internal/app/store/users"
	"github.com/freethub/freethub/internal/app/system/auth"
	"github.com/freethub/freethub/internal/app/system/normalize"
	"github.com/freethub/freethub/internal/app/system/timeouts"
	"github.com/freethub/freethub/internal/app/views"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	Users      *userstore.Store
	SessionMgr *auth.SessionManager
	Log        *zap.Logger
}

func NewHandler(us *userstore.Store, sm *auth.SessionManager, log *zap.Logger) *Handler {
	return &Handler{Users: us, SessionMgr: sm, Log: log}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin verifies credentials and starts a session. Wrong username
// and wrong password get the same response so the endpoint does not
// confirm which usernames exist.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var req loginRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.Users.GetByUsername(ctx, normalize.Username(req.Username))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			shared.Error(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		h.Log.Error("lookup user for login failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not sign in")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)); err != nil {
		shared.Error(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex(), u.Name, u.Username); err != nil {
		h.Log.Error("sign-in failed", zap.Error(err), zap.String("user_id", u.ID.Hex()))
		shared.Error(w, http.StatusInternalServerError, "could not sign in")
		return
	}
	shared.JSON(w, http.StatusOK, views.User(u))
}

// HandleLogout ends the session. Logging out while not signed in is fine.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Warn("sign-out failed", zap.Error(err))
	}
	shared.JSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

// ServeCurrent returns the signed-in user's account.
func (h *Handler) ServeCurrent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	su, ok := auth.CurrentUser(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "you must be signed in")
		return
	}
	u, err := h.Users.GetByID(ctx, su.ObjectID())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Account was deleted while the cookie was still live.
			_ = h.SessionMgr.SignOut(w, r)
			shared.Error(w, http.StatusUnauthorized, "you must be signed in")
			return
		}
		h.Log.Error("load current user failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not load account")
		return
	}
	shared.JSON(w, http.StatusOK, views.User(u))
}
