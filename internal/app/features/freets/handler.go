// internal/app/features/freets/handler.go
package freets

import (
	"context"
	"errors"
	"net/http"

	"github.com/freethub/freethub/internal/app/features/shared"
	"github.com/freethub/freethub/internal/app/store/freets"
	"github.com/freethub/freethub/internal/app/store/users"
	"github.com/freethub/freethub/internal/app/system/auth"
	"github.com/freethub/freethub/internal/app/system/htmlsanitize"
	"github.com/freethub/freethub/internal/app/system/inputval"
	"github.com/freethub/freethub/internal/app/system/timeouts"
	"github.com/freethub/freethub/internal/app/system/txn"
	"github.com/freethub/freethub/internal/app/views"
	"github.com/freethub/freethub/internal/app/vote"
	"github.com/freethub/freethub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Client  *mongo.Client
	Users   *userstore.Store
	Freets  *freetstore.Store
	Applier *vote.Applier
	Log     *zap.Logger
}

func NewHandler(client *mongo.Client, us *userstore.Store, fs *freetstore.Store, ap *vote.Applier, log *zap.Logger) *Handler {
	return &Handler{Client: client, Users: us, Freets: fs, Applier: ap, Log: log}
}

type createRequest struct {
	Content string `json:"content"`
}

type patchRequest struct {
	Action  string `json:"action"`
	Content string `json:"content,omitempty"`
}

// ServeList returns freets newest-modified first, optionally filtered to
// one author with ?author=<username>.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		list []models.Freet
		err  error
	)
	if username := r.URL.Query().Get("author"); username != "" {
		var author models.User
		author, err = h.Users.GetByUsername(ctx, username)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				shared.Error(w, http.StatusNotFound, "author not found")
				return
			}
			h.Log.Error("lookup author failed", zap.Error(err))
			shared.Error(w, http.StatusInternalServerError, "could not list freets")
			return
		}
		list, err = h.Freets.ListByAuthor(ctx, author.ID)
	} else {
		list, err = h.Freets.ListAll(ctx)
	}
	if err != nil {
		h.Log.Error("list freets failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not list freets")
		return
	}

	out := make([]views.FreetView, 0, len(list))
	authors := map[primitive.ObjectID]*models.User{}
	for _, f := range list {
		author, ok := authors[f.AuthorID]
		if !ok {
			if u, err := h.Users.GetByID(ctx, f.AuthorID); err == nil {
				author = &u
			}
			authors[f.AuthorID] = author // nil for deleted authors
		}
		out = append(out, views.Freet(f, author))
	}
	shared.JSON(w, http.StatusOK, out)
}

// ServeFreet returns a single freet with its author resolved.
func (h *Handler) ServeFreet(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	f, err := h.Freets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			shared.Error(w, http.StatusNotFound, "freet not found")
			return
		}
		h.Log.Error("load freet failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not load freet")
		return
	}

	var author *models.User
	if u, err := h.Users.GetByID(ctx, f.AuthorID); err == nil {
		author = &u
	}
	shared.JSON(w, http.StatusOK, views.Freet(f, author))
}

// HandleCreate posts a freet and bumps the author's total_freets in the
// same transaction where the deployment supports one.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	su, _ := auth.CurrentUser(r)
	authorID := su.ObjectID()

	var req createRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	content := htmlsanitize.Plain(req.Content)
	if err := inputval.Content(content); err != nil {
		shared.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	var f models.Freet
	err := txn.WithTransaction(ctx, h.Client, func(ctx context.Context) error {
		var err error
		f, err = h.Freets.Create(ctx, authorID, content)
		if err != nil {
			return err
		}
		return h.Users.IncTotalFreets(ctx, authorID, 1)
	})
	if err != nil {
		h.Log.Error("create freet failed", zap.Error(err), zap.String("author_id", authorID.Hex()))
		shared.Error(w, http.StatusInternalServerError, "could not create freet")
		return
	}

	author, _ := h.Users.GetByID(ctx, authorID)
	shared.JSON(w, http.StatusCreated, views.Freet(f, &author))
}

// HandlePatch applies a vote action or an edit. Edits are restricted to
// the freet's author; votes are open to any signed-in user, the author
// included.
func (h *Handler) HandlePatch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	su, _ := auth.CurrentUser(r)
	actorID := su.ObjectID()

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req patchRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	action := vote.Action{Kind: vote.ActionKind(req.Action), Content: req.Content}
	switch action.Kind {
	case vote.AddUpvote, vote.SubtractUpvote, vote.AddDownvote, vote.SubtractDownvote:
	case vote.EditContent:
		f, err := h.Freets.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				shared.Error(w, http.StatusNotFound, "freet not found")
				return
			}
			h.Log.Error("load freet failed", zap.Error(err))
			shared.Error(w, http.StatusInternalServerError, "could not update freet")
			return
		}
		if f.AuthorID != actorID {
			shared.Error(w, http.StatusForbidden, "only the author can edit a freet")
			return
		}
	default:
		shared.Error(w, http.StatusBadRequest, "unknown action")
		return
	}

	f, err := h.Applier.Apply(ctx, actorID, id, action)
	if err != nil {
		switch {
		case errors.Is(err, vote.ErrFreetNotFound):
			shared.Error(w, http.StatusNotFound, "freet not found")
		case errors.Is(err, vote.ErrUserNotFound):
			shared.Error(w, http.StatusUnauthorized, "you must be signed in")
		case shared.IsValidationError(err):
			shared.Error(w, http.StatusBadRequest, err.Error())
		default:
			h.Log.Error("apply freet action failed", zap.Error(err),
				zap.String("action", req.Action), zap.String("freet_id", id.Hex()))
			shared.Error(w, http.StatusInternalServerError, "could not update freet")
		}
		return
	}

	var author *models.User
	if u, err := h.Users.GetByID(ctx, f.AuthorID); err == nil {
		author = &u
	}
	shared.JSON(w, http.StatusOK, views.Freet(f, author))
}

// HandleDelete removes the signed-in author's freet and decrements their
// total_freets.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	su, _ := auth.CurrentUser(r)
	actorID := su.ObjectID()

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	f, err := h.Freets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			shared.Error(w, http.StatusNotFound, "freet not found")
			return
		}
		h.Log.Error("load freet failed", zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "could not delete freet")
		return
	}
	if f.AuthorID != actorID {
		shared.Error(w, http.StatusForbidden, "only the author can delete a freet")
		return
	}

	err = txn.WithTransaction(ctx, h.Client, func(ctx context.Context) error {
		if _, err := h.Freets.Delete(ctx, id); err != nil {
			return err
		}
		return h.Users.IncTotalFreets(ctx, actorID, -1)
	})
	if err != nil {
		h.Log.Error("delete freet failed", zap.Error(err), zap.String("freet_id", id.Hex()))
		shared.Error(w, http.StatusInternalServerError, "could not delete freet")
		return
	}
	shared.JSON(w, http.StatusOK, map[string]string{"status": "freet deleted"})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid freet id")
		return primitive.NilObjectID, false
	}
	return id, true
}
