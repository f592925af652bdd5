// internal/app/features/users/routes.go
package users

import (
	"github.com/freethub/freethub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.HandleRegister)
	r.Get("/", h.ServeUser) // lookup by ?username=
	r.Get("/{id}", h.ServeUser)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Patch("/", h.HandleUpdate)
		pr.Delete("/", h.HandleDelete)
	})

	return r
}
