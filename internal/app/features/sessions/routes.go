// internal/app/features/sessions/routes.go
package sessions

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleLogin)
	r.Delete("/", h.HandleLogout)
	r.Get("/", h.ServeCurrent)
	return r
}
