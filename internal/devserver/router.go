package devserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter wires the boundary's routes: open auth endpoints plus the
// token-protected notes CRUD, all under /api.
func NewRouter(store *Store, secret string) http.Handler {
	h := NewHandlers(store, secret)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(secret))
			r.Get("/notes", h.ListNotes)
			r.Post("/notes", h.CreateNote)
			r.Put("/notes/{id}", h.UpdateNote)
			r.Delete("/notes/{id}", h.DeleteNote)
		})
	})
	return r
}
