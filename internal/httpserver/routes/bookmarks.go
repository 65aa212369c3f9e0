package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/codealamode/imiimi/internal/httpserver/deps"
	"github.com/codealamode/imiimi/internal/httpserver/handlers"
)

func init() { Register(registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	r.Get("/api/bookmarks", handlers.ListBookmarks(d))
	r.Post("/api/bookmarks", handlers.CreateBookmark(d))
	r.Put("/api/bookmarks/{key}", handlers.UpdateBookmark(d))
	r.Delete("/api/references/{user}/{key}", handlers.DeleteReference(d))
}
