package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/codealamode/imiimi/internal/httpserver/deps"
	"github.com/codealamode/imiimi/internal/httpserver/handlers"
)

func init() { Register(registerSearch) }

func registerSearch(r chi.Router, d deps.Deps) {
	r.Get("/api/search", handlers.Search(d))
	r.Get("/api/search/count", handlers.SearchCount(d))
}
