package handlers

import (
	"net/http"

	"github.com/codealamode/imiimi/internal/httpserver/deps"
	"github.com/codealamode/imiimi/internal/logger"
)

// Search answers GET /api/search with one page of relevance-ranked
// bookmarks. Unrankable queries degrade to a reverse-chronological listing
// inside the engine, so the endpoint never 400s on query shape.
func Search(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := searchParams(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		result, err := d.Engine.Search(r.Context(), p)
		if err != nil {
			d.Logger.Error("search failed",
				logger.String("query", p.Query),
				logger.Error(err))
			respondError(w, http.StatusInternalServerError, "search failed")
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

type countResponse struct {
	Count int `json:"count"`
}

// SearchCount answers GET /api/search/count: how many bookmarks carry every
// word of the query. Backs live-search result annotations.
func SearchCount(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")

		count, err := d.Engine.CountRelevant(r.Context(), query)
		if err != nil {
			d.Logger.Error("count failed",
				logger.String("query", query),
				logger.Error(err))
			respondError(w, http.StatusInternalServerError, "count failed")
			return
		}
		respondJSON(w, http.StatusOK, countResponse{Count: count})
	}
}
