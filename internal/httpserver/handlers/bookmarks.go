package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/codealamode/imiimi/internal/domain"
	"github.com/codealamode/imiimi/internal/httpserver/deps"
	"github.com/codealamode/imiimi/internal/logger"
)

// ListBookmarks answers GET /api/bookmarks: a reverse-chronological page,
// optionally scoped to users and to a before-cutoff.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := searchParams(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		p.Query = "" // plain listing, never ranked

		result, err := d.Engine.GetBookmarks(r.Context(), p)
		if err != nil {
			d.Logger.Error("list bookmarks failed", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "listing failed")
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

type saveRequest struct {
	URL    string `json:"url"`
	Public bool   `json:"public"`
}

// CreateBookmark answers POST /api/bookmarks: run the save pipeline for the
// acting user. Re-saving an already-referenced URL is a conflict.
func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := actor(r)
		if user == "" {
			respondError(w, http.StatusBadRequest, "missing "+ActorHeader+" header")
			return
		}

		var req saveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
			respondError(w, http.StatusBadRequest, "body must be JSON with a url")
			return
		}

		reference, err := d.Bookmarks.CreateBookmark(r.Context(), user, req.URL, req.Public)
		switch {
		case errors.Is(err, domain.ErrDuplicateReference):
			respondError(w, http.StatusConflict, "bookmark already saved")
		case err != nil:
			// The pipeline degrades on fetch/parse failures, so the only
			// client-caused error left is a URL that can't be canonicalized.
			d.Logger.Warn("create bookmark rejected",
				logger.String("url", req.URL),
				logger.Error(err))
			respondError(w, http.StatusBadRequest, "invalid url")
		default:
			respondJSON(w, http.StatusCreated, reference)
		}
	}
}

type updateRequest struct {
	Public bool `json:"public"`
}

// UpdateBookmark answers PUT /api/bookmarks/{key}: re-fetch the document
// and reindex when its content changed.
func UpdateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := actor(r)
		if user == "" {
			respondError(w, http.StatusBadRequest, "missing "+ActorHeader+" header")
			return
		}
		key := chi.URLParam(r, "key")

		var req updateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "body must be JSON")
			return
		}

		reference, err := d.Bookmarks.UpdateBookmark(r.Context(), user, key, req.Public)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			respondError(w, http.StatusNotFound, "bookmark not found")
		case err != nil:
			d.Logger.Error("update bookmark failed",
				logger.String("key", key),
				logger.Error(err))
			respondError(w, http.StatusInternalServerError, "update failed")
		default:
			respondJSON(w, http.StatusOK, reference)
		}
	}
}

// DeleteReference answers DELETE /api/references/{user}/{key}. Users drop
// only their own references.
func DeleteReference(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := chi.URLParam(r, "user")
		key := chi.URLParam(r, "key")

		if actor(r) != user {
			respondError(w, http.StatusForbidden, "references can only be deleted by their owner")
			return
		}

		err := d.Bookmarks.DeleteBookmark(r.Context(), user, key)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			respondError(w, http.StatusNotFound, "reference not found")
		case err != nil:
			d.Logger.Error("delete reference failed",
				logger.String("user", user),
				logger.String("key", key),
				logger.Error(err))
			respondError(w, http.StatusInternalServerError, "delete failed")
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}
}
