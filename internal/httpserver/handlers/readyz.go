package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/codealamode/imiimi/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// Readyz reports readiness: a live Redis connection when one is configured,
// otherwise the in-memory store is always ready.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.RedisClient == nil {
			respondJSON(w, http.StatusOK, readyzResponse{Ready: true})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := d.RedisClient.Ping(ctx).Err(); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, readyzResponse{
				Ready: false,
				Error: "redis unreachable",
			})
			return
		}
		respondJSON(w, http.StatusOK, readyzResponse{Ready: true})
	}
}
