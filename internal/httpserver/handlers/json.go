package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/codealamode/imiimi/internal/search"
)

// ActorHeader carries the requesting user's name. Authentication proper is
// handled upstream; an absent header means anonymous.
const ActorHeader = "X-Imiimi-User"

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

func actor(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(ActorHeader))
}

// searchParams reads the shared listing/search query parameters. user may
// repeat or hold a comma-separated list; before is RFC 3339.
func searchParams(r *http.Request) (search.Params, error) {
	q := r.URL.Query()

	p := search.Params{
		Query: strings.TrimSpace(q.Get("q")),
		Actor: actor(r),
	}

	for _, raw := range q["user"] {
		for _, user := range strings.Split(raw, ",") {
			if user = strings.TrimSpace(user); user != "" {
				p.Users = append(p.Users, user)
			}
		}
	}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 0 {
			return p, errInvalidParam("page")
		}
		p.Page = page
	}

	if raw := q.Get("before"); raw != "" {
		before, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return p, errInvalidParam("before")
		}
		p.Before = before
	}

	return p, nil
}

type paramError string

func (e paramError) Error() string { return "invalid parameter: " + string(e) }

func errInvalidParam(name string) error { return paramError(name) }
