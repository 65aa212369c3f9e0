package domain

import "errors"

var (
	// ErrNoQuery means a search received neither words nor users. Callers
	// fall back to the plain reverse-chronological listing.
	ErrNoQuery = errors.New("no query")

	// ErrGenericQuery means a search carried a user scope but no rankable
	// words, leaving nothing to discriminate on. Same fallback as ErrNoQuery,
	// scoped to those users.
	ErrGenericQuery = errors.New("generic query")

	// ErrNotFound is returned by stores for missing records.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateReference means the user already saved this bookmark.
	ErrDuplicateReference = errors.New("reference already exists")
)
