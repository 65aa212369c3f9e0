package domain

import (
	"crypto/md5"
	"encoding/hex"
	"time"
)

// Bookmark represents one distinct, normalized URL: the forward-index record
// holding the tags extracted from the page content.
//
// At most one Bookmark exists per canonical URL; its key is derived from the
// URL. Stems, Words and Counts run in parallel: Stems[i] is the stem of
// Words[i] and Counts[i] its normalized weight in (0, 1].
type Bookmark struct {
	// Key is the canonical unique identifier, derived from the normalized URL.
	Key string `json:"key"`

	// URL is the normalized URL. Two saves of syntactically different but
	// equivalent URLs land on the same Bookmark.
	URL string `json:"url"`

	// MimeType of the last fetched content, ex: "text/html".
	MimeType string `json:"mime_type"`

	// Title is the page title, or the URL when the page had none or could
	// not be fetched.
	Title string `json:"title"`

	// ContentHash is the digest of the last-fetched bytes, used only for
	// change detection. Empty when the last fetch failed.
	ContentHash string `json:"content_hash"`

	Stems  []string  `json:"stems"`
	Words  []string  `json:"words"`
	Counts []float64 `json:"counts"`

	// Popularity counts the references pointing at this bookmark. When it
	// drops to zero the bookmark is deleted and unindexed.
	Popularity int `json:"popularity"`

	// Public bookmarks appear in everyone's search results; private ones
	// only in their owners'.
	Public bool `json:"public"`

	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// Tag is one auto-extracted tag: the stem, the original word that produced
// it, and the normalized occurrence count.
type Tag struct {
	Stem  string  `json:"stem"`
	Word  string  `json:"word"`
	Count float64 `json:"count"`
}

// BookmarkKey derives the storage key for a canonical URL.
//
// Every index and unindex operation resolves bookmarks and keychains by key,
// so key derivation must be cheap and stable; a digest of the canonical URL
// keeps keys short and safe for any store.
func BookmarkKey(canonicalURL string) string {
	sum := md5.Sum([]byte(canonicalURL))
	return hex.EncodeToString(sum[:])
}

// HasStem reports whether the bookmark carries the given stem, and its
// normalized count if so.
func (b *Bookmark) HasStem(stem string) (float64, bool) {
	for i, s := range b.Stems {
		if s == stem {
			return b.Counts[i], true
		}
	}
	return 0, false
}

// SetTags replaces the bookmark's tag list.
func (b *Bookmark) SetTags(tags []Tag) {
	b.Stems = make([]string, len(tags))
	b.Words = make([]string, len(tags))
	b.Counts = make([]float64, len(tags))
	for i, tag := range tags {
		b.Stems[i] = tag.Stem
		b.Words[i] = tag.Word
		b.Counts[i] = tag.Count
	}
}

// Tags returns the bookmark's tag list.
func (b *Bookmark) Tags() []Tag {
	tags := make([]Tag, len(b.Stems))
	for i := range b.Stems {
		tags[i] = Tag{Stem: b.Stems[i], Word: b.Words[i], Count: b.Counts[i]}
	}
	return tags
}
