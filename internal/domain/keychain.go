package domain

import "time"

// Keychain is one inverted-index entry: the set of bookmark keys relevant to
// a word stem.
//
// A keychain exists iff at least one bookmark currently carries its stem;
// empty keychains are deleted, never persisted. The keys are weak
// back-references used purely for lookup.
type Keychain struct {
	// Stem is the indexed word stem, ex: "cat".
	Stem string `json:"stem"`

	// Word is a representative original word that produced the stem,
	// ex: "cats". Display-only.
	Word string `json:"word"`

	// Keys holds the bookmark keys carrying the stem. Order is insertion
	// order; membership is what matters.
	Keys []string `json:"keys"`

	// Popularity is maintained as len(Keys) on every mutation and used as a
	// ranking signal.
	Popularity int `json:"popularity"`

	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// HasKey reports whether the keychain references the given bookmark key.
func (k *Keychain) HasKey(bookmarkKey string) bool {
	for _, key := range k.Keys {
		if key == bookmarkKey {
			return true
		}
	}
	return false
}

// RemoveKey deletes the given bookmark key from the keychain, reporting
// whether it was present.
func (k *Keychain) RemoveKey(bookmarkKey string) bool {
	for i, key := range k.Keys {
		if key == bookmarkKey {
			k.Keys = append(k.Keys[:i], k.Keys[i+1:]...)
			return true
		}
	}
	return false
}
