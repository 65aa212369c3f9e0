package domain

import "time"

// Reference records that a given user saved a given bookmark. It carries its
// own public flag so a user can keep a popular bookmark private.
//
// At most one Reference exists per (user, bookmark) pair.
type Reference struct {
	// ID is "<user>/<bookmark key>".
	ID string `json:"id"`

	User        string `json:"user"`
	BookmarkKey string `json:"bookmark_key"`
	Public      bool   `json:"public"`

	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// ReferenceID derives the storage ID for a (user, bookmark) pair.
func ReferenceID(user, bookmarkKey string) string {
	return user + "/" + bookmarkKey
}
