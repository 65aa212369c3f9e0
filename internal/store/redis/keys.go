package redis

const (
	// KeyPrefixBookmark is the prefix for bookmark records
	KeyPrefixBookmark = "imiimi:bookmark:"
	// KeyPrefixKeychain is the prefix for inverted-index entries
	KeyPrefixKeychain = "imiimi:keychain:"
	// KeyPrefixReference is the prefix for reference records
	KeyPrefixReference = "imiimi:reference:"
	// KeyPrefixUserBookmarks is the prefix for per-user bookmark-key sets
	KeyPrefixUserBookmarks = "imiimi:user:"
	// KeyPrefixCache is the prefix for cached search results
	KeyPrefixCache = "imiimi:cache:"
	// KeyBookmarksByUpdated is the sorted set of all bookmark keys,
	// scored by updated time (unix nanos)
	KeyBookmarksByUpdated = "imiimi:bookmarks:byupdated"
)

// BookmarkKey returns the Redis key for a bookmark record.
func BookmarkKey(key string) string {
	return KeyPrefixBookmark + key
}

// KeychainKey returns the Redis key for a stem's keychain.
//
// Index and unindex resolve a keychain for every tag on a bookmark, so the
// stem-to-key mapping has to be a direct lookup, never a scan.
func KeychainKey(stem string) string {
	return KeyPrefixKeychain + stem
}

// ReferenceKey returns the Redis key for a reference record.
func ReferenceKey(id string) string {
	return KeyPrefixReference + id
}

// UserBookmarksKey returns the Redis key for the set of bookmark keys a
// user has referenced.
func UserBookmarksKey(user string) string {
	return KeyPrefixUserBookmarks + user + ":bookmarks"
}

// CacheKey returns the Redis key for a cached search computation.
func CacheKey(query string) string {
	return KeyPrefixCache + query
}
