// Package urlnorm canonicalizes URLs so that syntactically different but
// equivalent URLs compare equal. The canonical form is what bookmark keys
// and cache keys are derived from.
package urlnorm

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

var ErrUnsupportedScheme = errors.New("unsupported URL scheme")

var escapeSequence = regexp.MustCompile(`%[0-9A-Fa-f][0-9A-Fa-f]`)

// Normalizer canonicalizes URLs. The zero value is usable; DocumentIndexes
// lists path suffixes that name a directory's default document and are
// stripped ("/index.html" and "/" are the same resource).
type Normalizer struct {
	DocumentIndexes []string
}

// Normalize canonicalizes a raw URL:
//
//   - default the scheme to http, reject anything but http/https
//   - lowercase scheme and host, strip the scheme's default port
//   - resolve "." and ".." path segments (".." clamps at the root), drop
//     empty segments, strip a trailing directory-index document
//   - drop query pairs with empty values, sort the rest by key then value
//   - keep the fragment (plenty of pages vary content by fragment)
//   - uppercase the hex digits of every %XX escape
//
// Normalize is pure and idempotent.
func (n *Normalizer) Normalize(raw string) (string, error) {
	withScheme, err := normalizeScheme(raw)
	if err != nil {
		return "", err
	}

	u, err := url.Parse(withScheme)
	if err != nil {
		return "", fmt.Errorf("unparsable URL %q: %w", raw, err)
	}

	scheme := strings.ToLower(u.Scheme)
	host := normalizeHost(scheme, u.Host)
	path := n.normalizePath(u.EscapedPath())
	query := normalizeQuery(u.RawQuery)

	out := scheme + "://" + host + path
	if query != "" {
		out += "?" + query
	}
	if u.Fragment != "" {
		out += "#" + u.EscapedFragment()
	}

	return upperEscapes(out), nil
}

// normalizeScheme defaults a missing scheme to http and rejects schemes
// other than http and https.
func normalizeScheme(raw string) (string, error) {
	parts := strings.SplitN(raw, "://", 2)
	if len(parts) == 2 {
		scheme := strings.ToLower(parts[0])
		if scheme != "http" && scheme != "https" {
			return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, parts[0])
		}
		return scheme + "://" + parts[1], nil
	}
	return "http://" + parts[0], nil
}

// normalizeHost lowercases the host and strips the scheme's default port.
func normalizeHost(scheme, host string) string {
	host = strings.ToLower(host)
	switch {
	case scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	return host
}

// normalizePath removes dot segments (RFC 3986 §5.2.4), drops empty
// segments, and strips a trailing directory-index document. An empty result
// becomes "/".
func (n *Normalizer) normalizePath(path string) string {
	var out []string
	for _, segment := range strings.Split(path, "/") {
		switch segment {
		case "", ".":
			// no-op
		case "..":
			// Popping past the root is a no-op, never an error.
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, segment)
		}
	}
	path = "/" + strings.Join(out, "/")

	lower := strings.ToLower(path)
	for _, index := range n.DocumentIndexes {
		if strings.HasSuffix(lower, strings.ToLower(index)) {
			path = path[:strings.LastIndex(path, "/")]
			break
		}
	}
	if path == "" {
		path = "/"
	}
	return path
}

// normalizeQuery drops pairs with empty values and sorts the rest by key,
// then value, re-encoding for a canonical ordering.
func normalizeQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	type pair struct{ key, value string }
	var pairs []pair
	for _, kv := range strings.Split(rawQuery, "&") {
		if kv == "" {
			continue
		}
		key, value, _ := strings.Cut(kv, "=")
		if value == "" {
			continue
		}
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		if v, err := url.QueryUnescape(value); err == nil {
			value = v
		}
		pairs = append(pairs, pair{key, value})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].key != pairs[j].key {
			return pairs[i].key < pairs[j].key
		}
		return pairs[i].value < pairs[j].value
	})

	encoded := make([]string, len(pairs))
	for i, p := range pairs {
		encoded[i] = url.QueryEscape(p.key) + "=" + url.QueryEscape(p.value)
	}
	return strings.Join(encoded, "&")
}

// upperEscapes capitalizes the hex digits of %XX escape sequences.
func upperEscapes(s string) string {
	return escapeSequence.ReplaceAllStringFunc(s, strings.ToUpper)
}
