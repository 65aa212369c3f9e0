// Package tokenizer parses fetched content into a title, a cleaned word
// sequence, and a content hash used for change detection.
package tokenizer

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// skipTags hold no taggable content and are stripped wholesale before word
// extraction, comments included.
var skipTags = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
}

// Tokenizer extracts words from HTML documents. Only text inside the
// content-bearing tags listed in ContentTags is considered; navigation and
// boilerplate text stays out of the index.
type Tokenizer struct {
	contentTags map[string]bool
}

func New(contentTags []string) *Tokenizer {
	tags := make(map[string]bool, len(contentTags))
	for _, tag := range contentTags {
		tags[strings.ToLower(tag)] = true
	}
	return &Tokenizer{contentTags: tags}
}

// TokenizeHTML parses an HTML document into a title, a word sequence, and a
// hash of the raw bytes. The title is "" when the document has none; the
// caller substitutes the URL. An error means the markup was unparsable and
// the caller should fall back to degraded (empty) content.
func (t *Tokenizer) TokenizeHTML(data []byte) (title string, words []string, hash string, err error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", nil, "", fmt.Errorf("unparsable markup: %w", err)
	}

	var content strings.Builder
	t.walk(root, false, &title, &content)

	return title, ExtractWords(content.String()), ContentHash(data), nil
}

// walk visits every node once. Text under a content tag is collected; the
// outermost content tag wins, so nothing is counted twice when content tags
// nest. Skip tags and comments are pruned entirely.
func (t *Tokenizer) walk(n *html.Node, collecting bool, title *string, content *strings.Builder) {
	switch n.Type {
	case html.CommentNode:
		return
	case html.ElementNode:
		if skipTags[n.DataAtom] {
			return
		}
		if n.DataAtom == atom.Title && *title == "" {
			*title = strings.TrimSpace(nodeText(n))
		}
		if !collecting && t.contentTags[strings.ToLower(n.Data)] {
			collecting = true
		}
	case html.TextNode:
		if collecting {
			content.WriteString(n.Data)
			content.WriteByte(' ')
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		t.walk(c, collecting, title, content)
	}
}

// nodeText concatenates all text beneath a node.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var rec func(*html.Node)
	rec = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			rec(c)
		}
	}
	rec(n)
	return sb.String()
}

// ContentHash digests raw content bytes for change detection. Not a
// security boundary; it only gates re-indexing.
func ContentHash(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
