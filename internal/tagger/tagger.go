// Package tagger converts a word sequence into a weighted tag list: words
// are stemmed, words sharing a stem merge into one tag, weights are
// normalized against the maximum and thresholded.
package tagger

import (
	"sort"

	snowballeng "github.com/kljensen/snowball/english"

	"github.com/codealamode/imiimi/internal/domain"
	"github.com/codealamode/imiimi/internal/tokenizer"
)

// DefaultMinCount is the normalized-weight threshold below which tags are
// considered insignificant and discarded.
const DefaultMinCount = 0.125

// Stem reduces a word to its root form, ex: "cats" -> "cat". Query stemming
// must go through here too so search stays consistent with indexing.
func Stem(word string) string {
	return snowballeng.Stem(word, false)
}

// AutoTag turns a word sequence into a tag list sorted by word.
//
// Distinct words are visited in order of first occurrence, so when several
// words share a stem the earliest one in the document supplies the tag's
// display word. Weights accumulate raw occurrence counts per stem, are
// divided by the maximum (all end up in (0, 1], exactly one at 1.0), and
// tags below minCount are dropped. Empty input yields an empty list.
func AutoTag(words []string, stopWords *tokenizer.StopWords, minCount float64) []domain.Tag {
	counts := make(map[string]float64, len(words))
	order := make([]string, 0, len(words))
	for _, word := range words {
		if _, seen := counts[word]; !seen {
			order = append(order, word)
		}
		counts[word]++
	}

	byStem := make(map[string]*domain.Tag)
	var maxCount float64
	for _, word := range order {
		if stopWords.Contains(word) {
			continue
		}
		stem := Stem(word)
		tag, ok := byStem[stem]
		if !ok {
			tag = &domain.Tag{Stem: stem, Word: word}
			byStem[stem] = tag
		}
		tag.Count += counts[word]
		if tag.Count > maxCount {
			maxCount = tag.Count
		}
	}

	if maxCount == 0 {
		return nil
	}

	tags := make([]domain.Tag, 0, len(byStem))
	for _, tag := range byStem {
		tag.Count /= maxCount
		if tag.Count >= minCount {
			tags = append(tags, *tag)
		}
	}

	sort.Slice(tags, func(i, j int) bool { return tags[i].Word < tags[j].Word })
	return tags
}
