package tokenizer

import (
	"fmt"
	"os"
	"strings"
)

// StopWords is a set of words too common to be useful as tags. Hash digests
// the file the set was read from, for future cache invalidation.
type StopWords struct {
	words map[string]struct{}
	Hash  string
}

// ReadStopWords loads a newline-delimited stop-word file.
func ReadStopWords(path string) (*StopWords, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stop words %s: %w", path, err)
	}
	return NewStopWords(strings.Split(string(data), "\n"), ContentHash(data)), nil
}

// NewStopWords builds a set from a word list, trimming blank entries.
func NewStopWords(words []string, hash string) *StopWords {
	set := make(map[string]struct{}, len(words))
	for _, word := range words {
		word = strings.TrimSpace(word)
		if word != "" {
			set[word] = struct{}{}
		}
	}
	return &StopWords{words: set, Hash: hash}
}

// Contains reports whether word is a stop word.
func (s *StopWords) Contains(word string) bool {
	if s == nil {
		return false
	}
	_, ok := s.words[word]
	return ok
}

// Len returns the number of stop words.
func (s *StopWords) Len() int {
	if s == nil {
		return 0
	}
	return len(s.words)
}
