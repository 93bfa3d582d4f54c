package service

import (
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Words splits text on Unicode word boundaries and returns the distinct
// segments that begin with a letter or digit, in first-seen order. No case
// folding or stemming is applied.
func Words(text string) []string {
	if text == "" {
		return nil
	}
	var (
		words []string
		seen  = make(map[string]struct{})
		word  string
		state = -1
	)
	for len(text) > 0 {
		word, text, state = uniseg.FirstWordInString(text, state)
		r, _ := utf8.DecodeRuneInString(word)
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		words = append(words, word)
	}
	return words
}
