package bigram

import (
	"fmt"
	"strings"
)

// Bigram is an ordered pair of adjacent tokens.
type Bigram [2]string

// Less orders bigrams lexicographically by their first, then second token.
func (b Bigram) Less(o Bigram) bool {
	if b[0] != o[0] {
		return b[0] < o[0]
	}
	return b[1] < o[1]
}

func (b Bigram) String() string {
	return b[0] + " " + b[1]
}

// Words returns every pair of consecutive whitespace-separated tokens in
// input order. It does not sort or dedupe, and each call returns a fresh
// slice. Text with fewer than two tokens yields an empty slice.
func Words(text string) []Bigram {
	return pairs(strings.Fields(text))
}

// Chars returns every pair of consecutive runes in text. This is the
// character-level scoring mode; white space is kept as a rune.
func Chars(text string) []Bigram {
	runes := []rune(text)
	tokens := make([]string, len(runes))
	for i, r := range runes {
		tokens[i] = string(r)
	}
	return pairs(tokens)
}

func pairs(tokens []string) []Bigram {
	if len(tokens) < 2 {
		return []Bigram{}
	}
	out := make([]Bigram, 0, len(tokens)-1)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, Bigram{tokens[i], tokens[i+1]})
	}
	return out
}

// Mode selects how text is cut into bigrams.
type Mode int

const (
	// ModeWord pairs adjacent words. This is the default.
	ModeWord Mode = iota
	// ModeChar pairs adjacent characters.
	ModeChar
)

// ParseMode accepts "word", "char" or "" (word).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "word", "words":
		return ModeWord, nil
	case "char", "chars", "character":
		return ModeChar, nil
	default:
		return ModeWord, fmt.Errorf("unknown bigram mode %q", s)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeChar:
		return "char"
	default:
		return "word"
	}
}

// Generate cuts text into bigrams according to the mode.
func (m Mode) Generate(text string) []Bigram {
	if m == ModeChar {
		return Chars(text)
	}
	return Words(text)
}
