// Package tokenize splits subtitle text into word, punctuation and space
// tokens and compares learner input against the word tokens.
package tokenize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Type classifies a token.
type Type int

const (
	Word Type = iota
	Punctuation
	Space
)

func (t Type) String() string {
	switch t {
	case Word:
		return "word"
	case Punctuation:
		return "punctuation"
	case Space:
		return "space"
	default:
		return "unknown"
	}
}

// Token is one piece of a line. Index is the position in the token slice.
type Token struct {
	Type  Type
	Value string
	Index int
}

// Tokenize scans text left to right. Joining the values of the result
// reproduces text exactly, and no token is empty.
func Tokenize(text string) []Token {
	if text == "" {
		return nil
	}
	var tokens []Token
	emit := func(t Type, v string) {
		tokens = append(tokens, Token{Type: t, Value: v, Index: len(tokens)})
	}
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch {
		case isWordRune(r):
			end := scanWord(text, i)
			emit(Word, text[i:end])
			i = end
		case unicode.IsSpace(r):
			end := i + size
			for end < len(text) {
				next, n := utf8.DecodeRuneInString(text[end:])
				if !unicode.IsSpace(next) {
					break
				}
				end += n
			}
			emit(Space, text[i:end])
			i = end
		default:
			emit(Punctuation, text[i:i+size])
			i += size
		}
	}
	return tokens
}

// scanWord returns the end of the word starting at start: a run of letters
// and digits, optionally followed by one apostrophe and a run of letters.
func scanWord(text string, start int) int {
	end := start
	for end < len(text) {
		r, n := utf8.DecodeRuneInString(text[end:])
		if !isWordRune(r) {
			break
		}
		end += n
	}
	if end >= len(text) {
		return end
	}
	r, n := utf8.DecodeRuneInString(text[end:])
	if !isApostrophe(r) {
		return end
	}
	tail := end + n
	for tail < len(text) {
		next, m := utf8.DecodeRuneInString(text[tail:])
		if !unicode.IsLetter(next) {
			break
		}
		tail += m
	}
	if tail == end+n {
		return end
	}
	return tail
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}

func isApostrophe(r rune) bool {
	return r == '\'' || r == '’'
}

// WordTokens returns the word tokens only, in order.
func WordTokens(tokens []Token) []Token {
	words := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if t.Type == Word {
			words = append(words, t)
		}
	}
	return words
}

// WordCount returns the number of word tokens.
func WordCount(tokens []Token) int {
	n := 0
	for _, t := range tokens {
		if t.Type == Word {
			n++
		}
	}
	return n
}

// MatchExact reports whether input equals target after trimming and lowercasing.
func MatchExact(input, target string) bool {
	return strings.ToLower(strings.TrimSpace(input)) == strings.ToLower(strings.TrimSpace(target))
}

// MatchFlexible reports whether input equals target with only the first
// character compared case-insensitively. Lengths must match.
func MatchFlexible(input, target string) bool {
	in := []rune(strings.TrimSpace(input))
	tg := []rune(strings.TrimSpace(target))
	if len(in) != len(tg) || len(in) == 0 {
		return false
	}
	if !equalFoldRune(in[0], tg[0]) {
		return false
	}
	return string(in[1:]) == string(tg[1:])
}

func equalFoldRune(a, b rune) bool {
	if a == b {
		return true
	}
	return strings.EqualFold(string(a), string(b))
}

// WordComparisonResult is the outcome for one word token.
type WordComparisonResult struct {
	TargetWord string
	InputWord  string
	IsCorrect  bool
	TokenIndex int
}

// CompareWords pairs word tokens with inputs by position. Missing inputs are
// treated as empty and are never correct.
func CompareWords(tokens []Token, inputs []string) []WordComparisonResult {
	words := WordTokens(tokens)
	results := make([]WordComparisonResult, 0, len(words))
	for i, w := range words {
		input := ""
		if i < len(inputs) {
			input = inputs[i]
		}
		results = append(results, WordComparisonResult{
			TargetWord: w.Value,
			InputWord:  input,
			IsCorrect:  input != "" && MatchFlexible(input, w.Value),
			TokenIndex: w.Index,
		})
	}
	return results
}

// AllWordsCorrect requires one input per word token and every pair to match
// under the flexible policy.
func AllWordsCorrect(tokens []Token, inputs []string) bool {
	words := WordTokens(tokens)
	if len(inputs) != len(words) {
		return false
	}
	for i, w := range words {
		if inputs[i] == "" || !MatchFlexible(inputs[i], w.Value) {
			return false
		}
	}
	return true
}

// CorrectCount returns how many word inputs match.
func CorrectCount(results []WordComparisonResult) int {
	n := 0
	for _, r := range results {
		if r.IsCorrect {
			n++
		}
	}
	return n
}

// ReconstructText rebuilds the line with word tokens replaced by inputs and
// punctuation and spaces left as they are.
func ReconstructText(tokens []Token, inputs []string) string {
	var b strings.Builder
	wordIdx := 0
	for _, t := range tokens {
		if t.Type != Word {
			b.WriteString(t.Value)
			continue
		}
		if wordIdx < len(inputs) {
			b.WriteString(inputs[wordIdx])
		}
		wordIdx++
	}
	return b.String()
}
