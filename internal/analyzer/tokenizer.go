// Package analyzer implements the text analysis pipeline shared by
// indexing and search: tokenization with positions, stop-word
// filtering, and Porter stemming. Every stage is a pure function of its
// input string and the (immutable) stop-word set.
package analyzer

import "regexp"

// Token is one surviving unit of the analysis stream.
type Token struct {
	// Text is the lower-cased surface form as it appeared in the source,
	// before stemming.
	Text string
	// Position is the zero-based index of this token within the
	// tokenizer's output over the full analyzed stream (title tokens
	// precede body tokens).
	Position int
	// CharOffset is the byte offset of Text's first character within
	// the analyzed stream.
	CharOffset int
}

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

var allDigits = regexp.MustCompile(`^[0-9]+$`)

const (
	minTokenLength = 2
	maxTokenLength = 50
)

// Bounds are the token-length filter bounds driven by
// indexer.min.word.length/indexer.max.word.length; DefaultBounds
// matches the source's hardcoded 2/50.
type Bounds struct {
	Min int
	Max int
}

// DefaultBounds is the 2/50 filter Tokenize applies when no Config is
// wired in (tests, and any caller content to use the spec's defaults).
var DefaultBounds = Bounds{Min: minTokenLength, Max: maxTokenLength}

// Tokenize scans text (already expected to be the lower-cased
// concatenation of title and body) for maximal runs of [a-z0-9],
// keeping only those between 2 and 50 characters and rejecting tokens
// made up entirely of digits. Position increases by one per emitted
// token; rejected candidates do not consume a position.
func Tokenize(text string) []Token {
	return TokenizeWithBounds(text, minTokenLength, maxTokenLength)
}

// TokenizeWithBounds is Tokenize with caller-supplied length bounds,
// letting indexer.min.word.length/indexer.max.word.length drive the
// filter without changing the default behavior Tokenize provides.
func TokenizeWithBounds(text string, minLen, maxLen int) []Token {
	matches := tokenPattern.FindAllStringIndex(text, -1)
	tokens := make([]Token, 0, len(matches))
	position := 0
	for _, m := range matches {
		word := text[m[0]:m[1]]
		if len(word) < minLen || len(word) > maxLen {
			continue
		}
		if allDigits.MatchString(word) {
			continue
		}
		tokens = append(tokens, Token{
			Text:       word,
			Position:   position,
			CharOffset: m[0],
		})
		position++
	}
	return tokens
}
