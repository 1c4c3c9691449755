package analyzer

import "strings"

// AnalyzedToken is a stemmed token retained after stop-word filtering,
// still carrying the position it was assigned by the tokenizer and the
// original (pre-stem) surface form used for highlighting.
type AnalyzedToken struct {
	Stem     string
	Original string
	Position int
}

// Analyze runs the full pipeline — tokenize, drop stop words, stem —
// over the lower-cased concatenation of title and body, in that order,
// so title tokens receive the lowest positions, using DefaultBounds for
// the token-length filter. Use AnalyzeWithBounds to honor
// indexer.min.word.length/indexer.max.word.length from Config.
func Analyze(title, body string) []AnalyzedToken {
	return AnalyzeWithBounds(title, body, DefaultBounds)
}

// AnalyzeWithBounds is Analyze with caller-supplied token-length bounds.
func AnalyzeWithBounds(title, body string, bounds Bounds) []AnalyzedToken {
	stream := strings.ToLower(title + " " + body)
	tokens := FilterStopWords(TokenizeWithBounds(stream, bounds.Min, bounds.Max))
	result := make([]AnalyzedToken, 0, len(tokens))
	for _, tok := range tokens {
		result = append(result, AnalyzedToken{
			Stem:     Stem(tok.Text),
			Original: tok.Text,
			Position: tok.Position,
		})
	}
	return result
}

// AnalyzeQuery runs the same tokenize/stop-word/stem pipeline over a
// search query, but without position tracking since queries are not
// stored, using DefaultBounds for the token-length filter. It returns
// the stemmed terms used for retrieval and the original (pre-stem,
// stop-words-removed) terms used for highlighting. Use
// AnalyzeQueryWithBounds to honor Config's word-length bounds.
func AnalyzeQuery(query string) (stemmed []string, original []string) {
	return AnalyzeQueryWithBounds(query, DefaultBounds)
}

// AnalyzeQueryWithBounds is AnalyzeQuery with caller-supplied
// token-length bounds.
func AnalyzeQueryWithBounds(query string, bounds Bounds) (stemmed []string, original []string) {
	stream := strings.ToLower(query)
	tokens := FilterStopWords(TokenizeWithBounds(stream, bounds.Min, bounds.Max))
	stemmed = make([]string, 0, len(tokens))
	original = make([]string, 0, len(tokens))
	for _, tok := range tokens {
		stemmed = append(stemmed, Stem(tok.Text))
		original = append(original, tok.Text)
	}
	return stemmed, original
}
