package analyzer

import (
	"bufio"
	"embed"
	"strings"
	"sync"
)

//go:embed stopwords/stopwords.txt
var stopwordsFS embed.FS

// builtinStopWords is the fallback set used if the embedded resource
// cannot be read or parsed for any reason.
var builtinStopWords = []string{
	"a", "an", "and", "are", "as", "at", "be", "but", "by",
	"for", "if", "in", "into", "is", "it", "no", "not", "of",
	"on", "or", "such", "that", "the", "their", "then", "there",
	"these", "they", "this", "to", "was", "will", "with",
}

var (
	stopWordsOnce sync.Once
	stopWordsSet  map[string]struct{}
)

// StopWords returns the configured stop-word set, loading it from the
// embedded resource on first use and falling back to a small built-in
// list if that load fails.
func StopWords() map[string]struct{} {
	stopWordsOnce.Do(func() {
		stopWordsSet = loadStopWords()
	})
	return stopWordsSet
}

func loadStopWords() map[string]struct{} {
	set := make(map[string]struct{})
	f, err := stopwordsFS.Open("stopwords/stopwords.txt")
	if err != nil {
		return fallbackStopWords()
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set[strings.ToLower(line)] = struct{}{}
	}
	if err := scanner.Err(); err != nil || len(set) == 0 {
		return fallbackStopWords()
	}
	return set
}

func fallbackStopWords() map[string]struct{} {
	set := make(map[string]struct{}, len(builtinStopWords))
	for _, w := range builtinStopWords {
		set[w] = struct{}{}
	}
	return set
}

// FilterStopWords drops tokens whose text is in the stop-word set,
// preserving the Position values assigned by the tokenizer rather than
// renumbering the survivors.
func FilterStopWords(tokens []Token) []Token {
	stop := StopWords()
	kept := make([]Token, 0, len(tokens))
	for _, tok := range tokens {
		if _, isStop := stop[tok.Text]; isStop {
			continue
		}
		kept = append(kept, tok)
	}
	return kept
}
