// Package textutil provides the shared tokenization used by keyword
// extraction and the inverted index. Indexing and query parsing must
// tokenize identically, so both go through Tokenize.
package textutil

import (
	"strings"
	"unicode"
)

// Token is a surviving term plus its byte offset in the original text
type Token struct {
	Text   string
	Offset int
}

// Tokenize lower-cases text, splits on non-alphanumeric runs, and drops
// stopwords and fragments shorter than two characters. Offsets refer to
// the original input so callers can cut snippets around a match.
func Tokenize(text string) []Token {
	var tokens []Token
	start := -1
	for i, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			if tok := makeToken(text[start:i], start); tok != nil {
				tokens = append(tokens, *tok)
			}
			start = -1
		}
	}
	if start >= 0 {
		if tok := makeToken(text[start:], start); tok != nil {
			tokens = append(tokens, *tok)
		}
	}
	return tokens
}

// Terms returns just the token texts, deduplicated in first-seen order
func Terms(text string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, tok := range Tokenize(text) {
		if !seen[tok.Text] {
			seen[tok.Text] = true
			terms = append(terms, tok.Text)
		}
	}
	return terms
}

func makeToken(word string, offset int) *Token {
	lower := strings.ToLower(word)
	if len(lower) < 2 || IsStopword(lower) {
		return nil
	}
	return &Token{Text: lower, Offset: offset}
}

// IsStopword reports whether a lower-cased term carries no search signal
func IsStopword(word string) bool {
	return stopwords[word]
}

// Common function words excluded from both tags and index postings
var stopwords = map[string]bool{
	"a": true, "about": true, "above": true, "after": true, "again": true,
	"all": true, "also": true, "am": true, "an": true, "and": true,
	"any": true, "are": true, "as": true, "at": true, "be": true,
	"because": true, "been": true, "before": true, "being": true,
	"below": true, "between": true, "both": true, "but": true, "by": true,
	"can": true, "cannot": true, "could": true, "did": true, "do": true,
	"does": true, "doing": true, "down": true, "during": true, "each": true,
	"few": true, "for": true, "from": true, "further": true, "get": true,
	"got": true, "had": true, "has": true, "have": true, "having": true,
	"he": true, "her": true, "here": true, "hers": true, "him": true,
	"his": true, "how": true, "if": true, "in": true, "into": true,
	"is": true, "it": true, "its": true, "just": true, "let": true,
	"like": true, "me": true, "more": true, "most": true, "my": true,
	"no": true, "nor": true, "not": true, "now": true, "of": true,
	"off": true, "on": true, "once": true, "only": true, "or": true,
	"other": true, "our": true, "out": true, "over": true, "own": true,
	"same": true, "she": true, "should": true, "so": true, "some": true,
	"such": true, "than": true, "that": true, "the": true, "their": true,
	"them": true, "then": true, "there": true, "these": true, "they": true,
	"this": true, "those": true, "through": true, "to": true, "too": true,
	"under": true, "until": true, "up": true, "very": true, "was": true,
	"we": true, "were": true, "what": true, "when": true, "where": true,
	"which": true, "while": true, "who": true, "whom": true, "why": true,
	"will": true, "with": true, "would": true, "you": true, "your": true,
	"yours": true, "im": true, "ive": true, "dont": true, "cant": true,
	"wont": true, "didnt": true, "doesnt": true, "isnt": true, "lets": true,
	"please": true, "thanks": true, "ok": true, "okay": true, "yes": true,
}
