package extract

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/lore-tools/lore/internal/core/textutil"
)

// maxTags bounds how many tags a problem carries
const maxTags = 5

// Keywords returns the top-n content words of text, ranked by frequency
// and then by length - ties favor the longer, more specific token.
func Keywords(text string, n int) []string {
	freq := make(map[string]int)
	for _, tok := range textutil.Tokenize(text) {
		freq[tok.Text]++
	}

	words := make([]string, 0, len(freq))
	for w := range freq {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] != freq[words[j]] {
			return freq[words[i]] > freq[words[j]]
		}
		if len(words[i]) != len(words[j]) {
			return len(words[i]) > len(words[j])
		}
		return words[i] < words[j]
	})

	if len(words) > n {
		words = words[:n]
	}
	return words
}

// Tags matches text against the fixed technology vocabulary, topping up
// with ranked keywords when the vocabulary alone yields too few.
func Tags(text string, vocab *Vocabulary) []string {
	lower := strings.ToLower(text)
	terms := make(map[string]bool)
	for _, t := range textutil.Terms(lower) {
		terms[t] = true
	}

	var tags []string
	seen := make(map[string]bool)
	for _, kw := range vocab.TechKeywords {
		if terms[kw] && !seen[kw] {
			tags = append(tags, kw)
			seen[kw] = true
			if len(tags) == maxTags {
				return tags
			}
		}
	}

	for _, kw := range Keywords(text, maxTags) {
		if !seen[kw] {
			tags = append(tags, kw)
			seen[kw] = true
			if len(tags) == maxTags {
				break
			}
		}
	}
	return tags
}

// Truncate caps text at limit characters without cutting mid-word,
// appending an explicit marker so consumers can detect the cut.
func Truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := limit - len(TruncationMarker)
	if cut < 1 {
		cut = 1
	}
	for cut > 1 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	head := text[:cut]
	if idx := strings.LastIndexAny(head, " \t\n"); idx > 0 {
		head = head[:idx]
	}
	return strings.TrimRight(head, " \t\n") + TruncationMarker
}

// TruncationMarker flags truncated fields for downstream consumers
const TruncationMarker = "...[truncated]"
