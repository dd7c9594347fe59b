package extract

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestKeywordsRanksByFrequencyThenLength(t *testing.T) {
	got := Keywords("redis cache redis cache redis warmup", 3)
	assert.Equal(t, []string{"redis", "cache", "warmup"}, got)
}

func TestKeywordsSkipsStopwords(t *testing.T) {
	got := Keywords("the cache is in the cache", 5)
	assert.Equal(t, []string{"cache"}, got)
}

func TestTagsPrefersTechVocabulary(t *testing.T) {
	vocab := DefaultVocabulary()
	got := Tags("How do I configure the redis cache inside docker?", &vocab)

	assert.Contains(t, got, "redis")
	assert.Contains(t, got, "docker")
	assert.Contains(t, got, "cache")
	assert.LessOrEqual(t, len(got), 5)
}

func TestTagsTopsUpWithKeywords(t *testing.T) {
	vocab := DefaultVocabulary()
	got := Tags("renaming the invoice exporter module", &vocab)

	assert.NotEmpty(t, got)
	assert.Contains(t, got, "invoice")
}

func TestTruncate(t *testing.T) {
	t.Run("short text untouched", func(t *testing.T) {
		assert.Equal(t, "short", Truncate("short", 100))
	})

	t.Run("cuts at word boundary with marker", func(t *testing.T) {
		got := Truncate("alpha beta gamma delta", 20)
		assert.Equal(t, "alpha"+TruncationMarker, got)
		assert.LessOrEqual(t, len(got), 20)
	})

	t.Run("never splits a rune", func(t *testing.T) {
		got := Truncate(strings.Repeat("é", 40), 29)
		assert.True(t, utf8.ValidString(got))
		assert.True(t, strings.HasSuffix(got, TruncationMarker))
	})

	t.Run("exact limit untouched", func(t *testing.T) {
		text := strings.Repeat("x", 50)
		assert.Equal(t, text, Truncate(text, 50))
	})
}
