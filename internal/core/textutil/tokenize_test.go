package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	got := Tokenize("Fix the login-bug NOW")

	assert.Equal(t, []Token{
		{Text: "fix", Offset: 0},
		{Text: "login", Offset: 8},
		{Text: "bug", Offset: 14},
		{Text: "now", Offset: 18},
	}, got)
}

func TestTokenizeDropsShortFragments(t *testing.T) {
	got := Tokenize("a b go x1")
	assert.Equal(t, []Token{
		{Text: "go", Offset: 4},
		{Text: "x1", Offset: 7},
	}, got)
}

func TestTokenizeEmpty(t *testing.T) {
	assert.Empty(t, Tokenize(""))
	assert.Empty(t, Tokenize("  --  !!"))
}

func TestTermsDeduplicates(t *testing.T) {
	got := Terms("cache the cache, warm the CACHE")
	assert.Equal(t, []string{"cache", "warm"}, got)
}

func TestIsStopword(t *testing.T) {
	assert.True(t, IsStopword("the"))
	assert.True(t, IsStopword("please"))
	assert.False(t, IsStopword("cache"))
}
