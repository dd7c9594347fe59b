package search

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lore-tools/lore/internal/core/archive"
	"github.com/lore-tools/lore/internal/core/index"
	"github.com/lore-tools/lore/internal/core/models"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestStores(t *testing.T) (*archive.Store, *index.Store) {
	t.Helper()
	arch, err := archive.NewStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	idx, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return arch, idx
}

func archiveContext(t *testing.T, arch *archive.Store, idx *index.Store, sessionID, question string, ts time.Time) {
	t.Helper()
	ctx := &models.ExtractedContext{
		SessionID:   sessionID,
		ProjectPath: "/work/app",
		Timestamp:   ts,
		Problems: []models.Problem{{
			Question:  question,
			Timestamp: ts,
			Solution:  &models.Solution{Approach: "Resolved it.", Successful: true},
		}},
		Metadata: models.ContextMetadata{EntryCount: 2, RelevanceScore: 1.0},
	}
	_, err := arch.Save(ctx)
	require.NoError(t, err)
	require.NoError(t, idx.IndexContext(ctx))
}

func TestSearchExpandsMorphologicalVariants(t *testing.T) {
	arch, idx := newTestStores(t)
	archiveContext(t, arch, idx, "sess-1", "Fixing the flaky login test", testNow.Add(-24*time.Hour))

	s := New(idx, arch, withNow(func() time.Time { return testNow }))

	// "fix" should reach a session that only ever says "fixing"
	results, err := s.Search("fix", Filters{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "sess-1", results[0].Context.SessionID)
	require.NotEmpty(t, results[0].Matches)
	assert.Equal(t, "problems[0].question", results[0].Matches[0].Field)
	assert.Contains(t, results[0].Matches[0].Snippet, "Fixing")
}

func TestSearchTemporalDecayPrefersRecent(t *testing.T) {
	arch, idx := newTestStores(t)
	archiveContext(t, arch, idx, "sess-old", "debugging the login timeout", testNow.Add(-200*24*time.Hour))
	archiveContext(t, arch, idx, "sess-new", "debugging the login timeout", testNow.Add(-24*time.Hour))

	s := New(idx, arch, withNow(func() time.Time { return testNow }))

	results, err := s.Search("login timeout", Filters{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "sess-new", results[0].Context.SessionID)
	assert.Equal(t, "sess-old", results[1].Context.SessionID)
	assert.Greater(t, results[0].Relevance, results[1].Relevance)
}

func TestSearchHalfLifeOption(t *testing.T) {
	arch, idx := newTestStores(t)
	archiveContext(t, arch, idx, "sess-1", "login timeout", testNow.Add(-10*24*time.Hour))

	slow := New(idx, arch, withNow(func() time.Time { return testNow }))
	fast := New(idx, arch, WithHalfLife(24*time.Hour), withNow(func() time.Time { return testNow }))

	slowResults, err := slow.Search("login", Filters{})
	require.NoError(t, err)
	fastResults, err := fast.Search("login", Filters{})
	require.NoError(t, err)

	require.Len(t, slowResults, 1)
	require.Len(t, fastResults, 1)
	assert.Greater(t, slowResults[0].Relevance, fastResults[0].Relevance,
		"a shorter half-life must discount the same session harder")
}

func TestSearchEmptyQueryReturnsRecent(t *testing.T) {
	arch, idx := newTestStores(t)
	archiveContext(t, arch, idx, "sess-old", "first topic", testNow.Add(-48*time.Hour))
	archiveContext(t, arch, idx, "sess-new", "second topic", testNow.Add(-time.Hour))

	s := New(idx, arch, withNow(func() time.Time { return testNow }))

	results, err := s.Search("", Filters{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "sess-new", results[0].Context.SessionID)
	assert.Equal(t, "sess-old", results[1].Context.SessionID)
}

func TestSearchProjectFilter(t *testing.T) {
	arch, idx := newTestStores(t)
	archiveContext(t, arch, idx, "sess-1", "login timeout", testNow.Add(-time.Hour))

	s := New(idx, arch, withNow(func() time.Time { return testNow }))

	results, err := s.Search("login", Filters{Project: "/work/app"})
	require.NoError(t, err)
	assert.Len(t, results, 1)

	results, err = s.Search("login", Filters{Project: "/somewhere/else"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchLimit(t *testing.T) {
	arch, idx := newTestStores(t)
	for i, id := range []string{"a", "b", "c"} {
		archiveContext(t, arch, idx, "sess-"+id, "login timeout", testNow.Add(-time.Duration(i)*time.Hour))
	}

	s := New(idx, arch, withNow(func() time.Time { return testNow }))

	results, err := s.Search("login", Filters{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchNoMatches(t *testing.T) {
	arch, idx := newTestStores(t)
	archiveContext(t, arch, idx, "sess-1", "login timeout", testNow.Add(-time.Hour))

	s := New(idx, arch, withNow(func() time.Time { return testNow }))

	results, err := s.Search("kubernetes", Filters{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestExpand(t *testing.T) {
	tests := []struct {
		token string
		wants []string
	}{
		{"fix", []string{"fix", "fixes", "fixed", "fixing"}},
		{"caching", []string{"caching", "cach", "cached"}},
		{"queries", []string{"queries", "queri", "queried"}},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got := Expand(tt.token)
			for _, want := range tt.wants {
				assert.Contains(t, got, want)
			}
		})
	}
}

func TestSnippetBounded(t *testing.T) {
	long := "prefix the quick brown fox jumps over the lazy dog and keeps running far beyond the snippet window boundary"
	got := snippet(long, 30)
	assert.LessOrEqual(t, len(got), snippetWidth+6, "snippet plus ellipses stays bounded")
	assert.Contains(t, got, "fox")
}
