// Package search answers free-text queries over the archive by combining
// inverted-index lookup, term-overlap scoring, and temporal decay.
package search

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/lore-tools/lore/internal/core/archive"
	"github.com/lore-tools/lore/internal/core/index"
	"github.com/lore-tools/lore/internal/core/models"
	"github.com/lore-tools/lore/internal/core/textutil"
)

// DefaultHalfLife is the recency half-life: a session this old scores
// half of an otherwise identical fresh one
const DefaultHalfLife = 60 * 24 * time.Hour

// DefaultLimit bounds result sets when the caller does not say otherwise
const DefaultLimit = 10

// snippetWidth bounds the context returned around each match
const snippetWidth = 50

// Filters narrows a search
type Filters struct {
	Project string
	After   time.Time
	Before  time.Time
	Limit   int
}

// Match is one matched field plus a bounded snippet around the hit
type Match struct {
	Field   string `json:"field"`
	Snippet string `json:"snippet"`
}

// Result is one ranked search hit
type Result struct {
	Context   *models.ExtractedContext `json:"context"`
	Relevance float64                  `json:"relevance"`
	Matches   []Match                  `json:"matches"`
}

// Searcher resolves queries against the index and archive
type Searcher struct {
	idx      *index.Store
	arch     *archive.Store
	halfLife time.Duration
	now      func() time.Time
}

// Option configures a Searcher
type Option func(*Searcher)

// WithHalfLife overrides the temporal-decay half-life
func WithHalfLife(d time.Duration) Option {
	return func(s *Searcher) {
		if d > 0 {
			s.halfLife = d
		}
	}
}

// withNow pins the clock for tests
func withNow(now func() time.Time) Option {
	return func(s *Searcher) { s.now = now }
}

// New creates a Searcher over the given index and archive
func New(idx *index.Store, arch *archive.Store, opts ...Option) *Searcher {
	s := &Searcher{idx: idx, arch: arch, halfLife: DefaultHalfLife, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search ranks archived contexts against a free-text query. An empty
// query is valid and means "most recent archives, ordered by recency".
func (s *Searcher) Search(query string, f Filters) ([]Result, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	queryTokens := textutil.Terms(query)
	if len(queryTokens) == 0 {
		return s.recent(limit, f)
	}

	// Expand each token to its simple morphological variants so "fix"
	// also matches "fixed", "fixes", "fixing"
	variantToBase := make(map[string]string)
	var lookup []string
	for _, base := range queryTokens {
		for _, v := range Expand(base) {
			if _, taken := variantToBase[v]; !taken {
				variantToBase[v] = base
				lookup = append(lookup, v)
			}
		}
	}

	postings, err := s.idx.Lookup(lookup)
	if err != nil {
		return nil, fmt.Errorf("index lookup failed: %w", err)
	}

	type sessionHits struct {
		bases    map[string]bool
		hits     int
		postings []index.Posting
	}
	bySession := make(map[string]*sessionHits)
	for _, p := range postings {
		sh := bySession[p.SessionID]
		if sh == nil {
			sh = &sessionHits{bases: make(map[string]bool)}
			bySession[p.SessionID] = sh
		}
		sh.bases[variantToBase[p.Token]] = true
		sh.hits++
		sh.postings = append(sh.postings, p)
	}

	now := s.now()
	var results []Result
	for sessionID, sh := range bySession {
		ctx, err := s.arch.Load(sessionID)
		if err != nil {
			// Stale posting for a vanished archive file; skip it
			continue
		}
		if !matchesFilters(ctx, f) {
			continue
		}

		overlap := float64(len(sh.bases)) / float64(len(queryTokens))
		frequency := float64(sh.hits) / float64(sh.hits+4)
		text := 0.7*overlap + 0.3*frequency
		decay := temporalDecay(now.Sub(ctx.Timestamp), s.halfLife)

		results = append(results, Result{
			Context:   ctx,
			Relevance: text * decay,
			Matches:   buildMatches(ctx, sh.postings),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		// Ties break by recency: the newer session wins
		if math.Abs(results[i].Relevance-results[j].Relevance) > 1e-9 {
			return results[i].Relevance > results[j].Relevance
		}
		return results[i].Context.Timestamp.After(results[j].Context.Timestamp)
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// recent serves the empty-query case from the session catalog
func (s *Searcher) recent(limit int, f Filters) ([]Result, error) {
	infos, err := s.idx.RecentSessions(limit*2, f.Project)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent sessions: %w", err)
	}

	var results []Result
	for _, info := range infos {
		ctx, err := s.arch.Load(info.SessionID)
		if err != nil {
			continue
		}
		if !matchesFilters(ctx, f) {
			continue
		}
		results = append(results, Result{Context: ctx, Matches: []Match{}})
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

// Expand generates morphological variants of a query token in both
// directions: inflections of the token and inflections of its stem.
func Expand(token string) []string {
	seen := map[string]bool{}
	var out []string
	add := func(v string) {
		if len(v) >= 2 && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}

	for _, base := range []string{token, stem(token)} {
		add(base)
		add(base + "s")
		add(base + "es")
		add(base + "d")
		add(base + "ed")
		add(base + "ing")
		if strings.HasSuffix(base, "e") {
			add(base[:len(base)-1] + "ing")
		}
	}
	return out
}

// stem strips the common verb/plural suffixes. Deliberately simple: the
// goal is covering -s/-ed/-ing inflection, not full stemming.
func stem(token string) string {
	switch {
	case strings.HasSuffix(token, "ing") && len(token) > 5:
		return token[:len(token)-3]
	case strings.HasSuffix(token, "ied") && len(token) > 4:
		return token[:len(token)-3] + "y"
	case strings.HasSuffix(token, "ed") && len(token) > 4:
		return token[:len(token)-2]
	case strings.HasSuffix(token, "es") && len(token) > 4:
		return token[:len(token)-2]
	case strings.HasSuffix(token, "s") && !strings.HasSuffix(token, "ss") && len(token) > 3:
		return token[:len(token)-1]
	default:
		return token
	}
}

// temporalDecay exponentially discounts older sessions: score halves
// every halfLife
func temporalDecay(age, halfLife time.Duration) float64 {
	if age <= 0 {
		return 1.0
	}
	return math.Exp2(-float64(age) / float64(halfLife))
}

// buildMatches resolves postings back to their field text and cuts a
// bounded snippet around each hit. At most one snippet per field.
func buildMatches(ctx *models.ExtractedContext, postings []index.Posting) []Match {
	matches := []Match{}
	seenField := make(map[string]bool)
	for _, p := range postings {
		if seenField[p.Field] {
			continue
		}
		text := index.FieldValue(ctx, p.Field)
		if text == "" {
			continue
		}
		seenField[p.Field] = true
		matches = append(matches, Match{Field: p.Field, Snippet: snippet(text, p.Offset)})
		if len(matches) == 5 {
			break
		}
	}
	return matches
}

// snippet returns ~snippetWidth characters of context around offset
func snippet(text string, offset int) string {
	if offset < 0 || offset > len(text) {
		offset = 0
	}
	start := offset - snippetWidth/2
	if start < 0 {
		start = 0
	}
	end := start + snippetWidth
	if end > len(text) {
		end = len(text)
	}

	// Clamp to rune boundaries
	for start > 0 && !isRuneStart(text[start]) {
		start--
	}
	for end < len(text) && !isRuneStart(text[end]) {
		end++
	}

	out := text[start:end]
	if start > 0 {
		out = "..." + out
	}
	if end < len(text) {
		out += "..."
	}
	return out
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

func matchesFilters(ctx *models.ExtractedContext, f Filters) bool {
	if f.Project != "" && ctx.ProjectPath != f.Project {
		return false
	}
	if !f.After.IsZero() && ctx.Timestamp.Before(f.After) {
		return false
	}
	if !f.Before.IsZero() && ctx.Timestamp.After(f.Before) {
		return false
	}
	return true
}
