package patterns

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lore-tools/lore/internal/core/models"
)

func commandContext(sessionID, command string, ts time.Time) *models.ExtractedContext {
	return &models.ExtractedContext{
		SessionID: sessionID,
		Timestamp: ts,
		Implementations: []models.Implementation{{
			Tool:        "Bash",
			Description: command,
			Timestamp:   ts,
		}},
	}
}

func TestAnalyzeCommandPatterns(t *testing.T) {
	a := New()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	contexts := []*models.ExtractedContext{
		commandContext("s1", "git commit -m 'fix parser'", base),
		commandContext("s2", "git commit --amend", base.Add(time.Hour)),
		commandContext("s3", "git rebase main", base.Add(2*time.Hour)),
	}

	got := a.Analyze(contexts)

	require.NotEmpty(t, got)
	top := got[0]
	assert.Equal(t, models.PatternCommand, top.Type)
	assert.Equal(t, "git commit", top.Value, "subcommand heads count separately")
	assert.Equal(t, 2, top.Frequency)
	assert.Equal(t, base, top.FirstSeen)
	assert.Equal(t, base.Add(time.Hour), top.LastSeen)
	assert.Len(t, top.Examples, 2)
}

func TestAnalyzeCodeIdioms(t *testing.T) {
	a := New()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	approach := "Wrapped the call: if err != nil { return err } and again if err != nil later."
	contexts := []*models.ExtractedContext{{
		SessionID: "s1",
		Timestamp: base,
		Problems: []models.Problem{{
			Question: "q",
			Solution: &models.Solution{Approach: approach},
		}},
	}}

	got := a.Analyze(contexts)

	require.Len(t, got, 1)
	assert.Equal(t, models.PatternCode, got[0].Type)
	assert.Equal(t, "if err != nil", got[0].Value)
	assert.Equal(t, 2, got[0].Frequency)
}

func TestAnalyzeArchitecturePhrases(t *testing.T) {
	a := New()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	contexts := []*models.ExtractedContext{{
		SessionID: "s1",
		Timestamp: base,
		Decisions: []models.Decision{{
			Decision:  "Chose an inverted index with atomic replace for the archive.",
			Timestamp: base,
		}},
	}}

	got := a.Analyze(contexts)

	values := make([]string, 0, len(got))
	for _, p := range got {
		assert.Equal(t, models.PatternArchitecture, p.Type)
		values = append(values, p.Value)
	}
	assert.Contains(t, values, "inverted index")
	assert.Contains(t, values, "atomic replace")
}

func TestAnalyzeCapsExamples(t *testing.T) {
	a := New()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	var contexts []*models.ExtractedContext
	for i := 0; i < 6; i++ {
		contexts = append(contexts, commandContext("s", "go test ./...", base.Add(time.Duration(i)*time.Hour)))
	}

	got := a.Analyze(contexts)

	require.Len(t, got, 1)
	assert.Equal(t, 6, got[0].Frequency)
	assert.Len(t, got[0].Examples, 3)
}

func TestCommandValue(t *testing.T) {
	tests := []struct {
		command string
		want    string
	}{
		{"git commit -m 'msg'", "git commit"},
		{"sudo apt install jq", "apt install"},
		{"ls -la", "ls"},
		{"docker ps", "docker ps"},
		{"go test ./...", "go test"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, commandValue(tt.command), "command %q", tt.command)
	}
}

func TestLooksLikeCommand(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"git push origin main", true},
		{"sudo git push", true},
		{"sudogit push", false},
		{"sudo", false},
		{"edited the parser", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, looksLikeCommand(tt.text), "text %q", tt.text)
	}
}
