package extract

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lore-tools/lore/internal/core/models"
	"github.com/lore-tools/lore/internal/core/redact"
)

func newTestExtractor() *Extractor {
	return New(DefaultVocabulary(), redact.New(), zerolog.Nop())
}

func userEntry(text string, ts time.Time) models.TranscriptEntry {
	return models.TranscriptEntry{
		Kind:      models.EntryUser,
		Timestamp: ts,
		SessionID: "sess-1",
		Message:   &models.Message{Role: "user", Text: text},
	}
}

func assistantEntry(text string, ts time.Time) models.TranscriptEntry {
	return models.TranscriptEntry{
		Kind:      models.EntryAssistant,
		Timestamp: ts,
		SessionID: "sess-1",
		Message:   &models.Message{Role: "assistant", Text: text},
	}
}

func systemEntry(text string, ts time.Time) models.TranscriptEntry {
	return models.TranscriptEntry{
		Kind:      models.EntrySystem,
		Timestamp: ts,
		SessionID: "sess-1",
		Message:   &models.Message{Role: "system", Text: text},
	}
}

func toolEntry(use *models.ToolUse, ts time.Time) models.TranscriptEntry {
	return models.TranscriptEntry{
		Kind:      models.EntryTool,
		Timestamp: ts,
		SessionID: "sess-1",
		ToolUse:   use,
	}
}

func TestExtractProblemSolutionPairing(t *testing.T) {
	e := newTestExtractor()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	entries := []models.TranscriptEntry{
		userEntry("Why is the login test failing?", base),
		assistantEntry("The mock was stale. I refreshed the fixture in internal/auth/login.go and the suite passes.", base.Add(time.Minute)),
	}

	ctx := e.Extract(entries, "/work/app")

	require.Len(t, ctx.Problems, 1)
	p := ctx.Problems[0]
	assert.Contains(t, p.Question, "login test failing")
	require.NotNil(t, p.Solution)
	assert.True(t, p.Solution.Successful)
	assert.Contains(t, p.Solution.Files, "internal/auth/login.go")
	assert.Equal(t, "sess-1", ctx.SessionID)
	assert.Equal(t, "/work/app", ctx.ProjectPath)
}

func TestExtractFailureAdmission(t *testing.T) {
	e := newTestExtractor()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	entries := []models.TranscriptEntry{
		userEntry("Why does the import crash?", base),
		assistantEntry("I tried several approaches but couldn't reproduce it, no luck so far.", base.Add(time.Minute)),
	}

	ctx := e.Extract(entries, "/work/app")

	require.Len(t, ctx.Problems, 1)
	require.NotNil(t, ctx.Problems[0].Solution)
	assert.False(t, ctx.Problems[0].Solution.Successful)
}

func TestExtractNewQuestionDiscardsUnansweredOne(t *testing.T) {
	e := newTestExtractor()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	entries := []models.TranscriptEntry{
		userEntry("How do I configure the cache?", base),
		userEntry("Why is the queue stuck?", base.Add(time.Minute)),
		assistantEntry("A consumer held the lock. Restarting the worker drained it.", base.Add(2*time.Minute)),
	}

	ctx := e.Extract(entries, "/work/app")

	require.Len(t, ctx.Problems, 1)
	assert.Contains(t, ctx.Problems[0].Question, "queue stuck")
	assert.Empty(t, ctx.Metadata.Warnings)
}

func TestExtractOpenProblemAtEndIsOmittedWithWarning(t *testing.T) {
	e := newTestExtractor()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	entries := []models.TranscriptEntry{
		userEntry("Why does the build hang?", base),
	}

	ctx := e.Extract(entries, "/work/app")

	assert.Empty(t, ctx.Problems)
	require.Len(t, ctx.Metadata.Warnings, 1)
	assert.Contains(t, ctx.Metadata.Warnings[0], "open at end of transcript")
	assert.Contains(t, ctx.Metadata.Warnings[0], "build hang")
}

func TestExtractImplementations(t *testing.T) {
	e := newTestExtractor()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	entries := []models.TranscriptEntry{
		toolEntry(&models.ToolUse{
			Name: "Write",
			Input: models.ToolInput{
				Kind:     models.ToolInputFileEdit,
				FileEdit: &models.FileEditInput{FilePath: "cmd/app/main.go", Content: "package main"},
			},
		}, base),
		toolEntry(&models.ToolUse{
			Name: "Bash",
			Input: models.ToolInput{
				Kind:    models.ToolInputCommand,
				Command: &models.CommandInput{Command: "rm -rf build/"},
			},
		}, base.Add(time.Minute)),
		toolEntry(&models.ToolUse{
			Name: "Bash",
			Input: models.ToolInput{
				Kind:    models.ToolInputCommand,
				Command: &models.CommandInput{Command: "ls -la"},
			},
		}, base.Add(2*time.Minute)),
		toolEntry(&models.ToolUse{
			Name: "Read",
			Input: models.ToolInput{
				Kind:     models.ToolInputFileRead,
				FileRead: &models.FileReadInput{FilePath: "go.mod"},
			},
		}, base.Add(3*time.Minute)),
	}
	entries[0].SessionID = "sess-1"

	ctx := e.Extract(entries, "/work/app")

	require.Len(t, ctx.Implementations, 2, "file edit and mutating shell command only")
	assert.Equal(t, "cmd/app/main.go", ctx.Implementations[0].File)
	assert.Contains(t, ctx.Implementations[1].Description, "rm -rf build/")
	assert.Equal(t, []string{"cmd/app/main.go"}, ctx.Metadata.FilesModified)
	assert.Equal(t, []string{"Bash", "Read", "Write"}, ctx.Metadata.ToolsUsed)
}

func TestExtractDecisions(t *testing.T) {
	e := newTestExtractor()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("medium impact by default", func(t *testing.T) {
		entries := []models.TranscriptEntry{
			assistantEntry("We decided to use a worker pool for the importer.", base),
		}
		ctx := e.Extract(entries, "/work/app")
		require.Len(t, ctx.Decisions, 1)
		assert.Equal(t, models.ImpactMedium, ctx.Decisions[0].Impact)
	})

	t.Run("high impact words upgrade", func(t *testing.T) {
		entries := []models.TranscriptEntry{
			assistantEntry("We decided to do a complete rewrite of the storage layer.", base),
		}
		ctx := e.Extract(entries, "/work/app")
		require.Len(t, ctx.Decisions, 1)
		assert.Equal(t, models.ImpactHigh, ctx.Decisions[0].Impact)
	})

	t.Run("open problem becomes decision context", func(t *testing.T) {
		entries := []models.TranscriptEntry{
			userEntry("How should we store sessions? I'm going with sqlite instead of flat files.", base),
		}
		ctx := e.Extract(entries, "/work/app")
		require.Len(t, ctx.Decisions, 1)
		assert.Contains(t, ctx.Decisions[0].Context, "store sessions")
	})
}

func TestExtractEmptyTranscript(t *testing.T) {
	e := newTestExtractor()

	ctx := e.Extract(nil, "/work/app")

	assert.Empty(t, ctx.Problems)
	assert.Empty(t, ctx.Implementations)
	assert.Empty(t, ctx.Decisions)
	assert.Zero(t, ctx.Metadata.RelevanceScore)
	assert.Zero(t, ctx.Metadata.EntryCount)
}

func TestExtractRedactsBeforeArchiving(t *testing.T) {
	e := newTestExtractor()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	entries := []models.TranscriptEntry{
		userEntry("Why does auth fail with key sk-abcdef1234567890abcdef1234567890?", base),
		assistantEntry("The key was expired. Rotate it and email ops@example.com.", base.Add(time.Minute)),
	}

	ctx := e.Extract(entries, "/work/app")

	require.Len(t, ctx.Problems, 1)
	assert.NotContains(t, ctx.Problems[0].Question, "abcdef1234567890")
	require.NotNil(t, ctx.Problems[0].Solution)
	assert.NotContains(t, ctx.Problems[0].Solution.Approach, "ops@example.com")
	assert.Contains(t, ctx.Problems[0].Solution.Approach, "@example.com")
}

func TestExtractSecretsNeverReachTagsOrFiles(t *testing.T) {
	e := newTestExtractor()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	const secret = "abcdef1234567890abcdef1234567890"
	entries := []models.TranscriptEntry{
		userEntry("Why does auth fail with key sk-"+secret+"?", base),
		assistantEntry("Rotate sk-"+secret+" and redeploy config/auth/keys.go.", base.Add(time.Minute)),
	}

	ctx := e.Extract(entries, "/work/app")

	require.Len(t, ctx.Problems, 1)
	p := ctx.Problems[0]
	assert.NotContains(t, p.Question, secret)

	// Tags are derived from the redacted text, so a long credential body
	// can never be promoted into a tag
	for _, tag := range p.Tags {
		assert.NotContains(t, strings.ToLower(tag), secret, "secret leaked into tags")
	}

	require.NotNil(t, p.Solution)
	assert.NotContains(t, p.Solution.Approach, secret)
	for _, f := range p.Solution.Files {
		assert.NotContains(t, f, secret, "secret leaked into solution files")
	}
}

func TestExtractRedactsImplementationFields(t *testing.T) {
	e := newTestExtractor()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	entries := []models.TranscriptEntry{
		toolEntry(&models.ToolUse{
			Name: "Write",
			Input: models.ToolInput{
				Kind: models.ToolInputFileEdit,
				FileEdit: &models.FileEditInput{
					FilePath: "deploy/env/prod.env",
					Content:  "API_KEY=sk-abcdef1234567890abcdef1234567890\nHOST=10.1.2.3",
				},
			},
		}, base),
	}

	ctx := e.Extract(entries, "/work/app")

	require.Len(t, ctx.Implementations, 1)
	impl := ctx.Implementations[0]
	assert.NotContains(t, impl.Changes, "abcdef1234567890")
	assert.NotContains(t, impl.Changes, "10.1.2.3")
	assert.Equal(t, "deploy/env/prod.env", impl.File)
}

func TestExtractDecisionsFromAnyEntryKind(t *testing.T) {
	e := newTestExtractor()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	entries := []models.TranscriptEntry{
		systemEntry("Per project policy we decided to use trunk-based development.", base),
	}

	ctx := e.Extract(entries, "/work/app")

	require.Len(t, ctx.Decisions, 1)
	assert.Contains(t, ctx.Decisions[0].Decision, "trunk-based")
}

func TestExtractTruncatesLongQuestions(t *testing.T) {
	e := newTestExtractor()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	long := "Why does this fail? " + strings.Repeat("context detail ", 300)
	entries := []models.TranscriptEntry{
		userEntry(long, base),
		assistantEntry("Fixed by trimming the payload.", base.Add(time.Minute)),
	}

	ctx := e.Extract(entries, "/work/app")

	require.Len(t, ctx.Problems, 1)
	q := ctx.Problems[0].Question
	assert.LessOrEqual(t, len(q), QuestionLimit)
	assert.True(t, strings.HasSuffix(q, TruncationMarker))
}

func TestExtractMetadata(t *testing.T) {
	e := newTestExtractor()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	entries := []models.TranscriptEntry{
		userEntry("Why is auth failing?", base),
		assistantEntry("Fixed the token refresh in pkg/auth/refresh.go.", base.Add(90*time.Second)),
	}

	ctx := e.Extract(entries, "/work/app")

	assert.Equal(t, 2, ctx.Metadata.EntryCount)
	assert.Equal(t, int64(90_000), ctx.Metadata.Duration)
	// A literal question is the strongest item, so the context scores 1.0
	assert.InDelta(t, 1.0, ctx.Metadata.RelevanceScore, 1e-9)
}
