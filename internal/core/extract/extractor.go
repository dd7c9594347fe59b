// Package extract turns a normalized transcript into an ExtractedContext:
// problems with their solutions, file-affecting implementations, and
// recorded decisions, all scored and redacted before they leave the
// extractor.
package extract

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lore-tools/lore/internal/core/models"
	"github.com/lore-tools/lore/internal/core/redact"
	"github.com/lore-tools/lore/internal/core/score"
)

// Content limits per field class. Truncation is word-boundary safe and
// appends an explicit marker.
const (
	QuestionLimit       = 2000
	SolutionLimit       = 2000
	ImplementationLimit = 1000
	DecisionLimit       = 500
)

// filePathRe finds file references in prose (must have a slash or a
// recognizable extension to limit false positives)
var filePathRe = regexp.MustCompile("[`\"]?([a-zA-Z0-9_\\-./]+/[a-zA-Z0-9_\\-.]+\\.[a-zA-Z0-9]{1,5})[`\"]?")

// Extractor runs the extraction passes. It holds only immutable
// configuration; scan state is local to each Extract call, so one
// Extractor is safe to reuse across transcripts concurrently.
type Extractor struct {
	vocab    Vocabulary
	redactor *redact.Redactor
	log      zerolog.Logger
}

// New creates an extractor with the given vocabulary. The redactor is
// applied to every textual field before it enters the output - extraction
// and redaction are not separable from the caller's point of view.
func New(vocab Vocabulary, redactor *redact.Redactor, log zerolog.Logger) *Extractor {
	return &Extractor{vocab: vocab, redactor: redactor, log: log}
}

// Extract consumes a normalized entry sequence and produces the archival
// record for the session. A transcript with no user or assistant turns
// yields empty lists and a zero relevance score, not an error.
func (e *Extractor) Extract(entries []models.TranscriptEntry, projectPath string) *models.ExtractedContext {
	ctx := &models.ExtractedContext{
		ProjectPath:     projectPath,
		Timestamp:       time.Now().UTC(),
		Problems:        []models.Problem{},
		Implementations: []models.Implementation{},
		Decisions:       []models.Decision{},
		Patterns:        []models.Pattern{},
	}
	if len(entries) > 0 {
		ctx.SessionID = entries[0].SessionID
	}

	// Open-problem state is deliberately local to this pass
	var openProblem *models.Problem

	for i := range entries {
		entry := &entries[i]
		text := entry.Text()

		switch entry.Kind {
		case models.EntryUser:
			if e.isProblem(text) {
				if openProblem != nil {
					// A new question discards the unanswered one; only
					// end-of-transcript leaves an open problem worth noting
					e.log.Debug().Str("question", openProblem.Question).Msg("discarding unanswered problem")
				}
				// Redact before any field derivation: tags and file lists
				// must never see the raw text
				redacted := e.redactor.Redact(text)
				openProblem = &models.Problem{
					Question:  Truncate(redacted, QuestionLimit),
					Timestamp: entry.Timestamp,
					Tags:      Tags(redacted, &e.vocab),
				}
			}

		case models.EntryAssistant:
			if openProblem != nil && strings.TrimSpace(text) != "" {
				redacted := e.redactor.Redact(text)
				openProblem.Solution = &models.Solution{
					Approach:   Truncate(redacted, SolutionLimit),
					Files:      referencedFiles(redacted),
					Successful: !e.vocab.FailureAdmissions.MatchString(text),
				}
				ctx.Problems = append(ctx.Problems, *openProblem)
				openProblem = nil
			}

		case models.EntryTool:
			if impl := e.implementation(entry); impl != nil {
				ctx.Implementations = append(ctx.Implementations, *impl)
			}
		}

		// Decision scanning is independent of problem state and runs over
		// every entry kind, tool and system turns included
		if d := e.decision(text, entry.Timestamp, openProblem); d != nil {
			ctx.Decisions = append(ctx.Decisions, *d)
		}
	}

	if openProblem != nil {
		ctx.Metadata.Warnings = append(ctx.Metadata.Warnings, "problem open at end of transcript: "+Truncate(openProblem.Question, 120))
	}

	e.fillMetadata(ctx, entries)
	return ctx
}

func (e *Extractor) isProblem(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	for _, re := range e.vocab.ProblemIndicators {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// implementation converts a file-mutating tool call into an
// Implementation record. Read-only and unknown tools yield nil.
func (e *Extractor) implementation(entry *models.TranscriptEntry) *models.Implementation {
	use := entry.ToolUse
	if use == nil {
		return nil
	}
	editsFiles, known := e.vocab.MutatingTools[use.Name]
	if !known {
		return nil
	}

	impl := &models.Implementation{
		Tool:      use.Name,
		Timestamp: entry.Timestamp,
	}
	switch {
	case editsFiles && use.Input.Kind == models.ToolInputFileEdit:
		impl.File = e.redactor.Redact(use.Input.FileEdit.FilePath)
		impl.Description = Truncate("modified "+impl.File, ImplementationLimit)
		if use.Input.FileEdit.Content != "" {
			impl.Changes = Truncate(e.redactor.Redact(use.Input.FileEdit.Content), ImplementationLimit)
		}
	case use.Input.Kind == models.ToolInputCommand:
		cmd := use.Input.Command.Command
		if !mutatingCommand.MatchString(cmd) {
			return nil
		}
		impl.Description = Truncate(e.redactor.Redact(cmd), ImplementationLimit)
	default:
		return nil
	}
	return impl
}

func (e *Extractor) decision(text string, ts time.Time, open *models.Problem) *models.Decision {
	if !e.vocab.DecisionIndicators.MatchString(text) {
		return nil
	}
	impact := models.ImpactMedium
	if e.vocab.HighImpactWords.MatchString(text) {
		impact = models.ImpactHigh
	}
	context := ""
	if open != nil {
		context = open.Question
	}
	return &models.Decision{
		Decision:  Truncate(e.redactor.Redact(text), DecisionLimit),
		Context:   Truncate(context, DecisionLimit),
		Timestamp: ts,
		Impact:    impact,
	}
}

// fillMetadata computes the aggregate view of the run. The context-level
// relevance is the maximum of the item scores: the archive's worth is
// driven by its best item, not diluted by noise.
func (e *Extractor) fillMetadata(ctx *models.ExtractedContext, entries []models.TranscriptEntry) {
	meta := &ctx.Metadata
	meta.EntryCount = len(entries)
	if len(entries) > 1 {
		meta.Duration = entries[len(entries)-1].Timestamp.Sub(entries[0].Timestamp).Milliseconds()
	}

	tools := make(map[string]bool)
	for i := range entries {
		if entries[i].ToolUse != nil {
			tools[entries[i].ToolUse.Name] = true
		}
	}
	meta.ToolsUsed = sortedKeys(tools)

	files := make(map[string]bool)
	for _, impl := range ctx.Implementations {
		if impl.File != "" {
			files[impl.File] = true
		}
	}
	meta.FilesModified = sortedKeys(files)

	best := 0.0
	for _, p := range ctx.Problems {
		hints := score.Hints{}
		if p.Solution != nil && len(p.Solution.Files) > 0 {
			hints.HasCodeChange = true
		}
		if s := score.Score(p.Question, hints); s > best {
			best = s
		}
		if p.Solution != nil {
			if s := score.Score(p.Solution.Approach, hints); s > best {
				best = s
			}
		}
	}
	for _, impl := range ctx.Implementations {
		if s := score.Score(impl.Description, score.Hints{ToolName: impl.Tool, HasCodeChange: impl.File != ""}); s > best {
			best = s
		}
	}
	for _, d := range ctx.Decisions {
		if s := score.Score(d.Decision, score.Hints{}); s > best {
			best = s
		}
	}
	meta.RelevanceScore = best
}

// referencedFiles pulls file paths out of assistant prose
func referencedFiles(text string) []string {
	seen := make(map[string]bool)
	files := []string{}
	for _, m := range filePathRe.FindAllStringSubmatch(text, -1) {
		path := m[1]
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}
	return files
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
