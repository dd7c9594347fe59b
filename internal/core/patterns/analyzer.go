// Package patterns mines recurring values across the whole archive:
// shell commands, code idioms, and architectural phrasing. Patterns are
// aggregates over many sessions, recomputed from archive contents rather
// than written by the extractor.
package patterns

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/lore-tools/lore/internal/core/models"
)

// maxExamples bounds the sample retained per pattern
const maxExamples = 3

// exampleLimit bounds each retained example string
const exampleLimit = 120

// codeIdioms are recognizable code constructs worth counting across
// sessions. The value stored is the normalized form of the match.
var codeIdioms = []*regexp.Regexp{
	regexp.MustCompile(`if err != nil`),
	regexp.MustCompile(`func \w+\(`),
	regexp.MustCompile(`func \(\w+ \*?\w+\) \w+\(`),
	regexp.MustCompile(`go func\(`),
	regexp.MustCompile(`defer \w+[\w.]*\(`),
	regexp.MustCompile(`select \{`),
	regexp.MustCompile(`chan \w+`),
	regexp.MustCompile(`context\.Context`),
	regexp.MustCompile(`sync\.(?:Mutex|RWMutex|WaitGroup|Once)`),
	regexp.MustCompile(`(?i)try\s*\{|catch\s*\(`),
	regexp.MustCompile(`(?i)async (?:def|function|fn)\b`),
}

// archPhrases is the fixed vocabulary of architectural phrasing
var archPhrases = []string{
	"dependency injection", "event-driven", "event sourcing",
	"microservice", "monolith", "repository pattern", "worker pool",
	"pub/sub", "message queue", "circuit breaker", "rate limiting",
	"single source of truth", "separation of concerns", "layered architecture",
	"inverted index", "write-ahead log", "atomic replace", "eventual consistency",
	"client-server", "middleware", "plugin architecture", "state machine",
}

// commandHeads that take a meaningful subcommand; the pattern value keeps
// both words so "git rebase" and "git commit" count separately
var commandHeads = map[string]bool{
	"git": true, "go": true, "npm": true, "pnpm": true, "yarn": true,
	"docker": true, "kubectl": true, "make": true, "cargo": true,
	"pip": true, "brew": true, "apt": true, "mix": true,
}

// Analyzer aggregates patterns from archived contexts
type Analyzer struct{}

// New creates an analyzer
func New() *Analyzer {
	return &Analyzer{}
}

type aggregate struct {
	pattern models.Pattern
}

// Analyze scans the given contexts (normally the full archive) and
// returns the aggregated patterns, most frequent first
func (a *Analyzer) Analyze(contexts []*models.ExtractedContext) []models.Pattern {
	agg := make(map[string]*aggregate)

	for _, ctx := range contexts {
		seen := ctx.Timestamp

		for _, impl := range ctx.Implementations {
			if strings.EqualFold(impl.Tool, "bash") || looksLikeCommand(impl.Description) {
				if value := commandValue(impl.Description); value != "" {
					record(agg, models.PatternCommand, value, impl.Description, seen)
				}
			}
		}

		for _, text := range codeTexts(ctx) {
			for _, re := range codeIdioms {
				for _, m := range re.FindAllString(text, -1) {
					value := strings.Join(strings.Fields(strings.ToLower(m)), " ")
					record(agg, models.PatternCode, value, m, seen)
				}
			}
		}

		for _, d := range ctx.Decisions {
			lower := strings.ToLower(d.Decision)
			for _, phrase := range archPhrases {
				if strings.Contains(lower, phrase) {
					record(agg, models.PatternArchitecture, phrase, d.Decision, seen)
				}
			}
		}
	}

	patterns := make([]models.Pattern, 0, len(agg))
	for _, entry := range agg {
		patterns = append(patterns, entry.pattern)
	}
	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Frequency != patterns[j].Frequency {
			return patterns[i].Frequency > patterns[j].Frequency
		}
		return patterns[i].Value < patterns[j].Value
	})
	return patterns
}

func record(agg map[string]*aggregate, typ models.PatternType, value, example string, seen time.Time) {
	key := string(typ) + "\x00" + value
	entry := agg[key]
	if entry == nil {
		entry = &aggregate{pattern: models.Pattern{
			Type:      typ,
			Value:     value,
			FirstSeen: seen,
			LastSeen:  seen,
			Examples:  []string{},
		}}
		agg[key] = entry
	}
	p := &entry.pattern
	p.Frequency++
	if seen.Before(p.FirstSeen) {
		p.FirstSeen = seen
	}
	if seen.After(p.LastSeen) {
		p.LastSeen = seen
	}
	if len(p.Examples) < maxExamples {
		ex := example
		if len(ex) > exampleLimit {
			ex = ex[:exampleLimit]
		}
		p.Examples = append(p.Examples, ex)
	}
}

// commandValue normalizes a shell command to its countable head:
// "git commit -m ..." -> "git commit", "ls -la" -> "ls"
func commandValue(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	head := strings.ToLower(fields[0])
	if head == "sudo" && len(fields) > 1 {
		fields = fields[1:]
		head = strings.ToLower(fields[0])
	}
	if commandHeads[head] && len(fields) > 1 && !strings.HasPrefix(fields[1], "-") {
		return head + " " + strings.ToLower(fields[1])
	}
	return head
}

func looksLikeCommand(text string) bool {
	fields := strings.Fields(text)
	if len(fields) > 0 && strings.ToLower(fields[0]) == "sudo" {
		fields = fields[1:]
	}
	if len(fields) == 0 {
		return false
	}
	return commandHeads[strings.ToLower(fields[0])]
}

// codeTexts gathers the fields where code idioms can appear
func codeTexts(ctx *models.ExtractedContext) []string {
	var texts []string
	for _, p := range ctx.Problems {
		if p.Solution != nil {
			texts = append(texts, p.Solution.Approach)
		}
	}
	for _, impl := range ctx.Implementations {
		if impl.Changes != "" {
			texts = append(texts, impl.Changes)
		}
	}
	return texts
}
