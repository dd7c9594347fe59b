package extract

import "regexp"

// Vocabulary is the versioned, immutable pattern configuration driving
// extraction. Each category can be unit-tested or swapped (e.g. per
// locale) without touching the extractor itself. Treat values as
// read-only after construction.
type Vocabulary struct {
	Version int

	// ProblemIndicators open a new Problem when matched in a user turn
	ProblemIndicators []*regexp.Regexp
	// FailureAdmissions mark an attached solution as unsuccessful
	FailureAdmissions *regexp.Regexp
	// DecisionIndicators mark a turn as recording a decision
	DecisionIndicators *regexp.Regexp
	// HighImpactWords upgrade a decision's impact from medium to high
	HighImpactWords *regexp.Regexp
	// TechKeywords is the fixed tag vocabulary matched against questions
	TechKeywords []string
	// MutatingTools name the tools whose invocations count as
	// implementations. The value is true when the tool edits files
	// directly, false when mutation must be inferred from the command.
	MutatingTools map[string]bool
}

// DefaultVocabulary returns version 1 of the built-in English vocabulary
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Version: 1,
		ProblemIndicators: []*regexp.Regexp{
			regexp.MustCompile(`\?`),
			regexp.MustCompile(`(?i)\b(error|bug|debug|broken|fail(s|ed|ing)?|crash|exception|not working|doesn'?t work)\b`),
			regexp.MustCompile(`(?i)\bhow (do|can|to|should) i?\b`),
			regexp.MustCompile(`(?i)\bwhy (is|does|isn'?t|won'?t)\b`),
			regexp.MustCompile(`(?i)\b(implement|create|add|build|write|refactor|fix|update|make)\b`),
		},
		FailureAdmissions: regexp.MustCompile(
			`(?i)\b(didn'?t work|doesn'?t work|still fail(s|ing)?|unable to|couldn'?t|cannot fix|gave up|no luck|unsuccessful)\b`),
		DecisionIndicators: regexp.MustCompile(
			`(?i)\b(decided to|we should use|let'?s (use|go with)|chose|choosing|opted for|going with|instead of|better approach|architecture|architectural)\b`),
		HighImpactWords: regexp.MustCompile(
			`(?i)\b(critical|major|significant|entire|all|every|breaking|fundamental|complete(ly)? rewrite|migration)\b`),
		TechKeywords: []string{
			"go", "golang", "python", "javascript", "typescript", "rust",
			"java", "sql", "sqlite", "postgres", "mysql", "redis", "mongodb",
			"docker", "kubernetes", "terraform", "aws", "gcp",
			"http", "grpc", "rest", "api", "graphql", "websocket",
			"auth", "oauth", "jwt", "session", "login",
			"database", "cache", "queue", "migration", "schema", "index",
			"test", "testing", "mock", "benchmark", "ci", "deploy",
			"cli", "config", "json", "yaml", "toml", "regex",
			"git", "linux", "shell", "bash",
			"frontend", "backend", "server", "client",
			"performance", "memory", "concurrency", "goroutine", "race",
			"logging", "metrics", "tracing", "search", "parser",
		},
		MutatingTools: map[string]bool{
			"Write":        true,
			"Edit":         true,
			"MultiEdit":    true,
			"NotebookEdit": true,
			"Bash":         false,
		},
	}
}

// mutatingCommand reports whether a shell command visibly mutates files
var mutatingCommand = regexp.MustCompile(
	`^\s*(?:sudo\s+)?(rm|mv|cp|mkdir|touch|chmod|chown|ln|tee|truncate|sed\s+-i|git\s+(?:checkout|reset|clean|rm|mv))\b`)
