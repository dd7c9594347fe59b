// Package score estimates how valuable an extracted item is for future
// retrieval. Scoring is a pure weighted sum over lexical factors, clamped
// to [0,1] - factors can stack but can never exceed the ceiling.
package score

import (
	"regexp"
	"strings"
)

// Factor weights. A literal question alone reaches the ceiling; lower
// bands stack with the code-change factor but stay clamped.
const (
	weightQuestion     = 1.0
	weightRequest      = 0.9
	weightProblem      = 0.8
	weightCodeChange   = 0.8
	weightErrorResolve = 0.7
	weightArchitecture = 0.6
	weightAdminTool    = 0.5
	weightShellOneOff  = 0.4
)

// Hints carries context the text alone does not show
type Hints struct {
	// HasCodeChange is set when the associated solution touched files
	HasCodeChange bool
	// ToolName classifies low-signal tool invocations (todo bookkeeping,
	// shell one-liners) so they rank low instead of scoring zero
	ToolName string
}

var (
	requestRe = regexp.MustCompile(`(?i)\b(implement|create|add|build|write|refactor|fix|update|make|set ?up)\b`)
	problemRe = regexp.MustCompile(`(?i)\b(error|bug|debug|broken|fail(s|ed|ing)?|crash(es|ed|ing)?|exception|doesn'?t work|not working|issue)\b`)
	resolveRe = regexp.MustCompile(`(?i)\b(fixed|resolved|solved|root cause|the (issue|problem|bug) was|works now)\b`)
	archRe    = regexp.MustCompile(`(?i)\b(architecture|architectural|design|decided|decision|approach|trade-?off|instead of|chose|migrate)\b`)
)

// Score rates a single item in [0,1]. Empty or whitespace-only text
// scores zero regardless of hints.
func Score(text string, hints Hints) float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	s := 0.0
	if strings.HasSuffix(text, "?") || strings.Contains(text, "? ") {
		s += weightQuestion
	}
	if requestRe.MatchString(text) {
		s += weightRequest
	}
	if problemRe.MatchString(text) {
		s += weightProblem
	}
	if hints.HasCodeChange {
		s += weightCodeChange
	}
	if resolveRe.MatchString(text) {
		s += weightErrorResolve
	}
	if archRe.MatchString(text) {
		s += weightArchitecture
	}

	if s == 0 && hints.ToolName != "" {
		s = toolWeight(hints.ToolName)
	}

	return clamp(s)
}

// toolWeight assigns the small fixed weights for administrative tool
// invocations so they can surface but rank below substantive content
func toolWeight(tool string) float64 {
	switch strings.ToLower(tool) {
	case "todowrite", "todoread", "todo":
		return weightAdminTool
	case "bash", "shell":
		return weightShellOneOff
	default:
		return weightShellOneOff
	}
}

func clamp(s float64) float64 {
	if s > 1.0 {
		return 1.0
	}
	if s < 0 {
		return 0
	}
	return s
}
