// Package transcript normalizes raw JSONL session transcripts into the
// canonical entry sequence the extraction pipeline consumes. Parsing is a
// pure transform: unparseable lines are skipped and counted, never fatal,
// and missing optional fields get explicit safe defaults.
package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lore-tools/lore/internal/core/models"
)

// Result is a parsed transcript plus its data-quality report
type Result struct {
	Entries      []models.TranscriptEntry
	SkippedLines int
	Warnings     []string
}

// rawEntry accepts the field-name variants seen in the wild. camelCase
// and snake_case spellings of the same logical field normalize to one
// canonical shape.
type rawEntry struct {
	Type      string `json:"type"`
	Kind      string `json:"kind,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`

	SessionID      string `json:"sessionId,omitempty"`
	SessionIDSnake string `json:"session_id,omitempty"`

	Message json.RawMessage `json:"message,omitempty"`

	ToolUse      *rawToolUse `json:"toolUse,omitempty"`
	ToolUseSnake *rawToolUse `json:"tool_use,omitempty"`

	ToolResult      *rawToolResult `json:"toolResult,omitempty"`
	ToolResultSnake *rawToolResult `json:"tool_result,omitempty"`
}

type rawToolUse struct {
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input,omitempty"`
}

type rawToolResult struct {
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// contentBlock is one element of an array-form message body
type contentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

// ParseFile parses a JSONL transcript from disk
func ParseFile(path string) (*Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}
	defer func() { _ = file.Close() }()
	return Parse(file)
}

// Parse reads one JSON record per line and returns the normalized entry
// sequence. A transcript with mixed session ids is a data-quality error,
// reported in Warnings but not fatal.
func Parse(r io.Reader) (*Result, error) {
	result := &Result{Entries: []models.TranscriptEntry{}}

	scanner := bufio.NewScanner(r)
	// Long assistant turns can exceed the default buffer (10MB max line)
	scanner.Buffer(make([]byte, 64*1024), 10*1024*1024)

	sessionID := ""
	mixedReported := false
	var lastTS time.Time
	orderReported := false
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var raw rawEntry
		if err := json.Unmarshal(line, &raw); err != nil {
			result.SkippedLines++
			continue
		}

		kind := normalizeKind(firstNonEmpty(raw.Type, raw.Kind))
		if kind == "" {
			result.SkippedLines++
			continue
		}

		id := firstNonEmpty(raw.SessionID, raw.SessionIDSnake)
		if id != "" {
			if sessionID == "" {
				sessionID = id
			} else if id != sessionID && !mixedReported {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("line %d: mixed session ids (%s and %s)", lineNum, sessionID, id))
				mixedReported = true
			}
		}

		ts := parseTimestamp(raw.Timestamp, lastTS)
		if !lastTS.IsZero() && ts.Before(lastTS) && !orderReported {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("line %d: timestamp out of order", lineNum))
			orderReported = true
		}
		if !ts.IsZero() {
			lastTS = ts
		}

		entries := normalizeEntry(kind, &raw, ts)
		result.Entries = append(result.Entries, entries...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading transcript: %w", err)
	}

	// Stamp the canonical session id onto every entry
	for i := range result.Entries {
		result.Entries[i].SessionID = sessionID
	}

	return result, nil
}

// normalizeEntry converts one raw record into canonical entries. An
// assistant record carrying tool_use content blocks yields the assistant
// entry followed by one tool entry per block.
func normalizeEntry(kind models.EntryKind, raw *rawEntry, ts time.Time) []models.TranscriptEntry {
	entry := models.TranscriptEntry{Kind: kind, Timestamp: ts}

	switch kind {
	case models.EntryTool:
		use := raw.ToolUse
		if use == nil {
			use = raw.ToolUseSnake
		}
		if use != nil {
			entry.ToolUse = &models.ToolUse{
				Name:  use.Name,
				Input: decodeToolInput(use.Name, use.Input),
			}
		}
		res := raw.ToolResult
		if res == nil {
			res = raw.ToolResultSnake
		}
		if res != nil {
			entry.ToolResult = &models.ToolResult{Output: res.Output, Error: res.Error}
		}
		if entry.ToolUse == nil && entry.ToolResult == nil {
			return nil
		}
		return []models.TranscriptEntry{entry}

	case models.EntryUser, models.EntryAssistant, models.EntrySystem:
		text, role, toolUses := decodeMessage(raw.Message)
		if role == "" {
			role = string(kind)
		}
		entry.Message = &models.Message{Role: role, Text: text}

		out := []models.TranscriptEntry{entry}
		for _, block := range toolUses {
			out = append(out, models.TranscriptEntry{
				Kind:      models.EntryTool,
				Timestamp: ts,
				ToolUse: &models.ToolUse{
					Name:  block.Name,
					Input: decodeToolInput(block.Name, block.Input),
				},
			})
		}
		return out
	}
	return nil
}

// decodeMessage handles both message shapes: a plain string body and an
// array of typed content blocks.
func decodeMessage(msg json.RawMessage) (text, role string, toolUses []contentBlock) {
	if len(msg) == 0 {
		return "", "", nil
	}

	var arrayForm struct {
		Role    string         `json:"role"`
		Content []contentBlock `json:"content"`
	}
	if err := json.Unmarshal(msg, &arrayForm); err == nil && len(arrayForm.Content) > 0 {
		for _, block := range arrayForm.Content {
			switch block.Type {
			case "text":
				if text != "" {
					text += "\n"
				}
				text += block.Text
			case "tool_use":
				toolUses = append(toolUses, block)
			}
		}
		return text, arrayForm.Role, toolUses
	}

	var stringForm struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(msg, &stringForm); err == nil {
		return stringForm.Content, stringForm.Role, nil
	}

	return "", "", nil
}

// decodeToolInput maps a tool invocation payload onto the typed variant
// for known tools, falling back to raw JSON for everything else
func decodeToolInput(tool string, input json.RawMessage) models.ToolInput {
	switch tool {
	case "Write", "Edit", "MultiEdit", "NotebookEdit":
		var payload models.FileEditInput
		if err := json.Unmarshal(input, &payload); err == nil && payload.FilePath != "" {
			return models.ToolInput{Kind: models.ToolInputFileEdit, FileEdit: &payload}
		}
	case "Bash":
		var payload models.CommandInput
		if err := json.Unmarshal(input, &payload); err == nil && payload.Command != "" {
			return models.ToolInput{Kind: models.ToolInputCommand, Command: &payload}
		}
	case "Read", "Glob", "Grep":
		var payload models.FileReadInput
		if err := json.Unmarshal(input, &payload); err == nil && payload.FilePath != "" {
			return models.ToolInput{Kind: models.ToolInputFileRead, FileRead: &payload}
		}
	}
	return models.ToolInput{Kind: models.ToolInputGeneric, Raw: input}
}

func normalizeKind(t string) models.EntryKind {
	switch t {
	case "user", "human":
		return models.EntryUser
	case "assistant", "ai":
		return models.EntryAssistant
	case "tool", "tool_use", "tool-use", "tool-invocation", "tool_invocation":
		return models.EntryTool
	case "system":
		return models.EntrySystem
	default:
		return ""
	}
}

// parseTimestamp falls back to the previous entry's timestamp so gaps in
// the input never propagate a zero value downstream mid-transcript
func parseTimestamp(s string, last time.Time) time.Time {
	if s == "" {
		return last
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return last
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
