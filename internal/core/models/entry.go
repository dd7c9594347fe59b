package models

import (
	"encoding/json"
	"time"
)

// EntryKind identifies the author of a transcript turn
type EntryKind string

const (
	EntryUser      EntryKind = "user"
	EntryAssistant EntryKind = "assistant"
	EntryTool      EntryKind = "tool"
	EntrySystem    EntryKind = "system"
)

// TranscriptEntry is one normalized turn of a session transcript.
// Timestamps are non-decreasing within a session; a violation is reported
// by the parser as a warning, not an error.
type TranscriptEntry struct {
	Kind       EntryKind
	Timestamp  time.Time
	SessionID  string
	Message    *Message
	ToolUse    *ToolUse
	ToolResult *ToolResult
}

// Message is the conversational payload of a user/assistant entry
type Message struct {
	Role string
	Text string
}

// ToolUse records one tool invocation
type ToolUse struct {
	Name  string
	Input ToolInput
}

// ToolResult records the outcome of a tool invocation
type ToolResult struct {
	Output string
	Error  string
}

// ToolInputKind tags which payload variant of a ToolInput is populated
type ToolInputKind string

const (
	ToolInputFileEdit ToolInputKind = "file-edit"
	ToolInputCommand  ToolInputKind = "command"
	ToolInputFileRead ToolInputKind = "file-read"
	ToolInputGeneric  ToolInputKind = "generic"
)

// ToolInput is a tagged union over known tool payloads. Unknown tools keep
// their raw JSON in Raw so nothing is lost during normalization.
type ToolInput struct {
	Kind     ToolInputKind
	FileEdit *FileEditInput
	Command  *CommandInput
	FileRead *FileReadInput
	Raw      json.RawMessage
}

// FileEditInput is the payload of file-writing tools (Write, Edit, MultiEdit)
type FileEditInput struct {
	FilePath string `json:"file_path"`
	Content  string `json:"content,omitempty"`
}

// CommandInput is the payload of shell tools (Bash)
type CommandInput struct {
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
}

// FileReadInput is the payload of read-only file tools (Read, Glob, Grep)
type FileReadInput struct {
	FilePath string `json:"file_path"`
	Pattern  string `json:"pattern,omitempty"`
}

// Text returns a flat textual rendering of the entry for scanning and
// scoring. Tool entries render their dominant input field.
func (e *TranscriptEntry) Text() string {
	if e.Message != nil {
		return e.Message.Text
	}
	if e.ToolUse != nil {
		switch e.ToolUse.Input.Kind {
		case ToolInputFileEdit:
			return e.ToolUse.Input.FileEdit.FilePath
		case ToolInputCommand:
			return e.ToolUse.Input.Command.Command
		case ToolInputFileRead:
			return e.ToolUse.Input.FileRead.FilePath
		default:
			return string(e.ToolUse.Input.Raw)
		}
	}
	return ""
}
