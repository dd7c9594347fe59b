package models

import (
	"errors"
	"time"
)

// ExtractedContext is the unit of archival: everything worth keeping from
// one session transcript. It is written once per extraction run and never
// mutated; a later extraction for the same session supersedes it with a
// fresh record. The JSON field names below are the durable archive
// contract - any consumer must round-trip them losslessly.
type ExtractedContext struct {
	SessionID       string           `json:"sessionId"`
	ProjectPath     string           `json:"projectPath"`
	Timestamp       time.Time        `json:"timestamp"`
	Problems        []Problem        `json:"problems"`
	Implementations []Implementation `json:"implementations"`
	Decisions       []Decision       `json:"decisions"`
	Patterns        []Pattern        `json:"patterns"`
	Metadata        ContextMetadata  `json:"metadata"`
}

// Problem is a user question or task statement. A Problem without a
// Solution is open - a legitimate terminal state when the transcript ends
// before an assistant turn answers it.
type Problem struct {
	Question  string    `json:"question"`
	Timestamp time.Time `json:"timestamp"`
	Tags      []string  `json:"tags"`
	Solution  *Solution `json:"solution,omitempty"`
}

// Solution is owned by exactly one Problem, never standalone
type Solution struct {
	Approach   string   `json:"approach"`
	Files      []string `json:"files"`
	Successful bool     `json:"successful"`
}

// Implementation denotes a visible file-affecting action
type Implementation struct {
	Tool        string    `json:"tool"`
	File        string    `json:"file"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	Changes     string    `json:"changes,omitempty"`
}

// Impact classifies how consequential a decision is
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// Decision records an explicit architectural or approach choice
type Decision struct {
	Decision  string    `json:"decision"`
	Context   string    `json:"context"`
	Timestamp time.Time `json:"timestamp"`
	Impact    Impact    `json:"impact"`
}

// PatternType classifies a recurring value mined across sessions
type PatternType string

const (
	PatternCode         PatternType = "code"
	PatternCommand      PatternType = "command"
	PatternArchitecture PatternType = "architecture"
)

// Pattern is a cross-session aggregate, not scoped to one context. It is
// recomputed by the pattern analyzer, never written by the extractor.
type Pattern struct {
	Type      PatternType `json:"type"`
	Value     string      `json:"value"`
	Frequency int         `json:"frequency"`
	FirstSeen time.Time   `json:"firstSeen"`
	LastSeen  time.Time   `json:"lastSeen"`
	Examples  []string    `json:"examples"`
}

// ContextMetadata summarizes an extraction run. Duration is milliseconds
// between the first and last transcript entry.
type ContextMetadata struct {
	EntryCount     int      `json:"entryCount"`
	Duration       int64    `json:"duration"`
	ToolsUsed      []string `json:"toolsUsed"`
	FilesModified  []string `json:"filesModified"`
	RelevanceScore float64  `json:"relevanceScore"`
	Warnings       []string `json:"warnings,omitempty"`
}

// Validate checks the archive contract's required fields
func (c *ExtractedContext) Validate() error {
	if c.SessionID == "" {
		return errors.New("sessionId is required")
	}
	if c.Timestamp.IsZero() {
		return errors.New("timestamp is required")
	}
	return nil
}
