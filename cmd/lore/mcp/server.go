// Package mcp exposes the archive to MCP clients over stdio: search,
// context retrieval, pattern queries, and standalone redaction.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/lore-tools/lore/internal/core/archive"
	"github.com/lore-tools/lore/internal/core/index"
	"github.com/lore-tools/lore/internal/core/models"
	"github.com/lore-tools/lore/internal/core/redact"
	"github.com/lore-tools/lore/internal/core/search"
	"github.com/lore-tools/lore/internal/logger"
)

// Options configures the server's storage locations and ranking
type Options struct {
	ArchiveDir   string
	IndexPath    string
	HalfLifeDays int
}

// SearchContextArgs defines arguments for the search_context tool
type SearchContextArgs struct {
	Query   string `json:"query"`
	Limit   int    `json:"limit,omitempty"`
	Project string `json:"project,omitempty"`
}

// GetContextArgs defines arguments for the get_context tool
type GetContextArgs struct {
	SessionID string `json:"session_id"`
}

// GetPatternsArgs defines arguments for the get_patterns tool
type GetPatternsArgs struct {
	Type         string `json:"type,omitempty"`
	MinFrequency int    `json:"min_frequency,omitempty"`
	Limit        int    `json:"limit,omitempty"`
}

// RedactTextArgs defines arguments for the redact_text tool
type RedactTextArgs struct {
	Text string `json:"text"`
}

// StartServer serves the archive over stdio until the client disconnects
func StartServer(opts Options) error {
	log := logger.Nop() // stdio belongs to the protocol

	arch, err := archive.NewStore(opts.ArchiveDir, log)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	idx, err := index.Open(opts.IndexPath)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer func() { _ = idx.Close() }()

	halfLife := search.DefaultHalfLife
	if opts.HalfLifeDays > 0 {
		halfLife = time.Duration(opts.HalfLifeDays) * 24 * time.Hour
	}
	searcher := search.New(idx, arch, search.WithHalfLife(halfLife))
	redactor := redact.New()

	s := server.NewMCPServer("lore", "1.0.0")

	searchTool := mcp.NewTool("search_context",
		mcp.WithDescription("Search archived session knowledge by keyword. Tokens match simple morphological variants and recent sessions rank higher. An empty query returns the most recent archives."),
		mcp.WithString("query",
			mcp.Description("Free-text query (empty for most recent archives)")),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default 10)")),
		mcp.WithString("project",
			mcp.Description("Filter by project path")),
	)
	s.AddTool(searchTool, makeSearchHandler(searcher))

	getTool := mcp.NewTool("get_context",
		mcp.WithDescription("Retrieve the full archived context for one session"),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session id to retrieve")),
	)
	s.AddTool(getTool, makeGetContextHandler(arch))

	patternsTool := mcp.NewTool("get_patterns",
		mcp.WithDescription("Get values recurring across sessions (commands, code idioms, architectural phrasing). Patterns below the frequency threshold are excluded."),
		mcp.WithString("type",
			mcp.Description("Pattern type: code, command, or architecture")),
		mcp.WithNumber("min_frequency",
			mcp.Description("Minimum occurrences (default 2)")),
		mcp.WithNumber("limit",
			mcp.Description("Max patterns to return (default 20)")),
	)
	s.AddTool(patternsTool, makeGetPatternsHandler(idx))

	redactTool := mcp.NewTool("redact_text",
		mcp.WithDescription("Redact credentials and PII from text using the built-in detector table"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to redact")),
	)
	s.AddTool(redactTool, makeRedactHandler(redactor))

	return server.ServeStdio(s)
}

func decodeArgs(request mcp.CallToolRequest, out interface{}) error {
	data, _ := json.Marshal(request.Params.Arguments)
	return json.Unmarshal(data, out)
}

func makeSearchHandler(searcher *search.Searcher) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args SearchContextArgs
		if err := decodeArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		results, err := searcher.Search(args.Query, search.Filters{
			Project: args.Project,
			Limit:   args.Limit,
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}

		type resultView struct {
			SessionID   string         `json:"session_id"`
			ProjectPath string         `json:"project_path"`
			Timestamp   string         `json:"timestamp"`
			Relevance   float64        `json:"relevance"`
			Matches     []search.Match `json:"matches"`
		}
		views := make([]resultView, 0, len(results))
		for _, r := range results {
			views = append(views, resultView{
				SessionID:   r.Context.SessionID,
				ProjectPath: r.Context.ProjectPath,
				Timestamp:   r.Context.Timestamp.Format(time.RFC3339),
				Relevance:   r.Relevance,
				Matches:     r.Matches,
			})
		}

		payload, err := json.Marshal(map[string]interface{}{"results": views})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcp.NewToolResultText(string(payload)), nil
	}
}

func makeGetContextHandler(arch *archive.Store) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args GetContextArgs
		if err := decodeArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		loaded, err := arch.Load(args.SessionID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("no context found for %s", args.SessionID)), nil
		}

		payload, err := json.Marshal(loaded)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal context: %v", err)), nil
		}
		return mcp.NewToolResultText(string(payload)), nil
	}
}

func makeGetPatternsHandler(idx *index.Store) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args GetPatternsArgs
		if err := decodeArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		if args.MinFrequency == 0 {
			args.MinFrequency = 2
		}

		found, err := idx.GetPatterns(models.PatternType(args.Type), args.MinFrequency, args.Limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("pattern query failed: %v", err)), nil
		}

		payload, err := json.Marshal(map[string]interface{}{"patterns": found})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal patterns: %v", err)), nil
		}
		return mcp.NewToolResultText(string(payload)), nil
	}
}

func makeRedactHandler(redactor *redact.Redactor) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args RedactTextArgs
		if err := decodeArgs(request, &args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		redacted, count := redactor.RedactCount(args.Text)
		payload, err := json.Marshal(map[string]interface{}{
			"text":       redacted,
			"redactions": count,
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(payload)), nil
	}
}
