package triage_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/rejectlabel/internal/config"
	"github.com/teemow/rejectlabel/internal/server"
	"github.com/teemow/rejectlabel/internal/tools/common"
	"github.com/teemow/rejectlabel/internal/triage"
)

const (
	// ToolRules shows the active rules and the query built from them.
	ToolRules = "gmail_rejection_rules"
	// ToolSearch counts and lists matching messages without changing anything.
	ToolSearch = "gmail_search_rejections"
	// ToolLabel runs the labeling pipeline. Only registered with write access.
	ToolLabel = "gmail_label_rejections"

	defaultMaxIDs = 50
	maxMaxIDs     = 1000
)

// SearchResult is returned by gmail_search_rejections.
type SearchResult struct {
	Query     string   `json:"query"`
	Count     int      `json:"count"`
	IDs       []string `json:"ids"`
	Truncated bool     `json:"truncated"`
}

// RulesResult is returned by gmail_rejection_rules.
type RulesResult struct {
	Label     string   `json:"label"`
	Folder    string   `json:"folder"`
	ChunkSize int      `json:"chunk_size"`
	Phrases   []string `json:"phrases"`
	Query     string   `json:"query"`
}

// RegisterTriageTools registers the rejection triage tools with the MCP server
func RegisterTriageTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	rulesTool := mcp.NewTool(ToolRules,
		mcp.WithDescription("Show the label, folder and phrases used to find rejection emails, and the resulting Gmail query"),
	)
	s.AddTool(rulesTool, common.InstrumentedToolHandler(ToolRules, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleRules(ctx, request, sc)
		}))

	searchTool := mcp.NewTool(ToolSearch,
		mcp.WithDescription("Find rejection emails without changing anything. Returns the total count and up to maxIds message IDs."),
		mcp.WithString("phrases",
			mcp.Description("Phrase or array of phrases to search for instead of the configured ones"),
		),
		mcp.WithString("folder",
			mcp.Description("Folder to search (default: the configured folder, usually 'inbox')"),
		),
		mcp.WithNumber("maxIds",
			mcp.Description("Maximum number of message IDs to return (default: 50, max: 1000)"),
		),
	)
	s.AddTool(searchTool, common.InstrumentedToolHandler(ToolSearch, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSearch(ctx, request, sc)
		}))

	if readOnly {
		return nil
	}

	labelTool := mcp.NewTool(ToolLabel,
		mcp.WithDescription("Label every rejection email, creating the label if needed. Messages stay in their folder."),
		mcp.WithString("label",
			mcp.Description("Label name (default: the configured label, usually 'rejections')"),
		),
		mcp.WithString("phrases",
			mcp.Description("Phrase or array of phrases to search for instead of the configured ones"),
		),
		mcp.WithString("folder",
			mcp.Description("Folder to search (default: the configured folder)"),
		),
		mcp.WithBoolean("dryRun",
			mcp.Description("Only count matching messages; create and modify nothing (default: false)"),
		),
	)
	s.AddTool(labelTool, common.InstrumentedToolHandler(ToolLabel, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleLabel(ctx, request, sc)
		}))

	return nil
}

// rulesFromArgs overlays the per-call overrides onto the server rules.
func rulesFromArgs(args map[string]any, base config.Rules) (config.Rules, string, error) {
	rules := base
	rules.Phrases = append([]string(nil), base.Phrases...)

	phrases, err := common.StringOrArray(args, "phrases")
	if err != nil {
		return rules, "", err
	}
	if phrases != nil {
		rules.Phrases = phrases
	}
	rules.Folder = common.OptionalString(args, "folder", rules.Folder)
	rules.Label = common.OptionalString(args, "label", rules.Label)

	if err := rules.Validate(); err != nil {
		return rules, "", err
	}
	query, err := rules.Query()
	if err != nil {
		return rules, "", err
	}
	return rules, query, nil
}

func handleRules(_ context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	rules := sc.Rules()
	return common.JSONResult(RulesResult{
		Label:     rules.Label,
		Folder:    rules.Folder,
		ChunkSize: rules.ChunkSize,
		Phrases:   rules.Phrases,
		Query:     sc.Query(),
	})
}

func handleSearch(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	_, query, err := rulesFromArgs(args, sc.Rules())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	maxIDs, err := common.OptionalInt(args, "maxIds", defaultMaxIDs)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if maxIDs < 1 || maxIDs > maxMaxIDs {
		return mcp.NewToolResultError(fmt.Sprintf("maxIds must be between 1 and %d", maxMaxIDs)), nil
	}

	mailbox, err := sc.Pipeline().Open(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to open mailbox: %v", err)), nil
	}

	result := SearchResult{Query: query, IDs: []string{}}
	for id, err := range triage.NewCursor(mailbox, query).IDs(ctx) {
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed after %d messages: %v", result.Count, err)), nil
		}
		result.Count++
		if len(result.IDs) < maxIDs {
			result.IDs = append(result.IDs, id)
		}
	}
	result.Truncated = result.Count > len(result.IDs)

	return common.JSONResult(result)
}

func handleLabel(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	rules, query, err := rulesFromArgs(args, sc.Rules())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	report, err := sc.Pipeline().Run(ctx, triage.Options{
		Label:     rules.Label,
		Query:     query,
		ChunkSize: rules.ChunkSize,
		DryRun:    common.OptionalBool(args, "dryRun", false),
	})
	sc.RecordRun(report)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("labeling stopped in state %s after %d of %d messages: %v",
			report.State, report.Labeled, report.Found, err)), nil
	}

	return common.JSONResult(report)
}
