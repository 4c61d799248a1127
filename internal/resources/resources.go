package resources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/rejectlabel/internal/server"
	"github.com/teemow/rejectlabel/internal/triage"
)

const (
	// ProfileURI names the authorized mailbox.
	ProfileURI = "user://profile"
	// RunsURI reports the labeling runs started through the server.
	RunsURI = "triage://runs"
)

// Profiler is implemented by mailboxes that can name their owner.
type Profiler interface {
	Profile(ctx context.Context) (string, error)
}

// RunsData is the content of the runs resource.
type RunsData struct {
	Runs    int            `json:"runs"`
	LastRun *triage.Report `json:"last_run,omitempty"`
}

// RegisterResources registers the read-only resources with the MCP server
func RegisterResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	profileResource := mcp.NewResource(
		ProfileURI,
		"Current User Profile",
		mcp.WithResourceDescription("Email address of the authorized Gmail account"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(profileResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleProfile(ctx, request, sc)
	})

	runsResource := mcp.NewResource(
		RunsURI,
		"Labeling Runs",
		mcp.WithResourceDescription("Number of labeling runs since the server started and the report of the most recent one"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(runsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleRuns(ctx, request, sc)
	})

	return nil
}

func handleProfile(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	mailbox, err := sc.Pipeline().Open(ctx)
	if err != nil {
		return nil, err
	}
	profiler, ok := mailbox.(Profiler)
	if !ok {
		return nil, errors.New("mailbox does not expose a profile")
	}
	email, err := profiler.Profile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}

	return jsonContents(request.Params.URI, map[string]interface{}{
		"email": email,
		"rules": sc.Query(),
	})
}

func handleRuns(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	runs, last := sc.Runs()
	return jsonContents(request.Params.URI, RunsData{Runs: runs, LastRun: last})
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource data: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
