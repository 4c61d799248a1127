package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/rejectlabel/internal/instrumentation"
	"github.com/teemow/rejectlabel/internal/logging"
	"github.com/teemow/rejectlabel/internal/server"
)

// InstrumentedToolHandler wraps a tool handler with a span, invocation
// metrics and a log line per call. A result flagged IsError counts as a
// failure just like a returned error.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(
	toolName string,
	sc *server.ServerContext,
	handler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error),
) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := instrumentation.StartSpan(ctx, "mcp.tool."+toolName)
		defer span.End()

		start := time.Now()
		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
		case result != nil && result.IsError:
			status = instrumentation.StatusError
		default:
			instrumentation.SetSpanSuccess(span)
		}

		sc.Metrics().RecordToolInvocation(ctx, toolName, status, duration)
		sc.Logger().Debug("tool invoked",
			logging.KeyTool, toolName,
			logging.Status(status),
			logging.KeyDuration, duration,
		)
		return result, err
	}
}
