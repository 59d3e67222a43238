package scoutmcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/ticketscout/internal/ticket"
	"github.com/mark3labs/ticketscout/internal/walker"
)

// registerTools registers the investigate-ticket and get-report tools.
func (s *Server) registerTools() error {
	s.mcpServer.AddTool(
		mcp.NewTool("investigate-ticket",
			mcp.WithDescription("Walk the reference graph starting at a ticket key and return the investigation report"),
			mcp.WithString("key", mcp.Required(),
				mcp.Description("Root ticket key, e.g. PROJ-123"),
			),
			mcp.WithNumber("max-depth",
				mcp.Description(fmt.Sprintf("Maximum recursion depth (default: %d)", walker.DefaultMaxDepth)),
			),
		),
		s.handleInvestigate,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("get-report",
			mcp.WithDescription("Rebuild the investigation report for a previously recorded run"),
			mcp.WithString("run", mcp.Required(),
				mcp.Description("Run name, as printed by the investigate command"),
			),
		),
		s.handleGetReport,
	)

	return nil
}

// handleInvestigate validates the key, runs the walk through the configured
// callback and returns the rendered report as text.
func (s *Server) handleInvestigate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	if args == nil {
		return mcp.NewToolResultError("no arguments provided"), nil
	}

	rawKey, ok := args["key"].(string)
	if !ok {
		return mcp.NewToolResultError("key parameter must be a string"), nil
	}
	key, err := ticket.NormalizeKey(rawKey)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	maxDepth := walker.DefaultMaxDepth
	// mcp-go decodes JSON numbers as float64
	if raw, ok := args["max-depth"].(float64); ok {
		maxDepth = int(raw)
	}

	report, err := s.cfg.Investigate(ctx, key, maxDepth)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("investigation failed: %v", err)), nil
	}
	return mcp.NewToolResultText(report), nil
}

// handleGetReport rebuilds a report for a stored run.
func (s *Server) handleGetReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	if args == nil {
		return mcp.NewToolResultError("no arguments provided"), nil
	}

	run, ok := args["run"].(string)
	if !ok || run == "" {
		return mcp.NewToolResultError("run parameter must be a non-empty string"), nil
	}

	report, err := s.cfg.Report(ctx, run)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load report: %v", err)), nil
	}
	return mcp.NewToolResultText(report), nil
}
