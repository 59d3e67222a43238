package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/ticketscout/internal/orchestrator"
	"github.com/mark3labs/ticketscout/internal/scoutmcp"
	"github.com/spf13/cobra"
)

var mcpFlags struct {
	dataDir    string
	outputDir  string
	trackerCmd string
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve investigations over MCP",
	Long: `Start an MCP server exposing investigate-ticket and get-report tools.

The server listens on a random local port and runs until interrupted. Agents
and editors can point their MCP client at the printed URL.`,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpFlags.dataDir, "data-dir", "", "Data directory for event storage")
	mcpCmd.Flags().StringVar(&mcpFlags.outputDir, "output-dir", "", "Directory for artifacts and reports")
	mcpCmd.Flags().StringVar(&mcpFlags.trackerCmd, "tracker-cmd", "", "Tracker CLI command template ({{key}} is replaced)")
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	orch := orchestrator.New(orchestrator.Config{
		MaxDepth:     cfg.MaxDepth,
		DataDir:      cfg.DataDir,
		OutputDir:    cfg.OutputDir,
		TrackerCmd:   cfg.TrackerCmd,
		InsightLimit: cfg.InsightLimit,
	})
	if err := orch.Start(cmd.Context()); err != nil {
		return err
	}
	defer func() {
		if err := orch.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
		}
	}()

	srv := scoutmcp.New(scoutmcp.Config{
		Investigate: func(ctx context.Context, key string, maxDepth int) (string, error) {
			res, err := orch.InvestigateDepth(ctx, key, maxDepth)
			if err != nil {
				return "", err
			}
			return res.Report.Markdown(), nil
		},
		Report: func(ctx context.Context, run string) (string, error) {
			rep, err := orch.Report(ctx, run)
			if err != nil {
				return "", err
			}
			return rep.Markdown(), nil
		},
	})

	port, err := srv.Start(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = srv.Stop() }()

	fmt.Printf("MCP server listening on %s (port %d)\n", srv.URL(), port)
	fmt.Println("Press Ctrl+C to stop.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
		fmt.Println("\nShutting down gracefully...")
	case <-cmd.Context().Done():
	}
	return nil
}
