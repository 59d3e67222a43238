package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/mark3labs/ticketscout/internal/logger"
	"github.com/spf13/cobra"
)

// Version set via ldflags during build
var version = "dev"

func main() {
	// Ensure logger is closed on exit
	defer func() { _ = logger.Close() }()

	if err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(version)); err != nil {
		logger.Error("Command execution failed: %v", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ticketscout",
	Short: "Ticket reference graph walker with persistent investigation reports",
}

func init() {
	rootCmd.Long = `ticketscout walks the reference graph of a tracker ticket: it fetches the
ticket text through your tracker CLI, extracts URLs, code-host links,
documentation pages, change requests and related ticket keys, then recurses
into the related tickets up to a depth limit.

Every run is recorded as an event log in embedded NATS JetStream, per-ticket
artifacts are written to disk, and the final investigation report is rendered
to the terminal.`

	rootCmd.AddCommand(investigateCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(setupCmd)
}
