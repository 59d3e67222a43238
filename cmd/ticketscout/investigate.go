package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/mark3labs/ticketscout/internal/config"
	"github.com/mark3labs/ticketscout/internal/logger"
	"github.com/mark3labs/ticketscout/internal/orchestrator"
	"github.com/mark3labs/ticketscout/internal/report"
	"github.com/spf13/cobra"
)

var investigateFlags struct {
	run        string
	maxDepth   int
	dataDir    string
	outputDir  string
	trackerCmd string
	noRender   bool
}

var investigateCmd = &cobra.Command{
	Use:   "investigate KEY",
	Short: "Walk the reference graph starting at a ticket",
	Long: `Walk the reference graph starting at the given ticket key.

The ticket text is fetched through the configured tracker CLI command, its
references are extracted and categorized, and every related ticket key is
investigated recursively up to --max-depth. Fetch failures and depth-limited
tickets are reported as notices instead of aborting the walk.`,
	Args: cobra.ExactArgs(1),
	RunE: runInvestigate,
}

func init() {
	investigateCmd.Flags().StringVarP(&investigateFlags.run, "run", "r", "", "Run name (default: slug of the root key)")
	investigateCmd.Flags().IntVarP(&investigateFlags.maxDepth, "max-depth", "d", 0, "Maximum recursion depth (default: 3)")
	investigateCmd.Flags().StringVar(&investigateFlags.dataDir, "data-dir", "", "Data directory for event storage")
	investigateCmd.Flags().StringVar(&investigateFlags.outputDir, "output-dir", "", "Directory for artifacts and the report")
	investigateCmd.Flags().StringVar(&investigateFlags.trackerCmd, "tracker-cmd", "", "Tracker CLI command template ({{key}} is replaced)")
	investigateCmd.Flags().BoolVar(&investigateFlags.noRender, "no-render", false, "Print the report as plain markdown")
}

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
)

func runInvestigate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	orch := orchestrator.New(orchestrator.Config{
		Run:          investigateFlags.run,
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

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down gracefully...")
		if err := orch.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
		}
		os.Exit(0)
	}()

	res, err := orch.Investigate(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	markdown := res.Report.Markdown()
	if investigateFlags.noRender || !cfg.Render {
		fmt.Println(markdown)
	} else {
		fmt.Println(report.RenderTerminal(markdown, 100))
	}

	printSummary(res)
	return nil
}

// printSummary prints the run summary and any notices below the report.
func printSummary(res *orchestrator.Result) {
	fmt.Println(headingStyle.Render(fmt.Sprintf("Run '%s' complete", res.Run)))
	fmt.Printf("  Tickets processed: %d\n", len(res.Report.Processed))
	fmt.Printf("  Unique URLs: %d, code host links: %d, change requests: %d\n",
		res.Report.TotalURLs, res.Report.TotalCodeHost, res.Report.TotalChangeRequests)
	fmt.Printf("  Report: %s\n", faintStyle.Render(res.ReportPath))

	if len(res.Notices) > 0 {
		fmt.Println(headingStyle.Render("Notices"))
		for _, n := range res.Notices {
			fmt.Println("  " + noticeStyle.Render(fmt.Sprintf("[%s] %s: %s", n.Kind, n.Key, n.Message)))
		}
	}
}

// loadConfig merges the layered configuration with command line flags and
// configures the logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Flag overrides win over config files and environment.
	if cmd.Flags().Changed("max-depth") {
		cfg.MaxDepth, _ = cmd.Flags().GetInt("max-depth")
	}
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir, _ = cmd.Flags().GetString("data-dir")
	}
	if cmd.Flags().Changed("output-dir") {
		cfg.OutputDir, _ = cmd.Flags().GetString("output-dir")
	}
	if cmd.Flags().Changed("tracker-cmd") {
		cfg.TrackerCmd, _ = cmd.Flags().GetString("tracker-cmd")
	}

	if err := logger.Configure(cfg.LogLevel, cfg.LogFile); err != nil {
		return nil, fmt.Errorf("failed to configure logging: %w", err)
	}
	return cfg, nil
}
