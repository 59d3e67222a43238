package main

import (
	"fmt"

	"github.com/mark3labs/ticketscout/internal/orchestrator"
	"github.com/mark3labs/ticketscout/internal/report"
	"github.com/spf13/cobra"
)

var reportFlags struct {
	dataDir  string
	noRender bool
}

var reportCmd = &cobra.Command{
	Use:   "report RUN",
	Short: "Rebuild the investigation report for a recorded run",
	Long: `Rebuild the investigation report for a previously recorded run.

The report is reconstructed by replaying the run's visit events from the
event log, so it matches the report printed when the run finished. Without
an argument, lists the recorded runs instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportFlags.dataDir, "data-dir", "", "Data directory for event storage")
	reportCmd.Flags().BoolVar(&reportFlags.noRender, "no-render", false, "Print the report as plain markdown")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	orch := orchestrator.New(orchestrator.Config{
		DataDir:      cfg.DataDir,
		InsightLimit: cfg.InsightLimit,
	})
	if err := orch.Start(cmd.Context()); err != nil {
		return err
	}
	defer func() { _ = orch.Stop() }()

	if len(args) == 0 {
		return listRuns(cmd, orch)
	}

	rep, err := orch.Report(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	markdown := rep.Markdown()
	if reportFlags.noRender || !cfg.Render {
		fmt.Println(markdown)
		return nil
	}
	fmt.Println(report.RenderTerminal(markdown, 100))
	return nil
}

func listRuns(cmd *cobra.Command, orch *orchestrator.Orchestrator) error {
	runs, err := orch.Runs(cmd.Context())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}

	for _, r := range runs {
		status := "incomplete"
		if r.Complete {
			status = "complete"
		}
		fmt.Printf("%s\troot %s\tstarted %s\t%s\n",
			r.Run, r.Root, r.Started.Format("2006-01-02 15:04"), status)
	}
	return nil
}
