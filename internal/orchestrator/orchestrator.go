package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/gosimple/slug"
	"github.com/mark3labs/ticketscout/internal/config"
	"github.com/mark3labs/ticketscout/internal/logger"
	"github.com/mark3labs/ticketscout/internal/report"
	"github.com/mark3labs/ticketscout/internal/store"
	"github.com/mark3labs/ticketscout/internal/ticket"
	"github.com/mark3labs/ticketscout/internal/walker"
)

// Config holds configuration for the orchestrator.
type Config struct {
	Run          string // Run name (defaults to a slug of the root key)
	MaxDepth     int    // Maximum recursion depth
	DataDir      string // Data directory for event storage
	OutputDir    string // Directory for per-ticket artifacts and the report
	TrackerCmd   string // Tracker CLI command template with a {{key}} placeholder
	InsightLimit int    // Maximum comment insights in the report
}

// Result describes a completed investigation.
type Result struct {
	Run        string
	Report     *report.Report
	ReportPath string
	Notices    []ticket.Notice
}

// Orchestrator wires the event store, the graph walker and the report
// builder behind a single lifecycle.
type Orchestrator struct {
	cfg     Config
	server  *store.Server
	store   *store.Store
	stopped bool
}

// New creates a new Orchestrator with the given configuration.
func New(cfg Config) *Orchestrator {
	if cfg.DataDir == "" {
		cfg.DataDir = config.Default().DataDir
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = config.Default().OutputDir
	}
	if cfg.TrackerCmd == "" {
		cfg.TrackerCmd = config.DefaultTrackerCmd
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = walker.DefaultMaxDepth
	}
	return &Orchestrator{cfg: cfg}
}

// Start boots the embedded event store.
func (o *Orchestrator) Start(ctx context.Context) error {
	logger.Info("Starting orchestrator (data dir %s)", o.cfg.DataDir)

	server, err := store.Open(ctx, filepath.Join(o.cfg.DataDir, "nats"))
	if err != nil {
		logger.Error("Failed to open event store: %v", err)
		return fmt.Errorf("failed to open event store: %w", err)
	}
	o.server = server
	o.store = server.Store()
	return nil
}

// Investigate walks the reference graph from root and returns the
// aggregated report. Artifacts are written under a per-run directory and
// every visit and notice is recorded in the event log.
func (o *Orchestrator) Investigate(ctx context.Context, root string) (*Result, error) {
	return o.InvestigateDepth(ctx, root, o.cfg.MaxDepth)
}

// InvestigateDepth is Investigate with a per-call depth limit. A non-positive
// maxDepth falls back to the configured one.
func (o *Orchestrator) InvestigateDepth(ctx context.Context, root string, maxDepth int) (*Result, error) {
	if o.store == nil {
		return nil, fmt.Errorf("orchestrator not started")
	}
	if maxDepth <= 0 {
		maxDepth = o.cfg.MaxDepth
	}

	key, err := ticket.NormalizeKey(root)
	if err != nil {
		return nil, err
	}

	run := o.cfg.Run
	if run == "" {
		run = slug.Make(key)
	}

	logger.Info("Starting run '%s' for %s (max depth %d)", run, key, maxDepth)
	if err := o.store.RunStart(ctx, run, key, maxDepth); err != nil {
		return nil, fmt.Errorf("failed to record run start: %w", err)
	}

	artifacts, err := walker.NewArtifactWriter(filepath.Join(o.cfg.OutputDir, run))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare artifact directory: %w", err)
	}

	w, err := walker.New(walker.Config{
		Run:       run,
		Fetcher:   ticket.NewCLIFetcher(o.cfg.TrackerCmd),
		MaxDepth:  maxDepth,
		Artifacts: artifacts,
		Recorder:  o.store,
	})
	if err != nil {
		return nil, err
	}

	res, err := w.Investigate(ctx, key)
	if err != nil {
		return nil, err
	}

	rep := report.Aggregate(key, res.Visits, o.cfg.InsightLimit)
	path, err := artifacts.WriteReport(rep.Markdown())
	if err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	if err := o.store.RunComplete(ctx, run); err != nil {
		logger.Warn("Failed to record run completion: %v", err)
	}

	logger.Info("Run '%s' complete: %d tickets, %d notices", run, len(res.Visits), len(res.Notices))
	return &Result{
		Run:        run,
		Report:     rep,
		ReportPath: path,
		Notices:    res.Notices,
	}, nil
}

// Report rebuilds the aggregated report for a previously recorded run by
// replaying its events from the store.
func (o *Orchestrator) Report(ctx context.Context, run string) (*report.Report, error) {
	if o.store == nil {
		return nil, fmt.Errorf("orchestrator not started")
	}

	state, err := o.store.LoadState(ctx, run)
	if err != nil {
		return nil, fmt.Errorf("failed to load run state: %w", err)
	}
	if state.Root == "" {
		return nil, fmt.Errorf("no recorded run named '%s'", run)
	}

	return report.Aggregate(state.Root, state.Visits, o.cfg.InsightLimit), nil
}

// Runs lists every recorded run in the event log.
func (o *Orchestrator) Runs(ctx context.Context) ([]store.RunInfo, error) {
	if o.store == nil {
		return nil, fmt.Errorf("orchestrator not started")
	}
	return o.store.ListRuns(ctx)
}

// Stop shuts down the event store. Multiple calls are safe.
func (o *Orchestrator) Stop() error {
	if o.stopped {
		return nil
	}
	o.stopped = true

	if o.server == nil {
		return nil
	}
	logger.Info("Stopping orchestrator")
	if err := o.server.Close(); err != nil {
		logger.Error("Event store shutdown failed: %v", err)
		return fmt.Errorf("event store shutdown failed: %w", err)
	}
	o.server = nil
	o.store = nil
	return nil
}
