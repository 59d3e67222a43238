package store

import (
	"context"
	"testing"

	"github.com/mark3labs/ticketscout/internal/extract"
	"github.com/mark3labs/ticketscout/internal/ticket"
)

func openTestServer(t *testing.T) *Server {
	t.Helper()

	srv, err := Open(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store server: %v", err)
	}
	t.Cleanup(func() {
		if err := srv.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return srv
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	srv := openTestServer(t)
	store := srv.Store()
	run := "proj-100"

	if err := store.RunStart(ctx, run, "PROJ-100", 3); err != nil {
		t.Fatalf("RunStart failed: %v", err)
	}

	visit := ticket.Visit{
		Key:   "PROJ-100",
		Depth: 0,
		Refs: map[extract.Category][]string{
			extract.CategoryURL:    {"https://example.com"},
			extract.CategoryTicket: {"PROJ-101"},
		},
		Comments: "looks fixed",
	}
	if err := store.RecordVisit(ctx, run, visit); err != nil {
		t.Fatalf("RecordVisit failed: %v", err)
	}

	notice := ticket.Notice{Key: "PROJ-101", Kind: ticket.NoticeDepthLimit, Message: "depth limit reached"}
	if err := store.RecordNotice(ctx, run, notice); err != nil {
		t.Fatalf("RecordNotice failed: %v", err)
	}

	if err := store.RunComplete(ctx, run); err != nil {
		t.Fatalf("RunComplete failed: %v", err)
	}

	state, err := store.LoadState(ctx, run)
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}

	if state.Root != "PROJ-100" {
		t.Errorf("expected root PROJ-100, got %q", state.Root)
	}
	if state.MaxDepth != 3 {
		t.Errorf("expected max depth 3, got %d", state.MaxDepth)
	}
	if !state.Complete {
		t.Error("expected run to be complete")
	}
	if len(state.Visits) != 1 {
		t.Fatalf("expected 1 visit, got %d", len(state.Visits))
	}
	got := state.Visits[0]
	if got.Key != "PROJ-100" || got.Comments != "looks fixed" {
		t.Errorf("visit round trip mismatch: %+v", got)
	}
	if len(got.Refs[extract.CategoryTicket]) != 1 || got.Refs[extract.CategoryTicket][0] != "PROJ-101" {
		t.Errorf("visit refs round trip mismatch: %+v", got.Refs)
	}
	if len(state.Notices) != 1 || state.Notices[0].Kind != ticket.NoticeDepthLimit {
		t.Errorf("notice round trip mismatch: %+v", state.Notices)
	}
}

func TestRunStartResetsEarlierRun(t *testing.T) {
	ctx := context.Background()
	srv := openTestServer(t)
	store := srv.Store()
	run := "proj-7"

	if err := store.RunStart(ctx, run, "PROJ-7", 3); err != nil {
		t.Fatalf("RunStart failed: %v", err)
	}
	if err := store.RecordVisit(ctx, run, ticket.Visit{Key: "PROJ-7"}); err != nil {
		t.Fatalf("RecordVisit failed: %v", err)
	}
	if err := store.RecordVisit(ctx, run, ticket.Visit{Key: "PROJ-8", Depth: 1}); err != nil {
		t.Fatalf("RecordVisit failed: %v", err)
	}

	// Second run under the same name supersedes the first.
	if err := store.RunStart(ctx, run, "PROJ-7", 2); err != nil {
		t.Fatalf("RunStart failed: %v", err)
	}
	if err := store.RecordVisit(ctx, run, ticket.Visit{Key: "PROJ-7"}); err != nil {
		t.Fatalf("RecordVisit failed: %v", err)
	}

	state, err := store.LoadState(ctx, run)
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}

	if len(state.Visits) != 1 {
		t.Errorf("expected restart to reset visits, got %d", len(state.Visits))
	}
	if state.MaxDepth != 2 {
		t.Errorf("expected max depth from latest start, got %d", state.MaxDepth)
	}
	if state.Complete {
		t.Error("restarted run should not be complete")
	}
}

func TestListRuns(t *testing.T) {
	ctx := context.Background()
	srv := openTestServer(t)
	store := srv.Store()

	if err := store.RunStart(ctx, "proj-1", "PROJ-1", 3); err != nil {
		t.Fatalf("RunStart failed: %v", err)
	}
	if err := store.RunComplete(ctx, "proj-1"); err != nil {
		t.Fatalf("RunComplete failed: %v", err)
	}
	if err := store.RunStart(ctx, "proj-2", "PROJ-2", 3); err != nil {
		t.Fatalf("RunStart failed: %v", err)
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Run != "proj-1" || !runs[0].Complete {
		t.Errorf("first run mismatch: %+v", runs[0])
	}
	if runs[1].Run != "proj-2" || runs[1].Complete {
		t.Errorf("second run mismatch: %+v", runs[1])
	}
	if runs[0].Root != "PROJ-1" {
		t.Errorf("expected root PROJ-1, got %q", runs[0].Root)
	}
}

func TestLoadStateUnknownRun(t *testing.T) {
	ctx := context.Background()
	srv := openTestServer(t)
	store := srv.Store()

	state, err := store.LoadState(ctx, "never-started")
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if len(state.Visits) != 0 || state.Root != "" {
		t.Errorf("expected empty state for unknown run, got %+v", state)
	}
}
