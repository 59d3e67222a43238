// Package walker implements the depth-first reference-graph traversal:
// fetch a ticket, extract categorized references, recurse into newly
// discovered ticket keys up to a bounded depth.
package walker

import (
	"context"
	"fmt"

	"github.com/mark3labs/ticketscout/internal/extract"
	"github.com/mark3labs/ticketscout/internal/logger"
	"github.com/mark3labs/ticketscout/internal/ticket"
)

// DefaultMaxDepth bounds recursion when no explicit depth is configured.
const DefaultMaxDepth = 3

// Recorder receives visit and notice events as the traversal produces
// them. Implemented by store.Store; nil disables recording.
type Recorder interface {
	RecordVisit(ctx context.Context, run string, v ticket.Visit) error
	RecordNotice(ctx context.Context, run string, n ticket.Notice) error
}

// Config holds configuration for a Walker.
type Config struct {
	Run       string          // Run name used for recorded events
	Fetcher   ticket.Fetcher  // Ticket content collaborator (required)
	MaxDepth  int             // Maximum recursion depth (0 = DefaultMaxDepth)
	Artifacts *ArtifactWriter // Per-ticket artifact output (optional)
	Recorder  Recorder        // Event recorder (optional)
}

// Walker performs one investigation traversal. A Walker is single-use:
// the visited set belongs to one Investigate call and is reset on entry.
// All work is synchronous and single-threaded; the only blocking
// operation is the fetch.
type Walker struct {
	cfg     Config
	visited map[string]bool
	visits  []ticket.Visit
	notices []ticket.Notice
}

// Result is the outcome of one traversal, in deterministic visit order.
type Result struct {
	Run     string
	Root    string
	Visits  []ticket.Visit
	Notices []ticket.Notice
}

// New creates a Walker. Fetcher is required.
func New(cfg Config) (*Walker, error) {
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	return &Walker{cfg: cfg}, nil
}

// Investigate traverses the reference graph reachable from root. Every
// ticket within MaxDepth hops is fetched and expanded exactly once; a
// single unreachable ticket degrades that branch instead of failing the
// run. The only error condition is a missing or malformed root key.
func (w *Walker) Investigate(ctx context.Context, root string) (*Result, error) {
	key, err := ticket.NormalizeKey(root)
	if err != nil {
		return nil, err
	}

	w.visited = make(map[string]bool)
	w.visits = nil
	w.notices = nil

	logger.Info("Investigating %s (max depth %d)", key, w.cfg.MaxDepth)
	w.visit(ctx, key, 0)
	logger.Info("Traversal finished: %d tickets processed", len(w.visits))

	return &Result{
		Run:     w.cfg.Run,
		Root:    key,
		Visits:  w.visits,
		Notices: w.notices,
	}, nil
}

// visit is the recursive step. It fetches and extracts one ticket, marks
// it processed, then recurses into its ticket references in lexical
// order. Depth-limited and already-processed branches end with a notice.
func (w *Walker) visit(ctx context.Context, key string, depth int) {
	if depth > w.cfg.MaxDepth {
		w.notice(ctx, key, ticket.NoticeDepthLimit,
			fmt.Sprintf("depth limit %d reached, %s recorded as reference only", w.cfg.MaxDepth, key))
		return
	}

	if w.visited[key] {
		w.notice(ctx, key, ticket.NoticeAlreadyProcessed,
			fmt.Sprintf("%s already processed, skipping", key))
		return
	}

	content, err := w.cfg.Fetcher.Fetch(ctx, key)
	fetchErr := ""
	if err != nil {
		// A broken ticket must not sink the rest of the traversal.
		fetchErr = err.Error()
		content = ""
		logger.Warn("Fetch failed for %s at depth %d: %v", key, depth, err)
		w.notice(ctx, key, ticket.NoticeFetchFailed,
			fmt.Sprintf("fetch failed for %s, continuing with empty content", key))
	}

	refs := extract.References(content)
	comments := extract.Comments(content)

	// Mark processed before recursing so reference cycles terminate.
	// A failed fetch still counts as visited; retrying a permanently
	// broken key within one run buys nothing.
	w.visited[key] = true

	v := ticket.Visit{
		Key:      key,
		Depth:    depth,
		FetchErr: fetchErr,
		Content:  content,
		Refs:     refs,
		Comments: comments,
	}
	w.visits = append(w.visits, v)

	for _, c := range extract.Categories() {
		if len(refs[c]) == 0 {
			w.notice(ctx, key, ticket.NoticeNoneFound,
				fmt.Sprintf("no %s found in %s", c, key))
		}
	}

	if w.cfg.Artifacts != nil {
		if err := w.cfg.Artifacts.WriteVisit(v); err != nil {
			logger.Warn("Failed to write artifacts for %s: %v", key, err)
		}
	}
	if w.cfg.Recorder != nil {
		if err := w.cfg.Recorder.RecordVisit(ctx, w.cfg.Run, v); err != nil {
			logger.Warn("Failed to record visit for %s: %v", key, err)
		}
	}

	// Ticket references are already sorted and deduplicated, which
	// makes the recursion order, and therefore the report, reproducible.
	for _, ref := range refs[extract.CategoryTicket] {
		if ref == key {
			continue
		}
		w.visit(ctx, ref, depth+1)
	}
}

func (w *Walker) notice(ctx context.Context, key, kind, message string) {
	n := ticket.Notice{Key: key, Kind: kind, Message: message}
	w.notices = append(w.notices, n)
	logger.Debug("Notice [%s] %s", kind, message)

	if w.cfg.Recorder != nil {
		if err := w.cfg.Recorder.RecordNotice(ctx, w.cfg.Run, n); err != nil {
			logger.Warn("Failed to record notice for %s: %v", key, err)
		}
	}
}
