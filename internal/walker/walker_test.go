package walker

import (
	"context"
	"fmt"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/mark3labs/ticketscout/internal/extract"
	"github.com/mark3labs/ticketscout/internal/ticket"
)

// mapFetcher serves fixed content by key and counts fetches.
func mapFetcher(contents map[string]string, calls *int64) ticket.FetcherFunc {
	return func(ctx context.Context, key string) (string, error) {
		atomic.AddInt64(calls, 1)
		content, ok := contents[key]
		if !ok {
			return "", fmt.Errorf("no such ticket: %s", key)
		}
		return content, nil
	}
}

func visitedKeys(res *Result) []string {
	keys := make([]string, len(res.Visits))
	for i, v := range res.Visits {
		keys[i] = v.Key
	}
	return keys
}

func noticeKinds(res *Result) map[string]int {
	kinds := make(map[string]int)
	for _, n := range res.Notices {
		kinds[n.Kind]++
	}
	return kinds
}

func TestCycleTerminates(t *testing.T) {
	var calls int64
	contents := map[string]string{
		"AAA-1": "first ticket, see AAA-2",
		"AAA-2": "second ticket, see AAA-1",
	}

	w, err := New(Config{Fetcher: mapFetcher(contents, &calls)})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res, err := w.Investigate(context.Background(), "AAA-1")
	if err != nil {
		t.Fatalf("Investigate failed: %v", err)
	}

	if calls != 2 {
		t.Errorf("expected exactly 2 fetches for a 2-ticket cycle, got %d", calls)
	}
	want := []string{"AAA-1", "AAA-2"}
	if !reflect.DeepEqual(visitedKeys(res), want) {
		t.Errorf("visited = %v, want %v", visitedKeys(res), want)
	}
	if noticeKinds(res)[ticket.NoticeAlreadyProcessed] == 0 {
		t.Error("expected an already-processed notice for the cycle back-edge")
	}
}

func TestSelfReferenceSkipped(t *testing.T) {
	var calls int64
	contents := map[string]string{
		"AAA-1": "this ticket mentions itself: AAA-1",
	}

	w, _ := New(Config{Fetcher: mapFetcher(contents, &calls)})
	res, err := w.Investigate(context.Background(), "AAA-1")
	if err != nil {
		t.Fatalf("Investigate failed: %v", err)
	}

	if calls != 1 {
		t.Errorf("expected 1 fetch, got %d", calls)
	}
	if len(res.Visits) != 1 {
		t.Errorf("expected 1 visit, got %d", len(res.Visits))
	}
}

func TestDepthBound(t *testing.T) {
	var calls int64
	contents := map[string]string{
		"AAA-1": "see AAA-2",
		"AAA-2": "see AAA-3",
		"AAA-3": "see AAA-4",
		"AAA-4": "see AAA-5",
		"AAA-5": "bottom of the chain",
	}

	w, _ := New(Config{Fetcher: mapFetcher(contents, &calls), MaxDepth: 3})
	res, err := w.Investigate(context.Background(), "AAA-1")
	if err != nil {
		t.Fatalf("Investigate failed: %v", err)
	}

	// Depths 0-3 are expanded; AAA-5 at depth 4 is reference-only.
	want := []string{"AAA-1", "AAA-2", "AAA-3", "AAA-4"}
	if !reflect.DeepEqual(visitedKeys(res), want) {
		t.Errorf("visited = %v, want %v", visitedKeys(res), want)
	}
	if calls != 4 {
		t.Errorf("expected 4 fetches, got %d", calls)
	}

	last := res.Visits[len(res.Visits)-1]
	if !reflect.DeepEqual(last.Refs[extract.CategoryTicket], []string{"AAA-5"}) {
		t.Errorf("AAA-5 should remain as a reference on AAA-4, got %v", last.Refs[extract.CategoryTicket])
	}
	if noticeKinds(res)[ticket.NoticeDepthLimit] != 1 {
		t.Errorf("expected one depth-limit notice, got %d", noticeKinds(res)[ticket.NoticeDepthLimit])
	}
}

func TestGracefulFetchFailure(t *testing.T) {
	failing := ticket.FetcherFunc(func(ctx context.Context, key string) (string, error) {
		return "", fmt.Errorf("tracker unavailable")
	})

	w, _ := New(Config{Fetcher: failing})
	res, err := w.Investigate(context.Background(), "AAA-1")
	if err != nil {
		t.Fatalf("Investigate should not fail on fetch errors: %v", err)
	}

	if len(res.Visits) != 1 {
		t.Fatalf("expected 1 visit, got %d", len(res.Visits))
	}
	v := res.Visits[0]
	if v.FetchErr == "" {
		t.Error("expected fetch error to be recorded on the visit")
	}
	for _, c := range extract.Categories() {
		if len(v.Refs[c]) != 0 {
			t.Errorf("category %s should be empty after failed fetch", c)
		}
	}
	if noticeKinds(res)[ticket.NoticeFetchFailed] != 1 {
		t.Error("expected a fetch-failed notice")
	}
}

func TestDeterministicOrdering(t *testing.T) {
	contents := map[string]string{
		// References deliberately out of lexical order in the text.
		"AAA-1": "see ZZZ-5 then BBB-2 then CCC-3 https://github.com/example/repo",
		"BBB-2": "see https://confluence.example.com/x",
		"CCC-3": "nothing here",
		"ZZZ-5": "see BBB-2 again",
	}

	run := func() *Result {
		var calls int64
		w, _ := New(Config{Fetcher: mapFetcher(contents, &calls)})
		res, err := w.Investigate(context.Background(), "AAA-1")
		if err != nil {
			t.Fatalf("Investigate failed: %v", err)
		}
		return res
	}

	first := run()
	second := run()

	if !reflect.DeepEqual(first, second) {
		t.Error("two runs over identical inputs should produce identical results")
	}

	// Recursion follows sorted ticket references, not text order.
	want := []string{"AAA-1", "BBB-2", "CCC-3", "ZZZ-5"}
	if !reflect.DeepEqual(visitedKeys(first), want) {
		t.Errorf("visited = %v, want %v", visitedKeys(first), want)
	}
}

func TestInvalidRoot(t *testing.T) {
	w, _ := New(Config{Fetcher: ticket.FetcherFunc(func(ctx context.Context, key string) (string, error) {
		return "unused", nil
	})})

	if _, err := w.Investigate(context.Background(), ""); err == nil {
		t.Error("expected error for empty root")
	}
	if _, err := w.Investigate(context.Background(), "not a key"); err == nil {
		t.Error("expected error for malformed root")
	}
}

type captureRecorder struct {
	visits  []ticket.Visit
	notices []ticket.Notice
}

func (r *captureRecorder) RecordVisit(ctx context.Context, run string, v ticket.Visit) error {
	r.visits = append(r.visits, v)
	return nil
}

func (r *captureRecorder) RecordNotice(ctx context.Context, run string, n ticket.Notice) error {
	r.notices = append(r.notices, n)
	return nil
}

func TestRecorderReceivesEvents(t *testing.T) {
	var calls int64
	contents := map[string]string{
		"AAA-1": "see AAA-2",
		"AAA-2": "done",
	}

	rec := &captureRecorder{}
	w, _ := New(Config{Run: "aaa-1", Fetcher: mapFetcher(contents, &calls), Recorder: rec})
	res, err := w.Investigate(context.Background(), "AAA-1")
	if err != nil {
		t.Fatalf("Investigate failed: %v", err)
	}

	if len(rec.visits) != len(res.Visits) {
		t.Errorf("recorder saw %d visits, result has %d", len(rec.visits), len(res.Visits))
	}
	if len(rec.notices) != len(res.Notices) {
		t.Errorf("recorder saw %d notices, result has %d", len(rec.notices), len(res.Notices))
	}
}
