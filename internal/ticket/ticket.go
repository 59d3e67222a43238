// Package ticket holds the domain model for ticket investigation: ticket
// keys, per-ticket visit records, and traversal notices.
package ticket

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mark3labs/ticketscout/internal/extract"
)

// keyPattern matches project-key-plus-number ticket keys like PROJ-1234.
var keyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]+-[0-9]+$`)

// ValidKey reports whether s is a well-formed ticket key.
func ValidKey(s string) bool {
	return keyPattern.MatchString(s)
}

// NormalizeKey trims and uppercases a user-supplied key and validates
// its shape.
func NormalizeKey(s string) (string, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	if key == "" {
		return "", fmt.Errorf("ticket key is required")
	}
	if !ValidKey(key) {
		return "", fmt.Errorf("invalid ticket key: %s (expected PROJECT-123 shape)", s)
	}
	return key, nil
}

// Visit records one fetch-and-extract pass over a single ticket. A
// ticket is visited at most once per investigation; the record is never
// updated afterwards.
type Visit struct {
	Key      string                        `json:"key"`
	Depth    int                           `json:"depth"`
	FetchErr string                        `json:"fetch_err,omitempty"` // non-empty if the fetch failed
	Content  string                        `json:"content,omitempty"`
	Refs     map[extract.Category][]string `json:"refs"`
	Comments string                        `json:"comments,omitempty"`
}

// Notice kinds emitted during traversal. None of these are errors; they
// surface expected truncation and deduplication in the final report.
const (
	NoticeDepthLimit       = "depth_limit"
	NoticeAlreadyProcessed = "already_processed"
	NoticeFetchFailed      = "fetch_failed"
	NoticeNoneFound        = "none_found"
)

// Notice is an informational traversal event tied to a ticket key.
type Notice struct {
	Key     string `json:"key"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
