// Package extract pulls categorized references out of free-text ticket
// content. All matching is a single pass of fixed compiled patterns; the
// result maps each category to an ordered, deduplicated match list.
package extract

import (
	"regexp"
	"sort"
	"strings"
)

// Category identifies one kind of extracted reference.
type Category string

const (
	CategoryURL           Category = "urls"
	CategoryCodeHost      Category = "code_host"
	CategoryDocs          Category = "docs"
	CategoryTicket        Category = "tickets"
	CategoryChangeRequest Category = "change_requests"
)

// Categories returns all reference categories in their fixed order.
// Downstream artifact writers and the report iterate this so every
// category always produces output, even when empty.
func Categories() []Category {
	return []Category{
		CategoryURL,
		CategoryCodeHost,
		CategoryDocs,
		CategoryTicket,
		CategoryChangeRequest,
	}
}

// CommentsMarker is the literal section heading that starts the
// discussion portion of fetched ticket text.
const CommentsMarker = "## Comments"

var (
	urlPattern = regexp.MustCompile(`https?://[^\s<>"'\)\]]+`)

	// Project-key-plus-number ticket references, e.g. PROJ-1234.
	ticketPattern = regexp.MustCompile(`\b[A-Z][A-Z0-9]+-[0-9]+\b`)

	// Change-request citation shapes used by the tracker: CHG/CRQ records
	// and CR-n style references.
	changeRequestPattern = regexp.MustCompile(`\b(?:CHG[0-9]{4,}|CRQ[0-9]{4,}|CR-[0-9]+)\b`)
)

var codeHostDomains = []string{
	"github.com",
	"gitlab.",
	"bitbucket.",
}

var docsDomains = []string{
	"confluence",
	"readthedocs",
	"docs.google.com",
	"//docs.",
}

var wikiDomains = []string{
	"wiki",
	"notion.so",
	"sharepoint",
}

// Result maps each category to its ordered, deduplicated matches.
// Every category from Categories() is present; empty categories map to
// an empty (non-nil) slice.
type Result map[Category][]string

// References extracts all categorized references from content.
// URLs keep first-occurrence order; ticket references are sorted
// lexically so traversal order is deterministic.
func References(content string) Result {
	res := Result{}
	for _, c := range Categories() {
		res[c] = []string{}
	}
	if content == "" {
		return res
	}

	urls := dedupOrdered(urlPattern.FindAllString(content, -1))
	res[CategoryURL] = urls
	res[CategoryCodeHost] = filter(urls, isCodeHost)
	res[CategoryDocs] = filter(urls, isDocs)
	res[CategoryTicket] = dedupSorted(ticketPattern.FindAllString(content, -1))
	res[CategoryChangeRequest] = dedupOrdered(changeRequestPattern.FindAllString(content, -1))

	return res
}

// Comments returns the discussion portion of content: everything after
// the first occurrence of CommentsMarker. Returns "" when the marker is
// absent.
func Comments(content string) string {
	idx := strings.Index(content, CommentsMarker)
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(content[idx+len(CommentsMarker):])
}

// Bucket is a presentation-level grouping for aggregated URLs.
type Bucket string

const (
	BucketDocs     Bucket = "Documentation"
	BucketCodeHost Bucket = "Code Hosting"
	BucketWiki     Bucket = "Wiki & Collaboration"
	BucketOther    Bucket = "Other"
)

// Buckets returns the URL buckets in their fixed report order.
func Buckets() []Bucket {
	return []Bucket{BucketDocs, BucketCodeHost, BucketWiki, BucketOther}
}

// BucketURL assigns a URL to exactly one bucket. Classification is
// first-match-wins against the fixed bucket order, so a documentation
// URL hosted on a wiki subdomain lands in the documentation bucket.
func BucketURL(url string) Bucket {
	switch {
	case isDocs(url):
		return BucketDocs
	case isCodeHost(url):
		return BucketCodeHost
	case isWiki(url):
		return BucketWiki
	default:
		return BucketOther
	}
}

func isCodeHost(url string) bool {
	return containsAny(url, codeHostDomains)
}

func isDocs(url string) bool {
	return containsAny(url, docsDomains)
}

func isWiki(url string) bool {
	return containsAny(url, wikiDomains)
}

func containsAny(s string, substrings []string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrings {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}

func filter(values []string, keep func(string) bool) []string {
	out := []string{}
	for _, v := range values {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func dedupOrdered(values []string) []string {
	out := []string{}
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func dedupSorted(values []string) []string {
	out := dedupOrdered(values)
	sort.Strings(out)
	return out
}
