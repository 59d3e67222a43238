// Package report aggregates visited tickets into the final investigation
// report: globally deduplicated reference lists, bucketed URLs, comment
// insights, and summary counts, rendered as markdown with a fixed
// section order.
package report

import (
	"fmt"
	"strings"

	"github.com/mark3labs/ticketscout/internal/extract"
	"github.com/mark3labs/ticketscout/internal/ticket"
)

// DefaultInsightLimit caps the comment-insight excerpt.
const DefaultInsightLimit = 10

// Keyword set for the comment insight scan.
var insightKeywords = []string{
	"implementation",
	"decision",
	"approach",
	"solution",
	"workaround",
	"fix",
	"bug",
	"issue",
}

// Report is the write-once aggregate over all visited tickets.
type Report struct {
	Root           string
	Processed      []string // in traversal order
	Buckets        map[extract.Bucket][]string
	ChangeRequests []string
	Insights       []string
	Visits         []ticket.Visit

	TotalURLs           int
	TotalCodeHost       int
	TotalChangeRequests int
}

// Aggregate builds a Report from the visits of one finished traversal.
// Partial data is fine: missing categories simply render as "none
// found". insightLimit <= 0 falls back to DefaultInsightLimit.
func Aggregate(root string, visits []ticket.Visit, insightLimit int) *Report {
	if insightLimit <= 0 {
		insightLimit = DefaultInsightLimit
	}

	r := &Report{
		Root:    root,
		Buckets: make(map[extract.Bucket][]string),
		Visits:  visits,
	}
	for _, b := range extract.Buckets() {
		r.Buckets[b] = []string{}
	}

	seenURL := make(map[string]bool)
	seenCodeHost := make(map[string]bool)
	seenCR := make(map[string]bool)

	for _, v := range visits {
		r.Processed = append(r.Processed, v.Key)

		for _, url := range v.Refs[extract.CategoryURL] {
			if seenURL[url] {
				continue
			}
			seenURL[url] = true
			b := extract.BucketURL(url)
			r.Buckets[b] = append(r.Buckets[b], url)
		}

		for _, url := range v.Refs[extract.CategoryCodeHost] {
			if !seenCodeHost[url] {
				seenCodeHost[url] = true
			}
		}

		for _, cr := range v.Refs[extract.CategoryChangeRequest] {
			if seenCR[cr] {
				continue
			}
			seenCR[cr] = true
			r.ChangeRequests = append(r.ChangeRequests, cr)
		}
	}

	r.TotalURLs = len(seenURL)
	r.TotalCodeHost = len(seenCodeHost)
	r.TotalChangeRequests = len(seenCR)
	r.Insights = scanInsights(visits, insightLimit)

	return r
}

// scanInsights returns the first limit comment lines mentioning one of
// the insight keywords, in visit order.
func scanInsights(visits []ticket.Visit, limit int) []string {
	insights := []string{}
	for _, v := range visits {
		if v.Comments == "" {
			continue
		}
		for _, line := range strings.Split(v.Comments, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			lower := strings.ToLower(line)
			for _, kw := range insightKeywords {
				if strings.Contains(lower, kw) {
					insights = append(insights, fmt.Sprintf("%s: %s", v.Key, line))
					break
				}
			}
			if len(insights) == limit {
				return insights
			}
		}
	}
	return insights
}

// Markdown renders the report. Section order is fixed; empty sections
// render a "none found" placeholder rather than being omitted.
func (r *Report) Markdown() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Investigation Report: %s\n\n", r.Root)

	fmt.Fprintf(&b, "## Processed Tickets (%d)\n\n", len(r.Processed))
	writeList(&b, r.Processed)

	b.WriteString("## Documentation Links\n\n")
	for _, bucket := range extract.Buckets() {
		fmt.Fprintf(&b, "### %s\n\n", bucket)
		writeList(&b, r.Buckets[bucket])
	}

	b.WriteString("## Change Requests\n\n")
	writeList(&b, r.ChangeRequests)

	b.WriteString("## Comment Insights\n\n")
	writeList(&b, r.Insights)

	b.WriteString("## Next Steps\n\n")
	r.writeNextSteps(&b)

	b.WriteString("## Ticket Network\n\n")
	r.writeNetwork(&b)

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Unique URLs: %d\n", r.TotalURLs)
	fmt.Fprintf(&b, "- Code host links: %d\n", r.TotalCodeHost)
	fmt.Fprintf(&b, "- Change request references: %d\n", r.TotalChangeRequests)

	return b.String()
}

const nonePlaceholder = "_none found_"

func writeList(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString(nonePlaceholder + "\n\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

// writeNextSteps emits copy-pasteable commands for the top links so the
// downstream agent can pull the referenced material.
func (r *Report) writeNextSteps(b *strings.Builder) {
	const topN = 3

	docs := top(r.Buckets[extract.BucketDocs], topN)
	repos := top(r.Buckets[extract.BucketCodeHost], topN)

	if len(docs) == 0 && len(repos) == 0 {
		b.WriteString(nonePlaceholder + "\n\n")
		return
	}

	b.WriteString("```sh\n")
	for _, url := range docs {
		fmt.Fprintf(b, "open '%s'\n", url)
	}
	for _, url := range repos {
		fmt.Fprintf(b, "git clone '%s'\n", url)
	}
	b.WriteString("```\n\n")
}

// writeNetwork renders the processed tickets as a depth-indented tree in
// traversal order.
func (r *Report) writeNetwork(b *strings.Builder) {
	if len(r.Visits) == 0 {
		b.WriteString(nonePlaceholder + "\n\n")
		return
	}
	for _, v := range r.Visits {
		indent := strings.Repeat("  ", v.Depth)
		suffix := ""
		if v.FetchErr != "" {
			suffix = " (fetch failed)"
		}
		fmt.Fprintf(b, "%s- %s (depth %d)%s\n", indent, v.Key, v.Depth, suffix)
	}
	b.WriteString("\n")
}

func top(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
