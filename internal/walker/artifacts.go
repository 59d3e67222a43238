package walker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
	"github.com/mark3labs/ticketscout/internal/extract"
	"github.com/mark3labs/ticketscout/internal/ticket"
)

// ReportFileName is the name of the aggregate report artifact.
const ReportFileName = "investigation-report.md"

// ArtifactWriter writes per-ticket intermediate artifacts and the final
// report into a shared output directory. Files are named by a slug of
// the ticket key plus the category, so downstream consumers never have
// to distinguish "file absent" from "category empty".
type ArtifactWriter struct {
	dir string
}

// NewArtifactWriter creates the output directory if needed.
func NewArtifactWriter(dir string) (*ArtifactWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating artifact directory: %w", err)
	}
	return &ArtifactWriter{dir: dir}, nil
}

// Dir returns the output directory.
func (a *ArtifactWriter) Dir() string {
	return a.dir
}

// WriteVisit writes the raw content, one file per reference category
// (empty categories produce empty files), and the comments blob for one
// visited ticket.
func (a *ArtifactWriter) WriteVisit(v ticket.Visit) error {
	base := slug.Make(v.Key)

	if err := a.write(base+"-content.txt", v.Content); err != nil {
		return err
	}

	for _, c := range extract.Categories() {
		body := ""
		if refs := v.Refs[c]; len(refs) > 0 {
			body = strings.Join(refs, "\n") + "\n"
		}
		if err := a.write(fmt.Sprintf("%s-%s.txt", base, c), body); err != nil {
			return err
		}
	}

	return a.write(base+"-comments.txt", v.Comments)
}

// WriteReport writes the final aggregate report and returns its path.
func (a *ArtifactWriter) WriteReport(markdown string) (string, error) {
	path := filepath.Join(a.dir, ReportFileName)
	if err := os.WriteFile(path, []byte(markdown), 0644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

func (a *ArtifactWriter) write(name, body string) error {
	path := filepath.Join(a.dir, name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		return fmt.Errorf("writing artifact %s: %w", name, err)
	}
	return nil
}
