package ticket

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/mark3labs/ticketscout/internal/logger"
)

// Fetcher returns a ticket's free-text content (description plus
// discussion) by key.
type Fetcher interface {
	Fetch(ctx context.Context, key string) (string, error)
}

// FetcherFunc adapts a plain function to the Fetcher interface, mainly
// for tests.
type FetcherFunc func(ctx context.Context, key string) (string, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, key string) (string, error) {
	return f(ctx, key)
}

// CLIFetcher fetches ticket content by running an external tracker CLI.
// The command is a shell template in which {{key}} is replaced with the
// ticket key, e.g. "jira issue view {{key}} --comments 100 --plain".
type CLIFetcher struct {
	command string
}

// NewCLIFetcher creates a CLIFetcher for the given command template.
func NewCLIFetcher(command string) *CLIFetcher {
	return &CLIFetcher{command: command}
}

// Fetch runs the tracker command for key and returns its stdout. A
// non-zero exit or empty output is returned as an error; callers treat
// that as empty content rather than a fatal condition. The call blocks
// until the tracker CLI returns.
func (f *CLIFetcher) Fetch(ctx context.Context, key string) (string, error) {
	command := strings.ReplaceAll(f.command, "{{key}}", key)
	logger.Debug("Fetching ticket %s: %s", key, command)

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Env = os.Environ()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		logger.Warn("Tracker fetch failed for %s: %s", key, msg)
		return "", fmt.Errorf("tracker fetch failed for %s: %s", key, msg)
	}

	content := stdout.String()
	if strings.TrimSpace(content) == "" {
		logger.Warn("Tracker returned empty content for %s", key)
		return "", fmt.Errorf("tracker returned empty content for %s", key)
	}

	logger.Debug("Fetched %d bytes for %s", len(content), key)
	return content, nil
}
