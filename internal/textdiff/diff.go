// Package textdiff renders unified diffs between two text documents.
package textdiff

import (
	"fmt"
	"io"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/hupe1980/ionbuild/internal/term"
)

// Result holds the result of a unified diff computation.
type Result struct {
	Unified        string
	HasDifferences bool
	Hunks          []string
	OldLabel       string
	NewLabel       string
}

// Options configures diff computation.
type Options struct {
	OldLabel string
	NewLabel string
	Context  int
}

// DefaultOptions returns the labels used by "config view --diff".
func DefaultOptions() Options {
	return Options{
		OldLabel: "defaults",
		NewLabel: "effective",
		Context:  3,
	}
}

// Compute computes a unified diff between two documents.
func Compute(oldDoc, newDoc string, opts Options) (*Result, error) {
	diff := difflib.UnifiedDiff{
		A:        splitLines(oldDoc),
		B:        splitLines(newDoc),
		FromFile: opts.OldLabel,
		ToFile:   opts.NewLabel,
		Context:  opts.Context,
	}

	unified, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return nil, fmt.Errorf("computing diff: %w", err)
	}

	res := &Result{
		Unified:        unified,
		HasDifferences: unified != "",
		OldLabel:       opts.OldLabel,
		NewLabel:       opts.NewLabel,
	}

	if res.HasDifferences {
		res.Hunks = extractHunks(unified)
	}

	return res, nil
}

// extractHunks splits unified diff output into individual hunks.
func extractHunks(unified string) []string {
	var (
		hunks   []string
		current strings.Builder
	)

	for _, line := range strings.Split(unified, "\n") {
		if strings.HasPrefix(line, "@@") && current.Len() > 0 {
			hunks = append(hunks, current.String())
			current.Reset()
		}

		current.WriteString(line)
		current.WriteString("\n")
	}

	if current.Len() > 0 {
		hunks = append(hunks, current.String())
	}

	return hunks
}

// Write writes a formatted diff to w, painting lines with p.
func Write(w io.Writer, res *Result, p term.Painter) {
	if !res.HasDifferences {
		_, _ = fmt.Fprintln(w, "No differences found.")
		return
	}

	for _, line := range strings.Split(strings.TrimSuffix(res.Unified, "\n"), "\n") {
		_, _ = fmt.Fprintln(w, paintLine(line, p))
	}
}

func paintLine(line string, p term.Painter) string {
	switch {
	case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
		return p.Bold(line)
	case strings.HasPrefix(line, "@@"):
		return p.Info(line)
	case strings.HasPrefix(line, "-"):
		return p.Fail(line)
	case strings.HasPrefix(line, "+"):
		return p.OK(line)
	default:
		return line
	}
}

// splitLines splits a string into lines for diff processing.
// Each element includes a trailing newline for difflib compatibility.
func splitLines(s string) []string {
	if s == "" {
		return []string{""}
	}

	return strings.SplitAfter(s, "\n")
}
