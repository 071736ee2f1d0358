package bundle

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/evanw/esbuild/pkg/api"

	"github.com/hupe1980/ionbuild/internal/term"
)

// StatsOptions controls what is printed after each pass.
type StatsOptions struct {
	// Color enables ANSI colors in status lines and diagnostics.
	Color bool

	// Modules prints esbuild's per-module size analysis.
	Modules bool

	// Exclude drops analysis lines containing any of these substrings.
	Exclude []string

	// TerminalWidth wraps diagnostics; zero disables wrapping.
	TerminalWidth int
}

// StatsPrinter formats a Pass for humans.
type StatsPrinter struct {
	out     io.Writer
	opts    StatsOptions
	painter term.Painter
	now     func() time.Time
}

// NewStatsPrinter returns a printer writing to out.
func NewStatsPrinter(out io.Writer, opts StatsOptions) *StatsPrinter {
	return &StatsPrinter{
		out:     out,
		opts:    opts,
		painter: term.NewPainter(opts.Color),
		now:     time.Now,
	}
}

// Print writes the formatted pass to the printer's writer.
func (s *StatsPrinter) Print(p Pass) {
	_, _ = io.WriteString(s.out, s.Format(p))
}

// Format renders a status line, then diagnostics, then the optional module
// analysis.
func (s *StatsPrinter) Format(p Pass) string {
	var b strings.Builder

	outputs := decodeOutputs(p.Metafile)

	status := s.painter.OK("OK")
	if p.Failed() {
		status = s.painter.Fail("FAILED")
	}

	fmt.Fprintf(&b, "%s bundle #%d → %s (%s) in %s\n",
		s.painter.Info("["+s.now().Format("15:04:05")+"]"),
		p.Number, status, summary(p, outputs, s.painter), p.Duration.Round(time.Millisecond))

	for _, line := range s.diagnostics(p.Errors, api.ErrorMessage) {
		b.WriteString(line)
	}

	for _, line := range s.diagnostics(p.Warnings, api.WarningMessage) {
		b.WriteString(line)
	}

	if s.opts.Modules && p.Metafile != "" && !p.Failed() {
		analysis := api.AnalyzeMetafile(p.Metafile, api.AnalyzeMetafileOptions{Color: s.opts.Color})
		b.WriteString(filterLines(analysis, s.opts.Exclude))
	}

	return b.String()
}

func (s *StatsPrinter) diagnostics(msgs []api.Message, kind api.MessageKind) []string {
	if len(msgs) == 0 {
		return nil
	}

	return api.FormatMessages(msgs, api.FormatMessagesOptions{
		Kind:          kind,
		Color:         s.opts.Color,
		TerminalWidth: s.opts.TerminalWidth,
	})
}

func summary(p Pass, outputs []output, painter term.Painter) string {
	var parts []string

	if len(outputs) > 0 {
		var total uint64

		for _, o := range outputs {
			if !strings.HasSuffix(o.path, ".map") {
				total += uint64(o.bytes)
			}
		}

		parts = append(parts, fmt.Sprintf("%d outputs, %s", len(outputs), humanize.Bytes(total)))
	}

	if n := len(p.Errors); n > 0 {
		parts = append(parts, painter.Fail(plural(n, "error")))
	}

	if n := len(p.Warnings); n > 0 {
		parts = append(parts, painter.Warn(plural(n, "warning")))
	}

	if len(parts) == 0 {
		return "no outputs"
	}

	return strings.Join(parts, ", ")
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}

	return fmt.Sprintf("%d %ss", n, noun)
}

// filterLines removes every line that contains one of the excluded
// substrings.
func filterLines(text string, exclude []string) string {
	if len(exclude) == 0 {
		return text
	}

	var b strings.Builder

	for _, line := range strings.SplitAfter(text, "\n") {
		if containsAny(line, exclude) {
			continue
		}

		b.WriteString(line)
	}

	return b.String()
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}

	return false
}

// metafile is the subset of esbuild's metafile needed for output sizes.
type metafile struct {
	Outputs map[string]struct {
		Bytes int `json:"bytes"`
	} `json:"outputs"`
}

type output struct {
	path  string
	bytes int
}

func decodeOutputs(raw string) []output {
	if raw == "" {
		return nil
	}

	var mf metafile
	if err := json.Unmarshal([]byte(raw), &mf); err != nil {
		return nil
	}

	outputs := make([]output, 0, len(mf.Outputs))
	for path, o := range mf.Outputs {
		outputs = append(outputs, output{path: path, bytes: o.Bytes})
	}

	sort.Slice(outputs, func(i, j int) bool { return outputs[i].path < outputs[j].path })

	return outputs
}
