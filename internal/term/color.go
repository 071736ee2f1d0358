// Package term paints user-facing status text. Colors are only emitted when
// enabled and the terminal supports them.
package term

import (
	"github.com/gookit/color"
)

// Painter applies semantic colors to short strings.
type Painter struct {
	enabled bool
}

// NewPainter returns a painter. When enabled is false every method returns
// its input unchanged.
func NewPainter(enabled bool) Painter {
	return Painter{enabled: enabled}
}

// Enabled reports whether the painter emits color codes.
func (p Painter) Enabled() bool { return p.enabled }

// OK paints success markers.
func (p Painter) OK(s string) string { return p.paint(color.Green, s) }

// Fail paints failure markers.
func (p Painter) Fail(s string) string { return p.paint(color.Red, s) }

// Warn paints warnings.
func (p Painter) Warn(s string) string { return p.paint(color.Yellow, s) }

// Info paints neutral highlights such as timestamps and hunk headers.
func (p Painter) Info(s string) string { return p.paint(color.Cyan, s) }

// Bold emphasises s.
func (p Painter) Bold(s string) string { return p.paint(color.Bold, s) }

func (p Painter) paint(c color.Color, s string) string {
	if !p.enabled {
		return s
	}

	return c.Sprint(s)
}
