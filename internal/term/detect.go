package term

import (
	"io"

	"github.com/gookit/color"
	xterm "golang.org/x/term"
)

// ColorEnabled reports whether output written to w should carry ANSI colors.
// It is false when noColor is set, when w is not a terminal, or when the
// terminal does not support colors.
func ColorEnabled(w io.Writer, noColor bool) bool {
	if noColor {
		return false
	}

	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}

	if !xterm.IsTerminal(int(f.Fd())) { //nolint:gosec // file descriptors fit in int
		return false
	}

	return color.SupportColor()
}
