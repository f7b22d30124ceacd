package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	okStyle   = color.New(color.FgGreen, color.Bold)
	failStyle = color.New(color.FgRed, color.Bold)
	dimStyle  = color.New(color.FgHiBlack)
)

// Success prints a green status line.
func Success(w io.Writer, format string, args ...interface{}) {
	okStyle.Fprint(w, "✓ ")
	fmt.Fprintf(w, format+"\n", args...)
}

// Failure prints a red status line.
func Failure(w io.Writer, format string, args ...interface{}) {
	failStyle.Fprint(w, "✗ ")
	fmt.Fprintf(w, format+"\n", args...)
}

// Hint prints a dimmed line.
func Hint(w io.Writer, format string, args ...interface{}) {
	dimStyle.Fprintf(w, format+"\n", args...)
}
