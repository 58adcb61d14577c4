package ui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/mgutz/ansi"

	apperrors "paysight/pkg/errors"
)

var (
	supportsColor = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	ColorSuccess  = colorFunc(ansi.Green)
	ColorError    = colorFunc(ansi.Red)
	ColorWarning  = colorFunc(ansi.Yellow)
	ColorInfo     = colorFunc(ansi.Cyan)
	ColorProgress = colorFunc(ansi.Blue)
	ColorBold     = colorFunc("default+b")
	ColorDim      = colorFunc("default+h")
)

// out is where the Show* helpers write
var out io.Writer = os.Stdout

// SetOutput redirects the Show* helpers, returning the previous writer
func SetOutput(w io.Writer) io.Writer {
	prev := out
	out = w
	return prev
}

// SetColor forces color on or off, e.g. for --no-color
func SetColor(enabled bool) {
	supportsColor = enabled
	color.NoColor = !enabled
}

// ColorEnabled reports whether output is colored
func ColorEnabled() bool {
	return supportsColor
}

func colorFunc(color string) func(string) string {
	return func(text string) string {
		if supportsColor {
			return ansi.Color(text, color)
		}
		return text
	}
}

// ShowHeader displays a boxed title
func ShowHeader(title string) {
	width := len(title) + 6
	if width < 50 {
		width = 50
	}
	padding := (width - len(title) - 2) / 2

	fmt.Fprintln(out, "\n+"+strings.Repeat("-", width-2)+"+")
	fmt.Fprintf(out, "|%s%s%s|\n",
		strings.Repeat(" ", padding),
		ColorBold(title),
		strings.Repeat(" ", width-2-padding-len(title)),
	)
	fmt.Fprintln(out, "+"+strings.Repeat("-", width-2)+"+")
}

// ShowError displays an error. AppErrors show their code, cause and
// suggestions; other errors get a suggestion guessed from the message.
func ShowError(err error) {
	fmt.Fprintf(out, "\n%s\n", ColorError("ERROR:"))

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		fmt.Fprintf(out, "  %s\n", appErr.Summary())
		for _, s := range appErr.Suggestions {
			fmt.Fprintf(out, "  %s %s\n", ColorInfo("TIP:"), s)
		}
		return
	}

	message := err.Error()
	for i, line := range strings.Split(message, "\n") {
		if i == 0 {
			fmt.Fprintf(out, "  %s\n", line)
		} else {
			fmt.Fprintf(out, "  %s\n", ColorDim(line))
		}
	}
	if suggestion := getSuggestion(message); suggestion != "" {
		fmt.Fprintf(out, "\n  %s %s\n", ColorInfo("TIP:"), ColorInfo(suggestion))
	}
}

// ShowSuccess displays a success message
func ShowSuccess(message string) {
	fmt.Fprintf(out, "%s %s\n", ColorSuccess("✓"), message)
}

// ShowWarning displays a warning message
func ShowWarning(message string) {
	fmt.Fprintf(out, "%s %s\n", ColorWarning("WARNING:"), ColorWarning(message))
}

// ShowInfo displays an info message
func ShowInfo(message string) {
	fmt.Fprintf(out, "%s %s\n", ColorInfo("INFO:"), message)
}

// Box draws a box around content. paint colors the title; nil means bold.
func Box(w io.Writer, title, content string, paint func(string) string) {
	if paint == nil {
		paint = ColorBold
	}
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	maxLen := len(title) + 1
	for _, line := range lines {
		if len(line) > maxLen {
			maxLen = len(line)
		}
	}

	fmt.Fprintf(w, "+- %s %s+\n", paint(title), strings.Repeat("-", maxLen-len(title)-1))
	for _, line := range lines {
		fmt.Fprintf(w, "| %s%s |\n", line, strings.Repeat(" ", maxLen-len(line)))
	}
	fmt.Fprintf(w, "+%s+\n", strings.Repeat("-", maxLen+2))
}

func getSuggestion(message string) string {
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "access denied"), strings.Contains(lower, "authentication failed"):
		return "Check the warehouse username and password, or run 'paysight setup'"
	case strings.Contains(lower, "connection refused"), strings.Contains(lower, "no such host"):
		return "Verify the warehouse host, port and network connectivity"
	case strings.Contains(lower, "doesn't exist"), strings.Contains(lower, "does not exist"):
		return "Verify the payments relations exist in the configured database"
	case strings.Contains(lower, "permission denied"):
		return "Grant SELECT on the payments relations to the configured user"
	default:
		return ""
	}
}
