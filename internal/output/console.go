// Package output renders command progress and summaries for the
// terminal.
package output

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
)

// Console writes result lines for one command invocation. Normal
// output goes to out, failures and warnings to errOut, so piped
// output stays clean.
//
// Write errors are ignored throughout: console output is best effort.
type Console struct {
	out    io.Writer
	errOut io.Writer
	styles Styles
}

// NewConsole builds a console that colors output when out is an
// interactive terminal, and emits plain text for pipes, CI, and
// NO_COLOR environments.
func NewConsole(out, errOut io.Writer) *Console {
	noColor := !IsTTY(out) || DetectNoColor() || DetectCI()
	return &Console{out: out, errOut: errOut, styles: GetStyles(noColor)}
}

// NewPlainConsole builds a console that never colors output.
func NewPlainConsole(out, errOut io.Writer) *Console {
	return &Console{out: out, errOut: errOut, styles: NoColorStyles()}
}

// Plainf writes an unstyled line.
func (c *Console) Plainf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format+"\n", args...)
}

// Headerf writes a section header line.
func (c *Console) Headerf(format string, args ...any) {
	_, _ = fmt.Fprintln(c.out, c.styles.Header.Render(fmt.Sprintf(format, args...)))
}

// Successf writes a confirmation line.
func (c *Console) Successf(format string, args ...any) {
	_, _ = fmt.Fprintln(c.out, c.styles.Success.Render(fmt.Sprintf(format, args...)))
}

// Dimf writes a de-emphasized detail line.
func (c *Console) Dimf(format string, args ...any) {
	_, _ = fmt.Fprintln(c.out, c.styles.Dim.Render(fmt.Sprintf(format, args...)))
}

// Warningf writes a warning line to the error stream.
func (c *Console) Warningf(format string, args ...any) {
	_, _ = fmt.Fprintln(c.errOut, c.styles.Warning.Render(fmt.Sprintf(format, args...)))
}

// Errorf writes an error line to the error stream.
func (c *Console) Errorf(format string, args ...any) {
	_, _ = fmt.Fprintln(c.errOut, c.styles.Error.Render(fmt.Sprintf(format, args...)))
}

// Newline writes an empty line.
func (c *Console) Newline() {
	_, _ = fmt.Fprintln(c.out)
}

// IsTTY reports whether w is an interactive terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor reports whether the NO_COLOR convention is in effect.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI reports whether we are running under a CI system.
func DetectCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"}
	for _, v := range ciVars {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}

// Thousands renders n with comma separators, as in 1,234,567.
func Thousands(n int) string {
	s := strconv.Itoa(n)
	start := 0
	if s[0] == '-' {
		start = 1
	}

	out := make([]byte, 0, len(s)+(len(s)-start-1)/3)
	for i := 0; i < len(s); i++ {
		if i > start && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	return string(out)
}
