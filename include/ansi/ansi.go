// Package ansi implements formatting of output text using ANSI escape sequences by wrapping the [fmt] package.
//
// Format strings (or string arguments to functions which don't accept a format string) can contain placeholders of the
// form ${NAME}, where NAME is the name of an ANSI code. The placeholder is replaced with the corresponding escape
// sequence in the output, or removed if [Enabled] is false.
//
// The following ANSI codes are supported: RESET, BOLD, FAINT, RESET_BOLD, RED, GREEN, YELLOW, CYAN, DEFAULT.
package ansi

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

func init() {
	ansiOldnew := make([]string, 0, 2*len(ansiCodes))
	emptyOldnew := make([]string, 0, 2*len(ansiCodes))
	for name, ansiCode := range ansiCodes {
		ansiOldnew = append(ansiOldnew, fmt.Sprintf("${%s}", name), fmt.Sprintf("\x1b[%dm", ansiCode))
		emptyOldnew = append(emptyOldnew, fmt.Sprintf("${%s}", name), "")
	}
	ansiReplacer = strings.NewReplacer(ansiOldnew...)
	emptyReplacer = strings.NewReplacer(emptyOldnew...)
}

// Enabled determines whether ANSI escape sequences will be output by the functions in this package.
// If stderr is connected to a terminal, this will be true.
var Enabled = term.IsTerminal(int(os.Stderr.Fd()))

var ansiCodes = map[string]int{
	"RESET":      0,
	"BOLD":       1,
	"FAINT":      2,
	"RESET_BOLD": 22,
	"RED":        31,
	"GREEN":      32,
	"YELLOW":     33,
	"CYAN":       36,
	"DEFAULT":    39,
}

var ansiReplacer *strings.Replacer
var emptyReplacer *strings.Replacer

func replace(s string) string {
	if Enabled {
		return ansiReplacer.Replace(s)
	}
	return emptyReplacer.Replace(s)
}

func replaceArgs(a []any) []any {
	for i, arg := range a {
		s, ok := arg.(string)
		if !ok {
			continue
		}
		a[i] = replace(s)
	}
	return a
}

// Fprintf formats according to a format specifier and writes to w.
// It returns the number of bytes written and any write error encountered.
func Fprintf(w io.Writer, format string, a ...any) (n int, err error) {
	return fmt.Fprint(w, Sprintf(format, a...))
}

// Sprintf formats according to a format specifier and returns the resulting string.
func Sprintf(format string, a ...any) string {
	return replace(fmt.Sprintf(format, a...))
}

// Fprint formats using the default formats for its operands and writes to w.
// Spaces are added between operands when neither is a string.
// It returns the number of bytes written and any write error encountered.
func Fprint(w io.Writer, a ...any) (n int, err error) {
	return fmt.Fprint(w, replaceArgs(a)...)
}

// Sprint formats using the default formats for its operands and returns the resulting string.
// Spaces are added between operands when neither is a string.
func Sprint(a ...any) string {
	return fmt.Sprint(replaceArgs(a)...)
}
