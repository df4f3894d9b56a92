package include

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/marcuscaisey/lazyinclude/include/ansi"
	"github.com/marcuscaisey/lazyinclude/include/token"
)

//go:generate go run golang.org/x/tools/cmd/stringer -type Kind

// Kind classifies an [*Error].
type Kind int

// The list of all error kinds.
const (
	// SourceIO means that a file couldn't be read or isn't valid UTF-8 text.
	SourceIO Kind = iota + 1
	// MalformedArray means that the text isn't a bracketed array literal.
	MalformedArray
	// ElementType means that an element isn't a literal of the array's element type.
	ElementType
	// SuffixMismatch means that an element's type suffix names a different type to the array's element type.
	SuffixMismatch
	// Range means that a numeric element doesn't fit in the array's element type.
	Range
	// Length means that the number of elements differs from the declared length.
	Length
)

// Error describes a failure to resolve a binding.
// Errors which can be attributed to a range of characters in a file carry the range so that it can be highlighted.
type Error struct {
	Kind  Kind
	Path  string
	Index int // Index of the offending array element, or -1
	Msg   string
	Start token.Position
	End   token.Position
	Err   error // Underlying cause, if any
}

// NewError creates a [*Error] of the given kind which applies to a range of characters in a file.
// The error message is constructed from the given format string and arguments, as in [fmt.Sprintf].
func NewError(kind Kind, charRange token.CharacterRange, format string, args ...any) *Error {
	e := &Error{
		Kind:  kind,
		Index: -1,
		Msg:   fmt.Sprintf(format, args...),
		Start: charRange.Start(),
		End:   charRange.End(),
	}
	if e.Start.File != nil {
		e.Path = e.Start.File.Name
	}
	return e
}

// NewElementError is like [NewError] but records the index of the array element that the error applies to.
func NewElementError(kind Kind, index int, charRange token.CharacterRange, format string, args ...any) *Error {
	e := NewError(kind, charRange, format, args...)
	e.Index = index
	return e
}

// NewSourceError creates a [*Error] of kind [SourceIO] for the file at path.
func NewSourceError(path string, err error) *Error {
	return &Error{
		Kind:  SourceIO,
		Path:  path,
		Index: -1,
		Msg:   err.Error(),
		Err:   err,
	}
}

// Message returns the error message without any location information, prefixed with the element index if the error
// applies to a single element.
func (e *Error) Message() string {
	if e.Index >= 0 {
		return fmt.Sprintf("element %d: %s", e.Index, e.Msg)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Error formats the error by displaying the error message and highlighting the range of characters in the file that
// the error applies to.
//
// For example:
//
//	data/u8.txt:1:8: error: element 2: 256 is out of range for u8 (max 255)
//	[1, 2, 256]
//	       ~~~
func (e *Error) Error() string {
	var b strings.Builder
	buildString := func() string {
		return strings.TrimSuffix(b.String(), "\n")
	}

	if e.Start.File == nil {
		ansi.Fprintf(&b, "${BOLD}%s: ${RED}error${DEFAULT}: %s${RESET_BOLD}", e.Path, e.Message())
		return buildString()
	}

	ansi.Fprintf(&b, "${BOLD}%m: ${RED}error${DEFAULT}: %s${DEFAULT}${RESET_BOLD}\n", e.Start, e.Message())

	lines := make([]string, e.End.Line-e.Start.Line+1)
	for i := e.Start.Line; i <= e.End.Line; i++ {
		line := e.Start.File.Line(i)
		if !utf8.Valid(line) {
			// The source can't be displayed so just return the message.
			return buildString()
		}
		lines[i-e.Start.Line] = string(line)
	}

	printLine := func(line string) {
		ansi.Fprint(&b, "${FAINT}", line, "${RESET_BOLD}\n")
	}
	printLineHighlight := func(line string, start, end int) {
		start = min(start, len(line))
		end = min(max(end, start), len(line))
		leadingWhitespace := strings.Repeat(" ", runewidth.StringWidth(line[:start]))
		tildes := strings.Repeat("~", runewidth.StringWidth(line[start:end]))
		ansi.Fprint(&b, leadingWhitespace, "${FAINT}${RED}", tildes, "${DEFAULT}${RESET_BOLD}\n")
	}

	printLine(lines[0])
	if e.Start == e.End {
		return buildString()
	}

	if len(lines) == 1 {
		printLineHighlight(lines[0], e.Start.Column, e.End.Column)
	} else {
		printLineHighlight(lines[0], e.Start.Column, len(lines[0]))
		for _, line := range lines[1 : len(lines)-1] {
			printLine(line)
			printLineHighlight(line, 0, len(line))
		}
		if lastLine := lines[len(lines)-1]; len(lastLine) > 0 {
			printLine(lastLine)
			printLineHighlight(lastLine, 0, e.End.Column)
		}
	}

	return buildString()
}

// Errors is a list of [*Error]s.
type Errors []*Error

// Add adds a [*Error] to the list of errors.
func (e *Errors) Add(err *Error) {
	*e = append(*e, err)
}

// Sort sorts the errors by path and then by their start position.
func (e Errors) Sort() {
	slices.SortStableFunc(e, func(e1, e2 *Error) int {
		if c := cmp.Compare(e1.Path, e2.Path); c != 0 {
			return c
		}
		return e1.Start.Compare(e2.Start)
	})
}

// Error formats the errors by concatenating their messages after sorting them.
func (e Errors) Error() string {
	if len(e) == 0 {
		panic("Error called on empty error list")
	}
	e.Sort()
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

// Err returns the error list unchanged if its non-empty, otherwise nil.
// This should be used to return an [Errors] from a function as an [error] so that it becomes an untyped nil if there
// are no errors.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
