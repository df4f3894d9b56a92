// Package token declares the type representing a lexical token of an array literal.
package token

import (
	"cmp"
	"fmt"
	"unicode"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

func init() {
	for i := range typesEnd {
		t := Type(i)
		if _, ok := typeStrings[t]; !ok && unicode.IsUpper(rune(t.String()[0])) {
			panic(fmt.Sprintf("typeStrings is missing entry for Type %s", t.String()))
		}
	}
}

//go:generate go run golang.org/x/tools/cmd/stringer -type Type

// Type is the type of a lexical token of an array literal.
type Type int

// The list of all token types.
const (
	Illegal Type = iota
	EOF

	// Keywords
	keywordsStart
	True
	False
	keywordsEnd

	// Literals
	Ident
	Int
	Float
	Char
	String
	ByteChar
	ByteString

	// Symbols
	Comma
	Minus
	LeftBracket
	RightBracket

	typesEnd
)

var typeStrings = map[Type]string{
	Illegal:       "illegal",
	EOF:           "EOF",
	keywordsStart: "keywordsStart",
	True:          "true",
	False:         "false",
	keywordsEnd:   "keywordsEnd",
	Ident:         "identifier",
	Int:           "integer literal",
	Float:         "float literal",
	Char:          "char literal",
	String:        "string literal",
	ByteChar:      "byte literal",
	ByteString:    "byte string literal",
	Comma:         ",",
	Minus:         "-",
	LeftBracket:   "[",
	RightBracket:  "]",
	typesEnd:      "typesEnd",
}

var keywordTypesByIdent = func() map[string]Type {
	keywordTypesByIdent := make(map[string]Type, keywordsEnd-keywordsStart)
	for i := keywordsStart + 1; i < keywordsEnd; i++ {
		keywordTypesByIdent[typeStrings[i]] = i
	}
	return keywordTypesByIdent
}()

// IdentType returns the type of the keyword with the given identifier, or Ident if the identifier is not a
// keyword.
func IdentType(ident string) Type {
	if keywordType, ok := keywordTypesByIdent[ident]; ok {
		return keywordType
	}
	return Ident
}

// Format implements fmt.Formatter. All verbs have the default behaviour, except for 'm' (message) which formats the
// type for use in an error message.
func (t Type) Format(f fmt.State, verb rune) {
	switch verb {
	case 'm':
		fmt.Fprintf(f, "'%s'", typeStrings[t])
	case 's':
		fmt.Fprint(f, t.String())
	default:
		fmt.Fprintf(f, fmt.FormatString(f, verb), uint8(t))
	}
}

// Description returns a human readable description of the type, such as "integer literal" or ",".
func (t Type) Description() string {
	return typeStrings[t]
}

// Token is a lexical token of an array literal.
type Token struct {
	StartPos Position // Position of the first character of the token
	EndPos   Position // Position of the character immediately after the token
	Type     Type
	Lexeme   string
	// Suffix is the type suffix of an Int or Float literal, such as u8 in 5u8. It's empty if the literal has none.
	// The suffix is included in Lexeme.
	Suffix string
}

// Start returns the position of the first character of the token.
func (t Token) Start() Position {
	return t.StartPos
}

// End returns the position of the character immediately after the token.
func (t Token) End() Position {
	return t.EndPos
}

// Body returns the lexeme without its type suffix.
func (t Token) Body() string {
	return t.Lexeme[:len(t.Lexeme)-len(t.Suffix)]
}

func (t Token) String() string {
	return fmt.Sprintf("%s: %s [%s]", t.StartPos, t.Lexeme, t.Type)
}

// Position is a position in a file.
type Position struct {
	File   *File
	Line   int // 1-based line number
	Column int // 0-based byte offset from the start of the line
}

// Compare returns
//
//	-1 if p is comes before other in the file,
//	 0 if p and other are the same position,
//	+1 if p comes after other in the file.
func (p Position) Compare(other Position) int {
	if p.Line == other.Line {
		return cmp.Compare(p.Column, other.Column)
	}
	return cmp.Compare(p.Line, other.Line)
}

func (p Position) String() string {
	if p.File == nil {
		return fmt.Sprintf("%d:%d", p.Line, p.Column+1)
	}
	var prefix string
	if p.File.Name != "" {
		prefix = p.File.Name + ":"
	}
	return fmt.Sprintf("%s%d:%d", prefix, p.Line, p.displayColumn())
}

// displayColumn returns the 1-based column of the position as it would be displayed in a terminal.
func (p Position) displayColumn() int {
	line := p.File.Line(p.Line)
	if p.Column > len(line) {
		return p.Column + 1
	}
	return runewidth.StringWidth(string(line[:p.Column])) + 1
}

// CharacterRange is an interface which describes a range of characters in the source code.
type CharacterRange interface {
	Start() Position // Start returns the position of the first character of the range.
	End() Position   // End returns the position of the character immediately after the range.
}

// Range returns a [CharacterRange] which spans from start to end.
func Range(start, end Position) CharacterRange {
	return characterRange{start: start, end: end}
}

type characterRange struct {
	start Position
	end   Position
}

func (cr characterRange) Start() Position {
	return cr.start
}

func (cr characterRange) End() Position {
	return cr.end
}

var (
	cyan   = color.New(color.FgCyan).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

// Format implements fmt.Formatter. All verbs have the default behaviour, except for 'm' (message) which formats the
// position for use in an error message.
func (p Position) Format(f fmt.State, verb rune) {
	switch verb {
	case 'm':
		if p.File == nil {
			fmt.Fprint(f, yellow(p.Line), ":", yellow(p.Column+1))
			return
		}
		var prefix string
		if p.File.Name != "" {
			prefix = cyan(p.File.Name) + ":"
		}
		fmt.Fprint(f, prefix, yellow(p.Line), ":", yellow(p.displayColumn()))
	case 's':
		fmt.Fprint(f, p.String())
	default:
		type position Position // position has no Format method so formatting it doesn't recurse
		fmt.Fprintf(f, fmt.FormatString(f, verb), position(p))
	}
}

// File is a simple representation of a file.
type File struct {
	Name        string
	contents    []byte
	lineOffsets []int
}

// NewFile returns a new File with the given contents.
func NewFile(name string, contents []byte) *File {
	f := &File{
		Name:     name,
		contents: contents,
	}
	f.lineOffsets = append(f.lineOffsets, 0)
	for i := 0; i < len(contents); i++ {
		if contents[i] == '\n' {
			f.lineOffsets = append(f.lineOffsets, i+1)
		}
	}
	return f
}

// Line returns the nth line of the file.
func (f *File) Line(n int) []byte {
	if n < 1 || n > len(f.lineOffsets) {
		return nil
	}
	low := f.lineOffsets[n-1]
	high := len(f.contents)
	if n < len(f.lineOffsets) {
		high = f.lineOffsets[n] - 1 // -1 to exclude the newline
	}
	line := f.contents[low:high]
	return line
}

// Contents returns the contents of the file.
func (f *File) Contents() []byte {
	return f.contents
}
