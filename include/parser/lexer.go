package parser

import (
	"unicode"
	"unicode/utf8"

	"github.com/marcuscaisey/lazyinclude/include/token"
)

const eof = -1

// errorHandler is the function which handles syntax errors encountered during lexing.
// It's passed the offending token and a format string and arguments to construct an error message from.
type errorHandler func(tok token.Token, format string, args ...any)

// numberSuffixes are the type suffixes which can follow a number literal.
var numberSuffixes = map[string]bool{
	"i8": true, "i16": true, "i32": true, "i64": true, "i128": true, "isize": true,
	"u8": true, "u16": true, "u32": true, "u64": true, "u128": true, "usize": true,
	"f32": true, "f64": true,
}

// lexer converts the text of an array literal into lexical tokens.
// Tokens are read from the lexer using the Next method.
// Syntax errors are handled by calling the error handler function which can be set using SetErrorHandler. The token
// returned after an error has been handled has type token.Illegal.
type lexer struct {
	src        []byte
	errHandler errorHandler

	ch           rune           // character currently being considered
	pos          token.Position // position of character currently being considered
	offset       int            // offset of character currently being considered
	readOffset   int            // offset of next character to be read
	lastReadSize int            // size of last rune read
}

// newLexer constructs a lexer which will lex src.
// filename is the name of the file being lexed.
func newLexer(src []byte, filename string) *lexer {
	l := &lexer{
		src:        src,
		errHandler: func(token.Token, string, ...any) {},
		pos: token.Position{
			File:   token.NewFile(filename, src),
			Line:   1,
			Column: 0,
		},
	}
	l.next()
	return l
}

// SetErrorHandler sets the error handler function which will be called when a syntax error is encountered.
func (l *lexer) SetErrorHandler(errHandler errorHandler) {
	l.errHandler = errHandler
}

// Next returns the next token. An EOF token is returned if the end of the source code has been reached.
func (l *lexer) Next() token.Token {
	if tok, ok := l.skipWhitespaceAndComments(); !ok {
		return tok
	}

	startOffset := l.offset
	tok := token.Token{StartPos: l.pos}

	switch {
	case l.ch == eof:
		tok.Type = token.EOF
		tok.EndPos = l.pos
		return tok
	case l.ch == ',':
		tok.Type = token.Comma
	case l.ch == '-':
		tok.Type = token.Minus
	case l.ch == '[':
		tok.Type = token.LeftBracket
	case l.ch == ']':
		tok.Type = token.RightBracket
	case l.ch == '"':
		return l.lexString(tok)
	case l.ch == '\'':
		return l.lexChar(tok)
	case l.ch == 'r' && (l.peek() == '"' || l.peek() == '#'):
		return l.lexRawString(tok)
	case l.ch == 'b' && (l.peek() == '"' || l.peek() == '\'' || (l.peek() == 'r' && (l.peekAt(1) == '"' || l.peekAt(1) == '#'))):
		return l.lexByteLiteral(tok)
	case isDigit(l.ch):
		return l.lexNumber(tok)
	case isIdentStart(l.ch):
		ident := l.consumeIdent()
		tok.EndPos = l.pos
		tok.Type = token.IdentType(ident)
		tok.Lexeme = ident
		return tok
	default:
		ch := l.ch
		invalidByte := ch == utf8.RuneError && l.lastReadSize == 1
		l.next()
		tok.EndPos = l.pos
		tok.Type = token.Illegal
		tok.Lexeme = string(l.src[startOffset:l.offset])
		if invalidByte {
			l.errHandler(tok, "invalid UTF-8 byte %#x", l.src[startOffset])
		} else {
			l.errHandler(tok, "illegal character %#U", ch)
		}
		return tok
	}

	l.next()
	tok.EndPos = l.pos
	tok.Lexeme = string(l.src[startOffset:l.offset])

	return tok
}

// skipWhitespaceAndComments skips over whitespace, line comments and (possibly nested) block comments.
// If an unterminated block comment is found, an illegal token is returned along with false.
func (l *lexer) skipWhitespaceAndComments() (token.Token, bool) {
	for {
		switch {
		case isWhitespace(l.ch):
			l.next()
		case l.ch == '/' && l.peek() == '/':
			for l.ch != '\n' && l.ch != eof {
				l.next()
			}
		case l.ch == '/' && l.peek() == '*':
			startOffset := l.offset
			tok := token.Token{StartPos: l.pos, Type: token.Illegal}
			if !l.consumeBlockComment() {
				tok.EndPos = l.pos
				tok.Lexeme = string(l.src[startOffset:l.offset])
				l.errHandler(tok, "unterminated block comment")
				return tok, false
			}
		default:
			return token.Token{}, true
		}
	}
}

func (l *lexer) consumeBlockComment() (terminated bool) {
	l.next() // /
	l.next() // *
	depth := 1
	for depth > 0 {
		switch {
		case l.ch == eof:
			return false
		case l.ch == '/' && l.peek() == '*':
			l.next()
			l.next()
			depth++
		case l.ch == '*' && l.peek() == '/':
			l.next()
			l.next()
			depth--
		default:
			l.next()
		}
	}
	return true
}

func (l *lexer) lexString(tok token.Token) token.Token {
	startOffset := l.offset
	terminated := l.consumeQuoted('"')
	tok.EndPos = l.pos
	tok.Lexeme = string(l.src[startOffset:l.offset])
	tok.Type = token.String
	if !terminated {
		tok.Type = token.Illegal
		l.errHandler(tok, "unterminated string literal")
	} else if _, err := Unquote(tok.Lexeme); err != nil {
		tok.Type = token.Illegal
		l.errHandler(tok, "%s", err)
	}
	return tok
}

func (l *lexer) lexChar(tok token.Token) token.Token {
	startOffset := l.offset
	terminated := l.consumeQuoted('\'')
	tok.EndPos = l.pos
	tok.Lexeme = string(l.src[startOffset:l.offset])
	tok.Type = token.Char
	if !terminated {
		tok.Type = token.Illegal
		l.errHandler(tok, "unterminated character literal")
	} else if _, err := UnquoteChar(tok.Lexeme); err != nil {
		tok.Type = token.Illegal
		l.errHandler(tok, "%s", err)
	}
	return tok
}

// consumeQuoted consumes a literal delimited by quote, skipping over escaped characters.
// Character literals can't span multiple lines.
func (l *lexer) consumeQuoted(quote rune) (terminated bool) {
	l.next()
	for {
		switch l.ch {
		case eof:
			return false
		case '\n':
			if quote == '\'' {
				return false
			}
		case '\\':
			l.next()
			if l.ch == eof {
				return false
			}
		case quote:
			l.next()
			return true
		}
		l.next()
	}
}

func (l *lexer) lexRawString(tok token.Token) token.Token {
	startOffset := l.offset
	l.next() // r
	hashes := 0
	for l.ch == '#' {
		hashes++
		l.next()
	}

	fail := func(format string, args ...any) token.Token {
		tok.EndPos = l.pos
		tok.Type = token.Illegal
		tok.Lexeme = string(l.src[startOffset:l.offset])
		l.errHandler(tok, format, args...)
		return tok
	}

	if l.ch != '"' {
		return fail("expected '\"' after raw string prefix")
	}
	l.next()

	for {
		if l.ch == eof {
			return fail("unterminated raw string literal")
		}
		if l.ch == '"' {
			l.next()
			n := 0
			for n < hashes && l.ch == '#' {
				n++
				l.next()
			}
			if n == hashes {
				break
			}
			continue
		}
		l.next()
	}

	tok.EndPos = l.pos
	tok.Type = token.String
	tok.Lexeme = string(l.src[startOffset:l.offset])
	return tok
}

// lexByteLiteral lexes a byte string or byte literal such as b"abc", br"abc" or b'a'. These aren't valid elements of
// any array but they're lexed as literals so that they can be reported as having the wrong type.
func (l *lexer) lexByteLiteral(tok token.Token) token.Token {
	startOffset := l.offset
	l.next() // b
	switch l.ch {
	case '"':
		tok = l.lexString(tok)
	case '\'':
		tok = l.lexChar(tok)
	default:
		tok = l.lexRawString(tok)
	}
	tok.Lexeme = string(l.src[startOffset:l.offset])
	switch tok.Type {
	case token.String:
		tok.Type = token.ByteString
	case token.Char:
		tok.Type = token.ByteChar
	}
	return tok
}

func (l *lexer) lexNumber(tok token.Token) token.Token {
	startOffset := l.offset
	isFloat := false

	fail := func(format string, args ...any) token.Token {
		// Consume the rest of the literal so that the whole of it is highlighted.
		for isIdentContinue(l.ch) {
			l.next()
		}
		tok.EndPos = l.pos
		tok.Type = token.Illegal
		tok.Lexeme = string(l.src[startOffset:l.offset])
		l.errHandler(tok, format, args...)
		return tok
	}

	base := 10
	if l.ch == '0' {
		switch l.peek() {
		case 'x':
			base = 16
		case 'o':
			base = 8
		case 'b':
			base = 2
		}
	}

	if base != 10 {
		l.next() // 0
		l.next() // x, o or b
		digitsStart := l.offset
		for isHexDigit(l.ch) || l.ch == '_' {
			if base == 16 || !isIdentStart(l.ch) || l.ch == '_' {
				l.next()
				continue
			}
			break
		}
		digits := string(l.src[digitsStart:l.offset])
		if !containsDigit(digits) {
			return fail("no valid digits found for number")
		}
		for _, r := range digits {
			if r != '_' && digitValue(r) >= base {
				return fail("invalid digit %q for a base %d literal", r, base)
			}
		}
	} else {
		l.consumeDecimalDigits()
		if l.ch == '.' && l.peek() != '.' && !isIdentStart(rune(l.peek())) {
			isFloat = true
			l.next()
			if isDigit(l.ch) {
				l.consumeDecimalDigits()
			}
		}
		if l.ch == 'e' || l.ch == 'E' {
			if !l.hasExponentDigits() {
				l.next()
				return fail("expected at least one digit in exponent")
			}
			isFloat = true
			l.next()
			if l.ch == '+' || l.ch == '-' {
				l.next()
			}
			l.consumeDecimalDigits()
		}
	}

	suffixStart := l.offset
	if isIdentStart(l.ch) {
		l.consumeIdent()
	}
	suffix := string(l.src[suffixStart:l.offset])
	if suffix != "" && !numberSuffixes[suffix] {
		return fail("invalid suffix %q for number literal", suffix)
	}
	if isFloat && suffix != "" && suffix != "f32" && suffix != "f64" {
		return fail("invalid suffix %q for float literal", suffix)
	}
	if base != 10 && (suffix == "f32" || suffix == "f64") {
		return fail("binary, octal and hexadecimal float literals are not supported")
	}

	tok.EndPos = l.pos
	tok.Lexeme = string(l.src[startOffset:l.offset])
	tok.Suffix = suffix
	tok.Type = token.Int
	if isFloat {
		tok.Type = token.Float
	}
	return tok
}

func (l *lexer) consumeDecimalDigits() {
	for isDigit(l.ch) || l.ch == '_' {
		l.next()
	}
}

// hasExponentDigits reports whether the e or E at the current position is followed by an optional sign, any number of
// underscores and then at least one digit.
func (l *lexer) hasExponentDigits() bool {
	i := l.readOffset
	if i < len(l.src) && (l.src[i] == '+' || l.src[i] == '-') {
		i++
	}
	for i < len(l.src) && l.src[i] == '_' {
		i++
	}
	return i < len(l.src) && isDigit(rune(l.src[i]))
}

func (l *lexer) consumeIdent() string {
	startOffset := l.offset
	for isIdentContinue(l.ch) {
		l.next()
	}
	return string(l.src[startOffset:l.offset])
}

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\r', '\t', '\n', '\v', '\f', '\u0085', '\u200e', '\u200f', '\u2028', '\u2029':
		return true
	default:
		return false
	}
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || ('a' <= r && r <= 'f') || ('A' <= r && r <= 'F')
}

func digitValue(r rune) int {
	switch {
	case isDigit(r):
		return int(r - '0')
	case 'a' <= r && r <= 'f':
		return int(r-'a') + 10
	case 'A' <= r && r <= 'F':
		return int(r-'A') + 10
	default:
		return 16
	}
}

func containsDigit(s string) bool {
	for _, r := range s {
		if r != '_' {
			return true
		}
	}
	return false
}

func isIdentStart(r rune) bool {
	return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || r == '_' || (r > utf8.RuneSelf && unicode.IsLetter(r))
}

func isIdentContinue(r rune) bool {
	return isIdentStart(r) || isDigit(r) || (r > utf8.RuneSelf && unicode.IsDigit(r))
}

// next reads the next character into l.ch and advances the lexer.
// If the end of the source code has been reached, l.ch is set to eof.
func (l *lexer) next() {
	if l.ch == eof {
		return
	}

	l.offset = l.readOffset

	if l.ch == '\n' {
		l.pos.Line++
		l.pos.Column = 0
	} else {
		l.pos.Column += l.lastReadSize
	}

	if l.readOffset == len(l.src) {
		l.ch = eof
		l.lastReadSize = 0
		return
	}

	r, size := utf8.DecodeRune(l.src[l.readOffset:])
	l.lastReadSize = size
	l.readOffset += size
	l.ch = r
}

// peekAt returns the byte n bytes after the next one without advancing the lexer, so peekAt(0) is the same as peek.
// If the end of the source code has been reached, eof is returned.
func (l *lexer) peekAt(n int) rune {
	if l.readOffset+n >= len(l.src) {
		return eof
	}
	return rune(l.src[l.readOffset+n])
}

// peek returns the next byte without advancing the lexer.
// If the end of the source code has been reached, eof is returned.
func (l *lexer) peek() rune {
	if l.readOffset >= len(l.src) {
		return eof
	}
	return rune(l.src[l.readOffset])
}
