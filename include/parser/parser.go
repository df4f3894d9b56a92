// Package parser implements a parser for array literals such as [1, -2, 3u8] or ["a", "b"].
package parser

import (
	"bytes"
	"unicode/utf8"

	"github.com/marcuscaisey/lazyinclude/include"
	"github.com/marcuscaisey/lazyinclude/include/ast"
	"github.com/marcuscaisey/lazyinclude/include/token"
)

// Parse parses the array literal in src. filename is used to describe the location of errors.
// Leading and trailing whitespace is ignored but otherwise src must begin with '[' and end with ']'.
// Any error returned is a [*include.Error] of kind [include.MalformedArray].
func Parse(src []byte, filename string) (ast.Array, error) {
	lexer := newLexer(src, filename)
	p := &parser{lexer: lexer, file: filename, index: -1}
	lexer.SetErrorHandler(func(tok token.Token, format string, args ...any) {
		p.lexErrs = append(p.lexErrs, lexError{tok: tok, err: include.NewError(include.MalformedArray, tok, format, args...)})
	})
	return p.Parse(src)
}

type parser struct {
	lexer   *lexer
	file    string
	tok     token.Token // token currently being considered
	nextTok token.Token

	lexErrs []lexError
	index   int // index of the element currently being parsed, or -1
	err     *include.Error
}

type lexError struct {
	tok token.Token
	err *include.Error
}

// Parse parses the source code and returns the root node of the abstract syntax tree.
func (p *parser) Parse(src []byte) (root ast.Array, err error) {
	if e := p.checkBrackets(src); e != nil {
		return ast.Array{}, e
	}

	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(unwind); ok {
				root, err = ast.Array{}, p.err
			} else {
				panic(r)
			}
		}
	}()

	// Populate tok and nextTok
	p.next()
	p.next()

	leftBracket := p.expect(token.LeftBracket)
	root = p.parseArray(leftBracket)
	p.expectf(token.EOF, "unexpected %m after the closing ']' of the array", p.tok.Type)
	return root, nil
}

// checkBrackets checks that the trimmed source begins with '[' and ends with ']'.
func (p *parser) checkBrackets(src []byte) error {
	trimmed := bytes.TrimFunc(src, isWhitespace)
	if len(trimmed) > 0 && trimmed[0] == '[' && trimmed[len(trimmed)-1] == ']' {
		return nil
	}
	file := token.NewFile(p.file, src)
	startOffset := len(src) - len(bytes.TrimLeftFunc(src, isWhitespace))
	endOffset := len(bytes.TrimRightFunc(src, isWhitespace))
	if len(trimmed) == 0 {
		pos := positionOf(file, src, startOffset)
		return include.NewError(include.MalformedArray, token.Range(pos, pos), "expected an array literal, found empty input")
	}
	if trimmed[0] != '[' {
		_, size := utf8.DecodeRune(trimmed)
		start := positionOf(file, src, startOffset)
		end := positionOf(file, src, startOffset+size)
		return include.NewError(include.MalformedArray, token.Range(start, end), "expected an array literal beginning with '['")
	}
	_, size := utf8.DecodeLastRune(trimmed)
	start := positionOf(file, src, endOffset-size)
	end := positionOf(file, src, endOffset)
	return include.NewError(include.MalformedArray, token.Range(start, end), "expected an array literal ending with ']'")
}

// positionOf returns the position of the byte at offset in src.
func positionOf(file *token.File, src []byte, offset int) token.Position {
	line := bytes.Count(src[:offset], []byte("\n")) + 1
	col := offset - (bytes.LastIndexByte(src[:offset], '\n') + 1)
	return token.Position{File: file, Line: line, Column: col}
}

// parseArray parses the elements of an array and its closing bracket. The opening bracket has already been consumed.
func (p *parser) parseArray(leftBracket token.Token) ast.Array {
	array := ast.Array{LeftBracket: leftBracket}
	outerIndex := p.index
	isRoot := outerIndex == -1
	for p.tok.Type != token.RightBracket {
		if isRoot {
			p.index = len(array.Elems)
		}
		array.Elems = append(array.Elems, p.parseElem())
		if isRoot {
			p.index = -1
		}
		if !p.match(token.Comma) {
			break
		}
	}
	if p.tok.Type != token.RightBracket {
		p.errorf(p.tok, "expected ',' or ']' after element %d", len(array.Elems)-1)
	}
	array.RightBracket = p.tok
	p.next()
	p.index = outerIndex
	return array
}

// parseElem parses a single array element:
//
//	Element := Literal | '-' Element | Ident | Array
//
// Only literals and negated literals are valid elements but the other forms are parsed so that they can be reported
// as having the wrong type rather than as a syntax error.
func (p *parser) parseElem() ast.Expr {
	switch tok := p.tok; {
	case p.match(token.Minus):
		return ast.UnaryExpr{Op: tok, Right: p.parseElem()}
	case p.match(token.Int, token.Float, token.Char, token.String, token.ByteChar, token.ByteString, token.True, token.False):
		return ast.LiteralExpr{Value: tok}
	case p.match(token.Ident):
		return ast.IdentExpr{Name: tok}
	case p.match(token.LeftBracket):
		return p.parseArray(tok)
	default:
		if tok.Type == token.Comma || tok.Type == token.RightBracket {
			p.errorf(tok, "expected array element, found %m", tok.Type)
		}
		p.errorf(tok, "expected array element")
		panic("unreachable")
	}
}

// match reports whether the current token is one of the given types and advances the parser if so.
func (p *parser) match(types ...token.Type) bool {
	for _, t := range types {
		if p.tok.Type == t {
			p.next()
			return true
		}
	}
	return false
}

// expect returns the current token and advances the parser if it has the given type. Otherwise, an "expected %m" error
// is recorded and the method panics to unwind the stack.
func (p *parser) expect(t token.Type) token.Token {
	return p.expectf(t, "expected %m", t)
}

// expectf is like expect but accepts a format string for the error message.
func (p *parser) expectf(t token.Type, format string, a ...any) token.Token {
	if p.tok.Type == t {
		tok := p.tok
		p.next()
		return tok
	}
	p.errorf(p.tok, format, a...)
	panic("unreachable")
}

// next advances the parser to the next token.
func (p *parser) next() {
	p.tok = p.nextTok
	p.nextTok = p.lexer.Next()
}

// errorf records an error for tok and panics to unwind the stack.
// If tok is illegal then the error reported by the lexer for it is recorded instead.
func (p *parser) errorf(tok token.Token, format string, args ...any) {
	var err *include.Error
	if tok.Type == token.Illegal {
		for _, lexErr := range p.lexErrs {
			if lexErr.tok.StartPos == tok.StartPos {
				err = lexErr.err
				break
			}
		}
	}
	if err == nil {
		err = include.NewError(include.MalformedArray, tok, format, args...)
	}
	err.Index = p.index
	p.err = err
	panic(unwind{})
}

// unwind is used as a panic value so that we can unwind the stack and return the first syntax error without having to
// check for errors after every call to each parsing method.
type unwind struct{}
