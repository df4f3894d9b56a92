// Package arraylit decodes the text of array literals, such as [1, 2, 3] or ["a", "b"], into Go slices with a fixed
// number of elements of a declared element type.
package arraylit

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/marcuscaisey/lazyinclude/include"
	"github.com/marcuscaisey/lazyinclude/include/ast"
	"github.com/marcuscaisey/lazyinclude/include/parser"
	"github.com/marcuscaisey/lazyinclude/include/token"
)

// Value is a decoded array element. Only the field corresponding to the class of Desc is set.
type Value struct {
	Desc  *Desc
	Bool  bool
	Char  rune
	Str   string
	Int   *big.Int
	Float float64
}

// String formats the value as it would appear in an array literal.
func (v Value) String() string {
	switch v.Desc.class {
	case classBool:
		return strconv.FormatBool(v.Bool)
	case classChar:
		return strconv.QuoteRune(v.Char)
	case classStr:
		return strconv.Quote(v.Str)
	case classInt:
		return v.Int.String()
	case classFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, v.Desc.bits)
	default:
		panic(fmt.Sprintf("unexpected element class %d", v.Desc.class))
	}
}

// Clone returns a copy of the value which shares no memory with it.
func (v Value) Clone() Value {
	if v.Int != nil {
		v.Int = new(big.Int).Set(v.Int)
	}
	return v
}

// GoLiteral returns a Go expression which evaluates to the value when it's used as an element of a composite literal
// of the value's Go type.
func (v Value) GoLiteral() string {
	switch v.Desc.class {
	case classInt:
		if v.Desc.IsBig() {
			return fmt.Sprintf("arraylit.BigInt(%q)", v.Int.String())
		}
		return v.Int.String()
	case classFloat:
		if v.Float == 0 && math.Signbit(v.Float) {
			// Constants don't have negative zero.
			return fmt.Sprintf("%s(math.Copysign(0, -1))", v.Desc.GoType)
		}
		return v.String()
	default:
		return v.String()
	}
}

// Decode decodes the array literal in src into a slice of exactly n elements of type T.
// filename is used to describe the location of errors. Any error returned is an [*include.Error].
func Decode[T any](src []byte, filename string, typ ElemType[T], n int) ([]T, error) {
	values, err := DecodeValues(src, filename, typ.desc, n)
	if err != nil {
		return nil, err
	}
	elems := make([]T, len(values))
	for i, v := range values {
		elems[i] = typ.from(v)
	}
	return elems, nil
}

// DecodeValues is like [Decode] but returns the elements as [Value]s so that the element type can be chosen at
// runtime.
// If n is negative then the array can have any number of elements.
func DecodeValues(src []byte, filename string, desc *Desc, n int) ([]Value, error) {
	root, err := parser.Parse(src, filename)
	if err != nil {
		return nil, err
	}

	values := make([]Value, 0, max(n, 0))
	for i, elem := range root.Elems {
		if n >= 0 && i >= n {
			return nil, include.NewElementError(include.Length, i, elem, "incorrect length, bigger than %d", n)
		}
		v, err := desc.decode(i, elem)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if n >= 0 && len(values) != n {
		return nil, include.NewError(include.Length, root.RightBracket, "incorrect length, expected %d elements, found %d", n, len(values))
	}
	return values, nil
}

// decode converts a single element of the root array.
func (d *Desc) decode(index int, elem ast.Expr) (Value, error) {
	errorf := func(kind include.Kind, charRange token.CharacterRange, format string, args ...any) (Value, error) {
		return Value{}, include.NewElementError(kind, index, charRange, format, args...)
	}

	negated := false
	inner := elem
	if unary, ok := elem.(ast.UnaryExpr); ok {
		switch {
		case d.class != classInt && d.class != classFloat:
			return errorf(include.ElementType, elem, "expected %s literal, found negated expression", d.Name)
		case !d.signed:
			return errorf(include.ElementType, elem, "negative literal is not allowed in an array of %s", d.Name)
		}
		negated = true
		inner = unary.Right
	}

	lit, ok := inner.(ast.LiteralExpr)
	if !ok {
		return errorf(include.ElementType, elem, "expected %s literal, found %s", d.Name, describe(inner))
	}
	tok := lit.Value

	switch d.class {
	case classBool:
		if tok.Type != token.True && tok.Type != token.False {
			return errorf(include.ElementType, elem, "expected bool literal, found %s", describe(lit))
		}
		return Value{Desc: d, Bool: tok.Type == token.True}, nil

	case classChar:
		if tok.Type != token.Char {
			return errorf(include.ElementType, elem, "expected char literal, found %s", describe(lit))
		}
		r, err := parser.UnquoteChar(tok.Lexeme)
		if err != nil {
			return errorf(include.MalformedArray, elem, "%s", err)
		}
		return Value{Desc: d, Char: r}, nil

	case classStr:
		if tok.Type != token.String {
			return errorf(include.ElementType, elem, "expected string literal, found %s", describe(lit))
		}
		s, err := parser.Unquote(tok.Lexeme)
		if err != nil {
			return errorf(include.MalformedArray, elem, "%s", err)
		}
		return Value{Desc: d, Str: s}, nil
	}

	if tok.Type != token.Int && tok.Type != token.Float {
		return errorf(include.ElementType, elem, "expected %s literal, found %s", d.Name, describe(lit))
	}
	if tok.Suffix != "" && tok.Suffix != d.Name {
		return errorf(include.SuffixMismatch, elem, "literal has type suffix %s but the array's element type is %s", tok.Suffix, d.Name)
	}

	if d.class == classInt {
		if tok.Type == token.Float {
			return errorf(include.ElementType, elem, "expected %s literal, found float literal", d.Name)
		}
		n, err := parser.IntValue(tok)
		if err != nil {
			return errorf(include.MalformedArray, elem, "%s", err)
		}
		if negated {
			n.Neg(n)
		}
		switch {
		case n.Cmp(d.max) > 0:
			return errorf(include.Range, elem, "%s is out of range for %s (max %s)", n, d.Name, d.max)
		case n.Cmp(d.min) < 0:
			return errorf(include.Range, elem, "%s is out of range for %s (min %s)", n, d.Name, d.min)
		}
		return Value{Desc: d, Int: n}, nil
	}

	if tok.Type == token.Int && tok.Suffix == "" {
		return errorf(include.ElementType, elem, "expected %s literal, found integer literal", d.Name)
	}
	f, err := strconv.ParseFloat(parser.FloatText(tok), d.bits)
	if math.IsInf(f, 0) {
		return errorf(include.Range, elem, "%s is out of range for %s (max %g)", tok.Body(), d.Name, maxFloat(d.bits))
	}
	if err != nil {
		return errorf(include.MalformedArray, elem, "invalid float literal %s", tok.Lexeme)
	}
	if negated {
		f = -f
	}
	return Value{Desc: d, Float: f}, nil
}

// describe returns a description of an expression for use in an error message.
func describe(expr ast.Expr) string {
	switch expr := expr.(type) {
	case ast.Array:
		return "nested array"
	case ast.UnaryExpr:
		return "negated expression"
	case ast.IdentExpr:
		return fmt.Sprintf("identifier %s", expr.Name.Lexeme)
	case ast.LiteralExpr:
		switch expr.Value.Type {
		case token.True, token.False:
			return "bool literal"
		default:
			return expr.Value.Type.Description()
		}
	default:
		panic(fmt.Sprintf("unexpected ast.Expr: %#v", expr))
	}
}
