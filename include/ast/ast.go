// Package ast declares the types used to represent the abstract syntax tree of an array literal.
package ast

import (
	"github.com/marcuscaisey/lazyinclude/include/token"
)

// Node is the interface which all AST nodes implement.
//
//gosumtype:decl Node
type Node interface {
	token.CharacterRange
	isNode()
}

type node struct{}

func (node) isNode() {}

// Expr is the interface which all array element nodes implement.
//
//gosumtype:decl Expr
type Expr interface {
	Node
	isExpr()
}

type expr struct {
	node
}

func (expr) isExpr() {}

// Array is a bracketed, comma-separated list of elements, such as [1, 2, 3].
// An Array is also an Expr so that nested arrays can be represented and rejected with a precise error.
type Array struct {
	LeftBracket  token.Token
	Elems        []Expr
	RightBracket token.Token
	expr
}

func (a Array) Start() token.Position { return a.LeftBracket.StartPos }
func (a Array) End() token.Position   { return a.RightBracket.EndPos }

// LiteralExpr is a literal value, such as 123, 1.5f32, 'a', "abc" or true.
type LiteralExpr struct {
	Value token.Token
	expr
}

func (e LiteralExpr) Start() token.Position { return e.Value.StartPos }
func (e LiteralExpr) End() token.Position   { return e.Value.EndPos }

// UnaryExpr is a negated expression, such as -123.
type UnaryExpr struct {
	Op    token.Token
	Right Expr
	expr
}

func (e UnaryExpr) Start() token.Position { return e.Op.StartPos }
func (e UnaryExpr) End() token.Position   { return e.Right.End() }

// IdentExpr is an identifier which isn't a keyword, such as foo.
type IdentExpr struct {
	Name token.Token
	expr
}

func (e IdentExpr) Start() token.Position { return e.Name.StartPos }
func (e IdentExpr) End() token.Position   { return e.Name.EndPos }
