package ast

import (
	"fmt"
	"strings"
)

// Print prints an AST Node to stdout as an s-expression.
func Print(node Node) {
	fmt.Println(Sprint(node))
}

// Sprint formats an AST Node as an s-expression, such as
//
//	(array 1u8 (- 2) "three")
func Sprint(node Node) string {
	var b strings.Builder
	sprint(&b, node)
	return b.String()
}

func sprint(b *strings.Builder, node Node) {
	switch node := node.(type) {
	case Array:
		b.WriteString("(array")
		for _, elem := range node.Elems {
			b.WriteByte(' ')
			sprint(b, elem)
		}
		b.WriteByte(')')
	case LiteralExpr:
		b.WriteString(node.Value.Lexeme)
	case UnaryExpr:
		fmt.Fprintf(b, "(%s ", node.Op.Lexeme)
		sprint(b, node.Right)
		b.WriteByte(')')
	case IdentExpr:
		b.WriteString(node.Name.Lexeme)
	default:
		panic(fmt.Sprintf("unexpected ast.Node: %#v", node))
	}
}
