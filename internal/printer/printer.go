// Package printer outputs source code from a tree.
//
// The printer can operate in two modes:
// - Pretty: Human-readable output with indentation
// - Minified: Minimal whitespace output
//
// Output goes through a Sink so callers can measure code size without
// building the string, and can stop printing early once a budget is spent.
// The tree carries no parenthesis nodes; parentheses are derived from
// operator precedence while printing.
package printer

import (
	"fmt"
	"strings"

	"github.com/HugoDaniel/fninline/internal/ast"
	"github.com/HugoDaniel/fninline/internal/lexer"
)

// Options controls printer output.
type Options struct {
	// MinifyWhitespace removes unnecessary whitespace
	MinifyWhitespace bool
}

// Sink receives printed text.
type Sink interface {
	// Write receives keywords, punctuation, literals and whitespace.
	Write(s string)
	// WriteName receives identifiers.
	WriteName(name string)
	// Continue reports whether printing should go on.
	Continue() bool
}

type stringSink struct {
	buf strings.Builder
}

func (s *stringSink) Write(str string)      { s.buf.WriteString(str) }
func (s *stringSink) WriteName(name string) { s.buf.WriteString(name) }
func (s *stringSink) Continue() bool        { return true }

// Printer outputs code.
type Printer struct {
	options Options
	tree    *ast.Tree
	out     Sink
	indent  int

	// Last byte written, used to keep adjacent tokens apart.
	last byte
}

// New creates a new printer.
func New(options Options) *Printer {
	return &Printer{options: options}
}

// Print outputs the subtree rooted at id as a string.
func (p *Printer) Print(tree *ast.Tree, id ast.NodeID) string {
	sink := &stringSink{}
	p.PrintTo(sink, tree, id)
	return sink.buf.String()
}

// PrintTo streams the subtree rooted at id into out.
func (p *Printer) PrintTo(out Sink, tree *ast.Tree, id ast.NodeID) {
	p.tree, p.out, p.indent, p.last = tree, out, 0, 0

	switch {
	case tree.Kind(id) == ast.KindScript:
		for _, stmt := range tree.Children(id) {
			p.printStmt(stmt)
		}
	case isStatementKind(tree.Kind(id)):
		p.printStmt(id)
	default:
		p.printExpr(id, precLowest)
	}
}

// Compact prints a subtree with minified whitespace.
func Compact(tree *ast.Tree, id ast.NodeID) string {
	return New(Options{MinifyWhitespace: true}).Print(tree, id)
}

// ----------------------------------------------------------------------------
// Output Helpers
// ----------------------------------------------------------------------------

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (p *Printer) separate(first byte) {
	if (isIdentByte(p.last) && isIdentByte(first)) ||
		((first == '+' || first == '-') && p.last == first) {
		p.out.Write(" ")
		p.last = ' '
	}
}

func (p *Printer) print(s string) {
	if s == "" {
		return
	}
	p.separate(s[0])
	p.out.Write(s)
	p.last = s[len(s)-1]
}

func (p *Printer) printName(name string) {
	if name == "" {
		return
	}
	p.separate(name[0])
	p.out.WriteName(name)
	p.last = name[len(name)-1]
}

func (p *Printer) printSpace() {
	if !p.options.MinifyWhitespace {
		p.out.Write(" ")
		p.last = ' '
	}
}

func (p *Printer) printNewline() {
	if !p.options.MinifyWhitespace {
		p.out.Write("\n")
		p.last = '\n'
	}
}

func (p *Printer) printIndent() {
	if !p.options.MinifyWhitespace && p.indent > 0 {
		p.out.Write(strings.Repeat("    ", p.indent))
		p.last = ' '
	}
}

// printOp prints a binary-style operator, spaced in pretty mode.
func (p *Printer) printOp(op string) {
	p.printSpace()
	p.print(op)
	p.printSpace()
}

func (p *Printer) printComma() {
	p.print(",")
	p.printSpace()
}

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

func isStatementKind(k ast.Kind) bool {
	switch k {
	case ast.KindBlock, ast.KindLabel, ast.KindExprResult, ast.KindVar,
		ast.KindReturn, ast.KindIf, ast.KindWhile, ast.KindDoWhile,
		ast.KindFor, ast.KindBreak, ast.KindContinue, ast.KindEmpty:
		return true
	}
	return false
}

func (p *Printer) printStmt(id ast.NodeID) {
	if !p.out.Continue() {
		return
	}
	p.printIndent()
	p.printStmtBody(id)
	p.printNewline()
}

func (p *Printer) printStmtBody(id ast.NodeID) {
	t := p.tree

	switch t.Kind(id) {
	case ast.KindBlock:
		p.printBlock(id)

	case ast.KindLabel:
		p.printName(t.Str(id))
		p.print(":")
		p.printSpace()
		p.printStmtBody(t.FirstChild(id))

	case ast.KindExprResult:
		expr := t.FirstChild(id)
		if startsWithFunctionOrObject(t, expr) {
			p.print("(")
			p.printExpr(expr, precLowest)
			p.print(")")
		} else {
			p.printExpr(expr, precLowest)
		}
		p.print(";")

	case ast.KindVar:
		p.printVar(id)
		p.print(";")

	case ast.KindFunction:
		p.printFunction(id)

	case ast.KindReturn:
		p.print("return")
		if value := t.FirstChild(id); value.IsValid() {
			p.printSpace()
			p.printExpr(value, precLowest)
		}
		p.print(";")

	case ast.KindIf:
		p.print("if")
		p.printSpace()
		p.print("(")
		p.printExpr(t.Child(id, 0), precLowest)
		p.print(")")
		p.printSpace()
		p.printBlock(t.Child(id, 1))
		if els := t.Child(id, 2); els.IsValid() {
			p.printSpace()
			p.print("else")
			p.printSpace()
			if inner := t.FirstChild(els); t.ChildCount(els) == 1 && t.Kind(inner) == ast.KindIf {
				p.printStmtBody(inner)
			} else {
				p.printBlock(els)
			}
		}

	case ast.KindWhile:
		p.print("while")
		p.printSpace()
		p.print("(")
		p.printExpr(t.Child(id, 0), precLowest)
		p.print(")")
		p.printSpace()
		p.printLoopBody(t.Child(id, 1))

	case ast.KindDoWhile:
		p.print("do")
		p.printSpace()
		p.printLoopBody(t.Child(id, 0))
		p.printSpace()
		p.print("while")
		p.printSpace()
		p.print("(")
		p.printExpr(t.Child(id, 1), precLowest)
		p.print(");")

	case ast.KindFor:
		p.print("for")
		p.printSpace()
		p.print("(")
		if init := t.Child(id, 0); t.Kind(init) == ast.KindVar {
			p.printVar(init)
		} else if t.Kind(init) != ast.KindEmpty {
			p.printExpr(init, precLowest)
		}
		p.print(";")
		if cond := t.Child(id, 1); t.Kind(cond) != ast.KindEmpty {
			p.printSpace()
			p.printExpr(cond, precLowest)
		}
		p.print(";")
		if update := t.Child(id, 2); t.Kind(update) != ast.KindEmpty {
			p.printSpace()
			p.printExpr(update, precLowest)
		}
		p.print(")")
		p.printSpace()
		p.printLoopBody(t.Child(id, 3))

	case ast.KindBreak, ast.KindContinue:
		if t.Kind(id) == ast.KindBreak {
			p.print("break")
		} else {
			p.print("continue")
		}
		if label := t.Str(id); label != "" {
			p.print(" ")
			p.printName(label)
		}
		p.print(";")

	case ast.KindEmpty:
		p.print(";")

	default:
		panic(fmt.Sprintf("printer: unexpected statement kind %v", t.Kind(id)))
	}
}

func (p *Printer) printLoopBody(body ast.NodeID) {
	if p.tree.Kind(body) == ast.KindBlock {
		p.printBlock(body)
		return
	}
	p.printStmtBody(body)
}

func (p *Printer) printBlock(id ast.NodeID) {
	children := p.tree.Children(id)
	if len(children) == 0 {
		p.print("{}")
		return
	}
	p.print("{")
	p.printNewline()
	p.indent++
	for _, stmt := range children {
		p.printStmt(stmt)
	}
	p.indent--
	p.printIndent()
	p.print("}")
}

func (p *Printer) printVar(id ast.NodeID) {
	t := p.tree
	p.print("var")
	p.print(" ")
	for i, name := range t.Children(id) {
		if i > 0 {
			p.printComma()
		}
		p.printName(t.Str(name))
		if init := t.FirstChild(name); init.IsValid() {
			p.printOp("=")
			p.printExpr(init, precComma+1)
		}
	}
}

func (p *Printer) printFunction(id ast.NodeID) {
	t := p.tree
	p.print("function")
	if name := t.Str(id); name != "" {
		p.print(" ")
		p.printName(name)
	}
	p.print("(")
	for i, param := range t.Children(ast.FunctionParams(t, id)) {
		if i > 0 {
			p.printComma()
		}
		p.printName(t.Str(param))
	}
	p.print(")")
	p.printSpace()
	p.printBlock(ast.FunctionBody(t, id))
}

// startsWithFunctionOrObject reports whether printing expr would begin with
// "function" or "{", which a statement cannot start with.
func startsWithFunctionOrObject(t *ast.Tree, expr ast.NodeID) bool {
	for {
		switch t.Kind(expr) {
		case ast.KindFunction, ast.KindObject:
			return true
		case ast.KindCall, ast.KindGetProp, ast.KindGetElem, ast.KindAssign,
			ast.KindBinary, ast.KindAnd, ast.KindOr, ast.KindHook, ast.KindComma:
			expr = t.FirstChild(expr)
		case ast.KindUpdate:
			if !t.Flags(expr).Has(ast.FlagPostfix) {
				return false
			}
			expr = t.FirstChild(expr)
		default:
			return false
		}
	}
}

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

const (
	precLowest = iota
	precComma
	precAssign
	precConditional
	precOr
	precAnd
	precBitOr
	precBitXor
	precBitAnd
	precEquals
	precCompare
	precShift
	precAdd
	precMultiply
	precPrefix
	precPostfix
	precCall
)

func binaryPrec(op string) int {
	switch op {
	case "|":
		return precBitOr
	case "^":
		return precBitXor
	case "&":
		return precBitAnd
	case "==", "!=", "===", "!==":
		return precEquals
	case "<", ">", "<=", ">=", "instanceof", "in":
		return precCompare
	case "<<", ">>", ">>>":
		return precShift
	case "+", "-":
		return precAdd
	case "*", "/", "%":
		return precMultiply
	}
	panic(fmt.Sprintf("printer: unknown binary operator %q", op))
}

func (p *Printer) printExpr(id ast.NodeID, level int) {
	if !p.out.Continue() {
		return
	}
	t := p.tree

	switch t.Kind(id) {
	case ast.KindName:
		p.printName(t.Str(id))

	case ast.KindThis:
		p.print("this")

	case ast.KindNumber:
		p.print(t.Str(id))

	case ast.KindString:
		p.print(quoteString(t.Str(id)))

	case ast.KindTrue:
		p.print("true")

	case ast.KindFalse:
		p.print("false")

	case ast.KindNull:
		p.print("null")

	case ast.KindFunction:
		p.printFunction(id)

	case ast.KindArray:
		p.print("[")
		for i, elem := range t.Children(id) {
			if i > 0 {
				p.printComma()
			}
			p.printExpr(elem, precComma+1)
		}
		p.print("]")

	case ast.KindObject:
		p.print("{")
		for i, prop := range t.Children(id) {
			if i > 0 {
				p.printComma()
			}
			if key := t.Str(prop); lexer.IsIdentifier(key) {
				p.print(key)
			} else {
				p.print(quoteString(key))
			}
			p.print(":")
			p.printSpace()
			p.printExpr(t.FirstChild(prop), precComma+1)
		}
		p.print("}")

	case ast.KindCall:
		p.wrap(level > precCall, func() {
			p.printExpr(ast.CallTarget(t, id), precCall)
			p.printArgs(ast.CallArgs(t, id))
		})

	case ast.KindNew:
		p.wrap(level > precCall, func() {
			p.print("new")
			p.print(" ")
			callee := ast.CallTarget(t, id)
			p.wrap(containsCall(t, callee), func() {
				p.printExpr(callee, precCall)
			})
			p.printArgs(ast.CallArgs(t, id))
		})

	case ast.KindGetProp:
		p.wrap(level > precCall, func() {
			p.printMemberObject(t.FirstChild(id))
			p.print(".")
			p.print(t.Str(id))
		})

	case ast.KindGetElem:
		p.wrap(level > precCall, func() {
			p.printMemberObject(t.FirstChild(id))
			p.print("[")
			p.printExpr(t.Child(id, 1), precLowest)
			p.print("]")
		})

	case ast.KindAssign:
		p.wrap(level > precAssign, func() {
			p.printExpr(t.Child(id, 0), precPostfix)
			p.printOp(t.Str(id))
			p.printExpr(t.Child(id, 1), precAssign)
		})

	case ast.KindHook:
		p.wrap(level > precConditional, func() {
			p.printExpr(t.Child(id, 0), precOr)
			p.printOp("?")
			p.printExpr(t.Child(id, 1), precAssign)
			p.printOp(":")
			p.printExpr(t.Child(id, 2), precAssign)
		})

	case ast.KindComma:
		p.wrap(level > precComma, func() {
			p.printExpr(t.Child(id, 0), precComma)
			p.printComma()
			p.printExpr(t.Child(id, 1), precComma+1)
		})

	case ast.KindOr:
		p.printBinary(id, "||", precOr, level)

	case ast.KindAnd:
		p.printBinary(id, "&&", precAnd, level)

	case ast.KindBinary:
		p.printBinary(id, t.Str(id), binaryPrec(t.Str(id)), level)

	case ast.KindUnary:
		p.wrap(level > precPrefix, func() {
			p.print(t.Str(id))
			p.printExpr(t.FirstChild(id), precPrefix)
		})

	case ast.KindUpdate:
		if t.Flags(id).Has(ast.FlagPostfix) {
			p.wrap(level > precPostfix, func() {
				p.printExpr(t.FirstChild(id), precPostfix)
				p.print(t.Str(id))
			})
		} else {
			p.wrap(level > precPrefix, func() {
				p.print(t.Str(id))
				p.printExpr(t.FirstChild(id), precPrefix)
			})
		}

	default:
		panic(fmt.Sprintf("printer: unexpected expression kind %v", t.Kind(id)))
	}
}

func (p *Printer) wrap(parens bool, body func()) {
	if parens {
		p.print("(")
	}
	body()
	if parens {
		p.print(")")
	}
}

func (p *Printer) printBinary(id ast.NodeID, op string, prec, level int) {
	t := p.tree
	p.wrap(level > prec, func() {
		p.printExpr(t.Child(id, 0), prec)
		p.printOp(op)
		p.printExpr(t.Child(id, 1), prec+1)
	})
}

func (p *Printer) printArgs(args []ast.NodeID) {
	p.print("(")
	for i, arg := range args {
		if i > 0 {
			p.printComma()
		}
		p.printExpr(arg, precComma+1)
	}
	p.print(")")
}

// printMemberObject prints the object of a property access. Number literals
// are wrapped so the dot is not read as a decimal point.
func (p *Printer) printMemberObject(obj ast.NodeID) {
	p.wrap(p.tree.Kind(obj) == ast.KindNumber, func() {
		p.printExpr(obj, precCall)
	})
}

// containsCall reports whether a new-expression callee holds a call along
// its member chain, which would otherwise bind the arguments to "new".
func containsCall(t *ast.Tree, callee ast.NodeID) bool {
	for {
		switch t.Kind(callee) {
		case ast.KindCall:
			return true
		case ast.KindGetProp, ast.KindGetElem:
			callee = t.FirstChild(callee)
		default:
			return false
		}
	}
}

func quoteString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if c < 0x20 || c == 0x7f {
				fmt.Fprintf(&sb, `\x%02x`, c)
			} else {
				sb.WriteByte(c)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
