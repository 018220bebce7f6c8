// Package parser turns source text into an ast.Tree.
//
// The parser is a single-pass recursive-descent parser. It performs no scope
// analysis; normalization (unique names, constant propagation) is a separate
// step in the renamer package. Statement bodies of if and loop statements
// are always wrapped in a Block so later passes can insert statements next to
// any statement without restructuring.
package parser

import (
	"fmt"

	"github.com/HugoDaniel/fninline/internal/ast"
	"github.com/HugoDaniel/fninline/internal/diagnostic"
	"github.com/HugoDaniel/fninline/internal/lexer"
)

// Parser parses source into a tree.
type Parser struct {
	source    string
	tokens    []lexer.Token
	pos       int
	lineIndex *diagnostic.LineIndex
	tree      *ast.Tree

	// Errors
	errors []ParseError
}

// ParseError represents a parsing error.
type ParseError struct {
	Message string
	Pos     int
	Line    int
	Column  int
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// New creates a new parser for the given source.
func New(source string) *Parser {
	return &Parser{
		source:    source,
		tokens:    lexer.New(source).Tokenize(),
		lineIndex: diagnostic.NewLineIndex(source),
		tree:      ast.NewTree(),
	}
}

// Parse parses the source and returns the tree. The tree is usable only when
// no errors are returned.
func (p *Parser) Parse() (*ast.Tree, []ParseError) {
	root := p.tree.Root
	for p.current().Kind != lexer.TokEOF {
		if stmt := p.parseStatementRecover(); stmt.IsValid() {
			p.tree.AddChildToBack(root, stmt)
		}
	}
	return p.tree, p.errors
}

// Parse is a convenience wrapper around New(source).Parse().
func Parse(source string) (*ast.Tree, []ParseError) {
	return New(source).Parse()
}

// ----------------------------------------------------------------------------
// Token Helpers
// ----------------------------------------------------------------------------

func (p *Parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Kind: lexer.TokEOF, Start: len(p.source), End: len(p.source)}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peek(offset int) lexer.Token {
	pos := p.pos + offset
	if pos >= len(p.tokens) {
		return lexer.Token{Kind: lexer.TokEOF, Start: len(p.source), End: len(p.source)}
	}
	return p.tokens[pos]
}

func (p *Parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(kind lexer.TokenKind) (lexer.Token, bool) {
	tok := p.current()
	if tok.Kind != kind {
		p.unexpected(fmt.Sprintf("expected %s", kind))
		return tok, false
	}
	p.advance()
	return tok, true
}

func (p *Parser) match(kind lexer.TokenKind) bool {
	if p.current().Kind == kind {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) unexpected(msg string) {
	tok := p.current()
	if tok.Kind == lexer.TokError {
		p.error(tok.Value)
		return
	}
	p.error(fmt.Sprintf("%s, got %s", msg, tok.Kind))
}

func (p *Parser) error(msg string) {
	tok := p.current()
	line, col := p.lineIndex.ByteOffsetToLineColumn(tok.Start)
	p.errors = append(p.errors, ParseError{
		Message: msg,
		Pos:     tok.Start,
		Line:    line + 1, // Convert to 1-based
		Column:  col + 1,  // Convert to 1-based
	})
}

// consumeSemicolon accepts an explicit semicolon or the positions where one
// may be omitted: before "}", at end of input, or after a line break.
func (p *Parser) consumeSemicolon() {
	if p.match(lexer.TokSemicolon) {
		return
	}
	tok := p.current()
	if tok.Kind == lexer.TokRBrace || tok.Kind == lexer.TokEOF || tok.NewlineBefore {
		return
	}
	p.unexpected("expected ;")
}

func (p *Parser) node(kind ast.Kind, str string, start int, children ...ast.NodeID) ast.NodeID {
	id := p.tree.NewNode(kind, str, children...)
	p.tree.SetLoc(id, ast.Loc{Start: int32(start)})
	return id
}

// ----------------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------------

func (p *Parser) parseStatementRecover() ast.NodeID {
	before, errs := p.pos, len(p.errors)
	stmt := p.parseStatement()
	if len(p.errors) > errs {
		// Skip to a statement boundary so one mistake yields one error.
		for k := p.current().Kind; k != lexer.TokEOF && k != lexer.TokSemicolon && k != lexer.TokRBrace; k = p.current().Kind {
			p.advance()
		}
		p.match(lexer.TokSemicolon)
	}
	if p.pos == before {
		p.advance()
	}
	return stmt
}

func (p *Parser) parseStatement() ast.NodeID {
	tok := p.current()

	switch tok.Kind {
	case lexer.TokLBrace:
		return p.parseBlock()

	case lexer.TokVar, lexer.TokConst:
		decl := p.parseVarDecl(true)
		p.consumeSemicolon()
		return decl

	case lexer.TokFunction:
		return p.parseFunction(true)

	case lexer.TokReturn:
		return p.parseReturn()

	case lexer.TokIf:
		return p.parseIf()

	case lexer.TokWhile:
		p.advance()
		cond := p.parseParenExpression()
		body := p.parseBody()
		return p.node(ast.KindWhile, "", tok.Start, cond, body)

	case lexer.TokDo:
		p.advance()
		body := p.parseBody()
		p.expect(lexer.TokWhile)
		cond := p.parseParenExpression()
		p.match(lexer.TokSemicolon)
		return p.node(ast.KindDoWhile, "", tok.Start, body, cond)

	case lexer.TokFor:
		return p.parseFor()

	case lexer.TokBreak, lexer.TokContinue:
		p.advance()
		label := ""
		if next := p.current(); next.Kind == lexer.TokIdent && !next.NewlineBefore {
			label = p.advance().Value
		}
		p.consumeSemicolon()
		kind := ast.KindBreak
		if tok.Kind == lexer.TokContinue {
			kind = ast.KindContinue
		}
		return p.node(kind, label, tok.Start)

	case lexer.TokSemicolon:
		p.advance()
		return p.node(ast.KindEmpty, "", tok.Start)

	case lexer.TokIdent:
		if p.peek(1).Kind == lexer.TokColon {
			p.advance()
			p.advance()
			body := p.parseStatement()
			return p.node(ast.KindLabel, tok.Value, tok.Start, body)
		}
	}

	expr := p.parseExpression()
	p.consumeSemicolon()
	return p.node(ast.KindExprResult, "", tok.Start, expr)
}

func (p *Parser) parseBlock() ast.NodeID {
	start := p.current().Start
	p.expect(lexer.TokLBrace)
	block := p.node(ast.KindBlock, "", start)
	for k := p.current().Kind; k != lexer.TokRBrace && k != lexer.TokEOF; k = p.current().Kind {
		if stmt := p.parseStatementRecover(); stmt.IsValid() {
			p.tree.AddChildToBack(block, stmt)
		}
	}
	p.expect(lexer.TokRBrace)
	return block
}

// parseBody parses the body of an if or loop, wrapping single statements.
func (p *Parser) parseBody() ast.NodeID {
	if p.current().Kind == lexer.TokLBrace {
		return p.parseBlock()
	}
	start := p.current().Start
	return p.node(ast.KindBlock, "", start, p.parseStatement())
}

func (p *Parser) parseVarDecl(allowIn bool) ast.NodeID {
	tok := p.advance()
	var flags ast.NodeFlags
	if tok.Kind == lexer.TokConst {
		flags = ast.FlagConstant
	}

	decl := p.node(ast.KindVar, "", tok.Start)
	for {
		nameTok, ok := p.expect(lexer.TokIdent)
		if !ok {
			return decl
		}
		name := p.node(ast.KindName, nameTok.Value, nameTok.Start)
		p.tree.SetFlags(name, flags)
		if p.match(lexer.TokEq) {
			p.tree.AddChildToBack(name, p.parseAssignment(allowIn))
		} else if flags.Has(ast.FlagConstant) {
			p.error("missing initializer in const declaration")
		}
		p.tree.AddChildToBack(decl, name)

		if !p.match(lexer.TokComma) {
			return decl
		}
	}
}

func (p *Parser) parseFunction(declaration bool) ast.NodeID {
	tok := p.advance()
	name := ""
	if p.current().Kind == lexer.TokIdent {
		name = p.advance().Value
	} else if declaration {
		p.unexpected("expected function name")
	}

	params := p.node(ast.KindParamList, "", p.current().Start)
	p.expect(lexer.TokLParen)
	for p.current().Kind != lexer.TokRParen && p.current().Kind != lexer.TokEOF {
		paramTok, ok := p.expect(lexer.TokIdent)
		if !ok {
			break
		}
		p.tree.AddChildToBack(params, p.node(ast.KindName, paramTok.Value, paramTok.Start))
		if !p.match(lexer.TokComma) {
			break
		}
	}
	p.expect(lexer.TokRParen)

	body := p.parseBlock()
	return p.node(ast.KindFunction, name, tok.Start, params, body)
}

func (p *Parser) parseReturn() ast.NodeID {
	tok := p.advance()
	ret := p.node(ast.KindReturn, "", tok.Start)
	next := p.current()
	if next.Kind != lexer.TokSemicolon && next.Kind != lexer.TokRBrace &&
		next.Kind != lexer.TokEOF && !next.NewlineBefore {
		p.tree.AddChildToBack(ret, p.parseExpression())
	}
	p.consumeSemicolon()
	return ret
}

func (p *Parser) parseIf() ast.NodeID {
	tok := p.advance()
	cond := p.parseParenExpression()
	then := p.parseBody()
	stmt := p.node(ast.KindIf, "", tok.Start, cond, then)
	if p.match(lexer.TokElse) {
		p.tree.AddChildToBack(stmt, p.parseBody())
	}
	return stmt
}

func (p *Parser) parseFor() ast.NodeID {
	tok := p.advance()
	p.expect(lexer.TokLParen)

	empty := func() ast.NodeID { return p.node(ast.KindEmpty, "", p.current().Start) }

	var init ast.NodeID
	switch p.current().Kind {
	case lexer.TokSemicolon:
		init = empty()
	case lexer.TokVar, lexer.TokConst:
		init = p.parseVarDecl(false)
	default:
		init = p.parseExpressionNoIn()
	}
	p.expect(lexer.TokSemicolon)

	var cond ast.NodeID
	if p.current().Kind == lexer.TokSemicolon {
		cond = empty()
	} else {
		cond = p.parseExpression()
	}
	p.expect(lexer.TokSemicolon)

	var update ast.NodeID
	if p.current().Kind == lexer.TokRParen {
		update = empty()
	} else {
		update = p.parseExpression()
	}
	p.expect(lexer.TokRParen)

	body := p.parseBody()
	return p.node(ast.KindFor, "", tok.Start, init, cond, update, body)
}

func (p *Parser) parseParenExpression() ast.NodeID {
	p.expect(lexer.TokLParen)
	expr := p.parseExpression()
	p.expect(lexer.TokRParen)
	return expr
}

// ----------------------------------------------------------------------------
// Expressions
// ----------------------------------------------------------------------------

func (p *Parser) parseExpression() ast.NodeID {
	return p.parseComma(true)
}

func (p *Parser) parseExpressionNoIn() ast.NodeID {
	return p.parseComma(false)
}

func (p *Parser) parseComma(allowIn bool) ast.NodeID {
	start := p.current().Start
	left := p.parseAssignment(allowIn)
	for p.match(lexer.TokComma) {
		right := p.parseAssignment(allowIn)
		left = p.node(ast.KindComma, "", start, left, right)
	}
	return left
}

func (p *Parser) parseAssignment(allowIn bool) ast.NodeID {
	start := p.current().Start
	left := p.parseConditional(allowIn)

	op := p.current()
	if !op.Kind.IsAssignOp() {
		return left
	}
	switch p.tree.Kind(left) {
	case ast.KindName, ast.KindGetProp, ast.KindGetElem:
	default:
		p.error("invalid assignment target")
	}
	p.advance()
	right := p.parseAssignment(allowIn)
	return p.node(ast.KindAssign, op.Kind.String(), start, left, right)
}

func (p *Parser) parseConditional(allowIn bool) ast.NodeID {
	start := p.current().Start
	cond := p.parseBinary(0, allowIn)
	if !p.match(lexer.TokQuestion) {
		return cond
	}
	then := p.parseAssignment(true)
	p.expect(lexer.TokColon)
	els := p.parseAssignment(allowIn)
	return p.node(ast.KindHook, "", start, cond, then, els)
}

// binaryPrecedence returns the binding power of a binary operator token, or
// -1 when the token is not a binary operator.
func binaryPrecedence(kind lexer.TokenKind, allowIn bool) int {
	switch kind {
	case lexer.TokPipePipe:
		return 1
	case lexer.TokAmpAmp:
		return 2
	case lexer.TokPipe:
		return 3
	case lexer.TokCaret:
		return 4
	case lexer.TokAmp:
		return 5
	case lexer.TokEqEq, lexer.TokBangEq, lexer.TokEqEqEq, lexer.TokBangEqEq:
		return 6
	case lexer.TokLt, lexer.TokGt, lexer.TokLtEq, lexer.TokGtEq, lexer.TokInstanceof:
		return 7
	case lexer.TokIn:
		if allowIn {
			return 7
		}
	case lexer.TokLtLt, lexer.TokGtGt, lexer.TokGtGtGt:
		return 8
	case lexer.TokPlus, lexer.TokMinus:
		return 9
	case lexer.TokStar, lexer.TokSlash, lexer.TokPercent:
		return 10
	}
	return -1
}

func (p *Parser) parseBinary(minPrec int, allowIn bool) ast.NodeID {
	start := p.current().Start
	left := p.parseUnary()

	for {
		op := p.current()
		prec := binaryPrecedence(op.Kind, allowIn)
		if prec < 0 || prec <= minPrec {
			return left
		}
		p.advance()
		right := p.parseBinary(prec, allowIn)

		switch op.Kind {
		case lexer.TokPipePipe:
			left = p.node(ast.KindOr, "", start, left, right)
		case lexer.TokAmpAmp:
			left = p.node(ast.KindAnd, "", start, left, right)
		default:
			left = p.node(ast.KindBinary, op.Kind.String(), start, left, right)
		}
	}
}

func (p *Parser) parseUnary() ast.NodeID {
	tok := p.current()

	switch tok.Kind {
	case lexer.TokBang, lexer.TokMinus, lexer.TokPlus, lexer.TokTilde,
		lexer.TokTypeof, lexer.TokVoid, lexer.TokDelete:
		p.advance()
		operand := p.parseUnary()
		return p.node(ast.KindUnary, tok.Kind.String(), tok.Start, operand)

	case lexer.TokPlusPlus, lexer.TokMinusMinus:
		p.advance()
		operand := p.parseUnary()
		p.checkUpdateTarget(operand)
		return p.node(ast.KindUpdate, tok.Kind.String(), tok.Start, operand)
	}

	expr := p.parsePostfix()
	if op := p.current(); (op.Kind == lexer.TokPlusPlus || op.Kind == lexer.TokMinusMinus) && !op.NewlineBefore {
		p.advance()
		p.checkUpdateTarget(expr)
		update := p.node(ast.KindUpdate, op.Kind.String(), tok.Start, expr)
		p.tree.SetFlags(update, ast.FlagPostfix)
		return update
	}
	return expr
}

func (p *Parser) checkUpdateTarget(target ast.NodeID) {
	switch p.tree.Kind(target) {
	case ast.KindName, ast.KindGetProp, ast.KindGetElem:
	default:
		p.error("invalid update target")
	}
}

func (p *Parser) parsePostfix() ast.NodeID {
	start := p.current().Start
	var left ast.NodeID
	if p.current().Kind == lexer.TokNew {
		left = p.parseNew()
	} else {
		left = p.parsePrimary()
	}

	for {
		switch p.current().Kind {
		case lexer.TokDot:
			p.advance()
			name := p.parsePropertyName()
			left = p.node(ast.KindGetProp, name, start, left)

		case lexer.TokLBracket:
			p.advance()
			index := p.parseExpression()
			p.expect(lexer.TokRBracket)
			left = p.node(ast.KindGetElem, "", start, left, index)

		case lexer.TokLParen:
			call := p.node(ast.KindCall, "", start, left)
			p.parseArguments(call)
			left = call

		default:
			return left
		}
	}
}

// parsePropertyName accepts identifiers and keywords after a dot.
func (p *Parser) parsePropertyName() string {
	tok := p.current()
	_, keyword := lexer.Keywords[tok.Value]
	if tok.Kind == lexer.TokIdent || (keyword && tok.Kind != lexer.TokError) {
		p.advance()
		return tok.Value
	}
	p.unexpected("expected property name")
	return ""
}

func (p *Parser) parseNew() ast.NodeID {
	tok := p.advance()
	var callee ast.NodeID
	if p.current().Kind == lexer.TokNew {
		callee = p.parseNew()
	} else {
		callee = p.parsePrimary()
	}
	for {
		if p.current().Kind == lexer.TokDot {
			p.advance()
			callee = p.node(ast.KindGetProp, p.parsePropertyName(), tok.Start, callee)
			continue
		}
		if p.current().Kind == lexer.TokLBracket {
			p.advance()
			index := p.parseExpression()
			p.expect(lexer.TokRBracket)
			callee = p.node(ast.KindGetElem, "", tok.Start, callee, index)
			continue
		}
		break
	}
	n := p.node(ast.KindNew, "", tok.Start, callee)
	if p.current().Kind == lexer.TokLParen {
		p.parseArguments(n)
	}
	return n
}

func (p *Parser) parseArguments(call ast.NodeID) {
	p.expect(lexer.TokLParen)
	for p.current().Kind != lexer.TokRParen && p.current().Kind != lexer.TokEOF {
		p.tree.AddChildToBack(call, p.parseAssignment(true))
		if !p.match(lexer.TokComma) {
			break
		}
	}
	p.expect(lexer.TokRParen)
}

func (p *Parser) parsePrimary() ast.NodeID {
	tok := p.current()

	switch tok.Kind {
	case lexer.TokNumber:
		p.advance()
		return p.node(ast.KindNumber, tok.Value, tok.Start)

	case lexer.TokString:
		p.advance()
		return p.node(ast.KindString, tok.Value, tok.Start)

	case lexer.TokTrue:
		p.advance()
		return p.node(ast.KindTrue, "", tok.Start)

	case lexer.TokFalse:
		p.advance()
		return p.node(ast.KindFalse, "", tok.Start)

	case lexer.TokNull:
		p.advance()
		return p.node(ast.KindNull, "", tok.Start)

	case lexer.TokThis:
		p.advance()
		return p.node(ast.KindThis, "", tok.Start)

	case lexer.TokIdent:
		p.advance()
		return p.node(ast.KindName, tok.Value, tok.Start)

	case lexer.TokFunction:
		return p.parseFunction(false)

	case lexer.TokLParen:
		p.advance()
		expr := p.parseExpression()
		p.expect(lexer.TokRParen)
		return expr

	case lexer.TokLBracket:
		return p.parseArray()

	case lexer.TokLBrace:
		return p.parseObject()

	default:
		p.unexpected("expected expression")
		switch tok.Kind {
		case lexer.TokSemicolon, lexer.TokRBrace, lexer.TokRParen, lexer.TokEOF:
			// Leave closing tokens for the enclosing construct.
		default:
			p.advance()
		}
		return p.node(ast.KindNull, "", tok.Start)
	}
}

func (p *Parser) parseArray() ast.NodeID {
	tok := p.advance()
	arr := p.node(ast.KindArray, "", tok.Start)
	for p.current().Kind != lexer.TokRBracket && p.current().Kind != lexer.TokEOF {
		p.tree.AddChildToBack(arr, p.parseAssignment(true))
		if !p.match(lexer.TokComma) {
			break
		}
	}
	p.expect(lexer.TokRBracket)
	return arr
}

func (p *Parser) parseObject() ast.NodeID {
	tok := p.advance()
	obj := p.node(ast.KindObject, "", tok.Start)
	for p.current().Kind != lexer.TokRBrace && p.current().Kind != lexer.TokEOF {
		keyTok := p.current()
		var key string
		switch keyTok.Kind {
		case lexer.TokIdent, lexer.TokString, lexer.TokNumber:
			key = keyTok.Value
			p.advance()
		default:
			key = p.parsePropertyName()
		}
		p.expect(lexer.TokColon)
		value := p.parseAssignment(true)
		p.tree.AddChildToBack(obj, p.node(ast.KindObjectProp, key, keyTok.Start, value))
		if !p.match(lexer.TokComma) {
			break
		}
	}
	p.expect(lexer.TokRBrace)
	return obj
}
