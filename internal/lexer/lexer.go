// Package lexer provides tokenization for the JavaScript subset accepted by
// the inliner.
//
// The lexer converts a source string into a sequence of tokens, handling:
// - Keywords
// - Identifiers (ASCII letters, digits, '_' and '$')
// - Numeric literals (decimal, hex, float with exponent)
// - String literals (single and double quoted, with escapes)
// - Operators and punctuation
// - Comments (line and block)
package lexer

// ----------------------------------------------------------------------------
// Token Types
// ----------------------------------------------------------------------------

// TokenKind represents the type of a token.
type TokenKind uint8

const (
	TokError TokenKind = iota
	TokEOF

	// Literals
	TokNumber
	TokString

	// Identifiers
	TokIdent

	// Keywords
	TokBreak
	TokConst
	TokContinue
	TokDelete
	TokDo
	TokElse
	TokFalse
	TokFor
	TokFunction
	TokIf
	TokIn
	TokInstanceof
	TokNew
	TokNull
	TokReturn
	TokThis
	TokTrue
	TokTypeof
	TokVar
	TokVoid
	TokWhile

	// Operators
	TokPlus     // +
	TokMinus    // -
	TokStar     // *
	TokSlash    // /
	TokPercent  // %
	TokAmp      // &
	TokPipe     // |
	TokCaret    // ^
	TokTilde    // ~
	TokBang     // !
	TokLt       // <
	TokGt       // >
	TokEq       // =
	TokDot      // .
	TokQuestion // ?

	// Multi-char operators
	TokPlusPlus   // ++
	TokMinusMinus // --
	TokAmpAmp     // &&
	TokPipePipe   // ||
	TokLtLt       // <<
	TokGtGt       // >>
	TokGtGtGt     // >>>
	TokLtEq       // <=
	TokGtEq       // >=
	TokEqEq       // ==
	TokEqEqEq     // ===
	TokBangEq     // !=
	TokBangEqEq   // !==
	TokPlusEq     // +=
	TokMinusEq    // -=
	TokStarEq     // *=
	TokSlashEq    // /=
	TokPercentEq  // %=
	TokAmpEq      // &=
	TokPipeEq     // |=
	TokCaretEq    // ^=
	TokLtLtEq     // <<=
	TokGtGtEq     // >>=
	TokGtGtGtEq   // >>>=

	// Delimiters
	TokLParen    // (
	TokRParen    // )
	TokLBrace    // {
	TokRBrace    // }
	TokLBracket  // [
	TokRBracket  // ]
	TokSemicolon // ;
	TokColon     // :
	TokComma     // ,
)

// String returns the string representation of a token kind.
func (k TokenKind) String() string {
	if int(k) < len(tokenNames) && tokenNames[k] != "" {
		return tokenNames[k]
	}
	return "unknown"
}

var tokenNames = [...]string{
	TokError:      "error",
	TokEOF:        "EOF",
	TokNumber:     "number",
	TokString:     "string",
	TokIdent:      "identifier",
	TokBreak:      "break",
	TokConst:      "const",
	TokContinue:   "continue",
	TokDelete:     "delete",
	TokDo:         "do",
	TokElse:       "else",
	TokFalse:      "false",
	TokFor:        "for",
	TokFunction:   "function",
	TokIf:         "if",
	TokIn:         "in",
	TokInstanceof: "instanceof",
	TokNew:        "new",
	TokNull:       "null",
	TokReturn:     "return",
	TokThis:       "this",
	TokTrue:       "true",
	TokTypeof:     "typeof",
	TokVar:        "var",
	TokVoid:       "void",
	TokWhile:      "while",

	TokPlus:     "+",
	TokMinus:    "-",
	TokStar:     "*",
	TokSlash:    "/",
	TokPercent:  "%",
	TokAmp:      "&",
	TokPipe:     "|",
	TokCaret:    "^",
	TokTilde:    "~",
	TokBang:     "!",
	TokLt:       "<",
	TokGt:       ">",
	TokEq:       "=",
	TokDot:      ".",
	TokQuestion: "?",

	TokPlusPlus:   "++",
	TokMinusMinus: "--",
	TokAmpAmp:     "&&",
	TokPipePipe:   "||",
	TokLtLt:       "<<",
	TokGtGt:       ">>",
	TokGtGtGt:     ">>>",
	TokLtEq:       "<=",
	TokGtEq:       ">=",
	TokEqEq:       "==",
	TokEqEqEq:     "===",
	TokBangEq:     "!=",
	TokBangEqEq:   "!==",
	TokPlusEq:     "+=",
	TokMinusEq:    "-=",
	TokStarEq:     "*=",
	TokSlashEq:    "/=",
	TokPercentEq:  "%=",
	TokAmpEq:      "&=",
	TokPipeEq:     "|=",
	TokCaretEq:    "^=",
	TokLtLtEq:     "<<=",
	TokGtGtEq:     ">>=",
	TokGtGtGtEq:   ">>>=",

	TokLParen:    "(",
	TokRParen:    ")",
	TokLBrace:    "{",
	TokRBrace:    "}",
	TokLBracket:  "[",
	TokRBracket:  "]",
	TokSemicolon: ";",
	TokColon:     ":",
	TokComma:     ",",
}

// IsAssignOp reports whether the token is "=" or a compound assignment.
func (k TokenKind) IsAssignOp() bool {
	switch k {
	case TokEq, TokPlusEq, TokMinusEq, TokStarEq, TokSlashEq, TokPercentEq,
		TokAmpEq, TokPipeEq, TokCaretEq, TokLtLtEq, TokGtGtEq, TokGtGtGtEq:
		return true
	}
	return false
}

// ----------------------------------------------------------------------------
// Token
// ----------------------------------------------------------------------------

// Token represents a lexical token.
type Token struct {
	Kind  TokenKind
	Start int    // Byte offset in source
	End   int    // Byte offset of end (exclusive)
	Value string // For identifiers and literals (strings are unescaped)

	// NewlineBefore is set when a line terminator precedes the token.
	NewlineBefore bool
}

// Text returns the source text of the token.
func (t Token) Text(source string) string {
	if t.Start >= 0 && t.End <= len(source) {
		return source[t.Start:t.End]
	}
	return ""
}

// ----------------------------------------------------------------------------
// Keywords
// ----------------------------------------------------------------------------

// Keywords maps keyword strings to their token kinds.
var Keywords = map[string]TokenKind{
	"break":      TokBreak,
	"const":      TokConst,
	"continue":   TokContinue,
	"delete":     TokDelete,
	"do":         TokDo,
	"else":       TokElse,
	"false":      TokFalse,
	"for":        TokFor,
	"function":   TokFunction,
	"if":         TokIf,
	"in":         TokIn,
	"instanceof": TokInstanceof,
	"new":        TokNew,
	"null":       TokNull,
	"return":     TokReturn,
	"this":       TokThis,
	"true":       TokTrue,
	"typeof":     TokTypeof,
	"var":        TokVar,
	"void":       TokVoid,
	"while":      TokWhile,
}

// ReservedWords are words the lexer does not support but must not accept
// as identifiers either.
var ReservedWords = map[string]bool{
	"case": true, "catch": true, "class": true, "debugger": true,
	"default": true, "enum": true, "export": true, "extends": true,
	"finally": true, "import": true, "let": true, "super": true,
	"switch": true, "throw": true, "try": true, "with": true, "yield": true,
}

// ----------------------------------------------------------------------------
// Lexer
// ----------------------------------------------------------------------------

// Lexer tokenizes source code.
type Lexer struct {
	source  string
	pos     int
	start   int
	tokens  []Token
	newline bool
}

// New creates a new lexer for the given source.
func New(source string) *Lexer {
	return &Lexer{
		source: source,
		tokens: make([]Token, 0, len(source)/4), // Estimate
	}
}

// Tokenize returns all tokens in the source.
func (l *Lexer) Tokenize() []Token {
	for {
		tok := l.Next()
		l.tokens = append(l.tokens, tok)
		if tok.Kind == TokEOF || tok.Kind == TokError {
			break
		}
	}
	return l.tokens
}

// Next returns the next token.
func (l *Lexer) Next() Token {
	l.newline = false
	l.skipWhitespaceAndComments()

	tok := l.scan()
	tok.NewlineBefore = l.newline
	return tok
}

func (l *Lexer) scan() Token {
	if l.pos >= len(l.source) {
		return Token{Kind: TokEOF, Start: l.pos, End: l.pos}
	}

	l.start = l.pos
	ch := l.source[l.pos]

	if isIdentStart(ch) {
		return l.scanIdentOrKeyword()
	}

	if isDigit(ch) || (ch == '.' && l.pos+1 < len(l.source) && isDigit(l.source[l.pos+1])) {
		return l.scanNumber()
	}

	if ch == '"' || ch == '\'' {
		return l.scanString(ch)
	}

	return l.scanOperator()
}

// ----------------------------------------------------------------------------
// Scanning Helpers
// ----------------------------------------------------------------------------

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.source) {
		ch := l.source[l.pos]

		if ch == '\n' {
			l.newline = true
			l.pos++
			continue
		}
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\v' || ch == '\f' {
			l.pos++
			continue
		}

		// Line comment
		if ch == '/' && l.pos+1 < len(l.source) && l.source[l.pos+1] == '/' {
			l.pos += 2
			for l.pos < len(l.source) && l.source[l.pos] != '\n' {
				l.pos++
			}
			continue
		}

		// Block comment (no nesting)
		if ch == '/' && l.pos+1 < len(l.source) && l.source[l.pos+1] == '*' {
			l.pos += 2
			for l.pos < len(l.source) {
				if l.source[l.pos] == '*' && l.pos+1 < len(l.source) && l.source[l.pos+1] == '/' {
					l.pos += 2
					break
				}
				if l.source[l.pos] == '\n' {
					l.newline = true
				}
				l.pos++
			}
			continue
		}

		break
	}
}

func (l *Lexer) scanIdentOrKeyword() Token {
	start := l.pos
	for l.pos < len(l.source) && isIdentContinue(l.source[l.pos]) {
		l.pos++
	}

	text := l.source[start:l.pos]

	if kind, ok := Keywords[text]; ok {
		return Token{Kind: kind, Start: start, End: l.pos, Value: text}
	}
	if ReservedWords[text] {
		return Token{Kind: TokError, Start: start, End: l.pos, Value: "reserved word: " + text}
	}
	return Token{Kind: TokIdent, Start: start, End: l.pos, Value: text}
}

func (l *Lexer) scanNumber() Token {
	start := l.pos

	// Hex
	if l.pos+1 < len(l.source) && l.source[l.pos] == '0' &&
		(l.source[l.pos+1] == 'x' || l.source[l.pos+1] == 'X') {
		l.pos += 2
		digits := l.pos
		for l.pos < len(l.source) && isHexDigit(l.source[l.pos]) {
			l.pos++
		}
		if l.pos == digits {
			return Token{Kind: TokError, Start: start, End: l.pos, Value: "invalid hex literal"}
		}
		return Token{Kind: TokNumber, Start: start, End: l.pos, Value: l.source[start:l.pos]}
	}

	for l.pos < len(l.source) && isDigit(l.source[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.source) && l.source[l.pos] == '.' {
		l.pos++
		for l.pos < len(l.source) && isDigit(l.source[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(l.source) && (l.source[l.pos] == 'e' || l.source[l.pos] == 'E') {
		l.pos++
		if l.pos < len(l.source) && (l.source[l.pos] == '+' || l.source[l.pos] == '-') {
			l.pos++
		}
		digits := l.pos
		for l.pos < len(l.source) && isDigit(l.source[l.pos]) {
			l.pos++
		}
		if l.pos == digits {
			return Token{Kind: TokError, Start: start, End: l.pos, Value: "invalid exponent"}
		}
	}

	// A number directly followed by an identifier character is malformed.
	if l.pos < len(l.source) && isIdentStart(l.source[l.pos]) {
		return Token{Kind: TokError, Start: start, End: l.pos + 1, Value: "identifier directly after number"}
	}

	return Token{Kind: TokNumber, Start: start, End: l.pos, Value: l.source[start:l.pos]}
}

func (l *Lexer) scanString(quote byte) Token {
	start := l.pos
	l.pos++

	var buf []byte
	for {
		if l.pos >= len(l.source) || l.source[l.pos] == '\n' {
			return Token{Kind: TokError, Start: start, End: l.pos, Value: "unterminated string literal"}
		}
		ch := l.source[l.pos]
		if ch == quote {
			l.pos++
			break
		}
		if ch != '\\' {
			buf = append(buf, ch)
			l.pos++
			continue
		}

		l.pos++
		if l.pos >= len(l.source) {
			return Token{Kind: TokError, Start: start, End: l.pos, Value: "unterminated string literal"}
		}
		switch esc := l.source[l.pos]; esc {
		case 'n':
			buf = append(buf, '\n')
		case 't':
			buf = append(buf, '\t')
		case 'r':
			buf = append(buf, '\r')
		case 'b':
			buf = append(buf, '\b')
		case 'f':
			buf = append(buf, '\f')
		case 'v':
			buf = append(buf, '\v')
		case '0':
			buf = append(buf, 0)
		case '\n':
			// Line continuation
		default:
			buf = append(buf, esc)
		}
		l.pos++
	}

	return Token{Kind: TokString, Start: start, End: l.pos, Value: string(buf)}
}

// operator describes a punctuator by its text; longest texts come first
// within each leading byte.
type operator struct {
	text string
	kind TokenKind
}

var operatorsByByte = map[byte][]operator{
	'+': {{"++", TokPlusPlus}, {"+=", TokPlusEq}, {"+", TokPlus}},
	'-': {{"--", TokMinusMinus}, {"-=", TokMinusEq}, {"-", TokMinus}},
	'*': {{"*=", TokStarEq}, {"*", TokStar}},
	'/': {{"/=", TokSlashEq}, {"/", TokSlash}},
	'%': {{"%=", TokPercentEq}, {"%", TokPercent}},
	'&': {{"&&", TokAmpAmp}, {"&=", TokAmpEq}, {"&", TokAmp}},
	'|': {{"||", TokPipePipe}, {"|=", TokPipeEq}, {"|", TokPipe}},
	'^': {{"^=", TokCaretEq}, {"^", TokCaret}},
	'~': {{"~", TokTilde}},
	'!': {{"!==", TokBangEqEq}, {"!=", TokBangEq}, {"!", TokBang}},
	'<': {{"<<=", TokLtLtEq}, {"<<", TokLtLt}, {"<=", TokLtEq}, {"<", TokLt}},
	'>': {{">>>=", TokGtGtGtEq}, {">>>", TokGtGtGt}, {">>=", TokGtGtEq}, {">>", TokGtGt}, {">=", TokGtEq}, {">", TokGt}},
	'=': {{"===", TokEqEqEq}, {"==", TokEqEq}, {"=", TokEq}},
	'.': {{".", TokDot}},
	'?': {{"?", TokQuestion}},
	'(': {{"(", TokLParen}},
	')': {{")", TokRParen}},
	'{': {{"{", TokLBrace}},
	'}': {{"}", TokRBrace}},
	'[': {{"[", TokLBracket}},
	']': {{"]", TokRBracket}},
	';': {{";", TokSemicolon}},
	':': {{":", TokColon}},
	',': {{",", TokComma}},
}

func (l *Lexer) scanOperator() Token {
	start := l.pos
	rest := l.source[l.pos:]
	for _, op := range operatorsByByte[rest[0]] {
		if len(rest) >= len(op.text) && rest[:len(op.text)] == op.text {
			l.pos += len(op.text)
			return Token{Kind: op.kind, Start: start, End: l.pos}
		}
	}
	l.pos++
	return Token{Kind: TokError, Start: start, End: l.pos, Value: "unexpected character: " + rest[:1]}
}

// ----------------------------------------------------------------------------
// Character Classes
// ----------------------------------------------------------------------------

var (
	// asciiIdentStart[c] is true if ASCII byte c can start an identifier
	asciiIdentStart [256]bool
	// asciiIdentContinue[c] is true if ASCII byte c can continue an identifier
	asciiIdentContinue [256]bool
)

func init() {
	for c := 'a'; c <= 'z'; c++ {
		asciiIdentStart[c] = true
		asciiIdentContinue[c] = true
	}
	for c := 'A'; c <= 'Z'; c++ {
		asciiIdentStart[c] = true
		asciiIdentContinue[c] = true
	}
	for _, c := range []byte{'_', '$'} {
		asciiIdentStart[c] = true
		asciiIdentContinue[c] = true
	}
	for c := '0'; c <= '9'; c++ {
		asciiIdentContinue[c] = true
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isIdentStart(ch byte) bool {
	return asciiIdentStart[ch]
}

func isIdentContinue(ch byte) bool {
	return asciiIdentContinue[ch]
}

// IsIdentifier reports whether s is a valid, non-keyword identifier.
func IsIdentifier(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentContinue(s[i]) {
			return false
		}
	}
	_, kw := Keywords[s]
	return !kw && !ReservedWords[s]
}
