// lexer.go — whitespace-sensitive tokenizer for deka source.
//
// The lexer resolves three ambiguities that the grammar leaves to token
// adjacency, in the same spirit as call/index disambiguation via tight
// parens in classic newline-terminated grammars:
//
//   - '('  → LPAREN when preceded by whitespace, CLPAREN when glued to an
//     operand (call syntax).
//   - '['  → LBRACKET / CLBRACKET (index syntax) by the same rule.
//   - '.'  → DOT (member access) when glued to an operand and followed by a
//     letter; CONCAT (string concatenation) otherwise. `$a.x` is a field
//     read, `$a . $b` concatenates.
//   - '<'  → TAGSTART (template/markup) when it opens an expression and is
//     glued to a letter; LT (comparison) after an operand.
//
// Newlines are significant: the lexer emits one NEWLINE token per run of
// blank/newline characters so the parser can apply line-sensitive statement
// termination. Inside template text no NEWLINE tokens are produced.
//
// Template scanning is modal. A small state stack tracks whether we are in
// normal code, inside a tag header (attributes), or inside element text;
// `{` inside a template pushes a normal-code frame so embedded expressions
// lex identically to top-level code.
package deka

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenType enumerates lexical token kinds.
type TokenType int

const (
	EOF TokenType = iota
	ILLEGAL
	NEWLINE

	IDENT    // bare identifier: struct/enum/function names, attrs
	VARIABLE // $name
	INT      // integer literal
	FLOAT    // floating literal
	STRING   // quoted string literal (decoded)

	LPAREN    // "(" preceded by whitespace
	CLPAREN   // "(" glued to an operand (call)
	RPAREN    // ")"
	LBRACKET  // "[" preceded by whitespace (array literal)
	CLBRACKET // "[" glued to an operand (index)
	RBRACKET  // "]"
	LBRACE    // "{"
	RBRACE    // "}"
	COMMA     // ","
	COLON     // ":"
	DBLCOLON  // "::"
	SEMI      // ";"
	QUESTION  // "?"

	DOT    // "." glued member access
	CONCAT // "." string concatenation

	ARROW // "=>"
	PIPE  // "|>"
	AMP   // "&" (by-reference capture)

	ASSIGN  // "="
	PLUS    // "+"
	MINUS   // "-"
	STAR    // "*"
	SLASH   // "/"
	PERCENT // "%"
	EQ      // "==" (and "===", same meaning)
	NEQ     // "!=" (and "!==")
	LT      // "<"
	LTE     // "<="
	GT      // ">"
	GTE     // ">="
	ANDAND  // "&&"
	OROR    // "||"
	NOT     // "!"

	TAGSTART     // "<name" opening a template element; Lit = name
	TAGCLOSE     // ">" ending a tag header
	TAGSELFCLOSE // "/>"
	TAGENDOPEN   // "</name"; Lit = name
	TMPLTEXT     // raw text inside an element

	KWSTRUCT
	KWENUM
	KWCASE
	KWFN
	KWRETURN
	KWIF
	KWELSE
	KWWHILE
	KWFOREACH
	KWAS
	KWMATCH
	KWDEFAULT
	KWIMPORT
	KWEXPORT
	KWFROM
	KWUSE
	KWECHO
	KWTRUE
	KWFALSE
	KWNULL
	KWTYPE
	KWINTERFACE
	KWBREAK
	KWCONTINUE
)

var keywords = map[string]TokenType{
	"struct":    KWSTRUCT,
	"enum":      KWENUM,
	"case":      KWCASE,
	"fn":        KWFN,
	"return":    KWRETURN,
	"if":        KWIF,
	"else":      KWELSE,
	"while":     KWWHILE,
	"foreach":   KWFOREACH,
	"as":        KWAS,
	"match":     KWMATCH,
	"default":   KWDEFAULT,
	"import":    KWIMPORT,
	"export":    KWEXPORT,
	"from":      KWFROM,
	"use":       KWUSE,
	"echo":      KWECHO,
	"true":      KWTRUE,
	"false":     KWFALSE,
	"null":      KWNULL,
	"type":      KWTYPE,
	"interface": KWINTERFACE,
	"break":     KWBREAK,
	"continue":  KWCONTINUE,
}

// Token is one lexical unit. Line is 1-based, Col 0-based. I/F carry the
// decoded numeric payload for INT/FLOAT; Lit carries everything else.
type Token struct {
	Type TokenType
	Lit  string
	I    int64
	F    float64
	Line int
	Col  int
}

func (t Token) String() string {
	if t.Lit != "" {
		return fmt.Sprintf("%d(%q)", int(t.Type), t.Lit)
	}
	return fmt.Sprintf("%d", int(t.Type))
}

type lexMode int

const (
	modeCode lexMode = iota
	modeTag
	modeText
)

type lexFrame struct {
	mode       lexMode
	braceDepth int // only meaningful for modeCode frames pushed by templates
}

type lexer struct {
	src   string
	pos   int
	line  int
	col   int
	toks  []Token
	stack []lexFrame
	// prevOperand reports whether the last significant token can end an
	// operand (drives tight-paren/dot/lt decisions).
	prevOperand bool
	lastWasNL   bool
}

// Lex tokenizes src. On failure it returns a *LexError with 1-based line
// and 0-based column; it never panics.
func Lex(src string) ([]Token, *LexError) {
	// A leading "<?php"-style prologue is tolerated and skipped so existing
	// dynamic-language files run unmodified.
	if strings.HasPrefix(src, "<?php") {
		src = src[len("<?php"):]
	} else if strings.HasPrefix(src, "<?dk") {
		src = src[len("<?dk"):]
	}
	lx := &lexer{src: src, line: 1, stack: []lexFrame{{mode: modeCode, braceDepth: -1}}}
	if err := lx.run(); err != nil {
		return nil, err
	}
	return lx.toks, nil
}

func (lx *lexer) frame() *lexFrame { return &lx.stack[len(lx.stack)-1] }

func (lx *lexer) push(f lexFrame) { lx.stack = append(lx.stack, f) }

func (lx *lexer) pop() {
	if len(lx.stack) > 1 {
		lx.stack = lx.stack[:len(lx.stack)-1]
	}
}

func (lx *lexer) errf(format string, args ...any) *LexError {
	return &LexError{Line: lx.line, Col: lx.col, Msg: fmt.Sprintf(format, args...)}
}

func (lx *lexer) peekByte() byte {
	if lx.pos >= len(lx.src) {
		return 0
	}
	return lx.src[lx.pos]
}

func (lx *lexer) peekByteAt(off int) byte {
	if lx.pos+off >= len(lx.src) {
		return 0
	}
	return lx.src[lx.pos+off]
}

func (lx *lexer) advance() byte {
	c := lx.src[lx.pos]
	lx.pos++
	if c == '\n' {
		lx.line++
		lx.col = 0
	} else {
		lx.col++
	}
	return c
}

func (lx *lexer) emit(t Token) {
	lx.toks = append(lx.toks, t)
	switch t.Type {
	case IDENT, VARIABLE, INT, FLOAT, STRING, RPAREN, RBRACKET, RBRACE,
		KWTRUE, KWFALSE, KWNULL, TAGCLOSE, TAGSELFCLOSE:
		lx.prevOperand = true
	default:
		lx.prevOperand = false
	}
	lx.lastWasNL = t.Type == NEWLINE
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || (c >= '0' && c <= '9') }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (lx *lexer) run() *LexError {
	for lx.pos < len(lx.src) {
		var err *LexError
		switch lx.frame().mode {
		case modeCode:
			err = lx.stepCode()
		case modeTag:
			err = lx.stepTag()
		case modeText:
			err = lx.stepText()
		}
		if err != nil {
			return err
		}
	}
	lx.emit(Token{Type: EOF, Line: lx.line, Col: lx.col})
	return nil
}

// stepCode lexes one token of ordinary code.
func (lx *lexer) stepCode() *LexError {
	// Whitespace and comments; remember whether the upcoming token is glued.
	spaced := false
	sawNL := false
	for lx.pos < len(lx.src) {
		c := lx.peekByte()
		if c == ' ' || c == '\t' || c == '\r' {
			spaced = true
			lx.advance()
			continue
		}
		if c == '\n' {
			sawNL = true
			spaced = true
			lx.advance()
			continue
		}
		if c == '#' || (c == '/' && lx.peekByteAt(1) == '/') {
			for lx.pos < len(lx.src) && lx.peekByte() != '\n' {
				lx.advance()
			}
			spaced = true
			continue
		}
		if c == '/' && lx.peekByteAt(1) == '*' {
			lx.advance()
			lx.advance()
			for lx.pos < len(lx.src) {
				if lx.peekByte() == '*' && lx.peekByteAt(1) == '/' {
					lx.advance()
					lx.advance()
					break
				}
				lx.advance()
			}
			spaced = true
			continue
		}
		break
	}
	if sawNL && !lx.lastWasNL {
		lx.emit(Token{Type: NEWLINE, Line: lx.line, Col: lx.col})
	}
	if lx.pos >= len(lx.src) {
		return nil
	}

	line, col := lx.line, lx.col
	c := lx.peekByte()
	tight := !spaced && lx.prevOperand

	switch {
	case c == '$':
		lx.advance()
		if !isIdentStart(lx.peekByte()) {
			return lx.errf("expected identifier after '$'")
		}
		name := lx.scanIdent()
		lx.emit(Token{Type: VARIABLE, Lit: name, Line: line, Col: col})
		return nil

	case isIdentStart(c):
		name := lx.scanIdent()
		if kw, ok := keywords[name]; ok {
			lx.emit(Token{Type: kw, Lit: name, Line: line, Col: col})
		} else {
			lx.emit(Token{Type: IDENT, Lit: name, Line: line, Col: col})
		}
		return nil

	case isDigit(c):
		return lx.scanNumber(line, col)

	case c == '"' || c == '\'':
		return lx.scanString(line, col)
	}

	lx.advance()
	two := func(next byte, tt TokenType, lit string) bool {
		if lx.peekByte() == next {
			lx.advance()
			lx.emit(Token{Type: tt, Lit: lit, Line: line, Col: col})
			return true
		}
		return false
	}

	switch c {
	case '(':
		tt := LPAREN
		if tight {
			tt = CLPAREN
		}
		lx.emit(Token{Type: tt, Lit: "(", Line: line, Col: col})
	case ')':
		lx.emit(Token{Type: RPAREN, Lit: ")", Line: line, Col: col})
	case '[':
		tt := LBRACKET
		if tight {
			tt = CLBRACKET
		}
		lx.emit(Token{Type: tt, Lit: "[", Line: line, Col: col})
	case ']':
		lx.emit(Token{Type: RBRACKET, Lit: "]", Line: line, Col: col})
	case '{':
		if lx.frame().braceDepth >= 0 {
			lx.frame().braceDepth++
		}
		lx.emit(Token{Type: LBRACE, Lit: "{", Line: line, Col: col})
	case '}':
		f := lx.frame()
		if f.braceDepth == 0 {
			// Closes a template-embedded expression: return to the
			// enclosing tag/text frame.
			lx.pop()
			lx.emit(Token{Type: RBRACE, Lit: "}", Line: line, Col: col})
			return nil
		}
		if f.braceDepth > 0 {
			f.braceDepth--
		}
		lx.emit(Token{Type: RBRACE, Lit: "}", Line: line, Col: col})
	case ',':
		lx.emit(Token{Type: COMMA, Lit: ",", Line: line, Col: col})
	case ';':
		lx.emit(Token{Type: SEMI, Lit: ";", Line: line, Col: col})
	case '?':
		lx.emit(Token{Type: QUESTION, Lit: "?", Line: line, Col: col})
	case ':':
		if !two(':', DBLCOLON, "::") {
			lx.emit(Token{Type: COLON, Lit: ":", Line: line, Col: col})
		}
	case '.':
		if tight && isIdentStart(lx.peekByte()) {
			lx.emit(Token{Type: DOT, Lit: ".", Line: line, Col: col})
		} else {
			lx.emit(Token{Type: CONCAT, Lit: ".", Line: line, Col: col})
		}
	case '=':
		if lx.peekByte() == '=' {
			lx.advance()
			if lx.peekByte() == '=' {
				lx.advance() // "===" means the same as "=="
			}
			lx.emit(Token{Type: EQ, Lit: "==", Line: line, Col: col})
		} else if !two('>', ARROW, "=>") {
			lx.emit(Token{Type: ASSIGN, Lit: "=", Line: line, Col: col})
		}
	case '!':
		if lx.peekByte() == '=' {
			lx.advance()
			if lx.peekByte() == '=' {
				lx.advance()
			}
			lx.emit(Token{Type: NEQ, Lit: "!=", Line: line, Col: col})
		} else {
			lx.emit(Token{Type: NOT, Lit: "!", Line: line, Col: col})
		}
	case '+':
		lx.emit(Token{Type: PLUS, Lit: "+", Line: line, Col: col})
	case '-':
		lx.emit(Token{Type: MINUS, Lit: "-", Line: line, Col: col})
	case '*':
		lx.emit(Token{Type: STAR, Lit: "*", Line: line, Col: col})
	case '/':
		lx.emit(Token{Type: SLASH, Lit: "/", Line: line, Col: col})
	case '%':
		lx.emit(Token{Type: PERCENT, Lit: "%", Line: line, Col: col})
	case '&':
		if !two('&', ANDAND, "&&") {
			lx.emit(Token{Type: AMP, Lit: "&", Line: line, Col: col})
		}
	case '|':
		if !two('|', OROR, "||") {
			if !two('>', PIPE, "|>") {
				return lx.errf("unexpected character '|'")
			}
		}
	case '<':
		if lx.peekByte() == '=' {
			lx.advance()
			lx.emit(Token{Type: LTE, Lit: "<=", Line: line, Col: col})
			return nil
		}
		// Template open: '<' gluing a letter in expression position.
		if !lx.prevOperand && isIdentStart(lx.peekByte()) {
			name := lx.scanIdent()
			lx.emit(Token{Type: TAGSTART, Lit: name, Line: line, Col: col})
			lx.push(lexFrame{mode: modeTag, braceDepth: -1})
			return nil
		}
		lx.emit(Token{Type: LT, Lit: "<", Line: line, Col: col})
	case '>':
		if !two('=', GTE, ">=") {
			lx.emit(Token{Type: GT, Lit: ">", Line: line, Col: col})
		}
	default:
		r, _ := utf8.DecodeRuneInString(lx.src[lx.pos-1:])
		if unicode.IsPrint(r) {
			return lx.errf("unexpected character %q", string(r))
		}
		return lx.errf("unexpected byte 0x%02x", c)
	}
	return nil
}

// stepTag lexes inside a tag header: attribute names, '=', string values,
// embedded {expr} values, and the closing '>' or '/>'.
func (lx *lexer) stepTag() *LexError {
	for lx.pos < len(lx.src) {
		c := lx.peekByte()
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			lx.advance()
			continue
		}
		break
	}
	if lx.pos >= len(lx.src) {
		return lx.errf("unterminated template tag")
	}
	line, col := lx.line, lx.col
	c := lx.peekByte()
	switch {
	case isIdentStart(c):
		name := lx.scanIdent()
		lx.emit(Token{Type: IDENT, Lit: name, Line: line, Col: col})
	case c == '=':
		lx.advance()
		lx.emit(Token{Type: ASSIGN, Lit: "=", Line: line, Col: col})
	case c == '"' || c == '\'':
		return lx.scanString(line, col)
	case c == '{':
		lx.advance()
		lx.emit(Token{Type: LBRACE, Lit: "{", Line: line, Col: col})
		lx.push(lexFrame{mode: modeCode, braceDepth: 0})
	case c == '>':
		lx.advance()
		lx.emit(Token{Type: TAGCLOSE, Lit: ">", Line: line, Col: col})
		lx.frame().mode = modeText
	case c == '/' && lx.peekByteAt(1) == '>':
		lx.advance()
		lx.advance()
		lx.emit(Token{Type: TAGSELFCLOSE, Lit: "/>", Line: line, Col: col})
		lx.pop()
	default:
		return lx.errf("unexpected character %q in template tag", string(c))
	}
	return nil
}

// stepText lexes element body text until a child tag, an embedded
// expression, or the closing tag.
func (lx *lexer) stepText() *LexError {
	line, col := lx.line, lx.col
	var text strings.Builder
	for lx.pos < len(lx.src) {
		c := lx.peekByte()
		if c == '{' {
			break
		}
		if c == '<' {
			break
		}
		text.WriteByte(lx.advance())
	}
	if t := strings.TrimSpace(text.String()); t != "" {
		lx.emit(Token{Type: TMPLTEXT, Lit: t, Line: line, Col: col})
	}
	if lx.pos >= len(lx.src) {
		return lx.errf("unterminated template element")
	}
	line, col = lx.line, lx.col
	c := lx.peekByte()
	if c == '{' {
		lx.advance()
		lx.emit(Token{Type: LBRACE, Lit: "{", Line: line, Col: col})
		lx.push(lexFrame{mode: modeCode, braceDepth: 0})
		return nil
	}
	// '<': either a nested element or the close tag.
	lx.advance()
	if lx.peekByte() == '/' {
		lx.advance()
		if !isIdentStart(lx.peekByte()) {
			return lx.errf("expected tag name after '</'")
		}
		name := lx.scanIdent()
		if lx.peekByte() != '>' {
			return lx.errf("expected '>' to close '</%s'", name)
		}
		lx.advance()
		lx.emit(Token{Type: TAGENDOPEN, Lit: name, Line: line, Col: col})
		lx.pop()
		return nil
	}
	if !isIdentStart(lx.peekByte()) {
		return lx.errf("expected tag name after '<'")
	}
	name := lx.scanIdent()
	lx.emit(Token{Type: TAGSTART, Lit: name, Line: line, Col: col})
	lx.push(lexFrame{mode: modeTag, braceDepth: -1})
	return nil
}

func (lx *lexer) scanIdent() string {
	start := lx.pos
	for lx.pos < len(lx.src) && isIdentPart(lx.src[lx.pos]) {
		lx.advance()
	}
	return lx.src[start:lx.pos]
}

func (lx *lexer) scanNumber(line, col int) *LexError {
	start := lx.pos
	for lx.pos < len(lx.src) && (isDigit(lx.peekByte()) || lx.peekByte() == '_') {
		lx.advance()
	}
	isFloat := false
	// A '.' is part of the number only when a digit follows; `1.x` stays an
	// int plus member access.
	if lx.peekByte() == '.' && isDigit(lx.peekByteAt(1)) {
		isFloat = true
		lx.advance()
		for lx.pos < len(lx.src) && isDigit(lx.peekByte()) {
			lx.advance()
		}
	}
	if c := lx.peekByte(); c == 'e' || c == 'E' {
		save := lx.pos
		lx.advance()
		if c := lx.peekByte(); c == '+' || c == '-' {
			lx.advance()
		}
		if isDigit(lx.peekByte()) {
			isFloat = true
			for lx.pos < len(lx.src) && isDigit(lx.peekByte()) {
				lx.advance()
			}
		} else {
			lx.pos = save
		}
	}
	text := strings.ReplaceAll(lx.src[start:lx.pos], "_", "")
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return &LexError{Line: line, Col: col, Msg: "malformed float literal"}
		}
		lx.emit(Token{Type: FLOAT, F: f, Lit: text, Line: line, Col: col})
		return nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return &LexError{Line: line, Col: col, Msg: "integer literal out of range"}
	}
	lx.emit(Token{Type: INT, I: n, Lit: text, Line: line, Col: col})
	return nil
}

func (lx *lexer) scanString(line, col int) *LexError {
	quote := lx.advance()
	var b strings.Builder
	for {
		if lx.pos >= len(lx.src) {
			return &LexError{Line: line, Col: col, Msg: "unterminated string literal"}
		}
		c := lx.advance()
		if c == quote {
			break
		}
		if c == '\n' {
			return &LexError{Line: line, Col: col, Msg: "newline in string literal"}
		}
		if quote == '\'' {
			// Single quotes are raw except for \' and \\.
			if c == '\\' && (lx.peekByte() == '\'' || lx.peekByte() == '\\') {
				b.WriteByte(lx.advance())
				continue
			}
			b.WriteByte(c)
			continue
		}
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if lx.pos >= len(lx.src) {
			return &LexError{Line: line, Col: col, Msg: "unterminated escape sequence"}
		}
		e := lx.advance()
		switch e {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '0':
			b.WriteByte(0)
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		case '$':
			b.WriteByte('$')
		case 'u':
			if lx.peekByte() != '{' {
				return lx.errf("expected '{' in unicode escape")
			}
			lx.advance()
			hexStart := lx.pos
			for lx.pos < len(lx.src) && lx.peekByte() != '}' {
				lx.advance()
			}
			if lx.pos >= len(lx.src) {
				return lx.errf("unterminated unicode escape")
			}
			hex := lx.src[hexStart:lx.pos]
			lx.advance() // '}'
			n, err := strconv.ParseUint(hex, 16, 32)
			if err != nil || n > 0x10FFFF {
				return &LexError{Line: line, Col: col, Msg: "invalid unicode escape"}
			}
			b.WriteRune(rune(n))
		default:
			return lx.errf("unknown escape sequence '\\%s'", string(e))
		}
	}
	lx.emit(Token{Type: STRING, Lit: b.String(), Line: line, Col: col})
	return nil
}
