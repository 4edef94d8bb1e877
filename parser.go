// parser.go — newline-aware Pratt parser producing S-expression ASTs.
//
// The parser consumes the whitespace-sensitive token stream from lexer.go
// and builds compact S-expressions (spans.go). Statement termination is
// line-sensitive: a NEWLINE ends a statement unless the next significant
// token is a continuation (a leading '.', '::', '|>', a binary operator, or
// an opening brace), mirroring the rule that return/break/continue only
// consume a same-line operand.
//
// Node vocabulary (tag, pos, children...):
//
//	("block", stmt...)
//	("int", int64) ("float", float64) ("str", string) ("bool", bool) ("null")
//	("var", name) ("id", name)
//	("array", e...) ("objlit", ("pair", keyString, e)...)
//	("unop", op, e) ("binop", op, l, r)        // "." is string concat
//	("assign", target, e)                      // target: var/get/idx
//	("let", name, typeOrNil, e)                // $x: T = e
//	("get", obj, name) ("idx", obj, e) ("call", callee, arg...)
//	("path", enumName, caseName)               // Enum::Case
//	("structlit", name, ("pair", field, e)...)
//	("echo", e...)
//	("if", cond, thenBlock, elseOrNil)
//	("while", cond, body)
//	("foreach", keyNameOrEmpty, valName, iter, body)
//	("return", eOrNil) ("break") ("continue")
//	("fn", name, generics, params, retTypeOrNil, body, uses)
//	  generics: ("generics", ("tp", name, constraintNameOrEmpty)...)
//	  params:   ("params", ("param", name, typeOrNil, defaultOrNil)...)
//	  uses:     ("uses", ("cap", name, byRef bool)...)
//	("struct", name, ("field", name, type, defaultOrNil)... ("usecomp", name)...)
//	("enumdecl", name, ("case", name, ("param", name, type)...)...)
//	("iface", name, ("ifn", name, ("tparams", t...), ret)...)
//	("typealias", name, type)
//	("import", spec, name...)
//	("export", decl)
//	("match", scrutinee, arm...)
//	  arm: ("arm", pattern, body) | ("armdefault", body)
//	  pattern: ("pcase", enum, case, binder...) | ("plit", lit) | ("pwild")
//	("element", tagName, ("attrs", ("pair", name, e)...), ("children", e...))
//
// Type expressions (used by let/params/struct fields/aliases):
//
//	("tid", name)                              // int/float/bool/string/mixed/void/named
//	("tapp", base, t...)                       // Option<T>, Result<T,E>, array<T>
//	("tshape", ("tf", name, optional, t)...)   // Object<{a: int, b?: string}>
//	("tfn", ("tparams", t...), ret)            // fn(int): string
//	("tnullable", t)                           // ?T — parsed, rejected by the checker
package deka

import "fmt"

// Parse tokenizes and parses a source unit. The returned error is a
// *LexError or *ParseError; the parser never aborts the process.
func Parse(src string) (S, error) {
	toks, lerr := Lex(src)
	if lerr != nil {
		return nil, lerr
	}
	p := &parser{toks: toks}
	var root S
	var perr *ParseError
	func() {
		defer func() {
			if r := recover(); r != nil {
				if pe, ok := r.(*ParseError); ok {
					perr = pe
					return
				}
				panic(r)
			}
		}()
		root = p.parseProgram()
	}()
	if perr != nil {
		return nil, perr
	}
	return root, nil
}

type parser struct {
	toks []Token
	i    int
}

func (p *parser) cur() Token { return p.toks[p.i] }

func (p *parser) peek(k int) Token {
	if p.i+k >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i+k]
}

func (p *parser) advance() Token {
	t := p.toks[p.i]
	if p.i < len(p.toks)-1 {
		p.i++
	}
	return t
}

func (p *parser) at(tt TokenType) bool { return p.cur().Type == tt }

func (p *parser) accept(tt TokenType) bool {
	if p.at(tt) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) fail(t Token, format string, args ...any) {
	panic(&ParseError{Line: t.Line, Col: t.Col, Msg: fmt.Sprintf(format, args...)})
}

func (p *parser) expect(tt TokenType, what string) Token {
	if !p.at(tt) {
		p.fail(p.cur(), "expected %s, found %s", what, describeToken(p.cur()))
	}
	return p.advance()
}

func describeToken(t Token) string {
	switch t.Type {
	case EOF:
		return "end of input"
	case NEWLINE:
		return "end of line"
	case STRING:
		return fmt.Sprintf("string %q", t.Lit)
	case VARIABLE:
		return "'$" + t.Lit + "'"
	case INT, FLOAT, IDENT:
		return "'" + t.Lit + "'"
	default:
		if t.Lit != "" {
			return "'" + t.Lit + "'"
		}
		return "token"
	}
}

func tokPos(t Token) Pos { return Pos{Line: t.Line, Col: t.Col} }

// skipNL consumes newline tokens (used where an operand or list item is
// expected, so line breaks inside brackets are insignificant).
func (p *parser) skipNL() {
	for p.at(NEWLINE) {
		p.advance()
	}
}

func (p *parser) skipTerms() {
	for p.at(NEWLINE) || p.at(SEMI) {
		p.advance()
	}
}

// continuesExpr reports whether tt may continue an expression across a
// newline.
func continuesExpr(tt TokenType) bool {
	switch tt {
	case CONCAT, DOT, DBLCOLON, PIPE, OROR, ANDAND, EQ, NEQ,
		LT, LTE, GT, GTE, PLUS, MINUS, STAR, SLASH, PERCENT:
		return true
	}
	return false
}

/* ===========================
   Statements
   =========================== */

func (p *parser) parseProgram() S {
	root := node("block", tokPos(p.cur()))
	p.skipTerms()
	for !p.at(EOF) {
		root = append(root, p.parseStatement())
		p.endStatement()
	}
	return root
}

func (p *parser) endStatement() {
	if p.at(NEWLINE) || p.at(SEMI) {
		p.skipTerms()
		return
	}
	if p.at(EOF) || p.at(RBRACE) {
		return
	}
	p.fail(p.cur(), "expected end of statement, found %s", describeToken(p.cur()))
}

func (p *parser) parseStatement() S {
	t := p.cur()
	switch t.Type {
	case KWSTRUCT:
		return p.parseStructDecl()
	case KWENUM:
		return p.parseEnumDecl()
	case KWINTERFACE:
		return p.parseInterfaceDecl()
	case KWTYPE:
		return p.parseTypeAlias()
	case KWFN:
		if p.peek(1).Type == IDENT {
			return p.parseFnDecl()
		}
		return p.parseExprStatement()
	case KWIMPORT:
		return p.parseImport()
	case KWEXPORT:
		p.advance()
		decl := p.parseStatement()
		switch tagOf(decl) {
		case "fn", "struct", "enumdecl", "typealias", "iface", "let", "assign":
		default:
			p.fail(t, "only declarations can be exported")
		}
		return node("export", tokPos(t), decl)
	case KWECHO:
		p.advance()
		out := node("echo", tokPos(t), p.parseExpr())
		for p.accept(COMMA) {
			p.skipNL()
			out = append(out, p.parseExpr())
		}
		return out
	case KWIF:
		return p.parseIf()
	case KWWHILE:
		p.advance()
		p.expect(LPAREN, "'(' after 'while'")
		p.skipNL()
		cond := p.parseExpr()
		p.skipNL()
		p.expect(RPAREN, "')'")
		body := p.parseBlock()
		return node("while", tokPos(t), cond, body)
	case KWFOREACH:
		return p.parseForeach()
	case KWRETURN:
		p.advance()
		if p.at(NEWLINE) || p.at(SEMI) || p.at(RBRACE) || p.at(EOF) {
			return node("return", tokPos(t), nil)
		}
		return node("return", tokPos(t), p.parseExpr())
	case KWBREAK:
		p.advance()
		return node("break", tokPos(t))
	case KWCONTINUE:
		p.advance()
		return node("continue", tokPos(t))
	case KWMATCH:
		return p.parseMatch()
	case VARIABLE:
		// Typed binding: $x: T = e
		if p.peek(1).Type == COLON {
			p.advance()
			p.advance()
			typ := p.parseType()
			p.expect(ASSIGN, "'=' in typed binding")
			p.skipNL()
			val := p.parseExpr()
			return node("let", tokPos(t), t.Lit, typ, val)
		}
		return p.parseExprStatement()
	default:
		return p.parseExprStatement()
	}
}

func (p *parser) parseExprStatement() S {
	e := p.parseExpr()
	return e
}

func (p *parser) parseBlock() S {
	p.skipNL()
	lb := p.expect(LBRACE, "'{'")
	blk := node("block", tokPos(lb))
	p.skipTerms()
	for !p.at(RBRACE) {
		if p.at(EOF) {
			p.fail(lb, "unterminated block")
		}
		blk = append(blk, p.parseStatement())
		p.endStatement()
	}
	p.expect(RBRACE, "'}'")
	return blk
}

func (p *parser) parseIf() S {
	t := p.expect(KWIF, "'if'")
	p.expect(LPAREN, "'(' after 'if'")
	p.skipNL()
	cond := p.parseExpr()
	p.skipNL()
	p.expect(RPAREN, "')'")
	then := p.parseBlock()
	var els any
	save := p.i
	p.skipNL()
	if p.at(KWELSE) {
		p.advance()
		if p.at(KWIF) {
			els = p.parseIf()
		} else {
			els = p.parseBlock()
		}
	} else {
		p.i = save
	}
	return node("if", tokPos(t), cond, then, els)
}

func (p *parser) parseForeach() S {
	t := p.expect(KWFOREACH, "'foreach'")
	p.expect(LPAREN, "'(' after 'foreach'")
	p.skipNL()
	iter := p.parseExpr()
	p.expect(KWAS, "'as'")
	first := p.expect(VARIABLE, "loop variable")
	keyName := ""
	valName := first.Lit
	if p.accept(ARROW) {
		v := p.expect(VARIABLE, "value variable after '=>'")
		keyName = first.Lit
		valName = v.Lit
	}
	p.skipNL()
	p.expect(RPAREN, "')'")
	body := p.parseBlock()
	return node("foreach", tokPos(t), keyName, valName, iter, body)
}

/* ===========================
   Declarations
   =========================== */

func (p *parser) parseStructDecl() S {
	t := p.expect(KWSTRUCT, "'struct'")
	name := p.expect(IDENT, "struct name")
	out := node("struct", tokPos(t), name.Lit)
	p.expect(LBRACE, "'{'")
	p.skipTerms()
	for !p.at(RBRACE) {
		if p.accept(KWUSE) {
			comp := p.expect(IDENT, "struct name after 'use'")
			out = append(out, node("usecomp", tokPos(comp), comp.Lit))
		} else {
			f := p.expect(VARIABLE, "field declaration")
			p.expect(COLON, "':' after field name")
			typ := p.parseType()
			var def any
			if p.accept(ASSIGN) {
				def = p.parseExpr()
			}
			out = append(out, node("field", tokPos(f), f.Lit, typ, def))
		}
		p.skipTerms()
	}
	p.expect(RBRACE, "'}'")
	return out
}

func (p *parser) parseEnumDecl() S {
	t := p.expect(KWENUM, "'enum'")
	name := p.expect(IDENT, "enum name")
	out := node("enumdecl", tokPos(t), name.Lit)
	p.expect(LBRACE, "'{'")
	p.skipTerms()
	for !p.at(RBRACE) {
		ct := p.expect(KWCASE, "'case'")
		cn := p.expect(IDENT, "case name")
		c := node("case", tokPos(ct), cn.Lit)
		if p.at(CLPAREN) || p.at(LPAREN) {
			p.advance()
			p.skipNL()
			for !p.at(RPAREN) {
				// Payload fields read as `type $name`, e.g. `string $body`.
				pt := p.parseType()
				pv := p.expect(VARIABLE, "payload field name")
				c = append(c, node("param", tokPos(pv), pv.Lit, pt))
				if !p.accept(COMMA) {
					break
				}
				p.skipNL()
			}
			p.expect(RPAREN, "')'")
		}
		out = append(out, c)
		p.skipTerms()
	}
	p.expect(RBRACE, "'}'")
	return out
}

func (p *parser) parseInterfaceDecl() S {
	t := p.expect(KWINTERFACE, "'interface'")
	name := p.expect(IDENT, "interface name")
	out := node("iface", tokPos(t), name.Lit)
	p.expect(LBRACE, "'{'")
	p.skipTerms()
	for !p.at(RBRACE) {
		ft := p.expect(KWFN, "'fn'")
		fname := p.expect(IDENT, "method name")
		if !p.at(CLPAREN) && !p.at(LPAREN) {
			p.fail(p.cur(), "expected parameter list")
		}
		p.advance()
		p.skipNL()
		params := node("tparams", tokPos(ft))
		for !p.at(RPAREN) {
			pt := p.parseType()
			if p.at(VARIABLE) {
				p.advance() // parameter name is documentation only
			}
			params = append(params, pt)
			if !p.accept(COMMA) {
				break
			}
			p.skipNL()
		}
		p.expect(RPAREN, "')'")
		var ret any = node("tid", tokPos(ft), "void")
		if p.accept(COLON) {
			ret = p.parseType()
		}
		out = append(out, node("ifn", tokPos(ft), fname.Lit, params, ret))
		p.skipTerms()
	}
	p.expect(RBRACE, "'}'")
	return out
}

func (p *parser) parseTypeAlias() S {
	t := p.expect(KWTYPE, "'type'")
	name := p.expect(IDENT, "type alias name")
	p.expect(ASSIGN, "'='")
	typ := p.parseType()
	return node("typealias", tokPos(t), name.Lit, typ)
}

func (p *parser) parseFnDecl() S {
	t := p.expect(KWFN, "'fn'")
	name := p.expect(IDENT, "function name")
	generics := p.parseGenerics(tokPos(t))
	params := p.parseParams()
	var ret any
	if p.accept(COLON) {
		ret = p.parseType()
	}
	body := p.parseBlock()
	uses := node("uses", tokPos(t))
	return node("fn", tokPos(t), name.Lit, generics, params, ret, body, uses)
}

func (p *parser) parseGenerics(at Pos) S {
	generics := node("generics", at)
	if !p.at(LT) {
		return generics
	}
	p.advance()
	for {
		tp := p.expect(IDENT, "type parameter")
		constraint := ""
		if p.accept(COLON) {
			constraint = p.expect(IDENT, "constraint name").Lit
		}
		generics = append(generics, node("tp", tokPos(tp), tp.Lit, constraint))
		if !p.accept(COMMA) {
			break
		}
	}
	p.expect(GT, "'>' closing type parameters")
	return generics
}

func (p *parser) parseParams() S {
	if !p.at(CLPAREN) && !p.at(LPAREN) {
		p.fail(p.cur(), "expected parameter list")
	}
	open := p.advance()
	params := node("params", tokPos(open))
	p.skipNL()
	for !p.at(RPAREN) {
		v := p.expect(VARIABLE, "parameter name")
		var typ, def any
		if p.accept(COLON) {
			typ = p.parseType()
		}
		if p.accept(ASSIGN) {
			def = p.parseExpr()
		}
		params = append(params, node("param", tokPos(v), v.Lit, typ, def))
		if !p.accept(COMMA) {
			break
		}
		p.skipNL()
	}
	p.expect(RPAREN, "')'")
	return params
}

func (p *parser) parseImport() S {
	t := p.expect(KWIMPORT, "'import'")
	p.expect(LBRACE, "'{' after 'import'")
	p.skipNL()
	out := node("import", tokPos(t), "")
	names := []any{}
	for !p.at(RBRACE) {
		n := p.expect(IDENT, "imported name")
		names = append(names, n.Lit)
		if !p.accept(COMMA) {
			break
		}
		p.skipNL()
	}
	p.expect(RBRACE, "'}'")
	p.expect(KWFROM, "'from'")
	spec := p.expect(STRING, "module specifier string")
	out[2] = spec.Lit
	out = append(out, names...)
	return out
}

/* ===========================
   Match
   =========================== */

func (p *parser) parseMatch() S {
	t := p.expect(KWMATCH, "'match'")
	if !p.at(CLPAREN) && !p.at(LPAREN) {
		p.fail(p.cur(), "expected '(' after 'match'")
	}
	p.advance()
	p.skipNL()
	scrut := p.parseExpr()
	p.skipNL()
	p.expect(RPAREN, "')'")
	p.skipNL()
	p.expect(LBRACE, "'{'")
	out := node("match", tokPos(t), scrut)
	p.skipTerms()
	for !p.at(RBRACE) {
		if p.at(KWDEFAULT) {
			dt := p.advance()
			p.expect(ARROW, "'=>' after 'default'")
			p.skipNL()
			out = append(out, node("armdefault", tokPos(dt), p.parseArmBody()))
		} else {
			pat := p.parsePattern()
			p.expect(ARROW, "'=>' after match pattern")
			p.skipNL()
			out = append(out, node("arm", posOf(pat), pat, p.parseArmBody()))
		}
		if !p.accept(COMMA) {
			if !p.at(NEWLINE) && !p.at(RBRACE) && !p.at(SEMI) {
				p.fail(p.cur(), "expected ',' or newline between match arms")
			}
		}
		p.skipTerms()
	}
	p.expect(RBRACE, "'}'")
	return out
}

func (p *parser) parseArmBody() S {
	if p.at(LBRACE) {
		return p.parseBlock()
	}
	return p.parseExpr()
}

func (p *parser) parsePattern() S {
	t := p.cur()
	switch t.Type {
	case IDENT:
		enum := p.advance()
		p.expect(DBLCOLON, "'::' in case pattern")
		cs := p.expect(IDENT, "case name")
		pat := node("pcase", tokPos(t), enum.Lit, cs.Lit)
		if p.at(CLPAREN) || p.at(LPAREN) {
			p.advance()
			for !p.at(RPAREN) {
				b := p.expect(VARIABLE, "payload binder")
				pat = append(pat, b.Lit)
				if !p.accept(COMMA) {
					break
				}
			}
			p.expect(RPAREN, "')'")
		}
		return pat
	case INT:
		p.advance()
		return node("plit", tokPos(t), node("int", tokPos(t), t.I))
	case MINUS:
		p.advance()
		n := p.expect(INT, "number in pattern")
		return node("plit", tokPos(t), node("int", tokPos(t), -n.I))
	case STRING:
		p.advance()
		return node("plit", tokPos(t), node("str", tokPos(t), t.Lit))
	case KWTRUE:
		p.advance()
		return node("plit", tokPos(t), node("bool", tokPos(t), true))
	case KWFALSE:
		p.advance()
		return node("plit", tokPos(t), node("bool", tokPos(t), false))
	default:
		p.fail(t, "expected match pattern, found %s", describeToken(t))
		return nil
	}
}

/* ===========================
   Expressions (Pratt)
   =========================== */

const (
	precNone = iota
	precAssign
	precPipe
	precOr
	precAnd
	precEquality
	precCompare
	precConcat
	precAdditive
	precMultiplicative
	precUnary
)

func infixPrec(tt TokenType) int {
	switch tt {
	case ASSIGN:
		return precAssign
	case PIPE:
		return precPipe
	case OROR:
		return precOr
	case ANDAND:
		return precAnd
	case EQ, NEQ:
		return precEquality
	case LT, LTE, GT, GTE:
		return precCompare
	case CONCAT:
		return precConcat
	case PLUS, MINUS:
		return precAdditive
	case STAR, SLASH, PERCENT:
		return precMultiplicative
	}
	return precNone
}

func (p *parser) parseExpr() S { return p.parseBinary(precAssign) }

func (p *parser) parseBinary(minPrec int) S {
	left := p.parseUnary()
	for {
		// A newline only continues the expression when followed by a
		// continuation token.
		if p.at(NEWLINE) {
			j := p.i
			for p.toks[j].Type == NEWLINE {
				j++
			}
			if !continuesExpr(p.toks[j].Type) {
				return left
			}
			p.i = j
		}
		op := p.cur()
		prec := infixPrec(op.Type)
		if prec < minPrec || prec == precNone {
			return left
		}
		p.advance()
		p.skipNL()
		switch op.Type {
		case ASSIGN:
			switch tagOf(left) {
			case "var", "get", "idx":
			default:
				p.fail(op, "invalid assignment target")
			}
			rhs := p.parseBinary(precAssign) // right-assoc
			left = node("assign", tokPos(op), left, rhs)
		case PIPE:
			rhs := p.parseBinary(precPipe + 1)
			if tagOf(rhs) == "call" {
				// x |> f(a) becomes f(x, a)
				call := node("call", posOf(rhs), rhs[2])
				call = append(call, left)
				call = append(call, rhs[3:]...)
				left = call
			} else {
				left = node("call", tokPos(op), rhs, left)
			}
		case CONCAT:
			rhs := p.parseBinary(precConcat + 1)
			left = node("binop", tokPos(op), ".", left, rhs)
		default:
			rhs := p.parseBinary(prec + 1)
			left = node("binop", tokPos(op), op.Lit, left, rhs)
		}
	}
}

func (p *parser) parseUnary() S {
	t := p.cur()
	switch t.Type {
	case MINUS:
		p.advance()
		return node("unop", tokPos(t), "-", p.parseUnary())
	case NOT:
		p.advance()
		return node("unop", tokPos(t), "!", p.parseUnary())
	}
	return p.parsePostfix(p.parsePrimary())
}

func (p *parser) parsePostfix(e S) S {
	for {
		t := p.cur()
		switch t.Type {
		case CLPAREN:
			p.advance()
			p.skipNL()
			call := node("call", tokPos(t), e)
			for !p.at(RPAREN) {
				call = append(call, p.parseExpr())
				if !p.accept(COMMA) {
					break
				}
				p.skipNL()
			}
			p.skipNL()
			p.expect(RPAREN, "')' closing call")
			e = call
		case CLBRACKET:
			p.advance()
			p.skipNL()
			idx := p.parseExpr()
			p.skipNL()
			p.expect(RBRACKET, "']' closing index")
			e = node("idx", tokPos(t), e, idx)
		case DOT:
			p.advance()
			n := p.cur()
			if n.Type != IDENT && keywords[n.Lit] == 0 {
				p.fail(n, "expected member name after '.'")
			}
			p.advance()
			e = node("get", tokPos(t), e, n.Lit)
		case DBLCOLON:
			if tagOf(e) != "id" {
				p.fail(t, "'::' requires an enum name on the left")
			}
			p.advance()
			cs := p.expect(IDENT, "case name after '::'")
			e = node("path", tokPos(t), kidStr(e, 0), cs.Lit)
		default:
			return e
		}
	}
}

func (p *parser) parsePrimary() S {
	t := p.cur()
	switch t.Type {
	case INT:
		p.advance()
		return node("int", tokPos(t), t.I)
	case FLOAT:
		p.advance()
		return node("float", tokPos(t), t.F)
	case STRING:
		p.advance()
		return node("str", tokPos(t), t.Lit)
	case KWTRUE:
		p.advance()
		return node("bool", tokPos(t), true)
	case KWFALSE:
		p.advance()
		return node("bool", tokPos(t), false)
	case KWNULL:
		p.advance()
		return node("null", tokPos(t))
	case VARIABLE:
		p.advance()
		return node("var", tokPos(t), t.Lit)
	case IDENT:
		p.advance()
		// Struct literal: Name { $field: expr, ... }
		if p.at(LBRACE) && (p.peek(1).Type == VARIABLE || p.peek(1).Type == RBRACE ||
			(p.peek(1).Type == NEWLINE && p.peek(2).Type == VARIABLE)) {
			return p.parseStructLit(t)
		}
		return node("id", tokPos(t), t.Lit)
	case LPAREN, CLPAREN:
		p.advance()
		p.skipNL()
		e := p.parseExpr()
		p.skipNL()
		p.expect(RPAREN, "')'")
		return p.parsePostfix(e)
	case LBRACKET, CLBRACKET:
		return p.parseArrayLit()
	case LBRACE:
		return p.parseObjectLit()
	case KWFN:
		return p.parseLambda()
	case KWMATCH:
		return p.parseMatch()
	case TAGSTART:
		return p.parseElement()
	default:
		p.fail(t, "unexpected %s", describeToken(t))
		return nil
	}
}

func (p *parser) parseStructLit(name Token) S {
	p.expect(LBRACE, "'{'")
	p.skipTerms()
	out := node("structlit", tokPos(name), name.Lit)
	for !p.at(RBRACE) {
		f := p.expect(VARIABLE, "field name")
		p.expect(COLON, "':' after field name")
		p.skipNL()
		out = append(out, node("pair", tokPos(f), f.Lit, p.parseExpr()))
		if !p.accept(COMMA) {
			break
		}
		p.skipTerms()
	}
	p.skipTerms()
	p.expect(RBRACE, "'}' closing struct literal")
	return out
}

func (p *parser) parseArrayLit() S {
	open := p.advance()
	p.skipNL()
	arr := node("array", tokPos(open))
	for !p.at(RBRACKET) {
		arr = append(arr, p.parseExpr())
		if !p.accept(COMMA) {
			break
		}
		p.skipNL()
	}
	p.skipNL()
	p.expect(RBRACKET, "']'")
	return arr
}

func (p *parser) parseObjectLit() S {
	open := p.expect(LBRACE, "'{'")
	p.skipNL()
	out := node("objlit", tokPos(open))
	for !p.at(RBRACE) {
		var key string
		kt := p.cur()
		switch kt.Type {
		case IDENT, STRING:
			key = kt.Lit
			p.advance()
		default:
			p.fail(kt, "expected object key, found %s", describeToken(kt))
		}
		p.expect(COLON, "':' after object key")
		p.skipNL()
		out = append(out, node("pair", tokPos(kt), key, p.parseExpr()))
		if !p.accept(COMMA) {
			break
		}
		p.skipNL()
	}
	p.skipNL()
	p.expect(RBRACE, "'}'")
	return out
}

func (p *parser) parseLambda() S {
	t := p.expect(KWFN, "'fn'")
	params := p.parseParams()
	uses := node("uses", tokPos(t))
	if p.accept(KWUSE) {
		if !p.at(CLPAREN) && !p.at(LPAREN) {
			p.fail(p.cur(), "expected '(' after 'use'")
		}
		p.advance()
		for !p.at(RPAREN) {
			byRef := p.accept(AMP)
			v := p.expect(VARIABLE, "captured variable")
			uses = append(uses, node("cap", tokPos(v), v.Lit, byRef))
			if !p.accept(COMMA) {
				break
			}
		}
		p.expect(RPAREN, "')'")
	}
	var ret any
	if p.accept(COLON) {
		ret = p.parseType()
	}
	body := p.parseBlock()
	return node("fn", tokPos(t), "", node("generics", tokPos(t)), params, ret, body, uses)
}

// parseElement parses a template element whose TAGSTART token has just been
// reached. Lowering to element(...) calls happens in the interpreter; the
// AST keeps the declarative form for the checker.
func (p *parser) parseElement() S {
	open := p.expect(TAGSTART, "element tag")
	attrs := node("attrs", tokPos(open))
	for p.at(IDENT) {
		a := p.advance()
		var val any = node("bool", tokPos(a), true)
		if p.accept(ASSIGN) {
			switch p.cur().Type {
			case STRING:
				sv := p.advance()
				val = node("str", tokPos(sv), sv.Lit)
			case LBRACE:
				p.advance()
				val = p.parseExpr()
				p.expect(RBRACE, "'}' closing attribute expression")
			default:
				p.fail(p.cur(), "expected attribute value")
			}
		}
		attrs = append(attrs, node("pair", tokPos(a), a.Lit, val))
	}
	children := node("children", tokPos(open))
	if p.accept(TAGSELFCLOSE) {
		return node("element", tokPos(open), open.Lit, attrs, children)
	}
	p.expect(TAGCLOSE, "'>' or '/>'")
	for {
		t := p.cur()
		switch t.Type {
		case TMPLTEXT:
			p.advance()
			children = append(children, node("str", tokPos(t), t.Lit))
		case LBRACE:
			p.advance()
			p.skipNL()
			children = append(children, p.parseExpr())
			p.skipNL()
			p.expect(RBRACE, "'}' closing embedded expression")
		case TAGSTART:
			children = append(children, p.parseElement())
		case TAGENDOPEN:
			p.advance()
			if t.Lit != open.Lit {
				p.fail(t, "mismatched closing tag: expected </%s>, found </%s>", open.Lit, t.Lit)
			}
			return node("element", tokPos(open), open.Lit, attrs, children)
		default:
			p.fail(t, "unterminated element <%s>", open.Lit)
		}
	}
}

/* ===========================
   Types
   =========================== */

func (p *parser) parseType() S {
	t := p.cur()
	switch t.Type {
	case QUESTION:
		p.advance()
		return node("tnullable", tokPos(t), p.parseType())
	case KWNULL:
		p.advance()
		return node("tid", tokPos(t), "null")
	case KWFN:
		p.advance()
		if !p.at(CLPAREN) && !p.at(LPAREN) {
			p.fail(p.cur(), "expected '(' in function type")
		}
		p.advance()
		params := node("tparams", tokPos(t))
		for !p.at(RPAREN) {
			params = append(params, p.parseType())
			if !p.accept(COMMA) {
				break
			}
		}
		p.expect(RPAREN, "')'")
		var ret any = node("tid", tokPos(t), "void")
		if p.accept(COLON) {
			ret = p.parseType()
		}
		return node("tfn", tokPos(t), params, ret)
	case IDENT:
		p.advance()
		if t.Lit == "Object" && p.at(LT) {
			return p.parseShapeType(t)
		}
		if p.at(LT) {
			p.advance()
			app := node("tapp", tokPos(t), t.Lit)
			for {
				app = append(app, p.parseType())
				if !p.accept(COMMA) {
					break
				}
			}
			p.expect(GT, "'>' closing type arguments")
			return app
		}
		return node("tid", tokPos(t), t.Lit)
	default:
		p.fail(t, "expected type, found %s", describeToken(t))
		return nil
	}
}

func (p *parser) parseShapeType(t Token) S {
	p.expect(LT, "'<'")
	p.expect(LBRACE, "'{' in object shape")
	p.skipNL()
	out := node("tshape", tokPos(t))
	for !p.at(RBRACE) {
		f := p.expect(IDENT, "shape field name")
		optional := p.accept(QUESTION)
		p.expect(COLON, "':' after shape field")
		ft := p.parseType()
		out = append(out, node("tf", tokPos(f), f.Lit, optional, ft))
		if !p.accept(COMMA) {
			break
		}
		p.skipNL()
	}
	p.skipNL()
	p.expect(RBRACE, "'}'")
	p.expect(GT, "'>' closing object shape")
	return out
}
