package deka

import (
	"strings"
	"testing"
)

func Test_Parser_precedence(t *testing.T) {
	// 1 + 2 * 3 groups the multiplication first.
	e := firstStmt(t, `$x = 1 + 2 * 3`)
	wantTag(t, e, "assign")
	sum := kid(e, 1)
	wantTag(t, sum, "binop")
	if kidStr(sum, 0) != "+" {
		t.Fatalf("outer op = %q, want +", kidStr(sum, 0))
	}
	prod := kid(sum, 2)
	if tagOf(prod) != "binop" || kidStr(prod, 0) != "*" {
		t.Fatalf("rhs should be the product, got %v", prod)
	}
}

func Test_Parser_member_vs_concat(t *testing.T) {
	e := firstStmt(t, `$x = $a.b . "s"`)
	cat := kid(e, 1)
	wantTag(t, cat, "binop")
	if kidStr(cat, 0) != "." {
		t.Fatalf("outer should be concat, got %q", kidStr(cat, 0))
	}
	wantTag(t, kid(cat, 1), "get")
}

func Test_Parser_pipeline_lowers_to_call(t *testing.T) {
	e := firstStmt(t, `$x = 5 |> add(2)`)
	call := kid(e, 1)
	wantTag(t, call, "call")
	wantTag(t, kid(call, 0), "id")
	if kidCount(call) != 3 {
		t.Fatalf("piped call should carry 2 args, has %d", kidCount(call)-1)
	}
	// The piped value lands first.
	wantTag(t, kid(call, 1), "int")
}

func Test_Parser_struct_decl_and_literal(t *testing.T) {
	ast := mustParse(t, `
struct P {
	$x: int = 0
	$y: int = 0
}
$a = P { $x: 1, $y: 2 }
`)
	decl := kid(ast, 0)
	wantTag(t, decl, "struct")
	if kidStr(decl, 0) != "P" {
		t.Fatalf("struct name = %q", kidStr(decl, 0))
	}
	if kidCount(decl) != 3 { // name + 2 fields
		t.Fatalf("struct should have 2 fields, has %d children", kidCount(decl)-1)
	}

	assign := kid(ast, 1)
	lit := kid(assign, 1)
	wantTag(t, lit, "structlit")
	if kidStr(lit, 0) != "P" || kidCount(lit) != 3 {
		t.Fatalf("bad struct literal: %v", lit)
	}
}

func Test_Parser_struct_use_composition(t *testing.T) {
	decl := firstStmt(t, `struct Dog { use Animal; $name: string = "" }`)
	wantTag(t, decl, "struct")
	wantTag(t, kid(decl, 1), "usecomp")
	wantTag(t, kid(decl, 2), "field")
}

func Test_Parser_enum_decl(t *testing.T) {
	decl := firstStmt(t, `
enum Msg {
	case Text(string $body)
	case Quit
}`)
	wantTag(t, decl, "enumdecl")
	text := kid(decl, 1)
	wantTag(t, text, "case")
	if kidStr(text, 0) != "Text" || kidCount(text) != 2 {
		t.Fatalf("bad payload case: %v", text)
	}
	param := kid(text, 1)
	if kidStr(param, 0) != "body" {
		t.Fatalf("payload field name = %q", kidStr(param, 0))
	}
	quit := kid(decl, 2)
	if kidStr(quit, 0) != "Quit" || kidCount(quit) != 1 {
		t.Fatalf("bad nullary case: %v", quit)
	}
}

func Test_Parser_enum_path_call(t *testing.T) {
	e := firstStmt(t, `$m = Msg::Text("hi")`)
	call := kid(e, 1)
	wantTag(t, call, "call")
	path := kid(call, 0)
	wantTag(t, path, "path")
	if kidStr(path, 0) != "Msg" || kidStr(path, 1) != "Text" {
		t.Fatalf("bad path: %v", path)
	}
}

func Test_Parser_match(t *testing.T) {
	m := firstStmt(t, `
match ($msg) {
	Msg::Text($s) => $s
	Msg::Quit => 0,
	default => 1
}`)
	wantTag(t, m, "match")
	if kidCount(m) != 4 { // scrutinee + 3 arms
		t.Fatalf("match arm count = %d", kidCount(m)-1)
	}
	arm := kid(m, 1)
	wantTag(t, arm, "arm")
	pat := kid(arm, 0)
	wantTag(t, pat, "pcase")
	if kidStr(pat, 2) != "s" {
		t.Fatalf("binder = %q", kidStr(pat, 2))
	}
	wantTag(t, kid(m, 3), "armdefault")
}

func Test_Parser_fn_decl_generics(t *testing.T) {
	fn := firstStmt(t, `fn id<T>($x: T): T { return $x }`)
	wantTag(t, fn, "fn")
	if kidStr(fn, 0) != "id" {
		t.Fatalf("fn name = %q", kidStr(fn, 0))
	}
	generics := kid(fn, 1)
	if kidCount(generics) != 1 || kidStr(kid(generics, 0), 0) != "T" {
		t.Fatalf("bad generics: %v", generics)
	}
}

func Test_Parser_fn_generic_constraint(t *testing.T) {
	fn := firstStmt(t, `fn load<T: Reader>($r: T): string { return "" }`)
	tp := kid(kid(fn, 1), 0)
	if kidStr(tp, 1) != "Reader" {
		t.Fatalf("constraint = %q", kidStr(tp, 1))
	}
}

func Test_Parser_lambda_with_uses(t *testing.T) {
	e := firstStmt(t, `$f = fn($x) use ($a, &$b) { return $x }`)
	lam := kid(e, 1)
	wantTag(t, lam, "fn")
	uses := kid(lam, 5)
	if kidCount(uses) != 2 {
		t.Fatalf("capture count = %d", kidCount(uses))
	}
	byVal, byRef := kid(uses, 0), kid(uses, 1)
	if byVal[3].(bool) || !byRef[3].(bool) {
		t.Fatalf("capture modes wrong: %v %v", byVal, byRef)
	}
}

func Test_Parser_import_export(t *testing.T) {
	ast := mustParse(t, `
import { foo, bar } from './util'
export fn baz() { return 1 }
`)
	imp := kid(ast, 0)
	wantTag(t, imp, "import")
	if kidStr(imp, 0) != "./util" {
		t.Fatalf("specifier = %q", kidStr(imp, 0))
	}
	if kidStr(imp, 1) != "foo" || kidStr(imp, 2) != "bar" {
		t.Fatalf("imported names wrong: %v", imp)
	}
	exp := kid(ast, 1)
	wantTag(t, exp, "export")
	wantTag(t, kid(exp, 0), "fn")
}

func Test_Parser_newline_continuation(t *testing.T) {
	// A trailing operator is not enough; the next line must open with a
	// continuation token.
	ast := mustParse(t, "$x = 1\n  . \"s\"")
	if kidCount(ast) != 1 {
		t.Fatalf("continued expression split into %d statements", kidCount(ast))
	}
	cat := kid(kid(ast, 0), 1)
	if tagOf(cat) != "binop" || kidStr(cat, 0) != "." {
		t.Fatalf("expected concat continuation, got %v", cat)
	}

	// Without a continuation token the newline terminates the statement.
	ast = mustParse(t, "$x = 1\n$y = 2")
	if kidCount(ast) != 2 {
		t.Fatalf("statement count = %d, want 2", kidCount(ast))
	}
}

func Test_Parser_return_same_line_only(t *testing.T) {
	fn := firstStmt(t, "fn f() {\nreturn\n1\n}")
	body := kid(fn, 4)
	if kidCount(body) != 2 {
		t.Fatalf("body should hold bare return plus expression, has %d", kidCount(body))
	}
	ret := kid(body, 0)
	wantTag(t, ret, "return")
	if ret[2] != nil {
		t.Fatal("return should carry no operand across the newline")
	}
}

func Test_Parser_template_element(t *testing.T) {
	e := firstStmt(t, `$v = <div class="box" hidden>hello { $name }</div>`)
	el := kid(e, 1)
	wantTag(t, el, "element")
	if kidStr(el, 0) != "div" {
		t.Fatalf("tag = %q", kidStr(el, 0))
	}
	attrs := kid(el, 1)
	if kidCount(attrs) != 2 {
		t.Fatalf("attr count = %d", kidCount(attrs))
	}
	children := kid(el, 2)
	if kidCount(children) != 2 {
		t.Fatalf("child count = %d", kidCount(children))
	}
	wantTag(t, kid(children, 0), "str")
	wantTag(t, kid(children, 1), "var")
}

func Test_Parser_template_mismatched_close(t *testing.T) {
	_, err := Parse(`$v = <div></span>`)
	if err == nil || !strings.Contains(err.Error(), "mismatched closing tag") {
		t.Fatalf("expected mismatched-tag error, got %v", err)
	}
}

func Test_Parser_object_shape_type(t *testing.T) {
	stmt := firstStmt(t, `$p: Object<{x: int, y?: int}> = $q`)
	wantTag(t, stmt, "let")
	shape := kid(stmt, 1)
	wantTag(t, shape, "tshape")
	if kidCount(shape) != 2 {
		t.Fatalf("shape field count = %d", kidCount(shape))
	}
	opt := kid(shape, 1)
	if !opt[3].(bool) {
		t.Fatal("second field should be optional")
	}
}

func Test_Parser_option_type(t *testing.T) {
	stmt := firstStmt(t, `$x: Option<int> = Option::None`)
	typ := kid(stmt, 1)
	wantTag(t, typ, "tapp")
	if kidStr(typ, 0) != "Option" {
		t.Fatalf("type base = %q", kidStr(typ, 0))
	}
}

func Test_Parser_error_has_position(t *testing.T) {
	_, err := Parse("$x = (1 + ")
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Line < 1 {
		t.Fatalf("bad error position: %+v", pe)
	}
}
