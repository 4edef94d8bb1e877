package deka

import "testing"

func Test_Checker_int_widens_to_float(t *testing.T) {
	errs := strictErrs(t, `
fn half($x: float): float { return $x / 2 }
$y: float = 3
half(4)
`)
	if len(errs) != 0 {
		t.Fatalf("widening should be silent, got %v", errs)
	}
}

func Test_Checker_float_does_not_narrow(t *testing.T) {
	errs := strictErrs(t, `$n: int = 1.5`)
	wantOneErrContaining(t, errs, "cannot assign float")
}

func Test_Checker_null_banned_with_option_hint(t *testing.T) {
	errs := strictErrs(t, `$x = null`)
	wantOneErrContaining(t, errs, "use Option<T> instead")

	errs = strictErrs(t, `fn f($x: ?int) { }`)
	wantOneErrContaining(t, errs, "use Option<int> instead")
}

func Test_Checker_undefined_variable(t *testing.T) {
	errs := strictErrs(t, `echo $missing`)
	wantOneErrContaining(t, errs, "undefined variable $missing")
}

func Test_Checker_struct_literal_fields(t *testing.T) {
	src := `
struct P { $x: int = 0; $y: int }
`
	errs := strictErrs(t, src+`$a = P { $x: 1 }`)
	wantOneErrContaining(t, errs, "missing field $y")

	errs = strictErrs(t, src+`$a = P { $x: 1, $y: 2, $z: 3 }`)
	wantOneErrContaining(t, errs, "has no field $z")

	errs = strictErrs(t, src+`$a = P { $x: "s", $y: 2 }`)
	wantOneErrContaining(t, errs, "field $x of struct 'P' is int, found string")
}

func Test_Checker_struct_use_ambiguity(t *testing.T) {
	errs := strictErrs(t, `
struct A { $x: int = 0 }
struct B { $x: int = 0; use A }
`)
	wantOneErrContaining(t, errs, "ambiguous promoted field 'x'")
}

func Test_Checker_shape_exactness(t *testing.T) {
	// An extra field fails an exact shape match.
	errs := strictErrs(t, `$p: Object<{x: int}> = { x: 1, y: 2 }`)
	if len(errs) == 0 {
		t.Fatal("extra shape field should be rejected")
	}

	// Optional fields may be absent.
	errs = strictErrs(t, `$p: Object<{x: int, y?: int}> = { x: 1 }`)
	if len(errs) != 0 {
		t.Fatalf("optional field should be allowed to be absent, got %v", errs)
	}
}

func Test_Checker_match_exhaustiveness(t *testing.T) {
	src := `
enum Msg { case Text(string $body); case Quit }
fn f($m: Msg): int {
	return match ($m) {
		Msg::Text($s) => 1
	}
}
`
	errs := strictErrs(t, src)
	wantOneErrContaining(t, errs, "missing case(s): Quit")

	// A default arm satisfies exhaustiveness.
	errs = strictErrs(t, `
enum Msg { case Text(string $body); case Quit }
fn f($m: Msg): int {
	return match ($m) {
		Msg::Text($s) => 1
		default => 0
	}
}
`)
	if len(errs) != 0 {
		t.Fatalf("default arm should satisfy the checker, got %v", errs)
	}
}

func Test_Checker_match_non_enum_needs_default(t *testing.T) {
	errs := strictErrs(t, `
$n = 3
$r = match ($n) {
	1 => "one"
}
`)
	wantOneErrContaining(t, errs, "requires a default arm")
}

func Test_Checker_option_methods(t *testing.T) {
	errs := strictErrs(t, `
$x: Option<int> = Option::Some(7)
$a: int = $x.unwrap()
$b: int = $x.unwrap_or(3)
$c: bool = $x.is_some()
`)
	if len(errs) != 0 {
		t.Fatalf("option methods should typecheck, got %v", errs)
	}
}

func Test_Checker_option_dot_requires_narrowing(t *testing.T) {
	errs := strictErrs(t, `
struct P { $x: int = 0 }
$p: Option<P> = Option::Some(P { $x: 1 })
$v: int = $p.x
`)
	if len(errs) == 0 {
		t.Fatal("assigning an int-or-absent value to int should fail")
	}
}

func Test_Checker_generic_unification(t *testing.T) {
	errs := strictErrs(t, `
fn id<T>($x: T): T { return $x }
$n: int = id(4)
$s: string = id("a")
`)
	if len(errs) != 0 {
		t.Fatalf("generic calls should unify, got %v", errs)
	}

	errs = strictErrs(t, `
fn id<T>($x: T): T { return $x }
$n: int = id("a")
`)
	wantOneErrContaining(t, errs, "cannot assign string")
}

func Test_Checker_generic_constraint(t *testing.T) {
	errs := strictErrs(t, `
interface Named { fn name(): string }
fn label<T: Named>($x: T): string { return $x.name() }
label(3)
`)
	wantOneErrContaining(t, errs, "does not satisfy constraint Named")
}

func Test_Checker_internal_names_gated(t *testing.T) {
	src := `$r = __bridge("storage", "get", { key: "k" })`
	errs := strictErrs(t, src)
	wantOneErrContaining(t, errs, "internal")

	ast := mustParse(t, src)
	if errs := Check(ast, NewUnitContext(), ModeStrictInternal); len(errs) != 0 {
		t.Fatalf("strict_internal should admit __bridge, got %v", errs)
	}
}

func Test_Checker_enum_payload_arity(t *testing.T) {
	errs := strictErrs(t, `
enum Msg { case Text(string $body) }
$m = Msg::Text("a", "b")
`)
	wantOneErrContaining(t, errs, "expects 1 payload value(s), found 2")
}

func Test_Checker_condition_must_be_bool(t *testing.T) {
	errs := strictErrs(t, `
if (1) { echo "x" }
`)
	wantOneErrContaining(t, errs, "condition must be bool")
}

func Test_Checker_duplicate_struct(t *testing.T) {
	errs := strictErrs(t, `
struct P { $x: int = 0 }
struct P { $y: int = 0 }
`)
	wantOneErrContaining(t, errs, "duplicate struct 'P'")
}

func Test_Checker_collects_multiple_errors(t *testing.T) {
	errs := strictErrs(t, `
$a: int = "one"
$b: int = "two"
`)
	if len(errs) != 2 {
		t.Fatalf("checker should collect both errors, got %v", errs)
	}
}

func Test_Checker_lambda_sees_only_captures(t *testing.T) {
	errs := strictErrs(t, `
$a = 1
$f = fn($x) use ($a) { return $x + $a }
`)
	if len(errs) != 0 {
		t.Fatalf("captured variable should be visible, got %v", errs)
	}

	errs = strictErrs(t, `
$a = 1
$f = fn($x) { return $x + $a }
`)
	wantOneErrContaining(t, errs, "undefined variable $a")
}
