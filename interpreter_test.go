package deka

import (
	"strings"
	"testing"
)

func Test_Interp_struct_assignment_copies(t *testing.T) {
	out := runOut(t, `
struct P { $x: int = 0 }
$a = P { $x: 1 }
$b = $a
$b.x = 2
echo $a.x . "," . $b.x
`)
	if out != "1,2" {
		t.Fatalf("stdout = %q, want %q", out, "1,2")
	}
}

func Test_Interp_array_assignment_copies(t *testing.T) {
	out := runOut(t, `
$a = [1, 2]
$b = $a
$b[0] = 9
echo $a[0] . "," . $b[0]
`)
	if out != "1,9" {
		t.Fatalf("stdout = %q", out)
	}
}

func Test_Interp_enum_equality_ignores_payload(t *testing.T) {
	out := runOut(t, `
enum Msg { case Text(string $body); case Quit }
if (Msg::Text("a") == Msg::Text("b")) { echo "same" }
if (Msg::Text("a") == Msg::Quit) { echo "wrong" }
`)
	if out != "same" {
		t.Fatalf("stdout = %q", out)
	}
}

func Test_Interp_option_unwrap(t *testing.T) {
	out := runOut(t, `echo Option::Some(7).unwrap()`)
	if out != "7" {
		t.Fatalf("stdout = %q", out)
	}
}

func Test_Interp_option_unwrap_none_panics(t *testing.T) {
	res := runWith(t, ModePlain, nil, `echo Option::None.unwrap()`)
	if res.OK {
		t.Fatal("unwrapping None should fail the run")
	}
	wantContains(t, res.Stderr, "called unwrap() on Option::None")
}

func Test_Interp_option_unwrap_or(t *testing.T) {
	out := runOut(t, `echo Option::None.unwrap_or(3)`)
	if out != "3" {
		t.Fatalf("stdout = %q", out)
	}
}

func Test_Interp_result_combinators(t *testing.T) {
	out := runOut(t, `
echo Result::Ok(1).unwrap() . ","
echo Result::Err("boom").unwrap_or(9) . ","
echo Result::Err("boom").is_err()
`)
	if out != "1,9,true" {
		t.Fatalf("stdout = %q", out)
	}
}

func Test_Interp_capture_by_ref_vs_value(t *testing.T) {
	out := runOut(t, `
$n = 0
$bump = fn() use (&$n) { $n = $n + 1 }
$bump()
$bump()
echo $n
`)
	if out != "2" {
		t.Fatalf("by-ref capture: stdout = %q", out)
	}

	out = runOut(t, `
$n = 0
$bump = fn() use ($n) { $n = $n + 1 }
$bump()
echo $n
`)
	if out != "0" {
		t.Fatalf("by-value capture: stdout = %q", out)
	}
}

func Test_Interp_match_binders_and_default(t *testing.T) {
	out := runOut(t, `
enum Msg { case Text(string $body); case Quit }
fn describe($m: Msg): string {
	return match ($m) {
		Msg::Text($s) => $s
		default => "quit"
	}
}
echo describe(Msg::Text("hi")) . "," . describe(Msg::Quit)
`)
	if out != "hi,quit" {
		t.Fatalf("stdout = %q", out)
	}
}

func Test_Interp_match_literal_arms(t *testing.T) {
	out := runOut(t, `
$n = 2
echo match ($n) {
	1 => "one"
	2 => "two"
	default => "many"
}
`)
	if out != "two" {
		t.Fatalf("stdout = %q", out)
	}
}

func Test_Interp_foreach_keys_and_values(t *testing.T) {
	out := runOut(t, `
foreach (["a", "b"] as $k => $v) {
	echo $k . "=" . $v . ";"
}
`)
	if out != "0=a;1=b;" {
		t.Fatalf("stdout = %q", out)
	}
}

func Test_Interp_while_break_continue(t *testing.T) {
	out := runOut(t, `
$i = 0
while ($i < 10) {
	$i = $i + 1
	if ($i == 2) { continue }
	if ($i == 4) { break }
	echo $i
}
`)
	if out != "13" {
		t.Fatalf("stdout = %q", out)
	}
}

func Test_Interp_pipeline(t *testing.T) {
	out := runOut(t, `
fn add($a: int, $b: int): int { return $a + $b }
echo 5 |> add(2)
`)
	if out != "7" {
		t.Fatalf("stdout = %q", out)
	}
}

func Test_Interp_string_builtins(t *testing.T) {
	out := runOut(t, `
echo strlen("hello") . ","
echo strtoupper("ab") . ","
echo str_replace("l", "r", "hello") . ","
echo substr("hello", 1, 3)
`)
	if out != "5,AB,herro,ell" {
		t.Fatalf("stdout = %q", out)
	}
}

func Test_Interp_array_builtins(t *testing.T) {
	out := runOut(t, `
$doubled = array_map(fn($x) { return $x * 2 }, range(1, 3))
echo implode(",", $doubled)
`)
	if out != "2,4,6" {
		t.Fatalf("stdout = %q", out)
	}
}

func Test_Interp_array_filter_keeps_copies(t *testing.T) {
	out := runOut(t, `
$odd = array_filter([1, 2, 3, 4], fn($x) { return $x % 2 == 1 })
echo count($odd) . ":" . implode(",", $odd)
`)
	if out != "2:1,3" {
		t.Fatalf("stdout = %q", out)
	}
}

func Test_Interp_enum_name_accessor(t *testing.T) {
	out := runOut(t, `
enum Msg { case Text(string $body); case Quit }
echo Msg::Quit.name . "," . Msg::Text("x").name
`)
	if out != "Quit,Text" {
		t.Fatalf("stdout = %q", out)
	}
}

func Test_Interp_enum_cases(t *testing.T) {
	out := runOut(t, `
enum Color { case Red; case Green; case Blue }
$all = Color::cases()
echo count($all) . ":" . $all[1].name
`)
	if out != "3:Green" {
		t.Fatalf("stdout = %q", out)
	}
}

func Test_Interp_enum_payload_field_access(t *testing.T) {
	out := runOut(t, `
enum Msg { case Text(string $body) }
echo Msg::Text("hi").body
`)
	if out != "hi" {
		t.Fatalf("stdout = %q", out)
	}
}

func Test_Interp_enum_ctor_arity_error(t *testing.T) {
	res := runWith(t, ModePlain, nil, `
enum Msg { case Text(string $body) }
$m = Msg::Text()
`)
	if res.OK {
		t.Fatal("missing payload should fail the run")
	}
	wantContains(t, res.Stderr, "expects 1 payload value(s), found 0")
}

func Test_Interp_division_by_zero(t *testing.T) {
	res := runWith(t, ModePlain, nil, `echo 1 / 0`)
	if res.OK {
		t.Fatal("division by zero should fail the run")
	}
	wantContains(t, res.Stderr, "division by zero")
}

func Test_Interp_panic_builtin(t *testing.T) {
	res := runWith(t, ModePlain, nil, `panic("gave up")`)
	if res.OK {
		t.Fatal("panic() should fail the run")
	}
	wantContains(t, res.Stderr, "gave up")
}

func Test_Interp_template_renders_html(t *testing.T) {
	out := runOut(t, `
$name = "dk"
echo <div class="box">hello { $name }</div>
`)
	if out != `<div class="box">hello dk</div>` {
		t.Fatalf("stdout = %q", out)
	}
}

func Test_Interp_template_escapes_embeds(t *testing.T) {
	out := runOut(t, `
$evil = "<script>"
echo <p>{ $evil }</p>
`)
	if !strings.Contains(out, "&lt;script&gt;") {
		t.Fatalf("embedded text should be escaped, got %q", out)
	}
}

func Test_Interp_recursion_and_defaults(t *testing.T) {
	out := runOut(t, `
fn fib($n: int): int {
	if ($n < 2) { return $n }
	return fib($n - 1) + fib($n - 2)
}
fn greet($name: string = "world"): string { return "hi " . $name }
echo fib(10) . "," . greet() . "," . greet("dk")
`)
	if out != "55,hi world,hi dk" {
		t.Fatalf("stdout = %q", out)
	}
}

func Test_Interp_call_depth_limited(t *testing.T) {
	res := runWith(t, ModePlain, nil, `
fn loop() { return loop() }
loop()
`)
	if res.OK {
		t.Fatal("unbounded recursion should fail the run")
	}
	wantContains(t, res.Stderr, "call depth")
}

func Test_Interp_type_of(t *testing.T) {
	out := runOut(t, `
struct P { $x: int = 0 }
enum E { case A }
echo type_of(1) . "," . type_of("s") . "," . type_of(P { $x: 1 }) . "," . type_of(E::A)
`)
	if out != "int,string,P,E" {
		t.Fatalf("stdout = %q", out)
	}
}
