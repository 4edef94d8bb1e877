package deka

import (
	"errors"
	"strings"
	"testing"
)

func Test_Modules_import_across_files(t *testing.T) {
	loader := MapLoader{
		"util.dk": `
export fn double($x: int): int { return $x * 2 }
export fn triple($x: int): int { return $x * 3 }
`,
	}
	out := runOutWith(t, loader, `
import { double, triple } from './util'
echo double(2) . "," . triple(2)
`)
	if out != "4,6" {
		t.Fatalf("stdout = %q", out)
	}
}

func Test_Modules_transitive_imports(t *testing.T) {
	loader := MapLoader{
		"a.dk": `
import { base } from './b'
export fn top(): int { return base() + 1 }
`,
		"b.dk": `export fn base(): int { return 10 }`,
	}
	out := runOutWith(t, loader, `
import { top } from './a'
echo top()
`)
	if out != "11" {
		t.Fatalf("stdout = %q", out)
	}
}

func Test_Modules_cycle_detected(t *testing.T) {
	loader := MapLoader{
		"a.dk": `
import { b } from './b'
export fn a(): int { return 1 }
`,
		"b.dk": `
import { a } from './a'
export fn b(): int { return 2 }
`,
	}
	r := NewResolver(loader)
	_, err := r.ResolveSource("main.dk", `
import { a } from './a'
echo a()
`)
	if err == nil {
		t.Fatal("cyclic import should fail resolution")
	}
	wantContains(t, err.Error(), "Cyclic import detected")
	wantContains(t, err.Error(), "main")
}

func Test_Modules_cycle_report_names_entry_file(t *testing.T) {
	loader := MapLoader{
		"a.dk": `
import { b } from './b'
export fn a(): int { return b() }
`,
		"b.dk": `
import { a } from './a'
export fn b(): int { return a() }
`,
	}
	r := NewResolver(loader)
	_, err := r.Resolve("a.dk")
	if err == nil {
		t.Fatal("cyclic import should fail resolution")
	}
	wantContains(t, err.Error(), "Cyclic import detected: `a.dk`")
	wantContains(t, err.Error(), "a.dk -> ./b -> a.dk")
}

func Test_Modules_missing_export_suggests(t *testing.T) {
	loader := MapLoader{
		"util.dk": `export fn present(): int { return 1 }`,
	}
	r := NewResolver(loader)
	_, err := r.ResolveSource("main.dk", `
import { missing } from './util'
echo missing()
`)
	if err == nil {
		t.Fatal("missing export should fail resolution")
	}
	wantContains(t, err.Error(), "missing")
	wantContains(t, err.Error(), "present")
	wantContains(t, err.Error(), "Did you mean 'present'?")
}

func Test_Modules_missing_export_without_near_match(t *testing.T) {
	loader := MapLoader{
		"util.dk": `export fn present(): int { return 1 }`,
	}
	r := NewResolver(loader)
	_, err := r.ResolveSource("main.dk", `
import { zzz } from './util'
echo zzz()
`)
	if err == nil {
		t.Fatal("missing export should fail resolution")
	}
	wantContains(t, err.Error(), "Module './util' has no export 'zzz'.")
	if strings.Contains(err.Error(), "Did you mean") {
		t.Fatalf("no suggestion expected for %q", err.Error())
	}
}

func Test_Modules_unused_import_rejected(t *testing.T) {
	loader := MapLoader{
		"util.dk": `export fn helper(): int { return 1 }`,
	}
	r := NewResolver(loader)
	_, err := r.ResolveSource("main.dk", `
import { helper } from './util'
echo 1
`)
	if err == nil {
		t.Fatal("unused import should fail resolution")
	}
	wantContains(t, err.Error(), "Unused import 'helper'")
}

func Test_Modules_bare_specifier_uses_dk_modules(t *testing.T) {
	loader := MapLoader{
		"dk_modules/left-pad/index.dk": `
export fn pad($s: string, $n: int): string {
	while (strlen($s) < $n) { $s = " " . $s }
	return $s
}
`,
	}
	out := runOutWith(t, loader, `
import { pad } from 'left-pad'
echo "[" . pad("x", 3) . "]"
`)
	if out != "[  x]" {
		t.Fatalf("stdout = %q", out)
	}
}

func Test_Modules_relative_specifier_resolves_from_dir(t *testing.T) {
	loader := MapLoader{
		"lib/util.dk": `export fn one(): int { return 1 }`,
		"lib/deep.dk": `import { one } from './util'` + "\n" + `export fn two(): int { return one() + 1 }`,
	}
	out := runOutWith(t, loader, `
import { two } from './lib/deep'
echo two()
`)
	if out != "2" {
		t.Fatalf("stdout = %q", out)
	}
}

func Test_Modules_escape_above_root_rejected(t *testing.T) {
	r := NewResolver(MapLoader{})
	_, err := r.ResolveSource("main.dk", `
import { x } from '../outside'
echo x
`)
	if err == nil {
		t.Fatal("escaping specifier should fail resolution")
	}
}

func Test_Modules_resolution_order_is_postorder(t *testing.T) {
	loader := MapLoader{
		"a.dk": `
import { b } from './b'
export fn a(): int { return b() }
`,
		"b.dk": `export fn b(): int { return 5 }`,
	}
	r := NewResolver(loader)
	prog, err := r.ResolveSource("main.dk", `
import { a } from './a'
echo a()
`)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if len(prog.Modules) != 3 {
		t.Fatalf("module count = %d, want 3", len(prog.Modules))
	}
	// Dependencies come before their importers; the entry is last.
	if prog.Modules[0].Name != "./b" && !strings.Contains(prog.Modules[0].Path, "b.dk") {
		t.Fatalf("first module should be the leaf, got %q", prog.Modules[0].Path)
	}
	if prog.Entry != prog.Modules[len(prog.Modules)-1] {
		t.Fatal("entry module should resolve last")
	}
}

func Test_Modules_cache_serves_repeat_sources(t *testing.T) {
	loader := MapLoader{
		"util.dk": `export fn one(): int { return 1 }`,
	}
	r := NewResolver(loader)
	src := `
import { one } from './util'
echo one()
`
	if _, err := r.ResolveSource("main.dk", src); err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}
	if _, err := r.ResolveSource("main.dk", src); err != nil {
		t.Fatalf("cached resolve failed: %v", err)
	}
}

func Test_Modules_parse_error_names_module(t *testing.T) {
	loader := MapLoader{
		"bad.dk": `export fn broken( {`,
	}
	r := NewResolver(loader)
	_, err := r.ResolveSource("main.dk", `
import { broken } from './bad'
echo broken()
`)
	if err == nil {
		t.Fatal("broken module should fail resolution")
	}
	var se *SourceError
	if !errors.As(err, &se) {
		t.Fatalf("expected a source-tagged error, got %T", err)
	}
	if !strings.Contains(se.Name, "bad") {
		t.Fatalf("error should name the broken module, got %q", se.Name)
	}
}

// runOutWith runs src in plain mode against the given loader.
func runOutWith(t *testing.T, loader Loader, src string) string {
	t.Helper()
	res := runWith(t, ModePlain, loader, src)
	if !res.OK {
		t.Fatalf("run failed: %s", res.Stderr)
	}
	return res.Stdout
}
