package deka

import "testing"

func Test_Adapter_preflight_missing_cwd(t *testing.T) {
	ad := NewAdapter(MapLoader{}, nil)
	res := ad.Run(`echo 1`, ModePlain, RunContext{
		Cwd:       "/definitely/not/a/real/directory",
		EntryName: "main.dk",
	})
	if res.OK {
		t.Fatal("missing cwd should fail preflight")
	}
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Phase != "preflight" {
		t.Fatalf("diagnostics = %+v", res.Diagnostics)
	}
}

func Test_Adapter_strict_reports_typecheck_and_skips_run(t *testing.T) {
	res := runWith(t, ModeStrict, nil, `
echo "before"
$a: int = "nope"
`)
	if res.OK {
		t.Fatal("strict mode should fail on the type error")
	}
	if res.Stdout != "" {
		t.Fatalf("nothing should execute, stdout = %q", res.Stdout)
	}
	if len(res.Diagnostics) == 0 || res.Diagnostics[0].Phase != "typecheck" {
		t.Fatalf("diagnostics = %+v", res.Diagnostics)
	}
	wantContains(t, res.Diagnostics[0].Message, "cannot assign string")
}

func Test_Adapter_plain_skips_checker(t *testing.T) {
	// The same program runs in plain mode; the annotation is not enforced.
	res := runWith(t, ModePlain, nil, `
$a: int = "nope"
echo $a
`)
	if !res.OK {
		t.Fatalf("plain mode should run: %s", res.Stderr)
	}
	if res.Stdout != "nope" {
		t.Fatalf("stdout = %q", res.Stdout)
	}
}

func Test_Adapter_parse_error_diagnostic(t *testing.T) {
	res := runWith(t, ModePlain, nil, `$x = (1 + `)
	if res.OK {
		t.Fatal("broken source should fail")
	}
	d := res.Diagnostics[0]
	if d.Phase != "parse" || d.Line < 1 {
		t.Fatalf("diagnostic = %+v", d)
	}
}

func Test_Adapter_resolve_error_diagnostic(t *testing.T) {
	loader := MapLoader{
		"util.dk": `export fn helper(): int { return 1 }`,
	}
	res := runWith(t, ModePlain, loader, `
import { helper } from './util'
echo 1
`)
	if res.OK {
		t.Fatal("unused import should fail")
	}
	d := res.Diagnostics[0]
	if d.Phase != "resolve" {
		t.Fatalf("diagnostic = %+v", d)
	}
	wantContains(t, d.Message, "Unused import 'helper'")
}

func Test_Adapter_runtime_diagnostic_has_position(t *testing.T) {
	res := runWith(t, ModePlain, nil, "echo 1\necho 2 / 0")
	if res.OK {
		t.Fatal("division by zero should fail")
	}
	// Output before the failure survives.
	if res.Stdout != "1" {
		t.Fatalf("stdout = %q", res.Stdout)
	}
	d := res.Diagnostics[0]
	if d.Phase != "runtime" || d.Line != 2 {
		t.Fatalf("diagnostic = %+v", d)
	}
}

func Test_Adapter_meta(t *testing.T) {
	loader := MapLoader{
		"util.dk": `export fn one(): int { return 1 }`,
	}
	res := runWith(t, ModePlain, loader, `
import { one } from './util'
echo one()
`)
	if !res.OK {
		t.Fatalf("run failed: %s", res.Stderr)
	}
	if res.Meta.ModuleCount != 2 {
		t.Fatalf("module count = %d, want 2", res.Meta.ModuleCount)
	}
	if res.Meta.EntryHash == "" {
		t.Fatal("entry hash should be recorded")
	}
}

func Test_Adapter_strict_sees_imported_signatures(t *testing.T) {
	loader := MapLoader{
		"lib.dk": `export fn double($n: int): int { return $n * 2 }`,
	}

	// A misused import is caught with the exporter's declared types.
	res := runWith(t, ModeStrict, loader, `
import { double } from './lib'
echo double("four")
`)
	if res.OK {
		t.Fatal("string argument to an int parameter should fail strict mode")
	}
	d := res.Diagnostics[0]
	if d.Phase != "typecheck" {
		t.Fatalf("diagnostic = %+v", d)
	}
	wantContains(t, d.Message, "argument 1 of double is string, expected int")

	// The well-typed call passes strict mode and runs.
	res = runWith(t, ModeStrict, loader, `
import { double } from './lib'
echo double(4)
`)
	if !res.OK {
		t.Fatalf("well-typed import failed: %s", res.Stderr)
	}
	if res.Stdout != "8" {
		t.Fatalf("stdout = %q", res.Stdout)
	}
}

func Test_Adapter_bridge_rejected_in_strict(t *testing.T) {
	res := runWith(t, ModeStrict, nil, `$r = __bridge("storage", "get", { key: "k" })`)
	if res.OK {
		t.Fatal("strict mode should reject the internal bridge")
	}
	if res.Diagnostics[0].Phase != "typecheck" {
		t.Fatalf("diagnostic = %+v", res.Diagnostics[0])
	}
	wantContains(t, res.Diagnostics[0].Message, "internal")
}

func Test_Adapter_bridge_storage_roundtrip(t *testing.T) {
	policy, err := ParseHostPolicy([]byte("capabilities:\n  storage: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	ad := NewAdapter(MapLoader{}, NewHostContext(policy))
	res := ad.Run(`
$set = __bridge("storage", "set", { key: "color", value: "teal" })
$got = __bridge("storage", "get", { key: "color" })
echo $got.unwrap()
`, ModeStrictInternal, RunContext{EntryName: "main.dk"})
	if !res.OK {
		t.Fatalf("bridge run failed: %s", res.Stderr)
	}
	if res.Stdout != "teal" {
		t.Fatalf("stdout = %q", res.Stdout)
	}
}

func Test_Adapter_bridge_denied_capability_is_err_value(t *testing.T) {
	// Deny-all host: the guest sees Result::Err, not a crashed run.
	ad := NewAdapter(MapLoader{}, nil)
	res := ad.Run(`
$r = __bridge("storage", "get", { key: "k" })
echo $r.unwrap_err()
`, ModeStrictInternal, RunContext{EntryName: "main.dk"})
	if !res.OK {
		t.Fatalf("denied capability should not crash the run: %s", res.Stderr)
	}
	wantContains(t, res.Stdout, "capability 'storage' is not granted")
}

func Test_Adapter_bridge_clock(t *testing.T) {
	policy, err := ParseHostPolicy([]byte("capabilities:\n  clock: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	ad := NewAdapter(MapLoader{}, NewHostContext(policy))
	res := ad.Run(`
$t = __bridge("clock", "now", { })
echo $t.is_ok()
`, ModeStrictInternal, RunContext{EntryName: "main.dk"})
	if !res.OK {
		t.Fatalf("clock run failed: %s", res.Stderr)
	}
	if res.Stdout != "true" {
		t.Fatalf("stdout = %q", res.Stdout)
	}
}

func Test_Adapter_report_in_meta(t *testing.T) {
	policy, err := ParseHostPolicy([]byte("capabilities:\n  storage: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	ad := NewAdapter(MapLoader{}, NewHostContext(policy))
	res := ad.Run(`echo 1`, ModePlain, RunContext{EntryName: "main.dk"})
	if !res.OK {
		t.Fatal(res.Stderr)
	}
	if !res.Meta.Host.Storage || len(res.Meta.Host.WasmImports) == 0 {
		t.Fatalf("meta host report wrong: %+v", res.Meta.Host)
	}
}

func Test_Adapter_run_context_host_overrides(t *testing.T) {
	// A per-run host replaces the adapter-level deny-all one.
	policy, err := ParseHostPolicy([]byte("capabilities:\n  storage: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	ad := NewAdapter(MapLoader{}, nil)
	res := ad.Run(`
$r = __bridge("storage", "set", { key: "a", value: "1" })
echo $r.is_ok()
`, ModeStrictInternal, RunContext{EntryName: "main.dk", Host: NewHostContext(policy)})
	if !res.OK {
		t.Fatalf("run failed: %s", res.Stderr)
	}
	if res.Stdout != "true" {
		t.Fatalf("stdout = %q", res.Stdout)
	}
}
