package deka

import (
	"strings"
	"testing"
)

// runWith executes src through the adapter with the given mode and module
// loader.
func runWith(t *testing.T, mode Mode, loader Loader, src string) ExecutionResult {
	t.Helper()
	if loader == nil {
		loader = MapLoader{}
	}
	ad := NewAdapter(loader, nil)
	return ad.Run(src, mode, RunContext{EntryName: "main.dk"})
}

// runOut runs src in plain mode and returns stdout, failing the test on any
// diagnostic.
func runOut(t *testing.T, src string) string {
	t.Helper()
	res := runWith(t, ModePlain, nil, src)
	if !res.OK {
		t.Fatalf("run failed: %s", res.Stderr)
	}
	return res.Stdout
}

// mustParse parses src or fails the test.
func mustParse(t *testing.T, src string) S {
	t.Helper()
	ast, err := Parse(src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return ast
}

// strictErrs typechecks src and returns the collected messages.
func strictErrs(t *testing.T, src string) []string {
	t.Helper()
	ast := mustParse(t, src)
	var out []string
	for _, te := range Check(ast, NewUnitContext(), ModeStrict) {
		out = append(out, te.Msg)
	}
	return out
}

func wantTag(t *testing.T, n S, tag string) {
	t.Helper()
	if tagOf(n) != tag {
		t.Fatalf("node tag = %q, want %q", tagOf(n), tag)
	}
}

func wantContains(t *testing.T, got, sub string) {
	t.Helper()
	if !strings.Contains(got, sub) {
		t.Fatalf("%q should contain %q", got, sub)
	}
}

func wantOneErrContaining(t *testing.T, errs []string, sub string) {
	t.Helper()
	for _, e := range errs {
		if strings.Contains(e, sub) {
			return
		}
	}
	t.Fatalf("no diagnostic contains %q; got %v", sub, errs)
}

// firstStmt returns the first top-level statement of a parsed program.
func firstStmt(t *testing.T, src string) S {
	t.Helper()
	ast := mustParse(t, src)
	if kidCount(ast) == 0 {
		t.Fatal("program has no statements")
	}
	return kid(ast, 0)
}
