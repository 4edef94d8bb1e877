package deka

import "testing"

func noopNative(name string) *Native {
	return &Native{Name: name, MinArity: 0, MaxArity: 0,
		Fn: func(in *Interp, args []Handle) (Handle, *NativeError) { return 0, nil }}
}

func Test_Registry_duplicate_rejected(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(noopNative("f")); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if err := r.Register(noopNative("f")); err == nil {
		t.Fatal("duplicate registration should fail")
	}
}

func Test_Registry_sealed_rejects_registration(t *testing.T) {
	r := NewRegistry()
	r.Seal()
	if err := r.Register(noopNative("late")); err == nil {
		t.Fatal("sealed registry should reject registration")
	}
	r.Seal() // idempotent
}

func Test_Registry_lookup_and_names(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(noopNative("b"))
	r.MustRegister(noopNative("a"))
	if _, ok := r.Lookup("a"); !ok {
		t.Fatal("registered native not found")
	}
	if _, ok := r.Lookup("zzz"); ok {
		t.Fatal("unregistered name should not resolve")
	}
	names := r.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("names = %v, want sorted [a b]", names)
	}
}

func Test_Registry_arity_bounds(t *testing.T) {
	n := &Native{Name: "f", MinArity: 1, MaxArity: 2}
	if n.checkArity(nil) == nil {
		t.Fatal("zero args should fail a 1..2 native")
	}
	if n.checkArity([]Handle{0}) != nil || n.checkArity([]Handle{0, 0}) != nil {
		t.Fatal("in-range arities should pass")
	}
	if n.checkArity([]Handle{0, 0, 0}) == nil {
		t.Fatal("three args should fail a 1..2 native")
	}

	variadic := &Native{Name: "v", MinArity: 1, MaxArity: -1}
	if variadic.checkArity(make([]Handle, 9)) != nil {
		t.Fatal("variadic native should accept many args")
	}
	aerr := variadic.checkArity(nil)
	if aerr == nil || aerr.Code != NativeBadArity {
		t.Fatalf("under-minimum should yield an arity error, got %v", aerr)
	}
}

func Test_Registry_builtins_include_core_surface(t *testing.T) {
	for _, name := range []string{
		"print", "panic", "type_of", "strlen", "implode", "count",
		"array_map", "element", "render", "option.unwrap", "result.is_ok",
		"__bridge",
	} {
		if _, ok := builtins.Lookup(name); !ok {
			t.Fatalf("builtin %q is not registered", name)
		}
	}
}
