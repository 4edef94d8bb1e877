package deka

import "testing"

func Test_Arena_none_is_slot_zero(t *testing.T) {
	a := NewArena()
	if a.None() != 0 {
		t.Fatalf("None handle = %d, want 0", a.None())
	}
	if a.Tag(a.None()) != TagNone {
		t.Fatalf("slot 0 tag = %v, want TagNone", a.Tag(a.None()))
	}
}

func Test_Arena_copy_struct_is_independent(t *testing.T) {
	a := NewArena()
	rec := NewRecord()
	rec.Set("x", a.Int(1))
	orig := a.Struct("Point", rec)

	cp := a.Copy(orig)

	// Mutating the original leaves the copy untouched.
	a.AsRecord(orig).Set("x", a.Int(99))

	ch, _ := a.AsRecord(cp).Get("x")
	if a.AsInt(ch) != 1 {
		t.Fatalf("copy changed with the original: got %d", a.AsInt(ch))
	}
	if a.StructName(cp) != "Point" {
		t.Fatalf("copy lost its struct name: %q", a.StructName(cp))
	}
}

func Test_Arena_copy_array_is_deep(t *testing.T) {
	a := NewArena()
	inner := a.Array([]Handle{a.Int(1)})
	outer := a.Array([]Handle{inner, a.Int(2)})

	cp := a.Copy(outer)
	a.SetArrayElem(inner, 0, a.Int(42))

	got := a.AsArray(a.AsArray(cp)[0])[0]
	if a.AsInt(got) != 1 {
		t.Fatalf("nested element shared after copy: got %d", a.AsInt(got))
	}
}

func Test_Arena_copy_enum_payload(t *testing.T) {
	a := NewArena()
	rec := NewRecord()
	rec.Set("x", a.Int(5))
	payload := a.Struct("P", rec)
	orig := a.Enum("Box", "Full", []string{"item"}, []Handle{payload})

	cp := a.Copy(orig)
	a.AsRecord(payload).Set("x", a.Int(-1))

	_, vals := a.EnumPayload(cp)
	ch, _ := a.AsRecord(vals[0]).Get("x")
	if a.AsInt(ch) != 5 {
		t.Fatalf("enum payload shared after copy: got %d", a.AsInt(ch))
	}
}

func Test_Arena_equal_enum_ignores_payload(t *testing.T) {
	a := NewArena()
	x := a.Enum("Msg", "Text", []string{"body"}, []Handle{a.Str("a")})
	y := a.Enum("Msg", "Text", []string{"body"}, []Handle{a.Str("b")})
	if !a.Equal(x, y) {
		t.Fatal("same enum case with different payloads should compare equal")
	}

	z := a.Enum("Msg", "Quit", nil, nil)
	if a.Equal(x, z) {
		t.Fatal("different cases should not compare equal")
	}

	other := a.Enum("Signal", "Text", []string{"body"}, []Handle{a.Str("a")})
	if a.Equal(x, other) {
		t.Fatal("cases of different enums should not compare equal")
	}
}

func Test_Arena_equal_structs_are_nominal(t *testing.T) {
	a := NewArena()
	r1 := NewRecord()
	r1.Set("x", a.Int(1))
	r2 := NewRecord()
	r2.Set("x", a.Int(1))
	p := a.Struct("Point", r1)
	q := a.Struct("Vector", r2)
	if a.Equal(p, q) {
		t.Fatal("structs of different names should not compare equal")
	}

	r3 := NewRecord()
	r3.Set("x", a.Int(1))
	p2 := a.Struct("Point", r3)
	if !a.Equal(p, p2) {
		t.Fatal("same-named structs with equal fields should compare equal")
	}
}

func Test_Arena_equal_numeric_cross_type(t *testing.T) {
	a := NewArena()
	if !a.Equal(a.Int(3), a.Float(3.0)) {
		t.Fatal("3 == 3.0 should hold")
	}
	if a.Equal(a.Int(3), a.Float(3.5)) {
		t.Fatal("3 == 3.5 should not hold")
	}
}

func Test_Arena_truthy(t *testing.T) {
	a := NewArena()
	cases := []struct {
		h    Handle
		want bool
	}{
		{a.None(), false},
		{a.Bool(false), false},
		{a.Bool(true), true},
		{a.Int(0), false},
		{a.Int(-1), true},
		{a.Float(0), false},
		{a.Float(0.1), true},
		{a.Str(""), false},
		{a.Str("x"), true},
		{a.Array(nil), false},
		{a.Array([]Handle{a.Int(1)}), true},
	}
	for i, tc := range cases {
		if got := a.Truthy(tc.h); got != tc.want {
			t.Fatalf("case %d: truthy = %v, want %v", i, got, tc.want)
		}
	}
}

func Test_Arena_size_grows_with_allocs(t *testing.T) {
	a := NewArena()
	before := a.Size()
	a.Int(1)
	a.Str("x")
	if a.Size() != before+2 {
		t.Fatalf("size = %d, want %d", a.Size(), before+2)
	}
}
