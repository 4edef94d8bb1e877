// types.go — the checker's type language and structural rules.
//
// Types are S-expressions like the AST, so the surface type syntax from the
// parser normalizes into the same shape the checker computes with:
//
//	("tid", name)          primitives: int/float/bool/string/mixed/void/VNode
//	("tstruct", name)      nominal struct reference
//	("tenum", name)        nominal enum reference
//	("tiface", name)       capability shape reference
//	("tshape", ("tf", name, optional, t)...)   structural object shape
//	("tarr", t)            array<T>
//	("topt", t)            Option<T>
//	("tres", t, e)         Result<T,E>
//	("tfn", ("tparams", t...), ret)
//	("tvar", name)         generic type parameter
//	("tunion", t...)       inferred unions (incl. the absent member)
//	("tabsent")            the "field may be missing" member of unions
//	("tunknown")           inference bottom (unifies with anything)
//
// Rules: int widens to float and nothing else coerces implicitly; shapes
// compare structurally with exact field matching at typed call sites;
// structs and enums compare nominally; Option/Result participate as
// built-in enums.
package deka

import (
	"fmt"
	"sort"
	"strings"
)

func tid(name string) S     { return S{"tid", Pos{}, name} }
func tStruct(name string) S { return S{"tstruct", Pos{}, name} }
func tEnum(name string) S   { return S{"tenum", Pos{}, name} }
func tIface(name string) S  { return S{"tiface", Pos{}, name} }
func tArr(el S) S           { return S{"tarr", Pos{}, el} }
func tOpt(el S) S           { return S{"topt", Pos{}, el} }
func tRes(ok, err S) S      { return S{"tres", Pos{}, ok, err} }
func tVar(name string) S    { return S{"tvar", Pos{}, name} }
func tUnknown() S           { return S{"tunknown", Pos{}} }
func tAbsent() S            { return S{"tabsent", Pos{}} }

var (
	tInt    = tid("int")
	tFloat  = tid("float")
	tBool   = tid("bool")
	tString = tid("string")
	tMixed  = tid("mixed")
	tVoid   = tid("void")
	tVNode  = tid("VNode")
)

func isTid(t S, name string) bool {
	return tagOf(t) == "tid" && kidStr(t, 0) == name
}

func isMixed(t S) bool   { return isTid(t, "mixed") }
func isUnknown(t S) bool { return tagOf(t) == "tunknown" }

// typeEqual is structural equality over normalized types.
func typeEqual(a, b S) bool {
	if tagOf(a) != tagOf(b) || kidCount(a) != kidCount(b) {
		return false
	}
	for i := 0; i < kidCount(a); i++ {
		switch x := kidAny(a, i).(type) {
		case S:
			y, ok := kidAny(b, i).(S)
			if !ok || !typeEqual(x, y) {
				return false
			}
		case string:
			if y, ok := kidAny(b, i).(string); !ok || x != y {
				return false
			}
		case bool:
			if y, ok := kidAny(b, i).(bool); !ok || x != y {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// formatType renders a type for diagnostics, matching the surface syntax
// where one exists.
func formatType(t S) string {
	switch tagOf(t) {
	case "tid":
		return kidStr(t, 0)
	case "tstruct":
		return "struct " + kidStr(t, 0)
	case "tenum":
		return "enum " + kidStr(t, 0)
	case "tiface":
		return "interface " + kidStr(t, 0)
	case "tarr":
		return "array<" + formatType(kid(t, 0)) + ">"
	case "topt":
		return "Option<" + formatType(kid(t, 0)) + ">"
	case "tres":
		return "Result<" + formatType(kid(t, 0)) + ", " + formatType(kid(t, 1)) + ">"
	case "tvar":
		return kidStr(t, 0)
	case "tunknown":
		return "unknown"
	case "tabsent":
		return "absent"
	case "tunion":
		parts := make([]string, 0, kidCount(t))
		for i := 0; i < kidCount(t); i++ {
			parts = append(parts, formatType(kid(t, i)))
		}
		return strings.Join(parts, " | ")
	case "tshape":
		var b strings.Builder
		b.WriteString("Object<{")
		for i := 0; i < kidCount(t); i++ {
			f := kid(t, i)
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(kidStr(f, 0))
			if f[3].(bool) {
				b.WriteString("?")
			}
			b.WriteString(": ")
			b.WriteString(formatType(f[4].(S)))
		}
		b.WriteString("}>")
		return b.String()
	case "tfn":
		params := kid(t, 0)
		parts := make([]string, 0, kidCount(params))
		for i := 0; i < kidCount(params); i++ {
			parts = append(parts, formatType(kid(params, i)))
		}
		return fmt.Sprintf("fn(%s): %s", strings.Join(parts, ", "), formatType(kid(t, 1)))
	case "tnullable":
		return "?" + formatType(kid(t, 0))
	}
	return "<?>"
}

type shapeField struct {
	optional bool
	typ      S
}

func shapeFields(t S) map[string]shapeField {
	out := map[string]shapeField{}
	for i := 0; i < kidCount(t); i++ {
		f := kid(t, i)
		out[kidStr(f, 0)] = shapeField{optional: f[3].(bool), typ: f[4].(S)}
	}
	return out
}

func unionMembers(t S) []S {
	if tagOf(t) != "tunion" {
		return []S{t}
	}
	out := make([]S, 0, kidCount(t))
	for i := 0; i < kidCount(t); i++ {
		out = append(out, kid(t, i))
	}
	return out
}

func makeUnion(members []S) S {
	var flat []S
	for _, m := range members {
		for _, mm := range unionMembers(m) {
			dup := false
			for _, f := range flat {
				if typeEqual(f, mm) {
					dup = true
					break
				}
			}
			if !dup {
				flat = append(flat, mm)
			}
		}
	}
	if len(flat) == 1 {
		return flat[0]
	}
	u := S{"tunion", Pos{}}
	for _, m := range flat {
		u = append(u, m)
	}
	return u
}

/* ===========================
   Subtyping & unification
   =========================== */

// isSubtype reports a <: b under the unit's declarations. The only numeric
// widening is int <: float; mixed is top; unknown is bottom.
func (c *Checker) isSubtype(a, b S) bool {
	a = c.resolveAlias(a)
	b = c.resolveAlias(b)

	if isMixed(b) || isUnknown(a) || isUnknown(b) {
		return true
	}
	if typeEqual(a, b) {
		return true
	}
	if tagOf(b) == "tunion" {
		for _, m := range unionMembers(b) {
			if c.isSubtype(a, m) {
				return true
			}
		}
		return false
	}
	if tagOf(a) == "tunion" {
		for _, m := range unionMembers(a) {
			if !c.isSubtype(m, b) {
				return false
			}
		}
		return true
	}

	switch tagOf(a) {
	case "tid":
		// int widens to float; nothing else coerces.
		return isTid(a, "int") && isTid(b, "float")
	case "tarr":
		return tagOf(b) == "tarr" && c.isSubtype(kid(a, 0), kid(b, 0))
	case "topt":
		return tagOf(b) == "topt" && c.isSubtype(kid(a, 0), kid(b, 0))
	case "tres":
		return tagOf(b) == "tres" &&
			c.isSubtype(kid(a, 0), kid(b, 0)) && c.isSubtype(kid(a, 1), kid(b, 1))
	case "tstruct":
		// Nominal: a struct matches only its own name (or an interface it
		// structurally satisfies).
		if tagOf(b) == "tiface" {
			return c.satisfiesIface(a, kidStr(b, 0))
		}
		return false
	case "tenum":
		return false
	case "tcase":
		return tagOf(b) == "tenum" && kidStr(a, 0) == kidStr(b, 0)
	case "tshape":
		switch tagOf(b) {
		case "tshape":
			// Exact structural match: every field of b accounted for, no
			// extra fields on a.
			fa := shapeFields(a)
			fb := shapeFields(b)
			for name, bf := range fb {
				af, ok := fa[name]
				if !ok {
					if bf.optional {
						continue
					}
					return false
				}
				if !c.isSubtype(af.typ, bf.typ) {
					return false
				}
			}
			for name := range fa {
				if _, ok := fb[name]; !ok {
					return false
				}
			}
			return true
		case "tiface":
			return c.satisfiesIface(a, kidStr(b, 0))
		}
		return false
	case "tfn":
		if tagOf(b) != "tfn" {
			return false
		}
		pa, pb := kid(a, 0), kid(b, 0)
		if kidCount(pa) != kidCount(pb) {
			return false
		}
		for i := 0; i < kidCount(pa); i++ {
			// Parameters are contravariant.
			if !c.isSubtype(kid(pb, i), kid(pa, i)) {
				return false
			}
		}
		return c.isSubtype(kid(a, 1), kid(b, 1))
	case "tiface":
		return tagOf(b) == "tiface" && kidStr(a, 0) == kidStr(b, 0)
	}
	return false
}

// unify computes the least common supertype of a and b; mixed absorbs
// incompatibilities.
func (c *Checker) unify(a, b S) S {
	a = c.resolveAlias(a)
	b = c.resolveAlias(b)
	if isUnknown(a) {
		return b
	}
	if isUnknown(b) {
		return a
	}
	if typeEqual(a, b) {
		return a
	}
	if isMixed(a) || isMixed(b) {
		return tMixed
	}
	if (isTid(a, "int") && isTid(b, "float")) || (isTid(a, "float") && isTid(b, "int")) {
		return tFloat
	}
	if tagOf(a) == "tarr" && tagOf(b) == "tarr" {
		return tArr(c.unify(kid(a, 0), kid(b, 0)))
	}
	if tagOf(a) == "topt" && tagOf(b) == "topt" {
		return tOpt(c.unify(kid(a, 0), kid(b, 0)))
	}
	if tagOf(a) == "tres" && tagOf(b) == "tres" {
		return tRes(c.unify(kid(a, 0), kid(b, 0)), c.unify(kid(a, 1), kid(b, 1)))
	}
	if tagOf(a) == "tabsent" || tagOf(b) == "tabsent" ||
		tagOf(a) == "tunion" || tagOf(b) == "tunion" {
		return makeUnion(append(unionMembers(a), unionMembers(b)...))
	}
	if tagOf(a) == "tcase" && tagOf(b) == "tcase" && kidStr(a, 0) == kidStr(b, 0) {
		return tEnum(kidStr(a, 0))
	}
	if tagOf(a) == "tcase" && tagOf(b) == "tenum" && kidStr(a, 0) == kidStr(b, 0) {
		return b
	}
	if tagOf(a) == "tenum" && tagOf(b) == "tcase" && kidStr(a, 0) == kidStr(b, 0) {
		return a
	}
	return tMixed
}

// satisfiesIface reports whether concrete structurally provides every
// method of the named capability shape: a field/method of a compatible
// function type per interface entry.
func (c *Checker) satisfiesIface(concrete S, ifaceName string) bool {
	def, ok := c.unit.Ifaces[ifaceName]
	if !ok {
		return false
	}
	if isMixed(concrete) {
		return true
	}
	if tagOf(concrete) == "tiface" {
		if kidStr(concrete, 0) == ifaceName {
			return true
		}
		other, ok := c.unit.Ifaces[kidStr(concrete, 0)]
		if !ok {
			return false
		}
		for _, m := range def.Methods {
			om, ok := other.Method(m.Name)
			if !ok || !c.isSubtype(om.fnType(), m.fnType()) {
				return false
			}
		}
		return true
	}
	lookup := func(name string) (S, bool) {
		switch tagOf(concrete) {
		case "tstruct":
			sd, ok := c.unit.Structs[kidStr(concrete, 0)]
			if !ok {
				return nil, false
			}
			for _, f := range sd.Fields {
				if f.Name == name {
					return f.Type, true
				}
			}
		case "tshape":
			if f, ok := shapeFields(concrete)[name]; ok {
				return f.typ, true
			}
		}
		return nil, false
	}
	for _, m := range def.Methods {
		ft, ok := lookup(m.Name)
		if !ok || !c.isSubtype(c.resolveAlias(ft), m.fnType()) {
			return false
		}
	}
	return true
}

/* ===========================
   Generic unification
   =========================== */

// unifyTypeParams matches a declared parameter type against a concrete
// argument type, extending subst. It fails only on conflicting bindings;
// shape mismatches surface later through the subtype check on the
// substituted type.
func (c *Checker) unifyTypeParams(decl, concrete S, subst map[string]S) bool {
	decl = c.resolveAlias(decl)
	concrete = c.resolveAlias(concrete)
	switch tagOf(decl) {
	case "tvar":
		name := kidStr(decl, 0)
		if prev, ok := subst[name]; ok {
			subst[name] = c.unify(prev, concrete)
			return true
		}
		subst[name] = concrete
		return true
	case "tarr":
		if tagOf(concrete) == "tarr" {
			return c.unifyTypeParams(kid(decl, 0), kid(concrete, 0), subst)
		}
	case "topt":
		if tagOf(concrete) == "topt" {
			return c.unifyTypeParams(kid(decl, 0), kid(concrete, 0), subst)
		}
	case "tres":
		if tagOf(concrete) == "tres" {
			return c.unifyTypeParams(kid(decl, 0), kid(concrete, 0), subst) &&
				c.unifyTypeParams(kid(decl, 1), kid(concrete, 1), subst)
		}
	case "tfn":
		if tagOf(concrete) == "tfn" {
			dp, cp := kid(decl, 0), kid(concrete, 0)
			if kidCount(dp) == kidCount(cp) {
				ok := true
				for i := 0; i < kidCount(dp); i++ {
					ok = ok && c.unifyTypeParams(kid(dp, i), kid(cp, i), subst)
				}
				return ok && c.unifyTypeParams(kid(decl, 1), kid(concrete, 1), subst)
			}
		}
	case "tshape":
		if tagOf(concrete) == "tshape" {
			cf := shapeFields(concrete)
			ok := true
			for i := 0; i < kidCount(decl); i++ {
				f := kid(decl, i)
				if got, present := cf[kidStr(f, 0)]; present {
					ok = ok && c.unifyTypeParams(f[4].(S), got.typ, subst)
				}
			}
			return ok
		}
	}
	return true
}

// substitute replaces bound type variables in t.
func substitute(t S, subst map[string]S) S {
	switch tagOf(t) {
	case "tvar":
		if b, ok := subst[kidStr(t, 0)]; ok {
			return b
		}
		return t
	case "tarr":
		return tArr(substitute(kid(t, 0), subst))
	case "topt":
		return tOpt(substitute(kid(t, 0), subst))
	case "tres":
		return tRes(substitute(kid(t, 0), subst), substitute(kid(t, 1), subst))
	case "tfn":
		params := S{"tparams", posOf(t)}
		p := kid(t, 0)
		for i := 0; i < kidCount(p); i++ {
			params = append(params, substitute(kid(p, i), subst))
		}
		return S{"tfn", posOf(t), params, substitute(kid(t, 1), subst)}
	case "tshape":
		out := S{"tshape", posOf(t)}
		for i := 0; i < kidCount(t); i++ {
			f := kid(t, i)
			out = append(out, S{"tf", posOf(f), kidStr(f, 0), f[3].(bool), substitute(f[4].(S), subst)})
		}
		return out
	case "tunion":
		members := make([]S, 0, kidCount(t))
		for i := 0; i < kidCount(t); i++ {
			members = append(members, substitute(kid(t, i), subst))
		}
		return makeUnion(members)
	default:
		return t
	}
}

// sortedNames is a small helper for deterministic diagnostics.
func sortedNames[M any](m map[string]M) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
