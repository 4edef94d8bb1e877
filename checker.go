// checker.go — static type checking for strict-mode units.
//
// The checker runs between the parser and the interpreter. It never stops
// at the first problem: every diagnostic for a unit is collected into one
// []*TypeError so a single pass reports everything.
//
// Pass 1 collects declarations (structs with `use` composition, enums,
// interfaces, aliases, function signatures, imports). Pass 2 walks
// statements and expressions with a lexical scope of variable types.
//
// The deliberate rules, in one place:
//   - int widens to float; no other implicit coercion.
//   - `null` and `?T` are rejected outright; the diagnostic points at
//     Option<T>.
//   - Object shapes check structurally and exactly; structs nominally.
//   - `match` over an enum without a default arm must cover every case.
//   - Dot access through Option<T> types as the field type ∪ absent and
//     must be narrowed before it is dotted again.
//   - Generic calls unify type parameters against argument types; a
//     `T: Reader` bound requires structural satisfaction of the interface.
package deka

import (
	"fmt"
	"strings"
)

/* ===========================
   Unit symbol table
   =========================== */

// FieldSig is a struct field declaration.
type FieldSig struct {
	Name    string
	Type    S
	Default S // nil when the field has no default
}

// StructDef is a nominal record type. Fields includes composed ("use")
// fields after pass 1 flattening.
type StructDef struct {
	Name   string
	Fields []FieldSig
	At     Pos
}

// Field looks up a field by name.
func (d *StructDef) Field(name string) (FieldSig, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSig{}, false
}

// ParamSig is one function/case parameter.
type ParamSig struct {
	Name       string
	Type       S
	HasDefault bool
}

// CaseSig is one enum case with its payload fields.
type CaseSig struct {
	Name   string
	Params []ParamSig
}

// EnumDef is a closed tagged union.
type EnumDef struct {
	Name  string
	Cases []CaseSig
	At    Pos
}

// Case looks up a case by name.
func (d *EnumDef) Case(name string) (CaseSig, bool) {
	for _, c := range d.Cases {
		if c.Name == name {
			return c, true
		}
	}
	return CaseSig{}, false
}

// TypeParam is a generic parameter with an optional capability bound.
type TypeParam struct {
	Name       string
	Constraint string
}

// FnSig is a checked function signature.
type FnSig struct {
	Name       string
	TypeParams []TypeParam
	Params     []ParamSig
	Ret        S
}

// MethodSig is one interface entry.
type MethodSig struct {
	Name   string
	Params []S
	Ret    S
}

func (m MethodSig) fnType() S {
	params := S{"tparams", Pos{}}
	for _, p := range m.Params {
		params = append(params, p)
	}
	return S{"tfn", Pos{}, params, m.Ret}
}

// IfaceDef is a named capability shape.
type IfaceDef struct {
	Name    string
	Methods []MethodSig
	At      Pos
}

// Method looks up an interface entry.
func (d *IfaceDef) Method(name string) (MethodSig, bool) {
	for _, m := range d.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return MethodSig{}, false
}

// UnitContext is the per-module symbol table shared by the checker, the
// resolver, and the interpreter's declaration loading.
type UnitContext struct {
	Structs map[string]*StructDef
	Enums   map[string]*EnumDef
	Ifaces  map[string]*IfaceDef
	Aliases map[string]S
	Funcs   map[string]*FnSig

	// Imported maps imported names to their (possibly mixed) types;
	// UsedImports records which of them the unit actually referenced, for
	// the resolver's unused-import rule.
	Imported    map[string]S
	UsedImports map[string]bool

	// Exports lists names exported by this unit, in declaration order.
	Exports []string

	declsDone bool // declarations already collected into this table
}

// NewUnitContext returns an empty symbol table.
func NewUnitContext() *UnitContext {
	return &UnitContext{
		Structs:     map[string]*StructDef{},
		Enums:       map[string]*EnumDef{},
		Ifaces:      map[string]*IfaceDef{},
		Aliases:     map[string]S{},
		Funcs:       map[string]*FnSig{},
		Imported:    map[string]S{},
		UsedImports: map[string]bool{},
	}
}

/* ===========================
   Checker
   =========================== */

// Checker holds the state of one check pass.
type Checker struct {
	unit *UnitContext
	mode Mode
	errs []*TypeError

	scopes     []map[string]S
	typeParams map[string]string // in-scope generic params → constraint ("" = none)
	retType    S                 // nil at top level
	inLoop     int
}

// Check validates ast against unit. It returns every diagnostic found; an
// empty slice means the unit is well typed. Plain mode performs no checks.
func Check(ast S, unit *UnitContext, mode Mode) []*TypeError {
	if mode == ModePlain {
		CollectDecls(ast, unit, &[]*TypeError{})
		return nil
	}
	c := &Checker{unit: unit, mode: mode, typeParams: map[string]string{}}
	CollectDecls(ast, unit, &c.errs)
	c.pushScope()
	c.checkBlock(ast)
	c.popScope()
	return c.errs
}

func (c *Checker) errorf(p Pos, format string, args ...any) {
	c.errs = append(c.errs, &TypeError{Line: p.Line, Col: p.Col, Msg: fmt.Sprintf(format, args...)})
}

func (c *Checker) pushScope() { c.scopes = append(c.scopes, map[string]S{}) }
func (c *Checker) popScope()  { c.scopes = c.scopes[:len(c.scopes)-1] }

func (c *Checker) define(name string, t S) {
	c.scopes[len(c.scopes)-1][name] = t
}

func (c *Checker) lookup(name string) (S, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if t, ok := c.scopes[i][name]; ok {
			return t, true
		}
	}
	return nil, false
}

/* ===========================
   Pass 1 — declaration collection
   =========================== */

// CollectDecls registers every top-level declaration of ast into unit and
// appends any declaration-level diagnostics (duplicate names, ambiguous
// struct composition, unknown composed structs) to errs. It runs at most
// once per unit; a table the resolver already filled is left untouched.
func CollectDecls(ast S, unit *UnitContext, errs *[]*TypeError) {
	if unit.declsDone {
		return
	}
	unit.declsDone = true
	declErr := func(p Pos, format string, args ...any) {
		*errs = append(*errs, &TypeError{Line: p.Line, Col: p.Col, Msg: fmt.Sprintf(format, args...)})
	}

	type pendingStruct struct {
		decl S
		def  *StructDef
	}
	var pending []pendingStruct

	var walk func(stmt S, exported bool)
	walk = func(stmt S, exported bool) {
		switch tagOf(stmt) {
		case "export":
			walk(kid(stmt, 0), true)
			return
		case "struct":
			name := kidStr(stmt, 0)
			if _, dup := unit.Structs[name]; dup {
				declErr(posOf(stmt), "duplicate struct '%s'", name)
				return
			}
			def := &StructDef{Name: name, At: posOf(stmt)}
			unit.Structs[name] = def
			pending = append(pending, pendingStruct{decl: stmt, def: def})
		case "enumdecl":
			name := kidStr(stmt, 0)
			if _, dup := unit.Enums[name]; dup {
				declErr(posOf(stmt), "duplicate enum '%s'", name)
				return
			}
			def := &EnumDef{Name: name, At: posOf(stmt)}
			for i := 1; i < kidCount(stmt); i++ {
				cs := kid(stmt, i)
				sig := CaseSig{Name: kidStr(cs, 0)}
				if _, dup := def.Case(sig.Name); dup {
					declErr(posOf(cs), "duplicate case '%s' in enum '%s'", sig.Name, name)
					continue
				}
				for j := 1; j < kidCount(cs); j++ {
					pn := kid(cs, j)
					sig.Params = append(sig.Params, ParamSig{Name: kidStr(pn, 0), Type: kid(pn, 1)})
				}
				def.Cases = append(def.Cases, sig)
			}
			unit.Enums[name] = def
		case "iface":
			name := kidStr(stmt, 0)
			def := &IfaceDef{Name: name, At: posOf(stmt)}
			for i := 1; i < kidCount(stmt); i++ {
				fn := kid(stmt, i)
				m := MethodSig{Name: kidStr(fn, 0), Ret: fn[4].(S)}
				params := kid(fn, 1)
				for j := 0; j < kidCount(params); j++ {
					m.Params = append(m.Params, kid(params, j))
				}
				def.Methods = append(def.Methods, m)
			}
			unit.Ifaces[name] = def
		case "typealias":
			unit.Aliases[kidStr(stmt, 0)] = kid(stmt, 1)
		case "fn":
			name := kidStr(stmt, 0)
			if name == "" {
				return
			}
			if _, dup := unit.Funcs[name]; dup {
				declErr(posOf(stmt), "duplicate function '%s'", name)
				return
			}
			sig := &FnSig{Name: name}
			generics := kid(stmt, 1)
			for i := 0; i < kidCount(generics); i++ {
				tp := kid(generics, i)
				sig.TypeParams = append(sig.TypeParams, TypeParam{Name: kidStr(tp, 0), Constraint: kidStr(tp, 1)})
			}
			params := kid(stmt, 2)
			for i := 0; i < kidCount(params); i++ {
				pn := kid(params, i)
				ps := ParamSig{Name: kidStr(pn, 0), HasDefault: pn[4] != nil}
				if pn[3] != nil {
					ps.Type = pn[3].(S)
				} else {
					ps.Type = tMixed
				}
				sig.Params = append(sig.Params, ps)
			}
			if stmt[5] != nil {
				sig.Ret = stmt[5].(S)
			} else {
				sig.Ret = tVoid
			}
			unit.Funcs[name] = sig
		case "import":
			for i := 1; i < kidCount(stmt); i++ {
				unit.Imported[kidStr(stmt, i)] = tMixed
			}
		}
		if exported {
			switch tagOf(stmt) {
			case "struct", "enumdecl", "iface", "typealias", "fn":
				unit.Exports = append(unit.Exports, kidStr(stmt, 0))
			case "let":
				unit.Exports = append(unit.Exports, kidStr(stmt, 0))
			case "assign":
				if target := kid(stmt, 0); tagOf(target) == "var" {
					unit.Exports = append(unit.Exports, kidStr(target, 0))
				}
			}
		}
	}

	for i := 0; i < kidCount(ast); i++ {
		walk(kid(ast, i), false)
	}

	// Flatten struct composition after every struct name is known.
	for _, ps := range pending {
		seen := map[string]Pos{}
		for i := 1; i < kidCount(ps.decl); i++ {
			item := kid(ps.decl, i)
			switch tagOf(item) {
			case "field":
				name := kidStr(item, 0)
				if _, dup := seen[name]; dup {
					declErr(posOf(item), "duplicate field '%s' in struct '%s'", name, ps.def.Name)
					continue
				}
				seen[name] = posOf(item)
				var def S
				if item[4] != nil {
					def = item[4].(S)
				}
				ps.def.Fields = append(ps.def.Fields, FieldSig{Name: name, Type: kid(item, 1), Default: def})
			case "usecomp":
				src, ok := unit.Structs[kidStr(item, 0)]
				if !ok {
					declErr(posOf(item), "unknown struct '%s' in 'use'", kidStr(item, 0))
					continue
				}
				for _, f := range src.Fields {
					if _, dup := seen[f.Name]; dup {
						declErr(posOf(item), "ambiguous promoted field '%s' in struct '%s' (already declared)",
							f.Name, ps.def.Name)
						continue
					}
					seen[f.Name] = posOf(item)
					ps.def.Fields = append(ps.def.Fields, f)
				}
			}
		}
	}
}

/* ===========================
   Type normalization
   =========================== */

// normalizeType converts a surface type expression into the checker's
// normalized form, reporting the null ban and unknown names.
func (c *Checker) normalizeType(t S) S {
	if t == nil {
		return tMixed
	}
	p := posOf(t)
	switch tagOf(t) {
	case "tnullable":
		c.errorf(p, "nullable types are not allowed; use Option<%s> instead", formatType(kid(t, 0)))
		return tOpt(c.normalizeType(kid(t, 0)))
	case "tid":
		name := kidStr(t, 0)
		switch name {
		case "null":
			c.errorf(p, "null is not allowed; use Option<T> instead")
			return tMixed
		case "int", "float", "bool", "string", "mixed", "void", "VNode":
			return tid(name)
		case "array":
			return tArr(tMixed)
		case "Option":
			return tOpt(tUnknown())
		case "Result":
			return tRes(tUnknown(), tUnknown())
		}
		if _, ok := c.typeParams[name]; ok {
			return tVar(name)
		}
		if _, ok := c.unit.Structs[name]; ok {
			return tStruct(name)
		}
		if _, ok := c.unit.Enums[name]; ok {
			return tEnum(name)
		}
		if _, ok := c.unit.Ifaces[name]; ok {
			return tIface(name)
		}
		if alias, ok := c.unit.Aliases[name]; ok {
			return c.normalizeType(alias)
		}
		if _, ok := c.unit.Imported[name]; ok {
			c.unit.UsedImports[name] = true
			return tMixed
		}
		c.errorf(p, "unknown type '%s'", name)
		return tMixed
	case "tapp":
		base := kidStr(t, 0)
		args := make([]S, 0, kidCount(t)-1)
		for i := 1; i < kidCount(t); i++ {
			args = append(args, c.normalizeType(kid(t, i)))
		}
		switch base {
		case "Option":
			if len(args) != 1 {
				c.errorf(p, "Option takes exactly one type argument")
				return tOpt(tMixed)
			}
			return tOpt(args[0])
		case "Result":
			if len(args) != 2 {
				c.errorf(p, "Result takes exactly two type arguments")
				return tRes(tMixed, tMixed)
			}
			return tRes(args[0], args[1])
		case "array":
			if len(args) != 1 {
				c.errorf(p, "array takes exactly one type argument")
				return tArr(tMixed)
			}
			return tArr(args[0])
		default:
			c.errorf(p, "'%s' is not a generic type", base)
			return tMixed
		}
	case "tshape":
		out := S{"tshape", p}
		for i := 0; i < kidCount(t); i++ {
			f := kid(t, i)
			out = append(out, S{"tf", posOf(f), kidStr(f, 0), f[3].(bool), c.normalizeType(f[4].(S))})
		}
		return out
	case "tfn":
		params := S{"tparams", p}
		sp := kid(t, 0)
		for i := 0; i < kidCount(sp); i++ {
			params = append(params, c.normalizeType(kid(sp, i)))
		}
		return S{"tfn", p, params, c.normalizeType(kid(t, 1))}
	default:
		// Already normalized.
		return t
	}
}

// resolveAlias chases alias names in already-normalized positions; it is
// cheap and cycle-guarded.
func (c *Checker) resolveAlias(t S) S {
	for i := 0; i < 32 && tagOf(t) == "tid"; i++ {
		alias, ok := c.unit.Aliases[kidStr(t, 0)]
		if !ok {
			return t
		}
		t = c.normalizeType(alias)
	}
	return t
}

/* ===========================
   Pass 2 — statements
   =========================== */

func (c *Checker) checkBlock(blk S) {
	for i := 0; i < kidCount(blk); i++ {
		c.checkStmt(kid(blk, i))
	}
}

func (c *Checker) checkStmt(stmt S) {
	switch tagOf(stmt) {
	case "export":
		c.checkStmt(kid(stmt, 0))
	case "struct":
		c.checkStructDecl(stmt)
	case "enumdecl", "iface", "typealias", "import":
		// Validated during collection.
	case "fn":
		c.checkFnDecl(stmt)
	case "let":
		name := kidStr(stmt, 0)
		declared := c.normalizeType(kid(stmt, 1))
		got := c.inferExpr(kid(stmt, 2))
		if !c.isSubtype(got, declared) {
			c.errorf(posOf(stmt), "cannot assign %s to $%s of type %s",
				formatType(got), name, formatType(declared))
		}
		c.define(name, declared)
	case "echo":
		for i := 0; i < kidCount(stmt); i++ {
			c.requireStringable(kid(stmt, i))
		}
	case "if":
		c.requireCond(kid(stmt, 0))
		c.pushScope()
		c.checkBlock(kid(stmt, 1))
		c.popScope()
		if stmt[4] != nil {
			els := stmt[4].(S)
			c.pushScope()
			if tagOf(els) == "if" {
				c.checkStmt(els)
			} else {
				c.checkBlock(els)
			}
			c.popScope()
		}
	case "while":
		c.requireCond(kid(stmt, 0))
		c.inLoop++
		c.pushScope()
		c.checkBlock(kid(stmt, 1))
		c.popScope()
		c.inLoop--
	case "foreach":
		iterT := c.inferExpr(kid(stmt, 2))
		var elemT S = tMixed
		switch tagOf(iterT) {
		case "tarr":
			elemT = kid(iterT, 0)
		case "tshape", "tstruct":
			elemT = tMixed
		default:
			if !isMixed(iterT) {
				c.errorf(posOf(stmt), "cannot iterate over %s", formatType(iterT))
			}
		}
		c.inLoop++
		c.pushScope()
		if key := kidStr(stmt, 0); key != "" {
			c.define(key, tMixed)
		}
		c.define(kidStr(stmt, 1), elemT)
		c.checkBlock(kid(stmt, 3))
		c.popScope()
		c.inLoop--
	case "return":
		var got S = tVoid
		if stmt[2] != nil {
			got = c.inferExpr(stmt[2].(S))
		}
		if c.retType == nil {
			if stmt[2] != nil {
				c.errorf(posOf(stmt), "return with a value outside a function")
			}
			return
		}
		if !c.isSubtype(got, c.retType) {
			c.errorf(posOf(stmt), "cannot return %s from a function declared to return %s",
				formatType(got), formatType(c.retType))
		}
	case "break", "continue":
		if c.inLoop == 0 {
			c.errorf(posOf(stmt), "'%s' outside a loop", tagOf(stmt))
		}
	default:
		c.inferExpr(stmt)
	}
}

func (c *Checker) checkStructDecl(stmt S) {
	def := c.unit.Structs[kidStr(stmt, 0)]
	if def == nil {
		return
	}
	for i := range def.Fields {
		f := &def.Fields[i]
		f.Type = c.normalizeType(f.Type)
		if f.Default != nil {
			got := c.inferExpr(f.Default)
			if !c.isSubtype(got, f.Type) {
				c.errorf(def.At, "default for field $%s is %s, expected %s",
					f.Name, formatType(got), formatType(f.Type))
			}
		}
	}
}

func (c *Checker) checkFnDecl(stmt S) {
	name := kidStr(stmt, 0)
	sig := c.unit.Funcs[name]
	if sig == nil {
		c.inferExpr(stmt) // lambda in statement position
		return
	}
	savedTP := c.typeParams
	c.typeParams = map[string]string{}
	for _, tp := range sig.TypeParams {
		if tp.Constraint != "" {
			if _, ok := c.unit.Ifaces[tp.Constraint]; !ok {
				c.errorf(posOf(stmt), "unknown constraint '%s' on type parameter %s", tp.Constraint, tp.Name)
			}
		}
		c.typeParams[tp.Name] = tp.Constraint
	}
	for i := range sig.Params {
		sig.Params[i].Type = c.normalizeType(sig.Params[i].Type)
	}
	sig.Ret = c.normalizeType(sig.Ret)

	savedRet := c.retType
	c.retType = sig.Ret
	c.pushScope()
	for _, p := range sig.Params {
		c.define(p.Name, p.Type)
	}
	c.checkBlock(kid(stmt, 4))
	c.popScope()
	c.retType = savedRet
	c.typeParams = savedTP
}

/* ===========================
   Expressions
   =========================== */

func (c *Checker) requireCond(e S) {
	t := c.inferExpr(e)
	if !isMixed(t) && !typeEqual(t, tBool) {
		c.errorf(posOf(e), "condition must be bool, found %s", formatType(t))
	}
}

func (c *Checker) requireStringable(e S) {
	t := c.inferExpr(e)
	switch {
	case isMixed(t), isUnknown(t):
	case tagOf(t) == "tid":
		switch kidStr(t, 0) {
		case "int", "float", "bool", "string", "VNode":
		default:
			c.errorf(posOf(e), "cannot render %s as text", formatType(t))
		}
	case tagOf(t) == "tvar":
	default:
		c.errorf(posOf(e), "cannot render %s as text", formatType(t))
	}
}

func (c *Checker) inferExpr(e S) S {
	p := posOf(e)
	switch tagOf(e) {
	case "int":
		return tInt
	case "float":
		return tFloat
	case "str":
		return tString
	case "bool":
		return tBool
	case "null":
		c.errorf(p, "null is not allowed; use Option<T> instead")
		return tMixed
	case "var":
		name := kidStr(e, 0)
		if t, ok := c.lookup(name); ok {
			return t
		}
		c.errorf(p, "undefined variable $%s", name)
		return tMixed
	case "id":
		return c.inferIdent(e)
	case "array":
		elem := tUnknown()
		for i := 0; i < kidCount(e); i++ {
			elem = c.unify(elem, c.inferExpr(kid(e, i)))
		}
		if isUnknown(elem) {
			elem = tMixed
		}
		return tArr(elem)
	case "objlit":
		out := S{"tshape", p}
		for i := 0; i < kidCount(e); i++ {
			pair := kid(e, i)
			out = append(out, S{"tf", posOf(pair), kidStr(pair, 0), false, c.inferExpr(kid(pair, 1))})
		}
		return out
	case "structlit":
		return c.inferStructLit(e)
	case "path":
		return c.inferPath(e, nil)
	case "unop":
		return c.inferUnop(e)
	case "binop":
		return c.inferBinop(e)
	case "assign":
		return c.inferAssign(e)
	case "let":
		c.checkStmt(e)
		return tVoid
	case "get":
		return c.inferGet(e)
	case "idx":
		return c.inferIdx(e)
	case "call":
		return c.inferCall(e)
	case "fn":
		return c.inferLambda(e)
	case "match":
		return c.inferMatch(e)
	case "element":
		attrs := kid(e, 1)
		for i := 0; i < kidCount(attrs); i++ {
			c.inferExpr(kid(kid(attrs, i), 1))
		}
		children := kid(e, 2)
		for i := 0; i < kidCount(children); i++ {
			ct := c.inferExpr(kid(children, i))
			if !isMixed(ct) && !typeEqual(ct, tString) && !typeEqual(ct, tVNode) &&
				!typeEqual(ct, tInt) && !typeEqual(ct, tFloat) &&
				!(tagOf(ct) == "tarr") {
				c.errorf(posOf(kid(children, i)), "element child must be text, a VNode, or a list of them; found %s", formatType(ct))
			}
		}
		return tVNode
	case "echo", "if", "while", "foreach", "return", "break", "continue":
		c.checkStmt(e)
		return tVoid
	}
	return tMixed
}

func (c *Checker) inferIdent(e S) S {
	name := kidStr(e, 0)
	p := posOf(e)
	if strings.HasPrefix(name, "__") && c.mode != ModeStrictInternal {
		c.errorf(p, "'%s' is internal and not available in strict mode", name)
		return tMixed
	}
	if sig, ok := c.unit.Funcs[name]; ok {
		return sigFnType(sig)
	}
	if _, ok := c.unit.Imported[name]; ok {
		c.unit.UsedImports[name] = true
		return tMixed
	}
	if _, ok := c.unit.Enums[name]; ok {
		return tEnum(name) // bare enum reference (e.g. Msg::cases receiver)
	}
	if sig, ok := builtinSigs[name]; ok {
		return sigFnType(sig)
	}
	c.errorf(p, "undefined name '%s'", name)
	return tMixed
}

func sigFnType(sig *FnSig) S {
	params := S{"tparams", Pos{}}
	for _, pr := range sig.Params {
		params = append(params, pr.Type)
	}
	return S{"tfn", Pos{}, params, sig.Ret}
}

func (c *Checker) inferStructLit(e S) S {
	name := kidStr(e, 0)
	p := posOf(e)
	def, ok := c.unit.Structs[name]
	if !ok {
		c.errorf(p, "unknown struct '%s'", name)
		for i := 1; i < kidCount(e); i++ {
			c.inferExpr(kid(kid(e, i), 1))
		}
		return tMixed
	}
	given := map[string]bool{}
	for i := 1; i < kidCount(e); i++ {
		pair := kid(e, i)
		fname := kidStr(pair, 0)
		got := c.inferExpr(kid(pair, 1))
		f, ok := def.Field(fname)
		if !ok {
			c.errorf(posOf(pair), "struct '%s' has no field $%s", name, fname)
			continue
		}
		given[fname] = true
		want := c.normalizeType(f.Type)
		if !c.isSubtype(got, want) {
			c.errorf(posOf(pair), "field $%s of struct '%s' is %s, found %s",
				fname, name, formatType(want), formatType(got))
		}
	}
	for _, f := range def.Fields {
		if !given[f.Name] && f.Default == nil {
			c.errorf(p, "missing field $%s in literal of struct '%s' (no default)", f.Name, name)
		}
	}
	return tStruct(name)
}

// inferPath types Enum::Case, optionally applied to call arguments.
func (c *Checker) inferPath(e S, args []S) S {
	enum, caseName := kidStr(e, 0), kidStr(e, 1)
	p := posOf(e)

	switch enum {
	case "Option":
		switch caseName {
		case "Some":
			if args == nil {
				return S{"tfn", p, S{"tparams", p, tMixed}, tOpt(tMixed)}
			}
			if len(args) != 1 {
				c.errorf(p, "Option::Some takes exactly one value")
				return tOpt(tMixed)
			}
			return tOpt(args[0])
		case "None":
			if args != nil && len(args) > 0 {
				c.errorf(p, "Option::None carries no payload")
			}
			return tOpt(tUnknown())
		}
		c.errorf(p, "enum 'Option' has no case '%s'", caseName)
		return tOpt(tMixed)
	case "Result":
		switch caseName {
		case "Ok":
			if args == nil || len(args) != 1 {
				if args != nil {
					c.errorf(p, "Result::Ok takes exactly one value")
				}
				return tRes(tMixed, tUnknown())
			}
			return tRes(args[0], tUnknown())
		case "Err":
			if args == nil || len(args) != 1 {
				if args != nil {
					c.errorf(p, "Result::Err takes exactly one value")
				}
				return tRes(tUnknown(), tMixed)
			}
			return tRes(tUnknown(), args[0])
		}
		c.errorf(p, "enum 'Result' has no case '%s'", caseName)
		return tRes(tMixed, tMixed)
	}

	def, ok := c.unit.Enums[enum]
	if !ok {
		if _, imported := c.unit.Imported[enum]; imported {
			c.unit.UsedImports[enum] = true
			return tMixed
		}
		c.errorf(p, "unknown enum '%s'", enum)
		return tMixed
	}
	if caseName == "cases" && args != nil {
		if len(args) > 0 {
			c.errorf(p, "%s::cases() takes no arguments", enum)
		}
		return tArr(tEnum(enum))
	}
	cs, ok := def.Case(caseName)
	if !ok {
		c.errorf(p, "enum '%s' has no case '%s'", enum, caseName)
		return tEnum(enum)
	}
	if args == nil {
		if len(cs.Params) > 0 {
			// Bare reference to a payload case is its constructor.
			params := S{"tparams", p}
			for _, pr := range cs.Params {
				params = append(params, c.normalizeType(pr.Type))
			}
			return S{"tfn", p, params, tEnum(enum)}
		}
		return tEnum(enum)
	}
	if len(args) != len(cs.Params) {
		c.errorf(p, "enum case %s::%s expects %d payload value(s), found %d",
			enum, caseName, len(cs.Params), len(args))
		return tEnum(enum)
	}
	for i, a := range args {
		want := c.normalizeType(cs.Params[i].Type)
		if !c.isSubtype(a, want) {
			c.errorf(p, "payload $%s of %s::%s is %s, found %s",
				cs.Params[i].Name, enum, caseName, formatType(want), formatType(a))
		}
	}
	return tEnum(enum)
}

func (c *Checker) inferUnop(e S) S {
	op := kidStr(e, 0)
	t := c.inferExpr(kid(e, 1))
	p := posOf(e)
	switch op {
	case "-":
		if isMixed(t) || typeEqual(t, tInt) || typeEqual(t, tFloat) {
			return t
		}
		c.errorf(p, "unary '-' needs a number, found %s", formatType(t))
		return tMixed
	case "!":
		if !isMixed(t) && !typeEqual(t, tBool) {
			c.errorf(p, "'!' needs a bool, found %s", formatType(t))
		}
		return tBool
	}
	return tMixed
}

func (c *Checker) inferBinop(e S) S {
	op := kidStr(e, 0)
	l := c.inferExpr(kid(e, 1))
	r := c.inferExpr(kid(e, 2))
	p := posOf(e)

	numeric := func(t S) bool { return isMixed(t) || typeEqual(t, tInt) || typeEqual(t, tFloat) }
	stringable := func(t S) bool {
		return isMixed(t) || typeEqual(t, tString) || typeEqual(t, tInt) ||
			typeEqual(t, tFloat) || typeEqual(t, tBool)
	}

	switch op {
	case "+", "-", "*":
		if !numeric(l) || !numeric(r) {
			c.errorf(p, "'%s' needs numbers, found %s and %s", op, formatType(l), formatType(r))
			return tMixed
		}
		if typeEqual(l, tFloat) || typeEqual(r, tFloat) {
			return tFloat
		}
		if isMixed(l) || isMixed(r) {
			return tMixed
		}
		return tInt
	case "/":
		if !numeric(l) || !numeric(r) {
			c.errorf(p, "'/' needs numbers, found %s and %s", formatType(l), formatType(r))
		}
		if typeEqual(l, tInt) && typeEqual(r, tInt) {
			return tInt
		}
		return tFloat
	case "%":
		if !(isMixed(l) || typeEqual(l, tInt)) || !(isMixed(r) || typeEqual(r, tInt)) {
			c.errorf(p, "'%%' needs ints, found %s and %s", formatType(l), formatType(r))
		}
		return tInt
	case ".":
		if !stringable(l) {
			c.errorf(posOf(kid(e, 1)), "cannot concatenate %s", formatType(l))
		}
		if !stringable(r) {
			c.errorf(posOf(kid(e, 2)), "cannot concatenate %s", formatType(r))
		}
		return tString
	case "<", "<=", ">", ">=":
		ok := (numeric(l) && numeric(r)) ||
			(typeEqual(l, tString) && typeEqual(r, tString)) ||
			isMixed(l) || isMixed(r)
		if !ok {
			c.errorf(p, "'%s' cannot compare %s and %s", op, formatType(l), formatType(r))
		}
		return tBool
	case "==", "!=":
		return tBool
	case "&&", "||":
		if !isMixed(l) && !typeEqual(l, tBool) {
			c.errorf(posOf(kid(e, 1)), "'%s' needs bool operands, found %s", op, formatType(l))
		}
		if !isMixed(r) && !typeEqual(r, tBool) {
			c.errorf(posOf(kid(e, 2)), "'%s' needs bool operands, found %s", op, formatType(r))
		}
		return tBool
	}
	return tMixed
}

func (c *Checker) inferAssign(e S) S {
	target := kid(e, 0)
	got := c.inferExpr(kid(e, 1))
	switch tagOf(target) {
	case "var":
		name := kidStr(target, 0)
		if declared, ok := c.lookup(name); ok {
			if !c.isSubtype(got, declared) {
				c.errorf(posOf(e), "cannot assign %s to $%s of type %s",
					formatType(got), name, formatType(declared))
			}
			return declared
		}
		// First assignment declares with the inferred type.
		c.define(name, got)
		return got
	case "get", "idx":
		want := c.inferExpr(target)
		if !c.isSubtype(got, want) {
			c.errorf(posOf(e), "cannot assign %s to a location of type %s",
				formatType(got), formatType(want))
		}
		return want
	}
	c.errorf(posOf(e), "invalid assignment target")
	return tMixed
}

func (c *Checker) inferGet(e S) S {
	recv := c.inferExpr(kid(e, 0))
	name := kidStr(e, 1)
	p := posOf(e)

	recv = c.resolveAlias(recv)
	switch tagOf(recv) {
	case "tid":
		if isMixed(recv) {
			return tMixed
		}
	case "tvar":
		// Constrained type parameters expose their interface methods.
		if constraint := c.typeParams[kidStr(recv, 0)]; constraint != "" {
			if def, ok := c.unit.Ifaces[constraint]; ok {
				if m, ok := def.Method(name); ok {
					return m.fnType()
				}
			}
		}
		c.errorf(p, "type parameter %s has no member '%s'", kidStr(recv, 0), name)
		return tMixed
	case "tstruct":
		def := c.unit.Structs[kidStr(recv, 0)]
		if def == nil {
			return tMixed
		}
		if f, ok := def.Field(name); ok {
			return c.normalizeType(f.Type)
		}
		c.errorf(p, "struct '%s' has no field $%s", def.Name, name)
		return tMixed
	case "tshape":
		if f, ok := shapeFields(recv)[name]; ok {
			if f.optional {
				return makeUnion([]S{f.typ, tAbsent()})
			}
			return f.typ
		}
		c.errorf(p, "object shape has no field '%s'", name)
		return tMixed
	case "tenum":
		def := c.unit.Enums[kidStr(recv, 0)]
		if name == "name" {
			return tString
		}
		if def != nil {
			// A payload field is accessible when every case carries it.
			var acc S = tUnknown()
			all := len(def.Cases) > 0
			for _, cs := range def.Cases {
				found := false
				for _, pr := range cs.Params {
					if pr.Name == name {
						acc = c.unify(acc, c.normalizeType(pr.Type))
						found = true
					}
				}
				all = all && found
			}
			if all {
				return acc
			}
			c.errorf(p, "field '%s' is not present on every case of enum '%s'; match on the case first",
				name, def.Name)
			return tMixed
		}
		return tMixed
	case "topt":
		inner := c.resolveAlias(kid(recv, 0))
		var fieldT S
		switch tagOf(inner) {
		case "tstruct":
			def := c.unit.Structs[kidStr(inner, 0)]
			if def != nil {
				if f, ok := def.Field(name); ok {
					fieldT = c.normalizeType(f.Type)
				}
			}
		case "tshape":
			if f, ok := shapeFields(inner)[name]; ok {
				fieldT = f.typ
			}
		default:
			if isMixed(inner) || isUnknown(inner) {
				fieldT = tMixed
			}
		}
		if fieldT == nil {
			c.errorf(p, "%s has no field '%s'", formatType(inner), name)
			return tMixed
		}
		// The access may hit None: the result is the field type ∪ absent,
		// which must be narrowed before further dotted access.
		return makeUnion([]S{fieldT, tAbsent()})
	case "tunion":
		for _, m := range unionMembers(recv) {
			if tagOf(m) == "tabsent" {
				c.errorf(p, "value may be absent; narrow the Option before accessing '%s'", name)
				return tMixed
			}
		}
		return tMixed
	case "tres":
		c.errorf(p, "Result has no fields; match on Ok/Err or use is_ok()/unwrap()")
		return tMixed
	}
	if isMixed(recv) {
		return tMixed
	}
	c.errorf(p, "%s has no member '%s'", formatType(recv), name)
	return tMixed
}

func (c *Checker) inferIdx(e S) S {
	recv := c.inferExpr(kid(e, 0))
	idxT := c.inferExpr(kid(e, 1))
	p := posOf(e)
	switch tagOf(recv) {
	case "tarr":
		if !isMixed(idxT) && !typeEqual(idxT, tInt) {
			c.errorf(p, "array index must be int, found %s", formatType(idxT))
		}
		return kid(recv, 0)
	case "tshape":
		if !isMixed(idxT) && !typeEqual(idxT, tString) {
			c.errorf(p, "object key must be string, found %s", formatType(idxT))
		}
		return tMixed
	case "tid":
		if isTid(recv, "string") {
			if !isMixed(idxT) && !typeEqual(idxT, tInt) {
				c.errorf(p, "string index must be int, found %s", formatType(idxT))
			}
			return tString
		}
		if isMixed(recv) {
			return tMixed
		}
	}
	if isMixed(recv) {
		return tMixed
	}
	c.errorf(p, "%s cannot be indexed", formatType(recv))
	return tMixed
}

func (c *Checker) inferLambda(e S) S {
	params := kid(e, 2)
	uses := kid(e, 5)

	// A closure body sees its parameters and its explicit captures only.
	outer := c.scopes
	c.scopes = []map[string]S{{}}
	for i := 0; i < kidCount(uses); i++ {
		cap := kid(uses, i)
		name := kidStr(cap, 0)
		found := false
		for j := len(outer) - 1; j >= 0; j-- {
			if t, ok := outer[j][name]; ok {
				c.define(name, t)
				found = true
				break
			}
		}
		if !found {
			c.errorf(posOf(cap), "captured variable $%s is not defined", name)
			c.define(name, tMixed)
		}
	}

	sigParams := S{"tparams", posOf(e)}
	for i := 0; i < kidCount(params); i++ {
		pn := kid(params, i)
		var pt S = tMixed
		if pn[3] != nil {
			pt = c.normalizeType(pn[3].(S))
		}
		c.define(kidStr(pn, 0), pt)
		sigParams = append(sigParams, pt)
	}
	var ret S = tMixed
	if e[5] != nil {
		if declared, ok := e[5].(S); ok && tagOf(declared) != "uses" {
			ret = c.normalizeType(declared)
		}
	}
	savedRet := c.retType
	c.retType = ret
	c.checkBlock(kid(e, 4))
	c.retType = savedRet
	c.scopes = outer
	return S{"tfn", posOf(e), sigParams, ret}
}

func (c *Checker) inferCall(e S) S {
	callee := kid(e, 0)
	args := make([]S, 0, kidCount(e)-1)
	for i := 1; i < kidCount(e); i++ {
		args = append(args, c.inferExpr(kid(e, i)))
	}
	p := posOf(e)

	switch tagOf(callee) {
	case "path":
		return c.inferPath(callee, args)
	case "get":
		return c.inferMethodCall(e, callee, args)
	case "id":
		name := kidStr(callee, 0)
		if strings.HasPrefix(name, "__") && c.mode != ModeStrictInternal {
			c.errorf(posOf(callee), "'%s' is internal and not available in strict mode", name)
			return tMixed
		}
		if sig, ok := c.unit.Funcs[name]; ok {
			return c.checkCallAgainst(p, sig, args)
		}
		if sig, ok := builtinSigs[name]; ok {
			return c.checkCallAgainst(p, sig, args)
		}
		if _, ok := c.unit.Imported[name]; ok {
			c.unit.UsedImports[name] = true
			return tMixed
		}
		if t, ok := c.lookup(name); ok && tagOf(t) == "tfn" {
			return c.checkFnTypeCall(p, t, args)
		}
		c.errorf(posOf(callee), "undefined function '%s'", name)
		return tMixed
	}

	ct := c.inferExpr(callee)
	if tagOf(ct) == "tfn" {
		return c.checkFnTypeCall(p, ct, args)
	}
	if isMixed(ct) {
		return tMixed
	}
	c.errorf(p, "%s is not callable", formatType(ct))
	return tMixed
}

func (c *Checker) checkFnTypeCall(p Pos, fnT S, args []S) S {
	params := kid(fnT, 0)
	if kidCount(params) != len(args) {
		c.errorf(p, "expected %d argument(s), found %d", kidCount(params), len(args))
		return kid(fnT, 1)
	}
	for i, a := range args {
		if !c.isSubtype(a, kid(params, i)) {
			c.errorf(p, "argument %d is %s, expected %s", i+1, formatType(a), formatType(kid(params, i)))
		}
	}
	return kid(fnT, 1)
}

// checkCallAgainst validates a call against a signature, running generic
// unification and constraint checks when the signature is polymorphic.
func (c *Checker) checkCallAgainst(p Pos, sig *FnSig, args []S) S {
	minArity := 0
	for _, pr := range sig.Params {
		if !pr.HasDefault {
			minArity++
		}
	}
	if len(args) < minArity || len(args) > len(sig.Params) {
		c.errorf(p, "%s expects %d argument(s), found %d", sig.Name, len(sig.Params), len(args))
		return c.normalizeType(sig.Ret)
	}

	paramTs := make([]S, len(sig.Params))
	for i, pr := range sig.Params {
		paramTs[i] = c.withSigTypeParams(sig, func() S { return c.normalizeType(pr.Type) })
	}
	ret := c.withSigTypeParams(sig, func() S { return c.normalizeType(sig.Ret) })

	if len(sig.TypeParams) > 0 {
		subst := map[string]S{}
		for i, a := range args {
			c.unifyTypeParams(paramTs[i], a, subst)
		}
		for _, tp := range sig.TypeParams {
			bound, ok := subst[tp.Name]
			if !ok {
				subst[tp.Name] = tMixed
				continue
			}
			if tp.Constraint != "" && !c.satisfiesIface(bound, tp.Constraint) {
				c.errorf(p, "type %s does not satisfy constraint %s (in call to %s)",
					formatType(bound), tp.Constraint, sig.Name)
			}
		}
		for i := range paramTs {
			paramTs[i] = substitute(paramTs[i], subst)
		}
		ret = substitute(ret, subst)
	}

	for i, a := range args {
		if !c.isSubtype(a, paramTs[i]) {
			c.errorf(p, "argument %d of %s is %s, expected %s",
				i+1, sig.Name, formatType(a), formatType(paramTs[i]))
		}
	}
	return ret
}

// withSigTypeParams temporarily brings sig's type parameters into scope so
// their names normalize to tvar nodes.
func (c *Checker) withSigTypeParams(sig *FnSig, f func() S) S {
	if len(sig.TypeParams) == 0 {
		return f()
	}
	saved := c.typeParams
	c.typeParams = map[string]string{}
	for k, v := range saved {
		c.typeParams[k] = v
	}
	for _, tp := range sig.TypeParams {
		c.typeParams[tp.Name] = tp.Constraint
	}
	out := f()
	c.typeParams = saved
	return out
}

// inferMethodCall types recv.name(args): Option/Result combinators, enum
// introspection, and callable fields.
func (c *Checker) inferMethodCall(e, callee S, args []S) S {
	recvT := c.inferExpr(kid(callee, 0))
	name := kidStr(callee, 1)
	p := posOf(e)

	recvT = c.resolveAlias(recvT)
	switch tagOf(recvT) {
	case "topt":
		inner := kid(recvT, 0)
		switch name {
		case "unwrap":
			c.wantArgs(p, name, args, 0)
			if isUnknown(inner) {
				return tMixed
			}
			return inner
		case "unwrap_or":
			if c.wantArgs(p, name, args, 1) {
				return c.unify(inner, args[0])
			}
			return inner
		case "is_some", "is_none":
			c.wantArgs(p, name, args, 0)
			return tBool
		}
		c.errorf(p, "Option has no method '%s'", name)
		return tMixed
	case "tres":
		okT, errT := kid(recvT, 0), kid(recvT, 1)
		switch name {
		case "unwrap":
			c.wantArgs(p, name, args, 0)
			return okT
		case "unwrap_err":
			c.wantArgs(p, name, args, 0)
			return errT
		case "unwrap_or":
			if c.wantArgs(p, name, args, 1) {
				return c.unify(okT, args[0])
			}
			return okT
		case "is_ok", "is_err":
			c.wantArgs(p, name, args, 0)
			return tBool
		case "ok":
			c.wantArgs(p, name, args, 0)
			return tOpt(okT)
		case "err":
			c.wantArgs(p, name, args, 0)
			return tOpt(errT)
		}
		c.errorf(p, "Result has no method '%s'", name)
		return tMixed
	case "tenum":
		if name == "cases" {
			c.wantArgs(p, name, args, 0)
			return tArr(tEnum(kidStr(recvT, 0)))
		}
	case "tvar":
		if constraint := c.typeParams[kidStr(recvT, 0)]; constraint != "" {
			if def, ok := c.unit.Ifaces[constraint]; ok {
				if m, ok := def.Method(name); ok {
					return c.checkFnTypeCall(p, m.fnType(), args)
				}
			}
		}
	}

	// Fall back to a callable member (struct/shape field of fn type).
	mt := c.inferGet(callee)
	if tagOf(mt) == "tfn" {
		return c.checkFnTypeCall(p, mt, args)
	}
	if isMixed(mt) {
		return tMixed
	}
	c.errorf(p, "'%s' is not callable on %s", name, formatType(recvT))
	return tMixed
}

func (c *Checker) wantArgs(p Pos, name string, args []S, n int) bool {
	if len(args) != n {
		c.errorf(p, "%s expects %d argument(s), found %d", name, n, len(args))
		return false
	}
	return true
}

/* ===========================
   Match
   =========================== */

func (c *Checker) inferMatch(e S) S {
	scrutT := c.resolveAlias(c.inferExpr(kid(e, 0)))
	p := posOf(e)

	var enumName string
	var enumDef *EnumDef
	switch tagOf(scrutT) {
	case "tenum":
		enumName = kidStr(scrutT, 0)
		enumDef = c.unit.Enums[enumName]
	case "topt":
		enumName = "Option"
		enumDef = &EnumDef{Name: "Option", Cases: []CaseSig{
			{Name: "Some", Params: []ParamSig{{Name: "value", Type: kid(scrutT, 0)}}},
			{Name: "None"},
		}}
	case "tres":
		enumName = "Result"
		enumDef = &EnumDef{Name: "Result", Cases: []CaseSig{
			{Name: "Ok", Params: []ParamSig{{Name: "value", Type: kid(scrutT, 0)}}},
			{Name: "Err", Params: []ParamSig{{Name: "error", Type: kid(scrutT, 1)}}},
		}}
	}

	covered := map[string]bool{}
	hasDefault := false
	var result S = tUnknown()

	for i := 1; i < kidCount(e); i++ {
		arm := kid(e, i)
		if tagOf(arm) == "armdefault" {
			hasDefault = true
			c.pushScope()
			result = c.unify(result, c.armBodyType(kid(arm, 0)))
			c.popScope()
			continue
		}
		pat := kid(arm, 0)
		c.pushScope()
		switch tagOf(pat) {
		case "pcase":
			pe, pc := kidStr(pat, 0), kidStr(pat, 1)
			if enumName != "" && pe != enumName {
				c.errorf(posOf(pat), "pattern %s::%s does not belong to enum '%s'", pe, pc, enumName)
			} else if enumDef != nil {
				cs, ok := enumDef.Case(pc)
				if !ok {
					c.errorf(posOf(pat), "enum '%s' has no case '%s'", enumName, pc)
				} else {
					covered[pc] = true
					binders := kidCount(pat) - 2
					if binders > len(cs.Params) {
						c.errorf(posOf(pat), "case %s::%s has %d payload field(s), pattern binds %d",
							pe, pc, len(cs.Params), binders)
					}
					for bi := 0; bi < binders && bi < len(cs.Params); bi++ {
						bt := c.withSigTypeParams(&FnSig{}, func() S { return c.normalizeType(cs.Params[bi].Type) })
						if isUnknown(bt) {
							bt = tMixed
						}
						c.define(kidStr(pat, bi+2), bt)
					}
				}
			}
		case "plit":
			lt := c.inferExpr(kid(pat, 0))
			if enumName != "" {
				c.errorf(posOf(pat), "literal pattern cannot match enum '%s'", enumName)
			}
			_ = lt
		}
		result = c.unify(result, c.armBodyType(kid(arm, 1)))
		c.popScope()
	}

	if enumDef != nil && !hasDefault {
		var missing []string
		for _, cs := range enumDef.Cases {
			if !covered[cs.Name] {
				missing = append(missing, cs.Name)
			}
		}
		if len(missing) > 0 {
			c.errorf(p, "match on enum '%s' is not exhaustive; missing case(s): %s",
				enumName, strings.Join(missing, ", "))
		}
	}
	if enumDef == nil && !hasDefault && !isMixed(scrutT) {
		c.errorf(p, "match over %s requires a default arm", formatType(scrutT))
	}
	if isUnknown(result) {
		return tVoid
	}
	return result
}

func (c *Checker) armBodyType(body S) S {
	if tagOf(body) == "block" {
		c.checkBlock(body)
		return tVoid
	}
	return c.inferExpr(body)
}

/* ===========================
   Builtin signatures (checker view)
   =========================== */

// builtinSigs mirrors the registry's dispatch table with static types so
// strict code gets real checking on builtin calls. The registry remains the
// source of truth for runtime behavior.
var builtinSigs = map[string]*FnSig{
	"strlen":       {Name: "strlen", Params: []ParamSig{{Name: "s", Type: tString}}, Ret: tInt},
	"strtoupper":   {Name: "strtoupper", Params: []ParamSig{{Name: "s", Type: tString}}, Ret: tString},
	"strtolower":   {Name: "strtolower", Params: []ParamSig{{Name: "s", Type: tString}}, Ret: tString},
	"trim":         {Name: "trim", Params: []ParamSig{{Name: "s", Type: tString}}, Ret: tString},
	"str_contains": {Name: "str_contains", Params: []ParamSig{{Name: "s", Type: tString}, {Name: "sub", Type: tString}}, Ret: tBool},
	"str_replace":  {Name: "str_replace", Params: []ParamSig{{Name: "from", Type: tString}, {Name: "to", Type: tString}, {Name: "s", Type: tString}}, Ret: tString},
	"substr":       {Name: "substr", Params: []ParamSig{{Name: "s", Type: tString}, {Name: "start", Type: tInt}, {Name: "len", Type: tInt, HasDefault: true}}, Ret: tString},
	"explode":      {Name: "explode", Params: []ParamSig{{Name: "sep", Type: tString}, {Name: "s", Type: tString}}, Ret: tArr(tString)},
	"implode":      {Name: "implode", Params: []ParamSig{{Name: "sep", Type: tString}, {Name: "xs", Type: tArr(tMixed)}}, Ret: tString},
	"count":        {Name: "count", Params: []ParamSig{{Name: "x", Type: tMixed}}, Ret: tInt},
	"range":        {Name: "range", Params: []ParamSig{{Name: "from", Type: tInt}, {Name: "to", Type: tInt}}, Ret: tArr(tInt)},
	"array_push":   {Name: "array_push", Params: []ParamSig{{Name: "xs", Type: tArr(tMixed)}, {Name: "x", Type: tMixed}}, Ret: tArr(tMixed)},
	"array_map":    {Name: "array_map", Params: []ParamSig{{Name: "f", Type: S{"tfn", Pos{}, S{"tparams", Pos{}, tMixed}, tMixed}}, {Name: "xs", Type: tArr(tMixed)}}, Ret: tArr(tMixed)},
	"array_filter": {Name: "array_filter", Params: []ParamSig{{Name: "xs", Type: tArr(tMixed)}, {Name: "f", Type: S{"tfn", Pos{}, S{"tparams", Pos{}, tMixed}, tBool}}}, Ret: tArr(tMixed)},
	"array_keys":   {Name: "array_keys", Params: []ParamSig{{Name: "x", Type: tMixed}}, Ret: tArr(tString)},
	"abs":          {Name: "abs", Params: []ParamSig{{Name: "x", Type: tFloat}}, Ret: tFloat},
	"intval":       {Name: "intval", Params: []ParamSig{{Name: "x", Type: tMixed}}, Ret: tInt},
	"floatval":     {Name: "floatval", Params: []ParamSig{{Name: "x", Type: tMixed}}, Ret: tFloat},
	"strval":       {Name: "strval", Params: []ParamSig{{Name: "x", Type: tMixed}}, Ret: tString},
	"type_of":      {Name: "type_of", Params: []ParamSig{{Name: "x", Type: tMixed}}, Ret: tString},
	"print":        {Name: "print", Params: []ParamSig{{Name: "x", Type: tMixed}}, Ret: tVoid},
	"panic":        {Name: "panic", Params: []ParamSig{{Name: "message", Type: tString}}, Ret: tVoid},
	"element":      {Name: "element", Params: []ParamSig{{Name: "tag", Type: tString}, {Name: "attrs", Type: tMixed}, {Name: "children", Type: tArr(tMixed)}}, Ret: tVNode},
	"render":       {Name: "render", Params: []ParamSig{{Name: "node", Type: tVNode}}, Ret: tString},
	"__bridge":     {Name: "__bridge", Params: []ParamSig{{Name: "kind", Type: tString}, {Name: "action", Type: tString}, {Name: "payload", Type: tMixed}}, Ret: tRes(tMixed, tString)},
}
