// interpreter.go — tree-walking evaluator: environments, closures, calls.
//
// Execution walks the S-expression AST directly. Runtime failures unwind
// with panic(rtErr{...}) and are converted back into error values at the
// Run boundary; break/continue/return use their own signal types so a
// stray signal outside its construct is an interpreter defect, not a
// guest-visible state.
//
// Scope rules: a named function body sees its parameters (and module-level
// declarations through the resolver tables), never the caller's locals. A
// lambda sees its parameters plus the variables it captured with `use`;
// by-value captures snapshot a copy at closure creation, `&$x` captures
// share the binding cell.
package deka

import (
	"fmt"
	"io"
	"strings"
)

/* ===========================
   Environments
   =========================== */

// binding is one mutable variable cell. By-ref captures alias the cell.
type binding struct {
	h Handle
}

// Env is a lexical scope of variable bindings.
type Env struct {
	vars   map[string]*binding
	parent *Env
}

// NewEnv returns a scope chained to parent (parent may be nil).
func NewEnv(parent *Env) *Env {
	return &Env{vars: map[string]*binding{}, parent: parent}
}

// Define creates (or rebinds) name in this scope.
func (e *Env) Define(name string, h Handle) {
	e.vars[name] = &binding{h: h}
}

// DefineCell installs an existing cell, aliasing it (by-ref capture).
func (e *Env) DefineCell(name string, c *binding) {
	e.vars[name] = c
}

// cell finds the binding cell for name along the chain.
func (e *Env) cell(name string) (*binding, bool) {
	for s := e; s != nil; s = s.parent {
		if c, ok := s.vars[name]; ok {
			return c, true
		}
	}
	return nil, false
}

// Get reads name along the chain.
func (e *Env) Get(name string) (Handle, bool) {
	c, ok := e.cell(name)
	if !ok {
		return 0, false
	}
	return c.h, true
}

// Assign writes to an existing binding, or defines name in this scope when
// no enclosing scope binds it.
func (e *Env) Assign(name string, h Handle) {
	if c, ok := e.cell(name); ok {
		c.h = h
		return
	}
	e.Define(name, h)
}

/* ===========================
   Closures
   =========================== */

// Closure is a callable value: a guest function, a lambda with captures,
// an enum case constructor, or a first-class reference to a native.
type Closure struct {
	Name   string
	Params S // ("params", ("param", name, typeOrNil, defaultOrNil)...)
	Body   S
	Caps   *Env       // lambda captures; nil for named functions
	Mod    *ModuleRec // defining module, for symbol resolution during the call

	EnumName string // enum case constructor when non-empty
	CaseName string
	CaseArgs []string // payload field names

	Native *Native // first-class native reference when non-empty
}

/* ===========================
   Control signals
   =========================== */

type rtErr struct{ err error }
type breakSig struct{}
type continueSig struct{}
type returnSig struct{ val Handle }

func (ip *Interp) throw(p Pos, format string, args ...any) {
	panic(rtErr{&PanicSignal{Msg: fmt.Sprintf(format, args...), Line: p.Line, Col: p.Col}})
}

func (ip *Interp) throwErr(err error) {
	panic(rtErr{err})
}

/* ===========================
   Predefined enums
   =========================== */

// optionDef and resultDef are available in every module without import.
var optionDef = &EnumDef{Name: "Option", Cases: []CaseSig{
	{Name: "Some", Params: []ParamSig{{Name: "value"}}},
	{Name: "None"},
}}

var resultDef = &EnumDef{Name: "Result", Cases: []CaseSig{
	{Name: "Ok", Params: []ParamSig{{Name: "value"}}},
	{Name: "Err", Params: []ParamSig{{Name: "error"}}},
}}

/* ===========================
   Interpreter
   =========================== */

// Interp executes resolved modules against one run-scoped arena.
type Interp struct {
	A    *Arena
	Reg  *Registry
	Out  io.Writer
	Mode Mode
	Host *HostContext

	cur   *ModuleRec
	depth int
}

const maxCallDepth = 2000

// NewInterp builds an interpreter. The shared builtin registry is sealed on
// first construction.
func NewInterp(out io.Writer, mode Mode, host *HostContext) *Interp {
	builtins.Seal()
	if out == nil {
		out = io.Discard
	}
	return &Interp{A: NewArena(), Reg: builtins, Out: out, Mode: mode, Host: host}
}

// RunModule executes m's top-level statements in its own global scope. The
// module's functions are predeclared so source order does not matter.
func (ip *Interp) RunModule(m *ModuleRec) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if re, ok := r.(rtErr); ok {
				err = re.err
				return
			}
			panic(r)
		}
	}()
	m.Env = NewEnv(nil)
	prev := ip.cur
	ip.cur = m
	defer func() { ip.cur = prev }()

	ip.predeclare(m)
	for i := 0; i < kidCount(m.AST); i++ {
		ip.execStmt(m.Env, kid(m.AST, i))
	}
	return nil
}

// predeclare binds every named function (exported or not) before the first
// statement runs.
func (ip *Interp) predeclare(m *ModuleRec) {
	var bind func(stmt S)
	bind = func(stmt S) {
		switch tagOf(stmt) {
		case "export":
			bind(kid(stmt, 0))
		case "fn":
			name := kidStr(stmt, 0)
			if name == "" {
				return
			}
			cl := &Closure{Name: name, Params: kid(stmt, 2), Body: kid(stmt, 4), Mod: m}
			m.Env.Define(name, ip.A.Fun(cl))
		}
	}
	for i := 0; i < kidCount(m.AST); i++ {
		bind(kid(m.AST, i))
	}
}

/* ===========================
   Symbol resolution
   =========================== */

// lookupEnum resolves an enum name in the current module, its imports, or
// the predefined Option/Result.
func (ip *Interp) lookupEnum(name string) (*EnumDef, *ModuleRec) {
	switch name {
	case "Option":
		return optionDef, ip.cur
	case "Result":
		return resultDef, ip.cur
	}
	if ip.cur != nil {
		if def, ok := ip.cur.Unit.Enums[name]; ok {
			return def, ip.cur
		}
		if src, ok := ip.cur.Imports[name]; ok {
			if def, ok := src.Unit.Enums[name]; ok {
				return def, src
			}
		}
	}
	return nil, nil
}

// lookupStruct resolves a struct name in the current module or its imports.
func (ip *Interp) lookupStruct(name string) *StructDef {
	if ip.cur == nil {
		return nil
	}
	if def, ok := ip.cur.Unit.Structs[name]; ok {
		return def
	}
	if src, ok := ip.cur.Imports[name]; ok {
		if def, ok := src.Unit.Structs[name]; ok {
			return def
		}
	}
	return nil
}

// resolveName evaluates a bare identifier: module function, imported
// symbol, then registered native.
func (ip *Interp) resolveName(p Pos, name string) Handle {
	if strings.HasPrefix(name, "__") && ip.Mode != ModeStrictInternal {
		ip.throw(p, "'%s' is internal and not available in this mode", name)
	}
	if ip.cur != nil {
		if h, ok := ip.cur.Env.Get(name); ok {
			return h
		}
		if src, ok := ip.cur.Imports[name]; ok {
			if h, ok := src.Env.Get(name); ok {
				return h
			}
		}
	}
	if n, ok := ip.Reg.Lookup(name); ok {
		return ip.A.Fun(&Closure{Name: name, Native: n})
	}
	ip.throw(p, "undefined name '%s'", name)
	return 0
}

/* ===========================
   Calls
   =========================== */

// callValue invokes any callable handle. Arguments are copied per the
// value-semantics rules before the callee sees them.
func (ip *Interp) callValue(p Pos, fn Handle, args []Handle) Handle {
	if ip.A.Tag(fn) != TagFun {
		ip.throw(p, "value of type %s is not callable", ip.A.Tag(fn))
	}
	return ip.callClosure(p, ip.A.AsFun(fn), args)
}

func (ip *Interp) callClosure(p Pos, cl *Closure, args []Handle) Handle {
	ip.depth++
	if ip.depth > maxCallDepth {
		ip.depth--
		ip.throw(p, "call depth limit exceeded")
	}
	defer func() { ip.depth-- }()

	switch {
	case cl.Native != nil:
		if aerr := cl.Native.checkArity(args); aerr != nil {
			ip.throwErr(aerr)
		}
		out, nerr := cl.Native.Fn(ip, args)
		if nerr != nil {
			ip.throwErr(nerr)
		}
		return out
	case cl.EnumName != "":
		if len(args) != len(cl.CaseArgs) {
			ip.throw(p, "enum case %s::%s expects %d payload value(s), found %d",
				cl.EnumName, cl.CaseName, len(cl.CaseArgs), len(args))
		}
		payload := make([]Handle, len(args))
		for i, a := range args {
			payload[i] = ip.A.Copy(a)
		}
		return ip.A.Enum(cl.EnumName, cl.CaseName, cl.CaseArgs, payload)
	}

	// Guest function or lambda.
	prev := ip.cur
	if cl.Mod != nil {
		ip.cur = cl.Mod
	}
	defer func() { ip.cur = prev }()

	env := NewEnv(cl.Caps)
	nparams := kidCount(cl.Params)
	if len(args) > nparams {
		ip.throw(p, "%s expects %d argument(s), found %d", callableName(cl), nparams, len(args))
	}
	for i := 0; i < nparams; i++ {
		pn := kid(cl.Params, i)
		name := kidStr(pn, 0)
		if i < len(args) {
			env.Define(name, ip.A.Copy(args[i]))
			continue
		}
		if pn[4] == nil {
			ip.throw(p, "%s expects %d argument(s), found %d", callableName(cl), nparams, len(args))
		}
		env.Define(name, ip.evalExpr(env, pn[4].(S)))
	}

	return ip.runBody(env, cl.Body)
}

func (ip *Interp) runBody(env *Env, body S) (out Handle) {
	defer func() {
		if r := recover(); r != nil {
			if rs, ok := r.(returnSig); ok {
				out = rs.val
				return
			}
			panic(r)
		}
	}()
	for i := 0; i < kidCount(body); i++ {
		ip.execStmt(env, kid(body, i))
	}
	return ip.A.None()
}

func callableName(cl *Closure) string {
	if cl.Name != "" {
		return cl.Name
	}
	return "closure"
}

// makeLambda builds a closure value for a fn expression, snapshotting
// by-value captures and aliasing by-ref ones.
func (ip *Interp) makeLambda(env *Env, e S) Handle {
	uses := kid(e, 5)
	var caps *Env
	if kidCount(uses) > 0 {
		caps = NewEnv(nil)
		for i := 0; i < kidCount(uses); i++ {
			cp := kid(uses, i)
			name := kidStr(cp, 0)
			byRef := cp[3].(bool)
			cell, ok := env.cell(name)
			if !ok {
				ip.throw(posOf(cp), "captured variable $%s is not defined", name)
			}
			if byRef {
				caps.DefineCell(name, cell)
			} else {
				caps.Define(name, ip.A.Copy(cell.h))
			}
		}
	}
	return ip.A.Fun(&Closure{
		Name:   kidStr(e, 0),
		Params: kid(e, 2),
		Body:   kid(e, 4),
		Caps:   caps,
		Mod:    ip.cur,
	})
}
