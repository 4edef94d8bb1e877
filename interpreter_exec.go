// interpreter_exec.go — statement execution and expression evaluation.
package deka

/* ===========================
   Statements
   =========================== */

func (ip *Interp) execStmt(env *Env, stmt S) {
	switch tagOf(stmt) {
	case "export":
		ip.execStmt(env, kid(stmt, 0))
	case "struct", "enumdecl", "iface", "typealias", "import":
		// Declarations are handled by resolution; nothing to run.
	case "fn":
		// Named functions were predeclared; lambdas in statement position
		// are inert.
	case "let":
		name := kidStr(stmt, 0)
		env.Define(name, ip.A.Copy(ip.evalExpr(env, kid(stmt, 2))))
	case "echo":
		for i := 0; i < kidCount(stmt); i++ {
			h := ip.evalExpr(env, kid(stmt, i))
			ip.write(ip.display(h))
		}
	case "if":
		if ip.A.Truthy(ip.evalExpr(env, kid(stmt, 0))) {
			ip.execBlock(NewEnv(env), kid(stmt, 1))
		} else if stmt[4] != nil {
			els := stmt[4].(S)
			if tagOf(els) == "if" {
				ip.execStmt(env, els)
			} else {
				ip.execBlock(NewEnv(env), els)
			}
		}
	case "while":
		for ip.A.Truthy(ip.evalExpr(env, kid(stmt, 0))) {
			if ip.loopBody(NewEnv(env), kid(stmt, 1)) {
				break
			}
		}
	case "foreach":
		ip.execForeach(env, stmt)
	case "return":
		if stmt[2] == nil {
			panic(returnSig{val: ip.A.None()})
		}
		panic(returnSig{val: ip.evalExpr(env, stmt[2].(S))})
	case "break":
		panic(breakSig{})
	case "continue":
		panic(continueSig{})
	default:
		ip.evalExpr(env, stmt)
	}
}

func (ip *Interp) execBlock(env *Env, blk S) {
	for i := 0; i < kidCount(blk); i++ {
		ip.execStmt(env, kid(blk, i))
	}
}

// loopBody runs one iteration; it reports true when the loop should stop.
func (ip *Interp) loopBody(env *Env, body S) (stop bool) {
	defer func() {
		if r := recover(); r != nil {
			switch r.(type) {
			case breakSig:
				stop = true
			case continueSig:
				stop = false
			default:
				panic(r)
			}
		}
	}()
	ip.execBlock(env, body)
	return false
}

func (ip *Interp) execForeach(env *Env, stmt S) {
	keyName := kidStr(stmt, 0)
	valName := kidStr(stmt, 1)
	iter := ip.evalExpr(env, kid(stmt, 2))
	body := kid(stmt, 3)

	step := func(key, val Handle) bool {
		child := NewEnv(env)
		if keyName != "" {
			child.Define(keyName, key)
		}
		child.Define(valName, ip.A.Copy(val))
		return ip.loopBody(child, body)
	}

	switch ip.A.Tag(iter) {
	case TagArray:
		elems := append([]Handle(nil), ip.A.AsArray(iter)...)
		for i, e := range elems {
			if step(ip.A.Int(int64(i)), e) {
				return
			}
		}
	case TagObject, TagStruct:
		rec := ip.A.AsRecord(iter)
		keys := append([]string(nil), rec.Keys...)
		for _, k := range keys {
			v, _ := rec.Get(k)
			if step(ip.A.Str(k), v) {
				return
			}
		}
	default:
		ip.throw(posOf(stmt), "cannot iterate over %s", ip.A.Tag(iter))
	}
}

func (ip *Interp) write(s string) {
	_, _ = ip.Out.Write([]byte(s))
}

/* ===========================
   Expressions
   =========================== */

func (ip *Interp) evalExpr(env *Env, e S) Handle {
	p := posOf(e)
	switch tagOf(e) {
	case "int":
		return ip.A.Int(kidAny(e, 0).(int64))
	case "float":
		return ip.A.Float(kidAny(e, 0).(float64))
	case "str":
		return ip.A.Str(kidStr(e, 0))
	case "bool":
		return ip.A.Bool(kidAny(e, 0).(bool))
	case "null":
		if ip.Mode != ModePlain {
			ip.throw(p, "null is not allowed; use Option<T> instead")
		}
		return ip.A.None()
	case "var":
		name := kidStr(e, 0)
		if h, ok := env.Get(name); ok {
			return h
		}
		ip.throw(p, "undefined variable $%s", name)
		return 0
	case "id":
		return ip.resolveName(p, kidStr(e, 0))
	case "array":
		elems := make([]Handle, 0, kidCount(e))
		for i := 0; i < kidCount(e); i++ {
			elems = append(elems, ip.A.Copy(ip.evalExpr(env, kid(e, i))))
		}
		return ip.A.Array(elems)
	case "objlit":
		rec := NewRecord()
		for i := 0; i < kidCount(e); i++ {
			pair := kid(e, i)
			rec.Set(kidStr(pair, 0), ip.A.Copy(ip.evalExpr(env, kid(pair, 1))))
		}
		return ip.A.Object(rec)
	case "structlit":
		return ip.evalStructLit(env, e)
	case "path":
		return ip.evalPath(env, e, nil)
	case "unop":
		return ip.evalUnop(env, e)
	case "binop":
		return ip.evalBinop(env, e)
	case "assign":
		return ip.evalAssign(env, e)
	case "let":
		ip.execStmt(env, e)
		return ip.A.None()
	case "get":
		return ip.evalGet(env, e)
	case "idx":
		return ip.evalIdx(env, e)
	case "call":
		return ip.evalCall(env, e)
	case "fn":
		return ip.makeLambda(env, e)
	case "match":
		return ip.evalMatch(env, e)
	case "element":
		return ip.evalElement(env, e)
	case "echo", "if", "while", "foreach":
		ip.execStmt(env, e)
		return ip.A.None()
	}
	ip.throw(p, "cannot evaluate '%s'", tagOf(e))
	return 0
}

func (ip *Interp) evalCall(env *Env, e S) Handle {
	callee := kid(e, 0)
	p := posOf(e)

	// Method-style and path calls are dispatched before generic
	// callable evaluation so receivers are not forced into values.
	switch tagOf(callee) {
	case "path":
		args := ip.evalArgs(env, e)
		return ip.evalPath(env, callee, args)
	case "get":
		return ip.evalMethodCall(env, e, callee)
	case "id":
		name := kidStr(callee, 0)
		// Enum::cases-style statics arrive as path/get; a bare id call is
		// a function, imported symbol, or native.
		fn := ip.resolveName(posOf(callee), name)
		return ip.callValue(p, fn, ip.evalArgs(env, e))
	}
	fn := ip.evalExpr(env, callee)
	return ip.callValue(p, fn, ip.evalArgs(env, e))
}

func (ip *Interp) evalArgs(env *Env, call S) []Handle {
	args := make([]Handle, 0, kidCount(call)-1)
	for i := 1; i < kidCount(call); i++ {
		args = append(args, ip.evalExpr(env, kid(call, i)))
	}
	return args
}

// evalPath constructs an enum case value. args == nil means a bare
// reference: nullary cases yield the instance, payload cases yield their
// constructor as a callable.
func (ip *Interp) evalPath(env *Env, e S, args []Handle) Handle {
	enum, caseName := kidStr(e, 0), kidStr(e, 1)
	p := posOf(e)

	def, _ := ip.lookupEnum(enum)
	if def == nil {
		ip.throw(p, "unknown enum '%s'", enum)
	}
	if caseName == "cases" && args != nil {
		if len(args) > 0 {
			ip.throw(p, "%s::cases() takes no arguments", enum)
		}
		return ip.enumCases(def)
	}
	cs, ok := def.Case(caseName)
	if !ok {
		ip.throw(p, "enum '%s' has no case '%s'", enum, caseName)
	}
	names := make([]string, len(cs.Params))
	for i, pr := range cs.Params {
		names[i] = pr.Name
	}

	if args == nil {
		if len(cs.Params) == 0 {
			return ip.A.Enum(enum, caseName, nil, nil)
		}
		return ip.A.Fun(&Closure{Name: enum + "::" + caseName,
			EnumName: enum, CaseName: caseName, CaseArgs: names, Mod: ip.cur})
	}
	if len(cs.Params) == 0 && len(args) > 0 {
		ip.throw(p, "enum case %s::%s has no payload", enum, caseName)
	}
	if len(args) != len(cs.Params) {
		ip.throw(p, "enum case %s::%s expects %d payload value(s), found %d",
			enum, caseName, len(cs.Params), len(args))
	}
	payload := make([]Handle, len(args))
	for i, a := range args {
		payload[i] = ip.A.Copy(a)
	}
	return ip.A.Enum(enum, caseName, names, payload)
}

func (ip *Interp) evalStructLit(env *Env, e S) Handle {
	name := kidStr(e, 0)
	p := posOf(e)
	def := ip.lookupStruct(name)
	if def == nil {
		ip.throw(p, "unknown struct '%s'", name)
	}
	fields := NewRecord()
	for i := 1; i < kidCount(e); i++ {
		pair := kid(e, i)
		fname := kidStr(pair, 0)
		if _, ok := def.Field(fname); !ok {
			ip.throw(posOf(pair), "struct '%s' has no field $%s", name, fname)
		}
		fields.Set(fname, ip.A.Copy(ip.evalExpr(env, kid(pair, 1))))
	}
	// Remaining fields take their declared defaults.
	for _, f := range def.Fields {
		if _, given := fields.Get(f.Name); given {
			continue
		}
		if f.Default == nil {
			ip.throw(p, "missing field $%s in literal of struct '%s'", f.Name, name)
		}
		fields.Set(f.Name, ip.A.Copy(ip.evalExpr(env, f.Default)))
	}
	return ip.A.Struct(name, fields)
}

func (ip *Interp) evalElement(env *Env, e S) Handle {
	attrs := kid(e, 1)
	rec := NewRecord()
	for i := 0; i < kidCount(attrs); i++ {
		pair := kid(attrs, i)
		rec.Set(kidStr(pair, 0), ip.A.Copy(ip.evalExpr(env, kid(pair, 1))))
	}
	childNode := kid(e, 2)
	children := make([]Handle, 0, kidCount(childNode))
	for i := 0; i < kidCount(childNode); i++ {
		children = append(children, ip.evalExpr(env, kid(childNode, i)))
	}
	return ip.makeVNode(kidStr(e, 0), ip.A.Object(rec), ip.A.Array(children))
}

// makeVNode builds the canonical VNode record shared with the element()
// native.
func (ip *Interp) makeVNode(tag string, attrs, children Handle) Handle {
	rec := NewRecord()
	rec.Set("tag", ip.A.Str(tag))
	rec.Set("attrs", attrs)
	rec.Set("children", children)
	return ip.A.Struct("VNode", rec)
}
