// interpreter_ops.go — operators, assignment targets, member access, match.
package deka

import "strings"

/* ===========================
   Unary and binary operators
   =========================== */

func (ip *Interp) evalUnop(env *Env, e S) Handle {
	op := kidStr(e, 0)
	p := posOf(e)
	v := ip.evalExpr(env, kid(e, 1))
	switch op {
	case "-":
		switch ip.A.Tag(v) {
		case TagInt:
			return ip.A.Int(-ip.A.AsInt(v))
		case TagFloat:
			return ip.A.Float(-ip.A.AsFloat(v))
		}
		ip.throw(p, "unary '-' needs a number, found %s", ip.A.Tag(v))
	case "!":
		return ip.A.Bool(!ip.A.Truthy(v))
	}
	ip.throw(p, "unknown unary operator '%s'", op)
	return 0
}

func (ip *Interp) evalBinop(env *Env, e S) Handle {
	op := kidStr(e, 0)
	p := posOf(e)

	// Logical operators short-circuit.
	switch op {
	case "&&":
		l := ip.evalExpr(env, kid(e, 1))
		if !ip.A.Truthy(l) {
			return ip.A.Bool(false)
		}
		return ip.A.Bool(ip.A.Truthy(ip.evalExpr(env, kid(e, 2))))
	case "||":
		l := ip.evalExpr(env, kid(e, 1))
		if ip.A.Truthy(l) {
			return ip.A.Bool(true)
		}
		return ip.A.Bool(ip.A.Truthy(ip.evalExpr(env, kid(e, 2))))
	}

	l := ip.evalExpr(env, kid(e, 1))
	r := ip.evalExpr(env, kid(e, 2))

	switch op {
	case ".":
		return ip.A.Str(ip.display(l) + ip.display(r))
	case "==":
		return ip.A.Bool(ip.A.Equal(l, r))
	case "!=":
		return ip.A.Bool(!ip.A.Equal(l, r))
	case "+", "-", "*", "/", "%":
		return ip.arith(p, op, l, r)
	case "<", "<=", ">", ">=":
		return ip.compare(p, op, l, r)
	}
	ip.throw(p, "unknown operator '%s'", op)
	return 0
}

func (ip *Interp) arith(p Pos, op string, l, r Handle) Handle {
	lt, rt := ip.A.Tag(l), ip.A.Tag(r)
	if (lt != TagInt && lt != TagFloat) || (rt != TagInt && rt != TagFloat) {
		ip.throw(p, "'%s' needs numbers, found %s and %s", op, lt, rt)
	}
	if lt == TagInt && rt == TagInt {
		a, b := ip.A.AsInt(l), ip.A.AsInt(r)
		switch op {
		case "+":
			return ip.A.Int(a + b)
		case "-":
			return ip.A.Int(a - b)
		case "*":
			return ip.A.Int(a * b)
		case "/":
			if b == 0 {
				ip.throw(p, "division by zero")
			}
			return ip.A.Int(a / b)
		case "%":
			if b == 0 {
				ip.throw(p, "division by zero")
			}
			return ip.A.Int(a % b)
		}
	}
	// Mixed operands widen to float.
	a, b := ip.asFloat(l), ip.asFloat(r)
	switch op {
	case "+":
		return ip.A.Float(a + b)
	case "-":
		return ip.A.Float(a - b)
	case "*":
		return ip.A.Float(a * b)
	case "/":
		if b == 0 {
			ip.throw(p, "division by zero")
		}
		return ip.A.Float(a / b)
	case "%":
		ip.throw(p, "'%%' needs ints, found %s and %s", lt, rt)
	}
	return 0
}

func (ip *Interp) asFloat(h Handle) float64 {
	if ip.A.Tag(h) == TagInt {
		return float64(ip.A.AsInt(h))
	}
	return ip.A.AsFloat(h)
}

func (ip *Interp) compare(p Pos, op string, l, r Handle) Handle {
	lt, rt := ip.A.Tag(l), ip.A.Tag(r)
	var cmp int
	switch {
	case lt == TagStr && rt == TagStr:
		cmp = strings.Compare(ip.A.AsStr(l), ip.A.AsStr(r))
	case (lt == TagInt || lt == TagFloat) && (rt == TagInt || rt == TagFloat):
		a, b := ip.asFloat(l), ip.asFloat(r)
		switch {
		case a < b:
			cmp = -1
		case a > b:
			cmp = 1
		}
	default:
		ip.throw(p, "'%s' cannot compare %s and %s", op, lt, rt)
	}
	switch op {
	case "<":
		return ip.A.Bool(cmp < 0)
	case "<=":
		return ip.A.Bool(cmp <= 0)
	case ">":
		return ip.A.Bool(cmp > 0)
	case ">=":
		return ip.A.Bool(cmp >= 0)
	}
	return 0
}

/* ===========================
   Assignment
   =========================== */

func (ip *Interp) evalAssign(env *Env, e S) Handle {
	target := kid(e, 0)
	val := ip.evalExpr(env, kid(e, 1))
	p := posOf(e)

	switch tagOf(target) {
	case "var":
		// Assignment copies: a later mutation of the source never shows
		// through the target.
		cp := ip.A.Copy(val)
		env.Assign(kidStr(target, 0), cp)
		return cp
	case "get":
		base := ip.evalExpr(env, kid(target, 0))
		name := kidStr(target, 1)
		switch ip.A.Tag(base) {
		case TagStruct:
			if def := ip.lookupStruct(ip.A.StructName(base)); def != nil {
				if _, ok := def.Field(name); !ok {
					ip.throw(p, "struct '%s' has no field $%s", def.Name, name)
				}
			}
			ip.A.AsRecord(base).Set(name, ip.A.Copy(val))
		case TagObject:
			ip.A.AsRecord(base).Set(name, ip.A.Copy(val))
		default:
			ip.throw(p, "cannot assign to a field of %s", ip.A.Tag(base))
		}
		return val
	case "idx":
		base := ip.evalExpr(env, kid(target, 0))
		idx := ip.evalExpr(env, kid(target, 1))
		switch ip.A.Tag(base) {
		case TagArray:
			i := ip.wantIndex(p, base, idx)
			ip.A.SetArrayElem(base, i, ip.A.Copy(val))
		case TagObject:
			if ip.A.Tag(idx) != TagStr {
				ip.throw(p, "object key must be a string, found %s", ip.A.Tag(idx))
			}
			ip.A.AsRecord(base).Set(ip.A.AsStr(idx), ip.A.Copy(val))
		default:
			ip.throw(p, "cannot index into %s", ip.A.Tag(base))
		}
		return val
	}
	ip.throw(p, "invalid assignment target")
	return 0
}

func (ip *Interp) wantIndex(p Pos, arr, idx Handle) int {
	if ip.A.Tag(idx) != TagInt {
		ip.throw(p, "array index must be an int, found %s", ip.A.Tag(idx))
	}
	i := int(ip.A.AsInt(idx))
	if i < 0 || i >= len(ip.A.AsArray(arr)) {
		ip.throw(p, "array index %d out of range (length %d)", i, len(ip.A.AsArray(arr)))
	}
	return i
}

/* ===========================
   Member access
   =========================== */

func (ip *Interp) evalGet(env *Env, e S) Handle {
	recv := ip.evalExpr(env, kid(e, 0))
	name := kidStr(e, 1)
	p := posOf(e)

	switch ip.A.Tag(recv) {
	case TagStruct, TagObject:
		if h, ok := ip.A.AsRecord(recv).Get(name); ok {
			return h
		}
		ip.throw(p, "%s has no field '%s'", ip.describeValue(recv), name)
	case TagEnum:
		if name == "name" {
			return ip.A.Str(ip.A.EnumCase(recv))
		}
		// Option values pass field access through to the carried value;
		// None yields none so callers can narrow afterwards.
		if ip.A.StructName(recv) == "Option" {
			if ip.A.EnumCase(recv) == "None" {
				return ip.A.None()
			}
			_, payload := ip.A.EnumPayload(recv)
			return ip.getOn(p, payload[0], name)
		}
		names, payload := ip.A.EnumPayload(recv)
		for i, n := range names {
			if n == name {
				return payload[i]
			}
		}
		ip.throw(p, "enum case %s::%s has no field '%s'",
			ip.A.StructName(recv), ip.A.EnumCase(recv), name)
	}
	ip.throw(p, "%s has no member '%s'", ip.A.Tag(recv), name)
	return 0
}

// getOn is evalGet on an already-evaluated receiver.
func (ip *Interp) getOn(p Pos, recv Handle, name string) Handle {
	switch ip.A.Tag(recv) {
	case TagStruct, TagObject:
		if h, ok := ip.A.AsRecord(recv).Get(name); ok {
			return h
		}
	}
	ip.throw(p, "%s has no field '%s'", ip.describeValue(recv), name)
	return 0
}

func (ip *Interp) describeValue(h Handle) string {
	switch ip.A.Tag(h) {
	case TagStruct:
		return "struct '" + ip.A.StructName(h) + "'"
	case TagEnum:
		return "enum '" + ip.A.StructName(h) + "'"
	default:
		return ip.A.Tag(h).String()
	}
}

func (ip *Interp) evalIdx(env *Env, e S) Handle {
	recv := ip.evalExpr(env, kid(e, 0))
	idx := ip.evalExpr(env, kid(e, 1))
	p := posOf(e)
	switch ip.A.Tag(recv) {
	case TagArray:
		return ip.A.AsArray(recv)[ip.wantIndex(p, recv, idx)]
	case TagObject, TagStruct:
		if ip.A.Tag(idx) != TagStr {
			ip.throw(p, "object key must be a string, found %s", ip.A.Tag(idx))
		}
		if h, ok := ip.A.AsRecord(recv).Get(ip.A.AsStr(idx)); ok {
			return h
		}
		ip.throw(p, "%s has no field '%s'", ip.describeValue(recv), ip.A.AsStr(idx))
	case TagStr:
		if ip.A.Tag(idx) != TagInt {
			ip.throw(p, "string index must be an int, found %s", ip.A.Tag(idx))
		}
		s := ip.A.AsStr(recv)
		i := int(ip.A.AsInt(idx))
		if i < 0 || i >= len(s) {
			ip.throw(p, "string index %d out of range (length %d)", i, len(s))
		}
		return ip.A.Str(string(s[i]))
	}
	ip.throw(p, "%s cannot be indexed", ip.A.Tag(recv))
	return 0
}

/* ===========================
   Method calls
   =========================== */

func (ip *Interp) evalMethodCall(env *Env, call, callee S) Handle {
	base := kid(callee, 0)
	name := kidStr(callee, 1)
	p := posOf(call)

	// Enum introspection on a bare enum identifier; `Msg::cases()` takes
	// the path route in evalPath.
	if tagOf(base) == "id" {
		if def, _ := ip.lookupEnum(kidStr(base, 0)); def != nil && name == "cases" {
			return ip.enumCases(def)
		}
	}

	recv := ip.evalExpr(env, base)
	args := ip.evalArgs(env, call)

	if ip.A.Tag(recv) == TagEnum {
		var method string
		switch ip.A.StructName(recv) {
		case "Option":
			method = "option." + name
		case "Result":
			method = "result." + name
		}
		if method != "" {
			if n, ok := ip.Reg.Lookup(method); ok {
				withRecv := append([]Handle{recv}, args...)
				if aerr := n.checkArity(withRecv); aerr != nil {
					ip.throwErr(aerr)
				}
				out, nerr := n.Fn(ip, withRecv)
				if nerr != nil {
					ip.throwErr(nerr)
				}
				return out
			}
			ip.throw(p, "%s has no method '%s'", ip.A.StructName(recv), name)
		}
	}

	// Fall back to a callable field.
	fn := ip.evalGet(env, callee)
	return ip.callValue(p, fn, args)
}

// enumCases lists an enum's cases: nullary cases as instances, payload
// cases as their constructors.
func (ip *Interp) enumCases(def *EnumDef) Handle {
	out := make([]Handle, 0, len(def.Cases))
	for _, cs := range def.Cases {
		if len(cs.Params) == 0 {
			out = append(out, ip.A.Enum(def.Name, cs.Name, nil, nil))
			continue
		}
		names := make([]string, len(cs.Params))
		for i, pr := range cs.Params {
			names[i] = pr.Name
		}
		out = append(out, ip.A.Fun(&Closure{Name: def.Name + "::" + cs.Name,
			EnumName: def.Name, CaseName: cs.Name, CaseArgs: names, Mod: ip.cur}))
	}
	return ip.A.Array(out)
}

/* ===========================
   Match
   =========================== */

func (ip *Interp) evalMatch(env *Env, e S) Handle {
	scrut := ip.evalExpr(env, kid(e, 0))
	p := posOf(e)

	for i := 1; i < kidCount(e); i++ {
		arm := kid(e, i)
		if tagOf(arm) == "armdefault" {
			return ip.evalArmBody(NewEnv(env), kid(arm, 0))
		}
		pat := kid(arm, 0)
		child := NewEnv(env)
		if ip.matchPattern(child, pat, scrut) {
			return ip.evalArmBody(child, kid(arm, 1))
		}
	}
	ip.throw(p, "no match arm matched %s", ip.describeValue(scrut))
	return 0
}

func (ip *Interp) matchPattern(env *Env, pat S, scrut Handle) bool {
	switch tagOf(pat) {
	case "pcase":
		if ip.A.Tag(scrut) != TagEnum {
			return false
		}
		if ip.A.StructName(scrut) != kidStr(pat, 0) || ip.A.EnumCase(scrut) != kidStr(pat, 1) {
			return false
		}
		_, payload := ip.A.EnumPayload(scrut)
		binders := kidCount(pat) - 2
		for i := 0; i < binders; i++ {
			var v Handle = ip.A.None()
			if i < len(payload) {
				v = ip.A.Copy(payload[i])
			}
			env.Define(kidStr(pat, i+2), v)
		}
		return true
	case "plit":
		lit := ip.evalExpr(env, kid(pat, 0))
		return ip.A.Equal(scrut, lit)
	case "pwild":
		return true
	}
	return false
}

func (ip *Interp) evalArmBody(env *Env, body S) Handle {
	if tagOf(body) == "block" {
		ip.execBlock(env, body)
		return ip.A.None()
	}
	return ip.evalExpr(env, body)
}
