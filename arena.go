// arena.go — run-scoped value arena and the tagged value model.
//
// All heap values live in an Arena owned by exactly one interpreter run. A
// Handle is an opaque index into the arena; guest code (and natives) never
// see host pointers. The arena is discarded wholesale when the run ends,
// which bounds every value lifetime without a tracing collector.
//
// Slot 0 is the unit/none singleton so the zero Handle is always valid.
//
// Value semantics: structs, arrays, and object literals copy on assignment
// and on argument passing (Copy); scalars are immutable and shared. Enum
// instances copy their payload. Equality is structural for structs, arrays,
// and objects; for enum instances only the enum name and case tag compare
// (payloads are ignored so match discrimination stays cheap).
package deka

// Handle is an opaque index into an Arena.
type Handle uint32

// ValueTag discriminates the active slot representation.
type ValueTag uint8

const (
	TagNone ValueTag = iota
	TagBool
	TagInt
	TagFloat
	TagStr
	TagArray
	TagObject // insertion-ordered string-keyed record
	TagStruct // nominal record instance
	TagEnum   // enum case instance with optional payload
	TagFun    // closure or native reference
	TagResource
)

func (t ValueTag) String() string {
	switch t {
	case TagNone:
		return "none"
	case TagBool:
		return "bool"
	case TagInt:
		return "int"
	case TagFloat:
		return "float"
	case TagStr:
		return "string"
	case TagArray:
		return "array"
	case TagObject:
		return "object"
	case TagStruct:
		return "struct"
	case TagEnum:
		return "enum"
	case TagFun:
		return "callable"
	case TagResource:
		return "resource"
	}
	return "unknown"
}

// Record is an insertion-ordered string-keyed table of handles. Keys holds
// the iteration order; Entries the storage. Used for object literals and
// struct instance fields.
type Record struct {
	Keys    []string
	Entries map[string]Handle
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{Entries: map[string]Handle{}}
}

// Set stores k→v, appending k to the order on first insert.
func (r *Record) Set(k string, v Handle) {
	if _, ok := r.Entries[k]; !ok {
		r.Keys = append(r.Keys, k)
	}
	r.Entries[k] = v
}

// Get looks up k.
func (r *Record) Get(k string) (Handle, bool) {
	h, ok := r.Entries[k]
	return h, ok
}

// Resource is an opaque host-side object referenced from guest code by
// handle only (e.g. an open bridge channel).
type Resource struct {
	Kind string
	Data any
}

type slot struct {
	tag ValueTag

	b bool
	i int64
	f float64
	s string

	elems []Handle // TagArray
	rec   *Record  // TagObject, TagStruct (fields)

	tname        string   // TagStruct: struct name; TagEnum: enum name
	caseName     string   // TagEnum
	payloadNames []string // TagEnum
	payload      []Handle // TagEnum

	fun *Closure  // TagFun
	res *Resource // TagResource
}

// Arena owns all heap values for one run.
type Arena struct {
	slots []slot
}

// NewArena returns an arena seeded with the none singleton at Handle 0.
func NewArena() *Arena {
	a := &Arena{slots: make([]slot, 1, 256)}
	a.slots[0] = slot{tag: TagNone}
	return a
}

// None returns the unit/none handle.
func (a *Arena) None() Handle { return 0 }

func (a *Arena) alloc(s slot) Handle {
	a.slots = append(a.slots, s)
	return Handle(len(a.slots) - 1)
}

func (a *Arena) get(h Handle) *slot { return &a.slots[h] }

// Tag returns the value kind behind h.
func (a *Arena) Tag(h Handle) ValueTag { return a.slots[h].tag }

// Constructors.

func (a *Arena) Bool(b bool) Handle     { return a.alloc(slot{tag: TagBool, b: b}) }
func (a *Arena) Int(n int64) Handle     { return a.alloc(slot{tag: TagInt, i: n}) }
func (a *Arena) Float(f float64) Handle { return a.alloc(slot{tag: TagFloat, f: f}) }
func (a *Arena) Str(s string) Handle    { return a.alloc(slot{tag: TagStr, s: s}) }

func (a *Arena) Array(elems []Handle) Handle {
	return a.alloc(slot{tag: TagArray, elems: elems})
}

func (a *Arena) Object(rec *Record) Handle {
	if rec == nil {
		rec = NewRecord()
	}
	return a.alloc(slot{tag: TagObject, rec: rec})
}

func (a *Arena) Struct(name string, fields *Record) Handle {
	return a.alloc(slot{tag: TagStruct, tname: name, rec: fields})
}

func (a *Arena) Enum(enum, caseName string, payloadNames []string, payload []Handle) Handle {
	return a.alloc(slot{tag: TagEnum, tname: enum, caseName: caseName,
		payloadNames: payloadNames, payload: payload})
}

func (a *Arena) Fun(c *Closure) Handle { return a.alloc(slot{tag: TagFun, fun: c}) }

func (a *Arena) NewResource(r *Resource) Handle {
	return a.alloc(slot{tag: TagResource, res: r})
}

// Accessors. Callers check Tag first; natives that skip the check get the
// zero value, never a host crash.

func (a *Arena) AsBool(h Handle) bool          { return a.slots[h].b }
func (a *Arena) AsInt(h Handle) int64          { return a.slots[h].i }
func (a *Arena) AsFloat(h Handle) float64      { return a.slots[h].f }
func (a *Arena) AsStr(h Handle) string         { return a.slots[h].s }
func (a *Arena) AsArray(h Handle) []Handle     { return a.slots[h].elems }
func (a *Arena) AsRecord(h Handle) *Record     { return a.slots[h].rec }
func (a *Arena) AsFun(h Handle) *Closure       { return a.slots[h].fun }
func (a *Arena) AsResource(h Handle) *Resource { return a.slots[h].res }

// StructName returns the nominal type of a struct instance, or the enum
// name for enum instances.
func (a *Arena) StructName(h Handle) string { return a.slots[h].tname }

// EnumCase returns the case tag of an enum instance.
func (a *Arena) EnumCase(h Handle) string { return a.slots[h].caseName }

// EnumPayload returns the payload handles and their field names.
func (a *Arena) EnumPayload(h Handle) ([]string, []Handle) {
	s := &a.slots[h]
	return s.payloadNames, s.payload
}

// SetArrayElem replaces element i in place.
func (a *Arena) SetArrayElem(h Handle, i int, v Handle) {
	a.slots[h].elems[i] = v
}

// AppendArray appends in place and returns h for convenience.
func (a *Arena) AppendArray(h Handle, v Handle) Handle {
	a.slots[h].elems = append(a.slots[h].elems, v)
	return h
}

// Truthy implements the language's boolean coercion: none and false are
// false; zero numbers and empty strings/arrays are false; everything else
// is true.
func (a *Arena) Truthy(h Handle) bool {
	s := &a.slots[h]
	switch s.tag {
	case TagNone:
		return false
	case TagBool:
		return s.b
	case TagInt:
		return s.i != 0
	case TagFloat:
		return s.f != 0
	case TagStr:
		return s.s != ""
	case TagArray:
		return len(s.elems) > 0
	default:
		return true
	}
}

// Copy produces an independent logical copy of h per the value-semantics
// rules. Scalars are immutable so their handle is returned unchanged.
func (a *Arena) Copy(h Handle) Handle {
	s := &a.slots[h]
	switch s.tag {
	case TagNone, TagBool, TagInt, TagFloat, TagStr, TagFun, TagResource:
		return h
	case TagArray:
		elems := make([]Handle, len(s.elems))
		src := s.elems
		for i, e := range src {
			elems[i] = a.Copy(e)
		}
		return a.Array(elems)
	case TagObject, TagStruct:
		rec := NewRecord()
		keys := append([]string(nil), s.rec.Keys...)
		for _, k := range keys {
			rec.Set(k, a.Copy(a.slots[h].rec.Entries[k]))
		}
		if a.slots[h].tag == TagStruct {
			return a.Struct(a.slots[h].tname, rec)
		}
		return a.Object(rec)
	case TagEnum:
		payload := make([]Handle, len(s.payload))
		src := s.payload
		for i, e := range src {
			payload[i] = a.Copy(e)
		}
		sl := &a.slots[h]
		return a.Enum(sl.tname, sl.caseName, sl.payloadNames, payload)
	}
	return h
}

// Equal is the language's `==`: structural for scalars, arrays, objects and
// structs (field by field, never identity); for enum instances the enum
// name and case tag alone decide, payloads are ignored. Int/float compare
// numerically across the widening boundary.
func (a *Arena) Equal(x, y Handle) bool {
	sx, sy := &a.slots[x], &a.slots[y]
	if sx.tag != sy.tag {
		// int == float compares numerically.
		if sx.tag == TagInt && sy.tag == TagFloat {
			return float64(sx.i) == sy.f
		}
		if sx.tag == TagFloat && sy.tag == TagInt {
			return sx.f == float64(sy.i)
		}
		return false
	}
	switch sx.tag {
	case TagNone:
		return true
	case TagBool:
		return sx.b == sy.b
	case TagInt:
		return sx.i == sy.i
	case TagFloat:
		return sx.f == sy.f
	case TagStr:
		return sx.s == sy.s
	case TagArray:
		if len(sx.elems) != len(sy.elems) {
			return false
		}
		for i := range sx.elems {
			if !a.Equal(a.slots[x].elems[i], a.slots[y].elems[i]) {
				return false
			}
		}
		return true
	case TagObject, TagStruct:
		if sx.tag == TagStruct && sx.tname != sy.tname {
			return false
		}
		if len(sx.rec.Keys) != len(sy.rec.Keys) {
			return false
		}
		keys := append([]string(nil), sx.rec.Keys...)
		for _, k := range keys {
			yv, ok := a.slots[y].rec.Get(k)
			if !ok {
				return false
			}
			if !a.Equal(a.slots[x].rec.Entries[k], yv) {
				return false
			}
		}
		return true
	case TagEnum:
		return sx.tname == sy.tname && sx.caseName == sy.caseName
	case TagFun:
		return sx.fun == sy.fun
	case TagResource:
		return sx.res == sy.res
	}
	return false
}

// Size reports the number of live slots (the none singleton included);
// useful for leak assertions in tests.
func (a *Arena) Size() int { return len(a.slots) }
