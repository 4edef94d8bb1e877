// registry.go — the native builtin registry.
//
// Natives register by name during package init (the builtin_*.go files).
// Registration is a startup concern: a duplicate name panics immediately so
// a bad build never serves guest code, and the registry is sealed before
// the first interpreter runs. After sealing, lookup is read-only and safe
// for concurrent runs.
package deka

import (
	"fmt"
	"sort"
	"sync"
)

// NativeFn is the host implementation of one builtin. Method-style natives
// receive their receiver as args[0]. A native returns either a result
// handle or a *NativeError; it must not panic for guest-visible failures.
type NativeFn func(in *Interp, args []Handle) (Handle, *NativeError)

// Native describes one registered builtin.
type Native struct {
	Name     string
	MinArity int
	MaxArity int // -1 means variadic
	Fn       NativeFn
}

// Registry maps builtin names to their implementations.
type Registry struct {
	mu      sync.RWMutex
	sealed  bool
	entries map[string]*Native
}

// NewRegistry returns an empty, unsealed registry.
func NewRegistry() *Registry {
	return &Registry{entries: map[string]*Native{}}
}

// Register adds n. Registering after Seal or under a name already taken is
// an error.
func (r *Registry) Register(n *Native) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return fmt.Errorf("registry is sealed; cannot register '%s'", n.Name)
	}
	if _, dup := r.entries[n.Name]; dup {
		return fmt.Errorf("duplicate builtin registration: '%s'", n.Name)
	}
	r.entries[n.Name] = n
	return nil
}

// MustRegister is Register for init-time wiring; any failure is a startup
// defect and panics.
func (r *Registry) MustRegister(n *Native) {
	if err := r.Register(n); err != nil {
		panic(err)
	}
}

// Seal freezes the registry. Idempotent.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Lookup finds a native by name.
func (r *Registry) Lookup(name string) (*Native, bool) {
	r.mu.RLock()
	n, ok := r.entries[name]
	r.mu.RUnlock()
	return n, ok
}

// Names returns all registered names, sorted, for introspection and tests.
func (r *Registry) Names() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.entries))
	for k := range r.entries {
		out = append(out, k)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

// builtins is the process-wide registry populated by the builtin_*.go init
// functions and sealed by the first interpreter construction.
var builtins = NewRegistry()

// checkArity validates len(args) against the declared bounds.
func (n *Native) checkArity(args []Handle) *NativeError {
	if len(args) < n.MinArity || (n.MaxArity >= 0 && len(args) > n.MaxArity) {
		want := fmt.Sprintf("%d", n.MinArity)
		if n.MaxArity < 0 {
			want = fmt.Sprintf("at least %d", n.MinArity)
		} else if n.MaxArity != n.MinArity {
			want = fmt.Sprintf("%d to %d", n.MinArity, n.MaxArity)
		}
		return &NativeError{Op: n.Name, Code: NativeBadArity,
			Msg: fmt.Sprintf("%s expects %s argument(s), found %d", n.Name, want, len(args))}
	}
	return nil
}

// badArg builds the conventional wrong-argument-type error.
func badArg(op, what string, got ValueTag) *NativeError {
	return &NativeError{Op: op, Code: NativeBadArg,
		Msg: fmt.Sprintf("%s expects %s, found %s", op, what, got)}
}
