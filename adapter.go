// adapter.go — the embedding surface: one call in, one structured result
// out.
//
// Run never lets an engine error escape as a Go error or a panic; every
// failure becomes a Diagnostic with a phase (preflight, lex, parse,
// typecheck, resolve, runtime) and a location when one exists. Hosts embed
// the engine through this type; the CLI in cmd/deka is itself a caller.
package deka

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Mode selects how much static machinery runs before execution.
type Mode string

const (
	// ModePlain executes without the type checker; dynamic code runs as-is.
	ModePlain Mode = "plain"
	// ModeStrict runs the full checker and bans null and internal names.
	ModeStrict Mode = "strict"
	// ModeStrictInternal is strict plus the __-prefixed intrinsics
	// (the host bridge).
	ModeStrictInternal Mode = "strict_internal"
)

// Diagnostic is one reported problem.
type Diagnostic struct {
	Severity string // "error" or "warning"
	Phase    string // preflight, lex, parse, typecheck, resolve, runtime
	File     string
	Line     int
	Col      int
	Message  string
}

// RunMeta carries run facts that are not diagnostics.
type RunMeta struct {
	Host        CapabilityReport
	ModuleCount int
	EntryHash   string
}

// ExecutionResult is the complete outcome of one Run.
type ExecutionResult struct {
	OK          bool
	Stdout      string
	Stderr      string
	Diagnostics []Diagnostic
	Meta        RunMeta
}

// RunContext configures one Run.
type RunContext struct {
	// Cwd is verified during preflight when non-empty.
	Cwd string
	// EntryName labels the entry source in diagnostics; defaults to "main.dk".
	EntryName string
	// Loader serves imported modules. Defaults to an FSLoader rooted at Cwd.
	Loader Loader
	// Host supplies capabilities; nil denies everything.
	Host *HostContext
}

// Adapter runs guest programs. One adapter may serve many runs; the
// resolver's compile cache is shared across them.
type Adapter struct {
	resolver *Resolver
	host     *HostContext
}

// NewAdapter builds an adapter over loader and host (both optional).
func NewAdapter(loader Loader, host *HostContext) *Adapter {
	if loader == nil {
		loader = FSLoader{Root: "."}
	}
	if host == nil {
		host = NewHostContext(nil)
	}
	return &Adapter{resolver: NewResolver(loader), host: host}
}

// Run executes source in the given mode and reports everything that
// happened.
func (ad *Adapter) Run(source string, mode Mode, rc RunContext) ExecutionResult {
	res := ExecutionResult{OK: true}
	entryName := rc.EntryName
	if entryName == "" {
		entryName = "main.dk"
	}
	host := rc.Host
	if host == nil {
		host = ad.host
	}
	res.Meta.Host = host.Report()

	// Preflight: the working directory must exist before anything runs.
	if rc.Cwd != "" {
		if st, err := os.Stat(rc.Cwd); err != nil || !st.IsDir() {
			res.OK = false
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Severity: "error", Phase: "preflight",
				Message: fmt.Sprintf("working directory '%s' does not exist", rc.Cwd),
			})
			return res
		}
	}

	resolver := ad.resolver
	if rc.Loader != nil {
		resolver = NewResolver(rc.Loader)
	}

	prog, err := resolver.ResolveSource(entryName, source)
	if err != nil {
		res.OK = false
		d := diagFromError(err, entryName)
		res.Diagnostics = append(res.Diagnostics, d)
		res.Stderr = err.Error()
		return res
	}
	res.Meta.ModuleCount = len(prog.Modules)
	res.Meta.EntryHash = prog.Entry.Hash

	// Typecheck every module before running any; strict failures stop
	// execution but still report the full list.
	if mode != ModePlain {
		for _, m := range prog.Modules {
			for _, te := range Check(m.AST, m.Unit, mode) {
				res.OK = false
				res.Diagnostics = append(res.Diagnostics, Diagnostic{
					Severity: "error", Phase: "typecheck", File: m.Path,
					Line: te.Line, Col: te.Col, Message: te.Msg,
				})
				res.Stderr += WrapErrorWithName(te, m.Path, m.Source).Error() + "\n"
			}
		}
		if !res.OK {
			return res
		}
	}

	var out strings.Builder
	ip := NewInterp(&out, mode, host)
	for _, m := range prog.Modules {
		if rerr := ip.RunModule(m); rerr != nil {
			res.OK = false
			res.Stdout = out.String()
			res.Diagnostics = append(res.Diagnostics, runtimeDiag(rerr, m.Path))
			res.Stderr = WrapErrorWithName(rerr, m.Path, m.Source).Error()
			return res
		}
	}
	res.Stdout = out.String()
	return res
}

// diagFromError maps a resolution-stage failure onto a Diagnostic,
// unwrapping SourceError to recover the typed cause and its location.
func diagFromError(err error, fallbackFile string) Diagnostic {
	d := Diagnostic{Severity: "error", File: fallbackFile, Message: err.Error()}

	var se *SourceError
	if errors.As(err, &se) {
		d.File = se.Name
		err = se.Err
		d.Message = err.Error()
	}
	var (
		le *LexError
		pe *ParseError
		te *TypeError
		re *ResolutionError
	)
	switch {
	case errors.As(err, &le):
		d.Phase, d.Line, d.Col, d.Message = "lex", le.Line, le.Col, le.Msg
	case errors.As(err, &pe):
		d.Phase, d.Line, d.Col, d.Message = "parse", pe.Line, pe.Col, pe.Msg
	case errors.As(err, &te):
		d.Phase, d.Line, d.Col, d.Message = "typecheck", te.Line, te.Col, te.Msg
	case errors.As(err, &re):
		d.Phase, d.Message = "resolve", re.Msg
		if re.Module != "" {
			d.File = re.Module
		}
	default:
		d.Phase = "resolve"
	}
	return d
}

// runtimeDiag maps an execution failure onto a Diagnostic.
func runtimeDiag(err error, file string) Diagnostic {
	d := Diagnostic{Severity: "error", Phase: "runtime", File: file, Message: err.Error()}
	var (
		ps  *PanicSignal
		ne  *NativeError
		ce  *CodecError
		cpe *CapabilityError
	)
	switch {
	case errors.As(err, &ps):
		d.Line, d.Col, d.Message = ps.Line, ps.Col, ps.Msg
	case errors.As(err, &ne):
		d.Message = ne.Msg
	case errors.As(err, &ce):
		d.Phase, d.Message = "bridge", ce.Msg
	case errors.As(err, &cpe):
		d.Phase, d.Message = "capability", cpe.Msg
	}
	return d
}
