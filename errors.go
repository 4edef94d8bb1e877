// errors.go — diagnostic taxonomy and caret-snippet rendering.
//
// Every failure the engine can produce is a typed value from the taxonomy
// below; nothing escapes as a bare string or an unhandled process abort.
// The static phases (lex/parse/check/resolve) report before execution; the
// dynamic phases (panic/native/codec/capability) are surfaced either as
// recoverable guest values or as a PanicSignal ending the run.
//
// Rendering produces Python-style caret snippets:
//
//	PARSE ERROR in main.dk at 3:12: unexpected token ')'
//
//	   2 | $x = (1 + 2
//	   3 |            )
//	     |            ^
//	   4 | echo $x
package deka

import (
	"fmt"
	"strings"
)

// LexError is a malformed-token failure. Line is 1-based, Col is 0-based
// (rendered 1-based by the snippet formatter).
type LexError struct {
	Line int
	Col  int
	Msg  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at %d:%d: %s", e.Line, e.Col+1, e.Msg)
}

// ParseError is a malformed-source failure from the parser. The parser never
// aborts the process; it returns one of these.
type ParseError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Col+1, e.Msg)
}

// TypeError is a single checker diagnostic. The checker collects every
// diagnostic for a unit instead of stopping at the first.
type TypeError struct {
	Line int
	Col  int
	Msg  string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("type error at %d:%d: %s", e.Line, e.Col+1, e.Msg)
}

// ResolutionError is a module-graph failure: an import cycle, a missing
// export, or an unused import. Module names the offending unit.
type ResolutionError struct {
	Module string
	Msg    string
}

func (e *ResolutionError) Error() string {
	if e.Module == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s (in module %s)", e.Msg, e.Module)
}

// PanicSignal is the guest language's sole fatal-abort outcome. It unwinds
// the interpreter's call stack to the top level and ends the run; it is not
// recoverable by guest code and is distinct from Result::Err.
type PanicSignal struct {
	Msg  string
	Line int
	Col  int
}

func (e *PanicSignal) Error() string {
	return fmt.Sprintf("panic: %s", e.Msg)
}

// NativeError is a builtin rejecting its arguments. Op is the registered
// builtin name, Code an operation-specific machine code (e.g. "arity",
// "bad_arg") so the interpreter can format a uniform diagnostic.
type NativeError struct {
	Op   string
	Code string
	Msg  string
}

func (e *NativeError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Op, e.Msg, e.Code)
}

// Well-known NativeError codes.
const (
	NativeBadArity = "arity"
	NativeBadArg   = "bad_arg"
	NativeBadRecv  = "bad_receiver"
	NativeFailed   = "failed"
)

// CodecError is a bridge-envelope failure: malformed bytes, an unsupported
// schema version, or an unknown kind/action. It aborts only the in-flight
// host call, never the whole run.
type CodecError struct {
	Code string
	Msg  string
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("codec error: %s (%s)", e.Msg, e.Code)
}

// Well-known CodecError codes.
const (
	CodecUnsupportedVersion = "unsupported_version"
	CodecUnknownOperation   = "unknown_operation"
	CodecMalformed          = "malformed"
)

// CapabilityError is a host-policy rejection, either during the adapter's
// preflight or mid-run at the bridge.
type CapabilityError struct {
	Capability string
	Msg        string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("capability denied: %s: %s", e.Capability, e.Msg)
}

// SourceError ties a failure to the source unit it came from, keeping the
// underlying typed error reachable through Unwrap while rendering with a
// caret snippet.
type SourceError struct {
	Name string
	Src  string
	Err  error
}

func (e *SourceError) Error() string {
	return WrapErrorWithName(e.Err, e.Name, e.Src).Error()
}

func (e *SourceError) Unwrap() error { return e.Err }

/* ===========================
   Snippet rendering
   =========================== */

// WrapErrorWithSource augments lex/parse/type errors with a caret-annotated
// snippet of the source. Other error kinds pass through unchanged.
func WrapErrorWithSource(err error, src string) error {
	return WrapErrorWithName(err, "", src)
}

// WrapErrorWithName is WrapErrorWithSource with a display name ("in <name>")
// in the header.
func WrapErrorWithName(err error, srcName, src string) error {
	switch e := err.(type) {
	case *LexError:
		return fmt.Errorf("%s", snippet(src, "LEX ERROR", srcName, e.Line, e.Col+1, e.Msg))
	case *ParseError:
		return fmt.Errorf("%s", snippet(src, "PARSE ERROR", srcName, e.Line, e.Col+1, e.Msg))
	case *TypeError:
		return fmt.Errorf("%s", snippet(src, "TYPE ERROR", srcName, e.Line, e.Col+1, e.Msg))
	case *PanicSignal:
		return fmt.Errorf("%s", snippet(src, "PANIC", srcName, e.Line, e.Col, e.Msg))
	default:
		return err
	}
}

// snippet builds the caret view. Coordinates are 1-based and clamped so a
// bad location never breaks rendering.
func snippet(src, header, name string, line, col int, msg string) string {
	lines := strings.Split(src, "\n")
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	if line > len(lines) {
		line = len(lines)
	}

	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "%s in %s at %d:%d: %s\n\n", header, name, line, col, msg)
	} else {
		fmt.Fprintf(&b, "%s at %d:%d: %s\n\n", header, line, col, msg)
	}
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lines[line-1])
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", col-1))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
