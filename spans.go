// spans.go — source positions carried inside S-expression nodes.
//
// Every AST node produced by the parser has the shape
//
//	[]any{tag string, pos Pos, child0, child1, ...}
//
// so the checker and the interpreter can report accurate locations without
// a sidecar index. The helpers below are the only sanctioned way to pick a
// node apart; they keep the element-offset convention in one place.
package deka

// Pos is a source location. Line is 1-based, Col is 0-based (matching the
// lexer's Token coordinates).
type Pos struct {
	Line int
	Col  int
}

// S is the AST node type: a tag, a position, then children. Children are
// either nested S nodes or scalar payloads (string/int64/float64/bool).
type S = []any

// node builds an S node from a token position.
func node(tag string, p Pos, kids ...any) S {
	out := make(S, 0, 2+len(kids))
	out = append(out, tag, p)
	out = append(out, kids...)
	return out
}

// tagOf returns the node tag, or "" for malformed nodes.
func tagOf(n S) string {
	if len(n) == 0 {
		return ""
	}
	t, _ := n[0].(string)
	return t
}

// posOf returns the node position (zero Pos for malformed nodes).
func posOf(n S) Pos {
	if len(n) < 2 {
		return Pos{}
	}
	p, _ := n[1].(Pos)
	return p
}

// kidCount returns the number of children.
func kidCount(n S) int {
	if len(n) < 2 {
		return 0
	}
	return len(n) - 2
}

// kid returns child i as an S node.
func kid(n S, i int) S { return n[i+2].(S) }

// kidAny returns child i without asserting a node shape.
func kidAny(n S, i int) any { return n[i+2] }

// kidStr returns child i as a string payload.
func kidStr(n S, i int) string { return n[i+2].(string) }

// SourceRef names a unit of source for diagnostics.
type SourceRef struct {
	Name string
	Src  string
}
