// modules.go — module resolution: specifier lookup, the import graph, and
// the content-addressed compile cache.
//
// Specifiers come in two forms. A relative specifier ('./util' or
// '../shared/fmt') resolves against the importing file's directory with a
// '.dk' extension appended when absent. A bare specifier ('markdown')
// resolves to dk_modules/markdown/index.dk under the load root.
//
// Resolution is a depth-first walk with an explicit on-path stack, so a
// cycle is caught the moment a module re-enters its own dependency chain.
// Parsed units are cached by the SHA-256 of their source; only successful
// parses enter the cache, so a fixed file is always re-read.
package deka

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// Loader fetches module source by slash-separated path relative to the
// load root.
type Loader interface {
	Load(path string) ([]byte, error)
}

// FSLoader loads modules from a directory tree.
type FSLoader struct {
	Root string
}

func (l FSLoader) Load(p string) ([]byte, error) {
	return os.ReadFile(filepath.Join(l.Root, filepath.FromSlash(p)))
}

// MapLoader serves modules from memory; tests and embedded programs use it.
type MapLoader map[string]string

func (l MapLoader) Load(p string) ([]byte, error) {
	src, ok := l[p]
	if !ok {
		return nil, fmt.Errorf("module file not found: %s", p)
	}
	return []byte(src), nil
}

// ModuleRec is one resolved module.
type ModuleRec struct {
	Name    string // specifier as written by the importer; the entry keeps its path
	Path    string // canonical slash path under the load root
	Hash    string // SHA-256 of the source, hex
	Source  string
	AST     S
	Unit    *UnitContext
	Imports map[string]*ModuleRec // imported name → providing module

	Env *Env // module globals, populated by the interpreter
}

// Program is a resolved module graph in dependency order; the entry module
// is last.
type Program struct {
	Modules []*ModuleRec
	Entry   *ModuleRec
}

type cacheEntry struct {
	ast S
}

// Resolver builds Programs. It is safe for concurrent use; the compile
// cache is shared across resolutions.
type Resolver struct {
	loader Loader

	mu    sync.RWMutex
	cache map[string]*cacheEntry
}

// NewResolver returns a resolver reading through loader.
func NewResolver(loader Loader) *Resolver {
	return &Resolver{loader: loader, cache: map[string]*cacheEntry{}}
}

// Resolve loads the module graph rooted at entryPath.
func (r *Resolver) Resolve(entryPath string) (*Program, error) {
	src, err := r.loader.Load(entryPath)
	if err != nil {
		return nil, &ResolutionError{Module: entryPath, Msg: err.Error()}
	}
	return r.ResolveSource(entryPath, string(src))
}

// ResolveSource resolves a graph whose entry source is provided directly
// (REPL input, adapter runs). entryPath anchors relative imports.
func (r *Resolver) ResolveSource(entryPath, src string) (*Program, error) {
	st := &resolveState{r: r, byPath: map[string]*ModuleRec{}}
	entry, err := st.load(entryPath, canonPath(entryPath), src)
	if err != nil {
		return nil, err
	}
	return &Program{Modules: st.order, Entry: entry}, nil
}

type stackFrame struct {
	name  string
	canon string
}

type resolveState struct {
	r      *Resolver
	byPath map[string]*ModuleRec
	stack  []stackFrame // active DFS path
	order  []*ModuleRec
}

// load parses, links, and validates one module. src may be empty, in which
// case the loader provides it.
func (st *resolveState) load(name, canon, src string) (*ModuleRec, error) {
	for _, on := range st.stack {
		if on.canon == canon {
			chain := make([]string, 0, len(st.stack)+1)
			for _, f := range st.stack {
				chain = append(chain, f.name)
			}
			chain = append(chain, on.name)
			entry := st.stack[0].name
			return nil, &ResolutionError{Module: entry,
				Msg: fmt.Sprintf("Cyclic import detected: `%s` (%s)",
					entry, strings.Join(chain, " -> "))}
		}
	}
	if m, done := st.byPath[canon]; done {
		return m, nil
	}

	if src == "" {
		b, err := st.r.loader.Load(canon)
		if err != nil {
			return nil, &ResolutionError{Module: name, Msg: err.Error()}
		}
		src = string(b)
	}

	ast, err := st.r.compile(canon, src)
	if err != nil {
		return nil, err
	}

	m := &ModuleRec{
		Name:    name,
		Path:    canon,
		Hash:    hashSource(src),
		Source:  src,
		AST:     ast,
		Unit:    NewUnitContext(),
		Imports: map[string]*ModuleRec{},
	}
	var declErrs []*TypeError
	CollectDecls(ast, m.Unit, &declErrs)
	if len(declErrs) > 0 {
		return nil, &SourceError{Name: canon, Src: src, Err: declErrs[0]}
	}

	st.stack = append(st.stack, stackFrame{name: name, canon: canon})
	defer func() { st.stack = st.stack[:len(st.stack)-1] }()

	for i := 0; i < kidCount(ast); i++ {
		stmt := kid(ast, i)
		if tagOf(stmt) != "import" {
			continue
		}
		spec := kidStr(stmt, 0)
		depPath, perr := resolveSpecifier(canon, spec)
		if perr != nil {
			return nil, &ResolutionError{Module: name, Msg: perr.Error()}
		}
		dep, err := st.load(spec, depPath, "")
		if err != nil {
			return nil, err
		}
		for j := 1; j < kidCount(stmt); j++ {
			imported := kidStr(stmt, j)
			if !hasExport(dep.Unit, imported) {
				msg := fmt.Sprintf("Module '%s' has no export '%s'.", spec, imported)
				if hint := closestName(imported, dep.Unit.Exports); hint != "" {
					msg += fmt.Sprintf(" Did you mean '%s'?", hint)
				}
				return nil, &ResolutionError{Module: name, Msg: msg}
			}
			m.Imports[imported] = dep
			adoptExport(m.Unit, dep.Unit, imported)
		}
	}

	if unused := firstUnusedImport(m); unused != "" {
		return nil, &ResolutionError{Module: name,
			Msg: fmt.Sprintf("Unused import '%s'.", unused)}
	}

	st.byPath[canon] = m
	st.order = append(st.order, m)
	return m, nil
}

// compile parses src, serving repeated content from the hash cache.
func (r *Resolver) compile(canon, src string) (S, error) {
	key := hashSource(src)
	r.mu.RLock()
	hit := r.cache[key]
	r.mu.RUnlock()
	if hit != nil {
		return hit.ast, nil
	}
	ast, err := Parse(src)
	if err != nil {
		return nil, &SourceError{Name: canon, Src: src, Err: err}
	}
	r.mu.Lock()
	r.cache[key] = &cacheEntry{ast: ast}
	r.mu.Unlock()
	return ast, nil
}

func hashSource(src string) string {
	sum := sha256.Sum256([]byte(src))
	return hex.EncodeToString(sum[:])
}

// resolveSpecifier maps an import specifier to a canonical load path.
func resolveSpecifier(importer, spec string) (string, error) {
	if spec == "" {
		return "", fmt.Errorf("empty module specifier")
	}
	if strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") {
		p := path.Join(path.Dir(importer), spec)
		if path.Ext(p) == "" {
			p += ".dk"
		}
		if strings.HasPrefix(p, "../") {
			return "", fmt.Errorf("module specifier '%s' escapes the load root", spec)
		}
		return p, nil
	}
	if strings.ContainsAny(spec, "/\\") {
		return "", fmt.Errorf("invalid module specifier '%s'", spec)
	}
	return path.Join("dk_modules", spec, "index.dk"), nil
}

func canonPath(p string) string {
	return path.Clean(filepath.ToSlash(p))
}

// adoptExport copies the declared form of an imported name from the
// providing unit into the importer's symbol table, so the checker sees the
// exporter's signature rather than mixed. Local declarations shadow imports.
func adoptExport(dst, src *UnitContext, name string) {
	if sig, ok := src.Funcs[name]; ok {
		if _, shadowed := dst.Funcs[name]; !shadowed {
			dst.Funcs[name] = sig
		}
	}
	if def, ok := src.Structs[name]; ok {
		if _, shadowed := dst.Structs[name]; !shadowed {
			dst.Structs[name] = def
		}
	}
	if def, ok := src.Enums[name]; ok {
		if _, shadowed := dst.Enums[name]; !shadowed {
			dst.Enums[name] = def
		}
	}
	if def, ok := src.Ifaces[name]; ok {
		if _, shadowed := dst.Ifaces[name]; !shadowed {
			dst.Ifaces[name] = def
		}
	}
	if t, ok := src.Aliases[name]; ok {
		if _, shadowed := dst.Aliases[name]; !shadowed {
			dst.Aliases[name] = t
		}
	}
}

func hasExport(unit *UnitContext, name string) bool {
	for _, e := range unit.Exports {
		if e == name {
			return true
		}
	}
	return false
}

// firstUnusedImport scans the AST for references to each imported name and
// returns the first name never mentioned outside its import statement.
func firstUnusedImport(m *ModuleRec) string {
	if len(m.Imports) == 0 {
		return ""
	}
	used := map[string]bool{}
	scanUsage(m.AST, used)

	// Report in import order, not map order.
	for i := 0; i < kidCount(m.AST); i++ {
		stmt := kid(m.AST, i)
		if tagOf(stmt) != "import" {
			continue
		}
		for j := 1; j < kidCount(stmt); j++ {
			if name := kidStr(stmt, j); !used[name] {
				return name
			}
		}
	}
	return ""
}

// scanUsage records every identifier-position name in the tree: bare ids,
// enum paths, struct literals, case patterns, and named types.
func scanUsage(n S, used map[string]bool) {
	switch tagOf(n) {
	case "import":
		return
	case "id", "tid", "structlit":
		used[kidStr(n, 0)] = true
	case "path", "pcase":
		used[kidStr(n, 0)] = true
	case "tapp":
		used[kidStr(n, 0)] = true
	}
	for i := 2; i < len(n); i++ {
		if child, ok := n[i].(S); ok {
			scanUsage(child, used)
		}
	}
}

// closestName suggests the nearest candidate by edit distance, or "" when
// nothing is close enough to be a plausible typo.
func closestName(name string, candidates []string) string {
	limit := len(name)/2 + 2
	best, bestDist := "", limit+1
	for _, c := range candidates {
		if d := editDistance(name, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func editDistance(a, b string) int {
	if a == b {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min3(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
