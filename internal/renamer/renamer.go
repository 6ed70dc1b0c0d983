// Package renamer allocates short identifiers for a shader batch and
// rewrites the shaders with them.
//
// The allocator:
// - Draws functions, struct types, uniforms, attributes, varyings and
//   constants from one shared global pool, in that order
// - Draws struct members from a second pool shared by every struct
// - Draws function locals from a third pool reset for each function
// - Sorts each namespace alphabetically before assigning names
// - Never hands out a reserved word or any identifier present in the batch
package renamer

import (
	"fmt"
	"sort"

	"github.com/HugoDaniel/glslmin/internal/ast"
	"github.com/HugoDaniel/glslmin/internal/builtins"
	"github.com/HugoDaniel/glslmin/internal/catalog"
)

// ----------------------------------------------------------------------------
// Namespaces
// ----------------------------------------------------------------------------

// Namespace names a group of identifiers that is allocated together.
type Namespace string

const (
	NamespaceFunctions  Namespace = "functions"
	NamespaceStructs    Namespace = "structs"
	NamespaceUniforms   Namespace = "uniforms"
	NamespaceAttributes Namespace = "attributes"
	NamespaceVaryings   Namespace = "varyings"
	NamespaceConsts     Namespace = "consts"
	NamespaceMembers    Namespace = "members"
	NamespaceLocals     Namespace = "locals"
	NamespaceMacros     Namespace = "macros"
)

// GlobalNamespaces lists the namespaces of the shared global pool in
// allocation order.
var GlobalNamespaces = []Namespace{
	NamespaceFunctions,
	NamespaceStructs,
	NamespaceUniforms,
	NamespaceAttributes,
	NamespaceVaryings,
	NamespaceConsts,
}

var qualifierNamespace = map[ast.Qualifier]Namespace{
	ast.Uniform:   NamespaceUniforms,
	ast.Attribute: NamespaceAttributes,
	ast.Varying:   NamespaceVaryings,
	ast.Const:     NamespaceConsts,
}

// ExhaustedError reports a namespace with more identifiers than its pool
// can name. Raising Options.MaxNameLength (or setting it to 0) recovers.
type ExhaustedError struct {
	Namespace Namespace
	Needed    int
	Available int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("name pool exhausted in namespace %q: %d names needed, %d available",
		e.Namespace, e.Needed, e.Available)
}

// ----------------------------------------------------------------------------
// Symbol Maps
// ----------------------------------------------------------------------------

// Pair is one old -> new mapping.
type Pair struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// SymbolMap is an ordered, injective old -> new mapping.
type SymbolMap struct {
	pairs []Pair
	index map[string]string
	used  map[string]string // new -> old
}

// NewSymbolMap returns an empty map.
func NewSymbolMap() *SymbolMap {
	return &SymbolMap{
		index: make(map[string]string),
		used:  make(map[string]string),
	}
}

// Set records old -> new. It fails if old is already mapped elsewhere or
// new is already the image of another name.
func (m *SymbolMap) Set(old, new string) error {
	if prev, ok := m.index[old]; ok {
		if prev == new {
			return nil
		}
		return fmt.Errorf("%q already mapped to %q", old, prev)
	}
	if owner, ok := m.used[new]; ok {
		return fmt.Errorf("%q already used for %q", new, owner)
	}
	m.index[old] = new
	m.used[new] = old
	m.pairs = append(m.pairs, Pair{Old: old, New: new})
	return nil
}

// Lookup returns the new name for old.
func (m *SymbolMap) Lookup(old string) (string, bool) {
	n, ok := m.index[old]
	return n, ok
}

// Pairs returns the mappings in insertion order.
func (m *SymbolMap) Pairs() []Pair {
	return m.pairs
}

// Len returns the number of mappings.
func (m *SymbolMap) Len() int {
	return len(m.pairs)
}

// Renamed counts mappings whose new name differs from the old one.
func (m *SymbolMap) Renamed() int {
	n := 0
	for _, p := range m.pairs {
		if p.Old != p.New {
			n++
		}
	}
	return n
}

// Map returns the mappings as a plain table.
func (m *SymbolMap) Map() map[string]string {
	out := make(map[string]string, len(m.pairs))
	for _, p := range m.pairs {
		out[p.Old] = p.New
	}
	return out
}

// ----------------------------------------------------------------------------
// Allocator
// ----------------------------------------------------------------------------

// Options controls allocation.
type Options struct {
	// RewriteAllGlobals renames uniforms and attributes. When false they
	// keep their names so host code can look them up by string.
	RewriteAllGlobals bool

	// MaxNameLength bounds generated names. 0 means unbounded.
	MaxNameLength int

	// KeepNames are never renamed.
	KeepNames []string
}

// Allocator owns the name pools and symbol maps of one batch.
type Allocator struct {
	opts Options

	reserved map[string]bool
	taken    map[string]bool // Reserved words and every batch identifier
	assigned map[string]bool // Names handed out from the global pool
	pinned   map[string]bool // Global names kept as they are
	keep     map[string]bool

	globalPool *NamePool
	memberPool *NamePool

	namespaces map[Namespace]*SymbolMap
	globals    map[string]string // Combined global lookup for rewriting
	members    *SymbolMap

	// Names that are globals, functions or structs; a local with one of
	// these names is treated as the global.
	globalNames map[string]bool
}

// NewAllocator creates an allocator for a batch whose identifiers are
// listed in cat.Identifiers.
func NewAllocator(cat *catalog.Catalog, opts Options) *Allocator {
	a := &Allocator{
		opts:        opts,
		reserved:    builtins.Reserved(),
		taken:       builtins.Reserved(),
		assigned:    make(map[string]bool),
		pinned:      make(map[string]bool),
		keep:        make(map[string]bool),
		namespaces:  make(map[Namespace]*SymbolMap),
		globals:     make(map[string]string),
		members:     NewSymbolMap(),
		globalNames: make(map[string]bool),
	}
	for id := range cat.Identifiers {
		a.taken[id] = true
	}
	for _, name := range opts.KeepNames {
		a.keep[name] = true
		a.taken[name] = true
	}
	a.globalPool = NewNamePool(UpperAlphabet, opts.MaxNameLength, a.taken)
	a.memberPool = NewNamePool(MixedAlphabet, opts.MaxNameLength, a.taken, a.assigned)
	for _, ns := range GlobalNamespaces {
		a.namespaces[ns] = NewSymbolMap()
	}
	return a
}

// Allocate assigns names to every global namespace and to struct members.
func (a *Allocator) Allocate(cat *catalog.Catalog) error {
	byNamespace := map[Namespace][]string{
		NamespaceFunctions: cat.FunctionNames(),
		NamespaceStructs:   cat.Structs,
	}
	for q, ns := range qualifierNamespace {
		byNamespace[ns] = cat.GlobalNames(q)
	}

	for name := range a.keep {
		a.pinned[name] = true
	}
	if !a.opts.RewriteAllGlobals {
		for _, name := range byNamespace[NamespaceUniforms] {
			a.pinned[name] = true
		}
		for _, name := range byNamespace[NamespaceAttributes] {
			a.pinned[name] = true
		}
	}

	for _, ns := range GlobalNamespaces {
		names := sortedUnique(byNamespace[ns])
		for _, name := range names {
			a.globalNames[name] = true
		}
		if err := a.allocateGlobals(ns, names); err != nil {
			return err
		}
	}
	return a.allocateMembers(sortedUnique(cat.MemberNames()))
}

func (a *Allocator) allocateGlobals(ns Namespace, names []string) error {
	if err := checkCapacity(ns, a.globalPool, a.needed(names)); err != nil {
		return err
	}

	m := a.namespaces[ns]
	for _, name := range names {
		newName, ok := a.globals[name]
		switch {
		case a.pinned[name]:
			newName = name
		case ok:
			// Already named in an earlier namespace; one token has one name.
		default:
			newName, _ = a.globalPool.Next()
			a.assigned[newName] = true
		}
		a.globals[name] = newName
		if err := m.Set(name, newName); err != nil {
			return fmt.Errorf("namespace %s: %w", ns, err)
		}
	}
	return nil
}

func (a *Allocator) allocateMembers(names []string) error {
	needed := 0
	for _, name := range names {
		if !a.keep[name] && !isBuiltinMember(name) {
			needed++
		}
	}
	if err := checkCapacity(NamespaceMembers, a.memberPool, needed); err != nil {
		return err
	}

	for _, name := range names {
		newName := name
		if !a.keep[name] && !isBuiltinMember(name) {
			newName, _ = a.memberPool.Next()
		}
		if err := a.members.Set(name, newName); err != nil {
			return fmt.Errorf("namespace %s: %w", NamespaceMembers, err)
		}
	}
	return nil
}

// needed counts the names that still require a fresh global name.
func (a *Allocator) needed(names []string) int {
	n := 0
	for _, name := range names {
		if _, ok := a.globals[name]; !ok && !a.pinned[name] {
			n++
		}
	}
	return n
}

// checkCapacity fails before any name is consumed if the pool cannot
// cover the namespace.
func checkCapacity(ns Namespace, pool *NamePool, needed int) error {
	if available := pool.Remaining(); available >= 0 && needed > available {
		return &ExhaustedError{Namespace: ns, Needed: needed, Available: available}
	}
	return nil
}

// Namespace returns the symbol map of a global namespace.
func (a *Allocator) Namespace(ns Namespace) *SymbolMap {
	return a.namespaces[ns]
}

// Members returns the struct member map.
func (a *Allocator) Members() *SymbolMap {
	return a.members
}

// Global returns the new name of a global identifier.
func (a *Allocator) Global(name string) (string, bool) {
	n, ok := a.globals[name]
	return n, ok
}

// HostPairs returns the uniform then attribute mappings, the names host
// code refers to.
func (a *Allocator) HostPairs() []Pair {
	var out []Pair
	out = append(out, a.namespaces[NamespaceUniforms].Pairs()...)
	out = append(out, a.namespaces[NamespaceAttributes].Pairs()...)
	return out
}

// IdentityPairs lists the uniforms then attributes of c under their own
// names, in the order HostPairs uses, for batches whose identifiers are
// left alone.
func IdentityPairs(c *catalog.Catalog) []Pair {
	var out []Pair
	for _, q := range []ast.Qualifier{ast.Uniform, ast.Attribute} {
		for _, name := range sortedUnique(c.GlobalNames(q)) {
			out = append(out, Pair{Old: name, New: name})
		}
	}
	return out
}

// Renamed counts the global and member identifiers given a new name.
func (a *Allocator) Renamed() int {
	n := a.members.Renamed()
	seen := make(map[string]bool)
	for old, new := range a.globals {
		if old != new && !seen[old] {
			seen[old] = true
			n++
		}
	}
	return n
}

// isBuiltinMember reports whether a member name must survive renaming:
// swizzle-like names could be vector component accesses, and a few names
// are members of built-in variables.
func isBuiltinMember(name string) bool {
	if builtins.IsSwizzle(name) {
		return true
	}
	for _, m := range builtins.BuiltinMembers {
		if m == name {
			return true
		}
	}
	return false
}

func sortedUnique(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}
