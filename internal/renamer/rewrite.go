package renamer

import (
	"regexp"
	"strings"

	"github.com/HugoDaniel/glslmin/internal/ast"
	"github.com/HugoDaniel/glslmin/internal/lexer"
	"github.com/HugoDaniel/glslmin/internal/scanner"
)

// ----------------------------------------------------------------------------
// Locals
// ----------------------------------------------------------------------------

// LocalScanner finds the arguments and local variables of functions.
type LocalScanner struct {
	declRe  *regexp.Regexp
	paramRe *regexp.Regexp
}

// NewLocalScanner creates a scanner recognizing declarations of the given
// types.
func NewLocalScanner(types *scanner.TypeSet) *LocalScanner {
	return &LocalScanner{
		declRe: regexp.MustCompile(`(?:^|[;{}(:])\s*(?:(?:const|highp|mediump|lowp|precise)\s+)*` +
			types.Pattern() + `\s*(?:\[[^\]]*\])?\s+([^;{}]*)`),
		paramRe: regexp.MustCompile(`([A-Za-z_]\w*)\s*(?:\[[^\]]*\])?\s*$`),
	}
}

// Locals returns the names declared by fn's argument list and body, in
// order of appearance.
func (ls *LocalScanner) Locals(fn *ast.Function) []string {
	var names []string
	for _, param := range scanner.SplitDeclarators(fn.Arguments) {
		param = strings.TrimSpace(param)
		m := ls.paramRe.FindStringSubmatchIndex(param)
		// A lone type ("void", or an unnamed prototype parameter) names
		// nothing.
		if m == nil || strings.TrimSpace(param[:m[2]]) == "" {
			continue
		}
		names = append(names, param[m[2]:m[3]])
	}

	body := lexer.MaskDirectives(fn.Body, '#')
	for _, m := range ls.declRe.FindAllStringSubmatch(body, -1) {
		for _, d := range scanner.SplitDeclarators(m[1]) {
			if name, _, ok := scanner.Declarator(d); ok {
				names = append(names, name)
			}
		}
	}
	return names
}

// allocateLocals names the locals of one function from a fresh pool.
func (a *Allocator) allocateLocals(fn *ast.Function, ls *LocalScanner, pinned map[string]bool) (map[string]string, error) {
	var names []string
	for _, name := range sortedUnique(ls.Locals(fn)) {
		if a.globalNames[name] || a.keep[name] || pinned[name] || a.reserved[name] {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, nil
	}

	pool := NewNamePool(LowerAlphabet, a.opts.MaxNameLength, a.taken)
	if err := checkCapacity(NamespaceLocals, pool, len(names)); err != nil {
		return nil, err
	}
	locals := make(map[string]string, len(names))
	for _, name := range names {
		locals[name], _ = pool.Next()
	}
	return locals, nil
}

// ----------------------------------------------------------------------------
// Rewriting
// ----------------------------------------------------------------------------

// Rewrite renames every identifier of one shader in a single token pass
// per chunk. Locals shadow globals; identifiers after '.' use the member
// map. pinned lists identifiers that must keep their spelling inside
// functions because a surviving macro mentions them. It returns the number
// of locals renamed.
func (a *Allocator) Rewrite(shader *ast.Shader, ls *LocalScanner, pinned map[string]bool) (int, error) {
	renamed := 0
	for i := range shader.Chunks {
		c := &shader.Chunks[i]
		switch c.Kind {
		case ast.ChunkFunction, ast.ChunkPrototype:
			fn := c.Function
			locals, err := a.allocateLocals(fn, ls, pinned)
			if err != nil {
				return renamed, err
			}
			renamed += len(locals)

			scoped := func(name string, member bool) string {
				if member {
					return a.member(name)
				}
				if n, ok := locals[name]; ok {
					return n
				}
				return a.global(name)
			}
			if !fn.IsMain() {
				fn.Name = a.global(fn.Name)
			}
			fn.ReturnType = lexer.RewriteIdents(fn.ReturnType, a.globalIdent)
			fn.Arguments = lexer.RewriteIdents(fn.Arguments, scoped)
			fn.Body = lexer.RewriteIdents(fn.Body, scoped)

		case ast.ChunkStruct:
			st := c.Struct
			st.Name = a.global(st.Name)
			st.Body = lexer.RewriteIdents(st.Body, func(name string, member bool) string {
				if n, ok := a.members.Lookup(name); ok {
					return n
				}
				return a.global(name)
			})
			st.Tail = lexer.RewriteIdents(st.Tail, a.globalIdent)
			for j := range st.Members {
				st.Members[j].Name = a.member(st.Members[j].Name)
			}

		default:
			c.Text = lexer.RewriteIdents(c.Text, a.globalIdent)
		}
	}
	return renamed, nil
}

func (a *Allocator) globalIdent(name string, member bool) string {
	if member {
		return a.member(name)
	}
	return a.global(name)
}

func (a *Allocator) global(name string) string {
	if n, ok := a.globals[name]; ok {
		return n
	}
	return name
}

func (a *Allocator) member(name string) string {
	if n, ok := a.members.Lookup(name); ok {
		return n
	}
	return name
}

// MacroIdentifiers returns every identifier in the values of the given
// macros, the names a surviving macro may expand to.
func MacroIdentifiers(macros []*ast.Macro) map[string]bool {
	ids := make(map[string]bool)
	for _, m := range macros {
		for _, id := range lexer.Identifiers(m.Value) {
			ids[id] = true
		}
	}
	return ids
}
