// Package catalog extracts the symbols of a shader batch.
//
// A Catalog is built per shader by Collect and combined with Merge. Every
// list keeps the order in which a name was first seen and holds each name
// once; the renamer sorts each namespace before allocating.
package catalog

import (
	"regexp"
	"strings"

	"github.com/HugoDaniel/glslmin/internal/ast"
	"github.com/HugoDaniel/glslmin/internal/builtins"
	"github.com/HugoDaniel/glslmin/internal/lexer"
	"github.com/HugoDaniel/glslmin/internal/scanner"
)

// FunctionSig is a function's return type and name.
type FunctionSig struct {
	ReturnType string
	Name       string
}

// Catalog holds the symbols found in one shader or a whole batch.
type Catalog struct {
	Structs   []string
	Macros    []*ast.Macro
	Functions []FunctionSig
	Globals   []ast.Global
	Members   []ast.Member

	// Identifiers is every identifier token present, directives included.
	Identifiers map[string]bool
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{Identifiers: make(map[string]bool)}
}

// GlobalNames returns the names declared with qualifier q, in order.
func (c *Catalog) GlobalNames(q ast.Qualifier) []string {
	var names []string
	for _, g := range c.Globals {
		if g.Qualifier == q {
			names = append(names, g.Name)
		}
	}
	return names
}

// FunctionNames returns the catalogued function names, in order.
func (c *Catalog) FunctionNames() []string {
	names := make([]string, len(c.Functions))
	for i, f := range c.Functions {
		names[i] = f.Name
	}
	return names
}

// MemberNames returns the struct member names, in order.
func (c *Catalog) MemberNames() []string {
	names := make([]string, len(c.Members))
	for i, m := range c.Members {
		names[i] = m.Name
	}
	return names
}

// ----------------------------------------------------------------------------
// Collection
// ----------------------------------------------------------------------------

var structNameRe = regexp.MustCompile(`\bstruct\s+([A-Za-z_]\w*)\s*\{`)

// StructNames returns the names of the structs defined in a preprocessed
// shader. It runs before scanning, since the scanner needs them as types.
func StructNames(source string) []string {
	masked := lexer.MaskDirectives(source, '#')
	var names []string
	for _, m := range structNameRe.FindAllStringSubmatch(masked, -1) {
		names = append(names, m[1])
	}
	return names
}

// GlobalPattern builds the expression matching qualifier-tagged global
// declarations for the given types. Group 1 is the qualifier, group 2 the
// type and group 3 the declarator list.
func GlobalPattern(types *scanner.TypeSet) *regexp.Regexp {
	return regexp.MustCompile(`\b(uniform|attribute|varying|const)\s+` + builtins.PrecisionPattern +
		`(` + types.Pattern() + `)\s+([^;{}#]+);`)
}

// Collect catalogs one scanned shader.
func Collect(shader *ast.Shader, types *scanner.TypeSet) *Catalog {
	c := New()
	globalRe := GlobalPattern(types)

	for i := range shader.Chunks {
		chunk := &shader.Chunks[i]
		switch chunk.Kind {
		case ast.ChunkStruct:
			c.Structs = append(c.Structs, chunk.Struct.Name)
			c.Members = append(c.Members, chunk.Struct.Members...)

		case ast.ChunkFunction, ast.ChunkPrototype:
			if !chunk.Function.IsMain() {
				c.Functions = append(c.Functions, FunctionSig{
					ReturnType: chunk.Function.ReturnType,
					Name:       chunk.Function.Name,
				})
			}

		case ast.ChunkOther, ast.ChunkConditional:
			masked := lexer.MaskDirectives(chunk.Text, '#')
			for _, m := range globalRe.FindAllStringSubmatch(masked, -1) {
				q, _ := ast.ParseQualifier(m[1])
				for _, d := range scanner.SplitDeclarators(m[3]) {
					name, suffix, ok := scanner.Declarator(d)
					if !ok {
						continue
					}
					c.Globals = append(c.Globals, ast.Global{
						Qualifier:   q,
						Type:        m[2],
						Name:        name,
						ArraySuffix: suffix,
					})
				}
			}
		}
	}

	text := shader.Text()
	for _, tok := range lexer.Tokenize(text) {
		if tok.Kind == lexer.TokDirective {
			if m, ok := ParseDefine(tok.Value); ok {
				c.Macros = append(c.Macros, m)
			}
		}
	}
	for _, id := range lexer.Identifiers(text) {
		c.Identifiers[id] = true
	}

	return c.dedupe()
}

var defineRe = regexp.MustCompile(`^\s*#\s*define\s+([A-Za-z_]\w*)(\([^)]*\))?(.*)$`)

// ParseDefine parses a #define directive. Continuation lines are joined.
func ParseDefine(directive string) (*ast.Macro, bool) {
	line := strings.ReplaceAll(directive, "\\\n", " ")
	m := defineRe.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	macro := &ast.Macro{
		RawLine: directive,
		Name:    m[1],
		Value:   strings.TrimSpace(m[3]),
	}
	if m[2] != "" {
		macro.Params = []string{}
		for _, p := range strings.Split(m[2][1:len(m[2])-1], ",") {
			if p = strings.TrimSpace(p); p != "" {
				macro.Params = append(macro.Params, p)
			}
		}
	}
	return macro, true
}

// ----------------------------------------------------------------------------
// Merging
// ----------------------------------------------------------------------------

// Merge combines per-shader catalogs in batch order. Macros are kept per
// definition, since they are evaluated per shader.
func Merge(cats ...*Catalog) *Catalog {
	out := New()
	for _, c := range cats {
		out.Structs = append(out.Structs, c.Structs...)
		out.Macros = append(out.Macros, c.Macros...)
		out.Functions = append(out.Functions, c.Functions...)
		out.Globals = append(out.Globals, c.Globals...)
		out.Members = append(out.Members, c.Members...)
		for id := range c.Identifiers {
			out.Identifiers[id] = true
		}
	}
	return out.dedupe()
}

func (c *Catalog) dedupe() *Catalog {
	c.Structs = dedupe(c.Structs, func(s string) string { return s })
	c.Functions = dedupe(c.Functions, func(f FunctionSig) string { return f.Name })
	c.Globals = dedupe(c.Globals, func(g ast.Global) string { return g.Qualifier.String() + " " + g.Name })
	c.Members = dedupe(c.Members, func(m ast.Member) string { return m.Name })
	return c
}

// dedupe keeps the first element for each key, preserving order.
func dedupe[T any](items []T, key func(T) string) []T {
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, it := range items {
		k := key(it)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, it)
	}
	return out
}
