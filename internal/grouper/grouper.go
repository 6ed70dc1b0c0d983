// Package grouper merges scattered global declarations that share a
// qualifier and a type.
//
//	uniform float a;          uniform float a,b,c[2];
//	uniform float b;    =>
//	uniform float c[2];
//
// Declarations are only merged within one scope. The top level is one
// scope, and every branch of every #if/#ifdef/#ifndef block (each #elif and
// #else starts a new branch) is its own scope, nested inside the scope that
// contains the block. The merged declaration takes the position of the
// first one; the others are deleted.
package grouper

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/HugoDaniel/glslmin/internal/ast"
	"github.com/HugoDaniel/glslmin/internal/builtins"
	"github.com/HugoDaniel/glslmin/internal/lexer"
	"github.com/HugoDaniel/glslmin/internal/scanner"
)

// Grouper merges declarations for one set of types.
type Grouper struct {
	declRe *regexp.Regexp
}

// New creates a grouper recognizing the given types.
func New(types *scanner.TypeSet) *Grouper {
	return &Grouper{
		declRe: regexp.MustCompile(`\b(uniform|attribute|varying)\s+(` + builtins.PrecisionPattern +
			types.Pattern() + `)\s+([^;{}#]+);`),
	}
}

var plainDeclarator = regexp.MustCompile(`^\s*([A-Za-z_]\w*)\s*(\[[^\]]*\])?\s*$`)

type decl struct {
	chunk      int
	start, end int
	names      []string
}

type group struct {
	qualifier string
	typ       string
	decls     []decl
}

type edit struct {
	start, end int
	text       string
}

// Group merges the declarations of one shader and returns how many
// declaration statements were removed.
func (g *Grouper) Group(shader *ast.Shader) int {
	var order []string
	groups := make(map[string]*group)
	path := &conditionalPath{}

	for i := range shader.Chunks {
		c := &shader.Chunks[i]
		switch c.Kind {
		case ast.ChunkOther, ast.ChunkConditional:
			g.collect(i, c.Text, path, func(key string, q, typ string, d decl) {
				gr, ok := groups[key]
				if !ok {
					gr = &group{qualifier: q, typ: typ}
					groups[key] = gr
					order = append(order, key)
				}
				gr.decls = append(gr.decls, d)
			})
		case ast.ChunkFunction, ast.ChunkPrototype:
			path.walk(c.Function.Body)
		case ast.ChunkStruct:
			path.walk(c.Struct.Body)
		}
	}

	edits := make(map[int][]edit)
	removed := 0
	for _, key := range order {
		gr := groups[key]
		if len(gr.decls) < 2 {
			continue
		}
		var names []string
		for _, d := range gr.decls {
			names = append(names, d.names...)
		}
		first := gr.decls[0]
		edits[first.chunk] = append(edits[first.chunk], edit{
			start: first.start,
			end:   first.end,
			text:  gr.qualifier + " " + gr.typ + " " + strings.Join(names, ",") + ";",
		})
		for _, d := range gr.decls[1:] {
			edits[d.chunk] = append(edits[d.chunk], edit{start: d.start, end: d.end})
			removed++
		}
	}

	for i, es := range edits {
		shader.Chunks[i].Text = apply(shader.Chunks[i].Text, es)
	}
	return removed
}

// collect finds the groupable declarations of one chunk and reports each
// with its scope key.
func (g *Grouper) collect(chunk int, text string, path *conditionalPath, emit func(key, q, typ string, d decl)) {
	masked := lexer.MaskDirectives(text, '#')
	directives := directiveTokens(text)
	next := 0

	for _, m := range g.declRe.FindAllStringSubmatchIndex(masked, -1) {
		for next < len(directives) && directives[next].Offset < m[0] {
			path.directive(directives[next].Value)
			next++
		}
		if !statementStart(masked, m[0]) {
			continue
		}

		names, ok := declarators(masked[m[6]:m[7]])
		if !ok {
			continue
		}
		q := masked[m[2]:m[3]]
		typ := strings.Join(strings.Fields(masked[m[4]:m[5]]), " ")
		emit(path.key()+"|"+q+"|"+typ, q, typ, decl{chunk: chunk, start: m[0], end: m[1], names: names})
	}

	for ; next < len(directives); next++ {
		path.directive(directives[next].Value)
	}
}

// statementStart reports whether the declaration at offset begins a
// statement. Anything else before the qualifier (layout(...), flat,
// invariant, ...) makes the declaration unique.
func statementStart(masked string, offset int) bool {
	for i := offset - 1; i >= 0; i-- {
		switch c := masked[i]; c {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			continue
		case ';', '{', '}', '#':
			return true
		default:
			return false
		}
	}
	return true
}

func declarators(list string) ([]string, bool) {
	var names []string
	for _, d := range scanner.SplitDeclarators(list) {
		m := plainDeclarator.FindStringSubmatch(d)
		if m == nil {
			return nil, false
		}
		names = append(names, m[1]+strings.Join(strings.Fields(m[2]), ""))
	}
	return names, true
}

func directiveTokens(text string) []lexer.Token {
	var out []lexer.Token
	for _, tok := range lexer.Tokenize(text) {
		if tok.Kind == lexer.TokDirective {
			out = append(out, tok)
		}
	}
	return out
}

// apply performs non-overlapping edits on text.
func apply(text string, edits []edit) string {
	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })
	var sb strings.Builder
	pos := 0
	for _, e := range edits {
		sb.WriteString(text[pos:e.start])
		sb.WriteString(e.text)
		pos = e.end
	}
	sb.WriteString(text[pos:])
	return sb.String()
}

// ----------------------------------------------------------------------------
// Conditional Paths
// ----------------------------------------------------------------------------

type frame struct {
	id     int
	branch int
}

// conditionalPath tracks the #if nesting at the current position.
type conditionalPath struct {
	stack  []frame
	nextID int
}

func (p *conditionalPath) directive(d string) {
	switch lexer.DirectiveName(d) {
	case "if", "ifdef", "ifndef":
		p.stack = append(p.stack, frame{id: p.nextID})
		p.nextID++
	case "elif", "else":
		if n := len(p.stack); n > 0 {
			p.stack[n-1].branch++
		}
	case "endif":
		if n := len(p.stack); n > 0 {
			p.stack = p.stack[:n-1]
		}
	}
}

// walk applies the directives found in text.
func (p *conditionalPath) walk(text string) {
	if !strings.Contains(text, "#") {
		return
	}
	for _, tok := range directiveTokens(text) {
		p.directive(tok.Value)
	}
}

func (p *conditionalPath) key() string {
	var sb strings.Builder
	for _, f := range p.stack {
		sb.WriteByte('/')
		sb.WriteString(strconv.Itoa(f.id))
		sb.WriteByte('.')
		sb.WriteString(strconv.Itoa(f.branch))
	}
	return sb.String()
}
