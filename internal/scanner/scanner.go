// Package scanner partitions GLSL source into structural chunks.
//
// The scanner does not parse GLSL. It finds function headers with the
// pattern "known-type identifier (", locates bodies by counting braces, and
// recognizes struct definitions the same way. A function cannot be found
// without knowing that a valid type token precedes its name, so the scanner
// is built from a TypeSet holding the built-in types plus every user struct
// name in the batch.
//
// Scanning sits behind the Scanner interface so that a real tokenizer-based
// front end can replace it without touching later stages.
package scanner

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/HugoDaniel/glslmin/internal/ast"
	"github.com/HugoDaniel/glslmin/internal/builtins"
	"github.com/HugoDaniel/glslmin/internal/diagnostic"
	"github.com/HugoDaniel/glslmin/internal/lexer"
)

// Scanner splits a preprocessed shader into ordered chunks.
type Scanner interface {
	Scan(source string) ([]ast.Chunk, error)
}

// ----------------------------------------------------------------------------
// Type Set
// ----------------------------------------------------------------------------

// TypeSet is the set of type names that may start a declaration.
type TypeSet struct {
	pattern string
	structs []string
	exact   *regexp.Regexp
}

// NewTypeSet combines the built-in types with the given struct names.
func NewTypeSet(structNames []string) *TypeSet {
	structs := append([]string(nil), structNames...)
	sort.Strings(structs)

	parts := append([]string(nil), builtins.TypePatterns...)
	for _, name := range structs {
		parts = append(parts, regexp.QuoteMeta(name))
	}
	pattern := "(?:" + strings.Join(parts, "|") + ")"

	return &TypeSet{
		pattern: pattern,
		structs: structs,
		exact:   regexp.MustCompile(`^` + pattern + `$`),
	}
}

// Pattern returns a non-capturing regular expression matching any type.
func (ts *TypeSet) Pattern() string {
	return ts.pattern
}

// Contains reports whether name is a known type.
func (ts *TypeSet) Contains(name string) bool {
	return ts.exact.MatchString(name)
}

// Structs returns the user struct names, sorted.
func (ts *TypeSet) Structs() []string {
	return ts.structs
}

// ----------------------------------------------------------------------------
// Regex Scanner
// ----------------------------------------------------------------------------

var structRe = regexp.MustCompile(`\bstruct\s+([A-Za-z_]\w*)\s*\{`)

// directiveMask replaces directive lines before pattern matching so that no
// match starts inside one and no brace inside one is counted.
const directiveMask = '#'

// RegexScanner is the pattern-matching Scanner implementation.
type RegexScanner struct {
	types    *TypeSet
	headerRe *regexp.Regexp
	memberRe *regexp.Regexp
}

// New creates a scanner for the given type set.
func New(types *TypeSet) *RegexScanner {
	return &RegexScanner{
		types: types,
		headerRe: regexp.MustCompile(`\b(` + builtins.PrecisionPattern + types.Pattern() +
			`)\s+([A-Za-z_]\w*)\s*\(([^(){};#]*)\)`),
		memberRe: regexp.MustCompile(`(?s)^\s*` + builtins.PrecisionPattern + `(` + types.Pattern() + `)\s+(.+)$`),
	}
}

type span struct {
	start, end int
	chunk      ast.Chunk
}

// Scan implements Scanner.
func (s *RegexScanner) Scan(source string) ([]ast.Chunk, error) {
	dl := diagnostic.NewDiagnosticList(source)
	masked := lexer.MaskDirectives(source, directiveMask)

	var spans []span
	pos := 0
	for pos < len(masked) {
		fm := s.headerRe.FindStringSubmatchIndex(masked[pos:])
		sm := structRe.FindStringSubmatchIndex(masked[pos:])
		if fm == nil && sm == nil {
			break
		}

		var sp span
		var ok bool
		if sm != nil && (fm == nil || sm[0] < fm[0]) {
			sp, ok = s.scanStruct(source, masked, pos, sm, dl)
		} else {
			sp, ok = s.scanFunction(source, masked, pos, fm, dl)
		}
		if !ok {
			return nil, dl.Err()
		}
		spans = append(spans, sp)
		pos = sp.end
	}

	return assemble(source, spans), nil
}

func (s *RegexScanner) scanStruct(source, masked string, base int, m []int, dl *diagnostic.DiagnosticList) (span, bool) {
	start := base + m[0]
	name := masked[base+m[2] : base+m[3]]
	open := base + m[1] - 1

	closing, ok := MatchBrace(masked, open)
	if !ok {
		dl.AddError(open, diagnostic.CodeUnbalancedBraces, fmt.Sprintf("unbalanced braces in struct %q", name))
		return span{}, false
	}
	semi := strings.IndexByte(masked[closing+1:], ';')
	if semi < 0 {
		dl.AddError(closing, diagnostic.CodeMissingSemicolon, fmt.Sprintf("struct %q is not terminated by ';'", name))
		return span{}, false
	}
	end := closing + 1 + semi + 1

	st := &ast.Struct{
		Name: name,
		Body: source[open+1 : closing],
		Tail: source[closing+1 : end],
	}
	st.Members = s.ParseMembers(st.Body)

	return span{start: start, end: end, chunk: ast.Chunk{Kind: ast.ChunkStruct, Offset: start, Struct: st}}, true
}

func (s *RegexScanner) scanFunction(source, masked string, base int, m []int, dl *diagnostic.DiagnosticList) (span, bool) {
	start := base + m[0]
	fn := &ast.Function{
		ReturnType: strings.Join(strings.Fields(source[base+m[2]:base+m[3]]), " "),
		Name:       source[base+m[4] : base+m[5]],
		Arguments:  source[base+m[6] : base+m[7]],
	}

	next := base + m[1]
	for next < len(masked) && isSpace(masked[next]) {
		next++
	}

	if next >= len(masked) {
		dl.AddError(start, diagnostic.CodeMissingBody, fmt.Sprintf("function %q has no body before end of input", fn.Name))
		return span{}, false
	}

	switch masked[next] {
	case ';':
		fn.Body = ";"
		return span{start: start, end: next + 1, chunk: ast.Chunk{Kind: ast.ChunkPrototype, Offset: start, Function: fn}}, true

	case '{':
		closing, ok := MatchBrace(masked, next)
		if !ok {
			dl.AddError(next, diagnostic.CodeUnbalancedBraces, fmt.Sprintf("unbalanced braces in body of function %q", fn.Name))
			return span{}, false
		}
		fn.Body = source[next : closing+1]
		return span{start: start, end: closing + 1, chunk: ast.Chunk{Kind: ast.ChunkFunction, Offset: start, Function: fn}}, true
	}

	dl.AddError(next, diagnostic.CodeUnexpectedToken, fmt.Sprintf("unexpected %q after header of function %q", masked[next], fn.Name))
	return span{}, false
}

// ParseMembers extracts member declarations from a struct body.
func (s *RegexScanner) ParseMembers(body string) []ast.Member {
	var members []ast.Member
	for _, stmt := range strings.Split(body, ";") {
		m := s.memberRe.FindStringSubmatch(stmt)
		if m == nil {
			continue
		}
		typ := m[1]
		for _, d := range SplitDeclarators(m[2]) {
			if name, _, ok := Declarator(d); ok {
				members = append(members, ast.Member{Type: typ, Name: name})
			}
		}
	}
	return members
}

// assemble turns the function/struct spans into a complete chunk list,
// classifying the gaps between them as residual text or conditional blocks.
func assemble(source string, spans []span) []ast.Chunk {
	conds := ConditionalRanges(source)
	var chunks []ast.Chunk

	gap := func(a, b int) {
		for _, r := range conds {
			if r[0] < a || r[1] > b {
				continue
			}
			if r[0] > a {
				chunks = append(chunks, ast.Chunk{Kind: ast.ChunkOther, Offset: a, Text: source[a:r[0]]})
			}
			chunks = append(chunks, ast.Chunk{Kind: ast.ChunkConditional, Offset: r[0], Text: source[r[0]:r[1]]})
			a = r[1]
		}
		if b > a {
			chunks = append(chunks, ast.Chunk{Kind: ast.ChunkOther, Offset: a, Text: source[a:b]})
		}
	}

	pos := 0
	for _, sp := range spans {
		gap(pos, sp.start)
		chunks = append(chunks, sp.chunk)
		pos = sp.end
	}
	gap(pos, len(source))

	return chunks
}

// ----------------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------------

// MatchBrace returns the offset of the '}' closing the '{' at open. Braces
// are counted, not parsed: GLSL has no string or character literals, so
// any brace in code is structural.
func MatchBrace(text string, open int) (int, bool) {
	depth := 1
	for i := open + 1; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// ConditionalRanges returns the [start, end) byte ranges of every outermost
// #if/#ifdef/#ifndef ... #endif block. The end includes the newline after
// #endif. An unterminated block is ignored.
func ConditionalRanges(source string) [][2]int {
	var ranges [][2]int
	depth, start := 0, 0
	for _, tok := range lexer.Tokenize(source) {
		if tok.Kind != lexer.TokDirective {
			continue
		}
		switch lexer.DirectiveName(tok.Value) {
		case "if", "ifdef", "ifndef":
			if depth == 0 {
				start = tok.Offset
			}
			depth++
		case "endif":
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				end := tok.Offset + len(tok.Value)
				if end < len(source) && source[end] == '\n' {
					end++
				}
				ranges = append(ranges, [2]int{start, end})
			}
		}
	}
	return ranges
}

// SplitDeclarators splits a declarator list at top-level commas, so that
// "a = f(x, y), b[2]" yields "a = f(x, y)" and " b[2]".
func SplitDeclarators(list string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(list); i++ {
		switch list[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, list[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, list[start:])
}

var declaratorRe = regexp.MustCompile(`^\s*([A-Za-z_]\w*)\s*(\[[^\]]*\])?`)

// Declarator extracts the name and array suffix from one declarator
// ("name", "name[4]", "name = init").
func Declarator(d string) (name, arraySuffix string, ok bool) {
	m := declaratorRe.FindStringSubmatch(d)
	if m == nil {
		return "", "", false
	}
	return m[1], strings.Join(strings.Fields(m[2]), ""), true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}
