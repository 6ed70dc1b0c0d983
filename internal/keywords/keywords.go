// Package keywords replaces frequently used keywords, built-in function
// names and swizzles with short object-like macros:
//
//	#define A float
//	A x=A(1);A y=x;...
//
// A candidate is replaced only when the #define line plus the shortened
// occurrences take fewer bytes than the occurrences did. Occurrences are
// counted once on the input text; replacing one candidate never changes the
// cost of another.
package keywords

import (
	"sort"
	"strings"

	"github.com/HugoDaniel/glslmin/internal/builtins"
	"github.com/HugoDaniel/glslmin/internal/lexer"
	"github.com/HugoDaniel/glslmin/internal/renamer"
)

// Define is one synthesized macro.
type Define struct {
	Name        string
	Keyword     string
	Occurrences int
}

// Line returns the directive defining d, including its newline.
func (d Define) Line() string {
	return "#define " + d.Name + " " + d.Keyword + "\n"
}

// Savings is the number of bytes the define saves.
func (d Define) Savings() int {
	return d.Occurrences*len(d.Keyword) - len(d.Line()) - d.Occurrences*len(d.Name)
}

// typeNames are the built-in types worth abbreviating. The full type
// tables in builtins are patterns, not names.
var typeNames = []string{
	"void", "bool", "int", "uint", "float",
	"vec2", "vec3", "vec4", "ivec2", "ivec3", "ivec4",
	"uvec2", "uvec3", "uvec4", "bvec2", "bvec3", "bvec4",
	"mat2", "mat3", "mat4", "sampler2D", "samplerCube", "sampler3D",
}

// never lists keywords that must not be redefined: predefined macros,
// preprocessor operators and the entry point.
var never = map[string]bool{
	"defined": true, "__LINE__": true, "__FILE__": true, "__VERSION__": true,
	"GL_ES": true, "GL_FRAGMENT_PRECISION_HIGH": true, "main": true,
}

// Candidates returns every spelling the synthesizer may abbreviate, in a
// fixed order: types and keywords (sorted), built-in functions, swizzle
// permutations.
func Candidates() []string {
	var kws []string
	for kw := range builtins.Keywords {
		if !never[kw] {
			kws = append(kws, kw)
		}
	}
	sort.Strings(kws)

	seen := make(map[string]bool)
	var out []string
	for _, list := range [][]string{typeNames, kws, builtins.BuiltinFunctions, builtins.SwizzlePermutations()} {
		for _, c := range list {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// Synthesizer abbreviates candidates in shader text.
type Synthesizer struct {
	candidates []string
	reserved   map[string]bool
}

// New creates a synthesizer over Candidates.
func New() *Synthesizer {
	return &Synthesizer{candidates: Candidates(), reserved: builtins.Reserved()}
}

// Apply abbreviates the candidates worth abbreviating in text and returns
// the new text with the defines inserted after any leading #version and
// #extension lines. Directive lines are left as they are.
func (s *Synthesizer) Apply(text string) (string, []Define) {
	tokens := lexer.Tokenize(text)
	occurrences := make(map[string]int)
	for _, tok := range tokens {
		if tok.Kind == lexer.TokIdent {
			occurrences[tok.Value]++
		}
	}

	taken := make(map[string]bool)
	for _, id := range lexer.Identifiers(text) {
		taken[id] = true
	}
	pool := renamer.NewNamePool(renamer.MixedAlphabet, 0, taken, s.reserved)

	defs := s.choose(occurrences, pool)
	if len(defs) == 0 {
		return text, nil
	}

	names := make(map[string]string, len(defs))
	var block strings.Builder
	for _, d := range defs {
		names[d.Keyword] = d.Name
		block.WriteString(d.Line())
	}

	at, newline := insertionPoint(tokens)
	var sb strings.Builder
	sb.Grow(len(text) + block.Len())
	if at < 0 {
		sb.WriteString(block.String())
	}
	for i, tok := range tokens {
		if n, ok := names[tok.Value]; ok && tok.Kind == lexer.TokIdent {
			sb.WriteString(n)
		} else {
			sb.WriteString(tok.Value)
		}
		if i == at {
			if newline {
				sb.WriteByte('\n')
			}
			sb.WriteString(block.String())
		}
	}
	return sb.String(), defs
}

// choose picks the profitable candidates, largest usage first so the
// shortest names go where they save the most.
func (s *Synthesizer) choose(occurrences map[string]int, pool *renamer.NamePool) []Define {
	var ranked []Define
	for _, c := range s.candidates {
		if n := occurrences[c]; n > 0 {
			ranked = append(ranked, Define{Keyword: c, Occurrences: n})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Occurrences*len(ranked[i].Keyword) > ranked[j].Occurrences*len(ranked[j].Keyword)
	})

	var defs []Define
	for _, d := range ranked {
		name, ok := pool.Peek()
		if !ok {
			break
		}
		d.Name = name
		if d.Savings() <= 0 {
			continue
		}
		pool.Next()
		defs = append(defs, d)
	}
	return defs
}

// insertionPoint returns the index of the token after which the defines
// go (-1 for the very start), and whether a newline must be written first.
func insertionPoint(tokens []lexer.Token) (int, bool) {
	at, newline := -1, false
	for i, tok := range tokens {
		switch tok.Kind {
		case lexer.TokWhitespace:
		case lexer.TokNewline:
			if newline {
				at, newline = i, false
			}
		case lexer.TokDirective:
			switch lexer.DirectiveName(tok.Value) {
			case "version", "extension":
				at, newline = i, true
			default:
				return at, newline
			}
		default:
			return at, newline
		}
	}
	return at, newline
}
