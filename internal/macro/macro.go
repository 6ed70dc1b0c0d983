// Package macro inlines object-like macros whose values are constant
// arithmetic expressions.
//
// Evaluation runs per shader. Each candidate is evaluated on its own first;
// macros that fail are retried with the already-resolved names substituted
// into their value, until a pass makes no progress. A resolved macro has
// its #define line deleted and every use replaced by the computed literal.
// Anything else is left exactly as written.
//
// A use binds to the computed value, not to the text: with "#define A 1+2",
// A*3 becomes 3*3. Values that are not a single operand are logged.
package macro

import (
	"strings"

	"github.com/HugoDaniel/glslmin/internal/ast"
	"github.com/HugoDaniel/glslmin/internal/catalog"
	"github.com/HugoDaniel/glslmin/internal/lexer"
	"github.com/HugoDaniel/glslmin/internal/logger"
)

// Result reports what Evaluate did to one shader.
type Result struct {
	Inlined    []*ast.Macro // Resolved and removed, in definition order
	Unresolved []*ast.Macro // Every #define still present afterwards
}

// Evaluate resolves and inlines the eligible macros of a shader.
func Evaluate(shader *ast.Shader) *Result {
	text := shader.Text()
	macros, candidates := analyze(text)

	resolved := resolve(candidates)

	res := &Result{}
	for _, m := range macros {
		if m.IsResolved {
			res.Inlined = append(res.Inlined, m)
		} else {
			res.Unresolved = append(res.Unresolved, m)
		}
	}
	if len(resolved) == 0 {
		return res
	}

	shader.Transform(func(s string) string {
		return Inline(s, resolved)
	})
	return res
}

// analyze parses every #define of text and returns them together with the
// subset that may be inlined: object-like, with a value, defined exactly
// once, outside any conditional block, and never named by another
// directive (#ifdef, #if defined(...), #undef, ...).
func analyze(text string) (all, candidates []*ast.Macro) {
	count := make(map[string]int)
	conditional := make(map[string]bool)
	inDirective := make(map[string]bool)

	depth := 0
	for _, tok := range lexer.Tokenize(text) {
		if tok.Kind != lexer.TokDirective {
			continue
		}
		name := lexer.DirectiveName(tok.Value)
		switch name {
		case "define":
			m, ok := catalog.ParseDefine(tok.Value)
			if !ok {
				continue
			}
			all = append(all, m)
			count[m.Name]++
			if depth > 0 {
				conditional[m.Name] = true
			}
			continue
		case "if", "ifdef", "ifndef":
			depth++
		case "endif":
			if depth > 0 {
				depth--
			}
		}
		body, _ := lexer.DirectiveBody(tok.Value)
		for _, id := range lexer.Identifiers(body) {
			inDirective[id] = true
		}
	}

	for _, m := range all {
		if m.IsFunctionLike() || m.Value == "" {
			continue
		}
		if count[m.Name] != 1 || conditional[m.Name] || inDirective[m.Name] {
			continue
		}
		candidates = append(candidates, m)
	}
	return all, candidates
}

// resolve evaluates candidates to a fixpoint and returns name -> literal.
func resolve(candidates []*ast.Macro) map[string]string {
	resolved := make(map[string]string)
	for progress := true; progress; {
		progress = false
		for _, m := range candidates {
			if m.IsResolved {
				continue
			}
			expr := m.Value
			if len(resolved) > 0 {
				expr = Inline(expr, resolved)
			}
			v, err := Eval(expr)
			if err != nil {
				continue
			}
			lit, err := v.Literal()
			if err != nil {
				continue
			}
			m.Resolved, m.IsResolved = lit, true
			resolved[m.Name] = lit
			progress = true
			if !isOperand(m.Value) {
				logger.Logger().Debug("macro folded from an unparenthesized expression",
					"macro", m.Name, "value", m.Value, "literal", lit)
			}
		}
	}
	return resolved
}

// isOperand reports whether a macro value is one token, a signed token or
// a fully parenthesized expression, so textual expansion and the folded
// literal agree in every context.
func isOperand(value string) bool {
	var toks []string
	for _, tok := range lexer.Tokenize(value) {
		if tok.Kind != lexer.TokWhitespace && tok.Kind != lexer.TokNewline {
			toks = append(toks, tok.Value)
		}
	}
	switch {
	case len(toks) == 1:
		return true
	case len(toks) == 2 && (toks[0] == "-" || toks[0] == "+"):
		return true
	case len(toks) < 3 || toks[0] != "(":
		return false
	}
	depth := 0
	for i, tok := range toks {
		switch tok {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 && i < len(toks)-1 {
				return false
			}
		}
	}
	return depth == 0
}

// Inline deletes the #define lines of the resolved macros from text and
// replaces every other occurrence of their names with the literal values.
// Member accesses are left alone.
func Inline(text string, resolved map[string]string) string {
	if strings.Contains(text, "#") {
		text = deleteDefines(text, resolved)
	}
	return lexer.RewriteIdents(text, func(name string, member bool) string {
		if lit, ok := resolved[name]; ok && !member {
			return lit
		}
		return name
	})
}

func deleteDefines(text string, resolved map[string]string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	skipNewline := false
	for _, tok := range lexer.Tokenize(text) {
		if skipNewline {
			skipNewline = false
			if tok.Kind == lexer.TokNewline {
				continue
			}
		}
		if tok.Kind == lexer.TokDirective && lexer.DirectiveName(tok.Value) == "define" {
			if m, ok := catalog.ParseDefine(tok.Value); ok && !m.IsFunctionLike() {
				if _, ok := resolved[m.Name]; ok {
					skipNewline = true
					continue
				}
			}
		}
		sb.WriteString(tok.Value)
	}
	return sb.String()
}
