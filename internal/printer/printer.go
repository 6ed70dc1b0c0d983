// Package printer outputs a shader as the body of a string literal.
//
// The printer can operate in two modes:
// - Minified: whitespace is reduced to what the tokens need
// - Plain: the text is kept, apart from blank lines
//
// In both modes every line break is written as the two-character escape
// \n, and backslashes and double quotes are escaped, so the result can be
// pasted between double quotes in host code.
package printer

import (
	"regexp"
	"strings"

	"github.com/HugoDaniel/glslmin/internal/lexer"
)

// Options controls printer output.
type Options struct {
	// MinifyWhitespace removes unnecessary whitespace
	MinifyWhitespace bool
}

// Printer outputs shader text.
type Printer struct {
	options Options
}

// New creates a new printer.
func New(options Options) *Printer {
	return &Printer{options: options}
}

// Print outputs the shader as an escaped string literal body.
func (p *Printer) Print(text string) string {
	if p.options.MinifyWhitespace {
		text = Compact(text)
	} else {
		text = collapseBlankLines(text)
	}
	return Escape(text)
}

// ----------------------------------------------------------------------------
// Whitespace
// ----------------------------------------------------------------------------

// Compact removes every space the tokens do not need. Directive lines stay
// on lines of their own; everything else is joined into as few lines as
// possible. A line break only precedes a directive when code comes before
// it.
func Compact(text string) string {
	var sb strings.Builder
	var code strings.Builder
	sb.Grow(len(text))

	flush := func() {
		sb.WriteString(squeeze(code.String()))
		code.Reset()
	}

	for _, tok := range lexer.Tokenize(text) {
		if tok.Kind != lexer.TokDirective {
			code.WriteString(tok.Value)
			continue
		}
		flush()
		if s := sb.String(); s != "" && s[len(s)-1] != '\n' {
			sb.WriteByte('\n')
		}
		sb.WriteString(directive(tok.Value))
		sb.WriteByte('\n')
	}
	flush()
	return sb.String()
}

// tight are the characters next to which whitespace is dropped.
const tight = "{}=*,+/><&|[]()-!;"

// squeeze compacts a run of code without directives.
func squeeze(code string) string {
	var sb strings.Builder
	sb.Grow(len(code))

	l := lexer.NewFragment(code)
	pending := false
	for {
		tok := l.Next()
		switch tok.Kind {
		case lexer.TokEOF:
			return sb.String()
		case lexer.TokWhitespace, lexer.TokNewline:
			pending = true
			continue
		}
		if pending && sb.Len() > 0 {
			s := sb.String()
			if needsSpace(s[len(s)-1], tok.Value[0]) {
				sb.WriteByte(' ')
			}
		}
		pending = false
		sb.WriteString(tok.Value)
	}
}

// needsSpace reports whether whitespace between two characters must be
// kept as one space.
func needsSpace(prev, next byte) bool {
	if fuses(prev, next) {
		return true
	}
	return !strings.ContainsRune(tight, rune(prev)) && !strings.ContainsRune(tight, rune(next))
}

// fuses reports whether two operator characters written together would
// read as a different token ("- -" as "--", "/ *" as a comment, ...).
func fuses(prev, next byte) bool {
	switch next {
	case '=':
		return strings.IndexByte("+-*/%<>=!&|^", prev) >= 0
	case '+', '-', '<', '>', '&', '|', '^':
		return prev == next
	case '/', '*':
		return prev == '/'
	}
	return false
}

var spaceRun = regexp.MustCompile(`[ \t\f\v\r]+`)

// directive joins continuation lines and collapses whitespace runs. Spaces
// next to punctuation are kept: "#define A (x)" and "#define A(x)" differ.
func directive(d string) string {
	d = strings.ReplaceAll(d, "\\\n", " ")
	return spaceRun.ReplaceAllString(strings.TrimSpace(d), " ")
}

var blankLines = regexp.MustCompile(`\n(?:[ \t]*\n)+`)

func collapseBlankLines(text string) string {
	return blankLines.ReplaceAllString(text, "\n")
}

// ----------------------------------------------------------------------------
// Escaping
// ----------------------------------------------------------------------------

var escaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// Escape makes text safe to embed between double quotes: line breaks
// become the two characters \n.
func Escape(text string) string {
	return escaper.Replace(text)
}
