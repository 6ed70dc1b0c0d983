// Package lexer provides tokenization for GLSL source code.
//
// The lexer is deliberately shallow. It splits source into:
// - Identifiers
// - Numeric literals (int, float, hex, octal, suffixed)
// - Single-character punctuation
// - Whitespace and newlines (kept, so text can be reassembled exactly)
// - Preprocessor directives (one token per logical line)
//
// Comments are expected to be stripped beforehand by the preprocess package.
// Concatenating the Value of every token reproduces the input byte for byte.
package lexer

import "strings"

// ----------------------------------------------------------------------------
// Token Types
// ----------------------------------------------------------------------------

// TokenKind represents the type of a token.
type TokenKind uint8

const (
	TokEOF TokenKind = iota

	// Literals
	TokIntLiteral
	TokFloatLiteral

	// Identifiers (keywords included; GLSL keywords are not special here)
	TokIdent

	// Layout
	TokWhitespace
	TokNewline

	// Everything else
	TokPunct
	TokDirective
)

// String returns the string representation of a token kind.
func (k TokenKind) String() string {
	if int(k) < len(tokenNames) {
		return tokenNames[k]
	}
	return "unknown"
}

var tokenNames = [...]string{
	TokEOF:          "EOF",
	TokIntLiteral:   "int",
	TokFloatLiteral: "float",
	TokIdent:        "identifier",
	TokWhitespace:   "whitespace",
	TokNewline:      "newline",
	TokPunct:        "punctuation",
	TokDirective:    "directive",
}

// Token is a single lexical token.
type Token struct {
	Kind   TokenKind
	Value  string
	Offset int // Byte offset of the first character
}

// ----------------------------------------------------------------------------
// Lexer
// ----------------------------------------------------------------------------

// Lexer tokenizes GLSL source.
type Lexer struct {
	source     string
	pos        int
	lineStart  bool
	directives bool
}

// New creates a lexer that recognizes preprocessor directives.
func New(source string) *Lexer {
	return &Lexer{source: source, lineStart: true, directives: true}
}

// NewFragment creates a lexer for a piece of a directive (a macro body),
// where '#' is ordinary punctuation.
func NewFragment(source string) *Lexer {
	return &Lexer{source: source}
}

// Next returns the next token, or a TokEOF token at end of input.
func (l *Lexer) Next() Token {
	if l.pos >= len(l.source) {
		return Token{Kind: TokEOF, Offset: l.pos}
	}

	start := l.pos
	c := l.source[l.pos]

	switch {
	case c == '\n':
		l.pos++
		l.lineStart = true
		return Token{Kind: TokNewline, Value: "\n", Offset: start}

	case isSpace(c):
		for l.pos < len(l.source) && isSpace(l.source[l.pos]) {
			l.pos++
		}
		return Token{Kind: TokWhitespace, Value: l.source[start:l.pos], Offset: start}

	case c == '#' && l.directives && l.lineStart:
		l.pos = directiveEnd(l.source, l.pos)
		return Token{Kind: TokDirective, Value: l.source[start:l.pos], Offset: start}

	case isIdentStart(c):
		l.lineStart = false
		for l.pos < len(l.source) && isIdentPart(l.source[l.pos]) {
			l.pos++
		}
		return Token{Kind: TokIdent, Value: l.source[start:l.pos], Offset: start}

	case isDigit(c) || (c == '.' && l.pos+1 < len(l.source) && isDigit(l.source[l.pos+1])):
		l.lineStart = false
		kind := l.scanNumber()
		return Token{Kind: kind, Value: l.source[start:l.pos], Offset: start}
	}

	l.lineStart = false
	l.pos++
	return Token{Kind: TokPunct, Value: l.source[start:l.pos], Offset: start}
}

// scanNumber consumes a numeric literal starting at l.pos.
func (l *Lexer) scanNumber() TokenKind {
	src := l.source
	kind := TokIntLiteral

	if src[l.pos] == '0' && l.pos+1 < len(src) && (src[l.pos+1] == 'x' || src[l.pos+1] == 'X') {
		l.pos += 2
		for l.pos < len(src) && isHexDigit(src[l.pos]) {
			l.pos++
		}
	} else {
		for l.pos < len(src) && isDigit(src[l.pos]) {
			l.pos++
		}
		if l.pos < len(src) && src[l.pos] == '.' {
			kind = TokFloatLiteral
			l.pos++
			for l.pos < len(src) && isDigit(src[l.pos]) {
				l.pos++
			}
		}
		if l.pos < len(src) && (src[l.pos] == 'e' || src[l.pos] == 'E') {
			p := l.pos + 1
			if p < len(src) && (src[p] == '+' || src[p] == '-') {
				p++
			}
			if p < len(src) && isDigit(src[p]) {
				kind = TokFloatLiteral
				l.pos = p
				for l.pos < len(src) && isDigit(src[l.pos]) {
					l.pos++
				}
			}
		}
	}

	// Suffixes (u, f, lf) and any trailing junk stay part of the literal so
	// that it is never mistaken for an identifier.
	for l.pos < len(src) && isIdentPart(src[l.pos]) {
		if c := src[l.pos]; c == 'f' || c == 'F' {
			kind = TokFloatLiteral
		}
		l.pos++
	}
	return kind
}

// directiveEnd returns the offset just past a directive starting at pos,
// following backslash line continuations. The trailing newline is not
// included.
func directiveEnd(src string, pos int) int {
	for pos < len(src) {
		nl := strings.IndexByte(src[pos:], '\n')
		if nl < 0 {
			return len(src)
		}
		end := pos + nl
		line := strings.TrimRight(src[pos:end], " \t\r")
		if !strings.HasSuffix(line, "\\") {
			return end
		}
		pos = end + 1
	}
	return len(src)
}

// Tokenize returns every token of source, excluding the final EOF.
func Tokenize(source string) []Token {
	l := New(source)
	var tokens []Token
	for {
		tok := l.Next()
		if tok.Kind == TokEOF {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

// ----------------------------------------------------------------------------
// Directives
// ----------------------------------------------------------------------------

// DirectiveName returns the name of a directive token ("define", "ifdef",
// "version", ...), or "" for a null directive.
func DirectiveName(directive string) string {
	s := strings.TrimLeft(directive, " \t")
	s = strings.TrimPrefix(s, "#")
	s = strings.TrimLeft(s, " \t")
	i := 0
	for i < len(s) && isIdentPart(s[i]) {
		i++
	}
	return s[:i]
}

// DirectiveBody returns the text following the directive name, and the
// offset at which it starts within directive.
func DirectiveBody(directive string) (string, int) {
	name := DirectiveName(directive)
	if name == "" {
		return "", len(directive)
	}
	i := strings.Index(directive, name) + len(name)
	return directive[i:], i
}

// IsConditional reports whether a directive name opens, continues or
// closes a conditional block.
func IsConditional(name string) bool {
	switch name {
	case "if", "ifdef", "ifndef", "elif", "else", "endif":
		return true
	}
	return false
}

// MaskDirectives replaces every character of every directive line with
// mask, leaving newlines and all other text in place. Offsets into the
// result match offsets into source.
func MaskDirectives(source string, mask byte) string {
	var sb strings.Builder
	sb.Grow(len(source))
	for _, tok := range Tokenize(source) {
		if tok.Kind != TokDirective {
			sb.WriteString(tok.Value)
			continue
		}
		for i := 0; i < len(tok.Value); i++ {
			if tok.Value[i] == '\n' {
				sb.WriteByte('\n')
			} else {
				sb.WriteByte(mask)
			}
		}
	}
	return sb.String()
}

// ----------------------------------------------------------------------------
// Identifier Rewriting
// ----------------------------------------------------------------------------

// IdentFunc returns the replacement for an identifier. member is true when
// the identifier follows a '.' (struct member access or swizzle).
type IdentFunc func(name string, member bool) string

// RewriteIdents calls fn for every identifier in source and reassembles
// the text with the returned replacements. Identifiers inside #define
// bodies are rewritten too; every other directive is left untouched.
func RewriteIdents(source string, fn IdentFunc) string {
	return rewrite(New(source), fn)
}

func rewrite(l *Lexer, fn IdentFunc) string {
	var sb strings.Builder
	sb.Grow(len(l.source))
	prev := ""
	for {
		tok := l.Next()
		switch tok.Kind {
		case TokEOF:
			return sb.String()
		case TokWhitespace, TokNewline:
			sb.WriteString(tok.Value)
			continue
		case TokIdent:
			sb.WriteString(fn(tok.Value, prev == "."))
		case TokDirective:
			if DirectiveName(tok.Value) == "define" {
				body, at := DirectiveBody(tok.Value)
				sb.WriteString(tok.Value[:at])
				sb.WriteString(rewrite(NewFragment(body), fn))
			} else {
				sb.WriteString(tok.Value)
			}
		default:
			sb.WriteString(tok.Value)
		}
		prev = tok.Value
	}
}

// Identifiers returns every identifier occurring in source, including those
// inside directives, in order of appearance (with repeats).
func Identifiers(source string) []string {
	var out []string
	collect(New(source), &out)
	return out
}

func collect(l *Lexer, out *[]string) {
	for {
		tok := l.Next()
		switch tok.Kind {
		case TokEOF:
			return
		case TokIdent:
			*out = append(*out, tok.Value)
		case TokDirective:
			collect(NewFragment(tok.Value), out)
		}
	}
}

// ----------------------------------------------------------------------------
// Character Classes
// ----------------------------------------------------------------------------

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
