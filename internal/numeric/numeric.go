// Package numeric rewrites numeric literals into their shortest spelling
// with the same value and the same type.
//
// Rewrites, in order:
// - Hexadecimal and octal integers become decimal
// - Floats drop insignificant zeros (1.500 -> 1.5, 0.5 -> .5, 1.0 -> 1.)
// - Floats whose integral digits end in more than two zeros use an
//   exponent (1000000.0 -> 1e6)
//
// The rewrites operate on digit strings, never on binary floating point, so
// every value is preserved exactly. Preprocessor directive lines are never
// touched.
package numeric

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/HugoDaniel/glslmin/internal/lexer"
)

// ExponentThreshold is the length a trailing zero run must exceed before
// the exponent form is used.
const ExponentThreshold = 2

// Compact rewrites every numeric literal of text outside directive lines.
// It returns the new text and the number of literals that changed.
func Compact(text string) (string, int) {
	var sb strings.Builder
	sb.Grow(len(text))
	changed := 0
	for _, tok := range lexer.Tokenize(text) {
		switch tok.Kind {
		case lexer.TokIntLiteral, lexer.TokFloatLiteral:
			lit := CompactLiteral(tok.Value)
			if lit != tok.Value {
				changed++
			}
			sb.WriteString(lit)
		default:
			sb.WriteString(tok.Value)
		}
	}
	return sb.String(), changed
}

var (
	hexRe   = regexp.MustCompile(`^0[xX]([0-9a-fA-F]+)([uU]?)$`)
	octalRe = regexp.MustCompile(`^0([0-7]+)([uU]?)$`)
	floatRe = regexp.MustCompile(`^(\d*)(?:\.(\d*))?(?:[eE]([+-]?\d+))?(f|F|lf|LF)?$`)
)

// CompactLiteral returns the shortest spelling of one literal. Literals it
// does not understand are returned unchanged, as are results that would
// not be shorter.
func CompactLiteral(lit string) string {
	var out string
	switch {
	case hexRe.MatchString(lit):
		out = compactInt(hexRe.FindStringSubmatch(lit), 16)
	case octalRe.MatchString(lit):
		out = compactInt(octalRe.FindStringSubmatch(lit), 8)
	case isFloat(lit):
		out = compactFloat(lit)
	default:
		return lit
	}
	if out == "" || len(out) >= len(lit) {
		return lit
	}
	return out
}

func isFloat(lit string) bool {
	return strings.ContainsAny(lit, ".eEfF") && !strings.HasPrefix(lit, "0x") && !strings.HasPrefix(lit, "0X")
}

// compactInt converts a hex or octal match to decimal. A value that does
// not fit the literal's type (int, or uint with a u suffix) keeps its
// spelling, since the bit pattern is what the author meant.
func compactInt(m []string, base int) string {
	limit := uint64(math.MaxInt32)
	if m[2] != "" {
		limit = math.MaxUint32
	}
	v, err := strconv.ParseUint(m[1], base, 64)
	if err != nil || v > limit {
		return ""
	}
	return strconv.FormatUint(v, 10) + m[2]
}

func compactFloat(lit string) string {
	m := floatRe.FindStringSubmatch(lit)
	if m == nil || m[1]+m[2] == "" {
		return ""
	}
	intPart, fracPart, suffix := m[1], m[2], m[4]
	exp := 0
	if m[3] != "" {
		var err error
		if exp, err = strconv.Atoi(m[3]); err != nil {
			return ""
		}
	}

	// value = digits * 10^exp
	digits := strings.TrimLeft(intPart+fracPart, "0")
	exp -= len(fracPart)
	if digits == "" {
		return "0." + suffix
	}
	trimmed := strings.TrimRight(digits, "0")
	exp += len(digits) - len(trimmed)
	digits = trimmed

	if exp >= 0 {
		integral := digits + strings.Repeat("0", exp)
		if short, ok := ExponentForm(integral); ok {
			return short + suffix
		}
		return integral + "." + suffix
	}

	var plain string
	if point := len(digits) + exp; point > 0 {
		plain = digits[:point] + "." + digits[point:]
	} else {
		plain = "." + strings.Repeat("0", -point) + digits
	}
	if short := digits + "e" + strconv.Itoa(exp); len(short) < len(plain) {
		return short + suffix
	}
	return plain + suffix
}

// ExponentForm rewrites a run of integral digits whose trailing zero run
// exceeds ExponentThreshold as digits e N ("1000000" -> "1e6"). The result
// is a float literal; callers must only use it where a float is wanted.
func ExponentForm(integral string) (string, bool) {
	trimmed := strings.TrimRight(integral, "0")
	run := len(integral) - len(trimmed)
	if trimmed == "" || run <= ExponentThreshold {
		return integral, false
	}
	return trimmed + "e" + strconv.Itoa(run), true
}
