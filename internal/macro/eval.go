package macro

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/HugoDaniel/glslmin/internal/lexer"
)

// Kind is the GLSL type of a constant value.
type Kind uint8

const (
	Int Kind = iota
	Uint
	Float
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Uint:
		return "uint"
	case Float:
		return "float"
	default:
		return "unknown"
	}
}

// Value is the result of evaluating a constant expression.
type Value struct {
	Kind Kind
	I    int64   // Int and Uint
	F    float64 // Float
}

// Errors returned by Eval. They all mean "leave the macro alone".
var (
	ErrNotConstant    = errors.New("not a closed numeric expression")
	ErrDivisionByZero = errors.New("division by zero")
	ErrOverflow       = errors.New("integer overflow")
	ErrTypeMismatch   = errors.New("mixed signed and unsigned operands")
)

// Literal formats v as a GLSL literal of the same type. Negative values
// are parenthesized so the literal can replace an identifier anywhere.
func (v Value) Literal() (string, error) {
	var s string
	switch v.Kind {
	case Int:
		s = strconv.FormatInt(v.I, 10)
	case Uint:
		s = strconv.FormatInt(v.I, 10) + "u"
	case Float:
		if math.IsInf(v.F, 0) || math.IsNaN(v.F) {
			return "", fmt.Errorf("%w: %v", ErrOverflow, v.F)
		}
		f32 := float32(v.F)
		if math.IsInf(float64(f32), 0) {
			return "", fmt.Errorf("%w: %v does not fit a float", ErrOverflow, v.F)
		}
		s = strconv.FormatFloat(float64(f32), 'g', -1, 32)
		if !strings.ContainsAny(s, ".e") {
			s += ".0"
		}
	}
	if strings.HasPrefix(s, "-") {
		s = "(" + s + ")"
	}
	return s, nil
}

// Eval evaluates a closed arithmetic expression: numeric literals, unary
// + and -, binary + - * / %, and parentheses. Any identifier makes the
// expression non-constant.
func Eval(expr string) (Value, error) {
	p := &parser{}
	l := lexer.NewFragment(expr)
	for {
		tok := l.Next()
		if tok.Kind == lexer.TokEOF {
			break
		}
		if tok.Kind == lexer.TokWhitespace || tok.Kind == lexer.TokNewline {
			continue
		}
		p.tokens = append(p.tokens, tok)
	}
	if len(p.tokens) == 0 {
		return Value{}, ErrNotConstant
	}

	v, err := p.parseExpr()
	if err != nil {
		return Value{}, err
	}
	if p.pos != len(p.tokens) {
		return Value{}, fmt.Errorf("%w: unexpected %q", ErrNotConstant, p.tokens[p.pos].Value)
	}
	return v, nil
}

// ----------------------------------------------------------------------------
// Parser
// ----------------------------------------------------------------------------

type parser struct {
	tokens []lexer.Token
	pos    int
}

func (p *parser) peek() string {
	if p.pos < len(p.tokens) && p.tokens[p.pos].Kind == lexer.TokPunct {
		return p.tokens[p.pos].Value
	}
	return ""
}

func (p *parser) parseExpr() (Value, error) {
	left, err := p.parseTerm()
	if err != nil {
		return Value{}, err
	}
	for {
		op := p.peek()
		if op != "+" && op != "-" {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return Value{}, err
		}
		if left, err = binary(op, left, right); err != nil {
			return Value{}, err
		}
	}
}

func (p *parser) parseTerm() (Value, error) {
	left, err := p.parseUnary()
	if err != nil {
		return Value{}, err
	}
	for {
		op := p.peek()
		if op != "*" && op != "/" && op != "%" {
			return left, nil
		}
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return Value{}, err
		}
		if left, err = binary(op, left, right); err != nil {
			return Value{}, err
		}
	}
}

func (p *parser) parseUnary() (Value, error) {
	switch p.peek() {
	case "+":
		p.pos++
		return p.parseUnary()
	case "-":
		p.pos++
		v, err := p.parseUnary()
		if err != nil {
			return Value{}, err
		}
		switch v.Kind {
		case Float:
			v.F = -v.F
		case Uint:
			return Value{}, fmt.Errorf("%w: negated unsigned value", ErrNotConstant)
		default:
			v.I = -v.I
			if v.I > math.MaxInt32 {
				return Value{}, ErrOverflow
			}
		}
		return v, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Value, error) {
	if p.pos >= len(p.tokens) {
		return Value{}, fmt.Errorf("%w: unexpected end", ErrNotConstant)
	}
	tok := p.tokens[p.pos]
	p.pos++

	switch tok.Kind {
	case lexer.TokIntLiteral, lexer.TokFloatLiteral:
		return ParseLiteral(tok.Value)

	case lexer.TokPunct:
		if tok.Value != "(" {
			break
		}
		v, err := p.parseExpr()
		if err != nil {
			return Value{}, err
		}
		if p.peek() != ")" {
			return Value{}, fmt.Errorf("%w: missing ')'", ErrNotConstant)
		}
		p.pos++
		return v, nil
	}
	return Value{}, fmt.Errorf("%w: unexpected %q", ErrNotConstant, tok.Value)
}

// ParseLiteral parses a GLSL numeric literal.
func ParseLiteral(lit string) (Value, error) {
	s := lit
	lower := strings.ToLower(s)
	isHex := strings.HasPrefix(lower, "0x")

	if !isHex && (strings.ContainsAny(s, ".eE") || strings.HasSuffix(lower, "f")) {
		s = strings.TrimSuffix(strings.TrimSuffix(lower, "f"), "l")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: bad float %q", ErrNotConstant, lit)
		}
		return Value{Kind: Float, F: f}, nil
	}

	kind := Int
	if strings.HasSuffix(lower, "u") {
		kind = Uint
		s = s[:len(s)-1]
	}
	base := 10
	switch {
	case isHex:
		base, s = 16, s[2:]
	case len(s) > 1 && s[0] == '0':
		base, s = 8, s[1:]
	}
	n, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return Value{}, fmt.Errorf("%w: bad integer %q", ErrNotConstant, lit)
	}
	// GLSL int literals are 32 bits; a hex value above MaxInt32 wraps to a
	// negative int, which we leave alone.
	if kind == Int && n > math.MaxInt32 {
		return Value{}, fmt.Errorf("%w: %q", ErrOverflow, lit)
	}
	return Value{Kind: kind, I: int64(n)}, nil
}

// ----------------------------------------------------------------------------
// Arithmetic
// ----------------------------------------------------------------------------

func binary(op string, a, b Value) (Value, error) {
	if a.Kind == Float || b.Kind == Float {
		if op == "%" {
			return Value{}, fmt.Errorf("%w: %% on float operands", ErrNotConstant)
		}
		x, y := a.float(), b.float()
		switch op {
		case "+":
			return Value{Kind: Float, F: x + y}, nil
		case "-":
			return Value{Kind: Float, F: x - y}, nil
		case "*":
			return Value{Kind: Float, F: x * y}, nil
		default:
			if y == 0 {
				return Value{}, ErrDivisionByZero
			}
			return Value{Kind: Float, F: x / y}, nil
		}
	}

	if a.Kind != b.Kind {
		return Value{}, ErrTypeMismatch
	}

	x, y := a.I, b.I
	var r int64
	switch op {
	case "+":
		r = x + y
	case "-":
		r = x - y
	case "*":
		r = x * y
	case "/", "%":
		if y == 0 {
			return Value{}, ErrDivisionByZero
		}
		if op == "/" {
			r = x / y
		} else {
			r = x % y
		}
	}

	if a.Kind == Uint {
		if r < 0 || r > math.MaxUint32 {
			return Value{}, ErrOverflow
		}
	} else if r < math.MinInt32 || r > math.MaxInt32 {
		return Value{}, ErrOverflow
	}
	return Value{Kind: a.Kind, I: r}, nil
}

func (v Value) float() float64 {
	if v.Kind == Float {
		return v.F
	}
	return float64(v.I)
}
