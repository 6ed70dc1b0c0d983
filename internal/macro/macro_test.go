package macro

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/HugoDaniel/glslmin/internal/ast"
	"github.com/HugoDaniel/glslmin/internal/logger"
	"github.com/HugoDaniel/glslmin/internal/test"
)

func shader(text string) *ast.Shader {
	return &ast.Shader{Chunks: []ast.Chunk{{Kind: ast.ChunkOther, Text: text}}}
}

// ----------------------------------------------------------------------------
// Eval Tests
// ----------------------------------------------------------------------------

func TestEval(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"5", "5"},
		{"2 + 3 * 4", "14"},
		{"(2 + 3) * 4", "20"},
		{"7 / 2", "3"},
		{"-7 / 2", "(-3)"},
		{"7 % 3", "1"},
		{"-(1 + 2)", "(-3)"},
		{"0x1F", "31"},
		{"010", "8"},
		{"3u * 2u", "6u"},
		{"1.5 * 2.0", "3.0"},
		{"1.0 / 4.0", "0.25"},
		{"2 * 1.5", "3.0"},
		{"1e6", "1e+06"},
		{"2.0f + 0.5F", "2.5"},
		{"3.14159", "3.14159"},
		{"-0.5", "(-0.5)"},
		{"+4", "4"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			v, err := Eval(tt.expr)
			if err != nil {
				t.Fatalf("Eval(%q): %v", tt.expr, err)
			}
			lit, err := v.Literal()
			if err != nil {
				t.Fatalf("Literal: %v", err)
			}
			test.AssertEqual(t, lit, tt.want)
		})
	}
}

func TestEval_Errors(t *testing.T) {
	tests := []struct {
		expr string
		want error
	}{
		{"", ErrNotConstant},
		{"N * 2", ErrNotConstant},
		{"vec3(1.0)", ErrNotConstant},
		{"(1 + 2", ErrNotConstant},
		{"1 +", ErrNotConstant},
		{"1 2", ErrNotConstant},
		{"1.5 % 2.0", ErrNotConstant},
		{"1 / 0", ErrDivisionByZero},
		{"1.0 / 0.0", ErrDivisionByZero},
		{"5 % 0", ErrDivisionByZero},
		{"1u + 1", ErrTypeMismatch},
		{"2147483647 + 1", ErrOverflow},
		{"0xFFFFFFFF", ErrOverflow},
		{"1u - 2u", ErrOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := Eval(tt.expr)
			if !errors.Is(err, tt.want) {
				t.Errorf("Eval(%q) error = %v, want %v", tt.expr, err, tt.want)
			}
		})
	}
}

func TestLiteral_FloatOverflow(t *testing.T) {
	v, err := Eval("1e30 * 1e30")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if _, err := v.Literal(); !errors.Is(err, ErrOverflow) {
		t.Errorf("expected overflow, got %v", err)
	}
}

// ----------------------------------------------------------------------------
// Evaluate Tests
// ----------------------------------------------------------------------------

func TestEvaluate_ChainedMacros(t *testing.T) {
	s := shader("#define N 5\n#define M N*2\nfloat a[M];\nint b = N + M;\n")
	res := Evaluate(s)

	test.AssertEqual(t, len(res.Inlined), 2)
	test.AssertEqual(t, len(res.Unresolved), 0)
	test.AssertEqualWithDiff(t, s.Text(), "float a[10];\nint b = 5 + 10;\n")
}

func TestEvaluate_DefinedBeforeDependency(t *testing.T) {
	s := shader("#define B (A + 1)\n#define A 2\nint x = B;\n")
	Evaluate(s)
	test.AssertEqualWithDiff(t, s.Text(), "int x = 3;\n")
}

func TestEvaluate_LeavesIneligibleMacros(t *testing.T) {
	src := "#define SQ(x) ((x)*(x))\n" +
		"#define COLOR vec3(1.0)\n" +
		"#define FLAG\n" +
		"#define USED_IN_IF 1\n" +
		"#if USED_IN_IF\n" +
		"#define INNER 2\n" +
		"#endif\n" +
		"#define TWICE 1\n" +
		"#undef TWICE\n" +
		"#define TWICE 2\n" +
		"#define DEP COLOR\n"
	s := shader(src)
	res := Evaluate(s)

	test.AssertEqual(t, len(res.Inlined), 0)
	test.AssertEqualWithDiff(t, s.Text(), src)
}

func TestEvaluate_BoundaryAndMembers(t *testing.T) {
	s := shader("#define R 2.0\nfloat RR = R; float x = v.R + R;\n")
	Evaluate(s)
	test.AssertEqualWithDiff(t, s.Text(), "float RR = 2.0; float x = v.R + 2.0;\n")
}

func TestEvaluate_RewritesFunctionLikeBodies(t *testing.T) {
	s := shader("#define K 3\n#define MUL(x) ((x)*K)\nint y = MUL(2);\n")
	res := Evaluate(s)

	test.AssertEqual(t, len(res.Inlined), 1)
	test.AssertEqual(t, len(res.Unresolved), 1)
	test.AssertEqualWithDiff(t, s.Text(), "#define MUL(x) ((x)*3)\nint y = MUL(2);\n")
}

func TestEvaluate_AcrossChunks(t *testing.T) {
	s := &ast.Shader{Chunks: []ast.Chunk{
		{Kind: ast.ChunkOther, Text: "#define STEPS 4\n"},
		{Kind: ast.ChunkFunction, Function: &ast.Function{
			ReturnType: "void", Name: "main",
			Body: "{for(int i=0;i<STEPS;i++){}}",
		}},
	}}
	Evaluate(s)
	test.AssertEqualWithDiff(t, s.Text(), "void main(){for(int i=0;i<4;i++){}}")
}

func TestEvaluate_NegativeParenthesized(t *testing.T) {
	s := shader("#define OFF -1\nint x = 2-OFF;\n")
	Evaluate(s)
	test.AssertEqualWithDiff(t, s.Text(), "int x = 2-(-1);\n")
}

func TestEvaluate_CompoundValueBindsAsLiteral(t *testing.T) {
	orig := logger.Logger()
	t.Cleanup(func() { logger.SetLogger(orig) })
	var buf bytes.Buffer
	logger.SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	s := shader("#define A 1+2\n#define B (1+2)\nint a = A*3;\nint b = B*3;\n")
	Evaluate(s)
	test.AssertEqualWithDiff(t, s.Text(), "int a = 3*3;\nint b = 3*3;\n")

	logs := buf.String()
	if !strings.Contains(logs, "macro=A") {
		t.Errorf("expected a record for A, got %q", logs)
	}
	if strings.Contains(logs, "macro=B") {
		t.Errorf("parenthesized B should not be reported, got %q", logs)
	}
}

func TestIsOperand(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"5", true},
		{" 2.0 ", true},
		{"-1", true},
		{"(1 + 2)", true},
		{"((1) * (2))", true},
		{"1+2", false},
		{"N*2", false},
		{"(1) + (2)", false},
		{"(1", false},
	}
	for _, tt := range tests {
		test.AssertEqual(t, isOperand(tt.value), tt.want)
	}
}
