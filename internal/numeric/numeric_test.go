package numeric

import (
	"testing"

	"github.com/HugoDaniel/glslmin/internal/test"
)

func TestCompactLiteral(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// Integers
		{"0x1F", "31"},
		{"0X10", "16"},
		{"0x1Fu", "31u"},
		{"0xFFFFFFFFu", "0xFFFFFFFFu"},
		{"0x7FFFFFFF", "2147483647"},
		{"0xFFFFFFFF", "0xFFFFFFFF"},
		{"010", "8"},
		{"00", "0"},
		{"0", "0"},
		{"1000000", "1000000"},
		{"42u", "42u"},

		// Floats
		{"1.500", "1.5"},
		{"0.5", ".5"},
		{"1.0", "1."},
		{"0.0", "0."},
		{"0.0f", "0.f"},
		{"00.25", ".25"},
		{"100.0", "100."},
		{"1000.0", "1e3"},
		{"1000000.", "1e6"},
		{"1000000.0", "1e6"},
		{"2500000.0f", "25e5f"},
		{"1.5e3", "1.5e3"},
		{"2.5e3", "2.5e3"},
		{"1.5e10", "15e9"},
		{"2.5e-1", ".25"},
		{"1e+03", "1e3"},
		{"0.0001", "1e-4"},
		{"0.001", ".001"},
		{"3.14159", "3.14159"},
		{"1.5lf", "1.5lf"},
		{"5f", "5f"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			test.AssertEqual(t, CompactLiteral(tt.input), tt.expected)
		})
	}
}

func TestExponentForm(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		{"1000000", "1e6", true},
		{"1200", "12e2", false},
		{"12000", "12e3", true},
		{"100", "100", false},
		{"0", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, ok := ExponentForm(tt.input)
			test.AssertEqual(t, ok, tt.ok)
			if ok {
				test.AssertEqual(t, result, tt.expected)
			}
		})
	}
}

func TestCompact(t *testing.T) {
	input := "float a = 0.5 * 1.500 + float(0x1F);\nvec2 v = vec2(1.0, 1000000.0);\n"
	expected := "float a = .5 * 1.5 + float(31);\nvec2 v = vec2(1., 1e6);\n"

	result, changed := Compact(input)
	test.AssertEqualWithDiff(t, result, expected)
	test.AssertEqual(t, changed, 5)
}

func TestCompact_LeavesDirectives(t *testing.T) {
	input := "#version 300 es\n#define SCALE 0.500\n#if VALUE > 0x10\nfloat a = 0.500;\n#endif\n"
	expected := "#version 300 es\n#define SCALE 0.500\n#if VALUE > 0x10\nfloat a = .5;\n#endif\n"

	result, _ := Compact(input)
	test.AssertEqualWithDiff(t, result, expected)
}

func TestCompact_IdentifiersWithDigits(t *testing.T) {
	input := "vec2 p0 = vec2(1.0); mat3x3 m;"
	expected := "vec2 p0 = vec2(1.); mat3x3 m;"

	result, _ := Compact(input)
	test.AssertEqualWithDiff(t, result, expected)
}
