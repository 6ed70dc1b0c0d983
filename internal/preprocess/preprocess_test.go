package preprocess

import (
	"strings"
	"testing"

	"github.com/HugoDaniel/glslmin/internal/test"
)

func TestStripComments(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no comments", "float a = 1.0 / 2.0;", "float a = 1.0 / 2.0;"},
		{"line comment", "float a; // note\nfloat b;", "float a; \nfloat b;"},
		{"line comment at end", "float a; // note", "float a; "},
		{"block comment", "float/* x */a;", "float a;"},
		{"block keeps lines", "a;/* one\ntwo\nthree */b;", "a; \n\nb;"},
		{"unterminated block", "a; /* open", "a;  "},
		{"division", "x = a / b;", "x = a / b;"},
		{"slash at end", "x /", "x /"},
		{"comment markers inside comment", "a; // /* not a block\nb;", "a; \nb;"},
		{"directive", "#define K 2.0 // two\n", "#define K 2.0 \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			test.AssertEqual(t, StripComments(tt.input), tt.expected)
		})
	}
}

func TestNormalizeNewlines(t *testing.T) {
	test.AssertEqual(t, NormalizeNewlines("a\r\nb\rc\n"), "a\nb\nc\n")
	test.AssertEqual(t, NormalizeNewlines("plain\n"), "plain\n")
}

func TestProcessKeepsLineNumbers(t *testing.T) {
	src := "/* header\n * license\n */\r\nvoid main() {}\r\n"
	out := Process(src)
	if got := strings.Count(out, "\n"); got != 4 {
		t.Errorf("expected 4 newlines, got %d in %q", got, out)
	}
	lines := strings.Split(out, "\n")
	test.AssertEqual(t, lines[3], "void main() {}")
}
