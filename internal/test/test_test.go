package test

import "testing"

func TestDiff(t *testing.T) {
	got := Diff("a\nb\nc", "a\nB\nc\nd")
	expected := "--- expected\n+++ actual\n" +
		" a\n" +
		"-b\n" +
		"+B\n" +
		" c\n" +
		"+d\n"
	AssertEqual(t, got, expected)
}
