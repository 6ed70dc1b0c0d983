// Package diagnostic provides error reporting for the shader minifier.
//
// Diagnostics carry a severity, a code, a message and a 1-based
// line/column range into the comment-stripped shader text. A DiagnosticList
// collects them while the structural scanner runs; the first error-level
// diagnostic aborts the batch.
package diagnostic

import (
	"fmt"
	"sort"
	"strings"
)

// Severity represents the severity level of a diagnostic.
type Severity uint8

const (
	// Error aborts the batch.
	Error Severity = iota
	// Warning is reported but minification goes on.
	Warning
	// Note provides additional context for another diagnostic.
	Note
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Note:
		return "note"
	default:
		return "unknown"
	}
}

// DiagnosticCode identifies a class of structural problem.
type DiagnosticCode string

const (
	CodeMissingBody      DiagnosticCode = "S0001" // Function header without a body
	CodeUnbalancedBraces DiagnosticCode = "S0002"
	CodeUnexpectedToken  DiagnosticCode = "S0003"
	CodeMissingSemicolon DiagnosticCode = "S0004" // Struct not closed by ';'
)

// Position is a location in shader text.
type Position struct {
	Offset int // 0-based byte offset
	Line   int // 1-based
	Column int // 1-based, in bytes
}

// Range is a span of shader text.
type Range struct {
	Start Position
	End   Position
}

// Diagnostic is a single message about a shader. It implements error.
type Diagnostic struct {
	Severity Severity
	Code     DiagnosticCode
	Message  string
	Range    Range
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%d:%d: %s: %s", d.Range.Start.Line, d.Range.Start.Column, d.Severity, d.Message)
}

// ----------------------------------------------------------------------------
// Diagnostic List
// ----------------------------------------------------------------------------

// DiagnosticList collects diagnostics for one shader.
type DiagnosticList struct {
	lines       *LineIndex
	diagnostics []Diagnostic
}

// NewDiagnosticList creates a new diagnostic list for the given source.
func NewDiagnosticList(source string) *DiagnosticList {
	return &DiagnosticList{lines: NewLineIndex(source)}
}

// Add appends a diagnostic.
func (dl *DiagnosticList) Add(d Diagnostic) {
	dl.diagnostics = append(dl.diagnostics, d)
}

// AddError adds an error one byte wide at offset.
func (dl *DiagnosticList) AddError(offset int, code DiagnosticCode, message string) {
	dl.Add(Diagnostic{Severity: Error, Code: code, Message: message, Range: dl.MakeRange(offset, offset+1)})
}

// AddWarning adds a warning one byte wide at offset.
func (dl *DiagnosticList) AddWarning(offset int, message string) {
	dl.Add(Diagnostic{Severity: Warning, Message: message, Range: dl.MakeRange(offset, offset+1)})
}

// MakePosition converts a byte offset to a Position.
func (dl *DiagnosticList) MakePosition(offset int) Position {
	line, col := dl.lines.ByteOffsetToLineColumn(offset)
	return Position{Offset: offset, Line: line + 1, Column: col + 1}
}

// MakeRange converts byte offsets to a Range.
func (dl *DiagnosticList) MakeRange(start, end int) Range {
	return Range{Start: dl.MakePosition(start), End: dl.MakePosition(end)}
}

// Diagnostics returns all collected diagnostics in the order they were added.
func (dl *DiagnosticList) Diagnostics() []Diagnostic {
	return dl.diagnostics
}

// Errors returns only error-level diagnostics.
func (dl *DiagnosticList) Errors() []Diagnostic {
	return dl.filter(Error)
}

// Warnings returns only warning-level diagnostics.
func (dl *DiagnosticList) Warnings() []Diagnostic {
	return dl.filter(Warning)
}

func (dl *DiagnosticList) filter(s Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range dl.diagnostics {
		if d.Severity == s {
			out = append(out, d)
		}
	}
	return out
}

// HasErrors returns true if there are any error-level diagnostics.
func (dl *DiagnosticList) HasErrors() bool {
	return dl.Err() != nil
}

// Err returns the first error-level diagnostic as an error, or nil.
func (dl *DiagnosticList) Err() error {
	for i := range dl.diagnostics {
		if dl.diagnostics[i].Severity == Error {
			d := dl.diagnostics[i]
			return &d
		}
	}
	return nil
}

// FormatDiagnostic renders d followed by the offending line and a caret
// under its first column.
func (dl *DiagnosticList) FormatDiagnostic(d *Diagnostic) string {
	var sb strings.Builder
	sb.WriteString(d.Error())
	sb.WriteByte('\n')

	if line := dl.lines.Line(d.Range.Start.Line - 1); line != "" {
		fmt.Fprintf(&sb, "    %s\n", line)
		sb.WriteString(strings.Repeat(" ", d.Range.Start.Column-1+4))
		sb.WriteString("^\n")
	}
	return sb.String()
}

// ----------------------------------------------------------------------------
// Line Index
// ----------------------------------------------------------------------------

// LineIndex maps byte offsets to lines with a binary search over the
// precomputed line starts.
type LineIndex struct {
	source     string
	lineStarts []int
}

// NewLineIndex creates a LineIndex for the given source. A trailing newline
// does not open a new line.
func NewLineIndex(source string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(source)-1; i++ {
		if source[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{source: source, lineStarts: starts}
}

// LineCount returns the number of lines in the source.
func (idx *LineIndex) LineCount() int {
	return len(idx.lineStarts)
}

// ByteOffsetToLineColumn converts a byte offset to a 0-based line and
// column. Offsets past the end clamp to the end.
func (idx *LineIndex) ByteOffsetToLineColumn(offset int) (line, col int) {
	if offset < 0 || len(idx.source) == 0 {
		return 0, 0
	}
	offset = min(offset, len(idx.source))
	line = max(sort.SearchInts(idx.lineStarts, offset+1)-1, 0)
	return line, offset - idx.lineStarts[line]
}

// Line returns the text of 0-based line n without its line break, or ""
// when n is out of range.
func (idx *LineIndex) Line(n int) string {
	if n < 0 || n >= len(idx.lineStarts) {
		return ""
	}
	start := idx.lineStarts[n]
	end := len(idx.source)
	if n+1 < len(idx.lineStarts) {
		end = idx.lineStarts[n+1]
	}
	return strings.TrimRight(idx.source[start:end], "\r\n")
}
