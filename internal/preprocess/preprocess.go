// Package preprocess prepares raw shader text for structural scanning.
//
// It normalizes line endings and strips comments. Block comments are
// replaced by a single space plus the newlines they contained, so line
// numbers reported by later stages still point into the original file and
// tokens on either side of a comment never fuse.
package preprocess

import "strings"

// Process normalizes line endings and strips comments.
func Process(source string) string {
	return StripComments(NormalizeNewlines(source))
}

// NormalizeNewlines converts CRLF and lone CR line endings to LF.
func NormalizeNewlines(source string) string {
	if !strings.ContainsRune(source, '\r') {
		return source
	}
	source = strings.ReplaceAll(source, "\r\n", "\n")
	return strings.ReplaceAll(source, "\r", "\n")
}

// StripComments removes // line comments and /* */ block comments.
// An unterminated block comment runs to the end of the input.
func StripComments(source string) string {
	if !strings.Contains(source, "/") {
		return source
	}

	var sb strings.Builder
	sb.Grow(len(source))

	for i := 0; i < len(source); i++ {
		c := source[i]
		if c != '/' || i+1 >= len(source) {
			sb.WriteByte(c)
			continue
		}

		switch source[i+1] {
		case '/':
			// Keep the newline; a line comment never swallows the next line.
			end := strings.IndexByte(source[i:], '\n')
			if end < 0 {
				return sb.String()
			}
			i += end - 1

		case '*':
			end := strings.Index(source[i+2:], "*/")
			var body string
			if end < 0 {
				body = source[i+2:]
				i = len(source)
			} else {
				body = source[i+2 : i+2+end]
				i += 2 + end + 1
			}
			sb.WriteByte(' ')
			sb.WriteString(strings.Repeat("\n", strings.Count(body, "\n")))

		default:
			sb.WriteByte(c)
		}
	}

	return sb.String()
}
