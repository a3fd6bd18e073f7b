// Package lex provides the quote-aware line scanners shared by the script
// and scene parsers.
//
// Scanners never fail. When a delimiter is absent they return NotFound and
// callers treat that as "no match".
package lex

import "strings"

// NotFound is the sentinel index returned when a delimiter is absent.
const NotFound = -1

// IsIdentByte reports whether c can appear in an identifier.
func IsIdentByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// quoteState tracks string-literal state while walking a line byte by byte.
type quoteState struct {
	quote   byte
	escaped bool
}

// step consumes c and reports whether c sits outside any string literal.
// Quote characters themselves are reported as inside.
func (q *quoteState) step(c byte) bool {
	if q.quote != 0 {
		switch {
		case q.escaped:
			q.escaped = false
		case c == '\\':
			q.escaped = true
		case c == q.quote:
			q.quote = 0
		}
		return false
	}
	if c == '"' || c == '\'' {
		q.quote = c
		return false
	}
	return true
}

// outside returns a per-byte mask of positions that are not inside a string
// literal.
func outside(s string) []bool {
	mask := make([]bool, len(s))
	var q quoteState
	for i := 0; i < len(s); i++ {
		mask[i] = q.step(s[i])
	}
	return mask
}

// FindTypeColon returns the index of the first unquoted colon that introduces
// a type annotation. The colon of a walrus operator (:=) is skipped.
func FindTypeColon(s string) int {
	var q quoteState
	for i := 0; i < len(s); i++ {
		if !q.step(s[i]) || s[i] != ':' {
			continue
		}
		if i+1 < len(s) && s[i+1] == '=' {
			continue
		}
		return i
	}
	return NotFound
}

// FindUnquoted returns the index of the first occurrence of delim that does
// not start inside a string literal.
func FindUnquoted(s, delim string) int {
	if delim == "" {
		return NotFound
	}
	var q quoteState
	for i := 0; i < len(s); i++ {
		if q.step(s[i]) && strings.HasPrefix(s[i:], delim) {
			return i
		}
	}
	return NotFound
}

// FindAssignment locates the first assignment operator outside string
// literals. The walrus operator is checked before plain '='. Comparison and
// compound operators are never reported. It returns the operator index and
// its width, or NotFound and 0.
func FindAssignment(s string) (int, int) {
	if idx := FindUnquoted(s, ":="); idx != NotFound {
		return idx, 2
	}
	var q quoteState
	for i := 0; i < len(s); i++ {
		if !q.step(s[i]) || s[i] != '=' {
			continue
		}
		if i+1 < len(s) && s[i+1] == '=' {
			i++
			continue
		}
		if i > 0 && strings.IndexByte("=!<>+-*/%&|^:", s[i-1]) >= 0 {
			continue
		}
		return i, 1
	}
	return NotFound, 0
}

// StripComment removes a trailing '#' comment that is not inside a string.
func StripComment(s string) string {
	if idx := FindUnquoted(s, "#"); idx != NotFound {
		return s[:idx]
	}
	return s
}

// Identifiers returns every maximal run of identifier bytes in s.
func Identifiers(s string) []string {
	var out []string
	start := -1
	for i := 0; i < len(s); i++ {
		if IsIdentByte(s[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			out = append(out, s[start:i])
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}

// MaskStrings blanks the contents of string literals, keeping the quotes and
// the overall length so that indices stay aligned with the original text.
func MaskStrings(s string) string {
	b := []byte(s)
	var q quoteState
	for i := 0; i < len(b); i++ {
		wasQuoted := q.quote != 0
		q.step(b[i])
		if wasQuoted && q.quote != 0 {
			b[i] = ' '
		}
	}
	return string(b)
}

// Indent returns the number of leading spaces and tabs in line.
func Indent(line string) int {
	n := 0
	for n < len(line) && (line[n] == ' ' || line[n] == '\t') {
		n++
	}
	return n
}

// Unquote strips one pair of matching single or double quotes.
func Unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'') && first == last {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// LastToken returns the last whitespace-delimited token of s.
func LastToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
