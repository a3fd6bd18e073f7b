package lex

import "strings"

var closers = map[byte]byte{'(': ')', '[': ']', '{': '}'}

// MatchingClose returns the index of the bracket closing the one at open,
// ignoring brackets inside string literals. Only the bracket kind found at
// open is counted.
func MatchingClose(s string, open int) int {
	if open < 0 || open >= len(s) {
		return NotFound
	}
	openCh := s[open]
	closeCh, ok := closers[openCh]
	if !ok {
		return NotFound
	}
	depth := 0
	var q quoteState
	for i := open; i < len(s); i++ {
		if !q.step(s[i]) {
			continue
		}
		switch s[i] {
		case openCh:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return NotFound
}

// Balanced reports whether s is a single bracketed group opened by open
// whose matching closer is the final byte.
func Balanced(s string, open byte) bool {
	s = strings.TrimSpace(s)
	if s == "" || s[0] != open {
		return false
	}
	return MatchingClose(s, 0) == len(s)-1
}

// Inner returns the content of the bracketed group starting at open and the
// index of its closer. When unbalanced it returns the rest of the string and
// NotFound.
func Inner(s string, open int) (string, int) {
	end := MatchingClose(s, open)
	if end == NotFound {
		if open+1 <= len(s) {
			return s[open+1:], NotFound
		}
		return "", NotFound
	}
	return s[open+1 : end], end
}

// CallForm splits text of the form Name(args) into the callee and the raw
// argument text. The callee may be dotted (Type.new). Trailing text after
// the closing parenthesis is rejected.
func CallForm(s string) (callee, args string, ok bool) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '(')
	if open <= 0 {
		return "", "", false
	}
	callee = strings.TrimSpace(s[:open])
	for i := 0; i < len(callee); i++ {
		if !IsIdentByte(callee[i]) && callee[i] != '.' {
			return "", "", false
		}
	}
	inner, end := Inner(s, open)
	if end != len(s)-1 {
		return "", "", false
	}
	return callee, inner, true
}

// Attr extracts the value of key=value from a bracketed section header such
// as `[node name="Player" type="Node2D" parent="."]`. Quoted values are
// returned without quotes; unquoted values run to the next space or ']',
// keeping any balanced parenthesised suffix (instance=ExtResource("1")).
func Attr(header, key string) (string, bool) {
	mask := outside(header)
	needle := key + "="
	for i := 0; i+len(needle) <= len(header); i++ {
		if !mask[i] || !strings.HasPrefix(header[i:], needle) {
			continue
		}
		if i > 0 && IsIdentByte(header[i-1]) {
			continue
		}
		return attrValue(header, i+len(needle)), true
	}
	return "", false
}

func attrValue(header string, start int) string {
	if start >= len(header) {
		return ""
	}
	if q := header[start]; q == '"' || q == '\'' {
		var st quoteState
		st.step(q)
		for i := start + 1; i < len(header); i++ {
			st.step(header[i])
			if st.quote == 0 {
				return unescape(header[start+1 : i])
			}
		}
		return header[start+1:]
	}
	i := start
	for i < len(header) {
		c := header[i]
		if c == '(' {
			if end := MatchingClose(header, i); end != NotFound {
				i = end + 1
				continue
			}
		}
		if c == ' ' || c == '\t' || c == ']' {
			break
		}
		i++
	}
	return header[start:i]
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	return strings.NewReplacer(`\"`, `"`, `\'`, `'`, `\\`, `\`).Replace(s)
}

// QuotedArgs returns the string literal passed as first argument to every
// call of name in line, for example the path in preload("res://a.gd").
//
// A match is rejected when the byte before name is an identifier byte, and
// also when it is '.' unless allowDot is set, so that obj.load("x") is not
// mistaken for the global load("x").
func QuotedArgs(line, name string, allowDot bool) []string {
	if name == "" {
		return nil
	}
	mask := outside(line)
	var out []string
	for from := 0; from < len(line); {
		rel := strings.Index(line[from:], name)
		if rel < 0 {
			break
		}
		idx := from + rel
		from = idx + len(name)
		if !mask[idx] {
			continue
		}
		if idx > 0 {
			prev := line[idx-1]
			if IsIdentByte(prev) || (prev == '.' && !allowDot) {
				continue
			}
		}
		if arg, ok := firstQuotedArg(line, idx+len(name)); ok {
			out = append(out, arg)
		}
	}
	return out
}

func firstQuotedArg(line string, pos int) (string, bool) {
	pos = skipSpace(line, pos)
	if pos >= len(line) || line[pos] != '(' {
		return "", false
	}
	pos = skipSpace(line, pos+1)
	// StringName literal: &"name"
	if pos < len(line) && line[pos] == '&' {
		pos++
	}
	if pos >= len(line) || (line[pos] != '"' && line[pos] != '\'') {
		return "", false
	}
	quote := line[pos]
	escaped := false
	for i := pos + 1; i < len(line); i++ {
		c := line[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == quote:
			return unescape(line[pos+1 : i]), true
		}
	}
	return "", false
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}
