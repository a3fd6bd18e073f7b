package parser

import (
	"strconv"
	"strings"

	"github.com/panbanda/gdlens/pkg/lex"
)

// Variant is the type reported for values whose type cannot be inferred.
const Variant = "Variant"

var floatConstants = map[string]bool{"PI": true, "TAU": true, "INF": true, "NAN": true}

// InferTypeFromLiteral guesses the type of a literal expression from its
// leading characters. Constructor calls (Vector2(1, 2), Foo.new()) yield
// the constructed type; other undotted calls (get_node("A")) yield the
// callee name. Anything else is Variant.
func InferTypeFromLiteral(text string) string {
	s := strings.TrimSpace(text)
	if s == "" {
		return Variant
	}

	switch s[0] {
	case '^':
		return "NodePath"
	case '&':
		return "StringName"
	case '"', '\'':
		if len(s) >= 2 && s[len(s)-1] == s[0] {
			return "String"
		}
		return Variant
	case '[':
		if lex.Balanced(s, '[') {
			return "Array"
		}
		return Variant
	case '{':
		if lex.Balanced(s, '{') {
			return "Dictionary"
		}
		return Variant
	}

	switch s {
	case "true", "false":
		return "bool"
	case "null":
		return "Nil"
	}
	if floatConstants[s] {
		return "float"
	}

	digits := strings.TrimLeft(s, "+-")
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0b") {
		return "int"
	}
	if numeric(digits) {
		clean := strings.ReplaceAll(s, "_", "")
		if _, err := strconv.ParseInt(clean, 10, 64); err == nil {
			return "int"
		}
		if _, err := strconv.ParseFloat(clean, 64); err == nil {
			return "float"
		}
	}

	if callee, _, ok := lex.CallForm(s); ok {
		if typ, isNew := strings.CutSuffix(callee, ".new"); isNew {
			if typ != "" && (startsUpper(typ) || !strings.Contains(typ, ".")) {
				return typ
			}
			return Variant
		}
		if startsUpper(callee) || !strings.Contains(callee, ".") {
			return callee
		}
	}
	return Variant
}

func numeric(s string) bool {
	return s != "" && ((s[0] >= '0' && s[0] <= '9') || s[0] == '.')
}

func startsUpper(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}
