package parser

import (
	"strings"

	"github.com/panbanda/gdlens/pkg/lex"
	"github.com/panbanda/gdlens/pkg/models"
)

// splitAnnotations strips leading @annotation tokens (with their argument
// lists) and the legacy `export(...)` / `onready` keywords from line. It
// returns the collected annotations and the remaining text.
func splitAnnotations(line string) ([]string, string) {
	var annotations []string
	rest := strings.TrimSpace(line)
	for {
		switch {
		case strings.HasPrefix(rest, "@"):
			end := 1
			for end < len(rest) && lex.IsIdentByte(rest[end]) {
				end++
			}
			if end < len(rest) && rest[end] == '(' {
				if closeIdx := lex.MatchingClose(rest, end); closeIdx != lex.NotFound {
					end = closeIdx + 1
				} else {
					end = len(rest)
				}
			}
			annotations = append(annotations, rest[:end])
			rest = strings.TrimSpace(rest[end:])
		case hasKeyword(rest, "export"):
			end := len("export")
			if end < len(rest) && rest[end] == '(' {
				if closeIdx := lex.MatchingClose(rest, end); closeIdx != lex.NotFound {
					end = closeIdx + 1
				}
			}
			annotations = append(annotations, rest[:end])
			rest = strings.TrimSpace(rest[end:])
		case hasKeyword(rest, "onready"):
			annotations = append(annotations, "onready")
			rest = strings.TrimSpace(rest[len("onready"):])
		default:
			return annotations, rest
		}
	}
}

// hasKeyword reports whether s starts with kw followed by a non-identifier
// byte or the end of the string.
func hasKeyword(s, kw string) bool {
	if !strings.HasPrefix(s, kw) {
		return false
	}
	return len(s) == len(kw) || !lex.IsIdentByte(s[len(kw)])
}

func isIdentifier(s string) bool {
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !lex.IsIdentByte(s[i]) {
			return false
		}
	}
	return true
}

func isExportAnnotation(a string) bool {
	return strings.HasPrefix(a, "@export") || strings.HasPrefix(a, "export")
}

func isOnreadyAnnotation(a string) bool {
	return a == "@onready" || a == "onready"
}

// ParseVariable parses a class-level `var` or `const` declaration,
// including any leading annotations. It reports false when line is not a
// variable declaration.
func ParseVariable(line string) (models.VariableDecl, bool) {
	annotations, rest := splitAnnotations(lex.StripComment(line))

	var decl models.VariableDecl
	switch {
	case hasKeyword(rest, "const"):
		decl.IsConstant = true
		rest = rest[len("const"):]
	case hasKeyword(rest, "static"):
		rest = strings.TrimSpace(rest[len("static"):])
		if !hasKeyword(rest, "var") {
			return models.VariableDecl{}, false
		}
		rest = rest[len("var"):]
	case hasKeyword(rest, "var"):
		rest = rest[len("var"):]
	default:
		return models.VariableDecl{}, false
	}
	rest = strings.TrimSpace(rest)

	// Godot 3 property accessors.
	if idx := lex.FindUnquoted(rest, " setget "); idx != lex.NotFound {
		rest = rest[:idx]
	}

	head := rest
	idx, width := lex.FindAssignment(rest)
	if idx != lex.NotFound {
		head = rest[:idx]
		decl.DefaultValue = strings.TrimSuffix(strings.TrimSpace(rest[idx+width:]), ":")
		decl.DefaultValue = strings.TrimSpace(decl.DefaultValue)
	}
	head = strings.TrimSuffix(strings.TrimSpace(head), ":")

	name := head
	if colon := lex.FindTypeColon(head); colon != lex.NotFound {
		name = head[:colon]
		decl.Type = strings.TrimSpace(head[colon+1:])
	}
	decl.Name = strings.TrimSpace(name)
	if !isIdentifier(decl.Name) {
		return models.VariableDecl{}, false
	}
	if decl.Type == "" && width == 2 {
		decl.Type = models.TypeInferred
	}

	for _, a := range annotations {
		if isExportAnnotation(a) {
			decl.IsExport = true
		}
		if isOnreadyAnnotation(a) {
			decl.IsOnready = true
		}
	}
	decl.Annotations = annotations

	switch {
	case decl.IsConstant:
		decl.Scope = models.ScopeConst
	case decl.IsOnready:
		decl.Scope = models.ScopeOnready
	default:
		decl.Scope = models.ScopeClass
	}
	return decl, true
}

// ParseEnum parses a named `enum Name {...}` declaration into a constant of
// type Dictionary. Anonymous enums are not declarations.
func ParseEnum(line string) (models.VariableDecl, bool) {
	rest := strings.TrimSpace(lex.StripComment(line))
	if !hasKeyword(rest, "enum") {
		return models.VariableDecl{}, false
	}
	rest = strings.TrimSpace(rest[len("enum"):])
	name := rest
	if brace := strings.IndexByte(rest, '{'); brace != lex.NotFound {
		name = rest[:brace]
	}
	name = strings.TrimSpace(name)
	if !isIdentifier(name) {
		return models.VariableDecl{}, false
	}
	return models.VariableDecl{
		Name:       name,
		Type:       "Dictionary",
		IsConstant: true,
		Scope:      models.ScopeConst,
	}, true
}

// ParseMethodSignature parses a `func` or `static func` line. A signature
// without parentheses yields an empty parameter list.
func ParseMethodSignature(line string) (models.MethodDecl, bool) {
	rest := strings.TrimSpace(lex.StripComment(line))
	var decl models.MethodDecl
	if hasKeyword(rest, "static") {
		decl.IsStatic = true
		rest = strings.TrimSpace(rest[len("static"):])
	}
	if !hasKeyword(rest, "func") {
		return models.MethodDecl{}, false
	}
	rest = strings.TrimSpace(rest[len("func"):])

	open := strings.IndexByte(rest, '(')
	if open == lex.NotFound {
		decl.Name = strings.TrimSpace(strings.TrimSuffix(rest, ":"))
		decl.Parameters = make([]models.Parameter, 0)
		return decl, isIdentifier(decl.Name)
	}

	decl.Name = strings.TrimSpace(rest[:open])
	if !isIdentifier(decl.Name) {
		return models.MethodDecl{}, false
	}
	inner, end := lex.Inner(rest, open)
	decl.Parameters = ParseParameters(inner, true)
	if end == lex.NotFound {
		return decl, true
	}

	after := rest[end+1:]
	if arrow := strings.Index(after, "->"); arrow != lex.NotFound {
		ret := after[arrow+2:]
		if colon := lex.FindUnquoted(ret, ":"); colon != lex.NotFound {
			ret = ret[:colon]
		}
		decl.ReturnType = strings.TrimSpace(ret)
	}
	return decl, true
}

// ParseSignal parses a `signal name(params)` declaration.
func ParseSignal(line string) (models.SignalDecl, bool) {
	rest := strings.TrimSpace(lex.StripComment(line))
	if !hasKeyword(rest, "signal") {
		return models.SignalDecl{}, false
	}
	rest = strings.TrimSpace(rest[len("signal"):])

	decl := models.SignalDecl{Parameters: make([]models.Parameter, 0)}
	open := strings.IndexByte(rest, '(')
	if open == lex.NotFound {
		decl.Name = rest
	} else {
		decl.Name = strings.TrimSpace(rest[:open])
		inner, _ := lex.Inner(rest, open)
		decl.Parameters = ParseParameters(inner, false)
	}
	if !isIdentifier(decl.Name) {
		return models.SignalDecl{}, false
	}
	return decl, true
}

// ParseParameters splits a raw parameter list on commas. Commas nested in
// a default value are not treated specially, so `a = [1, 2]` splits in
// two. When markInferred is set, an untyped parameter is typed from its
// walrus default or marked as inferred.
func ParseParameters(list string, markInferred bool) []models.Parameter {
	params := make([]models.Parameter, 0)
	if strings.TrimSpace(list) == "" {
		return params
	}
	for _, raw := range strings.Split(list, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		var p models.Parameter
		head := raw
		idx, width := lex.FindAssignment(raw)
		if idx != lex.NotFound {
			head = raw[:idx]
			p.Default = strings.TrimSpace(raw[idx+width:])
		}
		head = strings.TrimSpace(head)
		if colon := lex.FindTypeColon(head); colon != lex.NotFound {
			p.Name = strings.TrimSpace(head[:colon])
			p.Type = strings.TrimSpace(head[colon+1:])
		} else {
			p.Name = head
		}
		if p.Type == "" && markInferred {
			if width == 2 {
				p.Type = InferTypeFromLiteral(p.Default)
			} else {
				p.Type = models.TypeInferred
			}
		}
		params = append(params, p)
	}
	return params
}
