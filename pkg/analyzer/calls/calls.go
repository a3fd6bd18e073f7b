// Package calls extracts call expressions from method bodies and classifies
// them as internal, external or builtin.
package calls

import (
	"strings"

	"github.com/panbanda/gdlens/pkg/lex"
	"github.com/panbanda/gdlens/pkg/models"
	"github.com/panbanda/gdlens/pkg/parser"
	"github.com/panbanda/gdlens/pkg/registry"
	"github.com/panbanda/gdlens/pkg/scope"
)

// Receivers with language meaning rather than a variable behind them.
const (
	SelfReceiver  = "self"
	SuperReceiver = "super"
)

// keywords are never reported as bare calls.
var keywords = map[string]bool{
	"if": true, "elif": true, "else": true, "while": true, "for": true, "match": true,
	"return": true, "and": true, "or": true, "not": true, "in": true, "is": true,
	"as": true, "func": true, "signal": true, "var": true, "const": true, "await": true,
	"yield": true, "super": true, "when": true, "static": true, "pass": true,
	"break": true, "continue": true, "class": true,
}

// Call is one call shape found on a line. Receiver is empty for bare calls.
type Call struct {
	Receiver string
	Method   string
	// Args is the raw argument text between the parentheses.
	Args string
	Line int
	Text string
}

// Extract returns the call shapes of one source line in order of
// appearance. String literals and comments are ignored.
func Extract(text string, number int) []Call {
	code := lex.StripComment(text)
	masked := lex.MaskStrings(code)
	trimmed := strings.TrimSpace(text)

	var out []Call
	for i := 0; i < len(masked); i++ {
		if masked[i] != '(' {
			continue
		}
		end := i
		start := end
		for start > 0 && lex.IsIdentByte(masked[start-1]) {
			start--
		}
		if start == end || isDigit(masked[start]) {
			continue
		}
		method := masked[start:end]
		args, _ := lex.Inner(code, i)
		if start == 0 || masked[start-1] != '.' {
			if keywords[method] {
				continue
			}
			out = append(out, Call{Method: method, Args: args, Line: number, Text: trimmed})
			continue
		}
		recvStart := receiverStart(masked, start-1)
		receiver := code[recvStart : start-1]
		if receiver == "" {
			continue
		}
		out = append(out, Call{Receiver: receiver, Method: method, Args: args, Line: number, Text: trimmed})
	}
	return out
}

// receiverStart walks back from the dot at dot over a receiver chain:
// identifiers, dots, node path sigils and balanced brackets.
func receiverStart(masked string, dot int) int {
	i := dot
	for i > 0 {
		c := masked[i-1]
		switch {
		case lex.IsIdentByte(c) || c == '.' || c == '$' || c == '%' || c == '/':
			i--
		case c == ')' || c == ']':
			open := matchingOpen(masked, i-1)
			if open < 0 {
				return i
			}
			i = open
		case c == '"' || c == '\'':
			open := strings.LastIndexByte(masked[:i-1], c)
			if open < 0 {
				return i
			}
			i = open
		default:
			return i
		}
	}
	return i
}

func matchingOpen(s string, closeIdx int) int {
	closeCh := s[closeIdx]
	openCh := byte('(')
	if closeCh == ']' {
		openCh = '['
	}
	depth := 0
	for i := closeIdx; i >= 0; i-- {
		switch s[i] {
		case closeCh:
			depth++
		case openCh:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isConstant(name string) bool {
	if name == "" || isDigit(name[0]) {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !(c >= 'A' && c <= 'Z') && !isDigit(c) && c != '_' {
			return false
		}
	}
	return true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// Context is what classification consults: the method scope, the class
// registry and the methods the script declares.
type Context struct {
	Scope    *scope.Scope
	Registry *registry.Registry
	Declared map[string]bool
}

func (ctx Context) known(name string) bool {
	return ctx.Scope != nil && ctx.Scope.Known(name)
}

// Classify tags a call. Bare calls and self calls are internal when the
// script declares the method and builtin otherwise. Dotted calls on a
// receiver with a known local type stay external; other receivers are
// builtin when an engine class, primitive or array table provides the
// method.
func Classify(c Call, ctx Context) models.CallKind {
	reg := ctx.Registry
	if reg == nil {
		reg = registry.Empty()
	}
	switch c.Receiver {
	case "", SelfReceiver:
		if ctx.Declared[c.Method] {
			return models.CallInternal
		}
		return models.CallBuiltin
	case SuperReceiver:
		return models.CallBuiltin
	}
	recv := strings.TrimPrefix(c.Receiver, SelfReceiver+".")
	if ctx.known(recv) {
		return models.CallExternal
	}
	// Literal and constructor receivers are checked by the type they build.
	if typ := parser.InferTypeFromLiteral(recv); typ != parser.Variant {
		recv = typ
	} else if head, tail, ok := strings.Cut(recv, "."); ok && isConstant(tail) && reg.IsPrimitive(head) {
		// Vector2.ZERO, Color.RED
		recv = head
	}
	switch {
	case reg.IsClass(recv) && c.Method == registry.ConstructorMethod:
		return models.CallBuiltin
	case reg.IsEngineClass(recv):
		if reg.EngineClassHasMethod(recv, c.Method) {
			return models.CallBuiltin
		}
		return models.CallExternal
	case reg.IsUserClass(recv):
		return models.CallExternal
	case reg.IsPrimitive(recv):
		if reg.PrimitiveHasMethod(recv, c.Method) {
			return models.CallBuiltin
		}
		return models.CallExternal
	case reg.IsArrayType(recv):
		if reg.ArrayTypeHasMethod(recv, c.Method) {
			return models.CallBuiltin
		}
		return models.CallExternal
	}
	if reg.EngineMethodKnown(c.Method) {
		return models.CallBuiltin
	}
	return models.CallExternal
}

// Record classifies c and returns its record.
func Record(c Call, ctx Context) models.CallRecord {
	object := c.Receiver
	if object == "" {
		object = models.SelfObject
	}
	return models.CallRecord{
		MethodName: c.Method,
		Object:     object,
		CallType:   Classify(c, ctx),
		LineNumber: c.Line,
		Line:       c.Text,
	}
}
