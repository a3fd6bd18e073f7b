package parser

import (
	"strings"

	"github.com/panbanda/gdlens/pkg/lex"
	"github.com/panbanda/gdlens/pkg/models"
)

// ScriptOptions selects what the script parser extracts. Variables are
// parsed whenever either flag is set because call classification needs
// their types.
type ScriptOptions struct {
	Variables bool
	Methods   bool
}

// DefaultScriptOptions extracts everything.
func DefaultScriptOptions() ScriptOptions {
	return ScriptOptions{Variables: true, Methods: true}
}

// BodyLine is one raw source line with its 1-based line number.
type BodyLine struct {
	Number int
	Text   string
}

// MethodBody holds the raw lines of one method body. Bodies are internal
// to analysis and never serialized.
type MethodBody struct {
	Name      string
	StartLine int
	Lines     []BodyLine
}

// ParsedScript is the parser output: the declaration model plus the raw
// material later analysis passes need.
type ParsedScript struct {
	Decl *models.ScriptDeclaration
	// Bodies is indexed like Decl.Methods.
	Bodies []MethodBody
	// Lines holds every non-blank source line.
	Lines []BodyLine

	byName map[string]int
}

// Body returns the body of the last method declared with name.
func (p *ParsedScript) Body(name string) (MethodBody, bool) {
	idx, ok := p.byName[name]
	if !ok {
		return MethodBody{}, false
	}
	return p.Bodies[idx], true
}

type parseState int

const (
	stateClass parseState = iota
	stateBody
	stateInnerClass
)

type scriptParser struct {
	opts    ScriptOptions
	out     *ParsedScript
	state   parseState
	current int
	// pending holds annotations from standalone annotation lines waiting
	// for the declaration they modify.
	pending []string
	// signature accumulates a method signature spanning several lines.
	signature     string
	signatureLine int
}

// ParseScript parses script source. It never fails; unrecognized lines are
// ignored.
func ParseScript(src string, opts ScriptOptions) *ParsedScript {
	p := &scriptParser{
		opts: opts,
		out: &ParsedScript{
			Decl:   models.NewScriptDeclaration(),
			Bodies: make([]MethodBody, 0),
			byName: make(map[string]int),
		},
		current: -1,
	}
	for i, line := range normalize(src) {
		p.line(i+1, line)
	}
	p.flushSignature()
	p.out.Decl.SignalEmissions = extractEmissions(p.out)
	return p.out
}

func (p *scriptParser) line(number int, raw string) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return
	}
	p.out.Lines = append(p.out.Lines, BodyLine{Number: number, Text: raw})

	if p.signature != "" {
		p.signature += " " + strings.TrimSpace(lex.StripComment(trimmed))
		if lex.MatchingClose(p.signature, strings.IndexByte(p.signature, '(')) != lex.NotFound {
			p.flushSignature()
		}
		return
	}

	indented := lex.Indent(raw) > 0
	comment := strings.HasPrefix(trimmed, "#")

	switch p.state {
	case stateBody:
		if indented || comment {
			if !comment {
				body := &p.out.Bodies[p.current]
				body.Lines = append(body.Lines, BodyLine{Number: number, Text: raw})
			}
			return
		}
		p.state = stateClass
	case stateInnerClass:
		if indented || comment {
			return
		}
		p.state = stateClass
	}

	if comment || indented {
		return
	}
	p.classLine(number, trimmed)
}

func (p *scriptParser) classLine(number int, line string) {
	decl := p.out.Decl
	code := strings.TrimSpace(lex.StripComment(line))

	switch {
	case isFuncLine(code):
		p.pending = nil
		if !p.opts.Methods {
			// Skip the body without recording it.
			p.state = stateInnerClass
			return
		}
		open := strings.IndexByte(code, '(')
		if open != lex.NotFound && lex.MatchingClose(code, open) == lex.NotFound {
			p.signature = code
			p.signatureLine = number
			return
		}
		p.startMethod(number, code)
		return
	case hasKeyword(code, "class_name"):
		p.pending = nil
		p.parseClassName(code)
		return
	case hasKeyword(code, "extends"):
		p.pending = nil
		decl.Extends = lex.Unquote(strings.TrimSuffix(strings.TrimSpace(code[len("extends"):]), ":"))
		return
	case hasKeyword(code, "class"):
		p.pending = nil
		p.state = stateInnerClass
		return
	case hasKeyword(code, "signal"):
		p.pending = nil
		if sig, ok := ParseSignal(code); ok {
			sig.LineNumber = number
			decl.Signals = append(decl.Signals, sig)
		}
		return
	}

	if !p.opts.Variables && !p.opts.Methods {
		return
	}

	if hasKeyword(code, "enum") {
		p.pending = nil
		if v, ok := ParseEnum(code); ok {
			v.LineNumber = number
			p.addVariable(v)
		}
		return
	}

	annotations, rest := splitAnnotations(code)
	if rest == "" && len(annotations) > 0 {
		for _, a := range annotations {
			if carriesToNextLine(a) {
				p.pending = append(p.pending, a)
			}
		}
		return
	}

	v, ok := ParseVariable(code)
	if !ok {
		p.pending = nil
		return
	}
	if len(p.pending) > 0 {
		v = applyAnnotations(v, p.pending)
		p.pending = nil
	}
	v.LineNumber = number
	p.addVariable(v)
}

func isFuncLine(code string) bool {
	if hasKeyword(code, "static") {
		code = strings.TrimSpace(code[len("static"):])
	}
	return hasKeyword(code, "func")
}

// carriesToNextLine reports whether a standalone annotation modifies the
// declaration that follows it. Grouping and script-level annotations do
// not.
func carriesToNextLine(a string) bool {
	for _, prefix := range []string{"@export_group", "@export_subgroup", "@export_category", "@tool", "@icon", "@static_unload"} {
		if strings.HasPrefix(a, prefix) {
			return false
		}
	}
	return true
}

func applyAnnotations(v models.VariableDecl, annotations []string) models.VariableDecl {
	v.Annotations = append(append([]string(nil), annotations...), v.Annotations...)
	for _, a := range annotations {
		if isExportAnnotation(a) {
			v.IsExport = true
		}
		if isOnreadyAnnotation(a) {
			v.IsOnready = true
		}
	}
	if v.IsOnready && !v.IsConstant {
		v.Scope = models.ScopeOnready
	}
	return v
}

func (p *scriptParser) addVariable(v models.VariableDecl) {
	if v.IsExport {
		p.out.Decl.Exports = append(p.out.Decl.Exports, v)
		return
	}
	p.out.Decl.Variables = append(p.out.Decl.Variables, v)
}

func (p *scriptParser) parseClassName(code string) {
	rest := strings.TrimSpace(code[len("class_name"):])
	if idx := strings.Index(rest, " extends "); idx != lex.NotFound {
		p.out.Decl.Extends = lex.Unquote(strings.TrimSuffix(strings.TrimSpace(rest[idx+len(" extends "):]), ":"))
		rest = rest[:idx]
	}
	ids := lex.Identifiers(rest)
	if len(ids) > 0 {
		p.out.Decl.ClassName = ids[0]
	}
}

func (p *scriptParser) flushSignature() {
	if p.signature == "" {
		return
	}
	sig, line := p.signature, p.signatureLine
	p.signature, p.signatureLine = "", 0
	p.startMethod(line, sig)
}

func (p *scriptParser) startMethod(number int, code string) {
	m, ok := ParseMethodSignature(code)
	if !ok {
		p.state = stateInnerClass
		return
	}
	m.LineNumber = number
	p.out.Decl.Methods = append(p.out.Decl.Methods, m)
	p.out.Bodies = append(p.out.Bodies, MethodBody{Name: m.Name, StartLine: number})
	p.current = len(p.out.Bodies) - 1
	p.out.byName[m.Name] = p.current
	p.state = stateBody

	// One-line bodies: func f(): return 1
	if colon := signatureColon(code); colon != lex.NotFound {
		if tail := strings.TrimSpace(code[colon+1:]); tail != "" {
			body := &p.out.Bodies[p.current]
			body.Lines = append(body.Lines, BodyLine{Number: number, Text: "\t" + tail})
		}
	}
}

// signatureColon returns the index of the colon that ends a method
// signature.
func signatureColon(code string) int {
	start := 0
	if open := strings.IndexByte(code, '('); open != lex.NotFound {
		if end := lex.MatchingClose(code, open); end != lex.NotFound {
			start = end + 1
		}
	}
	if rel := lex.FindUnquoted(code[start:], ":"); rel != lex.NotFound {
		return start + rel
	}
	return lex.NotFound
}

// extractEmissions finds signal emissions in every method body.
func extractEmissions(ps *ParsedScript) []models.SignalEmission {
	out := make([]models.SignalEmission, 0)
	for _, body := range ps.Bodies {
		for _, line := range body.Lines {
			for _, sig := range EmittedSignals(line.Text) {
				out = append(out, models.SignalEmission{Method: body.Name, Signal: sig, Line: line.Number})
			}
		}
	}
	return out
}

// EmittedSignals returns the signals emitted on line, either through
// emit_signal("name") or name.emit(). Emissions on another object's signal
// (other.name.emit()) are not reported.
func EmittedSignals(line string) []string {
	code := lex.StripComment(line)
	out := lex.QuotedArgs(code, "emit_signal", true)

	masked := lex.MaskStrings(code)
	const marker = ".emit("
	for from := 0; from < len(masked); {
		rel := strings.Index(masked[from:], marker)
		if rel < 0 {
			break
		}
		idx := from + rel
		from = idx + len(marker)

		start := idx
		for start > 0 && lex.IsIdentByte(masked[start-1]) {
			start--
		}
		name := masked[start:idx]
		if !isIdentifier(name) {
			continue
		}
		if start > 0 && masked[start-1] == '.' {
			if !strings.HasSuffix(masked[:start], "self.") {
				continue
			}
			if before := start - len("self."); before > 0 && (lex.IsIdentByte(masked[before-1]) || masked[before-1] == '.') {
				continue
			}
		}
		out = append(out, name)
	}
	return out
}
