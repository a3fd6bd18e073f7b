package calls

import (
	"github.com/panbanda/gdlens/pkg/models"
	"github.com/panbanda/gdlens/pkg/parser"
	"github.com/panbanda/gdlens/pkg/registry"
	"github.com/panbanda/gdlens/pkg/scope"
)

// Summarize builds one summary per declared method of ps, in declaration
// order. Call records are kept on the summary when keepRecords is set.
func Summarize(ps *parser.ParsedScript, reg *registry.Registry, keepRecords bool) []models.MethodSummary {
	declared := make(map[string]bool, len(ps.Decl.Methods))
	for _, m := range ps.Decl.Methods {
		declared[m.Name] = true
	}
	scopes := scope.ForScript(ps)

	out := make([]models.MethodSummary, 0, len(ps.Decl.Methods))
	for i, m := range ps.Decl.Methods {
		var body parser.MethodBody
		if i < len(ps.Bodies) {
			body = ps.Bodies[i]
		}
		ctx := Context{Scope: scopes[i], Registry: reg, Declared: declared}
		out = append(out, summarize(m, body, ctx, keepRecords))
	}
	return out
}

func summarize(m models.MethodDecl, body parser.MethodBody, ctx Context, keepRecords bool) models.MethodSummary {
	s := models.MethodSummary{
		Name:           m.Name,
		LineNumber:     m.LineNumber,
		Parameters:     m.Parameters,
		ReturnType:     m.ReturnType,
		InternalCalls:  make([]string, 0),
		ExternalCalls:  make([]string, 0),
		BuiltinCalls:   make([]string, 0),
		SignalsEmitted: make([]string, 0),
	}
	for _, line := range body.Lines {
		for _, c := range Extract(line.Text, line.Number) {
			rec := Record(c, ctx)
			name := rec.QualifiedName()
			switch rec.CallType {
			case models.CallInternal:
				s.InternalCalls = models.AppendUnique(s.InternalCalls, name)
			case models.CallExternal:
				s.ExternalCalls = models.AppendUnique(s.ExternalCalls, name)
			case models.CallBuiltin:
				s.BuiltinCalls = models.AppendUnique(s.BuiltinCalls, name)
			}
			if keepRecords {
				s.Calls = append(s.Calls, rec)
			}
		}
		s.SignalsEmitted = models.AppendUnique(s.SignalsEmitted, parser.EmittedSignals(line.Text)...)
	}
	return s
}
