package output

import (
	"fmt"
	"strings"

	"github.com/panbanda/gdlens/pkg/models"
)

func list(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

func params(ps []models.Parameter) string {
	parts := make([]string, 0, len(ps))
	for _, p := range ps {
		s := p.Name
		if p.Type != "" && p.Type != models.TypeInferred {
			s += ": " + p.Type
		}
		if p.Default != "" {
			s += " = " + p.Default
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}

func patterns(tags []models.PatternTag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = string(t)
	}
	return out
}

func failure(path, msg string) *Section {
	return &Section{Title: "Error", Content: fmt.Sprintf("%s: %s", path, msg)}
}

func variableKind(v models.VariableDecl) string {
	switch {
	case v.IsExport:
		return "export"
	case v.IsConstant:
		return "const"
	case v.IsOnready:
		return "onready"
	default:
		return "var"
	}
}

// ScriptReport renders the analysis of one script. Structured formats
// serialize the result unchanged.
func ScriptReport(res *models.ScriptResult) *Report {
	r := &Report{Title: "Script: " + res.ScriptPath, Data: res}
	if res.Failed() || res.Structure == nil {
		r.Add(failure(res.ScriptPath, res.Error))
		return r
	}
	decl := res.Structure

	overview := []string{
		"Class:   " + orDash(decl.ClassName),
		"Extends: " + orDash(decl.Extends),
	}
	if ctx := res.BehavioralContext; ctx != nil {
		overview = append(overview,
			"Complexity: "+string(ctx.Complexity),
			"Patterns:   "+list(patterns(ctx.Patterns)),
			"Lifecycle:  "+list(ctx.LifecycleMethods),
			"Handlers:   "+list(ctx.EventHandlers),
		)
	}
	r.Add(&Section{Title: "Overview", Content: strings.Join(overview, "\n")})

	signals := make([][]string, 0, len(decl.Signals))
	for _, s := range decl.Signals {
		signals = append(signals, []string{s.Name, params(s.Parameters), fmt.Sprint(s.LineNumber)})
	}
	r.Add(&Table{
		Title:   "Signals",
		Headers: []string{"Signal", "Parameters", "Line"},
		Rows:    signals,
		Empty:   "No signals declared",
	})

	vars := decl.AllVariables()
	if len(vars) > 0 {
		rows := make([][]string, 0, len(vars))
		for _, v := range vars {
			rows = append(rows, []string{v.Name, variableKind(v), v.Type, v.DefaultValue, fmt.Sprint(v.LineNumber)})
		}
		r.Add(NewTable("Variables", []string{"Name", "Kind", "Type", "Default", "Line"}, rows, nil, nil))
	}

	if ba := res.BehavioralAnalysis; ba != nil && len(ba.MethodSummaries) > 0 {
		rows := make([][]string, 0, len(ba.MethodSummaries))
		for _, m := range ba.MethodSummaries {
			rows = append(rows, []string{
				m.Name,
				fmt.Sprint(m.LineNumber),
				list(m.InternalCalls),
				list(m.ExternalCalls),
				fmt.Sprint(len(m.BuiltinCalls)),
				list(m.SignalsEmitted),
			})
		}
		r.Add(NewTable("Methods", []string{"Method", "Line", "Internal", "External", "Builtin", "Emits"}, rows,
			[]string{fmt.Sprintf("Methods: %d", len(rows))}, nil))
	}

	if len(decl.Dependencies) > 0 {
		rows := make([][]string, 0, len(decl.Dependencies))
		for _, d := range decl.Dependencies {
			target := d.Target
			if d.ResolvedPath != "" && d.ResolvedPath != d.Target {
				target += " -> " + d.ResolvedPath
			}
			rows = append(rows, []string{string(d.Kind), target, fmt.Sprint(d.LineNumber)})
		}
		r.Add(NewTable("Dependencies", []string{"Kind", "Target", "Line"}, rows, nil, nil))
	}

	if ba := res.BehavioralAnalysis; ba != nil {
		si := ba.SceneInteractions
		r.Add(&Section{Title: "Scene Interactions", Content: strings.Join([]string{
			"Node queries:       " + list(si.NodeQueries),
			"Tree manipulation:  " + list(si.TreeManipulation),
			"Scene loading:      " + list(si.SceneLoading),
			"Calls down:         " + list(si.DownwardCommunication),
			"Signals up:         " + list(si.UpwardCommunication),
			fmt.Sprintf("Signal connections: %d", len(si.SignalConnections)),
		}, "\n")})
	}

	if fl := res.BehavioralFlows; fl != nil {
		calls := make([]string, 0, len(fl.CallFlows))
		for _, e := range fl.CallFlows {
			calls = append(calls, e.From+" -> "+e.To)
		}
		r.Add(&Section{Title: "Flows", Content: strings.Join([]string{
			"Entry points:         " + list(fl.EntryPoints),
			"Call flows:           " + list(calls),
			"Unused signals:       " + list(fl.UnusedSignals),
			"Undeclared emissions: " + list(fl.UndeclaredEmissions),
		}, "\n")})
	}
	return r
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
