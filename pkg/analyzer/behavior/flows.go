package behavior

import "github.com/panbanda/gdlens/pkg/models"

// Flows traces signals and internal calls through a script.
func (a *Analyzer) Flows(decl *models.ScriptDeclaration, summaries []models.MethodSummary) *models.BehavioralFlows {
	f := &models.BehavioralFlows{
		SignalFlows:         make([]models.SignalFlow, 0),
		CallFlows:           make([]models.CallEdge, 0),
		EntryPoints:         make([]string, 0),
		UnusedSignals:       make([]string, 0),
		UndeclaredEmissions: make([]string, 0),
	}

	declared := make(map[string]bool, len(decl.Signals))
	order := make([]string, 0, len(decl.Signals))
	for _, s := range decl.Signals {
		if !declared[s.Name] {
			declared[s.Name] = true
			order = append(order, s.Name)
		}
	}
	emitters := make(map[string][]string)
	for _, e := range decl.SignalEmissions {
		if _, seen := emitters[e.Signal]; !seen && !declared[e.Signal] {
			order = append(order, e.Signal)
		}
		emitters[e.Signal] = models.AppendUnique(emitters[e.Signal], e.Method)
	}
	for _, name := range order {
		flow := models.SignalFlow{Signal: name, Declared: declared[name], Emitters: emitters[name]}
		if flow.Emitters == nil {
			flow.Emitters = make([]string, 0)
		}
		f.SignalFlows = append(f.SignalFlows, flow)
		switch {
		case flow.Declared && len(flow.Emitters) == 0:
			f.UnusedSignals = append(f.UnusedSignals, name)
		case !flow.Declared:
			f.UndeclaredEmissions = append(f.UndeclaredEmissions, name)
		}
	}

	seen := make(map[models.CallEdge]bool)
	for _, s := range summaries {
		for _, callee := range s.InternalCalls {
			edge := models.CallEdge{From: s.Name, To: callee}
			if !seen[edge] {
				seen[edge] = true
				f.CallFlows = append(f.CallFlows, edge)
			}
		}
	}

	for _, m := range decl.Methods {
		if IsLifecycle(m.Name) || a.IsEventHandler(m.Name) {
			f.EntryPoints = models.AppendUnique(f.EntryPoints, m.Name)
		}
	}
	return f
}
