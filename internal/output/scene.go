package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/panbanda/gdlens/pkg/models"
)

// Tree draws a scene hierarchy with box characters, one node per line.
// Nodes with an attached script show it in brackets.
func Tree(root *models.SceneNode, scripts map[string]string) string {
	if root == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(nodeLabel(root, scripts))
	b.WriteByte('\n')
	drawChildren(&b, root, "", scripts)
	return b.String()
}

func drawChildren(b *strings.Builder, n *models.SceneNode, prefix string, scripts map[string]string) {
	for i, c := range n.Children {
		branch, next := "├── ", "│   "
		if i == len(n.Children)-1 {
			branch, next = "└── ", "    "
		}
		b.WriteString(prefix + branch + nodeLabel(c, scripts) + "\n")
		drawChildren(b, c, prefix+next, scripts)
	}
}

func nodeLabel(n *models.SceneNode, scripts map[string]string) string {
	label := n.Name
	switch {
	case n.Type != "":
		label += " (" + n.Type + ")"
	case n.Instance != "":
		label += " (instance of " + n.Instance + ")"
	}
	if s, ok := scripts[n.Path]; ok {
		label += " [" + s + "]"
	}
	return label
}

// SceneReport renders the analysis of one scene.
func SceneReport(res *models.SceneResult) *Report {
	r := &Report{Title: "Scene: " + res.ScenePath, Data: res}
	if res.Failed() || res.Structure == nil {
		r.Add(failure(res.ScenePath, res.Error))
		return r
	}
	st := res.Structure

	scripts := make(map[string]string, len(res.NodeScriptMapping))
	for _, m := range res.NodeScriptMapping {
		scripts[m.NodePath] = m.ScriptPath
	}
	r.Add(&Section{
		Title: "Hierarchy",
		Content: fmt.Sprintf("Root: %s (%s), %d nodes, %d external resources, %d sub-resources\n\n%s",
			st.RootName, orDash(st.RootType), st.NodeCount, len(st.ExtResources), st.SubResourceCount,
			Tree(st.Hierarchy, scripts)),
		Code: "text",
	})

	mapping := make([][]string, 0, len(res.NodeScriptMapping))
	for _, m := range res.NodeScriptMapping {
		mapping = append(mapping, []string{m.NodePath, m.ScriptPath, scriptStatus(res.ScriptInsights[m.ScriptPath])})
	}
	r.Add(&Table{
		Title:   "Scripts",
		Headers: []string{"Node", "Script", "Status"},
		Rows:    mapping,
		Empty:   "No scripts attached",
	})

	if len(res.UnresolvedScripts) > 0 {
		rows := make([][]string, 0, len(res.UnresolvedScripts))
		for _, u := range res.UnresolvedScripts {
			rows = append(rows, []string{u.NodePath, u.Reference, u.Reason})
		}
		r.Add(NewTable("Unresolved Scripts", []string{"Node", "Reference", "Reason"}, rows, nil, nil))
	}

	if si := res.SceneInsights; si != nil {
		r.Add(&Section{Title: "Insights", Content: strings.Join([]string{
			fmt.Sprintf("Scripts:         %d (%d failed)", si.ScriptCount, si.FailedScripts),
			"Complexity:      " + string(si.Complexity),
			"Patterns:        " + list(patterns(si.Patterns)),
			"Lifecycle:       " + list(si.LifecycleMethods),
			fmt.Sprintf("Event handlers:  %d", si.EventHandlerCount),
			"Signals defined: " + list(si.SignalsDefined),
			"Signals emitted: " + list(si.SignalsEmitted),
		}, "\n")})

		if len(si.ConnectionFlows) > 0 {
			rows := make([][]string, 0, len(si.ConnectionFlows))
			for _, f := range si.ConnectionFlows {
				rows = append(rows, []string{f.Signal, f.From, f.To, f.Method, Mark(f.HandlerFound, false)})
			}
			r.Add(NewTable("Connections", []string{"Signal", "From", "To", "Method", "Handler"}, rows, nil, nil))
		}
	} else if len(st.Connections) > 0 {
		rows := make([][]string, 0, len(st.Connections))
		for _, c := range st.Connections {
			rows = append(rows, []string{c.Signal, c.From, c.To, c.Method})
		}
		r.Add(NewTable("Connections", []string{"Signal", "From", "To", "Method"}, rows, nil, nil))
	}

	var failed []string
	for path, sr := range res.ScriptInsights {
		if sr.Failed() {
			failed = append(failed, fmt.Sprintf("%s: %s", path, sr.Error))
		}
	}
	if len(failed) > 0 {
		sort.Strings(failed)
		r.Add(&Section{Title: "Script Errors", Content: strings.Join(failed, "\n")})
	}
	return r
}

func scriptStatus(sr *models.ScriptResult) string {
	switch {
	case sr == nil:
		return "-"
	case sr.Failed():
		return "failed"
	case sr.BehavioralContext != nil:
		return string(sr.BehavioralContext.Complexity)
	default:
		return "ok"
	}
}
