package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/panbanda/gdlens/internal/service/analysis"
	"github.com/panbanda/gdlens/pkg/analyzer/graph"
	"github.com/panbanda/gdlens/pkg/stats"
)

// TopRanked is how many nodes the graph summary lists by PageRank.
const TopRanked = 5

// ProjectReport renders a project-wide analysis. Per-file errors are
// listed only when verbose is set; otherwise they are counted.
func ProjectReport(res *analysis.ProjectResult, verbose bool) *Report {
	r := &Report{Title: "Project: " + res.Root, Data: res}

	in := res.Insights
	summary := []string{
		fmt.Sprintf("Scripts: %d", res.ScriptCount),
		fmt.Sprintf("Scenes:  %d", res.SceneCount),
		fmt.Sprintf("Errors:  %d", len(res.Errors)),
		"Classes: " + orDash(res.ClassSource),
	}
	if len(res.Skipped) > 0 {
		summary = append(summary, fmt.Sprintf("Skipped: %d", len(res.Skipped)))
	}
	if in != nil {
		summary = append(summary,
			"",
			"Complexity:      "+string(in.Complexity),
			"Patterns:        "+list(patterns(in.Patterns)),
			fmt.Sprintf("Event handlers:  %d", in.EventHandlerCount),
			"Signals defined: "+list(in.SignalsDefined),
			"Signals emitted: "+list(in.SignalsEmitted),
		)
	}
	r.Add(&Section{Title: "Summary", Content: strings.Join(summary, "\n")})

	scenes := make([][]string, 0, len(res.Scenes))
	for _, s := range res.Scenes {
		scenes = append(scenes, []string{
			s.ScenePath,
			orDash(s.RootType),
			fmt.Sprint(s.NodeCount),
			fmt.Sprint(len(s.Scripts)),
			list(s.Instances),
		})
	}
	r.Add(&Table{
		Title:   "Scenes",
		Headers: []string{"Scene", "Root", "Nodes", "Scripts", "Instances"},
		Rows:    scenes,
		Empty:   "No scenes found",
	})

	if len(res.Scripts) > 0 {
		rows := make([][]string, 0, len(res.Scripts))
		for _, s := range res.Scripts {
			rows = append(rows, []string{
				s.ScriptPath,
				orDash(s.Structure.ClassName),
				orDash(s.Structure.Extends),
				fmt.Sprint(len(s.Structure.Methods)),
				fmt.Sprint(len(s.Structure.Signals)),
				string(s.BehavioralContext.Complexity),
			})
		}
		r.Add(NewTable("Scripts", []string{"Script", "Class", "Extends", "Methods", "Signals", "Complexity"}, rows, nil, nil))
	}

	if st := res.Stats; st.Methods.Count > 0 {
		rows := [][]string{
			summaryRow("Methods", st.Methods),
			summaryRow("Signals", st.Signals),
			summaryRow("Variables", st.Variables),
		}
		r.Add(NewTable("Script sizes", []string{"Per script", "Total", "Mean", "P50", "P90", "Max"}, rows, nil, nil))
	}

	if m := res.Metrics; m != nil {
		r.Add(graphSummary(m))
	}

	if verbose && len(res.Errors) > 0 {
		rows := make([][]string, 0, len(res.Errors))
		for _, e := range res.Errors {
			rows = append(rows, []string{e.Path, e.Error})
		}
		r.Add(NewTable("Errors", []string{"File", "Error"}, rows, nil, nil))
	}
	return r
}

func graphSummary(m *graph.Metrics) *Section {
	s := m.Summary
	lines := []string{
		fmt.Sprintf("Nodes: %d", s.TotalNodes),
		fmt.Sprintf("Edges: %d", s.TotalEdges),
		fmt.Sprintf("Avg degree: %.2f", s.AvgDegree),
		fmt.Sprintf("Density: %.4f", s.Density),
		fmt.Sprintf("Components: %d (largest %d)", s.Components, s.LargestComponent),
		fmt.Sprintf("Cycles: %d", s.CycleCount),
	}
	for _, c := range s.Cycles {
		lines = append(lines, "  "+strings.Join(c, " -> "))
	}

	ranked := make([]graph.NodeMetric, len(m.NodeMetrics))
	copy(ranked, m.NodeMetrics)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].PageRank > ranked[j].PageRank })
	if len(ranked) > TopRanked {
		ranked = ranked[:TopRanked]
	}
	if len(ranked) > 0 {
		lines = append(lines, "", "Top nodes by PageRank:")
		for _, nm := range ranked {
			lines = append(lines, fmt.Sprintf("  %s: %.4f (in: %d, out: %d)", nm.Name, nm.PageRank, nm.InDegree, nm.OutDegree))
		}
	}
	return &Section{Title: "Dependency Graph", Content: strings.Join(lines, "\n")}
}

// GraphData is the structured form of a graph report.
type GraphData struct {
	Graph   *graph.DependencyGraph `json:"graph" toon:"graph"`
	Mermaid string                 `json:"mermaid" toon:"mermaid"`
	Metrics *graph.Metrics         `json:"metrics,omitempty" toon:"metrics,omitempty"`
}

// GraphReport renders a dependency graph as a Mermaid diagram, followed by
// its metrics when they are given.
func GraphReport(g *graph.DependencyGraph, metrics *graph.Metrics, opts graph.MermaidOptions) *Report {
	diagram := g.ToMermaidWithOptions(opts)
	r := &Report{Data: GraphData{Graph: g, Mermaid: diagram, Metrics: metrics}}
	r.Add(&Section{Content: diagram, Code: "mermaid"})
	if metrics != nil {
		r.Add(graphSummary(metrics))
	}
	return r
}

// ClassesReport renders the class registry of a project.
func ClassesReport(cl *analysis.ClassList) *Table {
	rows := make([][]string, 0, len(cl.Classes))
	autoloads := 0
	for _, c := range cl.Classes {
		kind := "class"
		if c.Autoload {
			kind = "autoload"
			autoloads++
		}
		rows = append(rows, []string{c.Name, kind, orDash(c.Base), orDash(c.EngineBase), c.Path})
	}
	return &Table{
		Title:   fmt.Sprintf("Classes (%s)", cl.Source),
		Headers: []string{"Name", "Kind", "Base", "Engine base", "Path"},
		Rows:    rows,
		Footer:  []string{fmt.Sprintf("Classes: %d", len(rows)-autoloads), fmt.Sprintf("Autoloads: %d", autoloads), "", "", ""},
		Empty:   "No global classes registered",
		Data:    cl,
	}
}

func summaryRow(name string, s stats.Summary) []string {
	return []string{
		name,
		fmt.Sprint(s.Total),
		fmt.Sprint(s.Mean),
		fmt.Sprint(s.P50),
		fmt.Sprint(s.P90),
		fmt.Sprint(s.Max),
	}
}
