package graph

import (
	"sort"
	"strings"

	"github.com/panbanda/gdlens/pkg/models"
)

// Node is a file or class in the project dependency graph.
type Node struct {
	ID   string   `json:"id" toon:"id"`
	Name string   `json:"name" toon:"name"`
	Type NodeType `json:"type" toon:"type"`
}

// NodeType represents the type of graph node.
type NodeType string

const (
	NodeScript   NodeType = "script"
	NodeScene    NodeType = "scene"
	NodeResource NodeType = "resource"
	NodeClass    NodeType = "class"
)

// String returns the string representation.
func (n NodeType) String() string {
	return string(n)
}

// Edge is a dependency between two nodes. Weight counts the references
// folded into the edge.
type Edge struct {
	From   string   `json:"from" toon:"from"`
	To     string   `json:"to" toon:"to"`
	Type   EdgeType `json:"type" toon:"type"`
	Weight int      `json:"weight" toon:"weight"`
}

// EdgeType is a dependency kind, plus the scene-only kinds below.
type EdgeType string

const (
	EdgeAttaches  EdgeType = "attaches"
	EdgeInstances EdgeType = "instances"
)

// EdgeTypeOf maps a script dependency kind to its edge type.
func EdgeTypeOf(kind models.DependencyKind) EdgeType {
	return EdgeType(kind)
}

// String returns the string representation.
func (e EdgeType) String() string {
	return string(e)
}

// DependencyGraph is the project-wide graph. Nodes and edges are sorted
// once the graph is built.
type DependencyGraph struct {
	Nodes []Node `json:"nodes" toon:"nodes"`
	Edges []Edge `json:"edges" toon:"edges"`
}

// NewDependencyGraph creates an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		Nodes: make([]Node, 0),
		Edges: make([]Edge, 0),
	}
}

// Node returns the node with id.
func (g *DependencyGraph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// EdgesFrom returns the outgoing edges of id.
func (g *DependencyGraph) EdgesFrom(id string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.From == id {
			out = append(out, e)
		}
	}
	return out
}

func (g *DependencyGraph) sort() {
	sort.Slice(g.Nodes, func(i, j int) bool { return g.Nodes[i].ID < g.Nodes[j].ID })
	sort.Slice(g.Edges, func(i, j int) bool {
		a, b := g.Edges[i], g.Edges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Type < b.Type
	})
}

// Metrics holds ranking and structure metrics for a graph.
type Metrics struct {
	NodeMetrics []NodeMetric `json:"node_metrics" toon:"node_metrics"`
	Summary     Summary      `json:"summary" toon:"summary"`
}

// NodeMetric represents computed metrics for a single node.
type NodeMetric struct {
	NodeID    string  `json:"node_id" toon:"node_id"`
	Name      string  `json:"name" toon:"name"`
	PageRank  float64 `json:"pagerank" toon:"pagerank"`
	InDegree  int     `json:"in_degree" toon:"in_degree"`
	OutDegree int     `json:"out_degree" toon:"out_degree"`
}

// Summary provides aggregate graph statistics.
type Summary struct {
	TotalNodes       int        `json:"total_nodes" toon:"total_nodes"`
	TotalEdges       int        `json:"total_edges" toon:"total_edges"`
	AvgDegree        float64    `json:"avg_degree" toon:"avg_degree"`
	Density          float64    `json:"density" toon:"density"`
	Components       int        `json:"components" toon:"components"`
	LargestComponent int        `json:"largest_component" toon:"largest_component"`
	CycleCount       int        `json:"cycle_count" toon:"cycle_count"`
	Cycles           [][]string `json:"cycles,omitempty" toon:"cycles,omitempty"`
	IsCyclic         bool       `json:"is_cyclic" toon:"is_cyclic"`
}

// MermaidOptions configures Mermaid diagram generation.
type MermaidOptions struct {
	MaxNodes  int              `json:"max_nodes" toon:"max_nodes"`
	MaxEdges  int              `json:"max_edges" toon:"max_edges"`
	Direction MermaidDirection `json:"direction" toon:"direction"`
}

// MermaidDirection specifies the graph direction.
type MermaidDirection string

const (
	DirectionTD MermaidDirection = "TD" // Top-down
	DirectionLR MermaidDirection = "LR" // Left-right
)

// DefaultMermaidOptions returns sensible defaults.
func DefaultMermaidOptions() MermaidOptions {
	return MermaidOptions{
		MaxNodes:  50,
		MaxEdges:  150,
		Direction: DirectionLR,
	}
}

// ToMermaid generates Mermaid diagram syntax from the graph using default options.
func (g *DependencyGraph) ToMermaid() string {
	return g.ToMermaidWithOptions(DefaultMermaidOptions())
}

// ToMermaidWithOptions generates Mermaid diagram syntax with custom options.
func (g *DependencyGraph) ToMermaidWithOptions(opts MermaidOptions) string {
	direction := opts.Direction
	if direction == "" {
		direction = DirectionTD
	}
	var b strings.Builder
	b.WriteString("graph " + string(direction) + "\n")

	nodes := g.Nodes
	edges := g.Edges
	if opts.MaxNodes > 0 && len(nodes) > opts.MaxNodes {
		nodes = nodes[:opts.MaxNodes]
		nodeSet := make(map[string]bool, len(nodes))
		for _, n := range nodes {
			nodeSet[n.ID] = true
		}
		var filtered []Edge
		for _, e := range edges {
			if nodeSet[e.From] && nodeSet[e.To] {
				filtered = append(filtered, e)
			}
		}
		edges = filtered
	}
	if opts.MaxEdges > 0 && len(edges) > opts.MaxEdges {
		edges = edges[:opts.MaxEdges]
	}

	for _, node := range nodes {
		label := EscapeMermaidLabel(node.Name)
		if label == "" {
			label = EscapeMermaidLabel(node.ID)
		}
		b.WriteString("    " + SanitizeMermaidID(node.ID) + nodeShape(node.Type, label) + "\n")
	}
	for _, edge := range edges {
		b.WriteString("    " + SanitizeMermaidID(edge.From) + " " + edgeArrow(edge.Type) + " " + SanitizeMermaidID(edge.To) + "\n")
	}
	return b.String()
}

func nodeShape(t NodeType, label string) string {
	switch t {
	case NodeScene:
		return "[[\"" + label + "\"]]"
	case NodeResource:
		return "[(\"" + label + "\")]"
	case NodeClass:
		return "{{\"" + label + "\"}}"
	default:
		return "[\"" + label + "\"]"
	}
}

// edgeArrow returns the Mermaid arrow notation for an edge type.
func edgeArrow(t EdgeType) string {
	switch t {
	case EdgeType(models.DepInheritance):
		return "-->|extends|"
	case EdgeType(models.DepPreload), EdgeType(models.DepLoad):
		return "-.->|" + string(t) + "|"
	case EdgeAttaches:
		return "==>|script|"
	case EdgeInstances:
		return "==>|instance|"
	case EdgeType(models.DepTypeHint):
		return "---"
	default:
		return "-->"
	}
}

// SanitizeMermaidID makes an ID safe for Mermaid diagrams.
func SanitizeMermaidID(id string) string {
	if id == "" {
		return "empty"
	}
	result := make([]byte, 0, len(id))
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}
	if result[0] >= '0' && result[0] <= '9' {
		result = append([]byte{'n'}, result...)
	}
	return string(result)
}

var mermaidEscapes = strings.NewReplacer(
	"&", "&amp;",
	`"`, "&quot;",
	"<", "&lt;",
	">", "&gt;",
	"|", "&#124;",
	"[", "&#91;",
	"]", "&#93;",
	"{", "&#123;",
	"}", "&#125;",
	"\n", "<br/>",
)

// EscapeMermaidLabel escapes special characters in labels for Mermaid.
func EscapeMermaidLabel(s string) string {
	return mermaidEscapes.Replace(s)
}
