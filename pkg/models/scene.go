package models

// RootPath is the node path of a scene's root node.
const RootPath = "."

// Property is a raw `key = value` assignment under a scene node.
type Property struct {
	Value   string `json:"value" toon:"value"`
	RawLine string `json:"raw_line" toon:"raw_line"`
}

// SceneNode is one `[node]` declaration. Children are filled in by the
// hierarchy builder; ParentPath is empty for the root.
type SceneNode struct {
	Name       string              `json:"name" toon:"name"`
	Type       string              `json:"type,omitempty" toon:"type,omitempty"`
	Path       string              `json:"path" toon:"path"`
	ParentPath string              `json:"parent_path,omitempty" toon:"parent_path,omitempty"`
	Instance   string              `json:"instance,omitempty" toon:"instance,omitempty"`
	Groups     []string            `json:"groups,omitempty" toon:"groups,omitempty"`
	Properties map[string]Property `json:"properties,omitempty" toon:"properties,omitempty"`
	LineNumber int                 `json:"line_number" toon:"line_number"`
	Children   []*SceneNode        `json:"children" toon:"children"`
}

// IsRoot reports whether the node was declared without a parent attribute.
func (n *SceneNode) IsRoot() bool {
	return n.ParentPath == ""
}

// Walk visits n and its descendants depth first, stopping at maxDepth
// levels below n when maxDepth is positive.
func (n *SceneNode) Walk(maxDepth int, fn func(node *SceneNode, depth int)) {
	n.walk(0, maxDepth, fn)
}

func (n *SceneNode) walk(depth, maxDepth int, fn func(*SceneNode, int)) {
	fn(n, depth)
	if maxDepth > 0 && depth >= maxDepth {
		return
	}
	for _, c := range n.Children {
		c.walk(depth+1, maxDepth, fn)
	}
}

// CountNodes returns the number of nodes in the subtree rooted at n.
func (n *SceneNode) CountNodes() int {
	count := 0
	n.Walk(0, func(*SceneNode, int) { count++ })
	return count
}

// SceneConnection is a `[connection]` entry wiring a signal to a method.
type SceneConnection struct {
	Signal     string `json:"signal" toon:"signal"`
	From       string `json:"from" toon:"from"`
	To         string `json:"to" toon:"to"`
	Method     string `json:"method" toon:"method"`
	Flags      string `json:"flags,omitempty" toon:"flags,omitempty"`
	LineNumber int    `json:"line_number" toon:"line_number"`
}

// ExtResource is an `[ext_resource]` declaration.
type ExtResource struct {
	ID   string `json:"id" toon:"id"`
	Path string `json:"path" toon:"path"`
	Type string `json:"type,omitempty" toon:"type,omitempty"`
	UID  string `json:"uid,omitempty" toon:"uid,omitempty"`
}

// ExtResourceMap maps resource ids to their declarations. It is scoped to a
// single scene file.
type ExtResourceMap map[string]ExtResource

// PathOf returns the path registered for id.
func (m ExtResourceMap) PathOf(id string) (string, bool) {
	r, ok := m[id]
	if !ok {
		return "", false
	}
	return r.Path, true
}

// SubResource is a `[sub_resource]` declaration.
type SubResource struct {
	ID   string `json:"id" toon:"id"`
	Type string `json:"type" toon:"type"`
}

// SceneFile is the flat parse of a scene file before the hierarchy is built.
type SceneFile struct {
	Format       string            `json:"format,omitempty" toon:"format,omitempty"`
	UID          string            `json:"uid,omitempty" toon:"uid,omitempty"`
	Nodes        []*SceneNode      `json:"nodes" toon:"nodes"`
	Connections  []SceneConnection `json:"connections" toon:"connections"`
	ExtResources ExtResourceMap    `json:"ext_resources" toon:"ext_resources"`
	SubResources []SubResource     `json:"sub_resources,omitempty" toon:"sub_resources,omitempty"`
}

// SceneTree is the hierarchy built from a SceneFile.
type SceneTree struct {
	Root    *SceneNode   `json:"root" toon:"root"`
	Orphans []*SceneNode `json:"orphans,omitempty" toon:"orphans,omitempty"`
}
