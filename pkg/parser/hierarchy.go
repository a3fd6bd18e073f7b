package parser

import "github.com/panbanda/gdlens/pkg/models"

// strayParent is the parent path of a parentless node that follows the
// root. It never resolves, since ':' cannot appear in a node name.
const strayParent = ":"

// BuildHierarchy links a flat node list into a tree. Nodes are copied, so
// the input is left untouched. A node is attached only once its parent has
// been placed, which keeps the result acyclic; nodes whose parent cannot be
// found are returned as orphans and left out of the tree.
func BuildHierarchy(nodes []*models.SceneNode) *models.SceneTree {
	tree := &models.SceneTree{}
	byPath := make(map[string]*models.SceneNode, len(nodes))
	byName := make(map[string]*models.SceneNode, len(nodes))

	for _, orig := range nodes {
		n := *orig
		n.Children = make([]*models.SceneNode, 0)

		if tree.Root == nil && n.IsRoot() {
			tree.Root = &n
			byPath[models.RootPath] = &n
			continue
		}

		parent := lookupParent(n.ParentPath, tree.Root, byPath, byName)
		if parent == nil {
			tree.Orphans = append(tree.Orphans, &n)
			continue
		}
		parent.Children = append(parent.Children, &n)
		if _, ok := byPath[n.Path]; !ok {
			byPath[n.Path] = &n
		}
		if _, ok := byName[n.Name]; !ok {
			byName[n.Name] = &n
		}
	}
	return tree
}

func lookupParent(parentPath string, root *models.SceneNode, byPath, byName map[string]*models.SceneNode) *models.SceneNode {
	if parentPath == "" || parentPath == strayParent {
		return nil
	}
	if parentPath == models.RootPath {
		return root
	}
	if p, ok := byPath[parentPath]; ok {
		return p
	}
	return byName[parentPath]
}

// Flatten returns the nodes of root in depth-first order.
func Flatten(root *models.SceneNode) []*models.SceneNode {
	if root == nil {
		return nil
	}
	var out []*models.SceneNode
	root.Walk(0, func(n *models.SceneNode, _ int) {
		out = append(out, n)
	})
	return out
}

// TruncateDepth returns a copy of root whose children stop maxDepth levels
// below the root. A depth of zero or less keeps only the root.
func TruncateDepth(root *models.SceneNode, maxDepth int) *models.SceneNode {
	if root == nil {
		return nil
	}
	return truncate(root, 0, maxDepth)
}

func truncate(n *models.SceneNode, depth, maxDepth int) *models.SceneNode {
	cp := *n
	cp.Children = make([]*models.SceneNode, 0, len(n.Children))
	if depth >= maxDepth {
		return &cp
	}
	for _, c := range n.Children {
		cp.Children = append(cp.Children, truncate(c, depth+1, maxDepth))
	}
	return &cp
}
