package layout

import (
	"coursebook/internal/domain"
	"coursebook/internal/tree"
)

// FlatGraph is the unpositioned output of Flatten.
type FlatGraph struct {
	Nodes []domain.GraphNode
	Edges []domain.Edge
}

// EdgeID names the edge between a parent and one of its children.
func EdgeID(source, target string) string {
	return "e-" + source + "-" + target
}

// Flatten walks the tree in pre-order and emits one node per tree node and
// one edge per parent→child relation. It does not descend into collapsed
// nodes, so their descendants are absent from the output. The empty tree
// flattens to an empty graph.
func Flatten(root domain.TreeNode, collapsed tree.CollapseSet) FlatGraph {
	var g FlatGraph
	if root.IsZero() {
		return g
	}
	flatten(root, 0, collapsed, &g)
	return g
}

func flatten(n domain.TreeNode, depth int, collapsed tree.CollapseSet, g *FlatGraph) {
	folded := collapsed.Has(n.ID) && !n.IsLeaf()
	g.Nodes = append(g.Nodes, domain.GraphNode{
		ID: n.ID,
		Data: domain.NodeData{
			Label:       n.Label,
			Depth:       depth,
			ChildCount:  len(n.Children),
			HasChildren: !n.IsLeaf(),
			Collapsed:   folded,
		},
	})
	if folded {
		return
	}
	for _, c := range n.Children {
		g.Edges = append(g.Edges, domain.Edge{
			ID:     EdgeID(n.ID, c.ID),
			Source: n.ID,
			Target: c.ID,
		})
		flatten(c, depth+1, collapsed, g)
	}
}
