package layout

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursebook/internal/domain"
	"coursebook/internal/tree"
)

func goldenTree() domain.TreeNode {
	return domain.TreeNode{ID: "root", Label: "Central", Children: []domain.TreeNode{
		{ID: "1", Label: "Branch 1", Children: []domain.TreeNode{{ID: "2", Label: "Leaf"}}},
		{ID: "3", Label: "Branch 2"},
	}}
}

// wide builds a tree with uneven fan-out and depth.
func wide() domain.TreeNode {
	root := domain.TreeNode{ID: "root", Label: "Root"}
	for i := 0; i < 4; i++ {
		branch := domain.TreeNode{ID: fmt.Sprintf("b%d", i), Label: "Branch"}
		for j := 0; j < i; j++ {
			leaf := domain.TreeNode{ID: fmt.Sprintf("b%d-%d", i, j), Label: "Leaf"}
			if j == 1 {
				leaf.Children = []domain.TreeNode{
					{ID: leaf.ID + "-x", Label: "Deep"},
					{ID: leaf.ID + "-y", Label: "Deep"},
					{ID: leaf.ID + "-z", Label: "Deep"},
				}
			}
			branch.Children = append(branch.Children, leaf)
		}
		root.Children = append(root.Children, branch)
	}
	return root
}

func TestCompute_Golden(t *testing.T) {
	le := NewEngine(Config{})
	tests := []struct {
		name      string
		collapsed tree.CollapseSet
	}{
		{"expanded", tree.NewCollapseSet()},
		{"collapsed", tree.NewCollapseSet("1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := le.Compute(goldenTree(), tt.collapsed)
			data, err := json.MarshalIndent(res, "", "  ")
			require.NoError(t, err)

			g := goldie.New(t)
			g.Assert(t, tt.name, append(data, '\n'))
		})
	}
}

func TestFlatten_VisitsEveryNodeOnce(t *testing.T) {
	root := wide()
	flat := Flatten(root, tree.NewCollapseSet())

	assert.Len(t, flat.Nodes, tree.Count(root))
	assert.Len(t, flat.Edges, tree.Count(root)-1)

	seen := map[string]int{}
	for _, n := range flat.Nodes {
		seen[n.ID]++
	}
	for id, c := range seen {
		assert.Equal(t, 1, c, id)
	}
}

func TestFlatten_PreOrder(t *testing.T) {
	flat := Flatten(goldenTree(), tree.CollapseSet{})
	var ids []string
	for _, n := range flat.Nodes {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"root", "1", "2", "3"}, ids)
	assert.Equal(t, "e-1-2", flat.Edges[1].ID)
}

func TestFlatten_CollapsedExcludesDescendants(t *testing.T) {
	root := wide()
	flat := Flatten(root, tree.NewCollapseSet("b3"))

	ids := map[string]bool{}
	for _, n := range flat.Nodes {
		ids[n.ID] = true
	}
	assert.True(t, ids["b3"], "collapsed node itself stays")
	b3, _ := tree.Find(root, "b3")
	for _, id := range tree.IDs(b3)[1:] {
		assert.False(t, ids[id], "descendant %s must be omitted", id)
	}
	for _, e := range flat.Edges {
		assert.NotEqual(t, "b3", e.Source)
	}
}

func TestFlatten_CollapsedLeafIsNoop(t *testing.T) {
	root := goldenTree()
	a := Flatten(root, tree.NewCollapseSet())
	b := Flatten(root, tree.NewCollapseSet("2", "3"))
	assert.Equal(t, a, b)
}

func TestLayout_Deterministic(t *testing.T) {
	le := NewEngine(DefaultConfig())
	flat := Flatten(wide(), tree.NewCollapseSet("b2-1"))

	first := le.Layout(flat.Nodes, flat.Edges)
	second := le.Layout(flat.Nodes, flat.Edges)
	assert.Equal(t, first, second)
}

func TestLayout_NoOverlaps(t *testing.T) {
	le := NewEngine(DefaultConfig())
	for _, collapsed := range []tree.CollapseSet{
		tree.NewCollapseSet(),
		tree.NewCollapseSet("b3-1"),
		tree.NewCollapseSet("b1", "b2"),
	} {
		res := le.Compute(wide(), collapsed)
		assert.Empty(t, le.Overlaps(res.Graph.Nodes))
	}
}

func TestLayout_RanksFollowDepth(t *testing.T) {
	le := NewEngine(DefaultConfig())
	res := le.Compute(wide(), tree.CollapseSet{})
	step := NodeHeight + RankSep
	for _, n := range res.Graph.Nodes {
		assert.Equal(t, float64(n.Data.Depth)*step, n.Y, n.ID)
	}
}

func TestLayout_ParentIsCentroidOfChildren(t *testing.T) {
	le := NewEngine(DefaultConfig())
	res := le.Compute(wide(), tree.CollapseSet{})
	x := map[string]float64{}
	for _, n := range res.Graph.Nodes {
		x[n.ID] = n.X
	}
	kids := map[string][]string{}
	for _, e := range res.Graph.Edges {
		kids[e.Source] = append(kids[e.Source], e.Target)
	}
	for parent, cs := range kids {
		var sum float64
		for _, c := range cs {
			sum += x[c]
		}
		assert.InDelta(t, sum/float64(len(cs)), x[parent], 1e-9, parent)
	}
}

func TestLayout_SiblingsLeftToRight(t *testing.T) {
	le := NewEngine(DefaultConfig())
	res := le.Compute(goldenTree(), tree.CollapseSet{})
	pos := map[string]float64{}
	for _, n := range res.Graph.Nodes {
		pos[n.ID] = n.X
	}
	assert.Less(t, pos["1"], pos["3"])
}

func TestLayout_Empty(t *testing.T) {
	le := NewEngine(DefaultConfig())
	g := le.Layout(nil, nil)
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Edges)
	assert.Nil(t, le.Extent(g.Nodes))
}

func TestCompute_EmptyTree(t *testing.T) {
	le := NewEngine(DefaultConfig())
	assert.Empty(t, Flatten(domain.TreeNode{}, tree.CollapseSet{}).Nodes)

	res := le.Compute(domain.TreeNode{}, tree.CollapseSet{})
	assert.Empty(t, res.Graph.Nodes)
	assert.Empty(t, res.Graph.Edges)
	assert.Nil(t, res.Extent)
}

func TestLayout_SingleNode(t *testing.T) {
	le := NewEngine(DefaultConfig())
	res := le.Compute(domain.TreeNode{ID: "root", Label: "Only"}, tree.CollapseSet{})
	require.Len(t, res.Graph.Nodes, 1)
	assert.Equal(t, 0.0, res.Graph.Nodes[0].X)
	require.NotNil(t, res.Extent)
	assert.Equal(t, NodeWidth+2*Padding, res.Extent.Width())
	assert.Equal(t, NodeHeight+2*Padding, res.Extent.Height())
}

func TestLayout_CycleAndForest(t *testing.T) {
	le := NewEngine(DefaultConfig())
	nodes := []domain.GraphNode{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	edges := []domain.Edge{
		{ID: "ab", Source: "a", Target: "b"},
		{ID: "ba", Source: "b", Target: "a"},
		{ID: "cx", Source: "c", Target: "missing"},
	}
	g := le.Layout(nodes, edges)
	require.Len(t, g.Nodes, 4)
	assert.Empty(t, le.Overlaps(g.Nodes))
	assert.Len(t, g.Edges, 2)
}

func TestRectIntersects(t *testing.T) {
	tests := []struct {
		a, b rect
		want bool
	}{
		{rect{0, 0, 10, 10}, rect{5, 5, 10, 10}, true},
		{rect{0, 0, 10, 10}, rect{10, 0, 10, 10}, false},
		{rect{0, 0, 10, 10}, rect{0, 20, 10, 10}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.a.intersects(tt.b))
	}
}

func TestNewEngine_Defaults(t *testing.T) {
	le := NewEngine(Config{NodeWidth: 200})
	assert.Equal(t, 200.0, le.Config().NodeWidth)
	assert.Equal(t, NodeHeight, le.Config().NodeHeight)
}
