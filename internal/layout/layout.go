package layout

import (
	"coursebook/internal/domain"
	"coursebook/internal/tree"
)

const (
	NodeWidth  = 180.0
	NodeHeight = 40.0
	NodeSep    = 40.0  // horizontal gap between neighbours in a rank
	RankSep    = 80.0  // vertical gap between ranks
	Padding    = 100.0 // margin added around the extent
)

// Config holds the fixed node footprint and spacing. Zero fields fall back to
// the package defaults.
type Config struct {
	NodeWidth  float64 `yaml:"nodeWidth" validate:"gte=0"`
	NodeHeight float64 `yaml:"nodeHeight" validate:"gte=0"`
	NodeSep    float64 `yaml:"nodeSep" validate:"gte=0"`
	RankSep    float64 `yaml:"rankSep" validate:"gte=0"`
	Padding    float64 `yaml:"padding" validate:"gte=0"`
}

func DefaultConfig() Config {
	return Config{
		NodeWidth:  NodeWidth,
		NodeHeight: NodeHeight,
		NodeSep:    NodeSep,
		RankSep:    RankSep,
		Padding:    Padding,
	}
}

// Engine assigns positions to flattened mind map graphs. Layout is a pure
// function of its input: the same nodes and edges always produce the same
// positions.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.NodeWidth <= 0 {
		cfg.NodeWidth = def.NodeWidth
	}
	if cfg.NodeHeight <= 0 {
		cfg.NodeHeight = def.NodeHeight
	}
	if cfg.NodeSep <= 0 {
		cfg.NodeSep = def.NodeSep
	}
	if cfg.RankSep <= 0 {
		cfg.RankSep = def.RankSep
	}
	if cfg.Padding <= 0 {
		cfg.Padding = def.Padding
	}
	return &Engine{cfg: cfg}
}

func (le *Engine) Config() Config { return le.cfg }

// Result bundles a positioned graph with its viewport extent. Extent is nil
// when the graph is empty.
type Result struct {
	Graph  domain.PositionedGraph `json:"graph"`
	Extent *domain.BoundingBox    `json:"extent,omitempty"`
}

// Compute flattens, lays out and measures a tree in one step.
func (le *Engine) Compute(root domain.TreeNode, collapsed tree.CollapseSet) Result {
	flat := Flatten(root, collapsed)
	g := le.Layout(flat.Nodes, flat.Edges)
	return Result{Graph: g, Extent: le.Extent(g.Nodes)}
}

// Layout ranks every node by its depth from a root (rank 0 at the top) and
// orders siblings left to right in edge order. Leaves are packed into
// consecutive slots and each parent is centred on the mean of its children,
// which keeps footprints within a rank from overlapping. Positions are the
// top-left corners of the footprints.
//
// A node's parent is the source of the first edge that targets it. Nodes with
// no parent are roots and are laid out side by side in input order; nodes only
// reachable through a cycle are treated as roots afterwards.
func (le *Engine) Layout(nodes []domain.GraphNode, edges []domain.Edge) domain.PositionedGraph {
	out := domain.PositionedGraph{
		Nodes: make([]domain.PositionedNode, 0, len(nodes)),
		Edges: make([]domain.Edge, 0, len(edges)),
	}
	if len(nodes) == 0 {
		return out
	}

	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}

	parent := make(map[string]string, len(nodes))
	children := make(map[string][]string, len(nodes))
	for _, e := range edges {
		if !known[e.Source] || !known[e.Target] || e.Source == e.Target {
			continue
		}
		if _, has := parent[e.Target]; has {
			continue
		}
		parent[e.Target] = e.Source
		children[e.Source] = append(children[e.Source], e.Target)
		out.Edges = append(out.Edges, e)
	}

	p := placer{
		cfg:      le.cfg,
		children: children,
		x:        make(map[string]float64, len(nodes)),
		rank:     make(map[string]int, len(nodes)),
	}
	for _, n := range nodes {
		if _, has := parent[n.ID]; !has {
			p.place(n.ID, 0)
		}
	}
	for _, n := range nodes {
		p.place(n.ID, 0)
	}

	placed := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if placed[n.ID] {
			continue
		}
		placed[n.ID] = true
		out.Nodes = append(out.Nodes, domain.PositionedNode{
			ID:   n.ID,
			X:    p.x[n.ID],
			Y:    float64(p.rank[n.ID]) * (le.cfg.NodeHeight + le.cfg.RankSep),
			Data: n.Data,
		})
	}
	return out
}

type placer struct {
	cfg      Config
	children map[string][]string
	x        map[string]float64
	rank     map[string]int
	slot     int
}

// place positions id and its unplaced descendants and returns id's x.
func (p *placer) place(id string, rank int) float64 {
	if x, done := p.x[id]; done {
		return x
	}
	p.rank[id] = rank
	// reserve the entry so a cycle back to id terminates
	p.x[id] = 0

	var sum float64
	n := 0
	for _, c := range p.children[id] {
		if _, done := p.x[c]; done {
			continue
		}
		sum += p.place(c, rank+1)
		n++
	}

	var x float64
	if n == 0 {
		x = float64(p.slot) * (p.cfg.NodeWidth + p.cfg.NodeSep)
		p.slot++
	} else {
		x = sum / float64(n)
	}
	p.x[id] = x
	return x
}

// Extent returns the bounding box of every node footprint plus padding, or
// nil when there are no nodes.
func (le *Engine) Extent(nodes []domain.PositionedNode) *domain.BoundingBox {
	if len(nodes) == 0 {
		return nil
	}
	first := footprint(nodes[0], le.cfg)
	box := domain.BoundingBox{MinX: first.x, MinY: first.y, MaxX: first.x + first.w, MaxY: first.y + first.h}
	for _, n := range nodes[1:] {
		r := footprint(n, le.cfg)
		box.MinX = min(box.MinX, r.x)
		box.MinY = min(box.MinY, r.y)
		box.MaxX = max(box.MaxX, r.x+r.w)
		box.MaxY = max(box.MaxY, r.y+r.h)
	}
	box.MinX -= le.cfg.Padding
	box.MinY -= le.cfg.Padding
	box.MaxX += le.cfg.Padding
	box.MaxY += le.cfg.Padding
	return &box
}

// rect is a simple axis-aligned bounding box.
type rect struct {
	x, y, w, h float64
}

func (a rect) intersects(b rect) bool {
	return a.x < b.x+b.w && a.x+a.w > b.x &&
		a.y < b.y+b.h && a.y+a.h > b.y
}

func footprint(n domain.PositionedNode, cfg Config) rect {
	return rect{n.X, n.Y, cfg.NodeWidth, cfg.NodeHeight}
}

// Overlaps returns the id pairs whose footprints intersect.
func (le *Engine) Overlaps(nodes []domain.PositionedNode) [][2]string {
	var pairs [][2]string
	for i := 0; i < len(nodes); i++ {
		a := footprint(nodes[i], le.cfg)
		for j := i + 1; j < len(nodes); j++ {
			if a.intersects(footprint(nodes[j], le.cfg)) {
				pairs = append(pairs, [2]string{nodes[i].ID, nodes[j].ID})
			}
		}
	}
	return pairs
}
