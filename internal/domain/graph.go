package domain

// NodeData is the per-node metadata carried through flatten and layout.
type NodeData struct {
	Label       string `json:"label"`
	Depth       int    `json:"depth"`
	ChildCount  int    `json:"childCount"`
	HasChildren bool   `json:"hasChildren"`
	Collapsed   bool   `json:"collapsed"`
}

// GraphNode is an unpositioned node emitted by flatten.
type GraphNode struct {
	ID   string   `json:"id"`
	Data NodeData `json:"data"`
}

type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// PositionedNode carries the top-left corner of the node's footprint.
type PositionedNode struct {
	ID   string   `json:"id"`
	X    float64  `json:"x"`
	Y    float64  `json:"y"`
	Data NodeData `json:"data"`
}

// PositionedGraph is derived from (tree, collapse state) and never persisted.
type PositionedGraph struct {
	Nodes []PositionedNode `json:"nodes"`
	Edges []Edge           `json:"edges"`
}

type BoundingBox struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

func (b BoundingBox) Width() float64  { return b.MaxX - b.MinX }
func (b BoundingBox) Height() float64 { return b.MaxY - b.MinY }
