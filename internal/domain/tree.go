package domain

import "encoding/json"

// TreeNode is one node of a mind map hierarchy. Subtrees are owned
// exclusively by their parent and are never shared by reference.
type TreeNode struct {
	ID       string     `json:"id"`
	Label    string     `json:"label"`
	Children []TreeNode `json:"children"`
}

// MarshalJSON always emits children as an array so leaves read back as
// `"children": []` rather than null.
func (n TreeNode) MarshalJSON() ([]byte, error) {
	type plain TreeNode
	p := plain(n)
	if p.Children == nil {
		p.Children = []TreeNode{}
	}
	return json.Marshal(p)
}

// IsLeaf reports whether the node has no children.
func (n TreeNode) IsLeaf() bool {
	return len(n.Children) == 0
}

// IsZero reports whether n is the empty tree: no id, no label, no children.
func (n TreeNode) IsZero() bool {
	return n.ID == "" && n.Label == "" && len(n.Children) == 0
}

type MindMapAttrs struct {
	RootNode TreeNode `json:"rootNode"`
	Height   int      `json:"height" validate:"gte=0"`
}
