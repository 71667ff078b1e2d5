// Package tree implements immutable, id-addressed operations on mind map
// hierarchies.
//
// Every operation is a path-copying descent: the chain of ancestors from the
// root to the edited node is rebuilt and every other subtree, including its
// Children backing array, is shared with the input. An id that is not present
// in the tree is not an error; the input is returned unchanged.
package tree

import "coursebook/internal/domain"

// AddChild appends child to the children of the node with parentID.
func AddChild(root domain.TreeNode, parentID string, child domain.TreeNode) domain.TreeNode {
	out, _ := rewrite(root, func(n domain.TreeNode) (domain.TreeNode, bool) {
		if n.ID != parentID {
			return n, false
		}
		children := make([]domain.TreeNode, len(n.Children), len(n.Children)+1)
		copy(children, n.Children)
		n.Children = append(children, child)
		return n, true
	})
	return out
}

// RemoveNode removes the node with targetID, and its subtree, from its
// parent. The root cannot be removed.
func RemoveNode(root domain.TreeNode, targetID string) domain.TreeNode {
	if root.ID == targetID {
		return root
	}
	out, _ := rewrite(root, func(n domain.TreeNode) (domain.TreeNode, bool) {
		i := childIndex(n, targetID)
		if i < 0 {
			return n, false
		}
		children := make([]domain.TreeNode, 0, len(n.Children)-1)
		children = append(children, n.Children[:i]...)
		children = append(children, n.Children[i+1:]...)
		if len(children) == 0 {
			children = nil
		}
		n.Children = children
		return n, true
	})
	return out
}

// UpdateLabel replaces the label of the node with targetID.
func UpdateLabel(root domain.TreeNode, targetID, label string) domain.TreeNode {
	out, _ := rewrite(root, func(n domain.TreeNode) (domain.TreeNode, bool) {
		if n.ID != targetID {
			return n, false
		}
		n.Label = label
		return n, true
	})
	return out
}

// MoveToBottom moves the node with targetID to the end of its parent's
// children. Siblings keep their relative order.
func MoveToBottom(root domain.TreeNode, targetID string) domain.TreeNode {
	out, _ := rewrite(root, func(n domain.TreeNode) (domain.TreeNode, bool) {
		i := childIndex(n, targetID)
		if i < 0 {
			return n, false
		}
		children := make([]domain.TreeNode, 0, len(n.Children))
		children = append(children, n.Children[:i]...)
		children = append(children, n.Children[i+1:]...)
		n.Children = append(children, n.Children[i])
		return n, true
	})
	return out
}

// edit is applied to each node in pre-order until one reports a change.
type edit func(n domain.TreeNode) (domain.TreeNode, bool)

// rewrite descends in pre-order and rebuilds only the path to the first node
// the edit changes.
func rewrite(n domain.TreeNode, fn edit) (domain.TreeNode, bool) {
	if out, ok := fn(n); ok {
		return out, true
	}
	for i, c := range n.Children {
		nc, ok := rewrite(c, fn)
		if !ok {
			continue
		}
		children := make([]domain.TreeNode, len(n.Children))
		copy(children, n.Children)
		children[i] = nc
		n.Children = children
		return n, true
	}
	return n, false
}

func childIndex(n domain.TreeNode, id string) int {
	for i, c := range n.Children {
		if c.ID == id {
			return i
		}
	}
	return -1
}
