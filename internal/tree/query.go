package tree

import (
	"fmt"

	"github.com/google/uuid"

	"coursebook/internal/domain"
)

// NewNode returns a leaf with a fresh, time-ordered id.
func NewNode(label string) domain.TreeNode {
	return domain.TreeNode{ID: NewID(), Label: label}
}

// NewID returns a UUIDv7, falling back to a random UUID if the clock source
// fails.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Walk visits every node in pre-order with its depth. Returning false from
// fn skips that node's children.
func Walk(root domain.TreeNode, fn func(n domain.TreeNode, depth int) bool) {
	walk(root, 0, fn)
}

func walk(n domain.TreeNode, depth int, fn func(domain.TreeNode, int) bool) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		walk(c, depth+1, fn)
	}
}

// Find returns the node with id.
func Find(root domain.TreeNode, id string) (domain.TreeNode, bool) {
	var found domain.TreeNode
	ok := false
	Walk(root, func(n domain.TreeNode, _ int) bool {
		if ok {
			return false
		}
		if n.ID == id {
			found, ok = n, true
			return false
		}
		return true
	})
	return found, ok
}

func Contains(root domain.TreeNode, id string) bool {
	_, ok := Find(root, id)
	return ok
}

// Count returns the number of nodes in the tree.
func Count(root domain.TreeNode) int {
	n := 1
	for _, c := range root.Children {
		n += Count(c)
	}
	return n
}

// IDs returns every id in pre-order.
func IDs(root domain.TreeNode) []string {
	var ids []string
	Walk(root, func(n domain.TreeNode, _ int) bool {
		ids = append(ids, n.ID)
		return true
	})
	return ids
}

// NonLeafIDs returns the ids of every node with at least one child.
func NonLeafIDs(root domain.TreeNode) []string {
	var ids []string
	Walk(root, func(n domain.TreeNode, _ int) bool {
		if !n.IsLeaf() {
			ids = append(ids, n.ID)
		}
		return true
	})
	return ids
}

// Validate reports the first empty or duplicate id.
func Validate(root domain.TreeNode) error {
	seen := make(map[string]struct{})
	var err error
	Walk(root, func(n domain.TreeNode, _ int) bool {
		if err != nil {
			return false
		}
		if n.ID == "" {
			err = fmt.Errorf("tree: node %q has an empty id", n.Label)
			return false
		}
		if _, dup := seen[n.ID]; dup {
			err = fmt.Errorf("tree: duplicate id %q", n.ID)
			return false
		}
		seen[n.ID] = struct{}{}
		return true
	})
	return err
}

// Equal compares two trees structurally. A nil and an empty child list are
// the same.
func Equal(a, b domain.TreeNode) bool {
	if a.ID != b.ID || a.Label != b.Label || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}
