package view

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/cespare/xxhash/v2"

	"coursebook/internal/domain"
	"coursebook/internal/layout"
	"coursebook/internal/tree"
)

// ErrReadOnly is returned when a viewer session is asked to edit its tree.
var ErrReadOnly = errors.New("view: session is read-only")

// Session is one mounted instance of a mind map. The mode is chosen once from
// the editable flag and never changes; re-create the session to switch roles.
//
// A Session is safe for concurrent use. Every call observes a complete
// (tree, collapse) pair.
type Session struct {
	mu        sync.Mutex
	mode      domain.Mode
	engine    *layout.Engine
	root      domain.TreeNode
	collapsed tree.CollapseSet
	rev       uint64
	fitted    bool
	fitRev    uint64
}

// NewSession mounts root. Authors start with everything expanded; viewers
// start with every non-leaf node collapsed.
func NewSession(root domain.TreeNode, editable bool, engine *layout.Engine) *Session {
	if engine == nil {
		engine = layout.NewEngine(layout.DefaultConfig())
	}
	s := &Session{
		mode:      domain.ModeFor(editable),
		engine:    engine,
		root:      root,
		collapsed: tree.NewCollapseSet(),
	}
	if s.mode == domain.ModeViewer {
		s.collapsed = tree.NewCollapseSet(tree.NonLeafIDs(root)...)
	}
	return s
}

func (s *Session) Mode() domain.Mode { return s.mode }

func (s *Session) Editable() bool { return s.mode == domain.ModeAuthor }

// Root returns the current tree.
func (s *Session) Root() domain.TreeNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root
}

// Collapsed returns the current collapse set. The returned value is never
// mutated by the session.
func (s *Session) Collapsed() tree.CollapseSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collapsed
}

// Revision increases every time the tree or the collapse set changes.
func (s *Session) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rev
}

// ─── Author operations ───

// AddChild appends child under parentID and expands the parent so the new
// node is visible.
func (s *Session) AddChild(parentID string, child domain.TreeNode) (domain.TreeNode, error) {
	return s.edit(func(root domain.TreeNode) (domain.TreeNode, tree.CollapseSet) {
		if !tree.Contains(root, parentID) {
			return root, s.collapsed
		}
		return tree.AddChild(root, parentID, child), s.collapsed.Without(parentID)
	})
}

func (s *Session) RemoveNode(id string) (domain.TreeNode, error) {
	return s.edit(func(root domain.TreeNode) (domain.TreeNode, tree.CollapseSet) {
		return tree.RemoveNode(root, id), s.collapsed
	})
}

func (s *Session) UpdateLabel(id, label string) (domain.TreeNode, error) {
	return s.edit(func(root domain.TreeNode) (domain.TreeNode, tree.CollapseSet) {
		return tree.UpdateLabel(root, id, label), s.collapsed
	})
}

func (s *Session) MoveToBottom(id string) (domain.TreeNode, error) {
	return s.edit(func(root domain.TreeNode) (domain.TreeNode, tree.CollapseSet) {
		return tree.MoveToBottom(root, id), s.collapsed
	})
}

// Replace swaps in a tree loaded from elsewhere, keeping collapse state for
// ids that still exist.
func (s *Session) Replace(root domain.TreeNode) error {
	_, err := s.edit(func(domain.TreeNode) (domain.TreeNode, tree.CollapseSet) {
		var keep []string
		for _, id := range s.collapsed.Slice() {
			if tree.Contains(root, id) {
				keep = append(keep, id)
			}
		}
		return root, tree.NewCollapseSet(keep...)
	})
	return err
}

func (s *Session) edit(fn func(domain.TreeNode) (domain.TreeNode, tree.CollapseSet)) (domain.TreeNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != domain.ModeAuthor {
		return s.root, ErrReadOnly
	}
	root, collapsed := fn(s.root)
	s.commit(root, collapsed)
	return s.root, nil
}

// ─── Disclosure (both modes) ───

// Toggle flips the collapse state of id. Ids not in the tree are ignored.
// Collapsing a leaf is allowed but has no effect on the graph.
func (s *Session) Toggle(id string) {
	s.disclose(func(c tree.CollapseSet) tree.CollapseSet { return c.Toggle(id) }, id)
}

func (s *Session) Expand(ids ...string) {
	s.disclose(func(c tree.CollapseSet) tree.CollapseSet { return c.Without(ids...) }, ids...)
}

func (s *Session) Collapse(ids ...string) {
	s.disclose(func(c tree.CollapseSet) tree.CollapseSet { return c.With(ids...) }, ids...)
}

func (s *Session) disclose(fn func(tree.CollapseSet) tree.CollapseSet, ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	known := false
	for _, id := range ids {
		known = known || tree.Contains(s.root, id)
	}
	if !known {
		return
	}
	s.commit(s.root, fn(s.collapsed))
}

// commit installs the new state and bumps the revision if anything changed.
// Callers hold mu.
func (s *Session) commit(root domain.TreeNode, collapsed tree.CollapseSet) {
	if tree.Equal(root, s.root) && sameSet(collapsed, s.collapsed) {
		return
	}
	s.root = root
	s.collapsed = collapsed
	s.rev++
}

func sameSet(a, b tree.CollapseSet) bool {
	if a.Len() != b.Len() {
		return false
	}
	for _, id := range a.Slice() {
		if !b.Has(id) {
			return false
		}
	}
	return true
}

// ─── Derived graph ───

// Graph lays out the visible part of the tree.
func (s *Session) Graph() layout.Result {
	s.mu.Lock()
	root, collapsed := s.root, s.collapsed
	s.mu.Unlock()
	return s.engine.Compute(root, collapsed)
}

// Fingerprint identifies the derived graph. Two sessions with equal trees and
// equal collapse sets share a fingerprint.
func (s *Session) Fingerprint() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Fingerprint(s.root, s.collapsed)
}

// Fingerprint hashes a tree together with a collapse set.
func Fingerprint(root domain.TreeNode, collapsed tree.CollapseSet) uint64 {
	d := xxhash.New()
	var buf [8]byte
	tree.Walk(root, func(n domain.TreeNode, depth int) bool {
		binary.LittleEndian.PutUint64(buf[:], uint64(depth))
		_, _ = d.Write(buf[:])
		_, _ = d.WriteString(n.ID)
		_, _ = d.Write([]byte{0})
		_, _ = d.WriteString(n.Label)
		_, _ = d.Write([]byte{0})
		return true
	})
	_, _ = d.Write([]byte{1})
	for _, id := range collapsed.Slice() {
		_, _ = d.WriteString(id)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

// PendingFit reports the extent the camera should fit to, at most once per
// revision. The first call always fits. After that, viewers refit on every
// change and authors keep their camera where they left it. A nil extent with
// ok=true means the graph is empty.
func (s *Session) PendingFit() (*domain.BoundingBox, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fitted && (s.mode == domain.ModeAuthor || s.fitRev == s.rev) {
		return nil, false
	}
	s.fitted = true
	s.fitRev = s.rev
	res := s.engine.Compute(s.root, s.collapsed)
	return res.Extent, true
}
