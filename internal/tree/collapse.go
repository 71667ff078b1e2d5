package tree

import "sort"

// CollapseSet is the set of node ids whose subtrees are hidden. It is view
// state: it never affects the structure of a tree and is never persisted.
//
// Values are copy-on-write. With, Without and Toggle return new sets, so a
// set that has been handed to layout is never mutated afterwards.
type CollapseSet struct {
	ids map[string]struct{}
}

// NewCollapseSet returns a set containing ids.
func NewCollapseSet(ids ...string) CollapseSet {
	s := CollapseSet{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

func (s CollapseSet) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s CollapseSet) Len() int { return len(s.ids) }

// With returns a copy of s that also contains ids.
func (s CollapseSet) With(ids ...string) CollapseSet {
	out := s.clone()
	for _, id := range ids {
		out.ids[id] = struct{}{}
	}
	return out
}

// Without returns a copy of s with ids removed.
func (s CollapseSet) Without(ids ...string) CollapseSet {
	out := s.clone()
	for _, id := range ids {
		delete(out.ids, id)
	}
	return out
}

// Toggle flips membership of id.
func (s CollapseSet) Toggle(id string) CollapseSet {
	if s.Has(id) {
		return s.Without(id)
	}
	return s.With(id)
}

// Slice returns the members in sorted order.
func (s CollapseSet) Slice() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s CollapseSet) clone() CollapseSet {
	out := CollapseSet{ids: make(map[string]struct{}, len(s.ids)+1)}
	for id := range s.ids {
		out.ids[id] = struct{}{}
	}
	return out
}
