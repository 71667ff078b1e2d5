package codec

import (
	"encoding/json"
	"fmt"

	"coursebook/internal/domain"
	"coursebook/internal/nodes"
	"coursebook/internal/tree"
)

// Normalize repairs a block tree before it is stored. Empty text nodes and
// untyped empty entries are dropped from content; containers left without
// content are kept. Attrs of known types are merged over the type's defaults,
// repaired where a rule exists and validated. A block whose attrs still do
// not validate becomes a fallback paragraph. Every block other than the doc
// root and inline text gets an id unique within the tree; existing ids are
// kept, duplicates after the first are re-issued.
func (c *Codec) Normalize(b domain.Block) domain.Block {
	return c.normalize(b, map[string]bool{})
}

func (c *Codec) normalize(b domain.Block, seen map[string]bool) domain.Block {
	if needsID(b.Type) {
		b.ID = freshID(b.ID, seen)
	}
	if len(b.Content) > 0 {
		kept := make([]domain.Block, 0, len(b.Content))
		for _, child := range b.Content {
			if emptyBlock(child) {
				continue
			}
			kept = append(kept, c.normalize(child, seen))
		}
		b.Content = kept
		if len(kept) == 0 {
			b.Content = nil
		}
	}
	if !c.reg.Has(b.Type) {
		return fallback(b, string(b.Type))
	}
	attrs, err := c.normalizeAttrs(b.Type, b.Attrs)
	if err != nil {
		return fallback(b, string(b.Type))
	}
	b.Attrs = attrs
	return b
}

func needsID(t domain.BlockType) bool {
	return t != domain.BlockTypeDoc && t != domain.BlockTypeText
}

func emptyBlock(b domain.Block) bool {
	if len(b.Content) > 0 || b.Text != "" || len(b.Attrs) > 0 {
		return false
	}
	return b.Type == "" || b.Type == domain.BlockTypeText
}

// normalizeAttrs merges attrs over the defaults for t and repairs the result.
func (c *Codec) normalizeAttrs(t domain.BlockType, attrs json.RawMessage) (json.RawMessage, error) {
	def, err := c.reg.DefaultAttrs(t)
	if err != nil || def == nil {
		return attrs, err
	}
	merged, err := mergeOver(def, attrs)
	if err != nil {
		return nil, err
	}

	var v any
	switch t {
	case domain.BlockTypeQuiz:
		v, err = decodeRepair(merged, repairQuiz)
	case domain.BlockTypeMindMap:
		v, err = decodeRepair(merged, repairMindMap)
	case domain.BlockTypeFlipCard:
		v, err = decodeRepair(merged, repairFlipCards)
	case domain.BlockTypeTimeline:
		v, err = decodeRepair(merged, repairTimeline)
	case domain.BlockTypeInfoHotspot:
		v, err = decodeRepair(merged, repairHotspots)
	case domain.BlockTypeHeading:
		v, err = decodeRepair(merged, repairHeading)
	default:
		target, _ := c.reg.NewAttrs(t)
		err = json.Unmarshal(merged, target)
		v = target
	}
	if err != nil {
		return nil, err
	}
	if err := c.validate.Struct(v); err != nil {
		return nil, fmt.Errorf("validate %s attrs: %w", t, err)
	}
	if mm, ok := v.(*domain.MindMapAttrs); ok {
		if err := tree.Validate(mm.RootNode); err != nil {
			return nil, err
		}
	}
	return json.Marshal(v)
}

// mergeOver overlays the top-level keys of attrs onto def. Null values in
// attrs keep the default.
func mergeOver(def, attrs json.RawMessage) (json.RawMessage, error) {
	base := map[string]json.RawMessage{}
	if err := json.Unmarshal(def, &base); err != nil {
		return nil, fmt.Errorf("decode defaults: %w", err)
	}
	if len(attrs) > 0 {
		over := map[string]json.RawMessage{}
		if err := json.Unmarshal(attrs, &over); err != nil {
			return nil, fmt.Errorf("decode attrs: %w", err)
		}
		for k, v := range over {
			if !isNull(v) {
				base[k] = v
			}
		}
	}
	return json.Marshal(base)
}

func decodeRepair[T any](data json.RawMessage, repair func(*T)) (*T, error) {
	v := new(T)
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}
	repair(v)
	return v, nil
}

// ─── Repair rules ───

func repairQuiz(q *domain.QuizAttrs) {
	for len(q.Options) < domain.MinQuizOptions {
		q.Options = append(q.Options, fmt.Sprintf("Option %d", len(q.Options)+1))
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		q.CorrectAnswer = 0
	}
}

func repairMindMap(m *domain.MindMapAttrs) {
	m.RootNode = uniqueIDs(m.RootNode, map[string]bool{})
	if m.Height <= 0 {
		m.Height = nodes.DefaultMindMapHeight
	}
}

// uniqueIDs fills empty ids and re-issues duplicates, keeping the first
// occurrence in pre-order.
func uniqueIDs(n domain.TreeNode, seen map[string]bool) domain.TreeNode {
	if n.ID == "" || seen[n.ID] {
		n.ID = tree.NewID()
	}
	seen[n.ID] = true
	if len(n.Children) > 0 {
		kids := make([]domain.TreeNode, len(n.Children))
		for i, c := range n.Children {
			kids[i] = uniqueIDs(c, seen)
		}
		n.Children = kids
	}
	return n
}

func freshID(id string, seen map[string]bool) string {
	if id == "" || seen[id] {
		id = tree.NewID()
	}
	seen[id] = true
	return id
}

func repairFlipCards(a *domain.FlipCardAttrs) {
	seen := map[string]bool{}
	for i := range a.Cards {
		a.Cards[i].ID = freshID(a.Cards[i].ID, seen)
	}
}

func repairTimeline(a *domain.TimelineAttrs) {
	seen := map[string]bool{}
	for i := range a.Points {
		a.Points[i].ID = freshID(a.Points[i].ID, seen)
	}
}

func repairHotspots(a *domain.HotspotAttrs) {
	seen := map[string]bool{}
	for i := range a.Hotspots {
		h := &a.Hotspots[i]
		h.ID = freshID(h.ID, seen)
		h.X = min(max(h.X, 0), 100)
		h.Y = min(max(h.Y, 0), 100)
	}
}

func repairHeading(h *domain.HeadingAttrs) {
	h.Level = min(max(h.Level, 1), 6)
}
