package nodes

import (
	"encoding/json"
	"strings"

	"coursebook/internal/domain"
	"coursebook/internal/view"
)

func surface(b domain.Block, rc RenderContext) domain.Surface {
	s := domain.Surface{
		BlockID: b.ID,
		Type:    b.Type,
		Mode:    rc.Mode,
	}
	if len(b.Attrs) > 0 {
		s.Attrs = append(json.RawMessage(nil), b.Attrs...)
	}
	var fb domain.FallbackAttrs
	if json.Unmarshal(b.Attrs, &fb) == nil && fb.FallbackFrom != "" {
		s.Fallback = true
	}
	return s
}

// renderText is the plain text renderer and the fallback for unknown types.
func renderText(b domain.Block, rc RenderContext) domain.Surface {
	s := surface(b, rc)
	s.Text = PlainText(b)
	if rc.Mode == domain.ModeAuthor {
		s.Actions = []string{"edit_text"}
	}
	return s
}

func renderAtomic(actions ...string) Renderer {
	return func(b domain.Block, rc RenderContext) domain.Surface {
		s := surface(b, rc)
		if rc.Mode == domain.ModeAuthor {
			s.Actions = append([]string(nil), actions...)
		}
		return s
	}
}

// renderMindMap lays the tree out through a session for the requested mode, so
// viewers get the collapsed overview and authors get the full tree.
func renderMindMap(b domain.Block, rc RenderContext) domain.Surface {
	var attrs domain.MindMapAttrs
	if err := json.Unmarshal(b.Attrs, &attrs); err != nil {
		s := renderText(b, rc)
		s.Fallback = true
		return s
	}
	if attrs.RootNode.IsZero() {
		s := surface(b, rc)
		s.Graph = &domain.PositionedGraph{Nodes: []domain.PositionedNode{}, Edges: []domain.Edge{}}
		return s
	}
	if attrs.RootNode.ID == "" {
		s := renderText(b, rc)
		s.Fallback = true
		return s
	}
	sess := view.NewSession(attrs.RootNode, rc.Mode == domain.ModeAuthor, rc.Engine)
	if len(rc.Expanded) > 0 {
		sess.Expand(rc.Expanded...)
	}
	res := sess.Graph()

	s := surface(b, rc)
	s.Graph = &res.Graph
	s.Extent = res.Extent
	if rc.Mode == domain.ModeAuthor {
		s.Actions = []string{"add_child", "remove_node", "update_label", "move_to_bottom", "toggle"}
	}
	return s
}

// PlainText concatenates the text of b and all of its descendants. Block
// level children are separated by newlines.
func PlainText(b domain.Block) string {
	var sb strings.Builder
	writeText(&sb, b)
	return strings.TrimSpace(sb.String())
}

func writeText(sb *strings.Builder, b domain.Block) {
	sb.WriteString(b.Text)
	for _, c := range b.Content {
		writeText(sb, c)
		if c.Type != domain.BlockTypeText {
			sb.WriteByte('\n')
		}
	}
}
