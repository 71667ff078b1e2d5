package service

import (
	"context"
	"encoding/json"
	"fmt"

	"coursebook/internal/domain"
	"coursebook/internal/tree"
)

// TreeOp names one of the four mind map transforms.
type TreeOp string

const (
	OpAddChild     TreeOp = "add_child"
	OpRemoveNode   TreeOp = "remove_node"
	OpUpdateLabel  TreeOp = "update_label"
	OpMoveToBottom TreeOp = "move_to_bottom"
)

// MindMapEdit describes one transform. TargetID is the parent for
// OpAddChild and the edited node otherwise.
type MindMapEdit struct {
	Op       TreeOp
	TargetID string
	Label    string
	Child    *domain.TreeNode // OpAddChild; a fresh node labelled Label when nil
}

// MindMapService applies tree transforms to mind map blocks and writes the
// resulting attrs back into the owning document.
type MindMapService struct {
	docs *DocumentService
}

func NewMindMapService(docs *DocumentService) *MindMapService {
	return &MindMapService{docs: docs}
}

// Attrs returns the decoded attrs of a mind map block.
func (s *MindMapService) Attrs(docID, blockID string) (domain.MindMapAttrs, error) {
	b, err := s.docs.Block(docID, blockID)
	if err != nil {
		return domain.MindMapAttrs{}, err
	}
	return decodeMindMap(b)
}

// Apply runs one transform. An edit addressed to an id that no longer exists
// leaves the document untouched and is not an error.
func (s *MindMapService) Apply(ctx context.Context, docID, blockID string, e MindMapEdit) (domain.MindMapAttrs, error) {
	var fn func(domain.TreeNode) domain.TreeNode
	switch e.Op {
	case OpAddChild:
		child := tree.NewNode(e.Label)
		if e.Child != nil {
			child = *e.Child
		}
		fn = func(root domain.TreeNode) domain.TreeNode { return tree.AddChild(root, e.TargetID, child) }
	case OpRemoveNode:
		fn = func(root domain.TreeNode) domain.TreeNode { return tree.RemoveNode(root, e.TargetID) }
	case OpUpdateLabel:
		fn = func(root domain.TreeNode) domain.TreeNode { return tree.UpdateLabel(root, e.TargetID, e.Label) }
	case OpMoveToBottom:
		fn = func(root domain.TreeNode) domain.TreeNode { return tree.MoveToBottom(root, e.TargetID) }
	default:
		return domain.MindMapAttrs{}, fmt.Errorf("mind map: unknown op %q", e.Op)
	}
	return s.Edit(ctx, docID, blockID, string(e.Op), fn)
}

// Edit runs fn on the block's tree under the document lock. Callers that
// keep their own view state (collapse sets) use it to route the transform
// through a session.
func (s *MindMapService) Edit(ctx context.Context, docID, blockID, op string, fn func(domain.TreeNode) domain.TreeNode) (domain.MindMapAttrs, error) {
	var out domain.MindMapAttrs
	_, err := s.docs.EditBlock(ctx, docID, blockID, "mindmap_"+op, func(b domain.Block) (domain.Block, error) {
		attrs, err := decodeMindMap(b)
		if err != nil {
			return b, err
		}
		next := fn(attrs.RootNode)
		if tree.Equal(next, attrs.RootNode) {
			out = attrs
			return b, nil
		}
		attrs.RootNode = next
		data, err := json.Marshal(attrs)
		if err != nil {
			return b, fmt.Errorf("encode mind map: %w", err)
		}
		b.Attrs = data
		out = attrs
		return b, nil
	})
	if err != nil {
		return domain.MindMapAttrs{}, err
	}
	return out, nil
}

func decodeMindMap(b domain.Block) (domain.MindMapAttrs, error) {
	if b.Type != domain.BlockTypeMindMap {
		return domain.MindMapAttrs{}, fmt.Errorf("block %s is a %s, not a mind map", b.ID, b.Type)
	}
	var attrs domain.MindMapAttrs
	if err := json.Unmarshal(b.Attrs, &attrs); err != nil {
		return domain.MindMapAttrs{}, fmt.Errorf("decode mind map %s: %w", b.ID, err)
	}
	return attrs, nil
}
