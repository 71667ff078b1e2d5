package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"coursebook/internal/domain"
	"coursebook/internal/tree"
	"coursebook/internal/view"
)

func (s *Server) registerMindMapTools() {
	blockParams := []mcp.ToolOption{
		mcp.WithString("blockId", mcp.Description("Mind map block ID"), mcp.Required()),
		mcp.WithString("documentId", mcp.Description("Document ID (optional, defaults to active document)")),
	}
	with := func(opts ...mcp.ToolOption) []mcp.ToolOption {
		return append(append([]mcp.ToolOption{}, blockParams...), opts...)
	}

	// ── mindmap_add_child ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("mindmap_add_child", with(
		mcp.WithDescription("Add a child node at the end of a node's children. The parent is expanded."),
		mcp.WithString("parentId", mcp.Description("ID of the parent node"), mcp.Required()),
		mcp.WithString("label", mcp.Description("Label of the new node"), mcp.Required()),
	)...), s.handleMindMapAddChild)

	// ── mindmap_remove_node ────────────────────────────
	s.mcp.AddTool(mcp.NewTool("mindmap_remove_node", with(
		mcp.WithDescription("Remove a node and its subtree. The root cannot be removed."),
		mcp.WithString("nodeId", mcp.Description("ID of the node to remove"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	)...), s.handleMindMapRemoveNode)

	// ── mindmap_update_label ───────────────────────────
	s.mcp.AddTool(mcp.NewTool("mindmap_update_label", with(
		mcp.WithDescription("Change a node's label"),
		mcp.WithString("nodeId", mcp.Description("Node ID"), mcp.Required()),
		mcp.WithString("label", mcp.Description("New label"), mcp.Required()),
	)...), s.handleMindMapUpdateLabel)

	// ── mindmap_move_to_bottom ─────────────────────────
	s.mcp.AddTool(mcp.NewTool("mindmap_move_to_bottom", with(
		mcp.WithDescription("Move a node to the end of its parent's children"),
		mcp.WithString("nodeId", mcp.Description("Node ID"), mcp.Required()),
	)...), s.handleMindMapMoveToBottom)

	// ── mindmap_toggle ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("mindmap_toggle", with(
		mcp.WithDescription("Collapse or expand a node in this session's view. Not saved in the document."),
		mcp.WithString("nodeId", mcp.Description("Node ID"), mcp.Required()),
	)...), s.handleMindMapToggle)

	// ── mindmap_graph ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("mindmap_graph", with(
		mcp.WithDescription("Get the laid-out graph of a mind map as currently expanded"),
	)...), s.handleMindMapGraph)
}

// graphResult is what every mind map tool returns.
type graphResult struct {
	Root      domain.TreeNode         `json:"root"`
	Collapsed []string                `json:"collapsed"`
	Revision  uint64                  `json:"revision"`
	Graph     *domain.PositionedGraph `json:"graph"`
	Extent    *domain.BoundingBox     `json:"extent,omitempty"`
}

func sessionResult(sess *view.Session) graphResult {
	g := sess.Graph()
	collapsed := sess.Collapsed().Slice()
	if collapsed == nil {
		collapsed = []string{}
	}
	return graphResult{
		Root:      sess.Root(),
		Collapsed: collapsed,
		Revision:  sess.Revision(),
		Graph:     &g.Graph,
		Extent:    g.Extent,
	}
}

// editMindMap routes a transform through the block's author session under
// the document lock, so collapse state follows the edit.
func (s *Server) editMindMap(ctx context.Context, args map[string]any, op string, fn func(*view.Session) (domain.TreeNode, error)) (*mcp.CallToolResult, error) {
	docID, blockID, err := s.blockArgs(args)
	if err != nil {
		return nil, err
	}
	var sess *view.Session
	_, err = s.maps.Edit(ctx, docID, blockID, op, func(root domain.TreeNode) domain.TreeNode {
		sess = s.sessions.get(docID, blockID, root)
		next, err := fn(sess)
		if err != nil {
			return root
		}
		return next
	})
	if err != nil {
		return nil, err
	}
	return jsonResult(sessionResult(sess))
}

func (s *Server) handleMindMapAddChild(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	parentID, err := requireString(args, "parentId")
	if err != nil {
		return nil, err
	}
	child := tree.NewNode(getString(args, "label"))
	return s.editMindMap(ctx, args, "add_child", func(sess *view.Session) (domain.TreeNode, error) {
		return sess.AddChild(parentID, child)
	})
}

func (s *Server) handleMindMapRemoveNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	nodeID, err := requireString(args, "nodeId")
	if err != nil {
		return nil, err
	}
	return s.editMindMap(ctx, args, "remove_node", func(sess *view.Session) (domain.TreeNode, error) {
		return sess.RemoveNode(nodeID)
	})
}

func (s *Server) handleMindMapUpdateLabel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	nodeID, err := requireString(args, "nodeId")
	if err != nil {
		return nil, err
	}
	label := getString(args, "label")
	return s.editMindMap(ctx, args, "update_label", func(sess *view.Session) (domain.TreeNode, error) {
		return sess.UpdateLabel(nodeID, label)
	})
}

func (s *Server) handleMindMapMoveToBottom(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	nodeID, err := requireString(args, "nodeId")
	if err != nil {
		return nil, err
	}
	return s.editMindMap(ctx, args, "move_to_bottom", func(sess *view.Session) (domain.TreeNode, error) {
		return sess.MoveToBottom(nodeID)
	})
}

// loadSession returns the up-to-date author session of a mind map block.
func (s *Server) loadSession(args map[string]any) (*view.Session, error) {
	docID, blockID, err := s.blockArgs(args)
	if err != nil {
		return nil, err
	}
	attrs, err := s.maps.Attrs(docID, blockID)
	if err != nil {
		return nil, err
	}
	return s.sessions.get(docID, blockID, attrs.RootNode), nil
}

func (s *Server) handleMindMapToggle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	nodeID, err := requireString(args, "nodeId")
	if err != nil {
		return nil, err
	}
	sess, err := s.loadSession(args)
	if err != nil {
		return nil, err
	}
	if !tree.Contains(sess.Root(), nodeID) {
		return nil, fmt.Errorf("node %s is not in this mind map", nodeID)
	}
	sess.Toggle(nodeID)
	return jsonResult(sessionResult(sess))
}

func (s *Server) handleMindMapGraph(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.loadSession(req.GetArguments())
	if err != nil {
		return nil, err
	}
	return jsonResult(sessionResult(sess))
}
