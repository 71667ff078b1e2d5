package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerCollectionTools() {
	block := func(opts ...mcp.ToolOption) []mcp.ToolOption {
		return append([]mcp.ToolOption{
			mcp.WithString("blockId", mcp.Description("Quiz, flip card, timeline or hotspot block ID"), mcp.Required()),
			mcp.WithString("documentId", mcp.Description("Document ID (optional, defaults to active document)")),
		}, opts...)
	}

	// ── collection_add_item ────────────────────────────
	s.mcp.AddTool(mcp.NewTool("collection_add_item", block(
		mcp.WithDescription("Append a default item: a quiz option, flip card, timeline point or hotspot"),
	)...), s.handleCollectionAddItem)

	// ── collection_update_item ─────────────────────────
	s.mcp.AddTool(mcp.NewTool("collection_update_item", block(
		mcp.WithDescription("Set one field of an item. Fields: quiz (any, the option text), flipCard frontText|backText, timeline title|description|date, infoHotspot title|content|x|y"),
		mcp.WithNumber("index", mcp.Description("Zero-based item index"), mcp.Required()),
		mcp.WithString("field", mcp.Description("Field to set")),
		mcp.WithString("value", mcp.Description("New value"), mcp.Required()),
	)...), s.handleCollectionUpdateItem)

	// ── collection_remove_item ─────────────────────────
	s.mcp.AddTool(mcp.NewTool("collection_remove_item", block(
		mcp.WithDescription("Remove an item. A quiz always keeps at least two options."),
		mcp.WithNumber("index", mcp.Description("Zero-based item index"), mcp.Required()),
	)...), s.handleCollectionRemoveItem)

	// ── quiz_set_correct_answer ────────────────────────
	s.mcp.AddTool(mcp.NewTool("quiz_set_correct_answer", block(
		mcp.WithDescription("Mark which quiz option is correct"),
		mcp.WithNumber("index", mcp.Description("Zero-based option index"), mcp.Required()),
	)...), s.handleQuizSetCorrectAnswer)
}

func (s *Server) handleCollectionAddItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docID, blockID, err := s.blockArgs(req.GetArguments())
	if err != nil {
		return nil, err
	}
	b, err := s.items.AddItem(ctx, docID, blockID)
	if err != nil {
		return nil, err
	}
	return jsonResult(b)
}

func (s *Server) handleCollectionUpdateItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	docID, blockID, err := s.blockArgs(args)
	if err != nil {
		return nil, err
	}
	b, err := s.items.UpdateItem(ctx, docID, blockID, getInt(args, "index", -1), getString(args, "field"), getString(args, "value"))
	if err != nil {
		return nil, err
	}
	return jsonResult(b)
}

func (s *Server) handleCollectionRemoveItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	docID, blockID, err := s.blockArgs(args)
	if err != nil {
		return nil, err
	}
	b, err := s.items.RemoveItem(ctx, docID, blockID, getInt(args, "index", -1))
	if err != nil {
		return nil, err
	}
	return jsonResult(b)
}

func (s *Server) handleQuizSetCorrectAnswer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	docID, blockID, err := s.blockArgs(args)
	if err != nil {
		return nil, err
	}
	b, err := s.items.SetCorrectAnswer(ctx, docID, blockID, getInt(args, "index", -1))
	if err != nil {
		return nil, err
	}
	return jsonResult(b)
}
