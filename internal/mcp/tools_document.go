package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"coursebook/internal/domain"
	"coursebook/internal/nodes"
)

func (s *Server) registerDocumentTools() {
	// ── list_documents ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List all learning documents"),
	), s.handleListDocuments)

	// ── create_document ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_document",
		mcp.WithDescription("Create an empty document and make it the active one"),
		mcp.WithString("title", mcp.Description("Document title")),
	), s.handleCreateDocument)

	// ── set_active_document ────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_active_document",
		mcp.WithDescription("Set the document later calls default to when documentId is omitted"),
		mcp.WithString("documentId", mcp.Description("Document ID"), mcp.Required()),
	), s.handleSetActiveDocument)

	// ── get_document ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Get a document with an outline of its blocks"),
		mcp.WithString("documentId", mcp.Description("Document ID (optional, defaults to active document)")),
	), s.handleGetDocument)

	// ── delete_document (destructive) ──────────────────
	s.mcp.AddTool(mcp.NewTool("delete_document",
		mcp.WithDescription("DESTRUCTIVE: Delete a document and all of its blocks"),
		mcp.WithString("documentId", mcp.Description("Document ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteDocument)

	// ── insert_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("insert_block",
		mcp.WithDescription("Insert a block with default content. Types: "+strings.Join(s.blockTypes(), ", ")),
		mcp.WithString("type", mcp.Description("Block type"), mcp.Required()),
		mcp.WithString("documentId", mcp.Description("Document ID (optional, defaults to active document)")),
		mcp.WithNumber("index", mcp.Description("Position among top-level blocks (optional, appends)")),
	), s.handleInsertBlock)

	// ── update_block_attrs ─────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_block_attrs",
		mcp.WithDescription("Replace a block's attrs. Missing fields take the type's defaults."),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("attrs", mcp.Description("Attrs as a JSON object"), mcp.Required()),
		mcp.WithString("documentId", mcp.Description("Document ID (optional, defaults to active document)")),
	), s.handleUpdateBlockAttrs)

	// ── delete_block (destructive) ─────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_block",
		mcp.WithDescription("DESTRUCTIVE: Delete a block"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("documentId", mcp.Description("Document ID (optional, defaults to active document)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteBlock)

	// ── render_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("render_block",
		mcp.WithDescription("Render a block as the author or a viewer sees it"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("mode", mcp.Description("author or viewer (default viewer)")),
		mcp.WithString("documentId", mcp.Description("Document ID (optional, defaults to active document)")),
	), s.handleRenderBlock)

	// ── import_document ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("import_document",
		mcp.WithDescription("Store generated document JSON under an id, creating or replacing the document"),
		mcp.WithString("documentId", mcp.Description("Document ID"), mcp.Required()),
		mcp.WithString("json", mcp.Description("A doc block, a single block or an exported document"), mcp.Required()),
	), s.handleImportDocument)
}

func (s *Server) blockTypes() []string {
	var out []string
	reg := s.docs.Registry()
	for _, t := range reg.Types() {
		if reg.Lookup(t).IsBlockLevel {
			out = append(out, string(t))
		}
	}
	return out
}

// ── Summaries ──────────────────────────────────────────────

type documentSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Blocks    int       `json:"blocks"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type blockSummary struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Preview string `json:"preview,omitempty"`
}

func summarizeBlock(b domain.Block) blockSummary {
	preview := nodes.PlainText(b)
	if preview == "" && len(b.Attrs) > 0 {
		preview = string(b.Attrs)
	}
	if len(preview) > 120 {
		preview = preview[:120] + "..."
	}
	return blockSummary{ID: b.ID, Type: string(b.Type), Preview: preview}
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := s.docs.List()
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	out := make([]documentSummary, len(docs))
	for i, d := range docs {
		out[i] = documentSummary{ID: d.ID, Title: d.Title, Blocks: len(d.Body.Content), UpdatedAt: d.UpdatedAt}
	}
	return jsonResult(out)
}

func (s *Server) handleCreateDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := s.docs.Create(ctx, getString(req.GetArguments(), "title"))
	if err != nil {
		return nil, err
	}
	s.setActive(d.ID)
	return jsonResult(d)
}

func (s *Server) handleSetActiveDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req.GetArguments(), "documentId")
	if err != nil {
		return nil, err
	}
	if _, err := s.docs.Get(id); err != nil {
		return nil, err
	}
	s.setActive(id)
	return textResult(fmt.Sprintf("Active document set to %s", id)), nil
}

func (s *Server) handleGetDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.resolveDocID(req.GetArguments())
	if err != nil {
		return nil, err
	}
	d, err := s.docs.Get(id)
	if err != nil {
		return nil, err
	}
	blocks := make([]blockSummary, len(d.Body.Content))
	for i, b := range d.Body.Content {
		blocks[i] = summarizeBlock(b)
	}
	return jsonResult(map[string]any{
		"id":        d.ID,
		"title":     d.Title,
		"updatedAt": d.UpdatedAt,
		"blocks":    blocks,
	})
}

func (s *Server) handleDeleteDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req.GetArguments(), "documentId")
	if err != nil {
		return nil, err
	}
	d, err := s.docs.Get(id)
	if err != nil {
		return nil, err
	}
	if err := s.confirm(ctx, "delete_document", fmt.Sprintf("Delete document %q (%d blocks)", d.Title, len(d.Body.Content))); err != nil {
		return nil, err
	}
	if err := s.docs.Delete(ctx, id); err != nil {
		return nil, err
	}
	s.sessions.dropDocument(id)
	s.mu.Lock()
	if s.activeDocID == id {
		s.activeDocID = ""
	}
	s.mu.Unlock()
	return textResult(fmt.Sprintf("Document %s deleted", id)), nil
}

func (s *Server) handleInsertBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	blockType, err := requireString(args, "type")
	if err != nil {
		return nil, err
	}
	docID, err := s.resolveDocID(args)
	if err != nil {
		return nil, err
	}
	_, b, err := s.docs.InsertBlock(ctx, docID, domain.BlockType(blockType), getInt(args, "index", -1))
	if err != nil {
		return nil, fmt.Errorf("insert block: %w", err)
	}
	return jsonResult(b)
}

func (s *Server) handleUpdateBlockAttrs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	docID, blockID, err := s.blockArgs(args)
	if err != nil {
		return nil, err
	}
	raw, err := requireString(args, "attrs")
	if err != nil {
		return nil, err
	}
	if !json.Valid([]byte(raw)) {
		return nil, fmt.Errorf("attrs must be a JSON object")
	}
	b, err := s.docs.UpdateBlockAttrs(ctx, docID, blockID, json.RawMessage(raw))
	if err != nil {
		return nil, err
	}
	s.sessions.drop(docID, blockID)
	return jsonResult(b)
}

func (s *Server) handleDeleteBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docID, blockID, err := s.blockArgs(req.GetArguments())
	if err != nil {
		return nil, err
	}
	b, err := s.docs.Block(docID, blockID)
	if err != nil {
		return nil, err
	}
	if err := s.confirm(ctx, "delete_block", fmt.Sprintf("Delete %s block %s", b.Type, b.ID)); err != nil {
		return nil, err
	}
	if _, err := s.docs.RemoveBlock(ctx, docID, blockID); err != nil {
		return nil, err
	}
	s.sessions.drop(docID, blockID)
	return textResult(fmt.Sprintf("Block %s deleted", blockID)), nil
}

func (s *Server) handleRenderBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	docID, blockID, err := s.blockArgs(args)
	if err != nil {
		return nil, err
	}
	mode := domain.ModeViewer
	if getString(args, "mode") == string(domain.ModeAuthor) {
		mode = domain.ModeAuthor
	}
	out, err := s.docs.RenderBlock(docID, blockID, nodes.RenderContext{Mode: mode})
	if err != nil {
		return nil, err
	}
	return jsonResult(out)
}

func (s *Server) handleImportDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requireString(args, "documentId")
	if err != nil {
		return nil, err
	}
	data, err := requireString(args, "json")
	if err != nil {
		return nil, err
	}
	d, err := s.docs.ImportJSON(ctx, id, []byte(data))
	if err != nil {
		return nil, err
	}
	s.sessions.dropDocument(id)
	s.setActive(d.ID)
	return textResult(fmt.Sprintf("Imported %q as %s with %d blocks", d.Title, d.ID, len(d.Body.Content))), nil
}
