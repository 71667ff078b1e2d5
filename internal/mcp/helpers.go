package mcpserver

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func boolPtr(v bool) *bool { return &v }

func getString(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

// getInt reads a JSON number argument. Numbers arrive as float64.
func getInt(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return fallback
}

func requireString(args map[string]any, key string) (string, error) {
	v := getString(args, key)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// resolveDocID returns documentId from the arguments or the active document.
func (s *Server) resolveDocID(args map[string]any) (string, error) {
	if id := getString(args, "documentId"); id != "" {
		return id, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeDocID != "" {
		return s.activeDocID, nil
	}
	return "", fmt.Errorf("no documentId provided and no active document set (use set_active_document first)")
}

func (s *Server) setActive(id string) {
	s.mu.Lock()
	s.activeDocID = id
	s.mu.Unlock()
}

// blockArgs resolves the document and block a block-level tool addresses.
func (s *Server) blockArgs(args map[string]any) (docID, blockID string, err error) {
	docID, err = s.resolveDocID(args)
	if err != nil {
		return "", "", err
	}
	blockID, err = requireString(args, "blockId")
	return docID, blockID, err
}
