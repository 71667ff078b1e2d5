package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	documentsURI      = "coursebook://documents"
	documentURIPrefix = "coursebook://document/"
)

func (s *Server) registerResources() {
	// ── coursebook://documents ─────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		documentsURI,
		"All Documents",
		mcp.WithMIMEType("application/json"),
	), s.handleDocumentsResource)

	// ── coursebook://document/{id} ─────────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			documentURIPrefix+"{id}",
			"Document JSON",
		),
		s.handleDocumentResource,
	)
}

func (s *Server) handleDocumentsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	docs, err := s.docs.List()
	if err != nil {
		return nil, err
	}
	summaries := make([]documentSummary, len(docs))
	for i, d := range docs {
		summaries[i] = documentSummary{ID: d.ID, Title: d.Title, Blocks: len(d.Body.Content), UpdatedAt: d.UpdatedAt}
	}
	data, _ := json.MarshalIndent(summaries, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      documentsURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleDocumentResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	id := documentIDFromURI(uri)
	if id == "" {
		return nil, fmt.Errorf("could not extract document id from URI: %s", uri)
	}
	data, err := s.docs.ExportJSON(id)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// documentIDFromURI extracts the id from "coursebook://document/{id}".
func documentIDFromURI(uri string) string {
	id, ok := strings.CutPrefix(uri, documentURIPrefix)
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}
