package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("outline_mindmap",
		mcp.WithPromptDescription("Build a mind map outline of a topic inside a document"),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("Topic the mind map covers"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("depth",
			mcp.ArgumentDescription("How many levels below the root to create (default 2)"),
		),
	), s.handleOutlineMindMapPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("build_lesson",
		mcp.WithPromptDescription("Create a short lesson with text, a quiz and flip cards"),
		mcp.WithArgument("topic",
			mcp.ArgumentDescription("Lesson topic"),
			mcp.RequiredArgument(),
		),
	), s.handleBuildLessonPrompt)
}

func (s *Server) handleOutlineMindMapPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := req.Params.Arguments["topic"]
	depth := req.Params.Arguments["depth"]
	if depth == "" {
		depth = "2"
	}
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Outline %s as a mind map", topic),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Build a mind map about "%s" in the active document. Follow these steps:

1. Use insert_block with type "mindMap". Its root node has id "root".
2. Use update_block_attrs to set the root label, e.g. {"rootNode":{"id":"root","label":"%s","children":[]}}
3. Add the main branches with mindmap_add_child under "root", then add children to each branch until the map is %s levels deep.
4. Keep labels short (one to four words). Order siblings from general to specific and use mindmap_move_to_bottom to fix the order.
5. Finish with mindmap_graph and check that every branch reads well.`, topic, topic, depth),
				},
			},
		},
	}, nil
}

func (s *Server) handleBuildLessonPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := req.Params.Arguments["topic"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Build a lesson on %s", topic),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Create a lesson about "%s". Follow these steps:

1. Use create_document with the topic as title.
2. Write the lesson as a doc block JSON (headings and paragraphs) and store it with import_document.
3. Add a quiz with insert_block type "quiz". Set the question with update_block_attrs, fill the options with collection_update_item and mark the answer with quiz_set_correct_answer.
4. Add a flipCard block with three to five cards for the key terms using collection_add_item and collection_update_item (fields frontText and backText).
5. Review the result with get_document.`, topic),
				},
			},
		},
	}, nil
}
