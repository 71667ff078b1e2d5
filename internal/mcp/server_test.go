package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursebook/internal/codec"
	"coursebook/internal/domain"
	"coursebook/internal/nodes"
	"coursebook/internal/service"
	"coursebook/internal/storage"
)

func newTestServer(t *testing.T, approval *ApprovalQueue) *Server {
	t.Helper()
	db, err := storage.Open(storage.DriverSQLite, filepath.Join(t.TempDir(), "mcp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	reg := nodes.Builtin(nil)
	c := codec.New(reg)
	docs := service.NewDocumentService(storage.NewDocumentStore(db, c), reg, c, &service.MockEmitter{})
	return New(Deps{
		Documents:   docs,
		MindMaps:    service.NewMindMapService(docs),
		Collections: service.NewCollectionService(docs),
		Approval:    approval,
	})
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func decode[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &v))
	return v
}

// createWithBlock creates an active document holding one block of type bt.
func createWithBlock(t *testing.T, s *Server, bt domain.BlockType) (docID, blockID string) {
	t.Helper()
	ctx := context.Background()
	res, err := s.handleCreateDocument(ctx, call(map[string]any{"title": "Lesson"}))
	require.NoError(t, err)
	d := decode[domain.Document](t, res)

	res, err = s.handleInsertBlock(ctx, call(map[string]any{"type": string(bt)}))
	require.NoError(t, err)
	b := decode[domain.Block](t, res)
	return d.ID, b.ID
}

func TestResolveDocID(t *testing.T) {
	s := newTestServer(t, nil)
	_, err := s.resolveDocID(map[string]any{})
	assert.ErrorContains(t, err, "no active document")

	s.setActive("a")
	id, err := s.resolveDocID(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "a", id)

	id, err = s.resolveDocID(map[string]any{"documentId": "b"})
	require.NoError(t, err)
	assert.Equal(t, "b", id)
}

func TestGetInt(t *testing.T) {
	args := map[string]any{"f": 3.0, "i": 4, "s": "5"}
	assert.Equal(t, 3, getInt(args, "f", -1))
	assert.Equal(t, 4, getInt(args, "i", -1))
	assert.Equal(t, -1, getInt(args, "s", -1))
	assert.Equal(t, -1, getInt(args, "missing", -1))
}

func TestDocumentTools(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()
	docID, quizID := createWithBlock(t, s, domain.BlockTypeQuiz)

	res, err := s.handleListDocuments(ctx, call(nil))
	require.NoError(t, err)
	list := decode[[]documentSummary](t, res)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].Blocks)

	res, err = s.handleGetDocument(ctx, call(map[string]any{"documentId": docID}))
	require.NoError(t, err)
	doc := decode[struct {
		Blocks []blockSummary `json:"blocks"`
	}](t, res)
	require.Len(t, doc.Blocks, 1)
	assert.Equal(t, quizID, doc.Blocks[0].ID)

	res, err = s.handleUpdateBlockAttrs(ctx, call(map[string]any{
		"blockId": quizID,
		"attrs":   `{"question":"Which gas do plants absorb?"}`,
	}))
	require.NoError(t, err)
	b := decode[domain.Block](t, res)
	var q domain.QuizAttrs
	require.NoError(t, json.Unmarshal(b.Attrs, &q))
	assert.Equal(t, "Which gas do plants absorb?", q.Question)
	assert.Len(t, q.Options, 2)

	_, err = s.handleUpdateBlockAttrs(ctx, call(map[string]any{"blockId": quizID, "attrs": `{nope`}))
	assert.Error(t, err)

	res, err = s.handleRenderBlock(ctx, call(map[string]any{"blockId": quizID, "mode": "author"}))
	require.NoError(t, err)
	surface := decode[domain.Surface](t, res)
	assert.Equal(t, domain.ModeAuthor, surface.Mode)
	assert.NotEmpty(t, surface.Actions)

	_, err = s.handleDeleteBlock(ctx, call(map[string]any{"blockId": quizID}))
	require.NoError(t, err)
	_, err = s.handleDeleteBlock(ctx, call(map[string]any{"blockId": quizID}))
	assert.ErrorIs(t, err, service.ErrBlockNotFound)
}

func TestInsertBlock_RequiresType(t *testing.T) {
	s := newTestServer(t, nil)
	_, err := s.handleInsertBlock(context.Background(), call(map[string]any{"documentId": "x"}))
	assert.ErrorContains(t, err, "type is required")
}

func TestMindMapTools_AddChildExpandsParent(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()
	_, blockID := createWithBlock(t, s, domain.BlockTypeMindMap)

	res, err := s.handleMindMapAddChild(ctx, call(map[string]any{"blockId": blockID, "parentId": "root", "label": "Branch"}))
	require.NoError(t, err)
	g := decode[graphResult](t, res)
	require.Len(t, g.Root.Children, 1)
	branchID := g.Root.Children[0].ID

	// collapse the leaf, then add under it: the parent opens again
	res, err = s.handleMindMapToggle(ctx, call(map[string]any{"blockId": blockID, "nodeId": branchID}))
	require.NoError(t, err)
	assert.Equal(t, []string{branchID}, decode[graphResult](t, res).Collapsed)

	res, err = s.handleMindMapAddChild(ctx, call(map[string]any{"blockId": blockID, "parentId": branchID, "label": "Leaf"}))
	require.NoError(t, err)
	g = decode[graphResult](t, res)
	assert.Empty(t, g.Collapsed)
	assert.Len(t, g.Graph.Nodes, 3)
	assert.Len(t, g.Graph.Edges, 2)
	assert.NotNil(t, g.Extent)
}

func TestMindMapTools_CollapseHidesDescendants(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()
	_, blockID := createWithBlock(t, s, domain.BlockTypeMindMap)

	res, err := s.handleMindMapAddChild(ctx, call(map[string]any{"blockId": blockID, "parentId": "root", "label": "A"}))
	require.NoError(t, err)
	aID := decode[graphResult](t, res).Root.Children[0].ID
	_, err = s.handleMindMapAddChild(ctx, call(map[string]any{"blockId": blockID, "parentId": aID, "label": "A1"}))
	require.NoError(t, err)

	res, err = s.handleMindMapToggle(ctx, call(map[string]any{"blockId": blockID, "nodeId": aID}))
	require.NoError(t, err)
	g := decode[graphResult](t, res)
	assert.Len(t, g.Graph.Nodes, 2, "root and the collapsed node stay visible")

	res, err = s.handleMindMapGraph(ctx, call(map[string]any{"blockId": blockID}))
	require.NoError(t, err)
	assert.Equal(t, g.Revision, decode[graphResult](t, res).Revision, "collapse state lives in the session")

	_, err = s.handleMindMapToggle(ctx, call(map[string]any{"blockId": blockID, "nodeId": "ghost"}))
	assert.Error(t, err)
}

func TestMindMapTools_EditOrder(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()
	_, blockID := createWithBlock(t, s, domain.BlockTypeMindMap)

	var ids []string
	for _, label := range []string{"a", "b", "c"} {
		res, err := s.handleMindMapAddChild(ctx, call(map[string]any{"blockId": blockID, "parentId": "root", "label": label}))
		require.NoError(t, err)
		g := decode[graphResult](t, res)
		ids = append(ids, g.Root.Children[len(g.Root.Children)-1].ID)
	}

	_, err := s.handleMindMapMoveToBottom(ctx, call(map[string]any{"blockId": blockID, "nodeId": ids[1]}))
	require.NoError(t, err)
	_, err = s.handleMindMapUpdateLabel(ctx, call(map[string]any{"blockId": blockID, "nodeId": ids[0], "label": "alpha"}))
	require.NoError(t, err)
	res, err := s.handleMindMapRemoveNode(ctx, call(map[string]any{"blockId": blockID, "nodeId": ids[2]}))
	require.NoError(t, err)

	g := decode[graphResult](t, res)
	var labels []string
	for _, c := range g.Root.Children {
		labels = append(labels, c.Label)
	}
	assert.Equal(t, []string{"alpha", "b"}, labels)
}

func TestCollectionTools(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()
	_, quizID := createWithBlock(t, s, domain.BlockTypeQuiz)

	_, err := s.handleCollectionAddItem(ctx, call(map[string]any{"blockId": quizID}))
	require.NoError(t, err)
	_, err = s.handleCollectionUpdateItem(ctx, call(map[string]any{"blockId": quizID, "index": 2.0, "value": "CO2"}))
	require.NoError(t, err)
	_, err = s.handleQuizSetCorrectAnswer(ctx, call(map[string]any{"blockId": quizID, "index": 2.0}))
	require.NoError(t, err)
	res, err := s.handleCollectionRemoveItem(ctx, call(map[string]any{"blockId": quizID, "index": 2.0}))
	require.NoError(t, err)

	var q domain.QuizAttrs
	require.NoError(t, json.Unmarshal(decode[domain.Block](t, res).Attrs, &q))
	assert.Equal(t, []string{"Option 1", "Option 2"}, q.Options)
	assert.Equal(t, 0, q.CorrectAnswer)
}

func TestImportDocumentTool(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()
	res, err := s.handleImportDocument(ctx, call(map[string]any{
		"documentId": "photosynthesis",
		"json":       `{"type":"doc","content":[{"type":"heading","attrs":{"level":1},"content":[{"type":"text","text":"Photosynthesis"}]}]}`,
	}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), `"Photosynthesis"`)

	id, err := s.resolveDocID(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "photosynthesis", id)
}

func TestResources(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()
	docID, _ := createWithBlock(t, s, domain.BlockTypeTimeline)

	contents, err := s.handleDocumentsResource(ctx, mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	assert.Contains(t, contents[0].(mcp.TextResourceContents).Text, docID)

	var req mcp.ReadResourceRequest
	req.Params.URI = documentURIPrefix + docID
	contents, err = s.handleDocumentResource(ctx, req)
	require.NoError(t, err)
	assert.Contains(t, contents[0].(mcp.TextResourceContents).Text, `"timeline"`)

	assert.Equal(t, "", documentIDFromURI("coursebook://documents"))
	assert.Equal(t, "", documentIDFromURI(documentURIPrefix+"a/b"))
}

func TestPrompts(t *testing.T) {
	s := newTestServer(t, nil)
	var req mcp.GetPromptRequest
	req.Params.Arguments = map[string]string{"topic": "Cells"}
	res, err := s.handleOutlineMindMapPrompt(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	assert.Contains(t, res.Messages[0].Content.(mcp.TextContent).Text, "2 levels deep")
}

// ── Approval ───────────────────────────────────────────────

func TestApprovalQueue_Approve(t *testing.T) {
	emitter := &service.MockEmitter{}
	q := NewApprovalQueue(emitter, time.Second)

	done := make(chan error, 1)
	go func() { done <- q.Request(context.Background(), "delete_block", "Delete x") }()

	require.Eventually(t, func() bool { return len(q.Pending()) == 1 }, time.Second, 5*time.Millisecond)
	pending := q.Pending()[0]
	assert.Equal(t, "delete_block", pending.Tool)
	require.True(t, q.Approve(pending.ID))
	assert.False(t, q.Approve(pending.ID), "already resolved")

	require.NoError(t, <-done)
	assert.Empty(t, q.Pending())
	assert.Equal(t, []string{EventApprovalRequired}, emitter.Names())
}

func TestApprovalQueue_RejectAndTimeout(t *testing.T) {
	q := NewApprovalQueue(nil, 50*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- q.Request(context.Background(), "delete_document", "") }()
	require.Eventually(t, func() bool { return len(q.Pending()) == 1 }, time.Second, 5*time.Millisecond)
	q.Reject(q.Pending()[0].ID)
	assert.ErrorIs(t, <-done, ErrRejected)

	assert.ErrorIs(t, q.Request(context.Background(), "delete_document", ""), ErrApprovalTimeout)
}

func TestDeleteDocument_WaitsForApproval(t *testing.T) {
	q := NewApprovalQueue(nil, time.Second)
	s := newTestServer(t, q)
	ctx := context.Background()
	docID, _ := createWithBlock(t, s, domain.BlockTypeQuiz)

	done := make(chan error, 1)
	go func() {
		_, err := s.handleDeleteDocument(ctx, call(map[string]any{"documentId": docID}))
		done <- err
	}()
	require.Eventually(t, func() bool { return len(q.Pending()) == 1 }, time.Second, 5*time.Millisecond)
	_, err := s.docs.Get(docID)
	require.NoError(t, err, "nothing is deleted before approval")

	q.Approve(q.Pending()[0].ID)
	require.NoError(t, <-done)
	_, err = s.docs.Get(docID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.resolveDocID(map[string]any{})
	assert.Error(t, err, "active document is cleared")
}
