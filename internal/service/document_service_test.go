package service_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursebook/internal/domain"
	"coursebook/internal/nodes"
	"coursebook/internal/service"
)

func attrsOf[T any](t *testing.T, b domain.Block) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(b.Attrs, &v))
	return v
}

func TestDocumentService_CreateDefaultsTitle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.docs.Create(ctx, "  ")
	require.NoError(t, err)
	assert.Equal(t, "Untitled", d.Title)
	assert.Equal(t, domain.BlockTypeDoc, d.Body.Type)

	got, err := f.docs.Get(d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)
	assert.Equal(t, []string{service.EventDocumentChanged}, f.emitter.Names())
}

func TestDocumentService_RenameNoopSkipsWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, err := f.docs.Create(ctx, "Biology")
	require.NoError(t, err)

	_, err = f.docs.Rename(ctx, d.ID, "Biology")
	require.NoError(t, err)
	assert.Len(t, f.emitter.Events, 1, "unchanged title emits nothing")

	renamed, err := f.docs.Rename(ctx, d.ID, "Botany")
	require.NoError(t, err)
	assert.Equal(t, "Botany", renamed.Title)
	assert.Len(t, f.emitter.Events, 2)
}

func TestDocumentService_InsertAndRemoveBlocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, err := f.docs.Create(ctx, "Lesson")
	require.NoError(t, err)

	_, quiz, err := f.docs.InsertBlock(ctx, d.ID, domain.BlockTypeQuiz, -1)
	require.NoError(t, err)
	_, mm, err := f.docs.InsertBlock(ctx, d.ID, domain.BlockTypeMindMap, 0)
	require.NoError(t, err)
	doc, code, err := f.docs.InsertBlock(ctx, d.ID, domain.BlockTypeCodeBlock, 99)
	require.NoError(t, err)

	ids := []string{doc.Body.Content[0].ID, doc.Body.Content[1].ID, doc.Body.Content[2].ID}
	assert.Equal(t, []string{mm.ID, quiz.ID, code.ID}, ids)

	q := attrsOf[domain.QuizAttrs](t, quiz)
	assert.Equal(t, []string{"Option 1", "Option 2"}, q.Options)

	doc, err = f.docs.RemoveBlock(ctx, d.ID, quiz.ID)
	require.NoError(t, err)
	assert.Len(t, doc.Body.Content, 2)
	assert.Equal(t, -1, doc.BlockIndex(quiz.ID))

	_, err = f.docs.RemoveBlock(ctx, d.ID, quiz.ID)
	assert.ErrorIs(t, err, service.ErrBlockNotFound)
}

func TestDocumentService_InsertRejectsInlineAndUnknown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, err := f.docs.Create(ctx, "Lesson")
	require.NoError(t, err)

	_, _, err = f.docs.InsertBlock(ctx, d.ID, domain.BlockTypeText, 0)
	assert.Error(t, err)
	_, _, err = f.docs.InsertBlock(ctx, d.ID, "hologram", 0)
	assert.ErrorIs(t, err, nodes.ErrUnknownType)
}

func TestDocumentService_MissingDocument(t *testing.T) {
	f := newFixture(t)
	_, err := f.docs.Get("nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, _, err = f.docs.InsertBlock(context.Background(), "nope", domain.BlockTypeQuiz, 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentService_UpdateBlockAttrs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, err := f.docs.Create(ctx, "Lesson")
	require.NoError(t, err)
	_, code, err := f.docs.InsertBlock(ctx, d.ID, domain.BlockTypeCodeBlock, 0)
	require.NoError(t, err)

	b, err := f.docs.UpdateBlockAttrs(ctx, d.ID, code.ID, json.RawMessage(`{"code":"fmt.Println(1)"}`))
	require.NoError(t, err)
	c := attrsOf[domain.CodeBlockAttrs](t, b)
	assert.Equal(t, "fmt.Println(1)", c.Code)

	_, err = f.docs.UpdateBlockAttrs(ctx, d.ID, code.ID, json.RawMessage(`{"code":42}`))
	assert.Error(t, err)

	stored, err := f.docs.Block(d.ID, code.ID)
	require.NoError(t, err)
	assert.Equal(t, "fmt.Println(1)", attrsOf[domain.CodeBlockAttrs](t, stored).Code)
}

func TestDocumentService_RenderBlock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, err := f.docs.Create(ctx, "Lesson")
	require.NoError(t, err)
	_, mm, err := f.docs.InsertBlock(ctx, d.ID, domain.BlockTypeMindMap, 0)
	require.NoError(t, err)

	author, err := f.docs.RenderBlock(d.ID, mm.ID, nodes.RenderContext{Mode: domain.ModeAuthor})
	require.NoError(t, err)
	require.NotNil(t, author.Graph)
	assert.Len(t, author.Graph.Nodes, 1)
	assert.NotEmpty(t, author.Actions)

	viewer, err := f.docs.RenderBlock(d.ID, mm.ID, nodes.RenderContext{Mode: domain.ModeViewer})
	require.NoError(t, err)
	assert.Empty(t, viewer.Actions)

	_, err = f.docs.RenderBlock(d.ID, "missing", nodes.RenderContext{Mode: domain.ModeViewer})
	assert.ErrorIs(t, err, service.ErrBlockNotFound)
}

func TestDocumentService_ConcurrentEditsAreSequenced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, err := f.docs.Create(ctx, "Lesson")
	require.NoError(t, err)
	_, quiz, err := f.docs.InsertBlock(ctx, d.ID, domain.BlockTypeQuiz, 0)
	require.NoError(t, err)

	const n = 15
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.items.AddItem(ctx, d.ID, quiz.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	b, err := f.docs.Block(d.ID, quiz.ID)
	require.NoError(t, err)
	assert.Len(t, attrsOf[domain.QuizAttrs](t, b).Options, 2+n, "no edit is lost")
}

func TestDocumentService_DeleteEmits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, err := f.docs.Create(ctx, "Lesson")
	require.NoError(t, err)

	require.NoError(t, f.docs.Delete(ctx, d.ID))
	assert.Equal(t, service.EventDocumentDeleted, f.emitter.Names()[1])
	assert.ErrorIs(t, f.docs.Delete(ctx, d.ID), domain.ErrNotFound)
}

// ─── Import / export ───

func TestDocumentService_ImportBareBody(t *testing.T) {
	f := newFixture(t)
	data := []byte(`{"type":"doc","content":[
		{"type":"heading","attrs":{"level":1},"content":[{"type":"text","text":"Cells"}]},
		null,
		{"type":"hologram","content":[{"type":"text","text":"kept"}]}
	]}`)

	d, err := f.docs.ImportJSON(context.Background(), "cells", data)
	require.NoError(t, err)
	assert.Equal(t, "cells", d.ID)
	assert.Equal(t, "Cells", d.Title)
	require.Len(t, d.Body.Content, 2)
	assert.Equal(t, domain.BlockTypeParagraph, d.Body.Content[1].Type)
	assert.Equal(t, "kept", nodes.PlainText(d.Body.Content[1]))
}

func TestDocumentService_ImportSingleBlockIsWrapped(t *testing.T) {
	f := newFixture(t)
	d, err := f.docs.ImportJSON(context.Background(), "q1", []byte(`{"type":"quiz","attrs":{"question":"Q","options":["a"]}}`))
	require.NoError(t, err)
	assert.Equal(t, "q1", d.Title)
	require.Len(t, d.Body.Content, 1)
	q := attrsOf[domain.QuizAttrs](t, d.Body.Content[0])
	assert.Len(t, q.Options, 2)
}

func TestDocumentService_ImportedBlocksAreEditable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	data := []byte(`{"type":"doc","content":[
		{"type":"mindMap","attrs":{"rootNode":{"id":"root","label":"Cell","children":[]}}},
		{"type":"quiz","attrs":{"question":"Q","options":["a","b"]}}
	]}`)
	d, err := f.docs.ImportJSON(ctx, "lesson", data)
	require.NoError(t, err)
	require.Len(t, d.Body.Content, 2)
	mmID, quizID := d.Body.Content[0].ID, d.Body.Content[1].ID
	require.NotEmpty(t, mmID)
	require.NotEmpty(t, quizID)

	mm, err := f.maps.Apply(ctx, "lesson", mmID, service.MindMapEdit{Op: service.OpAddChild, TargetID: "root", Label: "Nucleus"})
	require.NoError(t, err)
	require.Len(t, mm.RootNode.Children, 1)
	assert.Equal(t, "Nucleus", mm.RootNode.Children[0].Label)

	q, err := f.items.AddItem(ctx, "lesson", quizID)
	require.NoError(t, err)
	assert.Len(t, attrsOf[domain.QuizAttrs](t, q).Options, 3)

	surface, err := f.docs.RenderBlock("lesson", mmID, nodes.RenderContext{Mode: domain.ModeAuthor})
	require.NoError(t, err)
	require.NotNil(t, surface.Graph)
	assert.Len(t, surface.Graph.Nodes, 2)

	stored, err := f.docs.Get("lesson")
	require.NoError(t, err)
	assert.Equal(t, mmID, stored.Body.Content[0].ID, "ids survive storage")
}

func TestDocumentService_ImportRejectsInvalidJSON(t *testing.T) {
	f := newFixture(t)
	_, err := f.docs.ImportJSON(context.Background(), "bad", []byte(`{"type":`))
	assert.Error(t, err)
	_, err = f.docs.Get("bad")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentService_ExportImportRoundTrip(t *testing.T) {
	src := newFixture(t)
	ctx := context.Background()
	d, err := src.docs.Create(ctx, "Round trip")
	require.NoError(t, err)
	_, _, err = src.docs.InsertBlock(ctx, d.ID, domain.BlockTypeTimeline, 0)
	require.NoError(t, err)
	_, mm, err := src.docs.InsertBlock(ctx, d.ID, domain.BlockTypeMindMap, 1)
	require.NoError(t, err)
	_, err = src.maps.Apply(ctx, d.ID, mm.ID, service.MindMapEdit{Op: service.OpAddChild, TargetID: "root", Label: "Idea"})
	require.NoError(t, err)

	data, err := src.docs.ExportJSON(d.ID)
	require.NoError(t, err)

	dst := newFixture(t)
	got, err := dst.docs.ImportJSON(ctx, d.ID, data)
	require.NoError(t, err)
	want, err := src.docs.Get(d.ID)
	require.NoError(t, err)
	assert.Equal(t, want.Title, got.Title)
	assert.Equal(t, want.Body, got.Body)
}

func TestExportService_ExportAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.docs.Create(ctx, "A")
	require.NoError(t, err)
	b, err := f.docs.Create(ctx, "B")
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "out")
	emitter := &service.MockEmitter{}
	exp := service.NewExportService(f.docs, dir, emitter)

	n, err := exp.ExportAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	for _, d := range []*domain.Document{a, b} {
		data, err := os.ReadFile(filepath.Join(dir, d.ID+".json"))
		require.NoError(t, err)
		var env struct {
			ID    string          `json:"id"`
			Title string          `json:"title"`
			Body  json.RawMessage `json:"body"`
		}
		require.NoError(t, json.Unmarshal(data, &env))
		assert.Equal(t, d.Title, env.Title)
		assert.JSONEq(t, `{"type":"doc"}`, string(env.Body))
	}
	assert.Equal(t, []string{service.EventDocumentsExport}, emitter.Names())

	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestExportService_StartRejectsBadSchedule(t *testing.T) {
	f := newFixture(t)
	exp := service.NewExportService(f.docs, t.TempDir(), nil)
	assert.Error(t, exp.Start(context.Background(), "not a schedule"))
	require.NoError(t, exp.Start(context.Background(), "@every 1h"))
	exp.Stop(context.Background())
}
