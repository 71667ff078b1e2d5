package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"coursebook/internal/codec"
	"coursebook/internal/domain"
	"coursebook/internal/nodes"
	"coursebook/internal/tree"
)

// ─────────────────────────────────────────────────────────────
// Document Service: business logic for learning documents
// ─────────────────────────────────────────────────────────────

// ErrBlockNotFound is returned when a document has no block with the
// requested id.
var ErrBlockNotFound = errors.New("block not found")

const defaultTitle = "Untitled"

// DocumentService manages documents and the blocks inside them. All writes to
// one document go through its lock, one at a time.
type DocumentService struct {
	store   domain.DocumentStore
	reg     *nodes.Registry
	codec   *codec.Codec
	emitter EventEmitter
	locks   docLocks
	log     *slog.Logger
}

// NewDocumentService creates a DocumentService.
func NewDocumentService(store domain.DocumentStore, reg *nodes.Registry, c *codec.Codec, emitter EventEmitter) *DocumentService {
	if emitter == nil {
		emitter = LogEmitter{}
	}
	return &DocumentService{
		store:   store,
		reg:     reg,
		codec:   c,
		emitter: emitter,
		log:     slog.Default().With("component", "documents"),
	}
}

// Registry returns the node registry blocks are created from.
func (s *DocumentService) Registry() *nodes.Registry { return s.reg }

// Create stores a new, empty document.
func (s *DocumentService) Create(ctx context.Context, title string) (*domain.Document, error) {
	if strings.TrimSpace(title) == "" {
		title = defaultTitle
	}
	d := &domain.Document{ID: tree.NewID(), Title: title, Body: domain.NewBody()}
	if err := s.store.CreateDocument(d); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	s.emitter.Emit(ctx, EventDocumentChanged, ChangeEvent{DocumentID: d.ID, Op: "create"})
	return d, nil
}

// Get returns a document by ID.
func (s *DocumentService) Get(id string) (*domain.Document, error) {
	return s.store.GetDocument(id)
}

// List returns every document.
func (s *DocumentService) List() ([]domain.Document, error) {
	return s.store.ListDocuments()
}

// Rename changes a document's title.
func (s *DocumentService) Rename(ctx context.Context, id, title string) (*domain.Document, error) {
	return s.update(ctx, id, "rename", func(d *domain.Document) (bool, error) {
		if d.Title == title {
			return false, nil
		}
		d.Title = title
		return true, nil
	})
}

// Delete removes a document.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()
	if err := s.store.DeleteDocument(id); err != nil {
		return err
	}
	s.emitter.Emit(ctx, EventDocumentDeleted, ChangeEvent{DocumentID: id, Op: "delete"})
	return nil
}

// ReplaceBody normalizes body and stores it as the document's content.
func (s *DocumentService) ReplaceBody(ctx context.Context, id string, body domain.Block) (*domain.Document, error) {
	if body.Type != domain.BlockTypeDoc {
		return nil, fmt.Errorf("replace body: root block must be %q, got %q", domain.BlockTypeDoc, body.Type)
	}
	body = s.codec.Normalize(body)
	return s.update(ctx, id, "replace", func(d *domain.Document) (bool, error) {
		d.Body = body
		return true, nil
	})
}

// InsertBlock creates a block of type t from its registry defaults and
// inserts it at index among the top-level blocks. An index outside the
// current range appends.
func (s *DocumentService) InsertBlock(ctx context.Context, docID string, t domain.BlockType, index int) (*domain.Document, domain.Block, error) {
	b, err := s.reg.CreateNode(t)
	if err != nil {
		return nil, domain.Block{}, err
	}
	if !s.reg.Lookup(t).IsBlockLevel {
		return nil, domain.Block{}, fmt.Errorf("insert block: %q cannot appear at the top level", t)
	}
	d, err := s.update(ctx, docID, "insert", func(d *domain.Document) (bool, error) {
		content := d.Body.Content
		if index < 0 || index > len(content) {
			index = len(content)
		}
		next := make([]domain.Block, 0, len(content)+1)
		next = append(next, content[:index]...)
		next = append(next, b)
		next = append(next, content[index:]...)
		d.Body.Content = next
		return true, nil
	})
	if err != nil {
		return nil, domain.Block{}, err
	}
	return d, b, nil
}

// RemoveBlock deletes a block, wherever it is nested.
func (s *DocumentService) RemoveBlock(ctx context.Context, docID, blockID string) (*domain.Document, error) {
	return s.update(ctx, docID, "remove", func(d *domain.Document) (bool, error) {
		body, ok := removeBlock(d.Body, blockID)
		if !ok {
			return false, fmt.Errorf("remove block %s: %w", blockID, ErrBlockNotFound)
		}
		d.Body = body
		return true, nil
	})
}

// UpdateBlockAttrs replaces a block's attrs. The new attrs are merged over
// the type's defaults and validated like imported content.
func (s *DocumentService) UpdateBlockAttrs(ctx context.Context, docID, blockID string, attrs json.RawMessage) (domain.Block, error) {
	return s.EditBlock(ctx, docID, blockID, "update_attrs", func(b domain.Block) (domain.Block, error) {
		b.Attrs = attrs
		out := s.codec.Normalize(b)
		if out.Type != b.Type {
			return b, fmt.Errorf("update attrs: invalid attrs for %s", b.Type)
		}
		return out, nil
	})
}

// Block returns one block of a document.
func (s *DocumentService) Block(docID, blockID string) (domain.Block, error) {
	d, err := s.store.GetDocument(docID)
	if err != nil {
		return domain.Block{}, err
	}
	b := findBlock(&d.Body, blockID)
	if b == nil {
		return domain.Block{}, fmt.Errorf("block %s: %w", blockID, ErrBlockNotFound)
	}
	return *b, nil
}

// RenderBlock renders one block of a document.
func (s *DocumentService) RenderBlock(docID, blockID string, rc nodes.RenderContext) (domain.Surface, error) {
	b, err := s.Block(docID, blockID)
	if err != nil {
		return domain.Surface{}, err
	}
	start := time.Now()
	out := s.reg.RenderWith(b, rc)
	if out.Graph != nil {
		layoutDuration.Observe(time.Since(start).Seconds())
		layoutNodes.Observe(float64(len(out.Graph.Nodes)))
	}
	return out, nil
}

// EditBlock runs fn on one block under the document lock and persists the
// result when it differs from the input. op names the edit in events and
// metrics.
func (s *DocumentService) EditBlock(ctx context.Context, docID, blockID, op string, fn func(domain.Block) (domain.Block, error)) (domain.Block, error) {
	var result domain.Block
	_, err := s.update(ctx, docID, op, func(d *domain.Document) (bool, error) {
		target := findBlock(&d.Body, blockID)
		if target == nil {
			return false, fmt.Errorf("block %s: %w", blockID, ErrBlockNotFound)
		}
		next, err := fn(*target)
		if err != nil {
			return false, err
		}
		result = next
		if blockEqual(*target, next) {
			return false, nil
		}
		*target = next
		return true, nil
	}, blockID)
	if err != nil {
		return domain.Block{}, err
	}
	return result, nil
}

// update loads a document, applies fn and stores it if fn reports a change.
func (s *DocumentService) update(ctx context.Context, id, op string, fn func(*domain.Document) (bool, error), blockID ...string) (*domain.Document, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	d, err := s.store.GetDocument(id)
	if err != nil {
		return nil, err
	}
	changed, err := fn(d)
	if err != nil {
		transformTotal.WithLabelValues(op, resultError).Inc()
		return nil, err
	}
	if !changed {
		transformTotal.WithLabelValues(op, resultNoop).Inc()
		return d, nil
	}
	if err := s.store.UpdateDocument(d); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	transformTotal.WithLabelValues(op, resultApplied).Inc()

	ev := ChangeEvent{DocumentID: id, Op: op}
	if len(blockID) > 0 {
		ev.BlockID = blockID[0]
	}
	s.emitter.Emit(ctx, EventDocumentChanged, ev)
	s.log.DebugContext(ctx, "document updated", "id", id, "op", op)
	return d, nil
}

// ─── Import / export ───

// exportEnvelope is the file format written by ExportJSON.
type exportEnvelope struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Body      json.RawMessage `json:"body"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// ExportJSON returns a document in its exchange form.
func (s *DocumentService) ExportJSON(id string) ([]byte, error) {
	d, err := s.store.GetDocument(id)
	if err != nil {
		return nil, err
	}
	return s.encodeDocument(d)
}

func (s *DocumentService) encodeDocument(d *domain.Document) ([]byte, error) {
	body, err := s.codec.Serialize(d.Body)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(exportEnvelope{
		ID:        d.ID,
		Title:     d.Title,
		Body:      body,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document %s: %w", d.ID, err)
	}
	return data, nil
}

// ImportJSON stores externally produced content under id, creating the
// document if needed. data is either an exported document or a bare body
// block. The body is normalized before it is stored.
func (s *DocumentService) ImportJSON(ctx context.Context, id string, data []byte) (*domain.Document, error) {
	title := ""
	raw := data
	var env exportEnvelope
	if json.Unmarshal(data, &env) == nil && len(env.Body) > 0 {
		raw = env.Body
		title = env.Title
	}

	body, err := s.codec.Import(raw)
	if err != nil {
		importTotal.WithLabelValues(resultRejected).Inc()
		return nil, fmt.Errorf("import %s: %w", id, err)
	}
	if body.Type != domain.BlockTypeDoc {
		// a single block becomes the only block of a new body
		doc := domain.NewBody()
		doc.Content = []domain.Block{body}
		body = doc
	}
	if title == "" {
		title = firstHeading(body)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	d, err := s.store.GetDocument(id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if title == "" {
			title = id
		}
		d = &domain.Document{ID: id, Title: title, Body: body}
		err = s.store.CreateDocument(d)
	case err == nil:
		d.Body = body
		if title != "" {
			d.Title = title
		}
		err = s.store.UpdateDocument(d)
	}
	if err != nil {
		importTotal.WithLabelValues(resultError).Inc()
		return nil, fmt.Errorf("import %s: %w", id, err)
	}
	s.emitter.Emit(ctx, EventDocumentChanged, ChangeEvent{DocumentID: id, Op: "import"})
	importTotal.WithLabelValues(resultApplied).Inc()
	s.log.InfoContext(ctx, "document imported", "id", id, "blocks", len(body.Content))
	return d, nil
}

// ─── Block tree helpers ───

func findBlock(b *domain.Block, id string) *domain.Block {
	if b.ID == id && id != "" {
		return b
	}
	for i := range b.Content {
		if found := findBlock(&b.Content[i], id); found != nil {
			return found
		}
	}
	return nil
}

func removeBlock(b domain.Block, id string) (domain.Block, bool) {
	for i, c := range b.Content {
		if c.ID == id {
			next := make([]domain.Block, 0, len(b.Content)-1)
			next = append(next, b.Content[:i]...)
			next = append(next, b.Content[i+1:]...)
			b.Content = next
			return b, true
		}
		if out, ok := removeBlock(c, id); ok {
			next := make([]domain.Block, len(b.Content))
			copy(next, b.Content)
			next[i] = out
			b.Content = next
			return b, true
		}
	}
	return b, false
}

func blockEqual(a, b domain.Block) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	return errA == nil && errB == nil && string(ja) == string(jb)
}

func firstHeading(body domain.Block) string {
	for _, b := range body.Content {
		if b.Type == domain.BlockTypeHeading {
			if t := nodes.PlainText(b); t != "" {
				return t
			}
		}
	}
	return ""
}
