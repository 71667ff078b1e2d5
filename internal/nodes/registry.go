package nodes

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"

	"coursebook/internal/domain"
	"coursebook/internal/layout"
)

// ─────────────────────────────────────────────────────────────
// Node Registry: block type → defaults and renderer
// ─────────────────────────────────────────────────────────────

// ErrUnknownType is returned when a block is created for a type that was
// never registered.
var ErrUnknownType = errors.New("unknown block type")

// FallbackType is what unknown types resolve to.
const FallbackType = domain.BlockTypeParagraph

// RenderContext carries everything a renderer may need besides the block.
type RenderContext struct {
	Mode     domain.Mode
	Expanded []string // mind map ids to open on top of the mode's default
	Engine   *layout.Engine
}

// Renderer turns one block into its surface for a mode.
type Renderer func(b domain.Block, rc RenderContext) domain.Surface

// Spec declares one block type.
type Spec struct {
	// DefaultAttrs builds a fresh default payload. Nil means the type carries
	// no attrs.
	DefaultAttrs func() any
	// IsAtomic types keep all of their state in attrs and have no content.
	IsAtomic bool
	// IsBlockLevel types may appear directly under the document body.
	IsBlockLevel bool
	Render       Renderer
}

// Registry maps block types to their specs.
type Registry struct {
	mu     sync.RWMutex
	specs  map[domain.BlockType]Spec
	engine *layout.Engine
}

// NewRegistry creates an empty registry. Mind maps are laid out with engine.
func NewRegistry(engine *layout.Engine) *Registry {
	if engine == nil {
		engine = layout.NewEngine(layout.DefaultConfig())
	}
	return &Registry{specs: make(map[domain.BlockType]Spec), engine: engine}
}

// Register adds a type to the registry. Panics on duplicate registration.
func (r *Registry) Register(t domain.BlockType, s Spec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.specs[t]; exists {
		panic(fmt.Sprintf("node registry: duplicate registration for block type %q", t))
	}
	if s.Render == nil {
		s.Render = renderText
	}
	r.specs[t] = s
}

// Has reports whether t is registered.
func (r *Registry) Has(t domain.BlockType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.specs[t]
	return ok
}

// Lookup returns the spec for t, or the fallback spec when t is unknown.
func (r *Registry) Lookup(t domain.BlockType) Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.specs[t]; ok {
		return s
	}
	if s, ok := r.specs[FallbackType]; ok {
		return s
	}
	return Spec{IsBlockLevel: true, Render: renderText}
}

// Types returns every registered type in sorted order.
func (r *Registry) Types() []domain.BlockType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.BlockType, 0, len(r.specs))
	for t := range r.specs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Engine returns the layout engine used for mind maps.
func (r *Registry) Engine() *layout.Engine { return r.engine }

// CreateNode returns a new block of type t with a fresh id and its own copy of
// the default attrs.
func (r *Registry) CreateNode(t domain.BlockType) (domain.Block, error) {
	if !r.Has(t) {
		return domain.Block{}, fmt.Errorf("create node %q: %w", t, ErrUnknownType)
	}
	attrs, err := r.DefaultAttrs(t)
	if err != nil {
		return domain.Block{}, err
	}
	return domain.Block{ID: uuid.NewString(), Type: t, Attrs: attrs}, nil
}

// DefaultAttrs encodes a fresh default payload for t. Every call returns new
// bytes. Unknown types and types without attrs yield nil.
func (r *Registry) DefaultAttrs(t domain.BlockType) (json.RawMessage, error) {
	r.mu.RLock()
	s, ok := r.specs[t]
	r.mu.RUnlock()
	if !ok || s.DefaultAttrs == nil {
		return nil, nil
	}
	data, err := json.Marshal(s.DefaultAttrs())
	if err != nil {
		return nil, fmt.Errorf("encode default attrs for %q: %w", t, err)
	}
	return data, nil
}

// NewAttrs returns a pointer to a zero value of t's attrs shape, ready to be
// decoded into. The second result is false when t has no attrs.
func (r *Registry) NewAttrs(t domain.BlockType) (any, bool) {
	r.mu.RLock()
	s, ok := r.specs[t]
	r.mu.RUnlock()
	if !ok || s.DefaultAttrs == nil {
		return nil, false
	}
	return reflect.New(reflect.TypeOf(s.DefaultAttrs())).Interface(), true
}

// Render dispatches b to its type's renderer.
func (r *Registry) Render(b domain.Block, mode domain.Mode) domain.Surface {
	return r.RenderWith(b, RenderContext{Mode: mode})
}

// RenderWith is Render with extra context.
func (r *Registry) RenderWith(b domain.Block, rc RenderContext) domain.Surface {
	if rc.Engine == nil {
		rc.Engine = r.engine
	}
	if rc.Mode == "" {
		rc.Mode = domain.ModeViewer
	}
	if !r.Has(b.Type) {
		s := renderText(b, rc)
		s.Fallback = true
		return s
	}
	return r.Lookup(b.Type).Render(b, rc)
}
