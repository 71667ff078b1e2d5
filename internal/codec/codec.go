package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"coursebook/internal/domain"
	"coursebook/internal/nodes"
)

// Codec converts documents to and from their JSON form. Decoding is
// fail-soft: a node that cannot be read as its declared type becomes a
// fallback paragraph and the rest of the document is unaffected.
type Codec struct {
	reg      *nodes.Registry
	validate *validator.Validate
}

func New(reg *nodes.Registry) *Codec {
	return &Codec{
		reg:      reg,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Serialize encodes b.
func (c *Codec) Serialize(b domain.Block) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(b); err != nil {
		return nil, fmt.Errorf("serialize block: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Deserialize decodes a block tree. Only data that is not JSON at all is an
// error; everything else degrades per node.
func (c *Codec) Deserialize(data []byte) (domain.Block, error) {
	return c.decodeTop(data, false)
}

// Import decodes externally generated JSON and normalizes it. Null and empty
// entries are dropped instead of becoming fallbacks.
func (c *Codec) Import(data []byte) (domain.Block, error) {
	b, err := c.decodeTop(data, true)
	if err != nil {
		return domain.Block{}, err
	}
	return c.Normalize(b), nil
}

func (c *Codec) decodeTop(data []byte, prune bool) (domain.Block, error) {
	if !json.Valid(data) {
		return domain.Block{}, fmt.Errorf("deserialize block: invalid JSON")
	}
	return c.decode(bytes.TrimSpace(data), prune), nil
}

// rawBlock mirrors domain.Block with children left undecoded.
type rawBlock struct {
	ID      string            `json:"id"`
	Type    domain.BlockType  `json:"type"`
	Attrs   json.RawMessage   `json:"attrs"`
	Content []json.RawMessage `json:"content"`
	Text    string            `json:"text"`
}

func (c *Codec) decode(data json.RawMessage, prune bool) domain.Block {
	var raw rawBlock
	if err := json.Unmarshal(data, &raw); err != nil || isNull(data) {
		return fallback(domain.Block{}, typeHint(data))
	}
	b := domain.Block{
		ID:    raw.ID,
		Type:  raw.Type,
		Attrs: compact(raw.Attrs),
		Text:  raw.Text,
	}
	for _, child := range raw.Content {
		if prune && isEmptyEntry(child) {
			continue
		}
		b.Content = append(b.Content, c.decode(child, prune))
	}
	if !c.reg.Has(b.Type) {
		return fallback(b, string(b.Type))
	}
	if len(b.Attrs) > 0 {
		if target, ok := c.reg.NewAttrs(b.Type); ok {
			if err := json.Unmarshal(b.Attrs, target); err != nil {
				return fallback(b, string(b.Type))
			}
		}
	}
	return b
}

// fallback turns b into a plain paragraph that remembers what it was. Text
// and children are kept so their content is still readable.
func fallback(b domain.Block, from string) domain.Block {
	if from == "" {
		from = "unknown"
	}
	attrs, _ := json.Marshal(domain.FallbackAttrs{FallbackFrom: from})
	b.Type = nodes.FallbackType
	b.Attrs = attrs
	return b
}

func typeHint(data json.RawMessage) string {
	var peek struct {
		Type string `json:"type"`
	}
	if json.Unmarshal(data, &peek) == nil {
		return peek.Type
	}
	return ""
}

// isEmptyEntry reports content entries that carry nothing: nulls, untyped
// empty objects and text nodes without text.
func isEmptyEntry(data json.RawMessage) bool {
	if isNull(data) {
		return true
	}
	var raw rawBlock
	if json.Unmarshal(data, &raw) != nil {
		return false
	}
	empty := len(raw.Content) == 0 && raw.Text == "" && len(compact(raw.Attrs)) == 0
	return empty && (raw.Type == "" || raw.Type == domain.BlockTypeText)
}

func isNull(data json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

func compact(data json.RawMessage) json.RawMessage {
	if len(data) == 0 || isNull(data) {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return nil
	}
	return buf.Bytes()
}
