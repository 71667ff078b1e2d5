package domain

import (
	"encoding/json"
	"errors"
	"time"
)

type BlockType string

const (
	BlockTypeDoc        BlockType = "doc"
	BlockTypeParagraph  BlockType = "paragraph"
	BlockTypeHeading    BlockType = "heading"
	BlockTypeText       BlockType = "text"
	BlockTypeBulletList BlockType = "bulletList"
	BlockTypeListItem   BlockType = "listItem"

	BlockTypeQuiz        BlockType = "quiz"
	BlockTypeFlipCard    BlockType = "flipCard"
	BlockTypeTimeline    BlockType = "timeline"
	BlockTypeMindMap     BlockType = "mindMap"
	BlockTypeCodeBlock   BlockType = "codeBlock"
	BlockTypeInfoHotspot BlockType = "infoHotspot"
)

// ErrNotFound is returned by stores when a document does not exist.
var ErrNotFound = errors.New("not found")

// Block is one node of the document tree. Rich-text containers nest children
// under Content; atomic nodes keep all of their state in Attrs.
type Block struct {
	ID      string          `json:"id,omitempty"`
	Type    BlockType       `json:"type"`
	Attrs   json.RawMessage `json:"attrs,omitempty"`
	Content []Block         `json:"content,omitempty"`
	Text    string          `json:"text,omitempty"`
}

// Document is the persisted record. Body is a root block of type "doc"
// whose Content is the ordered forest of top-level blocks.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      Block     `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewBody returns an empty document body.
func NewBody() Block {
	return Block{Type: BlockTypeDoc}
}

// BlockIndex returns the position of the top-level block with the given id,
// or -1.
func (d *Document) BlockIndex(blockID string) int {
	for i, b := range d.Body.Content {
		if b.ID == blockID {
			return i
		}
	}
	return -1
}

type DocumentStore interface {
	CreateDocument(d *Document) error
	GetDocument(id string) (*Document, error)
	ListDocuments() ([]Document, error)
	UpdateDocument(d *Document) error
	DeleteDocument(id string) error
}
