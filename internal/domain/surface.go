package domain

import "encoding/json"

// Mode selects which surface a node renders. It is fixed for the lifetime of
// a rendered instance.
type Mode string

const (
	ModeAuthor Mode = "author"
	ModeViewer Mode = "viewer"
)

// ModeFor maps the externally supplied editable flag to a mode.
func ModeFor(editable bool) Mode {
	if editable {
		return ModeAuthor
	}
	return ModeViewer
}

// Surface is the rendered form of one block for one mode.
type Surface struct {
	BlockID  string           `json:"blockId"`
	Type     BlockType        `json:"type"`
	Mode     Mode             `json:"mode"`
	Fallback bool             `json:"fallback,omitempty"`
	Actions  []string         `json:"actions,omitempty"` // authoring handles, empty for viewers
	Attrs    json.RawMessage  `json:"attrs,omitempty"`
	Text     string           `json:"text,omitempty"`
	Graph    *PositionedGraph `json:"graph,omitempty"`
	Extent   *BoundingBox     `json:"extent,omitempty"`
}
