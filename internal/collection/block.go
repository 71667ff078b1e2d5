package collection

import (
	"encoding/json"
	"fmt"
	"strings"

	"coursebook/internal/domain"
)

// IsCollection reports whether blocks of type t hold an index-addressed list.
func IsCollection(t domain.BlockType) bool {
	switch t {
	case domain.BlockTypeQuiz, domain.BlockTypeFlipCard, domain.BlockTypeTimeline, domain.BlockTypeInfoHotspot:
		return true
	}
	return false
}

// AddItem appends a default item to a collection block. Other blocks are
// returned unchanged.
func AddItem(b domain.Block) (domain.Block, error) {
	switch b.Type {
	case domain.BlockTypeQuiz:
		return apply(b, AddOption)
	case domain.BlockTypeFlipCard:
		return apply(b, AddCard)
	case domain.BlockTypeTimeline:
		return apply(b, AddPoint)
	case domain.BlockTypeInfoHotspot:
		return apply(b, AddHotspot)
	}
	return b, nil
}

// UpdateItem sets one field of the item at index. Quiz options are plain
// strings, so field is ignored for quizzes.
func UpdateItem(b domain.Block, index int, field, value string) (domain.Block, error) {
	switch b.Type {
	case domain.BlockTypeQuiz:
		return apply(b, func(q domain.QuizAttrs) domain.QuizAttrs { return UpdateOption(q, index, value) })
	case domain.BlockTypeFlipCard:
		return apply(b, func(a domain.FlipCardAttrs) domain.FlipCardAttrs { return UpdateCard(a, index, field, value) })
	case domain.BlockTypeTimeline:
		return apply(b, func(a domain.TimelineAttrs) domain.TimelineAttrs { return UpdatePoint(a, index, field, value) })
	case domain.BlockTypeInfoHotspot:
		return apply(b, func(a domain.HotspotAttrs) domain.HotspotAttrs { return UpdateHotspot(a, index, field, value) })
	}
	return b, nil
}

// RemoveItem drops the item at index.
func RemoveItem(b domain.Block, index int) (domain.Block, error) {
	switch b.Type {
	case domain.BlockTypeQuiz:
		return apply(b, func(q domain.QuizAttrs) domain.QuizAttrs { return RemoveOption(q, index) })
	case domain.BlockTypeFlipCard:
		return apply(b, func(a domain.FlipCardAttrs) domain.FlipCardAttrs { return RemoveCard(a, index) })
	case domain.BlockTypeTimeline:
		return apply(b, func(a domain.TimelineAttrs) domain.TimelineAttrs { return RemovePoint(a, index) })
	case domain.BlockTypeInfoHotspot:
		return apply(b, func(a domain.HotspotAttrs) domain.HotspotAttrs { return RemoveHotspot(a, index) })
	}
	return b, nil
}

// SetQuizAnswer marks the correct option of a quiz block.
func SetQuizAnswer(b domain.Block, index int) (domain.Block, error) {
	if b.Type != domain.BlockTypeQuiz {
		return b, nil
	}
	return apply(b, func(q domain.QuizAttrs) domain.QuizAttrs { return SetCorrectAnswer(q, index) })
}

// apply decodes b's attrs as T, runs fn and writes the result back over the
// original attrs. Keys T does not know are carried through untouched.
func apply[T any](b domain.Block, fn func(T) T) (domain.Block, error) {
	var attrs T
	if len(b.Attrs) > 0 {
		if err := json.Unmarshal(b.Attrs, &attrs); err != nil {
			return b, fmt.Errorf("decode %s attrs: %w", b.Type, err)
		}
	}
	data, err := json.Marshal(fn(attrs))
	if err != nil {
		return b, fmt.Errorf("encode %s attrs: %w", b.Type, err)
	}
	if data, err = keepUnknown(b.Attrs, data); err != nil {
		return b, fmt.Errorf("encode %s attrs: %w", b.Type, err)
	}
	b.Attrs = data
	return b, nil
}

// keepUnknown overlays the typed encoding on the original object. Original
// keys that match a typed key case-insensitively are replaced, since the
// decoder folded them into the typed field.
func keepUnknown(orig, typed json.RawMessage) (json.RawMessage, error) {
	base := map[string]json.RawMessage{}
	if len(orig) == 0 || json.Unmarshal(orig, &base) != nil || len(base) == 0 {
		return typed, nil
	}
	over := map[string]json.RawMessage{}
	if err := json.Unmarshal(typed, &over); err != nil {
		return nil, err
	}
	for k := range base {
		for tk := range over {
			if strings.EqualFold(k, tk) {
				delete(base, k)
				break
			}
		}
	}
	for k, v := range over {
		base[k] = v
	}
	return json.Marshal(base)
}
