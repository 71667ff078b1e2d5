package service

import (
	"context"
	"fmt"

	"coursebook/internal/collection"
	"coursebook/internal/domain"
)

// CollectionService edits the item lists of quiz, flip card, timeline and
// hotspot blocks.
type CollectionService struct {
	docs *DocumentService
}

func NewCollectionService(docs *DocumentService) *CollectionService {
	return &CollectionService{docs: docs}
}

func (s *CollectionService) AddItem(ctx context.Context, docID, blockID string) (domain.Block, error) {
	return s.edit(ctx, docID, blockID, "add_item", collection.AddItem)
}

func (s *CollectionService) UpdateItem(ctx context.Context, docID, blockID string, index int, field, value string) (domain.Block, error) {
	return s.edit(ctx, docID, blockID, "update_item", func(b domain.Block) (domain.Block, error) {
		return collection.UpdateItem(b, index, field, value)
	})
}

func (s *CollectionService) RemoveItem(ctx context.Context, docID, blockID string, index int) (domain.Block, error) {
	return s.edit(ctx, docID, blockID, "remove_item", func(b domain.Block) (domain.Block, error) {
		return collection.RemoveItem(b, index)
	})
}

func (s *CollectionService) SetCorrectAnswer(ctx context.Context, docID, blockID string, index int) (domain.Block, error) {
	return s.edit(ctx, docID, blockID, "set_correct_answer", func(b domain.Block) (domain.Block, error) {
		if b.Type != domain.BlockTypeQuiz {
			return b, fmt.Errorf("block %s is a %s, not a quiz", b.ID, b.Type)
		}
		return collection.SetQuizAnswer(b, index)
	})
}

func (s *CollectionService) edit(ctx context.Context, docID, blockID, op string, fn func(domain.Block) (domain.Block, error)) (domain.Block, error) {
	return s.docs.EditBlock(ctx, docID, blockID, op, func(b domain.Block) (domain.Block, error) {
		if !collection.IsCollection(b.Type) {
			return b, fmt.Errorf("block %s is a %s, which has no items", b.ID, b.Type)
		}
		return fn(b)
	})
}
