package collection

import (
	"slices"

	"coursebook/internal/domain"
	"coursebook/internal/nodes"
)

func AddCard(a domain.FlipCardAttrs) domain.FlipCardAttrs {
	a.Cards = append(slices.Clone(a.Cards), nodes.NewFlipCard())
	return a
}

// UpdateCard sets frontText or backText of the card at index.
func UpdateCard(a domain.FlipCardAttrs, index int, field, value string) domain.FlipCardAttrs {
	if !inRange(index, len(a.Cards)) {
		return a
	}
	c := a.Cards[index]
	switch field {
	case "frontText":
		c.FrontText = value
	case "backText":
		c.BackText = value
	default:
		return a
	}
	a.Cards = slices.Clone(a.Cards)
	a.Cards[index] = c
	return a
}

func RemoveCard(a domain.FlipCardAttrs, index int) domain.FlipCardAttrs {
	if !inRange(index, len(a.Cards)) {
		return a
	}
	a.Cards = slices.Delete(slices.Clone(a.Cards), index, index+1)
	return a
}
