package collection

import (
	"slices"

	"coursebook/internal/domain"
	"coursebook/internal/nodes"
)

func AddPoint(a domain.TimelineAttrs) domain.TimelineAttrs {
	a.Points = append(slices.Clone(a.Points), nodes.NewTimelinePoint())
	return a
}

// UpdatePoint sets title, description or date of the point at index.
func UpdatePoint(a domain.TimelineAttrs, index int, field, value string) domain.TimelineAttrs {
	if !inRange(index, len(a.Points)) {
		return a
	}
	p := a.Points[index]
	switch field {
	case "title":
		p.Title = value
	case "description":
		p.Description = value
	case "date":
		p.Date = value
	default:
		return a
	}
	a.Points = slices.Clone(a.Points)
	a.Points[index] = p
	return a
}

func RemovePoint(a domain.TimelineAttrs, index int) domain.TimelineAttrs {
	if !inRange(index, len(a.Points)) {
		return a
	}
	a.Points = slices.Delete(slices.Clone(a.Points), index, index+1)
	return a
}
