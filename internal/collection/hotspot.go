package collection

import (
	"slices"
	"strconv"

	"coursebook/internal/domain"
	"coursebook/internal/nodes"
)

func AddHotspot(a domain.HotspotAttrs) domain.HotspotAttrs {
	a.Hotspots = append(slices.Clone(a.Hotspots), nodes.NewHotspot())
	return a
}

// UpdateHotspot sets title, content, x or y of the hotspot at index.
// Coordinates are percentages and are clamped to 0..100; values that do not
// parse as numbers are ignored.
func UpdateHotspot(a domain.HotspotAttrs, index int, field, value string) domain.HotspotAttrs {
	if !inRange(index, len(a.Hotspots)) {
		return a
	}
	h := a.Hotspots[index]
	switch field {
	case "title":
		h.Title = value
	case "content":
		h.Content = value
	case "x", "y":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return a
		}
		f = min(max(f, 0), 100)
		if field == "x" {
			h.X = f
		} else {
			h.Y = f
		}
	default:
		return a
	}
	a.Hotspots = slices.Clone(a.Hotspots)
	a.Hotspots[index] = h
	return a
}

func RemoveHotspot(a domain.HotspotAttrs, index int) domain.HotspotAttrs {
	if !inRange(index, len(a.Hotspots)) {
		return a
	}
	a.Hotspots = slices.Delete(slices.Clone(a.Hotspots), index, index+1)
	return a
}
