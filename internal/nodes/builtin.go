package nodes

import (
	"coursebook/internal/domain"
	"coursebook/internal/layout"
	"coursebook/internal/tree"
)

// Default mind map geometry.
const (
	DefaultMindMapHeight = 400
	DefaultRootLabel     = "Central Topic"
)

// Builtin returns a registry with every block type the editor ships with.
func Builtin(engine *layout.Engine) *Registry {
	r := NewRegistry(engine)

	// rich text
	r.Register(domain.BlockTypeDoc, Spec{})
	r.Register(domain.BlockTypeParagraph, Spec{IsBlockLevel: true})
	r.Register(domain.BlockTypeHeading, Spec{
		IsBlockLevel: true,
		DefaultAttrs: func() any { return domain.HeadingAttrs{Level: 1} },
	})
	r.Register(domain.BlockTypeText, Spec{})
	r.Register(domain.BlockTypeBulletList, Spec{IsBlockLevel: true})
	r.Register(domain.BlockTypeListItem, Spec{})

	// interactive
	r.Register(domain.BlockTypeQuiz, Spec{
		IsAtomic:     true,
		IsBlockLevel: true,
		DefaultAttrs: func() any { return DefaultQuiz() },
		Render:       renderAtomic("add_option", "update_option", "remove_option", "set_correct_answer"),
	})
	r.Register(domain.BlockTypeFlipCard, Spec{
		IsAtomic:     true,
		IsBlockLevel: true,
		DefaultAttrs: func() any { return domain.FlipCardAttrs{Cards: []domain.FlipCard{NewFlipCard()}} },
		Render:       renderAtomic("add_card", "update_card", "remove_card"),
	})
	r.Register(domain.BlockTypeTimeline, Spec{
		IsAtomic:     true,
		IsBlockLevel: true,
		DefaultAttrs: func() any {
			return domain.TimelineAttrs{Title: "Timeline", Points: []domain.TimelinePoint{NewTimelinePoint()}}
		},
		Render: renderAtomic("add_point", "update_point", "remove_point"),
	})
	r.Register(domain.BlockTypeMindMap, Spec{
		IsAtomic:     true,
		IsBlockLevel: true,
		DefaultAttrs: func() any { return DefaultMindMap() },
		Render:       renderMindMap,
	})
	r.Register(domain.BlockTypeCodeBlock, Spec{
		IsAtomic:     true,
		IsBlockLevel: true,
		DefaultAttrs: func() any { return domain.CodeBlockAttrs{Language: "go"} },
		Render:       renderAtomic("edit_code"),
	})
	r.Register(domain.BlockTypeInfoHotspot, Spec{
		IsAtomic:     true,
		IsBlockLevel: true,
		DefaultAttrs: func() any { return domain.HotspotAttrs{Hotspots: []domain.Hotspot{}} },
		Render:       renderAtomic("set_image", "add_hotspot", "update_hotspot", "remove_hotspot"),
	})
	return r
}

func DefaultQuiz() domain.QuizAttrs {
	return domain.QuizAttrs{Options: []string{"Option 1", "Option 2"}}
}

func DefaultMindMap() domain.MindMapAttrs {
	return domain.MindMapAttrs{
		RootNode: domain.TreeNode{ID: "root", Label: DefaultRootLabel},
		Height:   DefaultMindMapHeight,
	}
}

func NewFlipCard() domain.FlipCard {
	return domain.FlipCard{ID: tree.NewID(), FrontText: "Front", BackText: "Back"}
}

func NewTimelinePoint() domain.TimelinePoint {
	return domain.TimelinePoint{ID: tree.NewID(), Title: "New event"}
}

func NewHotspot() domain.Hotspot {
	return domain.Hotspot{ID: tree.NewID(), X: 50, Y: 50, Title: "New hotspot"}
}
