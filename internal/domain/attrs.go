package domain

// ─────────────────────────────────────────────────────────────
// Attribute payloads for atomic nodes
// ─────────────────────────────────────────────────────────────

// MinQuizOptions is the smallest option list a quiz may hold.
const MinQuizOptions = 2

type QuizAttrs struct {
	Question      string   `json:"question"`
	Options       []string `json:"options" validate:"min=2"`
	CorrectAnswer int      `json:"correctAnswer" validate:"gte=0"`
	Explanation   string   `json:"explanation"`
}

type FlipCard struct {
	ID        string `json:"id"`
	FrontText string `json:"frontText"`
	BackText  string `json:"backText"`
}

type FlipCardAttrs struct {
	Cards []FlipCard `json:"cards"`
}

type TimelinePoint struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

type TimelineAttrs struct {
	Title  string          `json:"title"`
	Points []TimelinePoint `json:"points"`
}

type Hotspot struct {
	ID      string  `json:"id"`
	X       float64 `json:"x" validate:"gte=0,lte=100"`
	Y       float64 `json:"y" validate:"gte=0,lte=100"`
	Title   string  `json:"title"`
	Content string  `json:"content"`
}

type HotspotAttrs struct {
	ImageURL string    `json:"imageUrl"`
	Hotspots []Hotspot `json:"hotspots" validate:"dive"`
}

type CodeBlockAttrs struct {
	Language string `json:"language"`
	Code     string `json:"code"`
	Filename string `json:"filename,omitempty"`
}

type HeadingAttrs struct {
	Level int `json:"level" validate:"gte=1,lte=6"`
}

// FallbackAttrs is written into blocks that could not be decoded as their
// declared type.
type FallbackAttrs struct {
	FallbackFrom string `json:"fallbackFrom,omitempty"`
}
