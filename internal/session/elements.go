// Package session holds the transient edit state of one image: the active
// filter, the adjustment sliders and the ordered text and sticker overlays.
package session

import (
	"github.com/google/uuid"
)

type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

type FontWeight string

const (
	WeightNormal FontWeight = "normal"
	WeightBold   FontWeight = "bold"
)

type TextTransform string

const (
	TransformNone       TextTransform = "none"
	TransformUppercase  TextTransform = "uppercase"
	TransformLowercase  TextTransform = "lowercase"
	TransformCapitalize TextTransform = "capitalize"
)

// TextElement is a text overlay. X and Y are percentages of the canvas,
// FontSize is in pixels at the 800px reference width and Opacity is 0-100.
type TextElement struct {
	ID                string        `json:"id"`
	Text              string        `json:"text"`
	X                 float64       `json:"x"`
	Y                 float64       `json:"y"`
	FontSize          float64       `json:"fontSize"`
	FontFamily        string        `json:"fontFamily"`
	Color             string        `json:"color"`
	HasShadow         bool          `json:"hasShadow"`
	HasOutline        bool          `json:"hasOutline"`
	OutlineColor      string        `json:"outlineColor"`
	OutlineWidth      float64       `json:"outlineWidth"`
	Alignment         Alignment     `json:"alignment"`
	FontWeight        FontWeight    `json:"fontWeight"`
	TextTransform     TextTransform `json:"textTransform"`
	LetterSpacing     float64       `json:"letterSpacing"`
	LineHeight        float64       `json:"lineHeight"`
	Rotation          float64       `json:"rotation"`
	Opacity           float64       `json:"opacity"`
	BackgroundColor   string        `json:"backgroundColor"`
	HasBackground     bool          `json:"hasBackground"`
	Blur              float64       `json:"blur"`
	HasGradient       bool          `json:"hasGradient"`
	GradientColors    []string      `json:"gradientColors"`
	GradientDirection float64       `json:"gradientDirection"`
}

// StickerElement is a sticker overlay. Stickers are drawn in ZIndex order.
type StickerElement struct {
	ID             string  `json:"id"`
	StickerID      string  `json:"stickerId"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	Size           float64 `json:"size"`
	Rotation       float64 `json:"rotation"`
	Opacity        float64 `json:"opacity"`
	FlipHorizontal bool    `json:"flipHorizontal"`
	FlipVertical   bool    `json:"flipVertical"`
	Blur           float64 `json:"blur"`
	Shadow         bool    `json:"shadow"`
	ShadowColor    string  `json:"shadowColor"`
	ShadowBlur     float64 `json:"shadowBlur"`
	ShadowOffsetX  float64 `json:"shadowOffsetX"`
	ShadowOffsetY  float64 `json:"shadowOffsetY"`
	ZIndex         int     `json:"zIndex"`
}

// NewText returns a centered text element with editor defaults.
func NewText(text string) TextElement {
	return TextElement{
		ID:             uuid.NewString(),
		Text:           text,
		X:              50,
		Y:              50,
		FontSize:       32,
		FontFamily:     "Go",
		Color:          "#FFFFFF",
		OutlineColor:   "#000000",
		OutlineWidth:   2,
		Alignment:      AlignCenter,
		FontWeight:     WeightNormal,
		TextTransform:  TransformNone,
		LineHeight:     1.2,
		Opacity:        100,
		GradientColors: []string{"#FF6B6B", "#4ECDC4"},
	}
}

// NewSticker returns a centered sticker element with editor defaults.
func NewSticker(stickerID string) StickerElement {
	return StickerElement{
		ID:            uuid.NewString(),
		StickerID:     stickerID,
		X:             50,
		Y:             50,
		Size:          64,
		Opacity:       100,
		ShadowColor:   "#000000",
		ShadowBlur:    5,
		ShadowOffsetX: 2,
		ShadowOffsetY: 2,
	}
}

func (t TextElement) clone() TextElement {
	t.GradientColors = append([]string(nil), t.GradientColors...)
	return t
}
