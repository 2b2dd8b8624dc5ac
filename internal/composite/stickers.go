package composite

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"

	"github.com/MeKo-Tech/photocore/internal/colorspace"
	"github.com/MeKo-Tech/photocore/internal/raster"
	"github.com/MeKo-Tech/photocore/internal/session"
)

// Sticker is a built-in vector pictogram. Emoji is the glyph the editor
// shows for it; rendering never depends on an emoji font.
type Sticker struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Emoji    string `json:"emoji"`
	Category string `json:"category"`

	// paint draws the pictogram centered on the origin inside a box of
	// side 2r.
	paint func(dc *gg.Context, r float64)
}

var stickerList = []Sticker{
	{ID: "heart", Name: "Heart", Emoji: "❤️", Category: "love", paint: paintHeart},
	{ID: "star", Name: "Star", Emoji: "⭐", Category: "shapes", paint: paintStar},
	{ID: "sparkles", Name: "Sparkles", Emoji: "✨", Category: "shapes", paint: paintSparkles},
	{ID: "smile", Name: "Smile", Emoji: "😊", Category: "faces", paint: paintSmile},
	{ID: "sun", Name: "Sun", Emoji: "☀️", Category: "nature", paint: paintSun},
	{ID: "moon", Name: "Moon", Emoji: "🌙", Category: "nature", paint: paintMoon},
	{ID: "cloud", Name: "Cloud", Emoji: "☁️", Category: "nature", paint: paintCloud},
	{ID: "flower", Name: "Flower", Emoji: "🌸", Category: "nature", paint: paintFlower},
	{ID: "bolt", Name: "Lightning", Emoji: "⚡", Category: "shapes", paint: paintBolt},
	{ID: "drop", Name: "Drop", Emoji: "💧", Category: "nature", paint: paintDrop},
	{ID: "note", Name: "Music", Emoji: "🎵", Category: "objects", paint: paintNote},
	{ID: "check", Name: "Check", Emoji: "✅", Category: "shapes", paint: paintCheck},
}

var stickersByID = func() map[string]Sticker {
	m := make(map[string]Sticker, len(stickerList))
	for _, s := range stickerList {
		m[s.ID] = s
	}
	return m
}()

// Stickers returns the sticker catalog.
func Stickers() []Sticker {
	return append([]Sticker(nil), stickerList...)
}

// LookupSticker returns the sticker with the given id.
func LookupSticker(id string) (Sticker, bool) {
	s, ok := stickersByID[id]
	return s, ok
}

// orDefault mirrors the editor's "unset means default" handling of zero
// shadow parameters.
func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

// DrawSticker renders a sticker element onto canvas. It reports false
// without drawing when the sticker id is unknown.
func DrawSticker(canvas *image.NRGBA, st session.StickerElement) bool {
	sticker, ok := LookupSticker(st.StickerID)
	if !ok {
		return false
	}

	w, h := canvas.Rect.Dx(), canvas.Rect.Dy()
	scale := Scale(w)
	size := ScaledSize(st.Size, w)

	dc := gg.NewContext(w, h)
	dc.Translate(st.X/100*float64(w), st.Y/100*float64(h))
	dc.Rotate(gg.Radians(st.Rotation))
	sx, sy := 1.0, 1.0
	if st.FlipHorizontal {
		sx = -1
	}
	if st.FlipVertical {
		sy = -1
	}
	dc.Scale(sx, sy)
	sticker.paint(dc, size/2)

	layer := raster.ToNRGBA(dc.Image())
	layers := make([]*image.NRGBA, 0, 2)
	if st.Shadow {
		layers = append(layers, DropShadow(layer, Shadow{
			Color:   colorspace.MustParseColor(st.ShadowColor, black),
			Blur:    orDefault(st.ShadowBlur, 5) * scale,
			OffsetX: orDefault(st.ShadowOffsetX, 2) * scale,
			OffsetY: orDefault(st.ShadowOffsetY, 2) * scale,
		}))
	}
	layers = append(layers, layer)

	element := Stack(image.NewNRGBA(canvas.Rect), layers...)
	element = Blur(element, st.Blur*scale)
	Over(canvas, element, image.Point{}, alphaOf(st.Opacity))
	return true
}

func hex(s string) color.NRGBA {
	return colorspace.MustParseColor(s, black)
}

func polygon(dc *gg.Context, r float64, pts [][2]float64) {
	dc.NewSubPath()
	for i, p := range pts {
		if i == 0 {
			dc.MoveTo(p[0]*r, p[1]*r)
			continue
		}
		dc.LineTo(p[0]*r, p[1]*r)
	}
	dc.ClosePath()
}

// starPoints returns a star with n tips alternating between radius 1 and inner.
func starPoints(n int, inner float64) [][2]float64 {
	pts := make([][2]float64, 0, 2*n)
	for i := 0; i < 2*n; i++ {
		rad := 1.0
		if i%2 == 1 {
			rad = inner
		}
		a := -math.Pi/2 + float64(i)*math.Pi/float64(n)
		pts = append(pts, [2]float64{rad * math.Cos(a), rad * math.Sin(a)})
	}
	return pts
}

func paintHeart(dc *gg.Context, r float64) {
	dc.SetColor(hex("#E53935"))
	dc.MoveTo(0, r*0.8)
	dc.CubicTo(-r*1.25, -r*0.05, -r*0.6, -r*1.0, 0, -r*0.4)
	dc.CubicTo(r*0.6, -r*1.0, r*1.25, -r*0.05, 0, r*0.8)
	dc.ClosePath()
	dc.Fill()
}

func paintStar(dc *gg.Context, r float64) {
	dc.SetColor(hex("#FFC107"))
	polygon(dc, r, starPoints(5, 0.45))
	dc.Fill()
}

func paintSparkles(dc *gg.Context, r float64) {
	dc.SetColor(hex("#FFD54F"))
	polygon(dc, r*0.85, starPoints(4, 0.22))
	dc.Fill()
	dc.Push()
	dc.Translate(r*0.6, -r*0.6)
	polygon(dc, r*0.35, starPoints(4, 0.25))
	dc.Fill()
	dc.Pop()
}

func paintSmile(dc *gg.Context, r float64) {
	dc.SetColor(hex("#FDD835"))
	dc.DrawCircle(0, 0, r*0.95)
	dc.Fill()
	dc.SetColor(hex("#5D4037"))
	dc.DrawCircle(-r*0.35, -r*0.25, r*0.11)
	dc.Fill()
	dc.DrawCircle(r*0.35, -r*0.25, r*0.11)
	dc.Fill()
	dc.SetLineWidth(r * 0.1)
	dc.SetLineCapRound()
	dc.DrawArc(0, r*0.05, r*0.5, 0.15*math.Pi, 0.85*math.Pi)
	dc.Stroke()
}

func paintSun(dc *gg.Context, r float64) {
	dc.SetColor(hex("#FB8C00"))
	dc.DrawCircle(0, 0, r*0.5)
	dc.Fill()
	dc.SetLineWidth(r * 0.12)
	dc.SetLineCapRound()
	for i := 0; i < 8; i++ {
		a := float64(i) * math.Pi / 4
		dc.DrawLine(r*0.65*math.Cos(a), r*0.65*math.Sin(a), r*0.92*math.Cos(a), r*0.92*math.Sin(a))
		dc.Stroke()
	}
}

func paintMoon(dc *gg.Context, r float64) {
	dc.SetColor(hex("#FFF176"))
	dc.DrawCircle(0, 0, r*0.9)
	dc.Clip()
	dc.SetFillRule(gg.FillRuleEvenOdd)
	dc.DrawCircle(0, 0, r*0.9)
	dc.DrawCircle(r*0.4, -r*0.15, r*0.75)
	dc.Fill()
	dc.ResetClip()
	dc.SetFillRule(gg.FillRuleWinding)
}

func paintCloud(dc *gg.Context, r float64) {
	dc.SetColor(hex("#ECEFF1"))
	for _, c := range [][3]float64{{-0.45, 0.15, 0.4}, {0, -0.15, 0.5}, {0.45, 0.15, 0.4}} {
		dc.DrawCircle(c[0]*r, c[1]*r, c[2]*r)
		dc.Fill()
	}
	dc.DrawRectangle(-r*0.45, r*0.1, r*0.9, r*0.45)
	dc.Fill()
}

func paintFlower(dc *gg.Context, r float64) {
	dc.SetColor(hex("#F06292"))
	for i := 0; i < 5; i++ {
		a := -math.Pi/2 + float64(i)*2*math.Pi/5
		dc.DrawCircle(r*0.5*math.Cos(a), r*0.5*math.Sin(a), r*0.4)
		dc.Fill()
	}
	dc.SetColor(hex("#FFEB3B"))
	dc.DrawCircle(0, 0, r*0.3)
	dc.Fill()
}

func paintBolt(dc *gg.Context, r float64) {
	dc.SetColor(hex("#FFEB3B"))
	polygon(dc, r, [][2]float64{
		{0.15, -1}, {-0.55, 0.1}, {-0.05, 0.1}, {-0.2, 1}, {0.55, -0.15}, {0.05, -0.15},
	})
	dc.Fill()
}

func paintDrop(dc *gg.Context, r float64) {
	dc.SetColor(hex("#42A5F5"))
	dc.DrawCircle(0, r*0.3, r*0.6)
	dc.Fill()
	polygon(dc, r, [][2]float64{{0, -1}, {-0.52, 0}, {0.52, 0}})
	dc.Fill()
}

func paintNote(dc *gg.Context, r float64) {
	dc.SetColor(hex("#37474F"))
	dc.DrawCircle(-r*0.3, r*0.55, r*0.3)
	dc.Fill()
	dc.DrawRectangle(-r*0.08, -r*0.85, r*0.12, r*1.4)
	dc.Fill()
	polygon(dc, r, [][2]float64{{-0.08, -0.85}, {0.55, -0.55}, {0.55, -0.3}, {-0.08, -0.55}})
	dc.Fill()
}

func paintCheck(dc *gg.Context, r float64) {
	dc.SetColor(hex("#43A047"))
	dc.SetLineWidth(r * 0.25)
	dc.SetLineCapRound()
	dc.SetLineJoinRound()
	dc.MoveTo(-r*0.6, 0)
	dc.LineTo(-r*0.15, r*0.5)
	dc.LineTo(r*0.65, -r*0.55)
	dc.Stroke()
}
