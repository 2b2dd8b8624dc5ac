package composite

import (
	"image"
	"image/color"
	"math"
	"strings"
	"unicode"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/MeKo-Tech/photocore/internal/colorspace"
	"github.com/MeKo-Tech/photocore/internal/raster"
	"github.com/MeKo-Tech/photocore/internal/session"
)

const (
	// ReferenceWidth is the editor preview width overlay sizes are authored at.
	ReferenceWidth = 800.0
	// MinOverlaySize is the smallest font or sticker size drawn, in pixels.
	MinOverlaySize = 12.0

	gradientHalfSpan = 100.0
	outlineSamples   = 16
)

var (
	textShadow = Shadow{Color: color.NRGBA{A: 128}, Blur: 10, OffsetX: 2, OffsetY: 2}

	black = color.NRGBA{A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// Scale returns the overlay scale factor for a canvas of the given width.
func Scale(canvasWidth int) float64 {
	return float64(canvasWidth) / ReferenceWidth
}

// ScaledSize converts a size authored at the reference width to canvas pixels.
func ScaledSize(size float64, canvasWidth int) float64 {
	return math.Max(size*Scale(canvasWidth), MinOverlaySize)
}

// alphaOf converts a 0-100 opacity into [0, 1]. Zero means unset and is
// drawn fully opaque.
func alphaOf(opacity float64) float64 {
	if opacity <= 0 {
		return 1
	}
	return math.Min(opacity, 100) / 100
}

// ApplyTextTransform applies a CSS text-transform to s.
func ApplyTextTransform(s string, tt session.TextTransform) string {
	switch tt {
	case session.TransformUppercase:
		return strings.ToUpper(s)
	case session.TransformLowercase:
		return strings.ToLower(s)
	case session.TransformCapitalize:
		var b strings.Builder
		start := true
		for _, r := range s {
			if start && unicode.IsLetter(r) {
				r = unicode.ToUpper(r)
			}
			start = unicode.IsSpace(r)
			b.WriteRune(r)
		}
		return b.String()
	}
	return s
}

func anchorX(a session.Alignment) float64 {
	switch a {
	case session.AlignLeft:
		return 0
	case session.AlignRight:
		return 1
	}
	return 0.5
}

// textLayout holds the measured lines of one text element in local,
// unrotated coordinates with the origin at the anchor point.
type textLayout struct {
	face     font.Face
	lines    []string
	widths   []float64
	spacing  float64
	fontSize float64
	lineStep float64
	ax       float64
	baseline float64
}

func newTextLayout(face font.Face, t session.TextElement, text string, fontSize, scale float64) *textLayout {
	m := face.Metrics()
	ascent := float64(m.Ascent) / 64
	descent := float64(m.Descent) / 64

	lh := t.LineHeight
	if lh <= 0 {
		lh = 1.2
	}
	l := &textLayout{
		face:     face,
		lines:    strings.Split(text, "\n"),
		spacing:  t.LetterSpacing * scale,
		fontSize: fontSize,
		lineStep: fontSize * lh,
		ax:       anchorX(t.Alignment),
		// Vertical middle of the em box sits on the anchor.
		baseline: (ascent - descent) / 2,
	}

	measure := gg.NewContext(1, 1)
	measure.SetFontFace(face)
	for _, line := range l.lines {
		l.widths = append(l.widths, l.lineWidth(measure, line))
	}
	return l
}

func (l *textLayout) lineWidth(dc *gg.Context, line string) float64 {
	if l.spacing == 0 {
		w, _ := dc.MeasureString(line)
		return w
	}
	var w float64
	n := 0
	for _, r := range line {
		rw, _ := dc.MeasureString(string(r))
		w += rw
		n++
	}
	if n > 1 {
		w += l.spacing * float64(n-1)
	}
	return w
}

func (l *textLayout) maxWidth() float64 {
	var w float64
	for _, lw := range l.widths {
		w = math.Max(w, lw)
	}
	return w
}

func (l *textLayout) lineY(i int) float64 {
	return (float64(i) - float64(len(l.lines)-1)/2) * l.lineStep
}

// draw renders every line at (dx, dy) offset from the local origin using
// the current color of dc.
func (l *textLayout) draw(dc *gg.Context, dx, dy float64) {
	for i, line := range l.lines {
		x := -l.ax*l.widths[i] + dx
		y := l.lineY(i) + l.baseline + dy
		if l.spacing == 0 {
			dc.DrawString(line, x, y)
			continue
		}
		for _, r := range line {
			s := string(r)
			dc.DrawString(s, x, y)
			w, _ := dc.MeasureString(s)
			x += w + l.spacing
		}
	}
}

// DrawText renders a text element onto canvas. Position is a percentage of
// the canvas; font size, padding, outline and shadow scale with the canvas
// width relative to the 800px reference.
func DrawText(canvas *image.NRGBA, t session.TextElement) error {
	text := ApplyTextTransform(t.Text, t.TextTransform)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	w, h := canvas.Rect.Dx(), canvas.Rect.Dy()
	scale := Scale(w)
	fontSize := ScaledSize(t.FontSize, w)

	face, err := Face(t.FontFamily, t.FontWeight == session.WeightBold, fontSize)
	if err != nil {
		return err
	}
	defer face.Close()

	layout := newTextLayout(face, t, text, fontSize, scale)
	cx := t.X / 100 * float64(w)
	cy := t.Y / 100 * float64(h)

	area := textBounds(layout, t, cx, cy, scale).Intersect(canvas.Rect)
	if area.Empty() {
		return nil
	}
	lw, lh := area.Dx(), area.Dy()
	ox, oy := cx-float64(area.Min.X), cy-float64(area.Min.Y)

	newLayer := func() *gg.Context {
		dc := gg.NewContext(lw, lh)
		dc.SetFontFace(face)
		dc.Translate(ox, oy)
		dc.Rotate(gg.Radians(t.Rotation))
		return dc
	}

	// Background box and outline sit under the fill and its shadow.
	base := newLayer()
	if t.HasBackground && t.BackgroundColor != "" {
		padX, padY := backgroundPad(scale)
		tw := layout.maxWidth()
		th := layout.height()
		base.SetColor(colorspace.MustParseColor(t.BackgroundColor, black))
		base.DrawRectangle(-layout.ax*tw-padX, -th/2-padY, tw+2*padX, th+2*padY)
		base.Fill()
	}
	if t.HasOutline && t.OutlineWidth > 0 {
		base.SetColor(colorspace.MustParseColor(t.OutlineColor, white))
		r := t.OutlineWidth * scale
		for _, radius := range []float64{r, r / 2} {
			for k := 0; k < outlineSamples; k++ {
				a := 2 * math.Pi * float64(k) / outlineSamples
				layout.draw(base, radius*math.Cos(a), radius*math.Sin(a))
			}
		}
	}

	var fill *image.NRGBA
	if t.HasGradient && len(t.GradientColors) >= 2 {
		glyphs := newLayer()
		glyphs.SetColor(white)
		layout.draw(glyphs, 0, 0)
		fill = gradientFill(glyphs, t, scale)
	} else {
		solid := newLayer()
		solid.SetColor(colorspace.MustParseColor(t.Color, black))
		layout.draw(solid, 0, 0)
		fill = raster.ToNRGBA(solid.Image())
	}

	layers := []*image.NRGBA{raster.ToNRGBA(base.Image())}
	if t.HasShadow {
		layers = append(layers, DropShadow(fill, scaledShadow(scale)))
	}
	layers = append(layers, fill)

	element := Stack(image.NewNRGBA(image.Rect(0, 0, lw, lh)), layers...)
	element = Blur(element, t.Blur*scale)
	Over(canvas, element, area.Min, alphaOf(t.Opacity))
	return nil
}

func backgroundPad(scale float64) (float64, float64) {
	return 10 * scale, 5 * scale
}

func scaledShadow(scale float64) Shadow {
	s := textShadow
	s.Blur *= scale
	s.OffsetX *= scale
	s.OffsetY *= scale
	return s
}

// height is the extent of all lines, one em for the first plus a line
// step for each further line.
func (l *textLayout) height() float64 {
	return l.fontSize + l.lineStep*float64(len(l.lines)-1)
}

// textBounds returns the canvas rectangle a text element can paint into:
// its rotated box grown by the background pad, outline, shadow and blur.
// The Gaussian tails are cut at two radii.
func textBounds(l *textLayout, t session.TextElement, cx, cy, scale float64) image.Rectangle {
	tw, th := l.maxWidth(), l.height()
	padX, padY := backgroundPad(scale)
	// Glyph overhang past the measured advance and em box.
	pad := l.fontSize/2 + t.OutlineWidth*scale
	x0, x1 := -l.ax*tw-padX-pad, (1-l.ax)*tw+padX+pad
	y0, y1 := -th/2-padY-pad, th/2+padY+pad

	sin, cos := math.Sincos(gg.Radians(t.Rotation))
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range [][2]float64{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}} {
		x := cx + p[0]*cos - p[1]*sin
		y := cy + p[0]*sin + p[1]*cos
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}

	margin := 2*t.Blur*scale + 2
	if t.HasShadow {
		s := scaledShadow(scale)
		margin += 2*s.Blur + math.Max(math.Abs(s.OffsetX), math.Abs(s.OffsetY))
	}
	return image.Rect(
		int(math.Floor(minX-margin)), int(math.Floor(minY-margin)),
		int(math.Ceil(maxX+margin)), int(math.Ceil(maxY+margin)),
	)
}

// gradientFill paints a linear gradient through the glyph coverage of
// glyphs. The gradient runs across the anchor point along
// GradientDirection degrees, spanning 200 reference pixels.
func gradientFill(glyphs *gg.Context, t session.TextElement, scale float64) *image.NRGBA {
	dir := gg.Radians(t.GradientDirection)
	span := gradientHalfSpan * scale
	x0, y0 := glyphs.TransformPoint(-span*math.Cos(dir), -span*math.Sin(dir))
	x1, y1 := glyphs.TransformPoint(span*math.Cos(dir), span*math.Sin(dir))

	grad := gg.NewLinearGradient(x0, y0, x1, y1)
	n := len(t.GradientColors)
	for i, c := range t.GradientColors {
		grad.AddColorStop(float64(i)/float64(n-1), colorspace.MustParseColor(c, black))
	}

	w, h := glyphs.Width(), glyphs.Height()
	dc := gg.NewContext(w, h)
	if err := dc.SetMask(glyphs.AsMask()); err != nil {
		return raster.ToNRGBA(glyphs.Image())
	}
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, float64(w), float64(h))
	dc.Fill()
	return raster.ToNRGBA(dc.Image())
}
