// Package composite draws text and sticker overlays onto a canvas. Every
// overlay is rendered onto its own transparent layer so blur, drop shadow
// and opacity apply to the element as a whole before it is blended over
// the canvas.
package composite

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/gift"
)

// Over blends src over dst with straight alpha, scaling the source alpha by
// opacity in [0, 1]. src is placed at offset off. Pixels of src falling
// outside dst are ignored.
func Over(dst, src *image.NRGBA, off image.Point, opacity float64) {
	if opacity <= 0 {
		return
	}
	if opacity > 1 {
		opacity = 1
	}

	db := dst.Bounds()
	area := src.Bounds().Add(off).Intersect(db)
	if area.Empty() {
		return
	}

	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			si := src.PixOffset(x-off.X, y-off.Y)
			sA := src.Pix[si+3]
			if sA == 0 {
				continue
			}
			di := dst.PixOffset(x, y)

			sa := float64(sA) / 255.0 * opacity
			da := float64(dst.Pix[di+3]) / 255.0

			outA := sa + da*(1.0-sa)
			if outA == 0 {
				dst.Pix[di], dst.Pix[di+1], dst.Pix[di+2], dst.Pix[di+3] = 0, 0, 0, 0
				continue
			}

			for c := 0; c < 3; c++ {
				srcPremult := float64(src.Pix[si+c]) * sa
				dstPremult := float64(dst.Pix[di+c]) * da
				outPremult := srcPremult + dstPremult*(1.0-sa)
				dst.Pix[di+c] = uint8(math.Round(outPremult / outA))
			}
			dst.Pix[di+3] = uint8(math.Round(outA * 255.0))
		}
	}
}

// Stack blends layers bottom to top over a copy of base.
func Stack(base *image.NRGBA, layers ...*image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(base.Bounds())
	copy(dst.Pix, base.Pix)
	for _, l := range layers {
		if l == nil {
			continue
		}
		Over(dst, l, image.Point{}, 1)
	}
	return dst
}

// Silhouette returns a layer with the shape of src's alpha channel filled
// with c. The alpha of c scales the silhouette alpha.
func Silhouette(src *image.NRGBA, c color.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(src.Bounds())
	ca := float64(c.A) / 255.0
	for i := 0; i+3 < len(src.Pix); i += 4 {
		a := src.Pix[i+3]
		if a == 0 {
			continue
		}
		dst.Pix[i] = c.R
		dst.Pix[i+1] = c.G
		dst.Pix[i+2] = c.B
		dst.Pix[i+3] = uint8(math.Round(float64(a) * ca))
	}
	return dst
}

// Blur returns src softened with a Gaussian of the given canvas blur
// radius. A radius of r pixels maps to sigma r/2. Non-positive radii return
// src unchanged.
func Blur(src *image.NRGBA, radius float64) *image.NRGBA {
	if radius <= 0 {
		return src
	}
	g := gift.New(gift.GaussianBlur(float32(radius / 2)))
	dst := image.NewNRGBA(g.Bounds(src.Bounds()))
	g.Draw(dst, src)
	return dst
}

// Shadow describes a drop shadow cast by a layer.
type Shadow struct {
	Color   color.NRGBA
	Blur    float64
	OffsetX float64
	OffsetY float64
}

// DropShadow renders the shadow of layer as a new layer of the same size.
func DropShadow(layer *image.NRGBA, s Shadow) *image.NRGBA {
	sil := Blur(Silhouette(layer, s.Color), s.Blur)
	out := image.NewNRGBA(layer.Bounds())
	Over(out, sil, image.Pt(int(math.Round(s.OffsetX)), int(math.Round(s.OffsetY))), 1)
	return out
}
