package correction

import (
	"image"
	"math"

	"github.com/MeKo-Tech/photocore/internal/colorspace"
)

const (
	shadowPivot    = 100.0
	shadowExponent = 1.2
	shadowScale    = 40.0
)

// Apply runs the correction on img in place. Per pixel the order is
// white balance, exposure, shadow lift, contrast stretch, saturation, and a
// single clamp on store. Alpha is untouched.
func Apply(img *image.NRGBA, p Params) {
	exposure := 1 + p.Exposure

	var contrastFactor float64
	if p.Contrast > 0 {
		contrastFactor = colorspace.ContrastFactor(p.Contrast * 100)
	}

	w, h := img.Rect.Dx(), img.Rect.Dy()
	for y := 0; y < h; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			i := row + x*4
			r := float64(img.Pix[i]) * p.RGain * exposure
			g := float64(img.Pix[i+1]) * p.GGain * exposure
			b := float64(img.Pix[i+2]) * p.BGain * exposure

			if p.Shadows > 0 {
				lum := colorspace.Luminance(r, g, b)
				if lum < shadowPivot {
					lift := p.Shadows * math.Pow((shadowPivot-lum)/shadowPivot, shadowExponent) * shadowScale
					r += lift
					g += lift
					b += lift
				}
			}

			if p.Contrast > 0 {
				r = contrastFactor*(r-128) + 128
				g = contrastFactor*(g-128) + 128
				b = contrastFactor*(b-128) + 128
			}

			if p.Saturation != 0 {
				gray := colorspace.Luminance(r, g, b)
				f := 1 + p.Saturation
				r = gray + f*(r-gray)
				g = gray + f*(g-gray)
				b = gray + f*(b-gray)
			}

			img.Pix[i] = colorspace.Clamp(r)
			img.Pix[i+1] = colorspace.Clamp(g)
			img.Pix[i+2] = colorspace.Clamp(b)
		}
	}
}

// Result is the outcome of an automatic correction.
type Result struct {
	Image    *image.NRGBA
	Analysis Analysis
	Params   Params
}

// Correct analyzes img, derives parameters and returns a corrected copy.
// img itself is not modified.
func Correct(img *image.NRGBA) Result {
	a := Analyze(img)
	p := ComputeParams(img, a)

	out := image.NewNRGBA(image.Rect(0, 0, img.Rect.Dx(), img.Rect.Dy()))
	for y := 0; y < out.Rect.Dy(); y++ {
		copy(out.Pix[y*out.Stride:(y+1)*out.Stride], img.Pix[y*img.Stride:y*img.Stride+out.Stride])
	}
	Apply(out, p)

	return Result{Image: out, Analysis: a, Params: p}
}
