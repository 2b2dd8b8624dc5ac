// Package colorspace holds the numeric color helpers shared by every pixel
// stage: RGB/HSL conversion, clamping, interpolation and the perceptual
// distance used for region growing.
package colorspace

import (
	"math"
)

// Luma weights (ITU-R BT.601).
const (
	LumaR = 0.299
	LumaG = 0.587
	LumaB = 0.114
)

// RGB is an opaque 8-bit color triple.
type RGB struct {
	R, G, B uint8
}

// max3 returns the maximum of three float values.
func max3(a, b, c float64) float64 {
	if a < b {
		a = b
	}
	if a < c {
		a = c
	}
	return a
}

// min3 returns the minimum of three float values.
func min3(a, b, c float64) float64 {
	if a > b {
		a = b
	}
	if a > c {
		a = c
	}
	return a
}

// Clamp rounds v to the nearest integer and clamps it to [0, 255].
func Clamp(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// ClampF clamps v to [0, 255] without rounding. Multi-step pixel math keeps
// float intermediates and only rounds on the final store.
func ClampF(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// Lerp interpolates linearly between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Luminance returns the BT.601 luma of a color in [0, 255].
func Luminance(r, g, b float64) float64 {
	return LumaR*r + LumaG*g + LumaB*b
}

// RGBToHSL converts RGB (0–255) to HSL with h, s and l in [0, 1].
func RGBToHSL(r, g, b uint8) (h, s, l float64) {
	return RGBToHSLF(float64(r), float64(g), float64(b))
}

// RGBToHSLF is RGBToHSL over float channels, used on unclamped intermediates.
func RGBToHSLF(r, g, b float64) (h, s, l float64) {
	rf, gf, bf := r/255, g/255, b/255
	maxv := max3(rf, gf, bf)
	minv := min3(rf, gf, bf)

	l = (maxv + minv) / 2
	if maxv == minv {
		return 0, 0, l
	}

	d := maxv - minv
	if l > 0.5 {
		s = d / (2 - maxv - minv)
	} else {
		s = d / (maxv + minv)
	}

	switch maxv {
	case rf:
		h = (gf - bf) / d
		if gf < bf {
			h += 6
		}
	case gf:
		h = (bf-rf)/d + 2
	default:
		h = (rf-gf)/d + 4
	}
	h /= 6
	return h, s, l
}

// HSLToRGB converts HSL (each in [0, 1]) back to 8-bit RGB with rounding.
// Hue wraps, so callers may pass values outside [0, 1].
func HSLToRGB(h, s, l float64) (r, g, b uint8) {
	if s == 0 {
		v := Clamp(l * 255)
		return v, v, v
	}

	h -= math.Floor(h)

	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q

	r = Clamp(hueToRGB(p, q, h+1.0/3) * 255)
	g = Clamp(hueToRGB(p, q, h) * 255)
	b = Clamp(hueToRGB(p, q, h-1.0/3) * 255)
	return r, g, b
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 0.5:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	}
	return p
}

// Distance is the similarity metric used by segmentation: 70% Euclidean RGB
// distance plus 30% of an HSL distance in degree/percent units with the hue
// term doubled. It is symmetric and zero only for identical colors.
func Distance(a, b RGB) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	rgbDist := math.Sqrt(dr*dr + dg*dg + db*db)

	h1, s1, l1 := RGBToHSL(a.R, a.G, a.B)
	h2, s2, l2 := RGBToHSL(b.R, b.G, b.B)
	dh := (h1 - h2) * 360
	ds := (s1 - s2) * 100
	dl := (l1 - l2) * 100
	hslDist := math.Sqrt(dh*dh*2 + ds*ds + dl*dl)

	return rgbDist*0.7 + hslDist*0.3
}

// ContrastFactor maps a contrast amount c in [-100, 100] to a multiplier
// about the 128 pivot using the 259 curve, read as a percentage so that
// c = 0 is the identity and c = -100 collapses to flat gray.
func ContrastFactor(c float64) float64 {
	return (259 * (c + 100)) / (100 * (259 - c))
}
