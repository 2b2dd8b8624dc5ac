package filter

import (
	"image"
	"math"

	"github.com/aquilax/go-perlin"

	"github.com/MeKo-Tech/photocore/internal/colorspace"
)

const (
	grainSeed     = 1977
	grainScale    = 2.3
	grainStrength = 96.0
)

var sepiaMatrix = [3][3]float64{
	{0.393, 0.769, 0.189},
	{0.349, 0.686, 0.168},
	{0.272, 0.534, 0.131},
}

// Apply runs every operation of p over img in place, in declared order.
// Each operation sees the clamped output of the previous one.
func Apply(img *image.NRGBA, p Preset) {
	ApplyOps(img, p.Ops)
}

// ApplyOps runs ops over img in place.
func ApplyOps(img *image.NRGBA, ops []Op) {
	if len(ops) == 0 {
		return
	}

	w, h := img.Rect.Dx(), img.Rect.Dy()

	var grain []float64
	for _, op := range ops {
		if op.Kind == OpGrain {
			grain = grainField(w, h, grainScale, grainSeed)
			break
		}
	}

	cx, cy := float64(w-1)/2, float64(h-1)/2
	maxDist := math.Hypot(cx, cy)
	if maxDist == 0 {
		maxDist = 1
	}

	for y := 0; y < h; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			i := row + x*4
			r, g, b := float64(img.Pix[i]), float64(img.Pix[i+1]), float64(img.Pix[i+2])

			for _, op := range ops {
				switch op.Kind {
				case OpSepia:
					a := math.Min(1, math.Max(0, op.Value))
					sr := sepiaMatrix[0][0]*r + sepiaMatrix[0][1]*g + sepiaMatrix[0][2]*b
					sg := sepiaMatrix[1][0]*r + sepiaMatrix[1][1]*g + sepiaMatrix[1][2]*b
					sb := sepiaMatrix[2][0]*r + sepiaMatrix[2][1]*g + sepiaMatrix[2][2]*b
					r, g, b = colorspace.Lerp(r, sr, a), colorspace.Lerp(g, sg, a), colorspace.Lerp(b, sb, a)
				case OpGrayscale:
					a := math.Min(1, math.Max(0, op.Value))
					l := colorspace.Luminance(r, g, b)
					r, g, b = colorspace.Lerp(r, l, a), colorspace.Lerp(g, l, a), colorspace.Lerp(b, l, a)
				case OpBrightness:
					r, g, b = r*op.Value, g*op.Value, b*op.Value
				case OpContrast:
					m := op.Value
					r, g, b = (r-128)*m+128, (g-128)*m+128, (b-128)*m+128
				case OpSaturate:
					r, g, b = saturate(r, g, b, op.Value)
				case OpHueRotate:
					r, g, b = hueShift(r, g, b, op.Value)
				case OpWarmth:
					r, g, b = warmth(r, g, b, op.Value)
				case OpShadows:
					r, g, b = toneCurve(r, g, b, op.Value, 0)
				case OpHighlights:
					r, g, b = toneCurve(r, g, b, 0, op.Value)
				case OpVignette:
					d := math.Hypot(float64(x)-cx, float64(y)-cy) / maxDist
					f := 1 - d*op.Value
					r, g, b = r*f, g*f, b*f
				case OpGrain:
					n := grain[y*w+x] * op.Value * grainStrength
					r, g, b = r+n, g+n, b+n
				}
				r, g, b = clamp3(r, g, b)
			}

			img.Pix[i] = colorspace.Clamp(r)
			img.Pix[i+1] = colorspace.Clamp(g)
			img.Pix[i+2] = colorspace.Clamp(b)
		}
	}
}

// grainField samples seeded Perlin noise for every pixel, roughly in [-1, 1].
// The field depends only on the size and seed, so a preset renders the
// same grain at every call.
func grainField(width, height int, scale float64, seed int64) []float64 {
	p := perlin.NewPerlin(2.0, 2.0, 3, seed)
	field := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			field[y*width+x] = p.Noise2D(float64(x)/scale, float64(y)/scale)
		}
	}
	return field
}
