// Package mask implements heuristic foreground segmentation: an edge map,
// seeded region growing biased toward the image center, morphological
// cleanup, and the color-key removal modes used by the relay contract.
package mask

import (
	"image"
	"math"

	"github.com/MeKo-Tech/photocore/internal/colorspace"
)

// Default tolerances for full-resolution and preview segmentation.
const (
	DefaultTolerance = 50
	PreviewTolerance = 40
)

const (
	edgeThreshold      = 35.0
	centerRadiusFactor = 0.45
	seedRadiusFactor   = 0.2
	seedStepFactor     = 0.4
	growthCapFactor    = 0.3
	borderBandFactor   = 0.04

	admitEdgeFactor   = 0.5
	admitColorFactor  = 3.5
	admitRadiusFactor = 3.0

	markRadiusFactor      = 1.2
	markColorFactor       = 3.0
	markColorRadiusFactor = 2.5

	closingPasses    = 3
	closingNeighbors = 5
)

// Mask is a per-pixel foreground flag in row-major order.
type Mask struct {
	Pix    []bool
	Width  int
	Height int
}

// NewMask returns an all-background mask.
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Pix: make([]bool, width*height)}
}

// At reports whether (x, y) is foreground. Out-of-range points are background.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Pix[y*m.Width+x]
}

// Set marks (x, y) as foreground or background.
func (m *Mask) Set(x, y int, v bool) {
	m.Pix[y*m.Width+x] = v
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v {
			n++
		}
	}
	return n
}

// Segment classifies each pixel of img as foreground or background.
// Tolerance scales every color-distance threshold linearly; non-positive
// values fall back to DefaultTolerance.
func Segment(img *image.NRGBA, tolerance float64) *Mask {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	m := NewMask(w, h)
	if w == 0 || h == 0 {
		return m
	}

	edges := DetectEdges(img)
	grow(img, edges, m, tolerance)
	Close(m, closingPasses)
	ClearBorder(m, BorderBand(w, h))

	return m
}

// BorderBand is the width of the frame forced to background.
func BorderBand(w, h int) int {
	return int(math.Floor(float64(min(w, h)) * borderBandFactor))
}

// SeedPoints returns the growth seeds for a w x h image: a grid spaced at
// 0.4 x seedRadius, clipped to a disk of seedRadius = 0.2 x min(w, h)
// around the center. Seeds are ordered top-to-bottom, left-to-right; that
// order is part of the result because visited pixels are claimed by the
// first seed that reaches them.
func SeedPoints(w, h int) []image.Point {
	cx, cy := w/2, h/2
	radius := float64(min(w, h)) * seedRadiusFactor
	step := radius * seedStepFactor

	if step <= 0 {
		return []image.Point{{X: cx, Y: cy}}
	}

	var seeds []image.Point
	seen := make(map[image.Point]bool)
	n := int(math.Floor(2*radius/step + 1e-9))
	for iy := 0; iy <= n; iy++ {
		dy := -radius + float64(iy)*step
		for ix := 0; ix <= n; ix++ {
			dx := -radius + float64(ix)*step
			if dx*dx+dy*dy > radius*radius+1e-9 {
				continue
			}
			p := image.Point{X: cx + int(math.Round(dx)), Y: cy + int(math.Round(dy))}
			if p.X < 0 || p.Y < 0 || p.X >= w || p.Y >= h || seen[p] {
				continue
			}
			seen[p] = true
			seeds = append(seeds, p)
		}
	}

	if len(seeds) == 0 {
		seeds = append(seeds, image.Point{X: cx, Y: cy})
	}
	return seeds
}

// grow runs an 8-connected breadth-first fill from every seed not already
// claimed. A pixel is flagged visited when it is enqueued, so later seeds
// never revisit it.
func grow(img *image.NRGBA, edges *image.Gray, m *Mask, tolerance float64) {
	w, h := m.Width, m.Height
	total := w * h
	pix := img.Pix
	stride := img.Stride

	cx, cy := float64(w/2), float64(h/2)
	centerRadius := float64(min(w, h)) * centerRadiusFactor

	admitEdge := edgeThreshold * admitEdgeFactor
	admitColor := tolerance * admitColorFactor
	admitRadius := centerRadius * admitRadiusFactor
	markRadius := centerRadius * markRadiusFactor
	markColor := tolerance * markColorFactor
	markColorRadius := centerRadius * markColorRadiusFactor

	iterCap := int(math.Ceil(float64(total) * growthCapFactor))

	rgbAt := func(x, y int) colorspace.RGB {
		i := y*stride + x*4
		return colorspace.RGB{R: pix[i], G: pix[i+1], B: pix[i+2]}
	}
	centerDist := func(x, y int) float64 {
		dx, dy := float64(x)-cx, float64(y)-cy
		return math.Sqrt(dx*dx + dy*dy)
	}

	visited := make([]bool, total)
	queue := make([]int, 0, 1024)

	for _, seed := range SeedPoints(w, h) {
		start := seed.Y*w + seed.X
		if visited[start] {
			continue
		}

		seedColor := rgbAt(seed.X, seed.Y)
		queue = append(queue[:0], start)
		visited[start] = true

		for head, iter := 0, 0; head < len(queue) && iter < iterCap; iter++ {
			idx := queue[head]
			head++

			x, y := idx%w, idx/w
			dist := centerDist(x, y)
			edge := float64(edges.Pix[y*edges.Stride+x])
			colorDist := colorspace.Distance(rgbAt(x, y), seedColor)

			mark := dist < markRadius ||
				edge > edgeThreshold ||
				(colorDist < markColor && dist < markColorRadius)
			if !mark {
				continue
			}
			m.Pix[idx] = true

			for ny := y - 1; ny <= y+1; ny++ {
				if ny < 0 || ny >= h {
					continue
				}
				for nx := x - 1; nx <= x+1; nx++ {
					if nx < 0 || nx >= w || (nx == x && ny == y) {
						continue
					}
					nIdx := ny*w + nx
					if visited[nIdx] {
						continue
					}
					visited[nIdx] = true

					nEdge := float64(edges.Pix[ny*edges.Stride+nx])
					if nEdge > admitEdge ||
						colorspace.Distance(rgbAt(nx, ny), seedColor) < admitColor ||
						centerDist(nx, ny) < admitRadius {
						queue = append(queue, nIdx)
					}
				}
			}
		}
	}
}
