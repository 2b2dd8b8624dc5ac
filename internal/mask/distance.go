package mask

import (
	"image"
	"math"
)

// DistanceToBackground computes, for every foreground pixel, the Euclidean
// distance to the nearest background pixel using the Felzenszwalb &
// Huttenlocher separable squared distance transform. Background pixels are 0.
// A mask with no background reports the image diagonal everywhere.
func DistanceToBackground(m *Mask) []float64 {
	w, h := m.Width, m.Height
	n := w * h
	if n == 0 {
		return nil
	}

	far := float64(w*w + h*h)
	dist := make([]float64, n)
	hasBackground := false
	for i, fg := range m.Pix {
		if fg {
			dist[i] = far
		} else {
			hasBackground = true
		}
	}
	if !hasBackground {
		d := math.Sqrt(far)
		for i := range dist {
			dist[i] = d
		}
		return dist
	}

	// Rows
	in := make([]float64, max(w, h))
	out := make([]float64, max(w, h))
	for y := 0; y < h; y++ {
		row := dist[y*w : (y+1)*w]
		copy(in[:w], row)
		distanceTransform1D(in[:w], out[:w])
		copy(row, out[:w])
	}

	// Columns
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			in[y] = dist[y*w+x]
		}
		distanceTransform1D(in[:h], out[:h])
		for y := 0; y < h; y++ {
			dist[y*w+x] = math.Sqrt(out[y])
		}
	}

	return dist
}

// distanceTransform1D computes the squared distance transform along one
// dimension using the lower envelope of parabolas.
func distanceTransform1D(input []float64, output []float64) {
	n := len(input)
	if n == 0 {
		return
	}

	v := make([]int, n)
	z := make([]float64, n+1)

	k := 0
	v[0] = 0
	z[0] = math.Inf(-1)
	z[1] = math.Inf(1)

	for q := 1; q < n; q++ {
		var s float64
		for k >= 0 {
			s = ((input[q] + float64(q*q)) - (input[v[k]] + float64(v[k]*v[k]))) /
				(2.0 * float64(q-v[k]))
			if s <= z[k] {
				k--
			} else {
				break
			}
		}
		k++
		v[k] = q
		z[k] = s
		z[k+1] = math.Inf(1)
	}

	k = 0
	for q := 0; q < n; q++ {
		for z[k+1] < float64(q) {
			k++
		}
		dx := float64(q - v[k])
		output[q] = dx*dx + input[v[k]]
	}
}

// DistanceImage renders DistanceToBackground as a grayscale image where
// maxDistance pixels (or more) from the background map to 255.
func DistanceImage(m *Mask, maxDistance float64) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	if maxDistance <= 0 {
		return out
	}
	for i, d := range DistanceToBackground(m) {
		v := 255 * d / maxDistance
		if v > 255 {
			v = 255
		}
		out.Pix[i] = uint8(v)
	}
	return out
}
