package mask

// Close fills small holes: in each pass a background pixel whose 8-neighborhood
// holds at least five foreground pixels becomes foreground. Neighbor counts
// are taken from the state at the start of the pass. Frame pixels are left
// untouched.
func Close(m *Mask, passes int) {
	w, h := m.Width, m.Height
	if w < 3 || h < 3 {
		return
	}

	prev := make([]bool, len(m.Pix))
	for pass := 0; pass < passes; pass++ {
		copy(prev, m.Pix)
		changed := false

		for y := 1; y < h-1; y++ {
			for x := 1; x < w-1; x++ {
				idx := y*w + x
				if prev[idx] {
					continue
				}

				n := 0
				for dy := -1; dy <= 1; dy++ {
					row := idx + dy*w
					for dx := -1; dx <= 1; dx++ {
						if (dx != 0 || dy != 0) && prev[row+dx] {
							n++
						}
					}
				}
				if n >= closingNeighbors {
					m.Pix[idx] = true
					changed = true
				}
			}
		}

		if !changed {
			return
		}
	}
}

// ClearBorder forces a band of the given width on all four edges to background.
func ClearBorder(m *Mask, band int) {
	if band <= 0 {
		return
	}
	w, h := m.Width, m.Height
	for y := 0; y < h; y++ {
		inRowBand := y < band || y >= h-band
		for x := 0; x < w; x++ {
			if inRowBand || x < band || x >= w-band {
				m.Pix[y*w+x] = false
			}
		}
	}
}
