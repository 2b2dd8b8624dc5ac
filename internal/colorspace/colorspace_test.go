package colorspace

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func TestHSLRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
	}{
		{"black", 0, 0, 0},
		{"white", 255, 255, 255},
		{"mid gray", 128, 128, 128},
		{"red", 255, 0, 0},
		{"green", 0, 255, 0},
		{"blue", 0, 0, 255},
		{"yellow", 255, 255, 0},
		{"cyan", 0, 255, 255},
		{"magenta", 255, 0, 255},
		{"skin", 224, 172, 105},
		{"dark teal", 12, 80, 77},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, s, l := RGBToHSL(tt.r, tt.g, tt.b)
			r, g, b := HSLToRGB(h, s, l)
			if absDiff(r, tt.r) > 1 || absDiff(g, tt.g) > 1 || absDiff(b, tt.b) > 1 {
				t.Errorf("round trip (%d,%d,%d) -> (%d,%d,%d)", tt.r, tt.g, tt.b, r, g, b)
			}
		})
	}
}

func TestHSLRoundTripSampled(t *testing.T) {
	for r := 0; r < 256; r += 7 {
		for g := 0; g < 256; g += 11 {
			for b := 0; b < 256; b += 13 {
				h, s, l := RGBToHSL(uint8(r), uint8(g), uint8(b))
				rr, gg, bb := HSLToRGB(h, s, l)
				if absDiff(rr, uint8(r)) > 1 || absDiff(gg, uint8(g)) > 1 || absDiff(bb, uint8(b)) > 1 {
					t.Fatalf("round trip (%d,%d,%d) -> (%d,%d,%d)", r, g, b, rr, gg, bb)
				}
			}
		}
	}
}

func TestRGBToHSLRanges(t *testing.T) {
	h, s, l := RGBToHSL(255, 0, 0)
	assert.InDelta(t, 0.0, h, 1e-9)
	assert.InDelta(t, 1.0, s, 1e-9)
	assert.InDelta(t, 0.5, l, 1e-9)

	h, s, _ = RGBToHSL(0, 0, 255)
	assert.InDelta(t, 2.0/3, h, 1e-9)
	assert.InDelta(t, 1.0, s, 1e-9)

	_, s, l = RGBToHSL(200, 200, 200)
	assert.Equal(t, 0.0, s)
	assert.InDelta(t, 200.0/255, l, 1e-9)
}

func TestDistance(t *testing.T) {
	colors := []RGB{
		{0, 0, 0}, {255, 255, 255}, {255, 0, 0}, {0, 0, 255}, {120, 60, 200}, {121, 60, 200},
	}

	for _, a := range colors {
		assert.Zero(t, Distance(a, a), "distance to self must be zero for %v", a)
		for _, b := range colors {
			assert.Equal(t, Distance(a, b), Distance(b, a), "distance must be symmetric for %v %v", a, b)
			if a != b {
				assert.Greater(t, Distance(a, b), 0.0)
			}
		}
	}

	// Red vs blue: RGB term alone is 0.7 * sqrt(2) * 255.
	d := Distance(RGB{255, 0, 0}, RGB{0, 0, 255})
	assert.Greater(t, d, 0.7*math.Sqrt2*255)
}

func TestClamp(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{-10, 0},
		{0, 0},
		{0.4, 0},
		{0.5, 1},
		{127.6, 128},
		{254.7, 255},
		{300, 255},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestLerp(t *testing.T) {
	assert.Equal(t, 10.0, Lerp(10, 20, 0))
	assert.Equal(t, 20.0, Lerp(10, 20, 1))
	assert.Equal(t, 15.0, Lerp(10, 20, 0.5))
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#ff0000", color.NRGBA{255, 0, 0, 255}},
		{"#FFFFFF", color.NRGBA{255, 255, 255, 255}},
		{"#000", color.NRGBA{0, 0, 0, 255}},
		{"#00ff0080", color.NRGBA{0, 255, 0, 128}},
		{"rgb(10, 20, 30)", color.NRGBA{10, 20, 30, 255}},
		{"rgba(0, 0, 0, 0.5)", color.NRGBA{0, 0, 0, 128}},
		{"white", color.NRGBA{255, 255, 255, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseColor("not-a-color")
	assert.Error(t, err)
	_, err = ParseColor("")
	assert.Error(t, err)

	fb := color.NRGBA{1, 2, 3, 4}
	assert.Equal(t, fb, MustParseColor("bogus", fb))
}

func TestHex(t *testing.T) {
	assert.Equal(t, "#ff8000", Hex(RGB{255, 128, 0}))
}

func TestContrastFactor(t *testing.T) {
	assert.InDelta(t, 1, ContrastFactor(0), 1e-12)
	assert.InDelta(t, 0, ContrastFactor(-100), 1e-12)
	assert.InDelta(t, 259*150.0/(100*209), ContrastFactor(50), 1e-12)
	assert.Greater(t, ContrastFactor(100), ContrastFactor(50))
	// a half-strength stretch stays a moderate multiplier
	assert.Less(t, ContrastFactor(50), 2.0)
}
