package raster

import (
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	Fill(img, c)
	return img
}

func TestCheckSize(t *testing.T) {
	assert.NoError(t, CheckSize(1, 1))
	assert.NoError(t, CheckSize(3840, 2160))

	for _, sz := range [][2]int{{0, 10}, {10, 0}, {-1, 5}, {MaxDimension + 1, 10}, {12000, 12000}} {
		err := CheckSize(sz[0], sz[1])
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrContextUnavailable), "size %v", sz)
	}
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		name             string
		w, h, maxW, maxH int
		wantW, wantH     int
	}{
		{"already inside", 640, 480, 800, 800, 640, 480},
		{"landscape", 1600, 800, 800, 800, 800, 400},
		{"portrait", 1000, 2000, 800, 800, 400, 800},
		{"4k landscape", 7680, 2160, 3840, 2160, 3840, 1080},
		{"4k portrait", 3000, 6000, 3840, 2160, 1080, 2160},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := FitWithin(tt.w, tt.h, tt.maxW, tt.maxH)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestScaleToFitUpscales(t *testing.T) {
	w, h := ScaleToFit(1000, 500, 3840, 2160)
	assert.Equal(t, 3840, w)
	assert.Equal(t, 1920, h)
}

func TestResize(t *testing.T) {
	src := solid(100, 50, color.NRGBA{200, 100, 50, 255})

	down, err := Resize(src, 40, 20)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 20), down.Bounds())
	c := down.NRGBAAt(20, 10)
	assert.InDelta(t, 200, int(c.R), 2)
	assert.InDelta(t, 100, int(c.G), 2)

	up, err := Resize(src, 300, 150)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 300, 150), up.Bounds())
	c = up.NRGBAAt(150, 75)
	assert.InDelta(t, 50, int(c.B), 2)

	_, err = Resize(src, 0, 10)
	assert.ErrorIs(t, err, ErrContextUnavailable)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	src := solid(8, 6, color.NRGBA{10, 20, 30, 255})
	src.SetNRGBA(1, 1, color.NRGBA{250, 0, 0, 0})

	data, err := EncodePNG(src)
	require.NoError(t, err)

	got, format, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, src.Bounds(), got.Bounds())
	assert.Equal(t, uint8(0), got.NRGBAAt(1, 1).A)
	assert.Equal(t, color.NRGBA{10, 20, 30, 255}, got.NRGBAAt(5, 5))

	jpg, err := EncodeJPEG(src, 95)
	require.NoError(t, err)
	_, format, err = Decode(jpg)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestDecodeErrors(t *testing.T) {
	_, _, err := Decode(nil)
	assert.ErrorIs(t, err, ErrDecode)

	_, _, err = Decode([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrDecode)

	_, _, err = DecodeString("data:image/png;base64,!!!")
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDataURL(t *testing.T) {
	src := solid(4, 4, color.NRGBA{1, 2, 3, 255})
	enc, err := Encode(src, PNG, 0)
	require.NoError(t, err)

	url := enc.DataURL()
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))

	img, _, err := DecodeString(url)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{1, 2, 3, 255}, img.NRGBAAt(2, 2))

	// bare base64 is accepted too
	img, _, err = DecodeString(strings.TrimPrefix(url, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
}

func TestDrawCentered(t *testing.T) {
	dst := solid(10, 10, color.NRGBA{0, 0, 0, 255})
	src := solid(4, 2, color.NRGBA{255, 255, 255, 255})

	r := DrawCentered(dst, src)
	assert.Equal(t, image.Rect(3, 4, 7, 6), r)
	assert.Equal(t, uint8(255), dst.NRGBAAt(3, 4).R)
	assert.Equal(t, uint8(0), dst.NRGBAAt(2, 4).R)
	assert.Equal(t, uint8(0), dst.NRGBAAt(3, 6).R)
}
