package raster

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"

	_ "golang.org/x/image/webp" // Register WebP decoder
)

// Format is an output encoding.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
)

// MIME returns the media type for the format.
func (f Format) MIME() string {
	if f == JPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Encoded is an encoded image plus its format.
type Encoded struct {
	Data   []byte
	Format Format
	Width  int
	Height int
}

// DataURL renders the encoded bytes as a data: URL.
func (e Encoded) DataURL() string {
	return DataURL(e.Data, e.Format.MIME())
}

// Decode decodes PNG, JPEG, GIF, BMP, TIFF or WebP bytes into an owned
// buffer. EXIF orientation is applied so pixel rows match what a viewer shows.
func Decode(data []byte) (*image.NRGBA, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty input", ErrDecode)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}

	b := img.Bounds()
	if err := CheckSize(b.Dx(), b.Dy()); err != nil {
		return nil, "", err
	}

	return ToNRGBA(img), format, nil
}

// DecodeString decodes either a data: URL or a bare base64 payload.
func DecodeString(s string) (*image.NRGBA, string, error) {
	data, err := ParseDataURL(s)
	if err != nil {
		return nil, "", err
	}
	return Decode(data)
}

// EncodePNG encodes img losslessly.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return buf.Bytes(), nil
}

// EncodeJPEG encodes img with the given quality (1-100). Alpha is dropped.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return buf.Bytes(), nil
}

// Encode encodes img in the requested format. Quality only applies to JPEG.
func Encode(img image.Image, format Format, quality int) (Encoded, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case JPEG:
		data, err = EncodeJPEG(img, quality)
	case PNG, "":
		format = PNG
		data, err = EncodePNG(img)
	default:
		return Encoded{}, fmt.Errorf("%w: unsupported format %q", ErrEncode, format)
	}
	if err != nil {
		return Encoded{}, err
	}
	b := img.Bounds()
	return Encoded{Data: data, Format: format, Width: b.Dx(), Height: b.Dy()}, nil
}

// DataURL wraps bytes in a base64 data: URL.
func DataURL(data []byte, mime string) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURL extracts the payload of a base64 data: URL. A string without
// the data: prefix is treated as bare base64.
func ParseDataURL(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 {
			return nil, fmt.Errorf("%w: malformed data URL", ErrDecode)
		}
		if !strings.HasSuffix(s[:comma], ";base64") {
			return nil, fmt.Errorf("%w: data URL is not base64 encoded", ErrDecode)
		}
		s = s[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid base64: %v", ErrDecode, err)
		}
	}
	return data, nil
}
