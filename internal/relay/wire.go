// Package relay speaks the background-removal relay contract: a small JSON
// API that accepts an image (data URL or bare base64) and answers with the
// cut-out as a PNG data URL.
package relay

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MeKo-Tech/photocore/internal/colorspace"
)

// Mode selects the removal strategy.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeDirect Mode = "direct"
	ModeColor  Mode = "color"
)

// Routes.
const (
	HealthPath  = "/api/health"
	PreviewPath = "/api/bg/preview"
	RemovePath  = "/api/bg/remove"
)

// ParseMode maps a wire value onto a Mode. Empty and unknown values fall
// back to auto.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeDirect:
		return ModeDirect
	case ModeColor:
		return ModeColor
	default:
		return ModeAuto
	}
}

// TargetColor is the key color for ModeColor. On the wire it is either an
// object {"r":..,"g":..,"b":..} or that object JSON-encoded into a string.
type TargetColor struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// UnmarshalJSON accepts both encodings.
func (t *TargetColor) UnmarshalJSON(data []byte) error {
	type plain TargetColor
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("invalid targetColor: %w", err)
	}
	*t = TargetColor(p)
	return nil
}

// RGB converts to a clamped color triple.
func (t TargetColor) RGB() colorspace.RGB {
	return colorspace.RGB{
		R: colorspace.Clamp(float64(t.R)),
		G: colorspace.Clamp(float64(t.G)),
		B: colorspace.Clamp(float64(t.B)),
	}
}

// Request is the body of PreviewPath and RemovePath.
type Request struct {
	TargetColor *TargetColor `json:"targetColor,omitempty"`
	Image       string       `json:"image"`
	Mode        Mode         `json:"mode,omitempty"`
	Tolerance   float64      `json:"tolerance,omitempty"`
	Feather     float64      `json:"feather,omitempty"`
}

// Resolution reports the processed size of a preview.
type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Response is the answer of PreviewPath and RemovePath.
type Response struct {
	Resolution *Resolution `json:"resolution,omitempty"`
	Result     string      `json:"result,omitempty"`
	Mode       Mode        `json:"mode,omitempty"`
	Error      string      `json:"error,omitempty"`
	Message    string      `json:"message,omitempty"`
	Success    bool        `json:"success"`
}

// Health is the answer of HealthPath.
type Health struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
