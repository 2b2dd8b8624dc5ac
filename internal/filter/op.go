// Package filter implements the preset filter compositor and the manual
// adjustment routine shared with the scene renderer.
package filter

import (
	"fmt"
	"strconv"
	"strings"
)

// OpKind names a single per-pixel channel operation.
type OpKind string

const (
	OpSepia      OpKind = "sepia"
	OpGrayscale  OpKind = "grayscale"
	OpBrightness OpKind = "brightness"
	OpContrast   OpKind = "contrast"
	OpSaturate   OpKind = "saturate"
	OpHueRotate  OpKind = "hue-rotate"
	OpWarmth     OpKind = "warmth"
	OpShadows    OpKind = "shadows"
	OpHighlights OpKind = "highlights"
	OpVignette   OpKind = "vignette"
	OpGrain      OpKind = "grain"
)

var knownOps = map[OpKind]bool{
	OpSepia: true, OpGrayscale: true, OpBrightness: true, OpContrast: true,
	OpSaturate: true, OpHueRotate: true, OpWarmth: true, OpShadows: true,
	OpHighlights: true, OpVignette: true, OpGrain: true,
}

// Op is one operation with its parameter. Hue rotation is in degrees,
// warmth/shadows/highlights use the adjustment slider scale [-100, 100],
// everything else is a CSS-style multiplier or amount.
type Op struct {
	Kind  OpKind
	Value float64
}

func (o Op) String() string {
	v := strconv.FormatFloat(o.Value, 'g', -1, 64)
	if o.Kind == OpHueRotate {
		v += "deg"
	}
	return fmt.Sprintf("%s(%s)", o.Kind, v)
}

// ParseOps parses a whitespace separated list like
// "sepia(0.5) contrast(110%) hue-rotate(-5deg)". "none" and the empty
// string yield no operations.
func ParseOps(s string) ([]Op, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "none" {
		return nil, nil
	}

	var ops []Op
	for _, tok := range strings.Fields(s) {
		open := strings.IndexByte(tok, '(')
		if open <= 0 || !strings.HasSuffix(tok, ")") {
			return nil, fmt.Errorf("malformed operation %q", tok)
		}
		kind := OpKind(strings.ToLower(tok[:open]))
		if !knownOps[kind] {
			return nil, fmt.Errorf("unknown operation %q", kind)
		}
		v, err := parseArg(tok[open+1 : len(tok)-1])
		if err != nil {
			return nil, fmt.Errorf("operation %s: %w", kind, err)
		}
		ops = append(ops, Op{Kind: kind, Value: v})
	}
	return ops, nil
}

func parseArg(arg string) (float64, error) {
	arg = strings.TrimSpace(arg)
	scale := 1.0
	switch {
	case strings.HasSuffix(arg, "deg"):
		arg = strings.TrimSuffix(arg, "deg")
	case strings.HasSuffix(arg, "%"):
		arg = strings.TrimSuffix(arg, "%")
		scale = 0.01
	}
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid argument %q", arg)
	}
	return v * scale, nil
}

// FormatOps renders ops back into the compact string form.
func FormatOps(ops []Op) string {
	if len(ops) == 0 {
		return "none"
	}
	parts := make([]string, len(ops))
	for i, o := range ops {
		parts[i] = o.String()
	}
	return strings.Join(parts, " ")
}
