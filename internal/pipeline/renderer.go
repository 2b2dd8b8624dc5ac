// Package pipeline implements the save-time scene renderer: it draws the
// source at export resolution, applies the adjustment sliders and the
// active filter, rasterizes text and sticker overlays and encodes a
// lossless PNG.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/MeKo-Tech/photocore/internal/composite"
	"github.com/MeKo-Tech/photocore/internal/filter"
	"github.com/MeKo-Tech/photocore/internal/raster"
	"github.com/MeKo-Tech/photocore/internal/session"
)

// Export size limits. Larger sources are scaled down to fit; smaller ones
// are never upscaled.
const (
	MaxExportWidth  = 3840
	MaxExportHeight = 2160
)

// ErrInvalidScene is returned when the scene references an unknown filter
// or carries out-of-range adjustments.
var ErrInvalidScene = errors.New("invalid scene")

// State is a step of a render.
type State string

const (
	StateIdle           State = "idle"
	StateLoading        State = "loading"
	StateSizing         State = "sizing"
	StateBaseDraw       State = "base_draw"
	StateAdjusting      State = "adjusting"
	StateFiltering      State = "filtering"
	StateOverlayDrawing State = "overlay_drawing"
	StateEncoding       State = "encoding"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

// Result is a finished render.
type Result struct {
	Image   raster.Encoded
	States  []State
	Skipped []string // sticker ids that are not in the catalog
}

// Renderer renders scenes. It holds no per-render state and is safe for
// concurrent use.
type Renderer struct {
	logger    *slog.Logger
	onState   func(State)
	maxWidth  int
	maxHeight int
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger used for state transitions.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// WithStateCallback registers fn to observe every state a render enters.
// fn is called from the rendering goroutine.
func WithStateCallback(fn func(State)) Option {
	return func(r *Renderer) { r.onState = fn }
}

// WithMaxSize overrides the export size limits.
func WithMaxSize(w, h int) Option {
	return func(r *Renderer) {
		if w > 0 && h > 0 {
			r.maxWidth, r.maxHeight = w, h
		}
	}
}

// NewRenderer creates a renderer with the 4K export limits.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{maxWidth: MaxExportWidth, maxHeight: MaxExportHeight}
	for _, o := range opts {
		o(r)
	}
	return r
}

type run struct {
	r       *Renderer
	ctx     context.Context
	state   State
	history []State
}

func (rn *run) enter(s State, attrs ...any) {
	rn.r.log().DebugContext(rn.ctx, "Render state", append([]any{"from", rn.state, "to", s}, attrs...)...)
	rn.state = s
	rn.history = append(rn.history, s)
	if rn.r.onState != nil {
		rn.r.onState(s)
	}
}

func (rn *run) fail(err error) (Result, error) {
	rn.r.log().WarnContext(rn.ctx, "Render failed", "state", rn.state, "error", err)
	rn.enter(StateFailed)
	return Result{States: rn.history}, err
}

// Render decodes src and renders scene onto it.
func (r *Renderer) Render(ctx context.Context, src []byte, scene session.State) (Result, error) {
	rn := &run{r: r, ctx: ctx, state: StateIdle}

	rn.enter(StateLoading, "bytes", len(src))
	img, format, err := raster.Decode(src)
	if err != nil {
		return rn.fail(err)
	}
	r.log().DebugContext(ctx, "Decoded source", "format", format, "width", img.Rect.Dx(), "height", img.Rect.Dy())
	return r.render(rn, img, scene)
}

// RenderImage renders scene onto an already decoded source. img is not
// modified.
func (r *Renderer) RenderImage(ctx context.Context, img image.Image, scene session.State) (Result, error) {
	rn := &run{r: r, ctx: ctx, state: StateIdle}
	rn.enter(StateLoading)
	if img == nil {
		return rn.fail(fmt.Errorf("%w: nil image", raster.ErrDecode))
	}
	return r.render(rn, img, scene)
}

func (r *Renderer) render(rn *run, src image.Image, scene session.State) (Result, error) {
	preset, ok := filter.Lookup(scene.FilterID)
	if !ok {
		return rn.fail(fmt.Errorf("%w: unknown filter %q", ErrInvalidScene, scene.FilterID))
	}
	if err := scene.Adjust.Validate(); err != nil {
		return rn.fail(fmt.Errorf("%w: %v", ErrInvalidScene, err))
	}

	sb := src.Bounds()
	rn.enter(StateSizing)
	w, h := raster.FitWithin(sb.Dx(), sb.Dy(), r.maxWidth, r.maxHeight)

	rn.enter(StateBaseDraw, "width", w, "height", h)
	canvas, err := r.baseDraw(src, w, h)
	if err != nil {
		return rn.fail(err)
	}

	if !scene.Adjust.IsZero() {
		rn.enter(StateAdjusting)
		filter.ApplyAdjust(canvas, scene.Adjust)
	}

	if !preset.IsIdentity() {
		rn.enter(StateFiltering, "filter", preset.ID)
		filter.Apply(canvas, preset)
	}

	var skipped []string
	if n := len(scene.Texts) + len(scene.Stickers); n > 0 {
		rn.enter(StateOverlayDrawing, "overlays", n)
		for _, t := range scene.Texts {
			if err := composite.DrawText(canvas, t); err != nil {
				return rn.fail(fmt.Errorf("%w: text %s: %v", raster.ErrContextUnavailable, t.ID, err))
			}
		}
		for _, st := range scene.SortedStickers() {
			if !composite.DrawSticker(canvas, st) {
				r.log().WarnContext(rn.ctx, "Skipping unknown sticker", "id", st.ID, "sticker", st.StickerID)
				skipped = append(skipped, st.StickerID)
			}
		}
	}

	rn.enter(StateEncoding)
	enc, err := raster.Encode(canvas, raster.PNG, 0)
	if err != nil {
		return rn.fail(err)
	}

	rn.enter(StateDone, "bytes", len(enc.Data))
	return Result{Image: enc, States: rn.history, Skipped: skipped}, nil
}

func (r *Renderer) baseDraw(src image.Image, w, h int) (*image.NRGBA, error) {
	if err := raster.CheckSize(w, h); err != nil {
		return nil, err
	}
	sb := src.Bounds()
	if sb.Dx() == w && sb.Dy() == h {
		return raster.Clone(src), nil
	}
	canvas, err := raster.Resize(src, w, h)
	if err != nil {
		return nil, fmt.Errorf("failed to scale source: %w", err)
	}
	return canvas, nil
}

func (r *Renderer) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}
