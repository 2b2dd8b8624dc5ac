// Package editor is the operation facade of photocore. It decodes inputs,
// routes background removal through the relay with a local fallback, runs
// the correction, sharpening and rendering engines and records usage
// counters.
package editor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/photocore/internal/correction"
	"github.com/MeKo-Tech/photocore/internal/filter"
	"github.com/MeKo-Tech/photocore/internal/mask"
	"github.com/MeKo-Tech/photocore/internal/pipeline"
	"github.com/MeKo-Tech/photocore/internal/raster"
	"github.com/MeKo-Tech/photocore/internal/relay"
	"github.com/MeKo-Tech/photocore/internal/session"
	"github.com/MeKo-Tech/photocore/internal/sharpen"
	"github.com/MeKo-Tech/photocore/internal/stats"
)

// Source names which path produced a background removal.
type Source string

const (
	SourceRelay Source = "relay"
	SourceLocal Source = "local"
)

// Remover is the ML relay as seen by the editor. *relay.Client implements it.
type Remover interface {
	Remove(ctx context.Context, img []byte, opts relay.Options) ([]byte, error)
	Preview(ctx context.Context, img []byte, opts relay.Options) ([]byte, error)
}

// RemoveRequest parameterizes a background removal.
type RemoveRequest struct {
	Target    *relay.TargetColor
	Mode      relay.Mode
	Tolerance float64
	// Feather softens the cut-out edge in auto mode, in pixels.
	Feather   float64
	Preview   bool
}

// Cutout is an encoded PNG with a transparent background.
type Cutout struct {
	Source Source
	Mode   relay.Mode
	Data   []byte
	Width  int
	Height int
}

// Correction is an encoded color-corrected image plus what drove it.
type Correction struct {
	Image     raster.Encoded
	Analysis  correction.Analysis
	Params    correction.Params
	// Magnitude summarizes how far Params are from a no-op.
	Magnitude float64
}

// Service runs editor operations. It is safe for concurrent use.
type Service struct {
	remover  Remover
	counter  stats.Counter
	renderer *pipeline.Renderer
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithRemover routes background removal through r before the local heuristic.
func WithRemover(r Remover) Option {
	return func(s *Service) { s.remover = r }
}

// WithCounter records usage in c.
func WithCounter(c stats.Counter) Option {
	return func(s *Service) { s.counter = c }
}

// WithRenderer overrides the scene renderer.
func WithRenderer(r *pipeline.Renderer) Option {
	return func(s *Service) { s.renderer = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a Service. Without a remover every removal runs locally.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, o := range opts {
		o(s)
	}
	if s.renderer == nil {
		s.renderer = pipeline.NewRenderer(pipeline.WithLogger(s.logger))
	}
	return s
}

func (s *Service) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

// DefaultCounters are the initial usage counters.
func DefaultCounters() map[string]int64 {
	return map[string]int64{
		stats.PhotosEdited: 0,
		stats.ActiveUsers:  0,
		stats.FiltersCount: int64(len(filter.Presets())),
	}
}

// RemoveBackgroundAuto removes the background at full resolution. A
// non-positive tolerance selects mask.DefaultTolerance.
func (s *Service) RemoveBackgroundAuto(ctx context.Context, img []byte, tolerance float64) ([]byte, error) {
	out, err := s.RemoveBackground(ctx, img, RemoveRequest{Mode: relay.ModeAuto, Tolerance: tolerance})
	if err != nil {
		return nil, err
	}
	return out.Data, nil
}

// PreviewBackgroundRemoval removes the background from a copy downsized to
// at most 800px. A non-positive tolerance selects mask.PreviewTolerance.
func (s *Service) PreviewBackgroundRemoval(ctx context.Context, img []byte, mode relay.Mode, tolerance float64, target *relay.TargetColor) ([]byte, error) {
	out, err := s.RemoveBackground(ctx, img, RemoveRequest{Mode: mode, Tolerance: tolerance, Target: target, Preview: true})
	if err != nil {
		return nil, err
	}
	return out.Data, nil
}

// RemoveBackground tries the relay first, when one is configured, and
// falls back to the local heuristic once if the relay is unavailable or
// times out. The input is decoded before the relay is contacted, so
// malformed images fail with ErrDecode without a fallback.
func (s *Service) RemoveBackground(ctx context.Context, img []byte, req RemoveRequest) (Cutout, error) {
	src, _, err := raster.Decode(img)
	if err != nil {
		return Cutout{}, err
	}

	mode := relay.ParseMode(string(req.Mode))
	if mode == relay.ModeColor && req.Target == nil {
		mode = relay.ModeAuto
	}
	tol := req.Tolerance
	if tol <= 0 {
		tol = mask.DefaultTolerance
		if req.Preview {
			tol = mask.PreviewTolerance
		}
	}

	source := SourceLocal
	local := func(ctx context.Context) ([]byte, error) {
		source = SourceLocal
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return removeLocal(src, mode, tol, req)
	}

	run := local
	if s.remover != nil {
		opts := relay.Options{Mode: mode, Tolerance: tol, Feather: req.Feather, Target: req.Target}
		primary := func(ctx context.Context) ([]byte, error) {
			source = SourceRelay
			call := s.remover.Remove
			if req.Preview {
				call = s.remover.Preview
			}
			data, err := call(ctx, img, opts)
			if err == nil {
				if _, _, cerr := image.DecodeConfig(bytes.NewReader(data)); cerr != nil {
					err = fmt.Errorf("%w: undecodable result: %v", ErrRelayUnavailable, cerr)
				}
			}
			if err != nil {
				s.log().WarnContext(ctx, "Relay failed, using local heuristic", "mode", mode, "error", err)
			}
			return data, err
		}
		run = Fallback(primary, local, ErrRelayUnavailable, ErrTimeout)
	}

	start := time.Now()
	data, err := run(ctx)
	if err != nil {
		return Cutout{}, fmt.Errorf("background removal failed: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Cutout{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	s.log().DebugContext(ctx, "Removed background", "source", source, "mode", mode, "preview", req.Preview,
		"width", cfg.Width, "height", cfg.Height, "duration", time.Since(start))

	return Cutout{Source: source, Mode: mode, Data: data, Width: cfg.Width, Height: cfg.Height}, nil
}

func removeLocal(src *image.NRGBA, mode relay.Mode, tol float64, req RemoveRequest) ([]byte, error) {
	img := src
	if req.Preview {
		var err error
		if img, err = raster.Preview(src); err != nil {
			return nil, err
		}
	}

	var out *image.NRGBA
	switch mode {
	case relay.ModeDirect:
		out = mask.RemoveDominant(img, tol)
	case relay.ModeColor:
		out = mask.RemoveColor(img, req.Target.RGB(), tol)
	default:
		out, _ = mask.RemoveBackground(img, mask.RemoveOptions{Tolerance: tol, Feather: req.Feather})
	}
	return raster.EncodePNG(out)
}

// AutoColorCorrection corrects the full-resolution image and returns a PNG.
func (s *Service) AutoColorCorrection(ctx context.Context, img []byte) ([]byte, error) {
	c, err := s.Correct(ctx, img, false)
	if err != nil {
		return nil, err
	}
	return c.Image.Data, nil
}

// PreviewColorCorrection corrects a copy downsized to at most 800px.
func (s *Service) PreviewColorCorrection(ctx context.Context, img []byte) ([]byte, error) {
	c, err := s.Correct(ctx, img, true)
	if err != nil {
		return nil, err
	}
	return c.Image.Data, nil
}

// Correct runs the automatic color correction and reports the analysis.
func (s *Service) Correct(ctx context.Context, img []byte, preview bool) (Correction, error) {
	src, _, err := raster.Decode(img)
	if err != nil {
		return Correction{}, err
	}
	if preview {
		if src, err = raster.Preview(src); err != nil {
			return Correction{}, err
		}
	}
	if err := ctx.Err(); err != nil {
		return Correction{}, err
	}

	res := correction.Correct(src)
	enc, err := raster.Encode(res.Image, raster.PNG, 0)
	if err != nil {
		return Correction{}, err
	}
	magnitude := res.Params.Magnitude()
	s.log().DebugContext(ctx, "Corrected colors", "mode", res.Analysis.Mode, "preview", preview,
		"exposure", res.Params.Exposure, "saturation", res.Params.Saturation, "contrast", res.Params.Contrast,
		"magnitude", magnitude)
	return Correction{Image: enc, Analysis: res.Analysis, Params: res.Params, Magnitude: magnitude}, nil
}

// SmartSharpen upscales onto a 3840x2160 canvas, sharpens and returns a JPEG.
func (s *Service) SmartSharpen(ctx context.Context, img []byte) ([]byte, error) {
	enc, err := s.Sharpen(ctx, img, false)
	if err != nil {
		return nil, err
	}
	return enc.Data, nil
}

// PreviewSharpen sharpens a copy downsized to at most 800px.
func (s *Service) PreviewSharpen(ctx context.Context, img []byte) ([]byte, error) {
	enc, err := s.Sharpen(ctx, img, true)
	if err != nil {
		return nil, err
	}
	return enc.Data, nil
}

// Sharpen runs the sharpening engine.
func (s *Service) Sharpen(ctx context.Context, img []byte, preview bool) (raster.Encoded, error) {
	src, _, err := raster.Decode(img)
	if err != nil {
		return raster.Encoded{}, err
	}
	if err := ctx.Err(); err != nil {
		return raster.Encoded{}, err
	}
	if preview {
		return sharpen.Preview(src)
	}
	return sharpen.Enhance(src)
}

// RenderFinal renders the edit scene over img and returns a PNG. A
// successful render counts as one edited photo.
func (s *Service) RenderFinal(ctx context.Context, img []byte, filterID string, adjust filter.AdjustSettings, texts []session.TextElement, stickers []session.StickerElement) ([]byte, error) {
	res, err := s.Render(ctx, img, session.State{
		FilterID: filterID,
		Adjust:   adjust,
		Texts:    texts,
		Stickers: stickers,
	})
	if err != nil {
		return nil, err
	}
	return res.Image.Data, nil
}

// Render renders scene over img and records the edit.
func (s *Service) Render(ctx context.Context, img []byte, scene session.State) (pipeline.Result, error) {
	res, err := s.renderer.Render(ctx, img, scene)
	if err != nil {
		return res, err
	}
	s.count(ctx, stats.PhotosEdited, 1)
	return res, nil
}

// Save renders the current state of sess over img. On success ref is
// recorded as a recent edit; on failure sess is left untouched.
func (s *Service) Save(ctx context.Context, sess *session.Session, img []byte, ref string) (pipeline.Result, error) {
	res, err := s.Render(ctx, img, sess.Snapshot())
	if err != nil {
		return res, fmt.Errorf("failed to save edit: %w", err)
	}
	sess.AddRecentEdit(ref)
	return res, nil
}

// Stats returns the usage counters. Without a counter it returns the defaults.
func (s *Service) Stats(ctx context.Context) (map[string]int64, error) {
	if s.counter == nil {
		return DefaultCounters(), nil
	}
	return s.counter.Snapshot(ctx)
}

// Increment adds delta to the named counter and returns the new value.
func (s *Service) Increment(ctx context.Context, name string, delta int64) (int64, error) {
	if s.counter == nil {
		return 0, errors.New("no usage counter configured")
	}
	return s.counter.Increment(ctx, name, delta)
}

// count records usage. Counter failures never fail an edit.
func (s *Service) count(ctx context.Context, name string, delta int64) {
	if s.counter == nil {
		return
	}
	if _, err := s.counter.Increment(ctx, name, delta); err != nil {
		s.log().WarnContext(ctx, "Failed to update usage counter", "counter", name, "error", err)
	}
}

// RemoveBackgroundAsync starts RemoveBackground on its own goroutine.
func (s *Service) RemoveBackgroundAsync(ctx context.Context, img []byte, req RemoveRequest) *Future[Cutout] {
	ctx = context.WithoutCancel(ctx)
	return Async(func() (Cutout, error) { return s.RemoveBackground(ctx, img, req) })
}

// CorrectAsync starts Correct on its own goroutine.
func (s *Service) CorrectAsync(ctx context.Context, img []byte, preview bool) *Future[Correction] {
	ctx = context.WithoutCancel(ctx)
	return Async(func() (Correction, error) { return s.Correct(ctx, img, preview) })
}

// SharpenAsync starts Sharpen on its own goroutine.
func (s *Service) SharpenAsync(ctx context.Context, img []byte, preview bool) *Future[raster.Encoded] {
	ctx = context.WithoutCancel(ctx)
	return Async(func() (raster.Encoded, error) { return s.Sharpen(ctx, img, preview) })
}

// RenderAsync starts Render on its own goroutine.
func (s *Service) RenderAsync(ctx context.Context, img []byte, scene session.State) *Future[pipeline.Result] {
	ctx = context.WithoutCancel(ctx)
	return Async(func() (pipeline.Result, error) { return s.Render(ctx, img, scene) })
}
